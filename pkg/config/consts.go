package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry explicit
	// envconfig tags so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv   = "KARTVELO_APP_ENV"
	EnvPort     = "KARTVELO_APP_PORT"
	EnvDBDSN    = "KARTVELO_DB_DSN"
	EnvDBHost   = "KARTVELO_DB_HOST"
	EnvDBUser   = "KARTVELO_DB_USER"
	EnvDBName   = "KARTVELO_DB_NAME"
	EnvRedisURL = "KARTVELO_REDIS_URL"

	EnvJWTSecret  = "KARTVELO_JWT_SECRET"
	EnvJWTIssuer  = "KARTVELO_JWT_ISSUER"
	EnvJWTExpMins = "KARTVELO_JWT_EXPIRATION_MINUTES"

	EnvIPayBaseURL      = "KARTVELO_IPAY_BASE_URL"
	EnvIPayClientID     = "KARTVELO_IPAY_CLIENT_ID"
	EnvIPayClientSecret = "KARTVELO_IPAY_CLIENT_SECRET"
	EnvIPayPublicKey    = "KARTVELO_IPAY_PUBLIC_KEY_PEM"
	EnvIPayCallbackURL  = "KARTVELO_IPAY_CALLBACK_URL"
	EnvIPaySuccessURL   = "KARTVELO_IPAY_SUCCESS_URL"
	EnvIPayFailURL      = "KARTVELO_IPAY_FAIL_URL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
