package ipay

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kartvelo/kartvelo-backend/pkg/config"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/logger"
)

const (
	tokenPath    = "/oauth2/token"
	checkoutPath = "/checkout/orders"
	receiptPath  = "/receipt"
)

var (
	// ErrAuth marks a failed client-credentials exchange with the gateway.
	ErrAuth = errors.New("gateway authentication failed")
	// ErrRequest marks a rejected or failed gateway call after auth succeeded.
	ErrRequest = errors.New("gateway request failed")

	errLoggerRequired  = errors.New("ipay logger is required")
	errBaseURLRequired = errors.New("ipay base url is required")
	errCredsRequired   = errors.New("ipay client id and secret are required")
)

// Client talks to the bank gateway with centralized auth, logging, idempotency,
// and error mapping. Safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	clientID     string
	clientSecret string
	callbackURL  string
	successURL   string
	failURL      string
	locale       string
	currency     string
	verifier     *Verifier
	logger       *logger.Logger

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient initializes the gateway wrapper and validates the credentials. The
// callback-signing public key is parsed eagerly so a bad PEM fails at startup.
func NewClient(ctx context.Context, cfg config.IPayConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	if strings.TrimSpace(cfg.ClientID) == "" || strings.TrimSpace(cfg.ClientSecret) == "" {
		return nil, errCredsRequired
	}

	verifier, err := NewVerifier(cfg.PublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parsing gateway public key: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		clientID:     strings.TrimSpace(cfg.ClientID),
		clientSecret: strings.TrimSpace(cfg.ClientSecret),
		callbackURL:  cfg.CallbackURL,
		successURL:   cfg.SuccessURL,
		failURL:      cfg.FailURL,
		locale:       cfg.Locale,
		currency:     cfg.Currency,
		verifier:     verifier,
		logger:       logg,
	}

	logg.Info(ctx, "ipay client initialized")
	return c, nil
}

// Verifier exposes the callback signature verifier bound to the configured key.
func (c *Client) Verifier() *Verifier {
	if c == nil {
		return nil
	}
	return c.verifier
}

// DefaultCurrency reports the configured settlement currency.
func (c *Client) DefaultCurrency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// NewIdempotencyKey returns a unique key for gateway initiation attempts.
func (c *Client) NewIdempotencyKey() string {
	return uuid.NewString()
}

// tokenExpirySkew renews the cached token ahead of the gateway's deadline so
// an in-flight request never carries a token about to lapse.
const tokenExpirySkew = 30 * time.Second

// Token returns a bearer token, reusing the cached one until it nears expiry.
// Tokens issued without an expires_in hint are never cached.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	token, lifetime, err := c.exchangeToken(ctx)
	if err != nil {
		return "", err
	}

	c.accessToken = ""
	if ttl := lifetime - tokenExpirySkew; ttl > 0 {
		c.accessToken = token
		c.tokenExpiry = time.Now().Add(ttl)
	}
	return token, nil
}

func (c *Client) exchangeToken(ctx context.Context) (string, time.Duration, error) {
	basic := base64.StdEncoding.EncodeToString([]byte(c.clientID + ":" + c.clientSecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+tokenPath,
		strings.NewReader("grant_type=client_credentials"))
	if err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrAuth, err), "build token request")
	}
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "token", map[string]any{"error": err.Error()})
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrAuth, err), "gateway token exchange")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBounded(resp.Body)
		c.log(ctx, "error", "token", map[string]any{"status": resp.StatusCode})
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrAuth, "gateway token exchange").
			WithDetails(map[string]any{"status": resp.StatusCode, "gateway_body": body})
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrAuth, err), "decode token response")
	}
	if payload.AccessToken == "" {
		return "", 0, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrAuth, "gateway returned empty access token")
	}
	return payload.AccessToken, time.Duration(payload.ExpiresIn) * time.Second, nil
}

// InitiateOrder submits a checkout order to the gateway. A fresh idempotency
// key is generated when the params carry none, so a retried call never
// double-charges at the gateway.
func (c *Client) InitiateOrder(ctx context.Context, params InitiateOrderParams) (*InitiateOrderResult, error) {
	if err := params.validate(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid initiate params")
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(params.toRequest(c))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode initiate request")
	}

	idempotencyKey := strings.TrimSpace(params.IdempotencyKey)
	if idempotencyKey == "" {
		idempotencyKey = c.NewIdempotencyKey()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "build initiate request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Language", c.locale)
	req.Header.Set("Idempotency-Key", idempotencyKey)

	c.log(ctx, "request", "initiate_order", map[string]any{
		"order_number": params.OrderNumber,
		"amount":       params.Amount.String(),
		"currency":     params.currencyOrDefault(c),
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "initiate_order", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "gateway initiate call")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "read initiate response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log(ctx, "error", "initiate_order", map[string]any{"status": resp.StatusCode})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrRequest, "gateway rejected initiate").
			WithDetails(map[string]any{"status": resp.StatusCode, "gateway_body": string(raw)})
	}

	result := &InitiateOrderResult{Raw: json.RawMessage(raw)}
	var parsed struct {
		ID     string `json:"id"`
		Status string `json:"status"`
		Links  struct {
			Redirect struct {
				Href string `json:"href"`
			} `json:"redirect"`
		} `json:"_links"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil {
		result.TransactionID = parsed.ID
		result.Status = parsed.Status
		result.RedirectURL = parsed.Links.Redirect.Href
	}

	c.log(ctx, "response", "initiate_order", map[string]any{
		"transaction_id": result.TransactionID,
		"status":         result.Status,
	})
	return result, nil
}

// GetOrderDetails fetches the gateway's receipt document
// for a known transaction id. Pure read-through, no local mutation.
func (c *Client) GetOrderDetails(ctx context.Context, transactionID string) (json.RawMessage, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+receiptPath+"/"+transactionID, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "build receipt request")
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept-Language", c.locale)

	c.log(ctx, "request", "get_order_details", map[string]any{"transaction_id": transactionID})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log(ctx, "error", "get_order_details", map[string]any{"error": err.Error()})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "gateway receipt call")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, errors.Join(ErrRequest, err), "read receipt response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log(ctx, "error", "get_order_details", map[string]any{"status": resp.StatusCode})
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, ErrRequest, "gateway rejected receipt query").
			WithDetails(map[string]any{"status": resp.StatusCode, "gateway_body": string(raw)})
	}

	c.log(ctx, "response", "get_order_details", map[string]any{"transaction_id": transactionID})
	return json.RawMessage(raw), nil
}

const maxResponseBytes = 1 << 20

func readBounded(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, maxResponseBytes))
	if err != nil {
		return ""
	}
	return string(b)
}

func (c *Client) log(ctx context.Context, phase, op string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{
		"operation": op,
		"phase":     phase,
	}
	for k, v := range fields {
		logFields[k] = c.redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, fmt.Sprintf("ipay %s", op), errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, fmt.Sprintf("ipay %s", phase))
	}
}

func (c *Client) redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range []string{"card", "token", "secret", "email", "phone", "payer"} {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
