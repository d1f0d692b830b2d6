package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/kartvelo/kartvelo-backend/pkg/auth"
	"github.com/kartvelo/kartvelo-backend/pkg/config"
	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
	pkgerrors "github.com/kartvelo/kartvelo-backend/pkg/errors"
	"github.com/kartvelo/kartvelo-backend/pkg/security"
)

type stubAccountsRepo struct {
	byEmail map[string]*models.User
}

func newStubAccountsRepo() *stubAccountsRepo {
	return &stubAccountsRepo{byEmail: map[string]*models.User{}}
}

func (r *stubAccountsRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	r.byEmail[user.Email] = user
	return user, nil
}

func (r *stubAccountsRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (r *stubAccountsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, user := range r.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:            "test-secret",
		Issuer:            "kartvelo-test",
		ExpirationMinutes: 60,
	}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newAccountsService(t *testing.T, repo Repository) Service {
	t.Helper()

	svc, err := NewService(Params{
		Repo:        repo,
		JWTConfig:   testJWTConfig(),
		PasswordCfg: testPasswordConfig(),
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestRegisterAndLoginRoundTrip(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	ctx := context.Background()

	registered, err := svc.Register(ctx, RegisterInput{
		Email:    "  Nino@Example.com ",
		Password: "correct horse",
		Name:     "Nino B",
		Country:  "GE",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.User.Email != "nino@example.com" {
		t.Fatalf("email not normalized: %q", registered.User.Email)
	}
	if registered.User.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected role %q", registered.User.Role)
	}
	if registered.AccessToken == "" {
		t.Fatal("expected access token")
	}

	stored := repo.byEmail["nino@example.com"]
	if stored.PasswordHash == "correct horse" {
		t.Fatal("password stored in the clear")
	}
	if ok, err := security.VerifyPassword("correct horse", stored.PasswordHash); err != nil || !ok {
		t.Fatalf("stored hash does not verify: ok=%v err=%v", ok, err)
	}

	result, err := svc.Login(ctx, LoginInput{Email: "nino@example.com", Password: "correct horse"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.UserID != registered.User.ID {
		t.Fatal("token subject mismatch")
	}
	if claims.Role != enums.UserRoleCustomer {
		t.Fatalf("unexpected token role %q", claims.Role)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	ctx := context.Background()

	input := RegisterInput{Email: "dup@example.com", Password: "long enough", Name: "First"}
	if _, err := svc.Register(ctx, input); err != nil {
		t.Fatalf("first Register: %v", err)
	}

	_, err := svc.Register(ctx, input)
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newAccountsService(t, newStubAccountsRepo())
	ctx := context.Background()

	cases := []struct {
		name  string
		input RegisterInput
	}{
		{"empty email", RegisterInput{Password: "long enough", Name: "x"}},
		{"bad email", RegisterInput{Email: "not-an-email", Password: "long enough", Name: "x"}},
		{"short password", RegisterInput{Email: "a@b.ge", Password: "short", Name: "x"}},
		{"empty name", RegisterInput{Email: "a@b.ge", Password: "long enough"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.input)
			domainErr := pkgerrors.As(err)
			if domainErr == nil || domainErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.ge", Password: "long enough", Name: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, attempt := range []LoginInput{
		{Email: "a@b.ge", Password: "wrong password"},
		{Email: "unknown@b.ge", Password: "long enough"},
	} {
		_, err := svc.Login(ctx, attempt)
		domainErr := pkgerrors.As(err)
		if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
			t.Fatalf("expected unauthorized for %q, got %v", attempt.Email, err)
		}
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Email: "a@b.ge", Password: "long enough", Name: "x"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	repo.byEmail["a@b.ge"].IsActive = false

	_, err := svc.Login(ctx, LoginInput{Email: "a@b.ge", Password: "long enough"})
	domainErr := pkgerrors.As(err)
	if domainErr == nil || domainErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginStaffCarriesCompanyClaim(t *testing.T) {
	repo := newStubAccountsRepo()
	svc := newAccountsService(t, repo)
	ctx := context.Background()

	companyID := uuid.New()
	hash, err := security.HashPassword("long enough", testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	repo.byEmail["staff@b.ge"] = &models.User{
		ID:           uuid.New(),
		Email:        "staff@b.ge",
		PasswordHash: hash,
		Name:         "Staff",
		Role:         enums.UserRoleStaff,
		CompanyID:    &companyID,
		IsActive:     true,
	}

	result, err := svc.Login(ctx, LoginInput{Email: "staff@b.ge", Password: "long enough"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	claims, err := auth.ParseAccessToken(testJWTConfig(), result.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.Role != enums.UserRoleStaff {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if claims.CompanyID == nil || *claims.CompanyID != companyID {
		t.Fatal("company claim missing")
	}
}
