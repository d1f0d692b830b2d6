package accounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/kartvelo/kartvelo-backend/pkg/db/models"
	"github.com/kartvelo/kartvelo-backend/pkg/enums"
)

// RegisterInput holds the validated payload to create a customer account.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Country  string
}

// LoginInput holds submitted credentials.
type LoginInput struct {
	Email    string
	Password string
}

// UserView is the account payload returned to clients. Never carries the
// password hash.
type UserView struct {
	ID        uuid.UUID      `json:"id"`
	Email     string         `json:"email"`
	Name      string         `json:"name"`
	Phone     string         `json:"phone,omitempty"`
	Country   string         `json:"country,omitempty"`
	Role      enums.UserRole `json:"role"`
	CompanyID *uuid.UUID     `json:"company_id,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// AuthResult bundles the minted token with the account it belongs to.
type AuthResult struct {
	AccessToken string   `json:"access_token"`
	User        UserView `json:"user"`
}

func userViewFromModel(user *models.User) UserView {
	return UserView{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Phone:     user.Phone,
		Country:   user.Country,
		Role:      user.Role,
		CompanyID: user.CompanyID,
		CreatedAt: user.CreatedAt,
	}
}
