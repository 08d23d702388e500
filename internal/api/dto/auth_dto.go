package dto

import "time"

// RegisterRequest is the buyer sign-up payload.
type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	CompanyName string `json:"companyName" validate:"required"`
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	Location    string `json:"location" validate:"required"`
	State       string `json:"state" validate:"required"`
	Mobile      string `json:"mobile" validate:"required"`
}

// LoginRequest is shared by the buyer, employee and admin logins.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// BuyerResponse is a buyer account without credentials.
type BuyerResponse struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	CompanyName string    `json:"companyName"`
	FirstName   string    `json:"firstName"`
	LastName    string    `json:"lastName"`
	Location    string    `json:"location"`
	State       string    `json:"state"`
	Mobile      string    `json:"mobile"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdminResponse describes the signed-in admin.
type AdminResponse struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}
