package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// SellerRequest is used by the public registration form and the admin console.
type SellerRequest struct {
	CompanyName   string          `json:"companyName" validate:"required"`
	ContactPerson string          `json:"contactPerson" validate:"required"`
	ContactEmail  string          `json:"contactEmail" validate:"required,email"`
	ContactPhone  string          `json:"contactPhone" validate:"required"`
	ProjectType   string          `json:"projectType" validate:"required"`
	Capacity      decimal.Decimal `json:"capacity"`
	Location      string          `json:"location" validate:"required"`
	State         string          `json:"state" validate:"required"`
	AskingPrice   decimal.Decimal `json:"askingPrice"`
	Status        string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// UpdateSellerRequest payload.
type UpdateSellerRequest struct {
	CompanyName   *string          `json:"companyName" validate:"omitempty,min=1"`
	ContactPerson *string          `json:"contactPerson" validate:"omitempty,min=1"`
	ContactEmail  *string          `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone  *string          `json:"contactPhone"`
	ProjectType   *string          `json:"projectType"`
	Capacity      *decimal.Decimal `json:"capacity"`
	Location      *string          `json:"location"`
	State         *string          `json:"state"`
	AskingPrice   *decimal.Decimal `json:"askingPrice"`
	Status        *string          `json:"status" validate:"omitempty,oneof=active inactive"`
}

// SellerResponse is the full seller record, for admin use only.
type SellerResponse struct {
	ID            string              `json:"id"`
	CompanyName   string              `json:"companyName"`
	ContactPerson string              `json:"contactPerson"`
	ContactEmail  string              `json:"contactEmail"`
	ContactPhone  string              `json:"contactPhone"`
	ProjectType   string              `json:"projectType"`
	Capacity      decimal.Decimal     `json:"capacity"`
	Location      string              `json:"location"`
	State         string              `json:"state"`
	AskingPrice   decimal.Decimal     `json:"askingPrice"`
	Status        domain.SellerStatus `json:"status"`
	CreatedAt     time.Time           `json:"createdAt"`
	UpdatedAt     time.Time           `json:"updatedAt"`
}

// CreateMatchRequest payload.
type CreateMatchRequest struct {
	UserID   string `json:"userId" validate:"required"`
	SellerID string `json:"sellerId" validate:"required"`
}

// TermsAgreementResponse is a recorded agreement.
type TermsAgreementResponse struct {
	ID        string    `json:"id"`
	IPAddress string    `json:"ipAddress"`
	AgreedAt  time.Time `json:"agreedAt"`
}

// AdminMatchResponse is a match as the admin sees it.
type AdminMatchResponse struct {
	ID             string                  `json:"id"`
	Status         domain.MatchStatus      `json:"status"`
	MatchedAt      time.Time               `json:"matchedAt"`
	Buyer          *BuyerResponse          `json:"user"`
	Seller         *SellerResponse         `json:"seller"`
	TermsAgreement *TermsAgreementResponse `json:"termsAgreement"`
}

// BuyerDetailResponse is a buyer with their matches.
type BuyerDetailResponse struct {
	BuyerResponse
	Matches []AdminMatchResponse `json:"matches"`
}
