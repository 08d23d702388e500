package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SellerStatus tracks listing state.
type SellerStatus string

const (
	SellerStatusActive   SellerStatus = "active"
	SellerStatusInactive SellerStatus = "inactive"
)

// Seller is a power project offered on the marketplace.
type Seller struct {
	ID            string
	CompanyName   string
	ContactPerson string
	ContactEmail  string
	ContactPhone  string
	ProjectType   string
	Capacity      decimal.Decimal
	Location      string
	State         string
	AskingPrice   decimal.Decimal
	Status        SellerStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
