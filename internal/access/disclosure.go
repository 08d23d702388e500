package access

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/ppa-crm/internal/domain"
)

// ContactPlaceholder replaces the seller contact person until terms are agreed.
const ContactPlaceholder = "Contact Information Available After Terms Agreement"

const pseudonymLength = 6

// SellerView is the seller as a buyer may see it.
type SellerView struct {
	ID            string              `json:"id"`
	CompanyName   string              `json:"companyName"`
	ContactPerson string              `json:"contactPerson"`
	ContactEmail  *string             `json:"contactEmail"`
	ContactPhone  *string             `json:"contactPhone"`
	ProjectType   string              `json:"projectType"`
	Capacity      decimal.Decimal     `json:"capacity"`
	Location      string              `json:"location"`
	State         string              `json:"state"`
	AskingPrice   decimal.Decimal     `json:"askingPrice"`
	Status        domain.SellerStatus `json:"status"`
}

// MatchView is a match projected for its buyer.
type MatchView struct {
	ID          string             `json:"id"`
	Status      domain.MatchStatus `json:"status"`
	MatchedAt   time.Time          `json:"matchedAt"`
	TermsAgreed bool               `json:"termsAgreed"`
	AgreedAt    *time.Time         `json:"agreedAt,omitempty"`
	Seller      *SellerView        `json:"seller"`
}

// SellerPseudonym derives the stable masked company name for a seller id.
func SellerPseudonym(sellerID string) string {
	prefix := sellerID
	if runes := []rune(sellerID); len(runes) > pseudonymLength {
		prefix = string(runes[:pseudonymLength])
	}
	return "Seller-" + strings.ToUpper(prefix)
}

// MaskSeller hides identifying seller fields.
func MaskSeller(s *domain.Seller) *SellerView {
	if s == nil {
		return nil
	}
	view := FullSeller(s)
	view.CompanyName = SellerPseudonym(s.ID)
	view.ContactPerson = ContactPlaceholder
	view.ContactEmail = nil
	view.ContactPhone = nil
	return view
}

// FullSeller exposes every seller field.
func FullSeller(s *domain.Seller) *SellerView {
	if s == nil {
		return nil
	}
	email, phone := s.ContactEmail, s.ContactPhone
	return &SellerView{
		ID:            s.ID,
		CompanyName:   s.CompanyName,
		ContactPerson: s.ContactPerson,
		ContactEmail:  &email,
		ContactPhone:  &phone,
		ProjectType:   s.ProjectType,
		Capacity:      s.Capacity,
		Location:      s.Location,
		State:         s.State,
		AskingPrice:   s.AskingPrice,
		Status:        s.Status,
	}
}

// ProjectMatchForBuyer applies the disclosure gate: the seller is shown in
// full only once a terms agreement exists for the match.
func ProjectMatchForBuyer(m *domain.Match) MatchView {
	view := MatchView{
		ID:        m.ID,
		Status:    m.Status,
		MatchedAt: m.MatchedAt,
	}
	if m.TermsAgreed() {
		agreedAt := m.TermsAgreement.AgreedAt
		view.TermsAgreed = true
		view.AgreedAt = &agreedAt
		view.Seller = FullSeller(m.Seller)
		return view
	}
	view.Seller = MaskSeller(m.Seller)
	return view
}
