package domain

import "time"

// MatchStatus tracks a buyer/seller pairing.
type MatchStatus string

const (
	MatchStatusPending     MatchStatus = "pending"
	MatchStatusTermsAgreed MatchStatus = "terms_agreed"
	MatchStatusCompleted   MatchStatus = "completed"
)

// Match pairs a buyer with a seller.
type Match struct {
	ID        string
	UserID    string
	SellerID  string
	Status    MatchStatus
	MatchedAt time.Time
	UpdatedAt time.Time

	Seller         *Seller
	Buyer          *Buyer
	TermsAgreement *TermsAgreement
}

// TermsAgreed reports whether a terms agreement exists for the match.
func (m *Match) TermsAgreed() bool {
	return m != nil && m.TermsAgreement != nil
}

// TermsAgreement is written once per match and never changed.
type TermsAgreement struct {
	ID        string
	MatchID   string
	UserID    string
	IPAddress string
	AgreedAt  time.Time
}
