package domain

import "time"

// Buyer is a registered marketplace user looking for PPA sellers.
type Buyer struct {
	ID           string
	Email        string
	PasswordHash string
	CompanyName  string
	FirstName    string
	LastName     string
	Location     string
	State        string
	Mobile       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FullName joins first and last name.
func (b *Buyer) FullName() string {
	if b.LastName == "" {
		return b.FirstName
	}
	return b.FirstName + " " + b.LastName
}
