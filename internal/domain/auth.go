package domain

// SubjectType differentiates the three credential classes.
type SubjectType string

const (
	SubjectTypeBuyer    SubjectType = "buyer"
	SubjectTypeEmployee SubjectType = "employee"
	SubjectTypeAdmin    SubjectType = "admin"
)
