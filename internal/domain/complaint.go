package domain

type Complaint struct {
	ID         string
	PropertyID string // matched against Property.ID by value, no join
	Text       string
	Date       string // free-form, not validated
	Status     string
	Title      string
	Severity   string
}
