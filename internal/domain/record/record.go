package record

import (
	"strings"
	"time"
)

// Record is one person holding one specialization with an expiry date.
// ExpiryDate and IssuedDate use the canonical YYYY-MM-DD layout.
type Record struct {
	ID             int64     `json:"id"`
	FirstName      string    `json:"first_name"`
	LastName       string    `json:"last_name"`
	Specialization string    `json:"specialization"`
	IssuedDate     string    `json:"issued_date,omitempty"` // optional
	ExpiryDate     string    `json:"expiry_date"`
	School         string    `json:"school,omitempty"`
	Company        string    `json:"company,omitempty"`
	Email          string    `json:"email,omitempty"`
	Phone          string    `json:"phone,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// FullName joins first and last name, trimming the gap when one is missing.
func (r *Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

// Matches reports whether the lower-cased query occurs in the searchable fields.
func (r *Record) Matches(query string) bool {
	if query == "" {
		return true
	}
	hay := strings.ToLower(strings.Join([]string{r.FirstName, r.LastName, r.Company, r.Specialization}, " "))
	return strings.Contains(hay, strings.ToLower(query))
}
