package job

import (
	"time"
)

const (
	EmploymentFullTime   = "full_time"
	EmploymentPartTime   = "part_time"
	EmploymentContract   = "contract"
	EmploymentTemporary  = "temporary"
	EmploymentInternship = "internship"
)

// Posting is one job advertisement. Postings are never hard-deleted:
// employers deactivate them, and every posting lapses on its expiry date
// regardless of state.
type Posting struct {
	ID             string     `db:"id"`
	EmployerID     string     `db:"employer_id"`
	Title          string     `db:"title"`
	Company        string     `db:"company"`
	Description    string     `db:"description"`
	Location       string     `db:"location"`
	Industry       string     `db:"industry"`
	Remote         bool       `db:"remote"`
	EmploymentType string     `db:"employment_type"`
	SalaryMin      *int64     `db:"salary_min"`
	SalaryMax      *int64     `db:"salary_max"`
	Active         bool       `db:"active"`
	ExpiresAt      time.Time  `db:"expires_at"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
	DeactivatedAt  *time.Time `db:"deactivated_at"`
}

func (p *Posting) Visible(now time.Time) bool {
	return p.Active && p.ExpiresAt.After(now)
}

func ValidEmploymentType(t string) bool {
	switch t {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract,
		EmploymentTemporary, EmploymentInternship:
		return true
	}
	return false
}
