package patient

import (
	"time"

	"github.com/google/uuid"
)

// DateLayout is the wire format of dateOfBirth.
const DateLayout = "2006-01-02"

// Patient maps to the patients table.
type Patient struct {
	ID          uuid.UUID `db:"id"`
	Name        string    `db:"name"`
	DateOfBirth time.Time `db:"date_of_birth"`
	Email       *string   `db:"email"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Age returns the number of whole calendar years between DateOfBirth and
// now. A birthday later in the year than now has not been reached yet.
func (p *Patient) Age(now time.Time) int {
	years := now.Year() - p.DateOfBirth.Year()
	if now.Month() < p.DateOfBirth.Month() ||
		(now.Month() == p.DateOfBirth.Month() && now.Day() < p.DateOfBirth.Day()) {
		years--
	}
	return years
}

func (p *Patient) clone() *Patient {
	cp := *p
	if p.Email != nil {
		email := *p.Email
		cp.Email = &email
	}
	return &cp
}

// dateOf truncates t to midnight UTC of its calendar date.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
