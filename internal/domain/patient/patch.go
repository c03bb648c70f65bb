package patient

import (
	"sort"
	"time"

	"github.com/ehr/patientlookup/internal/platform/httperr"
)

// FieldUpdate is one change carried by a PATCH payload. The set of
// implementations is closed: NameUpdate, DateOfBirthUpdate, EmailUpdate.
type FieldUpdate interface {
	Field() string
	apply(p *Patient)
}

// NameUpdate replaces the patient name.
type NameUpdate struct{ Name string }

func (u NameUpdate) Field() string    { return "name" }
func (u NameUpdate) apply(p *Patient) { p.Name = u.Name }

// DateOfBirthUpdate replaces the date of birth.
type DateOfBirthUpdate struct{ DateOfBirth time.Time }

func (u DateOfBirthUpdate) Field() string    { return "dateOfBirth" }
func (u DateOfBirthUpdate) apply(p *Patient) { p.DateOfBirth = u.DateOfBirth }

// EmailUpdate with a nil Email removes the stored address.
type EmailUpdate struct{ Email *string }

func (u EmailUpdate) Field() string { return "email" }
func (u EmailUpdate) apply(p *Patient) {
	if u.Email == nil {
		p.Email = nil
		return
	}
	email := *u.Email
	p.Email = &email
}

// readOnlyFields are part of the response but can never be patched.
var readOnlyFields = map[string]bool{
	"id":        true,
	"createdAt": true,
	"updatedAt": true,
	"age":       true,
}

// ParsePatch converts a decoded JSON object into field updates. Values of
// the wrong JSON type and read-only keys are rejected with per-field
// messages; keys that name no patient field are ignored. "dob" is accepted
// as an alias of "dateOfBirth", but not both at once.
func ParsePatch(raw map[string]interface{}, now time.Time) ([]FieldUpdate, error) {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	errs := httperr.FieldErrors{}
	updates := make([]FieldUpdate, 0, len(keys))
	dobKey := ""

	for _, key := range keys {
		value := raw[key]
		switch key {
		case "name":
			s, ok := value.(string)
			if !ok {
				if value == nil {
					errs.Add(key, msgNameRequired)
				} else {
					errs.Add(key, "Name must be a string")
				}
				continue
			}
			name, msg := checkName(s)
			if msg != "" {
				errs.Add(key, msg)
				continue
			}
			updates = append(updates, NameUpdate{Name: name})

		case "dateOfBirth", "dob":
			if dobKey != "" {
				errs.Add(key, "Date of birth supplied twice, use only dateOfBirth")
				continue
			}
			dobKey = key
			if value == nil {
				errs.Add(key, msgDOBRequired)
				continue
			}
			s, ok := value.(string)
			if !ok {
				errs.Add(key, msgDOBFormat)
				continue
			}
			dob, msg := checkDateOfBirth(s, now)
			if msg != "" {
				errs.Add(key, msg)
				continue
			}
			updates = append(updates, DateOfBirthUpdate{DateOfBirth: dob})

		case "email":
			if value == nil {
				updates = append(updates, EmailUpdate{})
				continue
			}
			s, ok := value.(string)
			if !ok {
				errs.Add(key, "Email must be a string")
				continue
			}
			email, msg := checkEmail(&s)
			if msg != "" {
				errs.Add(key, msg)
				continue
			}
			updates = append(updates, EmailUpdate{Email: email})

		default:
			if readOnlyFields[key] {
				errs.Add(key, "Field is read-only")
			}
		}
	}

	if err := errs.Err(); err != nil {
		return nil, err
	}
	return updates, nil
}
