package patient

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ehr/patientlookup/internal/platform/httperr"
)

const (
	msgNameRequired = "Name is required"
	msgDOBRequired  = "Date of birth is required"
	msgDOBPast      = "Date of birth must be in the past"
	msgDOBFormat    = "Invalid format. Please provide a valid date in YYYY-MM-DD format"
	msgEmailInvalid = "Invalid email address"
)

var validate = validator.New()

// Validate checks a create request against now and returns the parsed fields.
// The error, when non-nil, is an httperr.FieldErrors.
func (r CreatePatientRequest) Validate(now time.Time) (PatientFields, error) {
	return validateFields(r.Name, r.DateOfBirth, r.Email, now)
}

// Validate checks a full-update request against now.
func (r UpdatePatientRequest) Validate(now time.Time) (PatientFields, error) {
	return validateFields(r.Name, r.DateOfBirth, r.Email, now)
}

func validateFields(name, dob string, email *string, now time.Time) (PatientFields, error) {
	errs := httperr.FieldErrors{}
	var f PatientFields

	if n, msg := checkName(name); msg != "" {
		errs.Add("name", msg)
	} else {
		f.Name = n
	}
	if d, msg := checkDateOfBirth(dob, now); msg != "" {
		errs.Add("dateOfBirth", msg)
	} else {
		f.DateOfBirth = d
	}
	if e, msg := checkEmail(email); msg != "" {
		errs.Add("email", msg)
	} else {
		f.Email = e
	}

	if err := errs.Err(); err != nil {
		return PatientFields{}, err
	}
	return f, nil
}

func checkName(name string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", msgNameRequired
	}
	return name, ""
}

// checkDateOfBirth parses raw as YYYY-MM-DD and requires it to fall strictly
// before the calendar date of now.
func checkDateOfBirth(raw string, now time.Time) (time.Time, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, msgDOBRequired
	}
	d, err := time.Parse(DateLayout, raw)
	if err != nil {
		return time.Time{}, msgDOBFormat
	}
	if !d.Before(dateOf(now)) {
		return time.Time{}, msgDOBPast
	}
	return d, ""
}

// checkEmail treats nil and blank as "no email".
func checkEmail(email *string) (*string, string) {
	if email == nil {
		return nil, ""
	}
	e := strings.TrimSpace(*email)
	if e == "" {
		return nil, ""
	}
	if err := validate.Var(e, "email"); err != nil {
		return nil, msgEmailInvalid
	}
	return &e, ""
}
