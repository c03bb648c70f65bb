package patient

import "time"

// ToResponse maps a patient to its response shape, deriving age from now.
// A nil patient maps to nil.
func ToResponse(p *Patient, now time.Time) *PatientResponse {
	if p == nil {
		return nil
	}
	resp := &PatientResponse{
		ID:          p.ID,
		Name:        p.Name,
		DateOfBirth: p.DateOfBirth.Format(DateLayout),
		Age:         p.Age(now),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Email != nil {
		email := *p.Email
		resp.Email = &email
	}
	return resp
}

// ToResponses maps a page of patients, skipping nil entries.
func ToResponses(items []*Patient, now time.Time) []PatientResponse {
	out := make([]PatientResponse, 0, len(items))
	for _, p := range items {
		if r := ToResponse(p, now); r != nil {
			out = append(out, *r)
		}
	}
	return out
}
