package patient

import (
	"time"

	"github.com/google/uuid"

	"github.com/hie/mpi/internal/mpi"
)

// Patient maps to the patient table. Demographics mirror the matching
// engine's record shape so rows convert losslessly for scoring.
type Patient struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	FirstName     string           `db:"first_name" json:"first_name"`
	LastName      string           `db:"last_name" json:"last_name"`
	DOB           string           `db:"dob" json:"dob"`
	GenderAtBirth mpi.Gender       `db:"gender_at_birth" json:"gender_at_birth"`
	Identifiers   []mpi.Identifier `db:"identifiers" json:"identifiers,omitempty"`
	Addresses     []mpi.Address    `db:"addresses" json:"addresses,omitempty"`
	Contacts      []mpi.Contact    `db:"contacts" json:"contacts,omitempty"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time        `db:"updated_at" json:"updated_at"`
}

// ToRecord converts the row into the engine's demographic record.
func (p *Patient) ToRecord() mpi.Record {
	return mpi.Record{
		FirstName:     p.FirstName,
		LastName:      p.LastName,
		DOB:           p.DOB,
		GenderAtBirth: p.GenderAtBirth,
		Identifiers:   p.Identifiers,
		Addresses:     p.Addresses,
		Contacts:      p.Contacts,
	}
}

// ToFHIR renders the row as a FHIR R4 Patient resource.
func (p *Patient) ToFHIR() map[string]interface{} {
	result := map[string]interface{}{
		"resourceType": "Patient",
		"id":           p.ID.String(),
		"name": []map[string]interface{}{
			{"family": p.LastName, "given": []string{p.FirstName}},
		},
		"birthDate": p.DOB,
		"gender":    fhirGender(p.GenderAtBirth),
		"meta": map[string]interface{}{
			"lastUpdated": p.UpdatedAt.Format(time.RFC3339),
		},
	}
	if len(p.Identifiers) > 0 {
		idents := make([]map[string]interface{}, 0, len(p.Identifiers))
		for _, ident := range p.Identifiers {
			idents = append(idents, map[string]interface{}{
				"type":  map[string]interface{}{"text": ident.Type},
				"value": ident.Value,
			})
		}
		result["identifier"] = idents
	}
	if len(p.Addresses) > 0 {
		addrs := make([]map[string]interface{}, 0, len(p.Addresses))
		for _, a := range p.Addresses {
			lines := []string{}
			if a.Line1 != "" {
				lines = append(lines, a.Line1)
			}
			if a.Line2 != "" {
				lines = append(lines, a.Line2)
			}
			addrs = append(addrs, map[string]interface{}{
				"line":       lines,
				"city":       a.City,
				"state":      a.State,
				"postalCode": a.Zip,
				"country":    a.Country,
			})
		}
		result["address"] = addrs
	}
	var telecom []map[string]interface{}
	for _, ct := range p.Contacts {
		if ct.Phone != "" {
			telecom = append(telecom, map[string]interface{}{"system": "phone", "value": ct.Phone})
		}
		if ct.Email != "" {
			telecom = append(telecom, map[string]interface{}{"system": "email", "value": ct.Email})
		}
	}
	if len(telecom) > 0 {
		result["telecom"] = telecom
	}
	return result
}

func fhirGender(g mpi.Gender) string {
	switch g {
	case mpi.GenderFemale:
		return "female"
	case mpi.GenderMale:
		return "male"
	case mpi.GenderOther:
		return "other"
	default:
		return "unknown"
	}
}
