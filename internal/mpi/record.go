// Package mpi implements the demographic matching engine behind the master
// patient index: normalization, per-field similarity scoring, deterministic
// business-rule vetoes, threshold-based match decisions, an association-based
// rescue pass for transitively linked records, and merge selection.
//
// Every function in this package is pure and synchronous: records are passed
// by value, results are newly allocated, and nothing blocks or holds state.
// Callers may invoke the engine concurrently without coordination.
package mpi

import "errors"

// Gender is the birth-sex code exchanged by HIE partners.
type Gender string

const (
	GenderFemale  Gender = "F"
	GenderMale    Gender = "M"
	GenderOther   Gender = "O"
	GenderUnknown Gender = "U"
)

// IdentifierType distinguishes the personal identifier kinds carried on a
// record. Only SSN-typed identifiers participate in scoring.
type IdentifierType string

const (
	IdentifierSSN            IdentifierType = "ssn"
	IdentifierDriversLicense IdentifierType = "driversLicense"
)

// Identifier is a government-issued personal identifier.
type Identifier struct {
	Type  IdentifierType `json:"type"`
	Value string         `json:"value"`
	State string         `json:"state,omitempty"`
}

// Address is a postal address as received from a partner gateway. After
// normalization, Zip is at most five digits, State is a two-letter code (or
// empty when the input was unrecognizable), and the line fields are
// lower-cased with street-suffix and directional abbreviations expanded.
type Address struct {
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country,omitempty"`
}

// Contact is a phone/email pair. After normalization, Phone is digit-only
// with the US country code stripped and Email is trimmed and lower-cased.
type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Record is the demographic view of a patient used for matching. The engine
// never mutates a Record it is given; Normalize returns a new value.
type Record struct {
	FirstName     string       `json:"first_name"`
	LastName      string       `json:"last_name"`
	DOB           string       `json:"dob"` // ISO yyyy-mm-dd
	GenderAtBirth Gender       `json:"gender_at_birth"`
	Identifiers   []Identifier `json:"identifiers,omitempty"`
	Addresses     []Address    `json:"addresses,omitempty"`
	Contacts      []Contact    `json:"contacts,omitempty"`
}

// ErrInvalidSubject is returned when a subject record is missing one of the
// mandatory demographics (first name, last name, DOB, gender). Candidate
// records are never rejected this way; missing fields simply score zero.
var ErrInvalidSubject = errors.New("subject record missing mandatory demographics")

// ValidateSubject checks the mandatory fields of a subject record.
func ValidateSubject(r Record) error {
	if r.FirstName == "" || r.LastName == "" || r.DOB == "" || r.GenderAtBirth == "" {
		return ErrInvalidSubject
	}
	return nil
}

// SSNValues returns the values of the SSN-typed identifiers on the record.
func (r Record) SSNValues() []string {
	var out []string
	for _, id := range r.Identifiers {
		if id.Type == IdentifierSSN && id.Value != "" {
			out = append(out, id.Value)
		}
	}
	return out
}

// HasSSN reports whether the record carries at least one SSN identifier.
func (r Record) HasSSN() bool {
	return len(r.SSNValues()) > 0
}

// Summary renders an audit-safe digest of the record: initials plus birth
// year, never the full demographics.
func (r Record) Summary() string {
	initial := func(s string) string {
		for _, c := range s {
			return string(c) + "."
		}
		return "?"
	}
	year := r.DOB
	if len(year) > 4 {
		year = year[:4]
	}
	return initial(r.FirstName) + initial(r.LastName) + " " + year
}

// ScoreVector holds the six per-field sub-scores produced by the field
// scorers. Values are bounded: names 0-10, dob 0-8, gender 0-1, address 0-2,
// phone 0-2, email 0-2, ssn 0-5.
type ScoreVector struct {
	Names   float64 `json:"names"`
	DOB     float64 `json:"dob"`
	Gender  float64 `json:"gender"`
	Address float64 `json:"address"`
	Phone   float64 `json:"phone"`
	Email   float64 `json:"email"`
	SSN     float64 `json:"ssn"`

	// FirstName and LastName break Names down into its two 5-point halves.
	// They are carried for the business rules and the rescue pass.
	FirstName float64 `json:"first_name"`
	LastName  float64 `json:"last_name"`
}

// Total sums the six field scores.
func (s ScoreVector) Total() float64 {
	return s.Names + s.DOB + s.Gender + s.Address + s.Phone + s.Email + s.SSN
}

// Verdict is the outcome of evaluating one (subject, candidate) pair. When a
// business rule vetoes the pair, TotalScore is forced to zero and FailedRule
// names the rule; the computed field scores remain available in Scores for
// diagnostics.
type Verdict struct {
	IsMatch    bool        `json:"is_match"`
	TotalScore float64     `json:"total_score"`
	Scores     ScoreVector `json:"scores"`
	FailedRule string      `json:"failed_rule,omitempty"`
}
