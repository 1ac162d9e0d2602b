package mpi

import (
	"regexp"
	"strings"
)

// streetExpansions maps the street-suffix and directional abbreviations that
// partner gateways commonly emit to the full word used for comparison.
// Expansion (rather than contraction) keeps "Main Street" and "Main St"
// identical after normalization without guessing at ambiguous short forms.
var streetExpansions = map[string]string{
	"st":   "street",
	"ave":  "avenue",
	"blvd": "boulevard",
	"dr":   "drive",
	"rd":   "road",
	"ter":  "terrace",
	"pl":   "place",
	"ln":   "lane",
	"hwy":  "highway",
	"pkwy": "parkway",
	"ct":   "court",
	"cir":  "circle",
	"n":    "north",
	"s":    "south",
	"e":    "east",
	"w":    "west",
	"ne":   "northeast",
	"nw":   "northwest",
	"se":   "southeast",
	"sw":   "southwest",
}

// usStates is the controlled state vocabulary: two-letter codes plus the
// full names partners sometimes spell out.
var usStates = map[string]string{
	"al": "al", "ak": "ak", "az": "az", "ar": "ar", "ca": "ca", "co": "co",
	"ct": "ct", "de": "de", "fl": "fl", "ga": "ga", "hi": "hi", "id": "id",
	"il": "il", "in": "in", "ia": "ia", "ks": "ks", "ky": "ky", "la": "la",
	"me": "me", "md": "md", "ma": "ma", "mi": "mi", "mn": "mn", "ms": "ms",
	"mo": "mo", "mt": "mt", "ne": "ne", "nv": "nv", "nh": "nh", "nj": "nj",
	"nm": "nm", "ny": "ny", "nc": "nc", "nd": "nd", "oh": "oh", "ok": "ok",
	"or": "or", "pa": "pa", "ri": "ri", "sc": "sc", "sd": "sd", "tn": "tn",
	"tx": "tx", "ut": "ut", "vt": "vt", "va": "va", "wa": "wa", "wv": "wv",
	"wi": "wi", "wy": "wy", "dc": "dc", "pr": "pr",

	"alabama": "al", "alaska": "ak", "arizona": "az", "arkansas": "ar",
	"california": "ca", "colorado": "co", "connecticut": "ct",
	"delaware": "de", "florida": "fl", "georgia": "ga", "hawaii": "hi",
	"idaho": "id", "illinois": "il", "indiana": "in", "iowa": "ia",
	"kansas": "ks", "kentucky": "ky", "louisiana": "la", "maine": "me",
	"maryland": "md", "massachusetts": "ma", "michigan": "mi",
	"minnesota": "mn", "mississippi": "ms", "missouri": "mo",
	"montana": "mt", "nebraska": "ne", "nevada": "nv",
	"new hampshire": "nh", "new jersey": "nj", "new mexico": "nm",
	"new york": "ny", "north carolina": "nc", "north dakota": "nd",
	"ohio": "oh", "oklahoma": "ok", "oregon": "or", "pennsylvania": "pa",
	"rhode island": "ri", "south carolina": "sc", "south dakota": "sd",
	"tennessee": "tn", "texas": "tx", "utah": "ut", "vermont": "vt",
	"virginia": "va", "washington": "wa", "west virginia": "wv",
	"wisconsin": "wi", "wyoming": "wy", "district of columbia": "dc",
	"puerto rico": "pr",
}

var nonDigitRe = regexp.MustCompile(`\D`)

// Normalize canonicalizes a raw demographic record into the comparable form
// the scorers operate on. It never fails: missing or malformed optional
// fields pass through degraded, not rejected. The input record is not
// modified.
func Normalize(r Record) Record {
	out := Record{
		FirstName:     strings.ToLower(strings.TrimSpace(r.FirstName)),
		LastName:      strings.ToLower(strings.TrimSpace(r.LastName)),
		DOB:           strings.TrimSpace(r.DOB),
		GenderAtBirth: normalizeGender(r.GenderAtBirth),
	}

	if len(r.Identifiers) > 0 {
		out.Identifiers = make([]Identifier, 0, len(r.Identifiers))
		for _, id := range r.Identifiers {
			out.Identifiers = append(out.Identifiers, Identifier{
				Type:  id.Type,
				Value: strings.TrimSpace(id.Value),
				State: normalizeState(id.State),
			})
		}
	}

	if len(r.Addresses) > 0 {
		out.Addresses = make([]Address, 0, len(r.Addresses))
		for _, a := range r.Addresses {
			out.Addresses = append(out.Addresses, normalizeAddress(a))
		}
	}

	if len(r.Contacts) > 0 {
		out.Contacts = make([]Contact, 0, len(r.Contacts))
		for _, c := range r.Contacts {
			out.Contacts = append(out.Contacts, Contact{
				Phone: NormalizePhone(c.Phone),
				Email: NormalizeEmail(c.Email),
			})
		}
	}

	return out
}

func normalizeGender(g Gender) Gender {
	switch strings.ToLower(strings.TrimSpace(string(g))) {
	case "f", "female":
		return GenderFemale
	case "m", "male":
		return GenderMale
	case "o", "other":
		return GenderOther
	case "u", "unknown":
		return GenderUnknown
	}
	return ""
}

func normalizeAddress(a Address) Address {
	return Address{
		Line1:   normalizeAddressLine(a.Line1),
		Line2:   normalizeAddressLine(a.Line2),
		City:    strings.ToLower(strings.TrimSpace(a.City)),
		State:   normalizeState(a.State),
		Zip:     normalizeZip(a.Zip),
		Country: normalizeCountry(a.Country),
	}
}

// normalizeAddressLine lower-cases the line and expands street-suffix and
// directional abbreviations token by token. A trailing period on a token
// ("St.", "Ave.") is dropped before lookup.
func normalizeAddressLine(line string) string {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return ""
	}
	tokens := strings.Fields(line)
	for i, tok := range tokens {
		trimmed := strings.TrimSuffix(tok, ".")
		if full, ok := streetExpansions[trimmed]; ok {
			tokens[i] = full
		} else {
			tokens[i] = trimmed
		}
	}
	return strings.Join(tokens, " ")
}

// normalizeState maps the input to a two-letter state code. Unrecognized
// input yields the empty string rather than an error.
func normalizeState(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if code, ok := usStates[key]; ok {
		return code
	}
	return ""
}

func normalizeZip(zip string) string {
	digits := nonDigitRe.ReplaceAllString(strings.TrimSpace(zip), "")
	if len(digits) > 5 {
		return digits[:5]
	}
	return digits
}

func normalizeCountry(c string) string {
	c = strings.ToLower(strings.TrimSpace(c))
	switch c {
	case "", "us", "usa", "united states", "united states of america":
		return "usa"
	}
	if len(c) > 3 {
		c = c[:3]
	}
	return c
}

// NormalizePhone strips everything but digits and drops a leading US/Canada
// country code when the result is eleven digits long.
func NormalizePhone(phone string) string {
	digits := nonDigitRe.ReplaceAllString(phone, "")
	if len(digits) == 11 && digits[0] == '1' {
		return digits[1:]
	}
	return digits
}

// NormalizeEmail trims and lower-cases the address. Malformed input is left
// as-is; matching on garbage simply never succeeds.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// splitName splits a normalized name on whitespace and commas, so inputs
// like "smith, jr" become comparable tokens.
func splitName(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
}

// splitNameParts splits a surname on whitespace and hyphens, exposing the
// components of compound names like "smith-jones".
func splitNameParts(name string) []string {
	return strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '-'
	})
}

// stripName removes whitespace and hyphens entirely, so "mary jane" and
// "maryjane" compare equal.
func stripName(name string) string {
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || r == '-' {
			return -1
		}
		return r
	}, name)
}
