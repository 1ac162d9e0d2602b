package mpi

import (
	"regexp"
	"strings"

	"github.com/agnivade/levenshtein"
)

// Scoring bounds for the six demographic dimensions.
const (
	maxNameScore    = 5.0 // per half; first + last = 10
	maxDOBScore     = 8.0
	maxGenderScore  = 1.0
	maxAddressScore = 2.0
	maxContactScore = 2.0
	maxSSNScore     = 5.0

	nameSimilarityThreshold = 0.6
	coreAddressThreshold    = 0.7
	minPrefixLen            = 3
)

// Score computes the full vector of field scores for a pair of normalized
// records. Every scorer is symmetric: Score(a, b) equals Score(b, a).
func Score(a, b Record) ScoreVector {
	v := ScoreVector{
		DOB:     ScoreDOB(a.DOB, b.DOB),
		Gender:  ScoreGender(a.GenderAtBirth, b.GenderAtBirth),
		Address: ScoreAddresses(a.Addresses, b.Addresses),
		Phone:   ScorePhones(a.Contacts, b.Contacts),
		Email:   ScoreEmails(a.Contacts, b.Contacts),
		SSN:     ScoreSSNs(a, b),
	}
	v.FirstName, v.LastName = ScoreNames(a, b)
	v.Names = v.FirstName + v.LastName
	return v
}

// levenshteinRatio maps edit distance into [0,1]: 1 is identical, 0 shares
// nothing. Empty input on either side scores zero.
func levenshteinRatio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := la
	if lb > longest {
		longest = lb
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}

// ---------------------------------------------------------------------------
// Names
// ---------------------------------------------------------------------------

// ScoreNames scores the first- and last-name halves independently, 5 points
// each. Either half also matches against the opposite field of the other
// record, tolerating feeds that transpose given and family names.
func ScoreNames(a, b Record) (first, last float64) {
	if firstNamesMatch(a.FirstName, b.FirstName) ||
		namesSwapped(a.FirstName, b.LastName) ||
		namesSwapped(b.FirstName, a.LastName) {
		first = maxNameScore
	}
	if lastNamesMatch(a.LastName, b.LastName) ||
		namesSwapped(a.LastName, b.FirstName) ||
		namesSwapped(b.LastName, a.FirstName) {
		last = maxNameScore
	}
	return first, last
}

// firstNamesMatch applies the token, stripped-equality, similarity, and
// prefix tests to a pair of normalized given names.
func firstNamesMatch(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if tokensIntersect(splitName(a), splitName(b)) {
		return true
	}
	sa, sb := stripName(a), stripName(b)
	if sa == sb {
		return true
	}
	if levenshteinRatio(sa, sb) >= nameSimilarityThreshold {
		return true
	}
	return isSignificantPrefix(sa, sb)
}

// lastNamesMatch extends the given-name tests with compound-surname
// handling: any hyphen/whitespace-delimited part of one surname matching any
// part of the other counts, as does one stripped surname containing the
// other.
func lastNamesMatch(a, b string) bool {
	if firstNamesMatch(a, b) {
		return true
	}
	if a == "" || b == "" {
		return false
	}
	partsA, partsB := splitNameParts(a), splitNameParts(b)
	if tokensIntersect(partsA, partsB) {
		return true
	}
	sa, sb := stripName(a), stripName(b)
	for _, p := range partsA {
		if p == sb {
			return true
		}
	}
	for _, p := range partsB {
		if p == sa {
			return true
		}
	}
	return strings.Contains(sa, sb) || strings.Contains(sb, sa)
}

// namesSwapped is the cross-field test used for first/last transposition:
// token equality or stripped-string equality only, so a swapped pair must
// match exactly rather than merely look similar.
func namesSwapped(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if tokensIntersect(splitName(a), splitName(b)) {
		return true
	}
	return stripName(a) == stripName(b)
}

func tokensIntersect(a, b []string) bool {
	for _, ta := range a {
		for _, tb := range b {
			if ta != "" && ta == tb {
				return true
			}
		}
	}
	return false
}

func isSignificantPrefix(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	return len(shorter) >= minPrefixLen && strings.HasPrefix(longer, shorter)
}

// ---------------------------------------------------------------------------
// Date of birth
// ---------------------------------------------------------------------------

var dobSepRe = regexp.MustCompile(`[-/]`)

// ScoreDOB awards 8 for exact equality. Otherwise the dates are split into
// year/month/day and matching components are counted positionally, capped at
// 2 so that a coincidental partial overlap scores an order of magnitude
// below an exact match.
func ScoreDOB(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return maxDOBScore
	}
	partsA := dobSepRe.Split(a, -1)
	partsB := dobSepRe.Split(b, -1)
	n := len(partsA)
	if len(partsB) < n {
		n = len(partsB)
	}
	matching := 0.0
	for i := 0; i < n; i++ {
		if partsA[i] != "" && partsA[i] == partsB[i] {
			matching++
		}
	}
	if matching > 2 {
		matching = 2
	}
	return matching
}

// dobYearsApart returns the absolute difference between the year components,
// or -1 when either year is unparseable.
func dobYearsApart(a, b string) int {
	ya, yb := dobYear(a), dobYear(b)
	if ya < 0 || yb < 0 {
		return -1
	}
	if ya > yb {
		return ya - yb
	}
	return yb - ya
}

func dobYear(dob string) int {
	parts := dobSepRe.Split(dob, -1)
	if len(parts) == 0 || len(parts[0]) != 4 {
		return -1
	}
	year := 0
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return -1
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// ---------------------------------------------------------------------------
// Gender
// ---------------------------------------------------------------------------

// ScoreGender awards 1 for exact equality of the birth-sex codes.
func ScoreGender(a, b Gender) float64 {
	if a != "" && a == b {
		return maxGenderScore
	}
	return 0
}

// ---------------------------------------------------------------------------
// Address
// ---------------------------------------------------------------------------

// unitSuffixRe strips trailing apartment/unit designations from a combined
// street line ("123 main street apt 5b" -> "123 main street"). The keyword
// must start on a word boundary so a trailing word that merely contains one
// ("capt", "reno") is left alone; "#" may be glued to the street text.
var unitSuffixRe = regexp.MustCompile(`\s*(?:#|\b(?:apt\.?|apartment|unit|suite|ste\.?|bldg\.?|building|fl\.?|floor|no\.?))\s*[\w-]*\s*$`)

// CoreAddress concatenates the normalized street lines and strips any
// trailing apartment/unit suffix, producing the representation compared
// independently of apartment-level detail.
func CoreAddress(a Address) string {
	combined := strings.TrimSpace(strings.TrimSpace(a.Line1) + " " + strings.TrimSpace(a.Line2))
	stripped := strings.TrimSpace(unitSuffixRe.ReplaceAllString(combined, ""))
	if stripped == "" {
		return combined
	}
	return stripped
}

// coreAddressesMatch compares two core addresses by exact equality,
// bidirectional containment, or Levenshtein similarity.
func coreAddressesMatch(a, b Address) bool {
	ca, cb := CoreAddress(a), CoreAddress(b)
	if ca == "" || cb == "" {
		return false
	}
	if ca == cb {
		return true
	}
	if strings.Contains(ca, cb) || strings.Contains(cb, ca) {
		return true
	}
	return levenshteinRatio(ca, cb) >= coreAddressThreshold
}

// AddressesMatch reports whether any address pair between the two sets has
// matching zip, matching state, and a core-address match. This is the full
// "same address" test used for the 2-point score, the business rules, and
// the rescue pass.
func AddressesMatch(as, bs []Address) bool {
	for _, a := range as {
		for _, b := range bs {
			if a.Zip != "" && a.Zip == b.Zip &&
				a.State != "" && a.State == b.State &&
				coreAddressesMatch(a, b) {
				return true
			}
		}
	}
	return false
}

// ScoreAddresses awards the full 2 points when AddressesMatch holds.
// Otherwise it accumulates 0.5 for each of a city, zip, state, and
// core-address match found anywhere across the address-pair combinations.
func ScoreAddresses(as, bs []Address) float64 {
	if AddressesMatch(as, bs) {
		return maxAddressScore
	}
	var cityMatch, zipMatch, stateMatch, coreMatch bool
	for _, a := range as {
		for _, b := range bs {
			if a.City != "" && a.City == b.City {
				cityMatch = true
			}
			if a.Zip != "" && a.Zip == b.Zip {
				zipMatch = true
			}
			if a.State != "" && a.State == b.State {
				stateMatch = true
			}
			if coreAddressesMatch(a, b) {
				coreMatch = true
			}
		}
	}
	score := 0.0
	for _, hit := range []bool{cityMatch, zipMatch, stateMatch, coreMatch} {
		if hit {
			score += 0.5
		}
	}
	return score
}

// ---------------------------------------------------------------------------
// Contact
// ---------------------------------------------------------------------------

// ScorePhones awards 2 when any contact pair shares a normalized phone
// number. There is no partial credit.
func ScorePhones(as, bs []Contact) float64 {
	for _, a := range as {
		for _, b := range bs {
			if a.Phone != "" && a.Phone == b.Phone {
				return maxContactScore
			}
		}
	}
	return 0
}

// ScoreEmails awards 2 when any contact pair shares a normalized email.
func ScoreEmails(as, bs []Contact) float64 {
	for _, a := range as {
		for _, b := range bs {
			if a.Email != "" && a.Email == b.Email {
				return maxContactScore
			}
		}
	}
	return 0
}

// ---------------------------------------------------------------------------
// SSN
// ---------------------------------------------------------------------------

// ScoreSSNs awards 5 when the records' SSN value sets intersect.
func ScoreSSNs(a, b Record) float64 {
	ssnA, ssnB := a.SSNValues(), b.SSNValues()
	for _, va := range ssnA {
		for _, vb := range ssnB {
			if va == vb {
				return maxSSNScore
			}
		}
	}
	return 0
}

// BothHaveSSN reports whether both records carry SSN identifiers at all,
// matching or not. The decision function uses it to escalate the threshold.
func BothHaveSSN(a, b Record) bool {
	return a.HasSSN() && b.HasSSN()
}
