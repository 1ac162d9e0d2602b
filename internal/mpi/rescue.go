package mpi

// Rescue promotes rejected records that are transitively verifiable through
// an already-accepted record. A person showing up under a maiden name or an
// old address can fail the decision function on its own yet share a phone
// number or street address with a record that passed; those links are
// strong enough to carry the rejection over the line.
//
// Both inputs must already be normalized. The result preserves the order of
// the rejected slice and contains each promoted record once, no matter how
// many accepted records corroborate it. Empty accepted or rejected input
// short-circuits to nil without any scoring work.
func Rescue(accepted, rejected []Record) []Record {
	if len(accepted) == 0 || len(rejected) == 0 {
		return nil
	}
	var promoted []Record
	for _, r := range rejected {
		for _, a := range accepted {
			if associated(r, a) {
				promoted = append(promoted, r)
				break
			}
		}
	}
	return promoted
}

// associated is the transitive-link test between one rejected and one
// accepted record.
func associated(r, a Record) bool {
	// Shared surname plus a secondary signal.
	first, last := ScoreNames(r, a)
	if last > 0 && (first > 0 || ScoreDOB(r.DOB, a.DOB) > 0 || AddressesMatch(r.Addresses, a.Addresses)) {
		return true
	}
	// Shared phone or email.
	if ScorePhones(r.Contacts, a.Contacts) > 0 || ScoreEmails(r.Contacts, a.Contacts) > 0 {
		return true
	}
	// Same address outright, name notwithstanding.
	return AddressesMatch(r.Addresses, a.Addresses)
}

// rescueIndices is the index-based form used by the Matcher: normalized
// holds every candidate, and accepted/rejected partition its indices.
func rescueIndices(normalized []Record, accepted, rejected []int) []int {
	if len(accepted) == 0 || len(rejected) == 0 {
		return nil
	}
	var promoted []int
	for _, ri := range rejected {
		for _, ai := range accepted {
			if associated(normalized[ri], normalized[ai]) {
				promoted = append(promoted, ri)
				break
			}
		}
	}
	return promoted
}
