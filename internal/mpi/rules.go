package mpi

// Rule is a deterministic veto evaluated after field scoring. Rules run in
// slice order and the first one that fires wins: the pair is rejected with
// the rule's name regardless of how high the field scores summed.
type Rule struct {
	Name  string
	Fires func(a, b Record, s ScoreVector) bool
}

// DefaultRules returns the veto rules in their fixed priority order. The
// names are part of the external contract: callers and downstream audit
// tooling key on them, so they must not change.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name: "No Name Match",
			Fires: func(_, _ Record, s ScoreVector) bool {
				return s.Names == 0
			},
		},
		{
			Name: "Last Name Wrong + Address Incorrect",
			Fires: func(_, _ Record, s ScoreVector) bool {
				return s.LastName == 0 && s.Address < maxAddressScore
			},
		},
		{
			Name: "DOB 2+ Parts Wrong + Address Not Same",
			Fires: func(_, _ Record, s ScoreVector) bool {
				return s.DOB <= 1 && s.Address < maxAddressScore
			},
		},
		{
			Name: "DOB 1 Part Wrong + Address Not Perfect + No Contact Match",
			Fires: func(_, _ Record, s ScoreVector) bool {
				return s.DOB == 2 && s.Address < maxAddressScore &&
					s.Phone == 0 && s.Email == 0
			},
		},
		{
			Name: "DOB Off By More Than 15 Years + No Parts Match",
			Fires: func(a, b Record, s ScoreVector) bool {
				return s.DOB == 0 && dobYearsApart(a.DOB, b.DOB) > 15
			},
		},
		{
			Name: "Name + Address + Contact All Mismatch",
			Fires: func(_, _ Record, s ScoreVector) bool {
				return s.Names < 2*maxNameScore && s.Address < maxAddressScore &&
					s.Phone == 0 && s.Email == 0
			},
		},
	}
}

// evalRules returns the name of the first rule that fires, or "" when the
// pair survives the whole chain.
func evalRules(rules []Rule, a, b Record, s ScoreVector) string {
	for _, r := range rules {
		if r.Fires(a, b, s) {
			return r.Name
		}
	}
	return ""
}
