package mpi

// DefaultThreshold is the baseline acceptance bar for the weighted
// strategy. With names worth 10 and dob worth 8, a single strong dimension
// is never enough on its own.
const DefaultThreshold = 8.5

// ssnEscalation is added to the threshold when both records carry SSN
// identifiers. A present-but-mismatched SSN usually means a typo rather
// than a different person, so the pair is asked for stronger corroboration
// instead of being vetoed outright.
const ssnEscalation = 1.0

// Strategy decides whether two normalized records describe the same person.
type Strategy interface {
	Evaluate(subject, candidate Record) Verdict
}

// WeightedStrategy is the production strategy: field scoring, the veto rule
// chain, threshold comparison, and SSN escalation. The zero value is not
// usable; construct it with NewWeightedStrategy.
type WeightedStrategy struct {
	threshold float64
	rules     []Rule
}

// NewWeightedStrategy returns the strategy with the default threshold and
// rule chain.
func NewWeightedStrategy() *WeightedStrategy {
	return &WeightedStrategy{threshold: DefaultThreshold, rules: DefaultRules()}
}

// NewWeightedStrategyWithThreshold overrides the acceptance threshold,
// keeping the default rules. Used by replay tooling to study threshold
// sensitivity.
func NewWeightedStrategyWithThreshold(threshold float64) *WeightedStrategy {
	return &WeightedStrategy{threshold: threshold, rules: DefaultRules()}
}

// Evaluate scores the pair and applies the rule chain. A fired rule forces
// the verdict to a zero-score rejection but keeps the computed field scores
// in the vector so callers can still see what the pair looked like.
func (w *WeightedStrategy) Evaluate(subject, candidate Record) Verdict {
	scores := Score(subject, candidate)
	total := scores.Total()

	if rule := evalRules(w.rules, subject, candidate, scores); rule != "" {
		return Verdict{IsMatch: false, TotalScore: 0, Scores: scores, FailedRule: rule}
	}

	threshold := w.threshold
	if BothHaveSSN(subject, candidate) {
		threshold += ssnEscalation
	}
	return Verdict{IsMatch: total >= threshold, TotalScore: total, Scores: scores}
}

// ExactStrategy matches only on byte-equal normalized first name, last
// name, dob and gender. Kept for conservative partners that refuse fuzzy
// linkage.
type ExactStrategy struct{}

func (ExactStrategy) Evaluate(subject, candidate Record) Verdict {
	scores := Score(subject, candidate)
	match := subject.FirstName != "" && subject.FirstName == candidate.FirstName &&
		subject.LastName != "" && subject.LastName == candidate.LastName &&
		subject.DOB != "" && subject.DOB == candidate.DOB &&
		subject.GenderAtBirth != "" && subject.GenderAtBirth == candidate.GenderAtBirth
	return Verdict{IsMatch: match, TotalScore: scores.Total(), Scores: scores}
}

// jaroWinklerBar is the mean-similarity acceptance bar for the legacy
// strategy.
const jaroWinklerBar = 0.96

// JaroWinklerStrategy is the legacy similarity strategy: the Jaro-Winkler
// similarity of first name, last name, dob, and gender is averaged and
// compared against a fixed bar. It predates the weighted rules and is kept
// for comparison runs against historical link decisions.
type JaroWinklerStrategy struct{}

func (JaroWinklerStrategy) Evaluate(subject, candidate Record) Verdict {
	sim := (jaroWinkler(subject.FirstName, candidate.FirstName) +
		jaroWinkler(subject.LastName, candidate.LastName) +
		jaroWinkler(subject.DOB, candidate.DOB) +
		jaroWinkler(string(subject.GenderAtBirth), string(candidate.GenderAtBirth))) / 4
	scores := Score(subject, candidate)
	return Verdict{IsMatch: sim >= jaroWinklerBar, TotalScore: sim, Scores: scores}
}

// Outcome is the result of matching one subject against a candidate set.
// All indices refer to positions in the candidate slice passed to Match, so
// callers can map them back to their own identifiers.
type Outcome struct {
	Verdicts  []Verdict `json:"verdicts"`
	Matched   []int     `json:"matched"`
	Rescued   []int     `json:"rescued"`
	Selected  int       `json:"selected"` // -1 when no candidate matched
	Ambiguous bool      `json:"ambiguous"`
}

// Matcher runs the full pipeline: normalize, evaluate every candidate,
// rescue transitively linked rejects, and select the merge target. It holds
// no mutable state and is safe for concurrent use.
type Matcher struct {
	strategy Strategy
	sink     EventSink
}

// NewMatcher builds a matcher around the given strategy. A nil sink
// disables telemetry.
func NewMatcher(strategy Strategy, sink EventSink) *Matcher {
	if sink == nil {
		sink = NopSink{}
	}
	return &Matcher{strategy: strategy, sink: sink}
}

// Match evaluates the subject against every candidate. The subject must
// carry first name, last name, dob, and gender; candidates are taken as-is
// and simply fail to match when sparse. Both sides are normalized here, so
// callers pass raw records.
func (m *Matcher) Match(subject Record, candidates []Record) (Outcome, error) {
	if err := ValidateSubject(subject); err != nil {
		return Outcome{}, err
	}
	subjNorm := Normalize(subject)

	out := Outcome{
		Verdicts: make([]Verdict, len(candidates)),
		Selected: -1,
	}
	normalized := make([]Record, len(candidates))
	var accepted, rejected []int
	for i, c := range candidates {
		normalized[i] = Normalize(c)
		v := m.strategy.Evaluate(subjNorm, normalized[i])
		out.Verdicts[i] = v
		if v.IsMatch {
			accepted = append(accepted, i)
		} else {
			rejected = append(rejected, i)
			if v.FailedRule != "" {
				m.sink.Notify(Event{
					Kind:           EventRuleVeto,
					SubjectSummary: subjNorm.Summary(),
					CandidateIdx:   []int{i},
					Rule:           v.FailedRule,
				})
			}
		}
	}

	out.Matched = accepted
	out.Rescued = rescueIndices(normalized, accepted, rejected)

	selectable := append(append([]int{}, out.Matched...), out.Rescued...)
	out.Selected, out.Ambiguous = selectIndex(selectable)
	if out.Ambiguous {
		m.sink.Notify(Event{
			Kind:           EventAmbiguousMatch,
			SubjectSummary: subjNorm.Summary(),
			CandidateIdx:   selectable,
			ChosenIdx:      out.Selected,
		})
	}
	return out, nil
}
