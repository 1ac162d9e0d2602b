package mpi

import (
	"errors"
	"sync"
	"testing"
)

func baseSubject() Record {
	return Record{
		FirstName:     "John",
		LastName:      "Doe",
		DOB:           "1990-01-01",
		GenderAtBirth: "M",
		Addresses:     []Address{{Line1: "123 Main St", City: "New York", State: "NY", Zip: "10001"}},
		Contacts:      []Contact{{Phone: "555-123-4567"}},
	}
}

func evaluate(t *testing.T, a, b Record) Verdict {
	t.Helper()
	return NewWeightedStrategy().Evaluate(Normalize(a), Normalize(b))
}

// ---------------------------------------------------------------------------
// WeightedStrategy
// ---------------------------------------------------------------------------

func TestWeighted_IdenticalRecords(t *testing.T) {
	v := evaluate(t, baseSubject(), baseSubject())
	if !v.IsMatch {
		t.Fatal("identical records did not match")
	}
	if v.FailedRule != "" {
		t.Errorf("FailedRule = %q, want none", v.FailedRule)
	}
	s := v.Scores
	if s.Names != 10 || s.DOB != 8 || s.Gender != 1 || s.Address != 2 || s.Phone != 2 {
		t.Errorf("scores = %+v, want names 10 dob 8 gender 1 address 2 phone 2", s)
	}
}

func TestWeighted_Reflexive(t *testing.T) {
	records := []Record{
		baseSubject(),
		{FirstName: "Maria", LastName: "Garcia-Lopez", DOB: "1975-06-30", GenderAtBirth: "F"},
		{FirstName: "A", LastName: "B", DOB: "2000-12-31", GenderAtBirth: "other"},
	}
	for _, r := range records {
		v := evaluate(t, r, r)
		if !v.IsMatch || v.TotalScore < DefaultThreshold {
			t.Errorf("record %q %q not reflexively matched: %+v", r.FirstName, r.LastName, v)
		}
	}
}

func TestWeighted_CaseAndWhitespaceInvariant(t *testing.T) {
	shouty := baseSubject()
	shouty.FirstName = "  JOHN "
	shouty.LastName = "DOE"
	shouty.Addresses[0].Line1 = "123 MAIN STREET"
	v := evaluate(t, baseSubject(), shouty)
	if !v.IsMatch {
		t.Errorf("case/whitespace variant did not match: %+v", v)
	}
}

func TestWeighted_DifferentLastNameCarriedByAddress(t *testing.T) {
	candidate := baseSubject()
	candidate.LastName = "Smith"
	v := evaluate(t, baseSubject(), candidate)
	if !v.IsMatch {
		t.Errorf("expected match, got %+v", v)
	}
	if v.FailedRule != "" {
		t.Errorf("FailedRule = %q, want none", v.FailedRule)
	}
}

func TestWeighted_TripleMismatchVeto(t *testing.T) {
	candidate := baseSubject()
	candidate.FirstName = "Robert"
	candidate.Addresses = []Address{{Line1: "789 Pine St", City: "Chicago", State: "IL", Zip: "60601"}}
	candidate.Contacts = []Contact{{Phone: "555-999-8888"}}
	v := evaluate(t, baseSubject(), candidate)
	if v.IsMatch {
		t.Error("expected veto")
	}
	if v.FailedRule != "Name + Address + Contact All Mismatch" {
		t.Errorf("FailedRule = %q", v.FailedRule)
	}
	if v.TotalScore != 0 {
		t.Errorf("TotalScore = %v, want 0 on veto", v.TotalScore)
	}
}

func TestWeighted_VetoDominatesHighScore(t *testing.T) {
	// Everything but the name matches, including SSN. The weighted sum is
	// far above threshold; the no-name rule must still reject.
	subject := baseSubject()
	subject.Identifiers = []Identifier{{Type: IdentifierSSN, Value: "123-45-6789"}}
	candidate := subject
	candidate.FirstName = "Wilhelmina"
	candidate.LastName = "Schneider"
	v := evaluate(t, subject, candidate)
	if v.IsMatch {
		t.Error("expected veto despite high field scores")
	}
	if v.FailedRule != "No Name Match" {
		t.Errorf("FailedRule = %q, want No Name Match", v.FailedRule)
	}
	if v.TotalScore != 0 {
		t.Errorf("TotalScore = %v, want 0", v.TotalScore)
	}
	// The field scores stay readable for diagnostics.
	if v.Scores.SSN != 5 || v.Scores.Address != 2 {
		t.Errorf("diagnostic scores lost: %+v", v.Scores)
	}
}

func TestWeighted_SSNEscalation(t *testing.T) {
	// Last name and phone match, one DOB part is wrong, gender differs:
	// 5 + 2 + 0 + 0 + 2 = 9, above 8.5 but below 9.5.
	subject := Record{
		FirstName:     "John",
		LastName:      "Doe",
		DOB:           "1990-01-01",
		GenderAtBirth: "M",
		Contacts:      []Contact{{Phone: "555-123-4567"}},
	}
	candidate := subject
	candidate.FirstName = "Zebulon"
	candidate.DOB = "1990-01-15"
	candidate.GenderAtBirth = "F"

	v := evaluate(t, subject, candidate)
	if !v.IsMatch || v.TotalScore != 9 {
		t.Fatalf("baseline verdict = %+v, want match at 9", v)
	}

	subject.Identifiers = []Identifier{{Type: IdentifierSSN, Value: "111-22-3333"}}
	candidate.Identifiers = []Identifier{{Type: IdentifierSSN, Value: "999-88-7777"}}
	v = evaluate(t, subject, candidate)
	if v.TotalScore != 9 {
		t.Errorf("TotalScore = %v, want 9 (mismatched SSN adds nothing)", v.TotalScore)
	}
	if v.IsMatch {
		t.Error("expected escalated threshold to reject a 9 when both carry SSNs")
	}
}

func TestWeighted_MatchingSSNStillCounts(t *testing.T) {
	subject := baseSubject()
	subject.Identifiers = []Identifier{{Type: IdentifierSSN, Value: "123-45-6789"}}
	v := evaluate(t, subject, subject)
	if !v.IsMatch || v.Scores.SSN != 5 {
		t.Errorf("verdict = %+v, want match with ssn 5", v)
	}
}

// ---------------------------------------------------------------------------
// Legacy strategies
// ---------------------------------------------------------------------------

func TestExactStrategy(t *testing.T) {
	a := Normalize(baseSubject())
	v := ExactStrategy{}.Evaluate(a, a)
	if !v.IsMatch {
		t.Error("identical records did not match exactly")
	}

	b := a
	b.FirstName = "jon"
	if v := (ExactStrategy{}).Evaluate(a, b); v.IsMatch {
		t.Error("near name should not pass the exact strategy")
	}
}

func TestJaroWinklerStrategy(t *testing.T) {
	a := Normalize(baseSubject())
	if v := (JaroWinklerStrategy{}).Evaluate(a, a); !v.IsMatch || v.TotalScore != 1 {
		t.Errorf("identical verdict = %+v, want similarity 1", v)
	}

	b := Normalize(Record{FirstName: "Jane", LastName: "Smith", DOB: "1985-03-12", GenderAtBirth: "F"})
	if v := (JaroWinklerStrategy{}).Evaluate(a, b); v.IsMatch {
		t.Errorf("dissimilar records matched: %+v", v)
	}
}

func TestJaroWinkler_Similarity(t *testing.T) {
	if got := jaroWinkler("martha", "marhta"); got <= 0.9 {
		t.Errorf("jaroWinkler(martha, marhta) = %v, want > 0.9", got)
	}
	if got := jaroWinkler("smith", "jones"); got >= 0.5 {
		t.Errorf("jaroWinkler(smith, jones) = %v, want < 0.5", got)
	}
	if got := jaroWinkler("", "smith"); got != 0 {
		t.Errorf("jaroWinkler with empty input = %v, want 0", got)
	}
}

// ---------------------------------------------------------------------------
// Matcher
// ---------------------------------------------------------------------------

type captureSink struct {
	mu     sync.Mutex
	events []Event
}

func (c *captureSink) Notify(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *captureSink) byKind(k EventKind) []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Event
	for _, e := range c.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func TestMatcher_InvalidSubject(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	_, err := m.Match(Record{FirstName: "John"}, nil)
	if !errors.Is(err, ErrInvalidSubject) {
		t.Errorf("err = %v, want ErrInvalidSubject", err)
	}
}

func TestMatcher_NoCandidates(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	out, err := m.Match(baseSubject(), nil)
	if err != nil {
		t.Fatal(err)
	}
	if out.Selected != -1 || out.Ambiguous || len(out.Matched) != 0 {
		t.Errorf("outcome = %+v, want empty with Selected -1", out)
	}
}

func TestMatcher_SingleMatch(t *testing.T) {
	m := NewMatcher(NewWeightedStrategy(), nil)
	stranger := Record{
		FirstName: "Jane", LastName: "Smith", DOB: "1985-03-12", GenderAtBirth: "F",
		Addresses: []Address{{Line1: "1 Elm St", City: "Chicago", State: "IL", Zip: "60601"}},
	}
	out, err := m.Match(baseSubject(), []Record{stranger, baseSubject()})
	if err != nil {
		t.Fatal(err)
	}
	if out.Selected != 1 {
		t.Errorf("Selected = %d, want 1", out.Selected)
	}
	if out.Ambiguous {
		t.Error("single match flagged ambiguous")
	}
	if len(out.Matched) != 1 || out.Matched[0] != 1 {
		t.Errorf("Matched = %v, want [1]", out.Matched)
	}
}

func TestMatcher_AmbiguousEmitsEvent(t *testing.T) {
	sink := &captureSink{}
	m := NewMatcher(NewWeightedStrategy(), sink)
	out, err := m.Match(baseSubject(), []Record{baseSubject(), baseSubject()})
	if err != nil {
		t.Fatal(err)
	}
	if !out.Ambiguous || out.Selected != 0 {
		t.Errorf("outcome = %+v, want ambiguous with Selected 0", out)
	}
	events := sink.byKind(EventAmbiguousMatch)
	if len(events) != 1 {
		t.Fatalf("ambiguous events = %d, want 1", len(events))
	}
	if events[0].ChosenIdx != 0 || len(events[0].CandidateIdx) != 2 {
		t.Errorf("event = %+v", events[0])
	}
}

func TestMatcher_VetoEmitsEvent(t *testing.T) {
	sink := &captureSink{}
	m := NewMatcher(NewWeightedStrategy(), sink)
	stranger := Record{
		FirstName: "Jane", LastName: "Smith", DOB: "1985-03-12", GenderAtBirth: "F",
	}
	if _, err := m.Match(baseSubject(), []Record{stranger}); err != nil {
		t.Fatal(err)
	}
	events := sink.byKind(EventRuleVeto)
	if len(events) != 1 {
		t.Fatalf("veto events = %d, want 1", len(events))
	}
	if events[0].Rule != "No Name Match" {
		t.Errorf("event rule = %q", events[0].Rule)
	}
}

func TestMatcher_RescuePromotesLinkedReject(t *testing.T) {
	// The maiden-name record fails on its own but shares a phone number
	// with the accepted record.
	accepted := baseSubject()
	maiden := Record{
		FirstName:     "Johanna",
		LastName:      "Eriksson",
		DOB:           "1958-07-22",
		GenderAtBirth: "F",
		Contacts:      []Contact{{Phone: "555-123-4567"}},
	}
	sink := &captureSink{}
	m := NewMatcher(NewWeightedStrategy(), sink)
	out, err := m.Match(baseSubject(), []Record{accepted, maiden})
	if err != nil {
		t.Fatal(err)
	}
	if len(out.Rescued) != 1 || out.Rescued[0] != 1 {
		t.Errorf("Rescued = %v, want [1]", out.Rescued)
	}
	if !out.Ambiguous {
		t.Error("accepted+rescued should flag ambiguity")
	}
	if out.Selected != 0 {
		t.Errorf("Selected = %d, want the directly-matched record", out.Selected)
	}
}
