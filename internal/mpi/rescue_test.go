package mpi

import "testing"

var rescueAccepted = Normalize(Record{
	FirstName:     "John",
	LastName:      "Doe",
	DOB:           "1990-01-01",
	GenderAtBirth: "M",
	Addresses:     []Address{{Line1: "123 Main St", City: "New York", State: "NY", Zip: "10001"}},
	Contacts:      []Contact{{Phone: "555-123-4567", Email: "john@example.com"}},
})

func TestRescue_EmptyInputsShortCircuit(t *testing.T) {
	if got := Rescue(nil, []Record{rescueAccepted}); got != nil {
		t.Errorf("Rescue with no accepted = %v, want nil", got)
	}
	if got := Rescue([]Record{rescueAccepted}, nil); got != nil {
		t.Errorf("Rescue with no rejected = %v, want nil", got)
	}
}

func TestRescue_SharedPhone(t *testing.T) {
	reject := Normalize(Record{
		FirstName:     "Johanna",
		LastName:      "Eriksson",
		DOB:           "1958-07-22",
		GenderAtBirth: "F",
		Contacts:      []Contact{{Phone: "(555) 123-4567"}},
	})
	got := Rescue([]Record{rescueAccepted}, []Record{reject})
	if len(got) != 1 {
		t.Fatalf("promoted %d records, want 1", len(got))
	}
}

func TestRescue_SharedEmail(t *testing.T) {
	reject := Normalize(Record{
		FirstName:     "Xavier",
		LastName:      "Quill",
		DOB:           "1958-07-22",
		GenderAtBirth: "M",
		Contacts:      []Contact{{Email: "John@Example.com"}},
	})
	if got := Rescue([]Record{rescueAccepted}, []Record{reject}); len(got) != 1 {
		t.Fatalf("promoted %d records, want 1", len(got))
	}
}

func TestRescue_SharedAddress(t *testing.T) {
	reject := Normalize(Record{
		FirstName:     "Xavier",
		LastName:      "Quill",
		DOB:           "1958-07-22",
		GenderAtBirth: "M",
		Addresses:     []Address{{Line1: "123 Main Street", City: "New York", State: "NY", Zip: "10001"}},
	})
	if got := Rescue([]Record{rescueAccepted}, []Record{reject}); len(got) != 1 {
		t.Fatalf("promoted %d records, want 1", len(got))
	}
}

func TestRescue_SurnamePlusSecondarySignal(t *testing.T) {
	// Shared surname plus shared birth year.
	reject := Normalize(Record{
		FirstName:     "Xenia",
		LastName:      "Doe",
		DOB:           "1990-06-15",
		GenderAtBirth: "F",
	})
	if got := Rescue([]Record{rescueAccepted}, []Record{reject}); len(got) != 1 {
		t.Fatalf("promoted %d records, want 1", len(got))
	}

	// Surname alone is not enough.
	alone := Normalize(Record{
		FirstName:     "Xenia",
		LastName:      "Doe",
		DOB:           "1958-07-22",
		GenderAtBirth: "F",
	})
	if got := Rescue([]Record{rescueAccepted}, []Record{alone}); len(got) != 0 {
		t.Fatalf("promoted %d records, want 0", len(got))
	}
}

func TestRescue_NothingSharedStaysRejected(t *testing.T) {
	reject := Normalize(Record{
		FirstName:     "Xavier",
		LastName:      "Quill",
		DOB:           "1958-07-22",
		GenderAtBirth: "M",
		Addresses:     []Address{{Line1: "9 Elm St", City: "Chicago", State: "IL", Zip: "60601"}},
		Contacts:      []Contact{{Phone: "555-000-1111"}},
	})
	if got := Rescue([]Record{rescueAccepted}, []Record{reject}); len(got) != 0 {
		t.Fatalf("promoted %d records, want 0", len(got))
	}
}

func TestRescue_PromotedOnce(t *testing.T) {
	// Two accepted records both corroborate the reject; it must appear in
	// the output a single time.
	second := rescueAccepted
	second.FirstName = "jonathan"
	reject := Normalize(Record{
		FirstName:     "Johanna",
		LastName:      "Eriksson",
		DOB:           "1958-07-22",
		GenderAtBirth: "F",
		Contacts:      []Contact{{Phone: "555-123-4567"}},
	})
	got := Rescue([]Record{rescueAccepted, second}, []Record{reject})
	if len(got) != 1 {
		t.Fatalf("promoted %d records, want 1", len(got))
	}
}
