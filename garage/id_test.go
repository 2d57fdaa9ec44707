package garage

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/rorycl/garage/car"
)

func TestNextIDSequence(t *testing.T) {

	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{"empty garage", nil, "1"},
		{"continues", []string{"1", "2"}, "3"},
		{"after gap", []string{"4", "2"}, "5"},
		{"ignores non-numeric", []string{"abc", "2", "z9"}, "3"},
		{"only non-numeric", []string{"abc"}, "1"},
	}

	for ii, tt := range tests {
		t.Run(fmt.Sprintf("%d_%s", ii, tt.name), func(t *testing.T) {
			s := New(nil)
			for _, id := range tt.ids {
				if err := s.Add(car.Car{ID: id, Make: "Ford", Model: "Ka", Year: 2001}); err != nil {
					t.Fatal(err)
				}
			}
			got, err := s.NextID(SequenceIDs)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q want %q", got, tt.want)
			}
		})
	}
}

func TestNextIDSequenceExhausted(t *testing.T) {

	s := New(nil)
	if err := s.Add(car.Car{ID: "9223372036854775807", Make: "Ford", Model: "Ka", Year: 2001}); err != nil {
		t.Fatal(err)
	}
	if id, err := s.NextID(SequenceIDs); err == nil {
		t.Errorf("expected error, got id %q", id)
	}
}

func TestNextIDUUID(t *testing.T) {

	id, err := New(nil).NextID(UUIDIDs)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := uuid.Parse(id); err != nil {
		t.Errorf("id %q is not a uuid: %v", id, err)
	}
}

func TestParseIDPolicy(t *testing.T) {

	for in, want := range map[string]IDPolicy{
		"":         SequenceIDs,
		"sequence": SequenceIDs,
		"uuid":     UUIDIDs,
	} {
		got, err := ParseIDPolicy(in)
		if err != nil {
			t.Errorf("%q: unexpected error %v", in, err)
		}
		if got != want {
			t.Errorf("%q: got %q want %q", in, got, want)
		}
	}
	if _, err := ParseIDPolicy("random"); err == nil {
		t.Error("expected error for unknown policy")
	}
	if _, err := New(nil).NextID("random"); err == nil {
		t.Error("expected error for unknown policy")
	}
}
