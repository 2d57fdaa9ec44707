package garage

import (
	"fmt"
	"math"
	"strconv"

	"github.com/google/uuid"
)

// IDPolicy determines how identifiers are made for new cars when the user does
// not supply one.
type IDPolicy string

const (
	// SequenceIDs numbers cars 1, 2, 3... continuing from the largest numeric
	// identifier in the garage.
	SequenceIDs IDPolicy = "sequence"
	// UUIDIDs gives each car a random UUID.
	UUIDIDs IDPolicy = "uuid"
)

// ParseIDPolicy parses an id policy name. The empty string is the sequence
// policy.
func ParseIDPolicy(s string) (IDPolicy, error) {
	switch IDPolicy(s) {
	case "", SequenceIDs:
		return SequenceIDs, nil
	case UUIDIDs:
		return UUIDIDs, nil
	}
	return "", fmt.Errorf("unknown id policy %q (want %q or %q)", s, SequenceIDs, UUIDIDs)
}

// NextID returns an identifier not yet used in the garage.
func (s *Store) NextID(policy IDPolicy) (string, error) {
	switch policy {
	case "", SequenceIDs:
		var maxID int64
		for c := range s.List() {
			n, err := strconv.ParseInt(c.ID, 10, 64)
			if err != nil {
				continue // user supplied, non-numeric
			}
			maxID = max(maxID, n)
		}
		if maxID == math.MaxInt64 {
			return "", fmt.Errorf("no sequence id after %d; supply an id", maxID)
		}
		return strconv.FormatInt(maxID+1, 10), nil
	case UUIDIDs:
		for {
			id := uuid.NewString()
			if _, ok := s.Get(id); !ok {
				return id, nil
			}
		}
	}
	return "", fmt.Errorf("unknown id policy %q", policy)
}
