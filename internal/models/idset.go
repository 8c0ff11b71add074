package models

import (
	"encoding/json"
	"sort"

	"github.com/google/uuid"
)

// IDSet is a set of entity ids. It marshals to a sorted JSON array so that
// persisted documents are byte-stable across runs.
type IDSet map[uuid.UUID]struct{}

// NewIDSet creates a set containing the given ids.
func NewIDSet(ids ...uuid.UUID) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Add inserts id into the set.
func (s IDSet) Add(id uuid.UUID) { s[id] = struct{}{} }

// Remove deletes id from the set.
func (s IDSet) Remove(id uuid.UUID) { delete(s, id) }

// Contains reports whether id is in the set.
func (s IDSet) Contains(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the ids in lexicographic order.
func (s IDSet) Sorted() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// MarshalJSON encodes the set as a sorted array of id strings.
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of id strings into the set.
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []uuid.UUID
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
