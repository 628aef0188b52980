// Package labels defines the emotion label space and the encoding between
// raw dataset labels and fixed-width multi-hot vectors.
//
// A Space is read-only after construction: index i refers to the same
// category for the lifetime of any model trained against it.
package labels

import (
	"github.com/emolens/emolens/errors"
)

// Space is an ordered set of unique category names. The width of every label
// vector produced or consumed anywhere in the pipeline equals Space.Len().
type Space struct {
	names   []string
	indices map[string]int
}

// NewSpace builds a Space from an ordered list of category names.
func NewSpace(names []string) (*Space, error) {
	if len(names) == 0 {
		return nil, errors.New("label space requires at least one category")
	}

	indices := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return nil, errors.Errorf("empty category name at index %d", i)
		}
		if prev, ok := indices[name]; ok {
			return nil, errors.Errorf("duplicate category '%s' at indices %d and %d", name, prev, i)
		}
		indices[name] = i
	}

	return &Space{names: names, indices: indices}, nil
}

// MustSpace is NewSpace that panics on invalid input; for package-level spaces.
func MustSpace(names []string) *Space {
	s, err := NewSpace(names)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of categories N.
func (s *Space) Len() int {
	return len(s.names)
}

// Names returns the ordered category names. The returned slice is a copy.
func (s *Space) Names() []string {
	names := make([]string, len(s.names))
	copy(names, s.names)
	return names
}

// Name returns the category name at index i.
func (s *Space) Name(i int) (string, error) {
	if i < 0 || i >= len(s.names) {
		return "", errors.Errorf("index %d outside label space [0, %d)", i, len(s.names))
	}
	return s.names[i], nil
}

// Index returns the index of the named category.
func (s *Space) Index(name string) (int, bool) {
	i, ok := s.indices[name]
	return i, ok
}

// OneHot encodes a closed-set integer class id as a single-label vector:
// exactly one index set to 1. Ids outside [0, N) are a label mismatch.
func (s *Space) OneHot(classID int) ([]float32, error) {
	if classID < 0 || classID >= len(s.names) {
		return nil, errors.Errorf("label mismatch: class id %d outside label space [0, %d)", classID, len(s.names))
	}
	vec := make([]float32, len(s.names))
	vec[classID] = 1
	return vec, nil
}

// MultiHot encodes a set of category names as a multi-hot vector. Bits are
// set by name through the space's index, never by position, so a secondary
// dataset with a differently ordered vocabulary cannot silently mislabel.
// Any name absent from the space is a vocabulary misalignment error.
func (s *Space) MultiHot(names []string) ([]float32, error) {
	vec := make([]float32, len(s.names))
	for _, name := range names {
		i, ok := s.indices[name]
		if !ok {
			return nil, errors.Errorf("vocabulary misalignment: category '%s' not in label space", name)
		}
		vec[i] = 1
	}
	return vec, nil
}

// Decode maps per-category probabilities to the set of predicted category
// names. A category is predicted iff its probability is strictly greater
// than threshold, so a probability exactly at the threshold is excluded.
// The result may be empty; multi-label categories are not exclusive.
func (s *Space) Decode(probs []float32, threshold float32) ([]string, error) {
	if len(probs) != len(s.names) {
		return nil, errors.Errorf("probability vector has length %d, label space has %d categories", len(probs), len(s.names))
	}
	var names []string
	for i, p := range probs {
		if p > threshold {
			names = append(names, s.names[i])
		}
	}
	return names, nil
}

// Project translates a multi-hot vector from this space into target using
// the provided name mapping. Every active category must be mapped and every
// mapped name must exist in target; anything else fails loudly rather than
// positionally truncating or zero-padding.
func (s *Space) Project(vec []float32, target *Space, mapping map[string]string) ([]float32, error) {
	if len(vec) != len(s.names) {
		return nil, errors.Errorf("label vector has length %d, label space has %d categories", len(vec), len(s.names))
	}

	out := make([]float32, target.Len())
	for i, v := range vec {
		if v == 0 {
			continue
		}
		mapped, ok := mapping[s.names[i]]
		if !ok {
			return nil, errors.Errorf("vocabulary misalignment: no mapping for category '%s'", s.names[i])
		}
		j, ok := target.Index(mapped)
		if !ok {
			return nil, errors.Errorf("vocabulary misalignment: mapped category '%s' not in target space", mapped)
		}
		out[j] = 1
	}
	return out, nil
}
