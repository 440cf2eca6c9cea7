package corpus

import (
	"fmt"

	"github.com/Kush-Singh-26/imgcorpus/builder/models"
)

// LabelEncoder turns label sets into one-hot vectors over a fixed,
// ordered label list.
type LabelEncoder struct {
	labels []models.Label
	pos    map[models.Label]int
}

// NewLabelEncoder creates an encoder; position i of every vector stands for
// labels[i].
func NewLabelEncoder(labels []models.Label) *LabelEncoder {
	e := &LabelEncoder{
		labels: append([]models.Label(nil), labels...),
		pos:    make(map[models.Label]int, len(labels)),
	}
	for i, l := range e.labels {
		e.pos[l] = i
	}
	return e
}

// NumOutcomes returns the vector length
func (e *LabelEncoder) NumOutcomes() int {
	return len(e.labels)
}

// Labels returns the encoder's label order
func (e *LabelEncoder) Labels() []models.Label {
	return append([]models.Label(nil), e.labels...)
}

// Encode returns the one-hot vector of set
func (e *LabelEncoder) Encode(set models.LabelSet) ([]float32, error) {
	vec := make([]float32, len(e.labels))
	for l := range set {
		i, ok := e.pos[l]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLabel, l)
		}
		vec[i] = 1
	}
	return vec, nil
}

// Validate checks that every label in idx can be encoded
func (e *LabelEncoder) Validate(idx Index) error {
	for item, set := range idx {
		for l := range set {
			if _, ok := e.pos[l]; !ok {
				return fmt.Errorf("%w: %q (item %s)", ErrUnknownLabel, l, item)
			}
		}
	}
	return nil
}
