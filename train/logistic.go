package train

import (
	"encoding/json"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
)

// LogisticModel is the baseline emotion classifier: one independent logistic
// regression per label over bag-of-token features. It implements the same
// forward contract as the transformer backend, so the inference pipeline and
// the evaluator treat the two interchangeably.
type LogisticModel struct {
	// Weights is indexed [label][token id].
	Weights [][]float32 `json:"weights"`
	Bias    []float32   `json:"bias"`

	VocabSize int   `json:"vocab_size"`
	PadID     int64 `json:"pad_id"`
}

// NewLogisticModel creates a zero-initialized model for numLabels labels over
// a vocabulary of vocabSize token ids.
func NewLogisticModel(numLabels, vocabSize int, padID int64) *LogisticModel {
	weights := make([][]float32, numLabels)
	for i := range weights {
		weights[i] = make([]float32, vocabSize)
	}
	return &LogisticModel{
		Weights:   weights,
		Bias:      make([]float32, numLabels),
		VocabSize: vocabSize,
		PadID:     padID,
	}
}

// NumLabels returns the width of the model's output.
func (m *LogisticModel) NumLabels() int {
	return len(m.Weights)
}

// Features maps a padded token id sequence to normalized token counts.
// Masked positions contribute nothing.
func (m *LogisticModel) Features(tokenIDs, attentionMask []int64) ([]float32, error) {
	x := make([]float32, m.VocabSize)
	var total float32
	for i, id := range tokenIDs {
		if i < len(attentionMask) && attentionMask[i] == 0 {
			continue
		}
		if id == m.PadID {
			continue
		}
		if id < 0 || id >= int64(m.VocabSize) {
			return nil, errors.Errorf("token id %d outside vocabulary [0, %d)", id, m.VocabSize)
		}
		x[id]++
		total++
	}
	if total > 0 {
		for i := range x {
			x[i] /= total
		}
	}
	return x, nil
}

// Forward computes per-label logits for a batch. It satisfies the inference
// pipeline's Model contract.
func (m *LogisticModel) Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error) {
	if len(tokenIDs) != len(attentionMask) {
		return nil, errors.Errorf("batch has %d token rows but %d mask rows", len(tokenIDs), len(attentionMask))
	}

	out := make([][]float32, len(tokenIDs))
	for i := range tokenIDs {
		x, err := m.Features(tokenIDs[i], attentionMask[i])
		if err != nil {
			return nil, errors.AtRecord(err, i)
		}
		out[i] = m.logits(x)
	}
	return out, nil
}

func (m *LogisticModel) logits(x []float32) []float32 {
	z := make([]float32, len(m.Weights))
	for l, w := range m.Weights {
		var score float32
		for v, f := range x {
			if f != 0 {
				score += f * w[v]
			}
		}
		z[l] = score + m.Bias[l]
	}
	return z
}

// Save writes the model weights to path as JSON.
func (m *LogisticModel) Save(path string) error {
	buf, err := json.Marshal(m)
	if err != nil {
		return errors.Wrapf(err, "error serializing model")
	}
	return fileutil.WriteFileAtomic(path, buf)
}

// LoadLogisticModel reads a model previously written by Save.
func LoadLogisticModel(path string) (*LogisticModel, error) {
	f, err := fileutil.NewReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open model")
	}
	defer f.Close()

	var m LogisticModel
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, errors.Wrapf(err, "error decoding model from '%s'", path)
	}

	if len(m.Weights) == 0 {
		return nil, errors.Errorf("model at '%s' has no weights", path)
	}
	for l, w := range m.Weights {
		if len(w) != m.VocabSize {
			return nil, errors.Errorf("label %d has %d weights, vocab size is %d", l, len(w), m.VocabSize)
		}
	}
	if len(m.Bias) != len(m.Weights) {
		return nil, errors.Errorf("model has %d bias terms for %d labels", len(m.Bias), len(m.Weights))
	}
	return &m, nil
}
