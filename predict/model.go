package predict

import (
	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/tensorflow"
)

// Model is the forward-pass contract the inference pipeline needs from a
// trained model: a single no-gradient pass over a batch, producing one row of
// per-label logits per input.
type Model interface {
	Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error)
}

// Graph op names for the frozen emotion classifier.
const (
	inputIDsOpName      = "input_ids"
	attentionMaskOpName = "attention_mask"
	logitsOpName        = "logits"
)

// TFModel adapts a frozen-graph Tensorflow model to the Model contract.
type TFModel struct {
	model *tensorflow.Model
}

// NewTFModel wraps the provided tensorflow model.
func NewTFModel(m *tensorflow.Model) TFModel {
	return TFModel{model: m}
}

// Forward runs the frozen graph over the batch and returns the raw logits.
func (m TFModel) Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error) {
	feeds := map[string]interface{}{
		inputIDsOpName:      tokenIDs,
		attentionMaskOpName: attentionMask,
	}

	res, err := m.model.Run(feeds, []string{logitsOpName})
	if err != nil {
		return nil, err
	}

	logits, ok := res[logitsOpName].([][]float32)
	if !ok {
		return nil, errors.Errorf("fetch op '%s' returned %T, expected [][]float32", logitsOpName, res[logitsOpName])
	}
	return logits, nil
}

// Unload releases the underlying session.
func (m TFModel) Unload() {
	m.model.Unload()
}
