package train

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emolens/emolens/dataset"
)

// fixedForwarder returns canned logits row by row.
type fixedForwarder struct {
	rows [][]float32
	next int
}

func (f *fixedForwarder) Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error) {
	out := f.rows[f.next : f.next+len(tokenIDs)]
	f.next += len(tokenIDs)
	return out, nil
}

func example(labels ...float32) dataset.EncodedExample {
	return dataset.EncodedExample{
		TokenIDs:      []int64{2, 3},
		AttentionMask: []int64{1, 1},
		LabelVector:   labels,
	}
}

func Test_EvaluatePerfect(t *testing.T) {
	examples := []dataset.EncodedExample{
		example(1, 0),
		example(0, 1),
	}
	model := &fixedForwarder{rows: [][]float32{
		{4, -4},
		{-4, 4},
	}}

	m, err := Evaluate(model, examples, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, m["micro_f1"], 1e-9)
	assert.InDelta(t, 1.0, m["macro_f1"], 1e-9)
	assert.InDelta(t, 1.0, m["subset_accuracy"], 1e-9)
}

func Test_EvaluateConfusion(t *testing.T) {
	// label 0: one true positive, one false positive
	// label 1: one false negative
	examples := []dataset.EncodedExample{
		example(1, 1),
		example(0, 0),
	}
	model := &fixedForwarder{rows: [][]float32{
		{4, -4},
		{4, -4},
	}}

	m, err := Evaluate(model, examples, 0.5)
	require.NoError(t, err)

	// micro: tp=1 fp=1 fn=1 -> p=0.5 r=0.5 f1=0.5
	assert.InDelta(t, 0.5, m["micro_precision"], 1e-9)
	assert.InDelta(t, 0.5, m["micro_recall"], 1e-9)
	assert.InDelta(t, 0.5, m["micro_f1"], 1e-9)
	assert.InDelta(t, 0.0, m["subset_accuracy"], 1e-9)
}

func Test_EvaluateStrictThreshold(t *testing.T) {
	// logit 0 -> probability exactly 0.5: not predicted under the strict rule
	examples := []dataset.EncodedExample{example(1)}
	model := &fixedForwarder{rows: [][]float32{{0}}}

	m, err := Evaluate(model, examples, 0.5)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, m["micro_recall"], 1e-9)
}

func Test_EvaluateEmpty(t *testing.T) {
	_, err := Evaluate(&fixedForwarder{}, nil, 0.5)
	assert.Error(t, err)
}

func Test_EvaluateLabelWidthMismatch(t *testing.T) {
	examples := []dataset.EncodedExample{
		example(1, 0, 0),
		example(1),
	}
	model := &fixedForwarder{rows: [][]float32{
		{4, -4, -4},
		{4, -4, -4},
	}}

	_, err := Evaluate(model, examples, 0.5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
}
