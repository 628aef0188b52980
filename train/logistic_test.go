package train

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_FeaturesMasked(t *testing.T) {
	m := NewLogisticModel(2, 8, 0)

	// padded positions and masked positions contribute nothing
	x, err := m.Features(
		[]int64{2, 4, 4, 5, 3, 0, 0, 0},
		[]int64{1, 1, 1, 1, 1, 0, 0, 0},
	)
	require.NoError(t, err)
	require.Len(t, x, 8)

	assert.InDelta(t, 0.4, x[4], 1e-6) // two of five unmasked non-pad tokens
	assert.InDelta(t, 0.2, x[5], 1e-6)
	assert.Equal(t, float32(0), x[0])
}

func Test_FeaturesOutOfVocab(t *testing.T) {
	m := NewLogisticModel(2, 4, 0)
	_, err := m.Features([]int64{9}, []int64{1})
	assert.Error(t, err)
}

func Test_ForwardShape(t *testing.T) {
	m := NewLogisticModel(3, 8, 0)
	m.Bias = []float32{1, -1, 0}

	logits, err := m.Forward(
		[][]int64{{2, 4, 3, 0}, {2, 5, 3, 0}},
		[][]int64{{1, 1, 1, 0}, {1, 1, 1, 0}},
	)
	require.NoError(t, err)
	require.Len(t, logits, 2)
	for _, row := range logits {
		require.Len(t, row, 3)
	}

	// zero weights leave the bias as the logit
	assert.Equal(t, []float32{1, -1, 0}, logits[0])
}

func Test_SaveLoadRoundTrip(t *testing.T) {
	m := NewLogisticModel(2, 4, 0)
	m.Weights[0][1] = 0.25
	m.Weights[1][3] = -2
	m.Bias[1] = 0.125

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	loaded, err := LoadLogisticModel(path)
	require.NoError(t, err)
	assert.Equal(t, m.Weights, loaded.Weights)
	assert.Equal(t, m.Bias, loaded.Bias)
	assert.Equal(t, m.VocabSize, loaded.VocabSize)
	assert.Equal(t, m.PadID, loaded.PadID)
}

func Test_LoadRejectsCorruptShapes(t *testing.T) {
	m := NewLogisticModel(2, 4, 0)
	m.VocabSize = 5 // lie about the vocabulary

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, m.Save(path))

	_, err := LoadLogisticModel(path)
	assert.Error(t, err)
}
