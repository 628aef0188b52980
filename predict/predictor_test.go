package predict

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emolens/emolens/labels"
	"github.com/emolens/emolens/wordpiece"
)

// modelFunc lets tests stub the forward pass.
type modelFunc func(tokenIDs, attentionMask [][]int64) ([][]float32, error)

func (f modelFunc) Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error) {
	return f(tokenIDs, attentionMask)
}

func testVocab() []string {
	return []string{
		wordpiece.PadToken, wordpiece.UnkToken, wordpiece.ClsToken, wordpiece.SepToken,
		"great", "day", "so", "angry",
	}
}

func testPredictor(t *testing.T, model Model) *Predictor {
	encoder, err := wordpiece.NewEncoderFromVocab(testVocab())
	require.NoError(t, err)

	space := labels.MustSpace([]string{"joy", "anger", "fear"})
	hp := HParams{NumLabels: 3, MaxLength: 8, VocabSize: len(testVocab()), Threshold: DefaultThreshold}

	p, err := NewPredictor(model, encoder, space, hp)
	require.NoError(t, err)
	return p
}

// stubLogits favors joy for texts containing "great" and anger for "angry",
// keyed off the test vocabulary ids.
func stubLogits(tokenIDs, attentionMask [][]int64) ([][]float32, error) {
	out := make([][]float32, len(tokenIDs))
	for i, ids := range tokenIDs {
		row := []float32{-4, -4, -4}
		for _, id := range ids {
			switch id {
			case 4: // "great"
				row[0] = 4
			case 7: // "angry"
				row[1] = 4
			}
		}
		out[i] = row
	}
	return out, nil
}

func Test_PredictOrderAndShape(t *testing.T) {
	p := testPredictor(t, modelFunc(stubLogits))

	texts := []string{"great day", "so angry"}
	results, err := p.Predict(context.Background(), texts)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for i, r := range results {
		assert.Equal(t, texts[i], r.Text, "result %d must match input order", i)
		assert.Len(t, r.Probabilities, 3)
		for _, prob := range r.Probabilities {
			assert.GreaterOrEqual(t, prob, float32(0))
			assert.LessOrEqual(t, prob, float32(1))
		}
	}

	assert.Equal(t, []string{"joy"}, results[0].Predicted)
	assert.Equal(t, []string{"anger"}, results[1].Predicted)
}

func Test_PredictStrictThreshold(t *testing.T) {
	// logits of 0 sigmoid to exactly 0.5, which must not clear the threshold
	p := testPredictor(t, modelFunc(func(ids, mask [][]int64) ([][]float32, error) {
		out := make([][]float32, len(ids))
		for i := range ids {
			out[i] = []float32{0, 0, 0}
		}
		return out, nil
	}))

	results, err := p.Predict(context.Background(), []string{"great day"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Predicted)
	assert.Equal(t, []float32{0.5, 0.5, 0.5}, results[0].Probabilities)
}

func Test_PredictEmptyBatch(t *testing.T) {
	p := testPredictor(t, modelFunc(stubLogits))

	results, err := p.Predict(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, results)
}

func Test_PredictWidthMismatch(t *testing.T) {
	p := testPredictor(t, modelFunc(func(ids, mask [][]int64) ([][]float32, error) {
		out := make([][]float32, len(ids))
		for i := range ids {
			out[i] = []float32{0, 0} // wrong width
		}
		return out, nil
	}))

	_, err := p.Predict(context.Background(), []string{"great day"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 0")
}

func Test_PredictCancelled(t *testing.T) {
	p := testPredictor(t, modelFunc(stubLogits))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, []string{"great day"})
	assert.Error(t, err)
}

func Test_NewPredictorValidation(t *testing.T) {
	encoder, err := wordpiece.NewEncoderFromVocab(testVocab())
	require.NoError(t, err)
	space := labels.MustSpace([]string{"joy", "anger", "fear"})

	// label space width disagrees with the model config
	_, err = NewPredictor(modelFunc(stubLogits), encoder, space,
		HParams{NumLabels: 28, MaxLength: 8, VocabSize: len(testVocab()), Threshold: 0.5})
	assert.Error(t, err)

	// encoder vocabulary disagrees with the model config
	_, err = NewPredictor(modelFunc(stubLogits), encoder, space,
		HParams{NumLabels: 3, MaxLength: 8, VocabSize: 999, Threshold: 0.5})
	assert.Error(t, err)

	// training/inference max length inconsistency is fatal at construction
	_, err = NewPredictor(modelFunc(stubLogits), encoder, space,
		HParams{NumLabels: 3, MaxLength: 0, VocabSize: len(testVocab()), Threshold: 0.5})
	assert.Error(t, err)
}

func Test_SetThreshold(t *testing.T) {
	p := testPredictor(t, modelFunc(stubLogits))

	require.Error(t, p.SetThreshold(1.5))
	require.Error(t, p.SetThreshold(-0.1))
	require.NoError(t, p.SetThreshold(0), "zero is a valid threshold, everything above it is predicted")
	require.NoError(t, p.SetThreshold(0.9))

	// joy logit of 4 sigmoids to ~0.982, still above 0.9
	results, err := p.Predict(context.Background(), []string{"great day"})
	require.NoError(t, err)
	assert.Equal(t, []string{"joy"}, results[0].Predicted)
}
