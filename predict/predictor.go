// Package predict implements batch inference: raw utterances in, per-label
// probabilities and thresholded emotion names out.
package predict

import (
	"context"
	"math"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
	"github.com/emolens/emolens/labels"
	"github.com/emolens/emolens/tensorflow"
	"github.com/emolens/emolens/wordpiece"
)

// Result is the outcome of inference for one utterance. Probabilities always
// has the label space width; Predicted may be empty (no category above the
// threshold) or hold several names (categories are not exclusive).
type Result struct {
	Text          string
	Probabilities []float32
	Predicted     []string
}

// Predictor runs the inference pipeline. Model, encoder and label space are
// injected at construction and never reached for through ambient state; a
// Predictor is stateless per call and safe for concurrent use if its Model is.
type Predictor struct {
	model     Model
	encoder   *wordpiece.Encoder
	space     *labels.Space
	hp        HParams
	threshold float32
}

// NewPredictor wires a predictor from its parts. Configuration-level
// mismatches (label space width vs model config, encoder vocabulary vs model
// config) are fatal here rather than surfacing as garbled output downstream.
func NewPredictor(model Model, encoder *wordpiece.Encoder, space *labels.Space, hp HParams) (*Predictor, error) {
	if err := hp.Validate(); err != nil {
		return nil, err
	}
	if space.Len() != hp.NumLabels {
		return nil, errors.Errorf("label space has %d categories, model config declares %d", space.Len(), hp.NumLabels)
	}
	if encoder.Size() != hp.VocabSize {
		return nil, errors.Errorf("encoder vocabulary has %d entries, model config declares %d", encoder.Size(), hp.VocabSize)
	}

	return &Predictor{
		model:     model,
		encoder:   encoder,
		space:     space,
		hp:        hp,
		threshold: hp.Threshold,
	}, nil
}

// Model directory layout.
const (
	ConfigFile = "config.json"
	VocabFile  = "vocab.json"
	GraphFile  = "frozen_model.pb"
)

// NewPredictorFromDir loads a predictor from a model directory containing the
// frozen graph, the tokenizer vocabulary and the model config.
func NewPredictorFromDir(dir string, space *labels.Space) (*Predictor, error) {
	for _, name := range []string{ConfigFile, VocabFile, GraphFile} {
		if !fileutil.Exists(fileutil.Join(dir, name)) {
			return nil, errors.Errorf("'%s' does not contain a valid model: missing %s", dir, name)
		}
	}

	hp, err := NewHParams(fileutil.Join(dir, ConfigFile))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load hyperparameters")
	}

	encoder, err := wordpiece.NewEncoder(fileutil.Join(dir, VocabFile))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load tokenizer vocabulary")
	}

	model, err := tensorflow.NewModel(fileutil.Join(dir, GraphFile))
	if err != nil {
		return nil, errors.Wrapf(err, "unable to load model graph")
	}

	return NewPredictor(NewTFModel(model), encoder, space, hp)
}

// SetThreshold overrides the decode threshold from the model config.
func (p *Predictor) SetThreshold(t float32) error {
	if t < 0 || t >= 1 {
		return errors.Errorf("threshold %v outside [0, 1)", t)
	}
	p.threshold = t
	return nil
}

// Space returns the label space the predictor decodes into.
func (p *Predictor) Space() *labels.Space {
	return p.space
}

// Predict encodes the utterances with the training-time padding and
// truncation policy, runs one forward pass over the whole batch, squashes
// each logit independently through a sigmoid, and decodes the probabilities
// at the configured threshold. Results are returned in input order, one per
// input.
func (p *Predictor) Predict(ctx context.Context, texts []string) ([]Result, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	encoded, err := p.encoder.EncodeBatch(texts, p.hp.MaxLength)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to encode batch")
	}

	tokenIDs := make([][]int64, len(encoded))
	masks := make([][]int64, len(encoded))
	for i, enc := range encoded {
		tokenIDs[i] = enc.TokenIDs
		masks[i] = enc.AttentionMask
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logits, err := p.model.Forward(tokenIDs, masks)
	if err != nil {
		return nil, errors.Wrapf(err, "forward pass failed")
	}
	if len(logits) != len(texts) {
		return nil, errors.Errorf("model returned %d rows of logits for %d inputs", len(logits), len(texts))
	}

	results := make([]Result, 0, len(texts))
	for i, row := range logits {
		if len(row) != p.space.Len() {
			return nil, errors.AtRecord(
				errors.Errorf("model returned %d logits, label space has %d categories", len(row), p.space.Len()), i)
		}

		// independent sigmoid per label: categories are not mutually
		// exclusive, so a softmax over them would be wrong
		probs := make([]float32, len(row))
		for j, logit := range row {
			probs[j] = sigmoid(logit)
		}

		predicted, err := p.space.Decode(probs, p.threshold)
		if err != nil {
			return nil, errors.AtRecord(err, i)
		}

		results = append(results, Result{
			Text:          texts[i],
			Probabilities: probs,
			Predicted:     predicted,
		})
	}
	return results, nil
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
