// Package train implements the training/evaluation loop contract and a
// baseline in-process trainer, so the pipeline runs end to end without an
// external framework. Heavier models plug in behind the same contract.
package train

import (
	"context"
	"math"
	"math/rand"

	"github.com/emolens/emolens/dataset"
	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/logging"
)

// EvalStrategy selects when the trainer evaluates on the validation split.
type EvalStrategy string

const (
	// EvalPerEpoch evaluates after every epoch.
	EvalPerEpoch EvalStrategy = "epoch"
	// EvalNone skips evaluation during training.
	EvalNone EvalStrategy = "none"
)

// Config is the narrow call contract for a training loop.
type Config struct {
	Epochs              int
	BatchSize           int
	LearningRate        float64
	WeightDecay         float64
	LoggingInterval     int // batches between progress lines, 0 disables
	CheckpointDir       string
	CheckpointRetention int
	EvalStrategy        EvalStrategy
	Threshold           float32 // decode threshold used for evaluation
	Seed                int64
}

func (c Config) withDefaults() Config {
	if c.Epochs < 1 {
		c.Epochs = 1
	}
	if c.BatchSize < 1 {
		c.BatchSize = 32
	}
	if c.LearningRate == 0 {
		c.LearningRate = 0.5
	}
	if c.CheckpointRetention < 1 {
		c.CheckpointRetention = 3
	}
	if c.EvalStrategy == "" {
		c.EvalStrategy = EvalPerEpoch
	}
	if c.Threshold == 0 {
		c.Threshold = 0.5
	}
	return c
}

var log = logging.ForComponent("train")

// Trainer fits a LogisticModel to encoded examples with minibatch SGD on the
// per-label logistic loss, L2 weight decay included.
type Trainer struct {
	NumLabels int
	VocabSize int
	PadID     int64
}

// Train fits a model. With a validation split and per-epoch evaluation it
// stashes a checkpoint each epoch and returns the retained checkpoint with
// the best validation micro-F1; otherwise it returns the final weights.
// The returned metrics are those of the returned model.
func (t Trainer) Train(ctx context.Context, trainSet, validSet []dataset.EncodedExample, cfg Config) (*LogisticModel, Metrics, error) {
	cfg = cfg.withDefaults()

	if len(trainSet) == 0 {
		return nil, nil, errors.New("no training examples")
	}
	for i, ex := range trainSet {
		if len(ex.LabelVector) != t.NumLabels {
			return nil, nil, errors.AtRecord(
				errors.Errorf("label vector has length %d, trainer expects %d", len(ex.LabelVector), t.NumLabels), i)
		}
	}

	model := NewLogisticModel(t.NumLabels, t.VocabSize, t.PadID)

	var stash *CheckpointStash
	if cfg.CheckpointDir != "" {
		var err error
		stash, err = NewCheckpointStash(cfg.CheckpointDir, cfg.CheckpointRetention)
		if err != nil {
			return nil, nil, err
		}
	}

	order := make([]int, len(trainSet))
	for i := range order {
		order[i] = i
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	bestEpoch := -1
	bestScore := 0.0

	for epoch := 0; epoch < cfg.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})

		var epochLoss float64
		batches := 0
		for start := 0; start < len(order); start += cfg.BatchSize {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}

			end := start + cfg.BatchSize
			if end > len(order) {
				end = len(order)
			}

			loss, err := t.step(model, trainSet, order[start:end], cfg)
			if err != nil {
				return nil, nil, err
			}
			epochLoss += loss
			batches++

			if cfg.LoggingInterval > 0 && batches%cfg.LoggingInterval == 0 {
				log.Printf("epoch %d batch %d loss %.5f", epoch, batches, loss)
			}
		}

		if stash != nil {
			if err := stash.Put(epoch, model); err != nil {
				return nil, nil, err
			}
		}

		if cfg.EvalStrategy == EvalPerEpoch && len(validSet) > 0 {
			metrics, err := Evaluate(model, validSet, cfg.Threshold)
			if err != nil {
				return nil, nil, err
			}
			score := metrics["micro_f1"]
			log.Printf("epoch %d loss %.5f valid micro-f1 %.5f", epoch, epochLoss/float64(batches), score)
			if bestEpoch < 0 || score > bestScore {
				bestEpoch = epoch
				bestScore = score
			}
		} else {
			log.Printf("epoch %d loss %.5f", epoch, epochLoss/float64(batches))
		}
	}

	if stash != nil && bestEpoch >= 0 {
		for _, retained := range stash.Retained() {
			if retained == bestEpoch {
				best, err := stash.Load(bestEpoch)
				if err != nil {
					return nil, nil, errors.Wrapf(err, "unable to load best checkpoint")
				}
				model = best
				break
			}
		}
	}

	var metrics Metrics
	if len(validSet) > 0 {
		var err error
		metrics, err = Evaluate(model, validSet, cfg.Threshold)
		if err != nil {
			return nil, nil, err
		}
	}
	return model, metrics, nil
}

// step applies one minibatch update and returns the mean batch loss.
func (t Trainer) step(model *LogisticModel, examples []dataset.EncodedExample, idx []int, cfg Config) (float64, error) {
	lr := float32(cfg.LearningRate)
	decay := float32(cfg.WeightDecay)
	scale := lr / float32(len(idx))

	var loss float64
	for _, i := range idx {
		ex := examples[i]
		x, err := model.Features(ex.TokenIDs, ex.AttentionMask)
		if err != nil {
			return 0, errors.AtRecord(err, i)
		}

		z := model.logits(x)
		for l := range model.Weights {
			p := sigmoid(z[l])
			y := ex.LabelVector[l]
			loss += bceLoss(p, y)

			g := (p - y) * scale
			if g == 0 {
				continue
			}
			w := model.Weights[l]
			for v, f := range x {
				if f != 0 {
					w[v] -= g * f
				}
			}
			model.Bias[l] -= g
		}

		if decay > 0 {
			shrink := 1 - lr*decay
			for l := range model.Weights {
				w := model.Weights[l]
				for v := range w {
					if w[v] != 0 {
						w[v] *= shrink
					}
				}
			}
		}
	}
	return loss / float64(len(idx)), nil
}

func bceLoss(p, y float32) float64 {
	const eps = 1e-7
	pp := float64(p)
	if pp < eps {
		pp = eps
	}
	if pp > 1-eps {
		pp = 1 - eps
	}
	if y > 0 {
		return -math.Log(pp)
	}
	return -math.Log(1 - pp)
}
