package train

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/emolens/emolens/dataset"
	"github.com/emolens/emolens/errors"
)

// Metrics maps metric names to scalar values.
type Metrics map[string]float64

// Forwarder is the slice of the model contract the evaluator needs.
type Forwarder interface {
	Forward(tokenIDs, attentionMask [][]int64) ([][]float32, error)
}

// Evaluate runs the model over examples and scores thresholded predictions
// against the target label vectors. Categories are scored independently
// (multi-label); predictions use the same strict-threshold rule as inference.
func Evaluate(model Forwarder, examples []dataset.EncodedExample, threshold float32) (Metrics, error) {
	if len(examples) == 0 {
		return nil, errors.New("nothing to evaluate")
	}

	numLabels := len(examples[0].LabelVector)
	for i, ex := range examples {
		if len(ex.LabelVector) != numLabels {
			return nil, errors.AtRecord(
				errors.Errorf("label vector has length %d, expected %d", len(ex.LabelVector), numLabels), i)
		}
	}

	tp := make([]float64, numLabels)
	fp := make([]float64, numLabels)
	fn := make([]float64, numLabels)

	var exact float64
	for start := 0; start < len(examples); start += evalBatchSize {
		end := start + evalBatchSize
		if end > len(examples) {
			end = len(examples)
		}
		batch := examples[start:end]

		tokenIDs := make([][]int64, len(batch))
		masks := make([][]int64, len(batch))
		for i, ex := range batch {
			tokenIDs[i] = ex.TokenIDs
			masks[i] = ex.AttentionMask
		}

		logits, err := model.Forward(tokenIDs, masks)
		if err != nil {
			return nil, errors.Wrapf(err, "forward pass failed during evaluation")
		}
		if len(logits) != len(batch) {
			return nil, errors.Errorf("model returned %d rows for %d examples", len(logits), len(batch))
		}

		for i, row := range logits {
			if len(row) != numLabels {
				return nil, errors.Errorf("model returned %d logits, examples have %d labels", len(row), numLabels)
			}

			match := true
			for l, logit := range row {
				predicted := sigmoid(logit) > threshold
				actual := batch[i].LabelVector[l] > 0
				switch {
				case predicted && actual:
					tp[l]++
				case predicted && !actual:
					fp[l]++
					match = false
				case !predicted && actual:
					fn[l]++
					match = false
				}
			}
			if match {
				exact++
			}
		}
	}

	microP := safeDiv(floats.Sum(tp), floats.Sum(tp)+floats.Sum(fp))
	microR := safeDiv(floats.Sum(tp), floats.Sum(tp)+floats.Sum(fn))

	macroP := make([]float64, numLabels)
	macroR := make([]float64, numLabels)
	macroF := make([]float64, numLabels)
	for l := 0; l < numLabels; l++ {
		macroP[l] = safeDiv(tp[l], tp[l]+fp[l])
		macroR[l] = safeDiv(tp[l], tp[l]+fn[l])
		macroF[l] = f1(macroP[l], macroR[l])
	}

	n := float64(numLabels)
	return Metrics{
		"micro_precision": microP,
		"micro_recall":    microR,
		"micro_f1":        f1(microP, microR),
		"macro_precision": floats.Sum(macroP) / n,
		"macro_recall":    floats.Sum(macroR) / n,
		"macro_f1":        floats.Sum(macroF) / n,
		"subset_accuracy": exact / float64(len(examples)),
	}, nil
}

const evalBatchSize = 256

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

func sigmoid(x float32) float32 {
	return float32(1 / (1 + math.Exp(-float64(x))))
}
