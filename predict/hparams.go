package predict

import (
	"encoding/json"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
)

// DefaultThreshold is the decode threshold used when the model config does
// not specify one.
const DefaultThreshold = 0.5

// HParams holds the hyperparameters a trained model was built with. The
// inference pipeline must encode with the same MaxLength the model was
// trained with; the config file in the model directory is the source of
// truth for that value.
type HParams struct {
	NumLabels int     `json:"n_labels"`
	MaxLength int     `json:"max_length"`
	VocabSize int     `json:"n_vocab"`
	Threshold float32 `json:"threshold"`
}

// NewHParams loads HParams from the provided path
func NewHParams(path string) (HParams, error) {
	f, err := fileutil.NewReader(path)
	if err != nil {
		return HParams{}, errors.Wrapf(err, "error reading params from '%s'", path)
	}
	defer f.Close()

	var params HParams
	if err := json.NewDecoder(f).Decode(&params); err != nil {
		return HParams{}, errors.Wrapf(err, "error decoding params from '%s'", path)
	}

	if params.Threshold == 0 {
		params.Threshold = DefaultThreshold
	}

	return params, nil
}

// Validate checks the internal consistency of the hyperparameters.
func (hp HParams) Validate() error {
	if hp.NumLabels <= 0 {
		return errors.Errorf("config declares %d labels", hp.NumLabels)
	}
	if hp.MaxLength < 3 {
		return errors.Errorf("config declares max length %d, need at least 3", hp.MaxLength)
	}
	if hp.VocabSize <= 0 {
		return errors.Errorf("config declares vocab size %d", hp.VocabSize)
	}
	if hp.Threshold < 0 || hp.Threshold >= 1 {
		return errors.Errorf("config declares threshold %v outside [0, 1)", hp.Threshold)
	}
	return nil
}
