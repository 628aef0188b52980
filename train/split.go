package train

import (
	"math/rand"

	"github.com/emolens/emolens/dataset"
	"github.com/emolens/emolens/errors"
)

// Split shuffles examples with the given seed and divides them into train and
// validation subsets. The same seed always produces the same split.
func Split(examples []dataset.EncodedExample, seed int64, trainRatio float64) ([]dataset.EncodedExample, []dataset.EncodedExample, error) {
	if trainRatio <= 0 || trainRatio > 1 {
		return nil, nil, errors.Errorf("train ratio %v outside (0, 1]", trainRatio)
	}

	shuffled := make([]dataset.EncodedExample, len(examples))
	copy(shuffled, examples)

	r := rand.New(rand.NewSource(seed))
	r.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	cut := int(float64(len(shuffled)) * trainRatio)
	return shuffled[:cut], shuffled[cut:], nil
}
