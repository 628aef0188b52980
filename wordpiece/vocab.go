package wordpiece

import (
	"encoding/json"
	"fmt"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
)

// Special vocabulary entries. A vocabulary must contain all of them; their
// positions are read from the vocabulary rather than assumed.
const (
	PadToken = "[PAD]"
	UnkToken = "[UNK]"
	ClsToken = "[CLS]"
	SepToken = "[SEP]"
)

// ContinuationPrefix marks subword pieces that continue a word ("##ing").
const ContinuationPrefix = "##"

// unkBucketName returns the name of the i-th hashed unknown-word bucket.
func unkBucketName(i int) string {
	return fmt.Sprintf("[UNK_%d]", i)
}

// readVocab loads a vocabulary file: a JSON array of piece strings whose
// position is the piece id.
func readVocab(path string) ([]string, error) {
	f, err := fileutil.NewReader(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open vocabulary")
	}
	defer f.Close()

	var vocab []string
	if err := json.NewDecoder(f).Decode(&vocab); err != nil {
		return nil, errors.Wrapf(err, "error decoding vocabulary from '%s'", path)
	}
	return vocab, nil
}

func vocabMap(vocab []string) (map[string]int, error) {
	m := make(map[string]int, len(vocab))
	for id, piece := range vocab {
		if piece == "" {
			return nil, errors.Errorf("empty vocabulary entry at id %d", id)
		}
		if prev, ok := m[piece]; ok {
			return nil, errors.Errorf("duplicate vocabulary entry '%s' at ids %d and %d", piece, prev, id)
		}
		m[piece] = id
	}
	return m, nil
}

// unkBuckets collects the ids of hashed unknown-word buckets, ordered by
// bucket number regardless of where the entries sit in the vocabulary.
// Vocabularies without buckets return nil.
func unkBuckets(m map[string]int) []int {
	var ids []int
	for i := 0; ; i++ {
		id, ok := m[unkBucketName(i)]
		if !ok {
			break
		}
		ids = append(ids, id)
	}
	return ids
}
