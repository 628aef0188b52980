// Package wordpiece implements the subword text encoder used for both
// training and inference. Encoding is deterministic: identical input and
// configuration always produce identical ids and masks.
package wordpiece

import (
	spooky "github.com/dgryski/go-spooky"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/text"
)

// Encoded is a fixed-length encoding of one utterance.
type Encoded struct {
	TokenIDs      []int64
	AttentionMask []int64
}

// Encoder maps utterances to fixed-length token id / attention mask pairs.
type Encoder struct {
	vocab    []string
	vocabMap map[string]int

	padID, unkID, clsID, sepID int
	buckets                    []int

	processor *text.Processor
}

// NewEncoder builds an Encoder from a vocabulary file (a JSON array of piece
// strings). The vocabulary must contain the [PAD], [UNK], [CLS] and [SEP]
// entries. Optional [UNK_i] entries become hashed buckets for unknown words,
// which keeps distinct unknown words distinguishable to the model.
func NewEncoder(vocabPath string) (*Encoder, error) {
	vocab, err := readVocab(vocabPath)
	if err != nil {
		return nil, err
	}
	return NewEncoderFromVocab(vocab)
}

// NewEncoderFromVocab builds an Encoder from an in-memory vocabulary.
func NewEncoderFromVocab(vocab []string) (*Encoder, error) {
	m, err := vocabMap(vocab)
	if err != nil {
		return nil, err
	}

	ids := make(map[string]int, 4)
	for _, special := range []string{PadToken, UnkToken, ClsToken, SepToken} {
		id, ok := m[special]
		if !ok {
			return nil, errors.Errorf("vocabulary is missing required entry %s", special)
		}
		ids[special] = id
	}

	return &Encoder{
		vocab:     vocab,
		vocabMap:  m,
		padID:     ids[PadToken],
		unkID:     ids[UnkToken],
		clsID:     ids[ClsToken],
		sepID:     ids[SepToken],
		buckets:   unkBuckets(m),
		processor: text.UtteranceProcessor,
	}, nil
}

// Size returns the vocabulary size.
func (e *Encoder) Size() int {
	return len(e.vocab)
}

// Pieces returns a copy of the vocabulary in id order.
func (e *Encoder) Pieces() []string {
	out := make([]string, len(e.vocab))
	copy(out, e.vocab)
	return out
}

// PadID returns the id used for padding positions.
func (e *Encoder) PadID() int64 {
	return int64(e.padID)
}

// Encode encodes one utterance to exactly maxLength token ids plus a matching
// attention mask: 1 over [CLS], content and [SEP], 0 over padding. Content
// beyond maxLength-2 pieces is truncated.
func (e *Encoder) Encode(s string, maxLength int) (Encoded, error) {
	if maxLength < 3 {
		return Encoded{}, errors.Errorf("max length %d leaves no room for content between [CLS] and [SEP]", maxLength)
	}

	pieces := e.pieces(s)
	if len(pieces) > maxLength-2 {
		pieces = pieces[:maxLength-2]
	}

	ids := make([]int64, 0, maxLength)
	ids = append(ids, int64(e.clsID))
	ids = append(ids, pieces...)
	ids = append(ids, int64(e.sepID))

	mask := make([]int64, maxLength)
	for i := range ids {
		mask[i] = 1
	}
	for len(ids) < maxLength {
		ids = append(ids, int64(e.padID))
	}

	return Encoded{TokenIDs: ids, AttentionMask: mask}, nil
}

// EncodeBatch encodes utterances in order with a uniform length, suitable for
// a single batched forward pass.
func (e *Encoder) EncodeBatch(texts []string, maxLength int) ([]Encoded, error) {
	out := make([]Encoded, 0, len(texts))
	for i, s := range texts {
		enc, err := e.Encode(s, maxLength)
		if err != nil {
			return nil, errors.AtRecord(err, i)
		}
		out = append(out, enc)
	}
	return out, nil
}

// pieces splits an utterance into words and encodes each word as subword ids
// by greedy longest-match-first lookup.
func (e *Encoder) pieces(s string) []int64 {
	words := e.processor.Apply(text.Split(s))

	var ids []int64
	for _, w := range words {
		ids = append(ids, e.encodeWord(w)...)
	}
	return ids
}

func (e *Encoder) encodeWord(word string) []int64 {
	var ids []int64
	rest := word
	first := true
	for rest != "" {
		match, matchLen := e.longestPiece(rest, first)
		if matchLen == 0 {
			// the word cannot be composed from the vocabulary
			return []int64{e.unknownID(word)}
		}
		ids = append(ids, int64(match))
		rest = rest[matchLen:]
		first = false
	}
	return ids
}

// longestPiece returns the id and byte length of the longest vocabulary piece
// prefixing w. Continuation positions look up "##"-prefixed entries.
func (e *Encoder) longestPiece(w string, first bool) (int, int) {
	for l := len(w); l > 0; l-- {
		key := w[:l]
		if !first {
			key = ContinuationPrefix + key
		}
		if id, ok := e.vocabMap[key]; ok {
			return id, l
		}
	}
	return 0, 0
}

// unknownID maps an unknown word to a stable id: one of the hashed buckets
// when the vocabulary defines them, [UNK] otherwise.
func (e *Encoder) unknownID(word string) int64 {
	if len(e.buckets) == 0 {
		return int64(e.unkID)
	}
	h := spooky.Hash64([]byte(word))
	return int64(e.buckets[h%uint64(len(e.buckets))])
}
