// Package dataset joins the text encoder and label encoder outputs into the
// uniform example records consumed by training and evaluation.
package dataset

import (
	"fmt"

	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/labels"
	"github.com/emolens/emolens/status"
	"github.com/emolens/emolens/wordpiece"
	"github.com/emolens/emolens/workerpool"
)

var section = status.NewSection("dataset")

// RawRecord is one row of a source corpus before encoding. Closed-set corpora
// carry an integer class id (HasClassID set); open-set corpora carry label
// names that are resolved against the label space by name.
type RawRecord struct {
	Text string

	HasClassID bool
	ClassID    int

	LabelNames []string
}

// EncodedExample is a model-ready record. TokenIDs and AttentionMask share a
// fixed length, LabelVector has the label space width, and every entry of
// LabelVector is 0 or 1. Examples are immutable once built.
type EncodedExample struct {
	TokenIDs      []int64
	AttentionMask []int64
	LabelVector   []float32
}

// Skip reasons reported in Stats and the status section. A build produces a
// finite set of reasons so counts stay aggregatable.
const (
	ReasonEmptyText       = "empty-text"
	ReasonNoLabel         = "no-label"
	ReasonLabelMismatch   = "label-mismatch"
	ReasonVocabMismatch   = "vocabulary-misalignment"
	ReasonEncodingFailure = "encoding-failure"
)

// Options configures a Build.
type Options struct {
	// MaxLength is the fixed token length for every example. It must match
	// the length the model will be trained or queried with.
	MaxLength int

	// Parallelism > 1 encodes records on a worker pool. Output order is
	// unaffected.
	Parallelism int

	// FailFast propagates the first record error instead of skipping.
	// The error reports the offending record index.
	FailFast bool
}

// Stats reports the outcome of a Build.
type Stats struct {
	Encoded int
	Skipped int
	Reasons map[string]int
}

// skipError tags a record failure with its aggregation reason.
type skipError struct {
	Reason string
	Err    error
}

func (s skipError) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("%s: %v", s.Reason, s.Err)
	}
	return s.Reason
}

// Build encodes records in order. Records that cannot be encoded are skipped
// and counted by reason (or abort the build under FailFast). The output
// sequence preserves the input order of the surviving records.
func Build(records []RawRecord, enc *wordpiece.Encoder, space *labels.Space, opts Options) ([]EncodedExample, Stats, error) {
	if opts.MaxLength <= 0 {
		return nil, Stats{}, errors.New("dataset build requires a positive max length")
	}

	results := make([]*EncodedExample, len(records))
	errs := make([]error, len(records))

	encodeAt := func(i int) {
		ex, err := encodeRecord(records[i], enc, space, opts.MaxLength)
		if err != nil {
			errs[i] = err
			return
		}
		results[i] = ex
	}

	if opts.Parallelism > 1 {
		pool := workerpool.New(opts.Parallelism)
		jobs := make([]workerpool.Job, 0, len(records))
		for i := range records {
			i := i
			jobs = append(jobs, func() error {
				encodeAt(i)
				return nil
			})
		}
		pool.Add(jobs)
		pool.Wait()
		pool.Stop()
	} else {
		for i := range records {
			encodeAt(i)
		}
	}

	stats := Stats{Reasons: make(map[string]int)}
	var out []EncodedExample
	for i := range records {
		if err := errs[i]; err != nil {
			if opts.FailFast {
				return nil, Stats{}, errors.AtRecord(err, i)
			}
			reason := ReasonEncodingFailure
			if s, ok := err.(skipError); ok {
				reason = s.Reason
			}
			stats.Skipped++
			stats.Reasons[reason]++
			section.Counter("skipped:" + reason).Add(1)
			continue
		}
		stats.Encoded++
		section.Counter("encoded").Add(1)
		out = append(out, *results[i])
	}
	return out, stats, nil
}

func encodeRecord(r RawRecord, enc *wordpiece.Encoder, space *labels.Space, maxLength int) (*EncodedExample, error) {
	if r.Text == "" {
		return nil, skipError{Reason: ReasonEmptyText}
	}

	var vec []float32
	var err error
	switch {
	case r.HasClassID:
		vec, err = space.OneHot(r.ClassID)
		if err != nil {
			return nil, skipError{Reason: ReasonLabelMismatch, Err: err}
		}
	case len(r.LabelNames) > 0:
		vec, err = space.MultiHot(r.LabelNames)
		if err != nil {
			return nil, skipError{Reason: ReasonVocabMismatch, Err: err}
		}
	default:
		return nil, skipError{Reason: ReasonNoLabel}
	}

	encoded, err := enc.Encode(r.Text, maxLength)
	if err != nil {
		return nil, skipError{Reason: ReasonEncodingFailure, Err: err}
	}

	return &EncodedExample{
		TokenIDs:      encoded.TokenIDs,
		AttentionMask: encoded.AttentionMask,
		LabelVector:   vec,
	}, nil
}
