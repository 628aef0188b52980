package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/emolens/emolens/cmdline"
	"github.com/emolens/emolens/dataset"
	"github.com/emolens/emolens/errors"
	"github.com/emolens/emolens/fileutil"
	"github.com/emolens/emolens/labels"
	"github.com/emolens/emolens/logging"
	"github.com/emolens/emolens/predict"
	"github.com/emolens/emolens/train"
	"github.com/emolens/emolens/wordpiece"
)

var log = logging.ForComponent("emolens")

func main() {
	cmdline.MustDispatch(
		cmdline.Command{
			Name:     "train",
			Synopsis: "train the baseline emotion classifier on a TSV corpus",
			Args:     &trainArgs{},
		},
		cmdline.Command{
			Name:     "predict",
			Synopsis: "predict emotions for ad-hoc sentences",
			Args:     &predictArgs{},
		},
	)
}

func spaceByName(name string) (*labels.Space, error) {
	switch name {
	case "goemotions":
		return labels.GoEmotions, nil
	case "ekman":
		return labels.Ekman, nil
	default:
		return nil, errors.Errorf("unknown label space '%s', expected goemotions or ekman", name)
	}
}

type trainArgs struct {
	Corpus      string  `arg:"positional,required" help:"TSV corpus: text<TAB>labels"`
	Format      string  `arg:"--format" default:"class" help:"corpus label format: class or named"`
	Vocab       string  `arg:"--vocab,required" help:"tokenizer vocabulary (JSON array of pieces)"`
	Out         string  `arg:"--out,required" help:"output model directory"`
	Space       string  `arg:"--space" default:"goemotions" help:"label space: goemotions or ekman"`
	MaxLength   int     `arg:"--max-length" default:"64"`
	Epochs      int     `arg:"--epochs" default:"10"`
	BatchSize   int     `arg:"--batch-size" default:"32"`
	LearnRate   float64 `arg:"--learning-rate" default:"0.5"`
	WeightDecay float64 `arg:"--weight-decay" default:"0.0001"`
	Retention   int     `arg:"--checkpoint-retention" default:"3"`
	LogInterval int     `arg:"--logging-interval" default:"50"`
	TrainRatio  float64 `arg:"--train-ratio" default:"0.9"`
	Seed        int64   `arg:"--seed" default:"1"`
	Parallelism int     `arg:"--parallelism" default:"4"`
	Threshold   float64 `arg:"--threshold" default:"0.5"`
}

func (a *trainArgs) Handle() error {
	space, err := spaceByName(a.Space)
	if err != nil {
		return err
	}

	encoder, err := wordpiece.NewEncoder(a.Vocab)
	if err != nil {
		return err
	}

	var records []dataset.RawRecord
	switch a.Format {
	case "class":
		records, err = dataset.ReadClassTSV(a.Corpus, space)
	case "named":
		records, err = dataset.ReadNamedTSV(a.Corpus)
	default:
		return errors.Errorf("unknown corpus format '%s', expected class or named", a.Format)
	}
	if err != nil {
		return err
	}

	examples, stats, err := dataset.Build(records, encoder, space, dataset.Options{
		MaxLength:   a.MaxLength,
		Parallelism: a.Parallelism,
	})
	if err != nil {
		return err
	}
	log.Printf("encoded %d records, skipped %d: %v", stats.Encoded, stats.Skipped, stats.Reasons)

	trainSet, validSet, err := train.Split(examples, a.Seed, a.TrainRatio)
	if err != nil {
		return err
	}

	trainer := train.Trainer{
		NumLabels: space.Len(),
		VocabSize: encoder.Size(),
		PadID:     encoder.PadID(),
	}
	model, metrics, err := trainer.Train(context.Background(), trainSet, validSet, train.Config{
		Epochs:              a.Epochs,
		BatchSize:           a.BatchSize,
		LearningRate:        a.LearnRate,
		WeightDecay:         a.WeightDecay,
		LoggingInterval:     a.LogInterval,
		CheckpointDir:       fileutil.Join(a.Out, "checkpoints"),
		CheckpointRetention: a.Retention,
		EvalStrategy:        train.EvalPerEpoch,
		Threshold:           float32(a.Threshold),
		Seed:                a.Seed,
	})
	if err != nil {
		return err
	}

	for name, value := range metrics {
		log.Printf("%s: %.5f", name, value)
	}

	if err := model.Save(fileutil.Join(a.Out, "model.json")); err != nil {
		return err
	}

	hp := predict.HParams{
		NumLabels: space.Len(),
		MaxLength: a.MaxLength,
		VocabSize: encoder.Size(),
		Threshold: float32(a.Threshold),
	}
	buf, err := json.MarshalIndent(hp, "", "  ")
	if err != nil {
		return err
	}
	if err := fileutil.WriteFileAtomic(fileutil.Join(a.Out, predict.ConfigFile), buf); err != nil {
		return err
	}

	// keep the vocabulary beside the weights so the directory is
	// self-contained for inference
	vocabBuf, err := json.Marshal(encoder.Pieces())
	if err != nil {
		return err
	}
	return fileutil.WriteFileAtomic(fileutil.Join(a.Out, predict.VocabFile), vocabBuf)
}

type predictArgs struct {
	ModelDir  string   `arg:"--model,required" help:"model directory"`
	Space     string   `arg:"--space" default:"goemotions"`
	Threshold float64  `arg:"--threshold" default:"-1" help:"override the decode threshold; negative keeps the model config value"`
	Texts     []string `arg:"positional,required" help:"sentences to classify"`
}

func (a *predictArgs) Handle() error {
	space, err := spaceByName(a.Space)
	if err != nil {
		return err
	}

	p, err := loadPredictor(a.ModelDir, space)
	if err != nil {
		return err
	}
	if a.Threshold >= 0 {
		if err := p.SetThreshold(float32(a.Threshold)); err != nil {
			return err
		}
	}

	results, err := p.Predict(context.Background(), a.Texts)
	if err != nil {
		return err
	}

	for _, r := range results {
		fmt.Printf("%q -> %v\n", r.Text, r.Predicted)
		for i, prob := range r.Probabilities {
			if prob > 0.1 {
				name, _ := space.Name(i)
				fmt.Printf("    %-16s %.3f\n", name, prob)
			}
		}
	}
	return nil
}

// loadPredictor picks the model backend from the directory contents: a frozen
// Tensorflow graph when present, the baseline weights otherwise.
func loadPredictor(dir string, space *labels.Space) (*predict.Predictor, error) {
	if fileutil.Exists(fileutil.Join(dir, predict.GraphFile)) {
		return predict.NewPredictorFromDir(dir, space)
	}

	hp, err := predict.NewHParams(fileutil.Join(dir, predict.ConfigFile))
	if err != nil {
		return nil, err
	}
	encoder, err := wordpiece.NewEncoder(fileutil.Join(dir, predict.VocabFile))
	if err != nil {
		return nil, err
	}
	model, err := train.LoadLogisticModel(fileutil.Join(dir, "model.json"))
	if err != nil {
		return nil, err
	}
	return predict.NewPredictor(model, encoder, space, hp)
}
