package categorizer

import (
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insight/internal/features"
	"github.com/Veraticus/spice-insight/internal/ml"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/google/uuid"
)

// ErrInvalidBundle is returned when a bundle's parts do not fit together.
var ErrInvalidBundle = errors.New("invalid model bundle")

// TrainConfig holds the hyperparameters of a training run.
type TrainConfig struct {
	Forest      ml.ForestConfig
	MaxFeatures int
}

// DefaultTrainConfig returns 100 trees, seed 42 and a 100 term vocabulary.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Forest:      ml.DefaultForestConfig(),
		MaxFeatures: features.DefaultMaxFeatures,
	}
}

// Bundle is an immutable snapshot of everything needed to reproduce a
// prediction. A new training run produces a new Bundle; existing ones are
// never modified.
type Bundle struct {
	TrainedAt time.Time
	Pipeline  *features.Pipeline
	Forest    *ml.RandomForest
	Version   string
	Samples   int
}

// Train fits a pipeline and forest on examples and reports the training
// accuracy.
func Train(examples []Example, cfg TrainConfig) (*Bundle, float64, error) {
	if len(examples) == 0 {
		return nil, 0, ml.ErrEmptyTrainingSet
	}

	records := make([]features.Record, len(examples))
	labels := make([]string, len(examples))
	for i, ex := range examples {
		records[i] = ex.Record()
		labels[i] = string(ex.Category)
	}

	pipeline := features.NewPipeline(cfg.MaxFeatures)
	x := pipeline.FitTransform(records)

	forest, err := ml.FitRandomForest(x, labels, cfg.Forest)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fit forest: %w", err)
	}

	b := &Bundle{
		TrainedAt: time.Now().UTC(),
		Pipeline:  pipeline,
		Forest:    forest,
		Version:   uuid.NewString(),
		Samples:   len(examples),
	}
	return b, forest.Score(x, labels), nil
}

// Predict classifies one record.
func (b *Bundle) Predict(r features.Record) (model.Category, error) {
	x, err := b.Pipeline.Transform(r)
	if err != nil {
		return "", err
	}
	label, err := b.Forest.Predict(x)
	if err != nil {
		return "", err
	}
	return model.ParseCategory(label)
}

// Validate checks that the pipeline and forest agree on the vector width.
func (b *Bundle) Validate() error {
	if b.Pipeline == nil || !b.Pipeline.Fitted() {
		return fmt.Errorf("%w: pipeline not fitted", ErrInvalidBundle)
	}
	if b.Forest == nil {
		return fmt.Errorf("%w: missing classifier", ErrInvalidBundle)
	}
	if err := b.Forest.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidBundle, err)
	}
	if b.Forest.NumFeatures != b.Pipeline.Width() {
		return fmt.Errorf("%w: classifier width %d, pipeline width %d",
			ErrInvalidBundle, b.Forest.NumFeatures, b.Pipeline.Width())
	}
	for _, class := range b.Forest.Classes {
		if _, err := model.ParseCategory(class); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalidBundle, err)
		}
	}
	return nil
}
