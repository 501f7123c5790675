// Package categorizer assigns category labels to transactions with a random
// forest trained on TF-IDF, amount and type features.
//
// The trained model lives in an immutable Bundle behind an atomic pointer.
// Predictions read whichever bundle is current; training and reloading run
// one at a time under a mutex and publish a complete new bundle when done.
package categorizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Veraticus/spice-insight/internal/common"
	"github.com/Veraticus/spice-insight/internal/features"
	"github.com/Veraticus/spice-insight/internal/model"
	"github.com/Veraticus/spice-insight/internal/service"
	"github.com/shopspring/decimal"
)

// Option configures a Categorizer.
type Option func(*Categorizer)

// WithLogger sets the logger used for lifecycle events.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Categorizer) {
		c.logger = logger
	}
}

// WithTrainConfig overrides the training hyperparameters.
func WithTrainConfig(cfg TrainConfig) Option {
	return func(c *Categorizer) {
		c.cfg = cfg
	}
}

// WithRetryOptions sets the retry policy for artifact writes.
func WithRetryOptions(opts common.RetryOptions) Option {
	return func(c *Categorizer) {
		c.retry = opts
	}
}

// Categorizer predicts transaction categories. It is safe for concurrent use.
type Categorizer struct {
	store   service.ArtifactStore
	logger  *slog.Logger
	bundle  atomic.Pointer[Bundle]
	retry   common.RetryOptions
	cfg     TrainConfig
	trainMu sync.Mutex
}

// New creates a categorizer backed by store. A nil store keeps models in
// memory only. No model is loaded until LoadOrTrain is called.
func New(store service.ArtifactStore, opts ...Option) *Categorizer {
	c := &Categorizer{
		store: store,
		cfg:   DefaultTrainConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = common.LoggerOrDefault(c.logger).With("component", "categorizer")
	return c
}

// Bundle returns the current model snapshot, or nil before the first load.
func (c *Categorizer) Bundle() *Bundle {
	return c.bundle.Load()
}

// LoadOrTrain makes a model available. It loads the persisted bundle, or
// trains on the bootstrap dataset when loading fails for any reason. It
// does nothing once a bundle is installed.
func (c *Categorizer) LoadOrTrain(ctx context.Context) error {
	if c.bundle.Load() != nil {
		return nil
	}

	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	if c.bundle.Load() != nil {
		return nil
	}
	return c.loadOrTrainLocked(ctx)
}

// Retrain runs a fresh load-or-train cycle, replacing the current bundle.
// In-flight predictions keep using the bundle they started with.
func (c *Categorizer) Retrain(ctx context.Context) error {
	c.trainMu.Lock()
	defer c.trainMu.Unlock()

	c.logger.Info("Retraining categorizer")
	return c.loadOrTrainLocked(ctx)
}

// TrainWith trains on the bootstrap dataset plus extra labelled examples,
// persists the result and installs it. Examples without a valid category
// are skipped.
func (c *Categorizer) TrainWith(ctx context.Context, extra []Example) error {
	examples := BootstrapExamples()
	skipped := 0
	for _, ex := range extra {
		if !ex.Category.IsValid() {
			skipped++
			continue
		}
		examples = append(examples, ex)
	}
	if skipped > 0 {
		c.logger.Warn("Skipped examples without a valid category", "skipped", skipped)
	}

	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	return c.trainLocked(ctx, examples)
}

// PredictCategory returns the category for a transaction. It never fails:
// when no model is available or prediction errors, it returns Income for
// income and Other for everything else.
func (c *Categorizer) PredictCategory(description string, amount decimal.Decimal, txType model.TransactionType) model.Category {
	category, err := c.classify(description, amount, txType)
	if err != nil {
		fallback := model.DefaultCategory(txType)
		c.logger.Warn("Category prediction failed, using default",
			"error", err,
			"default", fallback)
		return fallback
	}
	return category
}

func (c *Categorizer) classify(description string, amount decimal.Decimal, txType model.TransactionType) (category model.Category, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("prediction panicked: %v", r)
		}
	}()

	b := c.bundle.Load()
	if b == nil {
		return "", common.ErrNoModel
	}
	return b.Predict(features.Record{
		Description: strings.ToLower(description),
		Amount:      amount.InexactFloat64(),
		Type:        txType,
	})
}

func (c *Categorizer) loadOrTrainLocked(ctx context.Context) error {
	b, err := c.load(ctx)
	if err == nil {
		c.bundle.Store(b)
		c.logger.Info("Loaded categorizer model",
			"version", b.Version,
			"samples", b.Samples,
			"features", b.Pipeline.Width())
		return nil
	}

	if errors.Is(err, common.ErrNotFound) {
		c.logger.Info("No persisted categorizer model, training from bootstrap data")
	} else {
		c.logger.Warn("Failed to load categorizer model, training from bootstrap data", "error", err)
	}
	return c.trainLocked(ctx, BootstrapExamples())
}

func (c *Categorizer) load(ctx context.Context) (*Bundle, error) {
	if c.store == nil {
		return nil, common.ErrNotFound
	}

	artifacts := make(map[string][]byte, len(ArtifactNames))
	for _, name := range ArtifactNames {
		data, err := c.store.LoadArtifact(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s artifact: %w", name, err)
		}
		artifacts[name] = data
	}
	return DecodeBundle(artifacts)
}

func (c *Categorizer) trainLocked(ctx context.Context, examples []Example) error {
	c.logger.Info("Training categorizer model", "examples", len(examples))

	b, accuracy, err := Train(examples, c.cfg)
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrTrainingFailed, err)
	}

	if err := c.persist(ctx, b); err != nil {
		// The in-memory model is still usable; the next process retrains.
		c.logger.Error("Failed to persist categorizer model", "error", err, "version", b.Version)
	}

	c.bundle.Store(b)
	c.logger.Info("Categorizer model trained",
		"version", b.Version,
		"samples", b.Samples,
		"features", b.Pipeline.Width(),
		"accuracy", fmt.Sprintf("%.2f", accuracy))
	return nil
}

func (c *Categorizer) persist(ctx context.Context, b *Bundle) error {
	if c.store == nil {
		return nil
	}

	artifacts, err := EncodeBundle(b)
	if err != nil {
		return err
	}
	for _, name := range ArtifactNames {
		data := artifacts[name]
		err := common.WithRetry(ctx, func() error {
			return c.store.SaveArtifact(ctx, name, data)
		}, c.retry)
		if err != nil {
			return fmt.Errorf("failed to save %s artifact: %w", name, err)
		}
	}
	return nil
}
