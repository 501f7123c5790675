package categorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Veraticus/spice-insight/internal/features"
	"github.com/Veraticus/spice-insight/internal/ml"
)

// Artifact names under which a bundle is persisted.
const (
	ArtifactClassifier = "classifier"
	ArtifactVectorizer = "vectorizer"
	ArtifactScaler     = "scaler"
)

// SchemaVersion is bumped whenever the persisted layout changes. Artifacts
// written with another version are rejected and the model is retrained.
const SchemaVersion = 1

// ErrSchemaMismatch is returned when persisted artifacts do not match the
// current schema or each other.
var ErrSchemaMismatch = errors.New("model artifact schema mismatch")

// ArtifactNames lists the artifacts of a bundle in write order.
var ArtifactNames = []string{ArtifactVectorizer, ArtifactScaler, ArtifactClassifier}

type envelope struct {
	TrainedAt     time.Time       `json:"trained_at"`
	Version       string          `json:"version"`
	Payload       json.RawMessage `json:"payload"`
	SchemaVersion int             `json:"schema_version"`
	FeatureWidth  int             `json:"feature_width"`
	Samples       int             `json:"samples"`
}

type scalerPayload struct {
	Scaler  *features.StandardScaler `json:"scaler"`
	Encoder *features.OneHotEncoder  `json:"encoder"`
}

// EncodeBundle serializes a bundle into its named artifacts.
func EncodeBundle(b *Bundle) (map[string][]byte, error) {
	payloads := map[string]any{
		ArtifactVectorizer: b.Pipeline.Vectorizer,
		ArtifactScaler:     scalerPayload{Scaler: b.Pipeline.Scaler, Encoder: b.Pipeline.Encoder},
		ArtifactClassifier: b.Forest,
	}

	out := make(map[string][]byte, len(payloads))
	for name, payload := range payloads {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s: %w", name, err)
		}
		data, err := json.Marshal(envelope{
			SchemaVersion: SchemaVersion,
			Version:       b.Version,
			TrainedAt:     b.TrainedAt,
			Samples:       b.Samples,
			FeatureWidth:  b.Pipeline.Width(),
			Payload:       raw,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode %s envelope: %w", name, err)
		}
		out[name] = data
	}
	return out, nil
}

// DecodeBundle rebuilds a bundle from its artifacts, checking that every
// artifact comes from the same training run and the current schema.
func DecodeBundle(artifacts map[string][]byte) (*Bundle, error) {
	envs := make(map[string]envelope, len(ArtifactNames))
	for _, name := range ArtifactNames {
		data, ok := artifacts[name]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrSchemaMismatch, name)
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidBundle, name, err)
		}
		if env.SchemaVersion != SchemaVersion {
			return nil, fmt.Errorf("%w: %s has schema %d, want %d",
				ErrSchemaMismatch, name, env.SchemaVersion, SchemaVersion)
		}
		envs[name] = env
	}

	ref := envs[ArtifactClassifier]
	for _, name := range ArtifactNames {
		env := envs[name]
		if env.Version != ref.Version || env.FeatureWidth != ref.FeatureWidth {
			return nil, fmt.Errorf("%w: %s belongs to model %s, classifier to %s",
				ErrSchemaMismatch, name, env.Version, ref.Version)
		}
	}

	var vectorizer features.TextVectorizer
	if err := json.Unmarshal(envs[ArtifactVectorizer].Payload, &vectorizer); err != nil {
		return nil, fmt.Errorf("%w: vectorizer: %w", ErrInvalidBundle, err)
	}
	var scaler scalerPayload
	if err := json.Unmarshal(envs[ArtifactScaler].Payload, &scaler); err != nil {
		return nil, fmt.Errorf("%w: scaler: %w", ErrInvalidBundle, err)
	}
	var forest ml.RandomForest
	if err := json.Unmarshal(envs[ArtifactClassifier].Payload, &forest); err != nil {
		return nil, fmt.Errorf("%w: classifier: %w", ErrInvalidBundle, err)
	}

	b := &Bundle{
		TrainedAt: ref.TrainedAt,
		Version:   ref.Version,
		Samples:   ref.Samples,
		Forest:    &forest,
		Pipeline: &features.Pipeline{
			Vectorizer: &vectorizer,
			Scaler:     scaler.Scaler,
			Encoder:    scaler.Encoder,
		},
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if b.Pipeline.Width() != ref.FeatureWidth {
		return nil, fmt.Errorf("%w: recorded width %d, pipeline width %d",
			ErrSchemaMismatch, ref.FeatureWidth, b.Pipeline.Width())
	}
	return b, nil
}
