package features

import (
	"errors"

	"github.com/Veraticus/spice-insight/internal/model"
)

var (
	// ErrNotFitted is returned when a pipeline is used before Fit.
	ErrNotFitted = errors.New("feature pipeline not fitted")
	// ErrCorruptParameters is returned when persisted parameters are inconsistent.
	ErrCorruptParameters = errors.New("corrupt feature parameters")
)

// Record is the fixed schema a transaction is reduced to before encoding.
type Record struct {
	Description string
	Type        model.TransactionType
	Amount      float64
}

// RecordFromTransaction extracts the feature record of a transaction.
func RecordFromTransaction(t model.Transaction) Record {
	return Record{
		Description: t.Description,
		Amount:      t.AmountFloat(),
		Type:        t.Type,
	}
}

// Pipeline combines the text, numeric and categorical encoders.
type Pipeline struct {
	Vectorizer *TextVectorizer `json:"vectorizer"`
	Scaler     *StandardScaler `json:"scaler"`
	Encoder    *OneHotEncoder  `json:"encoder"`
}

// NewPipeline creates an unfitted pipeline.
func NewPipeline(maxFeatures int) *Pipeline {
	return &Pipeline{
		Vectorizer: NewTextVectorizer(maxFeatures),
		Scaler:     &StandardScaler{},
		Encoder:    &OneHotEncoder{},
	}
}

// Fit learns all encoder parameters from records. Refitting replaces the
// previous parameters and may change the vector width.
func (p *Pipeline) Fit(records []Record) {
	docs := make([]string, len(records))
	amounts := make([]float64, len(records))
	types := make([]string, len(records))
	for i, r := range records {
		docs[i] = r.Description
		amounts[i] = r.Amount
		types[i] = string(r.Type)
	}
	p.Vectorizer.Fit(docs)
	p.Scaler.Fit(amounts)
	p.Encoder.Fit(types)
}

// FitTransform fits the pipeline and encodes every record.
func (p *Pipeline) FitTransform(records []Record) [][]float64 {
	p.Fit(records)
	out := make([][]float64, len(records))
	for i, r := range records {
		out[i] = p.encode(r)
	}
	return out
}

// Transform encodes one record with the frozen parameters.
func (p *Pipeline) Transform(r Record) ([]float64, error) {
	if !p.Fitted() {
		return nil, ErrNotFitted
	}
	return p.encode(r), nil
}

// Fitted reports whether the pipeline has learned its parameters.
func (p *Pipeline) Fitted() bool {
	return p != nil && p.Vectorizer != nil && p.Scaler != nil && p.Encoder != nil &&
		p.Vectorizer.index != nil && p.Scaler.Scale != 0 && p.Encoder.Width() > 0
}

// Width returns the length of every vector the pipeline produces.
func (p *Pipeline) Width() int {
	return p.Vectorizer.Width() + 1 + p.Encoder.Width()
}

// FeatureNames returns the column names in vector order.
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	for _, term := range p.Vectorizer.Vocabulary {
		names = append(names, "text:"+term)
	}
	names = append(names, "amount")
	for _, col := range p.Encoder.Columns {
		names = append(names, "type:"+col)
	}
	return names
}

func (p *Pipeline) encode(r Record) []float64 {
	row := make([]float64, 0, p.Width())
	row = append(row, p.Vectorizer.Transform(r.Description)...)
	row = append(row, p.Scaler.Transform(r.Amount))
	row = append(row, p.Encoder.Transform(string(r.Type))...)
	return row
}
