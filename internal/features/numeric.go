package features

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardises a value to zero mean and unit variance using
// statistics frozen at fit time.
type StandardScaler struct {
	Mean  float64 `json:"mean"`
	Scale float64 `json:"scale"`
}

// Fit computes the mean and population standard deviation of values. A
// constant (or empty) input keeps a scale of 1.
func (s *StandardScaler) Fit(values []float64) {
	s.Mean, s.Scale = 0, 1
	if len(values) == 0 {
		return
	}
	mean, std := stat.PopMeanStdDev(values, nil)
	s.Mean = mean
	if std > 0 {
		s.Scale = std
	}
}

// Transform scales a single value.
func (s *StandardScaler) Transform(v float64) float64 {
	return (v - s.Mean) / s.Scale
}

// OneHotEncoder expands a categorical value into indicator columns. The
// columns are the sorted distinct values seen at fit time.
type OneHotEncoder struct {
	Columns []string `json:"columns"`
}

// Fit records the distinct values as columns.
func (e *OneHotEncoder) Fit(values []string) {
	seen := make(map[string]bool)
	e.Columns = e.Columns[:0]
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			e.Columns = append(e.Columns, v)
		}
	}
	sort.Strings(e.Columns)
}

// Width returns the number of indicator columns.
func (e *OneHotEncoder) Width() int {
	return len(e.Columns)
}

// Transform encodes value; unseen values produce all zeros.
func (e *OneHotEncoder) Transform(value string) []float64 {
	row := make([]float64, len(e.Columns))
	for i, col := range e.Columns {
		if col == value {
			row[i] = 1
			break
		}
	}
	return row
}
