// Package ml implements the tree ensembles used by the insight engine: a
// random forest classifier for categorization and an isolation forest for
// outlier scoring. Both are seeded and deterministic for a given input.
package ml
