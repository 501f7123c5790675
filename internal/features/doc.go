// Package features turns transactions into fixed-width numeric vectors.
//
// A Pipeline concatenates three feature groups in a stable column order:
// TF-IDF weights of the description terms, the standardised amount, and
// one-hot columns for the transaction type. All parameters are learned by
// Fit and frozen afterwards, so Transform is deterministic and its width
// always equals the width seen at fit time.
package features
