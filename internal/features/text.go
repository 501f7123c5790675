package features

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strings"
)

// DefaultMaxFeatures caps the vocabulary size of a TextVectorizer.
const DefaultMaxFeatures = 100

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// stopWords are common English words that carry no category signal.
var stopWords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`
		a about above after again against all am an and any are as at be
		because been before being below between both but by can could did do
		does doing down during each few for from further had has have having
		he her here hers herself him himself his how if in into is it its
		itself just me more most my myself no nor not now of off on once only
		or other our ours ourselves out over own same she should so some such
		than that the their theirs them themselves then there these they this
		those through to too under until up very was we were what when where
		which while who whom why will with would you your yours yourself
		yourselves`) {
		stopWords[w] = struct{}{}
	}
}

// Tokenize lowercases text and splits it into terms of two or more word
// characters, dropping stop words.
func Tokenize(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

// TextVectorizer computes L2-normalised TF-IDF weights over a vocabulary
// frozen at fit time.
type TextVectorizer struct {
	index       map[string]int
	Vocabulary  []string  `json:"vocabulary"`
	IDF         []float64 `json:"idf"`
	MaxFeatures int       `json:"max_features"`
}

// NewTextVectorizer creates an unfitted vectorizer. A non-positive
// maxFeatures falls back to DefaultMaxFeatures.
func NewTextVectorizer(maxFeatures int) *TextVectorizer {
	if maxFeatures <= 0 {
		maxFeatures = DefaultMaxFeatures
	}
	return &TextVectorizer{MaxFeatures: maxFeatures}
}

// Fit learns the vocabulary and inverse document frequencies.
func (v *TextVectorizer) Fit(docs []string) {
	termFreq := make(map[string]int)
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, tok := range Tokenize(doc) {
			termFreq[tok]++
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(termFreq))
	for term := range termFreq {
		terms = append(terms, term)
	}
	// Keep the most frequent terms, breaking ties alphabetically.
	sort.Slice(terms, func(i, j int) bool {
		if termFreq[terms[i]] != termFreq[terms[j]] {
			return termFreq[terms[i]] > termFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = terms
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
	v.buildIndex()
}

// Width returns the number of text columns.
func (v *TextVectorizer) Width() int {
	return len(v.Vocabulary)
}

// Transform returns the TF-IDF row for a single document.
func (v *TextVectorizer) Transform(doc string) []float64 {
	row := make([]float64, len(v.Vocabulary))
	for _, tok := range Tokenize(doc) {
		if i, ok := v.index[tok]; ok {
			row[i]++
		}
	}

	var norm float64
	for i := range row {
		row[i] *= v.IDF[i]
		norm += row[i] * row[i]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range row {
			row[i] /= norm
		}
	}
	return row
}

func (v *TextVectorizer) buildIndex() {
	v.index = make(map[string]int, len(v.Vocabulary))
	for i, term := range v.Vocabulary {
		v.index[term] = i
	}
}

// UnmarshalJSON restores a persisted vectorizer, rebuilding its term index.
func (v *TextVectorizer) UnmarshalJSON(data []byte) error {
	type plain TextVectorizer
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if len(p.Vocabulary) != len(p.IDF) {
		return ErrCorruptParameters
	}
	*v = TextVectorizer(p)
	v.buildIndex()
	return nil
}
