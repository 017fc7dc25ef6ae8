package embed

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

// LexicalDimensions is the vector size of the TF-IDF fallback space.
const LexicalDimensions = 512

// LexicalVectors builds TF-IDF vectors for the whole batch against a
// vocabulary derived from the batch itself. It is the degraded-mode
// replacement for remote embeddings: purely local, deterministic, and
// good enough for density clustering over lexical similarity.
func LexicalVectors(texts []string) [][]float64 {
	docs := make([][]string, len(texts))
	df := make(map[string]int)
	for i, t := range texts {
		docs[i] = lexTokenize(t)
		seen := make(map[string]bool, len(docs[i]))
		for _, w := range docs[i] {
			if !seen[w] {
				seen[w] = true
				df[w]++
			}
		}
	}

	vocab := buildVocabulary(df, len(texts))
	n := float64(len(texts))

	vectors := make([][]float64, len(texts))
	for i, words := range docs {
		vec := make([]float64, len(vocab))
		for _, w := range words {
			if idx, ok := vocab[w]; ok {
				vec[idx]++
			}
		}
		for w, idx := range vocab {
			if vec[idx] > 0 {
				idf := math.Log((1+n)/(1+float64(df[w]))) + 1
				vec[idx] *= idf
			}
		}
		l2Normalize(vec)
		vectors[i] = vec
	}
	return vectors
}

// buildVocabulary keeps the most document-frequent terms, dropping terms
// in a single document and terms in over 90% of them: neither
// distinguishes anything.
func buildVocabulary(df map[string]int, docCount int) map[string]int {
	type termFreq struct {
		term string
		df   int
	}
	maxDF := int(0.9 * float64(docCount))

	var terms []termFreq
	for w, f := range df {
		if docCount > 2 && (f < 2 || f > maxDF) {
			continue
		}
		terms = append(terms, termFreq{w, f})
	}
	sort.Slice(terms, func(i, j int) bool {
		if terms[i].df != terms[j].df {
			return terms[i].df > terms[j].df
		}
		return terms[i].term < terms[j].term
	})
	if len(terms) > LexicalDimensions {
		terms = terms[:LexicalDimensions]
	}

	vocab := make(map[string]int, len(terms))
	for i, t := range terms {
		vocab[t.term] = i
	}
	return vocab
}

func l2Normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}

func lexTokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := words[:0]
	for _, w := range words {
		if len(w) > 2 {
			out = append(out, w)
		}
	}
	return out
}
