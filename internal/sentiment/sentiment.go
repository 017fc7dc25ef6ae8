package sentiment

import (
	"context"
	"math"
	"strings"
	"sync"
	"unicode"

	"insightsuite/internal/core"
)

// Scorer assigns a scalar sentiment in [-1, 1] to review texts using a
// weighted multilingual lexicon, blended with the star rating when the
// source provides one. Scoring is deterministic: identical text and
// rating always yield the same score.
type Scorer struct {
	workers int
}

// Options configures the scorer.
type Options struct {
	// Workers bounds the concurrency used by ScoreBatch.
	Workers int
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{Workers: 4}
}

// NewScorer creates a scorer with the given options.
func NewScorer(opts Options) *Scorer {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	return &Scorer{workers: opts.Workers}
}

// Method identifies the scoring approach for artifact metadata.
func (s *Scorer) Method() string { return "multilingual-lexicon" }

// Score returns the sentiment for a single review. Empty or unusable text
// yields neutral (0.0) rather than an error.
func (s *Scorer) Score(review core.Review) float64 {
	lexical, matched := scoreText(review.Text)
	if !review.HasRating() {
		if !matched {
			return 0.0
		}
		return lexical
	}

	// Star ratings are a strong prior: 1★ → -1.0, 3★ → 0.0, 5★ → +1.0.
	prior := (review.Rating - 3.0) / 2.0
	if !matched {
		return round3(prior)
	}
	return round3(0.6*lexical + 0.4*prior)
}

// ScoreBatch scores reviews in place using a bounded worker pool and
// returns the scored slice. The batch never fails: unusable texts score
// neutral. Order is preserved.
func (s *Scorer) ScoreBatch(ctx context.Context, reviews []core.Review) []core.Review {
	if len(reviews) == 0 {
		return reviews
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < s.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reviews[i].Sentiment = s.Score(reviews[i])
			}
		}()
	}

	for i := range reviews {
		select {
		case <-ctx.Done():
			// Remaining reviews keep neutral sentiment; the stage does not
			// abort the run.
			close(jobs)
			wg.Wait()
			return reviews
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return reviews
}

// scoreText computes the lexicon score and whether any sentiment-bearing
// word matched at all.
func scoreText(text string) (score float64, matched bool) {
	words := tokenize(text)
	if len(words) == 0 {
		return 0.0, false
	}

	var total float64
	var hits int
	negated := false
	for _, w := range words {
		if negations[w] {
			negated = true
			continue
		}
		weight, ok := positiveWeights[w]
		if !ok {
			weight, ok = negativeWeights[w]
		}
		if !ok {
			negated = false
			continue
		}
		if negated {
			weight = -weight
			negated = false
		}
		total += weight
		hits++
	}

	if hits == 0 {
		return 0.0, false
	}

	// Squash so that a handful of strong words saturates without a long
	// review drowning its own signal.
	return round3(math.Tanh(total / math.Sqrt(float64(hits)))), true
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
