package sentiment

import (
	"context"
	"math"
	"testing"

	"insightsuite/internal/core"
)

func TestScoreLexicalOnly(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	// tanh(1.0) rounded to three decimals
	got := scorer.Score(core.Review{Text: "excellent"})
	if got != 0.762 {
		t.Errorf("expected 0.762, got %v", got)
	}

	got = scorer.Score(core.Review{Text: "terrible"})
	if got != -0.762 {
		t.Errorf("expected -0.762, got %v", got)
	}
}

func TestScoreNeutralWhenNothingMatches(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	if got := scorer.Score(core.Review{Text: ""}); got != 0 {
		t.Errorf("empty text should be neutral, got %v", got)
	}
	if got := scorer.Score(core.Review{Text: "the room was on the third floor"}); got != 0 {
		t.Errorf("unmatched text should be neutral, got %v", got)
	}
}

func TestScoreRatingPrior(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	// No lexicon hit: rating carries the whole score.
	got := scorer.Score(core.Review{Text: "the room was on the third floor", Rating: 4})
	if got != 0.5 {
		t.Errorf("expected 0.5 from rating prior, got %v", got)
	}
	got = scorer.Score(core.Review{Text: "the room was on the third floor", Rating: 1})
	if got != -1 {
		t.Errorf("expected -1 from rating prior, got %v", got)
	}
}

func TestScoreBlendsTextAndRating(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	// lexical 0.762, prior -1.0: 0.6*0.762 + 0.4*(-1.0)
	got := scorer.Score(core.Review{Text: "excellent", Rating: 1})
	if got != 0.057 {
		t.Errorf("expected 0.057, got %v", got)
	}
}

func TestScoreNegationFlips(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	positive := scorer.Score(core.Review{Text: "good"})
	negated := scorer.Score(core.Review{Text: "not good"})
	if negated >= 0 {
		t.Errorf("expected negated positive to score negative, got %v", negated)
	}
	if math.Abs(positive+negated) > 1e-9 {
		t.Errorf("expected symmetric flip, got %v and %v", positive, negated)
	}
}

func TestScoreMultilingual(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	cases := map[string]bool{
		"ottimo soggiorno, posizione perfetta": true,
		"camera sporca e personale maleducato": false,
		"aplikasi bagus dan mudah":             true,
		"aplikasi lemot dan sering rusak":      false,
	}
	for text, positive := range cases {
		got := scorer.Score(core.Review{Text: text})
		if positive && got <= 0 {
			t.Errorf("expected positive score for %q, got %v", text, got)
		}
		if !positive && got >= 0 {
			t.Errorf("expected negative score for %q, got %v", text, got)
		}
	}
}

func TestScoreBounded(t *testing.T) {
	scorer := NewScorer(DefaultOptions())

	got := scorer.Score(core.Review{
		Text:   "excellent amazing outstanding fantastic wonderful perfect great best awesome",
		Rating: 5,
	})
	if got < -1 || got > 1 {
		t.Errorf("score out of range: %v", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	scorer := NewScorer(DefaultOptions())
	review := core.Review{Text: "great location but noisy at night", Rating: 3}

	first := scorer.Score(review)
	for i := 0; i < 10; i++ {
		if got := scorer.Score(review); got != first {
			t.Fatalf("score changed between calls: %v vs %v", first, got)
		}
	}
}

func TestScoreBatch(t *testing.T) {
	scorer := NewScorer(Options{Workers: 3})

	reviews := []core.Review{
		{ID: "a", Text: "excellent stay"},
		{ID: "b", Text: "terrible experience"},
		{ID: "c", Text: ""},
	}

	scored := scorer.ScoreBatch(context.Background(), reviews)
	if len(scored) != 3 {
		t.Fatalf("expected 3 reviews, got %d", len(scored))
	}
	if scored[0].ID != "a" || scored[1].ID != "b" || scored[2].ID != "c" {
		t.Error("order not preserved")
	}
	if scored[0].Sentiment <= 0 {
		t.Errorf("expected positive sentiment, got %v", scored[0].Sentiment)
	}
	if scored[1].Sentiment >= 0 {
		t.Errorf("expected negative sentiment, got %v", scored[1].Sentiment)
	}
	if scored[2].Sentiment != 0 {
		t.Errorf("expected neutral sentiment, got %v", scored[2].Sentiment)
	}
}

func TestScoreBatchCancelledContext(t *testing.T) {
	scorer := NewScorer(Options{Workers: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	reviews := make([]core.Review, 50)
	for i := range reviews {
		reviews[i] = core.Review{Text: "excellent"}
	}

	// Must return promptly without panicking; remaining reviews stay neutral.
	scored := scorer.ScoreBatch(ctx, reviews)
	if len(scored) != 50 {
		t.Fatalf("expected 50 reviews back, got %d", len(scored))
	}
}

func TestMethod(t *testing.T) {
	if got := NewScorer(DefaultOptions()).Method(); got != "multilingual-lexicon" {
		t.Errorf("unexpected method %q", got)
	}
}
