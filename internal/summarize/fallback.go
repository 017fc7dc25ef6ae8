package summarize

import (
	"fmt"
	"strings"

	"insightsuite/internal/core"
)

// Sentiment thresholds separating negative, mixed and positive themes in
// the rule-based digest.
const (
	fallbackNegThreshold = -0.05
	fallbackPosThreshold = 0.05
)

// ruleBasedDigest builds a deterministic digest from the signals the
// cluster already carries. It keeps the keyword-derived label and words
// the summary from polarity and size.
func ruleBasedDigest(c core.Cluster) digest {
	topic := "this theme"
	if len(c.Keywords) > 0 {
		n := len(c.Keywords)
		if n > 3 {
			n = 3
		}
		topic = strings.Join(c.Keywords[:n], ", ")
	}

	var tone string
	var strengths, weaknesses []string
	switch {
	case c.Sentiment <= fallbackNegThreshold:
		tone = "mostly negative"
		weaknesses = keywordPhrases(c.Keywords, 3)
	case c.Sentiment >= fallbackPosThreshold:
		tone = "mostly positive"
		strengths = keywordPhrases(c.Keywords, 3)
	default:
		tone = "mixed"
	}

	summary := fmt.Sprintf(
		"%d reviews (%.0f%% of the dataset) mention %s. Feedback on this theme is %s (mean sentiment %.2f).",
		c.Size, c.Share*100, topic, tone, c.Sentiment)

	return digest{
		Label:      c.Label,
		Summary:    summary,
		Strengths:  strengths,
		Weaknesses: weaknesses,
	}
}

func keywordPhrases(keywords []string, max int) []string {
	if len(keywords) < max {
		max = len(keywords)
	}
	out := make([]string, max)
	copy(out, keywords[:max])
	return out
}
