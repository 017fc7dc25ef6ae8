package summarize

import (
	"fmt"
	"strings"

	"insightsuite/internal/core"
)

// buildMapPrompt asks for a compact partial digest of one chunk of quotes.
// The partial digests are later merged by the reduce prompt.
func buildMapPrompt(keywords []string, quotes []string) string {
	var b strings.Builder
	b.WriteString("You are analyzing customer reviews that all belong to one theme.\n")
	if len(keywords) > 0 {
		fmt.Fprintf(&b, "Theme keywords: %s\n", strings.Join(keywords, ", "))
	}
	b.WriteString("\nReviews:\n")
	for _, q := range quotes {
		fmt.Fprintf(&b, "- %s\n", q)
	}
	b.WriteString(`
Write a compact digest of these reviews in 3-5 plain sentences:
what customers praise, what they complain about, and anything recurring.
Do not quote reviews verbatim. Respond with the digest only.`)
	return b.String()
}

// buildReducePrompt merges partial digests into the final structured result.
// The response must be a single JSON object; parsing is strict with one
// brace-extraction fallback, so the prompt forbids any surrounding prose.
func buildReducePrompt(cluster core.Cluster, partials []string) string {
	var b strings.Builder
	b.WriteString("You are naming and summarizing one theme found in customer reviews.\n\n")
	fmt.Fprintf(&b, "Theme keywords: %s\n", strings.Join(cluster.Keywords, ", "))
	fmt.Fprintf(&b, "Reviews in theme: %d (%.1f%% of the dataset)\n", cluster.Size, cluster.Share*100)
	fmt.Fprintf(&b, "Mean sentiment: %.2f on a -1..1 scale\n", cluster.Sentiment)
	b.WriteString("\nDigests of the theme's reviews:\n")
	for i, p := range partials {
		fmt.Fprintf(&b, "%d. %s\n", i+1, p)
	}
	b.WriteString(`
Respond with ONLY a JSON object, no markdown fences and no commentary:
{
  "label": "short human-readable theme name, at most 6 words",
  "summary": "2-3 sentences describing what customers say about this theme",
  "strengths": ["up to 4 things customers praise, empty list if none"],
  "weaknesses": ["up to 4 things customers complain about, empty list if none"]
}`)
	return b.String()
}
