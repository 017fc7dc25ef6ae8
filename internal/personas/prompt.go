package personas

import (
	"encoding/json"
	"fmt"
	"strings"

	"insightsuite/internal/core"
)

const personaSystemPreamble = "You are a careful UX and product research analyst. " +
	"You create neutral, respectful, and data-grounded personas from clustered user feedback. " +
	"Avoid stereotypes, avoid references to nationality, ethnicity, religion, gender or age " +
	"unless explicitly present and relevant. Use neutral, professional language."

// clusterPreview is the compact cluster view embedded in the prompt.
type clusterPreview struct {
	ID        string   `json:"id"`
	Label     string   `json:"label"`
	Share     float64  `json:"share"`
	Sentiment float64  `json:"sentiment"`
	Quotes    []string `json:"quotes"`
}

// buildPersonaPrompt embeds up to ten clusters with a few quotes each and
// asks for strict JSON output.
func buildPersonaPrompt(clusters []core.Cluster) (string, error) {
	previews := make([]clusterPreview, 0, 10)
	for _, c := range clusters {
		if len(previews) == 10 {
			break
		}
		quotes := make([]string, 0, 3)
		for _, q := range c.Quotes {
			if len(quotes) == 3 {
				break
			}
			quotes = append(quotes, q.Text)
		}
		previews = append(previews, clusterPreview{
			ID:        c.ID,
			Label:     c.Label,
			Share:     c.Share,
			Sentiment: c.Sentiment,
			Quotes:    quotes,
		})
	}

	clustersJSON, err := json.Marshal(previews)
	if err != nil {
		return "", fmt.Errorf("failed to encode cluster previews: %w", err)
	}

	var b strings.Builder
	b.WriteString(personaSystemPreamble)
	b.WriteString("\n\nWe have semantic clusters of user feedback from a product.\n")
	b.WriteString("Each cluster has: id, label, share (0..1), sentiment (-1..1), sample quotes.\n\n")
	fmt.Fprintf(&b, `Task:
1) Infer between %d and %d user personas that explain behaviors and needs appearing across clusters.
2) Use neutral titles (e.g. "Strategic Traveler", "Budget Conscious Guest").
3) Do NOT use names of people or nationalities, avoid stereotypes and sensitive attributes.
4) For each persona include:
   - title (string, neutral)
   - archetype (one of: %s)
   - share (0..1, sum approx 1.0)
   - goals (3-6 bullet strings)
   - pains (3-6 bullet strings)
   - quotes (2-3 short paraphrases grounded in the clusters)
   - channels (3-5 discovery channels)
   - icon (one of: %s)
   - accent (a hex color from: %s)

Return ONLY valid JSON shaped as {"personas":[{...}, ...]}.
Clusters (JSON):
%s`,
		MinPersonas, MaxPersonas,
		strings.Join(archetypes, ", "),
		strings.Join(icons, ", "),
		strings.Join(accents, ", "),
		clustersJSON)

	return b.String(), nil
}
