// Package personas synthesizes representative user segments from cluster
// signals. Clusters with overlapping keyword sets are grouped into
// segments, each segment becomes one persona, and an optional language
// model pass rewrites the template wording when the data is rich enough
// to support it.
package personas

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"insightsuite/internal/core"
	"insightsuite/internal/llm"
	"insightsuite/internal/logger"
)

// Persona count is forced into this range regardless of how many keyword
// segments the clusters form.
const (
	MinPersonas = 2
	MaxPersonas = 4
)

// LLMClient is the slice of the language model client the synthesizer
// needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextOptions) (string, error)
	ModelName() string
}

// Options configures persona synthesis.
type Options struct {
	SimilarityThreshold float64 // Minimum keyword Jaccard to group two clusters
	Temperature         float32
	MaxQuotesPerPersona int
}

// DefaultOptions returns the settings used by the pipeline.
func DefaultOptions() Options {
	return Options{
		SimilarityThreshold: 0.2,
		Temperature:         0.3,
		MaxQuotesPerPersona: 3,
	}
}

// Synthesizer builds personas from clusters. A nil client is valid and
// always produces template personas.
type Synthesizer struct {
	client LLMClient
	opts   Options
}

// NewSynthesizer creates a synthesizer, filling zero options from
// defaults.
func NewSynthesizer(client LLMClient, opts Options) *Synthesizer {
	def := DefaultOptions()
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = def.SimilarityThreshold
	}
	if opts.MaxQuotesPerPersona <= 0 {
		opts.MaxQuotesPerPersona = def.MaxQuotesPerPersona
	}
	return &Synthesizer{client: client, opts: opts}
}

// Method reports how personas are produced for the run's method block.
func (s *Synthesizer) Method() string {
	if s.client == nil {
		return "template"
	}
	return "llm:" + s.client.ModelName()
}

// Result is the outcome of one synthesis run.
type Result struct {
	Personas   []core.Persona
	UsedLLM    bool
	GateReason string // Why the language model was skipped, empty when it ran
}

// segment is an intermediate grouping of clusters that will become one
// persona.
type segment struct {
	clusterIdx []int
	keywords   map[string]bool
	share      float64
	sentiment  float64 // share-weighted mean
}

// Synthesize builds between two and four personas from the clusters.
// It never fails: any language model problem falls back to the
// deterministic template path.
func (s *Synthesizer) Synthesize(ctx context.Context, reviews []core.Review, clusters []core.Cluster) *Result {
	log := logger.Get()

	if len(clusters) == 0 {
		return &Result{GateReason: "no_clusters"}
	}

	segments := s.groupClusters(clusters)
	segments = enforceCount(segments, clusters)

	gateReason := assessDataQuality(reviews, clusters)
	if s.client == nil {
		gateReason = "no_llm_client"
	}

	if gateReason == "" {
		personas, err := s.synthesizeWithLLM(ctx, clusters, segments)
		if err == nil {
			log.Info("personas synthesized with language model", "count", len(personas))
			return &Result{Personas: personas, UsedLLM: true}
		}
		log.Warn("persona LLM synthesis failed, using templates", "error", err)
		gateReason = "llm_failed"
	} else {
		log.Info("persona synthesis gated to templates", "reason", gateReason)
	}

	return &Result{
		Personas:   s.templatePersonas(reviews, clusters, segments),
		GateReason: gateReason,
	}
}

// groupClusters greedily merges clusters whose keyword sets overlap at or
// above the similarity threshold, visiting clusters largest first.
func (s *Synthesizer) groupClusters(clusters []core.Cluster) []segment {
	order := make([]int, len(clusters))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(a, b int) bool {
		if clusters[order[a]].Size != clusters[order[b]].Size {
			return clusters[order[a]].Size > clusters[order[b]].Size
		}
		return order[a] < order[b]
	})

	var segments []segment
	for _, idx := range order {
		kws := keywordSet(clusters[idx].Keywords)

		best, bestSim := -1, 0.0
		for si := range segments {
			if sim := jaccard(kws, segments[si].keywords); sim > bestSim {
				best, bestSim = si, sim
			}
		}

		if best >= 0 && bestSim >= s.opts.SimilarityThreshold {
			addToSegment(&segments[best], clusters, idx)
			continue
		}
		seg := segment{keywords: map[string]bool{}}
		addToSegment(&seg, clusters, idx)
		segments = append(segments, seg)
	}
	return segments
}

func addToSegment(seg *segment, clusters []core.Cluster, idx int) {
	c := clusters[idx]
	seg.clusterIdx = append(seg.clusterIdx, idx)
	for k := range keywordSet(c.Keywords) {
		seg.keywords[k] = true
	}
	if seg.share+c.Share > 0 {
		seg.sentiment = (seg.sentiment*seg.share + c.Sentiment*c.Share) / (seg.share + c.Share)
	}
	seg.share += c.Share
}

// enforceCount forces the segment count into [MinPersonas, MaxPersonas].
// Too many: the smallest segment merges into its most similar neighbor.
// Too few: the dominant segment splits by cluster sentiment sign, or in
// half when every cluster leans the same way.
func enforceCount(segments []segment, clusters []core.Cluster) []segment {
	for len(segments) > MaxPersonas {
		smallest := 0
		for i := range segments {
			if segments[i].share < segments[smallest].share {
				smallest = i
			}
		}
		best, bestSim := -1, -1.0
		for i := range segments {
			if i == smallest {
				continue
			}
			if sim := jaccard(segments[smallest].keywords, segments[i].keywords); sim > bestSim {
				best, bestSim = i, sim
			}
		}
		for _, idx := range segments[smallest].clusterIdx {
			addToSegment(&segments[best], clusters, idx)
		}
		segments = append(segments[:smallest], segments[smallest+1:]...)
	}

	for len(segments) < MinPersonas {
		dominant := 0
		for i := range segments {
			if segments[i].share > segments[dominant].share {
				dominant = i
			}
		}
		a, b := splitSegment(segments[dominant], clusters)
		segments = append(segments[:dominant], segments[dominant+1:]...)
		segments = append(segments, a, b)
	}
	return segments
}

func splitSegment(seg segment, clusters []core.Cluster) (segment, segment) {
	a := segment{keywords: map[string]bool{}}
	b := segment{keywords: map[string]bool{}}

	for _, idx := range seg.clusterIdx {
		if clusters[idx].Sentiment < 0 {
			addToSegment(&b, clusters, idx)
		} else {
			addToSegment(&a, clusters, idx)
		}
	}

	// Same-sign segments split in half; a single cluster backs both halves
	// with its share divided evenly.
	if len(a.clusterIdx) == 0 || len(b.clusterIdx) == 0 {
		a = segment{keywords: map[string]bool{}}
		b = segment{keywords: map[string]bool{}}
		if len(seg.clusterIdx) == 1 {
			addToSegment(&a, clusters, seg.clusterIdx[0])
			addToSegment(&b, clusters, seg.clusterIdx[0])
			a.share /= 2
			b.share /= 2
			return a, b
		}
		mid := (len(seg.clusterIdx) + 1) / 2
		for i, idx := range seg.clusterIdx {
			if i < mid {
				addToSegment(&a, clusters, idx)
			} else {
				addToSegment(&b, clusters, idx)
			}
		}
	}
	return a, b
}

// assessDataQuality decides whether the review texts carry enough signal
// for language model personas. Returns the empty string when they do,
// otherwise the gate reason.
func assessDataQuality(reviews []core.Review, clusters []core.Cluster) string {
	if len(reviews) == 0 {
		return "no_data"
	}
	if len(clusters) < 2 {
		return "too_few_clusters"
	}

	var totalLen, short, singleWord int
	for _, r := range reviews {
		n := len(r.Text)
		totalLen += n
		if n <= 10 {
			short++
		}
		if len(strings.Fields(r.Text)) == 1 {
			singleWord++
		}
	}

	avgLen := float64(totalLen) / float64(len(reviews))
	shortRatio := float64(short) / float64(len(reviews))
	singleWordRatio := float64(singleWord) / float64(len(reviews))

	switch {
	case shortRatio >= 0.7:
		return "too_many_short_reviews"
	case singleWordRatio >= 0.5:
		return "too_many_single_words"
	case avgLen < 20:
		return "low_avg_length"
	}
	return ""
}

// templatePersonas builds deterministic personas from the domain templates,
// tinted by each segment's keywords and sentiment.
func (s *Synthesizer) templatePersonas(reviews []core.Review, clusters []core.Cluster, segments []segment) []core.Persona {
	sort.Slice(segments, func(i, j int) bool { return segments[i].share > segments[j].share })

	var allKeywords []string
	for _, c := range clusters {
		allKeywords = append(allKeywords, c.Keywords...)
	}
	sampleTexts := make([]string, 0, 20)
	for i := 0; i < len(reviews) && i < 20; i++ {
		sampleTexts = append(sampleTexts, reviews[i].Text)
	}
	domain := classifyDomain(allKeywords, sampleTexts)
	templates := domainTemplates[domain]

	personas := make([]core.Persona, len(segments))
	for i, seg := range segments {
		tpl := templates[i%len(templates)]

		goals := append([]string{}, tpl.Goals...)
		pains := append([]string{}, tpl.Pains...)
		for _, idx := range seg.clusterIdx {
			c := clusters[idx]
			if len(c.Keywords) == 0 {
				continue
			}
			if c.Sentiment <= -0.05 {
				pains = appendCapped(pains, "Issues with "+c.Keywords[0], 6)
			} else if c.Sentiment >= 0.05 {
				goals = appendCapped(goals, "Values "+c.Keywords[0], 6)
			}
		}
		if seg.sentiment < -0.3 {
			pains = appendCapped(pains, "Frequent disappointments", 6)
		} else if seg.sentiment > 0.5 {
			goals = appendCapped(goals, "Consistent positive experiences", 6)
		}

		personas[i] = core.Persona{
			ID:        fmt.Sprintf("persona_%d", i+1),
			Name:      tpl.Name,
			Archetype: tpl.Archetype,
			Goals:     goals,
			Pains:     pains,
			Clusters:  segmentClusterIDs(seg, clusters),
			Quotes:    s.segmentQuotes(seg, clusters),
			Channels:  tpl.Channels,
			Icon:      icons[i%len(icons)],
			Accent:    accents[i%len(accents)],
		}
	}

	applyShares(personas, segments)
	return personas
}

func segmentClusterIDs(seg segment, clusters []core.Cluster) []string {
	ids := make([]string, len(seg.clusterIdx))
	for i, idx := range seg.clusterIdx {
		ids[i] = clusters[idx].ID
	}
	sort.Strings(ids)
	return ids
}

func (s *Synthesizer) segmentQuotes(seg segment, clusters []core.Cluster) []string {
	var quotes []string
	for _, idx := range seg.clusterIdx {
		for _, q := range clusters[idx].Quotes {
			if len(quotes) >= s.opts.MaxQuotesPerPersona {
				return quotes
			}
			text := q.Text
			if runes := []rune(text); len(runes) > 140 {
				text = strings.TrimSpace(string(runes[:137])) + "..."
			}
			quotes = append(quotes, text)
		}
	}
	return quotes
}

// applyShares assigns each persona its segment's share of the dataset,
// renormalized so the persona shares sum to one.
func applyShares(personas []core.Persona, segments []segment) {
	var total float64
	for _, seg := range segments {
		total += seg.share
	}
	if total == 0 {
		total = 1
	}
	for i := range personas {
		personas[i].Share = round3(segments[i].share / total)
	}
}

func appendCapped(items []string, item string, max int) []string {
	if len(items) >= max {
		return items
	}
	for _, it := range items {
		if it == item {
			return items
		}
	}
	return append(items, item)
}

func keywordSet(keywords []string) map[string]bool {
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[k] = true
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	var intersection int
	for k := range a {
		if b[k] {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

// llmPersona is the JSON contract for one language model persona.
type llmPersona struct {
	Title     string   `json:"title"`
	Archetype string   `json:"archetype"`
	Share     float64  `json:"share"`
	Goals     []string `json:"goals"`
	Pains     []string `json:"pains"`
	Quotes    []string `json:"quotes"`
	Channels  []string `json:"channels"`
	Icon      string   `json:"icon"`
	Accent    string   `json:"accent"`
}

// synthesizeWithLLM asks the language model for persona wording and grafts
// the segment-derived shares and cluster relations onto the parsed result.
func (s *Synthesizer) synthesizeWithLLM(ctx context.Context, clusters []core.Cluster, segments []segment) ([]core.Persona, error) {
	sort.Slice(segments, func(i, j int) bool { return segments[i].share > segments[j].share })

	prompt, err := buildPersonaPrompt(clusters)
	if err != nil {
		return nil, err
	}

	response, err := s.client.GenerateText(ctx, prompt, llm.TextOptions{
		Temperature: s.opts.Temperature,
		MaxTokens:   2000,
	})
	if err != nil {
		return nil, fmt.Errorf("persona generation failed: %w", err)
	}

	parsed, err := parsePersonaResponse(response)
	if err != nil {
		return nil, err
	}
	if len(parsed) < MinPersonas {
		return nil, fmt.Errorf("model returned %d personas, need at least %d", len(parsed), MinPersonas)
	}
	if len(parsed) > MaxPersonas {
		parsed = parsed[:MaxPersonas]
	}

	personas := make([]core.Persona, len(parsed))
	for i, p := range parsed {
		name := strings.TrimSpace(p.Title)
		if name == "" {
			name = fmt.Sprintf("Persona %d", i+1)
		}
		archetype := strings.TrimSpace(p.Archetype)
		if archetype == "" {
			archetype = archetypes[i%len(archetypes)]
		}
		icon := strings.TrimSpace(p.Icon)
		if icon == "" {
			icon = icons[i%len(icons)]
		}
		accent := strings.TrimSpace(p.Accent)
		if accent == "" {
			accent = accents[i%len(accents)]
		}

		seg := segments[i%len(segments)]
		personas[i] = core.Persona{
			ID:        fmt.Sprintf("persona_%d", i+1),
			Name:      name,
			Archetype: archetype,
			Goals:     trimList(p.Goals, 6),
			Pains:     trimList(p.Pains, 6),
			Clusters:  segmentClusterIDs(seg, clusters),
			Quotes:    trimList(p.Quotes, 3),
			Channels:  trimList(p.Channels, 5),
			Icon:      icon,
			Accent:    accent,
		}
	}

	if len(personas) == len(segments) {
		applyShares(personas, segments)
	} else {
		normalizeParsedShares(personas, parsed)
	}
	return personas, nil
}

func normalizeParsedShares(personas []core.Persona, parsed []llmPersona) {
	var total float64
	for _, p := range parsed {
		total += p.Share
	}
	for i := range personas {
		if total > 0 {
			personas[i].Share = round3(parsed[i].Share / total)
		} else {
			personas[i].Share = round3(1.0 / float64(len(personas)))
		}
	}
}

func parsePersonaResponse(response string) ([]llmPersona, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	var wrapper struct {
		Personas []llmPersona `json:"personas"`
	}
	if err := json.Unmarshal([]byte(response), &wrapper); err != nil {
		start := strings.Index(response, "{")
		end := strings.LastIndex(response, "}")
		if start < 0 || end <= start {
			return nil, fmt.Errorf("no JSON object in persona response")
		}
		if err := json.Unmarshal([]byte(response[start:end+1]), &wrapper); err != nil {
			return nil, fmt.Errorf("invalid persona JSON: %w", err)
		}
	}
	return wrapper.Personas, nil
}

func trimList(items []string, max int) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
		if len(out) == max {
			break
		}
	}
	return out
}
