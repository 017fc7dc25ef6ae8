// Package summarize turns clusters into labeled, summarized themes with a
// map-reduce pass over member quotes, falling back to rule-based digests
// when no language model is available or a call fails.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"insightsuite/internal/core"
	"insightsuite/internal/llm"
	"insightsuite/internal/logger"
)

// LLMClient is the narrow slice of the language model client the
// summarizer needs.
type LLMClient interface {
	GenerateText(ctx context.Context, prompt string, options llm.TextOptions) (string, error)
	ModelName() string
}

// Options configures summarizer behavior.
type Options struct {
	MaxQuotesPerChunk int           // Quotes per map chunk
	MaxCharsPerChunk  int           // Approximate character budget per chunk
	MaxSampleQuotes   int           // Member texts sampled per cluster before chunking
	MaxRetries        int           // Retries per LLM call after the first attempt
	RetryDelay        time.Duration // Base delay between retries
	Temperature       float32
	Seed              int64 // Drives the member text sample
}

// DefaultOptions returns the settings used by the pipeline.
func DefaultOptions() Options {
	return Options{
		MaxQuotesPerChunk: 20,
		MaxCharsPerChunk:  6000,
		MaxSampleQuotes:   60,
		MaxRetries:        1,
		RetryDelay:        time.Second,
		Temperature:       0.3,
		Seed:              42,
	}
}

// Summarizer enriches clusters with labels, summaries, strengths and
// weaknesses. A nil client is valid and routes every cluster through the
// rule-based fallback.
type Summarizer struct {
	client LLMClient
	opts   Options
}

// NewSummarizer creates a summarizer, filling zero options from defaults.
func NewSummarizer(client LLMClient, opts Options) *Summarizer {
	def := DefaultOptions()
	if opts.MaxQuotesPerChunk <= 0 {
		opts.MaxQuotesPerChunk = def.MaxQuotesPerChunk
	}
	if opts.MaxCharsPerChunk <= 0 {
		opts.MaxCharsPerChunk = def.MaxCharsPerChunk
	}
	if opts.MaxSampleQuotes <= 0 {
		opts.MaxSampleQuotes = def.MaxSampleQuotes
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = def.RetryDelay
	}
	return &Summarizer{client: client, opts: opts}
}

// Method reports how cluster digests are produced for the run's method
// block.
func (s *Summarizer) Method() string {
	if s.client == nil {
		return "rule-based"
	}
	return "map-reduce:" + s.client.ModelName()
}

// digest is the reduce step's JSON contract.
type digest struct {
	Label      string   `json:"label"`
	Summary    string   `json:"summary"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Result reports how a batch of clusters was enriched.
type Result struct {
	Fallbacks int      // Clusters that used the rule-based digest
	Failed    []string // Cluster IDs whose LLM calls failed
}

// EnrichClusters fills every cluster's label, summary, strengths and
// weaknesses in place. It never fails a run: clusters whose LLM calls do
// not produce a usable digest get the rule-based fallback instead.
func (s *Summarizer) EnrichClusters(ctx context.Context, reviews []core.Review, clusters []core.Cluster, members map[string][]int) *Result {
	log := logger.Get()
	result := &Result{}

	for i := range clusters {
		c := &clusters[i]
		texts := s.sampleTexts(reviews, members[c.ID], int64(i))

		d, err := s.summarizeCluster(ctx, *c, texts)
		if err != nil {
			log.Warn("cluster summarization fell back to rules",
				"cluster", c.ID, "error", err)
			d = ruleBasedDigest(*c)
			result.Fallbacks++
			if s.client != nil {
				result.Failed = append(result.Failed, c.ID)
			}
		}

		applyDigest(c, d)
	}

	return result
}

// summarizeCluster runs the map-reduce pass for one cluster. With a single
// chunk the map step is skipped and the reduce prompt sees the quotes
// directly.
func (s *Summarizer) summarizeCluster(ctx context.Context, cluster core.Cluster, texts []string) (digest, error) {
	if s.client == nil {
		return digest{}, fmt.Errorf("no language model configured")
	}
	if len(texts) == 0 {
		return digest{}, fmt.Errorf("cluster has no texts")
	}

	chunks := chunkTexts(texts, s.opts.MaxQuotesPerChunk, s.opts.MaxCharsPerChunk)

	var partials []string
	if len(chunks) == 1 {
		partials = chunks[0]
	} else {
		for _, chunk := range chunks {
			partial, err := s.generate(ctx, buildMapPrompt(cluster.Keywords, chunk))
			if err != nil {
				return digest{}, fmt.Errorf("map step failed: %w", err)
			}
			partials = append(partials, strings.TrimSpace(partial))
		}
	}

	response, err := s.generate(ctx, buildReducePrompt(cluster, partials))
	if err != nil {
		return digest{}, fmt.Errorf("reduce step failed: %w", err)
	}

	d, err := parseDigest(response)
	if err != nil {
		// One repair round: ask again, then give up to the fallback.
		response, retryErr := s.generate(ctx, buildReducePrompt(cluster, partials))
		if retryErr != nil {
			return digest{}, fmt.Errorf("reduce retry failed: %w", retryErr)
		}
		if d, err = parseDigest(response); err != nil {
			return digest{}, fmt.Errorf("unparseable digest: %w", err)
		}
	}

	return d, nil
}

func (s *Summarizer) generate(ctx context.Context, prompt string) (string, error) {
	var response string
	var err error
	for attempt := 0; attempt <= s.opts.MaxRetries; attempt++ {
		response, err = s.client.GenerateText(ctx, prompt, llm.TextOptions{
			Temperature: s.opts.Temperature,
		})
		if err == nil {
			return response, nil
		}
		if attempt < s.opts.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(s.opts.RetryDelay * time.Duration(attempt+1)):
			}
		}
	}
	return "", err
}

// sampleTexts draws a deterministic sample of member review texts so huge
// clusters stay within the chunk budget.
func (s *Summarizer) sampleTexts(reviews []core.Review, members []int, clusterSeed int64) []string {
	picked := make([]int, len(members))
	copy(picked, members)
	if len(picked) > s.opts.MaxSampleQuotes {
		rng := rand.New(rand.NewSource(s.opts.Seed + clusterSeed))
		rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
		picked = picked[:s.opts.MaxSampleQuotes]
	}

	texts := make([]string, 0, len(picked))
	for _, idx := range picked {
		if t := strings.TrimSpace(reviews[idx].Text); t != "" {
			texts = append(texts, t)
		}
	}
	return texts
}

// chunkTexts splits the sampled texts into map chunks, closing a chunk when
// either the quote count or the character budget is reached.
func chunkTexts(texts []string, maxQuotes, maxChars int) [][]string {
	var chunks [][]string
	var current []string
	var chars int

	for _, t := range texts {
		if len(current) > 0 && (len(current) >= maxQuotes || chars+len(t) > maxChars) {
			chunks = append(chunks, current)
			current = nil
			chars = 0
		}
		current = append(current, t)
		chars += len(t)
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

// parseDigest reads the reduce response. Strict JSON first; if the model
// wrapped the object in prose or fences, fall back to the outermost braces.
func parseDigest(response string) (digest, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")

	var d digest
	if err := json.Unmarshal([]byte(response), &d); err == nil {
		return d, validateDigest(d)
	}

	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return digest{}, fmt.Errorf("no JSON object in response")
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &d); err != nil {
		return digest{}, fmt.Errorf("invalid digest JSON: %w", err)
	}
	return d, validateDigest(d)
}

func validateDigest(d digest) error {
	if strings.TrimSpace(d.Label) == "" {
		return fmt.Errorf("digest has no label")
	}
	if strings.TrimSpace(d.Summary) == "" {
		return fmt.Errorf("digest has no summary")
	}
	return nil
}

// applyDigest writes the digest onto the cluster, trimming list fields to
// a sane bound.
func applyDigest(c *core.Cluster, d digest) {
	label := strings.TrimSpace(d.Label)
	if label != "" {
		c.Label = label
	}
	c.Summary = strings.TrimSpace(d.Summary)
	c.Strengths = trimList(d.Strengths, 4)
	c.Weaknesses = trimList(d.Weaknesses, 4)
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
