// Package clustering groups embedded reviews into themes with density-based
// clustering, falling back to seeded k-means when no dense regions exist.
package clustering

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"insightsuite/internal/core"
	"insightsuite/internal/logger"
)

// Clustering strategies recorded in the run's method block.
const (
	StrategyHDBSCAN = "hdbscan"
	StrategyKMeans  = "kmeans-fallback"
	StrategySingle  = "single-cluster"
)

const maxQuoteRunes = 800

// Config holds tunables for one clustering run.
type Config struct {
	Seed               int64   // Drives quote sampling and the k-means fallback
	QuotesPerCluster   int     // Representative quotes kept per cluster
	KeywordsPerCluster int     // TF-IDF keywords kept per cluster
	CoOccurThreshold   float64 // Minimum keyword Jaccard to link two clusters
}

// DefaultConfig returns the settings used by the pipeline.
func DefaultConfig() Config {
	return Config{
		Seed:               42,
		QuotesPerCluster:   12,
		KeywordsPerCluster: 12,
		CoOccurThreshold:   0.2,
	}
}

// Engine turns reviews plus their embedding vectors into clusters.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine with the given config, filling zero values
// from the defaults.
func NewEngine(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.QuotesPerCluster <= 0 {
		cfg.QuotesPerCluster = def.QuotesPerCluster
	}
	if cfg.KeywordsPerCluster <= 0 {
		cfg.KeywordsPerCluster = def.KeywordsPerCluster
	}
	if cfg.CoOccurThreshold <= 0 {
		cfg.CoOccurThreshold = def.CoOccurThreshold
	}
	return &Engine{cfg: cfg}
}

// Result is the output of one clustering run. Members maps cluster ID to
// the indices of its reviews in the input slice; Noise holds the indices
// assigned to no cluster.
type Result struct {
	Clusters []core.Cluster
	Members  map[string][]int
	Noise    []int
	Strategy string
}

// adaptiveMinClusterSize scales the density threshold with the dataset so
// small datasets still form themes and large ones do not shatter into
// hundreds of slivers. Monotone non-decreasing in n.
func adaptiveMinClusterSize(n int) int {
	if n < 500 {
		mcs := n / 10
		if mcs < 3 {
			mcs = 3
		}
		if mcs > 30 {
			mcs = 30
		}
		return mcs
	}
	mcs := int(math.Round(0.004 * float64(n)))
	if mcs < 30 {
		mcs = 30
	}
	if mcs > 80 {
		mcs = 80
	}
	return mcs
}

// Cluster groups the reviews by their vectors. It always returns a usable
// result for non-empty input: density clustering first, seeded k-means when
// density finds nothing, and a single catch-all cluster for tiny datasets.
func (e *Engine) Cluster(reviews []core.Review, vectors [][]float64) (*Result, error) {
	if len(reviews) == 0 {
		return nil, fmt.Errorf("no reviews to cluster")
	}
	if len(reviews) != len(vectors) {
		return nil, fmt.Errorf("review/vector count mismatch: %d vs %d", len(reviews), len(vectors))
	}

	log := logger.Get()
	n := len(reviews)
	minClusterSize := adaptiveMinClusterSize(n)

	var labels []int
	strategy := StrategyHDBSCAN

	switch {
	case n <= minClusterSize:
		labels = make([]int, n)
		strategy = StrategySingle
	default:
		var err error
		labels, err = runHDBSCAN(vectors, minClusterSize)
		if err != nil || countClusters(labels) == 0 {
			if err != nil {
				log.Warn("density clustering failed, falling back to k-means", "error", err)
			} else {
				log.Warn("density clustering found no clusters, falling back to k-means", "reviews", n)
			}
			labels = runKMeans(vectors, fallbackK(n), e.cfg.Seed)
			strategy = StrategyKMeans
		}
	}

	result := e.buildResult(reviews, labels, strategy)
	log.Info("clustering complete",
		"strategy", strategy,
		"reviews", n,
		"min_cluster_size", minClusterSize,
		"clusters", len(result.Clusters),
		"noise", len(result.Noise))
	return result, nil
}

func countClusters(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		if l >= 0 {
			seen[l] = true
		}
	}
	return len(seen)
}

// buildResult converts raw labels into ordered, fully populated clusters.
// Clusters are ranked by size descending, with the smallest member index
// breaking ties so the ordering is stable across runs.
func (e *Engine) buildResult(reviews []core.Review, labels []int, strategy string) *Result {
	groups := make(map[int][]int)
	var noise []int
	for i, l := range labels {
		if l < 0 {
			noise = append(noise, i)
			continue
		}
		groups[l] = append(groups[l], i)
	}

	order := make([]int, 0, len(groups))
	for l := range groups {
		order = append(order, l)
	}
	sort.Slice(order, func(i, j int) bool {
		gi, gj := groups[order[i]], groups[order[j]]
		if len(gi) != len(gj) {
			return len(gi) > len(gj)
		}
		return gi[0] < gj[0]
	})

	docs := make([][]string, len(reviews))
	for i, r := range reviews {
		docs[i] = keywordTokens(r.Text)
	}
	corpusDF := documentFrequencies(docs)

	total := float64(len(reviews))
	result := &Result{
		Members:  make(map[string][]int, len(order)),
		Noise:    noise,
		Strategy: strategy,
	}

	for rank, label := range order {
		members := groups[label]
		id := fmt.Sprintf("cluster_%d", rank)

		memberDocs := make([][]string, len(members))
		var sentimentSum float64
		for i, idx := range members {
			memberDocs[i] = docs[idx]
			sentimentSum += reviews[idx].Sentiment
		}

		share := float64(len(members)) / total
		sentiment := sentimentSum / float64(len(members))
		keywords := topKeywords(memberDocs, corpusDF, len(reviews), e.cfg.KeywordsPerCluster)

		c := core.Cluster{
			ID:               id,
			Label:            provisionalLabel(keywords, rank),
			Size:             len(members),
			Share:            round3(share),
			Sentiment:        round3(sentiment),
			Trend:            weeklyTrend(reviews, members),
			Keywords:         keywords,
			OpportunityScore: opportunityScore(reviews, members, share),
			Quotes:           e.pickQuotes(reviews, members, int64(rank)),
		}
		result.Clusters = append(result.Clusters, c)
		result.Members[id] = members
	}

	linkCoOccurring(result.Clusters, e.cfg.CoOccurThreshold)
	return result
}

// provisionalLabel names a cluster from its top keywords until the
// summarizer provides a better one.
func provisionalLabel(keywords []string, rank int) string {
	if len(keywords) == 0 {
		return fmt.Sprintf("Theme %d", rank+1)
	}
	if len(keywords) == 1 {
		return titleWord(keywords[0])
	}
	return titleWord(keywords[0]) + " & " + titleWord(keywords[1])
}

func titleWord(w string) string {
	runes := []rune(w)
	if len(runes) == 0 {
		return w
	}
	return strings.ToUpper(string(runes[0])) + string(runes[1:])
}

// opportunityScore weighs how loudly a theme hurts (mean negative
// intensity) against how many customers it touches (share). Scores live
// in [0, 1]; broad, strongly negative themes get a further boost.
func opportunityScore(reviews []core.Review, members []int, share float64) float64 {
	var negSum float64
	for _, idx := range members {
		if s := reviews[idx].Sentiment; s < 0 {
			negSum += -s
		}
	}
	negIntensity := negSum / float64(len(members))

	score := 0.6*negIntensity + 0.4*share
	if share > 0.15 && negIntensity > 0.5 {
		score *= 1.2
	}
	if score > 1 {
		score = 1
	}
	return round3(score)
}

// pickQuotes samples representative member reviews with a seed derived from
// the cluster rank, so reruns over the same dataset pick the same quotes.
func (e *Engine) pickQuotes(reviews []core.Review, members []int, rankSeed int64) []core.Quote {
	picked := make([]int, len(members))
	copy(picked, members)
	rng := rand.New(rand.NewSource(e.cfg.Seed + rankSeed))
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })

	if len(picked) > e.cfg.QuotesPerCluster {
		picked = picked[:e.cfg.QuotesPerCluster]
	}
	sort.Ints(picked)

	quotes := make([]core.Quote, len(picked))
	for i, idx := range picked {
		r := reviews[idx]
		quotes[i] = core.Quote{
			ID:     r.ID,
			Text:   truncateRunes(r.Text, maxQuoteRunes),
			Rating: r.Rating,
			Lang:   r.Lang,
		}
	}
	return quotes
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}

// linkCoOccurring fills each cluster's CoOccurs with the IDs of clusters
// whose keyword sets overlap at or above the Jaccard threshold.
func linkCoOccurring(clusters []core.Cluster, threshold float64) {
	sets := make([]map[string]bool, len(clusters))
	for i, c := range clusters {
		sets[i] = make(map[string]bool, len(c.Keywords))
		for _, k := range c.Keywords {
			sets[i][k] = true
		}
	}

	for i := range clusters {
		for j := range clusters {
			if i == j {
				continue
			}
			if jaccard(sets[i], sets[j]) >= threshold {
				clusters[i].CoOccurs = append(clusters[i].CoOccurs, clusters[j].ID)
			}
		}
	}
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
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
