package pipeline

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"insightsuite/internal/core"
)

// Sentiment scores below negThreshold count as negative reviews and above
// posThreshold as positive; everything between is neutral.
const (
	negThreshold = -0.05
	posThreshold = 0.05
)

// maxLanguages bounds meta.languages; less frequent codes collapse into
// "other".
const maxLanguages = 4

type artifactInputs struct {
	ProjectID   string
	ProjectName string
	Source      string
	Reviews     []core.Review
	Clusters    []core.Cluster
	Members     map[string][]int
	Personas    []core.Persona
	Method      core.Method
	Degraded    bool
}

func buildArtifact(in artifactInputs) *core.ProjectArtifact {
	return &core.ProjectArtifact{
		Meta: core.Meta{
			ProjectID: in.ProjectID,
			Name:      in.ProjectName,
			Source:    in.Source,
			DateRange: dateRange(in.Reviews),
			Languages: topLanguages(in.Reviews),
			Totals: core.Totals{
				Reviews:  len(in.Reviews),
				Clusters: len(in.Clusters),
			},
			Method:   in.Method,
			Degraded: in.Degraded,
		},
		Aggregates: buildAggregates(in.Reviews),
		Clusters:   in.Clusters,
		Personas:   in.Personas,
		Timeseries: buildTimeseries(in.Reviews, in.Members),
	}
}

func dateRange(reviews []core.Review) [2]string {
	var min, max string
	for _, r := range reviews {
		if !r.HasTimestamp() {
			continue
		}
		d := r.Timestamp.Format("2006-01-02")
		if min == "" || d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return [2]string{min, max}
}

// topLanguages returns the most frequent language codes, most common
// first, appending "other" when the dataset has more than maxLanguages.
func topLanguages(reviews []core.Review) []string {
	counts := make(map[string]int)
	for _, r := range reviews {
		counts[r.Lang]++
	}

	langs := make([]string, 0, len(counts))
	for l := range counts {
		langs = append(langs, l)
	}
	sort.Slice(langs, func(i, j int) bool {
		if counts[langs[i]] != counts[langs[j]] {
			return counts[langs[i]] > counts[langs[j]]
		}
		return langs[i] < langs[j]
	})

	if len(langs) > maxLanguages {
		langs = append(langs[:maxLanguages], "other")
	}
	return langs
}

func buildAggregates(reviews []core.Review) core.Aggregates {
	var sum float64
	var neg, neu, pos int
	hist := map[int]int{}
	for _, r := range reviews {
		sum += r.Sentiment
		switch {
		case r.Sentiment < negThreshold:
			neg++
		case r.Sentiment > posThreshold:
			pos++
		default:
			neu++
		}
		if r.HasRating() {
			hist[int(math.Round(r.Rating))]++
		}
	}

	n := float64(len(reviews))
	ratingHist := make([][2]int, 0, 5)
	for star := 1; star <= 5; star++ {
		ratingHist = append(ratingHist, [2]int{star, hist[star]})
	}

	return core.Aggregates{
		SentimentMean: round3(sum / n),
		SentimentDist: core.SentimentDist{
			Neg: round3(float64(neg) / n),
			Neu: round3(float64(neu) / n),
			Pos: round3(float64(pos) / n),
		},
		RatingHist: ratingHist,
	}
}

// buildTimeseries computes the dataset-level monthly series and one
// monthly volume series per cluster. Returns nil when no review carries a
// timestamp.
func buildTimeseries(reviews []core.Review, members map[string][]int) *core.Timeseries {
	type monthAgg struct {
		sum    float64
		volume int
	}
	months := map[string]*monthAgg{}
	for _, r := range reviews {
		if !r.HasTimestamp() {
			continue
		}
		key := r.Timestamp.Format("2006-01")
		agg := months[key]
		if agg == nil {
			agg = &monthAgg{}
			months[key] = agg
		}
		agg.sum += r.Sentiment
		agg.volume++
	}
	if len(months) == 0 {
		return nil
	}

	keys := make([]string, 0, len(months))
	for k := range months {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	ts := &core.Timeseries{
		Monthly:  make([]core.MonthPoint, 0, len(keys)),
		Clusters: make(map[string][]core.ClusterMonthPoint, len(members)),
	}
	for _, k := range keys {
		agg := months[k]
		ts.Monthly = append(ts.Monthly, core.MonthPoint{
			Date:          k,
			SentimentMean: round3(agg.sum / float64(agg.volume)),
			Volume:        agg.volume,
		})
	}

	for clusterID, idxs := range members {
		counts := map[string]int{}
		for _, idx := range idxs {
			if !reviews[idx].HasTimestamp() {
				continue
			}
			counts[reviews[idx].Timestamp.Format("2006-01")]++
		}
		if len(counts) == 0 {
			continue
		}
		cKeys := make([]string, 0, len(counts))
		for k := range counts {
			cKeys = append(cKeys, k)
		}
		sort.Strings(cKeys)
		series := make([]core.ClusterMonthPoint, 0, len(cKeys))
		for _, k := range cKeys {
			series = append(series, core.ClusterMonthPoint{Date: k, Volume: counts[k]})
		}
		ts.Clusters[clusterID] = series
	}

	return ts
}

// validateArtifact enforces the artifact's structural invariants before
// anything touches disk.
func validateArtifact(a *core.ProjectArtifact) error {
	if a.Meta.ProjectID == "" {
		return fmt.Errorf("missing project id")
	}
	if a.Meta.Totals.Reviews <= 0 {
		return fmt.Errorf("artifact has no reviews")
	}
	if a.Meta.Totals.Clusters != len(a.Clusters) {
		return fmt.Errorf("cluster total %d does not match %d clusters",
			a.Meta.Totals.Clusters, len(a.Clusters))
	}

	var shareSum float64
	for _, c := range a.Clusters {
		if c.Share < 0 || c.Share > 1 {
			return fmt.Errorf("cluster %s share %f out of range", c.ID, c.Share)
		}
		if c.Sentiment < -1 || c.Sentiment > 1 {
			return fmt.Errorf("cluster %s sentiment %f out of range", c.ID, c.Sentiment)
		}
		if c.OpportunityScore < 0 || c.OpportunityScore > 1 {
			return fmt.Errorf("cluster %s opportunity score %f out of range", c.ID, c.OpportunityScore)
		}
		shareSum += c.Share
	}
	// Noise reviews belong to no cluster, so shares may sum below one but
	// never meaningfully above.
	if shareSum > 1.01 {
		return fmt.Errorf("cluster shares sum to %f", shareSum)
	}

	if len(a.Clusters) > 0 {
		if len(a.Personas) < 2 || len(a.Personas) > 4 {
			return fmt.Errorf("%d personas, want between 2 and 4", len(a.Personas))
		}
	}
	var personaShare float64
	for _, p := range a.Personas {
		personaShare += p.Share
	}
	if len(a.Personas) > 0 && math.Abs(personaShare-1.0) > 0.02 {
		return fmt.Errorf("persona shares sum to %f, want 1.0", personaShare)
	}

	return nil
}

// writeJSON writes v atomically: marshal to a temp file in the target
// directory, then rename over the destination. A crashed run leaves either
// the old artifact or none, never a torn one.
func writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
