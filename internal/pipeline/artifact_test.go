package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"insightsuite/internal/core"
)

func reviewAt(sentiment, rating float64, lang, date string) core.Review {
	var ts time.Time
	if date != "" {
		ts, _ = time.Parse("2006-01-02", date)
	}
	return core.Review{Sentiment: sentiment, Rating: rating, Lang: lang, Timestamp: ts}
}

func TestBuildAggregates(t *testing.T) {
	reviews := []core.Review{
		reviewAt(-0.8, 1, "en", ""),
		reviewAt(-0.2, 2, "en", ""),
		reviewAt(0.0, 0, "en", ""),
		reviewAt(0.6, 5, "en", ""),
	}
	agg := buildAggregates(reviews)

	if math.Abs(agg.SentimentMean-(-0.1)) > 1e-9 {
		t.Errorf("mean = %f, want -0.1", agg.SentimentMean)
	}
	if agg.SentimentDist.Neg != 0.5 || agg.SentimentDist.Neu != 0.25 || agg.SentimentDist.Pos != 0.25 {
		t.Errorf("dist = %+v", agg.SentimentDist)
	}
	if math.Abs(agg.SentimentDist.Neg+agg.SentimentDist.Neu+agg.SentimentDist.Pos-1.0) > 1e-9 {
		t.Error("sentiment distribution does not sum to 1")
	}

	if len(agg.RatingHist) != 5 {
		t.Fatalf("rating hist has %d buckets, want 5", len(agg.RatingHist))
	}
	// The zero rating is "no rating" and stays out of the histogram.
	var total int
	for _, bucket := range agg.RatingHist {
		total += bucket[1]
	}
	if total != 3 {
		t.Errorf("histogram counts %d ratings, want 3", total)
	}
	if agg.RatingHist[0] != [2]int{1, 1} {
		t.Errorf("one-star bucket = %v", agg.RatingHist[0])
	}
}

func TestTopLanguages(t *testing.T) {
	var reviews []core.Review
	add := func(lang string, n int) {
		for i := 0; i < n; i++ {
			reviews = append(reviews, core.Review{Lang: lang})
		}
	}
	add("en", 10)
	add("it", 5)
	add("es", 3)
	add("de", 2)
	add("fr", 1)
	add("id", 1)

	langs := topLanguages(reviews)
	if len(langs) != maxLanguages+1 {
		t.Fatalf("got %d entries, want %d", len(langs), maxLanguages+1)
	}
	if langs[0] != "en" {
		t.Errorf("top language = %q, want en", langs[0])
	}
	if langs[len(langs)-1] != "other" {
		t.Errorf("last entry = %q, want other", langs[len(langs)-1])
	}
}

func TestDateRange(t *testing.T) {
	reviews := []core.Review{
		reviewAt(0, 0, "en", "2024-03-10"),
		reviewAt(0, 0, "en", "2023-11-02"),
		reviewAt(0, 0, "en", ""),
		reviewAt(0, 0, "en", "2024-01-20"),
	}
	got := dateRange(reviews)
	if got != [2]string{"2023-11-02", "2024-03-10"} {
		t.Errorf("date range = %v", got)
	}

	empty := dateRange([]core.Review{reviewAt(0, 0, "en", "")})
	if empty != [2]string{"", ""} {
		t.Errorf("undated range = %v, want empty strings", empty)
	}
}

func TestBuildTimeseries(t *testing.T) {
	reviews := []core.Review{
		reviewAt(0.5, 0, "en", "2024-01-05"),
		reviewAt(-0.5, 0, "en", "2024-01-20"),
		reviewAt(0.3, 0, "en", "2024-02-11"),
	}
	members := map[string][]int{"cluster_0": {0, 2}, "cluster_1": {1}}

	ts := buildTimeseries(reviews, members)
	if ts == nil {
		t.Fatal("timeseries is nil")
	}
	if len(ts.Monthly) != 2 {
		t.Fatalf("got %d monthly points, want 2", len(ts.Monthly))
	}
	if ts.Monthly[0].Date != "2024-01" || ts.Monthly[0].Volume != 2 {
		t.Errorf("first month = %+v", ts.Monthly[0])
	}
	if ts.Monthly[0].SentimentMean != 0.0 {
		t.Errorf("january mean = %f, want 0", ts.Monthly[0].SentimentMean)
	}

	if len(ts.Clusters["cluster_0"]) != 2 {
		t.Errorf("cluster_0 series = %v", ts.Clusters["cluster_0"])
	}
	if ts.Clusters["cluster_1"][0].Date != "2024-01" {
		t.Errorf("cluster_1 series = %v", ts.Clusters["cluster_1"])
	}

	if buildTimeseries([]core.Review{reviewAt(0, 0, "en", "")}, nil) != nil {
		t.Error("undated dataset should have nil timeseries")
	}
}

func validTestArtifact() *core.ProjectArtifact {
	return &core.ProjectArtifact{
		Meta: core.Meta{
			ProjectID: "p1",
			Totals:    core.Totals{Reviews: 10, Clusters: 2},
		},
		Clusters: []core.Cluster{
			{ID: "cluster_0", Share: 0.6, Sentiment: -0.3, OpportunityScore: 0.4},
			{ID: "cluster_1", Share: 0.3, Sentiment: 0.5, OpportunityScore: 0.1},
		},
		Personas: []core.Persona{
			{ID: "persona_1", Share: 0.5},
			{ID: "persona_2", Share: 0.5},
		},
	}
}

func TestValidateArtifact(t *testing.T) {
	if err := validateArtifact(validTestArtifact()); err != nil {
		t.Errorf("valid artifact rejected: %v", err)
	}

	broken := validTestArtifact()
	broken.Meta.ProjectID = ""
	if validateArtifact(broken) == nil {
		t.Error("missing project id accepted")
	}

	broken = validTestArtifact()
	broken.Clusters[0].Share = 1.2
	if validateArtifact(broken) == nil {
		t.Error("out-of-range share accepted")
	}

	broken = validTestArtifact()
	broken.Clusters[0].Share = 0.9
	broken.Clusters[1].Share = 0.9
	if validateArtifact(broken) == nil {
		t.Error("shares summing above one accepted")
	}

	broken = validTestArtifact()
	broken.Personas = broken.Personas[:1]
	if validateArtifact(broken) == nil {
		t.Error("single persona accepted")
	}

	broken = validTestArtifact()
	broken.Personas[0].Share = 0.9
	if validateArtifact(broken) == nil {
		t.Error("persona shares not summing to one accepted")
	}

	broken = validTestArtifact()
	broken.Meta.Totals.Clusters = 5
	if validateArtifact(broken) == nil {
		t.Error("mismatched cluster total accepted")
	}
}

func TestWriteJSONAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "artifact.json")

	if err := writeJSON(path, map[string]int{"a": 1}); err != nil {
		t.Fatalf("writeJSON failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("output missing: %v", err)
	}
	if string(data) == "" {
		t.Error("output empty")
	}

	// Overwrite leaves a single file, no temp residue.
	if err := writeJSON(path, map[string]int{"a": 2}); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("directory has %d entries, want 1", len(entries))
	}
}
