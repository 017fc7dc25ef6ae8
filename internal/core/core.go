package core

import "time"

// Review is a single normalized customer review.
// Created by the normalizer, scored once by the sentiment stage, and
// immutable afterwards.
type Review struct {
	ID        string    `json:"id"`                  // Unique identifier within the dataset
	Text      string    `json:"text"`                // Cleaned review text
	Rating    float64   `json:"rating,omitempty"`    // Star rating 1-5, 0 when the source has none
	Timestamp time.Time `json:"timestamp,omitempty"` // When the review was written (zero value if unknown)
	Lang      string    `json:"lang"`                // ISO 639-1 language code or "unknown"
	Source    string    `json:"source"`              // Originating dataset/source name
	Sentiment float64   `json:"sentiment"`           // Scalar sentiment in [-1, 1]
}

// HasRating reports whether the source provided a star rating.
func (r Review) HasRating() bool { return r.Rating >= 1 && r.Rating <= 5 }

// HasTimestamp reports whether the source provided a usable timestamp.
func (r Review) HasTimestamp() bool { return !r.Timestamp.IsZero() }

// Quote is a de-identified excerpt of a source review, owned by exactly
// one cluster.
type Quote struct {
	ID     string  `json:"id"`               // ID of the source review
	Text   string  `json:"text"`             // Excerpt, truncated to a bounded length
	Rating float64 `json:"rating,omitempty"` // Star rating if present
	Lang   string  `json:"lang"`             // Language of the excerpt
}

// TrendPoint is one bucket of a cluster's weekly volume series.
type TrendPoint struct {
	Week  string `json:"week"`  // ISO week label, e.g. "2024-W07"
	Count int    `json:"count"` // Reviews from this cluster in that week
}

// Cluster is a density-derived group of semantically similar reviews
// representing one theme. Built by the cluster engine and enriched by the
// summarizer; immutable once the pipeline run completes.
type Cluster struct {
	ID               string       `json:"id"`
	Label            string       `json:"label"`
	Size             int          `json:"size"`
	Share            float64      `json:"share"`     // Fraction of total reviews in the dataset, [0,1]
	Sentiment        float64      `json:"sentiment"` // Mean member sentiment, [-1,1]
	Trend            []TrendPoint `json:"trend"`
	Keywords         []string     `json:"keywords"`
	Summary          string       `json:"summary"`
	Strengths        []string     `json:"strengths"`
	Weaknesses       []string     `json:"weaknesses"`
	OpportunityScore float64      `json:"opportunity_score"`
	Quotes           []Quote      `json:"quotes"`
	CoOccurs         []string     `json:"co_occurs"` // IDs of thematically overlapping clusters
}

// Persona is a representative user segment synthesized from cluster-level
// signals. Cluster references are relations only, not ownership.
type Persona struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Archetype string   `json:"archetype"`
	Share     float64  `json:"share"`
	Goals     []string `json:"goals"`
	Pains     []string `json:"pains"`
	Clusters  []string `json:"clusters"` // IDs of contributing clusters
	Quotes    []string `json:"quotes"`
	Channels  []string `json:"channels"`
	Icon      string   `json:"icon"`
	Accent    string   `json:"accent"` // Hex color used by the dashboard
}

// Method records which model or local fallback produced each AI-assisted
// stage of a run.
type Method struct {
	Sentiment  string `json:"sentiment"`
	Embedding  string `json:"embedding"`
	Clustering string `json:"clustering"`
	LLM        string `json:"llm"`
}

// Totals holds headline counts for an artifact.
type Totals struct {
	Reviews  int `json:"reviews"`
	Clusters int `json:"clusters"`
}

// Meta describes the dataset and run that produced an artifact.
type Meta struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	DateRange [2]string `json:"date_range"` // ["YYYY-MM-DD", "YYYY-MM-DD"], empty strings if unknown
	Languages []string  `json:"languages"`  // Most frequent languages, plus "other" when truncated
	Totals    Totals    `json:"totals"`
	Method    Method    `json:"method"`
	Degraded  bool      `json:"degraded"` // True when any AI-assisted stage used its local fallback
}

// SentimentDist is the share of negative/neutral/positive reviews.
type SentimentDist struct {
	Neg float64 `json:"neg"`
	Neu float64 `json:"neu"`
	Pos float64 `json:"pos"`
}

// Aggregates holds dataset-level statistics.
type Aggregates struct {
	SentimentMean float64       `json:"sentiment_mean"`
	SentimentDist SentimentDist `json:"sentiment_dist"`
	RatingHist    [][2]int      `json:"rating_hist"` // [[rating, count], ...] for ratings 1-5
}

// MonthPoint is one bucket of the dataset-level monthly series.
type MonthPoint struct {
	Date          string  `json:"date"` // "YYYY-MM"
	SentimentMean float64 `json:"sentiment_mean"`
	Volume        int     `json:"volume"`
}

// ClusterMonthPoint is one bucket of a per-cluster monthly volume series.
type ClusterMonthPoint struct {
	Date   string `json:"date"` // "YYYY-MM"
	Volume int    `json:"volume"`
}

// Timeseries holds the temporal views the dashboard charts are built from.
type Timeseries struct {
	Monthly  []MonthPoint                   `json:"monthly"`
	Clusters map[string][]ClusterMonthPoint `json:"clusters"`
}

// ProjectArtifact is the root aggregate emitted once per dataset per
// pipeline run. It is the unit of output: either the whole artifact is
// written, or nothing is.
type ProjectArtifact struct {
	Meta       Meta        `json:"meta"`
	Aggregates Aggregates  `json:"aggregates"`
	Clusters   []Cluster   `json:"clusters"`
	Personas   []Persona   `json:"personas"`
	Timeseries *Timeseries `json:"timeseries,omitempty"`
}

// RunStats tracks pipeline execution metrics for one dataset run.
type RunStats struct {
	RunID          string                   `json:"run_id"`
	ProjectID      string                   `json:"project_id"`
	TotalRows      int                      `json:"total_rows"`
	SkippedRows    int                      `json:"skipped_rows"`
	ValidReviews   int                      `json:"valid_reviews"`
	CacheHits      int                      `json:"cache_hits"`
	RemoteCalls    int                      `json:"remote_calls"`
	NoiseReviews   int                      `json:"noise_reviews"`
	DegradedStages []string                 `json:"degraded_stages"`
	StageDurations map[string]time.Duration `json:"stage_durations"`
	StartTime      time.Time                `json:"start_time"`
	EndTime        time.Time                `json:"end_time"`
}
