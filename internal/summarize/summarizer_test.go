package summarize

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"insightsuite/internal/core"
	"insightsuite/internal/llm"
)

// MockLLMClient implements LLMClient for testing
type MockLLMClient struct {
	callCount  int
	shouldFail bool
	respond    func(callCount int, prompt string) (string, error)
}

func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{}
}

func (m *MockLLMClient) GenerateText(ctx context.Context, prompt string, options llm.TextOptions) (string, error) {
	m.callCount++

	if m.shouldFail {
		return "", fmt.Errorf("mock LLM error")
	}
	if m.respond != nil {
		return m.respond(m.callCount, prompt)
	}

	if strings.Contains(prompt, "compact digest") {
		return "Customers praise the location but complain about noise at night.", nil
	}

	return `{
		"label": "Street Noise",
		"summary": "Guests frequently report noise from the street keeping them awake.",
		"strengths": ["central location"],
		"weaknesses": ["thin windows", "traffic noise"]
	}`, nil
}

func (m *MockLLMClient) ModelName() string { return "mock-model" }

func testCluster() core.Cluster {
	return core.Cluster{
		ID:        "cluster_0",
		Label:     "Noise & Street",
		Size:      40,
		Share:     0.4,
		Sentiment: -0.35,
		Keywords:  []string{"noise", "street", "sleep", "window"},
	}
}

func testReviews(n int) []core.Review {
	reviews := make([]core.Review, n)
	for i := range reviews {
		reviews[i] = core.Review{
			ID:   fmt.Sprintf("r%d", i),
			Text: fmt.Sprintf("review %d: too much noise from the street", i),
		}
	}
	return reviews
}

func memberIndices(n int) []int {
	members := make([]int, n)
	for i := range members {
		members[i] = i
	}
	return members
}

func TestNewSummarizerDefaults(t *testing.T) {
	s := NewSummarizer(NewMockLLMClient(), Options{})

	if s.opts.MaxQuotesPerChunk != 20 {
		t.Errorf("MaxQuotesPerChunk = %d, want 20", s.opts.MaxQuotesPerChunk)
	}
	if s.opts.MaxCharsPerChunk != 6000 {
		t.Errorf("MaxCharsPerChunk = %d, want 6000", s.opts.MaxCharsPerChunk)
	}
	if s.Method() != "map-reduce:mock-model" {
		t.Errorf("Method() = %q", s.Method())
	}
}

func TestEnrichClustersAppliesDigest(t *testing.T) {
	mock := NewMockLLMClient()
	s := NewSummarizer(mock, DefaultOptions())

	clusters := []core.Cluster{testCluster()}
	reviews := testReviews(10)
	members := map[string][]int{"cluster_0": memberIndices(10)}

	result := s.EnrichClusters(context.Background(), reviews, clusters, members)

	if result.Fallbacks != 0 {
		t.Errorf("fallbacks = %d, want 0", result.Fallbacks)
	}
	c := clusters[0]
	if c.Label != "Street Noise" {
		t.Errorf("label = %q, want %q", c.Label, "Street Noise")
	}
	if !strings.Contains(c.Summary, "noise") {
		t.Errorf("summary not applied: %q", c.Summary)
	}
	if len(c.Weaknesses) != 2 {
		t.Errorf("weaknesses = %v, want 2 entries", c.Weaknesses)
	}
	// 10 short texts fit one chunk, so the map step is skipped.
	if mock.callCount != 1 {
		t.Errorf("LLM calls = %d, want 1", mock.callCount)
	}
}

func TestEnrichClustersMapReduce(t *testing.T) {
	mock := NewMockLLMClient()
	opts := DefaultOptions()
	opts.MaxSampleQuotes = 45
	s := NewSummarizer(mock, opts)

	clusters := []core.Cluster{testCluster()}
	reviews := testReviews(45)
	members := map[string][]int{"cluster_0": memberIndices(45)}

	s.EnrichClusters(context.Background(), reviews, clusters, members)

	// 45 quotes at 20 per chunk is 3 map calls plus 1 reduce call.
	if mock.callCount != 4 {
		t.Errorf("LLM calls = %d, want 4", mock.callCount)
	}
}

func TestEnrichClustersFallbackOnError(t *testing.T) {
	mock := NewMockLLMClient()
	mock.shouldFail = true
	s := NewSummarizer(mock, DefaultOptions())

	clusters := []core.Cluster{testCluster()}
	reviews := testReviews(5)
	members := map[string][]int{"cluster_0": memberIndices(5)}

	result := s.EnrichClusters(context.Background(), reviews, clusters, members)

	if result.Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", result.Fallbacks)
	}
	if len(result.Failed) != 1 || result.Failed[0] != "cluster_0" {
		t.Errorf("failed = %v, want [cluster_0]", result.Failed)
	}
	c := clusters[0]
	if c.Label != "Noise & Street" {
		t.Errorf("fallback should keep the keyword label, got %q", c.Label)
	}
	if c.Summary == "" {
		t.Error("fallback left summary empty")
	}
	if len(c.Weaknesses) == 0 {
		t.Error("negative cluster fallback should list weaknesses")
	}
}

func TestEnrichClustersNilClient(t *testing.T) {
	s := NewSummarizer(nil, DefaultOptions())

	if s.Method() != "rule-based" {
		t.Errorf("Method() = %q, want rule-based", s.Method())
	}

	clusters := []core.Cluster{testCluster()}
	reviews := testReviews(5)
	members := map[string][]int{"cluster_0": memberIndices(5)}

	result := s.EnrichClusters(context.Background(), reviews, clusters, members)

	if result.Fallbacks != 1 {
		t.Errorf("fallbacks = %d, want 1", result.Fallbacks)
	}
	if len(result.Failed) != 0 {
		t.Errorf("nil client is not a failure, got %v", result.Failed)
	}
	if clusters[0].Summary == "" {
		t.Error("fallback left summary empty")
	}
}

func TestSummarizeClusterRetriesUnparseableReduce(t *testing.T) {
	mock := NewMockLLMClient()
	mock.respond = func(call int, prompt string) (string, error) {
		if call == 1 {
			return "sorry, I cannot produce JSON today", nil
		}
		return `{"label": "Parking", "summary": "Parking is hard to find nearby."}`, nil
	}
	s := NewSummarizer(mock, DefaultOptions())

	d, err := s.summarizeCluster(context.Background(), testCluster(), []string{"no parking anywhere"})
	if err != nil {
		t.Fatalf("summarizeCluster failed: %v", err)
	}
	if d.Label != "Parking" {
		t.Errorf("label = %q, want Parking", d.Label)
	}
	if mock.callCount != 2 {
		t.Errorf("LLM calls = %d, want 2", mock.callCount)
	}
}

func TestParseDigest(t *testing.T) {
	strict := `{"label": "Wifi", "summary": "Connection drops often."}`
	if d, err := parseDigest(strict); err != nil || d.Label != "Wifi" {
		t.Errorf("strict parse failed: %v, %+v", err, d)
	}

	fenced := "```json\n{\"label\": \"Wifi\", \"summary\": \"Connection drops often.\"}\n```"
	if d, err := parseDigest(fenced); err != nil || d.Label != "Wifi" {
		t.Errorf("fenced parse failed: %v, %+v", err, d)
	}

	wrapped := `Here is the result: {"label": "Wifi", "summary": "Connection drops often."} Hope it helps!`
	if d, err := parseDigest(wrapped); err != nil || d.Label != "Wifi" {
		t.Errorf("wrapped parse failed: %v, %+v", err, d)
	}

	if _, err := parseDigest("no json here at all"); err == nil {
		t.Error("expected error for response without JSON")
	}
	if _, err := parseDigest(`{"label": "", "summary": "x"}`); err == nil {
		t.Error("expected error for empty label")
	}
	if _, err := parseDigest(`{"label": "x", "summary": ""}`); err == nil {
		t.Error("expected error for empty summary")
	}
}

func TestChunkTexts(t *testing.T) {
	texts := make([]string, 45)
	for i := range texts {
		texts[i] = "short review"
	}
	chunks := chunkTexts(texts, 20, 6000)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if len(chunks[0]) != 20 || len(chunks[2]) != 5 {
		t.Errorf("chunk sizes = %d/%d/%d, want 20/20/5",
			len(chunks[0]), len(chunks[1]), len(chunks[2]))
	}

	// Character budget closes a chunk before the quote count does.
	long := strings.Repeat("x", 4000)
	chunks = chunkTexts([]string{long, long, long}, 20, 6000)
	if len(chunks) != 3 {
		t.Errorf("char budget: got %d chunks, want 3", len(chunks))
	}
}

func TestRuleBasedDigestPolarity(t *testing.T) {
	neg := testCluster()
	d := ruleBasedDigest(neg)
	if len(d.Weaknesses) == 0 || len(d.Strengths) != 0 {
		t.Errorf("negative cluster digest = %+v", d)
	}

	pos := testCluster()
	pos.Sentiment = 0.6
	d = ruleBasedDigest(pos)
	if len(d.Strengths) == 0 || len(d.Weaknesses) != 0 {
		t.Errorf("positive cluster digest = %+v", d)
	}

	mixed := testCluster()
	mixed.Sentiment = 0.0
	d = ruleBasedDigest(mixed)
	if len(d.Strengths) != 0 || len(d.Weaknesses) != 0 {
		t.Errorf("mixed cluster digest = %+v", d)
	}
	if !strings.Contains(d.Summary, "mixed") {
		t.Errorf("mixed summary = %q", d.Summary)
	}
}
