package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/abadojack/whatlanggo"

	"insightsuite/internal/core"
	"insightsuite/internal/logger"
)

// Format identifies a known raw review source schema.
type Format string

const (
	FormatAirbnb    Format = "airbnb"
	FormatPlaystore Format = "playstore"
	FormatEcommerce Format = "ecommerce"
	FormatGeneric   Format = "generic"
)

// Adapter maps one source schema's column layout onto the Review contract.
// Column aliases are checked in order; the first header match wins.
type Adapter struct {
	Name       string
	SourceName string

	idCols     []string
	textCols   []string
	ratingCols []string
	timeCols   []string
	langCols   []string

	// FixedLang overrides per-row detection for monolingual sources.
	FixedLang string

	// SynthesizeIDs allows positional IDs when the schema has no id column
	// at all. A present-but-empty id cell still drops the row.
	SynthesizeIDs bool
}

// AdapterFor returns the adapter for a known format.
func AdapterFor(format Format) (*Adapter, error) {
	switch format {
	case FormatAirbnb:
		return &Adapter{
			Name:       string(format),
			SourceName: "InsideAirbnb",
			idCols:     []string{"id", "review_id"},
			textCols:   []string{"comments", "review", "text", "content"},
			timeCols:   []string{"date", "at", "timestamp", "time"},
			langCols:   []string{"lang", "language"},
		}, nil
	case FormatPlaystore:
		return &Adapter{
			Name:       string(format),
			SourceName: "Google Play",
			idCols:     []string{"review_id", "reviewid", "id"},
			textCols:   []string{"content", "review", "text", "comment"},
			ratingCols: []string{"score", "rating"},
			timeCols:   []string{"at", "date", "timestamp"},
			FixedLang:  "id",
		}, nil
	case FormatEcommerce:
		return &Adapter{
			Name:          string(format),
			SourceName:    "E-Commerce Reviews",
			idCols:        []string{"id", "review_id"},
			textCols:      []string{"review text", "review", "text"},
			ratingCols:    []string{"rating", "score"},
			timeCols:      []string{"date", "timestamp"},
			FixedLang:     "en",
			SynthesizeIDs: true,
		}, nil
	case FormatGeneric:
		return &Adapter{
			Name:          string(format),
			SourceName:    "Generic",
			idCols:        []string{"id", "review_id"},
			textCols:      []string{"text", "review", "content", "comments", "comment", "body"},
			ratingCols:    []string{"rating", "score", "stars"},
			timeCols:      []string{"timestamp", "date", "at", "time", "created_at"},
			langCols:      []string{"lang", "language"},
			SynthesizeIDs: true,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source format %q", format)
	}
}

// Result holds the outcome of normalizing one raw file.
type Result struct {
	Reviews     []core.Review
	TotalRows   int
	SkippedRows int
}

// columns resolves this adapter's aliases against a concrete header.
type columns struct {
	id, text, rating, timestamp, lang int // -1 when absent
}

func (a *Adapter) resolve(header []string) columns {
	find := func(aliases []string) int {
		for _, alias := range aliases {
			for i, h := range header {
				if strings.EqualFold(strings.TrimSpace(h), alias) {
					return i
				}
			}
		}
		return -1
	}
	return columns{
		id:        find(a.idCols),
		text:      find(a.textCols),
		rating:    find(a.ratingCols),
		timestamp: find(a.timeCols),
		lang:      find(a.langCols),
	}
}

// Normalize converts raw rows into Review records. Rows missing mandatory
// fields are skipped and counted, never fatal. The returned reviews have
// no sentiment yet; scoring is a later stage.
func (a *Adapter) Normalize(header []string, rows [][]string) *Result {
	cols := a.resolve(header)
	res := &Result{TotalRows: len(rows)}

	if cols.text < 0 {
		logger.Warn("no text column found in source, dropping all rows",
			"adapter", a.Name, "header_fields", len(header))
		res.SkippedRows = len(rows)
		return res
	}

	seen := make(map[string]bool, len(rows))
	for i, row := range rows {
		review, reason := a.normalizeRow(cols, i, row)
		if reason != "" {
			res.SkippedRows++
			logger.Debug("skipping row", "adapter", a.Name, "row", i, "reason", reason)
			continue
		}
		if seen[review.ID] {
			res.SkippedRows++
			logger.Debug("skipping row", "adapter", a.Name, "row", i, "reason", "duplicate id")
			continue
		}
		seen[review.ID] = true
		res.Reviews = append(res.Reviews, review)
	}

	logger.Info("normalized source file",
		"adapter", a.Name, "rows", res.TotalRows,
		"reviews", len(res.Reviews), "skipped", res.SkippedRows)
	return res
}

func (a *Adapter) normalizeRow(cols columns, idx int, row []string) (core.Review, string) {
	cell := func(i int) string {
		if i < 0 || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	text := CleanText(cell(cols.text))
	if text == "" {
		return core.Review{}, "empty text"
	}

	id := cell(cols.id)
	if id == "" {
		if cols.id >= 0 || !a.SynthesizeIDs {
			return core.Review{}, "missing id"
		}
		id = fmt.Sprintf("%s-%d", a.Name, idx)
	}

	review := core.Review{
		ID:     id,
		Text:   text,
		Source: a.SourceName,
	}

	if raw := cell(cols.rating); raw != "" {
		if r, err := strconv.ParseFloat(raw, 64); err == nil && r >= 1 && r <= 5 {
			review.Rating = r
		}
	}
	if raw := cell(cols.timestamp); raw != "" {
		if ts, ok := parseTimestamp(raw); ok {
			review.Timestamp = ts
		}
	}

	switch {
	case cols.lang >= 0 && cell(cols.lang) != "":
		review.Lang = strings.ToLower(cell(cols.lang))
	case a.FixedLang != "":
		review.Lang = a.FixedLang
	default:
		review.Lang = DetectLang(text)
	}

	return review, ""
}

// timestampLayouts covers the date shapes seen across the known sources.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
	"2006/01/02",
	"Jan 2, 2006",
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// DetectLang returns the ISO 639-1 code of the text's language, or
// "unknown" for texts too short to classify reliably.
func DetectLang(text string) string {
	if len(text) <= 10 {
		return "unknown"
	}
	info := whatlanggo.Detect(text)
	if !info.IsReliable() {
		return "unknown"
	}
	code := whatlanggo.LangToStringShort(info.Lang)
	if code == "" {
		return "unknown"
	}
	return code
}
