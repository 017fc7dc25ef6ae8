package normalize

import (
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty", "", ""},
		{"plain", "Great stay, would come back.", "Great stay, would come back."},
		{"br tags become newlines", "Lovely host.<br/>Very clean room.", "Lovely host.\nVery clean room."},
		{"html tags stripped", "The <b>best</b> pasta in town", "The best pasta in town"},
		{"entities unescaped", "Clean &amp; quiet", "Clean & quiet"},
		{"whitespace collapsed", "too   many    spaces", "too many spaces"},
		{"surrounding space trimmed", "  padded  ", "padded"},
		{"control characters removed", "before\x00\x07after", "beforeafter"},
		{"carriage returns removed", "line one\r\nline two", "line one\nline two"},
		{"blank lines collapsed", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanText(tt.input); got != tt.expected {
				t.Errorf("CleanText(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDetectLang(t *testing.T) {
	if got := DetectLang("ok"); got != "unknown" {
		t.Errorf("expected short text to be unknown, got %q", got)
	}
	got := DetectLang("The apartment was spotless and the host went out of their way to make us feel welcome throughout the entire stay.")
	if got != "en" {
		t.Errorf("expected en, got %q", got)
	}
}

func TestAdapterForUnknownFormat(t *testing.T) {
	if _, err := AdapterFor(Format("csv")); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestNormalizeGeneric(t *testing.T) {
	adapter, err := AdapterFor(FormatGeneric)
	if err != nil {
		t.Fatalf("AdapterFor: %v", err)
	}

	header := []string{"id", "text", "rating", "date"}
	rows := [][]string{
		{"r1", "Fantastic service and a very friendly team at the reception desk.", "5", "2024-03-10"},
		{"r2", "", "3", "2024-03-11"},
		{"r1", "Duplicate identifier should be dropped on sight.", "4", "2024-03-12"},
		{"r3", "Rating out of range is kept as a review without a rating.", "9", "2024-03-13"},
	}

	res := adapter.Normalize(header, rows)
	if res.TotalRows != 4 {
		t.Errorf("expected 4 total rows, got %d", res.TotalRows)
	}
	if res.SkippedRows != 2 {
		t.Errorf("expected 2 skipped rows, got %d", res.SkippedRows)
	}
	if len(res.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(res.Reviews))
	}

	first := res.Reviews[0]
	if first.ID != "r1" {
		t.Errorf("expected ID r1, got %q", first.ID)
	}
	if !first.HasRating() || first.Rating != 5 {
		t.Errorf("expected rating 5, got %v", first.Rating)
	}
	wantDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if !first.Timestamp.Equal(wantDate) {
		t.Errorf("expected timestamp %v, got %v", wantDate, first.Timestamp)
	}

	second := res.Reviews[1]
	if second.HasRating() {
		t.Errorf("expected out-of-range rating to be dropped, got %v", second.Rating)
	}
}

func TestNormalizeSynthesizesIDs(t *testing.T) {
	adapter, _ := AdapterFor(FormatGeneric)

	header := []string{"text"}
	rows := [][]string{
		{"No identifier column in this export but the row is still usable."},
		{"Second row gets a distinct positional identifier."},
	}

	res := adapter.Normalize(header, rows)
	if len(res.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(res.Reviews))
	}
	if res.Reviews[0].ID != "generic-0" || res.Reviews[1].ID != "generic-1" {
		t.Errorf("unexpected synthesized IDs: %q, %q", res.Reviews[0].ID, res.Reviews[1].ID)
	}
}

func TestNormalizeEmptyIDCellSkipsRow(t *testing.T) {
	adapter, _ := AdapterFor(FormatGeneric)

	header := []string{"id", "text"}
	rows := [][]string{
		{"", "An id column exists but this cell is blank, so the row is dropped."},
	}

	res := adapter.Normalize(header, rows)
	if len(res.Reviews) != 0 {
		t.Fatalf("expected 0 reviews, got %d", len(res.Reviews))
	}
	if res.SkippedRows != 1 {
		t.Errorf("expected 1 skipped row, got %d", res.SkippedRows)
	}
}

func TestNormalizeMissingTextColumn(t *testing.T) {
	adapter, _ := AdapterFor(FormatGeneric)

	res := adapter.Normalize([]string{"id", "rating"}, [][]string{{"r1", "4"}, {"r2", "5"}})
	if len(res.Reviews) != 0 {
		t.Errorf("expected no reviews, got %d", len(res.Reviews))
	}
	if res.SkippedRows != 2 {
		t.Errorf("expected all rows skipped, got %d", res.SkippedRows)
	}
}

func TestNormalizeLanguagePrecedence(t *testing.T) {
	adapter, _ := AdapterFor(FormatAirbnb)

	header := []string{"id", "comments", "lang"}
	rows := [][]string{
		{"a1", "Posizione perfetta, a due passi dal centro storico e dai ristoranti.", "IT"},
		{"a2", "The loft was bright, quiet, and exactly as shown in the pictures.", ""},
	}

	res := adapter.Normalize(header, rows)
	if len(res.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(res.Reviews))
	}
	if res.Reviews[0].Lang != "it" {
		t.Errorf("expected lang column to win, got %q", res.Reviews[0].Lang)
	}
	if res.Reviews[1].Lang != "en" {
		t.Errorf("expected detected en, got %q", res.Reviews[1].Lang)
	}
}

func TestNormalizeFixedLang(t *testing.T) {
	adapter, _ := AdapterFor(FormatPlaystore)

	header := []string{"review_id", "content", "score", "at"}
	rows := [][]string{
		{"p1", "Aplikasi sangat membantu untuk memesan tiket dengan cepat.", "4", "2024-01-05 09:30:00"},
	}

	res := adapter.Normalize(header, rows)
	if len(res.Reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(res.Reviews))
	}
	if res.Reviews[0].Lang != "id" {
		t.Errorf("expected fixed lang id, got %q", res.Reviews[0].Lang)
	}
	if res.Reviews[0].Source != "Google Play" {
		t.Errorf("unexpected source %q", res.Reviews[0].Source)
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	inputs := []string{
		"2024-06-15T10:30:00Z",
		"2024-06-15 10:30:00",
		"2024-06-15",
		"06/15/2024",
		"2024/06/15",
		"Jun 15, 2024",
	}
	for _, input := range inputs {
		if _, ok := parseTimestamp(input); !ok {
			t.Errorf("parseTimestamp(%q) failed", input)
		}
	}
	if _, ok := parseTimestamp("not a date"); ok {
		t.Error("expected parse failure for junk input")
	}
}

func TestLoadFileCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv")
	content := "\uFEFFid,text,rating,date\n" +
		"r1,\"Check-in was smooth, and the kitchen had everything we needed.\",5,2024-02-01\n" +
		"r2,\"A bit noisy at night but the location makes up for it.\",3,2024-02-02\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	adapter, _ := AdapterFor(FormatGeneric)
	res, err := adapter.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(res.Reviews) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(res.Reviews))
	}
	if res.Reviews[0].ID != "r1" {
		t.Errorf("BOM not stripped from header, got ID %q", res.Reviews[0].ID)
	}
}

func TestLoadFileGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reviews.csv.gz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	gz := gzip.NewWriter(f)
	content := "id,text\nr1,\"Compressed exports should load the same as plain ones.\"\n"
	if _, err := gz.Write([]byte(content)); err != nil {
		t.Fatalf("write gzip: %v", err)
	}
	gz.Close()
	f.Close()

	adapter, _ := AdapterFor(FormatGeneric)
	res, err := adapter.LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(res.Reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(res.Reviews))
	}
	if !strings.Contains(res.Reviews[0].Text, "Compressed exports") {
		t.Errorf("unexpected text %q", res.Reviews[0].Text)
	}
}

func TestLoadFileMissing(t *testing.T) {
	adapter, _ := AdapterFor(FormatGeneric)
	if _, err := adapter.LoadFile("/nonexistent/reviews.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}
