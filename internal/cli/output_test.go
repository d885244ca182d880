package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/keyword"
	"github.com/hyperjump/tfexplorer/internal/models"
	"github.com/hyperjump/tfexplorer/internal/storage"
	"github.com/hyperjump/tfexplorer/internal/tokenizer"
	"github.com/hyperjump/tfexplorer/internal/vector"
)

func sampleNeighbors() *models.NeighborsResponse {
	return &models.NeighborsResponse{
		Word: "king",
		Neighbors: []vector.Neighbor{
			{Word: "queen", Similarity: 0.5},
			{Word: "man", Similarity: 0.7071},
		},
		QueryTime: 3,
	}
}

func TestParseOutputFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"text", OutputText, false},
		{"JSON", OutputJSON, false},
		{" compact ", OutputCompact, false},
		{"", OutputText, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseOutputFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseOutputFormat(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseOutputFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestWriteNeighbors_JSON(t *testing.T) {
	resp := sampleNeighbors()
	var buf bytes.Buffer
	if err := WriteNeighbors(&buf, resp, OutputJSON); err != nil {
		t.Fatalf("WriteNeighbors(json): %v", err)
	}
	var decoded models.NeighborsResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Word != "king" || len(decoded.Neighbors) != 2 || decoded.Neighbors[0].Word != "queen" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteNeighbors_text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNeighbors(&buf, sampleNeighbors(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"king"`, "1. queen", "2. man", "0.7071"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = WriteNeighbors(&buf, &models.NeighborsResponse{}, OutputText)
	if !strings.Contains(buf.String(), "No results.") {
		t.Errorf("empty output = %q", buf.String())
	}
}

func TestWriteNeighbors_compact(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteNeighbors(&buf, sampleNeighbors(), OutputCompact); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d: %q", len(lines), buf.String())
	}
	if lines[0] != "queen\t0.5000" {
		t.Errorf("first line = %q", lines[0])
	}
}

func TestWriteAnalogy_text(t *testing.T) {
	resp := &models.AnalogyResponse{
		A: "king", B: "man", C: "woman",
		Results: []vector.Neighbor{{Word: "queen", Similarity: 1}},
	}
	var buf bytes.Buffer
	if err := WriteAnalogy(&buf, resp, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "king is to man as woman is to") || !strings.Contains(buf.String(), "queen") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestWriteTokens(t *testing.T) {
	res := &tokenizer.Result{
		Text:   "Hello world",
		Source: tokenizer.SourceCurated,
		Tokens: []dataset.Token{{ID: 1, Text: "Hello"}, {ID: 2, Text: " world"}},
		Stats:  tokenizer.ComputeStats("Hello world", 2),
		Comparison: map[string]dataset.TokenSet{
			"gpt2": {Tokens: []dataset.Token{{ID: 1, Text: "Hello"}, {ID: 2, Text: " world"}}},
		},
	}
	var buf bytes.Buffer
	if err := WriteTokens(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"[Hello] [ world]", "5.50 chars/token", "gpt2:", "curated"} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	_ = WriteTokens(&buf, res, OutputCompact)
	if got := buf.String(); got != "1\t\"Hello\"\n2\t\" world\"\n" {
		t.Errorf("compact output = %q", got)
	}
}

func TestWriteSanitize(t *testing.T) {
	corrected := camera.Sanitize(camera.DefaultPose().Raw(), camera.DefaultPose())
	var buf bytes.Buffer
	if err := WriteSanitize(&buf, corrected, OutputText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "Pose unchanged") {
		t.Errorf("output = %q", buf.String())
	}

	buf.Reset()
	_ = WriteSanitize(&buf, camera.Result{}, OutputText)
	if !strings.Contains(buf.String(), "invalid") {
		t.Errorf("invalid output = %q", buf.String())
	}

	buf.Reset()
	_ = WriteSanitize(&buf, camera.Result{}, OutputCompact)
	if buf.String() != "invalid\n" {
		t.Errorf("compact invalid output = %q", buf.String())
	}
}

func TestWriteHistory(t *testing.T) {
	entries := []*storage.HistoryEntry{{
		ID:        "abc",
		Kind:      storage.KindAnalogy,
		Query:     json.RawMessage(`{"a":"king","b":"man","c":"woman"}`),
		Result:    json.RawMessage(`[]`),
		CreatedAt: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
	}}
	var buf bytes.Buffer
	if err := WriteHistory(&buf, entries, OutputCompact); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "abc\tanalogy\t") {
		t.Errorf("compact output = %q", buf.String())
	}

	buf.Reset()
	if err := WriteHistory(&buf, nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("empty JSON history = %q", buf.String())
	}

	buf.Reset()
	_ = WriteHistory(&buf, nil, OutputText)
	if !strings.Contains(buf.String(), "No history.") {
		t.Errorf("empty text history = %q", buf.String())
	}
}

func TestWriteUnknownWords(t *testing.T) {
	err := &explorer.UnknownWordsError{
		Missing: &vector.MissingWordsError{Words: []string{"kng", "zzz"}},
		Suggestions: map[string][]keyword.Suggestion{
			"kng": {{Word: "king", Distance: 1}},
		},
	}
	var buf bytes.Buffer
	WriteUnknownWords(&buf, err)
	out := buf.String()
	if !strings.Contains(out, "kng: did you mean king?") {
		t.Errorf("output = %q", out)
	}
	if strings.Contains(out, "zzz: did you mean") {
		t.Errorf("word without suggestions should not get a hint: %q", out)
	}
}

func TestWriteNeighborsXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "neighbors.xlsx")
	if err := WriteNeighborsXLSX(path, "neighbors of king", sampleNeighbors().Neighbors); err != nil {
		t.Fatalf("WriteNeighborsXLSX: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("rows = %d, want 4 (title, header, 2 results): %v", len(rows), rows)
	}
	if rows[0][0] != "neighbors of king" {
		t.Errorf("title = %q", rows[0][0])
	}
	if strings.Join(rows[1], ",") != "rank,word,similarity" {
		t.Errorf("header = %v", rows[1])
	}
	if rows[2][1] != "queen" {
		t.Errorf("first word = %q", rows[2][1])
	}
}
