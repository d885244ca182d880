package mcp

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/dataset"
	"github.com/hyperjump/tfexplorer/internal/explorer"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	logger := zap.NewNop()
	holder := dataset.NewHolder("../dataset/testdata", dataset.DefaultFiles(), logger)
	if err := holder.Reload(); err != nil {
		t.Fatal(err)
	}
	engine := explorer.NewEngine(holder, logger)
	t.Cleanup(func() { _ = engine.Close() })

	server := mcpserver.NewMCPServer(ServerName, "test")
	return RegisterTools(server, engine, nil, camera.DefaultPose(), logger)
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return text.Text
}

func TestNearestNeighbors(t *testing.T) {
	h := newTestHandlers(t)
	res, err := h.NearestNeighbors(context.Background(), call(map[string]interface{}{"word": "King", "top_n": float64(2)}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var out struct {
		Word      string `json:"word"`
		Neighbors []struct {
			Word string `json:"word"`
		} `json:"neighbors"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if out.Word != "king" {
		t.Errorf("word = %q, want king", out.Word)
	}
	if len(out.Neighbors) != 2 {
		t.Fatalf("neighbors = %d, want 2", len(out.Neighbors))
	}
	for _, n := range out.Neighbors {
		if n.Word == "king" {
			t.Error("query word returned as its own neighbor")
		}
	}
}

func TestNearestNeighbors_errors(t *testing.T) {
	h := newTestHandlers(t)
	tests := []struct {
		name string
		args map[string]interface{}
		want string
	}{
		{"missing word", map[string]interface{}{}, "word argument is required"},
		{"wrong type", map[string]interface{}{"word": 3}, "word argument is required"},
		{"unknown word", map[string]interface{}{"word": "kng"}, "suggestions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.NearestNeighbors(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatal("expected error result")
			}
			if got := resultText(t, res); !strings.Contains(got, tt.want) {
				t.Errorf("result %q does not contain %q", got, tt.want)
			}
		})
	}
}

func TestWordAnalogy(t *testing.T) {
	h := newTestHandlers(t)
	res, err := h.WordAnalogy(context.Background(), call(map[string]interface{}{"a": "king", "b": "man", "c": "woman"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	var out struct {
		Results []struct {
			Word string `json:"word"`
		} `json:"results"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Results) == 0 || out.Results[0].Word != "queen" {
		t.Errorf("results = %+v, want queen first", out.Results)
	}

	res, err = h.WordAnalogy(context.Background(), call(map[string]interface{}{"a": "king", "b": "man"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "c argument") {
		t.Errorf("missing c: got %q", resultText(t, res))
	}
}

func TestTokenize(t *testing.T) {
	h := newTestHandlers(t)
	res, err := h.Tokenize(context.Background(), call(map[string]interface{}{"text": "Hello world"}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), `"source":"curated"`) {
		t.Errorf("result = %s", resultText(t, res))
	}

	res, _ = h.Tokenize(context.Background(), call(map[string]interface{}{"text": "never seen"}))
	if !res.IsError {
		t.Error("expected error for text without live tokenizer or curated match")
	}
}

func TestSanitizeCamera(t *testing.T) {
	h := newTestHandlers(t)
	tests := []struct {
		name        string
		args        map[string]interface{}
		wantErr     bool
		wantChanged bool
		wantValid   bool
	}{
		{
			name: "valid pose unchanged",
			args: map[string]interface{}{"candidate": map[string]interface{}{
				"eye":    map[string]interface{}{"x": 2.0, "y": 0.0, "z": 0.0},
				"center": map[string]interface{}{"x": 0.0, "y": 0.0, "z": 0.0},
				"up":     map[string]interface{}{"x": 0.0, "y": 0.0, "z": 1.0},
			}},
			wantValid: true,
		},
		{
			name: "collapsed eye corrected",
			args: map[string]interface{}{"candidate": map[string]interface{}{
				"eye":    map[string]interface{}{"x": 0.0, "y": 0.0, "z": 0.0},
				"center": map[string]interface{}{"x": 0.0, "y": 0.0, "z": 0.0},
				"up":     map[string]interface{}{"x": 0.0, "y": 0.0, "z": 1.0},
			}},
			wantChanged: true,
			wantValid:   true,
		},
		{
			name: "collapsed fallback rejected",
			args: map[string]interface{}{
				"candidate": map[string]interface{}{
					"eye":    map[string]interface{}{"x": 0.0, "y": 0.0, "z": 0.0},
					"center": map[string]interface{}{"x": 0.0, "y": 0.0, "z": 0.0},
				},
				"fallback": map[string]interface{}{
					"eye":    map[string]interface{}{"x": 1.0, "y": 1.0, "z": 1.0},
					"center": map[string]interface{}{"x": 1.0, "y": 1.0, "z": 1.0},
					"up":     map[string]interface{}{"x": 0.0, "y": 0.0, "z": 1.0},
				},
			},
			wantErr: true,
		},
		{
			name:    "missing candidate",
			args:    map[string]interface{}{},
			wantErr: true,
		},
		{
			name:    "malformed candidate",
			args:    map[string]interface{}{"candidate": "eye"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.SanitizeCamera(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if res.IsError != tt.wantErr {
				t.Fatalf("IsError = %v, want %v (%s)", res.IsError, tt.wantErr, resultText(t, res))
			}
			if tt.wantErr {
				return
			}
			var out camera.Result
			if err := json.Unmarshal([]byte(resultText(t, res)), &out); err != nil {
				t.Fatal(err)
			}
			if out.Changed != tt.wantChanged || out.Valid != tt.wantValid {
				t.Errorf("changed=%v valid=%v, want changed=%v valid=%v", out.Changed, out.Valid, tt.wantChanged, tt.wantValid)
			}
			if out.Valid && out.Pose.Distance() < camera.MinDistance {
				t.Errorf("distance %g below minimum", out.Pose.Distance())
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	logger := zap.NewNop()
	holder := dataset.NewHolder(t.TempDir(), dataset.DefaultFiles(), logger)
	engine := explorer.NewEngine(holder, logger)
	defer engine.Close()

	server, handlers := NewServer(engine, camera.NewSanitizer(0), camera.DefaultPose(), "test", logger)
	if server == nil || handlers == nil {
		t.Fatal("NewServer returned nil")
	}
	res, err := handlers.NearestNeighbors(context.Background(), call(map[string]interface{}{"word": "king"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Error("expected error when no dataset is loaded")
	}
}
