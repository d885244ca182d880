package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/explorer"
	"github.com/hyperjump/tfexplorer/internal/models"
)

// Handlers implements the MCP tools.
type Handlers struct {
	engine    *explorer.Engine
	sanitizer *camera.Sanitizer
	fallback  camera.Pose
	logger    *zap.Logger
}

// NearestNeighbors handles the nearest_neighbors tool.
func (h *Handlers) NearestNeighbors(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	word, err := request.RequireString("word")
	if err != nil {
		return mcp.NewToolResultError("word argument is required and must be a string"), nil
	}

	resp, err := h.engine.Neighbors(ctx, models.NeighborsQuery{
		Word: word,
		TopN: request.GetInt("top_n", 0),
	})
	if err != nil {
		return queryError("neighbor lookup failed", err), nil
	}
	return jsonResult(resp), nil
}

// WordAnalogy handles the word_analogy tool.
func (h *Handlers) WordAnalogy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var words [3]string
	for i, name := range []string{"a", "b", "c"} {
		w, err := request.RequireString(name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%s argument is required and must be a string", name)), nil
		}
		words[i] = w
	}

	resp, err := h.engine.Analogy(ctx, models.AnalogyQuery{
		A:    words[0],
		B:    words[1],
		C:    words[2],
		TopN: request.GetInt("top_n", 0),
	})
	if err != nil {
		return queryError("analogy failed", err), nil
	}
	return jsonResult(resp), nil
}

// Tokenize handles the tokenize tool.
func (h *Handlers) Tokenize(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError("text argument is required and must be a string"), nil
	}

	svc := h.engine.Tokenizer()
	if svc == nil {
		return mcp.NewToolResultError("tokenizer data is not loaded"), nil
	}
	result, err := svc.Tokenize(text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tokenize failed: %v", err)), nil
	}
	return jsonResult(result), nil
}

// SanitizeCamera handles the sanitize_camera tool.
func (h *Handlers) SanitizeCamera(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	raw, ok := args["candidate"]
	if !ok || raw == nil {
		return mcp.NewToolResultError("candidate argument is required"), nil
	}

	var candidate camera.RawPose
	if err := remarshal(raw, &candidate); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid candidate: %v", err)), nil
	}

	fallback := h.fallback
	if fb, ok := args["fallback"]; ok && fb != nil {
		if err := remarshal(fb, &fallback); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fallback: %v", err)), nil
		}
		if err := h.sanitizer.CheckFallback(fallback); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid fallback: %v", err)), nil
		}
	}

	result := h.sanitizer.Sanitize(candidate, fallback)
	if result.Changed {
		h.logger.Debug("camera pose corrected", zap.Bool("valid", result.Valid))
	}
	return jsonResult(result), nil
}

// remarshal converts a decoded JSON argument into a typed value.
func remarshal(in interface{}, out interface{}) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func jsonResult(v interface{}) *mcp.CallToolResult {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err))
	}
	return mcp.NewToolResultText(string(data))
}

// queryError formats engine errors, listing suggestions for unknown words.
func queryError(prefix string, err error) *mcp.CallToolResult {
	var unknown *explorer.UnknownWordsError
	if errors.As(err, &unknown) {
		data, merr := json.Marshal(map[string]interface{}{
			"error":       err.Error(),
			"missing":     unknown.Missing.Words,
			"suggestions": unknown.Suggestions,
		})
		if merr == nil {
			return mcp.NewToolResultError(string(data))
		}
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", prefix, err))
}
