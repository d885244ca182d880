// Package mcp exposes the explorer queries as Model Context Protocol tools over stdio.
package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/hyperjump/tfexplorer/internal/camera"
	"github.com/hyperjump/tfexplorer/internal/explorer"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "tfexplorer"

// NewServer builds an MCP server with every explorer tool registered.
func NewServer(engine *explorer.Engine, sanitizer *camera.Sanitizer, fallback camera.Pose, version string, logger *zap.Logger) (*mcpserver.MCPServer, *Handlers) {
	server := mcpserver.NewMCPServer(ServerName, version, mcpserver.WithToolCapabilities(false))
	handlers := RegisterTools(server, engine, sanitizer, fallback, logger)
	return server, handlers
}

// RegisterTools registers all tools on server and returns their handlers.
func RegisterTools(server *mcpserver.MCPServer, engine *explorer.Engine, sanitizer *camera.Sanitizer, fallback camera.Pose, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	if sanitizer == nil {
		sanitizer = camera.NewSanitizer(camera.MinDistance)
	}
	handlers := &Handlers{
		engine:    engine,
		sanitizer: sanitizer,
		fallback:  fallback,
		logger:    logger,
	}

	server.AddTool(mcp.Tool{
		Name:        "nearest_neighbors",
		Description: "Find the vocabulary words whose embeddings are most similar (cosine) to the given word.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"word": map[string]interface{}{
					"type":        "string",
					"description": "Vocabulary word to look up",
				},
				"top_n": map[string]interface{}{
					"type":        "number",
					"description": "Number of neighbors to return (default from configuration)",
				},
			},
			Required: []string{"word"},
		},
	}, handlers.NearestNeighbors)

	server.AddTool(mcp.Tool{
		Name:        "word_analogy",
		Description: "Solve \"a is to b as c is to ?\" by ranking words nearest to a - b + c.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"a": map[string]interface{}{
					"type":        "string",
					"description": "First word of the analogy (e.g. king)",
				},
				"b": map[string]interface{}{
					"type":        "string",
					"description": "Word subtracted from a (e.g. man)",
				},
				"c": map[string]interface{}{
					"type":        "string",
					"description": "Word added to the difference (e.g. woman)",
				},
				"top_n": map[string]interface{}{
					"type":        "number",
					"description": "Number of candidates to return",
				},
			},
			Required: []string{"a", "b", "c"},
		},
	}, handlers.WordAnalogy)

	server.AddTool(mcp.Tool{
		Name:        "tokenize",
		Description: "Split text into tokens using the live tokenizer or a curated pre-computed example.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to tokenize",
				},
			},
			Required: []string{"text"},
		},
	}, handlers.Tokenize)

	server.AddTool(mcp.Tool{
		Name:        "sanitize_camera",
		Description: "Validate a 3D camera pose and repair it when the eye collapses onto the center.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"candidate": map[string]interface{}{
					"type":        "object",
					"description": "Camera pose {eye, center, up}, each {x, y, z}; components may be missing",
				},
				"fallback": map[string]interface{}{
					"type":        "object",
					"description": "Complete pose used to fill missing values (default: configured camera)",
				},
			},
			Required: []string{"candidate"},
		},
	}, handlers.SanitizeCamera)

	return handlers
}
