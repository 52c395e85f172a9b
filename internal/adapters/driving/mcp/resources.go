package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for assistant resources.
const uriScheme = "sercha-assist://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "stats",
		Name:        "stats",
		Description: "Statistics of the loaded embedding table",
		MIMEType:    "application/json",
	}, s.handleStatsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "sources/{name}",
		Name:        "source",
		Description: "Chunk counts for one indexed document",
		MIMEType:    "application/json",
	}, s.handleSourceResource)
}

func (s *Server) handleStatsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	stats, err := s.ports.Assistant.Stats(ctx)
	if err != nil {
		return nil, toolError(err)
	}
	return jsonResource(req.Params.URI, stats)
}

func (s *Server) handleSourceResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	name := extractSourceName(req.Params.URI)
	if name == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	stats, err := s.ports.Assistant.Stats(ctx)
	if err != nil {
		return nil, toolError(err)
	}
	for _, doc := range stats.Documents {
		if doc.Source == name {
			return jsonResource(req.Params.URI, doc)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractSourceName extracts the document name from sercha-assist://sources/{name}.
func extractSourceName(uri string) string {
	const prefix = uriScheme + "sources/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}

