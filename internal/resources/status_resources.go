package resources

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/bird/internal/server"
)

const (
	IntegrationsURI = "bird://integrations"
	HealthURI       = "bird://health"

	mimeJSON = "application/json"
)

// IntegrationStatus is one element of the integrations resource.
type IntegrationStatus struct {
	Service    string `json:"service"`
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
	Reason     string `json:"reason,omitempty"`
}

// RegisterStatusResources registers the integrations and health resources.
func RegisterStatusResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	integrations := mcp.NewResource(
		IntegrationsURI,
		"Integrations",
		mcp.WithResourceDescription("Configured state of every integration. Nothing is probed."),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(integrations, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, integrationStatuses(sc))
	})

	healthResource := mcp.NewResource(
		HealthURI,
		"Health",
		mcp.WithResourceDescription("Connectivity of every integration, as reported by health_check"),
		mcp.WithMIMEType(mimeJSON),
	)
	s.AddResource(healthResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return jsonContents(request.Params.URI, map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  sc.Health().Check(ctx),
		})
	})

	return nil
}

func integrationStatuses(sc *server.ServerContext) []IntegrationStatus {
	entries := sc.Registry().Entries()
	out := make([]IntegrationStatus, 0, len(entries))
	for _, e := range entries {
		out = append(out, IntegrationStatus{
			Service:    e.Key,
			Name:       e.Name,
			Configured: e.Configured,
			Reason:     e.Reason,
		})
	}
	return out
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(data),
		},
	}, nil
}
