package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/meshmap/internal/graph"
	"github.com/ziadkadry99/meshmap/internal/impact"
	"github.com/ziadkadry99/meshmap/internal/query"
)

// handleListServices lists graph services, optionally filtered by name.
func (s *Server) handleListServices(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		services []graph.Service
		err      error
	)
	if q := request.GetString("query", ""); q != "" {
		services, err = s.graphs.SearchServicesByName(ctx, q)
	} else {
		services, err = s.graphs.ListServices(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing services failed: %v", err)), nil
	}

	if len(services) == 0 {
		return mcp.NewToolResultText("No services found. Run `meshmap scan` to populate the graph."), nil
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Found %d service(s):\n", len(services)))
	for _, svc := range services {
		sb.WriteString(fmt.Sprintf("- %s", svc.Name))
		if svc.Language != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", svc.Language))
		}
		if svc.Placeholder {
			sb.WriteString(" [placeholder]")
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleWhoCalls answers "who calls service X" through the query engine.
func (s *Server) handleWhoCalls(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	service, err := request.RequireString("service")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: service"), nil
	}

	res, err := s.engine.Ask(ctx, "who calls "+service)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatQueryResult(res)), nil
}

// handleImpactAnalysis computes a blast radius from a service name or an
// error log.
func (s *Server) handleImpactAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	service := request.GetString("service", "")
	logText := request.GetString("log", "")
	if service == "" && logText == "" {
		return mcp.NewToolResultError("either service or log must be provided"), nil
	}

	var (
		res *impact.Result
		err error
	)
	if service != "" {
		res, err = s.analyzer.AnalyzeService(ctx, service)
	} else {
		res, err = s.analyzer.AnalyzeLog(ctx, logText)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("impact analysis failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatImpactResult(res)), nil
}

// handleAskGraph dispatches a free-form question to the query engine.
func (s *Server) handleAskGraph(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	res, err := s.engine.Ask(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
	}
	return mcp.NewToolResultText(formatQueryResult(res)), nil
}

// formatImpactResult renders an impact result as text for agent consumption.
func formatImpactResult(res *impact.Result) string {
	var sb strings.Builder

	if res.NotFound {
		sb.WriteString("Service not found.")
		if len(res.KnownServices) > 0 {
			sb.WriteString(" Known services: ")
			sb.WriteString(strings.Join(res.KnownServices, ", "))
		}
		return sb.String()
	}

	if res.Seed != nil {
		sb.WriteString(fmt.Sprintf("Blast radius of %s:\n", res.Seed.Name))
	}
	if len(res.Direct) == 0 && len(res.Cascade) == 0 {
		sb.WriteString("No dependents found.\n")
	}
	for _, d := range res.Direct {
		sb.WriteString(fmt.Sprintf("- %s %s", d.Name, d.Reason))
		if d.Detail != "" {
			sb.WriteString(fmt.Sprintf(" (%s %s)", d.Kind, d.Detail))
		}
		sb.WriteString("\n")
	}
	for _, c := range res.Cascade {
		sb.WriteString(fmt.Sprintf("- %s affected via %s\n", c.Name, c.Via))
	}
	if res.Reasoning != "" {
		sb.WriteString(res.Reasoning)
		sb.WriteString("\n")
	}
	return sb.String()
}

// formatQueryResult renders a query result as text for agent consumption.
func formatQueryResult(res *query.Result) string {
	var sb strings.Builder

	if res.Message != "" {
		sb.WriteString(res.Message)
		sb.WriteString("\n")
	}
	for _, c := range res.Callers {
		sb.WriteString(fmt.Sprintf("- %s (%s", c.ServiceName, c.Kind))
		if c.Method != "" {
			sb.WriteString(" " + c.Method)
		}
		if c.URL != "" {
			sb.WriteString(" " + c.URL)
		}
		sb.WriteString(")\n")
	}
	for _, e := range res.TopicEdges {
		sb.WriteString(fmt.Sprintf("- %s -> %s on topic %s\n", e.Source, e.Target, e.Topic))
	}
	for _, t := range res.Topics {
		sb.WriteString(fmt.Sprintf("- topic %s\n", t))
	}
	for _, d := range res.Degrees {
		sb.WriteString(fmt.Sprintf("- %s (in-degree %d)\n", d.ServiceName, d.InDegree))
	}
	for _, r := range res.Reachable {
		sb.WriteString(fmt.Sprintf("- %s\n", r))
	}
	if sb.Len() == 0 {
		sb.WriteString("No results.\n")
	}
	return sb.String()
}
