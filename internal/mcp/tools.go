package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listServicesTool defines the list_services MCP tool.
var listServicesTool = mcp.NewTool("list_services",
	mcp.WithDescription("List all services in the dependency graph, with their repository, language and placeholder status."),
	mcp.WithString("query",
		mcp.Description("Optional name fragment to filter services by"),
	),
)

// whoCallsTool defines the who_calls MCP tool.
var whoCallsTool = mcp.NewTool("who_calls",
	mcp.WithDescription("List the services that call a given service, with the method, URL or topic of each edge."),
	mcp.WithString("service",
		mcp.Required(),
		mcp.Description("Name of the service being called"),
	),
)

// impactAnalysisTool defines the impact_analysis MCP tool.
var impactAnalysisTool = mcp.NewTool("impact_analysis",
	mcp.WithDescription("Compute the blast radius of a service failing: direct dependents plus one cascade hop."),
	mcp.WithString("service",
		mcp.Description("Name of the seed service"),
	),
	mcp.WithString("log",
		mcp.Description("Raw error-log text to extract the seed service from, used when no service name is given"),
	),
)

// askGraphTool defines the ask_graph MCP tool.
var askGraphTool = mcp.NewTool("ask_graph",
	mcp.WithDescription("Answer a natural-language question about the dependency graph: who calls X, what uses topic T, top N by in-degree, reachability within N hops."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer"),
	),
)
