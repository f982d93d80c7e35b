// Package mcptools exposes the league service as MCP tools for assistant
// clients, over stdio or streamable HTTP.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
)

// LookupValueArgs is the input of lookup_value
type LookupValueArgs struct {
	Name string `json:"name" jsonschema:"Player name, any spelling or suffix"`
}

// PickValueArgs is the input of pick_value
type PickValueArgs struct {
	Season int `json:"season" jsonschema:"Draft season, e.g. 2026"`
	Round  int `json:"round" jsonschema:"Draft round, 1-based"`
	Slot   int `json:"slot,omitempty" jsonschema:"Slot within the round (0 = not yet known)"`
}

// TeamArgs identifies a team
type TeamArgs struct {
	TeamID string `json:"team_id" jsonschema:"League team id (required)"`
}

// FindTradesArgs is the input of find_trades
type FindTradesArgs struct {
	TeamID string `json:"team_id" jsonschema:"League team id (required)"`
	Mode   string `json:"mode,omitempty" jsonschema:"Override phase: tank|rebuild|retool|contend (default: classified phase)"`
}

// ListTeamsArgs takes no parameters
type ListTeamsArgs struct{}

// Tools holds the tool handlers
type Tools struct {
	league *league.Service
}

// NewServer builds an MCP server with every league tool registered
func NewServer(svc *league.Service, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "dynasty-trade-engine", Version: version}, nil)
	t := &Tools{league: svc}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "lookup_value",
		Description: "Market value and tier for a player name",
	}, t.LookupValue)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "pick_value",
		Description: "Market value of a draft pick by season, round and slot",
	}, t.PickValue)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_teams",
		Description: "Every team's profile with its classified phase",
	}, t.ListTeams)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "team_profile",
		Description: "Positional strength, weaknesses, pick capital and phase for one team",
	}, t.TeamProfile)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_trades",
		Description: "Ranked trade proposals for a team, fair within tolerance",
	}, t.FindTrades)
	mcp.AddTool(server, &mcp.Tool{
		Name:        "team_roadmap",
		Description: "Phase-specific action plan with buy and sell recommendations",
	}, t.TeamRoadmap)

	return server
}

// HTTPHandler serves server over streamable HTTP
func HTTPHandler(server *mcp.Server) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server {
		return server
	}, &mcp.StreamableHTTPOptions{JSONResponse: true})
}

// RunStdio serves over stdin/stdout until ctx is done or the client hangs up
func RunStdio(ctx context.Context, server *mcp.Server) error {
	logger.Info("MCP server listening on stdio")
	return server.Run(ctx, &mcp.StdioTransport{})
}

func (t *Tools) LookupValue(ctx context.Context, _ *mcp.CallToolRequest, args LookupValueArgs) (*mcp.CallToolResult, any, error) {
	if args.Name == "" {
		return toolError(fmt.Errorf("name is required")), nil, nil
	}
	return toolJSON(t.league.LookupValue(args.Name))
}

func (t *Tools) PickValue(ctx context.Context, _ *mcp.CallToolRequest, args PickValueArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.league.LookupPick(args.Season, args.Round, args.Slot))
}

func (t *Tools) ListTeams(ctx context.Context, _ *mcp.CallToolRequest, _ ListTeamsArgs) (*mcp.CallToolResult, any, error) {
	return toolJSON(t.league.Profiles(ctx))
}

func (t *Tools) TeamProfile(ctx context.Context, _ *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
	if args.TeamID == "" {
		return toolError(fmt.Errorf("team_id is required")), nil, nil
	}
	return toolJSON(t.league.Profile(ctx, args.TeamID))
}

func (t *Tools) FindTrades(ctx context.Context, _ *mcp.CallToolRequest, args FindTradesArgs) (*mcp.CallToolResult, any, error) {
	if args.TeamID == "" {
		return toolError(fmt.Errorf("team_id is required")), nil, nil
	}
	proposals, mode, err := t.league.Trades(ctx, args.TeamID, args.Mode)
	if err != nil {
		return toolError(err), nil, nil
	}
	return toolJSON(map[string]interface{}{
		"teamId":    args.TeamID,
		"mode":      mode,
		"proposals": proposals,
	}, nil)
}

func (t *Tools) TeamRoadmap(ctx context.Context, _ *mcp.CallToolRequest, args TeamArgs) (*mcp.CallToolResult, any, error) {
	if args.TeamID == "" {
		return toolError(fmt.Errorf("team_id is required")), nil, nil
	}
	return toolJSON(t.league.Roadmap(ctx, args.TeamID))
}

// toolJSON renders v as indented JSON text, or err as a tool error
func toolJSON[T any](v T, err error) (*mcp.CallToolResult, any, error) {
	if err != nil {
		return toolError(err), nil, nil
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError(err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(b)}},
	}, nil, nil
}

func toolError(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("error: %v", err)},
		},
	}
}
