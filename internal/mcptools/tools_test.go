package mcptools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

func newLeague(t *testing.T) *league.Service {
	t.Helper()
	svc := league.New(dal.NewMemoryDAL(),
		feeds.NewStaticMarketFeed("demo", dal.DemoMarketSnapshot()), nil,
		league.Options{CurrentSeason: dal.DemoSeason})
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestToolHandlers(t *testing.T) {
	tools := &Tools{league: newLeague(t)}
	ctx := context.Background()

	t.Run("LookupValue", func(t *testing.T) {
		res, _, err := tools.LookupValue(ctx, nil, LookupValueArgs{Name: "Josh Allen"})
		require.NoError(t, err)
		require.False(t, res.IsError)
		var got league.ValueLookup
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
		assert.Equal(t, 9400, got.Value)
	})

	t.Run("MissingName", func(t *testing.T) {
		res, _, err := tools.LookupValue(ctx, nil, LookupValueArgs{})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("PickValue", func(t *testing.T) {
		res, _, err := tools.PickValue(ctx, nil, PickValueArgs{Season: 2027, Round: 1})
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Contains(t, text(t, res), `"label": "2027 Round 1"`)

		res, _, err = tools.PickValue(ctx, nil, PickValueArgs{Season: 2027})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("ListTeams", func(t *testing.T) {
		res, _, err := tools.ListTeams(ctx, nil, ListTeamsArgs{})
		require.NoError(t, err)
		var got []models.TeamProfile
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
		assert.Len(t, got, 6)
	})

	t.Run("TeamProfileNotFound", func(t *testing.T) {
		res, _, err := tools.TeamProfile(ctx, nil, TeamArgs{TeamID: "77"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, text(t, res), "error:")
	})

	t.Run("FindTradesBadMode", func(t *testing.T) {
		res, _, err := tools.FindTrades(ctx, nil, FindTradesArgs{TeamID: "1", Mode: "panic"})
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("TeamRoadmap", func(t *testing.T) {
		res, _, err := tools.TeamRoadmap(ctx, nil, TeamArgs{TeamID: "2"})
		require.NoError(t, err)
		var got models.Roadmap
		require.NoError(t, json.Unmarshal([]byte(text(t, res)), &got))
		assert.Equal(t, "Rebuild Rangers", got.TeamName)
	})
}

func TestServerOverInMemoryTransport(t *testing.T) {
	ctx := context.Background()
	server := NewServer(newLeague(t), "test")

	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	defer ss.Close()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	defer cs.Close()

	list, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	names := make([]string, 0, len(list.Tools))
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"lookup_value", "pick_value", "list_teams", "team_profile", "find_trades", "team_roadmap"}, names)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{
		Name:      "find_trades",
		Arguments: map[string]any{"team_id": "2", "mode": "rebuild"},
	})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, text(t, res), `"mode": "rebuild"`)
}
