package grpc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

type harness struct {
	conn *grpc.ClientConn
	svc  *league.Service
	ps   *pubsub.PubSub
}

func newHarness(t *testing.T, loaded bool) harness {
	t.Helper()
	ps := pubsub.New()
	svc := league.New(dal.NewMemoryDAL(),
		feeds.NewStaticMarketFeed("demo", dal.DemoMarketSnapshot()), nil,
		league.Options{CurrentSeason: dal.DemoSeason, Bus: ps})
	if loaded {
		_, err := svc.Refresh(context.Background())
		require.NoError(t, err)
	}

	lis := bufconn.Listen(1 << 20)
	gs := grpc.NewServer(grpc.UnaryInterceptor(LoggingInterceptor))
	Register(gs, NewServer(svc, ps))
	go gs.Serve(lis)
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return harness{conn: conn, svc: svc, ps: ps}
}

func (h harness) call(t *testing.T, method string, req map[string]interface{}) (*structpb.Struct, error) {
	t.Helper()
	in, err := structpb.NewStruct(req)
	require.NoError(t, err)
	out := new(structpb.Struct)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err = h.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out)
	return out, err
}

func TestLookupValue(t *testing.T) {
	h := newHarness(t, true)

	out, err := h.call(t, "LookupValue", map[string]interface{}{"name": "josh allen"})
	require.NoError(t, err)
	assert.True(t, out.Fields["found"].GetBoolValue())
	assert.Equal(t, 9400.0, out.Fields["value"].GetNumberValue())
	assert.Equal(t, "Elite", out.Fields["tier"].GetStringValue())

	_, err = h.call(t, "LookupValue", map[string]interface{}{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLookupPick(t *testing.T) {
	h := newHarness(t, true)

	out, err := h.call(t, "LookupPick", map[string]interface{}{"season": 2026, "round": 1, "slot": 1})
	require.NoError(t, err)
	assert.Equal(t, "2026 1.01", out.Fields["label"].GetStringValue())
	assert.Positive(t, out.Fields["value"].GetNumberValue())

	_, err = h.call(t, "LookupPick", map[string]interface{}{"season": 2026})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestTeamCalls(t *testing.T) {
	h := newHarness(t, true)

	out, err := h.call(t, "ListTeams", nil)
	require.NoError(t, err)
	assert.Len(t, out.Fields["teams"].GetListValue().GetValues(), 6)

	out, err = h.call(t, "GetProfile", map[string]interface{}{"team_id": "1"})
	require.NoError(t, err)
	assert.Equal(t, "Gridiron Gurus", out.Fields["teamName"].GetStringValue())

	out, err = h.call(t, "FindTrades", map[string]interface{}{"team_id": "2", "mode": "rebuild"})
	require.NoError(t, err)
	assert.Equal(t, "rebuild", out.Fields["mode"].GetStringValue())
	assert.NotNil(t, out.Fields["proposals"].GetListValue())

	out, err = h.call(t, "GetRoadmap", map[string]interface{}{"team_id": "2"})
	require.NoError(t, err)
	assert.Equal(t, "Rebuild Rangers", out.Fields["teamName"].GetStringValue())

	_, err = h.call(t, "GetProfile", map[string]interface{}{"team_id": "404"})
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = h.call(t, "GetRoadmap", map[string]interface{}{})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	_, err = h.call(t, "FindTrades", map[string]interface{}{"team_id": "1", "mode": "sideways"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestNoCatalogIsFailedPrecondition(t *testing.T) {
	h := newHarness(t, false)
	_, err := h.call(t, "GetProfile", map[string]interface{}{"team_id": "1"})
	assert.Equal(t, codes.FailedPrecondition, status.Code(err))
}

func TestHealth(t *testing.T) {
	h := newHarness(t, false)
	resp, err := healthpb.NewHealthClient(h.conn).Check(context.Background(),
		&healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
}

func TestStreamEvents(t *testing.T) {
	h := newHarness(t, false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := h.conn.NewStream(ctx, &ServiceDesc.Streams[0], "/"+ServiceName+"/StreamEvents")
	require.NoError(t, err)
	require.NoError(t, stream.SendMsg(&emptypb.Empty{}))
	require.NoError(t, stream.CloseSend())

	require.Eventually(t, func() bool { return h.ps.SubscriberCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	_, err = h.svc.Refresh(context.Background())
	require.NoError(t, err)

	got := new(structpb.Struct)
	require.NoError(t, stream.RecvMsg(got))
	assert.Equal(t, pubsub.EventCatalogRefreshed, got.Fields["type"].GetStringValue())
	assert.Equal(t, "demo", got.Fields["payload"].GetStructValue().Fields["source"].GetStringValue())
}
