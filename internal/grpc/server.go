package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

// ServiceName is the fully qualified gRPC service name
const ServiceName = "dynasty.v1.DynastyService"

// DynastyServer is the gRPC surface over the league service. Requests and
// responses are google.protobuf.Struct documents carrying the same JSON
// shapes as the HTTP API.
type DynastyServer interface {
	LookupValue(context.Context, *structpb.Struct) (*structpb.Struct, error)
	LookupPick(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTeams(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProfile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FindTrades(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRoadmap(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamEvents(*emptypb.Empty, grpc.ServerStream) error
}

// Server implements DynastyServer
type Server struct {
	league *league.Service
	pubsub *pubsub.PubSub
}

// NewServer creates a new gRPC server
func NewServer(svc *league.Service, ps *pubsub.PubSub) *Server {
	return &Server{
		league: svc,
		pubsub: ps,
	}
}

// Register adds the dynasty service and a health service to gs. The
// returned health server reports SERVING for the dynasty service.
func Register(gs *grpc.Server, srv *Server) *health.Server {
	gs.RegisterService(&ServiceDesc, srv)
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return hs
}

// LoggingInterceptor logs every unary call with its duration and status code
func LoggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	code := status.Code(err)
	if code == codes.Internal {
		logger.Error("gRPC: call failed", "method", info.FullMethod, "error", err)
	} else {
		logger.Debug("gRPC: call", "method", info.FullMethod, "code", code.String(), "duration", time.Since(start))
	}
	return resp, err
}

// LookupValue resolves {name} to its market value
func (s *Server) LookupValue(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	name := stringField(req, "name")
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "name is required")
	}
	v, err := s.league.LookupValue(name)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(v)
}

// LookupPick values {season, round, slot}
func (s *Server) LookupPick(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	p, err := s.league.LookupPick(intField(req, "season"), intField(req, "round"), intField(req, "slot"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

// ListTeams returns {teams} with every classified profile
func (s *Server) ListTeams(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	profiles, err := s.league.Profiles(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{"teams": profiles})
}

// GetProfile returns the profile of {team_id}
func (s *Server) GetProfile(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := teamID(req)
	if err != nil {
		return nil, err
	}
	p, err := s.league.Profile(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(p)
}

// FindTrades returns proposals for {team_id}, optionally overriding {mode}
func (s *Server) FindTrades(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := teamID(req)
	if err != nil {
		return nil, err
	}
	logger.Info("gRPC: Finding trades", "team_id", id, "mode", stringField(req, "mode"))
	proposals, mode, err := s.league.Trades(ctx, id, stringField(req, "mode"))
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(map[string]interface{}{
		"teamId":    id,
		"mode":      mode,
		"proposals": proposals,
	})
}

// GetRoadmap returns the roadmap of {team_id}
func (s *Server) GetRoadmap(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := teamID(req)
	if err != nil {
		return nil, err
	}
	rm, err := s.league.Roadmap(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(rm)
}

// StreamEvents streams bus events to clients
func (s *Server) StreamEvents(_ *emptypb.Empty, stream grpc.ServerStream) error {
	logger.Debug("gRPC: New client connected to event stream")
	eventChan := s.pubsub.Subscribe()
	defer s.pubsub.Unsubscribe(eventChan)

	for {
		select {
		case event, ok := <-eventChan:
			if !ok {
				return nil
			}
			msg, err := toStruct(event)
			if err != nil {
				logger.Error("gRPC: Failed to encode event", "error", err, "event_type", event.Type)
				continue
			}
			if err := stream.SendMsg(msg); err != nil {
				logger.Error("gRPC: Failed to send event to stream", "error", err)
				return err
			}
		case <-stream.Context().Done():
			logger.Debug("gRPC: Client disconnected from event stream")
			return nil
		}
	}
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, dal.ErrTeamNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, league.ErrInvalidMode), errors.Is(err, league.ErrInvalidPick):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, league.ErrNoCatalog):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, feeds.ErrFeedUnavailable):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func teamID(req *structpb.Struct) (string, error) {
	id := stringField(req, "team_id")
	if id == "" {
		return "", status.Error(codes.InvalidArgument, "team_id is required")
	}
	return id, nil
}

func stringField(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return k.StringValue
	case *structpb.Value_NumberValue:
		return fmt.Sprint(k.NumberValue)
	}
	return ""
}

// intField reads a numeric field; missing or non-numeric fields read as 0
func intField(req *structpb.Struct, key string) int {
	return int(req.GetFields()[key].GetNumberValue())
}

// toStruct converts v through its JSON form so the gRPC and HTTP shapes match
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, err.Error())
	}
	return out, nil
}
