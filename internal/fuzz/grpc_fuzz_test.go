package fuzz

import (
	"context"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"

	grpcserver "github.com/ahennings5-ai/andrews-sandbox-sub000/internal/grpc"
)

// FuzzGRPCFindTrades fuzzes the gRPC FindTrades endpoint
func FuzzGRPCFindTrades(f *testing.F) {
	f.Add("1", "contend")
	f.Add("2", "")
	f.Add("999", "tank")
	f.Add("", "win-now")

	svc, ps := loadedLeague(f)
	server := grpcserver.NewServer(svc, ps)

	f.Fuzz(func(t *testing.T, teamID, mode string) {
		req, err := structpb.NewStruct(map[string]interface{}{"team_id": teamID, "mode": mode})
		if err != nil {
			// invalid UTF-8 cannot be carried in a Struct
			return
		}
		_, _ = server.FindTrades(context.Background(), req)
	})
}

// FuzzGRPCLookupPick fuzzes the gRPC LookupPick endpoint
func FuzzGRPCLookupPick(f *testing.F) {
	f.Add(2026.0, 1.0, 3.0)
	f.Add(2027.0, 2.0, 0.0)
	f.Add(-1.0, 1e300, -5.0)

	svc, ps := loadedLeague(f)
	server := grpcserver.NewServer(svc, ps)

	f.Fuzz(func(t *testing.T, season, round, slot float64) {
		req, err := structpb.NewStruct(map[string]interface{}{"season": season, "round": round, "slot": slot})
		if err != nil {
			return
		}
		out, err := server.LookupPick(context.Background(), req)
		if err == nil && out.Fields["value"].GetNumberValue() < 0 {
			t.Fatalf("negative pick value for %v/%v/%v", season, round, slot)
		}
	})
}

// FuzzGRPCLookupValue fuzzes the gRPC LookupValue endpoint
func FuzzGRPCLookupValue(f *testing.F) {
	f.Add("Josh Allen")
	f.Add("marvin harrison jr.")
	f.Add("")

	svc, ps := loadedLeague(f)
	server := grpcserver.NewServer(svc, ps)

	f.Fuzz(func(t *testing.T, name string) {
		req, err := structpb.NewStruct(map[string]interface{}{"name": name})
		if err != nil {
			return
		}
		_, _ = server.LookupValue(context.Background(), req)
	})
}
