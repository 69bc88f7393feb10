package grpcapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/encounter-backend/internal/bestiary"
	"github.com/xtding233/encounter-backend/internal/encounter"
	"github.com/xtding233/encounter-backend/internal/party"
	"github.com/xtding233/encounter-backend/internal/service"
)

// Server implements EncounterServer on top of service.Service.
type Server struct {
	svc *service.Service
}

// NewServer wraps svc.
func NewServer(svc *service.Service) *Server {
	return &Server{svc: svc}
}

// NewGRPCServer builds a grpc.Server with the encounter and health
// services registered and unary calls logged.
func NewGRPCServer(svc *service.Service, logger *slog.Logger, opts ...grpc.ServerOption) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	s := grpc.NewServer(opts...)
	RegisterEncounterServer(s, NewServer(svc))

	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	return s, hs
}

func (s *Server) ComputeBudget(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	size, budget, err := s.svc.Budget(req)
	if err != nil {
		return nil, toStatus(err)
	}
	tier := req.Tier
	if !tier.Known() {
		tier = encounter.TierModerate
	}
	return structpb.NewStruct(map[string]any{
		"party_size": size,
		"tier":       tier.String(),
		"budget":     budget,
	})
}

func (s *Server) Generate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	enc, err := s.svc.Generate(ctx, req)
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(enc)
}

func (s *Server) Simulate(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := decodeRequest(in)
	if err != nil {
		return nil, err
	}
	trials, _, err := intField(in, "trials")
	if err != nil {
		return nil, err
	}
	report, err := s.svc.Simulate(ctx, service.SimRequest{Request: req, Trials: trials})
	if err != nil {
		return nil, toStatus(err)
	}
	return encodeStruct(report)
}

// decodeRequest reads the shared request fields. Defaults match the HTTP
// API: trivial tier and one creature.
func decodeRequest(in *structpb.Struct) (service.Request, error) {
	req := service.Request{Tier: encounter.TierTrivial, Count: 1}
	fields := in.GetFields()

	var err error
	if req.Players, err = stringsField(in, "players"); err != nil {
		return req, err
	}
	if req.Absent, err = stringsField(in, "absent"); err != nil {
		return req, err
	}
	if req.Packs, err = stringsField(in, "packs"); err != nil {
		return req, err
	}
	if req.PartySize, _, err = intField(in, "party_size"); err != nil {
		return req, err
	}
	if v, ok := fields["tier"]; ok {
		switch k := v.GetKind().(type) {
		case *structpb.Value_StringValue:
			req.Tier = encounter.ParseTier(k.StringValue)
		case *structpb.Value_NumberValue:
			req.Tier = encounter.ParseTier(strconv.FormatFloat(k.NumberValue, 'f', -1, 64))
		default:
			return req, invalidField("tier")
		}
	}
	if count, ok, err := intField(in, "count"); err != nil {
		return req, err
	} else if ok {
		req.Count = count
	}
	for key, dst := range map[string]**int{"min_level": &req.MinLevel, "max_level": &req.MaxLevel} {
		v, ok, err := intField(in, key)
		if err != nil {
			return req, err
		}
		if ok {
			*dst = &v
		}
	}
	if v, ok := fields["seed"]; ok {
		seed, err := seedValue(v)
		if err != nil {
			return req, err
		}
		req.Seed = &seed
	}
	return req, nil
}

func intField(in *structpb.Struct, key string) (int, bool, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return 0, false, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, false, invalidField(key)
		}
		return int(f), true, nil
	case *structpb.Value_StringValue:
		n, err := strconv.Atoi(strings.TrimSpace(k.StringValue))
		if err != nil {
			return 0, false, invalidField(key)
		}
		return n, true, nil
	default:
		return 0, false, invalidField(key)
	}
}

// stringsField accepts a list of strings or one comma separated string.
func stringsField(in *structpb.Struct, key string) ([]string, error) {
	v, ok := in.GetFields()[key]
	if !ok {
		return nil, nil
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		return party.ParseNames(k.StringValue), nil
	case *structpb.Value_ListValue:
		var out []string
		for _, item := range k.ListValue.GetValues() {
			s, ok := item.GetKind().(*structpb.Value_StringValue)
			if !ok {
				return nil, invalidField(key)
			}
			if name := strings.TrimSpace(s.StringValue); name != "" {
				out = append(out, name)
			}
		}
		return out, nil
	default:
		return nil, invalidField(key)
	}
}

// seedValue accepts a non-negative integral number or a decimal string;
// seeds above 2^53 must be sent as strings.
func seedValue(v *structpb.Value) (uint64, error) {
	switch k := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		f := k.NumberValue
		if f < 0 || f != math.Trunc(f) || f > 1<<53 {
			return 0, invalidField("seed")
		}
		return uint64(f), nil
	case *structpb.Value_StringValue:
		n, err := strconv.ParseUint(strings.TrimSpace(k.StringValue), 10, 64)
		if err != nil {
			return 0, invalidField("seed")
		}
		return n, nil
	default:
		return 0, invalidField("seed")
	}
}

func invalidField(key string) error {
	return status.Errorf(codes.InvalidArgument, "invalid %s", key)
}

// encodeStruct converts a JSON-tagged value into a Struct.
func encodeStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out := new(structpb.Struct)
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	switch {
	case service.IsInvalid(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, bestiary.ErrNoPacks):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		attrs := []any{
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"dur", time.Since(start).Round(time.Millisecond),
		}
		if err != nil && status.Code(err) == codes.Internal {
			logger.ErrorContext(ctx, "grpc", append(attrs, "err", fmt.Sprint(err))...)
		} else {
			logger.InfoContext(ctx, "grpc", attrs...)
		}
		return resp, err
	}
}
