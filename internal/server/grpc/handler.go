package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/validation"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.AuthResponse, error) {

	s.logger.Info(ctx, "Registration request", "username", req.GetUsername())

	if err := validation.Register(req.GetUsername(), req.GetEmail(), req.GetPassword()); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.auth.Register(ctx, req.GetUsername(), req.GetEmail(), req.GetPassword())
	if err != nil {
		return nil, toStatus(err)
	}

	s.logger.Info(ctx, "Registered", "username", result.UserName)
	return toResponse(result), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.AuthResponse, error) {

	s.logger.Info(ctx, "Login request", "username", req.GetUsername())

	if err := validation.Login(req.GetUsername(), req.GetPassword()); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.auth.Login(ctx, req.GetUsername(), req.GetPassword())
	if err != nil {
		return nil, toStatus(err)
	}

	return toResponse(result), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.AuthResponse, error) {

	if err := validation.Refresh(req.GetRefreshToken()); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.auth.Refresh(ctx, req.GetRefreshToken())
	if err != nil {
		return nil, toStatus(err)
	}

	return toResponse(result), nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {

	return &pb.PingResponse{Status: "OK"}, nil

}

func (s *GRPCServer) WhoAmI(ctx context.Context, req *pb.WhoAmIRequest) (*pb.WhoAmIResponse, error) {

	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Internal, "internal error")
	}

	return &pb.WhoAmIResponse{Username: p.UserName, Role: string(p.Role)}, nil
}

func toResponse(r *models.AuthResult) *pb.AuthResponse {
	return &pb.AuthResponse{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		Username:     r.UserName,
		Role:         string(r.Role),
	}
}

// toStatus maps a service error to a gRPC status. Domain messages go to
// the client as is; infrastructure details never do.
func toStatus(err error) error {
	switch common.KindOf(err) {
	case common.KindConflict:
		return status.Error(codes.AlreadyExists, err.Error())
	case common.KindUnauthorized:
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
		case errors.Is(err, common.ErrInvalidToken):
			return status.Error(codes.Unauthenticated, common.ErrInvalidToken.Error())
		}
		return status.Error(codes.Unauthenticated, err.Error())
	case common.KindForbidden:
		return status.Error(codes.PermissionDenied, "access denied")
	case common.KindValidation:
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
