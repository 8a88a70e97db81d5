package grpc

import (
	"context"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	pb "github.com/dmitrijs2005/gophauth/internal/proto"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// helper to build server
func newTestServer(a *fakeAuth) *GRPCServer {
	s, _ := NewgGRPCServer("127.0.0.1:0", nopLogger{}, a)
	return s
}

func withToken(token string) context.Context {
	md := metadata.New(map[string]string{
		common.AccessTokenHeaderName: token,
	})
	return metadata.NewIncomingContext(context.Background(), md)
}

var whoAmIInfo = &grpc.UnaryServerInfo{FullMethod: pb.AuthService_WhoAmI_FullMethodName}

func TestInterceptor_PublicMethod_AllowsWithoutToken(t *testing.T) {
	s := newTestServer(&fakeAuth{})

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: pb.AuthService_Login_FullMethodName}
	handlerCalled := false

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		handlerCalled = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(ctx, nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handlerCalled {
		t.Fatal("handler was not called")
	}
	if resp != "ok" {
		t.Fatalf("unexpected handler resp: %v", resp)
	}
}

func TestInterceptor_Protected_MissingToken(t *testing.T) {
	s := newTestServer(&fakeAuth{})

	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, whoAmIInfo, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_Protected_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{"invalid", fmt.Errorf("%w: bad signature", common.ErrInvalidToken), codes.Unauthenticated, "invalid token"},
		{"expired", fmt.Errorf("%w: %w", common.ErrInvalidToken, common.ErrTokenExpired), codes.Unauthenticated, "token expired"},
		{"forbidden", common.ErrorForbidden, codes.PermissionDenied, "access denied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(&fakeAuth{authorizeErr: tt.err})

			h := func(ctx context.Context, req interface{}) (interface{}, error) {
				t.Fatal("handler should not be called")
				return nil, nil
			}

			_, err := s.accessTokenInterceptor(withToken("tok"), nil, whoAmIInfo, h)
			if status.Code(err) != tt.code {
				t.Fatalf("want %v, got %v", tt.code, status.Code(err))
			}
			if status.Convert(err).Message() != tt.message {
				t.Fatalf("want message %q, got %q", tt.message, status.Convert(err).Message())
			}
		})
	}
}

func TestInterceptor_Protected_ValidToken_SetsPrincipal(t *testing.T) {
	want := models.Principal{UserName: "bob", Role: models.RoleUser}
	a := &fakeAuth{principal: want}
	s := newTestServer(a)

	var got models.Principal
	h := func(ctx context.Context, req interface{}) (interface{}, error) {
		var ok bool
		got, ok = PrincipalFromContext(ctx)
		if !ok {
			t.Fatal("principal not propagated in context")
		}
		return "ok", nil
	}

	if _, err := s.accessTokenInterceptor(withToken("tok"), nil, whoAmIInfo, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("principal = %+v, want %+v", got, want)
	}
	if a.gotToken != "tok" || a.gotRole != models.RoleUser {
		t.Fatalf("Authorize called with %q/%q", a.gotToken, a.gotRole)
	}
}
