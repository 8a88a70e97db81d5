package proto

import (
	"testing"

	"google.golang.org/grpc/encoding"
)

func TestCodecIsRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	if c == nil {
		t.Fatal("json codec is not registered")
	}
	if c.Name() != CodecName {
		t.Fatalf("codec name = %q, want %q", c.Name(), CodecName)
	}
}

func TestCodec_UsesJSONFieldNames(t *testing.T) {
	b, err := Codec{}.Marshal(&RefreshTokenRequest{RefreshToken: "r"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"refreshToken":"r"}` {
		t.Fatalf("unexpected payload %s", b)
	}
}

func TestCodec_EmptyPayload(t *testing.T) {
	var req PingRequest
	if err := (Codec{}).Unmarshal(nil, &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCodec_Garbage(t *testing.T) {
	var req LoginRequest
	if err := (Codec{}).Unmarshal([]byte("{"), &req); err == nil {
		t.Fatal("expected an error for truncated JSON")
	}
}

func TestGetters_NilSafe(t *testing.T) {
	var r *AuthResponse
	if r.GetAccessToken() != "" || r.GetRole() != "" {
		t.Fatal("nil message getters must return zero values")
	}
}
