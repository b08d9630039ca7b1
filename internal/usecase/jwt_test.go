package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/Louis-hue-lang/OrientaVision/config"
	"github.com/Louis-hue-lang/OrientaVision/internal/tokenverify"
)

func newTestTokenService(t *testing.T) *jwtTokenService {
	t.Helper()
	cfg := &config.Config{
		AccessSecret:  "test-access-secret",
		RefreshSecret: "test-refresh-secret",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    7 * 24 * time.Hour,
	}
	svc, err := NewTokenService(cfg)
	if err != nil {
		t.Fatalf("new token service: %v", err)
	}
	return svc.(*jwtTokenService)
}

func TestNewTokenServiceRejectsBadSecrets(t *testing.T) {
	if _, err := NewTokenService(&config.Config{AccessSecret: "", RefreshSecret: "x"}); err == nil {
		t.Fatal("expected error for empty access secret")
	}
	if _, err := NewTokenService(&config.Config{AccessSecret: "same", RefreshSecret: "same"}); err == nil {
		t.Fatal("expected error for shared secret")
	}
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	svc := newTestTokenService(t)

	pair, err := svc.Issue("alice", "staff")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.ParseAccess(pair.AccessToken)
	if err != nil {
		t.Fatalf("parse access: %v", err)
	}
	if claims.Username != "alice" || claims.Role != "staff" {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	username, err := svc.ParseRefresh(pair.RefreshToken)
	if err != nil {
		t.Fatalf("parse refresh: %v", err)
	}
	if username != "alice" {
		t.Fatalf("unexpected refresh subject: %s", username)
	}
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	svc := newTestTokenService(t)
	pair, err := svc.Issue("alice", "joueur")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.ParseAccess(pair.RefreshToken); !errors.Is(err, tokenverify.ErrInvalidToken) {
		t.Fatalf("refresh token accepted as access token: %v", err)
	}
	if _, err := svc.ParseRefresh(pair.AccessToken); !errors.Is(err, tokenverify.ErrInvalidToken) {
		t.Fatalf("access token accepted as refresh token: %v", err)
	}
}

func TestExpiredTokensRejected(t *testing.T) {
	svc := newTestTokenService(t)
	pair, err := svc.Issue("alice", "joueur")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(16 * time.Minute) }
	if _, err := svc.ParseAccess(pair.AccessToken); !errors.Is(err, tokenverify.ErrTokenExpired) {
		t.Fatalf("expected expired access token, got %v", err)
	}

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.ParseRefresh(pair.RefreshToken); !errors.Is(err, tokenverify.ErrTokenExpired) {
		t.Fatalf("expected expired refresh token, got %v", err)
	}
}

func TestDecodeUsernameBestEffort(t *testing.T) {
	svc := newTestTokenService(t)
	pair, err := svc.Issue("alice", "joueur")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if got := svc.DecodeUsername(pair.RefreshToken); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	// expired tokens still decode, logout stays best effort
	svc.now = func() time.Time { return time.Now().Add(30 * 24 * time.Hour) }
	if got := svc.DecodeUsername(pair.RefreshToken); got != "alice" {
		t.Fatalf("expected alice from expired token, got %q", got)
	}
	if got := svc.DecodeUsername("garbage"); got != "" {
		t.Fatalf("expected empty username for garbage, got %q", got)
	}
}
