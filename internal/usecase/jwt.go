package usecase

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Louis-hue-lang/OrientaVision/config"
	"github.com/Louis-hue-lang/OrientaVision/internal/tokenverify"
)

// AccessClaims is the verified identity carried by an access token. The
// role here is the role at issuance time; privileged paths re-read the
// current role from the store.
type AccessClaims struct {
	Username string
	Role     string
}

type TokenPair struct {
	AccessToken    string
	RefreshToken   string
	RefreshExpires time.Time
}

// TokenService mints and verifies the two token kinds. Access and refresh
// tokens are signed with distinct secrets so a leak of one cannot forge
// the other.
type TokenService interface {
	Issue(username, role string) (*TokenPair, error)
	Parse(token string) (*jwt.Token, jwt.MapClaims, error)
	ParseAccess(token string) (*AccessClaims, error)
	ParseRefresh(token string) (string, error)
	DecodeUsername(token string) string
}

type accessTokenClaims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type refreshTokenClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

type jwtTokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenService(cfg *config.Config) (TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("token secrets not configured")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	return &jwtTokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		now:           time.Now,
	}, nil
}

func (s *jwtTokenService) Issue(username, role string) (*TokenPair, error) {
	now := s.now()

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, accessTokenClaims{
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	accessToken, err := access.SignedString(s.accessSecret)
	if err != nil {
		return nil, err
	}

	refreshExp := now.Add(s.refreshTTL)
	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, refreshTokenClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(refreshExp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	refreshToken, err := refresh.SignedString(s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: accessToken, RefreshToken: refreshToken, RefreshExpires: refreshExp}, nil
}

// Parse validates token against the access secret and returns its raw
// claims. Satisfies tokenverify.Parser.
func (s *jwtTokenService) Parse(token string) (*jwt.Token, jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, nil, err
	}
	return tok, claims, nil
}

func (s *jwtTokenService) ParseAccess(token string) (*AccessClaims, error) {
	claims := &accessTokenClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, tokenverify.ErrTokenExpired
		}
		return nil, tokenverify.ErrInvalidToken
	}
	if !tok.Valid || claims.Username == "" {
		return nil, tokenverify.ErrInvalidToken
	}
	return &AccessClaims{Username: claims.Username, Role: claims.Role}, nil
}

func (s *jwtTokenService) ParseRefresh(token string) (string, error) {
	claims := &refreshTokenClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return s.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", tokenverify.ErrTokenExpired
		}
		return "", tokenverify.ErrInvalidToken
	}
	if !tok.Valid || claims.Username == "" {
		return "", tokenverify.ErrInvalidToken
	}
	return claims.Username, nil
}

// DecodeUsername extracts the username claim without verifying the
// signature. Only logout uses it, best effort.
func (s *jwtTokenService) DecodeUsername(token string) string {
	claims := &refreshTokenClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return ""
	}
	return claims.Username
}
