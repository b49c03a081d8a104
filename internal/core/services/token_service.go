package services

import (
	"context"
	"errors"
	"time"

	"ourscreen/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/livekit/protocol/auth"
	"go.uber.org/zap"
)

var (
	ErrMissingConfig = errors.New("missing media service credentials")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token expired")
)

// fallbackTokenTTL is the fixed validity window of locally signed tokens.
// The SDK path uses the configured TTL instead.
const fallbackTokenTTL = 24 * time.Hour

// VideoGrant is the fixed capability set embedded in every credential:
// join the room, publish, subscribe, publish data. Host and guest receive
// the identical grant; the host role is advisory and lives in the
// participant document, not in the credential.
type VideoGrant struct {
	Room           string `json:"room"`
	RoomJoin       bool   `json:"roomJoin"`
	CanPublish     bool   `json:"canPublish"`
	CanSubscribe   bool   `json:"canSubscribe"`
	CanPublishData bool   `json:"canPublishData"`
}

// AccessClaims is the claim set of an issued credential as seen by the
// sync gateway's verifier.
type AccessClaims struct {
	Video VideoGrant `json:"video"`
	jwt.RegisteredClaims
}

// Identity returns the participant identity carried by the claims. The
// vendor SDK writes it to both sub and jti; the fallback signer to sub.
func (c *AccessClaims) Identity() string {
	if c.Subject != "" {
		return c.Subject
	}
	return c.ID
}

type TokenService interface {
	Mint(ctx context.Context, room, identity, name string) (string, error)
	Verify(tokenString string) (*AccessClaims, error)
	ServiceURL() string
	HasConfig() bool
	SetFallbackRecorder(FallbackRecorder)
}

// FallbackRecorder counts tokens produced by the fallback signer.
type FallbackRecorder interface {
	RecordTokenFallback()
}

type tokenService struct {
	apiKey    string
	apiSecret string
	url       string
	tokenTTL  time.Duration
	logger    *zap.SugaredLogger
	fallbacks FallbackRecorder

	now func() time.Time
}

// NewTokenService creates a token service from the passed-in configuration.
// Credential presence is checked per mint, not at construction, so the
// process can start without credentials and fail closed on use.
func NewTokenService(cfg *config.Config, logger *zap.SugaredLogger) TokenService {
	return &tokenService{
		apiKey:    cfg.LiveKit.APIKey,
		apiSecret: cfg.LiveKit.APISecret,
		url:       cfg.LiveKit.URL,
		tokenTTL:  cfg.LiveKit.TokenTTL,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *tokenService) ServiceURL() string {
	return s.url
}

func (s *tokenService) HasConfig() bool {
	return s.apiKey != "" && s.apiSecret != "" && s.url != ""
}

// Mint produces a signed credential for one room join. The primary path
// delegates to the vendor SDK's token builder; if that fails the fallback
// signer produces the same compact serialization locally.
func (s *tokenService) Mint(ctx context.Context, room, identity, name string) (string, error) {
	if !s.HasConfig() {
		return "", ErrMissingConfig
	}

	token, err := s.mintSDK(room, identity, name)
	if err == nil {
		s.logger.Debugw("minted access token", "room", room, "identity", identity)
		return token, nil
	}

	s.logger.Warnw("sdk token generation failed, using fallback signer",
		"room", room,
		"identity", identity,
		"error", err,
	)

	token, fbErr := s.mintFallback(room, identity)
	if fbErr != nil {
		// Report the original SDK failure; the fallback error is secondary
		s.logger.Errorw("fallback signer failed", "error", fbErr)
		return "", err
	}
	if s.fallbacks != nil {
		s.fallbacks.RecordTokenFallback()
	}
	return token, nil
}

// SetFallbackRecorder wires the metrics counter for fallback-signed tokens.
func (s *tokenService) SetFallbackRecorder(r FallbackRecorder) {
	s.fallbacks = r
}

func (s *tokenService) mintSDK(room, identity, name string) (string, error) {
	grant := &auth.VideoGrant{
		Room:     room,
		RoomJoin: true,
	}
	grant.SetCanPublish(true)
	grant.SetCanSubscribe(true)
	grant.SetCanPublishData(true)

	at := auth.NewAccessToken(s.apiKey, s.apiSecret).
		SetIdentity(identity).
		SetName(name).
		SetValidFor(s.tokenTTL).
		AddGrant(grant)

	return at.ToJWT()
}

// mintFallback signs the compact token locally: HS256 over
// {iss, nbf, exp, sub, video} with unpadded base64url segments, matching
// the vendor serialization byte for byte.
func (s *tokenService) mintFallback(room, identity string) (string, error) {
	now := s.now()

	claims := &AccessClaims{
		Video: VideoGrant{
			Room:           room,
			RoomJoin:       true,
			CanPublish:     true,
			CanSubscribe:   true,
			CanPublishData: true,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.apiKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(fallbackTokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.apiSecret))
}

// Verify parses and validates a credential issued by either path.
func (s *tokenService) Verify(tokenString string) (*AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(s.apiSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	if claims, ok := token.Claims.(*AccessClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
