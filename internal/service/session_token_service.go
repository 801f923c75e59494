package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const wizardTokenType = "wizard"

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

// SessionTokenService emite y valida los tokens que atan un cliente HTTP a su sesion del wizard.
type SessionTokenService struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

type SessionClaims struct {
	SessionID string `json:"sid"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func NewSessionTokenService(secret string, ttl time.Duration) *SessionTokenService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SessionTokenService{
		secret: []byte(secret),
		ttl:    ttl,
		issuer: "svomo",
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// TTL es la vida del token; el store de sesiones usa la misma.
func (s *SessionTokenService) TTL() time.Duration {
	return s.ttl
}

func (s *SessionTokenService) Issue(sessionID string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(sessionID) == "" {
		return "", ErrJWTInvalid
	}
	now := s.now()
	claims := SessionClaims{
		SessionID: sessionID,
		TokenType: wizardTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Parse devuelve el id de sesion del token.
func (s *SessionTokenService) Parse(tokenString string) (string, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return "", ErrJWTInvalid
	}

	var claims SessionClaims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrJWTExpired
		}
		return "", ErrJWTInvalid
	}
	if claims.TokenType != wizardTokenType || claims.Issuer != s.issuer {
		return "", ErrJWTInvalid
	}
	if strings.TrimSpace(claims.SessionID) == "" || claims.Subject != claims.SessionID {
		return "", ErrJWTInvalid
	}
	return claims.SessionID, nil
}
