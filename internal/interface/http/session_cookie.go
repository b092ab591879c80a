package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/yanqian/kundali-web/internal/domain/session"
	"github.com/yanqian/kundali-web/internal/infra/config"
)

const sessionIDKey = "session_id"

var errInvalidSessionToken = errors.New("invalid session token")

// SessionCookies issues and verifies the signed session cookie.
type SessionCookies struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

type sessionClaims struct {
	jwt.RegisteredClaims
}

// NewSessionCookies builds the cookie codec from config.
func NewSessionCookies(cfg config.SessionConfig) *SessionCookies {
	return &SessionCookies{
		name:   cfg.CookieName,
		secret: []byte(cfg.Secret),
		ttl:    cfg.TTL,
		secure: cfg.Secure,
		now:    time.Now,
	}
}

func (s *SessionCookies) sign(id string) (string, error) {
	now := s.now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *SessionCookies) parse(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", errInvalidSessionToken, err)
	}
	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return "", errInvalidSessionToken
	}
	return claims.Subject, nil
}

// middleware resolves the session id, minting a new session when the cookie
// is missing, expired or forged.
func (s *SessionCookies) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ""
		if raw, err := c.Cookie(s.name); err == nil && raw != "" {
			if parsed, err := s.parse(raw); err == nil {
				id = parsed
			}
		}
		if id == "" {
			id = session.NewID()
		}
		token, err := s.sign(id)
		if err != nil {
			abortWithError(c, NewHTTPError(http.StatusInternalServerError, "session_error", "failed to issue session", err))
			return
		}
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(s.name, token, int(s.ttl.Seconds()), "/", "", s.secure, true)
		c.Set(sessionIDKey, id)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}
