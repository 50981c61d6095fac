package serverutils

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	SessionCookieName = "assistant_session"
	SessionLocalsKey  = "session_id"

	sessionTTL = 30 * 24 * time.Hour
)

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// SignSession issues the cookie value for sessionID.
func SignSession(secret []byte, sessionID string) (string, error) {
	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSession returns the session id carried by a signed cookie value.
func ParseSession(secret []byte, tokenStr string) (string, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid session token")
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", errors.New("invalid session id")
	}
	return claims.SessionID, nil
}

// SessionMiddleware resolves the caller's session from the signed cookie,
// issuing a fresh one when it is missing or invalid. Requests are never
// rejected.
func SessionMiddleware(secret string, secure bool) fiber.Handler {
	key := []byte(secret)
	return func(ctx *fiber.Ctx) error {
		sessionID, err := ParseSession(key, ctx.Cookies(SessionCookieName))
		if err != nil {
			sessionID = uuid.NewString()
			signed, signErr := SignSession(key, sessionID)
			if signErr == nil {
				ctx.Cookie(&fiber.Cookie{
					Name:     SessionCookieName,
					Value:    signed,
					Path:     "/",
					Expires:  time.Now().Add(sessionTTL),
					HTTPOnly: true,
					Secure:   secure,
					SameSite: fiber.CookieSameSiteLaxMode,
				})
			}
		}

		ctx.Locals(SessionLocalsKey, sessionID)
		return ctx.Next()
	}
}

// SessionID reads the id stored by SessionMiddleware.
func SessionID(ctx *fiber.Ctx) string {
	if id, ok := ctx.Locals(SessionLocalsKey).(string); ok {
		return id
	}
	return ""
}
