package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const UserIDKey contextKey = "user_id"

// JWTConfig configures bearer token verification.
type JWTConfig struct {
	// SigningKey is the shared HS256 secret.
	SigningKey []byte
	// Issuer, when set, must match the iss claim.
	Issuer  string
	Skipper func(echo.Context) bool
}

// JWTMiddleware requires a valid HS256 bearer token and stores its subject
// on the request context.
func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			scheme, tokenStr, found := strings.Cut(authHeader, " ")
			if !found || !strings.EqualFold(scheme, "bearer") || tokenStr == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
			}

			claims := &jwt.RegisteredClaims{}
			token, err := parser.ParseWithClaims(strings.TrimSpace(tokenStr), claims, keyFunc)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token").SetInternal(err)
			}

			return next(withUser(c, claims.Subject))
		}
	}
}

// DevAuthMiddleware lets every request through as "dev-user".
func DevAuthMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(withUser(c, "dev-user"))
		}
	}
}

func withUser(c echo.Context, subject string) echo.Context {
	ctx := context.WithValue(c.Request().Context(), UserIDKey, subject)
	c.SetRequest(c.Request().WithContext(ctx))
	c.Set(string(UserIDKey), subject)
	return c
}

func UserIDFromContext(ctx context.Context) string {
	uid, _ := ctx.Value(UserIDKey).(string)
	return uid
}
