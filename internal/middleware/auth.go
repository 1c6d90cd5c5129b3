// Package middleware provides authentication, logging, metrics and tracing middleware.
package middleware

import (
	"context"
	"strconv"
	"strings"
	"time"

	"murmur/internal/config"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const principalLocal = "principal"

// PrincipalResolver turns request credentials into the acting principal.
type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// Claims is the token shape the resolver accepts. Tokens are issued elsewhere.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens signed with the configured secret.
type JWTResolver struct {
	secret []byte
}

// NewJWTResolver builds a resolver from explicit configuration.
func NewJWTResolver(cfg *config.Config) *JWTResolver {
	return &JWTResolver{secret: []byte(cfg.JWTSecret)}
}

// Issue signs a token for principal valid for ttl.
func (r *JWTResolver) Issue(principal models.Principal, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: principal.Username,
		Role:     string(principal.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(principal.ID), 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// Resolve validates the token and returns the principal it names.
func (r *JWTResolver) Resolve(_ context.Context, tokenString string) (models.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, models.NewUnauthenticatedError("Invalid signing method")
		}
		return r.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return models.Principal{}, models.NewUnauthenticatedError("Invalid or expired token")
	}

	// Subject carries the user ID per RFC 7519
	userID, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || userID == 0 {
		return models.Principal{}, models.NewUnauthenticatedError("Invalid user ID in token")
	}
	if claims.Username == "" {
		return models.Principal{}, models.NewUnauthenticatedError("Invalid token structure - missing username")
	}

	role := models.Role(claims.Role)
	if role == "" {
		role = models.RoleUser
	}
	if !role.Valid() {
		return models.Principal{}, models.NewUnauthenticatedError("Invalid role in token")
	}

	return models.Principal{
		ID:       uint(userID),
		Username: claims.Username,
		Role:     role,
	}, nil
}

// Auth enforces authentication on protected routes.
type Auth struct {
	resolver PrincipalResolver
}

// NewAuth returns auth middleware backed by resolver.
func NewAuth(resolver PrincipalResolver) *Auth {
	return &Auth{resolver: resolver}
}

// Required is a middleware that enforces authentication for protected routes.
func (a *Auth) Required(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Authorization header required"))
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthenticatedError("Invalid authorization header format"))
	}

	principal, err := a.resolver.Resolve(c.UserContext(), parts[1])
	if err != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	}

	c.Locals(principalLocal, principal)
	c.Locals("userID", principal.ID)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, principal.ID))

	return c.Next()
}

// PrincipalFrom returns the principal stored by Required.
func PrincipalFrom(c *fiber.Ctx) (models.Principal, bool) {
	p, ok := c.Locals(principalLocal).(models.Principal)
	return p, ok
}
