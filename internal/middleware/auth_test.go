package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestAuthRequired(t *testing.T) {
	resolver := NewJWTResolver(&config.Config{JWTSecret: testSecret})
	auth := NewAuth(resolver)

	app := fiber.New()
	app.Get("/test", auth.Required, func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.SendStatus(fiber.StatusTeapot)
		}
		return c.JSON(fiber.Map{"id": p.ID, "username": p.Username, "role": p.Role})
	})

	token := func(p models.Principal, ttl time.Duration) string {
		s, err := resolver.Issue(p, ttl)
		require.NoError(t, err)
		return s
	}
	alice := models.Principal{ID: 123, Username: "alice", Role: models.RoleUser}

	otherKey := func() string {
		claims := jwt.MapClaims{"sub": "123", "username": "alice", "exp": time.Now().Add(time.Hour).Unix()}
		s, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
		return s
	}

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"Happy Path", "Bearer " + token(alice, time.Hour), http.StatusOK},
		{"Missing Header", "", http.StatusUnauthorized},
		{"Invalid Format", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"Malformed Token", "Bearer malformed.token.here", http.StatusUnauthorized},
		{"Expired Token", "Bearer " + token(alice, -time.Hour), http.StatusUnauthorized},
		{"Wrong Signing Key", "Bearer " + otherKey(), http.StatusUnauthorized},
		{"Missing Username", "Bearer " + token(models.Principal{ID: 5}, time.Hour), http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			if tt.expectedStatus == http.StatusOK {
				var body map[string]interface{}
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, float64(123), body["id"])
				assert.Equal(t, "alice", body["username"])
				assert.Equal(t, "user", body["role"])
			} else {
				var body models.ErrorResponse
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
				assert.Equal(t, models.CodeUnauthenticated, body.Code)
			}
		})
	}
}

func TestJWTResolver_Roles(t *testing.T) {
	resolver := NewJWTResolver(&config.Config{JWTSecret: testSecret})

	admin, err := resolver.Issue(models.Principal{ID: 1, Username: "root", Role: models.RoleAdmin}, time.Minute)
	require.NoError(t, err)
	p, err := resolver.Resolve(t.Context(), admin)
	require.NoError(t, err)
	assert.True(t, p.IsAdmin())

	// an absent role claim defaults to a regular user
	legacy, err := resolver.Issue(models.Principal{ID: 2, Username: "bob"}, time.Minute)
	require.NoError(t, err)
	p, err = resolver.Resolve(t.Context(), legacy)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, p.Role)

	bogus, err := resolver.Issue(models.Principal{ID: 3, Username: "eve", Role: "superuser"}, time.Minute)
	require.NoError(t, err)
	_, err = resolver.Resolve(t.Context(), bogus)
	assert.True(t, models.IsCode(err, models.CodeUnauthenticated))
}
