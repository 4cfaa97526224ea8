package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/repository"
	apperrors "github.com/spec-kit/buyforme-service/pkg/util/errorutil"
)

func newTestApp(t *testing.T) (*fiber.App, *TokenManager, *domain.User, *domain.StaffMember) {
	t.Helper()
	users := repository.NewMemoryUserRepository()
	staff := repository.NewMemoryStaffRepository()
	user := &domain.User{Name: "Ada", Email: "ada@example.com", Status: domain.UserStatusActive}
	require.NoError(t, users.Create(context.Background(), user))
	member := &domain.StaffMember{Name: "Sam", Email: "sam@example.com", Active: true, Permissions: []domain.Permission{domain.PermissionFinancialAccess}}
	require.NoError(t, staff.Create(context.Background(), member))

	tokens := NewTokenManager("secret", 5)
	mw := NewAuthMiddleware(tokens, users, staff)
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		actor := ActorFromContext(c)
		return c.SendString(string(actor.Kind) + ":" + actor.ID)
	})
	app.Get("/finance", mw.Handle, RequireStaff(domain.PermissionFinancialAccess), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/mine", mw.Handle, RequireUser(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	app.Get("/orders", mw.Handle, RequireStaff(domain.PermissionOrderManagement), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusNoContent)
	})
	return app, tokens, user, member
}

func call(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 0)
	token, expires, err := tm.GenerateToken("u1", domain.SubjectTypeStaff)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, domain.SubjectTypeStaff, claims.Kind)

	assert.Equal(t, tokenIssuer, claims.Issuer)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, &Claims{
		Kind: domain.SubjectTypeUser,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	signed, err := foreign.SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = tm.ParseToken(signed)
	assert.Error(t, err)

	expired := NewTokenManager("secret", 5)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	old, _, err := expired.GenerateToken("u1", domain.SubjectTypeUser)
	require.NoError(t, err)
	_, err = tm.ParseToken(old)
	assert.Error(t, err)
}

func TestAuthMiddleware(t *testing.T) {
	app, tokens, user, member := newTestApp(t)

	resp := call(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = call(t, app, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	userToken, _, err := tokens.GenerateToken(user.ID, domain.SubjectTypeUser)
	require.NoError(t, err)
	resp = call(t, app, "/me", userToken)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ghost, _, err := tokens.GenerateToken("missing", domain.SubjectTypeUser)
	require.NoError(t, err)
	resp = call(t, app, "/me", ghost)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	staffToken, _, err := tokens.GenerateToken(member.ID, domain.SubjectTypeStaff)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, call(t, app, "/finance", staffToken).StatusCode)
	assert.Equal(t, http.StatusForbidden, call(t, app, "/orders", staffToken).StatusCode)
	assert.Equal(t, http.StatusForbidden, call(t, app, "/finance", userToken).StatusCode)
	assert.Equal(t, http.StatusNoContent, call(t, app, "/mine", userToken).StatusCode)
	assert.Equal(t, http.StatusForbidden, call(t, app, "/mine", staffToken).StatusCode)
}
