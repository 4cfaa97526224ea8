package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/buyforme-service/internal/api/http/handlers"
	"github.com/spec-kit/buyforme-service/internal/auth"
	"github.com/spec-kit/buyforme-service/internal/config"
	"github.com/spec-kit/buyforme-service/internal/domain"
	"github.com/spec-kit/buyforme-service/internal/events"
	"github.com/spec-kit/buyforme-service/internal/observability"
	"github.com/spec-kit/buyforme-service/internal/persistence"
	"github.com/spec-kit/buyforme-service/internal/repository"
	"github.com/spec-kit/buyforme-service/internal/service"
)

type testServer struct {
	app        *fiber.App
	auth       *service.AuthService
	metrics    *observability.Metrics
	dispatched []events.Event
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 5,
		BcryptCost:            bcrypt.MinCost,
	}}
	users := repository.NewMemoryUserRepository()
	staff := repository.NewMemoryStaffRepository()
	authService := service.NewAuthService(cfg, service.AuthDependencies{UserRepo: users, StaffRepo: staff})

	ts := &testServer{auth: authService, metrics: observability.NewMetrics()}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventRequestTransitioned, func(_ context.Context, e events.Event) error {
		ts.dispatched = append(ts.dispatched, e)
		return nil
	})

	svc := service.NewBuyForMeService(service.BuyForMeDependencies{
		RequestRepo: repository.NewMemoryRequestRepository(),
		Customers:   users,
		Dispatcher:  dispatcher,
		Metrics:     ts.metrics,
	})

	app := fiber.New()
	RegisterMiddlewares(app, zap.NewNop(), ts.metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("buyforme-service", "test", &persistence.Postgres{}, nil, ts.metrics),
		Users:          handlers.NewUsersHandler(authService),
		Staff:          handlers.NewStaffHandler(authService),
		Requests:       handlers.NewRequestsHandler(svc),
		StaffRequests:  handlers.NewStaffRequestsHandler(svc),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), users, staff),
	})
	ts.app = app
	return ts
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func (ts *testServer) do(t *testing.T, method, path, token string, body any) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func (ts *testServer) customerToken(t *testing.T, email string) string {
	t.Helper()
	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/auth/users/register", "", map[string]any{
		"name": "Ada", "email": email, "password": "correct-horse",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Auth.Token
}

func (ts *testServer) staffToken(t *testing.T, email string, perms ...domain.Permission) string {
	t.Helper()
	_, err := ts.auth.EnsureStaff(context.Background(), "Sam", email, "staff-pass", perms)
	require.NoError(t, err)
	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/auth/staff/login", "", map[string]any{
		"email": email, "password": "staff-pass",
	})
	require.Equal(t, nethttp.StatusOK, status)
	var data struct {
		Auth struct {
			Token string `json:"token"`
		} `json:"auth"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Auth.Token
}

type requestView struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	SubStatus     string `json:"sub_status"`
	PaymentStatus string `json:"payment_status"`
	TotalAmount   string `json:"total_amount"`
	Version       int64  `json:"version"`
	History       []struct {
		Kind string `json:"kind"`
	} `json:"history"`
}

func decodeRequest(t *testing.T, env envelope) requestView {
	t.Helper()
	var view requestView
	require.NoError(t, json.Unmarshal(env.Data, &view))
	return view
}

var newRequestBody = map[string]any{
	"items": []map[string]any{{
		"name": "boots", "url": "https://shop.example.com/boots",
		"quantity": 2, "price": "50.00", "currency": "USD",
	}},
	"shipping_address": map[string]any{
		"name": "Ada", "street": "1 Main St", "city": "Springfield", "country": "US", "postal_code": "12345",
	},
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	customer := ts.customerToken(t, "ada@example.com")
	orders := ts.staffToken(t, "orders@example.com", domain.PermissionOrderManagement)
	finance := ts.staffToken(t, "finance@example.com", domain.PermissionFinancialAccess)

	status, env := ts.do(t, nethttp.MethodPost, "/api/v1/buyforme/requests", customer, newRequestBody)
	require.Equal(t, nethttp.StatusCreated, status)
	created := decodeRequest(t, env)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "100", created.TotalAmount)
	base := "/api/v1/buyforme/requests/" + created.ID

	status, env = ts.do(t, nethttp.MethodPost, base+"/review", customer, map[string]any{"decision": "approved"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = ts.do(t, nethttp.MethodPost, base+"/review", orders, map[string]any{"decision": "approved"})
	require.Equal(t, nethttp.StatusOK, status)

	status, env = ts.do(t, nethttp.MethodPost, base+"/payment", finance, map[string]any{"amount": "100"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fields")

	status, env = ts.do(t, nethttp.MethodPost, base+"/payment", finance, map[string]any{"amount": "99.99", "currency": "USD"})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Equal(t, "100", env.Error.Details["expected_amount"])

	status, env = ts.do(t, nethttp.MethodPost, base+"/payment", finance, map[string]any{"amount": "100.00", "currency": "USD"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, "in_progress", decodeRequest(t, env).Status)

	status, env = ts.do(t, nethttp.MethodPost, base+"/payment", finance, map[string]any{"amount": "100", "currency": "USD"})
	assert.Equal(t, nethttp.StatusUnprocessableEntity, status)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)

	steps := []struct {
		path  string
		token string
		body  map[string]any
	}{
		{"/purchase", orders, map[string]any{"supplier": "Shop"}},
		{"/quality-control", orders, map[string]any{"inspections": []map[string]any{{"item_index": 0, "condition": "good"}}}},
		{"/customer-review", customer, map[string]any{"decision": "approved"}},
		{"/packing", customer, map[string]any{"choice": "pack_now"}},
		{"/shipping", orders, map[string]any{"carrier": "UPS", "tracking_number": "1Z999"}},
		{"/delivery", orders, nil},
	}
	for _, step := range steps {
		status, env = ts.do(t, nethttp.MethodPost, base+step.path, step.token, step.body)
		require.Equal(t, nethttp.StatusOK, status, "%s: %+v", step.path, env.Error)
	}

	status, env = ts.do(t, nethttp.MethodGet, base, customer, nil)
	require.Equal(t, nethttp.StatusOK, status)
	final := decodeRequest(t, env)
	assert.Equal(t, "delivered", final.Status)
	assert.Equal(t, "paid", final.PaymentStatus)
	assert.Len(t, final.History, 9)
	assert.Len(t, ts.dispatched, 8)
}

func TestHTTPErrorsAndGuards(t *testing.T) {
	ts := newTestServer(t)
	customer := ts.customerToken(t, "ada@example.com")
	other := ts.customerToken(t, "bob@example.com")

	status, env := ts.do(t, nethttp.MethodGet, "/api/v1/buyforme/requests", "", nil)
	assert.Equal(t, nethttp.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", env.Error.Code)

	status, env = ts.do(t, nethttp.MethodPost, "/api/v1/buyforme/requests", customer, map[string]any{"items": []any{}})
	assert.Equal(t, nethttp.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, env.Error.Details, "fields")

	status, env = ts.do(t, nethttp.MethodPost, "/api/v1/buyforme/requests", customer, newRequestBody)
	require.Equal(t, nethttp.StatusCreated, status)
	base := "/api/v1/buyforme/requests/" + decodeRequest(t, env).ID

	status, _ = ts.do(t, nethttp.MethodGet, base, other, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
	status, _ = ts.do(t, nethttp.MethodDelete, base, other, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)

	orders := ts.staffToken(t, "orders@example.com", domain.PermissionOrderManagement)
	status, env = ts.do(t, nethttp.MethodPost, base+"/packing", orders, map[string]any{"choice": "pack_now"})
	assert.Equal(t, nethttp.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/buyforme/requests/00000000-0000-0000-0000-000000000000", customer, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)

	status, env = ts.do(t, nethttp.MethodPut, base, customer, map[string]any{"notes": "gift wrap"})
	require.Equal(t, nethttp.StatusOK, status)
	assert.Equal(t, int64(2), decodeRequest(t, env).Version)

	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/buyforme/requests", other, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var list []requestView
	require.NoError(t, json.Unmarshal(env.Data, &list))
	assert.Empty(t, list)

	status, _ = ts.do(t, nethttp.MethodDelete, base, customer, nil)
	assert.Equal(t, nethttp.StatusNoContent, status)
	status, _ = ts.do(t, nethttp.MethodGet, base, customer, nil)
	assert.Equal(t, nethttp.StatusNotFound, status)
}

func TestAuthEndpoints(t *testing.T) {
	ts := newTestServer(t)
	customer := ts.customerToken(t, "ada@example.com")

	status, env := ts.do(t, nethttp.MethodGet, "/api/v1/users/me", customer, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var me map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &me))
	assert.Equal(t, "ada@example.com", me["email"])
	assert.Equal(t, "ACTIVE", me["status"])

	status, env = ts.do(t, nethttp.MethodPost, "/api/v1/auth/users/register", "", map[string]any{
		"name": "Ada", "email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, nethttp.StatusConflict, status)
	assert.Equal(t, "CONFLICT", env.Error.Code)

	status, _ = ts.do(t, nethttp.MethodPost, "/api/v1/auth/users/login", "", map[string]any{
		"email": "ada@example.com", "password": "wrong-horse",
	})
	assert.Equal(t, nethttp.StatusUnauthorized, status)

	status, _ = ts.do(t, nethttp.MethodPost, "/api/v1/auth/users/register", "", map[string]any{
		"name": "Eve", "email": "not-an-email", "password": "correct-horse",
	})
	assert.Equal(t, nethttp.StatusBadRequest, status)

	orders := ts.staffToken(t, "orders@example.com", domain.PermissionOrderManagement)
	status, env = ts.do(t, nethttp.MethodGet, "/api/v1/staff/members?permission=order_management", orders, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var members []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &members))
	require.Len(t, members, 1)
	assert.Equal(t, "orders@example.com", members[0]["email"])

	status, _ = ts.do(t, nethttp.MethodGet, "/api/v1/users/me", orders, nil)
	assert.Equal(t, nethttp.StatusForbidden, status)
}

func TestHealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	status, _ := ts.do(t, nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)

	status, env := ts.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, status)
	assert.Nil(t, env.Error)

	ts.do(t, nethttp.MethodGet, "/api/v1/buyforme/requests", "", nil)
	snap := ts.metrics.Snapshot()
	unauthorized := 0
	for key, count := range snap.Requests {
		if strings.HasSuffix(key, "|GET|401") {
			unauthorized += int(count)
		}
	}
	assert.Equal(t, 1, unauthorized)
}
