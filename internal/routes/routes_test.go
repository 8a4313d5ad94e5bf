package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"agentauth/internal/config"
	"agentauth/internal/handlers"
	"agentauth/internal/middleware"
	"agentauth/internal/repositories"
	"agentauth/internal/services/agent"
	"agentauth/internal/services/auth"
	"agentauth/internal/services/otp"
	"agentauth/internal/services/session"
	"agentauth/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminToken = "admin-secret"

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()
	db := testutil.NewTestDB(t)
	clock := testutil.NewClock()
	reg := prometheus.NewRegistry()

	agents := agent.NewService(repositories.NewAgentRepository(db, nil, nil), agent.Config{Now: clock.Now}, nil)
	otpService := otp.NewService(repositories.NewOtpRepository(db), nil, nil,
		otp.Config{Environment: config.Development, Now: clock.Now}, otp.NewPrometheusMetrics(reg), nil)
	sessions := session.NewService(repositories.NewSessionRepository(db), agents,
		session.Config{Secret: "test-secret", Now: clock.Now}, nil)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Auth:     auth.NewService(agents, otpService, sessions, nil),
		Agents:   agents,
		Sessions: sessions,
		HealthChecks: map[string]handlers.Check{
			"database": func(ctx context.Context) error { return repositories.Ping(ctx, db) },
		},
		Metrics:    reg,
		AdminToken: adminToken,
	})
	return app
}

type response struct {
	Status int
	Body   map[string]interface{}
	Raw    string
}

func do(t *testing.T, app *fiber.App, method, path string, body interface{}, headers map[string]string) response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		if s, ok := body.(string); ok {
			reader = bytes.NewBufferString(s)
		} else {
			data, err := json.Marshal(body)
			require.NoError(t, err)
			reader = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := response{Status: resp.StatusCode, Raw: string(raw)}
	_ = json.Unmarshal(raw, &out.Body)
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

var registration = map[string]string{
	"phone_number": "612345678",
	"country_code": "+212",
	"first_name":   "Amina",
	"last_name":    "Idrissi",
	"email":        "amina@example.com",
}

func registerAndLogin(t *testing.T, app *fiber.App) (agentID, token string) {
	t.Helper()
	resp := do(t, app, http.MethodPost, "/api/v1/auth/register", registration, nil)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Raw)

	agentBody := resp.Body["agent"].(map[string]interface{})
	otpBody := resp.Body["otp"].(map[string]interface{})

	resp = do(t, app, http.MethodPost, "/api/v1/auth/verify-otp", map[string]string{
		"phone_number": "612345678",
		"code":         otpBody["code"].(string),
	}, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	return agentBody["id"].(string), resp.Body["token"].(string)
}

func TestRoutes_RegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	agentID, token := registerAndLogin(t, app)

	resp := do(t, app, http.MethodGet, "/api/v1/agents/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	assert.Equal(t, agentID, resp.Body["id"])
	assert.Regexp(t, `^\d{6}$`, resp.Body["license_number"])

	resp = do(t, app, http.MethodPut, "/api/v1/agents/me", map[string]string{"first_name": "Nadia"}, bearer(token))
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	assert.Equal(t, "Nadia", resp.Body["first_name"])

	resp = do(t, app, http.MethodPost, "/api/v1/auth/refresh", map[string]string{"token": token}, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	next := resp.Body["token"].(string)

	resp = do(t, app, http.MethodGet, "/api/v1/agents/me", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)

	resp = do(t, app, http.MethodPost, "/api/v1/auth/logout", nil, bearer(next))
	assert.Equal(t, http.StatusOK, resp.Status, resp.Raw)

	resp = do(t, app, http.MethodGet, "/api/v1/agents/me", nil, bearer(next))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestRoutes_ErrorMapping(t *testing.T) {
	app := newTestApp(t)
	resp := do(t, app, http.MethodPost, "/api/v1/auth/register", registration, nil)
	require.Equal(t, http.StatusCreated, resp.Status, resp.Raw)

	t.Run("duplicate", func(t *testing.T) {
		resp := do(t, app, http.MethodPost, "/api/v1/auth/register", registration, nil)
		assert.Equal(t, http.StatusConflict, resp.Status)
		assert.Equal(t, "PHONE_TAKEN", resp.Body["code"])
		assert.Equal(t, "phone_number", resp.Body["field"])
	})

	t.Run("validation", func(t *testing.T) {
		bad := map[string]string{"phone_number": "1", "country_code": "+212", "first_name": "A", "last_name": "B", "email": "x@y.com"}
		resp := do(t, app, http.MethodPost, "/api/v1/auth/register", bad, nil)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
		assert.Equal(t, "phone_number", resp.Body["field"])
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := do(t, app, http.MethodPost, "/api/v1/auth/send-otp", "{not json", nil)
		assert.Equal(t, http.StatusBadRequest, resp.Status)
	})

	t.Run("unregistered phone", func(t *testing.T) {
		resp := do(t, app, http.MethodPost, "/api/v1/auth/send-otp", map[string]string{"phone_number": "699999999"}, nil)
		assert.Equal(t, http.StatusNotFound, resp.Status)
		assert.Equal(t, "AGENT_NOT_REGISTERED", resp.Body["code"])
	})

	t.Run("invalid code then lockout", func(t *testing.T) {
		body := map[string]string{"phone_number": "612345678", "code": "000000"}
		resp := do(t, app, http.MethodPost, "/api/v1/auth/verify-otp", body, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
		assert.Equal(t, "OTP_INVALID", resp.Body["code"])
		assert.EqualValues(t, 4, resp.Body["remaining_attempts"])

		for i := 0; i < 3; i++ {
			do(t, app, http.MethodPost, "/api/v1/auth/verify-otp", body, nil)
		}
		resp = do(t, app, http.MethodPost, "/api/v1/auth/verify-otp", body, nil)
		assert.Equal(t, http.StatusTooManyRequests, resp.Status)
		assert.Equal(t, "OTP_LOCKED", resp.Body["code"])
		assert.NotEmpty(t, resp.Body["locked_until"])

		resp = do(t, app, http.MethodPost, "/api/v1/auth/send-otp", map[string]string{"phone_number": "612345678"}, nil)
		assert.Equal(t, http.StatusTooManyRequests, resp.Status)
	})

	t.Run("missing bearer", func(t *testing.T) {
		resp := do(t, app, http.MethodGet, "/api/v1/agents/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, resp.Status)
	})
}

func TestRoutes_AdminStatus(t *testing.T) {
	app := newTestApp(t)
	agentID, token := registerAndLogin(t, app)
	path := "/api/v1/agents/" + agentID + "/status"
	body := map[string]string{"status": "suspended"}

	resp := do(t, app, http.MethodPatch, path, body, nil)
	assert.Equal(t, http.StatusForbidden, resp.Status)

	resp = do(t, app, http.MethodPatch, path, body, map[string]string{middleware.AdminTokenHeader: "wrong"})
	assert.Equal(t, http.StatusForbidden, resp.Status)

	admin := map[string]string{middleware.AdminTokenHeader: adminToken}
	resp = do(t, app, http.MethodPatch, path, map[string]string{"status": "retired"}, admin)
	assert.Equal(t, http.StatusBadRequest, resp.Status)

	resp = do(t, app, http.MethodPatch, "/api/v1/agents/5f0c6a8e-1111-4b1e-9c39-0d1b0f3c1a11/status", body, admin)
	assert.Equal(t, http.StatusNotFound, resp.Status)

	resp = do(t, app, http.MethodPatch, path, body, admin)
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	assert.Equal(t, "suspended", resp.Body["status"])

	resp = do(t, app, http.MethodGet, "/api/v1/agents/me", nil, bearer(token))
	assert.Equal(t, http.StatusUnauthorized, resp.Status)
}

func TestRoutes_HealthAndMetrics(t *testing.T) {
	app := newTestApp(t)

	resp := do(t, app, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, resp.Status, resp.Raw)
	assert.Equal(t, "ok", resp.Body["status"])

	do(t, app, http.MethodPost, "/api/v1/auth/register", registration, nil)
	resp = do(t, app, http.MethodGet, "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Raw, `otp_issue_total{result="issued"} 1`)
}

func TestRoutes_AuthRateLimit(t *testing.T) {
	db := testutil.NewTestDB(t)
	agents := agent.NewService(repositories.NewAgentRepository(db, nil, nil), agent.Config{}, nil)
	otpService := otp.NewService(repositories.NewOtpRepository(db), nil, nil, otp.Config{}, nil, nil)
	sessions := session.NewService(repositories.NewSessionRepository(db), agents, session.Config{Secret: "s"}, nil)

	app := fiber.New()
	SetupRoutes(app, Dependencies{
		Auth:                  auth.NewService(agents, otpService, sessions, nil),
		Agents:                agents,
		Sessions:              sessions,
		AuthRequestsPerMinute: 2,
	})

	body := map[string]string{"phone_number": "699999999"}
	for i := 0; i < 2; i++ {
		resp := do(t, app, http.MethodPost, "/api/v1/auth/send-otp", body, nil)
		assert.Equal(t, http.StatusNotFound, resp.Status)
	}
	resp := do(t, app, http.MethodPost, "/api/v1/auth/send-otp", body, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.Status)
}
