package order

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/makerclub/printq/internal/cache"
	"github.com/makerclub/printq/internal/config"
	"github.com/makerclub/printq/internal/entity"
	attachmentrepo "github.com/makerclub/printq/internal/repository/attachment"
	auditrepo "github.com/makerclub/printq/internal/repository/audit"
	clubrepo "github.com/makerclub/printq/internal/repository/club"
	orderrepo "github.com/makerclub/printq/internal/repository/order"
	seqrepo "github.com/makerclub/printq/internal/repository/sequence"
	sysconfigrepo "github.com/makerclub/printq/internal/repository/sysconfig"
	userrepo "github.com/makerclub/printq/internal/repository/user"
	auditsvc "github.com/makerclub/printq/internal/service/audit"
	"github.com/makerclub/printq/internal/service/identifier"
	ordersvc "github.com/makerclub/printq/internal/service/order"
	configsvc "github.com/makerclub/printq/internal/service/sysconfig"
	"github.com/makerclub/printq/internal/transport/http/middleware"
)

type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func newTestServer(t *testing.T) *echo.Echo {
	t.Helper()

	logger := zap.NewNop()
	audits := auditsvc.NewService(auditrepo.NewMemory(), logger)
	settings := configsvc.NewService(configsvc.Params{
		Store:  sysconfigrepo.NewMemory(),
		Cache:  newMemoryCache(),
		Config: config.Config{},
		Audit:  audits,
		Logger: logger,
	})
	gen := identifier.NewGenerator(
		clubrepo.NewMemory(entity.Club{ID: 1, Name: "Robotics Club", Code: "RC"}),
		seqrepo.NewMemory(),
		logger,
	).WithClock(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) })

	svc := ordersvc.NewService(ordersvc.Params{
		Orders:      orderrepo.NewMemory(),
		Users:       userrepo.NewMemory(entity.User{ID: 7, Email: "member@club.test", Role: "USER"}),
		Attachments: attachmentrepo.NewMemory(),
		Generator:   gen,
		Settings:    settings,
		Audit:       audits,
		Config:      config.Config{},
		Logger:      logger,
	})

	e := echo.New()
	NewHandler(svc).Register(e)
	return e
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Kind    string `json:"kind"`
		Message string `json:"message"`
	} `json:"error"`
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string, headers map[string]string) (int, envelope) {
	t.Helper()

	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec.Code, env
}

var memberHeaders = map[string]string{
	middleware.HeaderUserID:    "7",
	middleware.HeaderUserEmail: "member@club.test",
	middleware.HeaderUserRole:  "USER",
}

var adminHeaders = map[string]string{
	middleware.HeaderUserID:    "1",
	middleware.HeaderUserEmail: "admin@club.test",
	middleware.HeaderUserRole:  "ADMIN",
}

func TestCreateOrderEndpoint(t *testing.T) {
	e := newTestServer(t)

	code, env := doJSON(t, e, http.MethodPost, "/api/v1/orders",
		`{"club_id":1,"project_name":"Chassis v2"}`, memberHeaders)
	if code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", code)
	}
	if !env.Success {
		t.Fatalf("envelope = %+v, want success", env)
	}

	var order struct {
		OrderID  string `json:"order_id"`
		Status   string `json:"status"`
		Material string `json:"material"`
	}
	if err := json.Unmarshal(env.Data, &order); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if order.OrderID != "#RC24001" || order.Status != "submitted" || order.Material != "PLA" {
		t.Errorf("order = %+v", order)
	}
}

func TestCreateOrderRejectsGuest(t *testing.T) {
	e := newTestServer(t)

	code, env := doJSON(t, e, http.MethodPost, "/api/v1/orders",
		`{"project_name":"Sneaky"}`, nil)
	if code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", code)
	}
	if env.Error == nil || env.Error.Kind != "permission_denied" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	e := newTestServer(t)

	code, env := doJSON(t, e, http.MethodPost, "/api/v1/orders", `{}`, memberHeaders)
	if code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", code)
	}
	if env.Error == nil || env.Error.Kind != "bad_request" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestTransitionEndpoint(t *testing.T) {
	e := newTestServer(t)

	if code, _ := doJSON(t, e, http.MethodPost, "/api/v1/orders",
		`{"project_name":"Part"}`, memberHeaders); code != http.StatusCreated {
		t.Fatalf("seed order failed with status %d", code)
	}

	code, env := doJSON(t, e, http.MethodPost, "/api/v1/orders/1/transition",
		`{"status":"approved"}`, adminHeaders)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%+v)", code, env)
	}

	// Skipping straight to finished is an illegal edge and maps to 409.
	code, env = doJSON(t, e, http.MethodPost, "/api/v1/orders/1/transition",
		`{"status":"finished"}`, adminHeaders)
	if code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", code)
	}
	if env.Error == nil || env.Error.Kind != "illegal_transition" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestGetOrderScopedToOwner(t *testing.T) {
	e := newTestServer(t)

	if code, _ := doJSON(t, e, http.MethodPost, "/api/v1/orders",
		`{"project_name":"Part"}`, memberHeaders); code != http.StatusCreated {
		t.Fatal("seed order failed")
	}

	otherHeaders := map[string]string{
		middleware.HeaderUserID:   "8",
		middleware.HeaderUserRole: "USER",
	}
	code, _ := doJSON(t, e, http.MethodGet, "/api/v1/orders/1", "", otherHeaders)
	if code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", code)
	}

	code, _ = doJSON(t, e, http.MethodGet, "/api/v1/orders/1", "", memberHeaders)
	if code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for owner", code)
	}
}
