package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"willstech-admin/internal/auth"
	"willstech-admin/internal/config"
	"willstech-admin/internal/editor"
	"willstech-admin/internal/github"
	"willstech-admin/internal/logger"
	dbmodels "willstech-admin/internal/models"
	"willstech-admin/internal/settings"
	"willstech-admin/internal/siteconfig"
	"willstech-admin/internal/ws"
	"willstech-admin/pkg/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memBackend struct {
	mu      sync.Mutex
	content []byte
	sha     string
	seq     int
	// putErrs are returned, in order, by the next PutFile calls.
	putErrs []error
	getErr  error
	target  github.Target
}

func (m *memBackend) GetFile(_ context.Context, path string) (*github.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	if path != "data/site-config.json" || m.content == nil {
		return nil, &github.APIError{Sentinel: github.ErrNotFound, Status: 404}
	}
	return &github.File{Path: path, SHA: m.sha, Content: m.content}, nil
}

func (m *memBackend) PutFile(_ context.Context, r github.PutFileRequest) (*github.CommitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.putErrs) > 0 {
		err := m.putErrs[0]
		m.putErrs = m.putErrs[1:]
		return nil, err
	}
	m.seq++
	m.content = r.Content
	m.sha = fmt.Sprintf("sha-%d", m.seq)
	return &github.CommitResult{ContentSHA: m.sha, CommitSHA: "c-" + m.sha}, nil
}

func (m *memBackend) VerifyAccess(context.Context) (*github.Access, error) {
	return &github.Access{Repository: m.target.FullName(), Branch: m.target.Branch, BranchExists: m.target.Branch != "gone", CanPush: true}, nil
}

func (m *memBackend) Target() github.Target { return m.target }

type memSettings struct {
	repo settings.Repo
}

func (s *memSettings) Load(context.Context) (settings.Repo, error) { return s.repo, nil }

func (s *memSettings) Save(_ context.Context, update settings.Repo) (settings.Repo, error) {
	s.repo = s.repo.Merge(update)
	return s.repo, nil
}

type memHistory struct{ records []dbmodels.CommitRecord }

func (h *memHistory) List(context.Context, string, int) ([]dbmodels.CommitRecord, error) {
	return h.records, nil
}

type harness struct {
	router   *gin.Engine
	backend  *memBackend
	settings *memSettings
	token    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	doc := siteconfig.Empty(time.Now())
	doc.Hero.Title = "Authentic Tech"
	doc.Products = []siteconfig.Product{
		{ID: 1, Name: "iPhone 15", Price: "4500000", OriginalPrice: "5000000", Stock: siteconfig.StockPreOrder},
		{ID: 2, Name: "AirPods", Price: "850000", Status: siteconfig.StatusHidden},
	}
	doc.Normalize()
	body, err := doc.Encode()
	require.NoError(t, err)

	backend := &memBackend{content: body, sha: "sha-0", target: github.Target{Owner: "acme", Repo: "shop", Branch: "main"}}
	store := &memSettings{repo: settings.Repo{Token: "ghp_secrettoken9876", Owner: "acme", Name: "shop", Branch: "main"}}

	ed := editor.New(editor.Options{Backend: backend})
	svc, err := auth.NewService(&config.Config{AdminPassword: "pw", JWTSecret: "k"}, logger.Nop())
	require.NoError(t, err)

	h := &harness{backend: backend, settings: store}
	h.router = NewRouter(RouterDeps{
		Editor:   ed,
		Settings: store,
		History:  &memHistory{records: []dbmodels.CommitRecord{{ID: 1, Section: "hero"}}},
		Auth:     svc,
		Hub:      ws.NewHub(nil, nil),
		NewBackend: func(r settings.Repo) editor.Backend {
			backend.target = r.Target()
			return backend
		},
	})

	tok, err := svc.Login("pw")
	require.NoError(t, err)
	h.token = tok.AccessToken
	return h
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	switch b := body.(type) {
	case nil:
		rdr = bytes.NewReader(nil)
	case string:
		rdr = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t)
	h.token = ""

	w := h.do(t, http.MethodGet, "/api/site", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, "/api/login", models.LoginRequest{Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = h.do(t, http.MethodPost, "/api/login", models.LoginRequest{Password: "pw"})
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode[auth.Token](t, w)
	assert.NotEmpty(t, tok.AccessToken)
}

func TestGetSite(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/site", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.SiteResponse](t, w)
	assert.Equal(t, "Authentic Tech", resp.Site.Hero.Title)
	assert.Equal(t, "sha-0", resp.Status.SHA)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestUpdateHeroThenUnchanged(t *testing.T) {
	h := newHarness(t)
	hero := siteconfig.Hero{Title: "Genuine Gadgets"}

	w := h.do(t, http.MethodPut, "/api/site/hero", hero)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SaveResponse](t, w)
	assert.Equal(t, "saved", resp.Status)
	require.NotNil(t, resp.Commit)
	assert.Equal(t, "c-sha-1", resp.Commit.CommitSHA)

	w = h.do(t, http.MethodPut, "/api/site/hero", hero)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "unchanged", decode[models.SaveResponse](t, w).Status)
}

func TestListProductsViews(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[models.ProductListResponse](t, w)
	assert.Equal(t, models.ProductCounts{Total: 2, Active: 1, Hidden: 1}, resp.Counts)
	require.Len(t, resp.Active, 1)
	assert.Equal(t, "4,500,000", resp.Active[0].FormattedPrice)
	assert.Equal(t, 10, resp.Active[0].DiscountPercent)
	assert.Equal(t, "Pre-Order", resp.Active[0].StockLabel)
	assert.Equal(t, "AirPods", resp.Hidden[0].Name)
}

func TestProductLifecycle(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/api/products", map[string]any{"name": "Charger", "price": "50000"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.ProductResponse](t, w)
	id := created.Product.ID

	w = h.do(t, http.MethodPut, fmt.Sprintf("/api/products/%d", id), `{"price":"45000"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, siteconfig.Price("45000"), decode[models.ProductResponse](t, w).Product.Price)

	w = h.do(t, http.MethodPost, fmt.Sprintf("/api/products/%d/toggle", id), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, siteconfig.StatusHidden, decode[models.ProductResponse](t, w).Product.Status)

	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodDelete, fmt.Sprintf("/api/products/%d", id), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, http.MethodPut, "/api/products/abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateProductValidation(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/products", map[string]any{"name": "X", "rating": 7})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBulkStatusNeedsConfirm(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodPost, "/api/products/bulk", models.BulkStatusRequest{Status: "hidden"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/products/bulk", models.BulkStatusRequest{Status: "archived", Confirm: true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(t, http.MethodPost, "/api/products/bulk", models.BulkStatusRequest{Status: "hidden", Confirm: true})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decode[models.BulkStatusResponse](t, w).Changed)
}

func TestExportImport(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/products/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "willstech-products-export-")
	env := decode[siteconfig.ExportEnvelope](t, w)
	assert.Len(t, env.Products, 2)

	w = h.do(t, http.MethodPost, "/api/products/import", `{"version":"1.0","products":[{"name":"Case","price":"20000"}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decode[models.ImportResponse](t, w).Added)

	w = h.do(t, http.MethodPost, "/api/products/import", `{"rows":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestConflictMapsTo409(t *testing.T) {
	h := newHarness(t)
	conflict := &github.APIError{Sentinel: github.ErrConflict, Status: 409}
	h.backend.putErrs = []error{conflict, conflict}

	w := h.do(t, http.MethodPut, "/api/site/social", siteconfig.Social{Facebook: "https://facebook.com/willstech"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "hint")
}

func TestMissingTokenMapsTo412(t *testing.T) {
	h := newHarness(t)
	h.backend.getErr = github.ErrNoToken
	w := h.do(t, http.MethodGet, "/api/site", nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
}

func TestUpstreamAuthMapsTo502(t *testing.T) {
	h := newHarness(t)
	h.backend.getErr = &github.APIError{Sentinel: github.ErrUnauthorized, Status: 401}
	w := h.do(t, http.MethodPost, "/api/sync", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestBackupRestoreDeploy(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/backup", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "willstech-backup-")

	restored := strings.Replace(w.Body.String(), "Authentic Tech", "Restored", 1)
	w = h.do(t, http.MethodPost, "/api/restore", restored)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"dirty":true`)
	assert.Equal(t, 0, h.backend.seq)

	w = h.do(t, http.MethodPut, "/api/site/hero", siteconfig.Hero{Title: "Edited"})
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Contains(t, w.Body.String(), "deploy")
	assert.Equal(t, 0, h.backend.seq)

	w = h.do(t, http.MethodPost, "/api/deploy", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, h.backend.seq)
	assert.Contains(t, string(h.backend.content), "Restored")

	w = h.do(t, http.MethodPost, "/api/restore", `{"products":"nope"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSettings(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[models.SettingsResponse](t, w)
	assert.Equal(t, "********9876", resp.Settings.Token)
	assert.Equal(t, "https://github.com/acme/shop/tree/main", resp.TreeURL)

	w = h.do(t, http.MethodPut, "/api/settings", settings.Repo{Token: resp.Settings.Token, Branch: "staging"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ghp_secrettoken9876", h.settings.repo.Token)
	assert.Equal(t, "staging", h.backend.target.Branch)
	assert.NotContains(t, w.Body.String(), "ghp_secrettoken9876")

	w = h.do(t, http.MethodPost, "/api/settings/verify", settings.Repo{Branch: "gone"})
	require.Equal(t, http.StatusOK, w.Code)
	v := decode[models.VerifyResponse](t, w)
	assert.Equal(t, "warning", v.Status)
	assert.Contains(t, v.Warning, "gone")
}

func TestHistoryAndMetrics(t *testing.T) {
	h := newHarness(t)
	w := h.do(t, http.MethodGet, "/api/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	records := decode[[]dbmodels.CommitRecord](t, w)
	require.Len(t, records, 1)

	w = h.do(t, http.MethodGet, "/api/backups", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())

	w = h.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/site", nil)
	req.Header.Set("Origin", "https://admin.example")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(fmt.Errorf("x: %w", siteconfig.ErrInvalid)))
	assert.Equal(t, http.StatusNotFound, statusFor(editor.ErrProductNotFound))
	assert.Equal(t, http.StatusPreconditionFailed, statusFor(editor.ErrNotConfigured))
	assert.Equal(t, http.StatusPreconditionFailed, statusFor(editor.ErrRestorePending))
	assert.Equal(t, http.StatusBadGateway, statusFor(&github.APIError{Sentinel: github.ErrRateLimited}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(fmt.Errorf("boom")))
}
