package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/MJE43/redsettings-go/internal/engine"
	"github.com/MJE43/redsettings-go/internal/games"
	"github.com/MJE43/redsettings-go/internal/jitter"
	"github.com/MJE43/redsettings-go/internal/service"
	"github.com/MJE43/redsettings-go/internal/store"
)

const phoneJSON = `{
	"screen": {"width": 393, "height": 852, "pixelRatio": 2.75},
	"hardwareConcurrency": 8,
	"deviceMemory": 8,
	"gpuRenderer": "Adreno (TM) 642L",
	"platform": "Linux armv8l",
	"userAgent": "Mozilla/5.0 (Linux; Android 13) Mobile Safari",
	"maxTouchPoints": 5,
	"benchmarkMs": 16.4
}`

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	db, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	reg := prometheus.NewRegistry()
	svc := service.New(games.Default(), jitter.New(db, zerolog.Nop()), db,
		service.WithMetrics(service.NewMetrics(reg)),
		service.WithRand(engine.NewReproducible("api")))
	return NewServer(svc, WithPing(db.Ping), WithGatherer(reg)).Routes()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, w.Body.String())
	}
	return v
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "GET", "/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	resp := decodeBody[HealthCheckResponse](t, w)
	if resp.Status != HealthStatusHealthy {
		t.Errorf("expected healthy, got %s (%+v)", resp.Status, resp.Checks)
	}
	if resp.EngineVersion != engine.Version {
		t.Errorf("expected engine version %s, got %s", engine.Version, resp.EngineVersion)
	}
}

func TestGamesEndpoints(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "GET", "/api/v1/games", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if got := w.Header().Get("X-Engine-Version"); got != EngineVersion {
		t.Errorf("X-Engine-Version = %q", got)
	}
	list := decodeBody[GamesResponse](t, w)
	if len(list.Games) != 3 {
		t.Fatalf("expected 3 games, got %d", len(list.Games))
	}

	w = do(t, h, "GET", "/api/v1/games/pubg", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	schema := decodeBody[games.Schema](t, w)
	if schema.Name != "PUBG Mobile" || len(schema.Fields) == 0 {
		t.Errorf("unexpected schema %+v", schema)
	}

	w = do(t, h, "GET", "/api/v1/games/tetris", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if e := decodeBody[EngineError](t, w); e.Type != ErrTypeGameNotFound || e.RequestID == "" {
		t.Errorf("unexpected error %+v", e)
	}
}

func TestDeviceAndGenerate(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "POST", "/api/v1/device", phoneJSON)
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body)
	}
	dev := decodeBody[DeviceResponse](t, w).Device
	if dev.Class != "mobile" {
		t.Errorf("expected mobile, got %s", dev.Class)
	}

	w = do(t, h, "GET", "/api/v1/device/"+dev.ID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get device: expected 200, got %d", w.Code)
	}

	body := `{"deviceId":"` + dev.ID + `","game":"freefire","options":{"gyro":"enhanced","fireButtonSize":"large"},"graphics":{}}`
	w = do(t, h, "POST", "/api/v1/generate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("generate: expected 200, got %d: %s", w.Code, w.Body)
	}
	res := decodeBody[service.GenerateResult](t, w)
	if res.Profile.Style != "medium" || res.Profile.GyroMode != engine.GyroEnhanced {
		t.Errorf("unexpected profile %+v", res.Profile)
	}
	if !res.Report.IsValid {
		t.Errorf("expected valid report, got %+v", res.Report.Errors)
	}
	if res.Graphics == nil {
		t.Error("expected graphics settings")
	}

	w = do(t, h, "DELETE", "/api/v1/cache/"+dev.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("reset cache: expected 204, got %d", w.Code)
	}

	w = do(t, h, "DELETE", "/api/v1/device/"+dev.ID, "")
	if w.Code != http.StatusNoContent {
		t.Errorf("forget device: expected 204, got %d", w.Code)
	}
	w = do(t, h, "POST", "/api/v1/generate", body)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after forget, got %d", w.Code)
	}
	if e := decodeBody[EngineError](t, w); e.Type != ErrTypeDeviceNotFound {
		t.Errorf("expected %s, got %s", ErrTypeDeviceNotFound, e.Type)
	}
}

func TestGenerateErrors(t *testing.T) {
	h := newTestServer(t)
	tests := []struct {
		name   string
		body   string
		status int
		typ    string
	}{
		{"bad json", `{"game":`, http.StatusBadRequest, ErrTypeInvalidParams},
		{"missing game", `{"device":` + phoneJSON + `}`, http.StatusBadRequest, ErrTypeValidation},
		{"no device", `{"game":"pubg"}`, http.StatusBadRequest, ErrTypeInvalidParams},
		{"unknown game", `{"game":"tetris","device":` + phoneJSON + `}`, http.StatusNotFound, ErrTypeGameNotFound},
		{"unknown style", `{"game":"pubg","style":"lazy","device":` + phoneJSON + `}`, http.StatusNotFound, ErrTypeStyleNotFound},
		{"bad option", `{"game":"codm","device":` + phoneJSON + `,"options":{"rotationMode":"warp"}}`, http.StatusBadRequest, ErrTypeInvalidOption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, "POST", "/api/v1/generate", tt.body)
			if w.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, w.Code, w.Body)
			}
			if e := decodeBody[EngineError](t, w); e.Type != tt.typ {
				t.Errorf("expected type %s, got %s", tt.typ, e.Type)
			}
			if got := w.Header().Get("X-Error-Type"); got != tt.typ {
				t.Errorf("X-Error-Type = %q", got)
			}
		})
	}
}

func TestValidateEndpoint(t *testing.T) {
	h := newTestServer(t)
	body := `{"game":"freefire","values":{"general":109,"redDot":95,"scope2x":77,"scope4x":62,"sniper":45,"freeLook":118,` +
		`"fireButton":42,"gyroGeneral":46,"gyroRedDot":44,"gyroScope2x":39,"gyroScope4x":33,"gyroSniper":25}}`
	w := do(t, h, "POST", "/api/v1/validate", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var report struct {
		Score   int  `json:"score"`
		IsValid bool `json:"isValid"`
	}
	if err := json.NewDecoder(w.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Score != 100 || !report.IsValid {
		t.Errorf("unexpected report %+v", report)
	}
}

func TestGraphicsEndpoint(t *testing.T) {
	h := newTestServer(t)
	w := do(t, h, "POST", "/api/v1/graphics", `{"game":"codm","device":`+phoneJSON+`,"options":{"competitive":true}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
	}
	var g struct {
		Quality string `json:"quality"`
	}
	if err := json.NewDecoder(w.Body).Decode(&g); err != nil {
		t.Fatal(err)
	}
	if g.Quality != "Low" {
		t.Errorf("competitive quality = %q, want Low", g.Quality)
	}
}

func TestProfilesEndpoints(t *testing.T) {
	h := newTestServer(t)

	w := do(t, h, "POST", "/api/v1/profiles", `{"name":"main","game":"pubg","values":{"cameraTPP":137}}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body)
	}
	saved := decodeBody[store.SavedProfile](t, w)
	if saved.ID == "" || saved.Style != "medium" {
		t.Fatalf("unexpected saved profile %+v", saved)
	}

	w = do(t, h, "GET", "/api/v1/profiles?game=pubg&page=1&per_page=10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	if list := decodeBody[store.ProfilesList](t, w); list.TotalCount != 1 || list.PerPage != 10 {
		t.Errorf("unexpected list %+v", list)
	}

	w = do(t, h, "GET", "/api/v1/profiles?page=two", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad page: expected 400, got %d", w.Code)
	}

	w = do(t, h, "GET", "/api/v1/profiles/"+saved.ID+"/share", "")
	if w.Code != http.StatusOK {
		t.Fatalf("share: expected 200, got %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "PUBG Mobile Sensitivity Settings") {
		t.Errorf("unexpected share text %q", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("share content type %q", ct)
	}

	w = do(t, h, "DELETE", "/api/v1/profiles/"+saved.ID, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
	w = do(t, h, "GET", "/api/v1/profiles/"+saved.ID, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: expected 404, got %d", w.Code)
	}
	if e := decodeBody[EngineError](t, w); e.Type != ErrTypeProfileNotFound {
		t.Errorf("expected %s, got %s", ErrTypeProfileNotFound, e.Type)
	}

	w = do(t, h, "POST", "/api/v1/profiles", `{"game":"pubg"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing values: expected 400, got %d", w.Code)
	}
}

func TestProfilesWithoutStore(t *testing.T) {
	svc := service.New(games.Default(), jitter.New(store.NewMemoryKV(), zerolog.Nop()), nil)
	h := NewServer(svc, WithGatherer(prometheus.NewRegistry())).Routes()

	w := do(t, h, "GET", "/api/v1/profiles", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	w = do(t, h, "GET", "/health", "")
	if resp := decodeBody[HealthCheckResponse](t, w); resp.Status != HealthStatusDegraded {
		t.Errorf("expected degraded health, got %s", resp.Status)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestServer(t)
	do(t, h, "POST", "/api/v1/generate", `{"game":"freefire","device":`+phoneJSON+`}`)

	w := do(t, h, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !bytes.Contains(w.Body.Bytes(), []byte(`redsettings_generations_total{game="freefire",style="medium"} 1`)) {
		t.Errorf("generation counter missing from metrics:\n%s", w.Body.String())
	}
}

func TestRecoveryHandler(t *testing.T) {
	eh := NewErrorHandler(zerolog.Nop())
	h := eh.RecoveryHandler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if e := decodeBody[EngineError](t, w); e.Type != ErrTypeInternal {
		t.Errorf("expected %s, got %s", ErrTypeInternal, e.Type)
	}
}

func TestClassify(t *testing.T) {
	status, b := classify(errors.New("disk on fire"))
	if status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", status)
	}
	if e := b.Build(); e.Context["cause"] != "disk on fire" {
		t.Errorf("cause not recorded: %+v", e.Context)
	}
	if status, _ := classify(context.DeadlineExceeded); status != http.StatusRequestTimeout {
		t.Errorf("expected 408, got %d", status)
	}
}
