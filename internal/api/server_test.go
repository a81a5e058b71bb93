package api

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/talgya/codeart/internal/scene"
	"github.com/talgya/codeart/internal/studio"
)

const testKey = "test-admin-key"

func ptr[T any](v T) *T { return &v }

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()
	store := studio.NewStore(nil, nil)
	store.ReplaceParams(scene.DefaultParams(1))
	s := &Server{Store: store, AdminKey: testKey, MaxCells: 10000}
	return s, s.Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string, auth bool) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		req.Header.Set("Authorization", "Bearer "+testKey)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestStatus(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/status", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["name"] != "CodeArt" || got["seed"] != float64(1) || got["rows"] != float64(20) {
		t.Fatalf("status body = %v", got)
	}
	if got["presets"] != float64(len(studio.BuiltInPresets())) {
		t.Fatalf("presets = %v", got["presets"])
	}
}

func TestGetScene(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/scene", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}
	got := decode[scene.SceneElements](t, rec)
	want := scene.Generate(scene.DefaultParams(1))
	if !reflect.DeepEqual(got, want) {
		t.Fatal("GET /scene does not match Generate(current params)")
	}
}

func TestPostSceneIsStateless(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/scene", `{"seed": 12345}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[scene.SceneElements](t, rec)
	if len(got.Blocks) != 152 || len(got.GridLines) != 225 || len(got.Dots) != 89 {
		t.Fatalf("counts = %d/%d/%d, want 152/225/89", len(got.Blocks), len(got.GridLines), len(got.Dots))
	}
	if s.Store.Params().Seed != 1 {
		t.Fatal("POST /scene changed the session seed")
	}
}

func TestPostSceneIgnoresSessionProbabilities(t *testing.T) {
	s, h := newTestServer(t)
	s.Store.SetScene(studio.ScenePatch{
		Density:      ptr(1.0),
		GridLines:    ptr(0.0),
		Dots:         ptr(0.0),
		ElevatedBars: ptr(0.0),
	})

	p := scene.DefaultParams(12345)
	p.Scene = nil
	body, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(body), `"scene"`) {
		t.Fatalf("body carries a scene: %s", body)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/scene", string(body), false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[scene.SceneElements](t, rec)
	if len(got.Blocks) != 152 || len(got.GridLines) != 225 || len(got.Dots) != 89 {
		t.Fatalf("counts = %d/%d/%d, want 152/225/89", len(got.Blocks), len(got.GridLines), len(got.Dots))
	}
	if !reflect.DeepEqual(got, scene.Generate(p)) {
		t.Fatal("POST /scene differs from local generation of the body")
	}

	// A partial scene object fills the rest from the defaults, not the session.
	rec = do(t, h, http.MethodPost, "/api/v1/scene", `{"seed": 12345, "scene": {"dots": 0.15}}`, false)
	got = decode[scene.SceneElements](t, rec)
	if len(got.Blocks) != 152 || len(got.GridLines) != 225 {
		t.Fatalf("partial scene counts = %d/%d, want 152/225", len(got.Blocks), len(got.GridLines))
	}

	if d := s.Store.Params().Scene.Density; d != 1 {
		t.Fatalf("session density = %v, want 1", d)
	}
}

func TestSceneErrors(t *testing.T) {
	_, h := newTestServer(t)
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"invalid json", http.MethodPost, `{"seed":`, http.StatusBadRequest},
		{"grid too large", http.MethodPost, `{"grid":{"rows":1000,"cols":1000}}`, http.StatusRequestEntityTooLarge},
		{"method", http.MethodDelete, "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, "/api/v1/scene", tt.body, false)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestGetBlocks(t *testing.T) {
	_, h := newTestServer(t)
	rec := do(t, h, http.MethodGet, "/api/v1/blocks", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[[]scene.Block](t, rec)
	if !reflect.DeepEqual(got, scene.GenerateBlocks(scene.DefaultParams(1))) {
		t.Fatal("GET /blocks does not match GenerateBlocks")
	}
}

func TestPatchParams(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPatch, "/api/v1/params",
		`{"grid":{"rows":8},"blocks":{"heightAlgorithm":"wave"},"scene":{"dots":0.9}}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	want := scene.DefaultParams(1)
	want.Grid.Rows = 8
	want.Blocks.HeightAlgorithm = scene.HeightWave
	want.Scene.Dots = 0.9
	if got := decode[scene.ArtParams](t, rec); !reflect.DeepEqual(got, want) {
		t.Fatalf("response params = %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(s.Store.Params(), want) {
		t.Fatal("store not updated")
	}
}

func TestPatchParamsTooLargeLeavesStore(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPatch, "/api/v1/params", `{"grid":{"rows":5000}}`, false)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", rec.Code)
	}
	if s.Store.Params().Grid.Rows != 20 {
		t.Fatal("rejected patch was applied")
	}
}

func TestWriteJSONLogsEncodeFailure(t *testing.T) {
	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	rec := httptest.NewRecorder()
	writeJSON(rec, map[string]float64{"v": math.Inf(1)})

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if json.Valid(rec.Body.Bytes()) {
		t.Fatalf("body = %q, want no JSON document", rec.Body.String())
	}
	if !strings.Contains(logs.String(), "failed to encode response") {
		t.Fatalf("encode failure not logged: %q", logs.String())
	}
}

func TestSeed(t *testing.T) {
	s, h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/v1/seed", `{"seed": 5}`, false)
	if rec.Code != http.StatusOK || decode[map[string]int64](t, rec)["seed"] != 5 {
		t.Fatalf("set seed: %d %s", rec.Code, rec.Body.String())
	}
	if s.Store.Params().Seed != 5 {
		t.Fatal("seed not stored")
	}

	rec = do(t, h, http.MethodPost, "/api/v1/seed", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("randomize: %d %s", rec.Code, rec.Body.String())
	}
	seed := decode[map[string]int64](t, rec)["seed"]
	if seed < 0 || seed >= 100000 || s.Store.Params().Seed != seed {
		t.Fatalf("randomized seed = %d, store = %d", seed, s.Store.Params().Seed)
	}

	if rec := do(t, h, http.MethodGet, "/api/v1/seed", "", false); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET /seed = %d, want 405", rec.Code)
	}
}

func TestEditor(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPatch, "/api/v1/editor", `{"mode":"code","code":"return 1;"}`, false)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if s.Store.Mode() != studio.ModeCode || s.Store.Code() != "return 1;" {
		t.Fatalf("mode=%q code=%q", s.Store.Mode(), s.Store.Code())
	}

	rec = do(t, h, http.MethodPatch, "/api/v1/editor", `{"mode":"sculpt"}`, false)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid mode status = %d, want 400", rec.Code)
	}
}

func TestPresetLifecycle(t *testing.T) {
	s, h := newTestServer(t)

	if rec := do(t, h, http.MethodPost, "/api/v1/presets", `{"name":"mine"}`, false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated save = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/presets", `{"name":"  "}`, true); rec.Code != http.StatusBadRequest {
		t.Fatalf("blank name = %d, want 400", rec.Code)
	}

	rec := do(t, h, http.MethodPost, "/api/v1/presets", `{"name":"mine"}`, true)
	if rec.Code != http.StatusCreated {
		t.Fatalf("save = %d: %s", rec.Code, rec.Body.String())
	}
	saved := decode[studio.Preset](t, rec)
	if saved.Name != "mine" || saved.ID == "" || saved.Params.Seed != 1 {
		t.Fatalf("saved = %+v", saved)
	}

	list := decode[[]studio.Preset](t, do(t, h, http.MethodGet, "/api/v1/presets", "", false))
	if len(list) != len(studio.BuiltInPresets())+1 || list[len(list)-1].ID != saved.ID {
		t.Fatalf("list has %d presets", len(list))
	}

	s.Store.SetSeed(77)
	rec = do(t, h, http.MethodPost, "/api/v1/preset/"+saved.ID+"/load", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("load = %d: %s", rec.Code, rec.Body.String())
	}
	if s.Store.Params().Seed != 1 {
		t.Fatalf("seed after load = %d, want 1", s.Store.Params().Seed)
	}

	if rec := do(t, h, http.MethodDelete, "/api/v1/preset/"+saved.ID, "", false); rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated delete = %d, want 401", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/preset/"+saved.ID, "", true); rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d: %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/preset/"+saved.ID, "", true); rec.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/v1/preset/builtin-monolith", "", true); rec.Code != http.StatusForbidden {
		t.Fatalf("delete built-in = %d, want 403", rec.Code)
	}
}

func TestPresetRoutesErrors(t *testing.T) {
	_, h := newTestServer(t)
	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodPost, "/api/v1/preset/missing/load", http.StatusNotFound},
		{http.MethodGet, "/api/v1/preset/builtin-hills/load", http.StatusMethodNotAllowed},
		{http.MethodPost, "/api/v1/preset/builtin-hills/rename", http.StatusNotFound},
		{http.MethodPost, "/api/v1/preset/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if rec := do(t, h, tt.method, tt.path, "", true); rec.Code != tt.want {
			t.Errorf("%s %s = %d, want %d", tt.method, tt.path, rec.Code, tt.want)
		}
	}
}

func TestLoadBuiltInPreset(t *testing.T) {
	s, h := newTestServer(t)
	rec := do(t, h, http.MethodPost, "/api/v1/preset/builtin-hills/load", "", false)
	if rec.Code != http.StatusOK {
		t.Fatalf("load = %d", rec.Code)
	}
	if s.Store.Params().Blocks.HeightAlgorithm != scene.HeightPerlin {
		t.Fatal("built-in preset not loaded")
	}
}

func TestAdminDisabledWithoutKey(t *testing.T) {
	s := &Server{Store: studio.NewStore(nil, nil)}
	h := s.Handler()
	if rec := do(t, h, http.MethodPost, "/api/v1/presets", `{"name":"x"}`, true); rec.Code != http.StatusForbidden {
		t.Fatalf("save without admin key = %d, want 403", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/presets", "", false); rec.Code != http.StatusOK {
		t.Fatalf("list without admin key = %d, want 200", rec.Code)
	}
}

func TestSceneRateLimit(t *testing.T) {
	s := &Server{Store: studio.NewStore(nil, nil), SceneRate: 2}
	h := s.Handler()
	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodGet, "/api/v1/scene", "", false); rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec := do(t, h, http.MethodGet, "/api/v1/blocks", "", false)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Fatal("missing Retry-After")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := &Server{Store: studio.NewStore(nil, nil), CORSOrigins: []string{"https://art.example"}}
	h := s.Handler()

	for origin, allowed := range map[string]bool{
		"http://localhost:5173": true,
		"https://art.example":   true,
		"https://evil.example":  false,
	} {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/scene", nil)
		req.Header.Set("Origin", origin)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: status = %d", origin, rec.Code)
		}
		got := rec.Header().Get("Access-Control-Allow-Origin")
		if allowed && got != origin || !allowed && got != "" {
			t.Fatalf("%s: Allow-Origin = %q", origin, got)
		}
	}
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	clock := time.Unix(1_700_000_000, 0)
	rl.now = func() time.Time { return clock }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("other IPs have their own bucket")
	}
	if got := rl.RetryAfter("a"); got != 61 {
		t.Fatalf("RetryAfter = %d, want 61", got)
	}

	clock = clock.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("window reset should allow again")
	}

	clock = clock.Add(3 * time.Minute)
	rl.cleanup()
	if len(rl.buckets) != 0 {
		t.Fatalf("cleanup left %d buckets", len(rl.buckets))
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.9:5555"
	if got := clientIP(req); got != "203.0.113.9" {
		t.Fatalf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	if got := clientIP(req); got != "198.51.100.1" {
		t.Fatalf("clientIP with XFF = %q", got)
	}
}
