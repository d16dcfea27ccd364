package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/go-cmp/cmp"

	"github.com/manash/bizforge/internal/config"
	"github.com/manash/bizforge/pkg/models"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeService stands in for the BizForge API.
type fakeService struct {
	mu       sync.Mutex
	requests []recordedRequest
	voices   map[string]models.BrandVoiceProfile
	failures map[string]int
	logoRef  string
}

func newFakeService() *fakeService {
	return &fakeService{
		voices:   make(map[string]models.BrandVoiceProfile),
		failures: make(map[string]int),
		logoRef:  "https://cdn.example.com/logo.png",
	}
}

func (f *fakeService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(data))

		var body map[string]any
		if len(data) > 0 {
			_ = json.Unmarshal(data, &body)
		}

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		status := f.failures[r.URL.Path]
		f.mu.Unlock()

		if status != 0 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			w.Write([]byte(`{"detail":"model overloaded"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *fakeService) router() http.Handler {
	r := chi.NewRouter()
	r.Use(f.record)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "healthy", "service": "BizForge API", "model": "test-model"})
	})
	r.Route("/api", func(r chi.Router) {
		r.Post("/brand/generate-name", reply(map[string]any{"success": true, "suggestions": "1. Brewly\n2. Bean There"}))
		r.Post("/logo/prompt", func(w http.ResponseWriter, _ *http.Request) {
			f.mu.Lock()
			ref := f.logoRef
			f.mu.Unlock()
			writeJSON(w, map[string]any{"success": true, "prompts": nil, "image_url": ref})
		})
		r.Post("/content/generate", reply(map[string]any{"success": true, "content": "Fresh coffee, every morning."}))
		r.Post("/design/palette", reply(map[string]any{"success": true, "recommendations": "Primary: #6F4E37"}))
		r.Post("/sentiment/analyze", reply(map[string]any{
			"success": true, "analysis": "Mostly happy.", "sentiment": "Positive", "confidence": 85,
		}))
		r.Post("/chat", reply(map[string]any{"success": true, "response": "Try warm earth tones."}))
		r.Get("/users/me/brand-voice", func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			defer f.mu.Unlock()
			p, ok := f.voices[req.URL.Query().Get("google_id")]
			if !ok {
				writeJSON(w, map[string]any{"brand_voice": nil})
				return
			}
			writeJSON(w, map[string]any{"brand_voice": p})
		})
		r.Put("/users/me/brand-voice", func(w http.ResponseWriter, req *http.Request) {
			var p models.BrandVoiceProfile
			if err := json.NewDecoder(req.Body).Decode(&p); err != nil {
				http.Error(w, err.Error(), http.StatusUnprocessableEntity)
				return
			}
			f.mu.Lock()
			f.voices[req.URL.Query().Get("google_id")] = p
			f.mu.Unlock()
			writeJSON(w, map[string]string{"status": "ok"})
		})
		r.Post("/users/sync", reply(map[string]any{"status": "ok"}))
		r.Post("/export/brand-bible", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/pdf")
			w.Write([]byte("%PDF-1.4 guide"))
		})
	})
	return r
}

func (f *fakeService) calls(path string) []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []recordedRequest
	for _, r := range f.requests {
		if r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

func reply(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) { writeJSON(w, v) }
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

type harness struct {
	svc    *fakeService
	app    *App
	out    *bytes.Buffer
	errOut *bytes.Buffer
	env    map[string]string
	dir    string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	svc := newFakeService()
	srv := httptest.NewServer(svc.router())
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	h := &harness{
		svc:    svc,
		out:    &bytes.Buffer{},
		errOut: &bytes.Buffer{},
		dir:    dir,
		env: map[string]string{
			config.EnvAPIURL:    srv.URL + "/api",
			config.EnvConfigDir: filepath.Join(dir, "config"),
			config.EnvDataDir:   filepath.Join(dir, "data"),
		},
	}
	h.app = &App{
		In:         strings.NewReader(""),
		Out:        h.out,
		Err:        h.errOut,
		GetEnv:     func(key string) string { return h.env[key] },
		DotEnvPath: filepath.Join(dir, ".env"),
		IsTerminal: func(io.Writer) bool { return false },
	}
	return h
}

func (h *harness) run(args ...string) error {
	h.out.Reset()
	h.errOut.Reset()
	cmd := newRootCmd(h.app)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(context.Background())
}

func makeToken(t *testing.T, claims map[string]string) string {
	t.Helper()
	payload, err := json.Marshal(claims)
	if err != nil {
		t.Fatal(err)
	}
	return "eyJhbGciOiJSUzI1NiJ9." + base64.RawURLEncoding.EncodeToString(payload) + ".sig"
}

func adaToken(t *testing.T) string {
	return makeToken(t, map[string]string{
		"sub":   "google-123",
		"name":  "Ada Lovelace",
		"email": "ada@example.com",
	})
}

func TestDefaultApp(t *testing.T) {
	app := DefaultApp()

	if app.In == nil || app.Out == nil || app.Err == nil {
		t.Error("DefaultApp() streams are nil")
	}
	if app.GetEnv == nil {
		t.Error("DefaultApp() GetEnv is nil")
	}
	if app.IsTerminal == nil {
		t.Error("DefaultApp() IsTerminal is nil")
	}
	if app.DotEnvPath != ".env" {
		t.Errorf("DotEnvPath = %q, want .env", app.DotEnvPath)
	}

	os.Setenv("BIZFORGE_TEST_VAR", "value")
	defer os.Unsetenv("BIZFORGE_TEST_VAR")
	if app.GetEnv("BIZFORGE_TEST_VAR") != "value" {
		t.Error("DefaultApp() GetEnv doesn't read the environment")
	}
}

func TestNewRootCmd(t *testing.T) {
	cmd := newRootCmd(newHarness(t).app)

	for _, name := range []string{"api-url", "verbose", "json-logs", "data-dir", "use-voice"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("persistent flag --%s not found", name)
		}
	}

	want := []string{"batch", "brand-name", "chat", "content", "design", "export", "health", "kit", "login", "logo", "logout", "sentiment", "voice", "whoami"}
	for _, name := range want {
		if sub, _, err := cmd.Find([]string{name}); err != nil || sub.Name() != name {
			t.Errorf("subcommand %q not found", name)
		}
	}
}

func TestBrandName(t *testing.T) {
	h := newHarness(t)

	if err := h.run("brand-name", "--keywords", "coffee, cozy", "--industry", "Food", "--tone", "Friendly"); err != nil {
		t.Fatalf("brand-name error = %v", err)
	}

	if !strings.Contains(h.out.String(), "Bean There") {
		t.Errorf("output missing suggestions: %s", h.out.String())
	}

	calls := h.svc.calls("/api/brand/generate-name")
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	want := map[string]any{
		"industry":        "Food",
		"keywords":        []any{"coffee", "cozy"},
		"style":           "Friendly",
		"target_audience": "general",
		"context":         "",
	}
	if diff := cmp.Diff(want, calls[0].Body); diff != "" {
		t.Errorf("request body mismatch (-want +got):\n%s", diff)
	}
}

func TestBrandName_Validation(t *testing.T) {
	h := newHarness(t)

	err := h.run("brand-name", "--industry", "Food")
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(h.out.String(), "Please enter keywords") {
		t.Errorf("output missing validation message: %s", h.out.String())
	}
	if calls := h.svc.calls("/api/brand/generate-name"); len(calls) != 0 {
		t.Errorf("request sent despite validation failure: %d", len(calls))
	}
}

func TestSentiment(t *testing.T) {
	h := newHarness(t)

	if err := h.run("sentiment", "Great", "coffee"); err != nil {
		t.Fatalf("sentiment error = %v", err)
	}

	output := h.out.String()
	for _, want := range []string{"POSITIVE", "85.00%", "Mostly happy."} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}

	calls := h.svc.calls("/api/sentiment/analyze")
	if len(calls) != 1 || calls[0].Body["text"] != "Great coffee" {
		t.Errorf("unexpected sentiment request: %+v", calls)
	}
}

func TestServiceFailure(t *testing.T) {
	h := newHarness(t)
	h.svc.failures["/api/chat"] = http.StatusServiceUnavailable

	err := h.run("chat", "hello")
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
	if !strings.Contains(h.out.String(), "Error: ") {
		t.Errorf("expected rendered failure, got: %s", h.out.String())
	}
	if calls := h.svc.calls("/api/chat"); len(calls) != 1 {
		t.Errorf("POST retried: %d calls", len(calls))
	}
}

func TestLogo_Save(t *testing.T) {
	h := newHarness(t)
	h.svc.logoRef = "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("PNGDATA"))
	path := filepath.Join(h.dir, "out", "logo.png")

	if err := h.run("logo", "--name", "Brewly", "--industry", "Food", "--values", "warm", "--save", path); err != nil {
		t.Fatalf("logo error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("logo not saved: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("saved data = %q, want PNGDATA", data)
	}
	if !strings.Contains(h.out.String(), "[image/png image, 7 bytes") {
		t.Errorf("output missing image summary: %s", h.out.String())
	}
	if !strings.Contains(h.out.String(), "Saved: "+path) {
		t.Errorf("output missing saved path: %s", h.out.String())
	}
}

func TestLogo_InvalidSavePath(t *testing.T) {
	h := newHarness(t)

	err := h.run("logo", "--name", "Brewly", "--industry", "Food", "--save", "../escape.png")
	if err == nil || !strings.Contains(err.Error(), "invalid --save path") {
		t.Fatalf("error = %v, want invalid path", err)
	}
	if calls := h.svc.calls("/api/logo/prompt"); len(calls) != 0 {
		t.Errorf("request sent despite invalid path")
	}
}

func TestLogo_RemoteURLPrinted(t *testing.T) {
	h := newHarness(t)

	if err := h.run("logo", "--name", "Brewly", "--industry", "Food", "--values", "warm"); err != nil {
		t.Fatalf("logo error = %v", err)
	}
	if !strings.Contains(h.out.String(), "https://cdn.example.com/logo.png") {
		t.Errorf("output missing image URL: %s", h.out.String())
	}
}

func TestContent_Previews(t *testing.T) {
	h := newHarness(t)

	if err := h.run("content", "--name", "Brewly", "--description", "Neighborhood cafe", "--tone", "Warm"); err != nil {
		t.Fatalf("content error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Instagram preview:") {
		t.Errorf("output missing previews: %s", h.out.String())
	}

	calls := h.svc.calls("/api/content/generate")
	if len(calls) != 1 || calls[0].Body["content_type"] != defaultContentType {
		t.Errorf("unexpected content request: %+v", calls)
	}
}

func TestChat_Interactive(t *testing.T) {
	h := newHarness(t)
	h.app.In = strings.NewReader("what colors?\n/quit\n")

	if err := h.run("chat"); err != nil {
		t.Fatalf("chat error = %v", err)
	}

	output := h.out.String()
	if !strings.Contains(output, "Try warm earth tones.") || !strings.Contains(output, "Goodbye!") {
		t.Errorf("unexpected chat output: %s", output)
	}
	calls := h.svc.calls("/api/chat")
	if len(calls) != 1 || calls[0].Body["message"] != "what colors?" {
		t.Errorf("unexpected chat requests: %+v", calls)
	}
}

func TestLoginWhoamiLogout(t *testing.T) {
	h := newHarness(t)
	h.svc.voices["google-123"] = models.BrandVoiceProfile{Personality: "Playful", Industry: "Food", TargetAudience: "Students", Tone: "Casual"}

	if err := h.run("login", "--token", adaToken(t)); err != nil {
		t.Fatalf("login error = %v", err)
	}
	output := h.out.String()
	if !strings.Contains(output, "Signed in as Ada Lovelace <ada@example.com>") {
		t.Errorf("unexpected login output: %s", output)
	}
	if !strings.Contains(output, "Brand voice restored from your account.") {
		t.Errorf("remote brand voice not restored: %s", output)
	}

	syncs := h.svc.calls("/api/users/sync")
	if len(syncs) != 1 || syncs[0].Body["google_id"] != "google-123" {
		t.Errorf("unexpected user sync: %+v", syncs)
	}

	if err := h.run("whoami"); err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Subject: google-123") {
		t.Errorf("unexpected whoami output: %s", h.out.String())
	}

	if err := h.run("voice", "show"); err != nil {
		t.Fatalf("voice show error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Target audience: Students") {
		t.Errorf("restored profile not stored locally: %s", h.out.String())
	}

	if err := h.run("logout"); err != nil {
		t.Fatalf("logout error = %v", err)
	}
	if err := h.run("whoami"); err != nil {
		t.Fatalf("whoami error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Not signed in.") {
		t.Errorf("session survived logout: %s", h.out.String())
	}
}

func TestLogin_TokenFromEnv(t *testing.T) {
	h := newHarness(t)
	h.env[config.EnvIDToken] = adaToken(t)

	if err := h.run("login"); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Signed in as Ada Lovelace") {
		t.Errorf("unexpected login output: %s", h.out.String())
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "no token", args: []string{"login"}, want: "identity token required"},
		{name: "malformed token", args: []string{"login", "--token", "not-a-jwt"}, want: "sign in failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)

			err := h.run(tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestVoice_SignedOut(t *testing.T) {
	h := newHarness(t)

	if err := h.run("voice", "set", "--industry", "Food", "--tone", "Warm"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	if !strings.Contains(h.out.String(), "saved locally") {
		t.Errorf("unexpected voice set output: %s", h.out.String())
	}

	if err := h.run("voice", "set", "--audience", "Parents"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}

	if err := h.run("voice", "show", "--yaml"); err != nil {
		t.Fatalf("voice show error = %v", err)
	}
	for _, want := range []string{"industry: Food", "tone: Warm", "target_audience: Parents"} {
		if !strings.Contains(h.out.String(), want) {
			t.Errorf("yaml output missing %q: %s", want, h.out.String())
		}
	}

	if calls := h.svc.calls("/api/users/me/brand-voice"); len(calls) != 0 {
		t.Errorf("signed out voice commands reached the service: %+v", calls)
	}
}

func TestVoice_SignedInPushes(t *testing.T) {
	h := newHarness(t)

	if err := h.run("login", "--token", adaToken(t)); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if err := h.run("voice", "set", "--personality", "Bold", "--tone", "Direct"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	if !strings.Contains(h.out.String(), "Brand voice saved.") {
		t.Errorf("unexpected voice set output: %s", h.out.String())
	}

	h.svc.mu.Lock()
	got := h.svc.voices["google-123"]
	h.svc.mu.Unlock()
	want := models.BrandVoiceProfile{Personality: "Bold", Tone: "Direct"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("remote profile mismatch (-want +got):\n%s", diff)
	}
}

func TestUseVoice(t *testing.T) {
	h := newHarness(t)

	if err := h.run("voice", "set", "--industry", "Food", "--tone", "Warm"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	if err := h.run("brand-name", "--keywords", "coffee", "--use-voice"); err != nil {
		t.Fatalf("brand-name error = %v", err)
	}
	if err := h.run("brand-name", "--keywords", "coffee", "--industry", "Retail"); err != nil {
		t.Fatalf("brand-name error = %v", err)
	}

	calls := h.svc.calls("/api/brand/generate-name")
	if len(calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(calls))
	}
	if calls[0].Body["industry"] != "Food" || calls[0].Body["style"] != "Warm" {
		t.Errorf("profile not applied: %+v", calls[0].Body)
	}
	if calls[1].Body["industry"] != "Retail" || calls[1].Body["style"] != "" {
		t.Errorf("profile applied without --use-voice: %+v", calls[1].Body)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "guide.pdf")

	if err := h.run("voice", "set", "--industry", "Food"); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	if err := h.run("export", "--out", path); err != nil {
		t.Fatalf("export error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("guide not written: %v", err)
	}
	if string(data) != "%PDF-1.4 guide" {
		t.Errorf("guide bytes = %q", data)
	}

	calls := h.svc.calls("/api/export/brand-bible")
	if len(calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(calls))
	}
	body := calls[0].Body
	if body["brand_name"] != "My Brand" || body["industry"] != "Food" || body["description"] != nil {
		t.Errorf("unexpected export body: %+v", body)
	}
}

func TestExport_DefaultFilename(t *testing.T) {
	h := newHarness(t)
	wd, _ := os.Getwd()
	os.Chdir(h.dir)
	defer os.Chdir(wd)

	if err := h.run("login", "--token", adaToken(t)); err != nil {
		t.Fatalf("login error = %v", err)
	}
	if err := h.run("export"); err != nil {
		t.Fatalf("export error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(h.dir, "Ada_Lovelace_Guide.pdf")); err != nil {
		t.Errorf("default guide file missing: %v", err)
	}
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	if err := h.run("health"); err != nil {
		t.Fatalf("health error = %v", err)
	}
	for _, want := range []string{"Service: BizForge API", "Status:  healthy", "Model:   test-model"} {
		if !strings.Contains(h.out.String(), want) {
			t.Errorf("output missing %q: %s", want, h.out.String())
		}
	}
}

func TestBatch(t *testing.T) {
	h := newHarness(t)
	path := filepath.Join(h.dir, "jobs.yaml")
	jobs := `- kind: brand_name
  keywords: coffee, cozy
  industry: Food
- kind: sentiment
  text: The latte was perfect
- kind: chat
  message: Which font?
`
	if err := os.WriteFile(path, []byte(jobs), 0644); err != nil {
		t.Fatal(err)
	}

	if err := h.run("batch", path, "--parallel", "2"); err != nil {
		t.Fatalf("batch error = %v", err)
	}

	output := h.out.String()
	for _, want := range []string{"Running 3 job(s)", "Successful: 3/3 jobs", "Bean There", "Try warm earth tones."} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %s", want, output)
		}
	}
}

func TestBatch_Failures(t *testing.T) {
	h := newHarness(t)
	h.svc.failures["/api/chat"] = http.StatusInternalServerError
	path := filepath.Join(h.dir, "messages.txt")
	if err := os.WriteFile(path, []byte("first\nsecond\n"), 0644); err != nil {
		t.Fatal(err)
	}

	err := h.run("batch", path, "--stop-on-error")
	if err == nil || !strings.Contains(err.Error(), "stopped at item 1") {
		t.Fatalf("error = %v, want stop at item 1", err)
	}
	if !strings.Contains(h.out.String(), "Skipped: 1") {
		t.Errorf("output missing skipped count: %s", h.out.String())
	}

	err = h.run("batch", path)
	if !errors.Is(err, errReported) {
		t.Fatalf("error = %v, want errReported", err)
	}
}

func TestBatch_MissingFile(t *testing.T) {
	h := newHarness(t)

	if err := h.run("batch", filepath.Join(h.dir, "missing.yaml")); err == nil {
		t.Fatal("batch error = nil, want error for missing file")
	}
}

func TestKit(t *testing.T) {
	h := newHarness(t)

	err := h.run("kit", "--name", "Brewly", "--industry", "Food", "--tone", "Warm", "--keywords", "coffee", "--description", "Neighborhood cafe")
	if err != nil {
		t.Fatalf("kit error = %v", err)
	}

	for _, path := range []string{"/api/brand/generate-name", "/api/design/palette", "/api/content/generate"} {
		if calls := h.svc.calls(path); len(calls) != 1 {
			t.Errorf("%s calls = %d, want 1", path, len(calls))
		}
	}
	if !strings.Contains(h.out.String(), "Successful: 3/3 jobs") {
		t.Errorf("unexpected kit output: %s", h.out.String())
	}
}

func TestConfigPrecedence(t *testing.T) {
	h := newHarness(t)
	good := h.env[config.EnvAPIURL]
	h.env[config.EnvAPIURL] = "ftp://nowhere"

	err := h.run("health")
	if err == nil || !strings.Contains(err.Error(), "configuration validation failed") {
		t.Fatalf("error = %v, want configuration error", err)
	}

	if err := h.run("health", "--api-url", good); err != nil {
		t.Fatalf("health with --api-url error = %v", err)
	}
}

func TestDataDirFlag(t *testing.T) {
	h := newHarness(t)
	dataDir := filepath.Join(h.dir, "elsewhere")

	if err := h.run("voice", "set", "--tone", "Warm", "--data-dir", dataDir); err != nil {
		t.Fatalf("voice set error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dataDir, "bizforge.db")); err != nil {
		t.Errorf("database not created in --data-dir: %v", err)
	}
}
