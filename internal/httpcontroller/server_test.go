package httpcontroller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/oceanecho/oceanecho/internal/analysis"
	"github.com/oceanecho/oceanecho/internal/conf"
	"github.com/oceanecho/oceanecho/internal/errors"
	"github.com/oceanecho/oceanecho/internal/observability"
	"github.com/oceanecho/oceanecho/internal/samples"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
}

type fakeProcessor struct {
	mu     sync.Mutex
	inputs [][]analysis.Input
}

func (f *fakeProcessor) ProcessBatch(_ context.Context, inputs []analysis.Input) *analysis.BatchReport {
	f.mu.Lock()
	f.inputs = append(f.inputs, inputs)
	f.mu.Unlock()

	report := &analysis.BatchReport{ID: "test-batch", StartedAt: time.Now()}
	for _, in := range inputs {
		if strings.Contains(in.Name, "broken") {
			err := errors.NewStd("failed to decode audio")
			report.Results = append(report.Results, analysis.Result{
				File: in.Name, URL: in.URL, Err: err, Error: err.Error(), ErrorKind: analysis.ErrorKindDecode,
			})
			continue
		}
		conf := 93.5
		report.Results = append(report.Results, analysis.Result{
			File: in.Name, URL: in.URL, Label: "Killer Whale", Confidence: &conf,
		})
	}
	return report
}

func (f *fakeProcessor) calls() [][]analysis.Input {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inputs
}

func newTestServer(t *testing.T, mutate func(*conf.Settings)) (*Server, *fakeProcessor) {
	t.Helper()

	sampleDir := t.TempDir()
	for _, name := range []string{"humpback.wav", "orca.mp3", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(sampleDir, name), []byte("RIFF-"+name), 0o600))
	}

	settings := &conf.Settings{}
	settings.Main.Name = "Oceanecho"
	settings.WebServer.Host = "127.0.0.1"
	settings.WebServer.Port = "0"
	settings.WebServer.UploadDir = t.TempDir()
	settings.WebServer.UploadTTL = time.Minute
	settings.WebServer.MaxUploadSize = "1M"
	if mutate != nil {
		mutate(settings)
	}

	m, err := observability.NewMetrics()
	require.NoError(t, err)

	proc := &fakeProcessor{}
	s, err := New(settings, proc, samples.NewLibrary(sampleDir, nil), m)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Uploads.Close() })
	return s, proc
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// csrfToken fetches the index page and returns the issued token cookie.
func csrfToken(t *testing.T, s *Server) *http.Cookie {
	t.Helper()
	rec := do(s, httptest.NewRequest(http.MethodGet, "/", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	for _, c := range rec.Result().Cookies() {
		if c.Name == "csrf" {
			return c
		}
	}
	t.Fatal("no csrf cookie issued")
	return nil
}

type upload struct {
	name string
	body []byte
}

func multipartRequest(t *testing.T, target string, files []upload, sampleNames []string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		require.NoError(t, err)
		_, err = part.Write(f.body)
		require.NoError(t, err)
	}
	for _, name := range sampleNames {
		require.NoError(t, w.WriteField("samples", name))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func withCSRF(req *http.Request, cookie *http.Cookie) *http.Request {
	req.AddCookie(cookie)
	req.Header.Set("X-CSRF-Token", cookie.Value)
	return req
}

func TestIndexPage(t *testing.T) {
	s, proc := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<title>Oceanecho</title>")
	assert.Contains(t, body, "From Echoes to Insights")
	assert.Contains(t, body, `<option value="humpback.wav">humpback.wav</option>`)
	assert.Contains(t, body, `<option value="orca.mp3">orca.mp3</option>`)
	assert.NotContains(t, body, "readme.txt")
	assert.Contains(t, body, `accept=".wav,.mp3,.ogg"`)
	assert.Contains(t, body, "Predict</button>")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Empty(t, proc.calls(), "nothing runs before Predict")
}

func TestPredictForm_RejectsMissingCSRF(t *testing.T) {
	s, proc := newTestServer(t, nil)

	rec := do(s, multipartRequest(t, "/predict", nil, []string{"humpback.wav"}))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, proc.calls())
}

func TestPredictForm_NoInput(t *testing.T) {
	s, proc := newTestServer(t, nil)
	cookie := csrfToken(t, s)

	rec := do(s, withCSRF(multipartRequest(t, "/predict", nil, nil), cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Upload at least one audio file or select a sample")
	assert.Empty(t, proc.calls())
}

func TestPredictForm_UploadsThenSamples(t *testing.T) {
	s, proc := newTestServer(t, nil)
	cookie := csrfToken(t, s)

	req := multipartRequest(t, "/predict",
		[]upload{{"orca call.wav", []byte("RIFFdata")}, {"broken.ogg", []byte("junk")}},
		[]string{"humpback.wav"})
	rec := do(s, withCSRF(req, cookie))

	require.Equal(t, http.StatusOK, rec.Code)
	calls := proc.calls()
	require.Len(t, calls, 1)
	inputs := calls[0]
	require.Len(t, inputs, 3)
	assert.Equal(t, "orca call.wav", inputs[0].Name)
	assert.Equal(t, "broken.ogg", inputs[1].Name)
	assert.Equal(t, "humpback.wav", inputs[2].Name)
	assert.True(t, strings.HasPrefix(inputs[0].URL, "/media/uploads/"))
	assert.Equal(t, "/media/samples/humpback.wav", inputs[2].URL)
	assert.Equal(t, filepath.Dir(inputs[0].Path), s.Uploads.Dir())
	assert.Equal(t, ".wav", filepath.Ext(inputs[0].Path))

	body := rec.Body.String()
	assert.Contains(t, body, "Killer Whale")
	assert.Contains(t, body, "Confidence: 93.50%")
	assert.Contains(t, body, "Error while processing broken.ogg: failed to decode audio")
	assert.Contains(t, body, "Decode error")
	assert.Contains(t, body, `<option value="humpback.wav" selected>`)
	assert.Equal(t, 2, s.Uploads.Len())
}

func TestPredictAPI(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, multipartRequest(t, "/api/v1/predict", []upload{{"orca.wav", []byte("RIFF")}}, []string{"orca.mp3"}))
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		ID      string `json:"id"`
		Results []struct {
			File       string   `json:"file"`
			URL        string   `json:"url"`
			Label      string   `json:"label"`
			Confidence *float64 `json:"confidence"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "test-batch", report.ID)
	require.Len(t, report.Results, 2)
	assert.Equal(t, "orca.wav", report.Results[0].File)
	require.NotNil(t, report.Results[0].Confidence)
	assert.InDelta(t, 93.5, *report.Results[0].Confidence, 1e-9)
	assert.Equal(t, "orca.mp3", report.Results[1].File)

	// The upload stays playable until it expires.
	media := do(s, httptest.NewRequest(http.MethodGet, report.Results[0].URL, http.NoBody))
	require.Equal(t, http.StatusOK, media.Code)
	assert.Equal(t, "RIFF", media.Body.String())
}

func TestPredictAPI_Errors(t *testing.T) {
	s, proc := newTestServer(t, nil)

	tests := []struct {
		name    string
		files   []upload
		samples []string
		status  int
	}{
		{"nothing selected", nil, nil, http.StatusBadRequest},
		{"unknown sample", nil, []string{"../../etc/passwd"}, http.StatusBadRequest},
		{"filtered sample", nil, []string{"readme.txt"}, http.StatusBadRequest},
		{"unsupported upload", []upload{{"notes.pdf", []byte("%PDF")}}, nil, http.StatusUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(s, multipartRequest(t, "/api/v1/predict", tt.files, tt.samples))
			assert.Equal(t, tt.status, rec.Code)
		})
	}
	assert.Empty(t, proc.calls())
	assert.Zero(t, s.Uploads.Len())
}

func TestPredictAPI_RateLimited(t *testing.T) {
	s, _ := newTestServer(t, func(settings *conf.Settings) {
		settings.WebServer.RateLimit = 0.001
		settings.WebServer.RateLimitBurst = 1
	})

	first := do(s, multipartRequest(t, "/api/v1/predict", nil, []string{"humpback.wav"}))
	second := do(s, multipartRequest(t, "/api/v1/predict", nil, []string{"humpback.wav"}))

	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	metrics := do(s, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	assert.Contains(t, metrics.Body.String(), "oceanecho_http_rate_limited_total 1")
}

func TestMediaRoutes(t *testing.T) {
	s, _ := newTestServer(t, nil)

	tests := []struct {
		path   string
		status int
		body   string
	}{
		{"/media/samples/humpback.wav", http.StatusOK, "RIFF-humpback.wav"},
		{"/media/samples/readme.txt", http.StatusNotFound, ""},
		{"/media/samples/..%2Freadme.txt", http.StatusNotFound, ""},
		{"/media/uploads/does-not-exist", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(s, httptest.NewRequest(http.MethodGet, tt.path, http.NoBody))
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestSamplesAndHealthAPI(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(s, httptest.NewRequest(http.MethodGet, "/api/v1/samples", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Samples []samples.Sample `json:"samples"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Samples, 2)
	assert.Equal(t, "humpback.wav", list.Samples[0].Name)

	rec = do(s, httptest.NewRequest(http.MethodGet, "/api/v1/health", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_RunRemovesUploadsOnShutdown(t *testing.T) {
	s, _ := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.serve(ctx, ln) }()

	client := &http.Client{Timeout: 5 * time.Second, Transport: &http.Transport{DisableKeepAlives: true}}
	url := fmt.Sprintf("http://%s/api/v1/predict", ln.Addr())
	req := multipartRequest(t, url, []upload{{"orca.wav", []byte("RIFF")}}, nil)
	req.RequestURI = ""
	resp, err := client.Do(req)
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	require.NoError(t, resp.Body.Close())
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.DirExists(t, s.Uploads.Dir())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
	assert.NoDirExists(t, s.Uploads.Dir())
}
