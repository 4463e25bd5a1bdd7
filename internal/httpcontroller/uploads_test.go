package httpcontroller

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oceanecho/oceanecho/internal/observability/metrics"
)

func fileHeader(t *testing.T, name string, body []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("files", name)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	return req.MultipartForm.File["files"][0]
}

func TestUploadStore_SaveDeleteClose(t *testing.T) {
	registry := prometheus.NewRegistry()
	m, err := metrics.NewHTTPMetrics(registry)
	require.NoError(t, err)

	store, err := NewUploadStore(t.TempDir(), time.Minute, m)
	require.NoError(t, err)

	u, err := store.Save(fileHeader(t, "../../Blue Whale.WAV", []byte("RIFFdata")))
	require.NoError(t, err)
	assert.Equal(t, "Blue Whale.WAV", u.Name)
	assert.Equal(t, int64(8), u.Size)
	assert.Equal(t, store.Dir()+string(os.PathSeparator)+u.ID+".wav", u.Path)
	assert.FileExists(t, u.Path)

	got, ok := store.Get(u.ID)
	require.True(t, ok)
	assert.Equal(t, u, got)

	second, err := store.Save(fileHeader(t, "minke.mp3", []byte("ID3")))
	require.NoError(t, err)

	store.Delete(u.ID)
	assert.NoFileExists(t, u.Path)
	_, ok = store.Get(u.ID)
	assert.False(t, ok)

	require.NoError(t, store.Close())
	assert.NoFileExists(t, second.Path)
	assert.NoDirExists(t, store.Dir())

	expected := `
# HELP oceanecho_uploads_active Uploaded files currently held on disk.
# TYPE oceanecho_uploads_active gauge
oceanecho_uploads_active 0
`
	assert.NoError(t, testutil.CollectAndCompare(m, bytes.NewBufferString(expected), "oceanecho_uploads_active"))
}

func TestUploadStore_ExpiredUploadsAreRemoved(t *testing.T) {
	store, err := NewUploadStore(t.TempDir(), 50*time.Millisecond, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	u, err := store.Save(fileHeader(t, "orca.ogg", []byte("OggS")))
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		_, statErr := os.Stat(u.Path)
		return os.IsNotExist(statErr)
	}, 5*time.Second, 50*time.Millisecond)
	assert.Zero(t, store.Len())
}
