package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/recovery-cli/internal/model"
)

func testDownloader() *Downloader {
	return NewDownloader(DownloadOptions{
		Backoff: time.Millisecond,
		Limiter: rate.NewLimiter(rate.Inf, 1),
	})
}

func TestIsRemote(t *testing.T) {
	t.Parallel()
	assert.True(t, IsRemote("https://plant.example/day.csv"))
	assert.True(t, IsRemote("http://plant.example/day.xlsx"))
	assert.False(t, IsRemote("day.csv"))
	assert.False(t, IsRemote("/srv/https/day.csv"))
}

func TestFetch_RetriesThenReads(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		assert.Equal(t, "recovery-cli/1.0", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("tonnage,ore grade\n100,2\n"))
	}))
	defer srv.Close()

	path, err := testDownloader().Fetch(context.Background(), srv.URL+"/exports/day.csv?token=x", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	tbl, err := ReadFile(context.Background(), path, Options{})
	require.NoError(t, err)
	require.Equal(t, 1, tbl.Len())
	assert.True(t, tbl.Rows[0].Get(model.FieldOreGrade).Equal(model.Text("2")))
}

func TestFetch_Errors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/busy.csv" {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	d := testDownloader()
	dir := t.TempDir()

	_, err := d.Fetch(context.Background(), srv.URL+"/report.pdf", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")

	_, err = d.Fetch(context.Background(), srv.URL+"/missing.csv", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")

	_, err = d.Fetch(context.Background(), srv.URL+"/busy.csv", dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "all retries exhausted")
}
