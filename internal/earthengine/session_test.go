package earthengine

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/gridmet-summary/internal/gridmet"
)

const (
	testProject  = "test-project"
	downloadName = "projects/test-project/thumbnails/abc123"
)

var fastBackoff = &BackoffConfig{MaxRetries: 2, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}

func testDescriptor(t *testing.T) gridmet.Descriptor {
	t.Helper()
	d, err := gridmet.Build(gridmet.Request{
		Variable: "pr", Year: 2020, Month: 6, Day: 1,
		Length: 1, Unit: "month", Statistic: "sum", OutputPath: "out.tif",
	})
	require.NoError(t, err)
	return d
}

func testSession(t *testing.T, baseURL string) *Session {
	t.Helper()
	s, err := NewSession(context.Background(), Config{
		Project:    testProject,
		BaseURL:    baseURL,
		HTTPClient: &http.Client{Timeout: 5 * time.Second},
		Backoff:    fastBackoff,
	})
	require.NoError(t, err)
	return s
}

func TestNewSession_RequiresProject(t *testing.T) {
	_, err := NewSession(context.Background(), Config{HTTPClient: http.DefaultClient})
	require.Error(t, err)
}

func TestSession_Download(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/projects/test-project/thumbnails":
			var body thumbnailRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "ZIPPED_GEO_TIFF_PER_BAND", body.FileFormat)
			assert.Equal(t, []string{"pr"}, body.BandIDs)
			assert.Equal(t, 1000.0, body.Grid.AffineTransform.ScaleX)
			assert.Equal(t, -1000.0, body.Grid.AffineTransform.ScaleY)
			assert.Equal(t, "0", body.Expression.Result)
			_ = json.NewEncoder(w).Encode(map[string]string{"name": downloadName})
		case r.Method == http.MethodGet && r.URL.Path == "/v1/"+downloadName+":getPixels":
			_, _ = w.Write([]byte("zip-bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	s := testSession(t, srv.URL)
	data, err := s.Download(context.Background(), testDescriptor(t))
	require.NoError(t, err)
	assert.Equal(t, []byte("zip-bytes"), data)
}

func TestSession_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"name": downloadName})
	}))
	defer srv.Close()

	name, err := testSession(t, srv.URL).CreateDownload(context.Background(), testDescriptor(t))
	require.NoError(t, err)
	assert.Equal(t, downloadName, name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSession_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad band"}}`))
	}))
	defer srv.Close()

	_, err := testSession(t, srv.URL).CreateDownload(context.Background(), testDescriptor(t))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "bad band")
	assert.Equal(t, int32(1), calls.Load())
}

func TestSession_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testSession(t, srv.URL).GetPixels(context.Background(), downloadName)
	require.Error(t, err)
	assert.Equal(t, int32(fastBackoff.MaxRetries+1), calls.Load())
}

func TestSession_MissingName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := testSession(t, srv.URL).CreateDownload(context.Background(), testDescriptor(t))
	require.Error(t, err)
}

func TestSession_Closed(t *testing.T) {
	s := testSession(t, "http://127.0.0.1:1")
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err := s.Download(context.Background(), testDescriptor(t))
	assert.ErrorIs(t, err, ErrSessionClosed)

	_, err = s.GetPixels(context.Background(), downloadName)
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testSession(t, "http://127.0.0.1:1").CreateDownload(ctx, testDescriptor(t))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSession_ClientErrorsDoNotOpenCircuit(t *testing.T) {
	var healthy atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":{"message":"unknown region"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"name": downloadName})
	}))
	defer srv.Close()

	s := testSession(t, srv.URL)
	for i := 0; i < 8; i++ {
		_, err := s.CreateDownload(context.Background(), testDescriptor(t))
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
	}

	healthy.Store(true)
	name, err := s.CreateDownload(context.Background(), testDescriptor(t))
	require.NoError(t, err)
	assert.Equal(t, downloadName, name)
}

func TestCountsAsSuccess(t *testing.T) {
	assert.True(t, countsAsSuccess(nil))
	assert.True(t, countsAsSuccess(&APIError{StatusCode: http.StatusBadRequest}))
	assert.False(t, countsAsSuccess(&APIError{StatusCode: http.StatusTooManyRequests}))
	assert.False(t, countsAsSuccess(&APIError{StatusCode: http.StatusBadGateway}))
	assert.False(t, countsAsSuccess(context.DeadlineExceeded))
}
