package arcgis

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"golang.org/x/time/rate"
)

// testClient builds a client tuned for fast tests: no rate limiting, no
// inter-page pacing, millisecond retry backoff.
func testClient(srv *httptest.Server, opts ...Option) Client {
	base := []Option{
		WithHTTPClient(srv.Client()),
		WithLimiter(rate.NewLimiter(rate.Inf, 1)),
		WithPageDelay(0),
		WithRetryBackoff(time.Millisecond),
	}
	return NewClient(append(base, opts...)...)
}

func testSpec(srv *httptest.Server) QuerySpec {
	return NewContainmentSpec(srv.URL+"/rest/services/test/MapServer", 0, geom.Coord{-93.26, 44.98}, RelIntersects)
}

func TestQueryAllPaginates(t *testing.T) {
	var mu sync.Mutex
	var offsets []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		offset := r.URL.Query().Get("resultOffset")
		mu.Lock()
		offsets = append(offsets, offset)
		mu.Unlock()

		assert.Equal(t, "2", r.URL.Query().Get("resultRecordCount"))
		if offset == "0" {
			fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":1}},{"attributes":{"OBJECTID":2}}],"exceededTransferLimit":true}`)
			return
		}
		fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":3}}]}`)
	}))
	defer srv.Close()

	c := testClient(srv, WithPageSize(2))
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.NoError(t, err)
	assert.Len(t, res.Features, 3)
	assert.Equal(t, 2, res.Pages)
	assert.False(t, res.CapReached)
	assert.Equal(t, []string{"0", "2"}, offsets)
}

func TestQueryAllStopsOnShortPageWithoutFlag(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":1}}]}`)
	}))
	defer srv.Close()

	c := testClient(srv, WithPageSize(10))
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.NoError(t, err)
	assert.Len(t, res.Features, 1)
	assert.Equal(t, 1, hits)
}

func TestQueryAllFollowsFullPageWithoutFlag(t *testing.T) {
	// Some services omit exceededTransferLimit even when more pages exist,
	// so a full page always triggers one more fetch.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("resultOffset") == "0" {
			fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":1}},{"attributes":{"OBJECTID":2}}]}`)
			return
		}
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer srv.Close()

	c := testClient(srv, WithPageSize(2))
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.NoError(t, err)
	assert.Len(t, res.Features, 2)
	assert.Equal(t, 2, res.Pages)
}

func TestQueryAllServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":400,"message":"Invalid or missing input parameters","details":["'geometry' parameter is invalid"]}}`)
	}))
	defer srv.Close()

	c := testClient(srv)
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "service error 400")
	assert.Empty(t, res.Features)
	assert.Equal(t, 1, res.Pages)
}

func TestQueryAllKeepsFeaturesOnPartialError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":9}}],"error":{"code":500,"message":"layer busy"}}`)
	}))
	defer srv.Close()

	c := testClient(srv)
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.Error(t, err)
	assert.Len(t, res.Features, 1)
	assert.Equal(t, float64(9), res.Features[0].Attributes["OBJECTID"])
}

func TestQueryAllRetriesTransientStatus(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":1}}]}`)
	}))
	defer srv.Close()

	c := testClient(srv)
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	require.NoError(t, err)
	assert.Len(t, res.Features, 1)
	assert.Equal(t, 2, hits)
}

func TestQueryAllExhaustsRetries(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(srv, WithMaxRetries(2))
	_, err := c.QueryAll(context.Background(), testSpec(srv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retries exhausted")
	assert.Equal(t, 2, hits)
}

func TestQueryAllNonRetryableStatus(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.QueryAll(context.Background(), testSpec(srv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 404")
	assert.Equal(t, 1, hits)
}

func TestQueryAllRecordCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[{"attributes":{"OBJECTID":1}},{"attributes":{"OBJECTID":2}}],"exceededTransferLimit":true}`)
	}))
	defer srv.Close()

	c := testClient(srv, WithPageSize(2), WithMaxRecords(3))
	res, err := c.QueryAll(context.Background(), testSpec(srv))

	// Hitting the cap is a partial result, not an error.
	require.NoError(t, err)
	assert.True(t, res.CapReached)
	assert.Len(t, res.Features, 4)
	assert.Equal(t, 2, res.Pages)
}

func TestQueryAllMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer srv.Close()

	c := testClient(srv)
	_, err := c.QueryAll(context.Background(), testSpec(srv))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode response")
}

func TestQueryAllContextCanceled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"features":[]}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(srv)
	_, err := c.QueryAll(ctx, testSpec(srv))
	require.Error(t, err)
}
