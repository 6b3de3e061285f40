package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_ParsesFirstResult(t *testing.T) {
	var gotQuery, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(`[{"lat":"-25.4284","lon":"-49.2733"},{"lat":"1","lon":"2"}]`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "scdri-test", time.Second)
	p, err := n.Lookup(context.Background(), "Rua XV, Curitiba - PR")
	require.NoError(t, err)
	require.NotNil(t, p)

	assert.InDelta(t, -25.4284, p.Lat, 1e-9)
	assert.InDelta(t, -49.2733, p.Lng, 1e-9)
	assert.Equal(t, "Rua XV, Curitiba - PR", gotQuery)
	assert.Equal(t, "scdri-test", gotAgent)
}

func TestLookup_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	p, err := NewNominatim(srv.URL, "t", time.Second).Lookup(context.Background(), "nowhere")
	assert.NoError(t, err)
	assert.Nil(t, p)
}

func TestResolve_SwallowsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, "t", time.Second)
	assert.Nil(t, n.Resolve(context.Background(), "Rua A"))
	assert.Nil(t, n.Resolve(context.Background(), "   "))
}
