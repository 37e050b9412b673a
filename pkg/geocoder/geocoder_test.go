package geocoder

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const nominatimBody = `[
	{"display_name": "Aeropuerto Alfonso Bonilla Aragón, Palmira", "lat": "3.5432", "lon": "-76.3816",
	 "type": "aerodrome", "osm_type": "way", "osm_id": 26857370},
	{"display_name": "broken", "lat": "x", "lon": "-76.38"}
]`

func newNominatimServer(t *testing.T, status int, body string, calls *int32) (*httptest.Server, *Nominatim) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	n, err := NewNominatim(NominatimConfig{
		BaseURL:       srv.URL,
		ContextSuffix: ", Cali, Colombia",
		Timeout:       time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return srv, n
}

func TestNominatimSearch(t *testing.T) {
	var calls int32
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		gotQuery = r.URL.Query().Get("q")
		_, _ = w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	n, err := NewNominatim(NominatimConfig{BaseURL: srv.URL, ContextSuffix: ", Cali, Colombia"}, zap.NewNop())
	require.NoError(t, err)

	places, err := n.Search(context.Background(), " aeropuerto ")
	require.NoError(t, err)
	assert.Equal(t, "aeropuerto, Cali, Colombia", gotQuery)
	require.Len(t, places, 1)
	assert.Equal(t, "Aeropuerto Alfonso Bonilla Aragón, Palmira", places[0].Name())
	assert.Equal(t, 3.5432, places[0].Lat())
	assert.Equal(t, -76.3816, places[0].Lon())
	assert.Equal(t, "aerodrome", places[0].Type())
	assert.Equal(t, "way/26857370", places[0].OSMID())
	assert.Equal(t, da.SEARCH_RESULT, places[0].Kind())

	// cached
	_, err = n.Search(context.Background(), "AEROPUERTO")
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestNominatimFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"empty result", http.StatusOK, `[]`},
		{"server error", http.StatusServiceUnavailable, `{}`},
		{"malformed", http.StatusOK, `{"oops"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			_, n := newNominatimServer(t, tt.status, tt.body, &calls)
			_, err := n.Search(context.Background(), "centro")
			assert.ErrorIs(t, err, util.ErrGeocodeUnavailable)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}

	n, err := NewNominatim(NominatimConfig{BaseURL: "http://127.0.0.1:1"}, zap.NewNop())
	require.NoError(t, err)
	_, err = n.Search(context.Background(), "   ")
	assert.ErrorIs(t, err, util.ErrBadParamInput)
}

func TestNominatimRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(nominatimBody))
	}))
	defer srv.Close()

	n, err := NewNominatim(NominatimConfig{BaseURL: srv.URL, RequestsPerSecond: 0.5}, zap.NewNop())
	require.NoError(t, err)

	_, err = n.Search(context.Background(), "first")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = n.Search(ctx, "second")
	assert.ErrorIs(t, err, util.ErrGeocodeUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCatalogSearchAndNearby(t *testing.T) {
	c := NewCatalog(SeedPlaces(), zap.NewNop())
	assert.Equal(t, 15, c.Len())

	got, err := c.Search(context.Background(), "parque")
	require.NoError(t, err)
	names := make([]string, 0, len(got))
	for _, p := range got {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"Parque Simón Bolívar", "Parque de la 93"}, names)

	got, err = c.Search(context.Background(), "a")
	require.NoError(t, err)
	assert.Len(t, got, maxCatalogResults)

	nearby := c.Nearby(4.5981, -74.0758, 0.2)
	require.NotEmpty(t, nearby)
	assert.Equal(t, "Plaza de Bolívar", nearby[0].Place.Name())
}

func TestLoadCatalogFormats(t *testing.T) {
	dir := t.TempDir()
	places := []da.Place{
		da.NewPlace("Parque del Perro", 3.4372, -76.5448, da.SEARCH_RESULT).WithType("park"),
		da.NewPlace("Estadio Pascual Guerrero", 3.4300, -76.5410, da.SEARCH_RESULT).WithType("stadium"),
	}

	for _, name := range []string{"places.json", "places.json.bz2"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			require.NoError(t, WriteCatalog(path, places))

			c, err := LoadCatalog(path, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, 2, c.Len())
			got, err := c.Search(context.Background(), "estadio")
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, "stadium", got[0].Type())
		})
	}
}

func TestLoadCatalogWritesSeedWhenMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "points_of_interest.json")
	c, err := LoadCatalog(path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, len(SeedPlaces()), c.Len())

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

type stubSearcher struct {
	places []da.Place
	err    error
	calls  int
}

func (s *stubSearcher) Search(ctx context.Context, query string) ([]da.Place, error) {
	s.calls++
	return s.places, s.err
}

func TestChain(t *testing.T) {
	centro := da.NewPlace("Centro", 3.45, -76.53, da.SEARCH_RESULT)
	plaza := da.NewPlace("Plaza de Bolívar", 4.5981, -74.0758, da.SEARCH_RESULT)
	unavailable := util.WrapErrorf(errors.New("503"), util.ErrGeocodeUnavailable, "nominatim down")

	tests := []struct {
		name     string
		primary  *stubSearcher
		fallback *stubSearcher
		want     []da.Place
		wantErr  error
	}{
		{"primary ok", &stubSearcher{places: []da.Place{centro}}, &stubSearcher{}, []da.Place{centro}, nil},
		{"fallback used", &stubSearcher{err: unavailable}, &stubSearcher{places: []da.Place{plaza}},
			[]da.Place{plaza}, nil},
		{"fallback empty", &stubSearcher{err: unavailable}, &stubSearcher{}, nil, util.ErrGeocodeUnavailable},
		{"bad input not retried", &stubSearcher{err: util.NewErrorf(util.ErrBadParamInput, "empty")},
			&stubSearcher{places: []da.Place{plaza}}, nil, util.ErrBadParamInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChain(tt.primary, tt.fallback, zap.NewNop())
			got, err := c.Search(context.Background(), "plaza")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
