package geocoder

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "EcoFlow-App/1.0"
	DefaultLimit        = 5
	DefaultCacheSize    = 1024
)

type NominatimConfig struct {
	BaseURL   string
	UserAgent string
	// ContextSuffix is appended to every query, e.g. ", Cali, Colombia".
	ContextSuffix string
	Limit         int
	// RequestsPerSecond bounds the outgoing request rate. Zero disables the limiter.
	RequestsPerSecond float64
	CacheSize         int
	Timeout           time.Duration
}

type Nominatim struct {
	cfg        NominatimConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *lru.Cache[string, []da.Place]
	log        *zap.Logger
}

func NewNominatim(cfg NominatimConfig, log *zap.Logger) (*Nominatim, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultNominatimURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultCacheSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	cache, err := lru.New[string, []da.Place](cfg.CacheSize)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "nominatim: failed to create cache")
	}

	n := &Nominatim{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		log:        log,
	}
	if cfg.RequestsPerSecond > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return n, nil
}

type searchResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Type        string `json:"type"`
	Class       string `json:"class"`
	OSMType     string `json:"osm_type"`
	OSMID       int64  `json:"osm_id"`
}

// Search geocodes free text. An empty result is reported as ErrGeocodeUnavailable like any other
// failure, so callers never have to special-case "no match".
func (n *Nominatim) Search(ctx context.Context, query string) ([]da.Place, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, util.NewErrorf(util.ErrBadParamInput, "search query is empty")
	}
	q += n.cfg.ContextSuffix
	key := strings.ToLower(q)

	if places, ok := n.cache.Get(key); ok {
		return clonePlaces(places), nil
	}

	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return nil, util.WrapErrorf(err, util.ErrGeocodeUnavailable, "nominatim: rate limiter")
		}
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", q)
	params.Set("limit", strconv.Itoa(n.cfg.Limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.cfg.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrGeocodeUnavailable, "nominatim: failed to create request")
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrGeocodeUnavailable, "nominatim: request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, util.NewErrorf(util.ErrGeocodeUnavailable, "nominatim: unexpected status %d", resp.StatusCode)
	}

	var results []searchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, util.WrapErrorf(err, util.ErrGeocodeUnavailable, "nominatim: failed to decode response")
	}

	places := make([]da.Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			n.log.Debug("skipping nominatim result with bad coordinates", zap.String("name", r.DisplayName))
			continue
		}
		p := da.NewPlace(r.DisplayName, lat, lon, da.SEARCH_RESULT).WithType(r.Type)
		if r.OSMType != "" && r.OSMID != 0 {
			p = p.WithOSMElement(r.OSMType, r.OSMID)
		}
		places = append(places, p)
	}
	if len(places) == 0 {
		return nil, util.NewErrorf(util.ErrGeocodeUnavailable, "no places found for %q", query)
	}

	n.cache.Add(key, places)
	return clonePlaces(places), nil
}

func clonePlaces(places []da.Place) []da.Place {
	return append([]da.Place(nil), places...)
}
