package geocoder

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/dsnet/compress/bzip2"
	da "github.com/lintang-b-s/ecoflow/pkg/datastructure"
	"github.com/lintang-b-s/ecoflow/pkg/spatialindex"
	"github.com/lintang-b-s/ecoflow/pkg/util"
	"go.uber.org/zap"
)

const maxCatalogResults = 10

type catalogEntry struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

// SeedPlaces are the points of interest written when no catalog file exists.
func SeedPlaces() []da.Place {
	entries := []catalogEntry{
		{"Plaza de Bolívar", 4.5981, -74.0758, "landmark"},
		{"Parque Simón Bolívar", 4.6582, -74.0942, "park"},
		{"Museo del Oro", 4.6018, -74.0705, "museum"},
		{"Biblioteca Luis Ángel Arango", 4.5985, -74.0742, "library"},
		{"Monserrate", 4.6057, -74.0565, "landmark"},
		{"Torre Colpatria", 4.6126, -74.0691, "landmark"},
		{"La Candelaria", 4.5964, -74.0741, "neighborhood"},
		{"Universidad Nacional", 4.6365, -74.0847, "university"},
		{"Jardín Botánico", 4.6669, -74.0994, "park"},
		{"Catedral Primada", 4.5986, -74.0758, "religious"},
		{"Estadio El Campín", 4.6470, -74.0779, "stadium"},
		{"Parque de la 93", 4.6769, -74.0480, "park"},
		{"Avenida Carrera Séptima", 4.6097, -74.0682, "avenue"},
		{"Zona T", 4.6679, -74.0548, "neighborhood"},
		{"Centro Andino", 4.6672, -74.0535, "shopping"},
	}
	return toPlaces(entries)
}

func toPlaces(entries []catalogEntry) []da.Place {
	places := make([]da.Place, 0, len(entries))
	for _, e := range entries {
		places = append(places, da.NewPlace(e.Name, e.Lat, e.Lon, da.SEARCH_RESULT).WithType(e.Type))
	}
	return places
}

// Catalog is an in-memory list of points of interest. It is read-only after construction and safe
// for concurrent use.
type Catalog struct {
	places []da.Place
	index  *spatialindex.Rtree
	log    *zap.Logger
}

func NewCatalog(places []da.Place, log *zap.Logger) *Catalog {
	index := spatialindex.NewRtree()
	index.Build(places, log)
	return &Catalog{
		places: append([]da.Place(nil), places...),
		index:  index,
		log:    log,
	}
}

// LoadCatalog reads a catalog from a .json or .json.bz2 file. A missing file is created from
// SeedPlaces.
func LoadCatalog(path string, log *zap.Logger) (*Catalog, error) {
	if path == "" {
		return NewCatalog(SeedPlaces(), log), nil
	}

	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Info("points of interest file not found, writing sample places", zap.String("path", path))
		seed := SeedPlaces()
		if err := WriteCatalog(path, seed); err != nil {
			log.Warn("failed to write sample places", zap.Error(err))
		}
		return NewCatalog(seed, log), nil
	}
	if err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "catalog: failed to open %s", path)
	}
	defer f.Close()

	var r io.Reader = bufio.NewReader(f)
	if strings.HasSuffix(path, ".bz2") {
		bz, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, util.WrapErrorf(err, util.ErrInternalServerError, "catalog: failed to open bzip2 stream")
		}
		defer bz.Close()
		r = bufio.NewReader(bz)
	}

	var entries []catalogEntry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, util.WrapErrorf(err, util.ErrInternalServerError, "catalog: failed to decode %s", path)
	}
	log.Info("loaded points of interest", zap.String("path", path), zap.Int("count", len(entries)))
	return NewCatalog(toPlaces(entries), log), nil
}

// WriteCatalog stores places as json, bzip2 compressed when path ends in .bz2.
func WriteCatalog(path string, places []da.Place) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	entries := make([]catalogEntry, 0, len(places))
	for _, p := range places {
		entries = append(entries, catalogEntry{Name: p.Name(), Lat: p.Lat(), Lon: p.Lon(), Type: p.Type()})
	}

	if !strings.HasSuffix(path, ".bz2") {
		enc := json.NewEncoder(f)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	bz, err := bzip2.NewWriter(f, &bzip2.WriterConfig{})
	if err != nil {
		return err
	}
	if err := json.NewEncoder(bz).Encode(entries); err != nil {
		bz.Close()
		return err
	}
	return bz.Close()
}

// Search returns up to 10 places whose name contains query, case-insensitively.
func (c *Catalog) Search(ctx context.Context, query string) ([]da.Place, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, util.NewErrorf(util.ErrBadParamInput, "search query is empty")
	}
	results := make([]da.Place, 0, maxCatalogResults)
	for _, p := range c.places {
		if util.StopConcurrentOperation(ctx) {
			return nil, ctx.Err()
		}
		if strings.Contains(strings.ToLower(p.Name()), q) {
			results = append(results, p)
			if len(results) == maxCatalogResults {
				break
			}
		}
	}
	return results, nil
}

// Nearby returns the places within radiusKm, nearest first.
func (c *Catalog) Nearby(lat, lon, radiusKm float64) []spatialindex.Nearby {
	return c.index.SearchWithinRadius(lat, lon, radiusKm)
}

func (c *Catalog) Len() int {
	return len(c.places)
}
