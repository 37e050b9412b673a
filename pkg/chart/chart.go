// Package chart keeps Chart.js shaped chart configurations. The browser renders them as they are.
package chart

import (
	"github.com/lintang-b-s/ecoflow/pkg/util"
)

type Type string

const (
	TypeBar  Type = "bar"
	TypePie  Type = "pie"
	TypeLine Type = "line"
)

type Dataset struct {
	Label           string    `json:"label,omitempty"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     []string  `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
}

type Axis struct {
	BeginAtZero bool     `json:"beginAtZero"`
	Max         *float64 `json:"max,omitempty"`
	Title       string   `json:"title,omitempty"`
}

type Options struct {
	Title          string `json:"title,omitempty"`
	ShowLegend     bool   `json:"showLegend"`
	LegendPosition string `json:"legendPosition,omitempty"`
	Y              *Axis  `json:"y,omitempty"`
	X              *Axis  `json:"x,omitempty"`
}

type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Chart struct {
	ID      string  `json:"id"`
	Type    Type    `json:"type"`
	Data    Data    `json:"data"`
	Options Options `json:"options"`
	Version uint64  `json:"version"`
}

func (c Chart) clone() Chart {
	out := c
	out.Data.Labels = append([]string(nil), c.Data.Labels...)
	out.Data.Datasets = make([]Dataset, len(c.Data.Datasets))
	for i, ds := range c.Data.Datasets {
		ds.Data = append([]float64(nil), ds.Data...)
		ds.BackgroundColor = append([]string(nil), ds.BackgroundColor...)
		ds.BorderColor = append([]string(nil), ds.BorderColor...)
		out.Data.Datasets[i] = ds
	}
	return out
}

// Registry tracks the charts shown on one page. Not safe for concurrent use.
type Registry struct {
	charts map[string]*Chart
	order  []string
}

func NewRegistry() *Registry {
	return &Registry{charts: make(map[string]*Chart)}
}

// Create installs c under c.ID, destroying any chart already shown there.
func (r *Registry) Create(c Chart) Chart {
	if c.ID == "" {
		c.ID = string(c.Type)
	}
	var version uint64
	if old, ok := r.charts[c.ID]; ok {
		version = old.Version
		r.Destroy(c.ID)
	}
	c = c.clone()
	c.Version = version + 1
	r.charts[c.ID] = &c
	r.order = append(r.order, c.ID)
	return c.clone()
}

// Update replaces the data of an existing chart.
func (r *Registry) Update(id string, data Data) (Chart, error) {
	c, ok := r.charts[id]
	if !ok {
		return Chart{}, util.NewErrorf(util.ErrNotFound, "chart %q not found", id)
	}
	c.Data = Chart{Data: data}.clone().Data
	c.Version++
	return c.clone(), nil
}

func (r *Registry) Destroy(id string) bool {
	if _, ok := r.charts[id]; !ok {
		return false
	}
	delete(r.charts, id)
	for i, cid := range r.order {
		if cid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

func (r *Registry) Get(id string) (Chart, bool) {
	c, ok := r.charts[id]
	if !ok {
		return Chart{}, false
	}
	return c.clone(), true
}

// All returns the charts in creation order.
func (r *Registry) All() []Chart {
	out := make([]Chart, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.charts[id].clone())
	}
	return out
}
