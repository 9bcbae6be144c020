package tools

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/cloo-solutions/agrovisor/internal/domain"
)

// FPODirectory answers nearest/by-state lookups over a static list of farmer
// producer organizations. The list comes from a JSON file when one is
// configured and present; otherwise a small bundled sample keeps the feature
// usable in development.
type FPODirectory struct {
	fpos       []domain.FPO
	fromSample bool
}

// ScoredFPO pairs a directory entry with its distance from the query point.
type ScoredFPO struct {
	domain.FPO
	DistanceKM float64
}

// LoadFPODirectory reads the directory JSON at path. A missing or empty path
// falls back to the bundled sample; a file that exists but cannot be parsed is
// an error.
func LoadFPODirectory(path string) (*FPODirectory, error) {
	if path == "" {
		return &FPODirectory{fpos: sampleFPOs(), fromSample: true}, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("fpo: %s not found, using bundled sample directory", path)
		return &FPODirectory{fpos: sampleFPOs(), fromSample: true}, nil
	}
	if err != nil {
		return nil, err
	}

	var records []struct {
		Name     string   `json:"name"`
		District string   `json:"district"`
		State    string   `json:"state"`
		Lat      float64  `json:"lat"`
		Lon      float64  `json:"lon"`
		Services []string `json:"services"`
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	fpos := make([]domain.FPO, 0, len(records))
	for _, r := range records {
		if r.Name == "" || r.State == "" {
			continue
		}
		fpos = append(fpos, domain.FPO{
			Name:     r.Name,
			District: r.District,
			State:    r.State,
			Lat:      r.Lat,
			Lon:      r.Lon,
			Services: r.Services,
		})
	}
	if len(fpos) == 0 {
		log.Printf("fpo: %s held no usable records, using bundled sample directory", path)
		return &FPODirectory{fpos: sampleFPOs(), fromSample: true}, nil
	}
	return &FPODirectory{fpos: fpos}, nil
}

// Nearest returns the limit closest organizations with known coordinates.
func (d *FPODirectory) Nearest(lat, lon float64, limit int) []ScoredFPO {
	if limit <= 0 {
		limit = 5
	}

	scored := make([]ScoredFPO, 0, len(d.fpos))
	for _, f := range d.fpos {
		// Entries without coordinates cannot be ranked by distance.
		if f.Lat == 0 && f.Lon == 0 {
			continue
		}
		scored = append(scored, ScoredFPO{FPO: f, DistanceKM: haversineKM(lat, lon, f.Lat, f.Lon)})
	}
	sort.Slice(scored, func(i, j int) bool { return scored[i].DistanceKM < scored[j].DistanceKM })

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

// ByState returns every organization registered in the given state.
func (d *FPODirectory) ByState(state string) []domain.FPO {
	var out []domain.FPO
	for _, f := range d.fpos {
		if strings.EqualFold(f.State, state) {
			out = append(out, f)
		}
	}
	return out
}

// Len returns the number of directory entries.
func (d *FPODirectory) Len() int {
	return len(d.fpos)
}

// FromSample reports whether the bundled sample is in use.
func (d *FPODirectory) FromSample() bool {
	return d.fromSample
}

func sampleFPOs() []domain.FPO {
	return []domain.FPO{
		{Name: "Punjab Kisan Producer Company Ltd", District: "Ludhiana", State: "Punjab", Lat: 30.9010, Lon: 75.8573, Services: []string{"seeds", "fertilizers", "machinery", "marketing"}},
		{Name: "Malwa FPO", District: "Bathinda", State: "Punjab", Lat: 30.2118, Lon: 74.9455, Services: []string{"organic inputs", "certification", "direct marketing"}},
		{Name: "Majha Farmers Producer Organization", District: "Amritsar", State: "Punjab", Lat: 31.6340, Lon: 74.8723, Services: []string{"machinery rental", "storage", "processing"}},
		{Name: "Haryana Gramin Producer Company", District: "Karnal", State: "Haryana", Lat: 29.6857, Lon: 76.9905, Services: []string{"input supply", "custom hiring", "marketing"}},
		{Name: "Western UP Farmers Producer Organization", District: "Meerut", State: "Uttar Pradesh", Lat: 28.9845, Lon: 77.7064, Services: []string{"machinery", "storage", "processing", "marketing"}},
		{Name: "Vidarbha Cotton Farmers Producer Organization", District: "Nagpur", State: "Maharashtra", Lat: 21.1458, Lon: 79.0882, Services: []string{"organic farming", "certification", "export"}},
		{Name: "Western Maharashtra FPO", District: "Pune", State: "Maharashtra", Lat: 18.5204, Lon: 73.8567, Services: []string{"processing", "packaging", "export", "cold storage"}},
		{Name: "Saurashtra Cotton Producer Organization", District: "Rajkot", State: "Gujarat", Lat: 22.3039, Lon: 70.8022, Services: []string{"ginning", "marketing", "quality testing"}},
		{Name: "Rajasthan Desert Farmers FPO", District: "Jodhpur", State: "Rajasthan", Lat: 26.2389, Lon: 73.0243, Services: []string{"drought management", "seeds", "water conservation"}},
		{Name: "Tamil Nadu Rice Farmers FPO", District: "Thanjavur", State: "Tamil Nadu", Lat: 10.7870, Lon: 79.1378, Services: []string{"custom milling", "marketing", "storage"}},
		{Name: "Bihar Vegetable Growers FPO", District: "Patna", State: "Bihar", Lat: 25.5941, Lon: 85.1376, Services: []string{"cold storage", "packaging", "marketing", "transportation"}},
		{Name: "West Bengal Rice Producers Collective", District: "Burdwan", State: "West Bengal", Lat: 23.2324, Lon: 87.8615, Services: []string{"seeds", "machinery", "marketing", "processing"}},
	}
}
