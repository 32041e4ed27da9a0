// Package catalog reads the published opportunities and hotels from JSON files.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sync"

	"voluntrip/internal/adapters/metrics"
	"voluntrip/internal/domain/hotel"
	"voluntrip/internal/domain/opportunity"
)

// HotelsFile is the hotels catalog path inside the data directory.
const HotelsFile = "hotels.json"

// ErrHotelsNotArray is returned when hotels.json does not hold a JSON array.
var ErrHotelsNotArray = errors.New("hotels.json must be an array")

// SectionFile returns the catalog path of one rail.
func SectionFile(section string) string {
	return path.Join("opportunities", section+".json")
}

// Catalog loads each file once and keeps it. Sections that fail to load are not
// cached and are tried again on the next request.
type Catalog struct {
	fsys    fs.FS
	metrics *metrics.Metrics

	mu       sync.RWMutex
	sections map[string][]opportunity.Opportunity
	byID     map[string]opportunity.Opportunity
	hotels   []hotel.Hotel
}

// New creates a catalog over fsys, usually os.DirFS of the data directory.
func New(fsys fs.FS, m *metrics.Metrics) *Catalog {
	return &Catalog{
		fsys:     fsys,
		metrics:  m,
		sections: make(map[string][]opportunity.Opportunity),
		byID:     make(map[string]opportunity.Opportunity),
	}
}

// Section returns the opportunities of one rail in file order.
// PRE: opportunity.IsSection(section)
func (c *Catalog) Section(section string) ([]opportunity.Opportunity, error) {
	if !opportunity.IsSection(section) {
		return nil, fmt.Errorf("%w: %q", opportunity.ErrUnknownSection, section)
	}
	c.mu.RLock()
	list, ok := c.sections[section]
	c.mu.RUnlock()
	if ok {
		return list, nil
	}

	list, err := c.readSection(section)
	if err != nil {
		c.metrics.CatalogLoadFailed(section)
		slog.Error("catalog_event", "event", "section_load_failed", "section", section, "error", err)
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections[section] = list
	for _, o := range list {
		c.byID[o.ID] = o
	}
	return list, nil
}

// All loads every section. A failing section is reported in errs and the others
// are still returned.
func (c *Catalog) All() (map[string][]opportunity.Opportunity, map[string]error) {
	out := make(map[string][]opportunity.Opportunity, len(opportunity.Sections))
	var errs map[string]error
	for _, s := range opportunity.Sections {
		list, err := c.Section(s)
		if err != nil {
			if errs == nil {
				errs = make(map[string]error)
			}
			errs[s] = err
			continue
		}
		out[s] = list
	}
	return out, errs
}

// ByID finds an opportunity in any loaded section. Sections not loaded yet are
// loaded first.
func (c *Catalog) ByID(id string) (opportunity.Opportunity, bool) {
	c.mu.RLock()
	o, ok := c.byID[id]
	c.mu.RUnlock()
	if ok {
		return o, true
	}
	c.All()
	c.mu.RLock()
	defer c.mu.RUnlock()
	o, ok = c.byID[id]
	return o, ok
}

// Hotels returns the normalized hotels list.
func (c *Catalog) Hotels() ([]hotel.Hotel, error) {
	c.mu.RLock()
	hs := c.hotels
	c.mu.RUnlock()
	if hs != nil {
		return hs, nil
	}

	raw, err := fs.ReadFile(c.fsys, HotelsFile)
	if err != nil {
		return nil, c.hotelsFailed(err)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, c.hotelsFailed(ErrHotelsNotArray)
	}
	hs = make([]hotel.Hotel, 0, len(items))
	for i, item := range items {
		var h hotel.Hotel
		if err := json.Unmarshal(item, &h); err != nil {
			slog.Warn("catalog_event", "event", "hotel_skipped", "index", i, "error", err)
			continue
		}
		hs = append(hs, hotel.Normalize(h, i))
	}

	c.mu.Lock()
	c.hotels = hs
	c.mu.Unlock()
	return hs, nil
}

// Reset drops everything cached so the next call reads the files again.
func (c *Catalog) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sections = make(map[string][]opportunity.Opportunity)
	c.byID = make(map[string]opportunity.Opportunity)
	c.hotels = nil
}

func (c *Catalog) hotelsFailed(err error) error {
	c.metrics.CatalogLoadFailed("hotels")
	slog.Error("catalog_event", "event", "hotels_load_failed", "error", err)
	return fmt.Errorf("load hotels: %w", err)
}

// readSection decodes one section file. A file that is valid JSON but not an
// array yields an empty rail; entries without id or title are skipped.
func (c *Catalog) readSection(section string) ([]opportunity.Opportunity, error) {
	raw, err := fs.ReadFile(c.fsys, SectionFile(section))
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SectionFile(section), err)
	}
	if _, ok := doc.([]any); !ok {
		return []opportunity.Opportunity{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", SectionFile(section), err)
	}
	list := make([]opportunity.Opportunity, 0, len(items))
	for i, item := range items {
		var o opportunity.Opportunity
		if err := json.Unmarshal(item, &o); err != nil {
			slog.Warn("catalog_event", "event", "opportunity_skipped", "section", section, "index", i, "error", err)
			continue
		}
		if err := o.Validate(); err != nil {
			slog.Warn("catalog_event", "event", "opportunity_skipped", "section", section, "index", i, "error", err)
			continue
		}
		o.Section = section
		list = append(list, o)
	}
	return list, nil
}
