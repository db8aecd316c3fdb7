package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pefman/w40k-volley/internal/models"
)

// Catalog indexes unit profiles by name, case-insensitively. It is safe for
// concurrent use.
type Catalog struct {
	mu       sync.RWMutex
	units    map[string]*models.Profile
	factions map[string][]string
}

func New() *Catalog {
	return &Catalog{
		units:    make(map[string]*models.Profile),
		factions: make(map[string][]string),
	}
}

// LoadDir reads every *.json file in dir. Each file holds an array of
// profiles; the file stem is their faction.
func LoadDir(dir string) (*Catalog, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	c := New()
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", f, err)
		}
		var ps []models.Profile
		if err := json.Unmarshal(data, &ps); err != nil {
			return nil, fmt.Errorf("decode %s: %w", f, err)
		}
		c.Add(strings.TrimSuffix(filepath.Base(f), filepath.Ext(f)), ps...)
	}
	return c, nil
}

// Add registers profiles under a faction. A unit with the same name replaces
// the earlier one.
func (c *Catalog) Add(faction string, ps ...models.Profile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range ps {
		p := ps[i]
		if p.Faction == "" {
			p.Faction = faction
		}
		key := strings.ToLower(p.Name)
		if _, ok := c.units[key]; !ok {
			c.factions[p.Faction] = append(c.factions[p.Faction], p.Name)
		}
		c.units[key] = &p
	}
}

// Unit returns a copy of the named profile.
func (c *Catalog) Unit(name string) (models.Profile, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.units[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return models.Profile{}, fmt.Errorf("unit %q: %w", name, models.ErrNotFound)
	}
	return *p, nil
}

func (c *Catalog) Factions() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.factions))
	for f := range c.factions {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// Units lists unit names, sorted. An empty faction lists all of them.
func (c *Catalog) Units(faction string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for f, names := range c.factions {
		if faction == "" || strings.EqualFold(f, faction) {
			out = append(out, names...)
		}
	}
	slices.SortFunc(out, func(a, b string) int { return strings.Compare(strings.ToLower(a), strings.ToLower(b)) })
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}
