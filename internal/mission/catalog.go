package mission

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
)

//go:embed missions/*.json
var embeddedMissions embed.FS

// Catalog is an immutable, ordered set of missions. It is safe for concurrent
// use once built.
type Catalog struct {
	ordered  []Mission
	byID     map[string]int
	maxLevel int
}

// Default returns the catalog shipped with the binary.
func Default() (*Catalog, error) {
	sub, err := fs.Sub(embeddedMissions, "missions")
	if err != nil {
		return nil, err
	}
	return Load(sub)
}

// LoadDir reads every *.json file in dir. An empty dir selects the embedded
// catalog.
func LoadDir(dir string) (*Catalog, error) {
	if strings.TrimSpace(dir) == "" {
		return Default()
	}
	return Load(os.DirFS(dir))
}

func Load(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.json")
	if err != nil {
		return nil, err
	}

	missions := make([]Mission, 0, len(names))
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var m Mission
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path.Base(name), err)
		}
		missions = append(missions, m)
	}

	return NewCatalog(missions)
}

func NewCatalog(missions []Mission) (*Catalog, error) {
	ids := make([]ID, len(missions))
	byID := make(map[string]int, len(missions))
	for idx, m := range missions {
		id, err := ParseID(m.ID)
		if err != nil {
			return nil, err
		}
		if _, dup := byID[m.ID]; dup {
			return nil, fmt.Errorf("duplicate mission id %s", m.ID)
		}
		byID[m.ID] = idx
		ids[idx] = id
	}

	order := make([]int, len(missions))
	for idx := range order {
		order[idx] = idx
	}
	sort.SliceStable(order, func(i, j int) bool {
		return ids[order[i]].Less(ids[order[j]])
	})

	catalog := &Catalog{
		ordered: make([]Mission, 0, len(missions)),
		byID:    make(map[string]int, len(missions)),
	}
	for _, idx := range order {
		m := missions[idx]
		catalog.byID[m.ID] = len(catalog.ordered)
		catalog.ordered = append(catalog.ordered, m)
		if ids[idx].Level > catalog.maxLevel {
			catalog.maxLevel = ids[idx].Level
		}
	}
	return catalog, nil
}

func (c *Catalog) Get(id string) (Mission, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Mission{}, ErrNotFound
	}
	return c.ordered[idx], nil
}

// All returns missions ordered by level, then mission number. Callers must
// treat the slice as read-only.
func (c *Catalog) All() []Mission {
	return c.ordered
}

// MaxLevel is the highest level any mission in the catalog belongs to.
func (c *Catalog) MaxLevel() int {
	return c.maxLevel
}

func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Validate runs Mission.Validate on every entry and returns all failures.
func (c *Catalog) Validate() []error {
	var errs []error
	for _, m := range c.ordered {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
