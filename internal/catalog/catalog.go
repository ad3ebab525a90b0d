// Package catalog memoizes the OpenDota reference tables (heroes, items,
// patches) for the life of the process and resolves ids to display names.
//
// A Cache is owned by whoever constructs it and passed to the pipeline by
// reference. It is not safe for concurrent use; the pipeline's single worker
// is the only caller.
package catalog

import (
	"context"
	"strconv"
	"strings"

	"matchreel/internal/opendota"
	"matchreel/internal/services"
)

// Source fetches the raw constants tables.
type Source interface {
	Heroes(ctx context.Context) (map[string]opendota.HeroConstant, error)
	Items(ctx context.Context) (map[string]opendota.ItemConstant, error)
	Patches(ctx context.Context) ([]opendota.PatchConstant, error)
}

// Catalogs holds id-to-name lookup tables.
type Catalogs struct {
	Heroes  map[int]string
	Items   map[int]string
	Patches map[int]string
}

// HeroName returns the localized hero name or "Hero {id}".
func (c Catalogs) HeroName(id int) string {
	if name, ok := c.Heroes[id]; ok && name != "" {
		return name
	}
	return "Hero " + strconv.Itoa(id)
}

// ItemName returns the item display name or "Item {id}".
func (c Catalogs) ItemName(id int) string {
	if name, ok := c.Items[id]; ok && name != "" {
		return name
	}
	return "Item " + strconv.Itoa(id)
}

// PatchName returns the patch label (e.g. "7.36") for a match's patch id.
func (c Catalogs) PatchName(id int) (string, bool) {
	name, ok := c.Patches[id]
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

// Cache is a read-through memo over a Source. Each table is populated by its
// first successful fetch and never refreshed; failed fetches are not cached.
type Cache struct {
	source  Source
	heroes  map[int]string
	items   map[int]string
	patches map[int]string
}

// NewCache wraps source.
func NewCache(source Source) *Cache {
	return &Cache{source: source}
}

// Load returns all three tables, fetching any that are not yet populated.
func (c *Cache) Load(ctx context.Context) (Catalogs, error) {
	if c.heroes == nil {
		raw, err := c.source.Heroes(ctx)
		if err != nil {
			return Catalogs{}, err
		}
		if raw == nil {
			return Catalogs{}, emptyTable("heroes")
		}
		c.heroes = heroTable(raw)
	}
	if c.items == nil {
		raw, err := c.source.Items(ctx)
		if err != nil {
			return Catalogs{}, err
		}
		if raw == nil {
			return Catalogs{}, emptyTable("items")
		}
		c.items = itemTable(raw)
	}
	if c.patches == nil {
		raw, err := c.source.Patches(ctx)
		if err != nil {
			return Catalogs{}, err
		}
		if raw == nil {
			return Catalogs{}, emptyTable("patches")
		}
		c.patches = patchTable(raw)
	}
	return Catalogs{Heroes: c.heroes, Items: c.items, Patches: c.patches}, nil
}

func emptyTable(name string) error {
	return services.Wrap(services.ErrProvider, "", "load catalog", name+" table is empty", nil)
}

// Loaded reports whether every table has been populated.
func (c *Cache) Loaded() bool {
	return c.heroes != nil && c.items != nil && c.patches != nil
}

func heroTable(raw map[string]opendota.HeroConstant) map[int]string {
	out := make(map[int]string, len(raw))
	for _, hero := range raw {
		if hero.ID <= 0 {
			continue
		}
		out[hero.ID] = strings.TrimSpace(hero.LocalizedName)
	}
	return out
}

func itemTable(raw map[string]opendota.ItemConstant) map[int]string {
	out := make(map[int]string, len(raw))
	for _, item := range raw {
		if item.ID <= 0 {
			continue
		}
		out[item.ID] = strings.TrimSpace(item.DName)
	}
	return out
}

func patchTable(raw []opendota.PatchConstant) map[int]string {
	out := make(map[int]string, len(raw))
	for _, patch := range raw {
		out[patch.ID] = strings.TrimSpace(patch.Name)
	}
	return out
}
