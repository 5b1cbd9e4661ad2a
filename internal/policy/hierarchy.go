// Package policy holds the pure placement rules: category ladder, academic
// criteria and the application lifecycle. Nothing here touches storage.
package policy

import (
	"fmt"

	"github.com/noah-isme/campus-placement-api/internal/models"
)

// Tier binds a category to its display name. Tiers are listed lowest first.
type Tier struct {
	Category    models.Category
	DisplayName string
}

// Hierarchy is an immutable ranking of job categories.
type Hierarchy struct {
	order []models.Category
	ranks map[models.Category]int
	names map[models.Category]string
}

// DefaultTiers is the institution ladder mass < core < dream < open_dream.
var DefaultTiers = []Tier{
	{Category: models.CategoryMass, DisplayName: "Mass"},
	{Category: models.CategoryCore, DisplayName: "Core"},
	{Category: models.CategoryDream, DisplayName: "Dream"},
	{Category: models.CategoryOpenDream, DisplayName: "Open Dream"},
}

// NewHierarchy builds a hierarchy from tiers ordered lowest to highest.
func NewHierarchy(tiers []Tier) (Hierarchy, error) {
	if len(tiers) == 0 {
		return Hierarchy{}, fmt.Errorf("hierarchy requires at least one tier")
	}
	h := Hierarchy{
		order: make([]models.Category, 0, len(tiers)),
		ranks: make(map[models.Category]int, len(tiers)),
		names: make(map[models.Category]string, len(tiers)),
	}
	for i, tier := range tiers {
		if tier.Category == "" {
			return Hierarchy{}, fmt.Errorf("tier %d has no category", i)
		}
		if _, dup := h.ranks[tier.Category]; dup {
			return Hierarchy{}, fmt.Errorf("duplicate tier %q", tier.Category)
		}
		h.order = append(h.order, tier.Category)
		h.ranks[tier.Category] = i + 1
		h.names[tier.Category] = tier.DisplayName
	}
	return h, nil
}

// DefaultHierarchy returns the standard four-tier ladder.
func DefaultHierarchy() Hierarchy {
	h, err := NewHierarchy(DefaultTiers)
	if err != nil {
		panic(err)
	}
	return h
}

// Level returns the rank of c, starting at 1. Unknown categories rank 0.
func (h Hierarchy) Level(c models.Category) int {
	return h.ranks[c]
}

// Known reports whether c is part of the hierarchy.
func (h Hierarchy) Known(c models.Category) bool {
	_, ok := h.ranks[c]
	return ok
}

// AllowedAbove returns every category ranked strictly above c, lowest first.
func (h Hierarchy) AllowedAbove(c models.Category) []models.Category {
	level := h.Level(c)
	out := make([]models.Category, 0, len(h.order))
	for _, candidate := range h.order {
		if h.ranks[candidate] > level {
			out = append(out, candidate)
		}
	}
	return out
}

// Categories returns all tiers lowest first.
func (h Hierarchy) Categories() []models.Category {
	out := make([]models.Category, len(h.order))
	copy(out, h.order)
	return out
}

// DisplayName returns the human name of c, falling back to the raw value.
func (h Hierarchy) DisplayName(c models.Category) string {
	if name, ok := h.names[c]; ok && name != "" {
		return name
	}
	return string(c)
}

// Highest returns the top-ranked category among cs.
func (h Hierarchy) Highest(cs ...models.Category) (models.Category, bool) {
	var best models.Category
	found := false
	for _, c := range cs {
		if !found || h.Level(c) > h.Level(best) {
			best = c
			found = true
		}
	}
	return best, found
}
