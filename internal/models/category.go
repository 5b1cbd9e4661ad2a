package models

// Category is a job tier in the placement ladder.
type Category string

const (
	CategoryMass      Category = "mass"
	CategoryCore      Category = "core"
	CategoryDream     Category = "dream"
	CategoryOpenDream Category = "open_dream"
)

// Categories lists every tier from lowest to highest.
var Categories = []Category{CategoryMass, CategoryCore, CategoryDream, CategoryOpenDream}

// Valid reports whether c is a known tier.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
