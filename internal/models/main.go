// Package models defines the core data structures of the package catalog.
package models

import (
	"regexp"
	"strings"
)

// Category is the partition key of the catalog.
type Category string

const (
	// Local represents trips inside the Philippines.
	Local Category = "local"
	// International represents overseas trips.
	International Category = "international"
)

// Categories lists every known category in display order.
var Categories = []Category{Local, International}

// ParseCategory reports whether s names a known category.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case Local, International:
		return Category(s), true
	}
	return "", false
}

// CategoryMeta holds the display texts of a category.
type CategoryMeta struct {
	Title       string `json:"title"`
	ShortLabel  string `json:"shortLabel"`
	Description string `json:"description"`
}

// CategoryInfo maps every category to its display texts.
var CategoryInfo = map[Category]CategoryMeta{
	Local: {
		Title:       "Local Philippines Packages",
		ShortLabel:  "Local",
		Description: "Curated Philippines trips with premium stays and guided experiences.",
	},
	International: {
		Title:       "International Packages",
		ShortLabel:  "International",
		Description: "Handpicked overseas itineraries designed for seamless premium travel.",
	},
}

// PackageRecord is a single travel package of the catalog.
type PackageRecord struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id"`
	// Category is the partition the record currently belongs to.
	Category Category `json:"category"`
	// Title is the display name of the package.
	Title string `json:"title"`
	// Details is a short itinerary summary.
	Details string `json:"details"`
	// PreviewImage is the image shown in listings.
	PreviewImage string `json:"previewImage"`
	// ImagePath is the full size image.
	ImagePath string `json:"imagePath"`
	// Price is a free text price label.
	Price string `json:"price"`
}

// Catalog is the full set of package records partitioned by category.
// Slice order is display order, newest first.
type Catalog struct {
	Local         []PackageRecord `json:"local"`
	International []PackageRecord `json:"international"`
}

// List returns the records of the given category.
func (c *Catalog) List(cat Category) []PackageRecord {
	if p := c.partition(cat); p != nil {
		return *p
	}
	return nil
}

// Set replaces the records of the given category.
func (c *Catalog) Set(cat Category, records []PackageRecord) {
	if p := c.partition(cat); p != nil {
		*p = records
	}
}

// Prepend places rec first in its category.
func (c *Catalog) Prepend(rec PackageRecord) {
	list := c.List(rec.Category)
	out := make([]PackageRecord, 0, len(list)+1)
	out = append(out, rec)
	c.Set(rec.Category, append(out, list...))
}

// Find locates the record with the given id in any category.
// It returns the category, the index within it, and whether it was found.
func (c *Catalog) Find(id string) (Category, int, bool) {
	for _, cat := range Categories {
		for i, rec := range c.List(cat) {
			if rec.ID == id {
				return cat, i, true
			}
		}
	}
	return "", -1, false
}

// Remove deletes the record at index i of the given category and returns it.
func (c *Catalog) Remove(cat Category, i int) PackageRecord {
	list := c.List(cat)
	rec := list[i]
	out := make([]PackageRecord, 0, len(list)-1)
	out = append(out, list[:i]...)
	c.Set(cat, append(out, list[i+1:]...))
	return rec
}

func (c *Catalog) partition(cat Category) *[]PackageRecord {
	switch cat {
	case Local:
		return &c.Local
	case International:
		return &c.International
	}
	return nil
}

// PackageFields carries the values of a record to be created.
type PackageFields struct {
	Category     Category
	Title        string
	Details      string
	Price        string
	ImagePath    string
	PreviewImage string
}

// PackageUpdate carries a partial update. Nil fields are left unchanged.
type PackageUpdate struct {
	Category     *Category
	Title        *string
	Details      *string
	Price        *string
	ImagePath    *string
	PreviewImage *string
}

// IsEmpty reports whether the update changes nothing.
func (u PackageUpdate) IsEmpty() bool {
	return u.Category == nil && u.Title == nil && u.Details == nil &&
		u.Price == nil && u.ImagePath == nil && u.PreviewImage == nil
}

var (
	spaceRun   = regexp.MustCompile(`[\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]+`)
	nonSlugRun = regexp.MustCompile(`[^a-z0-9]+`)
)

// SanitizeText trims s and collapses internal whitespace runs to one space.
// Unicode spaces such as NBSP and the byte order mark count as whitespace.
func SanitizeText(s string) string {
	return strings.Trim(spaceRun.ReplaceAllString(s, " "), " ")
}

// Slugify lowercases s and joins its alphanumeric runs with dashes.
// It returns "package" when nothing is left.
func Slugify(s string) string {
	slug := strings.Trim(nonSlugRun.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "package"
	}
	return slug
}
