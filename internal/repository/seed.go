package repository

import (
	"fmt"

	"github.com/atinyakov/travelsite/internal/models"
)

type seedTemplate struct {
	details   string
	imagePath string
	price     string
}

var localTitles = []string{
	"Boracay Luxe Escape",
	"Palawan Premium",
	"Cebu & Bohol Signature",
	"Siargao Surf & Spa Retreat",
	"Baguio Highland Weekend",
	"Vigan Heritage Escape",
	"Davao Mountain & City Blend",
	"Iloilo-Guimaras Gourmet Trail",
	"Batanes Scenic Hideaway",
	"Bicol Volcano Coastline Tour",
	"Camiguin Island Wellness Stay",
	"Sagada Pine & Caves Journey",
	"La Union Beach Reset",
	"Coron Yacht Weekender",
	"Bohol Family Discovery",
	"Bacolod Sugarland Getaway",
	"Cagayan de Oro Adventure Pack",
	"Dumaguete Apo Island Escape",
	"Zambales Glamping Seaside",
	"Puerto Princesa Underground River Classic",
}

var internationalTitles = []string{
	"Singapore Adventure",
	"Seoul Discovery",
	"Japan Classic",
	"Dubai Gold Collection",
	"Bangkok City & River Luxe",
	"Hong Kong Skyline Escape",
	"Bali Villa Indulgence",
	"Taipei Night Market Discovery",
	"Istanbul Heritage & Bosphorus",
	"Paris Landmark Collection",
	"Swiss Alpine Panorama",
	"London Royal Weekend",
	"Rome & Florence Art Trail",
	"Sydney Harbor Signature",
	"Auckland Scenic Explorer",
	"Barcelona Mediterranean Break",
	"Prague Old Town Romance",
	"New York City Premium Stay",
	"Vancouver Mountain & City",
	"Doha Desert and Downtown Select",
}

var localTemplates = []seedTemplate{
	{
		details:   "4 Days / 3 Nights • Beachfront resort • Island hopping",
		imagePath: "/images/packages/local/boracay-luxe-escape.jpg",
		price:     "from PHP 24,900",
	},
	{
		details:   "5 Days / 4 Nights • El Nido lagoons • Private boat day",
		imagePath: "/images/packages/local/palawan-premium.jpg",
		price:     "from PHP 32,500",
	},
	{
		details:   "5 Days / 4 Nights • City stay • Countryside + marine tour",
		imagePath: "/images/packages/local/cebu-bohol-signature.jpg",
		price:     "from PHP 29,800",
	},
}

var internationalTemplates = []seedTemplate{
	{
		details:   "4 Days / 3 Nights • Marina Bay stay • Private city guide",
		imagePath: "/images/packages/international/singapore-adventure.jpg",
		price:     "from PHP 88,900",
	},
	{
		details:   "5 Days / 4 Nights • Palace district tour • Premium food trail",
		imagePath: "/images/packages/international/seoul-202601jpg.jpg",
		price:     "from PHP 104,500",
	},
	{
		details:   "6 Days / 5 Nights • Tokyo + Kyoto • Ryokan & fast-rail pass",
		imagePath: "/images/packages/international/japan-classic.jpg",
		price:     "from PHP 136,000",
	},
	{
		details:   "5 Days / 4 Nights • Downtown hotel • Desert safari VIP",
		imagePath: "/images/packages/international/dubai-gold-collection.jpg",
		price:     "from PHP 118,900",
	},
}

// LegacyID returns the id given to seeded records and to stored records that
// have none: {category}-{slug(title)}-{index+1}.
func LegacyID(cat models.Category, title string, index int) string {
	return fmt.Sprintf("%s-%s-%d", cat, models.Slugify(title), index+1)
}

// SeedCatalog returns the default catalog written when no stored catalog exists.
func SeedCatalog() models.Catalog {
	return models.Catalog{
		Local:         seedRecords(models.Local, localTitles, localTemplates),
		International: seedRecords(models.International, internationalTitles, internationalTemplates),
	}
}

func seedRecords(cat models.Category, titles []string, templates []seedTemplate) []models.PackageRecord {
	records := make([]models.PackageRecord, 0, len(titles))
	for i, title := range titles {
		tpl := templates[i%len(templates)]
		records = append(records, models.PackageRecord{
			ID:           LegacyID(cat, title, i),
			Category:     cat,
			Title:        title,
			Details:      tpl.details,
			PreviewImage: tpl.imagePath,
			ImagePath:    tpl.imagePath,
			Price:        tpl.price,
		})
	}
	return records
}
