package models

import (
	"github.com/lib/pq"
)

// Product is a live catalog entity. Orders never reference these rows for
// display; they snapshot the fields they need at order time.
type Product struct {
	BaseModel
	Title         string         `gorm:"size:100" json:"title"`
	Description   string         `json:"description"`
	Price         float64        `json:"price"`
	OriginalPrice *float64       `json:"original_price,omitempty"`
	DiscountPrice *float64       `json:"discount_price,omitempty"`
	Image         string         `json:"image"`
	Rating        float64        `json:"rating"`
	Category      string         `gorm:"size:50;index" json:"category"`
	Featured      bool           `json:"featured"`
	Specs         pq.StringArray `gorm:"type:text[]" json:"specs,omitempty"`
}

// EffectivePrice returns the discounted price when one is set.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountPrice != nil {
		return *p.DiscountPrice
	}
	return p.Price
}

// ProductFields is the registry of columns products can be filtered and
// sorted by.
var ProductFields = withBaseFields(
	"title", "description", "price", "original_price", "discount_price",
	"rating", "category", "featured",
)

// ProductSearchFields are the columns covered by free-text search.
var ProductSearchFields = []string{"title", "description", "category"}
