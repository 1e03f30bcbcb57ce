package domain

import "time"

// Availability values for an artwork.
const (
	AvailabilityAvailable = "available"
	AvailabilityReserved  = "reserved"
	AvailabilitySold      = "sold"
)

// Artwork is a piece listed in the shop gallery.
type Artwork struct {
	ID                 string    `json:"id"`
	Title              string    `json:"title"`
	Description        string    `json:"description,omitempty"`
	ImageURL           string    `json:"image_url"`
	CollectionName     string    `json:"collection_name,omitempty"`
	Price              float64   `json:"price"`
	AvailabilityStatus string    `json:"availability_status"`
	Technique          string    `json:"technique,omitempty"`
	SizeCategory       string    `json:"size_category,omitempty"`
	DominantColors     []string  `json:"dominant_colors,omitempty"`
	MoodTags           []string  `json:"mood_tags,omitempty"`
	CreatedYear        int       `json:"created_year,omitempty"`
	CreatedAt          time.Time `json:"created_at"`
}

// Available reports whether the artwork can be bought.
func (a Artwork) Available() bool {
	return a.AvailabilityStatus == AvailabilityAvailable
}

// AsLineItem builds the cart line candidate for this artwork.
func (a Artwork) AsLineItem() LineItem {
	return LineItem{
		ID:           a.ID,
		Title:        a.Title,
		Price:        a.Price,
		ImageURL:     a.ImageURL,
		SizeCategory: a.SizeCategory,
		Technique:    a.Technique,
	}
}

// Artwork sort orders.
const (
	SortNewest    = "newest"
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortTitle     = "title"
)

// ArtworkFilter narrows a gallery listing. Zero fields do not filter.
type ArtworkFilter struct {
	Technique     string
	SizeCategory  string
	Color         string
	Mood          string
	Collection    string
	Query         string
	MinPrice      *float64
	MaxPrice      *float64
	AvailableOnly bool
	Sort          string
	Limit         int
	Offset        int
}
