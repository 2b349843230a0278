package domain

import (
	"time"
)

// SortMode indicates how catalog listings are ordered.
type SortMode string

const (
	// SortDefault keeps products in original load order.
	SortDefault SortMode = "default"
	// SortPriceAsc orders products by ascending price.
	SortPriceAsc SortMode = "price-asc"
	// SortPriceDesc orders products by descending price.
	SortPriceDesc SortMode = "price-desc"
	// SortName orders products by name using locale-aware collation.
	SortName SortMode = "name"
)

// CategoryAll is the synthetic wildcard category matching every product.
const CategoryAll = "all"

// Product describes a single catalog item. Products are immutable once loaded.
type Product struct {
	ID              string
	Name            string
	Description     string
	LongDescription string
	// Price is expressed in whole SAR.
	Price        int
	OldPrice     *int
	CategoryID   string
	CategoryName string
	Icon         string
	Image        string
	Size         string
	Badge        string
	InStock      bool
	Rating       float64
	Features     []string
}

// Category groups products for filtering. The "all" identifier never appears
// as a real product's category.
type Category struct {
	ID   string
	Name string
	Icon string
}

// PortfolioItem is a showcase entry used by the brief wizard's match step.
type PortfolioItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Subtitle    string   `json:"subtitle,omitempty"`
	Category    string   `json:"category"`
	Style       string   `json:"style,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Background  string   `json:"background,omitempty"`
}

// BriefForm holds the answers collected by the brief wizard.
type BriefForm struct {
	ProjectType string `json:"type"`
	Budget      string `json:"budget"`
	Timeline    string `json:"timeline"`
	Name        string `json:"name"`
	Company     string `json:"company"`
	WhatsApp    string `json:"whatsapp"`
}

// BriefState is the persisted wizard progress for one session.
type BriefState struct {
	Step    int       `json:"step"`
	Form    BriefForm `json:"form"`
	SavedAt time.Time `json:"savedAt"`
}

// BriefStepCount is the number of wizard steps; step 5 is the confirmation.
const BriefStepCount = 5

// CartEntry references a product with a bounded quantity.
type CartEntry struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// CartState is the persisted selection for one session. Entries are unique
// per product identifier.
type CartState struct {
	Entries []CartEntry `json:"items"`
}

// Cart quantity bounds.
const (
	CartQuantityMin = 1
	CartQuantityMax = 99
)

// Theme enumerates the supported UI themes.
type Theme string

const (
	// ThemeDark is the default presentation.
	ThemeDark Theme = "dark"
	// ThemeIdea is the alternate light presentation.
	ThemeIdea Theme = "idea"
)

// Preferences captures cross-cutting per-session UI state.
type Preferences struct {
	Theme      Theme           `json:"theme"`
	Dismissals map[string]bool `json:"dismissals,omitempty"`
}
