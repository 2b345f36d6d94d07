package devotional

import "time"

// Item types sold in the store for grace points.
const (
	ItemTypeSeries = "series"
	ItemTypeTheme  = "theme"
	ItemTypeGift   = "gift"
)

// Verse is one catalog entry of the verse-of-the-day rotation.
type Verse struct {
	ID        string `json:"id" db:"id"`
	Reference string `json:"reference" db:"reference"`
	Text      string `json:"text" db:"text"`
	SortOrder int    `json:"sort_order" db:"sort_order"`
}

// DailyVerse is the rotation output: which verse is shown on which UTC day.
type DailyVerse struct {
	VerseDate time.Time `json:"verse_date" db:"verse_date"`
	VerseID   string    `json:"verse_id" db:"verse_id"`
	Verse     *Verse    `json:"verse,omitempty"`
}

// StoreItem is an unlockable series, theme or one-off gift with its point
// cost. Gifts are consumable: purchasing one spends points but records
// nothing in the ledger's unlocked sets.
type StoreItem struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	ItemType    string    `json:"item_type" db:"item_type"`
	ImageURL    string    `json:"image_url" db:"image_url"`
	PointCost   int       `json:"point_cost" db:"point_cost"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type StoreResponse struct {
	Series           []*StoreItem `json:"series"`
	Themes           []*StoreItem `json:"themes"`
	Gifts            []*StoreItem `json:"gifts"`
	UserPointBalance int          `json:"user_point_balance"`
}
