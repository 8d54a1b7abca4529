package domain

import "time"

// ClothingItem is one entry of the clothing catalog.
type ClothingItem struct {
	ID       int64  `json:"clothing_id"`
	Name     string `json:"name"`
	Category string `json:"category"` // outer / tops / bottoms / accessory
}

// ClothingChoice records which items a user actually wore (or accepted from
// a suggestion) on a given day, together with the weather at choice time.
type ClothingChoice struct {
	ID            int64
	UserID        int64
	ClothingID    int64
	ChoiceDate    string // YYYY-MM-DD
	Weather       string
	Temperature   float64
	IsRecommended bool
	CreatedAt     time.Time
}
