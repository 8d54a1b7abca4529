package domain

import "time"

// User is a registered account of the mobile app.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Name         string
	CreatedAt    time.Time
}

// City is one of a user's registered weather cities.
type City struct {
	ID           int64  `json:"city_id"`
	UserID       int64  `json:"-"`
	CityName     string `json:"city_name"`
	DisplayOrder int    `json:"display_order"`
	IsFavorite   bool   `json:"is_favorite"`
}
