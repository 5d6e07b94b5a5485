package models

import "time"

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Picture  string `json:"picture"`
	Email    string `json:"email"`
}

type Category struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	UserID int    `json:"-"`
}

type Item struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CategoryID  int       `json:"cat_id"`
	UserID      int       `json:"-"` // Don't expose owner in JSON
	LastUpdated time.Time `json:"-"`
}

// ItemExport and CategoryExport define the /catalog.json wire format.
type ItemExport struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  int    `json:"cat_id"`
}

type CategoryExport struct {
	ID    int          `json:"id"`
	Name  string       `json:"name"`
	Items []ItemExport `json:"Items"`
}

type CatalogExport struct {
	Category []CategoryExport `json:"Category"`
}
