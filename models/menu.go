package models

// MenuItem is a row of the menu table.
type MenuItem struct {
	ID   int64   `json:"item-id"`
	Item string  `json:"item"`
	Unit string  `json:"unit"`
	Rate float64 `json:"rate"`
}
