package models

import "time"

// Country is a global reference row shared across all tenants.
type Country struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	ISO2Code     string    `json:"iso2_code"`
	ISO3Code     string    `json:"iso3_code"`
	LanguageCode string    `json:"language_code"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Region belongs to exactly one Country.
type Region struct {
	ID        int64     `json:"id"`
	CountryID int64     `json:"country_id"`
	Name      string    `json:"name"`
	Code      string    `json:"code"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// City belongs to one Country and one Region.
//
// Invariant: the region's country must equal the city's country. Enforced on
// create by the stores; the schema backs it with FKs.
type City struct {
	ID         int64     `json:"id"`
	CountryID  int64     `json:"country_id"`
	RegionID   int64     `json:"region_id"`
	Name       string    `json:"name"`
	Population int64     `json:"population"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
