package models

import "time"

// PaymentType is the pay period of the raw salary bounds.
type PaymentType string

const (
	PaymentMonthly PaymentType = "monthly"
	PaymentDaily   PaymentType = "daily"
	PaymentHourly  PaymentType = "hourly"
	PaymentShift   PaymentType = "shift"
)

// TaxMode says whether raw salary bounds are quoted before or after tax.
type TaxMode string

const (
	TaxGross TaxMode = "gross"
	TaxNet   TaxMode = "net"
)

// SalaryIndication records which salary bounds the posting carried.
type SalaryIndication string

const (
	IndicationNotSpecified SalaryIndication = "not specified"
	IndicationRange        SalaryIndication = "range"
	IndicationFromOnly     SalaryIndication = "from only"
	IndicationToOnly       SalaryIndication = "to only"
)

// NaturalKey identifies a snapshot: at most one observation per vacancy per
// client per day.
type NaturalKey struct {
	ClientID  int64
	VacancyID int64
	Date      time.Time
}

// Day truncates a timestamp to its UTC calendar day, the granularity of the
// observation date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// RawRecord is one vacancy observation as delivered by an upstream collector,
// before normalization. Geography and profile are free text at capture time.
type RawRecord struct {
	ClientID        int64   `json:"client_id"`
	VacancyID       int64   `json:"vacancy_id"`
	Source          string  `json:"source"`
	Date            string  `json:"date"`
	PublicationDate string  `json:"publication_date"`
	Tariff          string  `json:"tariff"`
	CompanyName     string  `json:"company_name"`
	VacancyTitle    string  `json:"vacancy_title"`
	Description     string  `json:"description"`
	City            string  `json:"city"`
	Region          string  `json:"region"`
	Profile         string  `json:"profile"`
	Specialization  string  `json:"specialization"`
	EmploymentType  string  `json:"employment_type"`
	WorkExperience  string  `json:"work_experience"`
	WorkSchedule    string  `json:"work_schedule"`
	PaymentType     string  `json:"payment_type"`
	SalaryFrom      *int    `json:"salary_from"`
	SalaryTo        *int    `json:"salary_to"`
	Tax             string  `json:"tax"`
	Responses       *int    `json:"responses"`
	TotalResponses  *int    `json:"total_responses"`
	Skills          string  `json:"skills"`
	MetroStations   string  `json:"metro_stations"`
	ConfigID        string  `json:"config_id"`
}

// Snapshot is one canonical observed state of a vacancy, mirroring the
// vacancy_activity row. Immutable once written except for upsert-on-
// reingestion of the same day's data.
type Snapshot struct {
	ID                    int64            `json:"id"`
	CreatedAt             time.Time        `json:"created_at"`
	ClientID              int64            `json:"client_id"`
	Source                string           `json:"source"`
	VacancyID             int64            `json:"vacancy_id"`
	PublicationDate       *time.Time       `json:"publication_date"`
	Tariff                string           `json:"tariff"`
	Responses             *int             `json:"responses"`
	TotalResponses        *int             `json:"total_responses"`
	CompanyName           string           `json:"company_name"`
	SalaryFromRecalculated *int            `json:"salary_from_recalculated"`
	SalaryToRecalculated  *int             `json:"salary_to_recalculated"`
	Tax                   float64          `json:"tax"`
	SalaryIndication      SalaryIndication `json:"salary_indication"`
	City                  string           `json:"city"`
	Profile               string           `json:"profile"`
	Region                string           `json:"region"`
	EmploymentType        string           `json:"employment_type"`
	WorkExperience        string           `json:"work_experience"`
	WorkSchedule          string           `json:"work_schedule"`
	Date                  time.Time        `json:"date"`
	VacancyTitle          string           `json:"vacancy_title"`
	SalaryFrom            *int             `json:"salary_from"`
	SalaryTo              *int             `json:"salary_to"`
	PaymentType           string           `json:"payment_type"`
	Specialization        string           `json:"specialization"`
	Skills                string           `json:"skills"`
	MetroStations         string           `json:"metro_stations"`
	VacancyDescription    string           `json:"vacancy_description"`
	ConfigID              string           `json:"config_id"`

	// GeoResolved distinguishes canonical geography from degraded raw text.
	// Not persisted as a column: resolved rows carry canonical names in
	// City/Region, degraded rows keep the capture-time text.
	GeoResolved bool      `json:"geo_resolved"`
	CityID      int64     `json:"city_id,omitempty"`
	RegionID    int64     `json:"region_id,omitempty"`
}

// Key returns the snapshot's natural key.
func (s *Snapshot) Key() NaturalKey {
	return NaturalKey{ClientID: s.ClientID, VacancyID: s.VacancyID, Date: s.Date}
}
