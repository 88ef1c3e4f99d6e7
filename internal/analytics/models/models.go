package models

import "time"

// Bucket is the time grain of an aggregation.
type Bucket string

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

func (b Bucket) IsValid() bool {
	switch b {
	case BucketDay, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// Dimension is a grouping column of the snapshot table.
type Dimension string

const (
	DimProfile        Dimension = "profile"
	DimCity           Dimension = "city"
	DimRegion         Dimension = "region"
	DimSpecialization Dimension = "specialization"
	DimSource         Dimension = "source"
)

func (d Dimension) IsValid() bool {
	switch d {
	case DimProfile, DimCity, DimRegion, DimSpecialization, DimSource:
		return true
	}
	return false
}

// Filters narrow the snapshots feeding an aggregation before grouping.
type Filters struct {
	Profile        string
	City           string
	Region         string
	Specialization string
	Source         string
}

// Request describes one aggregation query over a client's snapshots.
//
// MaxPublicationAgeDays, when positive, keeps only snapshots whose observation
// is at most that many days after the vacancy's publication date. Snapshots
// without a publication date pass the filter unchanged.
type Request struct {
	ClientID              int64
	From                  time.Time
	To                    time.Time
	Bucket                Bucket
	GroupBy               []Dimension
	Filters               Filters
	MaxPublicationAgeDays int
}

// Row is one aggregated group.
//
// TotalResponses sums each vacancy's highest observed cumulative counter, so
// repeated observations of the same vacancy are never double-counted.
// AvgResponsesPerDay averages the per-day response signal and is a windowed,
// non-authoritative number: it is never summed into a total.
type Row struct {
	Bucket             string            `json:"bucket"`
	Dimensions         map[string]string `json:"dimensions,omitempty"`
	Vacancies          int               `json:"vacancies"`
	TotalResponses     int               `json:"total_responses"`
	AvgResponsesPerDay *float64          `json:"avg_responses_per_day,omitempty"`
	AvgSalaryFrom      *float64          `json:"avg_salary_from,omitempty"`
	AvgSalaryTo        *float64          `json:"avg_salary_to,omitempty"`
	MedianSalaryFrom   *float64          `json:"median_salary_from,omitempty"`
}

// LookbackWindow returns the default analytics window ending at now: the last
// eight ISO weeks, aligned so the range starts on a Monday.
func LookbackWindow(now time.Time) (from, to time.Time) {
	to = day(now)
	weekday := int(to.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	monday := to.AddDate(0, 0, -(weekday - 1))
	from = monday.AddDate(0, 0, -7*7)
	return from, to
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
