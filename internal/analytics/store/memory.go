package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"vacmetrics/internal/analytics/models"
	snapmodels "vacmetrics/internal/snapshot/models"
	snapstore "vacmetrics/internal/snapshot/store"
)

// MemoryStore aggregates by streaming a snapshot range scan, mirroring the
// SQL's two stages in memory. Used when the service runs without Postgres.
type MemoryStore struct {
	snapshots snapstore.Store
}

func NewMemory(snapshots snapstore.Store) *MemoryStore {
	return &MemoryStore{snapshots: snapshots}
}

type groupKey struct {
	bucket string
	dims   string
}

type vacancyAgg struct {
	total      *int
	respSum    float64
	respCount  int
	fromSum    float64
	fromCount  int
	toSum      float64
	toCount    int
	dimensions map[string]string
}

func (s *MemoryStore) Aggregate(ctx context.Context, req models.Request) ([]models.Row, error) {
	filters := snapstore.Filters{
		Profile:        req.Filters.Profile,
		City:           req.Filters.City,
		Region:         req.Filters.Region,
		Specialization: req.Filters.Specialization,
		Source:         req.Filters.Source,
	}

	type vacancyKey struct {
		group     groupKey
		vacancyID int64
	}
	perVacancy := make(map[vacancyKey]*vacancyAgg)

	for snap, err := range s.snapshots.QueryRange(ctx, req.ClientID, filters, req.From, req.To) {
		if err != nil {
			return nil, err
		}
		if req.MaxPublicationAgeDays > 0 && snap.PublicationDate != nil {
			age := int(snap.Date.Sub(snapmodels.Day(*snap.PublicationDate)).Hours() / 24)
			if age > req.MaxPublicationAgeDays {
				continue
			}
		}

		dims := dimensionValues(snap, req.GroupBy)
		key := vacancyKey{
			group:     groupKey{bucket: bucketKey(snap.Date, req.Bucket), dims: dimsKey(dims, req.GroupBy)},
			vacancyID: snap.VacancyID,
		}
		agg := perVacancy[key]
		if agg == nil {
			agg = &vacancyAgg{dimensions: dims}
			perVacancy[key] = agg
		}
		if snap.TotalResponses != nil && (agg.total == nil || *snap.TotalResponses > *agg.total) {
			v := *snap.TotalResponses
			agg.total = &v
		}
		if snap.Responses != nil {
			agg.respSum += float64(*snap.Responses)
			agg.respCount++
		}
		if snap.SalaryFromRecalculated != nil {
			agg.fromSum += float64(*snap.SalaryFromRecalculated)
			agg.fromCount++
		}
		if snap.SalaryToRecalculated != nil {
			agg.toSum += float64(*snap.SalaryToRecalculated)
			agg.toCount++
		}
	}

	type groupAgg struct {
		dimensions map[string]string
		vacancies  int
		total      int
		respAvgs   []float64
		fromAvgs   []float64
		toAvgs     []float64
	}
	groups := make(map[groupKey]*groupAgg)
	for key, v := range perVacancy {
		g := groups[key.group]
		if g == nil {
			g = &groupAgg{dimensions: v.dimensions}
			groups[key.group] = g
		}
		g.vacancies++
		if v.total != nil {
			g.total += *v.total
		}
		if v.respCount > 0 {
			g.respAvgs = append(g.respAvgs, v.respSum/float64(v.respCount))
		}
		if v.fromCount > 0 {
			g.fromAvgs = append(g.fromAvgs, v.fromSum/float64(v.fromCount))
		}
		if v.toCount > 0 {
			g.toAvgs = append(g.toAvgs, v.toSum/float64(v.toCount))
		}
	}

	keys := make([]groupKey, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].bucket != keys[j].bucket {
			return keys[i].bucket < keys[j].bucket
		}
		return keys[i].dims < keys[j].dims
	})

	out := make([]models.Row, 0, len(keys))
	for _, key := range keys {
		g := groups[key]
		row := models.Row{
			Bucket:             key.bucket,
			Vacancies:          g.vacancies,
			TotalResponses:     g.total,
			AvgResponsesPerDay: mean(g.respAvgs),
			AvgSalaryFrom:      mean(g.fromAvgs),
			AvgSalaryTo:        mean(g.toAvgs),
			MedianSalaryFrom:   median(g.fromAvgs),
		}
		if len(req.GroupBy) > 0 {
			row.Dimensions = g.dimensions
		}
		out = append(out, row)
	}
	return out, nil
}

func bucketKey(date time.Time, b models.Bucket) string {
	switch b {
	case models.BucketWeek:
		year, week := date.ISOWeek()
		return fmt.Sprintf("%04d-%02d", year, week)
	case models.BucketMonth:
		return date.Format("2006-01")
	default:
		return date.Format("2006-01-02")
	}
}

func dimensionValues(snap *snapmodels.Snapshot, groupBy []models.Dimension) map[string]string {
	if len(groupBy) == 0 {
		return nil
	}
	dims := make(map[string]string, len(groupBy))
	for _, d := range groupBy {
		switch d {
		case models.DimProfile:
			dims[string(d)] = snap.Profile
		case models.DimCity:
			dims[string(d)] = snap.City
		case models.DimRegion:
			dims[string(d)] = snap.Region
		case models.DimSpecialization:
			dims[string(d)] = snap.Specialization
		case models.DimSource:
			dims[string(d)] = snap.Source
		}
	}
	return dims
}

func dimsKey(dims map[string]string, groupBy []models.Dimension) string {
	key := ""
	for _, d := range groupBy {
		key += dims[string(d)] + "\x00"
	}
	return key
}

func mean(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	m := sum / float64(len(vals))
	return &m
}

// median interpolates between the middle pair for even counts, the same way
// percentile_cont(0.5) does.
func median(vals []float64) *float64 {
	if len(vals) == 0 {
		return nil
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 1 {
		m = sorted[mid]
	} else {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}
