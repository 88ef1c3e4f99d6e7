// Package normalizer turns raw vacancy records into canonical snapshots.
//
// Per-record outcomes are independent: resolution failures on client or
// profile are fatal for the record, unresolved geography degrades it, and
// invariant violations reject it. The normalizer never mutates stored state
// beyond the pending reference rows the registry may create.
package normalizer

import (
	"context"
	"time"

	refmodels "vacmetrics/internal/reference/models"
	"vacmetrics/internal/snapshot/models"
	tenantmodels "vacmetrics/internal/tenant/models"
	dErrors "vacmetrics/pkg/domain-errors"
	platformstrings "vacmetrics/pkg/platform/strings"
)

// TenantResolver resolves the tenant scope of a record.
type TenantResolver interface {
	ResolveClient(ctx context.Context, clientID int64) (*tenantmodels.Client, error)
	ResolveProfile(ctx context.Context, clientID int64, ref string) (*tenantmodels.Profile, error)
}

// GeoResolver canonicalizes free-text geography.
type GeoResolver interface {
	ResolveCity(ctx context.Context, countryID int64, regionHint, cityName string) (*refmodels.City, *refmodels.Region, error)
}

// Normalizer validates and transforms one raw record at a time.
type Normalizer struct {
	tenants TenantResolver
	geo     GeoResolver
	taxRate float64
	strict  bool
}

// New constructs a Normalizer. taxRate is the rate used to gross up net
// salary bounds. In strict mode a record whose geography cannot be resolved
// is rejected instead of stored degraded.
func New(tenants TenantResolver, geo GeoResolver, taxRate float64, strict bool) *Normalizer {
	return &Normalizer{tenants: tenants, geo: geo, taxRate: taxRate, strict: strict}
}

const dateLayout = "2006-01-02"

// Normalize produces a canonical snapshot from a raw record, or an error
// classified as reference (unknown client/profile) or validation (invariant
// violation). Geography that cannot be resolved is not an error: the snapshot
// keeps the raw text and GeoResolved stays false.
func (n *Normalizer) Normalize(ctx context.Context, raw models.RawRecord, now time.Time) (*models.Snapshot, error) {
	if raw.VacancyID <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "vacancy_id is required")
	}
	if raw.VacancyTitle == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "vacancy_title is required")
	}

	client, err := n.tenants.ResolveClient(ctx, raw.ClientID)
	if err != nil {
		return nil, err
	}

	profileName := raw.Profile
	if profileName != "" {
		profile, err := n.tenants.ResolveProfile(ctx, raw.ClientID, raw.Profile)
		if err != nil {
			return nil, err
		}
		profileName = profile.Name
	}

	date, err := observationDate(raw.Date, now)
	if err != nil {
		return nil, err
	}
	pubDate, err := publicationDate(raw.PublicationDate)
	if err != nil {
		return nil, err
	}

	if err := checkBounds(raw.SalaryFrom, raw.SalaryTo, "salary_from must not exceed salary_to"); err != nil {
		return nil, err
	}

	salary := Recalculate(raw.SalaryFrom, raw.SalaryTo,
		models.PaymentType(raw.PaymentType), models.TaxMode(raw.Tax), n.taxRate)
	if err := checkBounds(salary.From, salary.To, "recalculated salary bounds are inverted"); err != nil {
		return nil, err
	}

	if raw.Responses != nil && *raw.Responses < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "responses cannot be negative")
	}
	if raw.TotalResponses != nil && *raw.TotalResponses < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "total_responses cannot be negative")
	}
	if raw.Responses != nil && raw.TotalResponses != nil && *raw.Responses > *raw.TotalResponses {
		return nil, dErrors.New(dErrors.CodeValidation, "responses cannot exceed total_responses")
	}

	snap := &models.Snapshot{
		ClientID:               raw.ClientID,
		Source:                 raw.Source,
		VacancyID:              raw.VacancyID,
		PublicationDate:        pubDate,
		Tariff:                 raw.Tariff,
		Responses:              raw.Responses,
		TotalResponses:         raw.TotalResponses,
		CompanyName:            raw.CompanyName,
		SalaryFromRecalculated: salary.From,
		SalaryToRecalculated:   salary.To,
		Tax:                    salary.AppliedTax,
		SalaryIndication:       salary.Indication,
		City:                   raw.City,
		Profile:                profileName,
		Region:                 raw.Region,
		EmploymentType:         raw.EmploymentType,
		WorkExperience:         raw.WorkExperience,
		WorkSchedule:           raw.WorkSchedule,
		Date:                   date,
		VacancyTitle:           raw.VacancyTitle,
		SalaryFrom:             raw.SalaryFrom,
		SalaryTo:               raw.SalaryTo,
		PaymentType:            raw.PaymentType,
		Specialization:         raw.Specialization,
		Skills:                 platformstrings.NormalizeList(raw.Skills),
		MetroStations:          platformstrings.NormalizeList(raw.MetroStations),
		VacancyDescription:     raw.Description,
		ConfigID:               raw.ConfigID,
	}

	if err := n.resolveGeography(ctx, client, raw, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// resolveGeography canonicalizes city/region text against the client's
// country. Outside strict mode failure is non-fatal: analytics can still
// group by raw text, degraded.
func (n *Normalizer) resolveGeography(ctx context.Context, client *tenantmodels.Client, raw models.RawRecord, snap *models.Snapshot) error {
	if raw.City == "" {
		if n.strict {
			return dErrors.New(dErrors.CodeReference, "city is required in strict geography mode")
		}
		return nil
	}
	city, region, err := n.geo.ResolveCity(ctx, client.CountryID, raw.Region, raw.City)
	if err != nil {
		if n.strict {
			return dErrors.Wrap(err, dErrors.CodeReference, "unresolvable geography")
		}
		return nil
	}
	snap.GeoResolved = true
	snap.CityID = city.ID
	snap.RegionID = region.ID
	snap.City = city.Name
	snap.Region = region.Name
	return nil
}

func observationDate(s string, now time.Time) (time.Time, error) {
	if s == "" {
		// Observation date defaults to the ingestion day.
		return models.Day(now), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeValidation, "malformed date %q, want YYYY-MM-DD", s)
	}
	return models.Day(t), nil
}

func publicationDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, dErrors.Newf(dErrors.CodeValidation, "malformed publication_date %q", s)
}

func checkBounds(from, to *int, msg string) error {
	if from != nil && to != nil && *from > *to {
		// Rejected rather than silently swapped.
		return dErrors.New(dErrors.CodeValidation, msg)
	}
	return nil
}
