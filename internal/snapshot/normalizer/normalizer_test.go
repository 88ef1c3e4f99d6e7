package normalizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	refmodels "vacmetrics/internal/reference/models"
	"vacmetrics/internal/snapshot/models"
	tenantmodels "vacmetrics/internal/tenant/models"
	dErrors "vacmetrics/pkg/domain-errors"
)

// =============================================================================
// Test doubles
// =============================================================================

type fakeTenants struct {
	clients  map[int64]*tenantmodels.Client
	profiles map[string]*tenantmodels.Profile
}

func (f *fakeTenants) ResolveClient(_ context.Context, clientID int64) (*tenantmodels.Client, error) {
	if c, ok := f.clients[clientID]; ok {
		return c, nil
	}
	return nil, dErrors.Newf(dErrors.CodeReference, "unknown client %d", clientID)
}

func (f *fakeTenants) ResolveProfile(_ context.Context, clientID int64, ref string) (*tenantmodels.Profile, error) {
	if p, ok := f.profiles[ref]; ok && p.ClientID == clientID {
		return p, nil
	}
	return nil, dErrors.Newf(dErrors.CodeReference, "unknown profile %q", ref)
}

type fakeGeo struct {
	cities map[string]*refmodels.City
	region *refmodels.Region
}

func (f *fakeGeo) ResolveCity(_ context.Context, _ int64, _, cityName string) (*refmodels.City, *refmodels.Region, error) {
	if c, ok := f.cities[cityName]; ok {
		return c, f.region, nil
	}
	return nil, nil, dErrors.Newf(dErrors.CodeNotFound, "unknown city %q", cityName)
}

// =============================================================================
// Normalizer Suite
// =============================================================================

type NormalizerSuite struct {
	suite.Suite
	tenants *fakeTenants
	geo     *fakeGeo
	now     time.Time
}

func TestNormalizerSuite(t *testing.T) {
	suite.Run(t, new(NormalizerSuite))
}

func (s *NormalizerSuite) SetupTest() {
	s.tenants = &fakeTenants{
		clients: map[int64]*tenantmodels.Client{
			1: {ID: 1, Name: "Acme", Slug: "acme", CountryID: 1, Status: tenantmodels.StatusActive},
		},
		profiles: map[string]*tenantmodels.Profile{
			"courier": {ID: 10, ClientID: 1, Name: "Courier", IsActive: true},
			"10":      {ID: 10, ClientID: 1, Name: "Courier", IsActive: true},
		},
	}
	s.geo = &fakeGeo{
		region: &refmodels.Region{ID: 5, CountryID: 1, Name: "Moscow Oblast"},
		cities: map[string]*refmodels.City{
			"Moscow": {ID: 7, CountryID: 1, RegionID: 5, Name: "Moscow"},
		},
	}
	s.now = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
}

func (s *NormalizerSuite) normalizer() *Normalizer {
	return New(s.tenants, s.geo, 0.13, false)
}

func (s *NormalizerSuite) record() models.RawRecord {
	return models.RawRecord{
		ClientID:     1,
		VacancyID:    100,
		VacancyTitle: "Courier",
		Source:       "hh",
	}
}

func intp(v int) *int { return &v }

// =============================================================================
// Validation
// =============================================================================

func (s *NormalizerSuite) TestMandatoryFields() {
	n := s.normalizer()
	ctx := context.Background()

	s.Run("missing vacancy id is rejected", func() {
		raw := s.record()
		raw.VacancyID = 0
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing title is rejected", func() {
		raw := s.record()
		raw.VacancyTitle = ""
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown client is a reference failure", func() {
		raw := s.record()
		raw.ClientID = 99
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeReference))
	})

	s.Run("unknown profile is fatal for the record", func() {
		raw := s.record()
		raw.Profile = "no-such-profile"
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeReference))
	})

	s.Run("profile resolves to its canonical name", func() {
		raw := s.record()
		raw.Profile = "courier"
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal("Courier", snap.Profile)
	})
}

func (s *NormalizerSuite) TestDates() {
	n := s.normalizer()
	ctx := context.Background()

	s.Run("empty date defaults to the ingestion day", func() {
		snap, err := n.Normalize(ctx, s.record(), s.now)
		s.Require().NoError(err)
		s.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), snap.Date)
	})

	s.Run("malformed date is rejected not defaulted", func() {
		raw := s.record()
		raw.Date = "10.03.2026"
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("publication date accepts date-only form", func() {
		raw := s.record()
		raw.PublicationDate = "2026-02-01"
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(snap.PublicationDate)
		s.Equal(2026, snap.PublicationDate.Year())
	})

	s.Run("malformed publication date is rejected", func() {
		raw := s.record()
		raw.PublicationDate = "yesterday"
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *NormalizerSuite) TestResponseCounters() {
	n := s.normalizer()
	ctx := context.Background()

	s.Run("negative responses are rejected", func() {
		raw := s.record()
		raw.Responses = intp(-1)
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("daily responses above the cumulative counter are rejected", func() {
		raw := s.record()
		raw.Responses = intp(12)
		raw.TotalResponses = intp(10)
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("either counter alone skips the cross check", func() {
		raw := s.record()
		raw.Responses = intp(12)
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal(12, *snap.Responses)
	})

	s.Run("absent counters stay absent", func() {
		snap, err := n.Normalize(ctx, s.record(), s.now)
		s.Require().NoError(err)
		s.Nil(snap.Responses)
		s.Nil(snap.TotalResponses)
	})
}

// =============================================================================
// Salary recalculation
// =============================================================================

func (s *NormalizerSuite) TestSalaryRecalculation() {
	n := s.normalizer()
	ctx := context.Background()

	s.Run("hourly gross converts to monthly", func() {
		raw := s.record()
		raw.PaymentType = "hourly"
		raw.Tax = "gross"
		raw.SalaryFrom = intp(500)
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Require().NotNil(snap.SalaryFromRecalculated)
		s.Equal(82000, *snap.SalaryFromRecalculated)
		s.Equal(models.IndicationFromOnly, snap.SalaryIndication)
		s.Zero(snap.Tax)
	})

	s.Run("net monthly is grossed up", func() {
		raw := s.record()
		raw.PaymentType = "monthly"
		raw.Tax = "net"
		raw.SalaryFrom = intp(87000)
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal(100000, *snap.SalaryFromRecalculated)
		s.Equal(0.13, snap.Tax)
	})

	s.Run("daily and shift factors apply", func() {
		raw := s.record()
		raw.PaymentType = "daily"
		raw.Tax = "gross"
		raw.SalaryFrom = intp(4000)
		raw.SalaryTo = intp(5000)
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal(84000, *snap.SalaryFromRecalculated)
		s.Equal(105000, *snap.SalaryToRecalculated)
		s.Equal(models.IndicationRange, snap.SalaryIndication)

		raw.PaymentType = "shift"
		raw.SalaryFrom = intp(5000)
		raw.SalaryTo = nil
		snap, err = n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal(75000, *snap.SalaryFromRecalculated)
	})

	s.Run("unknown payment type keeps the raw monthly value", func() {
		raw := s.record()
		raw.PaymentType = "quarterly"
		raw.Tax = "gross"
		raw.SalaryFrom = intp(60000)
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal(60000, *snap.SalaryFromRecalculated)
	})

	s.Run("no bounds means not specified", func() {
		snap, err := n.Normalize(ctx, s.record(), s.now)
		s.Require().NoError(err)
		s.Nil(snap.SalaryFromRecalculated)
		s.Nil(snap.SalaryToRecalculated)
		s.Equal(models.IndicationNotSpecified, snap.SalaryIndication)
	})

	s.Run("inverted raw bounds are rejected not swapped", func() {
		raw := s.record()
		raw.SalaryFrom = intp(90000)
		raw.SalaryTo = intp(60000)
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// List fields
// =============================================================================

func (s *NormalizerSuite) TestListFields() {
	n := s.normalizer()
	ctx := context.Background()

	s.Run("skills are trimmed and deduplicated", func() {
		raw := s.record()
		raw.Skills = "  driving ,navigation, driving,,  customer service "
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal("driving, navigation, customer service", snap.Skills)
	})

	s.Run("metro stations are normalized the same way", func() {
		raw := s.record()
		raw.MetroStations = "Arbatskaya,  Arbatskaya , Kievskaya"
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.Equal("Arbatskaya, Kievskaya", snap.MetroStations)
	})

	s.Run("empty list fields stay empty", func() {
		snap, err := n.Normalize(ctx, s.record(), s.now)
		s.Require().NoError(err)
		s.Empty(snap.Skills)
	})
}

// =============================================================================
// Geography
// =============================================================================

func (s *NormalizerSuite) TestGeography() {
	ctx := context.Background()

	s.Run("known city resolves to canonical names", func() {
		n := s.normalizer()
		raw := s.record()
		raw.City = "Moscow"
		raw.Region = "moscow oblast"
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.True(snap.GeoResolved)
		s.Equal("Moscow", snap.City)
		s.Equal("Moscow Oblast", snap.Region)
		s.Equal(int64(7), snap.CityID)
	})

	s.Run("unknown city degrades instead of failing", func() {
		n := s.normalizer()
		raw := s.record()
		raw.City = "Atlantis"
		raw.Region = "Nowhere"
		snap, err := n.Normalize(ctx, raw, s.now)
		s.Require().NoError(err)
		s.False(snap.GeoResolved)
		s.Equal("Atlantis", snap.City)
		s.Equal("Nowhere", snap.Region)
	})

	s.Run("strict mode rejects unresolvable geography", func() {
		n := New(s.tenants, s.geo, 0.13, true)
		raw := s.record()
		raw.City = "Atlantis"
		_, err := n.Normalize(ctx, raw, s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeReference))
	})

	s.Run("strict mode requires a city", func() {
		n := New(s.tenants, s.geo, 0.13, true)
		_, err := n.Normalize(ctx, s.record(), s.now)
		s.True(dErrors.HasCode(err, dErrors.CodeReference))
	})
}
