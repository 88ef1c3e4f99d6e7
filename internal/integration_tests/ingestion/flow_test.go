// Package ingestion exercises the full HTTP surface in process: tenant
// registration, batch upload, and analytics readback against the in-memory
// stores.
package ingestion

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	analyticshandler "vacmetrics/internal/analytics/handler"
	analyticsservice "vacmetrics/internal/analytics/service"
	analyticsstore "vacmetrics/internal/analytics/store"
	ingesthandler "vacmetrics/internal/ingest/handler"
	ingestservice "vacmetrics/internal/ingest/service"
	refservice "vacmetrics/internal/reference/service"
	refstore "vacmetrics/internal/reference/store"
	snapmodels "vacmetrics/internal/snapshot/models"
	"vacmetrics/internal/snapshot/normalizer"
	snapstore "vacmetrics/internal/snapshot/store"
	tenanthandler "vacmetrics/internal/tenant/handler"
	tenantmodels "vacmetrics/internal/tenant/models"
	tenantservice "vacmetrics/internal/tenant/service"
	clientstore "vacmetrics/internal/tenant/store/client"
	profilestore "vacmetrics/internal/tenant/store/profile"
	httptransport "vacmetrics/internal/transport/http"
	"vacmetrics/pkg/testutil"
)

func newServer(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	refs := refstore.NewInMemory()
	_, _, _, err := refstore.SeedDefaults(ctx, refs)
	require.NoError(t, err)
	registry := refservice.New(refs, refservice.WithLogger(logger))

	tenants := tenantservice.New(clientstore.NewInMemory(), profilestore.NewInMemory(),
		tenantservice.WithLogger(logger))

	snapshots := snapstore.NewInMemory()
	norm := normalizer.New(tenants, registry, 0.13, false)
	ingestor := ingestservice.New(norm, snapshots, ingestservice.WithLogger(logger))
	analytics := analyticsservice.New(analyticsstore.NewMemory(snapshots), tenants,
		analyticsservice.WithLogger(logger))

	return httptransport.NewRouter(
		[]httptransport.Registrar{
			tenanthandler.New(tenants, logger),
			ingesthandler.New(ingestor, logger),
			analyticshandler.New(analytics, logger),
		},
		map[string]httptransport.HealthChecker{
			"memory": func(context.Context) error { return nil },
		},
	)
}

func intp(v int) *int { return &v }

func TestIngestToAnalyticsFlow(t *testing.T) {
	server := newServer(t)

	// Register a tenant and a profile.
	rr := testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost, "/v1/clients",
		tenanthandler.CreateClientRequest{Name: "Acme", Slug: "acme", CountryID: 1, PlanID: 1}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
	client := testutil.UnmarshalResponse[tenantmodels.Client](t, rr)

	rr = testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost,
		"/v1/clients/1/profiles", tenanthandler.CreateProfileRequest{Name: "Courier"}))
	testutil.AssertStatus(t, rr, http.StatusCreated)

	// Upload a batch with one good, one degraded, and one invalid record.
	batch := ingesthandler.BatchRequest{Records: []snapmodels.RawRecord{
		{
			VacancyID: 100, VacancyTitle: "Courier", Profile: "Courier",
			Date: "2026-03-10", City: "Moscow", Region: "Moscow Oblast",
			PaymentType: "hourly", Tax: "gross", SalaryFrom: intp(500),
			TotalResponses: intp(12),
		},
		{
			VacancyID: 200, VacancyTitle: "Courier",
			Date: "2026-03-10", City: "Undiscovered",
		},
		{
			VacancyID: 300, VacancyTitle: "Courier",
			Date: "2026-03-10", SalaryFrom: intp(90000), SalaryTo: intp(10000),
		},
	}}
	rr = testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost,
		"/v1/clients/1/snapshots", batch))
	testutil.AssertStatusOK(t, rr)

	outcome := testutil.UnmarshalResponse[ingestservice.BatchOutcome](t, rr)
	assert.Equal(t, 2, outcome.Created)
	assert.Equal(t, 1, outcome.Rejected)
	assert.Equal(t, client.ID, outcome.ClientID)

	// Re-upload the first record with a grown counter: update, not duplicate.
	batch.Records = batch.Records[:1]
	batch.Records[0].TotalResponses = intp(20)
	rr = testutil.DoRequest(server, testutil.NewJSONRequest(t, http.MethodPost,
		"/v1/clients/1/snapshots", batch))
	testutil.AssertStatusOK(t, rr)
	outcome = testutil.UnmarshalResponse[ingestservice.BatchOutcome](t, rr)
	assert.Equal(t, 1, outcome.Updated)

	// Read the aggregation back.
	rr = testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet,
		"/v1/clients/1/analytics?from=2026-03-01&to=2026-03-31&bucket=month"))
	testutil.AssertStatusOK(t, rr)

	resp := testutil.UnmarshalResponse[analyticshandler.QueryResponse](t, rr)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, 2, resp.Rows[0].Vacancies)
	assert.Equal(t, 20, resp.Rows[0].TotalResponses)
	require.NotNil(t, resp.Rows[0].AvgSalaryFrom)
	assert.InDelta(t, 82000, *resp.Rows[0].AvgSalaryFrom, 0.5)
}

func TestHealthAndRequestID(t *testing.T) {
	server := newServer(t)

	rr := testutil.DoRequest(server, testutil.NewRequest(t, http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(t, rr)
	testutil.AssertJSONContains(t, rr, "status", "ok")

	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}
