package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRefresh(t *testing.T) {
	r := New()
	built := time.Unix(1_790_000_000, 0)

	r.ObserveRefresh(time.Now(), nil, 412, built)
	r.ObserveRefresh(time.Now(), errors.New("feed down"), 0, time.Time{})
	r.ObserveUnchanged(time.Now())

	assert.Equal(t, 1.0, testutil.ToFloat64(r.RefreshTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RefreshTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RefreshTotal.WithLabelValues("unchanged")))
	assert.Equal(t, 412.0, testutil.ToFloat64(r.CatalogEntries))
	assert.Equal(t, float64(built.Unix()), testutil.ToFloat64(r.CatalogBuiltAt))
}

func TestObserveSyncAndPhases(t *testing.T) {
	r := New()
	r.ObserveSync(nil, 12, map[string]int{"teams": 1, "picks": 2})
	r.ObserveSync(errors.New("boom"), 0, map[string]int{"teams": 9})

	assert.Equal(t, 12.0, testutil.ToFloat64(r.TeamsTracked))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.IngestSkipped.WithLabelValues("teams")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.IngestSkipped.WithLabelValues("picks")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.SyncTotal.WithLabelValues("error")))

	r.SetPhases(map[string]int{"contend": 3, "tank": 1})
	r.SetPhases(map[string]int{"contend": 2})
	assert.Equal(t, 1, testutil.CollectAndCount(r.PhaseTeams))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.PhaseTeams.WithLabelValues("contend")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	r := New()
	r.ObserveTrades("contend", time.Now(), map[string]int{"sell-high": 2})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `dynasty_trade_proposals_total{type="sell-high"} 2`))
}

func TestNilRegistry(t *testing.T) {
	var r *Registry
	r.ObserveRefresh(time.Now(), nil, 1, time.Now())
	r.ObserveSync(nil, 1, nil)
	r.SetPhases(nil)
	r.ObserveTrades("tank", time.Now(), nil)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}
