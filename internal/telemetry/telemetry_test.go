package telemetry

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"queryquest/internal/quest"
)

func TestMetricsRecordQueries(t *testing.T) {
	m := NewMetrics()

	m.QueryExecuted(quest.StatusOK, true, 20*time.Millisecond)
	m.QueryExecuted(quest.StatusOK, false, 10*time.Millisecond)
	m.QueryExecuted(quest.StatusUnsafe, false, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("ok", "true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("ok", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queries.WithLabelValues("unsafe", "false")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.queryDuration))
}

func TestMetricsRecordCompletions(t *testing.T) {
	m := NewMetrics()

	m.MissionCompleted("level1-mission1", 0)
	m.MissionCompleted("level1-mission2", 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.missionsCompleted.WithLabelValues("level1-mission2")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.levelUps))
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.MissionCompleted("level1-mission1", 1)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "queryquest_level_ups_total 1")
}

func TestSetupLogger(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	var buf bytes.Buffer
	require.NoError(t, SetupLogger(&buf, "warn", "json"))

	log.Info().Msg("hidden")
	log.Warn().Str("mission", "level1-mission1").Msg("Visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"mission":"level1-mission1"`)
	assert.Contains(t, buf.String(), `"service":"queryquest"`)
}

func TestSetupLoggerRejectsUnknownValues(t *testing.T) {
	original := log.Logger
	t.Cleanup(func() { log.Logger = original })

	assert.Error(t, SetupLogger(&bytes.Buffer{}, "loud", "json"))
	assert.Error(t, SetupLogger(&bytes.Buffer{}, "info", "xml"))
}
