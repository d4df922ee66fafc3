package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_AllVariablesNonNil(t *testing.T) {
	t.Parallel()

	vars := []struct {
		name string
		val  any
	}{
		{"HarvestsTotal", HarvestsTotal},
		{"HarvestDuration", HarvestDuration},
		{"ReportedAmount", ReportedAmount},
		{"TendsTotal", TendsTotal},
		{"TriggerEvaluations", TriggerEvaluations},
		{"SlippageRejections", SlippageRejections},
		{"Position", Position},
		{"RewardFlow", RewardFlow},
	}

	for _, v := range vars {
		assert.NotNilf(t, v.val, "%s should not be nil", v.name)
	}
}

func TestMetrics_UpdatesNoPanic(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { HarvestsTotal.WithLabelValues("success").Inc() })
	assert.NotPanics(t, func() { HarvestDuration.Observe(0.2) })
	assert.NotPanics(t, func() { ReportedAmount.WithLabelValues("profit").Add(1.5) })
	assert.NotPanics(t, func() { TendsTotal.WithLabelValues("error").Inc() })
	assert.NotPanics(t, func() { TriggerEvaluations.WithLabelValues("none").Inc() })
	assert.NotPanics(t, func() { RewardFlow.WithLabelValues("claimed").Add(3) })
}

func TestMetrics_GaugeValue(t *testing.T) {
	t.Parallel()

	Position.WithLabelValues("test_kind").Set(42)
	assert.Equal(t, float64(42), testutil.ToFloat64(Position.WithLabelValues("test_kind")))

	before := testutil.ToFloat64(SlippageRejections.WithLabelValues("test_dir"))
	SlippageRejections.WithLabelValues("test_dir").Inc()
	assert.Equal(t, before+1, testutil.ToFloat64(SlippageRejections.WithLabelValues("test_dir")))
}
