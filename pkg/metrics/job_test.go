package metrics

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)
	m.Observe("seed", 250*time.Millisecond, nil)
	m.Observe("seed", time.Second, errors.New("bad csv"))
	m.Observe("", time.Millisecond, nil)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "job_success_total", "job", "seed")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "job_failure_total", "job", "seed")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	got, err = fetchCounterValue(mfs, "job_success_total", "job", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	sum, err := fetchHistogramSum(mfs, "job_duration_seconds", "job", "seed")
	require.NoError(t, err)
	assert.InDelta(t, 1.25, sum, 0.0001)

	last := findMetricFamily(mfs, "job_last_success_timestamp_seconds")
	require.NotNil(t, last)
	assert.Greater(t, last.GetMetric()[0].GetGauge().GetValue(), float64(0))
}

func TestJobMetricsTime(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewJobMetrics(reg)

	done := m.Time("outbox_publish")
	done(errors.New("publish failed"))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	got, err := fetchCounterValue(mfs, "job_failure_total", "job", "outbox_publish")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)
	assert.Nil(t, findMetricFamily(mfs, "job_last_success_timestamp_seconds"))
}

func TestJobMetricsNilSafe(t *testing.T) {
	m := NewJobMetrics(nil)
	assert.Nil(t, m)
	m.Observe("x", time.Second, nil)
	m.Time("x")(errors.New("ignored"))
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	m, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return m.GetCounter().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	m, err := findMetric(mfs, name, label, value)
	if err != nil {
		return 0, err
	}
	return m.GetHistogram().GetSampleSum(), nil
}

func findMetric(mfs []*dto.MetricFamily, name, label, value string) (*dto.Metric, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return nil, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		for _, pair := range metric.GetLabel() {
			if pair.GetName() == label && pair.GetValue() == value {
				return metric, nil
			}
		}
	}
	return nil, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}
