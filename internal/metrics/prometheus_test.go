package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNew_SeparateRegistries(t *testing.T) {
	a := New(prometheus.NewRegistry())
	b := New(prometheus.NewRegistry())

	a.IncMutation("contest", "add")
	a.IncMutation("contest", "add")
	b.IncProbe("exists")

	assert.Equal(t, 2.0, testutil.ToFloat64(a.Mutations.WithLabelValues("contest", "add")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Mutations.WithLabelValues("contest", "add")))
	assert.Equal(t, 1.0, testutil.ToFloat64(b.ProbeResults.WithLabelValues("exists")))
}

func TestNop(t *testing.T) {
	m := Nop()
	m.IncStorageFailure("acm-contests", "save")
	m.IncBackup("auto", "ok")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StorageFailures.WithLabelValues("acm-contests", "save")))
}
