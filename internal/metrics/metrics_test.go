package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestRegister_IsIdempotent(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("second Register call should not panic, got: %v", r)
		}
	}()
	Register(reg)
}

func TestHandshakesTotal_IncrementsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	Register(reg)

	HandshakesTotal.WithLabelValues("initiated").Inc()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	found := false
	for _, f := range families {
		if f.GetName() != "qiyas_x3dh_handshakes_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			if metricHasLabel(m, "outcome", "initiated") && m.GetCounter().GetValue() > 0 {
				found = true
			}
		}
	}
	if !found {
		t.Fatal("expected qiyas_x3dh_handshakes_total{outcome=\"initiated\"} to be observed")
	}
}

func metricHasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}
