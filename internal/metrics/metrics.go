// Package metrics exposes Prometheus counters for the protocol
// core's hot paths: handshakes, fragment operations, and skipped-key
// eviction, so a deployment can alert on the failure modes §5/§7 call out
// (replayed pre-keys, unreconstructible fragment sets, skipped-key growth).
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// HandshakesTotal counts X3DH handshakes by outcome ("initiated",
	// "received", "invalid_bundle", "replayed_one_time_key").
	HandshakesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qiyas",
			Subsystem: "x3dh",
			Name:      "handshakes_total",
			Help:      "X3DH handshakes by outcome.",
		},
		[]string{"outcome"},
	)

	// FragmentOperationsTotal counts fragmenter calls by operation ("split",
	// "reconstruct") and outcome ("ok", "error" for split,
	// "unreconstructible" for reconstruct).
	FragmentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qiyas",
			Subsystem: "fragment",
			Name:      "operations_total",
			Help:      "Fragmenter split/reconstruct calls by operation and outcome.",
		},
		[]string{"operation", "outcome"},
	)

	// SkippedKeyEvictionsTotal counts message keys silently dropped because
	// a session's skipped-key cache hit MAX_SKIP (§4.4).
	SkippedKeyEvictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "qiyas",
			Subsystem: "ratchet",
			Name:      "skipped_key_evictions_total",
			Help:      "Message keys evicted from the skipped-key cache under MAX_SKIP pressure.",
		},
	)

	// ChainAppendsTotal counts hash-chain appends by link type ("sent",
	// "received").
	ChainAppendsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qiyas",
			Subsystem: "chain",
			Name:      "appends_total",
			Help:      "Hash chain link appends by link type.",
		},
		[]string{"link_type"},
	)
)

// Registry bundles the collectors above. Register installs them on reg,
// skipping any already registered (so tests can register the same
// collectors into their own private registry without panicking).
func Register(reg prometheus.Registerer) {
	for _, c := range []prometheus.Collector{
		HandshakesTotal,
		FragmentOperationsTotal,
		SkippedKeyEvictionsTotal,
		ChainAppendsTotal,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				panic(err)
			}
		}
	}
}
