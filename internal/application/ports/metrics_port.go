package ports

// Metrics contadores del flujo. La implementación Prometheus vive en infrastructure/metrics.
type Metrics interface {
	DocumentTransition(from, to string)
	SignerAction(action, result string)
	QuotaRejected(kind string)
	RequestsExpired(n int)
}

// NopMetrics implementación vacía.
type NopMetrics struct{}

func (NopMetrics) DocumentTransition(string, string) {}
func (NopMetrics) SignerAction(string, string)       {}
func (NopMetrics) QuotaRejected(string)              {}
func (NopMetrics) RequestsExpired(int)               {}
