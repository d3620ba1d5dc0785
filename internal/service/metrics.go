package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the domain counters. A nil *Metrics records nothing.
type Metrics struct {
	syncDocuments *prometheus.CounterVec
	reportRows    *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		syncDocuments: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_sync_documents_total",
				Help: "E-signature documents processed by sync runs and webhooks.",
			},
			[]string{"source", "outcome"},
		),
		reportRows: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "backoffice_report_rows_total",
				Help: "Rows stored from uploaded royalty reports.",
			},
			[]string{"kind"},
		),
	}
	for _, c := range []prometheus.Collector{m.syncDocuments, m.reportRows} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) document(source, outcome string) {
	if m == nil {
		return
	}
	m.syncDocuments.WithLabelValues(source, outcome).Inc()
}

func (m *Metrics) rows(kind string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.reportRows.WithLabelValues(kind).Add(float64(n))
}
