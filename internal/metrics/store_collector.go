package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreStatFunc reports the size of the local state directory without
// importing localstore.
type StoreStatFunc func() (entries int, bytes int64, err error)

// storeCollector reads the state directory on every scrape.
type storeCollector struct {
	statFunc StoreStatFunc

	entriesDesc *prometheus.Desc
	bytesDesc   *prometheus.Desc
	errorDesc   *prometheus.Desc
}

// NewStoreCollector creates a collector exposing local store gauges.
func NewStoreCollector(statFunc StoreStatFunc) prometheus.Collector {
	return &storeCollector{
		statFunc: statFunc,
		entriesDesc: prometheus.NewDesc(
			"socialsync_localstore_entries",
			"Number of keys present in the local state directory.",
			nil, nil,
		),
		bytesDesc: prometheus.NewDesc(
			"socialsync_localstore_bytes",
			"Total size of the stored documents in bytes.",
			nil, nil,
		),
		errorDesc: prometheus.NewDesc(
			"socialsync_localstore_stat_error",
			"1 if the last scrape could not read the state directory.",
			nil, nil,
		),
	}
}

func (c *storeCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entriesDesc
	ch <- c.bytesDesc
	ch <- c.errorDesc
}

func (c *storeCollector) Collect(ch chan<- prometheus.Metric) {
	entries, bytes, err := c.statFunc()
	failed := 0.0
	if err != nil {
		failed = 1
	}
	ch <- prometheus.MustNewConstMetric(c.entriesDesc, prometheus.GaugeValue, float64(entries))
	ch <- prometheus.MustNewConstMetric(c.bytesDesc, prometheus.GaugeValue, float64(bytes))
	ch <- prometheus.MustNewConstMetric(c.errorDesc, prometheus.GaugeValue, failed)
}

// WatchStore registers a store collector on the private registry.
func (m *Metrics) WatchStore(statFunc StoreStatFunc) error {
	return m.registry.Register(NewStoreCollector(statFunc))
}
