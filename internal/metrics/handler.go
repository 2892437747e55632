package metrics

import (
	"encoding/json"
	"math"
	"net/http"
	"sort"
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Summary is a condensed view of the registry, printed by the status
// command and served as JSON by the callback listener.
type Summary struct {
	API       apiSummary    `json:"api"`
	RateLimit rateLimitInfo `json:"rateLimit"`
	Fallback  fallbackInfo  `json:"fallback"`
	OAuth     oauthInfo     `json:"oauth"`
	Events    eventsInfo    `json:"events"`
	Process   processInfo   `json:"process"`
}

type apiSummary struct {
	TotalRequests    float64 `json:"totalRequests"`
	ErrorRate        float64 `json:"errorRate"`
	NetworkErrors    float64 `json:"networkErrors"`
	P50Latency       float64 `json:"p50Latency"`
	P95Latency       float64 `json:"p95Latency"`
	BackendReachable bool    `json:"backendReachable"`
}

type rateLimitInfo struct {
	Rejections float64 `json:"rejections"`
}

type fallbackInfo struct {
	Operations float64 `json:"operations"`
}

type oauthInfo struct {
	Pending   float64 `json:"pending"`
	Connected float64 `json:"connected"`
	Failed    float64 `json:"failed"`
}

type eventsInfo struct {
	BufferSize   float64 `json:"bufferSize"`
	TotalFlushes float64 `json:"totalFlushes"`
	FlushErrors  float64 `json:"flushErrors"`
	Recorded     float64 `json:"recorded"`
}

type processInfo struct {
	StartTime     float64 `json:"startTime"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

// Summary gathers the registry into a Summary.
func (m *Metrics) Summary() (Summary, error) {
	families, err := m.registry.Gather()
	if err != nil {
		return Summary{}, err
	}

	fam := make(map[string]*dto.MetricFamily, len(families))
	for _, f := range families {
		fam[f.GetName()] = f
	}

	flows := fam["socialsync_oauth_flows_total"]
	connected := sumCounterWithLabel(flows, "outcome", "connected")
	start := gaugeValue(fam["socialsync_start_time_seconds"])

	return Summary{
		API: apiSummary{
			TotalRequests:    sumCounter(fam["socialsync_api_requests_total"]),
			ErrorRate:        computeErrorRate(fam["socialsync_api_requests_total"]),
			NetworkErrors:    sumCounter(fam["socialsync_api_network_errors_total"]),
			P50Latency:       histogramPercentile(fam["socialsync_api_request_duration_seconds"], 0.50),
			P95Latency:       histogramPercentile(fam["socialsync_api_request_duration_seconds"], 0.95),
			BackendReachable: gaugeValue(fam["socialsync_backend_reachable"]) == 1,
		},
		RateLimit: rateLimitInfo{
			Rejections: sumCounter(fam["socialsync_ratelimit_rejections_total"]),
		},
		Fallback: fallbackInfo{
			Operations: sumCounter(fam["socialsync_fallback_operations_total"]),
		},
		OAuth: oauthInfo{
			Pending:   gaugeValue(fam["socialsync_oauth_pending"]),
			Connected: connected,
			Failed:    sumCounter(flows) - connected,
		},
		Events: eventsInfo{
			BufferSize:   gaugeValue(fam["socialsync_events_buffer_size"]),
			TotalFlushes: sumCounter(fam["socialsync_events_flushes_total"]),
			FlushErrors:  sumCounterWithLabel(fam["socialsync_events_flushes_total"], "status", "error"),
			Recorded:     counterValue(fam["socialsync_events_recorded_total"]),
		},
		Process: processInfo{
			StartTime:     start,
			UptimeSeconds: float64(time.Now().Unix()) - start,
		},
	}, nil
}

// SummaryHandler serves Summary as JSON.
func (m *Metrics) SummaryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := m.Summary()
		if err != nil {
			http.Error(w, "failed to gather metrics", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache, no-store")
		_ = json.NewEncoder(w).Encode(s)
	}
}

// --- Prometheus metric helpers ---

func sumCounter(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func gaugeValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetGauge() == nil {
		return 0
	}
	return ms[0].GetGauge().GetValue()
}

func counterValue(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	ms := f.GetMetric()
	if len(ms) == 0 || ms[0].GetCounter() == nil {
		return 0
	}
	return ms[0].GetCounter().GetValue()
}

func hasLabel(m *dto.Metric, name, value string) bool {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name && lp.GetValue() == value {
			return true
		}
	}
	return false
}

func sumCounterWithLabel(f *dto.MetricFamily, labelName, labelValue string) float64 {
	if f == nil {
		return 0
	}
	var total float64
	for _, m := range f.GetMetric() {
		if hasLabel(m, labelName, labelValue) && m.GetCounter() != nil {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

// computeErrorRate is the share of responses with a 4xx or 5xx status.
func computeErrorRate(f *dto.MetricFamily) float64 {
	if f == nil {
		return 0
	}
	var total, failed float64
	for _, m := range f.GetMetric() {
		if m.GetCounter() == nil {
			continue
		}
		v := m.GetCounter().GetValue()
		total += v
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "status_code" {
				code := lp.GetValue()
				if len(code) > 0 && code[0] >= '4' {
					failed += v
				}
			}
		}
	}
	if total == 0 {
		return 0
	}
	return failed / total
}

// histogramPercentile estimates quantile q from the aggregated buckets of
// every series in the family, interpolating linearly inside a bucket.
func histogramPercentile(f *dto.MetricFamily, q float64) float64 {
	if f == nil {
		return 0
	}

	type bucket struct {
		upperBound      float64
		cumulativeCount uint64
	}
	var totalCount uint64
	bucketMap := make(map[float64]uint64)

	for _, m := range f.GetMetric() {
		h := m.GetHistogram()
		if h == nil {
			continue
		}
		totalCount += h.GetSampleCount()
		for _, b := range h.GetBucket() {
			bucketMap[b.GetUpperBound()] += b.GetCumulativeCount()
		}
	}
	if totalCount == 0 {
		return 0
	}

	buckets := make([]bucket, 0, len(bucketMap))
	for ub, count := range bucketMap {
		buckets = append(buckets, bucket{upperBound: ub, cumulativeCount: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].upperBound < buckets[j].upperBound
	})

	rank := q * float64(totalCount)
	var prevBound float64
	var prevCount uint64
	for _, b := range buckets {
		if math.IsInf(b.upperBound, 1) {
			break
		}
		if float64(b.cumulativeCount) >= rank {
			inBucket := b.cumulativeCount - prevCount
			if inBucket == 0 {
				return b.upperBound
			}
			fraction := (rank - float64(prevCount)) / float64(inBucket)
			return prevBound + fraction*(b.upperBound-prevBound)
		}
		prevBound = b.upperBound
		prevCount = b.cumulativeCount
	}

	for i := len(buckets) - 1; i >= 0; i-- {
		if !math.IsInf(buckets[i].upperBound, 1) {
			return buckets[i].upperBound
		}
	}
	return 0
}
