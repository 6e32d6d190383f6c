package metrics

import (
	"fmt"
	"io"
	"sync/atomic"
)

// PrometheusExporter exports a Collector in Prometheus text format.
type PrometheusExporter struct {
	collector *Collector
	namespace string
}

// NewPrometheusExporter creates a new Prometheus exporter.
func NewPrometheusExporter(collector *Collector) *PrometheusExporter {
	return &PrometheusExporter{collector: collector, namespace: "lsmkv"}
}

// SetNamespace sets the metric namespace prefix.
func (pe *PrometheusExporter) SetNamespace(namespace string) {
	pe.namespace = namespace
}

// WriteMetrics writes all metrics in Prometheus text format to w.
func (pe *PrometheusExporter) WriteMetrics(w io.Writer) error {
	c := pe.collector

	if err := pe.writeGauge(w, "uptime_seconds", "Store uptime in seconds", snapshotFloat(c, "uptime_seconds")); err != nil {
		return err
	}

	ops := []struct {
		name      string
		plural    string
		executed  *uint64
		failed    *uint64
		totalTime *uint64
		timings   *TimingHistogram
	}{
		{"get", "gets", &c.getsExecuted, &c.getsFailed, &c.totalGetTime, c.getTimings},
		{"set", "sets", &c.setsExecuted, &c.setsFailed, &c.totalSetTime, c.setTimings},
		{"delete", "deletes", &c.deletesExecuted, &c.deletesFailed, &c.totalDeleteTime, nil},
		{"flush", "flushes", &c.flushesExecuted, &c.flushesFailed, &c.totalFlushTime, c.flushTimings},
		{"compaction", "compactions", &c.compactionsExecuted, &c.compactionsFailed, &c.totalCompactionTime, nil},
	}

	for _, op := range ops {
		if err := pe.writeCounter(w, op.plural+"_total", "Total number of "+op.name+" operations", atomic.LoadUint64(op.executed)); err != nil {
			return err
		}
		if err := pe.writeCounter(w, op.plural+"_failed_total", "Total number of failed "+op.name+" operations", atomic.LoadUint64(op.failed)); err != nil {
			return err
		}
		if err := pe.writeCounter(w, op.name+"_duration_nanoseconds_total", "Total "+op.name+" time in nanoseconds", atomic.LoadUint64(op.totalTime)); err != nil {
			return err
		}
		if op.timings == nil {
			continue
		}
		if err := pe.writeHistogram(w, op.name+"_duration_seconds", op.name+" duration histogram", op.timings); err != nil {
			return err
		}
		if err := pe.writePercentiles(w, op.name+"_duration_seconds", op.timings); err != nil {
			return err
		}
	}

	return nil
}

func snapshotFloat(c *Collector, key string) float64 {
	v, _ := c.Snapshot()[key].(float64)
	return v
}

func (pe *PrometheusExporter) writeCounter(w io.Writer, name, help string, value uint64) error {
	metricName := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", metricName, help, metricName, metricName, value)
	return err
}

func (pe *PrometheusExporter) writeGauge(w io.Writer, name, help string, value float64) error {
	metricName := pe.namespace + "_" + name
	_, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %g\n", metricName, help, metricName, metricName, value)
	return err
}

func (pe *PrometheusExporter) writeHistogram(w io.Writer, name, help string, th *TimingHistogram) error {
	metricName := pe.namespace + "_" + name
	if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s histogram\n", metricName, help, metricName); err != nil {
		return err
	}

	buckets := th.GetBuckets()
	bounds := []struct {
		le  string
		key string
	}{
		{"0.001", "0-1ms"},
		{"0.01", "1-10ms"},
		{"0.1", "10-100ms"},
		{"1.0", "100-1000ms"},
		{"+Inf", ">1000ms"},
	}

	var cumulative uint64
	for _, b := range bounds {
		cumulative += buckets[b.key]
		if _, err := fmt.Fprintf(w, "%s_bucket{le=\"%s\"} %d\n", metricName, b.le, cumulative); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%s_count %d\n", metricName, cumulative)
	return err
}

func (pe *PrometheusExporter) writePercentiles(w io.Writer, baseName string, th *TimingHistogram) error {
	percentiles := th.GetPercentiles()
	for _, p := range []string{"p50", "p95", "p99"} {
		if err := pe.writeGauge(w, baseName+"_"+p, fmt.Sprintf("%s percentile of %s", p, baseName), percentiles[p].Seconds()); err != nil {
			return err
		}
	}
	return nil
}
