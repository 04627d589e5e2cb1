// pkg/metrics/backup.go

// Package metrics exports backup outcomes in the node_exporter textfile
// format. Each CTID gets its own file. Series already in that file are
// merged with the current run, so the last success survives a failed attempt
// and a single-kind backup keeps the other kinds' results.
package metrics

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	cerr "github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

const namespace = "infrastack"

type stationMetrics struct {
	reg         *prometheus.Registry
	lastRun     *prometheus.GaugeVec
	lastSuccess *prometheus.GaugeVec
	status      *prometheus.GaugeVec
	duration    *prometheus.GaugeVec

	// set holds the series written by this run, keyed by seriesKey.
	set map[string]bool
}

func seriesKey(name string, l prometheus.Labels) string {
	return name + "|" + l["platform"] + "|" + l["kind"]
}

// gauges maps the exported family name to its vec.
func (m *stationMetrics) gauges() map[string]*prometheus.GaugeVec {
	return map[string]*prometheus.GaugeVec{
		namespace + "_backup_last_run_timestamp_seconds":     m.lastRun,
		namespace + "_backup_last_success_timestamp_seconds": m.lastSuccess,
		namespace + "_backup_last_status":                    m.status,
		namespace + "_backup_duration_seconds":               m.duration,
	}
}

func (m *stationMetrics) setGauge(name string, l prometheus.Labels, v float64) {
	m.gauges()[name].With(l).Set(v)
	m.set[seriesKey(name, l)] = true
}

// restore copies series from an earlier file that this run did not write.
func (m *stationMetrics) restore(families map[string]*dto.MetricFamily) {
	for name, vec := range m.gauges() {
		fam, ok := families[name]
		if !ok {
			continue
		}
		for _, metric := range fam.GetMetric() {
			l := prometheus.Labels{}
			for _, pair := range metric.GetLabel() {
				l[pair.GetName()] = pair.GetValue()
			}
			if m.set[seriesKey(name, l)] || metric.GetGauge() == nil {
				continue
			}
			g, err := vec.GetMetricWith(l)
			if err != nil {
				continue
			}
			g.Set(metric.GetGauge().GetValue())
		}
	}
}

func newStationMetrics() *stationMetrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	labels := []string{"ctid", "platform", "kind"}
	return &stationMetrics{
		reg: reg,
		set: map[string]bool{},
		lastRun: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_last_run_timestamp_seconds",
			Help:      "Unix time of the last backup attempt",
		}, labels),
		lastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful backup",
		}, labels),
		status: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_last_status",
			Help:      "1 if the last backup succeeded, 0 otherwise",
		}, labels),
		duration: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_duration_seconds",
			Help:      "Duration of the last backup attempt",
		}, labels),
	}
}

// BackupRecorder collects results for one invocation.
type BackupRecorder struct {
	stations map[int]*stationMetrics
}

func NewBackupRecorder() *BackupRecorder {
	return &BackupRecorder{stations: map[int]*stationMetrics{}}
}

// Observe records one backup attempt.
func (r *BackupRecorder) Observe(ctid int, platform, kind string, ok bool, took time.Duration, at time.Time) {
	m, found := r.stations[ctid]
	if !found {
		m = newStationMetrics()
		r.stations[ctid] = m
	}
	l := prometheus.Labels{"ctid": strconv.Itoa(ctid), "platform": platform, "kind": kind}
	m.setGauge(namespace+"_backup_last_run_timestamp_seconds", l, float64(at.Unix()))
	m.setGauge(namespace+"_backup_duration_seconds", l, took.Seconds())
	if ok {
		m.setGauge(namespace+"_backup_last_status", l, 1)
		m.setGauge(namespace+"_backup_last_success_timestamp_seconds", l, float64(at.Unix()))
	} else {
		m.setGauge(namespace+"_backup_last_status", l, 0)
	}
}

// Registry exposes the per-CTID registry, mainly for tests.
func (r *BackupRecorder) Registry(ctid int) *prometheus.Registry {
	if m, ok := r.stations[ctid]; ok {
		return m.reg
	}
	return nil
}

// FileName is the textfile written for ctid.
func FileName(ctid int) string {
	return "infrastack_backup_" + strconv.Itoa(ctid) + ".prom"
}

// readTextfile parses an earlier export. A missing file yields no families.
func readTextfile(path string) (map[string]*dto.MetricFamily, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p := expfmt.NewTextParser(model.UTF8Validation)
	return p.TextToMetricFamilies(f)
}

// WriteTextfiles writes one file per observed CTID into dir and returns the
// paths. Series from an existing file that this run did not touch are kept.
// An unreadable existing file is replaced. An empty dir disables export.
func (r *BackupRecorder) WriteTextfiles(dir string) ([]string, error) {
	if dir == "" || len(r.stations) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, cerr.Wrapf(err, "create metrics dir %s", dir)
	}
	ctids := make([]int, 0, len(r.stations))
	for ctid := range r.stations {
		ctids = append(ctids, ctid)
	}
	sort.Ints(ctids)

	var written []string
	for _, ctid := range ctids {
		path := filepath.Join(dir, FileName(ctid))
		if prev, err := readTextfile(path); err == nil {
			r.stations[ctid].restore(prev)
		}
		if err := prometheus.WriteToTextfile(path, r.stations[ctid].reg); err != nil {
			return written, cerr.Wrapf(err, "write metrics %s", path)
		}
		written = append(written, path)
	}
	return written, nil
}
