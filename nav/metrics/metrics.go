// Package metrics exports the statistics of a conversion run in the
// Prometheus text format.  The converter is a batch job, so rather than
// serving the metrics it writes them to a file that the node exporter's
// textfile collector picks up, for example:
//
//	# HELP mdp2fic_subframes Navigation subframes that were parity checked.
//	# TYPE mdp2fic_subframes gauge
//	mdp2fic_subframes{parity="failed"} 3
//	mdp2fic_subframes{parity="ok"} 1204
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goblimey/go-mdp/nav/driver"
)

// Namespace is the prefix of every metric name.
const Namespace = "mdp2fic"

// Run is the outcome of a conversion, as needed for the metrics.
type Run struct {
	Stats       *driver.Stats
	Termination driver.Termination
	// Unique is the number of distinct ephemerides seen.
	Unique   int
	Finished time.Time
}

// NewRegistry returns a registry holding the metrics of the run.  Each
// call gives a fresh registry.
func NewRegistry(run *Run) *prometheus.Registry {
	stats := run.Stats

	subframes := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "subframes",
			Help:      "Navigation subframes that were parity checked.",
		},
		[]string{"parity"},
	)
	subframes.WithLabelValues("ok").Set(float64(stats.ParitySuccesses))
	subframes.WithLabelValues("failed").Set(float64(stats.ParityFailures))

	records := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "skipped_records",
			Help:      "Records and subframes that were not converted, by reason.",
		},
		[]string{"reason"},
	)
	records.WithLabelValues("obs_epoch").Set(float64(stats.ObsEpochs))
	records.WithLabelValues("non_mdp").Set(float64(stats.NonMDP))
	records.WithLabelValues("unknown_id").Set(float64(stats.UnknownRecords))
	records.WithLabelValues("undecodable").Set(float64(stats.Undecodable))
	records.WithLabelValues("wrong_signal").Set(float64(stats.WrongSignal))
	records.WithLabelValues("invalid_subframe_id").Set(float64(stats.InvalidID))

	ephemerides := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "ephemerides",
			Help:      "Ephemerides decoded from complete page sets, by outcome.",
		},
		[]string{"outcome"},
	)
	ephemerides.WithLabelValues("decoded").Set(float64(stats.EphemeridesDecoded))
	ephemerides.WithLabelValues("emitted").Set(float64(stats.EphemeridesEmitted))
	ephemerides.WithLabelValues("suppressed").Set(float64(stats.EphemeridesSuppressed))
	ephemerides.WithLabelValues("rejected").Set(float64(stats.EphemeridesRejected))

	unique := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "unique_ephemerides",
		Help:      "Distinct ephemerides seen over all satellites.",
	})
	unique.Set(float64(run.Unique))

	almanacs := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "almanac",
			Help:      "Almanac flushes and dropped almanac pages.",
		},
		[]string{"event"},
	)
	almanacs.WithLabelValues("flush").Set(float64(stats.AlmanacFlushes))
	almanacs.WithLabelValues("page_dropped").Set(float64(stats.AlmanacPagesDropped))

	success := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_success",
		Help:      "1 if the last run read its input to the end, otherwise 0.",
	})
	if run.Termination == driver.EndOfInput {
		success.Set(1)
	}

	finished := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix time at which the last run finished.",
	})
	finished.Set(float64(run.Finished.Unix()))

	registry := prometheus.NewRegistry()
	registry.MustRegister(subframes, records, ephemerides, unique, almanacs, success, finished)

	// The transmit time range is only known once a subframe has passed.
	if !stats.Latest.IsZero() {
		latest := prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "latest_transmit_timestamp_seconds",
			Help:      "Unix time of the latest subframe that passed the parity check.",
		})
		latest.Set(float64(stats.Latest.Unix()))
		registry.MustRegister(latest)
	}

	return registry
}

// WriteTextfile writes the metrics of the run to the named file.  The file
// is replaced atomically.
func WriteTextfile(filename string, run *Run) error {
	if err := prometheus.WriteToTextfile(filename, NewRegistry(run)); err != nil {
		return fmt.Errorf("cannot write metrics - %w", err)
	}
	return nil
}
