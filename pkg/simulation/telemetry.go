package simulation

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/stat"
)

// StepStats aggregates one step of the simulation for logging and CSV
// export. Distributions are computed over all agents in the step.
type StepStats struct {
	Step    int64   `csv:"step"`
	SimTime float64 `csv:"sim_time"`
	Agents  int     `csv:"agents"`

	NeighborsMean float64 `csv:"neighbors_mean"`
	NeighborsP90  float64 `csv:"neighbors_p90"`

	ForceMean float64 `csv:"force_mean"`
	ForceStd  float64 `csv:"force_std"`

	PendingMessages int     `csv:"pending_messages"`
	StepMillis      float64 `csv:"step_ms"`
}

// collectStats reduces the per-agent samples gathered during the compute
// phase. The sample slices are step scratch, so sorting them in place for
// the quantile is fine.
func (w *World) collectStats(elapsed time.Duration) StepStats {
	s := StepStats{
		Step:            w.step,
		SimTime:         w.simTime,
		Agents:          len(w.order),
		PendingMessages: w.bus.Pending(),
		StepMillis:      float64(elapsed.Microseconds()) / 1000.0,
	}
	if len(w.order) == 0 {
		return s
	}

	s.NeighborsMean = stat.Mean(w.neighborCounts, nil)
	sort.Float64s(w.neighborCounts)
	s.NeighborsP90 = stat.Quantile(0.9, stat.Empirical, w.neighborCounts, nil)

	s.ForceMean = stat.Mean(w.forceMags, nil)
	if len(w.forceMags) > 1 {
		s.ForceStd = stat.StdDev(w.forceMags, nil)
	}
	return s
}

// Recorder appends step records to a CSV file, header first. A nil Recorder
// is a no-op so callers can leave telemetry disabled without branching.
type Recorder struct {
	file          *os.File
	headerWritten bool
}

// NewRecorder creates (truncates) the CSV file at path. An empty path
// returns a nil (disabled) recorder.
func NewRecorder(path string) (*Recorder, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating telemetry csv: %w", err)
	}
	return &Recorder{file: f}, nil
}

// Record appends one step record.
func (r *Recorder) Record(s StepStats) error {
	if r == nil {
		return nil
	}
	records := []*StepStats{&s}
	if !r.headerWritten {
		r.headerWritten = true
		return gocsv.Marshal(records, r.file)
	}
	return gocsv.MarshalWithoutHeaders(records, r.file)
}

// Close flushes and closes the underlying file.
func (r *Recorder) Close() error {
	if r == nil {
		return nil
	}
	return r.file.Close()
}
