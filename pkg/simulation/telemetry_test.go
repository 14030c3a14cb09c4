package simulation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRecorder_WritesHeaderOnceThenRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.csv")
	rec, err := NewRecorder(path)
	if err != nil {
		t.Fatalf("NewRecorder error = %v", err)
	}
	if err := rec.Record(StepStats{Step: 1, Agents: 3}); err != nil {
		t.Fatalf("Record error = %v", err)
	}
	if err := rec.Record(StepStats{Step: 2, Agents: 3}); err != nil {
		t.Fatalf("Record error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close error = %v", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(b)), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines; want header + 2 rows:\n%s", len(lines), b)
	}
	if !strings.HasPrefix(lines[0], "step,") {
		t.Errorf("header = %q; want it to start with the step column", lines[0])
	}
	if !strings.HasPrefix(lines[1], "1,") || !strings.HasPrefix(lines[2], "2,") {
		t.Errorf("rows = %q, %q; want step values 1 and 2", lines[1], lines[2])
	}
}

func TestRecorder_NilIsNoOp(t *testing.T) {
	rec, err := NewRecorder("")
	if err != nil {
		t.Fatalf("NewRecorder(\"\") error = %v", err)
	}
	if rec != nil {
		t.Fatal("NewRecorder(\"\") should disable recording")
	}
	if err := rec.Record(StepStats{}); err != nil {
		t.Errorf("nil Record error = %v", err)
	}
	if err := rec.Close(); err != nil {
		t.Errorf("nil Close error = %v", err)
	}
}

func TestCollectStats_AfterStep(t *testing.T) {
	w := mustWorld(t, testConfig())
	if err := w.Step(0.1); err != nil {
		t.Fatalf("Step error = %v", err)
	}
	s := w.LastStats()
	if s.Step != 1 {
		t.Errorf("Step = %d; want 1", s.Step)
	}
	if s.Agents != w.Len() {
		t.Errorf("Agents = %d; want %d", s.Agents, w.Len())
	}
	if s.NeighborsMean < 0 {
		t.Errorf("NeighborsMean = %v; want >= 0", s.NeighborsMean)
	}
	if s.NeighborsP90 < 0 {
		t.Errorf("NeighborsP90 = %v; want >= 0", s.NeighborsP90)
	}
	if s.ForceMean < 0 {
		t.Errorf("ForceMean = %v; want >= 0", s.ForceMean)
	}
}
