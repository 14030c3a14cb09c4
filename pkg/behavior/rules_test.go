package behavior

import (
	"errors"
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-flocking-engine/pkg/geometry"
)

func testAgent() *AgentState {
	return &AgentState{
		ID:               "me",
		Pos:              geometry.Vector3D{},
		Vel:              geometry.Vector3D{},
		PerceptionRadius: 5,
		MaxSpeed:         4,
		MaxForce:         1,
	}
}

func neighborAt(pos geometry.Vector3D, from geometry.Vector3D) Neighbor {
	return Neighbor{ID: "other", Pos: pos, Dist: pos.DistanceTo(from)}
}

func assertNotNaN(t *testing.T, v geometry.Vector3D) {
	t.Helper()
	if math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z) {
		t.Fatalf("force contains NaN: %v", v)
	}
}

func TestRuleConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     RuleConfig
		wantErr bool
	}{
		{"defaults are valid", DefaultRuleConfig(), false},
		{"negative weight", RuleConfig{Weight: -1, MaxDistance: 5}, true},
		{"negative minDistance", RuleConfig{Weight: 1, MinDistance: -0.5, MaxDistance: 5}, true},
		{"maxDistance below minDistance", RuleConfig{Weight: 1, MinDistance: 5, MaxDistance: 2}, true},
		{"zero weight is allowed", RuleConfig{Weight: 0, MaxDistance: 5}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrConfig) {
				t.Errorf("Validate() = %v; want ErrConfig", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}

func TestFilterNeighborsByDistance_InclusiveBounds(t *testing.T) {
	origin := geometry.Vector3D{}
	neighbors := []Neighbor{
		neighborAt(geometry.Vector3D{X: 0.5}, origin), // exactly minDistance
		neighborAt(geometry.Vector3D{X: 2}, origin),   // inside
		neighborAt(geometry.Vector3D{X: 5}, origin),   // exactly maxDistance
		neighborAt(geometry.Vector3D{X: 5.01}, origin),
		neighborAt(geometry.Vector3D{X: 0.49}, origin),
	}

	got := FilterNeighborsByDistance(neighbors, 0.5, 5, nil)
	if len(got) != 3 {
		t.Fatalf("filter kept %d neighbors; want 3 (both bounds inclusive)", len(got))
	}
}

func TestSeparation_PushesAway(t *testing.T) {
	// Scenario: me at origin, neighbor at (1,0,0). The separation force must
	// point in the -x direction.
	r, err := NewSeparation(DefaultRuleConfig())
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()
	neighbors := []Neighbor{neighborAt(geometry.Vector3D{X: 1}, me.Pos)}

	force := r.ComputeForce(me, neighbors)
	assertNotNaN(t, force)
	if force.X >= 0 {
		t.Errorf("expected negative X (push away), got %v", force)
	}
	if force.Y != 0 || force.Z != 0 {
		t.Errorf("expected force along X only, got %v", force)
	}
}

func TestSeparation_CloserNeighborsPushHarder(t *testing.T) {
	r, _ := NewSeparation(DefaultRuleConfig())
	me := testAgent()

	near := r.ComputeForce(me, []Neighbor{neighborAt(geometry.Vector3D{X: 1}, me.Pos)})
	far := r.ComputeForce(me, []Neighbor{neighborAt(geometry.Vector3D{X: 4}, me.Pos)})

	// Both desired vectors reach MaxSpeed after steering, so compare the raw
	// inverse-distance weighting through a non-zero current velocity.
	me.Vel = geometry.Vector3D{X: -1}
	nearMoving := r.ComputeForce(me, []Neighbor{neighborAt(geometry.Vector3D{X: 1}, me.Pos)})
	if nearMoving.X >= 0 {
		t.Errorf("moving agent: expected push away to stay negative, got %v", nearMoving)
	}
	if near.X >= 0 || far.X >= 0 {
		t.Errorf("expected both pushes negative, got near=%v far=%v", near, far)
	}
}

func TestSeparation_CoincidentNeighborIsZero(t *testing.T) {
	// Two agents at the exact same position: no direction exists, so the
	// pair contributes nothing instead of dividing by zero.
	r, _ := NewSeparation(RuleConfig{Weight: 1, Enabled: true, MinDistance: 0, MaxDistance: 5})
	me := testAgent()
	neighbors := []Neighbor{neighborAt(me.Pos, me.Pos)}

	force := r.ComputeForce(me, neighbors)
	assertNotNaN(t, force)
	if !force.Eq(geometry.Vector3D{}) {
		t.Errorf("coincident neighbor force = %v; want zero", force)
	}
}

func TestAlignment_MatchesNeighborHeading(t *testing.T) {
	r, err := NewAlignment(DefaultRuleConfig())
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()
	n := neighborAt(geometry.Vector3D{X: 2}, me.Pos)
	n.Vel = geometry.Vector3D{Y: 3}

	force := r.ComputeForce(me, []Neighbor{n})
	assertNotNaN(t, force)
	if force.Y <= 0 {
		t.Errorf("expected positive Y (align with neighbor heading), got %v", force)
	}
}

func TestCohesion_SeeksCentroid(t *testing.T) {
	r, err := NewCohesion(DefaultRuleConfig())
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()
	neighbors := []Neighbor{
		neighborAt(geometry.Vector3D{X: 3, Y: 1}, me.Pos),
		neighborAt(geometry.Vector3D{X: 3, Y: -1}, me.Pos),
	}

	force := r.ComputeForce(me, neighbors)
	assertNotNaN(t, force)
	if force.X <= 0 {
		t.Errorf("expected positive X (toward centroid at (3,0,0)), got %v", force)
	}
	if !floatNear(force.Y, 0) {
		t.Errorf("expected Y near 0 (symmetric centroid), got %v", force)
	}
}

func TestClassicRules_ZeroNeighborsIsZero(t *testing.T) {
	// Empty neighbor lists (before or after the distance filter) must yield
	// the zero vector, never a division by zero.
	sep, _ := NewSeparation(DefaultRuleConfig())
	ali, _ := NewAlignment(DefaultRuleConfig())
	coh, _ := NewCohesion(DefaultRuleConfig())
	me := testAgent()

	outOfBand := []Neighbor{neighborAt(geometry.Vector3D{X: 50}, me.Pos)}

	for _, rule := range []Rule{sep, ali, coh} {
		for _, neighbors := range [][]Neighbor{nil, {}, outOfBand} {
			force := rule.ComputeForce(me, neighbors)
			assertNotNaN(t, force)
			if !force.Eq(geometry.Vector3D{}) {
				t.Errorf("%s with no in-band neighbors = %v; want zero", rule.Name(), force)
			}
		}
	}
}

func TestSeek_TowardTarget(t *testing.T) {
	r, err := NewSeek(DefaultRuleConfig(), FixedTarget(geometry.Vector3D{X: 10}))
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()

	force := r.ComputeForce(me, nil)
	if force.X <= 0 {
		t.Errorf("expected positive X (toward target), got %v", force)
	}

	// At the target exactly: degenerate direction, zero force.
	me.Pos = geometry.Vector3D{X: 10}
	force = r.ComputeForce(me, nil)
	assertNotNaN(t, force)
	if !force.Eq(geometry.Vector3D{}) {
		t.Errorf("seek at target = %v; want zero", force)
	}
}

func TestFlee_AwayFromTargetWithinRange(t *testing.T) {
	r, err := NewFlee(DefaultRuleConfig(), FixedTarget(geometry.Vector3D{X: 2}))
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()

	force := r.ComputeForce(me, nil)
	if force.X >= 0 {
		t.Errorf("expected negative X (away from target), got %v", force)
	}

	// Beyond MaxDistance the threat is ignored.
	me.Pos = geometry.Vector3D{X: 100}
	if force := r.ComputeForce(me, nil); !force.Eq(geometry.Vector3D{}) {
		t.Errorf("flee out of range = %v; want zero", force)
	}
}

func TestWander_BoundedByTurnRate(t *testing.T) {
	r, err := NewWander(DefaultRuleConfig(), 0.25)
	if err != nil {
		t.Fatal(err)
	}
	me := testAgent()
	for i := 0; i < 100; i++ {
		force := r.ComputeForce(me, nil)
		assertNotNaN(t, force)
		if force.Len() > 0.25+geometry.Epsilon {
			t.Fatalf("wander force %v exceeds turn rate 0.25", force)
		}
	}
}

func TestBoundary_TurnsBackInsideMargin(t *testing.T) {
	min := geometry.Vector3D{}
	max := geometry.Vector3D{X: 100, Y: 100, Z: 100}
	r, err := NewBoundary(DefaultRuleConfig(), min, max, 10, 0.2)
	if err != nil {
		t.Fatal(err)
	}

	me := testAgent()
	me.Pos = geometry.Vector3D{X: 5, Y: 50, Z: 50} // inside the low-X margin
	force := r.ComputeForce(me, nil)
	if force.X != 0.2 || force.Y != 0 || force.Z != 0 {
		t.Errorf("near low X wall force = %v; want (0.2, 0, 0)", force)
	}

	me.Pos = geometry.Vector3D{X: 50, Y: 97, Z: 50} // inside the high-Y margin
	force = r.ComputeForce(me, nil)
	if force.X != 0 || force.Y != -0.2 {
		t.Errorf("near high Y wall force = %v; want (0, -0.2, 0)", force)
	}

	me.Pos = geometry.Vector3D{X: 50, Y: 50, Z: 50} // interior
	if force := r.ComputeForce(me, nil); !force.Eq(geometry.Vector3D{}) {
		t.Errorf("interior force = %v; want zero", force)
	}
}

func TestRuleConstructors_RejectBadConfig(t *testing.T) {
	bad := RuleConfig{Weight: -1, MaxDistance: 5}
	if _, err := NewSeparation(bad); !errors.Is(err, ErrConfig) {
		t.Errorf("NewSeparation(bad) error = %v; want ErrConfig", err)
	}
	if _, err := NewWander(DefaultRuleConfig(), -1); !errors.Is(err, ErrConfig) {
		t.Errorf("NewWander(turnRate=-1) error = %v; want ErrConfig", err)
	}
	if _, err := NewBoundary(DefaultRuleConfig(), geometry.Vector3D{}, geometry.Vector3D{X: 1, Y: 1, Z: 1}, -1, 0); !errors.Is(err, ErrConfig) {
		t.Errorf("NewBoundary(margin=-1) error = %v; want ErrConfig", err)
	}
}

func floatNear(a, b float64) bool {
	return math.Abs(a-b) <= 1e-9
}
