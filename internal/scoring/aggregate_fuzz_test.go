package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// FuzzAggregate: на любом входе либо ErrSchema, либо балл в [0,1] и согласованный статус.
func FuzzAggregate(f *testing.F) {
	f.Add(0.9, 0.9, 0.6, 0.4)
	f.Add(0.95, 0.5, 0.6, 0.4)
	f.Add(1.1, 0.5, 1.0, 1.0)
	f.Add(-0.1, 0.5, 1.0, 1.0)
	f.Add(0.0, 1.0, 0.0, 1.0)

	f.Fuzz(func(t *testing.T, a, b, wa, wb float64) {
		if math.IsNaN(wa) || math.IsNaN(wb) || math.IsInf(wa, 0) || math.IsInf(wb, 0) {
			t.Skip("weights must be finite")
		}
		wa, wb = math.Abs(wa), math.Abs(wb)
		if wa+wb == 0 || math.IsInf(wa+wb, 0) {
			t.Skip("need positive finite total weight")
		}

		rubric := domain.Rubric{
			Dimensions: []domain.Dimension{
				{Name: "A", Weight: wa, Threshold: 0.8},
				{Name: "B", Weight: wb, Threshold: 0.8},
			},
			OverallThreshold: 0.85,
		}

		agg, err := Aggregate(map[string]float64{"A": a, "B": b}, rubric)
		inRange := func(x float64) bool { return !math.IsNaN(x) && x >= 0 && x <= 1 }

		if !inRange(a) || !inRange(b) {
			if !errors.Is(err, domain.ErrSchema) {
				t.Fatalf("expected ErrSchema for a=%v b=%v, got %v", a, b, err)
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if agg.Overall < -1e-9 || agg.Overall > 1+1e-9 {
			t.Errorf("overall %v outside [0,1]", agg.Overall)
		}
		if (a < 0.8 || b < 0.8) && agg.Passed() {
			t.Errorf("hard gate violated: a=%v b=%v status=%v", a, b, agg.Status)
		}
	})
}
