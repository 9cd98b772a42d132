// Package scoring пересчитывает оценки критика по рубрике.
// Вердикт критика никогда не принимается как есть: общий балл и статус
// всегда выводятся здесь из оценок по измерениям.
package scoring

import (
	"fmt"
	"math"
	"sort"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// Aggregate считает нормированное взвешенное среднее и статус.
// pass только если каждое измерение не ниже своего порога И общий балл
// не ниже rubric.OverallThreshold.
func Aggregate(scores map[string]float64, rubric domain.Rubric) (domain.Aggregate, error) {
	if err := checkSchema(scores, rubric); err != nil {
		return domain.Aggregate{}, err
	}

	// идем по рубрике, а не по map - результат не зависит от порядка обхода
	var weighted, totalWeight float64
	var failed []string
	for _, d := range rubric.Dimensions {
		s := scores[d.Name]
		weighted += s * d.Weight
		totalWeight += d.Weight
		if s < d.Threshold {
			failed = append(failed, d.Name)
		}
	}
	if totalWeight <= 0 {
		return domain.Aggregate{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, domain.ErrZeroTotalWeight)
	}

	overall := weighted / totalWeight
	status := domain.StatusPass
	if len(failed) > 0 || overall < rubric.OverallThreshold {
		status = domain.StatusNeedsRevision
	}

	return domain.Aggregate{
		Overall:          overall,
		Status:           status,
		FailedDimensions: failed,
	}, nil
}

func checkSchema(scores map[string]float64, rubric domain.Rubric) error {
	for _, d := range rubric.Dimensions {
		s, ok := scores[d.Name]
		if !ok {
			return fmt.Errorf("%w: missing score for dimension %q", domain.ErrSchema, d.Name)
		}
		if math.IsNaN(s) || s < 0 || s > 1 {
			return fmt.Errorf("%w: score %v for dimension %q is outside [0,1]", domain.ErrSchema, s, d.Name)
		}
	}

	if len(scores) != len(rubric.Dimensions) {
		extra := make([]string, 0)
		for name := range scores {
			if !rubric.Has(name) {
				extra = append(extra, name)
			}
		}
		sort.Strings(extra)
		return fmt.Errorf("%w: unconfigured dimensions %v", domain.ErrSchema, extra)
	}
	return nil
}

// BuildVerdict проверяет сырой вердикт критика и пересчитывает его.
// Рекомендательные overall/status критика переносятся в Advisory без изменений.
func BuildVerdict(raw *domain.RawVerdict, rubric domain.Rubric) (*domain.Verdict, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty verdict", domain.ErrSchema)
	}

	agg, err := Aggregate(raw.Scores, rubric)
	if err != nil {
		return nil, err
	}

	scores := make([]domain.DimensionScore, 0, len(rubric.Dimensions))
	for _, d := range rubric.Dimensions {
		scores = append(scores, domain.DimensionScore{Dimension: d.Name, Score: raw.Scores[d.Name]})
	}

	issues := make([]domain.Issue, len(raw.Issues))
	copy(issues, raw.Issues)

	return &domain.Verdict{
		Scores:    scores,
		Aggregate: agg,
		Issues:    issues,
		Advisory: domain.Advisory{
			Overall: raw.ReportedOverall,
			Status:  raw.ReportedStatus,
		},
	}, nil
}
