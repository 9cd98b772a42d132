// Package feedback сводит претензии критика в короткий бриф для автора.
package feedback

import (
	"fmt"
	"sort"

	"github.com/kitbuilder587/lesson-gate/internal/domain"
)

// Collector привязан к активной рубрике: претензии к неизвестным измерениям отклоняются.
type Collector struct {
	rubric domain.Rubric
}

func NewCollector(rubric domain.Rubric) *Collector {
	return &Collector{rubric: rubric.Clone()}
}

// Validate проверяет, что каждая претензия ссылается на измерение рубрики
// и имеет известную severity.
func (c *Collector) Validate(issues []domain.Issue) error {
	for i, is := range issues {
		if !c.rubric.Has(is.Dimension) {
			return fmt.Errorf("%w: issue %d references unknown dimension %q", domain.ErrValidation, i, is.Dimension)
		}
		if !is.Severity.IsValid() {
			return fmt.Errorf("%w: issue %d has unknown severity %q", domain.ErrValidation, i, is.Severity)
		}
	}
	return nil
}

// BuildBrief сортирует претензии по severity (стабильно) и обрезает до maxItems.
// Входной срез не меняется.
func (c *Collector) BuildBrief(issues []domain.Issue, maxItems int) (domain.RevisionBrief, error) {
	if maxItems < 1 {
		return domain.RevisionBrief{}, fmt.Errorf("%w: %w", domain.ErrConfiguration, domain.ErrInvalidBriefSize)
	}
	if err := c.Validate(issues); err != nil {
		return domain.RevisionBrief{}, err
	}

	sorted := make([]domain.Issue, len(issues))
	copy(sorted, issues)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Severity.Rank() < sorted[j].Severity.Rank()
	})

	dropped := 0
	if len(sorted) > maxItems {
		dropped = len(sorted) - maxItems
		sorted = sorted[:maxItems]
	}

	return domain.RevisionBrief{Items: sorted, Dropped: dropped}, nil
}
