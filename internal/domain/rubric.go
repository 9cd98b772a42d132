package domain

import (
	"fmt"
	"math"
)

// Dimension - одна ось качества урока
type Dimension struct {
	Name      string  `yaml:"name" validate:"required"`
	Weight    float64 `yaml:"weight" validate:"gte=0"`
	Threshold float64 `yaml:"threshold" validate:"gte=0,lte=1"`
}

// Rubric - набор измерений и общий порог.
// Загружается один раз при старте и дальше не меняется.
type Rubric struct {
	Dimensions       []Dimension `yaml:"dimensions" validate:"required,min=1,dive"`
	OverallThreshold float64     `yaml:"overall_threshold" validate:"gte=0,lte=1"`
}

const (
	DimAccuracy      = "accuracy"
	DimClarity       = "clarity"
	DimStructure     = "structure"
	DimEngagement    = "engagement"
	DimObjectives    = "objectives_alignment"
	DimLevelFit      = "level_appropriateness"
	DefaultThreshold = 0.7
	DefaultOverall   = 0.8
)

// DefaultRubric - шесть измерений для учебных материалов.
func DefaultRubric() Rubric {
	return Rubric{
		Dimensions: []Dimension{
			{Name: DimAccuracy, Weight: 0.25, Threshold: 0.8},
			{Name: DimClarity, Weight: 0.20, Threshold: DefaultThreshold},
			{Name: DimStructure, Weight: 0.15, Threshold: DefaultThreshold},
			{Name: DimEngagement, Weight: 0.10, Threshold: 0.6},
			{Name: DimObjectives, Weight: 0.20, Threshold: DefaultThreshold},
			{Name: DimLevelFit, Weight: 0.10, Threshold: DefaultThreshold},
		},
		OverallThreshold: DefaultOverall,
	}
}

// Validate возвращает ошибку, обернутую в ErrConfiguration.
func (r Rubric) Validate() error {
	if len(r.Dimensions) == 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrEmptyRubric)
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: rubric: %v", ErrConfiguration, err)
	}

	seen := make(map[string]bool, len(r.Dimensions))
	total := 0.0
	for _, d := range r.Dimensions {
		if seen[d.Name] {
			return fmt.Errorf("%w: %w: %q", ErrConfiguration, ErrDuplicateDimension, d.Name)
		}
		seen[d.Name] = true
		if math.IsInf(d.Weight, 0) {
			return fmt.Errorf("%w: dimension %q has infinite weight", ErrConfiguration, d.Name)
		}
		total += d.Weight
	}
	if total <= 0 {
		return fmt.Errorf("%w: %w", ErrConfiguration, ErrZeroTotalWeight)
	}
	return nil
}

// Has - есть ли измерение с таким именем
func (r Rubric) Has(name string) bool {
	_, ok := r.Lookup(name)
	return ok
}

func (r Rubric) Lookup(name string) (Dimension, bool) {
	for _, d := range r.Dimensions {
		if d.Name == name {
			return d, true
		}
	}
	return Dimension{}, false
}

func (r Rubric) Names() []string {
	names := make([]string, len(r.Dimensions))
	for i, d := range r.Dimensions {
		names[i] = d.Name
	}
	return names
}

// Clone отдает копию, чтобы вызывающий не мог поменять общий конфиг
func (r Rubric) Clone() Rubric {
	dims := make([]Dimension, len(r.Dimensions))
	copy(dims, r.Dimensions)
	return Rubric{Dimensions: dims, OverallThreshold: r.OverallThreshold}
}
