package domain

import "math"

type Status string

const (
	StatusPass          Status = "pass"
	StatusNeedsRevision Status = "needs_revision"
)

func (s Status) String() string { return string(s) }

type DimensionScore struct {
	Dimension string
	Score     float64
}

// RawVerdict - то, что вернул критик. Overall и Status здесь только рекомендательные.
type RawVerdict struct {
	Scores          map[string]float64
	Issues          []Issue
	ReportedOverall *float64
	ReportedStatus  Status
}

// Aggregate - результат пересчета оценок по рубрике
type Aggregate struct {
	Overall          float64
	Status           Status
	FailedDimensions []string
}

// Rounded - общий балл с двумя знаками, только для отчетов
func (a Aggregate) Rounded() float64 {
	return RoundScore(a.Overall)
}

func (a Aggregate) Passed() bool { return a.Status == StatusPass }

// Verdict - итог оценки одного кандидата.
// Overall/Status всегда пересчитаны агрегатором, значения критика лежат в Advisory.
type Verdict struct {
	Scores   []DimensionScore
	Aggregate
	Issues   []Issue
	Advisory Advisory
}

type Advisory struct {
	Overall *float64
	Status  Status
}

// Disagrees - критик сам себе противоречит (его статус не совпал с пересчитанным)
func (v Verdict) Disagrees() bool {
	return v.Advisory.Status != "" && v.Advisory.Status != v.Status
}

func (v Verdict) Score(dimension string) (float64, bool) {
	for _, s := range v.Scores {
		if s.Dimension == dimension {
			return s.Score, true
		}
	}
	return 0, false
}

func RoundScore(x float64) float64 {
	return math.Round(x*100) / 100
}
