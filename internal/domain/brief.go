package domain

// RevisionBrief - упорядоченный список претензий для следующей попытки.
// Передается автору по значению и после попытки не хранится.
type RevisionBrief struct {
	SourceAttempt int // 0 для первой попытки
	Items         []Issue
	Dropped       int // сколько претензий отрезано лимитом
}

func (b RevisionBrief) IsEmpty() bool { return len(b.Items) == 0 }

func (b RevisionBrief) Len() int { return len(b.Items) }

// CountBySeverity - сколько пунктов каждой severity попало в бриф
func (b RevisionBrief) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int, 4)
	for _, it := range b.Items {
		counts[it.Severity]++
	}
	return counts
}
