package domain

import "time"

type SessionStatus string

const (
	SessionAccepted  SessionStatus = "accepted"
	SessionExhausted SessionStatus = "exhausted"
	SessionError     SessionStatus = "error"
)

func (s SessionStatus) String() string { return string(s) }

// Attempt - одна пара кандидат/вердикт. Verdict nil, если оценка не дошла до конца.
type Attempt struct {
	Index     int
	Candidate *Lesson
	Verdict   *Verdict
}

// SessionResult - итог сессии.
// accepted: FinalArtifact + FinalVerdict; exhausted: History;
// error: AttemptIndex, ErrorKind, Message и частичная History для диагностики.
type SessionResult struct {
	ID            string
	Status        SessionStatus
	AttemptsUsed  int
	FinalArtifact *Lesson
	FinalVerdict  *Verdict
	History       []Attempt

	AttemptIndex int
	ErrorKind    ErrorKind
	Message      string

	Duration time.Duration
}

func (r *SessionResult) Accepted() bool { return r != nil && r.Status == SessionAccepted }

// BestAttempt - попытка с максимальным общим баллом (при равенстве - более ранняя).
// Пригодится вызывающему, если сессия исчерпана.
func (r *SessionResult) BestAttempt() (Attempt, bool) {
	var best Attempt
	found := false
	for _, a := range r.History {
		if a.Verdict == nil {
			continue
		}
		if !found || a.Verdict.Overall > best.Verdict.Overall {
			best = a
			found = true
		}
	}
	return best, found
}

// Trajectory - общий балл по попыткам, по порядку
func (r *SessionResult) Trajectory() []float64 {
	out := make([]float64, 0, len(r.History))
	for _, a := range r.History {
		if a.Verdict != nil {
			out = append(out, a.Verdict.Overall)
		}
	}
	return out
}

// Improving - баллы не убывали от попытки к попытке
func (r *SessionResult) Improving() bool {
	t := r.Trajectory()
	for i := 1; i < len(t); i++ {
		if t[i] < t[i-1] {
			return false
		}
	}
	return true
}

// SessionRecord - то, что сохраняется после сессии (вне ядра)
type SessionRecord struct {
	ID           string
	RequesterID  int64
	Topic        string
	PolicyType   PolicyType
	Status       SessionStatus
	AttemptsUsed int
	Overall      *float64
	FinalTitle   string
	FinalContent string
	ErrorKind    ErrorKind
	Message      string
	CreatedAt    time.Time
}

// NewSessionRecord собирает запись из запроса и результата
func NewSessionRecord(req LessonRequest, res *SessionResult) *SessionRecord {
	rec := &SessionRecord{
		ID:           res.ID,
		RequesterID:  req.RequesterID,
		Topic:        req.Topic,
		PolicyType:   req.Policy.Type,
		Status:       res.Status,
		AttemptsUsed: res.AttemptsUsed,
		ErrorKind:    res.ErrorKind,
		Message:      res.Message,
		CreatedAt:    time.Now(),
	}

	switch {
	case res.FinalVerdict != nil:
		overall := res.FinalVerdict.Rounded()
		rec.Overall = &overall
	default:
		if best, ok := res.BestAttempt(); ok {
			overall := best.Verdict.Rounded()
			rec.Overall = &overall
		}
	}

	if res.FinalArtifact != nil {
		rec.FinalTitle = res.FinalArtifact.Title
		rec.FinalContent = res.FinalArtifact.Content
	}
	return rec
}
