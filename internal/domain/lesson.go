package domain

import (
	"strings"
	"unicode/utf8"
)

const (
	MaxTopicLength  = 500
	MaxObjectives   = 10
	maxAudienceSize = 200
)

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelAdvanced     Level = "advanced"
)

func (l Level) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

func (l Level) String() string { return string(l) }

// LessonRequest - задание на генерацию урока (цель сессии)
type LessonRequest struct {
	RequesterID int64
	Topic       string
	Audience    string
	Level       Level
	Objectives  []string
	Policy      Policy
}

func (r *LessonRequest) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return ErrEmptyTopic
	}
	if utf8.RuneCountInString(r.Topic) > MaxTopicLength {
		return ErrTopicTooLong
	}
	if r.Level != "" && !r.Level.IsValid() {
		return ErrInvalidLevel
	}
	if err := r.Policy.Validate(); err != nil {
		return err
	}
	return nil
}

// Sanitize чистит пробелы и подставляет уровень по умолчанию.
// Длинную тему не обрезает: её отклонит Validate.
// Objectives копируются, слайс вызывающего не меняется.
func (r *LessonRequest) Sanitize() {
	r.Topic = strings.Join(strings.Fields(r.Topic), " ")
	r.Audience = truncateRunes(strings.TrimSpace(r.Audience), maxAudienceSize)
	if r.Level == "" {
		r.Level = LevelBeginner
	}

	objectives := make([]string, 0, min(len(r.Objectives), MaxObjectives))
	for _, o := range r.Objectives {
		if len(objectives) == MaxObjectives {
			break
		}
		if o = strings.TrimSpace(o); o != "" {
			objectives = append(objectives, o)
		}
	}
	r.Objectives = objectives
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// Lesson - кандидат, который производит автор
type Lesson struct {
	Title   string
	Content string
}

func (l *Lesson) Validate() error {
	if l == nil || strings.TrimSpace(l.Content) == "" {
		return ErrEmptyLesson
	}
	return nil
}

// AuthorRequest - вход автора на одну попытку.
// Brief пустой на первой попытке, Previous - кандидат предыдущей попытки.
type AuthorRequest struct {
	Lesson   LessonRequest
	Attempt  int
	Brief    RevisionBrief
	Previous *Lesson
}
