package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitbuilder587/lesson-gate/internal/cache/lru"
	"github.com/kitbuilder587/lesson-gate/internal/cache/memory"
	"github.com/kitbuilder587/lesson-gate/internal/config"
	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/service"
)

func init() {
	color.NoColor = true
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"bot", "generate", "rubric"}, names)
}

func TestGenerateCommand_RequiresTopic(t *testing.T) {
	root := newRootCommand()
	root.SetArgs([]string{"generate"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestBuildVerdictCache(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := buildVerdictCache(ctx, config.CacheConfig{Backend: config.CacheBackendLRU, MaxEntries: 10})
	require.NoError(t, err)
	assert.IsType(t, &lru.Cache[*domain.RawVerdict]{}, c)

	c, err = buildVerdictCache(ctx, config.CacheConfig{Backend: config.CacheBackendMemory, MaxEntries: 10})
	require.NoError(t, err)
	assert.IsType(t, &memory.Cache[*domain.RawVerdict]{}, c)
}

func TestBuildRequests(t *testing.T) {
	a := &app{policies: map[domain.PolicyType]domain.Policy{
		domain.PolicyQuick: domain.QuickPolicy(),
	}}

	t.Run("explicit policy", func(t *testing.T) {
		reqs, err := buildRequests([]string{"Fractions", "Photosynthesis"}, &generateOptions{
			policy:     "quick",
			level:      "advanced",
			objectives: []string{"add fractions"},
		}, a)
		require.NoError(t, err)
		require.Len(t, reqs, 2)
		assert.Equal(t, "Fractions", reqs[0].Topic)
		assert.Equal(t, "Photosynthesis", reqs[1].Topic)
		assert.Equal(t, domain.QuickPolicy(), reqs[1].Policy)
		assert.Equal(t, domain.LevelAdvanced, reqs[0].Level)
		assert.Equal(t, []string{"add fractions"}, reqs[0].Objectives)
	})

	t.Run("objectives are not shared", func(t *testing.T) {
		opts := &generateOptions{objectives: []string{"add fractions"}}
		reqs, err := buildRequests([]string{"Fractions", "Decimals"}, opts, a)
		require.NoError(t, err)

		reqs[0].Objectives[0] = "changed"
		assert.Equal(t, "add fractions", reqs[1].Objectives[0])
		assert.Equal(t, "add fractions", opts.objectives[0])
	})

	t.Run("default policy left zero", func(t *testing.T) {
		reqs, err := buildRequests([]string{"Fractions"}, &generateOptions{}, a)
		require.NoError(t, err)
		assert.True(t, reqs[0].Policy.IsZero())
	})

	t.Run("unknown policy", func(t *testing.T) {
		_, err := buildRequests([]string{"Fractions"}, &generateOptions{policy: "extreme"}, a)
		assert.ErrorIs(t, err, domain.ErrConfiguration)
		assert.ErrorIs(t, err, domain.ErrInvalidPolicyType)
	})
}

func TestPrintItem(t *testing.T) {
	accepted := &domain.Verdict{Aggregate: domain.Aggregate{Overall: 0.91, Status: domain.StatusPass}}
	failing := func(overall float64) *domain.Verdict {
		return &domain.Verdict{Aggregate: domain.Aggregate{
			Overall:          overall,
			Status:           domain.StatusNeedsRevision,
			FailedDimensions: []string{"clarity"},
		}}
	}

	tests := []struct {
		name     string
		item     service.BatchItem
		quiet    bool
		contains []string
		absent   []string
	}{
		{
			name: "accepted",
			item: service.BatchItem{
				Request: domain.LessonRequest{Topic: "Fractions"},
				Result: &domain.SessionResult{
					Status:        domain.SessionAccepted,
					AttemptsUsed:  2,
					FinalArtifact: &domain.Lesson{Title: "Fractions 101", Content: "Halves and quarters."},
					FinalVerdict:  accepted,
				},
			},
			contains: []string{"✓ accepted Fractions: score 0.91, attempts 2", "# Fractions 101", "Halves and quarters."},
		},
		{
			name:  "accepted quiet",
			quiet: true,
			item: service.BatchItem{
				Request: domain.LessonRequest{Topic: "Fractions"},
				Result: &domain.SessionResult{
					Status:        domain.SessionAccepted,
					AttemptsUsed:  1,
					FinalArtifact: &domain.Lesson{Content: "Halves and quarters."},
					FinalVerdict:  accepted,
				},
			},
			contains: []string{"✓ accepted"},
			absent:   []string{"Halves"},
		},
		{
			name: "exhausted shows best draft",
			item: service.BatchItem{
				Request: domain.LessonRequest{Topic: "Fractions"},
				Result: &domain.SessionResult{
					Status:       domain.SessionExhausted,
					AttemptsUsed: 2,
					History: []domain.Attempt{
						{Index: 1, Candidate: &domain.Lesson{Content: "first draft"}, Verdict: failing(0.6)},
						{Index: 2, Candidate: &domain.Lesson{Content: "second draft"}, Verdict: failing(0.5)},
					},
				},
			},
			contains: []string{"◐ exhausted", "trajectory 0.60 → 0.50", "failed: clarity", "first draft"},
			absent:   []string{"second draft"},
		},
		{
			name: "session error",
			item: service.BatchItem{
				Request: domain.LessonRequest{Topic: "Fractions"},
				Result: &domain.SessionResult{
					Status:       domain.SessionError,
					AttemptIndex: 3,
					ErrorKind:    domain.KindGeneration,
					Message:      "author timed out",
				},
				Err: domain.ErrGeneration,
			},
			contains: []string{"✗ error Fractions: attempt 3", "author timed out"},
		},
		{
			name: "rejected request",
			item: service.BatchItem{
				Request: domain.LessonRequest{Topic: ""},
				Err:     domain.ErrEmptyTopic,
			},
			contains: []string{"✗ error", domain.ErrEmptyTopic.Error()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			printItem(&buf, tt.item, tt.quiet)

			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestPrintRubric(t *testing.T) {
	gate := &config.GateConfig{
		Rubric:        domain.DefaultRubric(),
		DefaultPolicy: string(domain.PolicyQuick),
		MaxAttempts:   2,
	}

	var buf bytes.Buffer
	require.NoError(t, printRubric(&buf, gate))

	out := buf.String()
	for _, name := range gate.Rubric.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "* quick")
	// потолок MAX_ATTEMPTS срезает thorough
	assert.Regexp(t, `thorough\s+attempts 2`, out)
}
