package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kitbuilder587/lesson-gate/internal/config"
	"github.com/kitbuilder587/lesson-gate/internal/domain"
	"github.com/kitbuilder587/lesson-gate/internal/service"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type generateOptions struct {
	policy     string
	level      string
	audience   string
	objectives []string
	quiet      bool
}

func newGenerateCommand() *cobra.Command {
	opts := &generateOptions{}

	cmd := &cobra.Command{
		Use:   "generate <topic> [topic...]",
		Short: "Generate lessons for one or more topics and print them",
		Long: `Runs a revision session per topic, in parallel, and prints each outcome.
Accepted lessons are printed in full, exhausted ones with their best draft.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.policy, "policy", "p", "", "revision policy: quick, standard or thorough (default from DEFAULT_POLICY)")
	cmd.Flags().StringVarP(&opts.level, "level", "l", "", "learner level: beginner, intermediate or advanced")
	cmd.Flags().StringVarP(&opts.audience, "audience", "a", "", "target audience")
	cmd.Flags().StringArrayVarP(&opts.objectives, "objective", "o", nil, "learning objective, repeatable")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the summary line per topic")
	return cmd
}

func runGenerate(out io.Writer, topics []string, opts *generateOptions) error {
	cfg, err := config.LoadCore()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := newApp(ctx, cfg, logger, nil)
	if err != nil {
		return err
	}
	defer a.close()

	reqs, err := buildRequests(topics, opts, a)
	if err != nil {
		return err
	}

	// при отмене items все равно содержат то, что успело завершиться
	items, err := a.lessons.GenerateBatch(ctx, reqs)
	if items == nil {
		return err
	}

	failed := 0
	for _, item := range items {
		printItem(out, item, opts.quiet)
		if item.Err != nil {
			failed++
		}
	}
	if err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d sessions failed", failed, len(items))
	}
	return nil
}

// buildRequests: пустая политика в запросе - сервис подставит политику по умолчанию
func buildRequests(topics []string, opts *generateOptions, a *app) ([]domain.LessonRequest, error) {
	var policy domain.Policy
	if opts.policy != "" {
		p, ok := a.policies[domain.PolicyType(opts.policy)]
		if !ok {
			return nil, fmt.Errorf("%w: %w: %q", domain.ErrConfiguration, domain.ErrInvalidPolicyType, opts.policy)
		}
		policy = p
	}

	reqs := make([]domain.LessonRequest, 0, len(topics))
	for _, topic := range topics {
		reqs = append(reqs, domain.LessonRequest{
			Topic:      topic,
			Audience:   opts.audience,
			Level:      domain.Level(opts.level),
			Objectives: slices.Clone(opts.objectives),
			Policy:     policy,
		})
	}
	return reqs, nil
}

func printItem(out io.Writer, item service.BatchItem, quiet bool) {
	res := item.Result
	topic := bold(item.Request.Topic)

	switch {
	case res == nil:
		fmt.Fprintf(out, "%s %s: %v\n", red("✗ error"), topic, item.Err)
		return

	case res.Status == domain.SessionAccepted:
		fmt.Fprintf(out, "%s %s: score %.2f, attempts %d\n",
			green("✓ accepted"), topic, res.FinalVerdict.Rounded(), res.AttemptsUsed)
		if !quiet {
			printLesson(out, res.FinalArtifact)
		}

	case res.Status == domain.SessionExhausted:
		fmt.Fprintf(out, "%s %s: attempts %d, trajectory %s\n",
			yellow("◐ exhausted"), topic, res.AttemptsUsed, formatTrajectory(res.Trajectory()))
		if best, ok := res.BestAttempt(); ok {
			if len(best.Verdict.FailedDimensions) > 0 {
				fmt.Fprintf(out, "  failed: %s\n", strings.Join(best.Verdict.FailedDimensions, ", "))
			}
			if !quiet {
				printLesson(out, best.Candidate)
			}
		}

	default:
		fmt.Fprintf(out, "%s %s: attempt %d, %s: %s\n",
			red("✗ error"), topic, res.AttemptIndex, res.ErrorKind, res.Message)
	}
}

func printLesson(out io.Writer, l *domain.Lesson) {
	if l == nil {
		return
	}
	fmt.Fprintln(out)
	if l.Title != "" {
		fmt.Fprintf(out, "# %s\n\n", l.Title)
	}
	fmt.Fprintln(out, strings.TrimSpace(l.Content))
	fmt.Fprintln(out)
}

func formatTrajectory(scores []float64) string {
	parts := make([]string, len(scores))
	for i, s := range scores {
		parts[i] = fmt.Sprintf("%.2f", domain.RoundScore(s))
	}
	return strings.Join(parts, " → ")
}
