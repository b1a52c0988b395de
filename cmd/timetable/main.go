package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/fixture"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/config"
)

var version = "dev"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "timetable",
		Short:         "Offline tools for the weekly school timetable",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newSolveCommand(), newValidateCommand(), newTokenCommand())
	return cmd
}

func newValidateCommand() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a YAML fixture and report every problem in it",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.Load(path)
			if err != nil {
				for _, e := range multierr.Errors(err) {
					fmt.Fprintln(cmd.ErrOrStderr(), "  - "+e.Error())
				}
				return fmt.Errorf("fixture is invalid")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d subjects, %d teachers, %d rooms, %d lessons\n",
				path, len(f.Subjects), len(f.Teachers), len(f.Rooms), len(f.Lessons))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "fixture file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newSolveCommand() *cobra.Command {
	var (
		path    string
		seed    int64
		budget  time.Duration
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Auto-schedule a YAML fixture and print the grid per cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := fixture.Load(path)
			if err != nil {
				return err
			}

			logger := zap.NewNop()
			if verbose {
				if logger, err = zap.NewDevelopment(); err != nil {
					return err
				}
				defer logger.Sync() //nolint:errcheck
			}

			cfg := config.SchedulerConfig{}
			if budget > 0 {
				cfg = config.SchedulerConfig{StrictBudget: budget, RelaxedBudget: budget, FinalBudget: budget / 2}
			}
			opts := []service.AutoSchedulerOption{service.WithSchedulerLogger(logger)}
			if cmd.Flags().Changed("seed") {
				opts = append(opts, service.WithSeed(seed))
			}
			result := service.NewAutoScheduler(service.DefaultStrategy(cfg), opts...).AutoSchedule(f, f.Lessons, f.Layout)

			out := cmd.OutOrStdout()
			for _, cohort := range f.Layout.Cohorts {
				fmt.Fprintln(out, renderCohort(f, result.Grid, cohort))
			}
			fmt.Fprintln(out, renderSummary(result))
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "file", "f", "", "fixture file")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed for reproducible runs")
	cmd.Flags().DurationVar(&budget, "budget", 0, "time budget per search pass (default 2s/2s/1s)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log solver passes")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTokenCommand() *cobra.Command {
	var (
		role   string
		userID string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign an access token with the configured JWT secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			auth := service.NewAuthService(nil, service.AuthConfig{
				AccessTokenSecret: cfg.JWT.Secret,
				AccessTokenExpiry: ttl,
				Issuer:            service.TokenIssuer,
			})
			token, expiresAt, err := auth.IssueToken(userID, models.UserRole(role), "", "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintln(cmd.ErrOrStderr(), mutedStyle.Render("expires "+expiresAt.Format(time.RFC3339)))
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", string(models.RoleAdmin), "token role")
	cmd.Flags().StringVar(&userID, "user", "operator", "token subject")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}
