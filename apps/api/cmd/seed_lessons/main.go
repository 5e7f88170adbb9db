package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"pylearn/libs/curriculum"
	"pylearn/libs/lessons"
)

var (
	headline = color.New(color.FgCyan, color.Bold)
	success  = color.New(color.FgGreen)
	failure  = color.New(color.FgRed, color.Bold)
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := newRootCmd(logger).ExecuteContext(ctx); err != nil {
		failure.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(logger *slog.Logger) *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "seed-lessons",
		Short: "Upsert the Python curriculum into the lessons collection",
		Long: `Writes every curriculum lesson to the "lessons" collection, one document
per lesson id. Existing documents with the same id are overwritten; other
documents are left alone. Credentials come from FIREBASE_CREDENTIALS_JSON
when set, otherwise from the credential file.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), v, cmd.OutOrStdout(), logger)
		},
	}

	flags := cmd.Flags()
	flags.String("credentials-file", lessons.DefaultCredentialsFile, "service account file, used when "+lessons.CredentialsJSONEnv+" is unset")
	flags.String("project-id", "", "Firebase project id (defaults to the one in the credentials)")
	flags.String("curriculum", "", "YAML curriculum file to seed instead of the built-in one")

	_ = v.BindPFlag("credentials_file", flags.Lookup("credentials-file"))
	_ = v.BindPFlag("project_id", flags.Lookup("project-id"))
	_ = v.BindPFlag("curriculum", flags.Lookup("curriculum"))
	_ = v.BindEnv("credentials_json", lessons.CredentialsJSONEnv)
	_ = v.BindEnv("credentials_file", lessons.CredentialsFileEnv)
	_ = v.BindEnv("project_id", lessons.ProjectIDEnv)
	_ = v.BindEnv("curriculum", "SEED_CURRICULUM_FILE")

	return cmd
}

func run(ctx context.Context, v *viper.Viper, out io.Writer, logger *slog.Logger) error {
	all, err := loadCurriculum(v.GetString("curriculum"))
	if err != nil {
		return err
	}

	conn := lessons.NewConnector(lessons.Credentials{
		JSON:      v.GetString("credentials_json"),
		File:      v.GetString("credentials_file"),
		ProjectID: v.GetString("project_id"),
	}, logger)
	store, err := conn.Store(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close firestore client", "err", err)
		}
	}()

	return seedAll(ctx, store, all, out, logger)
}

func loadCurriculum(path string) ([]lessons.Lesson, error) {
	if path == "" {
		return curriculum.Load()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curriculum: %w", err)
	}
	defer f.Close()
	return curriculum.Parse(f)
}

func seedAll(ctx context.Context, store lessons.Store, all []lessons.Lesson, out io.Writer, logger *slog.Logger) error {
	headline.Fprintf(out, "Seeding %d lessons into %q...\n", len(all), lessons.CollectionName)

	report, err := lessons.Seed(ctx, store, all, logger)

	written := make(map[string]bool, len(report.Written))
	for _, id := range report.Written {
		written[id] = true
	}
	for _, lesson := range all {
		switch {
		case written[lesson.ID]:
			success.Fprintf(out, "  Created: %s\n", lesson.Title)
		case report.Failed[lesson.ID] != nil:
			failure.Fprintf(out, "  Failed:  %s (%v)\n", lesson.Title, report.Failed[lesson.ID])
		}
	}

	if err != nil {
		return err
	}
	headline.Fprintf(out, "\nSuccess! %d lessons are now live in your database.\n", len(report.Written))
	return nil
}
