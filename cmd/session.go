package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/session"
)

const (
	PromptProfileFit   = "Evaluate profile fit"
	PromptKeywordMatch = "Check keyword match"
	PromptSelection    = "Score categories and selection percentage"
	PromptQA           = "Ask a question about the resume"
	PromptProjects     = "Select GitHub projects"
	PromptShowReport   = "Show report"
	PromptExport       = "Export reports"
	PromptExit         = "Exit"
)

var errExit = errors.New("exit requested")

var sessionPrompt = promptui.Select{
	Label: "Choose an action",
	Items: []string{PromptProfileFit, PromptKeywordMatch, PromptSelection, PromptQA, PromptProjects, PromptShowReport, PromptExport, PromptExit},
	Size:  8,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Run analyses interactively on one resume and job description",
	Run: func(cmd *cobra.Command, _ []string) {
		interactive(cmd)
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)

	addInputFlags(sessionCmd)
}

func interactive(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := bootstrap()

	svc := newService(ctx, config, logger)
	sess := openSession(cmd, svc, config, logger)

	for {
		_, action, err := sessionPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(ctx, action, svc, sess, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			// Failed actions keep the session alive; the report stays as it was.
			logger.Warn("action failed", zap.String("action", action), zap.Error(err))
		}
	}
}

func handleAction(ctx context.Context, action string, svc *app.Service, sess *session.Session, logger *zap.Logger) error {
	switch action {
	case PromptProfileFit:
		res, err := svc.ProfileFit(ctx, sess)
		if err != nil {
			return err
		}
		printSection("Profile Fit Evaluation", res.Text)
	case PromptKeywordMatch:
		res, err := svc.KeywordMatch(ctx, sess)
		if err != nil {
			return err
		}
		printSection("Keyword Match Results", res.Text)
	case PromptSelection:
		res, err := svc.Selection(ctx, sess)
		if err != nil {
			return err
		}
		printSelection(res.Categories.Scores, res.Percentage, res.Positive, res.Negative)
	case PromptQA:
		question, err := (&promptui.Prompt{Label: "Question"}).Run()
		if err != nil {
			return err
		}
		res, err := svc.QA(ctx, sess, question)
		if err != nil {
			return err
		}
		printSection("Q&A: "+res.Question, res.Text)
	case PromptProjects:
		return selectProjects(ctx, svc, sess, logger)
	case PromptShowReport:
		data, err := svc.ReportJSON(sess)
		if err != nil {
			return err
		}
		printSection("Report", string(data))
	case PromptExport:
		dir, err := (&promptui.Prompt{Label: "Output directory", Default: "."}).Run()
		if err != nil {
			return err
		}
		return writeReports(svc, sess, strings.TrimSpace(dir), logger)
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
	return nil
}

func selectProjects(ctx context.Context, svc *app.Service, sess *session.Session, logger *zap.Logger) error {
	profile, err := (&promptui.Prompt{
		Label: "GitHub username or profile URL",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("username is required")
			}
			return nil
		},
	}).Run()
	if err != nil {
		return err
	}

	counts := make([]string, 0, app.MaxProjects-app.MinProjects+1)
	for n := app.MinProjects; n <= app.MaxProjects; n++ {
		counts = append(counts, strconv.Itoa(n))
	}
	_, picked, err := (&promptui.Select{
		Label:     "How many projects?",
		Items:     counts,
		CursorPos: app.DefaultProjects - app.MinProjects,
	}).Run()
	if err != nil {
		return err
	}
	maxProjects, _ := strconv.Atoi(picked)

	res, err := svc.Projects(ctx, sess, profile, maxProjects)
	if err != nil {
		return err
	}
	if len(res.Projects) == 0 {
		logger.Info("no repositories left after filters", zap.String("username", res.Username))
		return nil
	}
	printSection("Selected Projects", res.Digest)

	_, save, err := (&promptui.Select{Label: "Save the digest to a file?", Items: []string{"No", "Yes"}}).Run()
	if err != nil || save != "Yes" {
		return err
	}
	filename := res.Username + "_projects.txt"
	if err := os.WriteFile(filename, []byte(res.Digest), 0o644); err != nil {
		return fmt.Errorf("writing project digest: %w", err)
	}
	logger.Info("project digest written", zap.String("filename", filename))
	return nil
}
