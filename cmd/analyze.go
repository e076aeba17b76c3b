package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/app"
	"github.com/spigell/resumematch/internal/session"
)

const (
	reportJSONFile = "resume_analysis_report.json"
	reportPDFFile  = "resume_analysis_report.pdf"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description and export the report",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	addInputFlags(analyzeCmd)
	analyzeCmd.Flags().Bool("profile-fit", false, "run the profile fit evaluation")
	analyzeCmd.Flags().Bool("keyword-match", false, "run the keyword match analysis")
	analyzeCmd.Flags().Bool("selection", false, "run the category scores and selection percentage")
	analyzeCmd.Flags().StringP("question", "q", "", "ask a question about the resume")
	analyzeCmd.Flags().StringP("out", "o", ".", "directory for the JSON and PDF reports")
}

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().String("job", "", "file with the job description")
	cmd.Flags().String("resume", "", "resume file (pdf, docx or plain text)")
	cmd.Flags().StringP("model", "m", "", "model identifier (see the models command)")
	cmd.MarkFlagRequired("job")
	cmd.MarkFlagRequired("resume")
}

// openSession reads the inputs named by the command flags.
func openSession(cmd *cobra.Command, svc *app.Service, config *Config, logger *zap.Logger) *session.Session {
	jobFile, _ := cmd.Flags().GetString("job")
	resumeFile, _ := cmd.Flags().GetString("resume")
	model, _ := cmd.Flags().GetString("model")

	if err := checkModel(config, model); err != nil {
		logger.Fatal("checking --model", zap.Error(err))
	}

	job, text, err := readInputs(jobFile, resumeFile)
	if err != nil {
		logger.Fatal("reading inputs", zap.Error(err))
	}

	sess, err := svc.NewSession(job, text, model)
	if err != nil {
		logger.Fatal("creating a session", zap.Error(err))
	}
	return sess
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := bootstrap()

	logger.Info("starting the resumematch analysis", zap.String("version", version))

	svc := newService(ctx, config, logger)
	sess := openSession(cmd, svc, config, logger)

	runFit, _ := cmd.Flags().GetBool("profile-fit")
	runKeywords, _ := cmd.Flags().GetBool("keyword-match")
	runSelection, _ := cmd.Flags().GetBool("selection")
	question, _ := cmd.Flags().GetString("question")
	if !runFit && !runKeywords && !runSelection && question == "" {
		runFit, runKeywords, runSelection = true, true, true
	}

	// A failed analysis is logged and its section left out of the report.
	if runFit {
		if res, err := svc.ProfileFit(ctx, sess); err == nil {
			printSection("Profile Fit Evaluation", res.Text)
		}
	}
	if runKeywords {
		if res, err := svc.KeywordMatch(ctx, sess); err == nil {
			printSection("Keyword Match Results", res.Text)
		}
	}
	if runSelection {
		if res, err := svc.Selection(ctx, sess); err == nil {
			printSelection(res.Categories.Scores, res.Percentage, res.Positive, res.Negative)
		}
	}
	if question != "" {
		if res, err := svc.QA(ctx, sess, question); err == nil {
			printSection("Q&A: "+res.Question, res.Text)
		}
	}

	out, _ := cmd.Flags().GetString("out")
	err := writeReports(svc, sess, out, logger)
	switch {
	case errors.Is(err, app.ErrInvalidArgument):
		logger.Warn("exiting", zap.String("reason", "no analysis succeeded; nothing to export"))
	case err != nil:
		logger.Fatal("writing reports", zap.Error(err))
	}
}

// writeReports stores both report formats in dir.
func writeReports(svc *app.Service, sess *session.Session, dir string, logger *zap.Logger) error {
	data, err := svc.ReportJSON(sess)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	jsonPath := filepath.Join(dir, reportJSONFile)
	if err := os.WriteFile(jsonPath, data, 0o644); err != nil {
		return fmt.Errorf("writing json report: %w", err)
	}

	pdf, _, err := svc.ReportPDF(sess)
	if pdf == nil {
		return fmt.Errorf("rendering pdf report: %w", err)
	}
	pdfPath := filepath.Join(dir, reportPDFFile)
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return fmt.Errorf("writing pdf report: %w", err)
	}

	logger.Info("reports written", zap.String("json", jsonPath), zap.String("pdf", pdfPath))
	return nil
}
