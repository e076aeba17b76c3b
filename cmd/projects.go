package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/resumematch/internal/app"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Pick the GitHub repositories most relevant to the job and describe them",
	Run: func(cmd *cobra.Command, _ []string) {
		projects(cmd)
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)

	addInputFlags(projectsCmd)
	projectsCmd.Flags().StringP("github", "g", "", "GitHub username or profile URL")
	projectsCmd.Flags().IntP("max", "n", app.DefaultProjects, "number of projects to select (3-8)")
	projectsCmd.Flags().StringP("out", "o", "", "file for the project digest (default stdout)")
	projectsCmd.MarkFlagRequired("github")
}

func projects(cmd *cobra.Command) {
	ctx := context.Background()
	logger, config := bootstrap()

	svc := newService(ctx, config, logger)
	sess := openSession(cmd, svc, config, logger)

	profile, _ := cmd.Flags().GetString("github")
	maxProjects, _ := cmd.Flags().GetInt("max")

	res, err := svc.Projects(ctx, sess, profile, maxProjects)
	if err != nil {
		logger.Fatal("selecting projects", zap.Error(err))
	}

	if len(res.Projects) == 0 {
		logger.Info("exiting", zap.String("reason", "no repositories left after filters"))
		return
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		printSection("Selected Projects", res.Digest)
		return
	}
	if err := os.WriteFile(out, []byte(res.Digest), 0o644); err != nil {
		logger.Fatal("writing project digest", zap.Error(err))
	}
	logger.Info("project digest written", zap.String("filename", out), zap.Int("count", len(res.Projects)))
}
