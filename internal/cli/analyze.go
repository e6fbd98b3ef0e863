package cli

import (
	"fmt"

	"recruitagent/internal/common"

	"github.com/spf13/cobra"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Score a resume against a job description",
	Long: `Analyze a resume against a job description. The report includes an
ATS score out of 100, the matched skills with ratings, missing skills,
strengths, weaknesses and a Selected or Rejected recommendation.`,
	Args:    cobra.NoArgs,
	PreRunE: outputFormatPreRun(&analyzeConfig),
	RunE:    runAnalyze,
}

var (
	analyzeConfig common.CommandConfig
	analyzeInputs common.CommandInputs
)

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeInputs.ResumeFile, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	analyzeCmd.Flags().StringVarP(&analyzeInputs.JobFile, "job", "j", "", "Job description text file")
	_ = analyzeCmd.MarkFlagRequired("resume")
	_ = analyzeCmd.MarkFlagRequired("job")
	addOutputFlags(analyzeCmd, &analyzeConfig)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	rec, runner, err := newCommandRunner(cmd)
	if err != nil {
		return err
	}
	defer closeRecruiter(cmd, rec)

	if err := common.RunAICommand(cmd.Context(), runner, analyzeConfig, analyzeInputs, "analysis", rec.Analyze); err != nil {
		return fmt.Errorf("failed to analyze resume: %w", err)
	}
	runner.Logger.Info("Resume analysis completed successfully")
	return nil
}
