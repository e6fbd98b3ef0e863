package cli

import (
	"fmt"

	"recruitagent/internal/common"

	"github.com/spf13/cobra"
)

var improveCmd = &cobra.Command{
	Use:   "improve",
	Short: "Rewrite a resume for a job description",
	Long: `Improve a resume for a specific job description. The rewritten resume
is saved to the configured file (improved_resume.txt by default) unless
--output names another file or --stdout is set.`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if improveConfig.OutputFormat == "" {
			improveConfig.OutputFormat = "text"
		}
		if improveToStdout {
			improveConfig.OutputFile = ""
		} else if improveConfig.OutputFile == "" {
			improveConfig.OutputFile = cfg.App.ImprovedResumeOut
		}
		return common.ValidateOutputFormat(improveConfig.OutputFormat, cfg.App.SupportedFormats)
	},
	RunE: runImprove,
}

var (
	improveConfig   common.CommandConfig
	improveInputs   common.CommandInputs
	improveToStdout bool
)

func init() {
	improveCmd.Flags().StringVarP(&improveInputs.ResumeFile, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	improveCmd.Flags().StringVarP(&improveInputs.JobFile, "job", "j", "", "Job description text file")
	_ = improveCmd.MarkFlagRequired("resume")
	_ = improveCmd.MarkFlagRequired("job")
	improveCmd.Flags().BoolVar(&improveToStdout, "stdout", false, "Print the improved resume instead of writing a file")
	addOutputFlags(improveCmd, &improveConfig)
	improveCmd.MarkFlagsMutuallyExclusive("stdout", "output")
}

func runImprove(cmd *cobra.Command, args []string) error {
	rec, runner, err := newCommandRunner(cmd)
	if err != nil {
		return err
	}
	defer closeRecruiter(cmd, rec)

	if err := common.RunAICommand(cmd.Context(), runner, improveConfig, improveInputs, "resume improvement", rec.Improve); err != nil {
		return fmt.Errorf("failed to improve resume: %w", err)
	}
	if improveConfig.OutputFile != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Improved resume saved to %s\n", improveConfig.OutputFile)
	}
	return nil
}
