package cli

import (
	"context"
	"fmt"

	"recruitagent/internal/common"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask",
	Short: "Ask a question about a resume",
	Long: `Ask a free-form question about a resume. The answer is based only on
the resume content.`,
	Args:    cobra.NoArgs,
	PreRunE: outputFormatPreRun(&askConfig),
	RunE:    runAsk,
}

var (
	askConfig   common.CommandConfig
	askInputs   common.CommandInputs
	askQuestion string
)

func init() {
	askCmd.Flags().StringVarP(&askInputs.ResumeFile, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	askCmd.Flags().StringVarP(&askQuestion, "question", "q", "", "Question about the resume")
	_ = askCmd.MarkFlagRequired("resume")
	_ = askCmd.MarkFlagRequired("question")
	addOutputFlags(askCmd, &askConfig)
}

func runAsk(cmd *cobra.Command, args []string) error {
	rec, runner, err := newCommandRunner(cmd)
	if err != nil {
		return err
	}
	defer closeRecruiter(cmd, rec)

	answer := func(ctx context.Context, sess *session.Session) (*types.AnswerOutput, error) {
		return rec.Answer(ctx, sess, askQuestion)
	}
	if err := common.RunAICommand(cmd.Context(), runner, askConfig, askInputs, "resume Q&A", answer); err != nil {
		return fmt.Errorf("failed to answer question: %w", err)
	}
	return nil
}
