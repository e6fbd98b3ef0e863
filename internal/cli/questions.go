package cli

import (
	"context"
	"fmt"

	"recruitagent/internal/common"
	"recruitagent/internal/session"
	"recruitagent/internal/types"

	"github.com/spf13/cobra"
)

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Generate interview questions for a resume and job",
	Long: `Generate interview questions tailored to the candidate's resume and the
job description. Choose question types (Basic, Technical, Coding), a
difficulty (Easy, Medium, Hard) and how many questions to generate (1-10).`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if err := outputFormatPreRun(&questionsConfig)(cmd, args); err != nil {
			return err
		}
		_, err := questionFlags.options()
		return err
	},
	RunE: runQuestions,
}

var (
	questionsConfig common.CommandConfig
	questionsInputs common.CommandInputs
	questionFlags   questionOptionFlags
)

// questionOptionFlags holds the raw question flags until they are parsed.
type questionOptionFlags struct {
	types      []string
	difficulty string
	count      int
}

func (f questionOptionFlags) options() (types.QuestionOptions, error) {
	var opts types.QuestionOptions
	questionTypes, err := types.ParseQuestionTypes(f.types)
	if err != nil {
		return opts, err
	}
	opts.Types = questionTypes
	if f.difficulty != "" {
		if opts.Difficulty, err = types.ParseDifficulty(f.difficulty); err != nil {
			return opts, err
		}
	}
	opts.Count = f.count

	opts = opts.WithDefaults()
	return opts, opts.Validate()
}

func init() {
	questionsCmd.Flags().StringVarP(&questionsInputs.ResumeFile, "resume", "r", "", "Resume file (PDF, DOCX or text)")
	questionsCmd.Flags().StringVarP(&questionsInputs.JobFile, "job", "j", "", "Job description text file")
	_ = questionsCmd.MarkFlagRequired("resume")
	_ = questionsCmd.MarkFlagRequired("job")

	questionsCmd.Flags().StringSliceVar(&questionFlags.types, "type", nil, "Question types: Basic, Technical, Coding (default: all)")
	questionsCmd.Flags().StringVar(&questionFlags.difficulty, "difficulty", "", "Difficulty: Easy, Medium or Hard (default: Medium)")
	questionsCmd.Flags().IntVar(&questionFlags.count, "count", types.DefaultQuestions,
		fmt.Sprintf("Number of questions (%d-%d)", types.MinQuestions, types.MaxQuestions))
	addOutputFlags(questionsCmd, &questionsConfig)

	_ = questionsCmd.RegisterFlagCompletionFunc("type", cobra.FixedCompletions(
		[]string{"Basic", "Technical", "Coding"}, cobra.ShellCompDirectiveNoFileComp))
	_ = questionsCmd.RegisterFlagCompletionFunc("difficulty", cobra.FixedCompletions(
		[]string{"Easy", "Medium", "Hard"}, cobra.ShellCompDirectiveNoFileComp))
}

func runQuestions(cmd *cobra.Command, args []string) error {
	opts, err := questionFlags.options()
	if err != nil {
		return err
	}

	rec, runner, err := newCommandRunner(cmd)
	if err != nil {
		return err
	}
	defer closeRecruiter(cmd, rec)

	generate := func(ctx context.Context, sess *session.Session) (*types.QuestionsOutput, error) {
		return rec.GenerateQuestions(ctx, sess, opts)
	}
	if err := common.RunAICommand(cmd.Context(), runner, questionsConfig, questionsInputs, "question generation", generate); err != nil {
		return fmt.Errorf("failed to generate interview questions: %w", err)
	}
	runner.Logger.Info("Interview questions generated successfully",
		"types", opts.TypeNames(), "difficulty", opts.Difficulty, "count", opts.Count)
	return nil
}
