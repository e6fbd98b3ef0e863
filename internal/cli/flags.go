package cli

import (
	"recruitagent/internal/common"
	"recruitagent/internal/extract"
	"recruitagent/internal/observability"
	"recruitagent/internal/recruiter"

	"github.com/spf13/cobra"
)

// addOutputFlags registers -o and --format on cmd, with completion for the
// configured formats.
func addOutputFlags(cmd *cobra.Command, cmdConfig *common.CommandConfig) {
	cmd.Flags().StringVarP(&cmdConfig.OutputFile, "output", "o", "", "Output file path (default: stdout)")
	cmd.Flags().StringVar(&cmdConfig.OutputFormat, "format", "", "Output format: json, text, or markdown")

	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		cfg := getConfigFromContext(cmd.Context())
		return common.GetSupportedFormats(cfg.App.SupportedFormats), cobra.ShellCompDirectiveNoFileComp
	})
}

// outputFormatPreRun applies the configured default format and checks the
// chosen one is supported.
func outputFormatPreRun(cmdConfig *common.CommandConfig) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := getConfigFromContext(cmd.Context())
		if cmdConfig.OutputFormat == "" {
			cmdConfig.OutputFormat = cfg.App.DefaultFormat
		}
		return common.ValidateOutputFormat(cmdConfig.OutputFormat, cfg.App.SupportedFormats)
	}
}

// newCommandRunner builds the recruiter and the file runner for a one-shot
// command. The caller closes the recruiter.
func newCommandRunner(cmd *cobra.Command) (*recruiter.Service, *common.CommandRunner, error) {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	rec, err := recruiter.NewFromConfig(cfg, observability.NopMetrics(), logger)
	if err != nil {
		return nil, nil, err
	}
	files := common.NewFileProcessor(extract.New(cfg.App.TempDir, cfg.App.MaxUploadBytes), logger)
	return rec, common.NewCommandRunner(files, logger), nil
}

func closeRecruiter(cmd *cobra.Command, rec *recruiter.Service) {
	if err := rec.Close(); err != nil {
		getLoggerFromContext(cmd.Context()).LogError(err, "Failed to close AI services")
	}
}
