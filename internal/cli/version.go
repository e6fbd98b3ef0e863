package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Version information - can be set during build with ldflags
	Version   = "1.0.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  "Print version information for recruitagent",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("Recruitment Agent v%s\n", Version)
		fmt.Println("Smart Resume Analysis & Interview Preparation System")
		fmt.Printf("Git commit: %s\n", GitCommit)
		fmt.Printf("Build date: %s\n", BuildDate)
	},
}
