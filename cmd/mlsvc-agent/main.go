package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nnstreamer/ml-service-core/pkg/version"
)

var rootCmd = &cobra.Command{
	Use:     "mlsvc-agent",
	Short:   "Run a machine-learning service handle",
	Long:    "mlsvc-agent hosts one Service handle (extension, hosted pipeline, or offloading) per invocation.",
	Version: fmt.Sprintf("gitVersion=%s, gitCommit=%s", version.GitVersion, version.GitCommit),
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(CreateAgentCommand(NewExtensionAgent()))
	rootCmd.AddCommand(CreateAgentCommand(NewOffloadingAgent()))
}
