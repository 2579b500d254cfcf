// cmd/assemblectl/main.go
package main

import (
	"fmt"
	"os"

	"docassembly-workers/internal/common/config"
	"docassembly-workers/internal/common/logger"

	"github.com/spf13/cobra"
)

type cliOptions struct {
	configPath string
	logLevel   string
	logRef     string
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	root := &cobra.Command{
		Use:   "assemblectl",
		Short: "Drive the document assembly engine from the command line",
		Long: `assemblectl runs the same calls the workers make against the
assembly engine: overlaying answer files, assembling a template and
fetching component info, plus a dry-run view of the request encoding.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "configs/config.yaml", "path to the worker config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logRef, "log-ref", "assemblectl", "reference attached to engine log lines")

	root.AddCommand(
		newOverlayCmd(opts),
		newEncodeCmd(),
		newAssembleCmd(opts),
		newComponentInfoCmd(opts),
		newRegistryCmd(),
	)
	return root
}

func (o *cliOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(o.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (o *cliOptions) logger() logger.Logger {
	return logger.NewStructured(o.logLevel, "console")
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
