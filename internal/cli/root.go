package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathrouter/mathrouter/internal/config"
)

// Exit codes returned by Main.
const (
	ExitSuccess       = 0
	ExitGenericError  = 1
	ExitConfigInvalid = 2
)

// GlobalFlags holds flags shared across all commands.
type GlobalFlags struct {
	ConfigPath string
	LogLevel   string
	LogFormat  string
}

// errConfig marks errors that should exit with ExitConfigInvalid.
type errConfig struct{ err error }

func (e *errConfig) Error() string { return e.err.Error() }
func (e *errConfig) Unwrap() error { return e.err }

// NewRootCommand builds the command tree. Each call returns an independent tree.
func NewRootCommand() *cobra.Command {
	flags := &GlobalFlags{}

	root := &cobra.Command{
		Use:           "mathrouter",
		Short:         "Math question routing agent",
		Long:          "mathrouter answers math questions from a local knowledge base, web search or an LLM, behind input and output guardrails.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "mathrouter.yaml", "config file path")
	root.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&flags.LogFormat, "log-format", "", "log format (text, json)")

	root.AddCommand(newServeCmd(flags))
	root.AddCommand(newAskCmd(flags))
	root.AddCommand(newToolsCmd(flags))
	root.AddCommand(newCorpusCmd(flags))
	root.AddCommand(newVersionCmd())
	return root
}

// Main runs the CLI and maps the result to an exit code.
func Main(args []string, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	err := root.Execute()
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintln(stderr, "ERROR: "+err.Error())
	var cfgErr *errConfig
	if errors.As(err, &cfgErr) || strings.HasPrefix(err.Error(), "CONFIG_INVALID") {
		return ExitConfigInvalid
	}
	return ExitGenericError
}

// loadConfig reads configuration and installs the default logger. Extra
// overrides (keyed by dotted path) win over every other source.
func loadConfig(flags *GlobalFlags, overrides map[string]any) (*config.Config, error) {
	if overrides == nil {
		overrides = map[string]any{}
	}
	if flags.LogLevel != "" {
		overrides["log.level"] = flags.LogLevel
	}
	if flags.LogFormat != "" {
		overrides["log.format"] = flags.LogFormat
	}

	cfg, err := config.Load(config.Options{
		ConfigFile: flags.ConfigPath,
		Overrides:  overrides,
	})
	if err != nil {
		return nil, &errConfig{err: err}
	}
	setupLogging(cfg.Log, os.Stderr)
	return cfg, nil
}
