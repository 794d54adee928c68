package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mathrouter/mathrouter/internal/knowledge"
)

func newCorpusCmd(flags *GlobalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "corpus",
		Short: "Manage the knowledge base corpus",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the sample corpus to the configured path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			path := cfg.Knowledge.CorpusPath
			written, err := knowledge.WriteSampleCorpus(path, force)
			if err != nil {
				return err
			}
			if written {
				fmt.Fprintf(cmd.OutOrStdout(), "wrote sample corpus to %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists (use --force to overwrite)\n", path)
			}
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing corpus")

	cmd.AddCommand(initCmd)
	return cmd
}
