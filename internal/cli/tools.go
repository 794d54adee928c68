package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mathrouter/mathrouter/internal/search"
	"github.com/mathrouter/mathrouter/internal/tools"
)

func newToolsCmd(flags *GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the search tools and their parameters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			backend := search.NewTavilyBackend(cfg.Search, cfg.Timeouts.Search)
			registry, err := tools.NewRegistry(ctx,
				[]tools.Provider{search.NewProvider(backend)},
				tools.WithServerInfo("math-search-server", Version),
			)
			if err != nil {
				return err
			}
			defer registry.Close()

			descriptors, err := registry.ListTools(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range descriptors {
				fmt.Fprintf(out, "%s: %s\n", d.Name, d.Description)
				props, _ := d.Parameters["properties"].(map[string]any)
				names := make([]string, 0, len(props))
				for name := range props {
					names = append(names, name)
				}
				sort.Strings(names)
				if len(names) > 0 {
					fmt.Fprintf(out, "  params: %s\n", strings.Join(names, ", "))
				}
			}
			return nil
		},
	}
}
