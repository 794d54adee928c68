package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(flags *GlobalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Route one question and print the answer",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags, nil)
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			result := a.router.Route(ctx, strings.Join(args, " "))
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(result)
			}

			if !result.Success {
				fmt.Fprintf(out, "[%s] %s\n", result.Source, result.Message)
				return nil
			}
			fmt.Fprintln(out, result.Solution)
			fmt.Fprintln(out)
			fmt.Fprintf(out, "source: %s\n", result.Source)
			fmt.Fprintf(out, "path:   %s\n", result.RoutingPath)
			if result.Confidence != nil {
				fmt.Fprintf(out, "confidence: %.2f\n", *result.Confidence)
			}
			for _, ref := range result.References {
				fmt.Fprintf(out, "  - %s (%s)\n", ref.Title, ref.URL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the routing result as JSON")
	return cmd
}
