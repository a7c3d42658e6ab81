package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// patternsCommand lists background patterns.
func (c *CLI) patternsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List background patterns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			patterns := e.catalog.Patterns()
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), patterns)
			}
			printInfo("%d patterns", len(patterns))
			for _, p := range patterns {
				label := p.Name
				if p.Badge != "" {
					label += " " + StyleDim.Render("("+p.Badge+")")
				}
				printKeyValue(p.ID, label)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

// formatsCommand lists output formats.
func (c *CLI) formatsCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "formats",
		Short: "List output formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := c.loadEnv()
			if err != nil {
				return err
			}
			formats := e.catalog.Formats()
			if asJSON {
				return writeIndented(cmd.OutOrStdout(), formats)
			}
			printInfo("%d formats", len(formats))
			for _, f := range formats {
				printKeyValue(f.ID, fmt.Sprintf("%s %s", f.Name, StyleDim.Render(formatLabel(f))))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
