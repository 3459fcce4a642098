/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/usbtool/internal/tui/components"
)

// idsCmd represents the get-usb-ids command
var idsCmd = &cobra.Command{
	Use:   "get-usb-ids",
	Short: "List the USB IDs currently attached",
	Long: `List every USB vendor:product ID currently attached, as reported by
lsusb, with its description. Output is sorted by ID.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := newResolver(nil).Catalog(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to read USB IDs: %w", err)
		}

		entries := catalog.Entries()
		tableFormat, _ := cmd.Flags().GetBool("table")
		if !tableFormat {
			for _, e := range entries {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", e.ID, e.Description)
			}
			return nil
		}

		rows := make([][]string, len(entries))
		for i, e := range entries {
			rows[i] = []string{e.ID, e.Description}
		}
		fmt.Fprintln(cmd.OutOrStdout(), components.RenderTable([]string{"USB ID", "Description"}, rows))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idsCmd)

	idsCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}
