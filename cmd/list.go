/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/tui/components"
)

// listCmd represents the list-usb-tty-devices command
var listCmd = &cobra.Command{
	Use:   "list-usb-tty-devices",
	Short: "List USB serial candidate devices",
	Long: `List every USB serial candidate on the system:

- entries of /sys/bus/usb-serial/devices (ttyUSB* bound to a usb-serial driver)
- character devices /dev/ttyACM* (USB CDC/ACM devices)

Candidates are printed as found, one per line. Busy devices are listed too.
With --table each candidate is shown with its device node and the USB ID,
serial number and manufacturer from its udev attributes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newResolver(nil)
		candidates, err := r.Candidates()
		if err != nil {
			return fmt.Errorf("failed to enumerate devices: %w", err)
		}

		tableFormat, _ := cmd.Flags().GetBool("table")
		if !tableFormat {
			for _, c := range candidates {
				fmt.Fprintln(cmd.OutOrStdout(), c)
			}
			return nil
		}

		if len(candidates) == 0 {
			fmt.Fprintln(cmd.ErrOrStderr(), "No USB serial devices found")
			return nil
		}

		rows := make([][]string, 0, len(candidates))
		for _, c := range candidates {
			device := usbtool.DevicePath(cfg.Discovery.DevDir, c)
			info, err := r.Reader().Describe(cmd.Context(), device)
			if err != nil {
				logger.Warn("Failed to read device attributes", zap.String("device", device), zap.Error(err))
				rows = append(rows, []string{device, "?", "", "", c})
				continue
			}
			id := "-"
			if info.HasIdentity {
				id = info.Identity.String()
			}
			rows = append(rows, []string{device, id, info.Serial.Value, info.Manufacturer.Value, c})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Found %d USB serial device(s):\n\n", len(candidates))
		fmt.Fprintln(cmd.OutOrStdout(), components.RenderTable(
			[]string{"Device", "USB ID", "Serial", "Manufacturer", "Source"},
			rows,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().BoolP("table", "t", false, "Display output in a styled table format")
}
