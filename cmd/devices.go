/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// devicesCmd represents the get-devices-for-usb-id command
var devicesCmd = &cobra.Command{
	Use:   "get-devices-for-usb-id <vvvv:pppp>",
	Short: "List the tty devices of a USB ID",
	Long: `List the device node of every USB serial candidate reporting the given
USB vendor:product ID. The ID must be four lowercase hex digits, a colon and
four more, and must currently be attached.

Examples:
  usbtool get-devices-for-usb-id 0403:6001
  usbtool get-devices-for-usb-id 1a86:7523`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		devices, err := newResolver(nil).DevicesForIdentity(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, d := range devices {
			fmt.Fprintln(cmd.OutOrStdout(), d)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}
