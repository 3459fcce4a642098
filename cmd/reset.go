/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/tui/styles"
)

// resetCmd represents the reset command
var resetCmd = &cobra.Command{
	Use:   "reset <device>",
	Short: "Reset a USB serial device",
	Long: `Perform a USB-level reset on a serial device. This can recover devices
that are hung or unresponsive without physically unplugging them.

The device will re-enumerate after reset, which may cause the device path
to change (e.g., /dev/ttyUSB0 might become /dev/ttyUSB1). Use
'usbtool find-device --serial-number' to locate it again afterwards.

Requirements:
- usbreset utility must be installed (from usbutils package)
- Root/sudo permissions required for USB operations

Examples:
  sudo usbtool reset /dev/ttyUSB0             # Reset by device path
  sudo usbtool reset --serial-number NC7ILXW1 # Reset by serial number`,
	Args: func(cmd *cobra.Command, args []string) error {
		serialFlag, _ := cmd.Flags().GetString("serial-number")
		if serialFlag == "" && len(args) != 1 {
			return errors.New("requires either a device path argument or --serial-number flag")
		}
		if serialFlag != "" && len(args) > 0 {
			return errors.New("cannot specify both device path and --serial-number flag")
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		r := newResolver(nil)
		resetter := usbtool.NewUSBResetter(r.Reader(), logger)
		if !resetter.Available() {
			return usbtool.ErrUSBResetNotAvailable
		}

		var device string
		if serialFlag, _ := cmd.Flags().GetString("serial-number"); serialFlag != "" {
			d, err := r.Find(cmd.Context(), usbtool.Query{SerialNumber: serialFlag})
			if err != nil {
				return err
			}
			device = d
		} else {
			device = args[0]
		}

		fmt.Fprintf(cmd.ErrOrStderr(), "Resetting USB device: %s\n", device)
		if err := resetter.Reset(cmd.Context(), device); err != nil {
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), styles.SuccessStyle.Render("USB device reset successfully"))
		fmt.Fprintln(cmd.ErrOrStderr(), "Device will re-enumerate (device path may change)")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().StringP("serial-number", "s", "", "Reset device by serial number")
}
