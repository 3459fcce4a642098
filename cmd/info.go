/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/tui/styles"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <device>",
	Short: "Display the USB attributes of a tty device",
	Long: `Display the USB attributes of a tty device as seen by the resolver:
USB ID, serial number, manufacturer, product and bus address, all taken
from the udev attribute walk.

Examples:
  usbtool info /dev/ttyUSB0
  usbtool info /dev/ttyACM0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := newResolver(nil).Reader().Describe(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("failed to get device info: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), renderInfo(info))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}

func renderInfo(info usbtool.DeviceInfo) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Device Information: " + info.Path))
	b.WriteString("\n")

	if !info.HasIdentity {
		b.WriteString(styles.WarnStyle.Render("No USB attributes found"))
		return b.String()
	}

	lines := []string{
		styles.SectionStyle.Render("USB Device Information:"),
		styles.Field("USB ID:", styles.IdentityStyle.Render(info.Identity.String())),
		styles.Field("Vendor ID:", info.Identity.Vendor),
		styles.Field("Product ID:", info.Identity.Product),
		styles.OptionalField("Serial:", info.Serial.Value, info.Serial.Present),
		styles.OptionalField("Manufacturer:", info.Manufacturer.Value, info.Manufacturer.Present),
		styles.OptionalField("Product:", info.Product.Value, info.Product.Present),
		styles.OptionalField("Bus:", info.BusNumber.Value, info.BusNumber.Present),
		styles.OptionalField("Device:", info.DeviceNumber.Value, info.DeviceNumber.Present),
	}
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}
