/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/config"
)

// findCmd represents the find-device command
var findCmd = &cobra.Command{
	Use:   "find-device",
	Short: "Find the tty device matching every given filter",
	Long: `Find the tty device matching every given filter and print its path.

Filters are applied in order: USB ID, serial number, manufacturer, then the
probe. The probe opens each remaining port raw (8N1 unless --data-bits,
--stop-bits, --parity or --flow-control say otherwise), writes --command-hex
and compares everything received within --timeout with --response-hex byte
for byte. --timeout takes a unit (500ms, 2s) or a bare number of seconds. Ports that cannot be opened for lack of permission are skipped.

At least one filter is required. --command-hex and --response-hex go
together. The first match in enumeration order is printed; use --all to
print every match.

Examples:
  usbtool find-device --serial-number A50285BI
  usbtool find-device --usb-id 0403:6001 --manufacturer FTDI
  usbtool find-device --usb-id 0403:6001 --command-hex 05 --response-hex 06
  usbtool find-device --command-hex "0x41 0x54 0x0d" --response-hex 4f4b0d0a --baud-rate 115200
  usbtool find-device --command-hex 05 --response-hex 06 --parity even --data-bits 7 --timeout 2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		usbID, _ := cmd.Flags().GetString("usb-id")
		serialNumber, _ := cmd.Flags().GetString("serial-number")
		manufacturer, _ := cmd.Flags().GetString("manufacturer")
		commandHex, _ := cmd.Flags().GetString("command-hex")
		responseHex, _ := cmd.Flags().GetString("response-hex")
		all, _ := cmd.Flags().GetBool("all")

		q := usbtool.Query{
			USBID:        usbID,
			SerialNumber: serialNumber,
			Manufacturer: manufacturer,
			CommandHex:   commandHex,
			ResponseHex:  responseHex,
			BaudRate:     cfg.Probe.BaudRate,
			Timeout:      cfg.Probe.Timeout,
		}
		logger.Debug("Finding device",
			zap.String("usb_id", q.USBID),
			zap.String("serial_number", q.SerialNumber),
			zap.String("manufacturer", q.Manufacturer),
			zap.String("command_hex", q.CommandHex),
			zap.String("response_hex", q.ResponseHex),
			zap.Int("baud_rate", q.BaudRate),
			zap.Duration("timeout", q.Timeout),
			zap.Int("data_bits", cfg.Probe.DataBits),
			zap.Int("stop_bits", cfg.Probe.StopBits),
			zap.String("parity", cfg.Probe.Parity),
			zap.String("flow_control", cfg.Probe.FlowControl),
		)

		prober, err := newProber()
		if err != nil {
			return err
		}
		r := newResolver(prober)
		if !all {
			device, err := r.Find(cmd.Context(), q)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), device)
			return nil
		}

		devices, err := r.FindAll(cmd.Context(), q)
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
	rootCmd.AddCommand(findCmd)

	findCmd.Flags().String("usb-id", "", "USB vendor:product ID, e.g. 0403:6001")
	findCmd.Flags().String("serial-number", "", "USB serial number attribute")
	findCmd.Flags().String("manufacturer", "", "USB manufacturer attribute")
	findCmd.Flags().String("command-hex", "", "Probe command bytes as hex")
	findCmd.Flags().String("response-hex", "", "Expected probe response bytes as hex")
	config.AddProbeFlags(findCmd.Flags())
	findCmd.Flags().BoolP("all", "a", false, "Print every matching device instead of the first")
}
