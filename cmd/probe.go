/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/config"
	"github.com/allbin/usbtool/internal/tui/components"
	"github.com/allbin/usbtool/internal/tui/styles"
)

// probeCmd represents the probe command
var probeCmd = &cobra.Command{
	Use:   "probe <device>",
	Short: "Run one probe exchange against a single device",
	Long: `Open a device raw, 8N1 unless the line flags say otherwise, write
--command-hex and print everything received within --timeout. The timeout
takes a unit (500ms, 2s) or a bare number of seconds. This is the exchange
find-device performs on each candidate, useful for working out the command
and response to search with.

The received bytes are printed to stdout as hex. With --response-hex the
reply is also compared byte for byte and a mismatch is an error.

Examples:
  usbtool probe /dev/ttyUSB0 --command-hex 05
  usbtool probe /dev/ttyACM0 --command-hex 41540d --response-hex 4f4b0d0a -b 115200
  usbtool probe /dev/ttyUSB1 --command-hex 05 --data-bits 7 --parity even --timeout 0.5`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		device := args[0]
		commandHex, _ := cmd.Flags().GetString("command-hex")
		responseHex, _ := cmd.Flags().GetString("response-hex")

		command, err := usbtool.DecodeHex(commandHex)
		if err != nil {
			return &usbtool.ConfigError{Err: err, Detail: "command_hex"}
		}
		if len(command) == 0 {
			return &usbtool.ConfigError{Err: usbtool.ErrCommandRequired}
		}

		var expected []byte
		if responseHex != "" {
			if expected, err = usbtool.DecodeHex(responseHex); err != nil {
				return &usbtool.ConfigError{Err: err, Detail: "response_hex"}
			}
		}

		prober, err := newProber()
		if err != nil {
			return err
		}
		response, err := prober.Probe(cmd.Context(), device, cfg.Probe.BaudRate, cfg.Probe.Timeout, command)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.ErrOrStderr(), components.FormatExchange(components.TX, command))
		fmt.Fprintln(cmd.ErrOrStderr(), components.FormatExchange(components.RX, response))
		fmt.Fprintln(cmd.OutOrStdout(), usbtool.EncodeHex(response))

		if responseHex == "" {
			return nil
		}
		if !bytes.Equal(response, expected) {
			return fmt.Errorf("response mismatch on %s: expected %s, received %s",
				device, usbtool.EncodeHex(expected), usbtool.EncodeHex(response))
		}
		fmt.Fprintln(cmd.ErrOrStderr(), styles.SuccessStyle.Render("✓ Response matches"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)

	probeCmd.Flags().String("command-hex", "", "Probe command bytes as hex")
	probeCmd.Flags().String("response-hex", "", "Expected probe response bytes as hex")
	config.AddProbeFlags(probeCmd.Flags())
	_ = probeCmd.MarkFlagRequired("command-hex")
}
