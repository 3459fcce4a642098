/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allbin/usbtool"
	"github.com/allbin/usbtool/internal/config"
	"github.com/allbin/usbtool/internal/logging"
	"github.com/allbin/usbtool/internal/tui/styles"
)

var (
	cfgFile string
	verbose bool

	v      = config.New()
	cfg    *config.Config
	logger = zap.NewNop()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "usbtool",
	Short: "Find the tty device behind a USB serial adapter",
	Long: `Find the tty device node (/dev/ttyUSB*, /dev/ttyACM*) that belongs to a
particular USB serial adapter when several similar adapters are attached.

Devices can be selected by USB vendor:product ID, serial number,
manufacturer, and by probing each port with a command and comparing the
reply. Resolved device paths are printed to stdout; diagnostics go to
stderr.

Settings are read from $XDG_CONFIG_HOME/usbtool/config.yaml (or --config)
and USBTOOL_* environment variables, e.g. USBTOOL_PROBE_BAUD_RATE=115200.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.BindFlags(v, cmd.Flags()); err != nil {
			return err
		}

		c, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			c.Logging.Level = "debug"
		}

		l, err := logging.New(c.Logging)
		if err != nil {
			return err
		}

		cfg, logger = c, l
		logger.Debug("Configuration loaded", zap.String("config_file", v.ConfigFileUsed()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("Error:"), err)
		if h := hint(err); h != "" {
			fmt.Fprintln(os.Stderr, styles.WarnStyle.Render(h))
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/usbtool/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("log-format", "console", "Log format: console or json")
	rootCmd.PersistentFlags().String("log-file", "stderr", "Log destination: stderr, stdout or a file path (rotated)")
}

// hint suggests a fix for the errors users commonly run into.
func hint(err error) string {
	var noMatch *usbtool.NoMatchError
	switch {
	case errors.Is(err, usbtool.ErrUSBResetNotAvailable):
		return "Install with: sudo apt-get install usbutils"
	case errors.Is(err, usbtool.ErrUSBInfoNotAvailable):
		return "This device does not appear to be a USB device"
	case errors.Is(err, usbtool.ErrUnknownIdentity):
		return "Use 'usbtool get-usb-ids' to list the USB IDs currently attached"
	case errors.Is(err, usbtool.ErrPermissionDenied):
		return "Add your user to the dialout group or run with sudo"
	case errors.As(err, &noMatch):
		return "Use 'usbtool list-usb-tty-devices --table' to see what is attached"
	}
	return ""
}

// newProber builds a SerialProber with the configured line settings.
func newProber() (*usbtool.SerialProber, error) {
	pc := cfg.Probe
	line, err := usbtool.NewLineSettings(pc.DataBits, pc.StopBits, pc.Parity, pc.FlowControl)
	if err != nil {
		return nil, err
	}
	prober := usbtool.NewSerialProber(logger, pc.LogSerialData)
	prober.Line = line
	return prober, nil
}

// newResolver wires a Resolver to the configured system collaborators.
// Commands that never probe pass a nil prober.
func newResolver(prober usbtool.Prober) *usbtool.Resolver {
	d := cfg.Discovery
	return usbtool.NewResolver(usbtool.Config{
		Lister: &usbtool.Enumerator{
			USBSerialDir: d.USBSerialDir,
			DevDir:       d.DevDir,
			ACMPrefix:    d.ACMPrefix,
		},
		DevDir:     d.DevDir,
		Attributes: usbtool.UdevadmSource{Command: d.Udevadm, Timeout: d.CommandTimeout},
		Listing:    usbtool.LsusbSource{Command: d.Lsusb, Timeout: d.CommandTimeout},
		Prober:     prober,
		Logger:     logger,
	})
}
