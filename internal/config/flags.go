package config

import (
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
)

// ParseDuration parses a Go duration such as "500ms" or "2s". A bare number
// is taken as seconds.
func ParseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: use a number of seconds or a value with a unit such as 500ms or 2s", s)
	}
	return d, nil
}

// durationValue is a pflag.Value backed by ParseDuration.
type durationValue time.Duration

func (d *durationValue) Set(s string) error {
	v, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = durationValue(v)
	return nil
}

func (d *durationValue) String() string { return time.Duration(*d).String() }

func (d *durationValue) Type() string { return "duration" }

// DurationVar defines a duration flag that also accepts bare seconds.
func DurationVar(fs *pflag.FlagSet, name string, value time.Duration, usage string) {
	d := durationValue(value)
	fs.Var(&d, name, usage)
}

// AddProbeFlags defines the serial line flags shared by every command that
// talks to a device.
func AddProbeFlags(fs *pflag.FlagSet) {
	fs.IntP("baud-rate", "b", 9600, "Probe baud rate")
	DurationVar(fs, "timeout", time.Second, "Probe response timeout, e.g. 500ms or 2s; a bare number is seconds")
	fs.Int("data-bits", 8, "Probe data bits (5-8)")
	fs.Int("stop-bits", 1, "Probe stop bits (1 or 2)")
	fs.String("parity", "none", "Probe parity: none, odd or even")
	fs.String("flow-control", "none", "Probe flow control: none or rtscts")
	fs.Bool("log-serial-data", false, "Log probe traffic at info level")
}

// secondsHook decodes bare numbers bound for a time.Duration as seconds, so
// "timeout: 2" in a file or USBTOOL_PROBE_TIMEOUT=2 mean two seconds.
func secondsHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(time.Duration(0)) {
		return data, nil
	}
	switch v := data.(type) {
	case string:
		return ParseDuration(v)
	case int:
		return time.Duration(v) * time.Second, nil
	case int64:
		return time.Duration(v) * time.Second, nil
	case float64:
		return time.Duration(v * float64(time.Second)), nil
	}
	return data, nil
}

// decodeHook replaces viper's default hooks, so it keeps the slice one.
var decodeHook = mapstructure.ComposeDecodeHookFunc(
	secondsHook,
	mapstructure.StringToSliceHookFunc(","),
)
