package usbtool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/allbin/usbtool/internal/serialport"
)

// Query selects devices. At least one of USBID, SerialNumber, Manufacturer
// or CommandHex must be set. CommandHex and ResponseHex go together.
type Query struct {
	USBID        string
	SerialNumber string
	Manufacturer string
	CommandHex   string
	ResponseHex  string

	// Probe line settings, used only when CommandHex is set.
	BaudRate int
	Timeout  time.Duration
}

// ProbeSpec is a decoded command and the exact reply expected for it.
type ProbeSpec struct {
	Command  []byte
	Response []byte
}

// plan is a validated Query.
type plan struct {
	query    Query
	identity *Identity
	probe    *ProbeSpec
}

// validate checks q without touching any device.
func (q Query) validate() (plan, error) {
	p := plan{query: q}

	if q.USBID == "" && q.SerialNumber == "" && q.Manufacturer == "" && q.CommandHex == "" {
		return p, &ConfigError{Err: ErrNoDiscriminator}
	}
	if q.CommandHex != "" && q.ResponseHex == "" {
		return p, configErrorf(ErrResponseRequired, "command_hex=%q", q.CommandHex)
	}
	if q.ResponseHex != "" && q.CommandHex == "" {
		return p, configErrorf(ErrCommandRequired, "response_hex=%q", q.ResponseHex)
	}

	if q.USBID != "" {
		id, err := ParseIdentity(q.USBID)
		if err != nil {
			return p, &ConfigError{Err: err}
		}
		p.identity = &id
	}

	if q.CommandHex != "" {
		command, err := DecodeHex(q.CommandHex)
		if err != nil {
			return p, &ConfigError{Err: err, Detail: "command_hex"}
		}
		if len(command) == 0 {
			return p, configErrorf(ErrInvalidHex, "command_hex decodes to no bytes")
		}
		response, err := DecodeHex(q.ResponseHex)
		if err != nil {
			return p, &ConfigError{Err: err, Detail: "response_hex"}
		}
		if err := serialport.ValidateBaudRate(q.BaudRate); err != nil {
			return p, configErrorf(fmt.Errorf("%w: %w", ErrInvalidProbe, err), "baud rate %d", q.BaudRate)
		}
		if q.Timeout < 0 {
			return p, configErrorf(ErrInvalidProbe, "negative timeout %v", q.Timeout)
		}
		p.probe = &ProbeSpec{Command: command, Response: response}
	}

	return p, nil
}

// Config wires a Resolver to its collaborators. Nil fields get the real
// Linux implementations.
type Config struct {
	Lister     CandidateLister
	DevDir     string
	Attributes AttributeSource
	Listing    ListingSource
	Prober     Prober
	Logger     *zap.Logger
}

// Resolver finds the device node matching a Query.
//
// Candidates are examined one at a time in enumeration order and no
// candidate is revisited. Each filter that is set must pass: USB identity,
// then serial number, then manufacturer, then the probe exchange.
type Resolver struct {
	lister  CandidateLister
	devDir  string
	reader  AttributeReader
	listing ListingSource
	prober  Prober
	logger  *zap.Logger
}

// NewResolver creates a Resolver from cfg.
func NewResolver(cfg Config) *Resolver {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		lister:  cfg.Lister,
		devDir:  cfg.DevDir,
		reader:  AttributeReader{Source: cfg.Attributes},
		listing: cfg.Listing,
		prober:  cfg.Prober,
		logger:  logger.With(zap.String("component", "resolver")),
	}
	if r.lister == nil {
		r.lister = NewEnumerator()
	}
	if r.devDir == "" {
		r.devDir = DefaultDevDir
	}
	if r.reader.Source == nil {
		r.reader.Source = UdevadmSource{}
	}
	if r.listing == nil {
		r.listing = LsusbSource{}
	}
	if r.prober == nil {
		r.prober = NewSerialProber(logger, false)
	}
	return r
}

// Find returns the first device, in enumeration order, that passes every
// filter of q. More than one attached device may satisfy q; only the first
// is returned. Use FindAll to get every match.
func (r *Resolver) Find(ctx context.Context, q Query) (string, error) {
	matches, err := r.resolve(ctx, q, true)
	if err != nil {
		return "", err
	}
	return matches[0], nil
}

// FindAll returns every device that passes every filter of q, in
// enumeration order.
func (r *Resolver) FindAll(ctx context.Context, q Query) ([]string, error) {
	return r.resolve(ctx, q, false)
}

// DevicesForIdentity returns the device node of every candidate reporting
// the USB identity usbID. usbID must be attached according to a fresh
// catalog.
func (r *Resolver) DevicesForIdentity(ctx context.Context, usbID string) ([]string, error) {
	id, err := ParseIdentity(usbID)
	if err != nil {
		return nil, &ConfigError{Err: err}
	}
	devices, err := r.devicesForIdentity(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(devices) == 0 {
		return nil, &NoMatchError{Query: Query{USBID: usbID}}
	}
	return devices, nil
}

// Catalog builds a fresh USB ID catalog.
func (r *Resolver) Catalog(ctx context.Context) (Catalog, error) {
	return BuildCatalog(ctx, r.listing)
}

// Candidates returns the raw enumeration.
func (r *Resolver) Candidates() ([]string, error) {
	return r.lister.List()
}

// Reader returns the attribute reader used by r.
func (r *Resolver) Reader() AttributeReader {
	return r.reader
}

func (r *Resolver) resolve(ctx context.Context, q Query, firstOnly bool) ([]string, error) {
	p, err := q.validate()
	if err != nil {
		return nil, err
	}

	devices, err := r.seed(ctx, p)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("Examining candidates", zap.Strings("devices", devices))

	var matches []string
	for _, device := range devices {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ok, err := r.examine(ctx, device, p)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		r.logger.Info("Device matched", zap.String("device", device))
		matches = append(matches, device)
		if firstOnly {
			return matches, nil
		}
	}

	if len(matches) == 0 {
		return nil, &NoMatchError{Query: q}
	}
	return matches, nil
}

// seed returns the device nodes to examine: those reporting the query
// identity when one is given, otherwise every candidate.
func (r *Resolver) seed(ctx context.Context, p plan) ([]string, error) {
	if p.identity != nil {
		return r.devicesForIdentity(ctx, *p.identity)
	}

	candidates, err := r.lister.List()
	if err != nil {
		return nil, err
	}
	devices := make([]string, len(candidates))
	for i, c := range candidates {
		devices[i] = DevicePath(r.devDir, c)
	}
	return devices, nil
}

func (r *Resolver) devicesForIdentity(ctx context.Context, id Identity) ([]string, error) {
	catalog, err := BuildCatalog(ctx, r.listing)
	if err != nil {
		return nil, err
	}
	if !catalog.Contains(id.String()) {
		return nil, configErrorf(ErrUnknownIdentity, "%s", id)
	}

	candidates, err := r.lister.List()
	if err != nil {
		return nil, err
	}

	var devices []string
	for _, c := range candidates {
		got, ok, err := r.reader.ReadIdentity(ctx, c)
		if err != nil {
			return nil, err
		}
		if !ok {
			r.logger.Debug("Candidate has no USB identity", zap.String("candidate", c))
			continue
		}
		if got == id {
			devices = append(devices, DevicePath(r.devDir, c))
		}
	}
	return devices, nil
}

// examine applies the attribute and probe filters of p to one device. A
// false result with a nil error means the device was skipped.
func (r *Resolver) examine(ctx context.Context, device string, p plan) (bool, error) {
	q := p.query
	logger := r.logger.With(zap.String("device", device))

	if q.SerialNumber != "" || q.Manufacturer != "" {
		attrs, err := r.reader.ReadAttributes(ctx, device)
		if err != nil {
			return false, err
		}
		if !attributeMatches(logger, "serial", attrs.Serial, q.SerialNumber) {
			return false, nil
		}
		if !attributeMatches(logger, "manufacturer", attrs.Manufacturer, q.Manufacturer) {
			return false, nil
		}
	}

	if p.probe == nil {
		return true, nil
	}

	response, err := r.prober.Probe(ctx, device, q.BaudRate, q.Timeout, p.probe.Command)
	if errors.Is(err, ErrPermissionDenied) {
		logger.Warn("Permission denied on port, skipped searching this port", zap.Error(err))
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if !bytes.Equal(response, p.probe.Response) {
		logger.Debug("Probe response mismatch",
			zap.String("expected", EncodeHex(p.probe.Response)),
			zap.String("received", EncodeHex(response)),
		)
		return false, nil
	}
	return true, nil
}

// attributeMatches reports whether attr passes a filter on want. An empty
// want is no filter. An absent attribute never matches a filter.
func attributeMatches(logger *zap.Logger, name string, attr Optional, want string) bool {
	if want == "" {
		return true
	}
	if !attr.Present {
		logger.Debug("Device has no attribute, skipping", zap.String("attribute", name))
		return false
	}
	if attr.Value != want {
		logger.Debug("Attribute mismatch, skipping",
			zap.String("attribute", name),
			zap.String("expected", want),
			zap.String("actual", attr.Value),
		)
		return false
	}
	return true
}
