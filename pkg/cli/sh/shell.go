// Package sh provides an interactive shell to operate the sensor.
package sh

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/abiosoft/ishell"

	"github.com/robotalks/sps30.go/pkg/sps30"
)

// Opener opens a Driver.
type Opener func() (*sps30.Driver, error)

// Shell provides ishell backed interactive shell.
type Shell struct {
	Interactive bool
	OutputJSON  bool

	Shell  *ishell.Shell
	Open   Opener
	Driver *sps30.Driver
}

const (
	shellKey   = "$shell"
	idlePrompt = "sps30 > "
	busyPrompt = "sps30 [measuring] > "
)

// ErrMeasuring rejects commands while the sampler owns the bus.
var ErrMeasuring = errors.New("stop measurement first")

var (
	// flags

	evalOnly   bool
	outputJSON bool

	// commands
	commands = []*ishell.Cmd{
		&InfoCmd,
		&FirmwareCmd,
		&ProductTypeCmd,
		&SerialNumberCmd,
		&StatusCmd,
		&ClearStatusCmd,
		&CleanCmd,
		&IntervalCmd,
		&ReadyCmd,
		&ResetCmd,
		&SleepCmd,
		&WakeUpCmd,
		&StartCmd,
		&ReadCmd,
		&StopCmd,
	}
)

func init() {
	flag.BoolVar(&evalOnly, "e", evalOnly, "Evaluation only, no interactive shell.")
	flag.BoolVar(&outputJSON, "json", outputJSON, "Print output in JSON.")
}

// New creates a new shell.
func New(open Opener) *Shell {
	s := &Shell{
		Interactive: !evalOnly,
		OutputJSON:  outputJSON,

		Shell: ishell.New(),
		Open:  open,
	}
	s.Shell.Set(shellKey, s)
	s.Shell.SetPrompt(idlePrompt)
	for _, cmd := range commands {
		s.Shell.AddCmd(cmd)
	}
	return s
}

// ShellFrom gets Shell from ishell context.
func ShellFrom(c *ishell.Context) *Shell {
	return c.Get(shellKey).(*Shell)
}

// Measuring indicates measurement is started.
func (s *Shell) Measuring() bool {
	return s.Driver != nil && s.Driver.Sampler() != nil
}

// EnsureDriver opens the driver if not yet opened, or closed by stop.
func (s *Shell) EnsureDriver() (*sps30.Driver, error) {
	if s.Driver == nil {
		d, err := s.Open()
		if err != nil {
			return nil, err
		}
		s.Driver = d
	}
	return s.Driver, nil
}

// Close releases the driver.
func (s *Shell) Close() error {
	if s.Driver == nil {
		return nil
	}
	err := s.Driver.Close()
	s.Driver = nil
	s.Shell.SetPrompt(idlePrompt)
	return err
}

// Print prints a result either in JSON or text.
func (s *Shell) Print(c *ishell.Context, v interface{}) {
	if s.OutputJSON {
		out, err := json.Marshal(v)
		if err != nil {
			c.Err(err)
			return
		}
		c.Println(string(out))
		return
	}
	if sample, ok := v.(sps30.Sample); ok {
		v = sample.Map()
	}
	switch val := v.(type) {
	case fmt.Stringer:
		c.Println(val.String())
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for key := range val {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			c.Printf("%s: %v\n", key, val[key])
		}
	default:
		c.Println(val)
	}
}

// WithDriver wraps a command operating on an idle driver. Commands are
// refused while measuring because the bus is shared with the sampler.
func WithDriver(fn func(c *ishell.Context, d *sps30.Driver) (interface{}, error)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		s := ShellFrom(c)
		if s.Measuring() {
			c.Err(ErrMeasuring)
			return
		}
		d, err := s.EnsureDriver()
		if err != nil {
			c.Err(err)
			return
		}
		res, err := fn(c, d)
		if err != nil {
			c.Err(err)
			return
		}
		if res == nil {
			res = "OK"
		}
		s.Print(c, res)
	}
}

// Run runs the shell.
func (s *Shell) Run(args ...string) {
	defer s.Close()
	if len(args) > 0 {
		if err := s.Shell.Process(args...); err != nil {
			log.Fatalln(err)
		}
		return
	}
	if s.Interactive {
		s.Shell.Run()
		return
	}
	log.Fatalln("command expected")
}

var (
	// InfoCmd prints all identity information.
	InfoCmd = ishell.Cmd{
		Name: "info",
		Help: "Print firmware version, product type and serial number",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			fw, err := d.FirmwareVersion()
			if err != nil {
				return nil, err
			}
			pt, err := d.ProductType()
			if err != nil {
				return nil, err
			}
			sn, err := d.SerialNumber()
			if err != nil {
				return nil, err
			}
			return map[string]interface{}{
				"firmware_version": fw,
				"product_type":     pt,
				"serial_number":    sn,
			}, nil
		}),
	}

	// FirmwareCmd reads firmware version.
	FirmwareCmd = ishell.Cmd{
		Name:    "firmware",
		Aliases: []string{"fw"},
		Help:    "Read firmware version",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return d.FirmwareVersion()
		}),
	}

	// ProductTypeCmd reads product type.
	ProductTypeCmd = ishell.Cmd{
		Name:    "product",
		Aliases: []string{"pt"},
		Help:    "Read product type",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return d.ProductType()
		}),
	}

	// SerialNumberCmd reads serial number.
	SerialNumberCmd = ishell.Cmd{
		Name:    "serial",
		Aliases: []string{"sn"},
		Help:    "Read serial number",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return d.SerialNumber()
		}),
	}

	// StatusCmd reads status register.
	StatusCmd = ishell.Cmd{
		Name: "status",
		Help: "Read device status register",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return d.ReadStatusRegister()
		}),
	}

	// ClearStatusCmd clears status register.
	ClearStatusCmd = ishell.Cmd{
		Name: "clear-status",
		Help: "Clear device status register",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return nil, d.ClearStatusRegister()
		}),
	}

	// CleanCmd starts fan cleaning.
	CleanCmd = ishell.Cmd{
		Name: "clean",
		Help: "Start fan cleaning",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return nil, d.StartFanCleaning()
		}),
	}

	// IntervalCmd reads or writes auto-clean interval.
	IntervalCmd = ishell.Cmd{
		Name: "interval",
		Help: "[DAYS] Read auto-clean interval in seconds, or set it in days",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			if len(c.Args) > 0 {
				days, err := strconv.ParseUint(c.Args[0], 10, 32)
				if err != nil {
					return nil, fmt.Errorf("invalid days %q: %w", c.Args[0], err)
				}
				return nil, d.SetAutoCleanInterval(uint32(days))
			}
			return d.AutoCleanInterval()
		}),
	}

	// ReadyCmd reads data-ready flag.
	ReadyCmd = ishell.Cmd{
		Name: "ready",
		Help: "Read data-ready flag",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return d.DataReady()
		}),
	}

	// ResetCmd resets the device.
	ResetCmd = ishell.Cmd{
		Name: "reset",
		Help: "Reset the device",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return nil, d.Reset()
		}),
	}

	// SleepCmd puts the device into sleep mode.
	SleepCmd = ishell.Cmd{
		Name: "sleep",
		Help: "Enter sleep mode",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return nil, d.Sleep()
		}),
	}

	// WakeUpCmd wakes up the device.
	WakeUpCmd = ishell.Cmd{
		Name: "wakeup",
		Help: "Leave sleep mode",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			return nil, d.WakeUp()
		}),
	}

	// StartCmd starts measurement in the background.
	StartCmd = ishell.Cmd{
		Name: "start",
		Help: "Start measurement",
		Func: WithDriver(func(c *ishell.Context, d *sps30.Driver) (interface{}, error) {
			if err := d.StartMeasurement(context.Background()); err != nil {
				return nil, err
			}
			ShellFrom(c).Shell.SetPrompt(busyPrompt)
			return nil, nil
		}),
	}

	// ReadCmd prints the latest sample.
	ReadCmd = ishell.Cmd{
		Name:    "read",
		Aliases: []string{"r"},
		Help:    "Print the latest measured values",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if !s.Measuring() {
				c.Err(sps30.ErrNotStarted)
				return
			}
			sample := s.Driver.GetMeasurement()
			if sample.IsEmpty() {
				c.Println("no sample available")
				return
			}
			s.Print(c, sample)
		},
	}

	// StopCmd stops measurement and releases the bus.
	StopCmd = ishell.Cmd{
		Name: "stop",
		Help: "Stop measurement",
		Func: func(c *ishell.Context) {
			s := ShellFrom(c)
			if !s.Measuring() {
				c.Err(sps30.ErrNotStarted)
				return
			}
			if err := s.Close(); err != nil {
				c.Err(err)
				return
			}
			c.Println("OK")
		},
	}
)

// Main is a helper to provide a single call in main.
func Main(open Opener) {
	flag.Parse()
	New(open).Run(flag.Args()...)
}
