package sps30

import (
	"flag"
	"os"
	"time"

	"github.com/robotalks/sps30.go/pkg/sps30/i2c"
)

// Config defines the configurations for the driver.
type Config struct {
	// Bus is the I2C bus name, empty for the first available.
	Bus         string
	Address     uint
	Period      time.Duration
	SettleDelay time.Duration
	RingDepth   int
}

var defaultConfig = Config{
	Address:     uint(i2c.DefaultAddress),
	Period:      DefaultPeriod,
	SettleDelay: DefaultSettleDelay,
	RingDepth:   RingDepth,
}

func init() {
	if val := os.Getenv("SPS30_I2C_BUS"); val != "" {
		defaultConfig.Bus = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&defaultConfig.Bus, "bus", defaultConfig.Bus, "I2C bus name, empty for the first one.")
	flag.UintVar(&defaultConfig.Address, "addr", defaultConfig.Address, "I2C address of the sensor.")
	flag.DurationVar(&defaultConfig.Period, "period", defaultConfig.Period, "Sampling period.")
	flag.DurationVar(&defaultConfig.SettleDelay, "settle", defaultConfig.SettleDelay, "Delay after starting measurement.")
	flag.IntVar(&defaultConfig.RingDepth, "depth", defaultConfig.RingDepth, "Depth of the sample buffer.")
}

// Default gets default config.
func Default() *Config {
	return &defaultConfig
}

// NewConfig creates a config with defaults.
func NewConfig() *Config {
	conf := defaultConfig
	return &conf
}

// NewDriver creates a Driver on the Transport using the config.
func (c *Config) NewDriver(t Transport) *Driver {
	d := New(t)
	d.Period = c.Period
	d.SettleDelay = c.SettleDelay
	d.RingDepth = c.RingDepth
	return d
}

// Open opens the I2C bus and creates the Driver.
func (c *Config) Open() (*Driver, error) {
	t, err := i2c.Open(c.Bus, uint16(c.Address))
	if err != nil {
		return nil, err
	}
	return c.NewDriver(t), nil
}
