// Package config loads the tester configuration: calibration constants, pin
// wiring and hardware selection.
//
// Precedence, lowest first: built-in defaults, YAML file, env file and process
// environment, command-line flags (applied by the caller).
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/sweeney/atx-psu-tester/internal/adc"
	"github.com/sweeney/atx-psu-tester/internal/display"
	"github.com/sweeney/atx-psu-tester/internal/gpio"
	"github.com/sweeney/atx-psu-tester/internal/logic"
)

// Config represents the application configuration.
type Config struct {
	Cycle             time.Duration `yaml:"cycle"`
	Heartbeat         time.Duration `yaml:"heartbeat"`
	Samples           int           `yaml:"samples"`
	PresenceThreshold float64       `yaml:"presence_threshold"`
	Diagnostics       bool          `yaml:"diagnostics"`

	ADC     ADCConfig     `yaml:"adc"`
	Rails   RailsConfig   `yaml:"rails"`
	GPIO    GPIOConfig    `yaml:"gpio"`
	Display DisplayConfig `yaml:"display"`
}

// ADCConfig selects the analog source and describes the converter.
type ADCConfig struct {
	Source           string  `yaml:"source"` // "iio" or "serial"
	ReferenceVoltage float64 `yaml:"reference_voltage"`
	FullScale        int     `yaml:"full_scale"`
	IIODevice        string  `yaml:"iio_device"`
	SerialPort       string  `yaml:"serial_port"`
	BaudRate         int     `yaml:"baud_rate"`
}

// RailConfig is the divider, calibration and tolerance of one rail.
type RailConfig struct {
	Channel     int     `yaml:"channel"`
	RTop        float64 `yaml:"r_top"`    // ohms
	RBottom     float64 `yaml:"r_bottom"` // ohms
	Calibration float64 `yaml:"calibration"`
	Min         float64 `yaml:"min"`
	Max         float64 `yaml:"max"`
}

// RailsConfig holds the three rails.
type RailsConfig struct {
	V12 RailConfig `yaml:"12v"`
	V5  RailConfig `yaml:"5v"`
	V3  RailConfig `yaml:"3v3"`
}

// GPIOConfig maps buttons and MOSFET gates to line offsets.
type GPIOConfig struct {
	Chip   string `yaml:"chip"`
	Menu   int    `yaml:"menu"`
	Load   int    `yaml:"load"`
	Spare  int    `yaml:"spare"`
	FET12V int    `yaml:"fet_12v"`
	FET5V  int    `yaml:"fet_5v"`
	FET3V3 int    `yaml:"fet_3v3"`
}

// DisplayConfig selects the display.
type DisplayConfig struct {
	Kind string          `yaml:"kind"` // "hd44780", "terminal" or "none"
	LCD  display.LCDPins `yaml:"lcd"`
}

// Display kinds.
const (
	DisplayHD44780  = "hd44780"
	DisplayTerminal = "terminal"
	DisplayNone     = "none"
)

// Default returns the configuration of the reference build: 5.0 V reference,
// 10-bit converter and the measured divider resistors.
func Default() *Config {
	return &Config{
		Cycle:             250 * time.Millisecond,
		Heartbeat:         15 * time.Minute,
		Samples:           logic.DefaultSamples,
		PresenceThreshold: logic.DefaultPresenceThreshold,
		ADC: ADCConfig{
			Source:           adc.KindSerial,
			ReferenceVoltage: 5.0,
			FullScale:        1023,
			IIODevice:        "/sys/bus/iio/devices/iio:device0",
			SerialPort:       "/dev/ttyACM0",
			BaudRate:         adc.DefaultBaudRate,
		},
		Rails: RailsConfig{
			V12: RailConfig{Channel: 0, RTop: 6730, RBottom: 3238, Calibration: 1.0025, Min: 11.40, Max: 12.60},
			V5:  RailConfig{Channel: 1, RTop: 9890, RBottom: 10000, Calibration: 1.0163, Min: 4.75, Max: 5.25},
			V3:  RailConfig{Channel: 2, RTop: 10020, RBottom: 9860, Calibration: 0.9906, Min: 3.135, Max: 3.465},
		},
		GPIO: GPIOConfig{
			Chip:   gpio.DefaultChip,
			Menu:   gpio.DefaultPinMenu,
			Load:   gpio.DefaultPinLoad,
			Spare:  gpio.DefaultPinSpare,
			FET12V: gpio.DefaultPinFET12V,
			FET5V:  gpio.DefaultPinFET5V,
			FET3V3: gpio.DefaultPinFET3V3,
		},
		Display: DisplayConfig{
			Kind: DisplayHD44780,
			LCD:  display.DefaultLCDPins,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist the
// defaults are returned; missing fields keep their defaults.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Environment variable overrides.
const (
	EnvADCSource  = "ATX_ADC_SOURCE"
	EnvSerialPort = "ATX_SERIAL_PORT"
	EnvIIODevice  = "ATX_IIO_DEVICE"
	EnvGPIOChip   = "ATX_GPIO_CHIP"
	EnvDisplay    = "ATX_DISPLAY"
)

// ApplyEnv overrides hardware selection from an env file and the process
// environment; process variables win. A missing env file is not an error.
// An empty filename reads only the process environment.
func (c *Config) ApplyEnv(filename string) error {
	vars := map[string]string{}
	if filename != "" {
		fileVars, err := godotenv.Read(filename)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to read env file: %w", err)
		}
		for k, v := range fileVars {
			vars[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := vars[key]
		return v, ok
	}

	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set(EnvADCSource, &c.ADC.Source)
	set(EnvSerialPort, &c.ADC.SerialPort)
	set(EnvIIODevice, &c.ADC.IIODevice)
	set(EnvGPIOChip, &c.GPIO.Chip)
	set(EnvDisplay, &c.Display.Kind)
	return nil
}

// Validate reports the first configuration error.
func (c *Config) Validate() error {
	if c.Cycle <= 0 {
		return fmt.Errorf("cycle must be positive, got %v", c.Cycle)
	}
	if c.Samples <= 0 {
		return fmt.Errorf("samples must be positive, got %d", c.Samples)
	}
	if c.ADC.ReferenceVoltage <= 0 {
		return fmt.Errorf("adc.reference_voltage must be positive, got %v", c.ADC.ReferenceVoltage)
	}
	if c.ADC.FullScale <= 0 {
		return fmt.Errorf("adc.full_scale must be positive, got %d", c.ADC.FullScale)
	}
	switch c.ADC.Source {
	case adc.KindIIO, adc.KindSerial:
	default:
		return fmt.Errorf("adc.source must be %q or %q, got %q", adc.KindIIO, adc.KindSerial, c.ADC.Source)
	}
	switch c.Display.Kind {
	case DisplayHD44780, DisplayTerminal, DisplayNone:
	default:
		return fmt.Errorf("display.kind must be %q, %q or %q, got %q", DisplayHD44780, DisplayTerminal, DisplayNone, c.Display.Kind)
	}

	rails := []struct {
		name string
		r    RailConfig
	}{{"12v", c.Rails.V12}, {"5v", c.Rails.V5}, {"3v3", c.Rails.V3}}
	for _, rr := range rails {
		name, r := rr.name, rr.r
		if r.RTop <= 0 || r.RBottom <= 0 {
			return fmt.Errorf("rails.%s: divider resistances must be positive", name)
		}
		if r.Calibration <= 0 {
			return fmt.Errorf("rails.%s: calibration must be positive", name)
		}
		if r.Min > r.Max {
			return fmt.Errorf("rails.%s: min %v above max %v", name, r.Min, r.Max)
		}
	}

	pins := []int{c.GPIO.Menu, c.GPIO.Load, c.GPIO.Spare, c.GPIO.FET12V, c.GPIO.FET5V, c.GPIO.FET3V3}
	if c.Display.Kind == DisplayHD44780 {
		l := c.Display.LCD
		pins = append(pins, l.RS, l.E, l.D4, l.D5, l.D6, l.D7)
	}
	seen := map[int]bool{}
	for _, p := range pins {
		if seen[p] {
			return fmt.Errorf("gpio line %d assigned twice", p)
		}
		seen[p] = true
	}
	return nil
}

// RailConfigs converts the rail settings for the engine, indexed by logic.Rail.
func (c *Config) RailConfigs() [logic.RailCount]logic.RailConfig {
	conv := func(rail logic.Rail, r RailConfig) logic.RailConfig {
		return logic.RailConfig{
			Rail:        rail,
			Channel:     r.Channel,
			Divider:     logic.Divider{Top: r.RTop, Bottom: r.RBottom},
			Calibration: r.Calibration,
			Band:        logic.ToleranceBand{Min: r.Min, Max: r.Max},
		}
	}
	return [logic.RailCount]logic.RailConfig{
		conv(logic.Rail12V, c.Rails.V12),
		conv(logic.Rail5V, c.Rails.V5),
		conv(logic.Rail3V3, c.Rails.V3),
	}
}

// EngineConfig returns the decision engine configuration.
func (c *Config) EngineConfig() logic.Config {
	var bands [logic.RailCount]logic.ToleranceBand
	for _, rc := range c.RailConfigs() {
		bands[rc.Rail] = rc.Band
	}
	return logic.Config{
		Bands:             bands,
		PresenceThreshold: c.PresenceThreshold,
		ADC:               c.ADCModel(),
		Diagnostics:       c.Diagnostics,
	}
}

// ADCModel returns the converter description.
func (c *Config) ADCModel() logic.ADC {
	return logic.ADC{ReferenceVoltage: c.ADC.ReferenceVoltage, FullScale: c.ADC.FullScale}
}

// ADCOptions returns the options for adc.Open.
func (c *Config) ADCOptions() adc.Options {
	return adc.Options{
		Kind:       c.ADC.Source,
		IIODevice:  c.ADC.IIODevice,
		SerialPort: c.ADC.SerialPort,
		BaudRate:   c.ADC.BaudRate,
	}
}

// ButtonPins returns the button wiring.
func (c *Config) ButtonPins() gpio.ButtonPins {
	return gpio.ButtonPins{Menu: c.GPIO.Menu, Load: c.GPIO.Load, Spare: c.GPIO.Spare}
}

// SwitchPins returns the MOSFET gate wiring.
func (c *Config) SwitchPins() gpio.SwitchPins {
	return gpio.SwitchPins{FET12V: c.GPIO.FET12V, FET5V: c.GPIO.FET5V, FET3V3: c.GPIO.FET3V3}
}
