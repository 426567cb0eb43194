// Package config loads the client configuration from an INI file.
//
//	[driver]
//	interface = canal
//	library   = ./canal.dll
//	config    = 0;00005502;125
//	flags     = 0
//
//	[frame]
//	id    = 0x123
//	flags = 0
//	data  = 11 22 33 44
//
//	[receive]
//	poll_interval = 100ms
//	label         = sent
//
//	[log]
//	level = info
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	gocanal "github.com/samsamfire/gocanal"
	"github.com/samsamfire/gocanal/pkg/can"
	"github.com/samsamfire/gocanal/pkg/can/canal"
	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

type Config struct {
	// [driver]
	Interface  string
	Library    string // shared library for canal, channel for the other interfaces
	OpenConfig string
	OpenFlags  uint32
	// [frame]
	FrameID    uint32
	FrameFlags uint32
	FrameData  []byte
	// [receive]
	PollInterval time.Duration
	Label        string
	// [log]
	LogLevel string
}

// Default returns the configuration of the demo client
func Default() *Config {
	return &Config{
		Interface:    "canal",
		Library:      canal.DefaultLibrary,
		OpenConfig:   "0;00005502;125",
		OpenFlags:    0,
		FrameID:      0x123,
		FrameFlags:   0,
		FrameData:    []byte{0x11, 0x22, 0x33, 0x44},
		PollInterval: canal.DefaultPollInterval,
		Label:        gocanal.LabelFromSent.String(),
		LogLevel:     "info",
	}
}

// ';' separates the fields of the CANAL config string, e.g. "0 ; 12345678 ; 125",
// comments must be on their own line
var loadOptions = ini.LoadOptions{IgnoreInlineComment: true}

// Load reads path on top of the defaults. An empty path only returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	file, err := ini.LoadSources(loadOptions, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %v : %w", path, err)
	}
	if err := cfg.apply(file); err != nil {
		return nil, fmt.Errorf("invalid config %v : %w", path, err)
	}
	return cfg, nil
}

// Parse reads an in-memory INI document on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	file, err := ini.LoadSources(loadOptions, data)
	if err != nil {
		return nil, err
	}
	if err := cfg.apply(file); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (cfg *Config) apply(file *ini.File) error {
	driver := file.Section("driver")
	cfg.Interface = driver.Key("interface").MustString(cfg.Interface)
	cfg.Library = driver.Key("library").MustString(cfg.Library)
	cfg.OpenConfig = driver.Key("config").MustString(cfg.OpenConfig)
	if key, err := driver.GetKey("flags"); err == nil {
		flags, err := parseUint32(key.String())
		if err != nil {
			return fmt.Errorf("[driver] flags : %w", err)
		}
		cfg.OpenFlags = flags
	}

	frame := file.Section("frame")
	if key, err := frame.GetKey("id"); err == nil {
		id, err := parseUint32(key.String())
		if err != nil {
			return fmt.Errorf("[frame] id : %w", err)
		}
		cfg.FrameID = id
	}
	if key, err := frame.GetKey("flags"); err == nil {
		flags, err := parseUint32(key.String())
		if err != nil {
			return fmt.Errorf("[frame] flags : %w", err)
		}
		cfg.FrameFlags = flags
	}
	if key, err := frame.GetKey("data"); err == nil {
		data, err := ParseData(key.String())
		if err != nil {
			return fmt.Errorf("[frame] data : %w", err)
		}
		cfg.FrameData = data
	}

	receive := file.Section("receive")
	if key, err := receive.GetKey("poll_interval"); err == nil {
		interval, err := key.Duration()
		if err != nil {
			return fmt.Errorf("[receive] poll_interval : %w", err)
		}
		cfg.PollInterval = interval
	}
	cfg.Label = strings.ToLower(receive.Key("label").MustString(cfg.Label))

	cfg.LogLevel = file.Section("log").Key("level").MustString(cfg.LogLevel)
	return nil
}

// LabelSource returns the parsed [receive] label
func (cfg *Config) LabelSource() (gocanal.LabelSource, error) {
	return gocanal.ParseLabelSource(cfg.Label)
}

// Validate checks the values that would otherwise only fail at the driver
func (cfg *Config) Validate() error {
	if cfg.Interface == "" {
		return fmt.Errorf("no CAN interface given")
	}
	if cfg.Interface == "canal" {
		if _, err := canal.ParseConfigString(cfg.OpenConfig); err != nil {
			return err
		}
	}
	if cfg.FrameID > can.CanEffMask {
		return fmt.Errorf("frame id 0x%X does not fit in 29 bits", cfg.FrameID)
	}
	if len(cfg.FrameData) > can.MaxDLC {
		return fmt.Errorf("frame data has %d bytes, at most %d allowed", len(cfg.FrameData), can.MaxDLC)
	}
	if cfg.FrameFlags > 0xFF {
		return fmt.Errorf("frame flags 0x%X do not fit in 8 bits", cfg.FrameFlags)
	}
	if cfg.PollInterval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %v", cfg.PollInterval)
	}
	if _, err := gocanal.ParseLabelSource(cfg.Label); err != nil {
		return err
	}
	if _, err := log.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

// Frame builds the frame sent once at startup
func (cfg *Config) Frame() can.Frame {
	frame := can.NewFrame(cfg.FrameID, uint8(cfg.FrameFlags), uint8(len(cfg.FrameData)))
	copy(frame.Data[:], cfg.FrameData)
	return frame
}

// ParseData parses hex bytes separated by spaces or commas, e.g. "11 22 0x33,44"
func ParseData(s string) ([]byte, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	data := make([]byte, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimPrefix(strings.ToLower(field), "0x")
		value, err := strconv.ParseUint(field, 16, 8)
		if err != nil {
			return nil, fmt.Errorf("invalid data byte %q", field)
		}
		data = append(data, uint8(value))
	}
	return data, nil
}

// Accepts decimal, 0x hexadecimal, 0o octal and 0b binary
func parseUint32(s string) (uint32, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(s), 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(value), nil
}
