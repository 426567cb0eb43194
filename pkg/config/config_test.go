package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gocanal "github.com/samsamfire/gocanal"
	"github.com/samsamfire/gocanal/pkg/can/canal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
[driver]
interface = canal
library   = /opt/canal/libtoucan.so
; serial and bitrate of the adapter
config    = 0;12345678;250
flags     = 0x4

[frame]
id    = 0x18FF0001
flags = 2
data  = de ad, 0xBE EF

[receive]
poll_interval = 20ms
label         = Received

[log]
level = debug
`

func TestDefault(t *testing.T) {
	cfg, err := Load("")
	require.Nil(t, err)
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, "canal", cfg.Interface)
	assert.Equal(t, canal.DefaultLibrary, cfg.Library)
	assert.Equal(t, "0;00005502;125", cfg.OpenConfig)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, gocanal.DemoFrame(), cfg.Frame())
	source, err := cfg.LabelSource()
	assert.Nil(t, err)
	assert.Equal(t, gocanal.LabelFromSent, source)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "canal.ini")
	require.Nil(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	cfg, err := Load(path)
	require.Nil(t, err)
	assert.Nil(t, cfg.Validate())
	assert.Equal(t, "/opt/canal/libtoucan.so", cfg.Library)
	assert.Equal(t, "0;12345678;250", cfg.OpenConfig)
	assert.EqualValues(t, 4, cfg.OpenFlags)
	assert.EqualValues(t, 0x18FF0001, cfg.FrameID)
	assert.EqualValues(t, 2, cfg.FrameFlags)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBE, 0xEF}, cfg.FrameData)
	assert.Equal(t, 20*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "received", cfg.Label)
	assert.Equal(t, "debug", cfg.LogLevel)

	frame := cfg.Frame()
	assert.EqualValues(t, 4, frame.DLC)
	assert.EqualValues(t, 2, frame.Flags)
}

func TestSpacedOpenConfig(t *testing.T) {
	cfg, err := Parse([]byte("[driver]\nconfig = 0 ; 12345678 ; 125\n"))
	require.Nil(t, err)
	assert.Equal(t, "0 ; 12345678 ; 125", cfg.OpenConfig)
	assert.Nil(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.ini"))
	assert.ErrorContains(t, err, "failed to load config")
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("[driver]\ninterface = virtual\nlibrary = localhost:18888\n"))
	require.Nil(t, err)
	assert.Equal(t, "virtual", cfg.Interface)
	assert.Equal(t, "localhost:18888", cfg.Library)
	assert.Equal(t, Default().FrameData, cfg.FrameData)
	assert.Nil(t, cfg.Validate())
}

func TestParseErrors(t *testing.T) {
	for _, doc := range []string{
		"[frame]\nid = zz\n",
		"[frame]\ndata = 11 2G\n",
		"[driver]\nflags = -1\n",
		"[receive]\npoll_interval = soon\n",
	} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, doc)
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(cfg *Config){
		"empty interface": func(cfg *Config) { cfg.Interface = "" },
		"bad open config": func(cfg *Config) { cfg.OpenConfig = "0;1" },
		"id too large":    func(cfg *Config) { cfg.FrameID = 0x20000000 },
		"too much data":   func(cfg *Config) { cfg.FrameData = make([]byte, 9) },
		"flags too large": func(cfg *Config) { cfg.FrameFlags = 0x100 },
		"poll interval":   func(cfg *Config) { cfg.PollInterval = 0 },
		"label":           func(cfg *Config) { cfg.Label = "both" },
		"log level":       func(cfg *Config) { cfg.LogLevel = "loud" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		assert.Error(t, cfg.Validate(), name)
	}

	// Open config is only checked for the canal interface
	cfg := Default()
	cfg.Interface = "virtual"
	cfg.OpenConfig = ""
	assert.Nil(t, cfg.Validate())
}

func TestParseData(t *testing.T) {
	data, err := ParseData("11 22 33 44")
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x11, 0x22, 0x33, 0x44}, data)
	data, err = ParseData("")
	assert.Nil(t, err)
	assert.Empty(t, data)
	_, err = ParseData("100")
	assert.Error(t, err)
}
