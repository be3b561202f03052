package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 1.0, cfg.GlobalBrightness)
	assert.Equal(t, 60, cfg.LedCount)
	assert.Equal(t, "GRB", cfg.LedPixelOrder)
	assert.Equal(t, ":8090", cfg.Server.StatusAddr)
}

func TestLoadParsesYamlDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
led_count: 120
target_fps: 30
use_white_channel: true
groups:
  main:
    range_start: 0
    range_end: 120
    brightness: 0.8
    saturation: 1.0
    speed: 1.0
    scale: 1.0
    pattern_id: wave
    palette_id: sunset
palettes:
  sunset:
    stops:
      - [0.0, 1.0, 1.0]
      - [0.1, 1.0, 1.0]
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.LedCount)
	assert.Equal(t, 30.0, cfg.TargetFPS)
	assert.True(t, cfg.UseWhiteChannel)

	g, ok := cfg.Groups["main"]
	require.True(t, ok)
	assert.Equal(t, 120, g.RangeEnd)
	assert.Equal(t, "wave", g.PatternID)

	p, ok := cfg.Palettes["sunset"]
	require.True(t, ok)
	require.Len(t, p.Stops, 2)
	assert.Equal(t, 0.1, p.Stops[1][0])
}

func TestLoadDefaultsToLocalSinkNamedMain(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	main, ok := cfg.Sinks["main"]
	require.True(t, ok)
	assert.Equal(t, "local", main.Type)
	assert.Equal(t, 800000, main.SPISpeedHz)
}

func TestLoadParsesSinksBlock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
sinks:
  porch:
    type: udp
    udp_addr: 10.0.0.5:6454
    udp_mtu: 1400
  strip2:
    type: serial
    serial_port: /dev/ttyUSB0
    serial_baud: 115200
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	porch, ok := cfg.Sinks["porch"]
	require.True(t, ok)
	assert.Equal(t, "udp", porch.Type)
	assert.Equal(t, "10.0.0.5:6454", porch.UdpAddr)
	assert.Equal(t, 1400, porch.UdpMTU)

	strip2, ok := cfg.Sinks["strip2"]
	require.True(t, ok)
	assert.Equal(t, "serial", strip2.Type)
	assert.Equal(t, 115200, strip2.SerialBaud)
}
