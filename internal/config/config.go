package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the document described in spec.md §6: global pipeline
// settings, groups, palettes, pattern sources, and the ArtNet/TimeSync
// blocks. It is consumed, not produced, by this process.
type Config struct {
	GlobalBrightness   float64 `mapstructure:"global_brightness"`
	GlobalSaturation   float64 `mapstructure:"global_saturation"`
	GlobalColorTemp    float64 `mapstructure:"global_color_temp"`
	GlobalColorR       int     `mapstructure:"global_color_r"`
	GlobalColorG       int     `mapstructure:"global_color_g"`
	GlobalColorB       int     `mapstructure:"global_color_b"`
	UseWhiteChannel    bool    `mapstructure:"use_white_channel"`
	RGBWAlgorithm      string  `mapstructure:"rgbw_algorithm"`
	WhiteLEDTemp       float64 `mapstructure:"white_led_temperature"`
	Calibration        bool    `mapstructure:"calibration"`
	Gamma              float64 `mapstructure:"gamma"`
	LedCount           int     `mapstructure:"led_count"`
	LedPixelOrder      string  `mapstructure:"led_pixel_order"`
	TargetFPS          float64 `mapstructure:"target_fps"`

	Groups   map[string]GroupConfig   `mapstructure:"groups"`
	Palettes map[string]PaletteConfig `mapstructure:"palettes"`
	Patterns map[string]string        `mapstructure:"functions"`
	Sinks    map[string]SinkConfig    `mapstructure:"sinks"`

	ArtNet   ArtNetConfig   `mapstructure:"artnet"`
	TimeSync TimeSyncConfig `mapstructure:"timesync"`

	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Cluster  ClusterConfig  `mapstructure:"cluster"`
	Mqtt     MqttConfig     `mapstructure:"mqtt"`
}

// GroupConfig is the on-disk form of a Group record (spec.md §3).
type GroupConfig struct {
	RangeStart  int     `mapstructure:"range_start"`
	RangeEnd    int     `mapstructure:"range_end"`
	Brightness  float64 `mapstructure:"brightness"`
	Saturation  float64 `mapstructure:"saturation"`
	Speed       float64 `mapstructure:"speed"`
	Scale       float64 `mapstructure:"scale"`
	PatternID   string  `mapstructure:"pattern_id"`
	PaletteID   string  `mapstructure:"palette_id"`
	SinkBinding string  `mapstructure:"sink_binding"`
}

// PaletteConfig is a list of (hue, saturation, value) stops.
type PaletteConfig struct {
	Stops [][3]float64 `mapstructure:"stops"`
}

// SinkConfig binds a GroupConfig.SinkBinding ID to a concrete output
// transport. Type selects which of the remaining fields apply:
//
//	"local"  - SPI-attached strip via the HAL (SPIBus/SPIDevice/SPISpeedHz)
//	"serial" - USB/UART strip controller (SerialPort/SerialBaud)
//	"udp"    - remote pixel-pusher style UDP sink (UdpAddr/UdpMTU)
//	"mqtt"   - MQTT-published frames (MqttBroker/MqttClientID/MqttTopic/MqttQoS)
type SinkConfig struct {
	Type string `mapstructure:"type"`

	SPIBus     int `mapstructure:"spi_bus"`
	SPIDevice  int `mapstructure:"spi_device"`
	SPISpeedHz int `mapstructure:"spi_speed_hz"`

	SerialPort string `mapstructure:"serial_port"`
	SerialBaud int    `mapstructure:"serial_baud"`

	UdpAddr string `mapstructure:"udp_addr"`
	UdpMTU  int    `mapstructure:"udp_mtu"`

	MqttBroker   string `mapstructure:"mqtt_broker"`
	MqttClientID string `mapstructure:"mqtt_client_id"`
	MqttTopic    string `mapstructure:"mqtt_topic"`
	MqttQoS      byte   `mapstructure:"mqtt_qos"`
}

// ArtNetConfig is the ArtNet/sACN ingestion block of spec.md §6.
type ArtNetConfig struct {
	Enabled              bool `mapstructure:"enable_artnet"`
	Universe             int  `mapstructure:"artnet_universe"`
	ChannelOffset        int  `mapstructure:"artnet_channel_offset"`
	GroupSize            int  `mapstructure:"artnet_group_size"`
	FrameInterpolation   bool `mapstructure:"artnet_frame_interpolation"`
	FrameInterpSize      int  `mapstructure:"artnet_frame_interp_size"`
	SpatialSmoothing     bool `mapstructure:"artnet_spatial_smoothing"`
	SpatialSize          int  `mapstructure:"artnet_spatial_size"`
}

// TimeSyncConfig is the cross-node time base block of spec.md §6.
type TimeSyncConfig struct {
	Enabled          bool    `mapstructure:"enable_sync"`
	MasterMode       bool    `mapstructure:"sync_master_mode"`
	SyncInterval     float64 `mapstructure:"sync_interval"`
}

// ServerConfig is the (added) status/metrics HTTP surface.
type ServerConfig struct {
	StatusAddr string `mapstructure:"status_addr"`
}

// DatabaseConfig is the (added) PatternStore location.
type DatabaseConfig struct {
	Path string `mapstructure:"db_path"`
}

// LoggerConfig mirrors the teacher's logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// ClusterConfig is the (added) redis pub/sub status fan-out block.
type ClusterConfig struct {
	RedisAddr string `mapstructure:"redis_addr"`
	Channel   string `mapstructure:"channel"`
}

// MqttConfig is the (added) MqttSink block.
type MqttConfig struct {
	Broker   string `mapstructure:"broker"`
	Topic    string `mapstructure:"topic"`
	ClientID string `mapstructure:"client_id"`
}

// Load reads configuration from file and environment variables,
// following the teacher's viper layering: explicit path, then
// conventional search locations, then env var overrides. A config file
// that does not exist leaves the defaults in place.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("LEDCORE")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("global_brightness", 1.0)
	v.SetDefault("global_saturation", 1.0)
	v.SetDefault("global_color_temp", 6500.0)
	v.SetDefault("global_color_r", 255)
	v.SetDefault("global_color_g", 255)
	v.SetDefault("global_color_b", 255)
	v.SetDefault("use_white_channel", false)
	v.SetDefault("rgbw_algorithm", "legacy")
	v.SetDefault("white_led_temperature", 5000.0)
	v.SetDefault("calibration", false)
	v.SetDefault("gamma", 2.2)
	v.SetDefault("led_count", 60)
	v.SetDefault("led_pixel_order", "GRB")
	v.SetDefault("target_fps", 60.0)

	v.SetDefault("artnet.enable_artnet", false)
	v.SetDefault("artnet.artnet_group_size", 1)
	v.SetDefault("artnet.artnet_frame_interp_size", 1)
	v.SetDefault("artnet.artnet_spatial_size", 1)

	v.SetDefault("timesync.enable_sync", false)
	v.SetDefault("timesync.sync_master_mode", false)
	v.SetDefault("timesync.sync_interval", 1.0)

	v.SetDefault("server.status_addr", ":8090")
	v.SetDefault("database.db_path", "./data/ledcore.db")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.file", "./logs/ledcore.log")
	v.SetDefault("logger.max_size_mb", 50)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age_days", 30)

	v.SetDefault("cluster.channel", "ledcore:status")
	v.SetDefault("mqtt.client_id", "ledcore")

	v.SetDefault("sinks.main.type", "local")
	v.SetDefault("sinks.main.spi_bus", 0)
	v.SetDefault("sinks.main.spi_device", 0)
	v.SetDefault("sinks.main.spi_speed_hz", 800000)
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".ledcore")
}
