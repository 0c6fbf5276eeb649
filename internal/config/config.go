package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/movement"
	"github.com/teslashibe/go-museum/pkg/tour"
)

// EnvPrefix prefixes every environment override, e.g. MUSEUM_SERVER_ADDR.
const EnvPrefix = "MUSEUM"

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Stops    StopsConfig    `mapstructure:"stops"`
	Bounds   BoundsConfig   `mapstructure:"bounds"`
	Tour     tour.Options   `mapstructure:"tour"`
	Movement MovementConfig `mapstructure:"movement"`
	Speech   SpeechConfig   `mapstructure:"speech"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig configures the HTTP front door
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	StaticDir    string `mapstructure:"static_dir"`
	FrameRate    int    `mapstructure:"frame_rate"`
	AllowOrigins string `mapstructure:"allow_origins"`
	// MonitorInterval is how often session snapshots go to monitors.
	MonitorInterval time.Duration `mapstructure:"monitor_interval"`
	// Spawn is the rig position used when a browser does not report one.
	Spawn [3]float64 `mapstructure:"spawn"`
}

// StopsConfig says where the stop list comes from. Sources are tried in the
// order url, sheet, file, embedded.
type StopsConfig struct {
	URL      string      `mapstructure:"url"`
	File     string      `mapstructure:"file"`
	Watch    bool        `mapstructure:"watch"`
	Embedded bool        `mapstructure:"embedded"`
	Sheet    SheetConfig `mapstructure:"sheet"`
	// Metadata is a YAML/JSON file of painting details keyed by stop code.
	Metadata string `mapstructure:"metadata"`
}

// SheetConfig points at a curator spreadsheet
type SheetConfig struct {
	ID          string `mapstructure:"id"`
	Range       string `mapstructure:"range"`
	Credentials string `mapstructure:"credentials"`
	APIKey      string `mapstructure:"api_key"`
}

// BoundsConfig configures the walkable rectangle
type BoundsConfig struct {
	Padding  float64       `mapstructure:"padding"`
	FloorY   float64       `mapstructure:"floor_y"`
	Tweaks   bounds.Tweaks `mapstructure:"tweaks"`
	Fallback bounds.Bounds `mapstructure:"fallback"`
	// Model is a glTF file measured for the fallback rectangle.
	Model string `mapstructure:"model"`
}

// MovementConfig configures free movement
type MovementConfig struct {
	SpeedLevel      int           `mapstructure:"speed_level"`
	UnitsPerLevel   float64       `mapstructure:"units_per_level"`
	WallHitInterval time.Duration `mapstructure:"wall_hit_interval"`
}

// SpeechConfig points at the speech gateway
type SpeechConfig struct {
	URL      string `mapstructure:"url"`
	Language string `mapstructure:"language"`
}

// LogConfig configures logging
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the configuration the museum ships with
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            Addr(),
			StaticDir:       "./web",
			FrameRate:       60,
			AllowOrigins:    "*",
			MonitorInterval: 500 * time.Millisecond,
		},
		Stops: StopsConfig{
			Embedded: true,
			Sheet:    SheetConfig{Range: "Stops!A1:K200"},
		},
		Bounds: BoundsConfig{
			Padding:  bounds.DefaultPadding,
			Fallback: bounds.Fallback(),
		},
		Tour: tour.Options{
			Speed:       1,
			AutoAdvance: true,
		},
		Movement: MovementConfig{
			SpeedLevel:      3,
			UnitsPerLevel:   0.05,
			WallHitInterval: 900 * time.Millisecond,
		},
		Speech: SpeechConfig{Language: "pt-PT"},
		Log:    LogConfig{Level: LogLevel()},
	}
}

// Load reads configuration from path (YAML or JSON) and the environment. An
// empty path looks for museum.yaml in the working directory and carries on
// with defaults when none exists.
func Load(path string) (*Config, error) {
	cfg := Default()
	v := viper.New()
	setDefaults(v, cfg)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("museum")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment variable overrides
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setDefaults registers every key so env overrides apply even without a file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.addr", cfg.Server.Addr)
	v.SetDefault("server.static_dir", cfg.Server.StaticDir)
	v.SetDefault("server.frame_rate", cfg.Server.FrameRate)
	v.SetDefault("server.allow_origins", cfg.Server.AllowOrigins)
	v.SetDefault("server.monitor_interval", cfg.Server.MonitorInterval)

	v.SetDefault("stops.url", cfg.Stops.URL)
	v.SetDefault("stops.file", cfg.Stops.File)
	v.SetDefault("stops.watch", cfg.Stops.Watch)
	v.SetDefault("stops.embedded", cfg.Stops.Embedded)
	v.SetDefault("stops.metadata", cfg.Stops.Metadata)
	v.SetDefault("stops.sheet.id", cfg.Stops.Sheet.ID)
	v.SetDefault("stops.sheet.range", cfg.Stops.Sheet.Range)
	v.SetDefault("stops.sheet.credentials", cfg.Stops.Sheet.Credentials)
	v.SetDefault("stops.sheet.api_key", cfg.Stops.Sheet.APIKey)

	v.SetDefault("bounds.padding", cfg.Bounds.Padding)
	v.SetDefault("bounds.floor_y", cfg.Bounds.FloorY)
	v.SetDefault("bounds.model", cfg.Bounds.Model)
	v.SetDefault("bounds.tweaks.north", cfg.Bounds.Tweaks.North)
	v.SetDefault("bounds.tweaks.south", cfg.Bounds.Tweaks.South)
	v.SetDefault("bounds.tweaks.east", cfg.Bounds.Tweaks.East)
	v.SetDefault("bounds.tweaks.west", cfg.Bounds.Tweaks.West)
	v.SetDefault("bounds.fallback.min_x", cfg.Bounds.Fallback.MinX)
	v.SetDefault("bounds.fallback.max_x", cfg.Bounds.Fallback.MaxX)
	v.SetDefault("bounds.fallback.min_z", cfg.Bounds.Fallback.MinZ)
	v.SetDefault("bounds.fallback.max_z", cfg.Bounds.Fallback.MaxZ)
	v.SetDefault("bounds.fallback.floor_y", cfg.Bounds.Fallback.FloorY)

	v.SetDefault("tour.speed", cfg.Tour.Speed)
	v.SetDefault("tour.reduced_motion", cfg.Tour.ReducedMotion)
	v.SetDefault("tour.tts", cfg.Tour.TTS)
	v.SetDefault("tour.auto_advance", cfg.Tour.AutoAdvance)
	v.SetDefault("tour.invert_pitch", cfg.Tour.InvertPitch)
	v.SetDefault("tour.ambient", cfg.Tour.Ambient)

	v.SetDefault("movement.speed_level", cfg.Movement.SpeedLevel)
	v.SetDefault("movement.units_per_level", cfg.Movement.UnitsPerLevel)
	v.SetDefault("movement.wall_hit_interval", cfg.Movement.WallHitInterval)

	v.SetDefault("speech.url", cfg.Speech.URL)
	v.SetDefault("speech.language", cfg.Speech.Language)

	v.SetDefault("log.level", cfg.Log.Level)
}

// Validate rejects settings the core cannot run with.
func (c *Config) Validate() error {
	if c.Server.FrameRate <= 0 {
		return fmt.Errorf("config: server.frame_rate must be positive, got %d", c.Server.FrameRate)
	}
	if c.Bounds.Padding < 0 {
		return fmt.Errorf("config: bounds.padding must not be negative, got %g", c.Bounds.Padding)
	}
	if c.Tour.Speed < tour.MinSpeed || c.Tour.Speed > tour.MaxSpeed {
		return fmt.Errorf("config: tour.speed must be in [%g, %g], got %g", tour.MinSpeed, tour.MaxSpeed, c.Tour.Speed)
	}
	if c.Movement.SpeedLevel < movement.MinSpeedLevel || c.Movement.SpeedLevel > movement.MaxSpeedLevel {
		return fmt.Errorf("config: movement.speed_level must be in [%d, %d], got %d",
			movement.MinSpeedLevel, movement.MaxSpeedLevel, c.Movement.SpeedLevel)
	}
	if c.Stops.Sheet.ID != "" && c.Stops.Sheet.Credentials == "" && c.Stops.Sheet.APIKey == "" {
		return errors.New("config: stops.sheet needs credentials or api_key")
	}
	return nil
}
