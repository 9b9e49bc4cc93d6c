package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type AudioConfig struct {
	SampleRate  int    `mapstructure:"sample_rate"`
	Channels    int    `mapstructure:"channels"`
	InputFormat string `mapstructure:"input_format"`
	InputDevice string `mapstructure:"input_device"`
	FFmpegPath  string `mapstructure:"ffmpeg_path"`
}

type Config struct {
	Mode          string        `mapstructure:"mode"`
	Port          int           `mapstructure:"port"`
	APIBaseURL    string        `mapstructure:"api_base_url"`
	RoomBaseURL   string        `mapstructure:"room_base_url"`
	Secret        string        `mapstructure:"secret"`
	SignalTimeout time.Duration `mapstructure:"signal_timeout"`
	RoomAddress   string        `mapstructure:"room_address"`
	RoomToken     string        `mapstructure:"room_token"`
	Audio         AudioConfig   `mapstructure:"audio"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("api_base_url", "http://localhost:8080")
	v.SetDefault("room_base_url", "https://rooms.numerologist.dev")
	v.SetDefault("secret", "dev-secret-change-me")
	v.SetDefault("signal_timeout", "10s")
	v.SetDefault("audio.sample_rate", 48000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.input_format", "pulse")
	v.SetDefault("audio.input_device", "default")
	v.SetDefault("audio.ffmpeg_path", "ffmpeg")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
