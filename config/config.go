package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Server struct {
		Port string `mapstructure:"port"`
	} `mapstructure:"server"`
	JWT struct {
		SecretKey  string        `mapstructure:"secret_key"`
		Issuer     string        `mapstructure:"issuer"`
		Audience   string        `mapstructure:"audience"`
		AccessTTL  time.Duration `mapstructure:"access_ttl"`
		RefreshTTL time.Duration `mapstructure:"refresh_ttl"`
	} `mapstructure:"jwt"`
	Auth struct {
		// Mode selects the edge authentication policy: "strict" rejects every
		// request without a valid token, "conditional" lets GET requests
		// through without identity. Strict is the default.
		Mode                string        `mapstructure:"mode"`
		ReuseAlertThreshold int           `mapstructure:"reuse_alert_threshold"`
		ReuseAlertWindow    time.Duration `mapstructure:"reuse_alert_window"`
	} `mapstructure:"auth"`
	UserService struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"userservice"`
	Downstream struct {
		BaseURL string `mapstructure:"base_url"`
	} `mapstructure:"downstream"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	if AppConfig.Auth.Mode == "" {
		AppConfig.Auth.Mode = "strict"
	}
}
