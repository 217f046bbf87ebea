package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Auth     Auth
	Logger   Logger
}

type Server struct {
	Port string
	Mode string
}

type Database struct {
	DSN          string
	MaxOpenConns int
	MaxIdleConns int
}

// Auth holds the challenge protocol knobs. Defaults mirror the wire contract
// (5 nonce requests per IP per minute, 5 minute nonce validity) and should
// only be changed in lockstep with clients.
type Auth struct {
	NonceTTL        time.Duration
	NonceRateLimit  int
	NonceRateWindow time.Duration
}

type Logger struct {
	Development bool
	Level       string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("database.maxopenconns", 10)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("auth.noncettl", 5*time.Minute)
	v.SetDefault("auth.nonceratelimit", 5)
	v.SetDefault("auth.nonceratewindow", time.Minute)
	v.SetDefault("logger.development", false)
	v.SetDefault("logger.level", "info")
}

func LoadConfig(filename string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName(filename)
	v.SetConfigType("yaml")
	v.AddConfigPath("config")
	v.AddConfigPath(".")

	v.SetEnvPrefix("MOLTSCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		// env/defaults only is fine
	}
	return v, nil
}

func ParseConfig(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	if c.Database.DSN == "" {
		return nil, errors.New("database.dsn is required")
	}
	return &c, nil
}

// DefaultAuth is used by tests and by callers that construct services without
// a config file.
func DefaultAuth() Auth {
	return Auth{
		NonceTTL:        5 * time.Minute,
		NonceRateLimit:  5,
		NonceRateWindow: time.Minute,
	}
}
