// Package config provides functionality for managing configuration options
// for the application using command-line flags, a JSON config file and
// environment variables.
package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvDevelopment is the environment name under which cookies are sent without the Secure flag.
const EnvDevelopment = "development"

// Options holds the configuration values for the application.
type Options struct {
	// Port defines the server's listening address (ip:port).
	Port string `json:"port"`

	// DatabaseDSN switches the catalog to PostgreSQL when set.
	DatabaseDSN string `json:"database_dsn"`

	// DataFile is the JSON catalog file used when no DSN is configured.
	DataFile string `json:"data_file"`

	// PublicDir is the root of the static files; images go to <PublicDir>/images/packages.
	PublicDir string `json:"public_dir"`

	// Env is the deployment environment ("development", "production", ...).
	Env string `json:"env"`

	// LogLevel is passed to the zap logger.
	LogLevel string `json:"log_level"`

	// AdminPassword is the shared admin password.
	AdminPassword string `json:"admin_password"`

	// SessionSecret is the HMAC key of admin session tokens.
	SessionSecret string `json:"session_secret"`

	// CloudinaryURL enables remote image storage when set.
	CloudinaryURL string `json:"cloudinary_url"`

	// TLSCert and TLSKey enable HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// SweepInterval enables the orphan image sweeper when positive.
	SweepInterval time.Duration `json:"-"`

	// SweepRetention is the minimum age of an unreferenced image before it is removed.
	SweepRetention time.Duration `json:"-"`

	// LoginRateBurst and LoginRatePerMinute bound login attempts per client IP.
	LoginRateBurst     int `json:"login_rate_burst"`
	LoginRatePerMinute int `json:"login_rate_per_minute"`

	// TrustProxy takes client IPs from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `json:"trust_proxy"`

	// Config is the path to the Config file.
	Config string `json:"-"`
}

// fileDurations carries the duration settings of the config file as
// time.ParseDuration strings ("90m", "720h").
type fileDurations struct {
	SweepInterval  string `json:"sweep_interval"`
	SweepRetention string `json:"sweep_retention"`
}

// Secure reports whether session cookies must carry the Secure flag.
func (o *Options) Secure() bool {
	return o.Env != EnvDevelopment && o.Env != "local"
}

// defaults returns the values used when nothing else is configured.
func defaults() *Options {
	return &Options{
		Port:               "localhost:8080",
		DataFile:           "data/packages.json",
		PublicDir:          "public",
		Env:                EnvDevelopment,
		LogLevel:           "info",
		SweepRetention:     30 * 24 * time.Hour,
		LoginRateBurst:     5,
		LoginRatePerMinute: 10,
		Config:             "config.json",
	}
}

// Parse reads the .env file if present, then command-line flags, the JSON
// config file and environment variables, in that order of precedence
// (environment wins). It exits the process on malformed input.
func Parse() *Options {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("error while loading .env: %v", err)
	}

	options, err := parse(os.Args[1:], os.Getenv)
	if err != nil {
		log.Fatalf("error while parsing configuration: %v", err)
	}
	return options
}

func parse(args []string, getenv func(string) string) (*Options, error) {
	options := defaults()

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&options.Port, "a", options.Port, "run on ip:port server")
	fs.StringVar(&options.DatabaseDSN, "d", options.DatabaseDSN, "db address")
	fs.StringVar(&options.DataFile, "f", options.DataFile, "path to catalog JSON file")
	fs.StringVar(&options.PublicDir, "p", options.PublicDir, "public static directory")
	fs.StringVar(&options.Env, "env", options.Env, "deployment environment")
	fs.StringVar(&options.LogLevel, "l", options.LogLevel, "log level")
	fs.BoolVar(&options.TrustProxy, "trust-proxy", options.TrustProxy, "take client IPs from forwarding headers")
	fs.StringVar(&options.Config, "config", options.Config, "path to config file")
	fs.StringVar(&options.Config, "c", options.Config, "path to config file (shorthand)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override flags with environment variables if set
	if configPath := getenv("CONFIG"); configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if _, err := os.Stat(options.Config); err == nil {
			data, err := os.ReadFile(options.Config)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
			if err := json.Unmarshal(data, options); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			var fd fileDurations
			if err := json.Unmarshal(data, &fd); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
			for _, d := range []struct {
				name string
				raw  string
				dst  *time.Duration
			}{
				{"sweep_interval", fd.SweepInterval, &options.SweepInterval},
				{"sweep_retention", fd.SweepRetention, &options.SweepRetention},
			} {
				if d.raw == "" {
					continue
				}
				v, err := time.ParseDuration(d.raw)
				if err != nil {
					return nil, fmt.Errorf("config file %s: %w", d.name, err)
				}
				*d.dst = v
			}
		}
	}

	strs := map[string]*string{
		"SERVER_ADDRESS":       &options.Port,
		"DATABASE_DSN":         &options.DatabaseDSN,
		"CATALOG_FILE":         &options.DataFile,
		"PUBLIC_DIR":           &options.PublicDir,
		"APP_ENV":              &options.Env,
		"LOG_LEVEL":            &options.LogLevel,
		"ADMIN_PASSWORD":       &options.AdminPassword,
		"ADMIN_SESSION_SECRET": &options.SessionSecret,
		"CLOUDINARY_URL":       &options.CloudinaryURL,
		"TLS_CERT":             &options.TLSCert,
		"TLS_KEY":              &options.TLSKey,
	}
	for name, dst := range strs {
		if v := getenv(name); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"SWEEP_INTERVAL":  &options.SweepInterval,
		"SWEEP_RETENTION": &options.SweepRetention,
	}
	for name, dst := range durations {
		if v := getenv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			*dst = d
		}
	}

	ints := map[string]*int{
		"LOGIN_RATE_BURST":      &options.LoginRateBurst,
		"LOGIN_RATE_PER_MINUTE": &options.LoginRatePerMinute,
	}
	for name, dst := range ints {
		if v := getenv(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			*dst = n
		}
	}

	if v := getenv("TRUST_PROXY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("TRUST_PROXY: %w", err)
		}
		options.TrustProxy = b
	}

	return options, nil
}
