// Package config loads the hook server configuration.
//
// Values are resolved in this order, later sources winning:
//
//  1. Default()
//  2. the YAML file named by --config
//  3. command-line flags that were set explicitly
//  4. SYNCHOOK_ADDR and SYNCHOOK_LOG_LEVEL from the environment
package config

import (
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"
)

const (
	EnvAddr     = "SYNCHOOK_ADDR"
	EnvLogLevel = "SYNCHOOK_LOG_LEVEL"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Config is the hook server configuration.
type Config struct {
	// Addr is the listen address of the hook endpoints.
	Addr string `json:"addr" validate:"required"`

	// MetricsAddr serves /metrics on a separate listener when set.
	MetricsAddr string `json:"metricsAddr,omitempty"`

	// TLSCertFile and TLSKeyFile enable TLS with a certificate from disk.
	TLSCertFile string `json:"tlsCertFile,omitempty" validate:"required_with=TLSKeyFile"`
	TLSKeyFile  string `json:"tlsKeyFile,omitempty" validate:"required_with=TLSCertFile"`

	// SelfSignedTLS serves TLS with a certificate generated at startup for
	// ServiceName.Namespace.svc. The CA is written to CABundleFile when set.
	SelfSignedTLS bool   `json:"selfSignedTLS,omitempty"`
	ServiceName   string `json:"serviceName,omitempty" validate:"required_if=SelfSignedTLS true"`
	Namespace     string `json:"namespace,omitempty" validate:"required_if=SelfSignedTLS true"`
	CABundleFile  string `json:"caBundleFile,omitempty"`

	LogLevel  string `json:"logLevel" validate:"oneof=debug info warn error"`
	LogFormat string `json:"logFormat" validate:"oneof=json console"`

	// Hooks lists the enabled hooks. Empty enables all of them.
	Hooks []string `json:"hooks,omitempty" validate:"omitempty,dive,required"`

	MaxBodyBytes    int64           `json:"maxBodyBytes" validate:"gt=0"`
	ReadTimeout     metav1.Duration `json:"readTimeout"`
	WriteTimeout    metav1.Duration `json:"writeTimeout"`
	ShutdownTimeout metav1.Duration `json:"shutdownTimeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Addr:            ":8080",
		ServiceName:     "synchook",
		Namespace:       "synchook-system",
		LogLevel:        "info",
		LogFormat:       "json",
		MaxBodyBytes:    4 << 20,
		ReadTimeout:     metav1.Duration{Duration: 10 * time.Second},
		WriteTimeout:    metav1.Duration{Duration: 10 * time.Second},
		ShutdownTimeout: metav1.Duration{Duration: 10 * time.Second},
	}
}

// Load resolves the configuration from args (without the program name) and
// the environment looked up through getenv.
func Load(args []string, getenv func(string) string) (*Config, error) {
	// First pass only finds --config; flags are applied after the file.
	var path string
	probe := Default()
	fs := newFlagSet(&probe, &path)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := Default()
	if path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	fs = newFlagSet(&cfg, &path)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if v := getenv(EnvAddr); v != "" {
		cfg.Addr = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile merges the YAML file at path into cfg. Fields absent from the
// file keep their current value.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// Validate checks field constraints and listen addresses.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s: failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("invalid config: addr %q: %w", c.Addr, err)
	}
	if c.MetricsAddr != "" {
		if _, _, err := net.SplitHostPort(c.MetricsAddr); err != nil {
			return fmt.Errorf("invalid config: metricsAddr %q: %w", c.MetricsAddr, err)
		}
	}
	if c.SelfSignedTLS && c.TLSCertFile != "" {
		return fmt.Errorf("invalid config: selfSignedTLS and tlsCertFile are mutually exclusive")
	}
	return nil
}

// TLSEnabled reports whether the hook listener serves TLS.
func (c *Config) TLSEnabled() bool {
	return c.SelfSignedTLS || c.TLSCertFile != ""
}

func newFlagSet(cfg *Config, path *string) *flag.FlagSet {
	fs := flag.NewFlagSet("synchook", flag.ContinueOnError)
	fs.StringVar(path, "config", *path, "Path to a YAML configuration file")
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Address to listen on")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Separate address for /metrics (default: serve on --addr)")
	fs.StringVar(&cfg.TLSCertFile, "tls-cert-file", cfg.TLSCertFile, "Path to TLS certificate file")
	fs.StringVar(&cfg.TLSKeyFile, "tls-key-file", cfg.TLSKeyFile, "Path to TLS key file")
	fs.BoolVar(&cfg.SelfSignedTLS, "self-signed", cfg.SelfSignedTLS, "Serve TLS with a certificate generated at startup")
	fs.StringVar(&cfg.ServiceName, "service-name", cfg.ServiceName, "Service name used in the self-signed certificate")
	fs.StringVar(&cfg.Namespace, "namespace", cfg.Namespace, "Namespace used in the self-signed certificate")
	fs.StringVar(&cfg.CABundleFile, "ca-bundle-file", cfg.CABundleFile, "Write the self-signed CA certificate to this path")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "Log format: json or console")
	fs.Var(&csvValue{target: &cfg.Hooks}, "hooks", "Comma-separated hooks to enable (default: all)")
	fs.Int64Var(&cfg.MaxBodyBytes, "max-body-bytes", cfg.MaxBodyBytes, "Maximum request body size")
	fs.DurationVar(&cfg.ReadTimeout.Duration, "read-timeout", cfg.ReadTimeout.Duration, "HTTP read timeout")
	fs.DurationVar(&cfg.WriteTimeout.Duration, "write-timeout", cfg.WriteTimeout.Duration, "HTTP write timeout")
	fs.DurationVar(&cfg.ShutdownTimeout.Duration, "shutdown-timeout", cfg.ShutdownTimeout.Duration, "Graceful shutdown timeout")
	return fs
}

// csvValue is a flag.Value for comma-separated lists.
type csvValue struct {
	target *[]string
}

func (v *csvValue) String() string {
	if v.target == nil {
		return ""
	}
	return strings.Join(*v.target, ",")
}

func (v *csvValue) Set(s string) error {
	*v.target = splitCSV(s)
	return nil
}

// splitCSV splits a comma-separated string into trimmed, non-empty parts.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
