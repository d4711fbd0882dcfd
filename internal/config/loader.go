package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// LookupFunc resolves one variable. os.LookupEnv satisfies it.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads variables from the given files (".env" when none are
// named) without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.LookupEnv)
}

// LoadFrom reads configuration through lookup, applies defaults, and
// validates the result.
func LoadFrom(lookup LookupFunc) (*Config, error) {
	cfg := &Config{}
	if err := bind(reflect.ValueOf(cfg).Elem(), lookup); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// bind fills v's tagged fields, descending into nested structs.
func bind(v reflect.Value, lookup LookupFunc) error {
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}
		if sf.Type.Kind() == reflect.Struct {
			if err := bind(fv, lookup); err != nil {
				return err
			}
			continue
		}

		key := sf.Tag.Get("env")
		if key == "" {
			continue
		}
		raw, ok := resolve(lookup, key, sf.Tag.Get("envAlt"))
		if !ok {
			if sf.Tag.Get("required") == "true" {
				return fmt.Errorf("required environment variable %s is not set", key)
			}
			raw = sf.Tag.Get("default")
		}
		if raw == "" {
			continue
		}
		if err := assign(fv, raw); err != nil {
			return fmt.Errorf("invalid value for %s=%q: %w", key, raw, err)
		}
	}
	return nil
}

// resolve returns the first non-blank value among key and alt.
func resolve(lookup LookupFunc, key, alt string) (string, bool) {
	for _, k := range []string{key, alt} {
		if k == "" {
			continue
		}
		if v, ok := lookup(k); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

func assign(fv reflect.Value, raw string) error {
	if fv.Type() == durationType {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		fv.SetInt(int64(d))
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, fv.Type().Bits())
		if err != nil {
			return err
		}
		fv.SetInt(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		fv.SetBool(b)
	case reflect.Slice:
		if fv.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice of %s", fv.Type().Elem().Kind())
		}
		var items []string
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				items = append(items, p)
			}
		}
		fv.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported field type %s", fv.Kind())
	}
	return nil
}

// Validate checks cross-field constraints and reports all failures together.
func (c *Config) Validate() error {
	var errs []string
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}

	switch c.Store {
	case StorePostgres:
		if c.Database.URL == "" {
			fail("DATABASE_URL is required when STORE=postgres")
		}
		if c.Database.MaxConns <= 0 {
			fail("DB_MAX_CONNS must be positive")
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			fail("DB_MIN_CONNS (%d) must be between 0 and DB_MAX_CONNS (%d)", c.Database.MinConns, c.Database.MaxConns)
		}
	case StoreMemory:
	default:
		fail("STORE (%q) must be one of: postgres, memory", c.Store)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		fail("SERVER_PORT (%d) must be 1-65535", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		fail("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}

	if c.Import.MaxRows <= 0 {
		fail("IMPORT_MAX_ROWS must be positive")
	}
	if c.Import.MaxFileSize <= 0 {
		fail("IMPORT_MAX_FILE_SIZE must be positive")
	}
	if c.Import.MaxConcurrent <= 0 {
		fail("IMPORT_MAX_CONCURRENT must be positive")
	}
	if c.Import.MaxWaitTime <= 0 {
		fail("IMPORT_MAX_WAIT_TIME must be positive")
	}

	if c.Rate.Enabled {
		if c.Rate.Limit <= 0 {
			fail("RATE_LIMIT_LIMIT must be positive when rate limiting is enabled")
		}
		if c.Rate.Window <= 0 {
			fail("RATE_LIMIT_WINDOW must be positive when rate limiting is enabled")
		}
		switch c.Rate.Backend {
		case RateBackendMemory:
			if c.Rate.SweepInterval <= 0 {
				fail("RATE_LIMIT_SWEEP_INTERVAL must be positive")
			}
		case RateBackendRedis:
			if c.Redis.Addr == "" {
				fail("REDIS_ADDR is required when RATE_LIMIT_BACKEND=redis")
			}
		default:
			fail("RATE_LIMIT_BACKEND (%q) must be one of: memory, redis", c.Rate.Backend)
		}
	}

	if c.Auth.DevUser != "" {
		if _, err := c.Auth.ParseDevUser(); err != nil {
			fail("AUTH_DEV_USER: %v", err)
		}
	}

	for _, cidr := range c.Security.TrustedProxies {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			fail("TRUSTED_PROXIES entry %q is not a CIDR", cidr)
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		fail("LOG_LEVEL (%q) must be one of: debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		fail("LOG_FORMAT (%q) must be one of: text, json", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// DevIdentity is the parsed form of AUTH_DEV_USER.
type DevIdentity struct {
	ID, Email, Name string
}

// ParseDevUser splits "id:email[:name]".
func (a AuthConfig) ParseDevUser() (DevIdentity, error) {
	parts := strings.SplitN(a.DevUser, ":", 3)
	if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" || !strings.Contains(parts[1], "@") {
		return DevIdentity{}, fmt.Errorf("%q must look like id:email[:name]", a.DevUser)
	}
	id := DevIdentity{ID: strings.TrimSpace(parts[0]), Email: strings.TrimSpace(parts[1])}
	if len(parts) == 3 {
		id.Name = strings.TrimSpace(parts[2])
	}
	return id, nil
}

// String renders the config for logging with secrets masked.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Config{Store: %s, ", c.Store)
	fmt.Fprintf(&b, "Server: {Addr: %s}, ", c.Server.Addr())
	fmt.Fprintf(&b, "Database: {URL: %s, MaxConns: %d}, ", mask(c.Database.URL), c.Database.MaxConns)
	fmt.Fprintf(&b, "Import: {MaxRows: %d, MaxConcurrent: %d}, ", c.Import.MaxRows, c.Import.MaxConcurrent)
	fmt.Fprintf(&b, "Rate: {Enabled: %v, Limit: %d/%s, Backend: %s}, ", c.Rate.Enabled, c.Rate.Limit, c.Rate.Window, c.Rate.Backend)
	fmt.Fprintf(&b, "Auth: {JWT: %v, TrustHeaders: %v, DevUser: %v}, ", c.Auth.JWTSecret != "", c.Auth.TrustHeaders, c.Auth.DevUser != "")
	fmt.Fprintf(&b, "Logging: {Level: %s, Format: %s}}", c.Logging.Level, c.Logging.Format)
	return b.String()
}

func mask(s string) string {
	if s == "" {
		return "[unset]"
	}
	return "[MASKED]"
}
