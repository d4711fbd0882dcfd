package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func envMap(kv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"DATABASE_URL": "postgres://localhost/leadbook",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Store != StorePostgres {
		t.Errorf("Store = %q, want %q", cfg.Store, StorePostgres)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Import.MaxRows != 200 {
		t.Errorf("Import.MaxRows = %d, want 200", cfg.Import.MaxRows)
	}
	if cfg.Rate.Limit != 10 || cfg.Rate.Window != time.Minute {
		t.Errorf("Rate = %d/%s, want 10/1m0s", cfg.Rate.Limit, cfg.Rate.Window)
	}
	if cfg.Rate.SweepInterval != 5*time.Minute {
		t.Errorf("Rate.SweepInterval = %s, want 5m0s", cfg.Rate.SweepInterval)
	}
	if !cfg.Rate.Enabled || cfg.Rate.Backend != RateBackendMemory {
		t.Errorf("Rate.Enabled/Backend = %v/%q", cfg.Rate.Enabled, cfg.Rate.Backend)
	}
	if cfg.Auth.TrustHeaders {
		t.Error("Auth.TrustHeaders should default to false")
	}
	if cfg.Security.TrustedProxies != nil {
		t.Errorf("TrustedProxies = %v, want nil", cfg.Security.TrustedProxies)
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"STORE":              "memory",
		"PORT":               "9090",
		"IMPORT_MAX_ROWS":    "50",
		"RATE_LIMIT_WINDOW":  "30s",
		"AUTH_TRUST_HEADERS": "true",
		"TRUSTED_PROXIES":    "10.0.0.0/8, 192.168.0.0/16 ,",
		"LOG_LEVEL":          "debug",
	}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090 via PORT", cfg.Server.Port)
	}
	if cfg.Import.MaxRows != 50 {
		t.Errorf("Import.MaxRows = %d, want 50", cfg.Import.MaxRows)
	}
	if cfg.Rate.Window != 30*time.Second {
		t.Errorf("Rate.Window = %s, want 30s", cfg.Rate.Window)
	}
	if !cfg.Auth.TrustHeaders {
		t.Error("Auth.TrustHeaders = false, want true")
	}
	want := []string{"10.0.0.0/8", "192.168.0.0/16"}
	if !reflect.DeepEqual(cfg.Security.TrustedProxies, want) {
		t.Errorf("TrustedProxies = %v, want %v", cfg.Security.TrustedProxies, want)
	}
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{"DB_URL": "postgres://localhost/alt"}))
	if err != nil {
		t.Fatalf("LoadFrom() error = %v", err)
	}
	if cfg.Database.URL != "postgres://localhost/alt" {
		t.Errorf("Database.URL = %q", cfg.Database.URL)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "postgres without url",
			env:     map[string]string{},
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "bad integer",
			env:     map[string]string{"STORE": "memory", "SERVER_PORT": "eighty"},
			wantErr: "SERVER_PORT",
		},
		{
			name:    "bad duration",
			env:     map[string]string{"STORE": "memory", "RATE_LIMIT_WINDOW": "soon"},
			wantErr: "RATE_LIMIT_WINDOW",
		},
		{
			name:    "unknown store",
			env:     map[string]string{"STORE": "sqlite"},
			wantErr: "STORE",
		},
		{
			name:    "unknown rate backend",
			env:     map[string]string{"STORE": "memory", "RATE_LIMIT_BACKEND": "memcached"},
			wantErr: "RATE_LIMIT_BACKEND",
		},
		{
			name:    "bad proxy cidr",
			env:     map[string]string{"STORE": "memory", "TRUSTED_PROXIES": "10.0.0.1"},
			wantErr: "TRUSTED_PROXIES",
		},
		{
			name:    "bad dev user",
			env:     map[string]string{"STORE": "memory", "AUTH_DEV_USER": "nobody"},
			wantErr: "AUTH_DEV_USER",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"STORE": "memory", "LOG_LEVEL": "loud"},
			wantErr: "LOG_LEVEL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(envMap(tt.env))
			if err == nil {
				t.Fatal("LoadFrom() succeeded, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{
		"STORE":           "memory",
		"IMPORT_MAX_ROWS": "0",
		"LOG_FORMAT":      "xml",
	}))
	if err == nil {
		t.Fatal("LoadFrom() succeeded, want error")
	}
	for _, want := range []string{"IMPORT_MAX_ROWS", "LOG_FORMAT"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error missing %s: %v", want, err)
		}
	}
}

func TestBind_Required(t *testing.T) {
	var target struct {
		Secret string `env:"SECRET" required:"true"`
	}
	v := reflect.ValueOf(&target).Elem()
	if err := bind(v, envMap(nil)); err == nil {
		t.Fatal("bind() succeeded without required SECRET")
	}
	if err := bind(v, envMap(map[string]string{"SECRET": "s3"})); err != nil {
		t.Fatalf("bind() error = %v", err)
	}
	if target.Secret != "s3" {
		t.Errorf("Secret = %q, want s3", target.Secret)
	}
}

func TestParseDevUser(t *testing.T) {
	tests := []struct {
		raw     string
		want    DevIdentity
		wantErr bool
	}{
		{raw: "u1:dev@example.com", want: DevIdentity{ID: "u1", Email: "dev@example.com"}},
		{raw: "u1:dev@example.com:Dev User", want: DevIdentity{ID: "u1", Email: "dev@example.com", Name: "Dev User"}},
		{raw: "u1", wantErr: true},
		{raw: ":dev@example.com", wantErr: true},
		{raw: "u1:not-an-email", wantErr: true},
	}
	for _, tt := range tests {
		got, err := AuthConfig{DevUser: tt.raw}.ParseDevUser()
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseDevUser(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDevUser(%q) = %+v, want %+v", tt.raw, got, tt.want)
		}
	}
}

func TestServerAddr(t *testing.T) {
	c := ServerConfig{Host: "127.0.0.1", Port: 8080}
	if got := c.Addr(); got != "127.0.0.1:8080" {
		t.Errorf("Addr() = %q", got)
	}
	c.Host = ""
	if got := c.Addr(); got != ":8080" {
		t.Errorf("Addr() = %q, want :8080", got)
	}
}

func TestString_MasksSecrets(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{URL: "postgres://user:hunter2@db/leads"},
		Auth:     AuthConfig{JWTSecret: "topsecret"},
	}
	s := cfg.String()
	if strings.Contains(s, "hunter2") || strings.Contains(s, "topsecret") {
		t.Errorf("String() leaked a secret: %s", s)
	}
}
