package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func isolatedOptions(t *testing.T) LoadOptions {
	t.Helper()
	return LoadOptions{EnvPrefix: "TENDER_TEST"}
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadWithOptions(isolatedOptions(t))
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}

	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.API.Port != "8080" || cfg.API.RateLimit != 100 || cfg.API.RateWindow != time.Minute {
		t.Errorf("api = %+v", cfg.API)
	}
	if cfg.Kafka.Brokers != "" || cfg.Kafka.TopicPrefix != "payments" {
		t.Errorf("kafka = %+v", cfg.Kafka)
	}
}

func TestDefaultsOverride(t *testing.T) {
	opts := isolatedOptions(t)
	opts.Defaults = map[string]interface{}{"log.format": "json"}

	cfg, err := LoadWithOptions(opts)
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("format = %s, want json", cfg.Log.Format)
	}

	t.Setenv("TENDER_TEST_LOG_FORMAT", "text")
	cfg, err = LoadWithOptions(opts)
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("format = %s, want env value text", cfg.Log.Format)
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "tender.yaml")
	content := []byte("log:\n  level: debug\n  format: json\napi:\n  port: \"9000\"\n  cors_allowed_origins:\n    - https://a.example\n    - https://b.example\n")
	if err := os.WriteFile(file, content, 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TENDER_TEST_API_PORT", "9100")
	t.Setenv("TENDER_TEST_API_RATE_WINDOW", "30s")

	opts := isolatedOptions(t)
	opts.ConfigFile = file
	cfg, err := LoadWithOptions(opts)
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}

	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Errorf("log = %+v", cfg.Log)
	}
	if cfg.API.Port != "9100" {
		t.Errorf("port = %s, want env value 9100", cfg.API.Port)
	}
	if cfg.API.RateWindow != 30*time.Second {
		t.Errorf("rate window = %s", cfg.API.RateWindow)
	}
	want := []string{"https://a.example", "https://b.example"}
	if !reflect.DeepEqual(cfg.API.CORSAllowedOrigins, want) {
		t.Errorf("origins = %v, want %v", cfg.API.CORSAllowedOrigins, want)
	}
}

func TestEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(file, []byte("TENDER_TEST_KAFKA_BROKERS=broker:9092\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("TENDER_TEST_KAFKA_BROKERS") })

	opts := isolatedOptions(t)
	opts.EnvFile = file
	cfg, err := LoadWithOptions(opts)
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.Kafka.Brokers != "broker:9092" {
		t.Errorf("brokers = %q", cfg.Kafka.Brokers)
	}
}

func TestMissingExplicitEnvFile(t *testing.T) {
	opts := isolatedOptions(t)
	opts.EnvFile = filepath.Join(t.TempDir(), "absent.env")
	if _, err := LoadWithOptions(opts); err == nil {
		t.Fatal("expected error for missing env file")
	}
}

func TestFlagsOverrideEverything(t *testing.T) {
	t.Setenv("TENDER_TEST_LOG_LEVEL", "warn")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "", "")
	fs.String("batch", "", "")
	if err := fs.Parse([]string{"--log-level=error", "--batch=payments.json"}); err != nil {
		t.Fatal(err)
	}

	opts := isolatedOptions(t)
	opts.Flags = fs
	cfg, err := LoadWithOptions(opts)
	if err != nil {
		t.Fatalf("LoadWithOptions() error = %v", err)
	}
	if cfg.Log.Level != "error" || cfg.Batch.File != "payments.json" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestUnchangedFlagKeepsEnvironment(t *testing.T) {
	t.Setenv("TENDER_TEST_LOG_LEVEL", "warn")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("log-level", "", "")
	fs.Parse(nil)

	opts := isolatedOptions(t)
	opts.Flags = fs
	cfg, err := LoadWithOptions(opts)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Log.Level)
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("TENDER_TEST_LOG_FORMAT", "xml")
	if _, err := LoadWithOptions(isolatedOptions(t)); err == nil {
		t.Fatal("expected invalid format error")
	}
}
