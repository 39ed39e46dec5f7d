package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/banshee-data/powerlog/internal/serialport"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestEmptyAcquisitionConfig_Defaults(t *testing.T) {
	cfg := EmptyAcquisitionConfig()

	if got := cfg.GetDevice(); got != serialport.DefaultDevice {
		t.Errorf("GetDevice() = %q, want %q", got, serialport.DefaultDevice)
	}
	if got := cfg.GetBaudRate(); got != 1_000_000 {
		t.Errorf("GetBaudRate() = %d, want 1000000", got)
	}
	if got := cfg.GetReadTimeout(); got != time.Second {
		t.Errorf("GetReadTimeout() = %v, want 1s", got)
	}
	if got := cfg.GetQueueCapacity(); got != 10240 {
		t.Errorf("GetQueueCapacity() = %d, want 10240", got)
	}
	if cfg.GetDrainOnShutdown() {
		t.Error("GetDrainOnShutdown() = true, want false")
	}
	if got := cfg.GetListen(); got != "" {
		t.Errorf("GetListen() = %q, want empty", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestLoadAcquisitionConfig(t *testing.T) {
	path := writeConfig(t, "powerlog.json", `{
  "device": "/dev/ttyUSB1",
  "baud_rate": 115200,
  "read_timeout": "250ms",
  "queue_capacity": 64,
  "drain_on_shutdown": true,
  "listen": "127.0.0.1:8089",
  "parity": "even",
  "stop_bits": 2
}`)

	cfg, err := LoadAcquisitionConfig(path)
	if err != nil {
		t.Fatalf("LoadAcquisitionConfig failed: %v", err)
	}

	if cfg.GetDevice() != "/dev/ttyUSB1" {
		t.Errorf("device = %q", cfg.GetDevice())
	}
	if cfg.GetBaudRate() != 115200 {
		t.Errorf("baud = %d", cfg.GetBaudRate())
	}
	if cfg.GetReadTimeout() != 250*time.Millisecond {
		t.Errorf("read timeout = %v", cfg.GetReadTimeout())
	}
	if cfg.GetQueueCapacity() != 64 {
		t.Errorf("queue = %d", cfg.GetQueueCapacity())
	}
	if !cfg.GetDrainOnShutdown() {
		t.Error("drain_on_shutdown not applied")
	}
	if cfg.GetListen() != "127.0.0.1:8089" {
		t.Errorf("listen = %q", cfg.GetListen())
	}

	opts, err := cfg.PortOptions()
	if err != nil {
		t.Fatalf("PortOptions failed: %v", err)
	}
	want := serialport.PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 2, Parity: "E", ReadTimeout: 250 * time.Millisecond}
	if opts != want {
		t.Errorf("PortOptions() = %+v, want %+v", opts, want)
	}
}

func TestLoadAcquisitionConfig_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "partial.json", `{"baud_rate": 9600}`)

	cfg, err := LoadAcquisitionConfig(path)
	if err != nil {
		t.Fatalf("LoadAcquisitionConfig failed: %v", err)
	}
	if cfg.GetBaudRate() != 9600 {
		t.Errorf("baud = %d", cfg.GetBaudRate())
	}
	if cfg.GetQueueCapacity() != DefaultQueueCapacity {
		t.Errorf("queue = %d, want default", cfg.GetQueueCapacity())
	}
	if cfg.GetReadTimeout() != time.Second {
		t.Errorf("read timeout = %v, want default", cfg.GetReadTimeout())
	}
}

func TestLoadAcquisitionConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantErr string
	}{
		{"wrong extension", "powerlog.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"baud_rate":`, "parse"},
		{"unknown field", "unknown.json", `{"baudrate": 9600}`, "unknown field"},
		{"zero baud", "baud.json", `{"baud_rate": 0}`, "baud_rate"},
		{"bad timeout", "timeout.json", `{"read_timeout": "soon"}`, "read_timeout"},
		{"zero queue", "queue.json", `{"queue_capacity": 0}`, "queue_capacity"},
		{"empty device", "device.json", `{"device": "  "}`, "device"},
		{"bad parity", "parity.json", `{"parity": "mark"}`, "parity"},
		{"bad data bits", "bits.json", `{"data_bits": 9}`, "data bits"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.file, tc.content)
			_, err := LoadAcquisitionConfig(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadAcquisitionConfig_Missing(t *testing.T) {
	_, err := LoadAcquisitionConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil || !strings.Contains(err.Error(), "stat") {
		t.Errorf("expected stat error, got %v", err)
	}
}

func TestLoadAcquisitionConfig_TooLarge(t *testing.T) {
	big := `{"device": "` + strings.Repeat("x", 1024*1024) + `"}`
	path := writeConfig(t, "big.json", big)
	_, err := LoadAcquisitionConfig(path)
	if err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := LoadAcquisitionConfig("../../config/powerlog.example.json")
	if err != nil {
		t.Fatalf("example config does not load: %v", err)
	}
	if cfg.GetBaudRate() != DefaultBaudRate {
		t.Errorf("example baud = %d", cfg.GetBaudRate())
	}
}

func TestPortOptions_NoTimeout(t *testing.T) {
	cfg := &AcquisitionConfig{ReadTimeout: ptrString("-1s"), DataBits: ptrInt(7), DrainOnShutdown: ptrBool(false)}
	opts, err := cfg.PortOptions()
	if err != nil {
		t.Fatalf("PortOptions failed: %v", err)
	}
	if opts.ReadTimeout >= 0 {
		t.Errorf("negative read timeout should be kept, got %v", opts.ReadTimeout)
	}
	if opts.DataBits != 7 {
		t.Errorf("data bits = %d", opts.DataBits)
	}
}
