// Package config loads powerlog configuration files.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/banshee-data/powerlog/internal/serialport"
)

// Defaults applied by the Get* accessors when a field is omitted.
const (
	DefaultBaudRate      = serialport.DefaultBaudRate
	DefaultReadTimeout   = "1s"
	DefaultQueueCapacity = 10 * 1024
)

// AcquisitionConfig configures one acquisition session. Every field is
// optional; command-line flags override whatever the file sets.
type AcquisitionConfig struct {
	Device          *string `json:"device,omitempty"`
	BaudRate        *int    `json:"baud_rate,omitempty"`
	ReadTimeout     *string `json:"read_timeout,omitempty"` // duration string like "1s"
	QueueCapacity   *int    `json:"queue_capacity,omitempty"`
	DrainOnShutdown *bool   `json:"drain_on_shutdown,omitempty"`
	Listen          *string `json:"listen,omitempty"`

	// Line settings
	DataBits *int    `json:"data_bits,omitempty"`
	StopBits *int    `json:"stop_bits,omitempty"`
	Parity   *string `json:"parity,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyAcquisitionConfig returns a config with all fields unset.
func EmptyAcquisitionConfig() *AcquisitionConfig {
	return &AcquisitionConfig{}
}

// LoadAcquisitionConfig loads an AcquisitionConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to their defaults.
func LoadAcquisitionConfig(path string) (*AcquisitionConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAcquisitionConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *AcquisitionConfig) Validate() error {
	if c.Device != nil && strings.TrimSpace(*c.Device) == "" {
		return fmt.Errorf("device must not be empty")
	}
	if c.BaudRate != nil && *c.BaudRate <= 0 {
		return fmt.Errorf("baud_rate must be positive, got %d", *c.BaudRate)
	}
	if c.ReadTimeout != nil && *c.ReadTimeout != "" {
		if _, err := time.ParseDuration(*c.ReadTimeout); err != nil {
			return fmt.Errorf("invalid read_timeout '%s': %w", *c.ReadTimeout, err)
		}
	}
	if c.QueueCapacity != nil && *c.QueueCapacity < 1 {
		return fmt.Errorf("queue_capacity must be at least 1, got %d", *c.QueueCapacity)
	}

	// Line settings share validation with the serial layer.
	if _, err := c.PortOptions(); err != nil {
		return err
	}
	return nil
}

// GetDevice returns the device path, or the platform default.
func (c *AcquisitionConfig) GetDevice() string {
	if c.Device == nil || *c.Device == "" {
		return serialport.DefaultDevice
	}
	return *c.Device
}

// GetBaudRate returns the baud rate.
func (c *AcquisitionConfig) GetBaudRate() int {
	if c.BaudRate == nil {
		return DefaultBaudRate
	}
	return *c.BaudRate
}

// GetReadTimeout returns the read timeout as a time.Duration.
func (c *AcquisitionConfig) GetReadTimeout() time.Duration {
	s := DefaultReadTimeout
	if c.ReadTimeout != nil && *c.ReadTimeout != "" {
		s = *c.ReadTimeout
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return serialport.DefaultReadTimeout
	}
	return d
}

// GetQueueCapacity returns the delivery channel capacity.
func (c *AcquisitionConfig) GetQueueCapacity() int {
	if c.QueueCapacity == nil {
		return DefaultQueueCapacity
	}
	return *c.QueueCapacity
}

// GetDrainOnShutdown reports whether queued measurements are drained on
// shutdown. Off unless set.
func (c *AcquisitionConfig) GetDrainOnShutdown() bool {
	return c.DrainOnShutdown != nil && *c.DrainOnShutdown
}

// GetListen returns the debug server address; empty disables it.
func (c *AcquisitionConfig) GetListen() string {
	if c.Listen == nil {
		return ""
	}
	return *c.Listen
}

// PortOptions returns the normalized serial options described by the config.
func (c *AcquisitionConfig) PortOptions() (serialport.PortOptions, error) {
	opts := serialport.PortOptions{
		BaudRate:    c.GetBaudRate(),
		ReadTimeout: c.GetReadTimeout(),
	}
	if c.DataBits != nil {
		opts.DataBits = *c.DataBits
	}
	if c.StopBits != nil {
		opts.StopBits = *c.StopBits
	}
	if c.Parity != nil {
		opts.Parity = *c.Parity
	}
	return opts.Normalize()
}
