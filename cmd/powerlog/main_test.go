package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.bug.st/serial"

	"github.com/banshee-data/powerlog/internal/acquire"
	"github.com/banshee-data/powerlog/internal/config"
	"github.com/banshee-data/powerlog/internal/db"
	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/serialport"
	"github.com/banshee-data/powerlog/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	os.Exit(m.Run())
}

func TestFlagDefaults(t *testing.T) {
	if *baudRate != 1_000_000 {
		t.Errorf("baud default = %d, want 1000000", *baudRate)
	}
	if *readTimeout != time.Second {
		t.Errorf("read-timeout default = %v, want 1s", *readTimeout)
	}
	if *queueCap != 10240 {
		t.Errorf("queue default = %d, want 10240", *queueCap)
	}
	if *drain {
		t.Error("drain should default to false")
	}
	if *listen != "" {
		t.Errorf("listen default = %q, want empty", *listen)
	}
}

func TestResolveSettings(t *testing.T) {
	defaults := flagValues{baud: 1_000_000, readTimeout: time.Second, queue: 10240}

	tests := []struct {
		name    string
		cfg     *config.AcquisitionConfig
		fv      flagValues
		set     map[string]bool
		args    []string
		want    settings
		wantErr bool
	}{
		{
			name: "output only",
			cfg:  config.EmptyAcquisitionConfig(),
			fv:   defaults,
			args: []string{"out.csv"},
			want: settings{
				output: "out.csv",
				device: serialport.DefaultDevice,
				port:   serialport.PortOptions{BaudRate: 1_000_000, DataBits: 8, StopBits: 1, Parity: "N", ReadTimeout: time.Second},
				queue:  10240,
			},
		},
		{
			name: "positional device and flags",
			cfg:  config.EmptyAcquisitionConfig(),
			fv:   flagValues{baud: 115200, readTimeout: 50 * time.Millisecond, queue: 8, drain: true, listen: ":8089"},
			set:  map[string]bool{"baud": true, "read-timeout": true, "queue": true, "drain": true, "listen": true},
			args: []string{"out.db", "/dev/ttyUSB0"},
			want: settings{
				output: "out.db",
				device: "/dev/ttyUSB0",
				port:   serialport.PortOptions{BaudRate: 115200, DataBits: 8, StopBits: 1, Parity: "N", ReadTimeout: 50 * time.Millisecond},
				queue:  8,
				drain:  true,
				listen: ":8089",
			},
		},
		{
			name: "unset flags keep config values",
			cfg: func() *config.AcquisitionConfig {
				dev, baud, q := "/dev/ttyS3", 9600, 32
				return &config.AcquisitionConfig{Device: &dev, BaudRate: &baud, QueueCapacity: &q}
			}(),
			fv:   defaults,
			args: []string{"out.csv"},
			want: settings{
				output: "out.csv",
				device: "/dev/ttyS3",
				port:   serialport.PortOptions{BaudRate: 9600, DataBits: 8, StopBits: 1, Parity: "N", ReadTimeout: time.Second},
				queue:  32,
			},
		},
		{name: "no args", cfg: config.EmptyAcquisitionConfig(), fv: defaults, wantErr: true},
		{name: "too many args", cfg: config.EmptyAcquisitionConfig(), fv: defaults, args: []string{"a", "b", "c"}, wantErr: true},
		{
			name:    "invalid queue flag",
			cfg:     config.EmptyAcquisitionConfig(),
			fv:      flagValues{baud: 1_000_000, readTimeout: time.Second, queue: 0},
			set:     map[string]bool{"queue": true},
			args:    []string{"out.csv"},
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveSettings(tc.cfg, tc.fv, tc.set, tc.args)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveSettings failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("resolveSettings() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestResolveSettings_UsageError(t *testing.T) {
	_, err := resolveSettings(config.EmptyAcquisitionConfig(), flagValues{}, nil, nil)
	if !errors.Is(err, errUsage) {
		t.Errorf("expected usage error, got %v", err)
	}
}

// portOpener hands out a prepared test port and records the requested mode.
func portOpener(port *serialport.TestableSerialPort, gotMode **serial.Mode) serialport.Opener {
	return func(path string, mode *serial.Mode) (serialport.SerialPorter, error) {
		*gotMode = mode
		return port, nil
	}
}

func testSettings(output string) settings {
	return settings{
		output: output,
		device: "/dev/ttyTEST",
		port:   serialport.PortOptions{BaudRate: 1_000_000, ReadTimeout: time.Second},
		queue:  16,
		drain:  true,
	}
}

func TestRun_CSVCapture(t *testing.T) {
	port := serialport.NewTestableSerialPort(testutil.Capture(0x0005, 0xfff1, 0x0006, 0xfff0, 0x0007))
	var mode *serial.Mode
	output := filepath.Join(t.TempDir(), "run.csv")

	res, err := run(context.Background(), testSettings(output), "session-1", portOpener(port, &mode))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}

	if res.Outcome != acquire.ProducerFailed {
		t.Errorf("outcome = %v, want producer-failed at end of stream", res.Outcome)
	}
	if exitCode(res) != 1 {
		t.Errorf("exit code = %d, want 1", exitCode(res))
	}
	if mode == nil || mode.BaudRate != 1_000_000 {
		t.Errorf("unexpected serial mode %+v", mode)
	}
	if port.ReadTimeout != time.Second {
		t.Errorf("read timeout = %v, want 1s", port.ReadTimeout)
	}
	if !port.IsClosed() {
		t.Error("device left open")
	}

	data, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if len(lines) != 4 || lines[0] != "time_s,power_mw,input_pin" {
		t.Fatalf("unexpected output:\n%s", data)
	}
	for i, suffix := range []string{",5,0", ",6,1", ",7,0"} {
		if !strings.HasSuffix(lines[i+1], suffix) {
			t.Errorf("line %d = %q, want suffix %q", i+1, lines[i+1], suffix)
		}
	}
}

func TestRun_SQLiteCaptureRecordsSession(t *testing.T) {
	port := serialport.NewTestableSerialPort(testutil.Capture(1, 2, 3, 0xfff3))
	var mode *serial.Mode
	output := filepath.Join(t.TempDir(), "run.db")

	s := testSettings(output)
	s.listen = "127.0.0.1:0"
	res, err := run(context.Background(), s, "session-2", portOpener(port, &mode))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Written != 3 {
		t.Errorf("written = %d, want 3", res.Written)
	}

	d, err := db.NewDB(output)
	if err != nil {
		t.Fatalf("failed to open capture: %v", err)
	}
	defer d.Close()

	sess, err := d.GetSession("session-2")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess.Device != "/dev/ttyTEST" || sess.Outcome != "producer-failed" {
		t.Errorf("unexpected session %+v", sess)
	}
	if sess.Stats.Samples != 3 || sess.Stats.Malformed != 1 {
		t.Errorf("unexpected stats %+v", sess.Stats)
	}
	ms, err := d.Measurements("session-2")
	if err != nil || len(ms) != 3 {
		t.Errorf("measurements = %v, %v", ms, err)
	}
}

func TestRun_InterruptExitsCleanly(t *testing.T) {
	port := serialport.NewTestableSerialPort(testutil.Capture(1, 2))
	port.BlockReads = true
	var mode *serial.Mode

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	res, err := run(ctx, testSettings(filepath.Join(t.TempDir(), "run.csv")), "session-3", portOpener(port, &mode))
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if res.Outcome != acquire.ShutdownComplete {
		t.Errorf("outcome = %v, want shutdown-complete", res.Outcome)
	}
	if exitCode(res) != 0 {
		t.Errorf("exit code = %d, want 0", exitCode(res))
	}
}

func TestRun_OpenFailure(t *testing.T) {
	errBusy := errors.New("device busy")
	open := func(string, *serial.Mode) (serialport.SerialPorter, error) { return nil, errBusy }

	_, err := run(context.Background(), testSettings(filepath.Join(t.TempDir(), "x.csv")), "s", open)

	var oe *serialport.OpenError
	if !errors.As(err, &oe) || !errors.Is(err, errBusy) {
		t.Fatalf("expected OpenError wrapping device busy, got %v", err)
	}
}

func TestRun_SinkFailureClosesDevice(t *testing.T) {
	port := serialport.NewTestableSerialPort(nil)
	var mode *serial.Mode
	output := filepath.Join(t.TempDir(), "missing", "dir", "\x00bad.csv")

	_, err := run(context.Background(), testSettings(output), "s", portOpener(port, &mode))
	if err == nil {
		t.Fatal("expected sink error")
	}
	if !port.IsClosed() {
		t.Error("device left open after sink failure")
	}
}
