// Command powerlog records the telemetry stream of a serial power monitor to
// a CSV file or a SQLite capture database.
//
//	powerlog [flags] <output-file> [device]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/powerlog/internal/acquire"
	"github.com/banshee-data/powerlog/internal/config"
	"github.com/banshee-data/powerlog/internal/monitoring"
	"github.com/banshee-data/powerlog/internal/protocol"
	"github.com/banshee-data/powerlog/internal/serialport"
	"github.com/banshee-data/powerlog/internal/sink"
	"github.com/banshee-data/powerlog/internal/version"
)

var (
	baudRate    = flag.Int("baud", config.DefaultBaudRate, "Serial baud rate")
	readTimeout = flag.Duration("read-timeout", serialport.DefaultReadTimeout, "Timeout for a single device read (negative waits forever)")
	queueCap    = flag.Int("queue", acquire.DefaultQueueCapacity, "Capacity of the measurement queue")
	drain       = flag.Bool("drain", false, "Write out queued measurements before exiting")
	configFile  = flag.String("config", "", "JSON config file; flags given on the command line take precedence")
	listen      = flag.String("listen", "", "Debug server listen address (disabled when empty)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

var errUsage = errors.New("usage: powerlog [flags] <output-file> [device]")

// settings is the resolved configuration of one run.
type settings struct {
	output string
	device string
	port   serialport.PortOptions
	queue  int
	drain  bool
	listen string
}

// flagValues carries the parsed flag values into resolveSettings.
type flagValues struct {
	baud        int
	readTimeout time.Duration
	queue       int
	drain       bool
	listen      string
}

func currentFlags() flagValues {
	return flagValues{
		baud:        *baudRate,
		readTimeout: *readTimeout,
		queue:       *queueCap,
		drain:       *drain,
		listen:      *listen,
	}
}

// resolveSettings layers the explicitly set flags and positional arguments
// over cfg and validates the result.
func resolveSettings(cfg *config.AcquisitionConfig, fv flagValues, set map[string]bool, args []string) (settings, error) {
	if len(args) < 1 || len(args) > 2 || args[0] == "" {
		return settings{}, errUsage
	}

	c := *cfg
	if set["baud"] {
		c.BaudRate = &fv.baud
	}
	if set["read-timeout"] {
		d := fv.readTimeout.String()
		c.ReadTimeout = &d
	}
	if set["queue"] {
		c.QueueCapacity = &fv.queue
	}
	if set["drain"] {
		c.DrainOnShutdown = &fv.drain
	}
	if set["listen"] {
		c.Listen = &fv.listen
	}
	if len(args) == 2 {
		c.Device = &args[1]
	}
	if err := c.Validate(); err != nil {
		return settings{}, err
	}

	port, err := c.PortOptions()
	if err != nil {
		return settings{}, err
	}
	return settings{
		output: args[0],
		device: c.GetDevice(),
		port:   port,
		queue:  c.GetQueueCapacity(),
		drain:  c.GetDrainOnShutdown(),
		listen: c.GetListen(),
	}, nil
}

// sessionRecorder is implemented by sinks that keep per-session metadata.
type sessionRecorder interface {
	EndSession(outcome string, stats protocol.Stats) error
}

// run records one session and returns how it ended. Errors are setup
// failures; acquisition failures are reported through the Result.
func run(ctx context.Context, s settings, sessionID string, open serialport.Opener) (acquire.Result, error) {
	src, err := serialport.OpenWith(open, s.device, s.port)
	if err != nil {
		return acquire.Result{}, err
	}
	defer src.Close()

	out, err := sink.Open(s.output, sink.Options{
		SessionID: sessionID,
		Device:    s.device,
		BaudRate:  s.port.BaudRate,
	})
	if err != nil {
		return acquire.Result{}, err
	}
	defer func() {
		if err := out.Close(); err != nil {
			log.Printf("failed to close %s: %v", s.output, err)
		}
	}()

	var tail *monitoring.Tail
	var tap acquire.Tap
	if s.listen != "" {
		tail = monitoring.NewTail()
		defer tail.Close()
		tap = func(m protocol.Measurement) { tail.Publish(sink.FormatRecord(m)) }
	}

	producer := acquire.NewProducer(src, nil)
	consumer := acquire.NewConsumer(out, tap)
	sup := acquire.NewSupervisor(producer, consumer, acquire.Options{
		QueueCapacity:   s.queue,
		DrainOnShutdown: s.drain,
	})

	var wg sync.WaitGroup
	serverCtx, stopServer := context.WithCancel(ctx)
	defer stopServer()
	if tail != nil {
		mux := http.NewServeMux()
		monitoring.AttachAdminRoutes(mux, tail, map[string]func() any{
			"Session":  func() any { return sessionID },
			"Device":   func() any { return s.device },
			"Output":   func() any { return s.output },
			"Version":  func() any { return version.String() },
			"Decoder":  func() any { return fmt.Sprintf("%+v", producer.Stats()) },
			"Written":  func() any { return consumer.Written() },
			"Queue":    func() any { return s.queue },
			"Draining": func() any { return s.drain },
		})
		if sq, ok := out.(*sink.SQLite); ok {
			if err := sq.DB().AttachAdminRoutes(mux); err != nil {
				log.Printf("failed to attach database routes: %v", err)
			}
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			serveDebug(serverCtx, s.listen, mux)
		}()
	}

	log.Printf("session %s: recording %s to %s", sessionID, s.device, s.output)
	res := sup.Run(ctx)

	stopServer()
	wg.Wait()

	if rec, ok := out.(sessionRecorder); ok {
		if err := rec.EndSession(res.Outcome.String(), res.Stats); err != nil {
			log.Printf("failed to record session end: %v", err)
		}
	}
	return res, nil
}

// serveDebug runs the debug server until ctx is done.
func serveDebug(ctx context.Context, addr string, mux *http.ServeMux) {
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Start server in a goroutine so it doesn't block
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("debug server failed: %v", err)
		}
	}()
	log.Printf("debug server listening on %s", addr)

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("debug server shutdown error: %v", err)
		// Force close the server if graceful shutdown fails
		if err := server.Close(); err != nil {
			log.Printf("debug server force close error: %v", err)
		}
	}
}

// exitCode maps a session outcome onto the process exit status.
func exitCode(res acquire.Result) int {
	if res.Outcome == acquire.ShutdownComplete {
		return 0
	}
	return 1
}

func logSummary(res acquire.Result) {
	log.Printf("session ended: %s (%s stopped first); samples=%d rising=%d falling=%d malformed=%d written=%d",
		res.Outcome, res.First, res.Stats.Samples, res.Stats.RisingEdges, res.Stats.FallingEdges, res.Stats.Malformed, res.Written)
	if err := res.Err(); err != nil {
		log.Printf("error: %v", err)
	}
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "%v\n\nFlags:\n", errUsage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println("powerlog", version.String())
		return
	}

	cfg := config.EmptyAcquisitionConfig()
	if *configFile != "" {
		var err error
		if cfg, err = config.LoadAcquisitionConfig(*configFile); err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	s, err := resolveSettings(cfg, currentFlags(), set, flag.Args())
	if errors.Is(err, errUsage) {
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	sessionID := uuid.NewString()
	prefix := fmt.Sprintf("[%s] ", sessionID[:8])
	log.SetPrefix(prefix)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	monitoring.SetLogger(monitoring.NewLogger(os.Stderr, prefix))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	res, err := run(ctx, s, sessionID, serialport.SystemOpener)
	if err != nil {
		stop()
		log.Fatalf("failed to start session: %v", err)
	}
	logSummary(res)

	stop()
	os.Exit(exitCode(res))
}
