package monitoring

import (
	"fmt"
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/powerlog/internal/httputil"
)

// AttachAdminRoutes mounts the debug endpoints on mux under /debug/ and the
// Prometheus exposition under /metrics. The debug routes are only reachable
// from localhost or over Tailscale. kvs are rendered on the /debug/ index and
// evaluated on every page load.
func AttachAdminRoutes(mux *http.ServeMux, tail *Tail, kvs map[string]func() any) {
	debug := tsweb.Debugger(mux)

	for k, f := range kvs {
		debug.KVFunc(k, f)
	}

	debug.HandleFunc("vars.json", "debug values as JSON", func(w http.ResponseWriter, r *http.Request) {
		if httputil.MethodNotAllowed(w, r, http.MethodGet) {
			return
		}
		vals := make(map[string]any, len(kvs))
		for k, f := range kvs {
			vals[k] = f()
		}
		httputil.WriteJSON(w, http.StatusOK, vals)
	})

	mux.Handle("/metrics", Handler())
	debug.URL("/metrics", "Prometheus metrics")

	if tail == nil {
		return
	}

	// Server-Sent Events stream of every measurement written to the sink.
	debug.HandleFunc("tail", "live tail of measurements (SSE)", func(w http.ResponseWriter, r *http.Request) {
		if httputil.MethodNotAllowed(w, r, http.MethodGet) {
			return
		}
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no") // Disable buffering for nginx

		id, c := tail.Subscribe()
		defer tail.Unsubscribe(id)

		// Send initial ping to establish connection
		w.Write([]byte(": ping\n\n"))
		flusher.Flush()

		for {
			select {
			case line, ok := <-c:
				if !ok {
					return
				}
				if _, err := fmt.Fprintf(w, "data: %s\n\n", line); err != nil {
					return
				}
				flusher.Flush()
			case <-r.Context().Done():
				return
			}
		}
	})
}
