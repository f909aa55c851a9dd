// Command wsecho is a WebSocket echo server. It echoes every text and binary
// message back to the peer, answers control frames and closes connections
// with the appropriate status code on protocol violations.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	addr        = flag.String("listen", ":9001", "addr to listen")
	metricsAddr = flag.String("metrics", "", "addr to serve prometheus metrics on; empty disables metrics endpoint")
	maxPayload  = flag.Int64("max-payload", 16<<20, "max size of message payload in bytes")
)

func main() {
	log.SetFlags(0)
	flag.Parse()

	reg := prometheus.NewRegistry()
	s := &server{
		MaxPayloadSize: *maxPayload,
		Metrics:        newMetrics(reg),
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("listen %q error: %v", *addr, err)
	}
	log.Printf("listening %s (%q)", ln.Addr(), *addr)

	var ms *http.Server
	if *metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		ms = &http.Server{
			Addr:    *metricsAddr,
			Handler: mux,
		}
		go func() {
			err := ms.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("metrics server error: %v", err)
			}
		}()
		log.Printf("serving metrics on %q", *metricsAddr)
	}

	var (
		serve = make(chan error, 1)
		sig   = make(chan os.Signal, 1)
	)
	signal.Notify(sig, syscall.SIGTERM, os.Interrupt)
	go func() { serve <- s.Serve(ln) }()

	select {
	case err := <-serve:
		log.Fatal(err)
	case sig := <-sig:
		const timeout = 5 * time.Second

		log.Printf("signal %q received; shutting down with %s timeout", sig, timeout)

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if ms != nil {
			ms.Shutdown(ctx)
		}
		if err := s.Shutdown(ctx); err != nil {
			log.Fatal(err)
		}
	}
}
