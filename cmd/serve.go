package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/peer"
	"github.com/iskng/imessage-exporter/internal/sink"
	"github.com/iskng/imessage-exporter/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

var (
	serveTransport string
	serveAddr      string
	serveSocket    string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Receive exported batches from a remote sink",
	Long: `Run a peer for the http or socket sink. Received batches are stored in the
embedded store selected by DBPATH; a flush makes them durable and derives
the person/thread graph.

The HTTP peer serves POST /insert, POST /flush, GET /health and GET /metrics,
over TLS when TLS_CERT and TLS_KEY are set.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if serveTransport != peer.TransportHTTP && serveTransport != peer.TransportSocket {
			return fmt.Errorf("unsupported transport: %s (supported: http, socket)", serveTransport)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		ep := store.ResolveEndpoint(conf)
		backendSink, err := sink.NewEmbeddedSink(ctx, ep)
		if err != nil {
			return err
		}
		defer func() { _ = backendSink.Close() }()
		if err := backendSink.SetupSchema(ctx); err != nil {
			return err
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		backend := peer.NewBackend(backendSink, peer.NewMetrics(reg))

		switch serveTransport {
		case peer.TransportSocket:
			path := serveSocket
			if path == "" {
				path = conf.SocketPath
			}
			l, err := peer.Listen(path)
			if err != nil {
				return fmt.Errorf("failed to listen on %s: %w", path, err)
			}
			defer func() { _ = os.Remove(path) }()
			return peer.NewSocketServer(backend).Serve(ctx, l)
		default:
			addr := serveAddr
			if addr == "" {
				addr = conf.ListenAddr
			}
			err := peer.NewHTTPServer(backend, reg).ListenAndServe(ctx, addr, conf.TLSCert, conf.TLSKey)
			if err == nil {
				internal.LogInfo("Peer stopped")
			}
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&serveTransport, "transport", "t", peer.TransportHTTP, "Transport to serve (http, socket)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "HTTP listen address; defaults to EXPORT_LISTEN_ADDR or :3000")
	serveCmd.Flags().StringVar(&serveSocket, "socket", "", "Socket path; defaults to "+internal.DefaultSocketPath)
}
