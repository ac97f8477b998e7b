package sink

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/store"
)

// Sink kinds accepted by New
const (
	KindEmbedded = "embedded"
	KindHTTP     = "http"
	KindSocket   = "socket"
)

// New creates the sink named by kind from conf and declares its schema
func New(ctx context.Context, kind string, conf *internal.Config) (internal.Sink, error) {
	var (
		s   internal.Sink
		err error
	)
	switch kind {
	case KindEmbedded:
		s, err = NewEmbeddedSink(ctx, store.ResolveEndpoint(conf))
	case KindHTTP:
		s, err = NewHTTPSink(HTTPEndpoint(conf), conf.TLSCert)
	case KindSocket:
		s, err = NewSocketSink(ctx, SocketPath(conf))
	default:
		return nil, fmt.Errorf("unsupported sink: %s (supported: embedded, http, socket)", kind)
	}
	if err != nil {
		return nil, &internal.SinkTransportError{Sink: kind, Op: "connect", Err: err}
	}

	if err := s.SetupSchema(ctx); err != nil {
		_ = s.Close()
		return nil, &internal.SinkTransportError{Sink: kind, Op: "setup", Err: err}
	}
	return s, nil
}

// Target describes where a sink of kind writes, for logs and the run manifest
func Target(kind string, conf *internal.Config) string {
	switch kind {
	case KindEmbedded:
		return store.ResolveEndpoint(conf).String()
	case KindHTTP:
		return HTTPEndpoint(conf)
	case KindSocket:
		return SocketPath(conf)
	default:
		return ""
	}
}

// HTTPEndpoint returns the base URL of the HTTP peer: DBPATH when it is an
// http(s) URL, otherwise the default local endpoint
func HTTPEndpoint(conf *internal.Config) string {
	if u, err := url.Parse(conf.DBPath); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return strings.TrimSuffix(conf.DBPath, "/")
	}
	return internal.DefaultHTTPEndpoint
}

// SocketPath returns the peer socket: DBPATH when it is an absolute path,
// otherwise the configured socket path
func SocketPath(conf *internal.Config) string {
	if strings.HasPrefix(conf.DBPath, "/") {
		return conf.DBPath
	}
	return conf.SocketPath
}
