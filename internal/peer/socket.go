package peer

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"github.com/iskng/imessage-exporter/internal"
	"github.com/iskng/imessage-exporter/internal/sink"
)

// SocketServer accepts batches from the socket sink. It serves one client at a
// time: one frame, one reply.
type SocketServer struct {
	backend *Backend
}

// NewSocketServer creates a SocketServer
func NewSocketServer(backend *Backend) *SocketServer {
	return &SocketServer{backend: backend}
}

// Listen removes a stale socket file at path and listens on it
func Listen(path string) (net.Listener, error) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return net.Listen("unix", path)
}

// Serve accepts connections until ctx is cancelled or l fails
func (s *SocketServer) Serve(ctx context.Context, l net.Listener) error {
	internal.LogInfo("Listening on unix socket %s", l.Addr())

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.handle(ctx, conn)
	}
}

func (s *SocketServer) handle(ctx context.Context, conn net.Conn) {
	defer func() { _ = conn.Close() }()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		frame, err := sink.ReadFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				internal.LogWarn("Dropping socket client: %v", err)
			}
			return
		}

		switch frame.Command {
		case sink.CmdInsert:
			records, err := frame.Records()
			if err != nil {
				internal.LogWarn("Rejecting insert frame: %v", err)
			} else {
				err = s.backend.Insert(ctx, TransportSocket, records)
			}
			err = sink.WriteReply(conn, err)
		case sink.CmdFlush:
			_, err = s.backend.Flush(ctx, TransportSocket)
			if err != nil {
				internal.LogError("%v", err)
			}
			err = sink.WriteReply(conn, err)
		}
		if err != nil {
			internal.LogWarn("Failed to reply to socket client: %v", err)
			return
		}
	}
}
