package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/kvcached/kvcached/dispatch"
	"github.com/kvcached/kvcached/observe"
)

// Server accepts connections on a Unix domain stream socket and
// dispatches each newline-delimited JSON request it reads to a
// Dispatcher, writing back the newline-delimited JSON reply.
type Server struct {
	socketPath string
	listener   net.Listener
	dispatcher *dispatch.Dispatcher
	logger     observe.Logger

	wg sync.WaitGroup
}

// New binds a listener at socketPath, removing any stale socket file
// left behind by a previous run (the reference implementation does
// the same unlink-before-bind before every listen).
func New(socketPath string, d *dispatch.Dispatcher, logger observe.Logger) (*Server, error) {
	if err := os.Remove(socketPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("server: removing stale socket: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("server: listen on %s: %w", socketPath, err)
	}

	return &Server{
		socketPath: socketPath,
		listener:   ln,
		dispatcher: d,
		logger:     logger,
	}, nil
}

// Serve runs the accept loop until ctx is canceled or the listener is
// closed. It blocks until every in-flight connection has been drained.
func (s *Server) Serve(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			s.listener.Close()
		case <-stopped:
		}
	}()
	defer close(stopped)

	s.logger.Info(ctx, "server listening", observe.Field{Key: "socket_path", Value: s.socketPath})

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				s.wg.Wait()
				return nil
			default:
				return fmt.Errorf("server: accept: %w", err)
			}
		}

		s.wg.Add(1)
		go s.handleConn(ctx, conn)
	}
}

// Close closes the listener and removes the socket file, mirroring the
// reference SocketHandler's destructor (close fd, unlink path).
func (s *Server) Close() error {
	err := s.listener.Close()
	_ = os.Remove(s.socketPath)
	return err
}

// handleConn services one connection until the client closes it, a
// read error occurs, or a write fails. A write failure discards the
// in-flight reply rather than aborting the whole server, per spec: a
// client disconnecting mid-request never takes down other connections.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	reader := bufio.NewReaderSize(conn, 4096)

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			return
		}
		line = line[:len(line)-1]
		if len(line) == 0 {
			continue
		}

		reply := s.dispatcher.Dispatch(ctx, line)
		reply = append(reply, '\n')

		if _, err := conn.Write(reply); err != nil {
			s.logger.Warn(ctx, "discarding reply after write failure", observe.Field{Key: "error", Value: err.Error()})
			return
		}
	}
}
