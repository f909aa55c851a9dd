package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/gobwas/pool/pbufio"

	"github.com/gobwas/wsframe"
	"github.com/gobwas/wsframe/wsutil"
)

const (
	state            = wsframe.StateServerSide
	handshakeTimeout = 10 * time.Second
	closeTimeout     = time.Second
	readBufferSize   = 4096
)

var errServerClosed = errors.New("wsecho: server closed")

type server struct {
	MaxPayloadSize int64
	Metrics        *metrics

	mu      sync.Mutex
	ln      net.Listener
	conns   map[net.Conn]struct{}
	closing bool
	wg      sync.WaitGroup
}

// Serve accepts connections on ln and handles each of them in a separate
// goroutine. It returns errServerClosed after Shutdown() call.
func (s *server) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		return errServerClosed
	}
	s.ln = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosing() {
				return errServerClosed
			}
			return err
		}
		if !s.track(conn) {
			conn.Close()
			return errServerClosed
		}
		go func() {
			defer s.untrack(conn)
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

// Shutdown stops accepting connections and makes every active connection
// close with 1001 status code. It waits for connection goroutines to finish
// or ctx to be done; in the latter case connections are closed forcibly.
func (s *server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	if s.ln != nil {
		s.ln.Close()
	}
	for conn := range s.conns {
		// Unblock readers; handlers say goodbye on their own.
		conn.SetReadDeadline(time.Now())
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
		return ctx.Err()
	}
}

func (s *server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}

func (s *server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	if s.conns == nil {
		s.conns = make(map[net.Conn]struct{})
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *server) handle(conn net.Conn) {
	addr := conn.RemoteAddr()

	br := pbufio.GetReader(conn, readBufferSize)
	defer pbufio.PutReader(br)

	conn.SetDeadline(time.Now().Add(handshakeTimeout))
	if _, err := wsframe.Upgrade(br, conn); err != nil {
		log.Printf("%s: upgrade error: %v", addr, err)
		return
	}
	// Deadline is reset under the lock so it never overrides the one set by
	// Shutdown().
	s.mu.Lock()
	closing := s.closing
	if !closing {
		conn.SetDeadline(time.Time{})
	}
	s.mu.Unlock()
	if closing {
		s.goingAway(conn)
		return
	}
	s.Metrics.connections.Inc()

	// br may hold the first bytes of the frame stream, so it is the source.
	r := wsutil.NewReader(br, state)
	r.Parser.MaxPayloadSize = s.MaxPayloadSize
	control := wsutil.ControlResponder(conn, state)

	for {
		e, err := r.NextEvent()
		if err != nil {
			s.fail(conn, br, err)
			return
		}
		s.Metrics.message(e.OpCode)

		if e.IsControl() {
			if err := control(e); err != nil {
				var closed wsutil.ClosedError
				if !errors.As(err, &closed) {
					log.Printf("%s: control error: %v", addr, err)
				}
				return
			}
			continue
		}
		if err := wsutil.WriteMessage(conn, state, e.OpCode, e.Payload); err != nil {
			log.Printf("%s: write message error: %v", addr, err)
			return
		}
	}
}

func (s *server) fail(conn net.Conn, br io.Reader, err error) {
	var (
		addr = conn.RemoteAddr()
		perr *wsframe.ProtocolError
		nerr net.Error
	)
	switch {
	case errors.As(err, &perr):
		s.Metrics.protocolErrors.Inc()
		log.Printf("%s: %v", addr, err)
		if err := wsutil.CloseOnError(conn, state, err); err != nil {
			log.Printf("%s: write close error: %v", addr, err)
			return
		}
		// Wait for the peer to close the connection. Otherwise unread bytes
		// make the kernel reset the connection and peer may lose our close
		// frame.
		conn.SetReadDeadline(time.Now().Add(closeTimeout))
		io.Copy(io.Discard, br)
	case errors.As(err, &nerr) && nerr.Timeout() && s.isClosing():
		s.goingAway(conn)
	case err == io.EOF:
		// Peer went away at the frame boundary.
	default:
		log.Printf("%s: read error: %v", addr, err)
	}
}

func (s *server) goingAway(conn net.Conn) {
	p := wsframe.NewCloseFrameBody(wsframe.StatusGoingAway, "")
	wsutil.WriteMessage(conn, state, wsframe.OpClose, p)
}
