// The MIT License (MIT)
//
// # Copyright (c) 2024 pinetree-games
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

package gamenet

import (
	"log"
	"net"
	"sync/atomic"

	"github.com/pkg/errors"
)

// ServerConfig carries server construction options.
type ServerConfig struct {
	// Port is the TCP listen port (IPv4). Port 0 picks an ephemeral port.
	Port int
	// Comp wraps every accepted connection with snappy compression; peers
	// must enable the same option.
	Comp bool
}

// Server owns the listening endpoint, allocates session ids, and wires every
// accepted connection into the session table.
type Server struct {
	listener net.Listener
	table    *Table
	handler  Handler
	comp     bool

	nextID uint32
	done   chan struct{}
}

// NewServer binds the listen socket and prepares the session table. Accepting
// starts when Serve is called, so callers can finish wiring their handler
// (typically handing it the table) before the first connection lands.
func NewServer(cfg ServerConfig, h Handler) (*Server, error) {
	l, err := net.ListenTCP("tcp4", &net.TCPAddr{Port: cfg.Port})
	if err != nil {
		return nil, errors.Wrap(err, "listen")
	}
	return &Server{
		listener: l,
		table:    NewTable(),
		handler:  h,
		comp:     cfg.Comp,
		done:     make(chan struct{}),
	}, nil
}

// Table exposes the session registry for application handlers.
func (s *Server) Table() *Table { return s.table }

// Addr returns the bound listen address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Serve runs the accept loop until Stop closes the listener. Each accepted
// connection gets a fresh session id, enters the table, triggers OnConnect,
// and then starts its read loop, in that order. A nil return means an orderly
// shutdown; transient accept failures are logged and the loop keeps going.
func (s *Server) Serve() error {
	defer close(s.done)
	log.Println("listening on:", s.listener.Addr())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Println("accept:", err)
			continue
		}

		var c net.Conn = conn
		if s.comp {
			c = NewCompConn(conn)
		}

		id := SessionID(atomic.AddUint32(&s.nextID, 1))
		sess := newSession(id, c, s.handler.OnRecv, func(id SessionID) {
			s.table.Remove(id)
			s.handler.OnDisconnect(id)
		})

		s.table.Add(sess)
		s.handler.OnConnect(id)
		sess.Start()
	}
}

// Stop closes the listener, waits for the accept loop to drain, then
// disconnects every live session. In-flight reads and writes fail with
// closed-connection errors, which each session treats as orderly teardown.
// Stop must only be called while Serve is running.
func (s *Server) Stop() {
	s.listener.Close()
	<-s.done
	s.table.DisconnectAll()
}
