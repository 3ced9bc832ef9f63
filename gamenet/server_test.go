package gamenet

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

// hooks adapts plain funcs to the Handler interface so each test wires only
// the callbacks it cares about.
type hooks struct {
	connect    func(SessionID)
	recv       func(SessionID, PacketType, []byte)
	disconnect func(SessionID)
}

func (h *hooks) OnConnect(id SessionID) {
	if h.connect != nil {
		h.connect(id)
	}
}

func (h *hooks) OnRecv(id SessionID, t PacketType, payload []byte) {
	if h.recv != nil {
		h.recv(id, t, payload)
	}
}

func (h *hooks) OnDisconnect(id SessionID) {
	if h.disconnect != nil {
		h.disconnect(id)
	}
}

func startTestServer(t *testing.T, cfg ServerConfig, h Handler) *Server {
	t.Helper()
	srv, err := NewServer(cfg, h)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	go srv.Serve()
	t.Cleanup(srv.Stop)
	return srv
}

func dialTestServer(t *testing.T, srv *Server) net.Conn {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func recvID(t *testing.T, ch chan SessionID) SessionID {
	t.Helper()
	select {
	case id := <-ch:
		return id
	case <-time.After(2 * time.Second):
		t.Fatal("callback not invoked in time")
		return 0
	}
}

func TestServerAssignsSequentialIDs(t *testing.T) {
	connects := make(chan SessionID, 3)
	srv := startTestServer(t, ServerConfig{}, &hooks{
		connect: func(id SessionID) { connects <- id },
	})

	for want := SessionID(1); want <= 3; want++ {
		dialTestServer(t, srv)
		if id := recvID(t, connects); id != want {
			t.Fatalf("connect id %d, want %d", id, want)
		}
	}
}

func TestServerCallbackOrdering(t *testing.T) {
	connects := make(chan SessionID, 1)
	frames := make(chan recvFrame, 1)
	disconnects := make(chan SessionID, 2)
	srv := startTestServer(t, ServerConfig{}, &hooks{
		connect: func(id SessionID) { connects <- id },
		recv: func(_ SessionID, pt PacketType, p []byte) {
			frames <- recvFrame{pt, append([]byte(nil), p...)}
		},
		disconnect: func(id SessionID) { disconnects <- id },
	})

	conn := dialTestServer(t, srv)
	id := recvID(t, connects)

	if _, err := conn.Write(Encode(PacketC2SChat, []byte("hi"))); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case f := <-frames:
		if f.ptype != PacketC2SChat || string(f.payload) != "hi" {
			t.Fatalf("got (%d, %q)", f.ptype, f.payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame not delivered")
	}

	conn.Close()
	if got := recvID(t, disconnects); got != id {
		t.Fatalf("disconnect id %d, want %d", got, id)
	}

	// the notification is delivered after removal, and only once
	if n := srv.Table().Len(); n != 0 {
		t.Fatalf("%d sessions left in table", n)
	}
	select {
	case id := <-disconnects:
		t.Fatalf("second disconnect notification for session %d", id)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestServerUnicastEcho(t *testing.T) {
	h := &hooks{}
	srv, err := NewServer(ServerConfig{}, h)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	h.recv = func(id SessionID, _ PacketType, payload []byte) {
		srv.Table().Send(id, Encode(PacketS2CChat, append([]byte(nil), payload...)))
	}
	go srv.Serve()
	t.Cleanup(srv.Stop)

	conn := dialTestServer(t, srv)
	if _, err := conn.Write(Encode(PacketC2SChat, []byte("ping"))); err != nil {
		t.Fatalf("write: %v", err)
	}

	ptype, payload := readWireFrame(t, conn)
	if ptype != PacketS2CChat || string(payload) != "ping" {
		t.Fatalf("got (%d, %q)", ptype, payload)
	}
}

func TestServerBadClientDoesNotAffectOthers(t *testing.T) {
	frames := make(chan recvFrame, 1)
	disconnects := make(chan SessionID, 2)
	srv := startTestServer(t, ServerConfig{}, &hooks{
		recv: func(_ SessionID, pt PacketType, p []byte) {
			frames <- recvFrame{pt, append([]byte(nil), p...)}
		},
		disconnect: func(id SessionID) { disconnects <- id },
	})

	bad := dialTestServer(t, srv)
	good := dialTestServer(t, srv)

	// a hostile header gets the offender disconnected
	hdr := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(hdr, 0xFFFFFFFF)
	binary.LittleEndian.PutUint16(hdr[4:], uint16(PacketC2SChat))
	if _, err := bad.Write(hdr); err != nil {
		t.Fatalf("write: %v", err)
	}
	recvID(t, disconnects)

	// the well-behaved client keeps working
	if _, err := good.Write(Encode(PacketC2SChat, []byte("still here"))); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case f := <-frames:
		if string(f.payload) != "still here" {
			t.Fatalf("got %q", f.payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("frame from healthy client not delivered")
	}
}

func TestServerStopDisconnectsEverySession(t *testing.T) {
	connects := make(chan SessionID, 3)
	disconnects := make(chan SessionID, 3)
	srv, err := NewServer(ServerConfig{}, &hooks{
		connect:    func(id SessionID) { connects <- id },
		disconnect: func(id SessionID) { disconnects <- id },
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve() }()

	var conns []net.Conn
	for i := 0; i < 3; i++ {
		conn, err := net.Dial("tcp", srv.Addr().String())
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		conns = append(conns, conn)
		recvID(t, connects)
	}

	srv.Stop()

	seen := make(map[SessionID]bool)
	for i := 0; i < 3; i++ {
		id := recvID(t, disconnects)
		if seen[id] {
			t.Fatalf("session %d notified twice", id)
		}
		seen[id] = true
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("Serve returned %v on orderly shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}

	// every client observes the close
	for _, conn := range conns {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		buf := make([]byte, 1)
		if n, err := conn.Read(buf); err == nil {
			t.Fatalf("client read %d bytes after shutdown", n)
		}
	}
}

func TestServerCompRoundTrip(t *testing.T) {
	h := &hooks{}
	srv, err := NewServer(ServerConfig{Comp: true}, h)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	h.recv = func(id SessionID, _ PacketType, payload []byte) {
		srv.Table().Send(id, Encode(PacketS2CChat, append([]byte(nil), payload...)))
	}
	go srv.Serve()
	t.Cleanup(srv.Stop)

	cc := NewCompConn(dialTestServer(t, srv))
	if _, err := cc.Write(Encode(PacketC2SChat, []byte("compressed ping"))); err != nil {
		t.Fatalf("write: %v", err)
	}

	ptype, payload := readWireFrame(t, cc)
	if ptype != PacketS2CChat || string(payload) != "compressed ping" {
		t.Fatalf("got (%d, %q)", ptype, payload)
	}
}
