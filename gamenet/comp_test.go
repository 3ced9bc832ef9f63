package gamenet

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"
)

func TestCompConnRoundTrip(t *testing.T) {
	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()

	a := NewCompConn(local)
	b := NewCompConn(peer)

	msg := bytes.Repeat([]byte("frame data "), 64)
	go func() {
		if _, err := a.Write(msg); err != nil {
			t.Errorf("write: %v", err)
		}
	}()

	b.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, len(msg))
	if _, err := io.ReadFull(b, buf); err != nil {
		t.Fatalf("read: %v", err)
	}
	if !bytes.Equal(buf, msg) {
		t.Fatalf("payload corrupted by compression")
	}
}

func TestCompConnCarriesFrames(t *testing.T) {
	local, peer := net.Pipe()
	defer local.Close()
	defer peer.Close()

	a := NewCompConn(local)
	b := NewCompConn(peer)

	go a.Write(Encode(PacketC2SChat, []byte("squeeze me")))

	ptype, payload := readWireFrame(t, b)
	if ptype != PacketC2SChat || string(payload) != "squeeze me" {
		t.Fatalf("got (%d, %q)", ptype, payload)
	}
}
