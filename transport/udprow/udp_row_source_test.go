package udprow

import (
	"encoding/binary"
	"net"
	"testing"
	"time"
)

func TestListenReceivesDecodedRow(t *testing.T) {
	src, err := Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer src.Close()

	addr := src.conn.LocalAddr().(*net.UDPAddr)
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("DialUDP: %v", err)
	}
	defer conn.Close()

	width := 4
	packet := make([]byte, 4+width*3)
	binary.BigEndian.PutUint32(packet[:4], uint32(width))
	for i := 0; i < width; i++ {
		packet[4+i] = byte(10 * i)
		packet[4+width+i] = byte(20 * i)
		packet[4+2*width+i] = byte(30 * i)
	}
	if _, err := conn.Write(packet); err != nil {
		t.Fatalf("Write: %v", err)
	}

	select {
	case row := <-src.Rows():
		for i := 0; i < width; i++ {
			if row.R[i] != byte(10*i) || row.G[i] != byte(20*i) || row.B[i] != byte(30*i) {
				t.Fatalf("pixel %d: got (%d,%d,%d)", i, row.R[i], row.G[i], row.B[i])
			}
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for row")
	}
}

func TestDecodeRow_RejectsShortPacket(t *testing.T) {
	if _, ok := decodeRow([]byte{0, 0, 0}); ok {
		t.Fatal("expected decodeRow to reject a packet shorter than the length header")
	}
}

func TestDecodeRow_RejectsTruncatedPayload(t *testing.T) {
	packet := make([]byte, 4)
	binary.BigEndian.PutUint32(packet, 10) // claims width 10 but carries no payload
	if _, ok := decodeRow(packet); ok {
		t.Fatal("expected decodeRow to reject a packet shorter than its declared width")
	}
}
