// Package udprow implements sp3ctra.ImageSource over a UDP socket
// receiving raw scanline rows, using an accept-loop-plus-done-channel
// shutdown pattern.
package udprow

import (
	"encoding/binary"
	"fmt"
	"net"

	"github.com/ondulab/sp3ctra"
)

// Source receives one sp3ctra.ImageRow per UDP datagram. Wire format per
// datagram: uint32 width, followed by width bytes of R, width bytes of
// G, width bytes of B.
type Source struct {
	conn *net.UDPConn
	rows chan sp3ctra.ImageRow
	done chan struct{}
}

// Listen binds a UDP socket at addr (e.g. ":9000") and starts the
// receive loop in a goroutine.
func Listen(addr string) (*Source, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("udprow: resolve %s: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("udprow: listen %s: %w", addr, err)
	}
	s := &Source{
		conn: conn,
		rows: make(chan sp3ctra.ImageRow, 8),
		done: make(chan struct{}),
	}
	go s.receiveLoop()
	return s, nil
}

func (s *Source) receiveLoop() {
	defer close(s.done)
	buf := make([]byte, 64*1024)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		row, ok := decodeRow(buf[:n])
		if !ok {
			continue
		}
		select {
		case s.rows <- row:
		default:
			// drop the row rather than block the receive loop under load
		}
	}
}

func decodeRow(packet []byte) (sp3ctra.ImageRow, bool) {
	if len(packet) < 4 {
		return sp3ctra.ImageRow{}, false
	}
	width := int(binary.BigEndian.Uint32(packet[:4]))
	payload := packet[4:]
	if width <= 0 || len(payload) < width*3 {
		return sp3ctra.ImageRow{}, false
	}
	row := sp3ctra.ImageRow{
		R: make([]byte, width),
		G: make([]byte, width),
		B: make([]byte, width),
	}
	copy(row.R, payload[:width])
	copy(row.G, payload[width:2*width])
	copy(row.B, payload[2*width:3*width])
	return row, true
}

// Rows returns the channel of decoded rows; closed once the receive loop
// exits after Close.
func (s *Source) Rows() <-chan sp3ctra.ImageRow { return s.rows }

// Close shuts down the socket and waits for the receive loop to exit.
func (s *Source) Close() error {
	err := s.conn.Close()
	<-s.done
	close(s.rows)
	return err
}
