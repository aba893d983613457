// Package transport provides the UDP socket used to talk to a PNIO
// device or its endpoint mapper. The destination can change mid-life
// (the endpoint mapper conversation and the PNIO conversation proper
// use different ports against the same host), so it is tracked
// separately from the bound local socket.
package transport

import (
	"errors"
	"fmt"
	"net"
	"time"
)

// SrcUDPPort is the fixed local port every conversation binds to.
const SrcUDPPort = 53212

const (
	readTimeout  = 3 * time.Second
	writeTimeout = 3 * time.Second

	// recvBufSize is the pre-allocated receive buffer size; a longer
	// datagram is cut to this many bytes.
	recvBufSize = 300
)

// IOError wraps a send/receive failure against the underlying socket.
type IOError struct {
	Op  string
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("transport: %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// UDPClient is a bound UDP socket with a mutable destination address.
type UDPClient struct {
	conn *net.UDPConn
	dst  *net.UDPAddr
}

// NewUDPClient binds a UDP socket on srcIP:SrcUDPPort and targets it
// at dstIP:dstPort.
func NewUDPClient(srcIP, dstIP net.IP, dstPort uint16) (*UDPClient, error) {
	src := &net.UDPAddr{IP: srcIP, Port: SrcUDPPort}
	conn, err := net.ListenUDP("udp4", src)
	if err != nil {
		return nil, &IOError{Op: "bind", Err: err}
	}
	return &UDPClient{
		conn: conn,
		dst:  &net.UDPAddr{IP: dstIP, Port: int(dstPort)},
	}, nil
}

// UpdateDest repoints the client at a new destination without
// rebinding the local socket.
func (c *UDPClient) UpdateDest(dstIP net.IP, dstPort uint16) {
	c.dst = &net.UDPAddr{IP: dstIP, Port: int(dstPort)}
}

// Send writes data to the current destination, subject to a 3s write
// deadline.
func (c *UDPClient) Send(data []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return 0, &IOError{Op: "set write deadline", Err: err}
	}
	n, err := c.conn.WriteToUDP(data, c.dst)
	if err != nil {
		return n, &IOError{Op: "send", Err: err}
	}
	return n, nil
}

// Receive reads a single datagram into a fixed 300-byte buffer,
// subject to a 3s read deadline, and returns the bytes actually read.
func (c *UDPClient) Receive() ([]byte, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return nil, &IOError{Op: "set read deadline", Err: err}
	}
	buf := make([]byte, recvBufSize)
	n, _, err := c.conn.ReadFromUDP(buf)
	if err != nil {
		return nil, &IOError{Op: "receive", Err: err}
	}
	return buf[:n], nil
}

// Dest reports the current destination IP and port.
func (c *UDPClient) Dest() (net.IP, uint16) {
	return c.dst.IP, uint16(c.dst.Port)
}

// Close releases the underlying socket.
func (c *UDPClient) Close() error {
	return c.conn.Close()
}

func (c *UDPClient) String() string {
	local := c.conn.LocalAddr()
	return fmt.Sprintf("%s %s", local, c.dst)
}

// IsTimeout reports whether err is a network read/write deadline
// expiry, which callers treat as "device did not answer" rather than
// a fatal transport failure.
func IsTimeout(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
