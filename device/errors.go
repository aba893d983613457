package device

import "fmt"

// ConnectError reports a failed PNIO Connect request/response exchange.
type ConnectError struct {
	Unique string
	Err    error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("device %s: connect failed: %v", e.Unique, e.Err)
}

func (e *ConnectError) Unwrap() error { return e.Err }

// StatusError reports a non-zero PNIO status in an IOD write response.
type StatusError struct {
	Status [4]byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("pnio status %x", e.Status)
}

// ReadNotReadyError is returned by SendCommonReadReq once the data-ready
// retry budget is exhausted without the module ever signaling fresh data.
type ReadNotReadyError struct {
	Command uint8
	Retries int
}

func (e *ReadNotReadyError) Error() string {
	return fmt.Sprintf("command %d not ready after %d retries", e.Command, e.Retries)
}
