// Package registry implements the service discovery protocol: length
// prefixed JSON frames over TCP carrying REGISTER, DISCOVER and DEREGISTER
// requests, plus the client used by services and tools. The server lives in
// the server subpackage.
package registry

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/codec"
)

// Op is the request kind. Dispatching on a closed enum instead of raw
// strings keeps the server's switch exhaustive.
type Op int

const (
	OpUnknown Op = iota
	OpRegister
	OpDiscover
	OpDeregister
)

const (
	opRegisterName   = "REGISTER"
	opDiscoverName   = "DISCOVER"
	opDeregisterName = "DEREGISTER"
)

func (o Op) String() string {
	switch o {
	case OpRegister:
		return opRegisterName
	case OpDiscover:
		return opDiscoverName
	case OpDeregister:
		return opDeregisterName
	}
	return "UNKNOWN"
}

// ParseOp maps a request's type string to its Op.
func ParseOp(s string) Op {
	switch s {
	case opRegisterName:
		return OpRegister
	case opDiscoverName:
		return OpDiscover
	case opDeregisterName:
		return OpDeregister
	}
	return OpUnknown
}

// Request is the wire shape of one registry request.
type Request struct {
	Type        string `json:"type"`
	ServiceName string `json:"service_name,omitempty"`
	// Name is the legacy spelling of ServiceName still sent by old
	// deregister clients.
	Name string `json:"name,omitempty"`
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Service returns the service name, honoring the legacy field.
func (r *Request) Service() string {
	if r.ServiceName != "" {
		return r.ServiceName
	}
	return r.Name
}

// Response statuses.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// Response is the wire shape of one registry response.
type Response struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Host    string `json:"host,omitempty"`
	Port    int    `json:"port,omitempty"`
}

// OK reports whether the response carries StatusOK.
func (r *Response) OK() bool { return r.Status == StatusOK }

// maxFrame bounds a JSON frame; registry requests are tiny, anything larger
// is a confused or hostile peer.
const maxFrame = 1 << 20

var jsonCodec = codec.JSON()

// WriteFrame writes one length-prefixed JSON frame.
func WriteFrame(w io.Writer, v any) error {
	body, err := jsonCodec.Marshal(v)
	if err != nil {
		return fmt.Errorf("registry: marshal frame: %w", err)
	}
	if len(body) > maxFrame {
		return fmt.Errorf("registry: frame of %d bytes exceeds limit", len(body))
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(body)))
	if _, err := w.Write(hdr[:]); err != nil {
		return err
	}
	_, err = w.Write(body)
	return err
}

// ReadFrame reads one length-prefixed JSON frame into v.
func ReadFrame(r io.Reader, v any) error {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return err
	}
	n := binary.BigEndian.Uint32(hdr[:])
	if n > maxFrame {
		return fmt.Errorf("registry: frame of %d bytes exceeds limit", n)
	}
	body := make([]byte, n)
	if _, err := io.ReadFull(r, body); err != nil {
		return err
	}
	if err := jsonCodec.Unmarshal(body, v); err != nil {
		return fmt.Errorf("registry: invalid JSON frame: %w", err)
	}
	return nil
}

// ReadRequest reads one request frame from a buffered reader.
func ReadRequest(br *bufio.Reader) (Request, error) {
	var req Request
	err := ReadFrame(br, &req)
	return req, err
}
