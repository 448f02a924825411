package registry

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ErrNotFound is the routine-absence result of Discover: the service is not
// registered right now. Callers treat it as a normal negative answer.
var ErrNotFound = errors.New("registry: service not found")

// Client talks to one registry process. The zero value is not usable; fill
// Host and Port.
type Client struct {
	Host string
	Port int
	// Timeout bounds each whole request/response exchange. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// DefaultTimeout bounds a registry exchange when Client.Timeout is zero.
const DefaultTimeout = 5 * time.Second

// NewClient returns a client for the registry at host:port.
func NewClient(host string, port int) *Client {
	return &Client{Host: host, Port: port}
}

// Register stores or overwrites name -> (host, port).
func (c *Client) Register(name, host string, port int) error {
	resp, err := c.roundTrip(Request{Type: opRegisterName, ServiceName: name, Host: host, Port: port})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("registry: register %q: %s", name, resp.Message)
	}
	return nil
}

// Discover resolves name to its registered location. A service that is not
// registered yields ErrNotFound.
func (c *Client) Discover(name string) (host string, port int, err error) {
	resp, err := c.roundTrip(Request{Type: opDiscoverName, ServiceName: name})
	if err != nil {
		return "", 0, err
	}
	if !resp.OK() {
		return "", 0, fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return resp.Host, resp.Port, nil
}

// Deregister removes name's mapping.
func (c *Client) Deregister(name string) error {
	resp, err := c.roundTrip(Request{Type: opDeregisterName, ServiceName: name})
	if err != nil {
		return err
	}
	if !resp.OK() {
		return fmt.Errorf("registry: deregister %q: %s", name, resp.Message)
	}
	return nil
}

func (c *Client) roundTrip(req Request) (Response, error) {
	var resp Response
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	addr := net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return resp, fmt.Errorf("registry: dial %s: %w", addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(timeout))

	if err := WriteFrame(conn, req); err != nil {
		return resp, fmt.Errorf("registry: send %s: %w", req.Type, err)
	}
	if err := ReadFrame(conn, &resp); err != nil {
		return resp, fmt.Errorf("registry: read %s response: %w", req.Type, err)
	}
	return resp, nil
}
