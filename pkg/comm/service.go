package comm

import (
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/registry"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
)

// ServiceFunc computes one response for one request.
type ServiceFunc func(req *schema.Message) (*schema.Message, error)

// ServiceOptions configures a Service endpoint.
type ServiceOptions struct {
	// Name is the service name registered with the registry.
	Name string
	// Host is the address advertised to peers. Empty means 127.0.0.1.
	Host string
	// Request and Response are the bound message types.
	Request  *schema.Type
	Response *schema.Type
	// Registry locates the registry process.
	Registry *registry.Client
	// Fn handles each request.
	Fn ServiceFunc
}

// Service binds a request/response type pair to a local TCP endpoint and
// registers its location with the registry. Each inbound connection carries
// exactly one request frame and one response frame.
type Service struct {
	Handler
	respType *schema.Type
	host     string
	reg      *registry.Client
	fn       ServiceFunc

	lnMu sync.Mutex
	ln   net.Listener
	port int
	wg   sync.WaitGroup
}

// NewService opens the endpoint on an ephemeral port, starts serving and
// registers (name, host, port) with the registry.
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.Fn == nil {
		return nil, fmt.Errorf("comm: service %q: nil handler func", opts.Name)
	}
	if opts.Request == nil || opts.Response == nil {
		return nil, fmt.Errorf("comm: service %q: request and response types are required", opts.Name)
	}
	host := opts.Host
	if host == "" {
		host = "127.0.0.1"
	}
	s := &Service{
		Handler:  newHandler(opts.Name, opts.Request, "service"),
		respType: opts.Response,
		host:     host,
		reg:      opts.Registry,
		fn:       opts.Fn,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

// open binds the listener, starts the serve loop and registers.
func (s *Service) open() error {
	ln, err := net.Listen("tcp", net.JoinHostPort(s.host, "0"))
	if err != nil {
		return fmt.Errorf("comm: service %q: listen: %w", s.name, err)
	}
	port := ln.Addr().(*net.TCPAddr).Port

	if s.reg != nil {
		if err := s.reg.Register(s.name, s.host, port); err != nil {
			_ = ln.Close()
			return fmt.Errorf("comm: service %q: %w", s.name, err)
		}
	}

	s.lnMu.Lock()
	s.ln = ln
	s.port = port
	s.lnMu.Unlock()

	s.wg.Add(1)
	go s.serve(ln)
	s.log.Info("service listening", zap.String("host", s.host), zap.Int("port", port))
	return nil
}

// Port returns the endpoint's bound port.
func (s *Service) Port() int {
	s.lnMu.Lock()
	defer s.lnMu.Unlock()
	return s.port
}

// Host returns the advertised host.
func (s *Service) Host() string { return s.host }

func (s *Service) serve(ln net.Listener) {
	defer s.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			// listener closed on Suspend
			return
		}
		s.handle(conn)
	}
}

func (s *Service) handle(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(registry.DefaultTimeout))

	payload, err := readFrame(conn)
	if err != nil {
		s.log.Warn("bad request frame", zap.Error(err))
		return
	}
	req, err := s.typ.Decode(payload)
	if err != nil {
		s.log.Warn("undecodable request", zap.Error(err))
		return
	}
	resp, err := s.fn(req)
	if err != nil {
		s.log.Warn("service handler failed", zap.Error(err))
		return
	}
	if resp == nil || resp.Type() != s.respType {
		s.log.Error("service handler returned wrong response type",
			zap.String("want", s.respType.Qualified()))
		return
	}
	out, err := resp.Encode()
	if err != nil {
		s.log.Error("response encode failed", zap.Error(err))
		return
	}
	if err := writeFrame(conn, out); err != nil {
		s.log.Warn("response write failed", zap.Error(err))
	}
}

// Suspend deregisters the service and closes the endpoint.
func (s *Service) Suspend() {
	if !s.deactivate() {
		return
	}
	if s.reg != nil {
		if err := s.reg.Deregister(s.name); err != nil {
			s.log.Warn("deregister failed", zap.Error(err))
		}
	}
	s.lnMu.Lock()
	if s.ln != nil {
		_ = s.ln.Close()
		s.ln = nil
	}
	s.lnMu.Unlock()
	s.wg.Wait()
	s.log.Info("service suspended")
}

// Restart reopens the endpoint on a fresh port and re-registers.
func (s *Service) Restart() error {
	if !s.activate() {
		return nil
	}
	if err := s.open(); err != nil {
		s.deactivate()
		return err
	}
	return nil
}

// SendServiceRequest discovers name through the registry at
// (registryHost, registryPort), connects to the resolved endpoint, sends
// req and decodes the response as respType. Discovery misses and transport
// failures come back as ordinary errors; an unreachable service is a
// routine absence for callers.
func SendServiceRequest(registryHost string, registryPort int, name string, req *schema.Message, respType *schema.Type) (*schema.Message, error) {
	reg := registry.NewClient(registryHost, registryPort)
	host, port, err := reg.Discover(name)
	if err != nil {
		return nil, err
	}
	return CallEndpoint(host, port, name, req, respType)
}

// CallEndpoint exchanges one request/response pair with a service whose
// location is already known, skipping discovery.
func CallEndpoint(host string, port int, name string, req *schema.Message, respType *schema.Type) (*schema.Message, error) {
	payload, err := req.Encode()
	if err != nil {
		return nil, fmt.Errorf("comm: request to %q: %w", name, err)
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, registry.DefaultTimeout)
	if err != nil {
		return nil, fmt.Errorf("comm: dial %q at %s: %w", name, addr, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(registry.DefaultTimeout))

	if err := writeFrame(conn, payload); err != nil {
		return nil, fmt.Errorf("comm: send to %q: %w", name, err)
	}
	respBytes, err := readFrame(conn)
	if err != nil {
		return nil, fmt.Errorf("comm: response from %q: %w", name, err)
	}
	resp, err := respType.Decode(respBytes)
	if err != nil {
		return nil, fmt.Errorf("comm: response from %q: %w", name, err)
	}
	return resp, nil
}
