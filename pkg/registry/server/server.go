// Package server is the registry process: a single-threaded accept loop
// answering REGISTER/DISCOVER/DEREGISTER over length-prefixed JSON frames,
// plus the built-in network-info aggregation service.
package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/comm"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/registry"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/schema"
	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/types/std"
)

// DefaultServicePrefix namespaces the fabric's built-in services apart from
// user registrations.
const DefaultServicePrefix = "__DEFAULT_SERVICE"

// NetworkInfoService is the registered name of the aggregation service.
const NetworkInfoService = DefaultServicePrefix + "/GetNetworkInfo"

// getInfoPrefix selects the per-node info providers the aggregation fans
// out to.
const getInfoPrefix = DefaultServicePrefix + "/GetInfo"

// acceptTick bounds each Accept wait so the loop can check the stop signal.
const acceptTick = 1 * time.Second

// Options configures a Registry.
type Options struct {
	// Host and Port are the TCP bind address. The fabric-wide default,
	// 127.0.0.1:1234, comes from the config layer; a zero Port binds an
	// ephemeral one, which tests rely on.
	Host string
	Port int
	// DisableNetworkInfo skips the built-in aggregation service; tests use
	// it to exercise the table in isolation.
	DisableNetworkInfo bool
}

// Registry is the discovery server.
type Registry struct {
	opts  Options
	table *table
	ln    net.Listener
	stop  chan struct{}
	done  chan struct{}

	netinfo *comm.Service

	log *zap.Logger
}

// New creates a registry. Call Start (or Run) to serve.
func New(opts Options) *Registry {
	if opts.Host == "" {
		opts.Host = "127.0.0.1"
	}
	return &Registry{
		opts:  opts,
		table: newTable(),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
		log:   zap.L().Named("registry"),
	}
}

// Start binds the listening socket and serves in a background goroutine.
// A bind failure is fatal to startup and returned to the caller.
func (r *Registry) Start() error {
	addr := net.JoinHostPort(r.opts.Host, strconv.Itoa(r.opts.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("registry: bind %s: %w", addr, err)
	}
	r.ln = ln
	r.log.Info("registry listening", zap.String("addr", ln.Addr().String()))

	if !r.opts.DisableNetworkInfo {
		if err := r.startNetworkInfo(); err != nil {
			_ = ln.Close()
			return err
		}
	}

	go r.acceptLoop()
	return nil
}

// Run is Start plus blocking until Stop is called.
func (r *Registry) Run() error {
	if err := r.Start(); err != nil {
		return err
	}
	<-r.done
	return nil
}

// Addr returns the bound listener address, nil before Start.
func (r *Registry) Addr() net.Addr {
	if r.ln == nil {
		return nil
	}
	return r.ln.Addr()
}

// Stop signals the accept loop, closes the socket and waits for shutdown.
func (r *Registry) Stop() {
	select {
	case <-r.stop:
		return
	default:
		close(r.stop)
	}
	if r.netinfo != nil {
		r.netinfo.Suspend()
	}
	_ = r.ln.Close()
	<-r.done
	m := r.table.metrics()
	r.log.Info("registry stopped",
		zap.Int("services", r.table.size()),
		zap.Uint64("registrations", m.Sets),
		zap.Uint64("lookups", m.Gets),
		zap.Uint64("lookup_misses", m.Misses),
		zap.Uint64("removals", m.Dels))
}

// acceptLoop serves one connection at a time: read request, dispatch, write
// response, close, accept again. Accept waits are bounded by acceptTick so
// the stop signal is observed within one tick.
func (r *Registry) acceptLoop() {
	defer close(r.done)
	for {
		select {
		case <-r.stop:
			return
		default:
		}
		if tl, ok := r.ln.(*net.TCPListener); ok {
			_ = tl.SetDeadline(time.Now().Add(acceptTick))
		}
		conn, err := r.ln.Accept()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-r.stop:
			default:
				r.log.Error("accept failed", zap.Error(err))
			}
			return
		}
		r.serveConn(conn)
	}
}

// serveConn handles exactly one request/response exchange. Every accepted
// connection gets an answer, malformed input included.
func (r *Registry) serveConn(conn net.Conn) {
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(acceptTick * 5))

	var req registry.Request
	if err := registry.ReadFrame(conn, &req); err != nil {
		r.log.Warn("malformed request", zap.Error(err))
		r.respond(conn, registry.Response{Status: registry.StatusError, Message: "Malformed request"})
		return
	}
	r.respond(conn, r.dispatch(req))
}

func (r *Registry) respond(conn net.Conn, resp registry.Response) {
	if err := registry.WriteFrame(conn, resp); err != nil {
		r.log.Warn("response write failed", zap.Error(err))
	}
}

func (r *Registry) dispatch(req registry.Request) registry.Response {
	switch registry.ParseOp(req.Type) {
	case registry.OpRegister:
		return r.handleRegister(req)
	case registry.OpDiscover:
		return r.handleDiscover(req)
	case registry.OpDeregister:
		return r.handleDeregister(req)
	case registry.OpUnknown:
	}
	r.log.Warn("unknown request type", zap.String("type", req.Type))
	return registry.Response{Status: registry.StatusError, Message: fmt.Sprintf("Unknown request type %q", req.Type)}
}

func (r *Registry) handleRegister(req registry.Request) registry.Response {
	name := req.Service()
	if name == "" || req.Host == "" || req.Port == 0 {
		return registry.Response{Status: registry.StatusError, Message: "REGISTER requires service_name, host and port"}
	}
	if err := r.table.register(name, req.Host, req.Port); err != nil {
		r.log.Error("register failed", zap.String("service", name), zap.Error(err))
		return registry.Response{Status: registry.StatusError, Message: "Internal error"}
	}
	r.log.Info("service registered",
		zap.String("service", name), zap.String("host", req.Host), zap.Int("port", req.Port))
	return registry.Response{Status: registry.StatusOK}
}

func (r *Registry) handleDiscover(req registry.Request) registry.Response {
	name := req.Service()
	if name == "" {
		return registry.Response{Status: registry.StatusError, Message: "DISCOVER requires service_name"}
	}
	rec, ok := r.table.lookup(name)
	if !ok {
		// absence is routine, not an error condition of the registry
		r.log.Warn("service not found", zap.String("service", name))
		return registry.Response{Status: registry.StatusError, Message: "Service not found"}
	}
	return registry.Response{Status: registry.StatusOK, Host: rec.Host, Port: rec.Port}
}

func (r *Registry) handleDeregister(req registry.Request) registry.Response {
	name := req.Service()
	if name == "" {
		return registry.Response{Status: registry.StatusError, Message: "DEREGISTER requires service_name"}
	}
	rec, ok := r.table.remove(name)
	if !ok {
		r.log.Warn("deregister of unknown service", zap.String("service", name))
		return registry.Response{Status: registry.StatusError, Message: "Service not found"}
	}
	r.log.Info("service deregistered",
		zap.String("service", name), zap.String("host", rec.Host), zap.Int("port", rec.Port))
	return registry.Response{Status: registry.StatusOK}
}

// startNetworkInfo opens the built-in aggregation service and registers it
// directly in the local table; it must not dial the registry's own socket,
// which is not accepting yet.
func (r *Registry) startNetworkInfo() error {
	svc, err := comm.NewService(comm.ServiceOptions{
		Name:     NetworkInfoService,
		Host:     r.opts.Host,
		Request:  std.FlagT,
		Response: std.NetworkInfoT,
		Fn:       r.networkInfo,
	})
	if err != nil {
		return fmt.Errorf("registry: network info service: %w", err)
	}
	r.netinfo = svc
	if err := r.table.register(NetworkInfoService, svc.Host(), svc.Port()); err != nil {
		svc.Suspend()
		return err
	}
	return nil
}

// networkInfo snapshots the registered GetInfo providers, then queries each
// one outside the lock and aggregates the answers. A provider that fails to
// respond is skipped.
func (r *Registry) networkInfo(_ *schema.Message) (*schema.Message, error) {
	names := r.table.namesWithPrefix(getInfoPrefix)

	var nodes []*schema.Message
	for _, name := range names {
		rec, ok := r.table.lookup(name)
		if !ok {
			continue
		}
		req := std.FlagT.New()
		req.MustSet("flag", true)
		resp, err := r.queryNode(rec, req)
		if err != nil {
			r.log.Warn("info provider unreachable", zap.String("service", name), zap.Error(err))
			continue
		}
		nodes = append(nodes, resp)
	}

	out := std.NetworkInfoT.New()
	if err := out.Set("n_nodes", len(nodes)); err != nil {
		return nil, err
	}
	if err := out.Set("nodes", nodes); err != nil {
		return nil, err
	}
	return out, nil
}

// queryNode performs one direct request/response exchange with an info
// provider at its registered location.
func (r *Registry) queryNode(rec record, req *schema.Message) (*schema.Message, error) {
	return comm.CallEndpoint(rec.Host, rec.Port, rec.Service, req, std.NodeInfoT)
}

// Main runs a registry until the process is signalled, for use by the CLI.
func Main(opts Options, sig <-chan os.Signal) error {
	r := New(opts)
	if err := r.Start(); err != nil {
		return err
	}
	<-sig
	r.Stop()
	return nil
}
