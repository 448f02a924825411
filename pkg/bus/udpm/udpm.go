// Package udpm is the inter-process bus: UDP multicast datagrams carrying
// one channel name and one payload each. Every process on the group sees
// every datagram; subscribers filter by channel locally.
package udpm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/net/ipv4"

	"github.com/Eigen-Robotics/Eigen-Robotics/pkg/bus"
)

const (
	// magic marks the start of every datagram on the group.
	magic = 0x45494742 // "EIGB"

	// maxDatagram bounds a frame to what a UDP datagram can realistically
	// carry without fragmentation trouble.
	maxDatagram = 64 * 1024
)

// ErrClosed is returned by operations on a closed bus.
var ErrClosed = errors.New("udpm: closed")

// Options configures the multicast group membership.
type Options struct {
	// Group is the multicast group address, e.g. "239.255.76.67".
	Group string
	// Port is the UDP port of the group.
	Port int
	// TTL limits how many network hops a datagram survives. 0 keeps the
	// traffic on the host.
	TTL int
}

type subscription struct {
	channel string
	handler bus.Handler
}

func (s *subscription) Channel() string { return s.channel }

// Bus implements bus.Bus over a shared UDP multicast group.
type Bus struct {
	group *net.UDPAddr
	conn  *net.UDPConn
	pc    *ipv4.PacketConn

	mu     sync.RWMutex
	subs   map[string][]*subscription
	closed bool

	closeOnce sync.Once
	closeCh   chan struct{}

	log *zap.Logger
}

// New joins the multicast group and starts the receive loop.
func New(opts Options) (*Bus, error) {
	ip := net.ParseIP(opts.Group)
	if ip == nil || !ip.IsMulticast() {
		return nil, fmt.Errorf("udpm: %q is not a multicast group", opts.Group)
	}
	group := &net.UDPAddr{IP: ip, Port: opts.Port}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: opts.Port})
	if err != nil {
		return nil, fmt.Errorf("udpm: listen: %w", err)
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.JoinGroup(nil, &net.UDPAddr{IP: ip}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("udpm: join %s: %w", opts.Group, err)
	}
	if err := pc.SetMulticastTTL(opts.TTL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("udpm: set ttl: %w", err)
	}
	// the publishing process is usually also a subscriber on the same host
	if err := pc.SetMulticastLoopback(true); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("udpm: set loopback: %w", err)
	}

	b := &Bus{
		group:   group,
		conn:    conn,
		pc:      pc,
		subs:    make(map[string][]*subscription),
		closeCh: make(chan struct{}),
		log:     zap.L().Named("udpm"),
	}
	go b.readLoop()
	return b, nil
}

// Publish frames the payload and writes one datagram to the group.
func (b *Bus) Publish(channel string, payload []byte) error {
	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	frame, err := encodeFrame(channel, payload)
	if err != nil {
		return err
	}
	_, err = b.conn.WriteToUDP(frame, b.group)
	return err
}

func (b *Bus) Subscribe(channel string, h bus.Handler) (bus.Subscription, error) {
	if h == nil {
		return nil, errors.New("udpm: nil handler")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	s := &subscription{channel: channel, handler: h}
	b.subs[channel] = append(b.subs[channel], s)
	return s, nil
}

func (b *Bus) Unsubscribe(sub bus.Subscription) error {
	s, ok := sub.(*subscription)
	if !ok {
		return errors.New("udpm: foreign subscription")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	list := b.subs[s.channel]
	for i, cand := range list {
		if cand == s {
			b.subs[s.channel] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return errors.New("udpm: subscription not found")
}

func (b *Bus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	var err error
	b.closeOnce.Do(func() {
		close(b.closeCh)
		err = b.conn.Close()
	})
	return err
}

func (b *Bus) readLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := b.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-b.closeCh:
			default:
				b.log.Warn("read loop stopped", zap.Error(err))
			}
			return
		}
		channel, payload, err := decodeFrame(buf[:n])
		if err != nil {
			b.log.Debug("dropping malformed datagram", zap.Error(err))
			continue
		}

		b.mu.RLock()
		targets := append([]*subscription(nil), b.subs[channel]...)
		b.mu.RUnlock()
		if len(targets) == 0 {
			continue
		}
		pkt := make([]byte, len(payload))
		copy(pkt, payload)
		for _, s := range targets {
			s.handler(channel, pkt)
		}
	}
}

// frame layout: u32 magic, u32 channel length, channel bytes, payload.
func encodeFrame(channel string, payload []byte) ([]byte, error) {
	total := 8 + len(channel) + len(payload)
	if total > maxDatagram {
		return nil, fmt.Errorf("udpm: frame of %d bytes exceeds datagram limit", total)
	}
	frame := make([]byte, 0, total)
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], magic)
	binary.BigEndian.PutUint32(hdr[4:], uint32(len(channel)))
	frame = append(frame, hdr[:]...)
	frame = append(frame, channel...)
	frame = append(frame, payload...)
	return frame, nil
}

func decodeFrame(frame []byte) (string, []byte, error) {
	if len(frame) < 8 {
		return "", nil, errors.New("short frame")
	}
	if binary.BigEndian.Uint32(frame[:4]) != magic {
		return "", nil, errors.New("bad magic")
	}
	n := int(binary.BigEndian.Uint32(frame[4:8]))
	if n < 0 || 8+n > len(frame) {
		return "", nil, errors.New("bad channel length")
	}
	return string(frame[8 : 8+n]), frame[8+n:], nil
}
