// Package probe answers one question: does this host have any outbound
// internet reachability right now. It exists so the geo-IP resolver can skip
// its retry budget when the answer is clearly no.
package probe

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/go-logr/logr"
	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/stepherg/cellwatch"
)

const protocolICMP = 1

// Pinger sends a single ICMP echo to a fixed well-known host over an
// unprivileged datagram socket. Any failure, including a missing capability
// to open the socket, reads as unreachable.
type Pinger struct {
	host    string
	timeout time.Duration
	log     logr.Logger
}

func New(cfg cellwatch.ProbeConfig, log logr.Logger) *Pinger {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pinger{host: cfg.Host, timeout: timeout, log: log}
}

// Reachable performs the probe. It never returns an error; the caller only
// cares whether a reply came back in time.
func (p *Pinger) Reachable(ctx context.Context) bool {
	conn, err := icmp.ListenPacket("udp4", "0.0.0.0")
	if err != nil {
		p.log.Info("probe socket unavailable", "error", err.Error())
		return false
	}
	defer conn.Close()

	addr, err := net.ResolveIPAddr("ip4", p.host)
	if err != nil {
		p.log.Info("probe host did not resolve", "host", p.host, "error", err.Error())
		return false
	}

	deadline := time.Now().Add(p.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return false
	}

	echo := icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Body: &icmp.Echo{ID: os.Getpid() & 0xffff, Seq: 1, Data: []byte("cellwatch")},
	}
	payload, err := echo.Marshal(nil)
	if err != nil {
		return false
	}
	if _, err := conn.WriteTo(payload, &net.UDPAddr{IP: addr.IP}); err != nil {
		p.log.Info("probe send failed", "host", p.host, "error", err.Error())
		return false
	}

	buf := make([]byte, 1500)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		p.log.Info("probe reply not received", "host", p.host, "error", err.Error())
		return false
	}
	reply, err := icmp.ParseMessage(protocolICMP, buf[:n])
	if err != nil {
		return false
	}
	return reply.Type == ipv4.ICMPTypeEchoReply
}
