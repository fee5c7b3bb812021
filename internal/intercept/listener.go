package intercept

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/bastion/internal/domain"
)

const (
	// readTimeout bounds the first read so a stalled client cannot pin
	// a worker. A timed-out or empty connection is closed silently.
	readTimeout = 500 * time.Millisecond

	// readBufferSize is enough for the first segment of any real
	// ClientHello or HTTP request line block.
	readBufferSize = 4096

	// quicTarget is logged for UDP/443 datagrams. QUIC payloads are
	// encrypted, so the hostname is not recoverable; just reaching this
	// socket proves the domain resolved to loopback and was blocked.
	quicTarget = "QUIC/UDP Protocol"
)

var loopbackHosts = []string{"127.0.0.1", "::1"}

// Server binds the loopback interception endpoints: TCP 80 and 443 plus
// UDP 443, on both IPv4 and IPv6 loopback. Each endpoint runs as an
// independent long-lived goroutine; one bind failure (typically EACCES
// on privileged ports without elevation) never stops the others.
type Server struct {
	events  domain.EventLogger
	warning func() string
	logger  *zap.Logger
}

// NewServer creates an interception server. warning supplies the text
// shown on the port-80 block page; it is consulted per response so
// setting changes take effect without a restart.
func NewServer(events domain.EventLogger, warning func() string, logger *zap.Logger) *Server {
	return &Server{
		events:  events,
		warning: warning,
		logger:  logger,
	}
}

// Start binds all endpoints and returns once every bind has been
// attempted. Listeners run until ctx is canceled (in practice, process
// exit).
func (s *Server) Start(ctx context.Context) {
	for _, host := range loopbackHosts {
		for _, port := range []int{80, 443} {
			s.startTCP(ctx, host, port)
		}
		s.startUDP(ctx, host)
	}
}

func (s *Server) startTCP(ctx context.Context, host string, port int) {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		s.logger.Warn("failed to bind interception listener",
			zap.String("addr", "tcp://"+addr),
			zap.Error(err))
		return
	}

	s.logger.Info("interception listener bound", zap.String("addr", "tcp://"+addr))

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("accept failed", zap.String("addr", addr), zap.Error(err))
				}
				return
			}
			go s.handleConn(conn, port)
		}
	}()
}

func (s *Server) startUDP(ctx context.Context, host string) {
	addr := net.JoinHostPort(host, "443")
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		s.logger.Warn("failed to bind interception listener",
			zap.String("addr", "udp://"+addr),
			zap.Error(err))
		return
	}

	s.logger.Info("interception listener bound", zap.String("addr", "udp://"+addr))

	go func() {
		<-ctx.Done()
		pc.Close()
	}()

	go func() {
		buf := make([]byte, readBufferSize)
		for {
			n, _, err := pc.ReadFrom(buf)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("udp read failed", zap.String("addr", addr), zap.Error(err))
				}
				return
			}
			if n == 0 {
				continue
			}
			if err := s.events.LogBlockEvent(quicTarget, domain.TargetWebsite); err != nil {
				s.logger.Warn("failed to log block event", zap.Error(err))
			}
		}
	}()
}

// handleConn reads the first bytes of a redirected connection,
// extracts the requested hostname (SNI on 443, Host header on 80), logs
// the block, and answers port 80 with a 403 page. Port 443 is closed
// without writing: no valid TLS response exists without a certificate.
func (s *Server) handleConn(conn net.Conn, port int) {
	defer conn.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))

	buf := make([]byte, readBufferSize)
	n, err := conn.Read(buf)
	if err != nil || n == 0 {
		return
	}
	data := buf[:n]

	var host string
	var ok bool
	if port == 443 {
		host, ok = ParseSNI(data)
	} else {
		host, ok = ParseHostHeader(data)
	}

	if ok {
		s.logger.Info("intercepted blocked request",
			zap.String("host", host),
			zap.Int("port", port))
		if err := s.events.LogBlockEvent(host, domain.TargetWebsite); err != nil {
			s.logger.Warn("failed to log block event", zap.Error(err))
		}
	}

	if port == 80 {
		response := fmt.Sprintf(
			"HTTP/1.1 403 Forbidden\r\nContent-Type: text/html\r\nConnection: close\r\n\r\n<h1>%s</h1>",
			s.warning())
		_, _ = conn.Write([]byte(response))
	}
}
