package stats

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/donaldgifford/fler-tools/internal/metrics"
)

// Supported carbon transports.
const (
	ProtocolUDP = "udp"
	ProtocolTCP = "tcp"

	DefaultCarbonPort    = 2003
	DefaultCarbonTimeout = 5 * time.Second
)

// CarbonWriter sends plaintext lines to a carbon (graphite) listener. Over
// UDP each line is its own datagram; over TCP all lines share one
// connection.
type CarbonWriter struct {
	addr     string
	protocol string
	timeout  time.Duration
	dialer   net.Dialer
}

// CarbonOption configures the CarbonWriter.
type CarbonOption func(*CarbonWriter)

// WithProtocol selects ProtocolUDP or ProtocolTCP.
func WithProtocol(p string) CarbonOption {
	return func(w *CarbonWriter) {
		w.protocol = p
	}
}

// WithTimeout bounds dialing and writing.
func WithTimeout(d time.Duration) CarbonOption {
	return func(w *CarbonWriter) {
		w.timeout = d
	}
}

// NewCarbonWriter creates a writer for host:port.
func NewCarbonWriter(host string, port int, opts ...CarbonOption) (*CarbonWriter, error) {
	w := &CarbonWriter{
		addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		protocol: ProtocolUDP,
		timeout:  DefaultCarbonTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.protocol != ProtocolUDP && w.protocol != ProtocolTCP {
		return nil, fmt.Errorf("unsupported carbon protocol %q", w.protocol)
	}
	w.dialer.Timeout = w.timeout
	return w, nil
}

// Addr returns the listener address.
func (w *CarbonWriter) Addr() string {
	return w.addr
}

// Write delivers lines. It implements Sink.
func (w *CarbonWriter) Write(ctx context.Context, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	conn, err := w.dialer.DialContext(ctx, w.protocol, w.addr)
	if err != nil {
		metrics.CarbonFailuresTotal.Inc()
		return fmt.Errorf("dialing carbon %s: %w", w.addr, err)
	}
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(w.timeout)); err != nil {
		return fmt.Errorf("setting carbon write deadline: %w", err)
	}

	if w.protocol == ProtocolTCP {
		if _, err := conn.Write([]byte(strings.Join(lines, "\n") + "\n")); err != nil {
			metrics.CarbonFailuresTotal.Inc()
			return fmt.Errorf("writing to carbon %s: %w", w.addr, err)
		}
		metrics.CarbonLinesSentTotal.Add(float64(len(lines)))
		return nil
	}

	for i, line := range lines {
		if _, err := conn.Write([]byte(line + "\n")); err != nil {
			metrics.CarbonFailuresTotal.Inc()
			return fmt.Errorf("writing line %d to carbon %s: %w", i, w.addr, err)
		}
		metrics.CarbonLinesSentTotal.Inc()
	}
	return nil
}
