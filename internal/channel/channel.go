// Package channel opens the mutually authenticated TLS connection an EPP
// session runs over.
package channel

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultPort is the IANA-assigned EPP port.
const DefaultPort = 700

// DefaultTimeout bounds dialing, the TLS handshake and each I/O operation.
const DefaultTimeout = 10 * time.Second

var (
	ErrHostRequired     = errors.New("channel: host is required")
	ErrPortRequired     = errors.New("channel: port is required")
	ErrCertFileRequired = errors.New("channel: client certificate is required")
	ErrKeyFileRequired  = errors.New("channel: client key is required")
)

// Config describes how to reach and authenticate to a registry.
type Config struct {
	Host       string
	Port       int
	CertFile   string
	KeyFile    string
	CAFile     string // replaces the platform roots when set
	ServerName string // defaults to Host
	Timeout    time.Duration

	InsecureSkipVerify bool
}

// Validate checks the fields required to dial.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Host) == "" {
		return ErrHostRequired
	}
	if c.Port <= 0 {
		return ErrPortRequired
	}
	if strings.TrimSpace(c.CertFile) == "" {
		return ErrCertFileRequired
	}
	if strings.TrimSpace(c.KeyFile) == "" {
		return ErrKeyFileRequired
	}
	return nil
}

// Address returns host:port.
func (c Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return DefaultTimeout
}

// TLSConfig builds the client TLS configuration.
func (c Config) TLSConfig() (*tls.Config, error) {
	cfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: c.InsecureSkipVerify,
	}

	serverName := strings.TrimSpace(c.ServerName)
	if serverName == "" {
		serverName = c.Host
	}
	cfg.ServerName = serverName

	if caPath := strings.TrimSpace(c.CAFile); caPath != "" {
		caPEM, err := os.ReadFile(caPath)
		if err != nil {
			return nil, fmt.Errorf("read ca bundle: %w", err)
		}
		pool := x509.NewCertPool()
		if ok := pool.AppendCertsFromPEM(caPEM); !ok {
			return nil, fmt.Errorf("channel: parse tls ca bundle: %s", caPath)
		}
		cfg.RootCAs = pool
	}

	cert, err := tls.LoadX509KeyPair(c.CertFile, c.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client key pair: %w", err)
	}
	cfg.Certificates = []tls.Certificate{cert}

	return cfg, nil
}

// Dial connects to the registry and completes the TLS handshake.
func Dial(ctx context.Context, cfg Config) (net.Conn, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	tlsCfg, err := cfg.TLSConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: cfg.timeout()}
	rawConn, err := dialer.DialContext(ctx, "tcp", cfg.Address())
	if err != nil {
		return nil, err
	}

	conn := tls.Client(rawConn, tlsCfg)
	handshakeCtx, cancel := context.WithTimeout(ctx, cfg.timeout())
	defer cancel()
	if err := conn.HandshakeContext(handshakeCtx); err != nil {
		_ = rawConn.Close()
		return nil, fmt.Errorf("tls handshake: %w", err)
	}
	return conn, nil
}
