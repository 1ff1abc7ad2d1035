package session

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
)

// Channel is the ordered, reliable, encrypted byte stream the session runs
// over. net.Conn satisfies it; tests substitute net.Pipe ends.
type Channel interface {
	io.ReadWriteCloser
}

// Dialer opens the channel.
type Dialer func(ctx context.Context, cfg Config) (Channel, error)

var ErrTransport = errors.New("session: transport failure")

// DialTLS is the default Dialer: TCP plus TLS per cfg.TLS, with the server
// name derived from cfg.Addr when not set explicitly.
func DialTLS(ctx context.Context, cfg Config) (Channel, error) {
	tlsCfg := &tls.Config{
		ServerName:         cfg.TLS.ServerName,
		InsecureSkipVerify: cfg.TLS.InsecureSkipVerify,
	}
	if tlsCfg.ServerName == "" {
		if host, _, err := net.SplitHostPort(cfg.Addr); err == nil {
			tlsCfg.ServerName = host
		}
	}
	if cfg.TLS.CAFile != "" {
		pem, err := os.ReadFile(cfg.TLS.CAFile)
		if err != nil {
			return nil, fmt.Errorf("%w: read ca file: %v", ErrTransport, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%w: no certificates in %s", ErrTransport, cfg.TLS.CAFile)
		}
		tlsCfg.RootCAs = pool
	}

	d := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: cfg.ConnectTimeout},
		Config:    tlsCfg,
	}
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrTransport, cfg.Addr, err)
	}
	return conn, nil
}
