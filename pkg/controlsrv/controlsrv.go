// SPDX-License-Identifier: BSD-3-Clause

// Package controlsrv exposes the running daemon's health over HTTP:
// a grpchealth endpoint behind CORS middleware with an otelconnect
// interceptor. daemonkit defines no application API of its own —
// applications that want one mount their own Connect handlers on the
// *http.ServeMux this package builds. It is optional: a Handler that
// needs no remote status query never spawns it.
// Setting Service.TLS serves over TLS using pkg/cert's self-signed or
// Let's Encrypt material instead of plaintext HTTP.
package controlsrv

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	connectcors "connectrpc.com/cors"
	"connectrpc.com/grpchealth"
	"connectrpc.com/otelconnect"
	"github.com/arunsworld/nursery"
	"github.com/rs/cors"

	"github.com/u-bmc-forks/daemonkit/internal/obslog"
	"github.com/u-bmc-forks/daemonkit/pkg/activation"
	"github.com/u-bmc-forks/daemonkit/pkg/cert"
	"github.com/u-bmc-forks/daemonkit/pkg/errkind"
	"github.com/u-bmc-forks/daemonkit/pkg/svc"
)

// Service is a svc.Service exposing a health endpoint (and any routes an
// application mounts on Mux before Run starts) bound through
// pkg/activation so it picks up a socket-activated listener the same way
// any other daemonkit transport does.
type Service struct {
	// Name identifies the service both as the svc.Service name and as
	// the grpchealth checked service name.
	Name_ string

	// Socket describes the listener Run binds (or inherits). Kind should
	// be activation.KindTCP for an HTTP control surface.
	Socket activation.Config

	// Mux is the application's own route table; controlsrv mounts the
	// grpchealth check handler onto it. New sets it to a fresh
	// http.ServeMux.
	Mux *http.ServeMux

	// TLS, if set, serves over TLS using the self-signed or Let's
	// Encrypt material pkg/cert produces instead of plaintext HTTP.
	TLS *cert.Config

	srv *http.Server
}

var _ svc.Service = (*Service)(nil)
var _ svc.ShutdownTimeouter = (*Service)(nil)

// New builds a Service named name, binding the given activation socket.
func New(name string, socket activation.Config) *Service {
	return &Service{Name_: name, Socket: socket, Mux: http.NewServeMux()}
}

// Name implements svc.Service.
func (s *Service) Name() string { return s.Name_ }

// ShutdownTimeout implements svc.ShutdownTimeouter with a short budget:
// an HTTP control surface should drain in-flight health probes quickly.
func (s *Service) ShutdownTimeout() time.Duration {
	return 5 * time.Second
}

func (s *Service) handler() (http.Handler, error) {
	otelInterceptor, err := otelconnect.NewInterceptor()
	if err != nil {
		return nil, fmt.Errorf("%w: create otel interceptor: %w", errkind.ErrTransport, err)
	}

	checker := grpchealth.NewStaticChecker(s.Name_)
	s.Mux.Handle(grpchealth.NewHandler(checker, connect.WithInterceptors(otelInterceptor)))

	corsMiddleware := cors.New(cors.Options{
		AllowedMethods: connectcors.AllowedMethods(),
		AllowedHeaders: connectcors.AllowedHeaders(),
		ExposedHeaders: connectcors.ExposedHeaders(),
	})
	return corsMiddleware.Handler(s.Mux), nil
}

// tlsConfig builds a *tls.Config from s.TLS: Let's Encrypt material via
// ACME for a publicly reachable control surface, or a self-signed
// certificate (generated once and cached under TLS.CertPath/KeyPath)
// for local/dev use.
func (s *Service) tlsConfig() (*tls.Config, error) {
	if s.TLS.Type == cert.CertificateTypeLetsEncrypt {
		tlsConfig, _, err := cert.GenerateAndSign(s.TLS)
		if err != nil {
			return nil, fmt.Errorf("%w: autocert: %w", errkind.ErrTransport, err)
		}
		return tlsConfig, nil
	}

	opts := cert.CertificateOptions{
		Hostname:     s.TLS.Hostname,
		Organization: s.TLS.Organization,
		Country:      s.TLS.Country,
		Province:     s.TLS.Province,
		Locality:     s.TLS.Locality,
		IsCA:         s.TLS.IsCA,
	}
	if s.TLS.ValidityPeriod > 0 {
		now := time.Now()
		opts.NotBefore = now.Add(-s.TLS.NotBeforeOffset)
		opts.NotAfter = now.Add(s.TLS.ValidityPeriod)
	}
	certPEM, keyPEM, err := cert.LoadOrGenerateCertificate(s.TLS.CertPath, s.TLS.KeyPath, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: self-signed certificate: %w", errkind.ErrTransport, err)
	}
	pair, err := tls.X509KeyPair(certPEM, keyPEM)
	if err != nil {
		return nil, fmt.Errorf("%w: parse key pair: %w", errkind.ErrTransport, err)
	}
	return &tls.Config{Certificates: []tls.Certificate{pair}}, nil
}

// Run binds s.Socket (preferring an inherited activation socket, falling
// back to a self-bind) and serves until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	sockets, err := activation.Open(ctx, []activation.Config{s.Socket})
	if err != nil {
		return err
	}
	ln := sockets[0].Listener
	if ln == nil {
		return fmt.Errorf("%w: %s: activation config did not yield a stream listener", errkind.ErrSocketActivation, s.Socket.Name)
	}

	if s.TLS != nil {
		tlsConfig, err := s.tlsConfig()
		if err != nil {
			return err
		}
		ln = tls.NewListener(ln, tlsConfig)
	}

	handler, err := s.handler()
	if err != nil {
		return err
	}

	s.srv = &http.Server{
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return ctx },
		ErrorLog:    obslog.NewStdLoggerAt(obslog.Global(), slog.LevelWarn),
	}

	return nursery.RunConcurrentlyWithContext(
		ctx,
		func(ctx context.Context, c chan error) {
			if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				c <- fmt.Errorf("%w: serve: %w", errkind.ErrTransport, err)
			}
		},
		func(ctx context.Context, c chan error) {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.ShutdownTimeout())
			defer cancel()
			_ = s.srv.Shutdown(shutdownCtx)
		})
}
