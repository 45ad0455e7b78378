// Package server exposes the hook dispatcher over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/potooio/synchook/internal/config"
	"github.com/potooio/synchook/internal/protocol"
)

// Server is the HTTP(S) server for the hook endpoints.
type Server struct {
	config  *config.Config
	handler *Handler
	logger  *zap.Logger

	server        *http.Server
	metricsServer *http.Server

	listener        net.Listener
	metricsListener net.Listener
}

// New creates a server for dispatcher configured by cfg.
func New(cfg *config.Config, dispatcher *protocol.Dispatcher, logger *zap.Logger) *Server {
	return &Server{
		config:  cfg,
		handler: NewHandler(dispatcher, cfg.MaxBodyBytes, logger),
		logger:  logger.Named("server"),
	}
}

// Handler returns the HTTP handler shared by all listeners.
func (s *Server) Handler() *Handler {
	return s.handler
}

// Addr returns the bound address of the hook listener, or "" before Listen.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// MetricsAddr returns the bound address of the metrics listener, or "".
func (s *Server) MetricsAddr() string {
	if s.metricsListener == nil {
		return ""
	}
	return s.metricsListener.Addr().String()
}

// Listen binds the configured addresses and prepares TLS.
func (s *Server) Listen() error {
	tlsConfig, err := s.getTLSConfig()
	if err != nil {
		return fmt.Errorf("failed to configure TLS: %w", err)
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.handler.Router(s.config.MetricsAddr == ""),
		ReadTimeout:  s.config.ReadTimeout.Duration,
		WriteTimeout: s.config.WriteTimeout.Duration,
		IdleTimeout:  60 * time.Second,
	}

	if s.config.MetricsAddr != "" {
		mln, err := net.Listen("tcp", s.config.MetricsAddr)
		if err != nil {
			_ = ln.Close()
			return fmt.Errorf("failed to listen on %s: %w", s.config.MetricsAddr, err)
		}
		s.metricsListener = mln
		s.metricsServer = &http.Server{
			Handler:           MetricsRouter(),
			ReadHeaderTimeout: 10 * time.Second,
		}
	}
	return nil
}

// Serve serves on the bound listeners until ctx is cancelled, then shuts
// down gracefully within the configured shutdown timeout.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return fmt.Errorf("server is not listening")
	}

	errCh := make(chan error, 2)
	go func() {
		s.logger.Info("Starting hook server",
			zap.String("addr", s.Addr()),
			zap.Bool("tls", s.config.TLSEnabled()))
		if err := s.server.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	if s.metricsServer != nil {
		go func() {
			s.logger.Info("Starting metrics server", zap.String("addr", s.MetricsAddr()))
			if err := s.metricsServer.Serve(s.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}
	s.handler.SetReady(true)

	select {
	case <-ctx.Done():
		s.logger.Info("Shutting down server")
		s.handler.SetReady(false)
		return s.shutdown()
	case err := <-errCh:
		s.handler.SetReady(false)
		_ = s.shutdown()
		return err
	}
}

// Start is Listen followed by Serve.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout.Duration)
	defer cancel()

	err := s.server.Shutdown(shutdownCtx)
	if s.metricsServer != nil {
		if merr := s.metricsServer.Shutdown(shutdownCtx); err == nil {
			err = merr
		}
	}
	return err
}

// getTLSConfig returns nil when TLS is disabled.
func (s *Server) getTLSConfig() (*tls.Config, error) {
	switch {
	case s.config.TLSCertFile != "" && s.config.TLSKeyFile != "":
		cert, err := tls.LoadX509KeyPair(s.config.TLSCertFile, s.config.TLSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load key pair: %w", err)
		}
		return &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}, nil

	case s.config.SelfSignedTLS:
		s.logger.Info("Generating self-signed certificates",
			zap.String("service", s.config.ServiceName),
			zap.String("namespace", s.config.Namespace))
		bundle, err := GenerateSelfSigned(s.config.ServiceName, s.config.Namespace)
		if err != nil {
			return nil, err
		}
		if s.config.CABundleFile != "" {
			if err := os.WriteFile(s.config.CABundleFile, bundle.CACert, 0o644); err != nil {
				return nil, fmt.Errorf("failed to write CA bundle: %w", err)
			}
			s.logger.Info("Wrote CA bundle", zap.String("path", s.config.CABundleFile))
		}
		return bundle.TLSConfig()
	}
	return nil, nil
}
