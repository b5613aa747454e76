// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"github.com/alvinbaena/pwd-fortress/internal/api"
	"github.com/alvinbaena/pwd-fortress/internal/util"
	"github.com/alvinbaena/pwd-fortress/pkg/generator"
	"github.com/likexian/selfca"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/netutil"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

var (
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve the API for auditing and generating passwords",
		Long: "Serve the API for auditing and generating passwords. Every flag can also be set with an environment " +
			"variable: PORT, SELF_TLS, TLS_CERT, TLS_KEY, DEBUG, HIBP_URL, HIBP_TIMEOUT, HIBP_RETRIES, HIBP_PADDING, " +
			"CACHE_SIZE, CACHE_TTL and MAX_CONNECTIONS. Flags take precedence.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveCommand(cmd)
		},
	}
)

//goland:noinspection GoUnhandledErrorResult
func init() {
	serveCmd.Flags().BoolVar(&selfTLS, "self-tls", false,
		"If the server should use a self-signed certificate when starting. The certificate is renewed on each server restart")
	serveCmd.Flags().StringVar(&tlsCert, "tls-cert", "", "Path to the PEM encoded TLS certificate to be used by the server")
	serveCmd.Flags().StringVar(&tlsKey, "tls-key", "", "Path to the PEM encoded TLS private key to be used by the server")
	serveCmd.Flags().Uint16VarP(&port, "port", "p", 3100, "Port to be used by the server")
	serveCmd.Flags().IntVar(&maxConnections, "max-connections", 512, "Maximum simultaneous connections. 0 means unlimited")

	rootCmd.AddCommand(serveCmd)
}

func bindServeFlags(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	flags := map[string]string{
		"PORT":            "port",
		"SELF_TLS":        "self-tls",
		"TLS_CERT":        "tls-cert",
		"TLS_KEY":         "tls-key",
		"MAX_CONNECTIONS": "max-connections",
		"HIBP_URL":        "hibp-url",
		"HIBP_TIMEOUT":    "hibp-timeout",
		"HIBP_RETRIES":    "hibp-retries",
		"HIBP_PADDING":    "hibp-padding",
		"DEBUG":           "verbose",
	}
	for key, name := range flags {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			_ = v.BindPFlag(key, flag)
		}
	}
	return v
}

func serveCommand(cmd *cobra.Command) error {
	util.ApplyCliSettings(verbose, profile, pprofPort)

	cfg, err := api.LoadConfig(bindServeFlags(cmd))
	if err != nil {
		return fmt.Errorf("invalid server configuration: %w", err)
	}

	client, cleanup, err := newLookupClient(lookupSettings{
		url:       cfg.HibpURL,
		timeout:   cfg.HibpTimeout,
		retries:   cfg.HibpRetries,
		padding:   cfg.HibpPadding,
		cacheSize: cfg.CacheSize,
		cacheTTL:  cfg.CacheTTL,
	})
	if err != nil {
		return fmt.Errorf("error initializing API: %w", err)
	}
	defer cleanup()

	router := api.NewRouter(cfg.Debug, client, generator.New(nil))

	srvAddr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              srvAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.TLSCert == "" || cfg.TLSKey == "" {
		if !cfg.SelfTLS {
			return errors.New("server requires TLS configuration to start. " +
				"Please use either the --self-tls flag or set a certificate with the --tls-cert and --tls-key flags")
		}

		log.Warn().Msgf("using auto self-signed certificate for TLS. This is not recommended for production. Please consider using your own certificates.")
		if srv.TLSConfig, err = selfSignedTLS(); err != nil {
			return err
		}
	}

	listener, err := net.Listen("tcp", srvAddr)
	if err != nil {
		return fmt.Errorf("error listening on %s: %w", srvAddr, err)
	}
	if cfg.MaxConnections > 0 {
		listener = netutil.LimitListener(listener, cfg.MaxConnections)
	}

	go func() {
		log.Info().Msgf("starting TLS Server on address: %s", srvAddr)
		// With a TLSConfig holding the certificate there is no need to pass files
		if err := srv.ServeTLS(listener, cfg.TLSCert, cfg.TLSKey); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("error starting server")
		}
	}()

	gracefulShutdown(srv)
	client.Stats()
	return nil
}

func selfSignedTLS() (*tls.Config, error) {
	caConfig := selfca.Certificate{
		IsCA:      true,
		KeySize:   2048,
		NotBefore: time.Now(),
		// 30 day self-signed cert.
		NotAfter: time.Now().Add(time.Duration(30*24) * time.Hour),
	}

	// generating the certificate
	certificate, key, err := selfca.GenerateCertificate(caConfig)
	if err != nil {
		return nil, fmt.Errorf("error generating auto self-signed certificate: %w", err)
	}

	pair, err := tls.X509KeyPair(
		pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certificate}),
		pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)}),
	)
	if err != nil {
		return nil, fmt.Errorf("error using auto self-signed certificate: %w", err)
	}

	return &tls.Config{
		MinVersion:   tls.VersionTLS12,
		Certificates: []tls.Certificate{pair},
	}, nil
}

func gracefulShutdown(srv *http.Server) {
	// Wait for interrupt signal to gracefully shut down the server with
	// a timeout.
	quit := make(chan os.Signal, 1)
	// kill (no param) default send syscall.SIGTERM
	// kill -2 is syscall.SIGINT
	// kill -9 is syscall. SIGKILL but can't be a catch, so don't need to add it
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("server Shutdown.")
	}
	log.Info().Msg("server exiting...")
}
