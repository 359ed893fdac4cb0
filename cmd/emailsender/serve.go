package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/antqd/emailsender/internal/api"
	"github.com/antqd/emailsender/internal/compose"
	"github.com/antqd/emailsender/internal/config"
	"github.com/antqd/emailsender/internal/dispatch"
	"github.com/antqd/emailsender/internal/logger"
	"github.com/antqd/emailsender/internal/module"
	"github.com/antqd/emailsender/internal/provider"
	"github.com/antqd/emailsender/internal/provider/graph"
	"github.com/antqd/emailsender/internal/provider/ses"
	"github.com/antqd/emailsender/internal/provider/smtp"
	"github.com/antqd/emailsender/internal/provider/stdout"
	"github.com/antqd/emailsender/internal/recipient"
	"github.com/antqd/emailsender/internal/server"
	servertls "github.com/antqd/emailsender/internal/tls"
)

// stdoutSender is the From address printed by the stdout provider when no
// account is configured.
const stdoutSender = "noreply@energyplanner.it"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP relay",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("load configuration: %w", err)
		}

		if _, err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
			return err
		}

		return serve(cmd.Context(), cfg)
	},
}

func serve(parent context.Context, cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	modules, err := module.Defaults().Merge(cfg.Modules)
	if err != nil {
		return fmt.Errorf("modules: %w", err)
	}

	name, err := cfg.ResolveProvider()
	if err != nil {
		return err
	}

	prov, err := selectProvider(ctx, cfg, name)
	if err != nil {
		return err
	}

	sender := cfg.Sender(name)
	if sender == "" && name == config.ProviderStdout {
		sender = stdoutSender
	}

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled {
		tlsConfig, err = servertls.LoadOrGenerate(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.ClientCAFile)
		if err != nil {
			return fmt.Errorf("setup TLS: %w", err)
		}
	}

	handler := api.NewHandler(
		dispatch.New(prov, sender, cfg.Mail.FromName),
		compose.New(nil),
		recipient.New(nil),
		cfg.HTTP.MaxBodyBytes,
	)
	router := api.NewRouter(handler, api.NewMiddleware(cfg.HTTP.CORSOrigins), modules)

	srv := server.New(server.Config{
		ListenAddr: cfg.ListenAddr(),
		Handler:    router,
		TLSConfig:  tlsConfig,
	})

	slog.Info("starting emailsender",
		"listen", cfg.ListenAddr(),
		"provider", prov.Name(),
		"sender", sender,
		"modules", len(modules),
		"tls_enabled", tlsConfig != nil,
		"mtls_enabled", cfg.TLS.ClientCAFile != "",
	)

	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}

	slog.Info("emailsender stopped")
	return nil
}

// selectProvider builds the delivery backend named by ResolveProvider. An
// explicitly chosen provider must be fully configured.
func selectProvider(ctx context.Context, cfg *config.Config, name string) (provider.Provider, error) {
	switch name {
	case config.ProviderSMTP:
		if !cfg.SMTPConfigured() {
			return nil, fmt.Errorf("smtp provider selected but MAIL_USER and MAIL_PASS are required")
		}
		slog.Info("using SMTP provider", "host", cfg.Mail.Host, "port", cfg.Mail.Port, "user", cfg.Mail.User)
		return smtp.New(smtp.SMTPProviderConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.User,
			Password: cfg.Mail.Password,
		}), nil

	case config.ProviderSES:
		if !cfg.SESConfigured() {
			return nil, fmt.Errorf("ses provider selected but SES_REGION and SES_SENDER are required")
		}
		slog.Info("using AWS SES provider", "region", cfg.SES.Region, "sender", cfg.SES.Sender)
		p, err := ses.New(ctx, ses.SESProviderConfig{
			Region:          cfg.SES.Region,
			AccessKeyID:     cfg.SES.AccessKeyID,
			SecretAccessKey: cfg.SES.SecretAccessKey,
		})
		if err != nil {
			return nil, fmt.Errorf("create SES provider: %w", err)
		}
		return p, nil

	case config.ProviderGraph:
		if !cfg.GraphConfigured() {
			return nil, fmt.Errorf("graph provider selected but GRAPH_TENANT_ID, GRAPH_CLIENT_ID, GRAPH_CLIENT_SECRET and GRAPH_SENDER are required")
		}
		slog.Info("using Microsoft Graph provider", "sender", cfg.Graph.Sender)
		return graph.New(graph.GraphProviderConfig{
			TenantID:     cfg.Graph.TenantID,
			ClientID:     cfg.Graph.ClientID,
			ClientSecret: cfg.Graph.ClientSecret,
			Mailbox:      cfg.Graph.Sender,
		}), nil

	case config.ProviderStdout:
		slog.Info("using stdout provider")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}
