package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vitrinehq/vitrine/core/catalog"
	"github.com/vitrinehq/vitrine/core/config"
	"github.com/vitrinehq/vitrine/core/email"
	"github.com/vitrinehq/vitrine/core/logger"
	"github.com/vitrinehq/vitrine/core/notification"
	"github.com/vitrinehq/vitrine/core/operator"
	"github.com/vitrinehq/vitrine/core/session"
	"github.com/vitrinehq/vitrine/core/tenant"
	"github.com/vitrinehq/vitrine/httpserver"
	"github.com/vitrinehq/vitrine/integration/acme"
	"github.com/vitrinehq/vitrine/integration/database/pg"
	"github.com/vitrinehq/vitrine/integration/database/redis"
	"github.com/vitrinehq/vitrine/integration/dns"
	"github.com/vitrinehq/vitrine/integration/email/postmark"
)

// appConfig holds platform-level settings not owned by any single component.
type appConfig struct {
	// PlatformApex is the shared domain hosting path-based storefronts and
	// the operator dashboard.
	PlatformApex string `env:"PLATFORM_APEX" envDefault:"vitrine.app"`

	SecureCookies bool `env:"SECURE_COOKIES" envDefault:"true"`

	// HTTPSAddr enables the TLS listener serving custom domains with their
	// issued certificates. Empty leaves TLS to the ingress in front.
	HTTPSAddr string `env:"HTTPS_ADDR"`

	// FallbackCert/FallbackKey are served for SNI that has no issued
	// certificate, typically the platform's own wildcard certificate.
	FallbackCert string `env:"TLS_FALLBACK_CERT"`
	FallbackKey  string `env:"TLS_FALLBACK_KEY"`

	// EmailDriver selects the outbound mail transport: "postmark" or "dev".
	EmailDriver string `env:"EMAIL_DRIVER" envDefault:"dev"`
	DevEmailDir string `env:"DEV_EMAIL_DIR" envDefault:"./tmp/emails"`

	ACMEEmail        string `env:"ACME_EMAIL,required"`
	ACMECertDir      string `env:"ACME_CERT_DIR" envDefault:"./certs"`
	ACMEDirectoryURL string `env:"ACME_DIRECTORY_URL"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.New(logCfg)

	if err := run(ctx, log); err != nil {
		log.Error("fatal", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		appCfg   appConfig
		pgCfg    pg.Config
		redisCfg redis.Config
		dnsCfg   dns.Config
		httpCfg  httpserver.Config
	)
	config.MustLoad(&appCfg)
	config.MustLoad(&pgCfg)
	config.MustLoad(&redisCfg)
	config.MustLoad(&dnsCfg)
	config.MustLoad(&httpCfg)

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pg.Migrate(ctx, pool, pgCfg, log); err != nil {
		return err
	}

	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	tenants := pg.NewTenantStore(pool)
	sessions := session.NewManager(redis.NewSessionStore(redisClient))
	catalogSvc := catalog.NewService(pg.NewCatalogStore(pool), log)
	operatorSvc := operator.NewService(pg.NewOperatorStore(pool), operator.WithLogger(log))

	verifier, err := dns.NewVerifier(dnsCfg.IngressIP, dns.WithLogger(log))
	if err != nil {
		return err
	}

	provisioner, err := buildProvisioner(appCfg, log)
	if err != nil {
		return err
	}

	sender, err := buildSender(appCfg)
	if err != nil {
		return err
	}
	notifier := notification.New(sender, log)

	handlers := httpserver.NewHandlers(httpserver.HandlersConfig{
		Tenants:      tenants,
		Catalog:      catalogSvc,
		Operators:    operatorSvc,
		Verifier:     verifier,
		Provisioner:  provisioner,
		Notifier:     notifier,
		PlatformApex: appCfg.PlatformApex,
		Log:          log,
	})

	router := handlers.Router(httpserver.RouterConfig{
		Sessions:      sessions,
		Resolver:      tenant.NewResolver(tenants, appCfg.PlatformApex),
		SecureCookies: appCfg.SecureCookies,
		HealthChecks: map[string]httpserver.HealthCheck{
			"postgres": pg.Healthcheck(pool),
			"redis":    redis.Healthcheck(redisClient),
		},
		Log: log,
	})

	g, ctx := errgroup.WithContext(ctx)

	srv := httpserver.NewFromConfig(httpCfg, httpserver.WithLogger(log))
	g.Go(func() error { return srv.Run(ctx, router) })

	if appCfg.HTTPSAddr != "" {
		var opts []acme.CertStoreOption
		if appCfg.FallbackCert != "" && appCfg.FallbackKey != "" {
			opts = append(opts, acme.WithFallbackCertificate(appCfg.FallbackCert, appCfg.FallbackKey))
		}
		certs, err := acme.NewCertStore(appCfg.ACMECertDir, opts...)
		if err != nil {
			return err
		}

		tlsSrv := httpserver.New(appCfg.HTTPSAddr,
			httpserver.WithLogger(log),
			httpserver.WithTLSConfig(certs.TLSConfig()))
		g.Go(func() error { return tlsSrv.Run(ctx, router) })
	}

	return g.Wait()
}

func buildProvisioner(cfg appConfig, log *slog.Logger) (*acme.Provisioner, error) {
	var opts []acme.IssuerOption
	if cfg.ACMEDirectoryURL != "" {
		opts = append(opts, acme.WithCADirectoryURL(cfg.ACMEDirectoryURL))
	}

	issuer, err := acme.NewLegoIssuer(cfg.ACMEEmail, cfg.ACMECertDir, opts...)
	if err != nil {
		return nil, err
	}

	return acme.NewProvisioner(issuer, acme.WithLogger(log)), nil
}

func buildSender(cfg appConfig) (email.EmailSender, error) {
	if cfg.EmailDriver != "postmark" {
		return email.NewDevSender(cfg.DevEmailDir), nil
	}

	var pmCfg postmark.Config
	config.MustLoad(&pmCfg)
	return postmark.New(pmCfg)
}
