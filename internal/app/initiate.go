package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/sethvargo/go-retry"

	"github.com/shandysiswandi/dinebook/internal/pkg/clock"
	"github.com/shandysiswandi/dinebook/internal/pkg/config"
	"github.com/shandysiswandi/dinebook/internal/pkg/goroutine"
	"github.com/shandysiswandi/dinebook/internal/pkg/hash"
	"github.com/shandysiswandi/dinebook/internal/pkg/idempotency"
	"github.com/shandysiswandi/dinebook/internal/pkg/instrument"
	"github.com/shandysiswandi/dinebook/internal/pkg/mail"
	"github.com/shandysiswandi/dinebook/internal/pkg/messaging"
	"github.com/shandysiswandi/dinebook/internal/pkg/otp"
	"github.com/shandysiswandi/dinebook/internal/pkg/router"
	"github.com/shandysiswandi/dinebook/internal/pkg/sealer"
	"github.com/shandysiswandi/dinebook/internal/pkg/uid"
	"github.com/shandysiswandi/dinebook/internal/pkg/validator"
)

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
		LogLevel:         instrument.ParseLevel(a.config.GetString("instrument.log_level")),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.password = hash.New(
		a.config.GetString("hash.password.algorithm"),
		a.config.GetInt("hash.bcrypt.cost"),
		a.config.GetString("hash.password.pepper"),
	)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow

	a.totp = otp.NewTOTP(
		a.config.GetString("modules.identity.otp.issuer"),
		a.config.GetUint("modules.identity.otp.ttl_seconds"),
		0,
		libOTP.DigitsSix,
	)

	seal, err := sealer.NewAESGCM(a.config.GetBinary("secret.reset_otp_key"))
	if err != nil {
		slog.Error("failed to init sealer, secret.reset_otp_key must be 32 bytes base64", "error", err)
		os.Exit(1)
	}
	a.sealer = seal
}

// pingBackoff retries start-up pings while dependencies come up alongside the service.
func (a *App) pingBackoff() retry.Backoff {
	b := retry.NewFibonacci(200 * time.Millisecond)
	b = retry.WithCappedDuration(2*time.Second, b)
	return retry.WithMaxDuration(a.config.GetSecond("app.startup.ping_timeout_seconds"), b)
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	if err := retry.Do(a.ctx, a.pingBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := pool.Ping(pingCtx); err != nil {
			slog.Warn("DB not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	if err := retry.Do(a.ctx, a.pingBackoff(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			slog.Warn("redis not ready, retrying", "error", err)
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.idemp = idempotency.New(a.cacheConn)
}

func (a *App) initMail() {
	from := a.config.GetString("mail.from")

	switch driver := strings.TrimSpace(a.config.GetString("mail.driver")); driver {
	case "ses":
		ses, err := mail.NewSES(a.ctx, mail.SESConfig{
			Region:           a.config.GetString("mail.ses.region"),
			AccessKey:        a.config.GetString("mail.ses.access_key"),
			SecretKey:        a.config.GetString("mail.ses.secret_key"),
			ConfigurationSet: a.config.GetString("mail.ses.configuration_set"),
			From:             from,
		})
		if err != nil {
			slog.Error("failed to init mail", "error", err, "driver", driver)
			os.Exit(1)
		}
		a.mail = ses

	case "log":
		a.mail = mail.Log{From: from, ID: a.uuid.Generate}

	default:
		smtp, err := mail.NewSMTP(mail.SMTPConfig{
			Host:     a.config.GetString("mail.host"),
			Port:     a.config.GetInt("mail.port"),
			Username: a.config.GetString("mail.username"),
			Password: a.config.GetString("mail.password"),
			From:     from,
			Headers:  a.config.GetMap("mail.headers"),
			ID:       a.uuid.Generate,
		})
		if err != nil {
			slog.Error("failed to init mail", "error", err, "driver", driver)
			os.Exit(1)
		}
		a.mail = smtp
	}
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		MemoryBuffer: a.config.GetInt("messaging.memory.buffer"),
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			NSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			ProducerConfig: a.nsqConfig("messaging.nsq.producer_config"),
			ConsumerConfig: a.nsqConfig("messaging.nsq.consumer_config"),
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID: a.config.GetString("messaging.kafka.client_id"),
				Timeout:  a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
			},
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:       a.config.GetString("messaging.pubsub.project_id"),
			CredentialsJSON: a.config.GetBinary("messaging.pubsub.credentials_json"),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

// nsqConfig overlays the keys set under prefix on nsq defaults; unset keys
// keep the defaults so the library's minimums still validate.
func (a *App) nsqConfig(prefix string) *nsq.Config {
	cfg := nsq.NewConfig()
	if d := a.config.GetSecond(prefix + ".dial_timeout_seconds"); d > 0 {
		cfg.DialTimeout = d
	}
	if d := a.config.GetSecond(prefix + ".read_timeout_seconds"); d > 0 {
		cfg.ReadTimeout = d
	}
	if d := a.config.GetSecond(prefix + ".write_timeout_seconds"); d > 0 {
		cfg.WriteTimeout = d
	}
	if n := a.config.GetUint16(prefix + ".max_attempts"); n > 0 {
		cfg.MaxAttempts = n
	}
	if d := a.config.GetSecond(prefix + ".lookupd_poll_interval_seconds"); d > 0 {
		cfg.LookupdPollInterval = d
	}
	return cfg
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})
	a.router.GET("/health", a.health)

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
