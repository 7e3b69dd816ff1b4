package configs

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "STOREFRONT_"

type Config struct {
	App struct {
		Name     string `koanf:"name"`
		Version  string `koanf:"version"`
		Env      string `koanf:"env"`
		HTTPAddr string `koanf:"http_addr"`
		LogLevel string `koanf:"log_level"`
		LogFile  string `koanf:"log_file"` // empty: stdout only
	} `koanf:"app"`

	HTTP struct {
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	Checkout struct {
		ProcessingDelay time.Duration `koanf:"processing_delay"`
		CompletionDelay time.Duration `koanf:"completion_delay"`
		SubmitTimeout   time.Duration `koanf:"submit_timeout"`
	} `koanf:"checkout"`

	Session struct {
		TTL           time.Duration `koanf:"ttl"`
		SweepInterval time.Duration `koanf:"sweep_interval"`
	} `koanf:"session"`

	Catalog struct {
		Path string `koanf:"path"` // empty: embedded menu
	} `koanf:"catalog"`

	MySQL struct {
		DSN             string        `koanf:"dsn"` // empty: in-memory orders
		MaxOpenConns    int           `koanf:"max_open_conns"`
		MaxIdleConns    int           `koanf:"max_idle_conns"`
		ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	} `koanf:"mysql"`

	Postgres struct {
		DSN          string        `koanf:"dsn"` // alternative to mysql.dsn
		MaxOpenConns int           `koanf:"max_open_conns"`
		Retries      int           `koanf:"retries"`
		RetryDelay   time.Duration `koanf:"retry_delay"`
	} `koanf:"postgres"`

	Redis struct {
		Addr      string        `koanf:"addr"` // empty: in-memory idempotency, no status cache
		Password  string        `koanf:"password"`
		DB        int           `koanf:"db"`
		StatusTTL time.Duration `koanf:"status_ttl"`
	} `koanf:"redis"`

	Idempotency struct {
		TTL time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`

	Rabbit struct {
		URL      string `koanf:"url"` // empty: events disabled
		Prefetch int    `koanf:"prefetch"`
		Consume  bool   `koanf:"consume"`
	} `koanf:"rabbitmq"`

	Kafka struct {
		Brokers     []string `koanf:"brokers"` // empty: status updates disabled
		TopicStatus string   `koanf:"topic_status"`
		GroupID     string   `koanf:"group_id"`
		FromOldest  bool     `koanf:"from_oldest"`
	} `koanf:"kafka"`

	Security struct {
		JWTSecret string        `koanf:"jwt_secret"`
		Issuer    string        `koanf:"issuer"`
		Audience  string        `koanf:"audience"`
		TTL       time.Duration `koanf:"ttl"`
	} `koanf:"security"`

	Telemetry struct {
		Tracing bool `koanf:"tracing"`
	} `koanf:"telemetry"`
}

func Load(pathDir, envName string) (Config, error) {
	k := koanf.New(".")
	// 1) base
	if err := k.Load(file.Provider(fmt.Sprintf("%s/base.yaml", pathDir)), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	// 2) env override (dev/staging/prod). Optional: allow missing for local runs.
	_ = k.Load(file.Provider(fmt.Sprintf("%s/%s.yaml", pathDir, envName)), yaml.Parser())

	// 3) environment variables override (prefix STOREFRONT_, nested with __)
	// e.g. STOREFRONT_MYSQL__DSN, STOREFRONT_CHECKOUT__PROCESSING_DELAY
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		s = strings.ReplaceAll(s, "__", ".")
		return strings.ToLower(s)
	}), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.App.Env == "" {
		cfg.App.Env = envName
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.App.HTTPAddr == "" {
		errs = append(errs, errors.New("app.http_addr required"))
	}
	if c.Checkout.ProcessingDelay < 0 || c.Checkout.CompletionDelay < 0 {
		errs = append(errs, errors.New("checkout delays must not be negative"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret required"))
	}
	if c.MySQL.DSN != "" && c.Postgres.DSN != "" {
		errs = append(errs, errors.New("set only one of mysql.dsn and postgres.dsn"))
	}
	if len(c.Kafka.Brokers) > 0 && (c.Kafka.TopicStatus == "" || c.Kafka.GroupID == "") {
		errs = append(errs, errors.New("kafka.topic_status and kafka.group_id required when brokers are set"))
	}
	return errors.Join(errs...)
}
