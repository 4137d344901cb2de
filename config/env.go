package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// FileEnvName overrides the --config flag when set.
const FileEnvName = "STOREFRONT_CONFIG"

const (
	defaultConfigFile   = "config/app.yaml"
	defaultAppEnv       = "local"
	defaultAppPort      = "8080"
	defaultMongoURI     = "mongodb://localhost:27017/?replicaSet=rs0"
	defaultMongoDB      = "storefront"
	defaultRedisAddr    = "localhost:6379"
	DefaultJWTSecret    = "change-me-in-production"
	defaultStorageRoot  = "storage"
	defaultStorageURL   = "http://localhost:8080/storage"
	defaultSiteURL      = "http://localhost:3000"
	defaultCurrency     = "ILS"
	defaultKafkaTopic   = "storefront.orders"
	defaultShippingFee  = 20.0
	defaultMaxBodyBytes = 4 << 20
)

type Mongo struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type S3 struct {
	Bucket   string `mapstructure:"bucket"`
	Region   string `mapstructure:"region"`
	Key      string `mapstructure:"key"`
	Secret   string `mapstructure:"secret"`
	Endpoint string `mapstructure:"endpoint"`
	URL      string `mapstructure:"url"`
}

type Storage struct {
	Disk      string `mapstructure:"disk"`
	LocalRoot string `mapstructure:"local_root"`
	URL       string `mapstructure:"url"`
	S3        S3     `mapstructure:"s3"`
}

type Payment struct {
	StripeKey string `mapstructure:"stripe_key"`
	SiteURL   string `mapstructure:"site_url"`
}

type Kafka struct {
	Brokers []string `mapstructure:"brokers"`
	Topic   string   `mapstructure:"topic"`
}

type Shop struct {
	Currency       string        `mapstructure:"currency"`
	ShippingFee    float64       `mapstructure:"shipping_fee"`
	AdminEmails    []string      `mapstructure:"admin_emails"`
	CatalogTTL     time.Duration `mapstructure:"catalog_ttl"`
	CatalogLimit   int           `mapstructure:"catalog_limit"`
	MaxUploadBytes int64         `mapstructure:"max_upload_bytes"`
}

// Config is the fully resolved application configuration.
// It is built once by Load and never mutated afterwards.
type Config struct {
	AppEnv       string        `mapstructure:"app_env"`
	AppPort      string        `mapstructure:"app_port"`
	LogLevel     string        `mapstructure:"log_level"`
	Store        string        `mapstructure:"store"`
	JWTSecret    string        `mapstructure:"jwt_secret"`
	JWTTTL       time.Duration `mapstructure:"jwt_ttl"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
	RateLimit    int           `mapstructure:"rate_limit"`
	Mongo        Mongo         `mapstructure:"mongo"`
	Redis        Redis         `mapstructure:"redis"`
	Storage      Storage       `mapstructure:"storage"`
	Payment      Payment       `mapstructure:"payment"`
	Kafka        Kafka         `mapstructure:"kafka"`
	Shop         Shop          `mapstructure:"shop"`
}

// IsProduction reports whether the app runs with production settings.
func (c Config) IsProduction() bool {
	switch c.AppEnv {
	case "production", "prod":
		return true
	}
	return false
}

// Load resolves configuration from, in increasing priority: defaults, the YAML
// file, a local .env file, environment variables and the given flags.
// Environment keys are the upper-cased dotted keys with "." replaced by "_",
// e.g. MONGO_URI or SHOP_ADMIN_EMAILS.
func Load(flags *pflag.FlagSet) (Config, error) {
	const op = "config.Load"

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("%s: read .env: %w", op, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Short names kept for deployments that predate the nested keys.
	_ = v.BindEnv("shop.admin_emails", "SHOP_ADMIN_EMAILS", "ADMIN_EMAILS")
	_ = v.BindEnv("payment.stripe_key", "PAYMENT_STRIPE_KEY", "STRIPE_SECRET_KEY")
	_ = v.BindEnv("payment.site_url", "PAYMENT_SITE_URL", "SITE_URL")

	if flags != nil {
		if f := flags.Lookup("store"); f != nil {
			if err := v.BindPFlag("store", f); err != nil {
				return Config{}, fmt.Errorf("%s: %w", op, err)
			}
		}
		if f := flags.Lookup("port"); f != nil {
			if err := v.BindPFlag("app_port", f); err != nil {
				return Config{}, fmt.Errorf("%s: %w", op, err)
			}
		}
	}

	path, explicit := configFilepath(flags)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		missing := errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
		if !missing || explicit {
			return Config{}, fmt.Errorf("%s: read %s: %w", op, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%s: %w", op, err)
	}

	cfg.Shop.AdminEmails = splitList(cfg.Shop.AdminEmails)
	cfg.Kafka.Brokers = splitList(cfg.Kafka.Brokers)

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", defaultAppEnv)
	v.SetDefault("app_port", defaultAppPort)
	v.SetDefault("log_level", "")
	v.SetDefault("store", "mongo")
	v.SetDefault("jwt_secret", DefaultJWTSecret)
	v.SetDefault("jwt_ttl", 24*time.Hour)
	v.SetDefault("max_body_bytes", defaultMaxBodyBytes)
	v.SetDefault("rate_limit", 200)

	v.SetDefault("mongo.uri", defaultMongoURI)
	v.SetDefault("mongo.database", defaultMongoDB)

	v.SetDefault("redis.addr", defaultRedisAddr)
	v.SetDefault("redis.password", "")

	v.SetDefault("storage.disk", "local")
	v.SetDefault("storage.local_root", defaultStorageRoot)
	v.SetDefault("storage.url", defaultStorageURL)
	v.SetDefault("storage.s3.bucket", "")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.key", "")
	v.SetDefault("storage.s3.secret", "")
	v.SetDefault("storage.s3.endpoint", "")
	v.SetDefault("storage.s3.url", "")

	v.SetDefault("payment.stripe_key", "")
	v.SetDefault("payment.site_url", defaultSiteURL)

	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", defaultKafkaTopic)

	v.SetDefault("shop.currency", defaultCurrency)
	v.SetDefault("shop.shipping_fee", defaultShippingFee)
	v.SetDefault("shop.admin_emails", []string{})
	v.SetDefault("shop.catalog_ttl", 2*time.Minute)
	v.SetDefault("shop.catalog_limit", 200)
	v.SetDefault("shop.max_upload_bytes", 5<<20)
}

func configFilepath(flags *pflag.FlagSet) (path string, explicit bool) {
	if env, ok := os.LookupEnv(FileEnvName); ok && env != "" {
		return env, true
	}
	if flags != nil {
		if f := flags.Lookup("config"); f != nil && f.Changed {
			return f.Value.String(), true
		}
	}
	return defaultConfigFile, false
}

// splitList flattens comma-separated entries, which is how list values arrive
// from environment variables, and drops blanks.
func splitList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, item := range in {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

// Print writes the effective configuration with secrets masked.
func (c Config) Print(w io.Writer) {
	tmpl := `Loaded config:
	General:
	AppEnv=%q
	AppPort=%q
	Store=%q
	JWTSecret=%q
	JWTTTL=%s

	Mongo:
	URI=%q
	Database=%q

	Redis:
	Addr=%q

	Storage:
	Disk=%q
	S3Bucket=%q

	Payment:
	StripeKey=%q
	SiteURL=%q

	Kafka:
	Brokers=%q
	Topic=%q

	Shop:
	Currency=%q
	ShippingFee=%.2f
	AdminEmails=%q
	CatalogTTL=%s
`
	fmt.Fprintf(w, tmpl,
		c.AppEnv,
		c.AppPort,
		c.Store,
		mask(c.JWTSecret),
		c.JWTTTL,
		c.Mongo.URI,
		c.Mongo.Database,
		c.Redis.Addr,
		c.Storage.Disk,
		c.Storage.S3.Bucket,
		mask(c.Payment.StripeKey),
		c.Payment.SiteURL,
		c.Kafka.Brokers,
		c.Kafka.Topic,
		c.Shop.Currency,
		c.Shop.ShippingFee,
		c.Shop.AdminEmails,
		c.Shop.CatalogTTL,
	)
}

func mask(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", len(secret)-4)
}
