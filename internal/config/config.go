package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App struct {
		Port         string `mapstructure:"port"`
		Env          string `mapstructure:"env"`
		LogLevel     string `mapstructure:"log_level"`
		MaxBodyBytes int64  `mapstructure:"max_body_bytes"`
	} `mapstructure:"app"`
	Store struct {
		Driver string `mapstructure:"driver"`
		Path   string `mapstructure:"path"`
	} `mapstructure:"store"`
	DB struct {
		DSN string `mapstructure:"dsn"`
	} `mapstructure:"db"`
	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	Auth struct {
		MaxAttempts     int           `mapstructure:"max_attempts"`
		LockoutDuration time.Duration `mapstructure:"lockout_duration"`
		AttemptWindow   time.Duration `mapstructure:"attempt_window"`
		GuardSubmission bool          `mapstructure:"guard_submission"`
		Limiter         string        `mapstructure:"limiter"`
	} `mapstructure:"auth"`
	Assets struct {
		Driver        string `mapstructure:"driver"`
		Root          string `mapstructure:"root"`
		PublicPrefix  string `mapstructure:"public_prefix"`
		MaxCVBytes    int64  `mapstructure:"max_cv_bytes"`
		MaxImageBytes int64  `mapstructure:"max_image_bytes"`
	} `mapstructure:"assets"`
	Minio struct {
		Endpoint  string `mapstructure:"endpoint"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Bucket    string `mapstructure:"bucket"`
		UseSSL    bool   `mapstructure:"use_ssl"`
	} `mapstructure:"minio"`
	Kafka struct {
		Brokers []string `mapstructure:"brokers"`
	} `mapstructure:"kafka"`
	Cloudinary struct {
		CloudName string `mapstructure:"cloud_name"`
		ApiKey    string `mapstructure:"api_key"`
		ApiSecret string `mapstructure:"api_secret"`
	} `mapstructure:"cloudinary"`
	Jaeger struct {
		OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
		SampleRatio  float64 `mapstructure:"sample_ratio"`
	} `mapstructure:"jaeger"`
}

const (
	StoreDriverFile     = "file"
	StoreDriverPostgres = "postgres"

	LimiterMemory = "memory"
	LimiterRedis  = "redis"

	AssetDriverLocal = "local"
	AssetDriverMinio = "minio"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.max_body_bytes", 32<<20)

	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.path", "public/data.json")

	v.SetDefault("auth.max_attempts", 3)
	v.SetDefault("auth.lockout_duration", time.Minute)
	v.SetDefault("auth.attempt_window", 24*time.Hour)
	v.SetDefault("auth.guard_submission", true)
	v.SetDefault("auth.limiter", LimiterMemory)

	v.SetDefault("assets.driver", AssetDriverLocal)
	v.SetDefault("assets.root", "public/uploads")
	v.SetDefault("assets.public_prefix", "/uploads")
	v.SetDefault("assets.max_cv_bytes", 2<<20)
	v.SetDefault("assets.max_image_bytes", 5<<20)

	v.SetDefault("minio.bucket", "folio-assets")
}

// LoadConfig reads .env, then config.yaml from the given paths (or "."), then
// the environment. Later sources win.
func LoadConfig(paths ...string) (cfg Config, err error) {
	if err := godotenv.Load(); err != nil {
		log.Println("warning: .env file not found, use default.")
	}

	v := viper.New()
	setDefaults(v)

	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		log.Printf("note: config.yaml not found, read env only. Error: %v", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.BindEnv("app.port", "APP_PORT")
	v.BindEnv("app.env", "APP_ENV")
	v.BindEnv("app.log_level", "LOG_LEVEL")
	v.BindEnv("app.max_body_bytes", "APP_MAX_BODY_BYTES")
	v.BindEnv("store.driver", "STORE_DRIVER")
	v.BindEnv("store.path", "STORE_PATH")
	v.BindEnv("db.dsn", "DB_DSN")
	v.BindEnv("redis.addr", "REDIS_ADDR")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("auth.max_attempts", "AUTH_MAX_ATTEMPTS")
	v.BindEnv("auth.lockout_duration", "AUTH_LOCKOUT_DURATION")
	v.BindEnv("auth.attempt_window", "AUTH_ATTEMPT_WINDOW")
	v.BindEnv("auth.guard_submission", "AUTH_GUARD_SUBMISSION")
	v.BindEnv("auth.limiter", "AUTH_LIMITER")
	v.BindEnv("assets.driver", "ASSETS_DRIVER")
	v.BindEnv("assets.root", "ASSETS_ROOT")
	v.BindEnv("assets.public_prefix", "ASSETS_PUBLIC_PREFIX")
	v.BindEnv("assets.max_cv_bytes", "ASSETS_MAX_CV_BYTES")
	v.BindEnv("assets.max_image_bytes", "ASSETS_MAX_IMAGE_BYTES")
	v.BindEnv("minio.endpoint", "MINIO_ENDPOINT")
	v.BindEnv("minio.access_key", "MINIO_ACCESS_KEY")
	v.BindEnv("minio.secret_key", "MINIO_SECRET_KEY")
	v.BindEnv("minio.bucket", "MINIO_BUCKET")
	v.BindEnv("minio.use_ssl", "MINIO_USE_SSL")
	v.BindEnv("kafka.brokers", "KAFKA_BROKERS")
	v.BindEnv("jaeger.otlp_endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("jaeger.sample_ratio", "OTEL_TRACES_SAMPLER_ARG")

	v.BindEnv("cloudinary.cloud_name", "CLOUDINARY_CLOUD_NAME")
	v.BindEnv("cloudinary.api_key", "CLOUDINARY_API_KEY")
	v.BindEnv("cloudinary.api_secret", "CLOUDINARY_API_SECRET")

	err = v.Unmarshal(&cfg)
	return
}
