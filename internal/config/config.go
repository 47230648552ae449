package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
	Group    string
	Consumer string
}

type StorageConfig struct {
	Endpoint     string
	AccessKey    string
	SecretKey    string
	BucketVideos string
	PublicBase   string
	UseSSL       bool
	Region       string
}

type TelegramConfig struct {
	BotToken    string
	PollTimeout int
}

type OpenAIConfig struct {
	APIKey          string
	BaseURL         string
	VideoModel      string
	ChatModel       string
	VideoSize       string
	RequestTimeout  time.Duration
	PollInterval    time.Duration
	MaxPollAttempts int
}

type CampaignConfig struct {
	Timezone        string
	MaxVideosPerDay int
	DefaultDuration int
	CooldownHours   int
	MaxStrikes      int
	MetricsInterval time.Duration
}

type SecurityConfig struct {
	AdminSignatureSecret string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Storage          StorageConfig
	Telegram         TelegramConfig
	OpenAI           OpenAIConfig
	Campaign         CampaignConfig
	Security         SecurityConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("CREATORBOT")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 30)
	v.SetDefault("postgres.maxidle", 10)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.stream", "campaign:tasks")
	v.SetDefault("redis.group", "metrics-workers")
	v.SetDefault("redis.consumer", "worker-1")

	v.SetDefault("storage.bucketvideos", "campaign-videos")
	v.SetDefault("storage.usessl", false)
	v.SetDefault("storage.region", "us-east-1")

	v.SetDefault("telegram.polltimeout", 60)

	v.SetDefault("openai.baseurl", "https://api.openai.com/v1")
	v.SetDefault("openai.videomodel", "sora-2")
	v.SetDefault("openai.chatmodel", "gpt-4-turbo-preview")
	v.SetDefault("openai.videosize", "720x1280")
	v.SetDefault("openai.requesttimeout", "30s")
	v.SetDefault("openai.pollinterval", "5s")
	v.SetDefault("openai.maxpollattempts", 60)

	v.SetDefault("campaign.timezone", "America/Mexico_City")
	v.SetDefault("campaign.maxvideosperday", 20)
	v.SetDefault("campaign.defaultduration", 12)
	v.SetDefault("campaign.cooldownhours", 24)
	v.SetDefault("campaign.maxstrikes", 3)
	v.SetDefault("campaign.metricsinterval", "6h")
}
