package bootstrap

import (
	"errors"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	ServerPort       string   `mapstructure:"SERVER_PORT"`
	MongoUri         string   `mapstructure:"MONGO_URI"`
	MongoDatabase    string   `mapstructure:"MONGO_DATABASE"`
	RedisUrl         string   `mapstructure:"REDIS_URL"`
	IsLocalCors      bool     `mapstructure:"LOCAL_CORS"`
	CorsOrigins      []string `mapstructure:"CORS_ORIGINS"`
	StoreDriver      string   `mapstructure:"STORE_DRIVER"`
	PageLimitLobbies int      `mapstructure:"PAGE_LIMIT_LOBBIES"`
	JwtSecret        string   `mapstructure:"JWT_SECRET"`

	QuoteSource      string `mapstructure:"QUOTE_SOURCE"`
	QuoteApiUrl      string `mapstructure:"QUOTE_API_URL"`
	QuoteServiceAddr string `mapstructure:"QUOTE_SERVICE_ADDR"`
	QuoteServicePort string `mapstructure:"QUOTE_SERVICE_PORT"`

	GameDurationCeiling time.Duration `mapstructure:"GAME_DURATION_CEILING"`
	TokenTTL            time.Duration `mapstructure:"TOKEN_TTL"`
	EventDedupTTL       time.Duration `mapstructure:"EVENT_DEDUP_TTL"`
	WriteRetryAttempts  uint          `mapstructure:"WRITE_RETRY_ATTEMPTS"`
	WriteRetryInterval  time.Duration `mapstructure:"WRITE_RETRY_INTERVAL"`
}

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"

	QuoteSourceHTTP   = "http"
	QuoteSourceGRPC   = "grpc"
	QuoteSourceStatic = "static"
)

var defaults = map[string]any{
	"SERVER_PORT":           "8080",
	"MONGO_URI":             "mongodb://localhost:27017",
	"MONGO_DATABASE":        "typerace",
	"REDIS_URL":             "redis://localhost:6379/0",
	"LOCAL_CORS":            false,
	"CORS_ORIGINS":          []string{"http://localhost:3000"},
	"STORE_DRIVER":          StoreDriverMongo,
	"PAGE_LIMIT_LOBBIES":    20,
	"JWT_SECRET":            "",
	"QUOTE_SOURCE":          QuoteSourceStatic,
	"QUOTE_API_URL":         "https://api.quotable.io/random",
	"QUOTE_SERVICE_ADDR":    "localhost:8082",
	"QUOTE_SERVICE_PORT":    "8082",
	"GAME_DURATION_CEILING": 3 * time.Minute,
	"TOKEN_TTL":             time.Minute,
	"EVENT_DEDUP_TTL":       24 * time.Hour,
	"WRITE_RETRY_ATTEMPTS":  5,
	"WRITE_RETRY_INTERVAL":  20 * time.Millisecond,
}

// Setup loads cfgPath into the environment when it exists and then reads
// every key from the environment, falling back to defaults.
func Setup(cfgPath string) (*Config, error) {
	if cfgPath != "" {
		if err := godotenv.Load(cfgPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
