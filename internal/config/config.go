package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`

	Backend struct {
		BaseURL string        `mapstructure:"base_url"`
		Timeout time.Duration `mapstructure:"timeout"`
	} `mapstructure:"backend"`

	Pricing struct {
		Debounce       time.Duration `mapstructure:"debounce"`
		MatchThreshold float64       `mapstructure:"match_threshold"`
	} `mapstructure:"pricing"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
	} `mapstructure:"telegram"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("backend.base_url", "http://localhost:8000/api")
	v.SetDefault("backend.timeout", "0s")
	v.SetDefault("pricing.debounce", "800ms")
	v.SetDefault("pricing.match_threshold", 0.4)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
}

// Load читает YAML и переопределяет его через ENV (APP_HTTP_ADDR и т.п.).
// Пустой path - только значения по умолчанию и окружение.
func Load(path string) (Config, error) {
	// .env необязателен
	_ = gotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var c Config
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return c, err
		}
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	return c, nil
}
