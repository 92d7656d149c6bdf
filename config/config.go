package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Security  SecurityConfig  `mapstructure:"security"`
	Narrative NarrativeConfig `mapstructure:"narrative"`
	Intake    IntakeConfig    `mapstructure:"intake"`
}

type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	Debug    bool   `mapstructure:"debug"`
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Mode         string        `mapstructure:"mode"` // sqlite | mysql
	SQLitePath   string        `mapstructure:"sqlite_path"`
	MySQLDSN     string        `mapstructure:"mysql_dsn"`
	MySQLMaxOpen int           `mapstructure:"mysql_max_open"`
	MySQLMaxIdle int           `mapstructure:"mysql_max_idle"`
	MySQLMaxLife time.Duration `mapstructure:"mysql_max_life"`
}

type CacheConfig struct {
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	LocalGCInterval time.Duration `mapstructure:"local_gc_interval"`
	LocalPubSubBuf  int           `mapstructure:"local_pubsub_buf"`
}

type SecurityConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	JWTTTLH        time.Duration `mapstructure:"jwt_ttl_h"`
	RateLimitRPS   float64       `mapstructure:"rate_limit_rps"`
	RateLimitBurst int           `mapstructure:"rate_limit_burst"`
	// AdminIPs restricts /api/admin to the listed client IPs. Empty allows all.
	AdminIPs []string `mapstructure:"admin_ips"`
}

// NarrativeConfig configures the optional OpenAI-compatible text generator.
// With Enabled=false or an empty APIKey every request uses the local engine.
type NarrativeConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	APIKey        string        `mapstructure:"api_key"`
	BaseURL       string        `mapstructure:"base_url"`
	Model         string        `mapstructure:"model"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxTokens     int           `mapstructure:"max_tokens"`
	Temperature   float64       `mapstructure:"temperature"`
	ProbeInterval time.Duration `mapstructure:"probe_interval"`
}

type IntakeConfig struct {
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// Load reads config from the given YAML file path.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("HIKIQUEST")
	v.AutomaticEnv()
	_ = v.BindEnv("narrative.api_key", "OPENAI_API_KEY")

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.debug", false)
	v.SetDefault("database.mode", "sqlite")
	v.SetDefault("database.sqlite_path", "./data/hikiquest.db")
	v.SetDefault("database.mysql_max_open", 50)
	v.SetDefault("database.mysql_max_idle", 10)
	v.SetDefault("database.mysql_max_life", "1h")
	v.SetDefault("cache.local_gc_interval", "30s")
	v.SetDefault("cache.local_pubsub_buf", 256)
	v.SetDefault("security.jwt_ttl_h", "72h")
	v.SetDefault("security.rate_limit_rps", 20)
	v.SetDefault("security.rate_limit_burst", 40)
	v.SetDefault("narrative.enabled", true)
	v.SetDefault("narrative.base_url", "https://api.openai.com/v1")
	v.SetDefault("narrative.model", "gpt-4")
	v.SetDefault("narrative.timeout", "20s")
	v.SetDefault("narrative.max_tokens", 1500)
	v.SetDefault("narrative.temperature", 0.7)
	v.SetDefault("narrative.probe_interval", "5m")
	v.SetDefault("intake.session_ttl", "24h")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
