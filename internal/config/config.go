package config

import (
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/nerdneilsfield/faleproxy/internal/document"
	"github.com/nerdneilsfield/faleproxy/internal/fetch"
	"github.com/nerdneilsfield/faleproxy/internal/wordswap"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 FALEPROXY_SERVER_PORT
const EnvPrefix = "FALEPROXY"

// ServerConfig HTTP 服务配置
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"` // /fetch 每秒请求数，0 表示不限制
	RateBurst       int           `mapstructure:"rate_burst"`
}

// RewriteConfig 替换规则配置
type RewriteConfig struct {
	wordswap.Rule `mapstructure:",squash"`
	Sentinel      string `mapstructure:"sentinel"` // 命中该段落时不做改写，为空则关闭
}

// Validate 校验替换规则
func (c RewriteConfig) Validate() error {
	return c.Rule.Validate()
}

// Config 保存 faleproxy 的所有配置
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Fetch    fetch.Config  `mapstructure:"fetch"`
	Rewrite  RewriteConfig `mapstructure:"rewrite"`
	LogLevel string        `mapstructure:"log_level"`
	Debug    bool          `mapstructure:"debug"`
}

// Validate 校验配置
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Fetch),
		validation.Field(&c.Rewrite),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

// Validate 校验服务配置
func (c ServerConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.RateLimit, validation.Min(0.0)),
		validation.Field(&c.RateBurst, validation.Min(0)),
	)
}

// Addr 返回监听地址
func (c ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NewDefaultConfig 创建默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            3001,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateBurst:       10,
		},
		Fetch: fetch.DefaultConfig(),
		Rewrite: RewriteConfig{
			Rule:     wordswap.DefaultRule(),
			Sentinel: document.DefaultSentinel,
		},
		LogLevel: "info",
	}
}

// LoadConfig 从文件和环境变量加载配置
// configPath 为空时在家目录和当前目录查找 .faleproxy.yaml，找不到则使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName(".faleproxy")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 兼容常见的 PORT 环境变量
	if err := v.BindEnv("server.port", EnvPrefix+"_SERVER_PORT", "PORT"); err != nil {
		return nil, errors.Wrap(err, "bind PORT")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "read config")
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	d := NewDefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.rate_burst", d.Server.RateBurst)

	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("fetch.max_body_bytes", d.Fetch.MaxBodyBytes)
	v.SetDefault("fetch.user_agent", d.Fetch.UserAgent)

	v.SetDefault("rewrite.target", d.Rewrite.Target)
	v.SetDefault("rewrite.replacement", d.Rewrite.Replacement)
	v.SetDefault("rewrite.qualifiers", []string{})
	v.SetDefault("rewrite.language", d.Rewrite.Language)
	v.SetDefault("rewrite.sentinel", d.Rewrite.Sentinel)

	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("debug", d.Debug)
}
