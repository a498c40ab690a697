// Package aegconf 负责集中式配置加载
package aegconf

import (
	"RangeGate/internal/adapter/datasource/sqlstore"
	"RangeGate/internal/aegmiddleware"
	"RangeGate/internal/core/domain"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀, 例如 RANGEGATE_SERVER_PORT 覆盖 server.port
const EnvPrefix = "RANGEGATE"

type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,min=1,max=65535"`
	LogLevel        string        `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error DEBUG INFO WARN ERROR"`
	PprofAddr       string        `mapstructure:"pprof_addr"`
	MetricsPath     string        `mapstructure:"metrics_path" validate:"required,startswith=/"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=0"`
	// TrustedProxies 为空时只按 RemoteAddr 识别客户端, 转发头一律忽略
	TrustedProxies []string `mapstructure:"trusted_proxies" validate:"dive,ip|cidr"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver" validate:"required,oneof=sqlite mysql"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port" validate:"min=0,max=65535"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"min=0"`
}

type PolicyConfig struct {
	Tables              []string      `mapstructure:"tables" validate:"required,min=1,dive,required"`
	Operations          []string      `mapstructure:"operations" validate:"dive,oneof=get add update delete"`
	AllowInForMutations bool          `mapstructure:"allow_in_for_mutations"`
	PhoneColumns        []string      `mapstructure:"phone_columns"`
	SchemaCacheTTL      time.Duration `mapstructure:"schema_cache_ttl" validate:"min=0"`
	SchemaCacheSize     int           `mapstructure:"schema_cache_size" validate:"min=0"`
}

type AccessConfig struct {
	Header      string        `mapstructure:"header" validate:"required"`
	Secret      string        `mapstructure:"secret" validate:"required_without=SecretHash"`
	SecretHash  string        `mapstructure:"secret_hash"`
	MaxFailures int           `mapstructure:"max_failures" validate:"min=0"`
	Lockout     time.Duration `mapstructure:"lockout" validate:"min=0"`
}

type AdminConfig struct {
	JWTKey   string        `mapstructure:"jwt_key" validate:"required,min=16"`
	Issuer   string        `mapstructure:"issuer"`
	TokenTTL time.Duration `mapstructure:"token_ttl" validate:"min=0"`
}

type RateLimitConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	GlobalRate  float64 `mapstructure:"global_rate" validate:"gte=0"`
	GlobalBurst int     `mapstructure:"global_burst" validate:"gte=0"`
	IPRate      float64 `mapstructure:"ip_rate" validate:"gte=0"`
	IPBurst     int     `mapstructure:"ip_burst" validate:"gte=0"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Access    AccessConfig    `mapstructure:"access"`
	Admin     AdminConfig     `mapstructure:"admin"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// setDefaults 同时让 viper 认识每个键, 否则 AutomaticEnv 无法在 Unmarshal 时生效
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 10224)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.pprof_addr", "")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("database.driver", sqlstore.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("policy.tables", []string{})
	v.SetDefault("policy.operations", []string{})
	v.SetDefault("policy.allow_in_for_mutations", false)
	v.SetDefault("policy.phone_columns", []string{"member_phone"})
	v.SetDefault("policy.schema_cache_ttl", time.Duration(0))
	v.SetDefault("policy.schema_cache_size", 128)

	v.SetDefault("access.header", "X-Range-Key")
	v.SetDefault("access.secret", "")
	v.SetDefault("access.secret_hash", "")
	v.SetDefault("access.max_failures", 10)
	v.SetDefault("access.lockout", 15*time.Minute)

	v.SetDefault("admin.jwt_key", "")
	v.SetDefault("admin.issuer", "rangegate")
	v.SetDefault("admin.token_ttl", 8*time.Hour)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.global_rate", 50.0)
	v.SetDefault("rate_limit.global_burst", 100)
	v.SetDefault("rate_limit.ip_rate", 5.0)
	v.SetDefault("rate_limit.ip_burst", 20)
}

// Load 读取配置文件 (path 为空时只用默认值和环境变量), 解析并校验。
// 返回的配置在进程生命周期内不再修改。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置文件 '%s' 失败: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置到结构体失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 执行结构体标签校验和跨字段校验
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("配置校验失败: %w", err)
	}
	if c.Database.Driver == sqlstore.DriverSQLite && c.Database.DSN == "" {
		return errors.New("配置校验失败: sqlite 驱动需要 database.dsn")
	}
	if c.Database.Driver == sqlstore.DriverMySQL && c.Database.DSN == "" && (c.Database.Host == "" || c.Database.Name == "") {
		return errors.New("配置校验失败: mysql 驱动需要 database.dsn 或 database.host + database.name")
	}
	if c.RateLimit.Enabled && (c.RateLimit.GlobalRate <= 0 || c.RateLimit.IPRate <= 0) {
		return errors.New("配置校验失败: 启用限流时 global_rate 与 ip_rate 必须大于 0")
	}
	return nil
}

// PolicyOptions 转换为白名单策略参数
func (c *Config) PolicyOptions() domain.PolicyOptions {
	return domain.PolicyOptions{
		Tables:              c.Policy.Tables,
		Operations:          c.Policy.Operations,
		AllowInForMutations: c.Policy.AllowInForMutations,
		PhoneColumns:        c.Policy.PhoneColumns,
	}
}

// StoreOptions 转换为存储连接参数
func (c *Config) StoreOptions() sqlstore.Options {
	d := c.Database
	return sqlstore.Options{
		Driver:          d.Driver,
		DSN:             d.DSN,
		Host:            d.Host,
		Port:            d.Port,
		User:            d.User,
		Password:        d.Password,
		Name:            d.Name,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

// GuardOptions 转换为共享密钥守卫参数
func (c *Config) GuardOptions() aegmiddleware.GuardOptions {
	return aegmiddleware.GuardOptions{
		Header:      c.Access.Header,
		Secret:      c.Access.Secret,
		SecretHash:  c.Access.SecretHash,
		MaxFailures: c.Access.MaxFailures,
		Lockout:     c.Access.Lockout,
	}
}

// LimitSettings 转换为限流参数
func (c *Config) LimitSettings() aegmiddleware.LimitSettings {
	return aegmiddleware.LimitSettings{
		GlobalRate:  c.RateLimit.GlobalRate,
		GlobalBurst: c.RateLimit.GlobalBurst,
		IPRate:      c.RateLimit.IPRate,
		IPBurst:     c.RateLimit.IPBurst,
	}
}
