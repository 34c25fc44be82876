package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type HTTP struct {
	Host              string
	Port              int
	ReadTimeoutSec    int
	WriteTimeoutSec   int
	IdleTimeoutSec    int
	MaxBodyMB         int
	RequestTimeoutSec int
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int64
	CORSOrigins       []string
}
type AdminHTTP struct {
	Host string
	Port int
}

type App struct {
	Name  string
	Env   string
	HTTP  HTTP
	Admin AdminHTTP
}

type Log struct {
	Level      string
	JSON       bool
	File       string // 为空则只写 stdout
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type JWT struct {
	Secret string
	Issuer string
	Expire string // "30d" / "12h" / "90m"
}

// TTL 解析 Expire，支持 d 后缀
func (j JWT) TTL() (time.Duration, error) { return ParseTTL(j.Expire) }

type DB struct {
	Driver             string // postgres / mysql / sqlite，为空则按 DSN 推断
	DSN                string
	Username           string
	Password           string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeMin int
	AutoMigrate        bool
	LogLevel           string
}

type Docs struct {
	Enabled bool
	Path    string // openapi yaml
}

type Metrics struct {
	Enabled bool
	Path    string
}

type Config struct {
	App     App
	Log     Log
	JWT     JWT
	DB      DB
	Docs    Docs
	Metrics Metrics
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "go-gin-blog")
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.http.host", "0.0.0.0")
	v.SetDefault("app.http.port", 5000)
	v.SetDefault("app.http.readtimeoutsec", 10)
	v.SetDefault("app.http.writetimeoutsec", 15)
	v.SetDefault("app.http.idletimeoutsec", 60)
	v.SetDefault("app.http.maxbodymb", 10)
	v.SetDefault("app.http.requesttimeoutsec", 10)
	v.SetDefault("app.http.ratelimitrps", 50)
	v.SetDefault("app.http.ratelimitburst", 100)
	v.SetDefault("app.http.maxconcurrent", 300)
	v.SetDefault("app.http.corsorigins", []string{"*"})
	v.SetDefault("app.admin.host", "127.0.0.1")
	v.SetDefault("app.admin.port", 5001)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)
	v.SetDefault("log.maxsizemb", 100)
	v.SetDefault("log.maxbackups", 7)
	v.SetDefault("log.maxagedays", 30)

	v.SetDefault("log.file", "")
	v.SetDefault("log.compress", false)

	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.issuer", "")
	v.SetDefault("jwt.expire", "30d")

	v.SetDefault("db.driver", "")
	v.SetDefault("db.dsn", "")
	v.SetDefault("db.username", "")
	v.SetDefault("db.password", "")

	v.SetDefault("db.maxopenconns", 20)
	v.SetDefault("db.maxidleconns", 10)
	v.SetDefault("db.connmaxlifetimemin", 30)
	v.SetDefault("db.automigrate", true)
	v.SetDefault("db.loglevel", "warn")

	v.SetDefault("docs.enabled", true)
	v.SetDefault("docs.path", "./docs/openapi.yaml")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Load 读取 yaml（可选）+ 环境变量。
// APP_ 前缀覆盖任意 key（APP_DB_DSN），另外兼容常见的裸变量名：
// DATABASE_URL / MONGODB_URI、JWT_SECRET、JWT_EXPIRE、PORT。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
		if path == "" {
			path = "./configs/config.local.yaml"
		}
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("APP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bind := map[string][]string{
		"db.dsn":        {"APP_DB_DSN", "DATABASE_URL", "MONGODB_URI"},
		"jwt.secret":    {"APP_JWT_SECRET", "JWT_SECRET"},
		"jwt.expire":    {"APP_JWT_EXPIRE", "JWT_EXPIRE"},
		"app.http.port": {"APP_APP_HTTP_PORT", "PORT"},
	}
	for key, envs := range bind {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, err
		}
	}

	if err := v.ReadInConfig(); err != nil {
		// 配置文件可选：只允许"文件不存在"
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DriverFromDSN(c.DB.DSN)
	}
	return &c, nil
}

// Validate 启动前的必要检查
func (c *Config) Validate() error {
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("jwt secret is required (JWT_SECRET)")
	}
	if _, err := c.JWT.TTL(); err != nil {
		return err
	}
	if c.DB.DSN == "" {
		return errors.New("database dsn is required (DATABASE_URL)")
	}
	switch c.DB.Driver {
	case "postgres", "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported db driver %q", c.DB.Driver)
	}
	return nil
}

// DriverFromDSN 按 scheme 推断驱动
func DriverFromDSN(dsn string) string {
	d := strings.ToLower(strings.TrimSpace(dsn))
	switch {
	case strings.HasPrefix(d, "postgres://"), strings.HasPrefix(d, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(d, "mysql://"), strings.HasPrefix(d, "jdbc:mysql://"), strings.Contains(d, "@tcp("):
		return "mysql"
	case strings.HasPrefix(d, "sqlite:"), strings.HasPrefix(d, "file:"), d == ":memory:", strings.HasSuffix(d, ".db"):
		return "sqlite"
	}
	return ""
}

// ParseTTL 在 time.ParseDuration 基础上支持 "30d" 和纯数字（秒）
func ParseTTL(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(s, "d") {
		n, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid jwt expire %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid jwt expire %q", s)
	}
	return d, nil
}
