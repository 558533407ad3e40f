package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"PredictionLeague/internal/scoring"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Config 全局配置结构体（匹配 config/config.yaml）
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`   // 服务器配置
	Database DatabaseConfig `mapstructure:"database"` // 数据库配置
	Redis    RedisConfig    `mapstructure:"redis"`    // 排行榜缓存
	Sync     SyncConfig     `mapstructure:"sync"`     // 比赛同步与重新计分
	Season   SeasonConfig   `mapstructure:"season"`   // 赛季
	Scoring  ScoringConfig  `mapstructure:"scoring"`  // 计分制度
	Log      LogConfig      `mapstructure:"log"`      // 日志
	Metrics  MetricsConfig  `mapstructure:"metrics"`  // Prometheus 指标
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port       int    `mapstructure:"port"`        // 服务端口
	Mode       string `mapstructure:"mode"`        // Gin运行模式：debug/release/test
	AdminToken string `mapstructure:"admin_token"` // 管理接口 Bearer Token
	Pprof      bool   `mapstructure:"pprof"`       // 是否注册 pprof 路由
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`            // postgres / memory
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
	LogLevel        string        `mapstructure:"log_level"`         // GORM 日志级别：silent/error/warn/info
}

// RedisConfig 排行榜缓存配置，未启用时使用空实现
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"` // 单个排行榜快照的存活时间
}

// SyncConfig 同步与重新计分配置
type SyncConfig struct {
	Secret         string `mapstructure:"secret"`          // 同步推送接口 Bearer 密钥
	RescoreCron    string `mapstructure:"rescore_cron"`    // 重新计分任务 Cron（含秒）
	RescoreBatch   int    `mapstructure:"rescore_batch"`   // 每轮最多处理的待计分比赛数
	RescoreWorkers int    `mapstructure:"rescore_workers"` // 并发计分数
}

// SeasonConfig 赛季配置
type SeasonConfig struct {
	InitialName string `mapstructure:"initial_name"` // 首次部署时创建的活跃赛季名称
}

// ScoringConfig 计分配置
type ScoringConfig struct {
	DefaultMode  string `mapstructure:"default_mode"`  // 新同步比赛的计分制度
	LegacyCutoff string `mapstructure:"legacy_cutoff"` // 早于该时间开球的比赛按旧制度计分（RFC3339 或 2006-01-02）
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // text / json
	Output string `mapstructure:"output"` // stdout / stderr / 文件路径
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	return Load(viper.New(), "./config")
}

// Load 使用给定 viper 实例加载配置，便于命令行工具先绑定 flag
func Load(v *viper.Viper, dirs ...string) (*Config, error) {
	// 1. 加载 .env（若存在）
	_ = godotenv.Load()

	// 2. 默认值 + config.yaml（文件可不存在）
	setDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, dir := range dirs {
		v.AddConfigPath(dir)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.pprof", false)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_open_conns", 20)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", time.Hour)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.ttl", 10*time.Minute)
	v.SetDefault("sync.rescore_cron", "0 */5 * * * *")
	v.SetDefault("sync.rescore_batch", 100)
	v.SetDefault("sync.rescore_workers", 4)
	v.SetDefault("season.initial_name", "Season 1")
	v.SetDefault("scoring.default_mode", string(scoring.ModeTiered))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("SYNC_SECRET"); v != "" {
		cfg.Sync.Secret = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
}

// Validate 校验枚举项与依赖关系
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return errors.New("database.dsn 不能为空（或设置 DATABASE_DSN）")
		}
	case "memory":
	default:
		return fmt.Errorf("未知的 database.driver: %q", c.Database.Driver)
	}
	if !scoring.Mode(c.Scoring.DefaultMode).Valid() {
		return fmt.Errorf("未知的 scoring.default_mode: %q", c.Scoring.DefaultMode)
	}
	if _, err := c.Scoring.Cutoff(); err != nil {
		return err
	}
	if c.Sync.RescoreWorkers <= 0 {
		return errors.New("sync.rescore_workers 必须大于 0")
	}
	return nil
}

// Cutoff 解析旧计分制度截止时间；未配置返回零值
func (s *ScoringConfig) Cutoff() (time.Time, error) {
	raw := strings.TrimSpace(s.LegacyCutoff)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("scoring.legacy_cutoff 格式错误: %w", err)
	}
	return t.UTC(), nil
}

// GetGORMConfig 获取 GORM 配置，SQL 日志写入 logrus
func (d *DatabaseConfig) GetGORMConfig(log *logrus.Logger) *gorm.Config {
	level := gormlogger.Warn
	switch strings.ToLower(d.LogLevel) {
	case "silent":
		level = gormlogger.Silent
	case "error":
		level = gormlogger.Error
	case "info":
		level = gormlogger.Info
	}
	return &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  level,
			IgnoreRecordNotFoundError: true,
		}),
	}
}
