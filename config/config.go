// Package config 加载 relay 命令行的运行配置
//
// 来源按优先级从低到高叠加: 默认值 → YAML 文件 → RELAY_* 环境变量 → 命令行 flag。
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "RELAY_"

// ErrInvalidConfig 配置校验失败
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config 完整配置
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Worker   WorkerConfig   `koanf:"worker"`
	Selftest SelftestConfig `koanf:"selftest"`
}

// LogConfig 日志
type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Format string `koanf:"format" validate:"oneof=text console json"`
}

// WorkerConfig worker 运行时
type WorkerConfig struct {
	TickInterval time.Duration `koanf:"tick_interval" validate:"gt=0"`
	LockOSThread bool          `koanf:"lock_os_thread"`
	PoolSize     int           `koanf:"pool_size" validate:"min=2,max=1024"`
}

// SelftestConfig 自检示例
type SelftestConfig struct {
	PollInterval   time.Duration `koanf:"poll_interval" validate:"gt=0"`
	TargetSpeed    int           `koanf:"target_speed" validate:"min=1"`
	PressureChecks int           `koanf:"pressure_checks" validate:"min=1"`
}

// Default 内置默认值
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "error",
			Format: "text",
		},
		Worker: WorkerConfig{
			TickInterval: 100 * time.Millisecond,
			PoolSize:     4,
		},
		Selftest: SelftestConfig{
			PollInterval:   10 * time.Millisecond,
			TargetSpeed:    5,
			PressureChecks: 1,
		},
	}
}

// defaultMap 默认值的扁平 key 视图，供 confmap 与 flag 默认值使用
func defaultMap() map[string]any {
	def := Default()
	return map[string]any{
		"log.level":  def.Log.Level,
		"log.format": def.Log.Format,

		"worker.tick_interval":  def.Worker.TickInterval,
		"worker.lock_os_thread": def.Worker.LockOSThread,
		"worker.pool_size":      def.Worker.PoolSize,

		"selftest.poll_interval":   def.Selftest.PollInterval,
		"selftest.target_speed":    def.Selftest.TargetSpeed,
		"selftest.pressure_checks": def.Selftest.PressureChecks,
	}
}

// envKey RELAY_WORKER_TICK_INTERVAL -> worker.tick_interval
//
// 只有第一个下划线分隔小节，其余属于字段名。
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Load 按优先级加载配置并校验
//
// path 为空或文件不存在时跳过文件层；flags 可为 nil。
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("config: load defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("config: load file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("config: load env: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("config: load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验字段约束，失败时返回包装 ErrInvalidConfig 的错误
func Validate(cfg Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	errs := make([]error, 0, len(verrs)+1)
	errs = append(errs, ErrInvalidConfig)
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("%s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value()))
	}
	return errors.Join(errs...)
}

// BindFlags 注册与配置 key 同名的 flag（如 --worker.tick_interval）
func BindFlags(flags *pflag.FlagSet) {
	def := Default()
	flags.String("log.level", def.Log.Level, "log level (trace, debug, info, warn, error, disabled)")
	flags.String("log.format", def.Log.Format, "log format (text, json)")
	flags.Duration("worker.tick_interval", def.Worker.TickInterval, "timer sweep interval of each worker")
	flags.Bool("worker.lock_os_thread", def.Worker.LockOSThread, "pin each worker loop to an OS thread")
	flags.Int("worker.pool_size", def.Worker.PoolSize, "goroutine pool capacity for worker loops")
	flags.Duration("selftest.poll_interval", def.Selftest.PollInterval, "centrifuge poll timer period")
	flags.Int("selftest.target_speed", def.Selftest.TargetSpeed, "centrifuge target speed")
	flags.Int("selftest.pressure_checks", def.Selftest.PressureChecks, "pressure readings before completion")
}
