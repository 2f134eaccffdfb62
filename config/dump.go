package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Dump 以 YAML 输出配置（时长按 time.Duration 字符串格式）
func Dump(cfg Config) ([]byte, error) {
	doc := map[string]any{
		"log": map[string]any{
			"level":  cfg.Log.Level,
			"format": cfg.Log.Format,
		},
		"worker": map[string]any{
			"tick_interval":  cfg.Worker.TickInterval.String(),
			"lock_os_thread": cfg.Worker.LockOSThread,
			"pool_size":      cfg.Worker.PoolSize,
		},
		"selftest": map[string]any{
			"poll_interval":   cfg.Selftest.PollInterval.String(),
			"target_speed":    cfg.Selftest.TargetSpeed,
			"pressure_checks": cfg.Selftest.PressureChecks,
		},
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("config: marshal yaml: %w", err)
	}
	return out, nil
}
