// Package config 是应用配置：所有路径显式注入到各组件的构造函数，
// 不使用进程级全局常量，测试可以整体替换成临时目录。
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config 是服务与离线 pipeline 共用的配置结构。
type Config struct {
	Server ServerConfig `yaml:"server"`
	Data   DataConfig   `yaml:"data"`
	Model  ModelConfig  `yaml:"model"`
	Redis  RedisConfig  `yaml:"redis"`
	Rank   RankConfig   `yaml:"rank"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"` // 默认 :8080
}

type DataConfig struct {
	CatalogPath      string `yaml:"catalog_path"`
	EventsPath       string `yaml:"events_path"`
	FeatureStorePath string `yaml:"feature_store_path"`
	ArtifactsDir     string `yaml:"artifacts_dir"` // 离线评估报告输出目录
}

type ModelConfig struct {
	Dir                string `yaml:"dir"`
	CurrentVersionPath string `yaml:"current_version_path"`
}

// RedisConfig 可选：配置后特征库快照同时发布到 Redis，多实例共享。
type RedisConfig struct {
	Addr        string `yaml:"addr"` // 空表示不启用
	DB          int    `yaml:"db"`
	SnapshotKey string `yaml:"snapshot_key"`
}

type RankConfig struct {
	// FilterExpr 是可选的候选过滤 CEL 表达式（返回 true 的候选被剔除）。
	FilterExpr string `yaml:"filter_expr"`
	// TopN 限制返回条数，<= 0 不截断。
	TopN int `yaml:"top_n"`
}

// Default 返回以 baseDir 为根的默认配置。
func Default(baseDir string) *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Data: DataConfig{
			CatalogPath:      filepath.Join(baseDir, "data", "raw", "catalog.csv"),
			EventsPath:       filepath.Join(baseDir, "data", "raw", "events.csv"),
			FeatureStorePath: filepath.Join(baseDir, "data", "processed", "feature_store.csv"),
			ArtifactsDir:     filepath.Join(baseDir, "artifacts"),
		},
		Model: ModelConfig{
			Dir:                filepath.Join(baseDir, "models"),
			CurrentVersionPath: filepath.Join(baseDir, "models", "current_model_version.txt"),
		},
		Redis: RedisConfig{SnapshotKey: "searchop:feature_store"},
	}
}

// Load 读取 YAML 配置，未设置的字段落回 Default(".") 的值。
func Load(path string) (*Config, error) {
	cfg := Default(".")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if cfg.Redis.SnapshotKey == "" {
		cfg.Redis.SnapshotKey = "searchop:feature_store"
	}
	return cfg, nil
}
