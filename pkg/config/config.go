package config

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// ServerConfig 服务配置
type ServerConfig struct {
	Listen string `yaml:"listen"` // HTTP 监听地址，默认 :8080
}

// ContractConfig 合约配置
// 手续费/版税百分比和所有者身份在合约构造时一次性确定，之后不可变
type ContractConfig struct {
	Owner          string  `yaml:"owner"`           // 合约所有者（手续费接收方）
	FeePercent     float64 `yaml:"fee_percent"`     // 市场手续费百分比，例如 2.5
	RoyaltyPercent float64 `yaml:"royalty_percent"` // 版税百分比，例如 5.0
}

// Fee 返回手续费百分比的定点表示
func (c ContractConfig) Fee() decimal.Decimal {
	return decimal.NewFromFloat(c.FeePercent)
}

// Royalty 返回版税百分比的定点表示
func (c ContractConfig) Royalty() decimal.Decimal {
	return decimal.NewFromFloat(c.RoyaltyPercent)
}

// StorageConfig 存储配置
type StorageConfig struct {
	SnapshotDir string `yaml:"snapshot_dir"` // Badger 快照库目录
	SalesDBPath string `yaml:"sales_db"`     // SQLite 成交镜像库路径
	RegistryDir string `yaml:"registry_dir"` // 登记簿 JSON 持久化目录
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `yaml:"level"`       // debug / info / warn / error
	OutputFile string `yaml:"output_file"` // 日志文件路径（可选）
	MaxSize    int    `yaml:"max_size"`    // 单文件最大大小（MB）
	MaxBackups int    `yaml:"max_backups"` // 保留旧文件数
	MaxAge     int    `yaml:"max_age"`     // 保留天数
	Compress   bool   `yaml:"compress"`    // 是否压缩旧文件
}

// Config marketd 完整配置
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Contract ContractConfig `yaml:"contract"`
	Storage  StorageConfig  `yaml:"storage"`
	Log      LogConfig      `yaml:"log"`

	// RegistryURL 远程登记簿地址（可选；为空使用内置内存登记簿）
	RegistryURL string `yaml:"registry_url"`
}

// Load 从 YAML 文件加载配置并填充默认值
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default 返回全默认配置（无配置文件时使用）
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Contract.Owner == "" {
		c.Contract.Owner = "admin"
	}
	if c.Contract.FeePercent == 0 {
		c.Contract.FeePercent = 2.5
	}
	if c.Contract.RoyaltyPercent == 0 {
		c.Contract.RoyaltyPercent = 5.0
	}
	if c.Storage.SnapshotDir == "" {
		c.Storage.SnapshotDir = "data/snapshots"
	}
	if c.Storage.SalesDBPath == "" {
		c.Storage.SalesDBPath = "data/sales.db"
	}
	if c.Storage.RegistryDir == "" {
		c.Storage.RegistryDir = "data/registry"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 100
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 3
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 7
	}
}

func (c *Config) validate() error {
	if c.Contract.FeePercent < 0 {
		return fmt.Errorf("contract.fee_percent must not be negative")
	}
	if c.Contract.RoyaltyPercent < 0 {
		return fmt.Errorf("contract.royalty_percent must not be negative")
	}
	if c.Contract.FeePercent+c.Contract.RoyaltyPercent > 100 {
		return fmt.Errorf("fee_percent + royalty_percent must not exceed 100")
	}
	return nil
}
