package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	TransactionEvents string `mapstructure:"transaction_events"`
}

// BusinessConfig 账务业务参数
// 定时任务的节奏各自独立配置：预约交易按固定间隔扫描，
// 计息/对账/报表按日历时刻触发
type BusinessConfig struct {
	Currency             string `mapstructure:"currency"`               // 记账币种
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"` // 预约交易扫描间隔
	SweepBatchSize       int    `mapstructure:"sweep_batch_size"`
	InterestHour         int    `mapstructure:"interest_hour"`       // 每日计息时刻（小时）
	ReconciliationHour   int    `mapstructure:"reconciliation_hour"` // 每日对账时刻
	ReportHour           int    `mapstructure:"report_hour"`         // 报表生成时刻
	MaxRetryCount        int    `mapstructure:"max_retry_count"`     // 发件箱最大重试次数
}

var GlobalConfig *Config

// LoadConfig 加载配置文件
func LoadConfig(configPath string) *Config {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("读取配置文件失败: %v", err)
	}

	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		log.Fatalf("解析配置文件失败: %v", err)
	}

	applyDefaults(config)

	GlobalConfig = config
	return config
}

func applyDefaults(config *Config) {
	if config.Business.Currency == "" {
		config.Business.Currency = "USD"
	}
	if config.Business.SweepIntervalSeconds <= 0 {
		config.Business.SweepIntervalSeconds = 300
	}
	if config.Business.SweepBatchSize <= 0 {
		config.Business.SweepBatchSize = 100
	}
	if config.Business.MaxRetryCount <= 0 {
		config.Business.MaxRetryCount = 3
	}
}
