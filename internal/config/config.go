package config

import (
	"github.com/TeaSui/whitelist-contracts/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Sale     SaleConfig     `mapstructure:"sale"`
	Task     TaskConfig     `mapstructure:"task"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ChainConfig 单链配置
type ChainConfig struct {
	ChainType  string                    `mapstructure:"chain_type"`  // 链类型 (ethereum, polygon, etc.)
	ChainId    int64                     `mapstructure:"chain_id"`    // 链ID
	RpcUrl     string                    `mapstructure:"rpc_url"`     // RPC节点URL
	PrivateKey string                    `mapstructure:"private_key"` // 私钥（领取结算与提取用）
	Contracts  map[string]ContractConfig `mapstructure:"contracts"`   // 该链上的合约配置
}

// ContractConfig 单个合约配置
type ContractConfig struct {
	Address  string `mapstructure:"address"`   // 合约地址
	ABIPath  string `mapstructure:"abi_path"`  // ABI文件路径
	Enabled  bool   `mapstructure:"enabled"`   // 是否启用此合约
	BlockNum int64  `mapstructure:"block_num"` // 合约部署区块号
}

// SaleConfig 销售初始配置，引擎启动时若数据库无配置则以此为准
type SaleConfig struct {
	OwnerAddress      string `mapstructure:"owner_address"`      // 所有者地址，管理操作鉴权
	TreasuryAddress   string `mapstructure:"treasury_address"`   // 金库地址，实收款项转发目标
	TokenAddress      string `mapstructure:"token_address"`      // 销售代币合约地址
	TokenDecimals     int    `mapstructure:"token_decimals"`     // 代币精度，决定定点缩放单位
	TokenPrice        string `mapstructure:"token_price"`        // 每单位代币价格（定点缩放，十进制字符串）
	MinPurchase       string `mapstructure:"min_purchase"`       // 单次最小购买量
	MaxPurchase       string `mapstructure:"max_purchase"`       // 单次及累计最大购买量
	MaxSupply         string `mapstructure:"max_supply"`         // 销售总供应量
	StartTime         int64  `mapstructure:"start_time"`         // 销售开始时间（Unix秒）
	EndTime           int64  `mapstructure:"end_time"`           // 销售结束时间（Unix秒）
	WhitelistRequired bool   `mapstructure:"whitelist_required"` // 是否要求白名单
	AdminKey          string `mapstructure:"admin_key"`          // 管理接口密钥
}

type TaskConfig struct {
	Interval int `mapstructure:"interval"` // 秒
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, stderr, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

// GetLevel 实现 logger.LogConfig 接口
func (l LogConfig) GetLevel() string {
	return l.Level
}

// GetOutput 实现 logger.LogConfig 接口
func (l LogConfig) GetOutput() string {
	return l.Output
}

// GetFile 实现 logger.LogConfig 接口
func (l LogConfig) GetFile() string {
	return l.File
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/wts")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "token_sale")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("chain.chain_type", "ethereum")
	viper.SetDefault("chain.chain_id", 1)
	viper.SetDefault("sale.token_decimals", 18)
	viper.SetDefault("sale.min_purchase", "1")
	viper.SetDefault("sale.whitelist_required", true)
	viper.SetDefault("task.interval", 60)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}
