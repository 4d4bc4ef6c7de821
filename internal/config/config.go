// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Networks       []string                `mapstructure:"networks"`
	Chains         map[string]*ChainConfig `mapstructure:"chains"`
	RequestTimeout time.Duration           `mapstructure:"request_timeout"`
	AutoFallback   bool                    `mapstructure:"auto_fallback"`
	ScanInterval   time.Duration           `mapstructure:"scan_interval"`
	Workers        int                     `mapstructure:"workers"`
	Retries        int                     `mapstructure:"retries"`
	TradeAmount    float64                 `mapstructure:"trade_amount"`
	TradeSizeUSD   float64                 `mapstructure:"trade_size_usd"`
	MinProfitPct   float64                 `mapstructure:"min_profit_pct"`
	SlippagePct    float64                 `mapstructure:"slippage_allowance_pct"`
	GasSpeed       string                  `mapstructure:"gas_speed"`
	GasLimit       uint64                  `mapstructure:"gas_limit"`
	Pairs          []string                `mapstructure:"pairs"`
	WalletAddress  string                  `mapstructure:"wallet_address"`
	Telegram       TelegramConfig          `mapstructure:"telegram"`
	Storage        StorageConfig           `mapstructure:"storage"`
	Export         ExportConfig            `mapstructure:"export"`
	Logging        LoggingConfig           `mapstructure:"logging"`
}

// ChainConfig describes one EVM network: where to reach it, which venues to
// quote, and which tokens those venues trade.
type ChainConfig struct {
	RPCEndpoints     []string          `mapstructure:"rpc_endpoints"`
	Venues           map[string]string `mapstructure:"venues"` // venue name -> router address
	Tokens           map[string]Token  `mapstructure:"tokens"` // symbol -> token
	Triangles        [][]string        `mapstructure:"triangles"`
	NativeToken      string            `mapstructure:"native_token"`
	NativePriceUSD   float64           `mapstructure:"native_price_usd"`
	DefaultGasGwei   float64           `mapstructure:"default_gas_price_gwei"`
	BlockTimeSeconds float64           `mapstructure:"block_time_seconds"`
}

type Token struct {
	Address  string `mapstructure:"address"`
	Decimals int    `mapstructure:"decimals"`
}

type TelegramConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	BotToken string        `mapstructure:"bot_token"`
	ChatID   string        `mapstructure:"chat_id"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

type StorageConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type ExportConfig struct {
	Directory string `mapstructure:"directory"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

const (
	DefaultRequestTimeout = 5 * time.Second
	DefaultScanInterval   = 30 * time.Second
	DefaultWorkers        = 4
	DefaultRetries        = 3
	DefaultTradeAmount    = 1.0
	DefaultTradeSizeUSD   = 1000.0
	DefaultMinProfitPct   = 0.5
	DefaultSlippagePct    = 0.5
	DefaultGasSpeed       = "standard"
	DefaultGasLimit       = 200000
)

// LoadConfig reads the YAML file at path, layering built-in defaults and
// CHAINARB_* environment overrides. An empty path loads pure defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"networks":               []string{"ethereum", "bsc", "polygon", "arbitrum", "base"},
		"request_timeout":        DefaultRequestTimeout,
		"auto_fallback":          true,
		"scan_interval":          DefaultScanInterval,
		"workers":                DefaultWorkers,
		"retries":                DefaultRetries,
		"trade_amount":           DefaultTradeAmount,
		"trade_size_usd":         DefaultTradeSizeUSD,
		"min_profit_pct":         DefaultMinProfitPct,
		"slippage_allowance_pct": DefaultSlippagePct,
		"gas_speed":              DefaultGasSpeed,
		"gas_limit":              DefaultGasLimit,
		"pairs":                  []string{"ETH/USDT", "WBTC/USDT", "LINK/USDT", "UNI/USDT", "AAVE/USDT", "MATIC/USDT"},
		"telegram.cooldown":      time.Minute,
		"storage.path":           "data/trades.db",
		"export.directory":       "exports",
		"logging.level":          "info",
		"logging.file":           "chainarb.log",
		"logging.max_size_mb":    100,
		"logging.max_backups":    3,
		"logging.max_age_days":   7,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	mergeChainDefaults(&cfg)

	return &cfg, validateConfig(&cfg)
}

// mergeChainDefaults backfills chain entries from the built-in catalog so a
// config file only needs to mention what it changes.
func mergeChainDefaults(cfg *Config) {
	if cfg.Chains == nil {
		cfg.Chains = make(map[string]*ChainConfig)
	}
	for _, network := range cfg.Networks {
		def, known := defaultChains[network]
		if !known {
			continue
		}
		chain, ok := cfg.Chains[network]
		if !ok {
			c := def
			cfg.Chains[network] = &c
			continue
		}
		if len(chain.RPCEndpoints) == 0 {
			chain.RPCEndpoints = def.RPCEndpoints
		}
		if len(chain.Venues) == 0 {
			chain.Venues = def.Venues
		}
		if len(chain.Tokens) == 0 {
			chain.Tokens = def.Tokens
		}
		if len(chain.Triangles) == 0 {
			chain.Triangles = def.Triangles
		}
		if chain.NativeToken == "" {
			chain.NativeToken = def.NativeToken
		}
		if chain.NativePriceUSD == 0 {
			chain.NativePriceUSD = def.NativePriceUSD
		}
		if chain.DefaultGasGwei == 0 {
			chain.DefaultGasGwei = def.DefaultGasGwei
		}
		if chain.BlockTimeSeconds == 0 {
			chain.BlockTimeSeconds = def.BlockTimeSeconds
		}
	}
}

func validateConfig(cfg *Config) error {
	if len(cfg.Networks) == 0 {
		return errors.New("networks list is empty")
	}
	for _, network := range cfg.Networks {
		chain, ok := cfg.Chains[network]
		if !ok {
			return fmt.Errorf("unknown network %q with no chain configuration", network)
		}
		for _, rpcURL := range chain.RPCEndpoints {
			if err := validateURLWithCache(rpcURL, "http"); err != nil {
				return fmt.Errorf("network %s: invalid RPC URL %q", network, rpcURL)
			}
		}
	}
	if !ValidGasSpeed(cfg.GasSpeed) {
		return fmt.Errorf("invalid gas_speed %q", cfg.GasSpeed)
	}
	return validateNumericParams(cfg)
}

// ValidGasSpeed reports whether s names a supported gas speed tier.
func ValidGasSpeed(s string) bool {
	switch s {
	case "slow", "standard", "fast", "instant":
		return true
	}
	return false
}

func validateNumericParams(cfg *Config) error {
	if cfg.RequestTimeout <= 0 {
		return errors.New("invalid request_timeout")
	}
	if cfg.ScanInterval <= 0 {
		return errors.New("invalid scan_interval")
	}
	if cfg.Workers <= 0 {
		return errors.New("invalid workers count")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	if cfg.TradeAmount <= 0 {
		return errors.New("invalid trade_amount")
	}
	if cfg.TradeSizeUSD <= 0 {
		return errors.New("invalid trade_size_usd")
	}
	if cfg.MinProfitPct < 0 {
		return errors.New("invalid min_profit_pct")
	}
	if cfg.SlippagePct < 0 {
		return errors.New("invalid slippage_allowance_pct")
	}
	if cfg.GasLimit == 0 {
		return errors.New("invalid gas_limit")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	v.AutomaticEnv()
	v.SetEnvPrefix("CHAINARB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if token := v.GetString("TELEGRAM_BOT_TOKEN"); token != "" {
		cfg.Telegram.BotToken = token
	}
	if chatID := v.GetString("TELEGRAM_CHAT_ID"); chatID != "" {
		cfg.Telegram.ChatID = chatID
	}
	if wallet := v.GetString("WALLET_ADDRESS"); wallet != "" {
		cfg.WalletAddress = wallet
	}
	return nil
}
