package main

import (
	"time"

	"github.com/spf13/viper"
)

type config struct {
	LogLevel           string `mapstructure:"log_level"`
	AppName            string `mapstructure:"app_name"`
	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	RPCEndpoint string `mapstructure:"rpc_endpoint"`

	// RPCRateLimit is the per method request rate, in requests per second.
	// Zero disables limiting.
	RPCRateLimit float64 `mapstructure:"rpc_rate_limit"`

	// KeypairPath points to a solana-keygen JSON file. PrivateKey, a base58
	// encoded key, takes precedence when set.
	KeypairPath string `mapstructure:"keypair_path"`
	PrivateKey  string `mapstructure:"private_key"`

	// Program overrides the DiamondHands program id.
	Program string `mapstructure:"program"`

	AirdropLamports uint64        `mapstructure:"airdrop_lamports"`
	Amount          uint64        `mapstructure:"amount"`
	DaysToLock      uint64        `mapstructure:"days_to_lock"`
	SettleDelay     time.Duration `mapstructure:"settle_delay"`
}

var defaultConfig = config{
	LogLevel: "info",
	AppName:  "diamondhands-smoke",

	RPCEndpoint:  "https://api.devnet.solana.com",
	RPCRateLimit: 4,
	KeypairPath:  "~/.config/solana/id.json",

	AirdropLamports: 1_000_000_000,
	Amount:          100,
	DaysToLock:      100,
	SettleDelay:     3 * time.Second,
}

func init() {
	_ = viper.BindEnv("log_level", "LOG_LEVEL")
	_ = viper.BindEnv("app_name", "APP_NAME")
	_ = viper.BindEnv("new_relic_license_key", "NEW_RELIC_LICENSE_KEY")

	_ = viper.BindEnv("rpc_endpoint", "SOLANA_RPC_ENDPOINT")
	_ = viper.BindEnv("rpc_rate_limit", "SOLANA_RPC_RATE_LIMIT")
	_ = viper.BindEnv("keypair_path", "SOLANA_KEYPAIR_PATH")
	_ = viper.BindEnv("private_key", "SOLANA_PRIVATE_KEY")
	_ = viper.BindEnv("program", "DIAMONDHANDS_PROGRAM")

	_ = viper.BindEnv("airdrop_lamports", "SMOKE_AIRDROP_LAMPORTS")
	_ = viper.BindEnv("amount", "SMOKE_AMOUNT")
	_ = viper.BindEnv("days_to_lock", "SMOKE_DAYS_TO_LOCK")
	_ = viper.BindEnv("settle_delay", "SMOKE_SETTLE_DELAY")
}
