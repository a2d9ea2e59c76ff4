package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL         string
	Factory        string
	Quoter         string
	Tokens         map[string]string
	PrimaryQuote   string
	SecondaryQuote string
	Intermediates  []string
	FeeTiers       []uint32
	CallTimeout    time.Duration
	CacheTTL       time.Duration

	RebalanceTickThreshold int32
	CollectMinFeeRatio     float64
	ExitILCeilingPct       float64

	Listen   string
	PGDSN    string
	Out      string
	LogLevel string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("LIQUIDITY")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("primary-quote", "USDC")
	v.SetDefault("secondary-quote", "USDT")
	v.SetDefault("intermediate", []string{"WETH"})
	v.SetDefault("fee-tier", []string{"500", "3000", "100", "10000"})
	v.SetDefault("call-timeout", 3*time.Second)
	v.SetDefault("cache-ttl", 10*time.Second)
	v.SetDefault("rebalance-tick-threshold", 10)
	v.SetDefault("collect-min-fee-ratio", 0.01)
	v.SetDefault("exit-il-ceiling-pct", 10.0)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log-level", "info")

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	feeTiers, err := parseFeeTiers(getStringSlice(v, "fee-tier"))
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:                 v.GetString("rpc"),
		Factory:                v.GetString("factory"),
		Quoter:                 v.GetString("quoter"),
		Tokens:                 v.GetStringMapString("tokens"),
		PrimaryQuote:           v.GetString("primary-quote"),
		SecondaryQuote:         v.GetString("secondary-quote"),
		Intermediates:          getStringSlice(v, "intermediate"),
		FeeTiers:               feeTiers,
		CallTimeout:            v.GetDuration("call-timeout"),
		CacheTTL:               v.GetDuration("cache-ttl"),
		RebalanceTickThreshold: v.GetInt32("rebalance-tick-threshold"),
		CollectMinFeeRatio:     v.GetFloat64("collect-min-fee-ratio"),
		ExitILCeilingPct:       v.GetFloat64("exit-il-ceiling-pct"),
		Listen:                 v.GetString("listen"),
		PGDSN:                  v.GetString("pg-dsn"),
		Out:                    v.GetString("out"),
		LogLevel:               v.GetString("log-level"),
	}

	return cfg, nil
}

func parseFeeTiers(items []string) ([]uint32, error) {
	tiers := make([]uint32, 0, len(items))
	for _, item := range items {
		parsed, err := strconv.ParseUint(item, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid fee tier %q: %w", item, err)
		}
		tiers = append(tiers, uint32(parsed))
	}
	return tiers, nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}
