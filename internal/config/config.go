package config

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/swap"
)

// PrivateKeyEnv overrides private_key so the key can stay out of the file.
const PrivateKeyEnv = "SWAP_PRIVATE_KEY"

// Config holds application configuration loaded from file.
type Config struct {
	RPCURL            string        `yaml:"rpc_url"`
	ChainID           uint64        `yaml:"chain_id"`
	RPCTimeout        time.Duration `yaml:"rpc_timeout"`
	ListenAddr        string        `yaml:"listen_addr"`
	GraceTimeout      time.Duration `yaml:"shutdown_timeout"`
	RequestTimeout    time.Duration `yaml:"request_timeout"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	PrivateKey string `yaml:"private_key"`

	Aggregator AggregatorConfig `yaml:"aggregator"`

	ApprovalPollInterval time.Duration `yaml:"approval_poll_interval"`
	TxPollInterval       time.Duration `yaml:"tx_poll_interval"`
	// WatchTimeout bounds receipt polling; zero polls until mined.
	WatchTimeout time.Duration `yaml:"watch_timeout"`

	DefaultSlippageBps     uint32 `yaml:"default_slippage_bps"`
	DefaultDeadlineMinutes uint32 `yaml:"default_deadline_minutes"`
	DefaultTokenIn         string `yaml:"default_token_in"`
	DefaultTokenOut        string `yaml:"default_token_out"`

	ExplorerURL    string        `yaml:"explorer_url"`
	Native         TokenConfig   `yaml:"native"`
	Tokens         []TokenConfig `yaml:"tokens"`
	Sources        []string      `yaml:"sources"`
	TokenCacheSize int           `yaml:"token_cache_size"`

	Log LogConfig `yaml:"log"`
}

// AggregatorConfig configures the route aggregator client.
type AggregatorConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Chain             string        `yaml:"chain"`
	ClientID          string        `yaml:"client_id"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Timeout           time.Duration `yaml:"timeout"`
}

// TokenConfig is one entry of the token list.
type TokenConfig struct {
	Address  string `yaml:"address"`
	Symbol   string `yaml:"symbol"`
	Name     string `yaml:"name"`
	Decimals uint8  `yaml:"decimals"`
	LogoURI  string `yaml:"logo_uri"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the config from a YAML file path. An optional .env next to the
// process is loaded first. Fails fatally if config is invalid or file is missing.
func Load(path string) Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: godotenv.Load: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		log.Fatalf("failed to open config file: os.Open: %v", err)
	}
	defer func(f *os.File) {
		err := f.Close()
		if err != nil {
			log.Printf("failed to close config file: f.Close: %v", err)
		}
	}(f)

	cfg, err := Parse(f)
	if err != nil {
		log.Fatalf("failed to parse config file: %v", err)
	}

	return cfg
}

// Parse decodes YAML from r, applies fallbacks and validates the result.
func Parse(r io.Reader) (Config, error) {
	var cfg Config
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "decoder.Decode")
	}

	if key := os.Getenv(PrivateKeyEnv); key != "" {
		cfg.PrivateKey = key
	}

	cfg.applyFallbacks()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (cfg *Config) applyFallbacks() {
	const defaultTimeout = 5 * time.Second
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":1337"
	}
	if cfg.GraceTimeout == 0 {
		cfg.GraceTimeout = defaultTimeout
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = defaultTimeout
	}
	if cfg.ReadHeaderTimeout == 0 {
		cfg.ReadHeaderTimeout = defaultTimeout
	}
	if cfg.RPCTimeout == 0 {
		cfg.RPCTimeout = defaultTimeout
	}

	if cfg.Aggregator.BaseURL == "" {
		cfg.Aggregator.BaseURL = "https://aggregator-api.kyberswap.com"
	}
	if cfg.Aggregator.Chain == "" {
		cfg.Aggregator.Chain = "ethereum"
	}
	if cfg.Aggregator.RequestsPerSecond == 0 {
		cfg.Aggregator.RequestsPerSecond = 5
	}
	if cfg.Aggregator.Timeout == 0 {
		cfg.Aggregator.Timeout = 10 * time.Second
	}

	if cfg.ApprovalPollInterval == 0 {
		cfg.ApprovalPollInterval = swap.DefaultApprovalPollInterval
	}
	if cfg.TxPollInterval == 0 {
		cfg.TxPollInterval = swap.DefaultTxPollInterval
	}
	if cfg.DefaultSlippageBps == 0 {
		cfg.DefaultSlippageBps = swap.DefaultSlippageBps
	}
	if cfg.DefaultDeadlineMinutes == 0 {
		cfg.DefaultDeadlineMinutes = swap.DefaultDeadlineMinutes
	}

	if cfg.Native.Symbol == "" {
		cfg.Native.Symbol = "ETH"
		cfg.Native.Name = "Ether"
	}
	if cfg.Native.Decimals == 0 {
		cfg.Native.Decimals = 18
	}
	if cfg.DefaultTokenIn == "" {
		cfg.DefaultTokenIn = swap.NativeTokenAddress.Hex()
	}
	if cfg.DefaultTokenOut == "" && len(cfg.Tokens) > 0 {
		cfg.DefaultTokenOut = cfg.Tokens[0].Address
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
}

func (cfg *Config) validate() error {
	if cfg.RPCURL == "" {
		return errors.Wrap(apperrors.ErrInvalidArgument, "rpc_url is required in config")
	}
	if cfg.ChainID == 0 {
		return errors.Wrap(apperrors.ErrInvalidArgument, "chain_id is required in config")
	}
	if cfg.DefaultSlippageBps > 10_000 {
		return errors.Wrapf(apperrors.ErrInvalidArgument, "default_slippage_bps %d above 100%%", cfg.DefaultSlippageBps)
	}

	for _, addr := range []string{cfg.DefaultTokenIn, cfg.DefaultTokenOut} {
		if addr != "" && !common.IsHexAddress(addr) {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "invalid default token %q", addr)
		}
	}
	for _, t := range cfg.Tokens {
		if !common.IsHexAddress(t.Address) {
			return errors.Wrapf(apperrors.ErrInvalidArgument, "invalid token address %q", t.Address)
		}
	}

	return nil
}

// NativeToken is the chain's gas token as the registry lists it.
func (cfg Config) NativeToken() swap.Token {
	return swap.Token{
		Address:  swap.NativeTokenAddress,
		Symbol:   cfg.Native.Symbol,
		Name:     cfg.Native.Name,
		Decimals: cfg.Native.Decimals,
		LogoURI:  cfg.Native.LogoURI,
	}
}

// TokenList converts the configured tokens.
func (cfg Config) TokenList() []swap.Token {
	out := make([]swap.Token, 0, len(cfg.Tokens))
	for _, t := range cfg.Tokens {
		out = append(out, swap.Token{
			Address:  common.HexToAddress(t.Address),
			Symbol:   t.Symbol,
			Name:     t.Name,
			Decimals: t.Decimals,
			LogoURI:  t.LogoURI,
		})
	}
	return out
}
