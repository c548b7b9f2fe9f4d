package config

import (
	"github.com/ZilDuck/nft-marketplace/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"math/big"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env               string
	Network           string
	Index             string
	Debug             bool
	LogPath           string
	SentryDsn         string
	DevelopmentChains []string
	NamedAccounts     map[string]int
	DeploymentsDir    string
	DeployTags        []string
	IpfsGateway       string

	Chain         ChainConfig
	Rpc           RpcConfig
	Etherscan     EtherscanConfig
	ElasticSearch ElasticSearchConfig
	Aws           AwsConfig
}

type ChainConfig struct {
	Accounts       int
	InitialBalance string
	Seed           string
	TokenUri       string
}

type RpcConfig struct {
	Url     string
	Port    string
	Timeout int
	Debug   bool
}

type EtherscanConfig struct {
	ApiKey          string
	Url             string
	Timeout         int
	PollInterval    int
	PollAttempts    int
	CompilerVersion string
	SourcesDir      string
}

type AwsConfig struct {
	AccessKey string
	SecretKey string
	Token     string
	Region    string
}

type ElasticSearchConfig struct {
	Enabled          bool
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	Aws              bool
	BulkPersistCount int
	Refresh          string
	Reindex          bool
	RetryDelayMs     int
}

var developmentChains = []string{"hardhat", "localhost"}

const DefaultTokenUri = "ipfs://bafybeig37ioir76s7mg5oobetncojcm3c3hxasyd4rvid4jqhy4gkaheg4/?filename=0-PUG.json"

func Init() {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		zap.L().With(zap.Error(err)).Fatal("Unable to init config")
	}

	initLogger()
}

func initLogger() {
	cfg := Get()
	log.NewLogger(cfg.LogPath, cfg.Debug, cfg.SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:               getString("ENV", ""),
		Network:           getString("NETWORK", "hardhat"),
		Index:             getString("INDEX_NAME", "marketplace"),
		Debug:             getBool("DEBUG", false),
		LogPath:           getString("LOG_PATH", ""),
		SentryDsn:         getString("SENTRY_DSN", ""),
		DevelopmentChains: getSlice("DEVELOPMENT_CHAINS", developmentChains, ","),
		NamedAccounts:     getNamedAccounts("NAMED_ACCOUNTS", "deployer:0,player:1"),
		DeploymentsDir:    getString("DEPLOYMENTS_DIR", "./deployments"),
		DeployTags:        getSlice("DEPLOY_TAGS", []string{"all"}, ","),
		IpfsGateway:       getString("IPFS_GATEWAY", "https://ipfs.io"),
		Chain: ChainConfig{
			Accounts:       getInt("CHAIN_ACCOUNTS", 10),
			InitialBalance: getString("CHAIN_INITIAL_BALANCE", "10000"),
			Seed:           getString("CHAIN_SEED", "nft-marketplace"),
			TokenUri:       getString("TOKEN_URI", DefaultTokenUri),
		},
		Rpc: RpcConfig{
			Url:     getString("RPC_URL", "http://127.0.0.1:8545"),
			Port:    getString("RPC_PORT", "8545"),
			Timeout: getInt("RPC_TIMEOUT", 30),
			Debug:   getBool("RPC_DEBUG", false),
		},
		Etherscan: EtherscanConfig{
			ApiKey:          getString("ETHERSCAN_API_KEY", ""),
			Url:             getString("ETHERSCAN_URL", "https://api.etherscan.io/api"),
			Timeout:         getInt("ETHERSCAN_TIMEOUT", 30),
			PollInterval:    getInt("ETHERSCAN_POLL_INTERVAL", 5),
			PollAttempts:    getInt("ETHERSCAN_POLL_ATTEMPTS", 10),
			CompilerVersion: getString("ETHERSCAN_COMPILER_VERSION", "v0.8.7+commit.e28d00a7"),
			SourcesDir:      getString("CONTRACT_SOURCES_DIR", "./contracts"),
		},
		Aws: AwsConfig{
			AccessKey: getString("AWS_ACCESS_KEY_ID", ""),
			SecretKey: getString("AWS_SECRET_KEY_ID", ""),
			Token:     getString("AWS_SESSION_TOKEN", ""),
			Region:    getString("AWS_REGION", ""),
		},
		ElasticSearch: ElasticSearchConfig{
			Enabled:          getBool("ELASTIC_SEARCH_ENABLED", false),
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			Aws:              getBool("ELASTIC_SEARCH_AWS", false),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
			Reindex:          getBool("ELASTIC_SEARCH_REINDEX", false),
			RetryDelayMs:     getInt("ELASTIC_SEARCH_RETRY_DELAY_MS", 5000),
		},
	}
}

// IsDevelopment reports whether the configured network is a local chain where
// verification and other production-only steps are skipped.
func (c Config) IsDevelopment() bool {
	for _, chain := range c.DevelopmentChains {
		if strings.EqualFold(chain, c.Network) {
			return true
		}
	}

	return false
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}

// getNamedAccounts parses "name:index" pairs, skipping malformed entries.
func getNamedAccounts(key string, defaultValue string) map[string]int {
	accounts := make(map[string]int)
	for _, pair := range getSlice(key, strings.Split(defaultValue, ","), ",") {
		parts := strings.SplitN(strings.TrimSpace(pair), ":", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.Atoi(parts[1])
		if err != nil || idx < 0 {
			continue
		}
		accounts[parts[0]] = idx
	}

	return accounts
}
