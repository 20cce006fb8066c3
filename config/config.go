package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/rewards"
)

const (
	DEFAULT_CONFIG_FILE = "whitelistedAddress.json"
	RPC_URL_ENV         = "RPC_URL"
)

// Wallet is a deployed contract together with the wallet that signs for it
type Wallet struct {
	DeployedAddress  string `json:"deployedAddress"`
	WalletAddress    string `json:"walletAddress"`
	WalletPrivateKey string `json:"walletPrivateKey"`
}

// Roster is the ordered list of participants for one category. UptimeStatus is
// only read for dappUsers and is aligned by index with Addresses.
type Roster struct {
	Addresses    []string `json:"addresses"`
	UptimeStatus []bool   `json:"uptimeStatus,omitempty"`
}

type Telegram struct {
	ChatIDs []int  `json:"chatids"`
	APIKey  string `json:"apikey"`
	Enabled bool   `json:"enabled"`
}

type Notifications struct {
	Telegram *Telegram `json:"telegram,omitempty"`
}

// Config is the whole distribution resource, built once at startup
type Config struct {
	Token         Wallet                       `json:"token"`
	Contract      Wallet                       `json:"contract"`
	Validators    map[rewards.Category]*Roster `json:"validators"`
	Notifications Notifications                `json:"notifications"`

	RPCURL string `json:"-"`
}

// Load reads the JSON resource at path. The RPC endpoint is taken from the
// environment, after loading envFile when it exists.
func Load(path, envFile string) (*Config, error) {

	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, errors.Wrapf(err, "Unable to load env file %s", envFile)
			}
			log.WithField("File", envFile).Debug("Loaded environment file")
		}
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read config %s", path)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "Invalid config %s", path)
	}

	cfg.RPCURL = os.Getenv(RPC_URL_ENV)

	return cfg, nil
}

// Parse decodes and validates a configuration document
func Parse(raw []byte) (*Config, error) {

	cfg := new(Config)
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, errors.Wrap(err, "Unable to decode config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks wallet material and participant address formats. Empty rosters
// are allowed here; they are rejected when their category is reached in a run.
func (c *Config) Validate() error {

	if err := c.Token.validate("token"); err != nil {
		return err
	}

	if err := c.Contract.validate("contract"); err != nil {
		return err
	}

	if c.Validators == nil {
		c.Validators = make(map[rewards.Category]*Roster)
	}

	for category, roster := range c.Validators {
		if roster == nil {
			c.Validators[category] = &Roster{}
			continue
		}

		for i, addr := range roster.Addresses {
			if !common.IsHexAddress(addr) {
				return errors.Errorf("%s address %d is not a valid address: '%s'", category, i, addr)
			}
		}

		if category != rewards.DappUsers && len(roster.UptimeStatus) > 0 {
			log.WithField("Category", category).Warn("Ignoring uptime status outside dappUsers")
		}
	}

	return nil
}

func (w Wallet) validate(name string) error {

	if !common.IsHexAddress(w.DeployedAddress) {
		return errors.Errorf("%s.deployedAddress is not a valid address", name)
	}

	if w.WalletPrivateKey == "" {
		return errors.Errorf("%s.walletPrivateKey is missing", name)
	}

	if w.WalletAddress != "" && !common.IsHexAddress(w.WalletAddress) {
		return errors.Errorf("%s.walletAddress is not a valid address", name)
	}

	return nil
}

// Roster returns the roster for a category; a missing category yields an empty roster
func (c *Config) Roster(category rewards.Category) *Roster {
	if r, ok := c.Validators[category]; ok && r != nil {
		return r
	}
	return &Roster{}
}

// PrivateKey returns the hex key without any 0x prefix
func (w Wallet) PrivateKey() string {
	return strings.TrimPrefix(w.WalletPrivateKey, "0x")
}
