package rewards

import (
	"fmt"

	"github.com/pkg/errors"
)

type Category int

const (
	LowBugBounty Category = iota
	MediumBugBounty
	HighBugBounty
	ContractDeployment
	DappUsers
)

// Categories is the fixed processing order of a distribution run
var Categories = []Category{
	LowBugBounty,
	MediumBugBounty,
	HighBugBounty,
	ContractDeployment,
	DappUsers,
}

var categoryKeys = map[Category]string{
	LowBugBounty:       "lowBugBounty",
	MediumBugBounty:    "mediumBugBounty",
	HighBugBounty:      "highBugBounty",
	ContractDeployment: "contractDeployment",
	DappUsers:          "dappUsers",
}

// String returns the key used for the category in the roster configuration
func (c Category) String() string {
	if k, ok := categoryKeys[c]; ok {
		return k
	}
	return fmt.Sprintf("category(%d)", int(c))
}

func (c Category) Valid() bool {
	_, ok := categoryKeys[c]
	return ok
}

// IsBounty is true for the three bug-bounty tiers, which share one allocation pool
func (c Category) IsBounty() bool {
	return c == LowBugBounty || c == MediumBugBounty || c == HighBugBounty
}

// ParseCategory maps a configuration key back to its Category
func ParseCategory(key string) (Category, error) {
	for c, k := range categoryKeys {
		if k == key {
			return c, nil
		}
	}
	return 0, errors.Errorf("Unknown category '%s'", key)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, errors.Errorf("Unknown category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
