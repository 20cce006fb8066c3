package rewards

import (
	"math/big"
)

const (
	// MAX_BPS is 100% expressed in basis points
	MAX_BPS = 10000

	// Getter names on the distribution contract
	TOTAL_SUPPLY                = "totalSupply"
	BUG_BOUNTY_ALLOCATION       = "BUG_BOUNTY_ALLOCATION_PERCENTAGE"
	LOW_PERCENTAGE              = "LOW_PERCENTAGE"
	MEDIUM_PERCENTAGE           = "MEDIUM_PERCENTAGE"
	HIGH_PERCENTAGE             = "HIGH_PERCENTAGE"
	DEVELOPER_REWARD_ALLOCATION = "DEVELOPER_REWARD_ALLOCATION_PERCENTAGE"
	DAPP_REWARD_ALLOCATION      = "DAPP_REWARD_ALLOCATION_PERCENTAGE"
	MONTHLY_DAPP_REWARD         = "MONTHLY_DAPP_REWARD"
	MONTHLY_UPTIME_BONUS        = "MONTHLY_UPTIME_BONUS"
)

var maxBps = big.NewInt(MAX_BPS)

// ConstantNames lists every on-chain constant that makes up an AllocationConstants snapshot
var ConstantNames = []string{
	TOTAL_SUPPLY,
	BUG_BOUNTY_ALLOCATION,
	LOW_PERCENTAGE,
	MEDIUM_PERCENTAGE,
	HIGH_PERCENTAGE,
	DEVELOPER_REWARD_ALLOCATION,
	DAPP_REWARD_ALLOCATION,
	MONTHLY_DAPP_REWARD,
	MONTHLY_UPTIME_BONUS,
}

// AllocationConstants is a snapshot of the economic constants read from the
// distribution contract. It is read once per run and never mutated.
type AllocationConstants struct {
	TotalSupply            *big.Int `json:"totalSupply"`
	BugBountyAllocationBps *big.Int `json:"bugBountyAllocationBps"`
	LowBps                 *big.Int `json:"lowBps"`
	MediumBps              *big.Int `json:"mediumBps"`
	HighBps                *big.Int `json:"highBps"`
	DeveloperAllocationBps *big.Int `json:"developerAllocationBps"`
	DappAllocationBps      *big.Int `json:"dappAllocationBps"`
	MonthlyDappReward      *big.Int `json:"monthlyDappReward"`
	MonthlyUptimeBonus     *big.Int `json:"monthlyUptimeBonus"`
}

// ConstantsFromValues builds a snapshot from a name -> value map as returned by the chain reader
func ConstantsFromValues(values map[string]*big.Int) (*AllocationConstants, error) {

	for _, name := range ConstantNames {
		if values[name] == nil {
			return nil, &ValidationError{Reason: "missing constant " + name}
		}
	}

	c := &AllocationConstants{
		TotalSupply:            values[TOTAL_SUPPLY],
		BugBountyAllocationBps: values[BUG_BOUNTY_ALLOCATION],
		LowBps:                 values[LOW_PERCENTAGE],
		MediumBps:              values[MEDIUM_PERCENTAGE],
		HighBps:                values[HIGH_PERCENTAGE],
		DeveloperAllocationBps: values[DEVELOPER_REWARD_ALLOCATION],
		DappAllocationBps:      values[DAPP_REWARD_ALLOCATION],
		MonthlyDappReward:      values[MONTHLY_DAPP_REWARD],
		MonthlyUptimeBonus:     values[MONTHLY_UPTIME_BONUS],
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}

	return c, nil
}

// Validate checks every bps field is within [0, MAX_BPS] and that no amount is negative
func (c *AllocationConstants) Validate() error {

	bps := map[string]*big.Int{
		BUG_BOUNTY_ALLOCATION:       c.BugBountyAllocationBps,
		LOW_PERCENTAGE:              c.LowBps,
		MEDIUM_PERCENTAGE:           c.MediumBps,
		HIGH_PERCENTAGE:             c.HighBps,
		DEVELOPER_REWARD_ALLOCATION: c.DeveloperAllocationBps,
		DAPP_REWARD_ALLOCATION:      c.DappAllocationBps,
	}

	for name, v := range bps {
		if v == nil {
			return &ValidationError{Reason: "missing constant " + name}
		}
		if v.Sign() < 0 || v.Cmp(maxBps) > 0 {
			return &ValidationError{Reason: name + " out of range: " + v.String()}
		}
	}

	amounts := map[string]*big.Int{
		TOTAL_SUPPLY:         c.TotalSupply,
		MONTHLY_DAPP_REWARD:  c.MonthlyDappReward,
		MONTHLY_UPTIME_BONUS: c.MonthlyUptimeBonus,
	}

	for name, v := range amounts {
		if v == nil {
			return &ValidationError{Reason: "missing constant " + name}
		}
		if v.Sign() < 0 {
			return &ValidationError{Reason: name + " is negative: " + v.String()}
		}
	}

	return nil
}
