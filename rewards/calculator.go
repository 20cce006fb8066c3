package rewards

import (
	"math/big"

	"github.com/pkg/errors"
)

// formula computes a category's total reward pool from a constants snapshot,
// the roster size and the number of roster entries flagged with active uptime
type formula func(c *AllocationConstants, rosterSize, activeUptime int) *big.Int

// formulas is the one place where the per-category reward arithmetic lives.
// Every category receives its whole allocation pool; the pool is not divided
// by the number of participants.
var formulas = map[Category]formula{
	LowBugBounty: func(c *AllocationConstants, _, _ int) *big.Int {
		return Allocation(BountyPool(c), c.LowBps)
	},
	MediumBugBounty: func(c *AllocationConstants, _, _ int) *big.Int {
		return Allocation(BountyPool(c), c.MediumBps)
	},
	HighBugBounty: func(c *AllocationConstants, _, _ int) *big.Int {
		return Allocation(BountyPool(c), c.HighBps)
	},
	ContractDeployment: func(c *AllocationConstants, _, _ int) *big.Int {
		return Allocation(c.TotalSupply, c.DeveloperAllocationBps)
	},
	DappUsers: func(c *AllocationConstants, _, _ int) *big.Int {
		return Allocation(c.TotalSupply, c.DappAllocationBps)
	},
}

// Allocation returns supply * bps / MAX_BPS using floor division. Both operands
// must be non-negative. The inputs are not modified.
func Allocation(supply, bps *big.Int) *big.Int {
	r := new(big.Int).Mul(supply, bps)
	return r.Quo(r, maxBps)
}

// BountyPool is the share of total supply set aside for all three bug-bounty tiers
func BountyPool(c *AllocationConstants) *big.Int {
	return Allocation(c.TotalSupply, c.BugBountyAllocationBps)
}

// Calculate returns the total reward to fund for a category. rosterSize must be
// greater than zero; activeUptime is the count of true uptime flags and is only
// meaningful for DappUsers.
func Calculate(category Category, c *AllocationConstants, rosterSize, activeUptime int) (*big.Int, error) {

	f, ok := formulas[category]
	if !ok {
		return nil, newValidationError(category, "unsupported category")
	}

	if rosterSize <= 0 {
		return nil, newValidationError(category, "no addresses found in roster")
	}

	if activeUptime < 0 || activeUptime > rosterSize {
		return nil, newValidationError(category, "active uptime count exceeds roster size")
	}

	if c == nil {
		return nil, newValidationError(category, "no allocation constants")
	}

	if err := c.Validate(); err != nil {
		var invalid *ValidationError
		if errors.As(err, &invalid) {
			return nil, newValidationError(category, invalid.Reason)
		}
		return nil, err
	}

	return f(c, rosterSize, activeUptime), nil
}

// PerParticipant is the floor share each address would receive if the pool
// were split evenly. It is informational and never changes the funded amount.
func PerParticipant(reward *big.Int, rosterSize int) *big.Int {
	if rosterSize <= 0 || reward == nil {
		return new(big.Int)
	}
	return new(big.Int).Quo(reward, big.NewInt(int64(rosterSize)))
}
