package distribution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"whitelister/config"
	"whitelister/rewards"
	"whitelister/storage"
)

// ChainReader is the read side of the ledger client
type ChainReader interface {
	ReadConstant(ctx context.Context, name string) (*big.Int, error)
	ReadBalance(ctx context.Context, wallet common.Address) (*big.Int, error)
}

// ChainWriter is the write side of the ledger client. Submissions return as soon
// as the node accepts the transaction; WaitConfirmed blocks until it is mined.
type ChainWriter interface {
	Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error)
	Register(ctx context.Context, category rewards.Category, addresses []common.Address, uptime []bool) (*types.Transaction, error)
	WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error)
}

// CommitLedger remembers which category rosters were already funded or registered
type CommitLedger interface {
	GetCommit(fingerprint string) (*storage.CommitRecord, error)
	RecordTransfer(fingerprint, category, amount, txHash string, at time.Time) error
	RecordRegistration(fingerprint, category, txHash string, at time.Time) error
}

// Roster is one category's participants in chain form
type Roster struct {
	Addresses []common.Address
	Uptime    []bool
}

// RostersFromConfig converts every configured category roster. Categories
// absent from the configuration get an empty roster.
func RostersFromConfig(cfg *config.Config) map[rewards.Category]Roster {

	rosters := make(map[rewards.Category]Roster, len(rewards.Categories))

	for _, category := range rewards.Categories {
		r := cfg.Roster(category)

		addresses := make([]common.Address, len(r.Addresses))
		for i, a := range r.Addresses {
			addresses[i] = common.HexToAddress(a)
		}

		roster := Roster{Addresses: addresses}
		if category == rewards.DappUsers {
			roster.Uptime = r.UptimeStatus
		}

		rosters[category] = roster
	}

	return rosters
}

// ActiveUptime counts the participants flagged with active uptime
func (r Roster) ActiveUptime() int {
	var n int
	for _, up := range r.Uptime {
		if up {
			n++
		}
	}
	return n
}

// validate rejects empty rosters, and for dappUsers fills in missing uptime
// flags as inactive. Supplied flags must line up with the addresses.
func (r Roster) validate(category rewards.Category) (Roster, error) {

	if len(r.Addresses) == 0 {
		return r, &rewards.ValidationError{Category: category, HasCategory: true, Reason: "no addresses found in roster"}
	}

	if category != rewards.DappUsers {
		r.Uptime = nil
		return r, nil
	}

	if len(r.Uptime) == 0 {
		r.Uptime = make([]bool, len(r.Addresses))
		return r, nil
	}

	if len(r.Uptime) != len(r.Addresses) {
		return r, &rewards.ValidationError{
			Category:    category,
			HasCategory: true,
			Reason:      "uptime status does not line up with addresses",
		}
	}

	return r, nil
}
