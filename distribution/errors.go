package distribution

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"

	"whitelister/rewards"
)

var (
	// ErrReverted is the cause of a ChainWriteError whose transaction was mined with a failed status
	ErrReverted = errors.New("transaction reverted")

	// ErrNotCredited is the cause of a ChainWriteError whose transfer was mined
	// without moving the full amount into the distribution wallet
	ErrNotCredited = errors.New("transfer not credited to distribution wallet")
)

// ChainReadError is a failed constant or balance read
type ChainReadError struct {
	Category rewards.Category
	What     string
	Err      error
}

func (e *ChainReadError) Error() string {
	return fmt.Sprintf("chain read of %s failed for %s: %v", e.What, e.Category, e.Err)
}

func (e *ChainReadError) Unwrap() error {
	return e.Err
}

// InsufficientBalanceError means the funding wallet balance does not strictly exceed the reward
type InsufficientBalanceError struct {
	Category rewards.Category
	Wallet   common.Address
	Balance  *big.Int
	Required *big.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient token balance for %s: wallet %s holds %s, needs more than %s",
		e.Category, e.Wallet.Hex(), e.Balance, e.Required)
}

// ChainWriteError is a failed transfer or registration, at submission, while
// waiting for confirmation, or because the transaction reverted
type ChainWriteError struct {
	Category rewards.Category
	Op       string
	TxHash   common.Hash
	Err      error
}

func (e *ChainWriteError) Error() string {
	if e.TxHash == (common.Hash{}) {
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Category, e.Err)
	}
	return fmt.Sprintf("%s failed for %s (tx %s): %v", e.Op, e.Category, e.TxHash.Hex(), e.Err)
}

func (e *ChainWriteError) Unwrap() error {
	return e.Err
}
