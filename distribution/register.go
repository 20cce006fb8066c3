package distribution

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"

	log "github.com/sirupsen/logrus"

	"whitelister/metrics"
	"whitelister/rewards"
)

type RegistrationReceipt struct {
	TxHash      common.Hash
	ConfirmedAt time.Time
	Waited      time.Duration
}

// Registrar invokes the category's registration entry point on the distribution contract
type Registrar struct {
	writer ChainWriter
	clock  clockwork.Clock
	dryRun bool
}

func NewRegistrar(writer ChainWriter, clock clockwork.Clock, dryRun bool) *Registrar {
	return &Registrar{
		writer: writer,
		clock:  clock,
		dryRun: dryRun,
	}
}

// Register submits the whole roster in one call and waits for it to be mined.
// A revert is returned as a ChainWriteError wrapping ErrReverted.
func (r *Registrar) Register(ctx context.Context, category rewards.Category, roster Roster) (*RegistrationReceipt, error) {

	if r.dryRun {
		log.WithFields(log.Fields{
			"Category": category, "Participants": len(roster.Addresses),
		}).Info("Dry run; registration not submitted")
		return &RegistrationReceipt{}, nil
	}

	tx, err := r.writer.Register(ctx, category, roster.Addresses, roster.Uptime)
	metrics.ObserveChainCall("register", err)
	if err != nil {
		return nil, &ChainWriteError{Category: category, Op: "register", Err: err}
	}

	log.WithFields(log.Fields{
		"Category": category, "Tx": tx.Hash().Hex(), "Participants": len(roster.Addresses),
	}).Info("Registration submitted; waiting for confirmation")

	waited, err := waitConfirmed(ctx, r.clock, r.writer, tx, "register")
	if err != nil {
		return nil, &ChainWriteError{Category: category, Op: "register", TxHash: tx.Hash(), Err: err}
	}

	log.WithFields(log.Fields{
		"Category": category, "Tx": tx.Hash().Hex(),
	}).Info("Registered participants")

	return &RegistrationReceipt{
		TxHash:      tx.Hash(),
		ConfirmedAt: r.clock.Now(),
		Waited:      waited,
	}, nil
}
