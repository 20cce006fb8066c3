package distribution

import (
	"context"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/metrics"
	"whitelister/rewards"
	"whitelister/util"
)

// TransferReceipt describes a confirmed funding transfer
type TransferReceipt struct {
	TxHash      common.Hash
	ConfirmedAt time.Time
	Waited      time.Duration // Time spent waiting for confirmation
	Balance     *big.Int      // Funding wallet balance before the transfer
}

// Transferor moves a category's reward from the funding wallet to the distribution wallet
type Transferor struct {
	reader       ChainReader
	writer       ChainWriter
	funding      common.Address
	distribution common.Address
	clock        clockwork.Clock

	// In dry-run mode nothing is submitted; planned accumulates the amounts that
	// would have left the funding wallet so later balance checks stay honest.
	dryRun  bool
	planned *big.Int
}

func NewTransferor(reader ChainReader, writer ChainWriter, funding, distribution common.Address, clock clockwork.Clock, dryRun bool) *Transferor {
	return &Transferor{
		reader:       reader,
		writer:       writer,
		funding:      funding,
		distribution: distribution,
		clock:        clock,
		dryRun:       dryRun,
		planned:      new(big.Int),
	}
}

// Transfer checks the funding balance strictly exceeds amount, submits the
// transfer and blocks until it is confirmed. A mined transfer that did not
// credit the distribution wallet with the full amount fails with ErrNotCredited.
func (t *Transferor) Transfer(ctx context.Context, category rewards.Category, amount *big.Int) (*TransferReceipt, error) {

	balance, err := t.reader.ReadBalance(ctx, t.funding)
	metrics.ObserveChainCall("balance", err)
	if err != nil {
		return nil, &ChainReadError{Category: category, What: "funding balance", Err: err}
	}

	available := new(big.Int).Sub(balance, t.planned)

	log.WithFields(log.Fields{
		"Category": category, "Balance": balance, "Reward": amount,
	}).Info("Funding wallet balance")

	if available.Cmp(amount) <= 0 {
		return nil, &InsufficientBalanceError{
			Category: category,
			Wallet:   t.funding,
			Balance:  available,
			Required: amount,
		}
	}

	receipt := &TransferReceipt{
		Balance: balance,
	}

	if t.dryRun {
		t.planned.Add(t.planned, amount)
		log.WithFields(log.Fields{
			"Category": category, "Amount": util.FormatUnits(amount, util.TOKEN_DECIMALS),
		}).Info("Dry run; transfer not submitted")
		return receipt, nil
	}

	before, err := t.reader.ReadBalance(ctx, t.distribution)
	metrics.ObserveChainCall("balance", err)
	if err != nil {
		return nil, &ChainReadError{Category: category, What: "distribution balance", Err: err}
	}

	tx, err := t.writer.Transfer(ctx, t.distribution, amount)
	metrics.ObserveChainCall("transfer", err)
	if err != nil {
		return nil, &ChainWriteError{Category: category, Op: "transfer", Err: err}
	}

	log.WithFields(log.Fields{
		"Category": category, "Tx": tx.Hash().Hex(), "To": t.distribution.Hex(),
	}).Info("Transfer submitted; waiting for confirmation")

	waited, err := waitConfirmed(ctx, t.clock, t.writer, tx, "transfer")
	if err != nil {
		return nil, &ChainWriteError{Category: category, Op: "transfer", TxHash: tx.Hash(), Err: err}
	}

	receipt.TxHash = tx.Hash()
	receipt.ConfirmedAt = t.clock.Now()
	receipt.Waited = waited

	// Tokens that return false instead of reverting leave balances untouched
	if err := t.checkCredited(ctx, before, amount); err != nil {
		return nil, &ChainWriteError{Category: category, Op: "transfer", TxHash: tx.Hash(), Err: err}
	}

	log.WithFields(log.Fields{
		"Category": category, "Tx": tx.Hash().Hex(),
	}).Infof("Transferred %s tokens", util.FormatUnits(amount, util.TOKEN_DECIMALS))

	t.logFundingBalance(ctx, category)

	return receipt, nil
}

// checkCredited re-reads the distribution wallet. An unreadable balance is only
// logged since the transfer itself is already confirmed.
func (t *Transferor) checkCredited(ctx context.Context, before, amount *big.Int) error {

	after, err := t.reader.ReadBalance(ctx, t.distribution)
	metrics.ObserveChainCall("balance", err)
	if err != nil {
		log.WithError(err).Warn("Unable to re-read distribution balance; transfer credit not verified")
		return nil
	}

	credited := new(big.Int).Sub(after, before)

	log.WithFields(log.Fields{
		"DistributionBalance": after, "Credited": credited,
	}).Debug("Post-transfer distribution balance")

	if credited.Cmp(amount) < 0 {
		return errors.Wrapf(ErrNotCredited, "credited %s of %s", credited, amount)
	}

	return nil
}

// logFundingBalance re-reads the funding wallet after a transfer. Failures are only logged.
func (t *Transferor) logFundingBalance(ctx context.Context, category rewards.Category) {

	b, err := t.reader.ReadBalance(ctx, t.funding)
	if err != nil {
		log.WithError(err).Warn("Unable to re-read funding balance")
		return
	}

	log.WithFields(log.Fields{
		"Category": category, "FundingBalance": b,
	}).Debug("Post-transfer funding balance")
}

// waitConfirmed blocks on the receipt and turns a failed status into ErrReverted.
// It returns how long the wait took on clock.
func waitConfirmed(ctx context.Context, clock clockwork.Clock, writer ChainWriter, tx *types.Transaction, op string) (time.Duration, error) {

	start := clock.Now()
	receipt, err := writer.WaitConfirmed(ctx, tx)
	waited := clock.Since(start)

	metrics.ConfirmationWait.WithLabelValues(op).Observe(waited.Seconds())
	metrics.ObserveChainCall(op+"_confirm", err)

	if err != nil {
		return waited, err
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return waited, ErrReverted
	}

	return waited, nil
}
