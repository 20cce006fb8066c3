package distribution

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/metrics"
	"whitelister/rewards"
	"whitelister/storage"
	"whitelister/util"
)

type Args struct {
	Reader   ChainReader
	Writer   ChainWriter
	Ledger   CommitLedger // Optional; nil disables the idempotence guard
	Rosters  map[rewards.Category]Roster
	Contract common.Address // Distribution contract, part of every roster fingerprint

	FundingWallet      common.Address
	DistributionWallet common.Address

	Clock  clockwork.Clock
	DryRun bool
	Force  bool // Ignore the ledger and run every category from scratch
}

// Orchestrator runs Calculate -> Transfer -> Register for every category in
// order, stopping at the first failure. Nothing already committed is undone.
type Orchestrator struct {
	reader     ChainReader
	transferor *Transferor
	registrar  *Registrar
	ledger     CommitLedger
	rosters    map[rewards.Category]Roster
	contract   common.Address
	clock      clockwork.Clock
	dryRun     bool
	force      bool

	constants *rewards.AllocationConstants
}

func New(args Args) *Orchestrator {

	clock := args.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Orchestrator{
		reader:     args.Reader,
		transferor: NewTransferor(args.Reader, args.Writer, args.FundingWallet, args.DistributionWallet, clock, args.DryRun),
		registrar:  NewRegistrar(args.Writer, clock, args.DryRun),
		ledger:     args.Ledger,
		rosters:    args.Rosters,
		contract:   args.Contract,
		clock:      clock,
		dryRun:     args.DryRun,
		force:      args.Force,
	}
}

// Run processes every category and returns the report. The report is
// Completed only when all five categories are registered.
func (o *Orchestrator) Run(ctx context.Context) *Report {

	report := &Report{
		DryRun:    o.dryRun,
		StartedAt: o.clock.Now(),
		Results:   make([]CategoryResult, 0, len(rewards.Categories)),
	}

	for _, category := range rewards.Categories {

		report.Category = category

		result, err := o.runCategory(ctx, category)
		metrics.CategoryOutcomes.WithLabelValues(category.String(), result.Status).Inc()

		if err != nil {
			result.Error = err.Error()
			report.Results = append(report.Results, result)

			report.Outcome = ABORTED
			report.Err = err
			report.Error = err.Error()
			report.FinishedAt = o.clock.Now()

			log.WithError(err).WithFields(log.Fields{
				"Category": category, "Step": result.Step, "Committed": report.Committed(),
			}).Error("Whitelisting failed; aborting run")

			metrics.RunsTotal.WithLabelValues(ABORTED).Inc()

			return report
		}

		report.Results = append(report.Results, result)
	}

	report.Outcome = COMPLETED
	report.FinishedAt = o.clock.Now()

	log.WithField("DryRun", o.dryRun).Info("All addresses whitelisted successfully")
	metrics.RunsTotal.WithLabelValues(COMPLETED).Inc()

	return report
}

func (o *Orchestrator) runCategory(ctx context.Context, category rewards.Category) (CategoryResult, error) {

	result := CategoryResult{
		Category: category,
		Status:   STATUS_FAILED,
		Step:     STEP_CALCULATE,
	}

	log.WithField("Category", category).Info("Processing category")

	// Calculate
	roster, err := o.rosters[category].validate(category)
	if err != nil {
		return result, err
	}
	result.Participants = len(roster.Addresses)

	reward, err := o.calculate(ctx, category, roster)
	if err != nil {
		return result, err
	}
	result.Reward = reward
	result.PerParticipant = rewards.PerParticipant(reward, len(roster.Addresses))

	fingerprint, err := util.RosterFingerprint(o.contract, category.String(), roster.Addresses, roster.Uptime)
	if err != nil {
		return result, errors.Wrap(err, "Unable to fingerprint roster")
	}

	commit, err := o.previousCommit(fingerprint)
	if err != nil {
		return result, err
	}

	if commit != nil && commit.Status == storage.REGISTERED {
		result.Status = STATUS_SKIPPED
		result.Step = ""
		result.TransferTx = commit.TransferTx
		result.TransferConfirmedAt = timestamp(commit.TransferredAt)
		result.RegisterTx = commit.RegisterTx
		result.RegisteredAt = timestamp(commit.RegisteredAt)

		log.WithFields(log.Fields{
			"Category": category, "RegisterTx": commit.RegisterTx,
		}).Info("Roster already registered; skipping")

		return result, nil
	}

	// Transfer
	result.Step = STEP_TRANSFER

	if commit != nil && commit.Status == storage.TRANSFERRED {
		result.TransferSkipped = true
		result.TransferTx = commit.TransferTx
		result.TransferConfirmedAt = timestamp(commit.TransferredAt)

		if commit.Amount != reward.String() {
			log.WithFields(log.Fields{
				"Category": category, "Funded": commit.Amount, "Reward": reward,
			}).Warn("Previously funded amount differs from computed reward")
		}

		log.WithFields(log.Fields{
			"Category": category, "TransferTx": commit.TransferTx,
		}).Info("Roster already funded; skipping transfer")

	} else {
		transfer, err := o.transferor.Transfer(ctx, category, reward)
		if err != nil {
			return result, err
		}

		if !o.dryRun {
			result.TransferTx = transfer.TxHash.Hex()
			result.TransferConfirmedAt = timestamp(transfer.ConfirmedAt)
			o.recordTransfer(fingerprint, category, reward, transfer)
		}
	}

	// Register
	result.Step = STEP_REGISTER

	registration, err := o.registrar.Register(ctx, category, roster)
	if err != nil {
		return result, err
	}

	result.Step = ""

	if o.dryRun {
		result.Status = STATUS_DRYRUN
		return result, nil
	}

	result.Status = STATUS_DONE
	result.RegisterTx = registration.TxHash.Hex()
	result.RegisteredAt = timestamp(registration.ConfirmedAt)
	o.recordRegistration(fingerprint, category, registration)

	return result, nil
}

// calculate reads the constants snapshot on first use and applies the category's formula
func (o *Orchestrator) calculate(ctx context.Context, category rewards.Category, roster Roster) (*big.Int, error) {

	if o.constants == nil {
		constants, err := o.loadConstants(ctx, category)
		if err != nil {
			return nil, err
		}
		o.constants = constants
	}

	reward, err := rewards.Calculate(category, o.constants, len(roster.Addresses), roster.ActiveUptime())
	if err != nil {
		return nil, err
	}

	metrics.RewardAmount.WithLabelValues(category.String()).Set(tokenFloat(reward))

	log.WithFields(log.Fields{
		"Category": category, "Reward": reward, "Participants": len(roster.Addresses),
		"PerParticipant": rewards.PerParticipant(reward, len(roster.Addresses)),
	}).Info("Calculated total reward")

	return reward, nil
}

func (o *Orchestrator) loadConstants(ctx context.Context, category rewards.Category) (*rewards.AllocationConstants, error) {

	values := make(map[string]*big.Int, len(rewards.ConstantNames))

	for _, name := range rewards.ConstantNames {
		v, err := o.reader.ReadConstant(ctx, name)
		metrics.ObserveChainCall("constant", err)
		if err != nil {
			return nil, &ChainReadError{Category: category, What: name, Err: err}
		}
		values[name] = v
	}

	constants, err := rewards.ConstantsFromValues(values)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"TotalSupply":   constants.TotalSupply,
		"BugBountyBps":  constants.BugBountyAllocationBps,
		"LowBps":        constants.LowBps,
		"MediumBps":     constants.MediumBps,
		"HighBps":       constants.HighBps,
		"DeveloperBps":  constants.DeveloperAllocationBps,
		"DappBps":       constants.DappAllocationBps,
		"MonthlyDapp":   constants.MonthlyDappReward,
		"MonthlyUptime": constants.MonthlyUptimeBonus,
	}).Debug("Loaded allocation constants")

	return constants, nil
}

// previousCommit is read in dry runs too, so a dry run skips exactly what a
// real run would. Only --force ignores the ledger.
func (o *Orchestrator) previousCommit(fingerprint string) (*storage.CommitRecord, error) {

	if o.ledger == nil || o.force {
		return nil, nil
	}

	commit, err := o.ledger.GetCommit(fingerprint)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read commit ledger")
	}

	return commit, nil
}

// Ledger writes happen after the chain has confirmed; a failure here cannot
// undo the chain state, so it is logged and the run continues
func (o *Orchestrator) recordTransfer(fingerprint string, category rewards.Category, amount *big.Int, t *TransferReceipt) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordTransfer(fingerprint, category.String(), amount.String(), t.TxHash.Hex(), t.ConfirmedAt); err != nil {
		log.WithError(err).WithField("Category", category).Error("Unable to record transfer in ledger")
	}
}

func (o *Orchestrator) recordRegistration(fingerprint string, category rewards.Category, r *RegistrationReceipt) {
	if o.ledger == nil {
		return
	}
	if err := o.ledger.RecordRegistration(fingerprint, category.String(), r.TxHash.Hex(), r.ConfirmedAt); err != nil {
		log.WithError(err).WithField("Category", category).Error("Unable to record registration in ledger")
	}
}

func tokenFloat(amount *big.Int) float64 {
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), big.NewFloat(1e18)).Float64()
	return f
}
