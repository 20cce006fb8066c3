package distribution

import (
	"context"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/jonboulle/clockwork"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"whitelister/rewards"
	"whitelister/storage"
)

var (
	fundingAddr      = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	distributionAddr = common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")
	contractAddr     = common.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
)

type chainEvent struct {
	Op        string
	Category  rewards.Category
	Amount    *big.Int
	Addresses []common.Address
	Uptime    []bool
}

// fakeChain is an in-memory token and distribution contract. Every confirmation
// advances the fake clock by one second.
type fakeChain struct {
	clock     *clockwork.FakeClock
	constants map[string]*big.Int
	balances  map[common.Address]*big.Int

	constantErr    error
	balanceErr     error
	revertRegister map[rewards.Category]bool

	// Transfer knobs take the 1-based ordinal of the transfer they apply to
	transferErr      error
	transferErrAt    int
	revertTransferAt int
	swallowTransfers bool // mined but no tokens move

	cancelWait context.CancelFunc // called on the first confirmation wait

	constantReads int
	transfers     int
	events        []chainEvent
	reverted      map[common.Hash]bool
	nonce         uint64
}

func newFakeChain(clock *clockwork.FakeClock, funding int64) *fakeChain {
	return &fakeChain{
		clock: clock,
		constants: map[string]*big.Int{
			rewards.TOTAL_SUPPLY:                big.NewInt(1_000_000),
			rewards.BUG_BOUNTY_ALLOCATION:       big.NewInt(3000),
			rewards.LOW_PERCENTAGE:              big.NewInt(500),
			rewards.MEDIUM_PERCENTAGE:           big.NewInt(3500),
			rewards.HIGH_PERCENTAGE:             big.NewInt(6000),
			rewards.DEVELOPER_REWARD_ALLOCATION: big.NewInt(1500),
			rewards.DAPP_REWARD_ALLOCATION:      big.NewInt(2500),
			rewards.MONTHLY_DAPP_REWARD:         big.NewInt(10_000),
			rewards.MONTHLY_UPTIME_BONUS:        big.NewInt(2_000),
		},
		balances: map[common.Address]*big.Int{
			fundingAddr:      big.NewInt(funding),
			distributionAddr: big.NewInt(0),
		},
		revertRegister: map[rewards.Category]bool{},
		reverted:       map[common.Hash]bool{},
	}
}

func (f *fakeChain) ReadConstant(_ context.Context, name string) (*big.Int, error) {
	f.constantReads++
	if f.constantErr != nil {
		return nil, f.constantErr
	}
	return new(big.Int).Set(f.constants[name]), nil
}

func (f *fakeChain) ReadBalance(_ context.Context, wallet common.Address) (*big.Int, error) {
	if f.balanceErr != nil {
		return nil, f.balanceErr
	}
	b, ok := f.balances[wallet]
	if !ok {
		return big.NewInt(0), nil
	}
	return new(big.Int).Set(b), nil
}

func (f *fakeChain) newTx() *types.Transaction {
	f.nonce++
	return types.NewTx(&types.LegacyTx{Nonce: f.nonce, GasPrice: big.NewInt(1), Gas: 21000})
}

func (f *fakeChain) Transfer(_ context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {
	f.transfers++

	if f.transferErr != nil && f.transfers == f.transferErrAt {
		return nil, f.transferErr
	}

	f.events = append(f.events, chainEvent{Op: "transfer", Amount: new(big.Int).Set(amount)})
	tx := f.newTx()

	if f.transfers == f.revertTransferAt {
		f.reverted[tx.Hash()] = true
		return tx, nil
	}

	if !f.swallowTransfers {
		f.balances[fundingAddr] = new(big.Int).Sub(f.balances[fundingAddr], amount)
		f.balances[to] = new(big.Int).Add(f.balances[to], amount)
	}

	return tx, nil
}

func (f *fakeChain) Register(_ context.Context, category rewards.Category, addresses []common.Address, uptime []bool) (*types.Transaction, error) {
	f.events = append(f.events, chainEvent{Op: "register", Category: category, Addresses: addresses, Uptime: uptime})
	tx := f.newTx()
	if f.revertRegister[category] {
		f.reverted[tx.Hash()] = true
	}
	return tx, nil
}

func (f *fakeChain) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	if f.cancelWait != nil {
		f.cancelWait()
		<-ctx.Done()
		return nil, ctx.Err()
	}

	f.clock.Advance(time.Second)
	status := types.ReceiptStatusSuccessful
	if f.reverted[tx.Hash()] {
		status = types.ReceiptStatusFailed
	}
	return &types.Receipt{Status: status, TxHash: tx.Hash()}, nil
}

func (f *fakeChain) ops() []string {
	ops := make([]string, len(f.events))
	for i, e := range f.events {
		ops[i] = e.Op
	}
	return ops
}

func testRosters() map[rewards.Category]Roster {
	addr := func(s string) common.Address { return common.HexToAddress(s) }
	return map[rewards.Category]Roster{
		rewards.LowBugBounty:       {Addresses: []common.Address{addr("0x01"), addr("0x02")}},
		rewards.MediumBugBounty:    {Addresses: []common.Address{addr("0x03")}},
		rewards.HighBugBounty:      {Addresses: []common.Address{addr("0x04")}},
		rewards.ContractDeployment: {Addresses: []common.Address{addr("0x05"), addr("0x06"), addr("0x07")}},
		rewards.DappUsers:          {Addresses: []common.Address{addr("0x08"), addr("0x09")}, Uptime: []bool{true, false}},
	}
}

func newTestOrchestrator(chain *fakeChain, rosters map[rewards.Category]Roster, ledger CommitLedger, dryRun, force bool) *Orchestrator {
	return New(Args{
		Reader:             chain,
		Writer:             chain,
		Ledger:             ledger,
		Rosters:            rosters,
		Contract:           contractAddr,
		FundingWallet:      fundingAddr,
		DistributionWallet: distributionAddr,
		Clock:              chain.clock,
		DryRun:             dryRun,
		Force:              force,
	})
}

var expectedRewards = []int64{15_000, 105_000, 180_000, 150_000, 250_000}

func TestRunCompletesInOrder(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC))
	chain := newFakeChain(clock, 1_000_000)

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.True(t, report.Completed())
	require.NoError(t, report.Err)
	require.Equal(t, EXIT_OK, report.ExitCode())
	require.Equal(t, rewards.DappUsers, report.Category)
	require.Len(t, report.Results, 5)

	// Constants are read once per run
	require.Equal(t, len(rewards.ConstantNames), chain.constantReads)

	require.Equal(t, []string{
		"transfer", "register", "transfer", "register", "transfer",
		"register", "transfer", "register", "transfer", "register",
	}, chain.ops())

	var last time.Time
	for i, res := range report.Results {
		require.Equal(t, rewards.Categories[i], res.Category)
		require.Equal(t, STATUS_DONE, res.Status)
		require.Empty(t, res.Step)
		require.Equal(t, big.NewInt(expectedRewards[i]), res.Reward)

		// Transferred amount equals the computed reward
		require.Equal(t, res.Reward, chain.events[2*i].Amount)
		require.Equal(t, res.Category, chain.events[2*i+1].Category)

		require.NotNil(t, res.TransferConfirmedAt)
		require.NotNil(t, res.RegisteredAt)
		require.True(t, res.TransferConfirmedAt.After(last))
		require.True(t, res.RegisteredAt.After(*res.TransferConfirmedAt))
		last = *res.RegisteredAt
	}

	require.Equal(t, big.NewInt(300_000), chain.balances[fundingAddr])
	require.Equal(t, big.NewInt(700_000), chain.balances[distributionAddr])
	require.Equal(t, []bool{true, false}, chain.events[9].Uptime)
	require.Nil(t, chain.events[1].Uptime)
}

func TestEmptyFirstRosterMakesNoChainCalls(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	rosters := testRosters()
	rosters[rewards.LowBugBounty] = Roster{}

	report := newTestOrchestrator(chain, rosters, nil, false, false).Run(context.Background())

	require.False(t, report.Completed())
	require.Equal(t, ABORTED, report.Outcome)
	require.Equal(t, rewards.LowBugBounty, report.Category)
	require.Equal(t, EXIT_VALIDATION, report.ExitCode())
	require.Zero(t, chain.constantReads)
	require.Empty(t, chain.events)

	var validationErr *rewards.ValidationError
	require.ErrorAs(t, report.Err, &validationErr)
	require.Equal(t, rewards.LowBugBounty, validationErr.Category)
	require.Equal(t, STEP_CALCULATE, report.Results[0].Step)
}

func TestEmptyLaterRosterKeepsEarlierCommits(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	rosters := testRosters()
	rosters[rewards.HighBugBounty] = Roster{Addresses: []common.Address{}}

	report := newTestOrchestrator(chain, rosters, nil, false, false).Run(context.Background())

	require.Equal(t, ABORTED, report.Outcome)
	require.Equal(t, rewards.HighBugBounty, report.Category)
	require.Equal(t, []rewards.Category{rewards.LowBugBounty, rewards.MediumBugBounty}, report.Committed())
	require.Equal(t, []string{"transfer", "register", "transfer", "register"}, chain.ops())
	require.Len(t, report.Results, 3)
	require.Equal(t, STATUS_FAILED, report.Results[2].Status)
}

func TestBalanceEqualToRewardIsInsufficient(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 15_000)

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, EXIT_INSUFFICIENT_BALANCE, report.ExitCode())
	require.Empty(t, chain.events)

	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, report.Err, &balanceErr)
	require.Equal(t, rewards.LowBugBounty, balanceErr.Category)
	require.Equal(t, big.NewInt(15_000), balanceErr.Balance)
	require.Equal(t, big.NewInt(15_000), balanceErr.Required)
	require.Equal(t, STEP_TRANSFER, report.Results[0].Step)
}

func TestBalanceJustAboveRewardSucceeds(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 15_001)
	rosters := testRosters()
	rosters[rewards.MediumBugBounty] = Roster{}

	report := newTestOrchestrator(chain, rosters, nil, false, false).Run(context.Background())

	require.Equal(t, rewards.MediumBugBounty, report.Category)
	require.Equal(t, []rewards.Category{rewards.LowBugBounty}, report.Committed())
	require.Equal(t, big.NewInt(1), chain.balances[fundingAddr])
}

func TestRegistrationRevertStopsRun(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.revertRegister[rewards.MediumBugBounty] = true

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, ABORTED, report.Outcome)
	require.Equal(t, rewards.MediumBugBounty, report.Category)
	require.Equal(t, EXIT_CHAIN_WRITE, report.ExitCode())
	require.ErrorIs(t, report.Err, ErrReverted)

	var writeErr *ChainWriteError
	require.ErrorAs(t, report.Err, &writeErr)
	require.Equal(t, "register", writeErr.Op)
	require.NotEqual(t, common.Hash{}, writeErr.TxHash)

	// The medium transfer stays; nothing is attempted for later categories
	require.Equal(t, []string{"transfer", "register", "transfer", "register"}, chain.ops())
	require.Equal(t, big.NewInt(120_000), chain.balances[distributionAddr])

	res := report.Results[1]
	require.Equal(t, STEP_REGISTER, res.Step)
	require.NotEmpty(t, res.TransferTx)
	require.Empty(t, res.RegisterTx)
}

func TestConstantReadFailure(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.constantErr = errors.New("connection refused")

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, EXIT_CHAIN_READ, report.ExitCode())
	require.Equal(t, rewards.LowBugBounty, report.Category)
	require.Empty(t, chain.events)

	var readErr *ChainReadError
	require.ErrorAs(t, report.Err, &readErr)
	require.Equal(t, rewards.TOTAL_SUPPLY, readErr.What)
}

func TestBalanceReadFailure(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.balanceErr = errors.New("timeout")

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, EXIT_CHAIN_READ, report.ExitCode())
	require.Empty(t, chain.events)
}

func TestInvalidConstantsAreValidationErrors(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.constants[rewards.HIGH_PERCENTAGE] = big.NewInt(10_001)

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, EXIT_VALIDATION, report.ExitCode())
	require.Empty(t, chain.events)
}

func TestDappUptimeDefaultsToInactive(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	rosters := testRosters()
	dapp := rosters[rewards.DappUsers]
	dapp.Uptime = nil
	rosters[rewards.DappUsers] = dapp

	report := newTestOrchestrator(chain, rosters, nil, false, false).Run(context.Background())

	require.True(t, report.Completed())
	last := chain.events[len(chain.events)-1]
	require.Equal(t, rewards.DappUsers, last.Category)
	require.Equal(t, []bool{false, false}, last.Uptime)
}

func TestDappUptimeMismatch(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	rosters := testRosters()
	dapp := rosters[rewards.DappUsers]
	dapp.Uptime = []bool{true}
	rosters[rewards.DappUsers] = dapp

	report := newTestOrchestrator(chain, rosters, nil, false, false).Run(context.Background())

	require.Equal(t, rewards.DappUsers, report.Category)
	require.Equal(t, EXIT_VALIDATION, report.ExitCode())
	require.Len(t, report.Committed(), 4)
}

func TestDryRunSubmitsNothing(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)

	report := newTestOrchestrator(chain, testRosters(), nil, true, false).Run(context.Background())

	require.True(t, report.Completed())
	require.True(t, report.DryRun)
	require.Empty(t, chain.events)
	for _, res := range report.Results {
		require.Equal(t, STATUS_DRYRUN, res.Status)
		require.Empty(t, res.TransferTx)
	}
	require.Empty(t, report.Committed())
}

func TestDryRunAccountsForPlannedSpend(t *testing.T) {
	// Enough for the first four categories (450,000) but not the fifth
	chain := newFakeChain(clockwork.NewFakeClock(), 500_000)

	report := newTestOrchestrator(chain, testRosters(), nil, true, false).Run(context.Background())

	require.Equal(t, rewards.DappUsers, report.Category)
	require.Equal(t, EXIT_INSUFFICIENT_BALANCE, report.ExitCode())

	var balanceErr *InsufficientBalanceError
	require.ErrorAs(t, report.Err, &balanceErr)
	require.Equal(t, big.NewInt(50_000), balanceErr.Balance)
	require.Empty(t, chain.events)
}

func TestResumeSkipsCommittedCategories(t *testing.T) {
	ledger, err := storage.InitStorage(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	clock := clockwork.NewFakeClock()
	chain := newFakeChain(clock, 1_000_000)
	chain.revertRegister[rewards.MediumBugBounty] = true

	first := newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background())
	require.Equal(t, rewards.MediumBugBounty, first.Category)

	// Operator fixes the contract and re-runs against the same chain
	chain.revertRegister = map[rewards.Category]bool{}
	chain.events = nil

	second := newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background())
	require.True(t, second.Completed())

	require.Equal(t, STATUS_SKIPPED, second.Results[0].Status)
	require.Equal(t, first.Results[0].RegisterTx, second.Results[0].RegisterTx)

	require.Equal(t, STATUS_DONE, second.Results[1].Status)
	require.True(t, second.Results[1].TransferSkipped)
	require.Equal(t, first.Results[1].TransferTx, second.Results[1].TransferTx)

	// medium re-registers only; the last three run in full
	require.Equal(t, []string{
		"register",
		"transfer", "register", "transfer", "register", "transfer", "register",
	}, chain.ops())
	require.Equal(t, big.NewInt(700_000), chain.balances[distributionAddr])

	// A third run finds everything registered
	chain.events = nil
	third := newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background())
	require.True(t, third.Completed())
	require.Empty(t, chain.events)
	require.Len(t, third.Committed(), 5)
}

func TestForceIgnoresLedger(t *testing.T) {
	ledger, err := storage.InitStorage(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	chain := newFakeChain(clockwork.NewFakeClock(), 2_000_000)

	require.True(t, newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background()).Completed())
	chain.events = nil

	report := newTestOrchestrator(chain, testRosters(), ledger, false, true).Run(context.Background())
	require.True(t, report.Completed())
	require.Len(t, chain.events, 10)
}

func TestChangedRosterIsNotSkipped(t *testing.T) {
	ledger, err := storage.InitStorage(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	chain := newFakeChain(clockwork.NewFakeClock(), 2_000_000)
	require.True(t, newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background()).Completed())
	chain.events = nil

	rosters := testRosters()
	low := rosters[rewards.LowBugBounty]
	low.Addresses = append([]common.Address{common.HexToAddress("0x0a")}, low.Addresses...)
	rosters[rewards.LowBugBounty] = low

	report := newTestOrchestrator(chain, rosters, ledger, false, false).Run(context.Background())
	require.True(t, report.Completed())
	require.Equal(t, []string{"transfer", "register"}, chain.ops())
	require.Equal(t, STATUS_DONE, report.Results[0].Status)
	require.Equal(t, STATUS_SKIPPED, report.Results[1].Status)
}

func TestExitCodeUnwrapsWrappedErrors(t *testing.T) {
	err := errors.Wrap(&ChainWriteError{Category: rewards.DappUsers, Op: "transfer", Err: ErrReverted}, "run")
	require.Equal(t, EXIT_CHAIN_WRITE, ExitCode(err))
	require.Equal(t, EXIT_OTHER, ExitCode(errors.New("boom")))
	require.Equal(t, EXIT_OK, ExitCode(nil))
}

func TestTransferRevertStopsRun(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.revertTransferAt = 2

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, ABORTED, report.Outcome)
	require.Equal(t, rewards.MediumBugBounty, report.Category)
	require.Equal(t, EXIT_CHAIN_WRITE, report.ExitCode())
	require.ErrorIs(t, report.Err, ErrReverted)

	var writeErr *ChainWriteError
	require.ErrorAs(t, report.Err, &writeErr)
	require.Equal(t, "transfer", writeErr.Op)
	require.Equal(t, rewards.MediumBugBounty, writeErr.Category)
	require.NotEqual(t, common.Hash{}, writeErr.TxHash)

	// No registration follows the failed transfer
	require.Equal(t, []string{"transfer", "register", "transfer"}, chain.ops())
	require.Equal(t, []rewards.Category{rewards.LowBugBounty}, report.Committed())

	res := report.Results[1]
	require.Equal(t, STEP_TRANSFER, res.Step)
	require.Equal(t, STATUS_FAILED, res.Status)
	require.Empty(t, res.TransferTx)
	require.Nil(t, res.TransferConfirmedAt)
}

func TestTransferSubmissionFailure(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.transferErr = errors.New("nonce too low")
	chain.transferErrAt = 3

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, rewards.HighBugBounty, report.Category)
	require.Equal(t, EXIT_CHAIN_WRITE, report.ExitCode())
	require.ErrorIs(t, report.Err, chain.transferErr)

	var writeErr *ChainWriteError
	require.ErrorAs(t, report.Err, &writeErr)
	require.Equal(t, "transfer", writeErr.Op)
	require.Equal(t, common.Hash{}, writeErr.TxHash)

	require.Equal(t, []string{"transfer", "register", "transfer", "register"}, chain.ops())
	require.Equal(t, []rewards.Category{rewards.LowBugBounty, rewards.MediumBugBounty}, report.Committed())
	require.Equal(t, STEP_TRANSFER, report.Results[2].Step)
}

func TestTransferNotCredited(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.swallowTransfers = true

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())

	require.Equal(t, rewards.LowBugBounty, report.Category)
	require.Equal(t, EXIT_CHAIN_WRITE, report.ExitCode())
	require.ErrorIs(t, report.Err, ErrNotCredited)
	require.Equal(t, []string{"transfer"}, chain.ops())
	require.Empty(t, report.Committed())
}

func TestCancelledWhileWaitingForTransfer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.cancelWait = cancel

	report := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(ctx)

	require.Equal(t, EXIT_CHAIN_WRITE, report.ExitCode())
	require.ErrorIs(t, report.Err, context.Canceled)

	var writeErr *ChainWriteError
	require.ErrorAs(t, report.Err, &writeErr)
	require.Equal(t, "transfer", writeErr.Op)
	require.Equal(t, rewards.LowBugBounty, writeErr.Category)
	require.Equal(t, []string{"transfer"}, chain.ops())
}

func TestConfirmationWaitMeasuredOnClock(t *testing.T) {
	clock := clockwork.NewFakeClock()
	chain := newFakeChain(clock, 1_000_000)

	transfer, err := NewTransferor(chain, chain, fundingAddr, distributionAddr, clock, false).
		Transfer(context.Background(), rewards.LowBugBounty, big.NewInt(15_000))
	require.NoError(t, err)
	require.Equal(t, time.Second, transfer.Waited)
	require.Equal(t, clock.Now(), transfer.ConfirmedAt)

	registration, err := NewRegistrar(chain, clock, false).
		Register(context.Background(), rewards.LowBugBounty, testRosters()[rewards.LowBugBounty])
	require.NoError(t, err)
	require.Equal(t, time.Second, registration.Waited)
}

func TestDryRunFollowsLedger(t *testing.T) {
	ledger, err := storage.InitStorage(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	chain := newFakeChain(clockwork.NewFakeClock(), 800_000)

	require.True(t, newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background()).Completed())
	require.Equal(t, big.NewInt(100_000), chain.balances[fundingAddr])
	chain.events = nil

	// Everything is registered, so the dry run predicts a no-op rather than
	// budgeting transfers the funding wallet can no longer cover
	report := newTestOrchestrator(chain, testRosters(), ledger, true, false).Run(context.Background())
	require.True(t, report.Completed())
	require.Equal(t, EXIT_OK, report.ExitCode())
	require.Empty(t, chain.events)
	for _, res := range report.Results {
		require.Equal(t, STATUS_SKIPPED, res.Status)
	}
}

func TestDryRunResumesLikeRealRun(t *testing.T) {
	ledger, err := storage.InitStorage(t.TempDir())
	require.NoError(t, err)
	defer ledger.Close()

	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)
	chain.revertRegister[rewards.MediumBugBounty] = true

	first := newTestOrchestrator(chain, testRosters(), ledger, false, false).Run(context.Background())
	require.Equal(t, rewards.MediumBugBounty, first.Category)
	chain.events = nil

	report := newTestOrchestrator(chain, testRosters(), ledger, true, false).Run(context.Background())
	require.True(t, report.Completed())
	require.Empty(t, chain.events)

	require.Equal(t, STATUS_SKIPPED, report.Results[0].Status)
	require.Equal(t, STATUS_DRYRUN, report.Results[1].Status)
	require.True(t, report.Results[1].TransferSkipped)
	require.Equal(t, first.Results[1].TransferTx, report.Results[1].TransferTx)
	for _, res := range report.Results[2:] {
		require.Equal(t, STATUS_DRYRUN, res.Status)
		require.False(t, res.TransferSkipped)
	}

	// The dry run leaves the ledger as it found it
	commits, err := ledger.GetCommitsAll()
	require.NoError(t, err)
	require.Len(t, commits, 2)
	for _, c := range commits {
		if c.Category == rewards.MediumBugBounty.String() {
			require.Equal(t, storage.TRANSFERRED, c.Status)
		}
	}
}

func TestReportOmitsUnsetTimestamps(t *testing.T) {
	chain := newFakeChain(clockwork.NewFakeClock(), 1_000_000)

	dry := newTestOrchestrator(chain, testRosters(), nil, true, false).Run(context.Background())
	b, err := json.Marshal(dry.Results[0])
	require.NoError(t, err)
	require.NotContains(t, string(b), "transferConfirmedAt")
	require.NotContains(t, string(b), "registeredAt")
	require.NotContains(t, string(b), "0001-01-01")

	live := newTestOrchestrator(chain, testRosters(), nil, false, false).Run(context.Background())
	b, err = json.Marshal(live.Results[0])
	require.NoError(t, err)
	require.Contains(t, string(b), "transferConfirmedAt")
	require.Contains(t, string(b), "registeredAt")
}
