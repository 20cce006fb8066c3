package distribution

import (
	"encoding/json"
	"errors"
	"math/big"
	"os"
	"time"

	pkgerrors "github.com/pkg/errors"

	"whitelister/rewards"
)

const (
	COMPLETED = "completed"
	ABORTED   = "aborted"

	// Per-category status
	STATUS_DONE    = "done"
	STATUS_SKIPPED = "skipped" // already registered in a previous run
	STATUS_FAILED  = "failed"
	STATUS_DRYRUN  = "dryrun"

	// Pipeline steps
	STEP_CALCULATE = "calculate"
	STEP_TRANSFER  = "transfer"
	STEP_REGISTER  = "register"
)

// Exit statuses, one per error kind
const (
	EXIT_OK                   = 0
	EXIT_OTHER                = 1
	EXIT_VALIDATION           = 2
	EXIT_CHAIN_READ           = 3
	EXIT_INSUFFICIENT_BALANCE = 4
	EXIT_CHAIN_WRITE          = 5
)

// CategoryResult is the outcome of one category's pipeline
type CategoryResult struct {
	Category       rewards.Category `json:"category"`
	Status         string           `json:"status"`
	Step           string           `json:"step,omitempty"` // Step that failed
	Participants   int              `json:"participants"`
	Reward         *big.Int         `json:"reward,omitempty"`
	PerParticipant *big.Int         `json:"perParticipant,omitempty"`

	TransferTx          string     `json:"transferTx,omitempty"`
	TransferConfirmedAt *time.Time `json:"transferConfirmedAt,omitempty"`
	TransferSkipped     bool       `json:"transferSkipped,omitempty"`
	RegisterTx          string     `json:"registerTx,omitempty"`
	RegisteredAt        *time.Time `json:"registeredAt,omitempty"`

	Error string `json:"error,omitempty"`
}

// Report is the machine-readable result of a run. Results holds every category
// that was attempted, in order; categories after an abort are absent.
type Report struct {
	Outcome    string           `json:"outcome"`
	Category   rewards.Category `json:"lastCategory"` // Last category attempted
	DryRun     bool             `json:"dryRun"`
	StartedAt  time.Time        `json:"startedAt"`
	FinishedAt time.Time        `json:"finishedAt"`
	Results    []CategoryResult `json:"results"`
	Error      string           `json:"error,omitempty"`

	Err error `json:"-"`
}

// timestamp is nil for the zero time, so unset confirmations are left out of the JSON
func timestamp(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func (r *Report) Completed() bool {
	return r.Outcome == COMPLETED
}

// Committed returns the categories whose registration is on chain, whether
// from this run or an earlier one
func (r *Report) Committed() []rewards.Category {
	var committed []rewards.Category
	for _, res := range r.Results {
		if res.Status == STATUS_DONE || res.Status == STATUS_SKIPPED {
			committed = append(committed, res.Category)
		}
	}
	return committed
}

// ExitCode maps the abort cause to a process exit status
func (r *Report) ExitCode() int {
	return ExitCode(r.Err)
}

func ExitCode(err error) int {

	if err == nil {
		return EXIT_OK
	}

	var (
		validationErr   *rewards.ValidationError
		readErr         *ChainReadError
		insufficientErr *InsufficientBalanceError
		writeErr        *ChainWriteError
	)

	switch {
	case errors.As(err, &validationErr):
		return EXIT_VALIDATION
	case errors.As(err, &readErr):
		return EXIT_CHAIN_READ
	case errors.As(err, &insufficientErr):
		return EXIT_INSUFFICIENT_BALANCE
	case errors.As(err, &writeErr):
		return EXIT_CHAIN_WRITE
	}

	return EXIT_OTHER
}

// WriteFile saves the report as indented JSON
func (r *Report) WriteFile(path string) error {

	b, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return pkgerrors.Wrap(err, "Unable to encode report")
	}

	if err := os.WriteFile(path, b, 0644); err != nil {
		return pkgerrors.Wrapf(err, "Unable to write report %s", path)
	}

	return nil
}
