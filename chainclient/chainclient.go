package chainclient

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"

	"whitelister/rewards"
	"whitelister/signer"
)

// Backend is the subset of an RPC client used for calls, transactions and receipts
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// ChainClient reads constants and balances from, and submits transactions to,
// the token and distribution contracts
type ChainClient struct {
	ChainID *big.Int

	backend      Backend
	token        *bind.BoundContract
	distribution *bind.BoundContract

	funder    *signer.WalletSigner
	registrar *signer.WalletSigner
}

type Args struct {
	TokenAddress        common.Address
	DistributionAddress common.Address
	Funder              *signer.WalletSigner
	Registrar           *signer.WalletSigner
}

// Dial connects to the RPC endpoint and resolves the chain id used for signing
func Dial(ctx context.Context, rpcURL string, args Args) (*ChainClient, error) {

	if rpcURL == "" {
		return nil, errors.New("No RPC endpoint configured")
	}

	eth, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to connect to %s", rpcURL)
	}

	chainID, err := eth.ChainID(ctx)
	if err != nil {
		eth.Close()
		return nil, errors.Wrap(err, "Unable to fetch chain id")
	}

	log.WithFields(log.Fields{
		"RPC": rpcURL, "ChainID": chainID,
	}).Info("Connected to chain")

	return New(eth, chainID, args), nil
}

// New binds the token and distribution contracts on an existing backend
func New(backend Backend, chainID *big.Int, args Args) *ChainClient {
	return &ChainClient{
		ChainID:      chainID,
		backend:      backend,
		token:        bind.NewBoundContract(args.TokenAddress, ERC20ABI, backend, backend, backend),
		distribution: bind.NewBoundContract(args.DistributionAddress, DistributionABI, backend, backend, backend),
		funder:       args.Funder,
		registrar:    args.Registrar,
	}
}

// FundingWallet is the wallet holding the token supply
func (c *ChainClient) FundingWallet() common.Address {
	return c.funder.Address
}

// DistributionWallet is the wallet that receives funded tokens and signs registrations
func (c *ChainClient) DistributionWallet() common.Address {
	return c.registrar.Address
}

// ReadConstant calls a zero-argument uint256 getter on the distribution contract
func (c *ChainClient) ReadConstant(ctx context.Context, name string) (*big.Int, error) {

	var out []interface{}
	if err := c.distribution.Call(&bind.CallOpts{Context: ctx}, &out, name); err != nil {
		return nil, errors.Wrapf(err, "Unable to read %s", name)
	}

	return firstBigInt(out, name)
}

// ReadBalance returns the token balance of a wallet
func (c *ChainClient) ReadBalance(ctx context.Context, wallet common.Address) (*big.Int, error) {

	var out []interface{}
	if err := c.token.Call(&bind.CallOpts{Context: ctx}, &out, "balanceOf", wallet); err != nil {
		return nil, errors.Wrapf(err, "Unable to read balance of %s", wallet.Hex())
	}

	return firstBigInt(out, "balanceOf")
}

// Transfer submits a token transfer signed by the funding wallet. It does not
// wait for the transaction to be mined.
func (c *ChainClient) Transfer(ctx context.Context, to common.Address, amount *big.Int) (*types.Transaction, error) {

	opts, err := c.transactor(ctx, c.funder)
	if err != nil {
		return nil, err
	}

	tx, err := c.token.Transact(opts, "transfer", to, amount)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to submit transfer")
	}

	return tx, nil
}

// Register submits the category's registration call signed by the distribution
// wallet. uptime is only sent for dappUsers.
func (c *ChainClient) Register(ctx context.Context, category rewards.Category, addresses []common.Address, uptime []bool) (*types.Transaction, error) {

	method, ok := RegisterMethod(category)
	if !ok {
		return nil, errors.Errorf("No registration entry point for %s", category)
	}

	opts, err := c.transactor(ctx, c.registrar)
	if err != nil {
		return nil, err
	}

	params := []interface{}{addresses}
	if category == rewards.DappUsers {
		params = append(params, uptime)
	}

	tx, err := c.distribution.Transact(opts, method, params...)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to submit %s", method)
	}

	return tx, nil
}

// WaitConfirmed blocks until the transaction is mined or ctx is cancelled
func (c *ChainClient) WaitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {

	receipt, err := bind.WaitMined(ctx, c.backend, tx)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to confirm %s", tx.Hash().Hex())
	}

	return receipt, nil
}

// Close releases the RPC connection when the backend owns one
func (c *ChainClient) Close() {
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (c *ChainClient) transactor(ctx context.Context, w *signer.WalletSigner) (*bind.TransactOpts, error) {

	if w == nil {
		return nil, errors.New("No signer configured")
	}

	opts, err := w.Transactor(c.ChainID)
	if err != nil {
		return nil, err
	}
	opts.Context = ctx

	return opts, nil
}

func firstBigInt(out []interface{}, name string) (*big.Int, error) {

	if len(out) == 0 {
		return nil, errors.Errorf("Empty result from %s", name)
	}

	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, errors.Errorf("Unexpected result type %T from %s", out[0], name)
	}

	return v, nil
}
