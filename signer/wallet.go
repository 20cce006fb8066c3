package signer

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"

	log "github.com/sirupsen/logrus"
)

var (
	ErrNoSecretKey = errors.New("No wallet secret key found")
)

// WalletSigner holds one software wallet loaded from a hex secret key
type WalletSigner struct {
	Name    string
	Address common.Address

	sk *ecdsa.PrivateKey
}

// NewWalletSigner imports a hex secret key. When expected is non-empty, the
// derived address must match it.
func NewWalletSigner(name, hexKey, expected string) (*WalletSigner, error) {

	if hexKey == "" {
		return nil, errors.Wrap(ErrNoSecretKey, name)
	}

	sk, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to load %s wallet from secret key", name)
	}

	w := &WalletSigner{
		Name:    name,
		Address: crypto.PubkeyToAddress(sk.PublicKey),
		sk:      sk,
	}

	if expected != "" && common.HexToAddress(expected) != w.Address {
		return nil, errors.Errorf("%s wallet key derives %s, config says %s", name, w.Address.Hex(), expected)
	}

	log.WithFields(log.Fields{
		"Wallet": name, "Address": w.Address.Hex(),
	}).Info("Loaded software wallet")

	return w, nil
}

// Transactor returns signing options bound to chainID for submitting transactions
func (w *WalletSigner) Transactor(chainID *big.Int) (*bind.TransactOpts, error) {

	opts, err := bind.NewKeyedTransactorWithChainID(w.sk, chainID)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to create transactor for %s wallet", w.Name)
	}

	return opts, nil
}
