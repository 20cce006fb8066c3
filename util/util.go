package util

import (
	"encoding/hex"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
	"golang.org/x/crypto/blake2b"
)

const TOKEN_DECIMALS = 18

func CryptoGenericHash(bufferBytes []byte, watermark []byte) ([]byte, error) {

	if len(watermark) > 0 {
		bufferBytes = append(watermark, bufferBytes...)
	}

	// Generic hash of 32 bytes
	bufferBytesHashGen, err := blake2b.New(32, []byte{})
	if err != nil {
		return nil, errors.Wrap(err, "Unable create blake2b hash object")
	}

	// Write buffer bytes to hash
	if _, err = bufferBytesHashGen.Write(bufferBytes); err != nil {
		return nil, errors.Wrap(err, "Unable write buffer bytes to hash function")
	}

	return bufferBytesHashGen.Sum([]byte{}), nil
}

// RosterFingerprint identifies a category roster registered against one
// distribution contract. Address order matters and
// uptime flags are folded in index by index.
func RosterFingerprint(contract common.Address, category string, addresses []common.Address, uptime []bool) (string, error) {

	buf := make([]byte, 0, len(contract)+len(category)+len(addresses)*(common.AddressLength+1))
	buf = append(buf, contract.Bytes()...)
	buf = append(buf, []byte(category)...)

	for i, a := range addresses {
		buf = append(buf, a.Bytes()...)
		if i < len(uptime) && uptime[i] {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}

	h, err := CryptoGenericHash(buf, []byte("whitelister"))
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h), nil
}

// FormatUnits renders an amount in the smallest unit as a decimal token value
func FormatUnits(amount *big.Int, decimals int) string {

	if amount == nil {
		return "0"
	}

	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()

	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	whole := digits[:len(digits)-decimals]
	frac := strings.TrimRight(digits[len(digits)-decimals:], "0")

	s := whole
	if frac != "" {
		s += "." + frac
	}
	if neg {
		s = "-" + s
	}

	return s
}
