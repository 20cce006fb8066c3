package util

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	NETWORK_MAINNET   = "mainnet"
	NETWORK_SEPOLIA   = "sepolia"
	NETWORK_HOLESKY   = "holesky"
	NETWORK_LOCALHOST = "localhost"
)

type NetworkConstants struct {
	ChainID   int64
	BlockTime int // seconds
}

var networkConstants = map[string]NetworkConstants{
	NETWORK_MAINNET:   {1, 12},
	NETWORK_SEPOLIA:   {11155111, 12},
	NETWORK_HOLESKY:   {17000, 12},
	NETWORK_LOCALHOST: {31337, 1}, // hardhat / anvil
}

func GetNetworkConstants(network string) (*NetworkConstants, error) {

	c, ok := networkConstants[network]
	if !ok {
		return nil, errors.Errorf("No such network '%s' exists", network)
	}

	return &c, nil
}

func IsValidNetwork(maybeNetwork string) bool {
	_, ok := networkConstants[maybeNetwork]
	return ok
}

func AvailableNetworks() string {
	names := make([]string, 0, len(networkConstants))
	for n := range networkConstants {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
