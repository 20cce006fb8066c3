package chainclient

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"

	"whitelister/rewards"
)

// Registration entry points on the distribution contract
var registerMethods = map[rewards.Category]string{
	rewards.LowBugBounty:       "registerLowBugBountyUsers",
	rewards.MediumBugBounty:    "registerMediumBugBountyUsers",
	rewards.HighBugBounty:      "registerHighBugBountyUsers",
	rewards.ContractDeployment: "registerContractDeploymentUsers",
	rewards.DappUsers:          "registerDappUsers",
}

const erc20ABI = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable",
	 "inputs":[{"name":"to","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"balanceOf","stateMutability":"view",
	 "inputs":[{"name":"owner","type":"address"}],
	 "outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"approve","stateMutability":"nonpayable",
	 "inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],
	 "outputs":[{"name":"","type":"bool"}]}
]`

const distributionABI = `[
	{"type":"function","name":"registerLowBugBountyUsers","stateMutability":"nonpayable",
	 "inputs":[{"name":"_lowBugBountyUsers","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"registerMediumBugBountyUsers","stateMutability":"nonpayable",
	 "inputs":[{"name":"_mediumBugBountyUsers","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"registerHighBugBountyUsers","stateMutability":"nonpayable",
	 "inputs":[{"name":"_highBugBountyUsers","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"registerContractDeploymentUsers","stateMutability":"nonpayable",
	 "inputs":[{"name":"_contractDeploymentUsers","type":"address[]"}],"outputs":[]},
	{"type":"function","name":"registerDappUsers","stateMutability":"nonpayable",
	 "inputs":[{"name":"_dappRewardsUsers","type":"address[]"},{"name":"_userUptime","type":"bool[]"}],"outputs":[]},
	{"type":"function","name":"totalSupply","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"BUG_BOUNTY_ALLOCATION_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"LOW_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"MEDIUM_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"HIGH_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"DEVELOPER_REWARD_ALLOCATION_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"DAPP_REWARD_ALLOCATION_PERCENTAGE","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"MONTHLY_DAPP_REWARD","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"MONTHLY_UPTIME_BONUS","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]}
]`

var (
	ERC20ABI        abi.ABI
	DistributionABI abi.ABI
)

func init() {
	ERC20ABI = mustParseABI(erc20ABI)
	DistributionABI = mustParseABI(distributionABI)
}

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// RegisterMethod returns the registration entry point for a category
func RegisterMethod(category rewards.Category) (string, bool) {
	m, ok := registerMethods[category]
	return m, ok
}
