// internal/blockchain/evm/abi.go
package evm

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// Minimal ABI fragments for the contract calls the scanner issues. Routers
// across the supported venues share the Uniswap V2 surface.
const (
	RouterV2ABI = `[
		{"constant":true,"inputs":[{"internalType":"uint256","name":"amountIn","type":"uint256"},{"internalType":"address[]","name":"path","type":"address[]"}],"name":"getAmountsOut","outputs":[{"internalType":"uint256[]","name":"amounts","type":"uint256[]"}],"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[],"name":"factory","outputs":[{"name":"","type":"address"}],"payable":false,"stateMutability":"view","type":"function"}
	]`

	ERC20ABI = `[
		{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"payable":false,"stateMutability":"view","type":"function"},
		{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"payable":false,"stateMutability":"view","type":"function"}
	]`
)

var (
	routerABI abi.ABI
	erc20ABI  abi.ABI
)

func init() {
	var err error
	routerABI, err = abi.JSON(strings.NewReader(RouterV2ABI))
	if err != nil {
		panic("evm: invalid router ABI: " + err.Error())
	}
	erc20ABI, err = abi.JSON(strings.NewReader(ERC20ABI))
	if err != nil {
		panic("evm: invalid erc20 ABI: " + err.Error())
	}
}
