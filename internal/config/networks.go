// =================================
// File: internal/config/networks.go
// =================================
package config

// defaultChains is the built-in catalog of supported networks: public RPC
// endpoints, V2-style router addresses per venue, and the token sets those
// venues trade. A config file overrides per field; everything here works
// without one.
var defaultChains = map[string]ChainConfig{
	"ethereum": {
		RPCEndpoints: []string{
			"https://eth.public-rpc.com",
			"https://rpc.ankr.com/eth",
			"https://cloudflare-eth.com",
			"https://ethereum.publicnode.com",
		},
		Venues: map[string]string{
			"Uniswap":   "0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D",
			"SushiSwap": "0xd9e1cE17f2641f24aE83637ab66a2cca9C378B9F",
		},
		Tokens: map[string]Token{
			"ETH":  {Address: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Decimals: 18}, // WETH
			"USDT": {Address: "0xdAC17F958D2ee523a2206206994597C13D831ec7", Decimals: 6},
			"USDC": {Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6},
			"DAI":  {Address: "0x6B175474E89094C44Da98b954EedeAC495271d0F", Decimals: 18},
			"WBTC": {Address: "0x2260FAC5E5542a773Aa44fBCfeDf7C193bc2C599", Decimals: 8},
			"LINK": {Address: "0x514910771AF9Ca656af840dff83E8264EcF986CA", Decimals: 18},
			"UNI":  {Address: "0x1f9840a85d5aF5bf1D1762F925BDADdC4201F984", Decimals: 18},
			"AAVE": {Address: "0x7Fc66500c84A76Ad7e9c93437bFc5Ac33E2DDaE9", Decimals: 18},
		},
		Triangles:        [][]string{{"ETH", "USDT", "WBTC"}, {"ETH", "USDT", "DAI"}},
		NativeToken:      "ETH",
		NativePriceUSD:   3000,
		DefaultGasGwei:   20,
		BlockTimeSeconds: 12,
	},
	"bsc": {
		RPCEndpoints: []string{
			"https://bsc.public-rpc.com",
			"https://rpc.ankr.com/bsc",
			"https://bsc-dataseed.binance.org",
			"https://bsc.publicnode.com",
		},
		Venues: map[string]string{
			"PancakeSwap": "0x10ED43C718714eb63d5aA57B78B54704E256024E",
			"Biswap":      "0x3a6d8cA21D1CF76F653A67577FA0D27453350dD8",
			"ApeSwap":     "0xcF0feBd3f17CEf5b47b0cD257aCf6025c5BFf3b7",
		},
		Tokens: map[string]Token{
			"BNB":  {Address: "0xbb4CdB9CBd36B01bD1cBaEF60aF814a3f6F0Ee75", Decimals: 18}, // WBNB
			"USDT": {Address: "0x55d398326f99059fF775485246999027B3197955", Decimals: 18},
			"ETH":  {Address: "0x2170Ed0880ac9A755fd29B2688956BD959F933F8", Decimals: 18},
			"WBTC": {Address: "0x7130d2A12B9BCbFAe4f2634d864A1Ee1Ce3Ead9c", Decimals: 18}, // BTCB
			"LINK": {Address: "0xF8A0BF9cF54Bb92F17374d9e9A321E6a111a51bD", Decimals: 18},
		},
		Triangles:        [][]string{{"BNB", "USDT", "ETH"}, {"BNB", "USDT", "WBTC"}},
		NativeToken:      "BNB",
		NativePriceUSD:   600,
		DefaultGasGwei:   3,
		BlockTimeSeconds: 3,
	},
	"polygon": {
		RPCEndpoints: []string{
			"https://polygon-rpc.com",
			"https://rpc.ankr.com/polygon",
			"https://polygon.publicnode.com",
		},
		Venues: map[string]string{
			"QuickSwap": "0xa5E0829CaCEd8fFDD4De3c43696c57F7D7A678ff",
			"SushiSwap": "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506",
		},
		Tokens: map[string]Token{
			"MATIC": {Address: "0x0d500B1d8E8eF31E21C99d1Db9A6444d3ADf1270", Decimals: 18}, // WMATIC
			"USDT":  {Address: "0xc2132D05D31c914a87C6611C10748AEb04B58e8F", Decimals: 6},
			"ETH":   {Address: "0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619", Decimals: 18},
			"WBTC":  {Address: "0x1BFD67037B42Cf73acF2047067bd4F2C47D9BfD6", Decimals: 8},
		},
		Triangles:        [][]string{{"MATIC", "USDT", "ETH"}},
		NativeToken:      "MATIC",
		NativePriceUSD:   1.2,
		DefaultGasGwei:   50,
		BlockTimeSeconds: 2,
	},
	"arbitrum": {
		RPCEndpoints: []string{
			"https://arb1.arbitrum.io/rpc",
			"https://rpc.ankr.com/arbitrum",
			"https://arbitrum.publicnode.com",
		},
		Venues: map[string]string{
			"SushiSwap": "0x1b02dA8Cb0d097eB8D57A175b88c7D8b47997506",
			"Camelot":   "0xc873fEcbd354f5A56E00E710B90EF4201db2448d",
		},
		Tokens: map[string]Token{
			"ETH":  {Address: "0x82aF49447D8a07e3bd95BD0d56f35241523fBab1", Decimals: 18}, // WETH
			"USDT": {Address: "0xFd086bC7CD5C481DCC9C85ebE478A1C0b69FCbb9", Decimals: 6},
			"WBTC": {Address: "0x2f2a2543B76A4166549F7aaB2e75Bef0aefC5B0f", Decimals: 8},
		},
		Triangles:        [][]string{{"ETH", "USDT", "WBTC"}},
		NativeToken:      "ETH",
		NativePriceUSD:   3000,
		DefaultGasGwei:   0.1,
		BlockTimeSeconds: 0.25,
	},
	"base": {
		RPCEndpoints: []string{
			"https://mainnet.base.org",
			"https://base.publicnode.com",
			"https://rpc.ankr.com/base",
		},
		Venues: map[string]string{
			"BaseSwap": "0x327Df1E6de05895d2ab08513aaDD9313Fe505d86",
		},
		Tokens: map[string]Token{
			"ETH":  {Address: "0x4200000000000000000000000000000000000006", Decimals: 18}, // WETH
			"USDC": {Address: "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913", Decimals: 6},
			"DAI":  {Address: "0x50c5725949A6F0c72E6C4a641F24049A917DB0Cb", Decimals: 18},
		},
		Triangles:        [][]string{{"ETH", "USDC", "DAI"}},
		NativeToken:      "ETH",
		NativePriceUSD:   3000,
		DefaultGasGwei:   0.05,
		BlockTimeSeconds: 2,
	},
}

// SupportedNetworks lists the networks present in the built-in catalog.
func SupportedNetworks() []string {
	return []string{"ethereum", "bsc", "polygon", "arbitrum", "base"}
}
