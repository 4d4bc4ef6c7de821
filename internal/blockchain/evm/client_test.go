// internal/blockchain/evm/client_test.go
package evm

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestToDecimal(t *testing.T) {
	wei := new(big.Int)
	wei.SetString("1500000000000000000", 10)
	if got := ToDecimal(wei, 18); got != 1.5 {
		t.Errorf("Expected 1.5 ETH, got %v", got)
	}

	if got := ToDecimal(big.NewInt(2_500_000), 6); got != 2.5 {
		t.Errorf("Expected 2.5 USDC, got %v", got)
	}

	if got := ToDecimal(nil, 18); got != 0 {
		t.Errorf("Expected 0 for nil amount, got %v", got)
	}
	if got := ToDecimal(big.NewInt(0), 6); got != 0 {
		t.Errorf("Expected 0 for zero amount, got %v", got)
	}
}

func TestFromDecimal(t *testing.T) {
	want := new(big.Int)
	want.SetString("1500000000000000000", 10)
	if got := FromDecimal(1.5, 18); got.Cmp(want) != 0 {
		t.Errorf("Expected %s wei, got %s", want, got)
	}

	if got := FromDecimal(2.5, 6); got.Cmp(big.NewInt(2_500_000)) != 0 {
		t.Errorf("Expected 2500000, got %s", got)
	}

	// Sub-resolution dust truncates rather than rounds.
	if got := FromDecimal(0.1234567, 6); got.Cmp(big.NewInt(123_456)) != 0 {
		t.Errorf("Expected truncation to 123456, got %s", got)
	}
}

func TestConversionRoundtrip(t *testing.T) {
	raw := new(big.Int)
	raw.SetString("2000000000000000000", 10)

	back := FromDecimal(ToDecimal(raw, 18), 18)
	if back.Cmp(raw) != 0 {
		t.Errorf("Expected roundtrip to preserve %s, got %s", raw, back)
	}
}

// Selector constants are fixed by the contract surface; a wrong ABI string
// would produce calldata every router rejects.
func TestABISelectors(t *testing.T) {
	path := []common.Address{
		common.HexToAddress("0x7ceB23fD6bC0adD59E62ac25578270cFf1b9f619"),
		common.HexToAddress("0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"),
	}
	data, err := routerABI.Pack("getAmountsOut", big.NewInt(1), path)
	if err != nil {
		t.Fatalf("Failed to pack getAmountsOut: %v", err)
	}
	if got := hex.EncodeToString(data[:4]); got != "d06ca61f" {
		t.Errorf("Expected getAmountsOut selector d06ca61f, got %s", got)
	}

	cases := map[string]string{
		"balanceOf": "70a08231",
		"decimals":  "313ce567",
		"symbol":    "95d89b41",
	}
	for method, selector := range cases {
		var data []byte
		var err error
		if method == "balanceOf" {
			data, err = erc20ABI.Pack(method, common.Address{})
		} else {
			data, err = erc20ABI.Pack(method)
		}
		if err != nil {
			t.Fatalf("Failed to pack %s: %v", method, err)
		}
		if got := hex.EncodeToString(data[:4]); got != selector {
			t.Errorf("Expected %s selector %s, got %s", method, selector, got)
		}
	}
}

func TestDecimalsUnpack(t *testing.T) {
	// uint8 return value is right-aligned in a single 32-byte word.
	word := make([]byte, 32)
	word[31] = 18

	unpacked, err := erc20ABI.Unpack("decimals", word)
	if err != nil {
		t.Fatalf("Failed to unpack decimals: %v", err)
	}
	if n, ok := unpacked[0].(uint8); !ok || n != 18 {
		t.Errorf("Expected uint8 18, got %T %v", unpacked[0], unpacked[0])
	}
}
