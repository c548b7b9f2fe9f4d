package units

import (
	"errors"
	"fmt"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"strings"
)

const EtherDecimals = 18

var (
	ErrNegativeAmount   = errors.New("amount cannot be negative")
	ErrFractionalAmount = errors.New("amount has more than 18 decimals")
	ErrAmountOverflow   = errors.New("amount overflows 256 bits")
)

// ParseEther converts a decimal ether amount ("0.1") to wei.
func ParseEther(amount string) (*uint256.Int, error) {
	return parseUnits(amount, EtherDecimals)
}

// ParseWei parses an integer amount given in decimal or 0x-prefixed hex.
func ParseWei(amount string) (*uint256.Int, error) {
	amount = strings.TrimSpace(amount)
	if strings.HasPrefix(amount, "0x") || strings.HasPrefix(amount, "0X") {
		v, err := uint256.FromHex(amount)
		if err != nil {
			return nil, fmt.Errorf("invalid hex amount %q: %w", amount, err)
		}
		return v, nil
	}

	return parseUnits(amount, 0)
}

func parseUnits(amount string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	if d.IsNegative() {
		return nil, ErrNegativeAmount
	}

	shifted := d.Shift(decimals)
	if !shifted.Equal(shifted.Truncate(0)) {
		return nil, ErrFractionalAmount
	}

	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, ErrAmountOverflow
	}

	return v, nil
}

// FormatEther renders wei as a trimmed decimal ether string.
func FormatEther(wei *uint256.Int) string {
	if wei == nil {
		return "0"
	}

	return decimal.NewFromBigInt(wei.ToBig(), -EtherDecimals).String()
}

func Ether(amount string) *uint256.Int {
	v, err := ParseEther(amount)
	if err != nil {
		panic(err)
	}

	return v
}
