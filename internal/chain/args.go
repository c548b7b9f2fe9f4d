package chain

import (
	"encoding/json"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Args are call arguments. In-process callers pass Go values; values decoded
// from JSON arrive as strings, float64 or json.Number and are converted here.
type Args []interface{}

func (a Args) get(i int) (interface{}, error) {
	if i < 0 || i >= len(a) {
		return nil, fmt.Errorf("%w: missing argument %d", ErrInvalidArgument, i)
	}

	return a[i], nil
}

func (a Args) Address(i int) (common.Address, error) {
	raw, err := a.get(i)
	if err != nil {
		return common.Address{}, err
	}

	switch v := raw.(type) {
	case common.Address:
		return v, nil
	case *common.Address:
		if v != nil {
			return *v, nil
		}
	case string:
		if common.IsHexAddress(v) {
			return common.HexToAddress(v), nil
		}
	}

	return common.Address{}, fmt.Errorf("%w: argument %d is not an address", ErrInvalidArgument, i)
}

func (a Args) Uint256(i int) (*uint256.Int, error) {
	raw, err := a.get(i)
	if err != nil {
		return nil, err
	}

	switch v := raw.(type) {
	case *uint256.Int:
		if v != nil {
			return new(uint256.Int).Set(v), nil
		}
	case uint256.Int:
		return new(uint256.Int).Set(&v), nil
	case uint64:
		return uint256.NewInt(v), nil
	case uint:
		return uint256.NewInt(uint64(v)), nil
	case int:
		if v >= 0 {
			return uint256.NewInt(uint64(v)), nil
		}
	case int64:
		if v >= 0 {
			return uint256.NewInt(uint64(v)), nil
		}
	case *big.Int:
		if v != nil && v.Sign() >= 0 {
			if u, overflow := uint256.FromBig(v); !overflow {
				return u, nil
			}
		}
	case float64:
		if v >= 0 && v == math.Trunc(v) && v < math.MaxUint64 {
			return uint256.NewInt(uint64(v)), nil
		}
	case json.Number:
		return parseUint256(string(v), i)
	case string:
		return parseUint256(v, i)
	}

	return nil, fmt.Errorf("%w: argument %d is not an unsigned integer", ErrInvalidArgument, i)
}

func parseUint256(s string, i int) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	var (
		v   *uint256.Int
		err error
	)
	if strings.HasPrefix(s, "0x") {
		v, err = uint256.FromHex(s)
	} else {
		v, err = uint256.FromDecimal(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: argument %d: %v", ErrInvalidArgument, i, err)
	}

	return v, nil
}

func (a Args) Bool(i int) (bool, error) {
	raw, err := a.get(i)
	if err != nil {
		return false, err
	}

	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
	}

	return false, fmt.Errorf("%w: argument %d is not a bool", ErrInvalidArgument, i)
}

func (a Args) String(i int) (string, error) {
	raw, err := a.get(i)
	if err != nil {
		return "", err
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}

	return "", fmt.Errorf("%w: argument %d is not a string", ErrInvalidArgument, i)
}
