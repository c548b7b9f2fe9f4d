package entity

import (
	"errors"
	"fmt"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"strconv"
)

type Params []Param

var (
	ErrParamNotFound = errors.New("param not found")
)

// Param is a single named event argument. Values are kept in their canonical
// string form (hex addresses, decimal amounts) so logs survive a JSON round trip.
type Param struct {
	VName string `json:"vname"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

func AddressParam(name string, addr common.Address) Param {
	return Param{VName: name, Type: "address", Value: addr.Hex()}
}

func UintParam(name string, v *uint256.Int) Param {
	return Param{VName: name, Type: "uint256", Value: v.Dec()}
}

func BoolParam(name string, v bool) Param {
	return Param{VName: name, Type: "bool", Value: strconv.FormatBool(v)}
}

func (p Param) Address() (common.Address, error) {
	if !common.IsHexAddress(p.Value) {
		return common.Address{}, fmt.Errorf("param %s: %q is not an address", p.VName, p.Value)
	}

	return common.HexToAddress(p.Value), nil
}

func (p Param) Uint256() (*uint256.Int, error) {
	v, err := uint256.FromDecimal(p.Value)
	if err != nil {
		return nil, fmt.Errorf("param %s: %w", p.VName, err)
	}

	return v, nil
}

func (p Param) Uint64() (uint64, error) {
	return strconv.ParseUint(p.Value, 10, 64)
}

func (p Params) GetParam(vName string) (Param, error) {
	for _, param := range p {
		if param.VName == vName {
			return param, nil
		}
	}

	return Param{}, fmt.Errorf("%w: %s", ErrParamNotFound, vName)
}

func (p Params) HasParam(vName string) bool {
	_, err := p.GetParam(vName)
	return err == nil
}
