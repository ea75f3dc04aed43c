package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// ErrMissingFeeData signals that the node could not supply EIP-1559 fee
// parameters. Nothing is submitted without them.
var ErrMissingFeeData = errors.New("fee data unavailable")

// Fees are the EIP-1559 parameters attached to every transaction.
type Fees struct {
	MaxFeePerGas         *big.Int
	MaxPriorityFeePerGas *big.Int
}

// FeeService derives fee parameters from the connected node.
type FeeService struct {
	client NodeClient
}

func NewFeeService(client NodeClient) *FeeService {
	return &FeeService{client: client}
}

// Suggest queries the tip cap and latest base fee and returns
// maxFee = 2*baseFee + tip, keeping headroom against base-fee drift.
func (f *FeeService) Suggest(ctx context.Context) (Fees, error) {
	tip, err := f.client.SuggestGasTipCap(ctx)
	if err != nil {
		return Fees{}, fmt.Errorf("%w: %v", ErrMissingFeeData, err)
	}
	if tip == nil {
		return Fees{}, fmt.Errorf("%w: node returned no tip cap", ErrMissingFeeData)
	}

	head, err := f.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return Fees{}, fmt.Errorf("%w: %v", ErrMissingFeeData, err)
	}
	if head.BaseFee == nil {
		return Fees{}, fmt.Errorf("%w: chain has no base fee", ErrMissingFeeData)
	}

	maxFee := new(big.Int).Add(new(big.Int).Mul(head.BaseFee, big.NewInt(2)), tip)
	return Fees{
		MaxFeePerGas:         maxFee,
		MaxPriorityFeePerGas: tip,
	}, nil
}
