package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/MattPereira/swapcli/internal/erc20"
)

// ApproveService manages ERC-20 allowances for the signer account.
type ApproveService struct {
	caller *erc20.Caller
	signer *Signer
	fees   *FeeService
	send   *SendService
}

func NewApproveService(client NodeClient, signer *Signer, fees *FeeService, send *SendService) *ApproveService {
	return &ApproveService{
		caller: erc20.NewCaller(client),
		signer: signer,
		fees:   fees,
		send:   send,
	}
}

// EnsureAllowance authorizes spender for amount of the token, skipping the
// approval transaction when the current allowance already covers it. The
// approval is mined before returning; it is not revoked if a later step of
// the run fails.
func (a *ApproveService) EnsureAllowance(
	ctx context.Context,
	tokenAddr, spender common.Address,
	amount *big.Int,
) error {
	owner := a.signer.Address()

	current, err := a.caller.Allowance(ctx, tokenAddr, owner, spender)
	if err != nil {
		return fmt.Errorf("failed to check allowance: %w", err)
	}
	if current.Cmp(amount) >= 0 {
		return nil
	}

	data, err := erc20.PackApprove(spender, amount)
	if err != nil {
		return err
	}

	fees, err := a.fees.Suggest(ctx)
	if err != nil {
		return err
	}

	txHash, err := a.send.Send(ctx, tokenAddr, big.NewInt(0), data, fees, 0)
	if err != nil {
		return fmt.Errorf("failed to send approval: %w", err)
	}

	receipt, err := a.send.WaitMined(ctx, txHash)
	if err != nil {
		return fmt.Errorf("failed waiting for approval %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("approval transaction %s reverted", txHash.Hex())
	}
	return nil
}
