package relay

import (
	"bytes"
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// completeAccountCount is the length of both completion account lists.
const completeAccountCount = 18

// RedeemReceipt describes a completed inbound transfer.
type RedeemReceipt struct {
	Kind       resolver.Completion
	VAAHash    common.Hash
	Mint       solana.PublicKey
	Recipient  solana.PublicKey
	Amount     uint64
	Unwrapped  bool
	Redemption *store.Redemption
	States     []State
}

// AccountsFromInstruction maps a completion call built by the resolver to
// its accounts and returns the completion kind and VAA hash from its data.
// Placeholder keys are replaced by payer and the derived posted VAA.
func (r *Relayer) AccountsFromInstruction(ix *resolver.Instruction, payer solana.PublicKey) (CompleteAccounts, resolver.Completion, common.Hash, error) {
	var a CompleteAccounts
	var hash common.Hash
	if ix.ProgramID != r.program() {
		return a, 0, hash, tbrerrors.NewValidationError("", "call is for program "+ix.ProgramID.String())
	}
	if len(ix.Data) != 8+32 {
		return a, 0, hash, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("completion data must be 40 bytes, got %d", len(ix.Data)), nil)
	}
	var kind resolver.Completion
	switch {
	case bytes.Equal(ix.Data[:8], resolver.CompleteNativeDiscriminator[:]):
		kind = resolver.CompletionNative
	case bytes.Equal(ix.Data[:8], resolver.CompleteWrappedDiscriminator[:]):
		kind = resolver.CompletionWrapped
	default:
		return a, 0, hash, tbrerrors.NewMalformedMessageError("unknown completion discriminator", nil)
	}
	copy(hash[:], ix.Data[8:])

	if len(ix.Accounts) != completeAccountCount {
		return a, 0, hash, tbrerrors.NewValidationError("",
			fmt.Sprintf("completion needs %d accounts, got %d", completeAccountCount, len(ix.Accounts)))
	}
	keys := make([]solana.PublicKey, len(ix.Accounts))
	for i, meta := range ix.Accounts {
		switch meta.PublicKey {
		case resolver.PayerPlaceholder:
			keys[i] = payer
		case resolver.PostedVAAPlaceholder:
			keys[i] = r.deriver.PostedVAA(hash)
		default:
			keys[i] = meta.PublicKey
		}
	}

	a.Payer, a.Config, a.Mint = keys[0], keys[1], keys[2]
	a.RecipientTokenAccount, a.Recipient, a.Tmp = keys[3], keys[4], keys[5]
	if kind == resolver.CompletionNative {
		a.TokenBridgeConfig, a.PostedVAA, a.Claim = keys[6], keys[7], keys[8]
		a.ForeignEndpoint, a.Custody, a.CustodySigner = keys[9], keys[10], keys[11]
	} else {
		a.WrappedMeta, a.TokenBridgeConfig, a.PostedVAA = keys[6], keys[7], keys[8]
		a.Claim, a.ForeignEndpoint, a.MintAuthority = keys[9], keys[10], keys[11]
	}
	a.CoreBridgeProgram, a.TokenBridgeProgram, a.TokenProgram = keys[12], keys[13], keys[14]
	a.AssociatedTokenProgram, a.SystemProgram, a.Rent = keys[15], keys[16], keys[17]
	return a, kind, hash, nil
}

// Execute runs a completion call as the resolver built it, paid by payer.
func (r *Relayer) Execute(ctx context.Context, payer solana.PublicKey, ix *resolver.Instruction) (*RedeemReceipt, error) {
	accounts, kind, hash, err := r.AccountsFromInstruction(ix, payer)
	if err != nil {
		return nil, err
	}
	if kind == resolver.CompletionNative {
		return r.CompleteNativeTransferWithRelay(ctx, accounts, hash)
	}
	return r.CompleteWrappedTransferWithRelay(ctx, accounts, hash)
}

// CompleteNativeTransferWithRelay redeems a transfer of a token native to
// this chain and pays the message recipient.
func (r *Relayer) CompleteNativeTransferWithRelay(ctx context.Context, accounts CompleteAccounts, hash common.Hash) (*RedeemReceipt, error) {
	return r.complete(ctx, "complete_native", accounts, hash, resolver.CompletionNative)
}

// CompleteWrappedTransferWithRelay redeems a transfer of a foreign token
// and pays the message recipient in its wrapped mint.
func (r *Relayer) CompleteWrappedTransferWithRelay(ctx context.Context, accounts CompleteAccounts, hash common.Hash) (*RedeemReceipt, error) {
	return r.complete(ctx, "complete_wrapped", accounts, hash, resolver.CompletionWrapped)
}

func (r *Relayer) complete(ctx context.Context, operation string, accounts CompleteAccounts, hash common.Hash, kind resolver.Completion) (*RedeemReceipt, error) {
	var receipt *RedeemReceipt
	err := r.atomic(ctx, operation, func(tx *ledger.Tx) error {
		c, err := r.validateComplete(tx, accounts, hash, kind)
		if err != nil {
			return err
		}
		receipt, err = r.runComplete(tx, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.metrics.Redemption(kind.String(), receipt.Redemption.EmitterChain)
	r.logger.Info().
		Str("kind", kind.String()).
		Str("hash", hash.Hex()).
		Str("recipient", receipt.Recipient.String()).
		Uint64("amount", receipt.Amount).
		Bool("unwrapped", receipt.Unwrapped).
		Msg("transfer redeemed")
	return receipt, nil
}

func (r *Relayer) runComplete(tx *ledger.Tx, c *inboundContext) (*RedeemReceipt, error) {
	a := c.accounts
	t := newTrace()

	if err := r.tokens.InitializeAccount(tx, a.Payer, a.Tmp, a.Mint, a.Config); err != nil {
		return nil, err
	}
	completeArgs := bridge.CompleteArgs{
		Payer:     a.Payer,
		PostedVAA: a.PostedVAA,
		Mint:      a.Mint,
		To:        a.Tmp,
		Redeemer:  a.Config,
	}
	var done *bridge.Completed
	var err error
	if c.kind == resolver.CompletionNative {
		done, err = r.bridge.CompleteNativeWithPayload(tx, completeArgs)
	} else {
		done, err = r.bridge.CompleteWrappedWithPayload(tx, completeArgs)
	}
	if err != nil {
		return nil, err
	}
	t.enter(StateClaimed)

	if _, err := r.tokens.CreateAssociatedAccount(tx, a.Payer, c.recipient, a.Mint); err != nil {
		return nil, err
	}

	unwrap := c.unwrap()
	if unwrap {
		// closing a native escrow pays its lamports out directly
		if err := r.tokens.CloseAccount(tx, a.Tmp, c.recipient, a.Config); err != nil {
			return nil, err
		}
		t.enter(StatePayout)
		t.enter(StateClosed)
	} else {
		if err := r.tokens.TransferChecked(tx, a.Tmp, a.Mint, a.RecipientTokenAccount, a.Config, done.Amount, c.mint.Decimals); err != nil {
			return nil, err
		}
		t.enter(StatePayout)
		if err := r.tokens.CloseAccount(tx, a.Tmp, a.Payer, a.Config); err != nil {
			return nil, err
		}
		t.enter(StateClosed)
	}

	record := &store.Redemption{
		VAAHash:        c.hash.Hex(),
		EmitterChain:   c.posted.EmitterChain,
		EmitterAddress: common.Bytes2Hex(c.posted.EmitterAddress[:]),
		Sequence:       c.posted.Sequence,
		Mint:           a.Mint.String(),
		Recipient:      c.recipient.String(),
		Amount:         done.Amount,
		Native:         c.kind == resolver.CompletionNative,
		Unwrapped:      unwrap,
	}
	if err := tx.DB().Create(record).Error; err != nil {
		return nil, tbrerrors.NewDatabaseError("", "failed to record redemption", err)
	}

	return &RedeemReceipt{
		Kind:       c.kind,
		VAAHash:    c.hash,
		Mint:       a.Mint,
		Recipient:  c.recipient,
		Amount:     done.Amount,
		Unwrapped:  unwrap,
		Redemption: record,
		States:     t.states,
	}, nil
}

// Redemptions lists recorded redemptions, newest first.
func (r *Relayer) Redemptions(ctx context.Context, limit int) ([]store.Redemption, error) {
	var out []store.Redemption
	q := r.store.DB().Client().WithContext(ctx).Order("id desc")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, tbrerrors.NewDatabaseError("", "failed to list redemptions", err)
	}
	return out, nil
}
