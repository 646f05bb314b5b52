package relay

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/executor"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/store"
)

// TransferArgs are the inputs of an outbound transfer with relay.
type TransferArgs struct {
	Payer solana.PublicKey
	Mint  solana.PublicKey
	// FromToken is the payer's token account. Unused when WrapNative is set.
	FromToken        solana.PublicKey
	Amount           uint64
	RecipientChain   uint16
	RecipientAddress [32]byte
	Nonce            uint32
	// WrapNative funds the escrow from the payer's lamports. Native path only.
	WrapNative bool

	// DstTransferRecipient receives the tokens from the bridge on the
	// destination chain; DstExecutionAddress is the contract the executor
	// calls. Zero values default to the registered foreign contract.
	DstTransferRecipient [32]byte
	DstExecutionAddress  [32]byte

	// ExecAmount lamports go to the quote's payee.
	ExecAmount        uint64
	SignedQuote       []byte
	RelayInstructions []byte
}

// TransferReceipt describes a completed outbound transfer.
type TransferReceipt struct {
	Kind      resolver.Completion
	Mint      solana.PublicKey
	Amount    uint64
	Sequence  uint64
	Message   solana.PublicKey
	Request   executor.VAAv1Request
	Execution *store.ExecutionRequest
	States    []State
}

// TransferNativeTokensWithRelay locks native tokens in the bridge and
// requests delivery of the resulting message.
func (r *Relayer) TransferNativeTokensWithRelay(ctx context.Context, args TransferArgs) (*TransferReceipt, error) {
	return r.transfer(ctx, "transfer_native", args, resolver.CompletionNative)
}

// TransferWrappedTokensWithRelay burns wrapped tokens through the bridge
// and requests delivery of the resulting message.
func (r *Relayer) TransferWrappedTokensWithRelay(ctx context.Context, args TransferArgs) (*TransferReceipt, error) {
	return r.transfer(ctx, "transfer_wrapped", args, resolver.CompletionWrapped)
}

func (r *Relayer) transfer(ctx context.Context, operation string, args TransferArgs, kind resolver.Completion) (*TransferReceipt, error) {
	var receipt *TransferReceipt
	err := r.atomic(ctx, operation, func(tx *ledger.Tx) error {
		c, err := r.validateTransfer(tx, &args, kind)
		if err != nil {
			return err
		}
		receipt, err = r.runTransfer(tx, &args, c)
		return err
	})
	if err != nil {
		return nil, err
	}

	r.metrics.Transfer(kind.String(), args.RecipientChain)
	r.metrics.ExecutionRequest(string(executor.KindVAAv1))
	r.logger.Info().
		Str("kind", kind.String()).
		Str("mint", args.Mint.String()).
		Uint64("amount", receipt.Amount).
		Uint16("recipient_chain", args.RecipientChain).
		Uint64("sequence", receipt.Sequence).
		Msg("transfer relayed")
	return receipt, nil
}

func (r *Relayer) runTransfer(tx *ledger.Tx, args *TransferArgs, c *outboundContext) (*TransferReceipt, error) {
	t := newTrace()

	if err := r.tokens.InitializeAccount(tx, args.Payer, c.tmp, args.Mint, c.config); err != nil {
		return nil, err
	}
	if c.wrapNative {
		if err := tx.TransferLamports(args.Payer, c.tmp, c.amount); err != nil {
			return nil, err
		}
		if err := r.tokens.SyncNative(tx, c.tmp); err != nil {
			return nil, err
		}
	} else {
		if err := r.tokens.TransferChecked(tx, args.FromToken, args.Mint, c.tmp, args.Payer, c.amount, c.mint.Decimals); err != nil {
			return nil, err
		}
	}
	t.enter(StateFunded)

	authority := r.deriver.AuthoritySigner()
	if err := r.tokens.Approve(tx, c.tmp, authority, c.config, c.amount); err != nil {
		return nil, err
	}
	t.enter(StateDelegated)

	bridgeArgs := bridge.TransferArgs{
		Payer:         args.Payer,
		Mint:          args.Mint,
		From:          c.tmp,
		Amount:        c.amount,
		Nonce:         args.Nonce,
		TargetAddress: c.dstRecip,
		TargetChain:   args.RecipientChain,
		Payload:       c.message,
		Sender:        r.program(),
	}
	var published *bridge.Published
	var err error
	if c.kind == resolver.CompletionNative {
		published, err = r.bridge.TransferNativeWithPayload(tx, bridgeArgs)
	} else {
		published, err = r.bridge.TransferWrappedWithPayload(tx, bridgeArgs)
	}
	if err != nil {
		return nil, err
	}
	t.enter(StateBridged)

	if err := r.tokens.CloseAccount(tx, c.tmp, args.Payer, c.config); err != nil {
		return nil, err
	}
	t.enter(StateClosed)

	emitter := r.deriver.Emitter()
	next, err := r.bridge.NextSequence(tx, emitter)
	if err != nil {
		return nil, err
	}
	request := executor.VAAv1Request{Chain: r.localChain, Address: emitter, Sequence: next - 1}
	record, err := r.executor.RequestForExecution(tx, executor.RequestForExecutionArgs{
		Payer:             args.Payer,
		Amount:            args.ExecAmount,
		DstChain:          args.RecipientChain,
		DstAddr:           c.dstExec,
		RefundAddr:        args.Payer,
		SignedQuote:       args.SignedQuote,
		RequestBytes:      request.Encode(),
		RelayInstructions: args.RelayInstructions,
	})
	if err != nil {
		return nil, err
	}

	r.logger.Debug().
		Str("tmp", c.tmp.String()).
		Stringer("state", t.current()).
		Uint64("sequence", published.Sequence).
		Msg("escrow closed")
	return &TransferReceipt{
		Kind:      c.kind,
		Mint:      args.Mint,
		Amount:    c.amount,
		Sequence:  published.Sequence,
		Message:   published.Message,
		Request:   request,
		Execution: record,
		States:    t.states,
	}, nil
}
