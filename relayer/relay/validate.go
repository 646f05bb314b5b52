package relay

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/amount"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/bridge"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/token"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/tokenbridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

// expect fails unless an account is at its derived address.
func expect(name string, got, want solana.PublicKey) error {
	if got != want {
		return tbrerrors.NewValidationError("", fmt.Sprintf("%s: got %s, want %s", name, got, want)).
			WithContext("account", name)
	}
	return nil
}

// outboundContext is a transfer whose accounts and amounts have been checked.
type outboundContext struct {
	kind       resolver.Completion
	config     solana.PublicKey
	mint       *token.Mint
	tmp        solana.PublicKey
	amount     uint64 // bridged amount, truncated on the native path
	dstRecip   [32]byte
	dstExec    [32]byte
	message    []byte
	wrapNative bool
}

// validateTransfer checks the inputs shared by both outbound paths.
func (r *Relayer) validateTransfer(tx *ledger.Tx, args *TransferArgs, kind resolver.Completion) (*outboundContext, error) {
	config, _ := r.deriver.SenderConfig()
	if _, err := state.Load(tx, config, r.program(), state.DecodeSenderConfig); err != nil {
		return nil, err
	}
	if args.WrapNative && kind == resolver.CompletionWrapped {
		return nil, tbrerrors.NewNativeMintRequiredError(args.Mint.String())
	}
	if args.WrapNative && args.Mint != pda.NativeMint {
		return nil, tbrerrors.NewNativeMintRequiredError(args.Mint.String())
	}

	mint, err := r.tokens.GetMint(tx, args.Mint)
	if err != nil {
		return nil, err
	}
	c := &outboundContext{
		kind:       kind,
		config:     config,
		mint:       mint,
		tmp:        r.deriver.Tmp(args.Mint),
		amount:     args.Amount,
		wrapNative: args.WrapNative,
	}
	if kind == resolver.CompletionNative {
		c.amount = amount.Truncate(args.Amount, mint.Decimals)
	}
	if c.amount == 0 {
		return nil, tbrerrors.NewZeroBridgeAmountError(args.Amount, mint.Decimals)
	}

	if !r.validForeignAddress(args.RecipientChain, args.RecipientAddress) {
		return nil, tbrerrors.NewInvalidRecipientError(
			fmt.Sprintf("recipient %x on chain %d is not a valid foreign address", args.RecipientAddress, args.RecipientChain))
	}
	c.message = tokenbridge.RelayerMessage{Recipient: args.RecipientAddress}.Encode()

	if err := r.resolveDestination(tx, args, c); err != nil {
		return nil, err
	}

	exists, err := tx.Exists(c.tmp)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, tbrerrors.NewValidationError("", "escrow account in use: "+c.tmp.String())
	}

	if !args.WrapNative {
		from, err := r.tokens.GetAccount(tx, args.FromToken)
		if err != nil {
			return nil, err
		}
		if from.Mint != args.Mint {
			return nil, tbrerrors.NewValidationError("", "source token account holds another mint")
		}
		if from.Owner != args.Payer {
			return nil, tbrerrors.NewValidationError("", "source token account is not owned by the payer")
		}
	}
	return c, nil
}

// resolveDestination fills zero destination addresses from the registered
// foreign contract.
func (r *Relayer) resolveDestination(tx *ledger.Tx, args *TransferArgs, c *outboundContext) error {
	c.dstRecip, c.dstExec = args.DstTransferRecipient, args.DstExecutionAddress
	if c.dstRecip != [32]byte{} && c.dstExec != [32]byte{} {
		return nil
	}
	contract, err := r.registry.LookupForeignContract(tx, args.RecipientChain)
	if err != nil {
		return err
	}
	if contract == nil {
		return tbrerrors.NewInvalidRecipientError(
			fmt.Sprintf("no destination given and chain %d has no registered contract", args.RecipientChain))
	}
	if c.dstRecip == [32]byte{} {
		c.dstRecip = contract.Address
	}
	if c.dstExec == [32]byte{} {
		c.dstExec = contract.Address
	}
	return nil
}

// CompleteAccounts are the accounts of a completion call in call order.
// WrappedMeta and MintAuthority are used only by wrapped completions;
// Custody and CustodySigner only by native ones.
type CompleteAccounts struct {
	Payer                 solana.PublicKey
	Config                solana.PublicKey
	Mint                  solana.PublicKey
	RecipientTokenAccount solana.PublicKey
	Recipient             solana.PublicKey
	Tmp                   solana.PublicKey
	WrappedMeta           solana.PublicKey
	TokenBridgeConfig     solana.PublicKey
	PostedVAA             solana.PublicKey
	Claim                 solana.PublicKey
	ForeignEndpoint       solana.PublicKey
	Custody               solana.PublicKey
	CustodySigner         solana.PublicKey
	MintAuthority         solana.PublicKey

	CoreBridgeProgram      solana.PublicKey
	TokenBridgeProgram     solana.PublicKey
	TokenProgram           solana.PublicKey
	AssociatedTokenProgram solana.PublicKey
	SystemProgram          solana.PublicKey
	Rent                   solana.PublicKey
}

// inboundContext is a completion whose accounts have been checked.
type inboundContext struct {
	kind      resolver.Completion
	accounts  CompleteAccounts
	hash      common.Hash
	posted    *bridge.Posted
	transfer  tokenbridge.TransferWithMessage
	mint      *token.Mint
	recipient solana.PublicKey
}

func (c *inboundContext) unwrap() bool { return c.accounts.Mint == pda.NativeMint }

// validateComplete checks a completion before any write. Checks follow
// the order the program applies them so the first failure matches.
func (r *Relayer) validateComplete(tx *ledger.Tx, a CompleteAccounts, hash common.Hash, kind resolver.Completion) (*inboundContext, error) {
	programs := r.deriver.Programs()
	config, _ := r.deriver.RedeemerConfig()
	if err := expect("config", a.Config, config); err != nil {
		return nil, err
	}
	if _, err := state.Load(tx, config, r.program(), state.DecodeRedeemerConfig); err != nil {
		return nil, err
	}

	fixed := []struct {
		name      string
		got, want solana.PublicKey
	}{
		{"token_bridge_config", a.TokenBridgeConfig, r.deriver.TokenBridgeConfig()},
		{"vaa", a.PostedVAA, r.deriver.PostedVAA(hash)},
		{"wormhole_program", a.CoreBridgeProgram, programs.CoreBridge},
		{"token_bridge_program", a.TokenBridgeProgram, programs.TokenBridge},
		{"token_program", a.TokenProgram, r.tokens.ID()},
		{"associated_token_program", a.AssociatedTokenProgram, pda.AssociatedTokenProgramID},
		{"system_program", a.SystemProgram, solana.SystemProgramID},
		{"rent", a.Rent, pda.RentSysvarID},
	}
	for _, f := range fixed {
		if err := expect(f.name, f.got, f.want); err != nil {
			return nil, err
		}
	}

	posted, err := r.bridge.PostedVAA(tx, a.PostedVAA)
	if err != nil {
		return nil, err
	}
	if vaa.Hash(posted.Body()) != hash {
		return nil, tbrerrors.NewValidationError("", "posted message does not match the hash")
	}
	twm, err := tokenbridge.ParseTransferWithMessagePayload(posted.Payload)
	if err != nil {
		return nil, err
	}
	msg, err := tokenbridge.ParseRelayerMessage(twm.Payload())
	if err != nil {
		return nil, err
	}

	native := twm.TokenChain() == r.localChain
	switch {
	case kind == resolver.CompletionNative && !native:
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(), "token is not native to this chain")
	case kind == resolver.CompletionWrapped && native:
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(), "token is native to this chain")
	}
	if solana.PublicKey(twm.Redeemer()) != programs.Relayer {
		return nil, tbrerrors.NewInvalidTransferToAddressError("transfer is redeemable by " + solana.PublicKey(twm.Redeemer()).String())
	}
	if twm.RedeemerChain() != r.localChain {
		return nil, tbrerrors.NewInvalidTransferToChainError(twm.RedeemerChain())
	}

	recipient := solana.PublicKey(msg.Recipient)
	if a.Recipient != recipient {
		return nil, tbrerrors.NewInvalidRecipientError(
			fmt.Sprintf("recipient %s does not match message recipient %s", a.Recipient, recipient))
	}

	claim := r.deriver.Claim(posted.EmitterAddress, posted.EmitterChain, posted.Sequence)
	if err := expect("token_bridge_claim", a.Claim, claim); err != nil {
		return nil, err
	}
	claimed, err := r.bridge.IsClaimed(tx, posted.EmitterChain, posted.EmitterAddress, posted.Sequence)
	if err != nil {
		return nil, err
	}
	if claimed {
		return nil, tbrerrors.NewAlreadyRedeemedError(claim.String())
	}
	endpoint := r.deriver.ForeignEndpoint(posted.EmitterChain, posted.EmitterAddress)
	if err := expect("token_bridge_foreign_endpoint", a.ForeignEndpoint, endpoint); err != nil {
		return nil, err
	}

	var wantMint solana.PublicKey
	if native {
		wantMint = solana.PublicKey(twm.TokenAddress())
	} else {
		wantMint = r.deriver.WrappedMint(twm.TokenChain(), twm.TokenAddress())
	}
	if err := expect("mint", a.Mint, wantMint); err != nil {
		return nil, err
	}
	if native {
		if err := expect("token_bridge_custody", a.Custody, r.deriver.Custody(a.Mint)); err != nil {
			return nil, err
		}
		if err := expect("token_bridge_custody_signer", a.CustodySigner, r.deriver.CustodySigner()); err != nil {
			return nil, err
		}
	} else {
		if err := expect("token_bridge_wrapped_meta", a.WrappedMeta, r.deriver.WrappedMeta(a.Mint)); err != nil {
			return nil, err
		}
		if err := expect("token_bridge_mint_authority", a.MintAuthority, r.deriver.MintAuthority()); err != nil {
			return nil, err
		}
		if _, err := r.bridge.WrappedMeta(tx, a.Mint); err != nil {
			return nil, err
		}
	}
	mint, err := r.tokens.GetMint(tx, a.Mint)
	if err != nil {
		return nil, err
	}

	if err := expect("tmp_token_account", a.Tmp, r.deriver.Tmp(a.Mint)); err != nil {
		return nil, err
	}
	ata := pda.AssociatedTokenAccount(recipient, r.tokens.ID(), a.Mint)
	if err := expect("recipient_token_account", a.RecipientTokenAccount, ata); err != nil {
		return nil, err
	}

	if kind == resolver.CompletionAuto {
		kind = resolver.CompletionWrapped
		if native {
			kind = resolver.CompletionNative
		}
	}
	return &inboundContext{
		kind:      kind,
		accounts:  a,
		hash:      hash,
		posted:    posted,
		transfer:  twm,
		mint:      mint,
		recipient: recipient,
	}, nil
}
