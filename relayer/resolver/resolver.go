// Package resolver turns a VAA body into the completion call that redeems
// it through the relayer program. Execute returns the call directly;
// Resolve implements the two-phase protocol where the caller supplies
// accounts until nothing is missing.
package resolver

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/tokenbridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

// Placeholder keys the executor substitutes before submitting a resolved
// call. Execute uses the payer placeholder with the derived posted VAA.
var (
	PayerPlaceholder     = solana.PublicKeyFromBytes([]byte("payer000000000000000000000000000"))
	PostedVAAPlaceholder = solana.PublicKeyFromBytes([]byte("posted_vaa0000000000000000000000"))
)

// Completion names the completion instruction a caller intends to run.
type Completion uint8

const (
	CompletionAuto Completion = iota
	CompletionNative
	CompletionWrapped
)

func (c Completion) String() string {
	switch c {
	case CompletionNative:
		return "native"
	case CompletionWrapped:
		return "wrapped"
	default:
		return "auto"
	}
}

// AccountLookup reports the owner of an account the caller has supplied.
type AccountLookup interface {
	Owner(key solana.PublicKey) (solana.PublicKey, bool)
}

// OwnerMap is an AccountLookup over a fixed set of accounts.
type OwnerMap map[solana.PublicKey]solana.PublicKey

func (m OwnerMap) Owner(key solana.PublicKey) (solana.PublicKey, bool) {
	owner, ok := m[key]
	return owner, ok
}

// Resolver builds completion calls for one deployment.
type Resolver struct {
	deriver    *pda.Deriver
	localChain uint16
	logger     zerolog.Logger
}

// New returns a Resolver. localChain selects native transfers.
func New(deriver *pda.Deriver, localChain uint16, logger zerolog.Logger) *Resolver {
	return &Resolver{
		deriver:    deriver,
		localChain: localChain,
		logger:     logger.With().Str("component", "resolver").Logger(),
	}
}

// LocalChain returns the chain id treated as native.
func (r *Resolver) LocalChain() uint16 { return r.localChain }

// Deriver returns the address deriver.
func (r *Resolver) Deriver() *pda.Deriver { return r.deriver }

// decoded is everything the account list depends on.
type decoded struct {
	hash      common.Hash
	body      vaa.Body
	transfer  tokenbridge.TransferWithMessage
	recipient solana.PublicKey
	native    bool
	mint      solana.PublicKey
}

func (r *Resolver) decode(raw []byte, intent Completion) (*decoded, error) {
	body, err := vaa.ParseBody(raw)
	if err != nil {
		return nil, err
	}
	twm, err := tokenbridge.ParseTransferWithMessagePayload(body.Payload())
	if err != nil {
		return nil, err
	}
	msg, err := tokenbridge.ParseRelayerMessage(twm.Payload())
	if err != nil {
		return nil, err
	}

	native := twm.TokenChain() == r.localChain
	switch {
	case intent == CompletionNative && !native:
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(),
			fmt.Sprintf("native completion requires token chain %d", r.localChain))
	case intent == CompletionWrapped && native:
		return nil, tbrerrors.NewInvalidTransferTokenChainError(twm.TokenChain(),
			"wrapped completion requires a foreign token chain")
	}

	d := &decoded{
		hash:      body.Hash(),
		body:      body,
		transfer:  twm,
		recipient: solana.PublicKeyFromBytes(msg.Recipient[:]),
		native:    native,
	}
	if native {
		d.mint = solana.PublicKey(twm.TokenAddress())
	} else {
		d.mint = r.deriver.WrappedMint(twm.TokenChain(), twm.TokenAddress())
	}
	return d, nil
}

// Execute builds the completion call assuming the classic token program.
// It never performs a lookup.
func (r *Resolver) Execute(raw []byte) (*Instruction, error) {
	return r.ExecuteAs(raw, CompletionAuto)
}

// ExecuteAs is Execute with an explicit completion kind. A kind that does
// not match the decoded token chain fails InvalidTransferTokenChain.
func (r *Resolver) ExecuteAs(raw []byte, intent Completion) (*Instruction, error) {
	d, err := r.decode(raw, intent)
	if err != nil {
		return nil, err
	}
	ix := r.build(d, PayerPlaceholder, r.deriver.PostedVAA(d.hash), solana.TokenProgramID)
	r.logger.Debug().
		Str("hash", d.hash.Hex()).
		Bool("native", d.native).
		Int("accounts", len(ix.Accounts)).
		Msg("built completion call")
	return ix, nil
}

// Resolve runs one round of the two-phase protocol. The mint must be among
// the supplied accounts so its owning token program is known; otherwise
// the result is Missing naming the mint.
func (r *Resolver) Resolve(raw []byte, accounts AccountLookup) (Result, error) {
	d, err := r.decode(raw, CompletionAuto)
	if err != nil {
		return nil, err
	}

	tokenProgram, ok := lookup(accounts, d.mint)
	if !ok {
		r.logger.Debug().Str("mint", d.mint.String()).Msg("mint not supplied")
		return &Missing{Accounts: []solana.PublicKey{d.mint}}, nil
	}

	ix := r.build(d, PayerPlaceholder, PostedVAAPlaceholder, tokenProgram)
	return &Resolved{Groups: []InstructionGroup{{Instructions: []*Instruction{ix}}}}, nil
}

func lookup(accounts AccountLookup, key solana.PublicKey) (solana.PublicKey, bool) {
	if accounts == nil {
		return solana.PublicKey{}, false
	}
	return accounts.Owner(key)
}

func (r *Resolver) build(d *decoded, payer, postedVAA, tokenProgram solana.PublicKey) *Instruction {
	programs := r.deriver.Programs()
	config, _ := r.deriver.RedeemerConfig()
	emitter := d.body.EmitterAddress()
	claim := r.deriver.Claim(emitter, d.body.EmitterChain(), d.body.Sequence())
	endpoint := r.deriver.ForeignEndpoint(d.body.EmitterChain(), emitter)
	recipientATA := pda.AssociatedTokenAccount(d.recipient, tokenProgram, d.mint)
	tmp := r.deriver.Tmp(d.mint)

	accounts := solana.AccountMetaSlice{
		solana.NewAccountMeta(payer, true, true),
		solana.NewAccountMeta(config, false, false),
		solana.NewAccountMeta(d.mint, false, false),
		solana.NewAccountMeta(recipientATA, true, false),
		solana.NewAccountMeta(d.recipient, true, false),
		solana.NewAccountMeta(tmp, true, false),
	}

	discriminator := CompleteNativeDiscriminator
	if d.native {
		accounts = append(accounts,
			solana.NewAccountMeta(r.deriver.TokenBridgeConfig(), false, false),
			solana.NewAccountMeta(postedVAA, false, false),
			solana.NewAccountMeta(claim, true, false),
			solana.NewAccountMeta(endpoint, false, false),
			solana.NewAccountMeta(r.deriver.Custody(d.mint), true, false),
			solana.NewAccountMeta(r.deriver.CustodySigner(), false, false),
		)
	} else {
		discriminator = CompleteWrappedDiscriminator
		accounts = append(accounts,
			solana.NewAccountMeta(r.deriver.WrappedMeta(d.mint), false, false),
			solana.NewAccountMeta(r.deriver.TokenBridgeConfig(), false, false),
			solana.NewAccountMeta(postedVAA, false, false),
			solana.NewAccountMeta(claim, true, false),
			solana.NewAccountMeta(endpoint, false, false),
			solana.NewAccountMeta(r.deriver.MintAuthority(), true, false),
		)
	}

	accounts = append(accounts,
		solana.NewAccountMeta(programs.CoreBridge, false, false),
		solana.NewAccountMeta(programs.TokenBridge, false, false),
		solana.NewAccountMeta(tokenProgram, false, false),
		solana.NewAccountMeta(pda.AssociatedTokenProgramID, false, false),
		solana.NewAccountMeta(solana.SystemProgramID, false, false),
		solana.NewAccountMeta(pda.RentSysvarID, false, false),
	)

	data := make([]byte, 0, 40)
	data = append(data, discriminator[:]...)
	data = append(data, d.hash[:]...)

	return &Instruction{ProgramID: programs.Relayer, Accounts: accounts, Data: data}
}
