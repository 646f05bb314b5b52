// Package registry manages the relayer program's configuration accounts and
// its table of registered foreign contracts.
package registry

import (
	"fmt"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
)

// Registry writes the relayer's own accounts.
type Registry struct {
	deriver    *pda.Deriver
	localChain uint16
	logger     zerolog.Logger
}

func New(deriver *pda.Deriver, localChain uint16, logger zerolog.Logger) *Registry {
	return &Registry{
		deriver:    deriver,
		localChain: localChain,
		logger:     logger.With().Str("component", "registry").Logger(),
	}
}

func (r *Registry) program() solana.PublicKey { return r.deriver.Programs().Relayer }

// Initialize creates the sender and redeemer configs. Anyone may call it;
// a second call fails because both accounts exist.
func (r *Registry) Initialize(tx *ledger.Tx, payer solana.PublicKey) error {
	senderKey, senderBump := r.deriver.SenderConfig()
	redeemerKey, redeemerBump := r.deriver.RedeemerConfig()

	if err := r.create(tx, payer, senderKey, state.ConfigRent, state.SenderConfig{Bump: senderBump}.Encode()); err != nil {
		return err
	}
	if err := r.create(tx, payer, redeemerKey, state.ConfigRent, state.RedeemerConfig{Bump: redeemerBump}.Encode()); err != nil {
		return err
	}
	r.logger.Info().
		Str("sender_config", senderKey.String()).
		Str("redeemer_config", redeemerKey.String()).
		Msg("relayer initialized")
	return nil
}

func (r *Registry) create(tx *ledger.Tx, payer, key solana.PublicKey, rent uint64, data []byte) error {
	if err := tx.Debit(payer, rent); err != nil {
		return err
	}
	return tx.Create(&ledger.Account{Key: key, Owner: r.program(), Lamports: rent, Data: data})
}

// ValidForeignChain reports whether chain can be a transfer destination.
func (r *Registry) ValidForeignChain(chain uint16) bool {
	return chain != 0 && chain != r.localChain
}

// Register records the contract for chain. Each chain is registered once,
// and only for an address the token bridge has an endpoint for.
func (r *Registry) Register(tx *ledger.Tx, payer solana.PublicKey, chain uint16, address [32]byte) (*state.ForeignContract, error) {
	if !r.ValidForeignChain(chain) {
		return nil, tbrerrors.NewValidationError(fmt.Sprint(chain), "not a valid foreign chain")
	}
	if address == ([32]byte{}) {
		return nil, tbrerrors.NewValidationError(fmt.Sprint(chain), "foreign contract address is zero")
	}
	endpoint := r.deriver.ForeignEndpoint(chain, address)
	acct, err := tx.Get(endpoint)
	if err != nil {
		return nil, err
	}
	if acct.Owner != r.deriver.Programs().TokenBridge {
		return nil, tbrerrors.NewValidationError(fmt.Sprint(chain), "endpoint not owned by the token bridge: "+endpoint.String())
	}

	key, bump := r.deriver.ForeignContract(chain)
	fc := &state.ForeignContract{Chain: chain, Address: address, Bump: bump}
	if err := r.create(tx, payer, key, state.ForeignContractRent, fc.Encode()); err != nil {
		return nil, err
	}
	r.logger.Info().
		Uint16("chain", chain).
		Str("foreign_contract", key.String()).
		Msg("foreign contract registered")
	return fc, nil
}

// ForeignContract loads the registration for chain.
func (r *Registry) ForeignContract(tx *ledger.Tx, chain uint16) (*state.ForeignContract, error) {
	key, _ := r.deriver.ForeignContract(chain)
	return state.Load(tx, key, r.program(), state.DecodeForeignContract)
}

// LookupForeignContract is ForeignContract with absence reported as nil.
func (r *Registry) LookupForeignContract(tx *ledger.Tx, chain uint16) (*state.ForeignContract, error) {
	fc, err := r.ForeignContract(tx, chain)
	if tbrerrors.IsChainError(err, tbrerrors.ErrCodeAccountNotFound) {
		return nil, nil
	}
	return fc, err
}

// ForeignContracts lists every registration, ordered by chain.
func (r *Registry) ForeignContracts(tx *ledger.Tx) ([]state.ForeignContract, error) {
	accounts, err := tx.OwnedBy(r.program())
	if err != nil {
		return nil, err
	}
	var out []state.ForeignContract
	for _, acct := range accounts {
		if len(acct.Data) != state.ForeignContractLen {
			continue
		}
		fc, err := state.DecodeForeignContract(acct.Data)
		if tbrerrors.IsChainError(err, tbrerrors.ErrCodeValidation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *fc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Chain < out[j].Chain })
	return out, nil
}
