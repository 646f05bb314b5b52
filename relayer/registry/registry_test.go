package registry

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/db"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/internal/fixture"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/state"
)

var payer = solana.PublicKey{0x0f, 31: 0x0f}

type env struct {
	store    *ledger.Store
	deriver  *pda.Deriver
	registry *Registry
}

func newEnv(t *testing.T) *env {
	t.Helper()
	database, err := db.OpenInMemoryDB(true)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	deriver := pda.NewDeriver(pda.DefaultPrograms())
	e := &env{
		store:    ledger.NewStore(database, zerolog.Nop()),
		deriver:  deriver,
		registry: New(deriver, 1, zerolog.Nop()),
	}
	e.run(t, func(tx *ledger.Tx) error { return tx.Credit(payer, 1_000_000_000) })
	return e
}

func (e *env) run(t *testing.T, fn func(tx *ledger.Tx) error) {
	t.Helper()
	require.NoError(t, e.store.Atomic(context.Background(), fn))
}

func (e *env) try(fn func(tx *ledger.Tx) error) error {
	return e.store.Atomic(context.Background(), fn)
}

// endpoint stands in for the token bridge's registration of address.
func (e *env) endpoint(t *testing.T, chain uint16, address [32]byte) {
	e.run(t, func(tx *ledger.Tx) error {
		return tx.Create(&ledger.Account{
			Key:   e.deriver.ForeignEndpoint(chain, address),
			Owner: e.deriver.Programs().TokenBridge,
		})
	})
}

func TestInitialize(t *testing.T) {
	e := newEnv(t)
	e.run(t, func(tx *ledger.Tx) error { return e.registry.Initialize(tx, payer) })

	e.run(t, func(tx *ledger.Tx) error {
		sender, err := state.Load(tx, solana.MustPublicKeyFromBase58(fixture.SenderConfig), pda.DefaultRelayerProgramID, state.DecodeSenderConfig)
		require.NoError(t, err)
		_, bump := e.deriver.SenderConfig()
		assert.Equal(t, bump, sender.Bump)

		_, err = state.Load(tx, solana.MustPublicKeyFromBase58(fixture.RedeemerConfig), pda.DefaultRelayerProgramID, state.DecodeRedeemerConfig)
		require.NoError(t, err)

		acct, err := tx.Get(payer)
		require.NoError(t, err)
		assert.Equal(t, uint64(1_000_000_000-2*state.ConfigRent), acct.Lamports)
		return nil
	})

	err := e.try(func(tx *ledger.Tx) error { return e.registry.Initialize(tx, payer) })
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeValidation))
}

func TestRegister(t *testing.T) {
	e := newEnv(t)
	address := fixture.MustBytes32("0000000000000000000000003ee18b2214aff97000d974cf647e7c347e8fa585")
	e.endpoint(t, 2, address)

	e.run(t, func(tx *ledger.Tx) error {
		fc, err := e.registry.Register(tx, payer, 2, address)
		require.NoError(t, err)
		assert.Equal(t, uint16(2), fc.Chain)
		return nil
	})

	e.run(t, func(tx *ledger.Tx) error {
		acct, err := tx.Get(solana.MustPublicKeyFromBase58(fixture.ForeignChain2))
		require.NoError(t, err)
		assert.Equal(t, pda.DefaultRelayerProgramID, acct.Owner)
		assert.Len(t, acct.Data, state.ForeignContractLen)

		fc, err := e.registry.ForeignContract(tx, 2)
		require.NoError(t, err)
		assert.Equal(t, address, fc.Address)
		return nil
	})

	err := e.try(func(tx *ledger.Tx) error {
		_, err := e.registry.Register(tx, payer, 2, address)
		return err
	})
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeValidation), "write-once")
}

func TestRegister_Rejections(t *testing.T) {
	address := [32]byte{0x01}
	tests := []struct {
		name    string
		chain   uint16
		address [32]byte
		code    tbrerrors.ErrorCode
	}{
		{"chain zero", 0, address, tbrerrors.ErrCodeValidation},
		{"local chain", 1, address, tbrerrors.ErrCodeValidation},
		{"zero address", 2, [32]byte{}, tbrerrors.ErrCodeValidation},
		{"no endpoint", 3, address, tbrerrors.ErrCodeAccountNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			e.endpoint(t, 2, address)
			err := e.try(func(tx *ledger.Tx) error {
				_, err := e.registry.Register(tx, payer, tt.chain, tt.address)
				return err
			})
			require.Error(t, err)
			assert.True(t, tbrerrors.IsChainError(err, tt.code), "got %v", err)
		})
	}
}

func TestForeignContracts(t *testing.T) {
	e := newEnv(t)
	e.run(t, func(tx *ledger.Tx) error { return e.registry.Initialize(tx, payer) })
	for _, chain := range []uint16{23, 2, 10} {
		addr := [32]byte{byte(chain)}
		e.endpoint(t, chain, addr)
		e.run(t, func(tx *ledger.Tx) error {
			_, err := e.registry.Register(tx, payer, chain, addr)
			return err
		})
	}

	e.run(t, func(tx *ledger.Tx) error {
		list, err := e.registry.ForeignContracts(tx)
		require.NoError(t, err)
		require.Len(t, list, 3)
		assert.Equal(t, []uint16{2, 10, 23}, []uint16{list[0].Chain, list[1].Chain, list[2].Chain})
		assert.Equal(t, [32]byte{10}, list[1].Address)

		missing, err := e.registry.LookupForeignContract(tx, 4)
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
}
