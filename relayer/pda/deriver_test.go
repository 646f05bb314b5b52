package pda

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/internal/fixture"
)

func TestDeriver_DevnetGolden(t *testing.T) {
	d := NewDeriver(DefaultPrograms())
	body := fixture.DevnetBody()

	var emitter [32]byte
	copy(emitter[:], body[10:42])
	hash := fixture.MustBytes32(fixture.DevnetHash)
	recipient := solana.MustPublicKeyFromBase58(fixture.DevnetRecipient)

	sender, senderBump := d.SenderConfig()
	redeemer, redeemerBump := d.RedeemerConfig()
	foreign, foreignBump := d.ForeignContract(2)
	lut, _ := d.LUTAuthority()

	tests := []struct {
		name string
		got  solana.PublicKey
		want string
	}{
		{"sender config", sender, fixture.SenderConfig},
		{"redeemer config", redeemer, fixture.RedeemerConfig},
		{"foreign contract", foreign, fixture.ForeignChain2},
		{"lut authority", lut, fixture.LUTAuthority},
		{"tmp", d.Tmp(NativeMint), fixture.NativeTmp},
		{"bridge config", d.TokenBridgeConfig(), fixture.BridgeConfig},
		{"custody", d.Custody(NativeMint), fixture.Custody},
		{"custody signer", d.CustodySigner(), fixture.CustodySigner},
		{"authority signer", d.AuthoritySigner(), fixture.AuthoritySigner},
		{"mint signer", d.MintAuthority(), fixture.MintSigner},
		{"emitter", d.Emitter(), fixture.Emitter},
		{"claim", d.Claim(emitter, fixture.DevnetEmitterChain, fixture.DevnetSequence), fixture.Claim},
		{"foreign endpoint", d.ForeignEndpoint(fixture.DevnetEmitterChain, emitter), fixture.ForeignEndpoint},
		{"posted vaa", d.PostedVAA(hash), fixture.PostedVAA},
		{"sequence", d.Sequence(d.Emitter()), fixture.EmitterSequence},
		{"wormhole bridge", d.WormholeBridge(), fixture.WormholeBridge},
		{"fee collector", d.FeeCollector(), fixture.FeeCollector},
		{"ata", AssociatedTokenAccount(recipient, solana.TokenProgramID, NativeMint), fixture.NativeATA},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got.String())
		})
	}

	assert.Equal(t, uint8(250), senderBump)
	assert.Equal(t, uint8(254), redeemerBump)
	assert.Equal(t, uint8(255), foreignBump)
}

func TestDeriver_Wrapped(t *testing.T) {
	d := NewDeriver(DefaultPrograms())
	recipient := solana.MustPublicKeyFromBase58(fixture.DevnetRecipient)

	mint := d.WrappedMint(fixture.WrappedTokenChain, fixture.MustBytes32(fixture.WrappedTokenAddress))
	assert.Equal(t, fixture.WrappedMint, mint.String())
	assert.Equal(t, fixture.WrappedMeta, d.WrappedMeta(mint).String())
	assert.Equal(t, fixture.WrappedTmp, d.Tmp(mint).String())
	assert.Equal(t, fixture.WrappedATA, AssociatedTokenAccount(recipient, solana.TokenProgramID, mint).String())
}

func TestDeriver_Deterministic(t *testing.T) {
	a := NewDeriver(DefaultPrograms())
	b := NewDeriver(DefaultPrograms())
	var addr [32]byte
	addr[31] = 7

	assert.Equal(t, a.Claim(addr, 2, 99), b.Claim(addr, 2, 99))
	assert.NotEqual(t, a.Claim(addr, 2, 99), a.Claim(addr, 2, 100))
	assert.NotEqual(t, a.ForeignEndpoint(2, addr), a.ForeignEndpoint(3, addr))

	other := DefaultPrograms()
	other.Relayer = solana.SystemProgramID
	c := NewDeriver(other)
	s1, _ := a.SenderConfig()
	s2, _ := c.SenderConfig()
	assert.NotEqual(t, s1, s2)
	assert.Equal(t, a.TokenBridgeConfig(), c.TokenBridgeConfig())
}

func TestParsePrograms(t *testing.T) {
	p, err := ParsePrograms("", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultPrograms(), p)

	p, err = ParsePrograms(solana.SystemProgramID.String(), "", "", "")
	require.NoError(t, err)
	assert.Equal(t, solana.SystemProgramID, p.Relayer)
	assert.Equal(t, DefaultTokenBridgeProgramID, p.TokenBridge)

	_, err = ParsePrograms("", "not-base58-0OIl", "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core bridge")
}
