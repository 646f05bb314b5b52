package executor

import (
	"crypto/ecdsa"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

var testPayee = [32]byte{0x50, 31: 0x51}

func signQuote(t *testing.T, key *ecdsa.PrivateKey, fields QuoteFields) []byte {
	t.Helper()
	fields.Quoter = crypto.PubkeyToAddress(key.PublicKey)
	raw, err := fields.Sign(func(digest []byte) ([]byte, error) { return crypto.Sign(digest, key) })
	require.NoError(t, err)
	return raw
}

func testQuote(t *testing.T, src, dst uint16, expiry time.Time) []byte {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return signQuote(t, key, QuoteFields{
		Payee:       testPayee,
		SrcChain:    src,
		DstChain:    dst,
		ExpiryTime:  expiry,
		BaseFee:     1,
		DstGasPrice: 2,
		SrcPrice:    3,
		DstPrice:    4,
	})
}

func TestParseSignedQuote(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	expiry := time.Unix(1_800_000_000, 0).UTC()
	raw := signQuote(t, key, QuoteFields{
		Payee: testPayee, SrcChain: 1, DstChain: 2, ExpiryTime: expiry,
		BaseFee: 10, DstGasPrice: 20, SrcPrice: 30, DstPrice: 40,
	})
	require.Len(t, raw, SignedQuoteLen)
	assert.Equal(t, []byte("EQ01"), raw[:4])
	assert.Equal(t, testPayee[:], raw[24:56])

	q, err := ParseSignedQuote(raw)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), q.Quoter)
	assert.Equal(t, testPayee, q.Payee)
	assert.Equal(t, uint16(1), q.SrcChain)
	assert.Equal(t, uint16(2), q.DstChain)
	assert.Equal(t, expiry, q.ExpiryTime)
	assert.Equal(t, uint64(10), q.BaseFee)
	assert.Equal(t, uint64(20), q.DstGasPrice)
	assert.Equal(t, uint64(30), q.SrcPrice)
	assert.Equal(t, uint64(40), q.DstPrice)
	assert.Equal(t, raw, q.Bytes())

	require.NoError(t, q.Verify())

	payee, err := Payee(raw)
	require.NoError(t, err)
	assert.Equal(t, testPayee, payee)
}

func TestSignedQuote_VerifyTampered(t *testing.T) {
	raw := testQuote(t, 1, 2, time.Now().Add(time.Hour))
	raw[60] ^= 0xff

	q, err := ParseSignedQuote(raw)
	require.NoError(t, err)
	assert.Error(t, q.Verify())
}

func TestSignedQuote_Expired(t *testing.T) {
	expiry := time.Unix(1_800_000_000, 0)
	q, err := ParseSignedQuote(testQuote(t, 1, 2, expiry))
	require.NoError(t, err)

	assert.False(t, q.Expired(expiry.Add(-time.Second)))
	assert.True(t, q.Expired(expiry))
	assert.True(t, q.Expired(expiry.Add(time.Second)))
}

func TestParseSignedQuote_Errors(t *testing.T) {
	raw := testQuote(t, 1, 2, time.Now())

	_, err := ParseSignedQuote(raw[:SignedQuoteLen-1])
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeTruncatedInput))

	bad := append([]byte("EQ02"), raw[4:]...)
	_, err = ParseSignedQuote(bad)
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeMalformedMessage))

	_, err = Payee(raw[:55])
	assert.True(t, tbrerrors.IsChainError(err, tbrerrors.ErrCodeTruncatedInput))
}
