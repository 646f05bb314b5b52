package executor

import (
	"bytes"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/codec"
	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// QuotePrefix tags the only signed quote version.
const QuotePrefix = "EQ01"

const (
	QuoteBodyLen   = 4 + 20 + 32 + 2 + 2 + 8*5
	QuoteSigLen    = 65
	SignedQuoteLen = QuoteBodyLen + QuoteSigLen
)

// Payee occupies bytes [24, 56) of every signed quote.
const (
	payeeStart = 24
	payeeEnd   = 56
)

// SignedQuote is an executor price quote signed by its quoter.
type SignedQuote struct {
	Quoter      common.Address
	Payee       [32]byte
	SrcChain    uint16
	DstChain    uint16
	ExpiryTime  time.Time
	BaseFee     uint64
	DstGasPrice uint64
	SrcPrice    uint64
	DstPrice    uint64
	Signature   [QuoteSigLen]byte

	raw []byte
}

// ParseSignedQuote decodes an EQ01 quote. Bytes after the signature are
// ignored.
func ParseSignedQuote(b []byte) (*SignedQuote, error) {
	if err := codec.CheckLen("signed quote", b, SignedQuoteLen); err != nil {
		return nil, err
	}
	r := codec.NewReader("signed quote", b)
	prefix, _ := r.Bytes(4)
	if !bytes.Equal(prefix, []byte(QuotePrefix)) {
		return nil, tbrerrors.NewMalformedMessageError(fmt.Sprintf("unknown quote prefix %q", prefix), nil)
	}

	q := &SignedQuote{raw: b[:SignedQuoteLen]}
	quoter, _ := r.Bytes(20)
	q.Quoter = common.BytesToAddress(quoter)
	q.Payee, _ = r.Bytes32()
	q.SrcChain, _ = r.Uint16()
	q.DstChain, _ = r.Uint16()
	expiry, _ := r.Uint64()
	q.ExpiryTime = time.Unix(int64(expiry), 0).UTC()
	q.BaseFee, _ = r.Uint64()
	q.DstGasPrice, _ = r.Uint64()
	q.SrcPrice, _ = r.Uint64()
	q.DstPrice, _ = r.Uint64()
	sig, _ := r.Bytes(QuoteSigLen)
	copy(q.Signature[:], sig)
	return q, nil
}

// Payee reads the payee of a signed quote without decoding the rest.
func Payee(quote []byte) ([32]byte, error) {
	if err := codec.CheckLen("signed quote", quote, payeeEnd); err != nil {
		return [32]byte{}, err
	}
	var out [32]byte
	copy(out[:], quote[payeeStart:payeeEnd])
	return out, nil
}

// Bytes returns the encoded quote, signature included.
func (q *SignedQuote) Bytes() []byte { return q.raw }

// Digest is the keccak256 hash the quoter signs.
func (q *SignedQuote) Digest() common.Hash {
	return crypto.Keccak256Hash(q.raw[:QuoteBodyLen])
}

// Expired reports whether the quote is no longer valid at now.
func (q *SignedQuote) Expired(now time.Time) bool {
	return !now.Before(q.ExpiryTime)
}

// Signer recovers the address that signed the quote.
func (q *SignedQuote) Signer() (common.Address, error) {
	sig := q.Signature
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	pub, err := crypto.SigToPub(q.Digest().Bytes(), sig[:])
	if err != nil {
		return common.Address{}, tbrerrors.NewValidationError("", "invalid quote signature: "+err.Error())
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// Verify checks that the quote was signed by its quoter.
func (q *SignedQuote) Verify() error {
	signer, err := q.Signer()
	if err != nil {
		return err
	}
	if signer != q.Quoter {
		return tbrerrors.NewValidationError("", fmt.Sprintf("quote signed by %s, quoter is %s", signer.Hex(), q.Quoter.Hex()))
	}
	return nil
}

// QuoteFields builds a quote body for signing.
type QuoteFields struct {
	Quoter      common.Address
	Payee       [32]byte
	SrcChain    uint16
	DstChain    uint16
	ExpiryTime  time.Time
	BaseFee     uint64
	DstGasPrice uint64
	SrcPrice    uint64
	DstPrice    uint64
}

// Body encodes the unsigned quote.
func (f QuoteFields) Body() []byte {
	return codec.NewWriter(SignedQuoteLen).
		Bytes([]byte(QuotePrefix)).
		Bytes(f.Quoter.Bytes()).
		Bytes32(f.Payee).
		Uint16(f.SrcChain).
		Uint16(f.DstChain).
		Uint64(uint64(f.ExpiryTime.Unix())).
		Uint64(f.BaseFee).
		Uint64(f.DstGasPrice).
		Uint64(f.SrcPrice).
		Uint64(f.DstPrice).
		Result()
}

// Sign returns the signed quote bytes. sign receives the body digest and
// returns a 65-byte recoverable signature.
func (f QuoteFields) Sign(sign func(digest []byte) ([]byte, error)) ([]byte, error) {
	body := f.Body()
	sig, err := sign(crypto.Keccak256(body))
	if err != nil {
		return nil, err
	}
	if len(sig) != QuoteSigLen {
		return nil, tbrerrors.NewValidationError("", fmt.Sprintf("signature must be %d bytes, got %d", QuoteSigLen, len(sig)))
	}
	return append(body, sig...), nil
}
