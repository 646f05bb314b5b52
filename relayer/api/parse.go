package api

import (
	"encoding/hex"
	"strings"

	"github.com/gagliardetto/solana-go"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/tokenbridge"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/vaa"
)

// ParsedVAA is the decoded form of a token bridge VAA body.
type ParsedVAA struct {
	Hash             string `json:"hash"`
	Timestamp        uint32 `json:"timestamp"`
	Nonce            uint32 `json:"nonce"`
	EmitterChain     uint16 `json:"emitter_chain"`
	EmitterAddress   string `json:"emitter_address"`
	Sequence         uint64 `json:"sequence"`
	ConsistencyLevel uint8  `json:"consistency_level"`
	PayloadType      string `json:"payload_type"`

	Transfer            *ParsedTransfer            `json:"transfer,omitempty"`
	Attestation         *ParsedAttestation         `json:"attestation,omitempty"`
	TransferWithMessage *ParsedTransferWithMessage `json:"transfer_with_message,omitempty"`
}

type ParsedTransfer struct {
	Amount         string `json:"amount"`
	TokenAddress   string `json:"token_address"`
	TokenChain     uint16 `json:"token_chain"`
	Recipient      string `json:"recipient"`
	RecipientChain uint16 `json:"recipient_chain"`
	RelayerFee     string `json:"relayer_fee"`
}

type ParsedAttestation struct {
	TokenAddress string `json:"token_address"`
	TokenChain   uint16 `json:"token_chain"`
	Decimals     uint8  `json:"decimals"`
	Symbol       string `json:"symbol"`
	Name         string `json:"name"`
}

type ParsedTransferWithMessage struct {
	Amount        string `json:"amount"`
	TokenAddress  string `json:"token_address"`
	TokenChain    uint16 `json:"token_chain"`
	Redeemer      string `json:"redeemer"`
	RedeemerChain uint16 `json:"redeemer_chain"`
	Sender        string `json:"sender"`
	Payload       string `json:"payload"`
	// RelayRecipient is set when the payload is a relay message.
	RelayRecipient string `json:"relay_recipient,omitempty"`
}

func hex32(b [32]byte) string { return hex.EncodeToString(b[:]) }

// DecodeHex accepts hex with or without a 0x prefix.
func DecodeHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, tbrerrors.NewValidationError("", "vaa is not valid hex: "+err.Error())
	}
	return raw, nil
}

// BodyBytes returns the VAA body, unwrapping a signed VAA when signed is set.
func BodyBytes(raw []byte, signed bool) ([]byte, error) {
	if !signed {
		return raw, nil
	}
	s, err := vaa.ParseSigned(raw)
	if err != nil {
		return nil, err
	}
	return s.Body.Bytes(), nil
}

// ParseVAA decodes a VAA body and its token bridge payload.
func ParseVAA(raw []byte) (*ParsedVAA, error) {
	body, err := vaa.ParseBody(raw)
	if err != nil {
		return nil, err
	}
	out := &ParsedVAA{
		Hash:             body.Hash().Hex(),
		Timestamp:        body.Timestamp(),
		Nonce:            body.Nonce(),
		EmitterChain:     body.EmitterChain(),
		EmitterAddress:   hex32(body.EmitterAddress()),
		Sequence:         body.Sequence(),
		ConsistencyLevel: body.ConsistencyLevel(),
	}

	msg, err := tokenbridge.Parse(body.Payload())
	if err != nil {
		return nil, err
	}
	out.PayloadType = msg.Kind().String()
	if t, ok := msg.Transfer(); ok {
		out.Transfer = &ParsedTransfer{
			Amount:         t.Amount().Dec(),
			TokenAddress:   hex32(t.TokenAddress()),
			TokenChain:     t.TokenChain(),
			Recipient:      hex32(t.Recipient()),
			RecipientChain: t.RecipientChain(),
			RelayerFee:     t.RelayerFee().Dec(),
		}
	}
	if a, ok := msg.Attestation(); ok {
		out.Attestation = &ParsedAttestation{
			TokenAddress: hex32(a.TokenAddress()),
			TokenChain:   a.TokenChain(),
			Decimals:     a.Decimals(),
			Symbol:       a.Symbol(),
			Name:         a.Name(),
		}
	}
	if twm, ok := msg.TransferWithMessage(); ok {
		parsed := &ParsedTransferWithMessage{
			Amount:        twm.Amount().Dec(),
			TokenAddress:  hex32(twm.TokenAddress()),
			TokenChain:    twm.TokenChain(),
			Redeemer:      solana.PublicKey(twm.Redeemer()).String(),
			RedeemerChain: twm.RedeemerChain(),
			Sender:        hex32(twm.Sender()),
			Payload:       hex.EncodeToString(twm.Payload()),
		}
		if rm, err := tokenbridge.ParseRelayerMessage(twm.Payload()); err == nil {
			parsed.RelayRecipient = solana.PublicKey(rm.Recipient).String()
		}
		out.TransferWithMessage = parsed
	}
	return out, nil
}
