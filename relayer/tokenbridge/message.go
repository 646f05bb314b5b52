// Package tokenbridge decodes Wormhole token bridge payloads. Every
// variant is a zero-copy view over a length-checked span; accessors read
// fixed big-endian offsets.
package tokenbridge

import (
	"fmt"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// Kind is the payload discriminant byte.
type Kind uint8

const (
	KindTransfer            Kind = 1
	KindAttestation         Kind = 2
	KindTransferWithMessage Kind = 3
)

func (k Kind) String() string {
	switch k {
	case KindTransfer:
		return "transfer"
	case KindAttestation:
		return "attestation"
	case KindTransferWithMessage:
		return "transfer_with_message"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// Message is a decoded payload. Exactly one variant is set, selected by Kind.
type Message struct {
	kind                Kind
	transfer            Transfer
	attestation         Attestation
	transferWithMessage TransferWithMessage
}

// Parse dispatches on span[0] and decodes the rest of the span as the
// selected variant. It never falls back to a default variant.
func Parse(span []byte) (Message, error) {
	if len(span) == 0 {
		return Message{}, tbrerrors.NewTruncatedInputError("token bridge payload", 1, 0)
	}

	kind := Kind(span[0])
	rest := span[1:]

	switch kind {
	case KindTransfer:
		t, err := ParseTransfer(rest)
		return Message{kind: kind, transfer: t}, err
	case KindAttestation:
		a, err := ParseAttestation(rest)
		return Message{kind: kind, attestation: a}, err
	case KindTransferWithMessage:
		twm, err := ParseTransferWithMessage(rest)
		return Message{kind: kind, transferWithMessage: twm}, err
	default:
		return Message{}, tbrerrors.NewUnknownMessageTypeError(span[0])
	}
}

func (m Message) Kind() Kind { return m.kind }

func (m Message) Transfer() (Transfer, bool) {
	return m.transfer, m.kind == KindTransfer
}

func (m Message) Attestation() (Attestation, bool) {
	return m.attestation, m.kind == KindAttestation
}

func (m Message) TransferWithMessage() (TransferWithMessage, bool) {
	return m.transferWithMessage, m.kind == KindTransferWithMessage
}

// ParseTransferWithMessagePayload parses span and requires the
// transfer-with-message variant.
func ParseTransferWithMessagePayload(span []byte) (TransferWithMessage, error) {
	msg, err := Parse(span)
	if err != nil {
		return TransferWithMessage{}, err
	}
	twm, ok := msg.TransferWithMessage()
	if !ok {
		return TransferWithMessage{}, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("expected %s payload, got %s", KindTransferWithMessage, msg.Kind()), nil)
	}
	return twm, nil
}
