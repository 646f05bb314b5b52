package tokenbridge

import (
	"fmt"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
)

// RelayerMessageLen is the exact size of the relay's application payload.
const RelayerMessageLen = 32

// RelayerMessage is the application payload the relay attaches to every
// outbound transfer. Recipient is the wallet that receives the tokens on
// the destination chain, independent of who submits the completion.
type RelayerMessage struct {
	Recipient [32]byte
}

// ParseRelayerMessage requires exactly RelayerMessageLen bytes.
func ParseRelayerMessage(payload []byte) (RelayerMessage, error) {
	if len(payload) != RelayerMessageLen {
		return RelayerMessage{}, tbrerrors.NewMalformedMessageError(
			fmt.Sprintf("relayer message must be %d bytes, got %d", RelayerMessageLen, len(payload)), nil)
	}
	var m RelayerMessage
	copy(m.Recipient[:], payload)
	return m, nil
}

// Encode returns the Borsh encoding, which for a single fixed array is the
// raw 32 bytes.
func (m RelayerMessage) Encode() []byte {
	out := make([]byte, RelayerMessageLen)
	copy(out, m.Recipient[:])
	return out
}
