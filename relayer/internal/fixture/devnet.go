// Package fixture holds a redeemed devnet transfer and the addresses it
// derives under the default program ids. Tests across packages share it.
package fixture

import (
	"encoding/hex"
	"fmt"
)

// DevnetBodyHex is the body of a transfer-with-message VAA emitted from
// chain 6 to the relayer program on devnet.
const DevnetBodyHex = "67a7dea400000000000600000000000000000000000061e44e506ca5659e6c0bba9b678586fa2d7297560000000000004a7b0103000000000000000000000000000000000000000000000000000000000000000a069b8857feab8184fb687f634618c035dac439dc1aeb3b5598a0f000000000010001fab5214177ee6aab596bb59f03853b3163bc9426498b1323fe6b5471c348915e000100000000000000000000000099d21ddd334772363efb63aea27d6569a747149183718b7ec89617b7040685e01bdcca03214022980daae91340e0c3f840c005ef"

const (
	DevnetHash         = "bed3bb60a54af1fdb11571c328a3d487185d21c48cf61f28502a8c13ec1d903f"
	DevnetEmitterChain = uint16(6)
	DevnetSequence     = uint64(19067)
	DevnetTimestamp    = uint32(1739054756)
	DevnetRecipient    = "9r6q2iEg4MBevjC8reaLmQUDxueF3vabUoqDkZ2LoAYe"
)

// Addresses derived from the devnet body.
const (
	RedeemerConfig  = "HPHaVtBHhXAdP1WH9PUV9Adv5M4YxuJSqeXwGzFiovty"
	SenderConfig    = "G6bN22b5w55Awwjh8V3uLVwxvhwSd7DrwUsAzHVXQtSg"
	PostedVAA       = "8kHoueYk7VxrRtsDYh4KLWCMZDU9Nzg2UJx7Uew5CkcA"
	BridgeConfig    = "8PFZNjn19BBYVHNp4H31bEW7eAmu78Yf2RKV8EeA461K"
	Claim           = "ELHNpwkTGX9Ranz6bkHoeLHMATsiJFvhNnqVUWVeZsK7"
	ForeignEndpoint = "4boZev6ACP6j8yVWmKg4W8E5nUqTbDpdHdm2kMjSKpxE"
	Custody         = "8GeLbqBx5o4sFCPHPVAd9by3bYp9txvQ1YSkfq7GF1wX"
	CustodySigner   = "H9pUTqZoRyFdaedRezhykA1aTMq7vbqRHYVhpHZK2QbC"
	AuthoritySigner = "3VFdJkFuzrcwCwdxhKRETGxrDtUVAipNmYcLvRBDcQeH"
	MintSigner      = "rRsXLHe7sBHdyKU3KY3wbcgWvoT1Ntqudf6e9PKusgb"
	NativeTmp       = "2yd7rzAYqovi2pYfwzMzB7JMh9t78y8xeKJHE8PvwPxZ"
	NativeATA       = "5k8RqwaRTTjVmctNxQgCeK8gzYjcmjvzBc3qyaUr1fCm"
	Emitter         = "4yttKWzRoNYS2HekxDfcZYmfQqnVWpKiJ8eydYRuFRgs"
	EmitterSequence = "9QzqZZvhxoHzXbNY9y2hyAUfJUzDwyDb7fbDs9RXwH3"
	WormholeBridge  = "6bi4JGDoRwUs9TYBuvoA7dUVyikTJDrJsJU1ew6KVLiu"
	FeeCollector    = "7s3a1ycs16d6SNDumaRtjcoyMaTDZPavzgsmS3uUZYWX"
	LUTAuthority    = "F1P3y83kHtYGPs9WFRdrAju13nzEB6QC9ZAa9kHnuJwr"
	ForeignChain2   = "H8gcnrYXc5fwK4cjMGFjqy1qAqNEPnbYZfetraosjJNS"
)

// Wrapped WETH (chain 2) addresses for the same recipient.
const (
	WrappedTokenChain   = uint16(2)
	WrappedTokenAddress = "000000000000000000000000c02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	WrappedMint         = "C9PHWvhUQSnEDDEzkTntPgS5Zvwe4xR9ufngn1WsY327"
	WrappedMeta         = "AwKhQK3DL4wALw49sdgfepkFdQd8wtEej2QvZb3wsQ2U"
	WrappedTmp          = "4idWWkKFUpTRAu7syh4Vc8x88KwKCGmLpoqaVX3fp7z6"
	WrappedATA          = "6gRPDT2khiTnSTzACWcXDs7AQn7PLvHv79YWZ39ki6nD"
)

// DevnetBody decodes DevnetBodyHex.
func DevnetBody() []byte {
	return MustHex(DevnetBodyHex)
}

// MustHex decodes s or panics.
func MustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(fmt.Sprintf("fixture: bad hex: %v", err))
	}
	return b
}

// MustBytes32 decodes a 32-byte hex string or panics.
func MustBytes32(s string) [32]byte {
	var out [32]byte
	b := MustHex(s)
	if len(b) != 32 {
		panic(fmt.Sprintf("fixture: want 32 bytes, got %d", len(b)))
	}
	copy(out[:], b)
	return out
}
