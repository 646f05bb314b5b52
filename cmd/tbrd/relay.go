package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	tbrerrors "github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/errors"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/relay"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
)

// nativeDecimals is the precision of the wrapped native mint.
const nativeDecimals = 9

// TransferOutput is the printed result of an outbound transfer.
type TransferOutput struct {
	Kind       string   `json:"kind"`
	Mint       string   `json:"mint"`
	Amount     uint64   `json:"amount"`
	Sequence   uint64   `json:"sequence"`
	Message    string   `json:"message"`
	Request    string   `json:"request"`
	Payee      string   `json:"payee"`
	ExecAmount uint64   `json:"exec_amount"`
	States     []string `json:"states"`
}

// RedeemOutput is the printed result of a completed inbound transfer.
type RedeemOutput struct {
	Kind      string   `json:"kind"`
	VAAHash   string   `json:"vaa_hash"`
	Mint      string   `json:"mint"`
	Recipient string   `json:"recipient"`
	Amount    uint64   `json:"amount"`
	Unwrapped bool     `json:"unwrapped"`
	States    []string `json:"states"`
}

func stateNames(states []relay.State) []string {
	out := make([]string, len(states))
	for i, s := range states {
		out[i] = s.String()
	}
	return out
}

func newTransferOutput(r *relay.TransferReceipt) TransferOutput {
	out := TransferOutput{
		Kind:     r.Kind.String(),
		Mint:     r.Mint.String(),
		Amount:   r.Amount,
		Sequence: r.Sequence,
		Message:  r.Message.String(),
		Request:  "0x" + hex.EncodeToString(r.Request.Encode()),
		States:   stateNames(r.States),
	}
	if r.Execution != nil {
		out.Payee = r.Execution.Payee
		out.ExecAmount = r.Execution.Amount
	}
	return out
}

func newRedeemOutput(r *relay.RedeemReceipt) RedeemOutput {
	return RedeemOutput{
		Kind:      r.Kind.String(),
		VAAHash:   r.VAAHash.Hex(),
		Mint:      r.Mint.String(),
		Recipient: r.Recipient.String(),
		Amount:    r.Amount,
		Unwrapped: r.Unwrapped,
		States:    stateNames(r.States),
	}
}

func ledgerTransferCmd() *cobra.Command {
	var (
		payer             string
		mint              string
		from              string
		amount            uint64
		chain             uint16
		recipient         string
		nonce             uint32
		wrapped           bool
		wrapNative        bool
		dstRecipient      string
		dstExecution      string
		execAmount        uint64
		signedQuote       string
		relayInstructions string
		outputFormat      string
	)

	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Bridge tokens out of the local ledger and request relay execution",
		RunE: func(cmd *cobra.Command, args []string) error {
			payerKey, err := solana.PublicKeyFromBase58(payer)
			if err != nil {
				return fmt.Errorf("invalid payer: %w", err)
			}
			mintKey, err := solana.PublicKeyFromBase58(mint)
			if err != nil {
				return fmt.Errorf("invalid mint: %w", err)
			}
			transfer := relay.TransferArgs{
				Payer:          payerKey,
				Mint:           mintKey,
				Amount:         amount,
				RecipientChain: chain,
				Nonce:          nonce,
				WrapNative:     wrapNative,
				ExecAmount:     execAmount,
			}
			if from != "" {
				if transfer.FromToken, err = solana.PublicKeyFromBase58(from); err != nil {
					return fmt.Errorf("invalid source token account: %w", err)
				}
			} else if !wrapNative {
				return fmt.Errorf("--from is required unless --wrap-native is set")
			}
			if transfer.RecipientAddress, err = parseBytes32(recipient); err != nil {
				return err
			}
			if dstRecipient != "" {
				if transfer.DstTransferRecipient, err = parseBytes32(dstRecipient); err != nil {
					return err
				}
			}
			if dstExecution != "" {
				if transfer.DstExecutionAddress, err = parseBytes32(dstExecution); err != nil {
					return err
				}
			}
			if transfer.SignedQuote, err = readHexArg(signedQuote); err != nil {
				return fmt.Errorf("invalid signed quote: %w", err)
			}
			if transfer.RelayInstructions, err = readHexArg(relayInstructions); err != nil {
				return fmt.Errorf("invalid relay instructions: %w", err)
			}

			return withNode(func(n *node) error {
				send := n.relayer.TransferNativeTokensWithRelay
				if wrapped {
					send = n.relayer.TransferWrappedTokensWithRelay
				}
				receipt, err := send(context.Background(), transfer)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), newTransferOutput(receipt), outputFormat)
			})
		},
	}

	cmd.Flags().StringVar(&payer, "payer", "", "Payer public key (base58)")
	cmd.Flags().StringVar(&mint, "mint", "", "Mint of the transferred token (base58)")
	cmd.Flags().StringVar(&from, "from", "", "Payer's source token account (base58)")
	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount in the mint's smallest unit")
	cmd.Flags().Uint16Var(&chain, "chain", 0, "Destination chain id")
	cmd.Flags().StringVar(&recipient, "recipient", "", "Recipient on the destination chain (hex or base58)")
	cmd.Flags().Uint32Var(&nonce, "nonce", 0, "Message nonce")
	cmd.Flags().BoolVar(&wrapped, "wrapped", false, "Mint is a bridge-wrapped token")
	cmd.Flags().BoolVar(&wrapNative, "wrap-native", false, "Fund the transfer from the payer's lamports")
	cmd.Flags().StringVar(&dstRecipient, "dst-transfer-recipient", "", "Destination token recipient; defaults to the registered contract")
	cmd.Flags().StringVar(&dstExecution, "dst-execution-address", "", "Destination execution address; defaults to the registered contract")
	cmd.Flags().Uint64Var(&execAmount, "exec-amount", 0, "Lamports paid to the quote's payee")
	cmd.Flags().StringVar(&signedQuote, "signed-quote", "", "Signed quote (hex)")
	cmd.Flags().StringVar(&relayInstructions, "relay-instructions", "", "Relay instructions (hex)")
	addOutputFlag(cmd, &outputFormat)
	for _, name := range []string{"payer", "mint", "amount", "chain", "recipient", "signed-quote", "relay-instructions"} {
		cmd.MarkFlagRequired(name)
	}
	return cmd
}

func ledgerRedeemCmd() *cobra.Command {
	var (
		payer        string
		signed       bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "redeem <vaa-hex|->",
		Short: "Post a transfer VAA to the local ledger and complete it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payerKey, err := solana.PublicKeyFromBase58(payer)
			if err != nil {
				return fmt.Errorf("invalid payer: %w", err)
			}
			body, err := vaaBody(args[0], signed)
			if err != nil {
				return err
			}

			return withNode(func(n *node) error {
				ctx := context.Background()
				err := n.store.Atomic(ctx, func(tx *ledger.Tx) error {
					_, err := n.bridge.PostVAA(tx, payerKey, body)
					return err
				})
				if err != nil {
					return err
				}

				result, err := n.resolver.Resolve(body, n.store.Owners(ctx))
				if err != nil {
					return err
				}
				var ix *resolver.Instruction
				switch r := result.(type) {
				case *resolver.Missing:
					keys := make([]string, len(r.Accounts))
					for i, k := range r.Accounts {
						keys[i] = k.String()
					}
					return tbrerrors.NewMissingAccountError(strings.Join(keys, ","))
				case *resolver.Resolved:
					ix = r.Groups[0].Instructions[0]
				}

				receipt, err := n.relayer.Execute(ctx, payerKey, ix)
				if err != nil {
					return err
				}
				return printOutput(cmd.OutOrStdout(), newRedeemOutput(receipt), outputFormat)
			})
		},
	}

	cmd.Flags().StringVar(&payer, "payer", "", "Payer public key (base58)")
	cmd.Flags().BoolVar(&signed, "signed", false, "Argument is a signed VAA rather than a body")
	addOutputFlag(cmd, &outputFormat)
	cmd.MarkFlagRequired("payer")
	return cmd
}
