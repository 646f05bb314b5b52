package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/executor"
)

func requestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Build executor request bytes",
	}
	cmd.AddCommand(requestVAAv1Cmd(), requestModularCmd(), requestNTTv1Cmd(), requestDecodeCmd())
	return cmd
}

func printRequest(cmd *cobra.Command, req executor.Request) error {
	fmt.Fprintln(cmd.OutOrStdout(), hexutil.Encode(req.Encode()))
	return nil
}

func requestVAAv1Cmd() *cobra.Command {
	var (
		chain    uint16
		emitter  string
		sequence uint64
	)

	cmd := &cobra.Command{
		Use:   "vaa-v1",
		Short: "Build an ERV1 request for a VAA",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseBytes32(emitter)
			if err != nil {
				return err
			}
			return printRequest(cmd, executor.VAAv1Request{Chain: chain, Address: addr, Sequence: sequence})
		},
	}

	cmd.Flags().Uint16Var(&chain, "chain", 0, "Emitter chain")
	cmd.Flags().StringVar(&emitter, "emitter", "", "Emitter address (hex or base58)")
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "Message sequence")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("emitter")
	return cmd
}

func requestModularCmd() *cobra.Command {
	var (
		chain    uint16
		address  string
		sequence uint64
		payload  string
	)

	cmd := &cobra.Command{
		Use:   "modular",
		Short: "Build an ERM1 request carrying a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := parseBytes32(address)
			if err != nil {
				return err
			}
			var body []byte
			if payload != "" {
				if body, err = readHexArg(payload); err != nil {
					return err
				}
			}
			return printRequest(cmd, executor.ModularMessageRequest{Chain: chain, Address: addr, Sequence: sequence, Payload: body})
		},
	}

	cmd.Flags().Uint16Var(&chain, "chain", 0, "Emitter chain")
	cmd.Flags().StringVar(&address, "address", "", "Emitter address (hex or base58)")
	cmd.Flags().Uint64Var(&sequence, "sequence", 0, "Message sequence")
	cmd.Flags().StringVar(&payload, "payload", "", "Payload hex")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("address")
	return cmd
}

func requestNTTv1Cmd() *cobra.Command {
	var (
		chain     uint16
		manager   string
		messageID string
	)

	cmd := &cobra.Command{
		Use:   "ntt-v1",
		Short: "Build an ERN1 request for an NTT manager message",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := parseBytes32(manager)
			if err != nil {
				return err
			}
			id, err := parseBytes32(messageID)
			if err != nil {
				return err
			}
			return printRequest(cmd, executor.NTTv1Request{SrcChain: chain, SrcManager: mgr, MessageID: id})
		},
	}

	cmd.Flags().Uint16Var(&chain, "chain", 0, "Source chain")
	cmd.Flags().StringVar(&manager, "manager", "", "Source NTT manager (hex or base58)")
	cmd.Flags().StringVar(&messageID, "message-id", "", "Message id (hex)")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("manager")
	cmd.MarkFlagRequired("message-id")
	return cmd
}

// RequestOutput is a decoded execution request.
type RequestOutput struct {
	Kind     string `json:"kind"`
	Chain    uint16 `json:"chain"`
	Address  string `json:"address"`
	Sequence uint64 `json:"sequence"`
	Payload  string `json:"payload,omitempty"`
}

func requestDecodeCmd() *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "decode <request-hex|->",
		Short: "Decode execution request bytes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := readHexArg(args[0])
			if err != nil {
				return err
			}
			req, err := executor.ParseRequest(raw)
			if err != nil {
				return err
			}
			chain, addr, seq := req.Message()
			out := RequestOutput{
				Kind:     string(req.Kind()),
				Chain:    chain,
				Address:  hex.EncodeToString(addr[:]),
				Sequence: seq,
			}
			if mm, ok := req.(executor.ModularMessageRequest); ok {
				out.Payload = hex.EncodeToString(mm.Payload)
			}
			return printOutput(cmd.OutOrStdout(), out, outputFormat)
		},
	}

	addOutputFlag(cmd, &outputFormat)
	return cmd
}

// QuoteOutput is a fetched quote with its decoded fields.
type QuoteOutput struct {
	SignedQuote       string    `json:"signed_quote"`
	RelayInstructions string    `json:"relay_instructions"`
	EstimatedCost     string    `json:"estimated_cost"`
	Quoter            string    `json:"quoter"`
	Payee             string    `json:"payee"`
	SrcChain          uint16    `json:"src_chain"`
	DstChain          uint16    `json:"dst_chain"`
	ExpiryTime        time.Time `json:"expiry_time"`
	BaseFee           uint64    `json:"base_fee"`
	DstGasPrice       uint64    `json:"dst_gas_price"`
	SrcPrice          uint64    `json:"src_price"`
	DstPrice          uint64    `json:"dst_price"`
	SignatureValid    bool      `json:"signature_valid"`
}

func quoteCmd() *cobra.Command {
	var (
		srcChain     uint16
		dstChain     uint16
		gasLimit     uint64
		msgValue     string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Fetch a signed quote from the executor API",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(os.Stderr)
			if err != nil {
				return err
			}
			if c.cfg.ExecutorAPIURL == "" {
				return fmt.Errorf("executor_api_url is not configured")
			}
			if srcChain == 0 {
				srcChain = c.cfg.LocalChain
			}
			value, err := uint256.FromDecimal(msgValue)
			if err != nil {
				return fmt.Errorf("invalid msg value: %w", err)
			}
			instructions, err := executor.EncodeRelayInstructions(executor.GasInstruction{
				GasLimit: uint256.NewInt(gasLimit),
				MsgValue: value,
			})
			if err != nil {
				return err
			}

			client := executor.NewQuoteClient(c.cfg.ExecutorAPIURL, c.cfg.QuoteTimeout(), c.cfg.RetryConfig(), c.logger)
			resp, err := client.FetchQuote(context.Background(), executor.QuoteRequest{
				SrcChain:          srcChain,
				DstChain:          dstChain,
				RelayInstructions: instructions,
			})
			if err != nil {
				return err
			}
			quote, err := resp.Quote()
			if err != nil {
				return err
			}

			return printOutput(cmd.OutOrStdout(), QuoteOutput{
				SignedQuote:       hexutil.Encode(resp.SignedQuote),
				RelayInstructions: hexutil.Encode(instructions),
				EstimatedCost:     resp.EstimatedCost.String(),
				Quoter:            quote.Quoter.Hex(),
				Payee:             hex.EncodeToString(quote.Payee[:]),
				SrcChain:          quote.SrcChain,
				DstChain:          quote.DstChain,
				ExpiryTime:        quote.ExpiryTime,
				BaseFee:           quote.BaseFee,
				DstGasPrice:       quote.DstGasPrice,
				SrcPrice:          quote.SrcPrice,
				DstPrice:          quote.DstPrice,
				SignatureValid:    quote.Verify() == nil,
			}, outputFormat)
		},
	}

	cmd.Flags().Uint16Var(&srcChain, "src-chain", 0, "Source chain (default: local chain)")
	cmd.Flags().Uint16Var(&dstChain, "dst-chain", 0, "Destination chain")
	cmd.Flags().Uint64Var(&gasLimit, "gas-limit", 250_000, "Destination gas limit")
	cmd.Flags().StringVar(&msgValue, "msg-value", "0", "Destination native value")
	cmd.MarkFlagRequired("dst-chain")
	addOutputFlag(cmd, &outputFormat)
	return cmd
}
