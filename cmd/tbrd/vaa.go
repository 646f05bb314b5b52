package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/api"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/resolver"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/svm"
)

// vaaBody reads a VAA argument, unwrapping it when signed is set.
func vaaBody(arg string, signed bool) ([]byte, error) {
	raw, err := readHexArg(arg)
	if err != nil {
		return nil, err
	}
	return api.BodyBytes(raw, signed)
}

func parseCmd() *cobra.Command {
	var (
		signed       bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "parse <vaa-hex|->",
		Short: "Decode a VAA and its token bridge payload",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := vaaBody(args[0], signed)
			if err != nil {
				return err
			}
			parsed, err := api.ParseVAA(body)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), parsed, outputFormat)
		},
	}

	cmd.Flags().BoolVar(&signed, "signed", false, "Argument is a signed VAA rather than a body")
	addOutputFlag(cmd, &outputFormat)
	return cmd
}

func executeCmd() *cobra.Command {
	var (
		signed       bool
		kind         string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "execute <vaa-hex|->",
		Short: "Print the completion instruction for a relayed transfer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(os.Stderr)
			if err != nil {
				return err
			}
			body, err := vaaBody(args[0], signed)
			if err != nil {
				return err
			}
			intent := resolver.CompletionAuto
			switch kind {
			case "":
			case "native":
				intent = resolver.CompletionNative
			case "wrapped":
				intent = resolver.CompletionWrapped
			default:
				return fmt.Errorf("kind must be native, wrapped or empty, got %q", kind)
			}
			ix, err := c.resolver.ExecuteAs(body, intent)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), api.NewInstructionResponse(ix), outputFormat)
		},
	}

	cmd.Flags().BoolVar(&signed, "signed", false, "Argument is a signed VAA rather than a body")
	cmd.Flags().StringVar(&kind, "kind", "", "Expected completion (native|wrapped); empty picks from the token chain")
	addOutputFlag(cmd, &outputFormat)
	return cmd
}

func resolveCmd() *cobra.Command {
	var (
		signed       bool
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "resolve <vaa-hex|->",
		Short: "Resolve a transfer against the configured Solana RPC endpoints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newCore(os.Stderr)
			if err != nil {
				return err
			}
			body, err := vaaBody(args[0], signed)
			if err != nil {
				return err
			}

			ctx := context.Background()
			client, err := svm.NewRPCClient(ctx, c.cfg.SolanaRPCURLs, c.cfg.RPCTimeout(), c.logger)
			if err != nil {
				return err
			}
			defer client.Close()

			loop := svm.NewResolver(c.resolver, client, c.cfg.MaxResolveRounds, c.cfg.RetryConfig(), c.logger)
			resolved, err := loop.Resolve(ctx, body)
			if err != nil {
				return err
			}
			return printOutput(cmd.OutOrStdout(), api.NewResolveResponse(resolved), outputFormat)
		},
	}

	cmd.Flags().BoolVar(&signed, "signed", false, "Argument is a signed VAA rather than a body")
	addOutputFlag(cmd, &outputFormat)
	return cmd
}
