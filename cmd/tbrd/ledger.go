package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/ledger"
	"github.com/wormholelabs-xyz/example-permissionless-token-bridge-executor-shim/relayer/pda"
)

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Manage the local ledger",
	}
	cmd.AddCommand(ledgerBootstrapCmd(), ledgerRegisterCmd(), ledgerTransferCmd(), ledgerRedeemCmd())
	return cmd
}

// withNode opens the node with a private registry so one-shot commands
// leave the default one alone.
func withNode(fn func(n *node) error) error {
	c, err := newCore(os.Stderr)
	if err != nil {
		return err
	}
	n, err := openNode(c, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer n.Close()
	return fn(n)
}

func ledgerBootstrapCmd() *cobra.Command {
	var (
		payer    string
		lamports uint64
		fee      uint64
	)

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Fund a payer, create the native mint and initialize the bridge and relayer configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			payerKey, err := solana.PublicKeyFromBase58(payer)
			if err != nil {
				return fmt.Errorf("invalid payer: %w", err)
			}
			return withNode(func(n *node) error {
				err := n.store.Atomic(context.Background(), func(tx *ledger.Tx) error {
					if err := tx.Credit(payerKey, lamports); err != nil {
						return err
					}
					if err := n.bridge.Initialize(tx, payerKey, fee); err != nil {
						return err
					}
					exists, err := tx.Exists(pda.NativeMint)
					if err != nil {
						return err
					}
					if !exists {
						if err := n.tokens.InitializeMint(tx, payerKey, pda.NativeMint, nativeDecimals, nil); err != nil {
							return err
						}
					}
					return n.registry.Initialize(tx, payerKey)
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "bootstrapped ledger for payer %s\n", payerKey)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&payer, "payer", "", "Payer public key (base58)")
	cmd.Flags().Uint64Var(&lamports, "lamports", 10_000_000_000, "Lamports credited to the payer")
	cmd.Flags().Uint64Var(&fee, "fee", 100, "Core bridge message fee")
	cmd.MarkFlagRequired("payer")
	return cmd
}

func ledgerRegisterCmd() *cobra.Command {
	var (
		payer   string
		chain   uint16
		address string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a foreign token bridge and relayer contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			payerKey, err := solana.PublicKeyFromBase58(payer)
			if err != nil {
				return fmt.Errorf("invalid payer: %w", err)
			}
			addr, err := parseBytes32(address)
			if err != nil {
				return err
			}
			return withNode(func(n *node) error {
				err := n.store.Atomic(context.Background(), func(tx *ledger.Tx) error {
					exists, err := tx.Exists(n.deriver.ForeignEndpoint(chain, addr))
					if err != nil {
						return err
					}
					if !exists {
						if _, err := n.bridge.RegisterChain(tx, payerKey, chain, addr); err != nil {
							return err
						}
					}
					_, err = n.registry.Register(tx, payerKey, chain, addr)
					return err
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "registered chain %d\n", chain)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&payer, "payer", "", "Payer public key (base58)")
	cmd.Flags().Uint16Var(&chain, "chain", 0, "Foreign chain id")
	cmd.Flags().StringVar(&address, "address", "", "Foreign contract address (hex or base58)")
	cmd.MarkFlagRequired("payer")
	cmd.MarkFlagRequired("chain")
	cmd.MarkFlagRequired("address")
	return cmd
}
