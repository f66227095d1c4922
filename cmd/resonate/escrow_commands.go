package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resonate/internal/ipc"
)

func newEscrowCommand(ctx *commandContext) *cobra.Command {
	escrowCmd := &cobra.Command{
		Use:   "escrow",
		Short: "Manage a track's escrow balance",
	}

	escrowCmd.AddCommand(newEscrowDepositCommand(ctx))
	escrowCmd.AddCommand(newEscrowWithdrawCommand(ctx))

	return escrowCmd
}

func newEscrowDepositCommand(ctx *commandContext) *cobra.Command {
	var amount uint64

	cmd := &cobra.Command{
		Use:   "deposit <track-id>",
		Short: "Deposit funds into a track's escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Deposit(ipc.DepositRequest{Auth: auth, TrackID: args[0], Amount: amount})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Track)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Escrow for track %s is now %d\n", resp.Track.ID, resp.Track.Escrow)
				return nil
			})
		},
	}

	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount to deposit (required)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newEscrowWithdrawCommand(ctx *commandContext) *cobra.Command {
	var amount uint64
	var capabilityID string

	cmd := &cobra.Command{
		Use:   "withdraw <track-id>",
		Short: "Withdraw uncommitted funds from a track's escrow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Withdraw(ipc.WithdrawRequest{
					Auth:         auth,
					TrackID:      args[0],
					CapabilityID: capabilityID,
					Amount:       amount,
				})
				if err != nil {
					return err
				}
				return printSettlement(cmd, ctx, "Withdrawal settled", resp.Settlement)
			})
		},
	}

	cmd.Flags().Uint64Var(&amount, "amount", 0, "Amount to withdraw (required)")
	cmd.Flags().StringVar(&capabilityID, "capability", "", "Capability id minted for the track (required)")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("capability")
	return cmd
}

func newAccountCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "account <identity>",
		Short: "Show the accumulated balance for an identity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Account(args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", resp.Identity, resp.Balance)
				return nil
			})
		},
	}
}
