package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resonate/internal/api"
	"resonate/internal/ipc"
)

func newBidCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "bid <track-id>",
		Short: "File a claim against a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Bid(ipc.BidRequest{Auth: auth, TrackID: args[0]})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Claim)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Filed claim %s on track %s\n", resp.Claim.ID, resp.Claim.TrackID)
				return nil
			})
		},
	}
}

func newAcceptCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "accept <track-id> <claim-id>",
		Short: "Accept a buyer's claim (seller side)",
		Args:  cobra.ExactArgs(2),
		RunE:  confirmRunE(ctx, "Accepted claim; track %s is now %s\n", (*ipc.Client).Accept),
	}
}

func newMarkSoldCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "mark-sold <track-id> <claim-id>",
		Short: "Confirm the sale from the buyer side",
		Args:  cobra.ExactArgs(2),
		RunE:  confirmRunE(ctx, "Marked sold; track %s is now %s\n", (*ipc.Client).MarkSold),
	}
}

func confirmRunE(ctx *commandContext, format string, call func(*ipc.Client, ipc.ConfirmRequest) (*ipc.ConfirmResponse, error)) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		auth, err := ctx.auth()
		if err != nil {
			return err
		}
		return ctx.withClient(func(client *ipc.Client) error {
			resp, err := call(client, ipc.ConfirmRequest{Auth: auth, TrackID: args[0], ClaimID: args[1]})
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, resp.Track)
			}
			fmt.Fprintf(cmd.OutOrStdout(), format, resp.Track.ID, resp.Track.State)
			return nil
		})
	}
}

func newDisputeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "dispute <track-id>",
		Short: "Raise a dispute on a track",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Dispute(ipc.DisputeRequest{Auth: auth, TrackID: args[0]})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Track)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Track %s is now disputed\n", resp.Track.ID)
				return nil
			})
		},
	}
}

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var inFavorOfClient bool

	cmd := &cobra.Command{
		Use:   "resolve <track-id> <claim-id>",
		Short: "Resolve an open dispute all-or-nothing",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Resolve(ipc.ResolveRequest{
					Auth:            auth,
					TrackID:         args[0],
					ClaimID:         args[1],
					InFavorOfClient: inFavorOfClient,
				})
				if err != nil {
					return err
				}
				return printSettlement(cmd, ctx, "Dispute resolved", resp.Settlement)
			})
		},
	}

	cmd.Flags().BoolVar(&inFavorOfClient, "in-favor-of-client", false, "Award the full escrow to the claimant")
	return cmd
}

func newRefundCommand(ctx *commandContext) *cobra.Command {
	var refund uint64

	cmd := &cobra.Command{
		Use:   "refund <track-id> <claim-id>",
		Short: "Resolve an open dispute with a partial refund",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Refund(ipc.RefundRequest{
					Auth:    auth,
					TrackID: args[0],
					ClaimID: args[1],
					Refund:  refund,
				})
				if err != nil {
					return err
				}
				return printSettlement(cmd, ctx, "Partial refund settled", resp.Settlement)
			})
		},
	}

	cmd.Flags().Uint64Var(&refund, "amount", 0, "Amount refunded to the claimant (required)")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func newReleaseCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "release <track-id> <claim-id>",
		Short: "Release the escrow to the owner and record the sale",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Release(ipc.ReleaseRequest{Auth: auth, TrackID: args[0], ClaimID: args[1]})
				if err != nil {
					return err
				}
				return printSettlement(cmd, ctx, "Payment released", resp.Settlement)
			})
		},
	}
}

func newRateCommand(ctx *commandContext) *cobra.Command {
	var rating uint8

	cmd := &cobra.Command{
		Use:   "rate <track-id> <claim-id>",
		Short: "Rate a purchased track (1-5, once)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Rate(ipc.RateRequest{
					Auth:    auth,
					TrackID: args[0],
					ClaimID: args[1],
					Rating:  rating,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Track)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Rated track %s: %s\n", resp.Track.ID, ratingLabel(resp.Track.Rating))
				return nil
			})
		},
	}

	cmd.Flags().Uint8Var(&rating, "rating", 0, "Rating from 1 to 5 (required)")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func printSettlement(cmd *cobra.Command, ctx *commandContext, headline string, settlement api.SettlementView) error {
	if ctx.jsonOutput() {
		return writeJSON(cmd, settlement)
	}
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "%s; track %s is now %s\n", headline, settlement.Track.ID, settlement.Track.State)
	if settlement.Sale != nil {
		fmt.Fprintf(stdout, "Sale %s recorded for %d\n", settlement.Sale.ID, settlement.Sale.Amount)
	}
	for _, transfer := range settlement.Transfers {
		fmt.Fprintf(stdout, "Credited %d to %s\n", transfer.Amount, transfer.To)
	}
	return nil
}
