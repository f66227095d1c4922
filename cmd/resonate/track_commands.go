package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"resonate/internal/api"
	"resonate/internal/ipc"
)

func newTrackCommand(ctx *commandContext) *cobra.Command {
	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Manage track listings",
	}

	trackCmd.AddCommand(newTrackCreateCommand(ctx))
	trackCmd.AddCommand(newTrackListCommand(ctx))
	trackCmd.AddCommand(newTrackShowCommand(ctx))
	trackCmd.AddCommand(newTrackUpdateCommand(ctx))
	trackCmd.AddCommand(newTrackTransferCommand(ctx))

	return trackCmd
}

func newTrackCreateCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		description string
		genre       string
		statusNote  string
		price       uint64
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "List a new track and mint its capability",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TrackCreate(ipc.TrackCreateRequest{
					Auth:        auth,
					Name:        name,
					Description: description,
					Genre:       genre,
					StatusNote:  statusNote,
					Price:       price,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Listing)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Listed track %s\n", resp.Listing.Track.ID)
				fmt.Fprintf(stdout, "Capability %s (keep this to manage the track)\n", resp.Listing.Capability.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Track name (required)")
	cmd.Flags().StringVar(&description, "description", "", "Track description")
	cmd.Flags().StringVar(&genre, "genre", "", "Genre tag")
	cmd.Flags().StringVar(&statusNote, "status-note", "", "Free-form status note")
	cmd.Flags().Uint64Var(&price, "price", 0, "Unit price")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newTrackListCommand(ctx *commandContext) *cobra.Command {
	var states []string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tracks, optionally filtered by state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TrackList(states)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Tracks)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Tracks) == 0 {
					fmt.Fprintln(stdout, "No tracks found")
					return nil
				}
				rows := make([][]string, 0, len(resp.Tracks))
				for _, track := range resp.Tracks {
					rows = append(rows, []string{
						track.ID,
						track.Name,
						track.Owner,
						track.State,
						strconv.FormatUint(track.Price, 10),
						strconv.FormatUint(track.Escrow, 10),
						ratingLabel(track.Rating),
					})
				}
				fmt.Fprintln(stdout, renderTable(stdout,
					[]string{"ID", "Name", "Owner", "State", "Price", "Escrow", "Rating"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&states, "state", nil, "Filter by state (open, sold, disputed)")
	return cmd
}

func newTrackShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <track-id>",
		Short: "Show a track with its claims and sale history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TrackDescribe(args[0])
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Detail)
				}
				printTrackDetail(cmd, resp.Detail)
				return nil
			})
		},
	}
}

func printTrackDetail(cmd *cobra.Command, detail api.TrackDetail) {
	stdout := cmd.OutOrStdout()
	track := detail.Track
	fmt.Fprintf(stdout, "Track:       %s\n", track.ID)
	fmt.Fprintf(stdout, "Name:        %s\n", track.Name)
	fmt.Fprintf(stdout, "Owner:       %s\n", track.Owner)
	fmt.Fprintf(stdout, "State:       %s\n", track.State)
	fmt.Fprintf(stdout, "Price:       %d\n", track.Price)
	fmt.Fprintf(stdout, "Escrow:      %d\n", track.Escrow)
	if track.Genre != "" {
		fmt.Fprintf(stdout, "Genre:       %s\n", track.Genre)
	}
	if track.Description != "" {
		fmt.Fprintf(stdout, "Description: %s\n", track.Description)
	}
	if track.StatusNote != "" {
		fmt.Fprintf(stdout, "Status note: %s\n", track.StatusNote)
	}
	fmt.Fprintf(stdout, "Rating:      %s\n", ratingLabel(track.Rating))

	if len(detail.Claims) > 0 {
		fmt.Fprintln(stdout, "\nClaims:")
		for _, claim := range detail.Claims {
			fmt.Fprintf(stdout, "  %s  by %s  at %s\n", claim.ID, claim.Claimant, claim.CreatedAt)
		}
	}
	if len(detail.Sales) > 0 {
		fmt.Fprintln(stdout, "\nSales:")
		for _, sale := range detail.Sales {
			fmt.Fprintf(stdout, "  %s  amount %d  to %s  at %s\n", sale.ID, sale.Amount, sale.Owner, sale.CreatedAt)
		}
	}
}

func ratingLabel(rating *uint8) string {
	if rating == nil {
		return "-"
	}
	return strconv.Itoa(int(*rating))
}

func newTrackUpdateCommand(ctx *commandContext) *cobra.Command {
	var capabilityID string

	cmd := &cobra.Command{
		Use:   "update <track-id>",
		Short: "Update track metadata (requires the track's capability)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			req := ipc.TrackUpdateRequest{
				Auth:         auth,
				TrackID:      args[0],
				CapabilityID: capabilityID,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				value, _ := flags.GetString("name")
				req.Name = &value
			}
			if flags.Changed("description") {
				value, _ := flags.GetString("description")
				req.Description = &value
			}
			if flags.Changed("genre") {
				value, _ := flags.GetString("genre")
				req.Genre = &value
			}
			if flags.Changed("status-note") {
				value, _ := flags.GetString("status-note")
				req.StatusNote = &value
			}
			if flags.Changed("price") {
				value, _ := flags.GetUint64("price")
				req.Price = &value
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TrackUpdate(req)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Track)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated track %s\n", resp.Track.ID)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&capabilityID, "capability", "", "Capability id minted for the track (required)")
	cmd.Flags().String("name", "", "New display name")
	cmd.Flags().String("description", "", "New description")
	cmd.Flags().String("genre", "", "New genre tag")
	cmd.Flags().String("status-note", "", "New status note")
	cmd.Flags().Uint64("price", 0, "New unit price")
	_ = cmd.MarkFlagRequired("capability")
	return cmd
}

func newTrackTransferCommand(ctx *commandContext) *cobra.Command {
	var capabilityID string
	var newOwner string

	cmd := &cobra.Command{
		Use:   "transfer <track-id>",
		Short: "Transfer a track and its capability to a new owner",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Transfer(ipc.TransferRequest{
					Auth:         auth,
					TrackID:      args[0],
					CapabilityID: capabilityID,
					NewOwner:     newOwner,
				})
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Track)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Track %s now owned by %s\n", resp.Track.ID, resp.Track.Owner)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&capabilityID, "capability", "", "Capability id minted for the track (required)")
	cmd.Flags().StringVar(&newOwner, "to", "", "New owner identity (required)")
	_ = cmd.MarkFlagRequired("capability")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}
