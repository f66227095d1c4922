package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"resonate/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and ledger status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Status()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp)
				}
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Running:   %s (pid %d)\n", yesNo(resp.Running), resp.PID)
				fmt.Fprintf(stdout, "Database:  %s\n", resp.DatabasePath)
				fmt.Fprintf(stdout, "Socket:    %s\n", resp.SocketPath)
				fmt.Fprintf(stdout, "Lock:      %s\n", resp.LockPath)
				fmt.Fprintf(stdout, "Tracks:    %d total (%d open, %d sold, %d disputed)\n",
					resp.Total, resp.Open, resp.Sold, resp.Disputed)
				fmt.Fprintf(stdout, "Balanced:  %s\n", yesNo(resp.Balanced))
				return nil
			})
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the resonated daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			auth, err := ctx.auth()
			if err != nil {
				return err
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stop(auth)
				if err != nil {
					return err
				}
				if resp.Stopped {
					fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopped")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Stop request sent")
				}
				return nil
			})
		},
	}
}

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run the ledger health and value conservation audit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Health()
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, resp.Health)
				}
				stdout := cmd.OutOrStdout()
				health := resp.Health
				fmt.Fprintf(stdout, "Tracks:   %d total (%d open, %d sold, %d disputed)\n",
					health.Total, health.Open, health.Sold, health.Disputed)
				if health.Balanced {
					fmt.Fprintln(stdout, "Value conservation: OK")
				} else {
					fmt.Fprintln(stdout, "Value conservation: VIOLATED")
				}
				return nil
			})
		},
	}
}
