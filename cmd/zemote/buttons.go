package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"libdb.so/go-zemote"
	"libdb.so/go-zemote/host"
)

func parseButtonArg(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || !zemote.ValidButton(n) {
		return 0, fmt.Errorf("button must be between 0 and %d, got %q", zemote.NumButtons-1, arg)
	}
	return n, nil
}

var learnCmd = &cobra.Command{
	Use:   "learn <button>",
	Short: "Teach a button the codes of another remote",
	Long: `learn puts the device in learning mode for a button. Press the buttons
of the other remote one after the other; every received code is printed.
Press Ctrl-C when done. Learning also ends on its own once the button is full.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		button, err := parseButtonArg(args[0])
		if err != nil {
			return err
		}

		return withConnection(cmd.Context(), func(ctx context.Context, conn *host.Connection, logger *slog.Logger) error {
			out := cmd.OutOrStdout()

			go host.RouteEvents(ctx, conn.Events, func(ev host.Telemetry) {
				fmt.Fprintf(out, "received 0x%X\n", ev.Value)
			})

			interrupt, stop := signal.NotifyContext(ctx, os.Interrupt)
			defer stop()

			learned := make(chan struct{})
			finished := make(chan struct{})
			go func() {
				defer close(finished)
				select {
				case <-interrupt.Done():
				case <-learned:
					return
				}
				if ctx.Err() != nil {
					return
				}
				if err := conn.Finish(ctx); err != nil {
					logger.Warn(
						"cannot finish learning",
						"err", err)
				}
			}()

			fmt.Fprintf(out, "learning button %d, press Ctrl-C when done\n", button)
			reply, err := conn.Learn(ctx, button)

			// Ctrl-C no longer finishes anything; it must not send a stop
			// command in the middle of the next request.
			close(learned)
			<-finished
			stop()

			if err != nil {
				return fmt.Errorf("cannot learn button %d: %w", button, err)
			}

			if reply.Full() {
				fmt.Fprintf(out, "button %d is full\n", button)
			}

			codes, err := conn.Codes(ctx, button)
			if err != nil {
				return fmt.Errorf("cannot read button %d: %w", button, err)
			}
			fmt.Fprintf(out, "button %d learned %d codes\n", button, len(codes))
			return nil
		})
	},
}

var testCmd = &cobra.Command{
	Use:   "test <button>",
	Short: "Play the codes of a button",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		button, err := parseButtonArg(args[0])
		if err != nil {
			return err
		}

		return withConnection(cmd.Context(), func(ctx context.Context, conn *host.Connection, _ *slog.Logger) error {
			if err := conn.Test(ctx, button); err != nil {
				return fmt.Errorf("cannot play button %d: %w", button, err)
			}
			return nil
		})
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show how many codes every button holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withConnection(cmd.Context(), func(ctx context.Context, conn *host.Connection, _ *slog.Logger) error {
			lens, err := conn.Lengths(ctx)
			if err != nil {
				return fmt.Errorf("cannot list buttons: %w", err)
			}
			for i, n := range lens {
				fmt.Fprintf(cmd.OutOrStdout(), "button %d: %d codes\n", i, n)
			}
			return nil
		})
	},
}

var infoCmd = &cobra.Command{
	Use:   "info <button>",
	Short: "Show the codes of a button",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		button, err := parseButtonArg(args[0])
		if err != nil {
			return err
		}

		return withConnection(cmd.Context(), func(ctx context.Context, conn *host.Connection, _ *slog.Logger) error {
			codes, err := conn.Codes(ctx, button)
			if err != nil {
				return fmt.Errorf("cannot read button %d: %w", button, err)
			}
			for _, code := range codes {
				fmt.Fprintln(cmd.OutOrStdout(), code)
			}
			return nil
		})
	},
}
