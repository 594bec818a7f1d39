// Command zemote-sim runs a simulated zemote device on a pseudo-terminal.
//
// The path of the terminal is printed on startup; point the zemote command
// at it with --port. IR frames to be "received" are read from stdin, one per
// line, e.g. "NEC 0xA2 32".
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"libdb.so/go-zemote"
	"libdb.so/go-zemote/internal/config"
	"libdb.so/go-zemote/internal/sim"
)

var rootCmd = &cobra.Command{
	Use:          "zemote-sim",
	Short:        "Run a simulated zemote device on a pseudo-terminal",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	cobra.OnInitialize(func() {
		config.SetDefaults()
		viper.AutomaticEnv()
		viper.SetEnvPrefix("ZEMOTE")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	})

	rootCmd.Flags().Duration("poll-interval", 0, "how long an idle device waits between polls")
	rootCmd.Flags().String("log-level", "", "log level: debug, info, warn or error")
	_ = viper.BindPFlag("device.poll_interval", rootCmd.Flags().Lookup("poll-interval"))
	_ = viper.BindPFlag("log.level", rootCmd.Flags().Lookup("log-level"))
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Get()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	p, err := sim.OpenPTY()
	if err != nil {
		return err
	}
	defer p.Close()

	fmt.Fprintln(cmd.OutOrStdout(), p.Path)

	rx := &sim.Receiver{}
	tx := sim.NewTransmitter(logger.With("module", "tx"))

	dev := zemote.NewDevice(zemote.NewSerialQueue(p.Device), rx, tx, logger.With("module", "device"))
	dev.PollInterval = cfg.Device.PollInterval

	go func() {
		if err := sim.FeedFrames(ctx, cmd.InOrStdin(), rx, logger.With("module", "rx")); err != nil {
			logger.Error(
				"cannot read frames",
				"err", err)
		}
	}()

	logger.Info(
		"simulated device ready",
		"path", p.Path)

	if err := dev.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
