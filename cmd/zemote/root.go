package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"libdb.so/go-zemote/host"
	"libdb.so/go-zemote/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "zemote",
	Short: "Program and test a zemote learning remote",
	Long: `zemote talks to a zemote learning remote over its serial port. It can
teach a button the codes of another remote, list what every button holds
and play a button back.`,
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/zemote/config.yaml)")
	rootCmd.PersistentFlags().StringP("port", "p", "", "serial port of the device")
	rootCmd.PersistentFlags().IntP("baud", "b", 0, "baud rate of the serial port, 0 keeps the current speed (default 9600)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("serial.port", rootCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("serial.baud", rootCmd.PersistentFlags().Lookup("baud"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(learnCmd, testCmd, listCmd, infoCmd)
}

func initConfig() {
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("ZEMOTE")
	// e.g. ZEMOTE_SERIAL_PORT for serial.port
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// A missing config file is fine.
	_ = viper.ReadInConfig()
}

// withConnection connects to the configured device, runs fn and disconnects.
func withConnection(ctx context.Context, fn func(context.Context, *host.Connection, *slog.Logger) error) error {
	cfg, err := config.Get()
	if err != nil {
		return err
	}
	logger := cfg.Logger()

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	conn := host.NewSerial(cfg.Serial.Port, cfg.Serial.Baud)

	errCh := make(chan error, 1)
	go func() {
		err := conn.Start(ctx, logger.With("port", cfg.Serial.Port, "baud", cfg.Serial.Baud))
		cancel(err)
		errCh <- err
	}()

	fnErr := fn(ctx, conn, logger)
	if fnErr != nil {
		if cause := context.Cause(ctx); cause != nil && cause != context.Canceled {
			fnErr = fmt.Errorf("%w (connection: %v)", fnErr, cause)
		}
	}

	cancel(nil)
	<-errCh
	return fnErr
}
