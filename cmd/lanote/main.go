package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"codeberg.org/snonux/lanote/internal/cli"
	"codeberg.org/snonux/lanote/internal/processor"
)

func main() {
	flags := cli.NewFlags()

	rootCmd := cli.CreateRootCommand(flags, func(cmd *cobra.Command) (cli.Runner, error) {
		return newRunner(cmd, flags)
	})

	cobra.OnInitialize(func() {
		cli.InitConfig(flags.CfgFile)
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRunner(cmd *cobra.Command, flags *cli.Flags) (cli.Runner, error) {
	logger := cli.NewLogger(viper.GetString("log.level"), viper.GetString("log.format"), os.Stderr)

	cfg, err := processor.LoadConfig()
	if err != nil {
		return nil, err
	}

	return processor.NewProcessor(cmd.Context(), flags, cfg, logger, processor.Options{
		In:  cmd.InOrStdin(),
		Out: cmd.OutOrStdout(),
	})
}
