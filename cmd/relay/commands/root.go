package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/uniyakcom/relay/config"
	"github.com/uniyakcom/relay/logging"
)

const cliExecutable = "relay"

// app 子命令共享的运行时状态，由 PersistentPreRunE 填充
type app struct {
	configFile string
	cfg        config.Config
}

// NewCommand 构造顶层 relay 命令
func NewCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   cliExecutable,
		Short: "relay runs callbacks on the worker goroutine that owns their state",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := logging.Configure(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
				return fmt.Errorf("configure logging: %w", err)
			}
			a.cfg = cfg
			return nil
		},
	}

	cmd.SilenceUsage = true

	cmd.PersistentFlags().StringVarP(&a.configFile, "config", "c", "", "Configuration file path (YAML)")
	config.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newSelftestCommand(a))
	cmd.AddCommand(newConfigCommand(a))
	cmd.AddCommand(newVersionCommand())

	return cmd
}
