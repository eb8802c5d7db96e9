package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/b3nj5m1n/pfui/internal/config"
	"github.com/b3nj5m1n/pfui/internal/emit"
	"github.com/b3nj5m1n/pfui/internal/monitor"
	"github.com/b3nj5m1n/pfui/internal/sysutil"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newStartCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a module",
	}
	cmd.AddCommand(newDisksCommand(config.NewLoader(afero.NewOsFs())))
	return cmd
}

func newDisksCommand(loader *config.Loader) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "disks",
		Short: "Report removable drives and where they are mounted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loader.Load(cfgFile)
			if err != nil {
				return err
			}
			return runDisks(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/pfui/pfui.yaml)")
	cmd.Flags().String("log-level", "info", "diagnostic level: debug, info, warn or error")
	_ = loader.Viper().BindPFlag("log.level", cmd.Flags().Lookup("log-level"))
	return cmd
}

func runDisks(ctx context.Context, cfg *config.Config) error {
	if err := sysutil.InitLogger(cfg.Log); err != nil {
		return fmt.Errorf("failed to init logger: %w", err)
	}
	defer sysutil.Log.Sync()

	if cfg.ConfigPath != "" {
		sysutil.LogSugar.Debugf("Using config file %s", cfg.ConfigPath)
	}

	mon, err := monitor.Open(cfg, emit.New(os.Stdout), sysutil.L())
	if err != nil {
		return err
	}
	defer mon.Close()

	sysutil.Log.Info("💾 Disk monitor starting",
		zap.String("devices", cfg.DeviceDir),
		zap.String("mounts", cfg.MountRoot),
		zap.String("backend", cfg.WatchBackend),
		zap.String("table", cfg.MountTable),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- mon.Run(ctx)
	}()

	// 捕获操作系统信号
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		sysutil.Log.Info("Shutting down...", zap.Stringer("signal", sig))
		return nil
	}
}
