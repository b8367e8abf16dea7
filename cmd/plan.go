package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilianp07/powerplan/api/productionplan"
	"github.com/kilianp07/powerplan/config"
	"github.com/kilianp07/powerplan/core/dispatch"
	"github.com/kilianp07/powerplan/pkg/export"
)

var (
	planFile     string
	planStrategy string
	planFormat   string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute the production plan of a payload file",
	RunE:  planPayload,
}

var strategiesCmd = &cobra.Command{
	Use:   "strategies",
	Short: "List the available dispatch strategies",
	RunE: func(cmd *cobra.Command, _ []string) error {
		for _, s := range dispatch.Strategies() {
			fmt.Fprintln(cmd.OutOrStdout(), s)
		}
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "-", "payload file, - reads stdin")
	planCmd.Flags().StringVar(&planStrategy, "strategy", "", "dispatch strategy overriding the configuration")
	planCmd.Flags().StringVar(&planFormat, "format", export.FormatJSON, "output format: json or csv")
	rootCmd.AddCommand(planCmd, strategiesCmd)
}

func planPayload(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	strategy := cfg.Dispatch.Strategy
	if planStrategy != "" && planStrategy != strategy.Type {
		strategy = dispatch.StrategyConfig{Type: planStrategy}
	}
	d, err := dispatch.NewDispatcher(strategy)
	if err != nil {
		return err
	}
	manager, err := dispatch.NewPlanManager(d, nil, nil, nil)
	if err != nil {
		return err
	}
	defer manager.Close()

	var in io.Reader = cmd.InOrStdin()
	if planFile != "-" {
		f, err := os.Open(planFile)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	req, err := productionplan.DecodeRequest(in)
	if err != nil {
		var apiErr *productionplan.Error
		if errors.As(err, &apiErr) && len(apiErr.Detail) > 0 {
			enc := json.NewEncoder(cmd.ErrOrStderr())
			enc.SetIndent("", "  ")
			_ = enc.Encode(apiErr.Detail)
		}
		return err
	}
	rec, err := manager.Plan(context.Background(), req)
	if err != nil {
		return err
	}
	return export.Write(cmd.OutOrStdout(), planFormat, rec)
}
