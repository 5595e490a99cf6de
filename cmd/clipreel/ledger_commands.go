package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"clipreel/internal/ledger"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect the processed-files ledger",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerCheckCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every source file already backed up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := readLedger(cfg.LedgerPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintf(out, "No clips recorded in %s\n", cfg.LedgerPath())
				return nil
			}

			rows := make([][]string, 0, len(entries))
			for i, entry := range entries {
				_, statErr := os.Stat(entry)
				rows = append(rows, []string{strconv.Itoa(i + 1), entry, yesNo(statErr == nil)})
			}
			fmt.Fprintln(out, renderTable([]string{"#", "Source", "On card"}, rows, []columnAlignment{alignRight, alignLeft, alignLeft}))
			fmt.Fprintf(out, "%d clips recorded in %s\n", len(entries), cfg.LedgerPath())
			return nil
		},
	}
}

func newLedgerCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check PATH",
		Short: "Report whether a source file has already been backed up",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			entries, err := readLedger(cfg.LedgerPath())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, entry := range entries {
				if entry == target {
					fmt.Fprintf(out, "%s: processed\n", target)
					return nil
				}
			}
			fmt.Fprintf(out, "%s: not processed\n", target)
			return nil
		},
	}
}

// readLedger loads ledger entries without creating the ledger file.
func readLedger(path string) ([]string, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat ledger: %w", err)
	}
	l, err := ledger.Open(path)
	if err != nil {
		return nil, err
	}
	defer l.Close()
	return l.Entries(), nil
}
