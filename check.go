package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nstehr/abilityc/sandbox"
)

var checkCmd = &cobra.Command{
	Use:   "check script.yaml [script.yaml...]",
	Short: "Run scripts through the sandbox",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			raw, err := os.ReadFile(path)
			if err == nil {
				err = sandbox.Check(string(raw))
			}
			if err != nil {
				failed++
				fmt.Fprintf(cmd.OutOrStdout(), "FAIL %s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok   %s\n", path)
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scripts failed", failed, len(args))
		}
		return nil
	},
}
