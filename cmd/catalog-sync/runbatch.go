package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runBatchMaxItems int

var runBatchCmd = &cobra.Command{
	Use:   "run-batch",
	Short: "Claim and push one batch of queued changes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(),
			syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		rr, err := a.runner.Run(ctx, runBatchMaxItems)
		if err != nil {
			return err
		}

		if rr.Skipped {
			fmt.Println("skipped:", rr.SkipReason)
			return nil
		}

		if rr.Result != nil {
			fmt.Println(rr.Result.Message())
		}

		return nil
	},
}

func init() {
	runBatchCmd.Flags().IntVar(&runBatchMaxItems, "max-items", 0,
		"maximum queue items to claim, 0 uses the configured batch size")
	rootCmd.AddCommand(runBatchCmd)
}
