package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/wellness360/internal/server"
)

var queueFailedLimit int

// wellness queue:failed
var queueFailedCmd = &cobra.Command{
	Use:   "queue:failed",
	Short: "List jobs that exhausted their attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		rt, err := server.Boot(ctx)
		if err != nil {
			return err
		}
		defer rt.Close(ctx)

		jobs, err := rt.Queue.Failed(ctx, queueFailedLimit)
		if err != nil {
			return err
		}
		if len(jobs) == 0 {
			fmt.Println("No failed jobs.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "ID\tFAILED AT\tTYPE\tERROR")
		for _, j := range jobs {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", j.ID, j.FailedAt.Format("2006-01-02 15:04:05"), j.JobType, j.Error)
		}
		return w.Flush()
	},
}

func init() {
	queueFailedCmd.Flags().IntVarP(&queueFailedLimit, "limit", "n", 20, "Number of failures to show")
}
