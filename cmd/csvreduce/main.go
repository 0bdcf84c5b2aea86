// Command csvreduce keeps the top-K rows of a CSV file ranked by the last
// column, optionally adds a totals row and rescales every numeric cell.
//
//	csvreduce -i sales.csv -l 25 -d 1000 > top.csv
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	// register all history backends with the storage factory.
	_ "csvreduce/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
