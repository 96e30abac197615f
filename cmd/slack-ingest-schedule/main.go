package main

import (
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	ingest "github.com/slacklake/slack-ingest"
)

func main() {
	runner := flag.String("runner", "slack-ingest", "Fetch runner command invoked by the generated script")
	output := flag.StringP("output", "o", ingest.ScriptFileName, "Path of the generated shell script")
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: slack-ingest-schedule [flags] <start-date> <end-date>")
		fmt.Fprintln(os.Stderr, "dates are YYYY-MM-DD, start-date <= end-date, both inclusive")
		os.Exit(2)
	}

	days, err := ingest.BuildSchedule(args[0], args[1], time.Local)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := ingest.WriteScript(*output, days, *runner); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d invocations)\n", *output, len(days))
}
