package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"trending_etl/internal/config"
	"trending_etl/internal/quality"
)

var outputDir = flag.String("output-dir", config.Default().OutputDir, "directory holding the written <table>.csv files")

func main() {
	flag.Parse()

	results, err := quality.CheckDir(*outputDir)
	if err != nil {
		fatalf("check %s: %v", *outputDir, err)
	}
	if failed := printResults(os.Stdout, results); failed > 0 {
		os.Exit(1)
	}
}

// printResults writes one line per check and a totals line. It returns
// the number of failed checks.
func printResults(w io.Writer, results []quality.Result) int {
	var checks, passed, failed int
	for _, r := range results {
		if r.Missing {
			fmt.Fprintf(w, "%s: missing, skipped\n", r.Table)
			continue
		}
		fmt.Fprintf(w, "%s: primary key %s\n", r.Table, verdict(r.KeyErr))
		fmt.Fprintf(w, "%s: duplicate rows %s\n", r.Table, verdict(r.DuplicateErr))
		checks += 2
		passed += r.Passed()
		failed += r.Failed()
	}
	fmt.Fprintf(w, "checks: %d, successful: %d, failed: %d\n", checks, passed, failed)
	return failed
}

func verdict(err error) string {
	if err == nil {
		return "PASS"
	}
	return "FAIL (" + err.Error() + ")"
}

func fatalf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}
