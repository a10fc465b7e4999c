package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/ManasPatni/log-aggregator/internal/store"
)

func main() {
	var (
		dbPath  = flag.String("db", "data/logwise.db", "path to the bolt database")
		outPath = flag.String("out", "logs.csv", "output CSV file")
	)
	flag.Parse()

	st, err := store.OpenBolt(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	f, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "create file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"id", "timestamp", "level", "message"}); err != nil {
		fmt.Fprintf(os.Stderr, "write header: %v\n", err)
		os.Exit(1)
	}

	recs, err := st.FetchAll(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch logs: %v\n", err)
		os.Exit(1)
	}
	for _, r := range recs {
		if err := w.Write([]string{strconv.FormatInt(r.ID, 10), r.Timestamp, r.Level, r.Message}); err != nil {
			fmt.Fprintf(os.Stderr, "write row: %v\n", err)
			os.Exit(1)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		fmt.Fprintf(os.Stderr, "finalize csv: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Exported %d logs to %s\n", len(recs), *outPath)
}
