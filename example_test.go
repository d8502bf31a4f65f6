package barrace_test

import (
	"context"
	"fmt"
	"time"

	"github.com/davidvella/barrace"
	"github.com/davidvella/barrace/storage/memory"
	"github.com/davidvella/barrace/types"
)

// ExampleBuilder demonstrates ingesting records and building keyframes.
func ExampleBuilder() {
	ctx := context.Background()
	jan1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	b, err := barrace.NewBuilder(memory.NewMemoryStorage(), barrace.WithTopN(2))
	if err != nil {
		fmt.Printf("Failed to create builder: %v\n", err)
		return
	}

	err = b.Ingest(ctx,
		types.Record{Date: jan1, Name: "cpu", Value: 42},
		types.Record{Date: jan1, Name: "mem", Value: 17},
		types.Record{Date: jan1, Name: "disk", Value: 3},
		types.Record{Date: jan1.AddDate(0, 0, 1), Name: "mem", Value: 80},
	)
	if err != nil {
		fmt.Printf("Failed to ingest: %v\n", err)
		return
	}

	frames, err := b.Keyframes(ctx, time.Time{}, time.Time{})
	if err != nil {
		fmt.Printf("Failed to build keyframes: %v\n", err)
		return
	}

	for _, f := range frames {
		for _, r := range f.Records {
			fmt.Printf("%s #%d %s %v\n", f.Date.Format("2006-01-02"), r.RankOr(-1), r.Name, r.Value)
		}
	}

	// Output:
	// 2024-01-01 #0 cpu 42
	// 2024-01-01 #1 mem 17
	// 2024-01-02 #0 mem 80
	// 2024-01-02 #1 cpu 42
}
