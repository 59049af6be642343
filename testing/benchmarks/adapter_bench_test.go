package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/zoobzio/sluice"
	sluicetest "github.com/zoobzio/sluice/testing"
)

type benchConfig struct {
	Value int    `json:"value" validate:"min=0"`
	Name  string `json:"name" validate:"required"`
}

func BenchmarkFingerprint_Equal(b *testing.B) {
	prev := sluice.Compute(sluice.Row{"last_modified": int64(1), "data": map[string]any{"a": 1}})
	next := sluice.Compute(sluice.Row{"last_modified": int64(1), "data": map[string]any{"a": 1}})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if !prev.Equal(next) {
			b.Fatal("expected equal fingerprints")
		}
	}
}

func BenchmarkChain_Decode(b *testing.B) {
	chain := sluice.NewChain(sluice.Decode[benchConfig]("data", sluice.JSONCodec{}))
	rows := sluice.RowSet{{"data": `{"value": 1, "name": "bench"}`}}
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := chain.Apply(ctx, rows); err != nil {
			b.Fatalf("Apply() error = %v", err)
		}
	}
}

func BenchmarkAdapter_Load(b *testing.B) {
	d := sluicetest.NewFakeDialer()
	d.Set("load", sluice.RowSet{{"data": `{"value": 1, "name": "bench"}`}})
	adapter := sluice.New(d, sluice.Config{URL: "fake://", Query: "load"},
		sluice.Decode[benchConfig]("data", sluice.JSONCodec{}))
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, _, err := adapter.Load(ctx, nil); err != nil {
			b.Fatalf("Load() error = %v", err)
		}
	}
}

func BenchmarkAdapter_LoadRowCounts(b *testing.B) {
	for _, n := range []int{1, 100, 10000} {
		b.Run(fmt.Sprintf("rows=%d", n), func(b *testing.B) {
			rows := make(sluice.RowSet, n)
			for i := range rows {
				rows[i] = sluice.Row{"key": i, "value": "v"}
			}
			d := sluicetest.NewFakeDialer()
			d.Set("load", rows)
			adapter := sluice.New(d, sluice.Config{URL: "fake://", Query: "load"})
			ctx := context.Background()

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, _, err := adapter.Load(ctx, nil); err != nil {
					b.Fatalf("Load() error = %v", err)
				}
			}
		})
	}
}
