package harness

import (
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/testbench/internal/tx"
)

// AssertBaselineGolden compares a captured baseline against a golden file.
// The baseline is rendered in the log wire form, one transaction per line.
// Golden files live in testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func AssertBaselineGolden(t *testing.T, name string, txs []tx.Transaction) {
	t.Helper()

	var b strings.Builder
	for _, t1 := range txs {
		line, err := tx.Marshal(t1)
		if err != nil {
			t.Fatalf("marshal baseline transaction: %v", err)
		}
		b.WriteString(line)
		b.WriteByte('\n')
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(b.String()))
}
