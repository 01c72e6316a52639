package crosscheck

import (
	"context"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/roach88/testbench/internal/store"
	"github.com/roach88/testbench/internal/tx"
)

// Source is an ordered, restartable sequence of transactions.
// store.Log satisfies it.
type Source interface {
	Name() string
	Transactions(ctx context.Context) iter.Seq2[tx.Transaction, error]
}

// Options controls comparison output and strictness.
type Options struct {
	// Quiet suppresses the per-pair Same/Diff output.
	Quiet bool

	// Strict treats unpaired trailing entries as a mismatch.
	Strict bool

	// Out receives per-pair output. Defaults to io.Discard.
	Out io.Writer

	// Logger receives warnings. Defaults to a discard logger.
	Logger *slog.Logger
}

func (o Options) out() io.Writer {
	if o.Out == nil {
		return io.Discard
	}
	return o.Out
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// Compare pairs the transactions of a and b positionally and checks each pair
// for structural equality.
//
// The report is always returned when both sources could be read. The error is
// a *MismatchError if any pair differs (or, with Strict, if the lengths
// differ); any other error means a source could not be read or decoded.
//
// Only paired records are decoded. A corrupt record in the unpaired tail
// of the longer side is never read, so it cannot fail the comparison.
func Compare(ctx context.Context, a, b Source, opts Options) (*Report, error) {
	return compare(ctx, a.Name(), b.Name(), records(ctx, a), records(ctx, b), opts)
}

// CompareWithSlice is Compare with the right-hand side held in memory.
func CompareWithSlice(ctx context.Context, log Source, expected []tx.Transaction, opts Options) (*Report, error) {
	return compare(ctx, log.Name(), "baseline", records(ctx, log), decoded(sliceSeq(expected)), opts)
}

// record is a transaction decoded on demand.
type record func() (tx.Transaction, error)

// entrySource is implemented by store.Log. Its raw entries let compare
// defer decoding until a record is paired.
type entrySource interface {
	Entries(ctx context.Context) iter.Seq2[store.Entry, error]
}

func records(ctx context.Context, s Source) iter.Seq2[record, error] {
	es, ok := s.(entrySource)
	if !ok {
		return decoded(s.Transactions(ctx))
	}
	name := s.Name()
	return func(yield func(record, error) bool) {
		for e, err := range es.Entries(ctx) {
			if err != nil {
				yield(nil, err)
				return
			}
			rec := func() (tx.Transaction, error) { return store.DecodeEntry(name, e) }
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// decoded wraps an already decoded sequence.
func decoded(txs iter.Seq2[tx.Transaction, error]) iter.Seq2[record, error] {
	return func(yield func(record, error) bool) {
		for t, err := range txs {
			if err != nil {
				yield(nil, err)
				return
			}
			rec := func() (tx.Transaction, error) { return t, nil }
			if !yield(rec, nil) {
				return
			}
		}
	}
}

// SliceSource adapts an in-memory list to Source.
type SliceSource struct {
	Label string
	Txs   []tx.Transaction
}

// Name returns the label.
func (s SliceSource) Name() string {
	return s.Label
}

// Transactions yields the list in order.
func (s SliceSource) Transactions(context.Context) iter.Seq2[tx.Transaction, error] {
	return sliceSeq(s.Txs)
}

func sliceSeq(txs []tx.Transaction) iter.Seq2[tx.Transaction, error] {
	return func(yield func(tx.Transaction, error) bool) {
		for _, t := range slices.Clone(txs) {
			if !yield(t, nil) {
				return
			}
		}
	}
}

func compare(ctx context.Context, leftName, rightName string, left, right iter.Seq2[record, error], opts Options) (*Report, error) {
	nextLeft, stopLeft := iter.Pull2(left)
	defer stopLeft()
	nextRight, stopRight := iter.Pull2(right)
	defer stopRight()

	report := &Report{
		Left:   leftName,
		Right:  rightName,
		Pairs:  []Pair{},
		Strict: opts.Strict,
	}
	w := opts.out()

	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		lrec, err, ok := nextLeft()
		if err != nil {
			return nil, err
		}
		if !ok {
			// Left exhausted: check whether the right still had entries
			_, err, more := nextRight()
			if err != nil {
				return nil, err
			}
			if more {
				report.Unpaired = SideRight
			}
			break
		}

		rrec, err, ok := nextRight()
		if err != nil {
			return nil, err
		}
		if !ok {
			report.Unpaired = SideLeft
			break
		}

		l, err := lrec()
		if err != nil {
			return nil, err
		}
		r, err := rrec()
		if err != nil {
			return nil, err
		}

		pair := Pair{Index: i, Left: l, Right: r}
		if !tx.Equal(l, r) {
			pair.Diffs = tx.Diff(l, r)
		}
		report.Pairs = append(report.Pairs, pair)

		if !opts.Quiet {
			writePair(w, pair)
		}
	}

	if report.Unpaired != SideNone {
		opts.logger().Warn("trailing transactions not compared",
			"left", leftName,
			"right", rightName,
			"unpaired", string(report.Unpaired),
			"compared", len(report.Pairs),
			"strict", opts.Strict,
		)
	}

	if !report.OK() {
		return report, &MismatchError{Report: report}
	}
	return report, nil
}
