package crosscheck

import (
	"fmt"
	"io"

	"github.com/roach88/testbench/internal/tx"
)

// Side identifies which operand of a comparison had unpaired trailing entries.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Pair is the result of comparing the transactions at one position.
type Pair struct {
	Index int            `json:"index"`
	Left  tx.Transaction `json:"left"`
	Right tx.Transaction `json:"right"`
	Diffs []tx.FieldDiff `json:"diffs,omitempty"`
}

// Same reports whether both sides matched.
func (p Pair) Same() bool {
	return len(p.Diffs) == 0
}

// Report is the outcome of one comparison.
type Report struct {
	Left  string `json:"left"`
	Right string `json:"right"`
	Pairs []Pair `json:"pairs"`

	// Unpaired names the side that still had entries when the other ran out.
	Unpaired Side `json:"unpaired,omitempty"`

	// Strict is true when unpaired entries count as a mismatch.
	Strict bool `json:"strict,omitempty"`
}

// Mismatches returns the pairs that differ.
func (r *Report) Mismatches() []Pair {
	var out []Pair
	for _, p := range r.Pairs {
		if !p.Same() {
			out = append(out, p)
		}
	}
	return out
}

// OK reports whether the comparison passed.
func (r *Report) OK() bool {
	if r.Strict && r.Unpaired != SideNone {
		return false
	}
	return len(r.Mismatches()) == 0
}

// MismatchError is returned when compared sequences diverge.
// It carries the full report so callers can render every difference.
type MismatchError struct {
	Report *Report
}

func (e *MismatchError) Error() string {
	r := e.Report
	n := len(r.Mismatches())
	msg := fmt.Sprintf("mismatch detected: %s vs %s: %d of %d compared transactions differ", r.Left, r.Right, n, len(r.Pairs))
	if r.Strict && r.Unpaired != SideNone {
		msg += fmt.Sprintf(" (%s side has unpaired trailing transactions)", r.Unpaired)
	}
	return msg
}

// writePair renders one pair as
//
//	Same #0: init()
//	Diff #1: get("a") != get("b")
//	    params[0]: "a" != "b"
func writePair(w io.Writer, p Pair) {
	if p.Same() {
		fmt.Fprintf(w, "Same #%d: %s\n", p.Index, p.Left)
		return
	}
	fmt.Fprintf(w, "Diff #%d: %s != %s\n", p.Index, p.Left, p.Right)
	for _, d := range p.Diffs {
		fmt.Fprintf(w, "    %s\n", d)
	}
}

// WriteText renders the full report in the same format as the live output.
func (r *Report) WriteText(w io.Writer) {
	fmt.Fprintf(w, "--- %s\n+++ %s\n", r.Left, r.Right)
	for _, p := range r.Pairs {
		writePair(w, p)
	}
	if r.Unpaired != SideNone {
		fmt.Fprintf(w, "Unpaired: %s side has trailing transactions that were not compared\n", r.Unpaired)
	}
}
