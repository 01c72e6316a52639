package harness

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"

	"github.com/roach88/testbench/internal/tx"
)

//go:embed schema.cue
var schemaCUE string

// ErrInvalidSequence is wrapped by every descriptor validation failure.
var ErrInvalidSequence = errors.New("invalid sequence")

// Sequence is a declarative equivalence test case.
type Sequence struct {
	// Commands are executed strictly in order, each to completion.
	Commands []Command `yaml:"commands" json:"commands"`

	// TxStores names the logs to inspect after the commands have run.
	// Order defines the adjacent pairs cross-checked by Record and the
	// log the baseline is captured from (the first).
	TxStores []string `yaml:"tx_stores" json:"tx_stores"`

	// ExpectedTxs is the accepted baseline. Written by Record, read by Run.
	ExpectedTxs []tx.Transaction `yaml:"expected_txs" json:"expected_txs"`
}

// Command is a program name followed by its arguments.
type Command []string

// MarshalYAML renders the command in flow style: [program, arg, ...].
func (c Command) MarshalYAML() (interface{}, error) {
	var n yaml.Node
	if err := n.Encode([]string(c)); err != nil {
		return nil, err
	}
	n.Style = yaml.FlowStyle
	return &n, nil
}

// NewSequence returns an empty sequence.
func NewSequence() *Sequence {
	return &Sequence{
		Commands:    []Command{},
		TxStores:    []string{},
		ExpectedTxs: []tx.Transaction{},
	}
}

// LoadSequence reads, parses and validates a sequence descriptor.
// Unknown fields are rejected (catches typos like "tx_store:").
func LoadSequence(path string) (*Sequence, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence file: %w", err)
	}

	seq, err := ParseSequence(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return seq, nil
}

// ParseSequence decodes and validates a YAML descriptor.
func ParseSequence(data []byte) (*Sequence, error) {
	var seq Sequence
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&seq); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: descriptor is empty", ErrInvalidSequence)
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	seq.normalize()
	if err := seq.Validate(); err != nil {
		return nil, err
	}
	return &seq, nil
}

// Marshal renders the sequence as YAML.
func (s *Sequence) Marshal() ([]byte, error) {
	out := s.clone()
	out.normalize()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("failed to marshal sequence: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to marshal sequence: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the sequence to path, replacing the file atomically.
func (s *Sequence) Save(path string) error {
	data, err := s.Marshal()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".sequence-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write sequence file: %w", err)
	}
	return nil
}

// Validate checks the sequence against the descriptor schema.
func (s *Sequence) Validate() error {
	v := s.clone()
	v.normalize()

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile sequence schema: %w", err)
	}

	value := ctx.Encode(v)
	if err := value.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSequence, err)
	}

	if err := schema.Unify(value).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSequence, cueerrors.Details(err, nil))
	}
	return nil
}

// normalize replaces nil lists with empty ones so the schema and the
// persisted form never see null.
func (s *Sequence) normalize() {
	if s.Commands == nil {
		s.Commands = []Command{}
	}
	for i, c := range s.Commands {
		if c == nil {
			s.Commands[i] = Command{}
		}
	}
	if s.TxStores == nil {
		s.TxStores = []string{}
	}
	if s.ExpectedTxs == nil {
		s.ExpectedTxs = []tx.Transaction{}
	}
	for i := range s.ExpectedTxs {
		if s.ExpectedTxs[i].Params == nil {
			s.ExpectedTxs[i].Params = []string{}
		}
	}
}

func (s *Sequence) clone() *Sequence {
	out := &Sequence{}
	if s.Commands != nil {
		out.Commands = make([]Command, len(s.Commands))
		for i, c := range s.Commands {
			if c != nil {
				out.Commands[i] = append(Command{}, c...)
			}
		}
	}
	if s.TxStores != nil {
		out.TxStores = append([]string{}, s.TxStores...)
	}
	if s.ExpectedTxs != nil {
		out.ExpectedTxs = make([]tx.Transaction, len(s.ExpectedTxs))
		for i, t := range s.ExpectedTxs {
			out.ExpectedTxs[i] = tx.Transaction{Kind: t.Kind}
			if t.Params != nil {
				out.ExpectedTxs[i].Params = append([]string{}, t.Params...)
			}
		}
	}
	return out
}
