package tx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Marshal converts a transaction to its stored JSON text form.
// Every transaction has one, including the zero value.
// Uses json.Encoder with HTML escaping disabled so "<", ">" and "&" in
// params are stored verbatim.
func Marshal(t Transaction) (string, error) {
	// Params must encode as [] rather than null
	record := t
	if record.Params == nil {
		record.Params = []string{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(record); err != nil {
		return "", fmt.Errorf("marshal transaction: %w", err)
	}
	// Encoder adds a trailing newline
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Unmarshal parses stored JSON text into a transaction.
// Unknown fields and trailing data are rejected so a corrupt record is
// never silently read as a different transaction.
func Unmarshal(data string) (Transaction, error) {
	var t Transaction
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&t); err != nil {
		return Transaction{}, fmt.Errorf("unmarshal transaction: %w", err)
	}
	if dec.More() {
		return Transaction{}, fmt.Errorf("unmarshal transaction: trailing data after record")
	}
	if t.Params == nil {
		t.Params = []string{}
	}
	return t, nil
}
