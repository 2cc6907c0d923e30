package backend

import (
	"fmt"
	"strings"
)

// symbolicPrefix marks a stored symbolic reference.
const symbolicPrefix = "ref: "

// ReferenceType distinguishes direct from symbolic references.
type ReferenceType int

const (
	ReferenceOID ReferenceType = iota + 1
	ReferenceSymbolic
)

func (t ReferenceType) String() string {
	switch t {
	case ReferenceOID:
		return "oid"
	case ReferenceSymbolic:
		return "symbolic"
	default:
		return "invalid"
	}
}

// Reference is a named pointer to an object or to another reference.
type Reference struct {
	Name string
	Type ReferenceType

	// Target is set for ReferenceOID.
	Target OID
	// SymbolicTarget is set for ReferenceSymbolic.
	SymbolicTarget string
}

// NewOIDReference returns a direct reference.
func NewOIDReference(name string, target OID) *Reference {
	return &Reference{Name: name, Type: ReferenceOID, Target: target}
}

// NewSymbolicReference returns a reference to another reference.
func NewSymbolicReference(name, target string) *Reference {
	return &Reference{Name: name, Type: ReferenceSymbolic, SymbolicTarget: target}
}

// TargetString is the object id or symbolic target as text.
func (r *Reference) TargetString() string {
	if r.Type == ReferenceSymbolic {
		return r.SymbolicTarget
	}
	return r.Target.String()
}

func (r *Reference) String() string {
	return r.Name + " -> " + r.TargetString()
}

// encode returns the stored column value.
func (r *Reference) encode() (string, error) {
	switch r.Type {
	case ReferenceOID:
		return r.Target.String(), nil
	case ReferenceSymbolic:
		if r.SymbolicTarget == "" {
			return "", fmt.Errorf("symbolic reference %q has no target", r.Name)
		}
		return symbolicPrefix + r.SymbolicTarget, nil
	default:
		return "", fmt.Errorf("reference %q has invalid type %d", r.Name, r.Type)
	}
}

// decodeReference parses a stored value. An object id must be exactly 40 hex
// characters, optionally followed by whitespace and anything after it.
func decodeReference(name, raw string) (*Reference, error) {
	if target, ok := strings.CutPrefix(raw, symbolicPrefix); ok {
		return NewSymbolicReference(name, target), nil
	}

	if len(raw) < OIDHexSize {
		return nil, fmt.Errorf("%w: %q", ErrCorrupted, name)
	}
	if len(raw) > OIDHexSize && !isSpace(raw[OIDHexSize]) {
		return nil, fmt.Errorf("%w: %q", ErrCorrupted, name)
	}

	oid, err := ParseOID(raw[:OIDHexSize])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrCorrupted, name)
	}
	return NewOIDReference(name, oid), nil
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
