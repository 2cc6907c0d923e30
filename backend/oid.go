package backend

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

const (
	// OIDSize is the size of a raw object id.
	OIDSize = sha1.Size
	// OIDHexSize is the length of a hex encoded object id.
	OIDHexSize = OIDSize * 2
	// MinPrefixLen is the shortest prefix ReadPrefix accepts.
	MinPrefixLen = 4
)

// OID is a SHA-1 object id.
type OID [OIDSize]byte

// ParseOID parses a 40 character hex object id.
func ParseOID(s string) (OID, error) {
	var oid OID
	if len(s) != OIDHexSize {
		return oid, fmt.Errorf("%w: %q", ErrInvalidOID, s)
	}
	if _, err := hex.Decode(oid[:], []byte(s)); err != nil {
		return oid, fmt.Errorf("%w: %q", ErrInvalidOID, s)
	}
	return oid, nil
}

// String returns the lowercase hex form.
func (o OID) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero reports whether every byte is zero.
func (o OID) IsZero() bool {
	return o == OID{}
}

// HashObject computes the id git assigns to an object: the SHA-1 of
// "<type> <size>\x00" followed by the data.
func HashObject(t ObjectType, data []byte) OID {
	h := sha1.New()
	h.Write([]byte(t.String()))
	h.Write([]byte{' '})
	h.Write([]byte(strconv.Itoa(len(data))))
	h.Write([]byte{0})
	h.Write(data)

	var oid OID
	copy(oid[:], h.Sum(nil))
	return oid
}

// normalizePrefix lowercases a hex prefix and validates it.
func normalizePrefix(prefix string) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if len(prefix) < MinPrefixLen || len(prefix) > OIDHexSize {
		return "", fmt.Errorf("%w: prefix %q must be %d to %d characters", ErrInvalidOID, prefix, MinPrefixLen, OIDHexSize)
	}
	for _, r := range prefix {
		if !isHexDigit(r) {
			return "", fmt.Errorf("%w: prefix %q is not hex", ErrInvalidOID, prefix)
		}
	}
	return prefix, nil
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}
