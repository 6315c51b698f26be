// Package jid provides chat participant addresses and the canonical pair key
// used to file a conversation in the archive.
//
// An address has the form [node@]domain[/resource]. The bare form drops the
// resource and identifies a participant independent of session.
package jid

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalid is returned by Parse for malformed addresses.
var ErrInvalid = errors.New("invalid address")

// pairSeparator joins the two bare addresses of a pair key.
const pairSeparator = "|"

// maxPartLen is the per-part limit for node, domain and resource.
const maxPartLen = 1023

// JID is a participant address. The zero value is the empty address and is
// treated as absent by every archive operation.
type JID string

// Parse validates s and returns it as a JID.
// The address is NFC normalized so that canonically equivalent spellings
// produce the same pair key.
func Parse(s string) (JID, error) {
	s = norm.NFC.String(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}

	node, domain, resource := split(s)
	if domain == "" {
		return "", fmt.Errorf("%w: %q has no domain", ErrInvalid, s)
	}
	if strings.Contains(s, "@") && node == "" {
		return "", fmt.Errorf("%w: %q has an empty node", ErrInvalid, s)
	}
	if strings.Contains(s, "/") && resource == "" {
		return "", fmt.Errorf("%w: %q has an empty resource", ErrInvalid, s)
	}
	for _, part := range []string{node, domain, resource} {
		if len(part) > maxPartLen {
			return "", fmt.Errorf("%w: %q part exceeds %d bytes", ErrInvalid, s, maxPartLen)
		}
	}
	if strings.IndexFunc(node+domain, unicode.IsSpace) >= 0 {
		return "", fmt.Errorf("%w: %q contains whitespace", ErrInvalid, s)
	}

	return JID(s), nil
}

// MustParse is like Parse but panics on error. Intended for tests and constants.
func MustParse(s string) JID {
	j, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return j
}

// IsZero reports whether j is the empty address.
func (j JID) IsZero() bool {
	return j == ""
}

// Node returns the part before '@', or "" if there is none.
func (j JID) Node() string {
	node, _, _ := split(string(j))
	return node
}

// Domain returns the server part.
func (j JID) Domain() string {
	_, domain, _ := split(string(j))
	return domain
}

// Resource returns the session qualifier after '/', or "".
func (j JID) Resource() string {
	_, _, resource := split(string(j))
	return resource
}

// Bare returns the address without its resource.
func (j JID) Bare() JID {
	if i := strings.IndexByte(string(j), '/'); i >= 0 {
		return j[:i]
	}
	return j
}

// UnmarshalText implements encoding.TextUnmarshaler so that addresses decoded
// from XML attributes are validated and normalized like Parse. An empty value
// decodes to the zero JID.
func (j *JID) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*j = ""
		return nil
	}
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*j = parsed
	return nil
}

// String implements fmt.Stringer.
func (j JID) String() string {
	return string(j)
}

// split breaks s into node, domain and resource. The resource may itself
// contain '@' and '/', so it is cut first.
func split(s string) (node, domain, resource string) {
	bare := s
	if i := strings.IndexByte(s, '/'); i >= 0 {
		bare, resource = s[:i], s[i+1:]
	}
	if i := strings.IndexByte(bare, '@'); i >= 0 {
		node, domain = bare[:i], bare[i+1:]
	} else {
		domain = bare
	}
	return node, domain, resource
}
