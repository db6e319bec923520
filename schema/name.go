package schema

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

const (
	minNameLength = 3
	maxNameLength = 63
)

// ErrInvalidName indicates a collection name that the stores refuse.
var ErrInvalidName = errors.New("invalid collection name")

// ValidateName checks a collection name: 3-63 characters of [A-Za-z0-9._-],
// starting and ending with an alphanumeric character, without "..",
// and not an IPv4 address.
func ValidateName(name string) error {
	if len(name) < minNameLength || len(name) > maxNameLength {
		return fmt.Errorf("%w %q: length must be between %d and %d", ErrInvalidName, name, minNameLength, maxNameLength)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if isAlphaNum(c) || c == '_' || c == '-' || c == '.' {
			continue
		}
		return fmt.Errorf("%w %q: unexpected character %q", ErrInvalidName, name, c)
	}
	if !isAlphaNum(name[0]) || !isAlphaNum(name[len(name)-1]) {
		return fmt.Errorf("%w %q: must start and end with a letter or digit", ErrInvalidName, name)
	}
	if strings.Contains(name, "..") {
		return fmt.Errorf("%w %q: consecutive periods", ErrInvalidName, name)
	}
	if ip := net.ParseIP(name); ip != nil && ip.To4() != nil {
		return fmt.Errorf("%w %q: must not be an IPv4 address", ErrInvalidName, name)
	}
	return nil
}

func isAlphaNum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
