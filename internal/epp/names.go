package epp

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// ValidateName checks that name is a syntactically valid DNS name with at
// least two labels. A trailing dot is rejected: EPP names are relative.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidParameter)
	}
	if strings.HasSuffix(name, ".") {
		return fmt.Errorf("%w: %q must not end with a dot", ErrInvalidParameter, name)
	}
	labels, ok := dns.IsDomainName(name)
	if !ok {
		return fmt.Errorf("%w: %q is not a valid domain name", ErrInvalidParameter, name)
	}
	if labels < 2 {
		return fmt.Errorf("%w: %q needs at least two labels", ErrInvalidParameter, name)
	}
	return nil
}

// ValidateNames applies ValidateName to every entry and rejects an empty
// list.
func ValidateNames(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("%w: no names given", ErrInvalidParameter)
	}
	for _, n := range names {
		if err := ValidateName(n); err != nil {
			return err
		}
	}
	return nil
}

// Rekey renames the entries of c whose key matches a queried name
// case-insensitively so callers can index by what they asked for.
func (c CheckResults) Rekey(queried []string) CheckResults {
	out := make(CheckResults, len(c))
	for k, v := range c {
		out[k] = v
	}
	for _, q := range queried {
		if _, ok := out[q]; ok {
			continue
		}
		for k, v := range out {
			if strings.EqualFold(k, q) {
				delete(out, k)
				out[q] = v
				break
			}
		}
	}
	return out
}
