// Package delim picks a byte value suitable for use as a separator between
// argument tokens, given the bytes that must be avoided.
package delim

import "errors"

// ErrNoDelimiter is returned when every byte value 0-255 has been excluded
// and no delimiter remains available.
var ErrNoDelimiter = errors.New("delim: no delimiter byte available")

// Finder tracks which byte values 0-255 are still eligible to serve as a
// delimiter. It starts with every byte eligible and narrows as callers
// exclude bytes observed in token data.
type Finder struct {
	eligible [256]bool
	count    int
}

// NewFinder returns a Finder with the full 0-255 range eligible.
func NewFinder() *Finder {
	f := &Finder{}
	for i := range f.eligible {
		f.eligible[i] = true
	}
	f.count = 256
	return f
}

// Exclude removes every byte present in data from the eligibility set. It
// returns ErrNoDelimiter if doing so would leave no eligible byte.
func (f *Finder) Exclude(data []byte) error {
	seen := map[byte]bool{}
	for _, b := range data {
		if seen[b] {
			continue
		}
		seen[b] = true
		if f.eligible[b] {
			f.eligible[b] = false
			f.count--
		}
	}
	if f.count == 0 {
		return ErrNoDelimiter
	}
	return nil
}

// Pick returns an eligible byte. The choice among eligible bytes is
// unspecified beyond "a member of the eligibility set"; callers must not
// depend on a particular value being returned.
func (f *Finder) Pick() (byte, error) {
	return f.Current()
}

// Current peeks at an eligible byte without consuming or otherwise mutating
// the eligibility set.
func (f *Finder) Current() (byte, error) {
	for i := 0; i < 256; i++ {
		if f.eligible[i] {
			return byte(i), nil
		}
	}
	return 0, ErrNoDelimiter
}

// Clone returns an independent copy of f's eligibility set, used when a
// global finder must be replayed into per-bucket finders.
func (f *Finder) Clone() *Finder {
	clone := &Finder{eligible: f.eligible, count: f.count}
	return clone
}
