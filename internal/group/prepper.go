// Package group buckets argument tokens by a caller-supplied key and tracks,
// per bucket, which byte values remain eligible to serve as a delimiter.
package group

import (
	"fmt"

	"github.com/jlrickert/xargs-groupby/internal/delim"
	"github.com/jlrickert/xargs-groupby/internal/errs"
)

// GroupFunc maps a text token to a group key. It may return an error, which
// Prepper wraps as errs.UserExpressionRuntimeError.
type GroupFunc func(token string) (any, error)

// Bucket is the ordered, encoded token sequence sharing a group key. Once
// ingest completes a Bucket is never mutated again.
type Bucket struct {
	Key    any
	Tokens [][]byte

	finder *delim.Finder // non-nil only once per-bucket mode has started
}

// Prepper buckets tokens by key and selects a delimiter byte for each
// bucket.
//
// Two exclusive modes, chosen at construction:
//
//   - Fixed-delimiter mode (fixedDelim != nil): Delimiter always returns
//     the supplied byte. Token bytes are not validated against it — the
//     tokenizer is trusted to have already split on this byte, preserving
//     the upstream tool's original, intentionally unvalidated behavior.
//   - Auto-delimiter mode (fixedDelim == nil): starts with a single global
//     delim.Finder shared by all buckets. Once the global finder is
//     exhausted, Prepper lazily materializes a finder per bucket (replaying
//     each bucket's recorded bytes) and continues narrowing independently
//     per bucket.
type Prepper struct {
	groupFn    GroupFunc
	fixedDelim *byte

	order   []any
	buckets map[any]*Bucket

	global    *delim.Finder
	perBucket bool
}

// NewPrepper constructs a Prepper. fixedDelim may be nil to select
// auto-delimiter mode.
func NewPrepper(groupFn GroupFunc, fixedDelim *byte) *Prepper {
	return &Prepper{
		groupFn:    groupFn,
		fixedDelim: fixedDelim,
		buckets:    make(map[any]*Bucket),
		global:     delim.NewFinder(),
	}
}

// Add encodes token, evaluates the group key, and appends the encoded bytes
// to that key's bucket. It returns errs.UserExpressionRuntimeError if the
// grouping callable fails, or errs.UserArgumentsError if a bucket's
// eligibility set is exhausted in auto-delimiter mode.
func (p *Prepper) Add(token string) error {
	key, err := p.groupFn(token)
	if err != nil {
		return errs.NewUserExpressionRuntimeError(token, err)
	}

	encoded := []byte(token)
	b := p.getOrCreateBucket(key)
	b.Tokens = append(b.Tokens, encoded)

	if p.fixedDelim != nil {
		return nil
	}

	if !p.perBucket {
		if err := p.global.Exclude(encoded); err == nil {
			return nil
		}
		p.enterPerBucketMode()
	}

	if err := b.finder.Exclude(encoded); err != nil {
		return errs.NewUserArgumentsError("group arguments use all bytes")
	}
	return nil
}

// enterPerBucketMode materializes a per-bucket finder for every existing
// bucket by replaying its recorded bytes, then marks auto-delimiter
// selection as per-bucket going forward.
func (p *Prepper) enterPerBucketMode() {
	for _, key := range p.order {
		b := p.buckets[key]
		if b.finder != nil {
			continue
		}
		f := delim.NewFinder()
		for _, tok := range b.Tokens {
			// Exhaustion here is not reported: only the bucket that received
			// the current token can be left with no eligible byte, and Add's
			// own Exclude call on that bucket then returns the error.
			_ = f.Exclude(tok)
		}
		b.finder = f
	}
	p.perBucket = true
}

func (p *Prepper) getOrCreateBucket(key any) *Bucket {
	b, ok := p.buckets[key]
	if !ok {
		b = &Bucket{Key: key}
		p.buckets[key] = b
		p.order = append(p.order, key)
	}
	return b
}

// Keys returns the group keys in insertion order.
func (p *Prepper) Keys() []any {
	out := make([]any, len(p.order))
	copy(out, p.order)
	return out
}

// Bucket returns the bucket for key, or false if no token was ever added
// under that key.
func (p *Prepper) Bucket(key any) (*Bucket, bool) {
	b, ok := p.buckets[key]
	return b, ok
}

// Count returns the number of distinct buckets.
func (p *Prepper) Count() int {
	return len(p.order)
}

// Delimiter returns the chosen delimiter byte for key: the fixed delimiter
// if configured, the global auto-chosen byte before per-bucket mode starts,
// or the bucket's own byte once per-bucket mode has started.
//
// Delimiter requires a known key once per-bucket mode has started; calling
// it with an unrecognized key in that mode is an error.
func (p *Prepper) Delimiter(key any) (byte, error) {
	if p.fixedDelim != nil {
		return *p.fixedDelim, nil
	}
	if !p.perBucket {
		return p.global.Current()
	}
	b, ok := p.buckets[key]
	if !ok || b.finder == nil {
		return 0, fmt.Errorf("group: delimiter requires a known bucket key in per-bucket mode")
	}
	return b.finder.Current()
}
