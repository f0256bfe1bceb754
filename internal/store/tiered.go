package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Tier is one level of a Tiered store. Prefix is prepended to every key
// handed to Store.
type Tier struct {
	Name   string
	Prefix string
	Store  KeyValueStore
}

// Tiered tries its tiers in priority order. A tier is only consulted when
// every tier before it failed; a missing key is an answer, not a failure.
type Tiered struct {
	tiers []Tier
	log   logrus.FieldLogger
}

// NewTiered returns a composite store over tiers. A nil logger discards
// tier warnings.
func NewTiered(log logrus.FieldLogger, tiers ...Tier) *Tiered {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Tiered{tiers: tiers, log: log}
}

// Names returns the tier names in priority order.
func (t *Tiered) Names() []string {
	names := make([]string, len(t.tiers))
	for i, tier := range t.tiers {
		names[i] = tier.Name
	}
	return names
}

func (t *Tiered) Get(ctx context.Context, key string) (string, error) {
	var errs []error
	for _, tier := range t.tiers {
		v, err := tier.Store.Get(ctx, tier.Prefix+key)
		if err == nil || errors.Is(err, ErrNotFound) {
			return v, err
		}
		t.warn(tier, key, "get", err)
		errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
	}
	return "", t.exhausted(errs)
}

func (t *Tiered) Set(ctx context.Context, key, value string) error {
	var errs []error
	for _, tier := range t.tiers {
		err := tier.Store.Set(ctx, tier.Prefix+key, value)
		if err == nil {
			return nil
		}
		t.warn(tier, key, "set", err)
		errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
	}
	return t.exhausted(errs)
}

// List enumerates keys through the first listable tier that answers. Tier
// prefixes are stripped from the returned keys.
func (t *Tiered) List(ctx context.Context, prefix string, limit int) ([]Entry, error) {
	var errs []error
	for _, tier := range t.tiers {
		l, ok := tier.Store.(Lister)
		if !ok {
			continue
		}
		entries, err := l.List(ctx, tier.Prefix+prefix, limit)
		if err != nil {
			t.warn(tier, prefix, "list", err)
			errs = append(errs, fmt.Errorf("%s: %w", tier.Name, err))
			continue
		}
		for i := range entries {
			entries[i].Key = strings.TrimPrefix(entries[i].Key, tier.Prefix)
		}
		return entries, nil
	}
	return nil, t.exhausted(errs)
}

func (t *Tiered) warn(tier Tier, key, op string, err error) {
	t.log.WithFields(logrus.Fields{
		"tier":  tier.Name,
		"key":   tier.Prefix + key,
		"op":    op,
		"error": err,
	}).Warn("storage tier failed, trying next")
}

func (t *Tiered) exhausted(errs []error) error {
	if len(errs) == 0 {
		return errors.New("no storage tiers")
	}
	return fmt.Errorf("all storage tiers failed: %w", errors.Join(errs...))
}
