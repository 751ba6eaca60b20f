package registry

import (
	"context"
	"io"

	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/fleshka4/swap-widget/internal/apperrors"
	"github.com/fleshka4/swap-widget/internal/swap"
)

const defaultCacheSize = 1024

// MetadataReader reads token metadata from the chain.
type MetadataReader interface {
	Metadata(ctx context.Context, token common.Address) (swap.Token, error)
}

// Registry resolves token metadata: the configured list first, then the chain.
// On-chain lookups are kept in an LRU cache.
type Registry struct {
	listed map[common.Address]swap.Token
	order  []swap.Token
	reader MetadataReader
	cache  *lru.Cache
	logger logrus.FieldLogger
}

// New builds a registry over the configured tokens. native describes the chain's
// gas token and is always listed first. reader may be nil, in which case only
// listed tokens resolve.
func New(native swap.Token, tokens []swap.Token, reader MetadataReader, cacheSize int, logger logrus.FieldLogger) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = defaultCacheSize
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = l
	}

	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "lru.New")
	}

	native.Address = swap.NativeTokenAddress
	r := &Registry{
		listed: make(map[common.Address]swap.Token, len(tokens)+1),
		reader: reader,
		cache:  cache,
		logger: logger.WithField("component", "registry"),
	}
	r.add(native)

	for _, t := range tokens {
		if t.Address == (common.Address{}) {
			return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "token %q has no address", t.Symbol)
		}
		if _, dup := r.listed[t.Address]; dup {
			return nil, errors.Wrapf(apperrors.ErrInvalidArgument, "token %s listed twice", t.Address.Hex())
		}
		r.add(t)
	}

	return r, nil
}

func (r *Registry) add(t swap.Token) {
	r.listed[t.Address] = t
	r.order = append(r.order, t)
}

// Resolve returns metadata for address.
func (r *Registry) Resolve(ctx context.Context, address common.Address) (swap.Token, error) {
	if t, ok := r.listed[address]; ok {
		return t, nil
	}

	if v, ok := r.cache.Get(address); ok {
		return v.(swap.Token), nil
	}

	if r.reader == nil {
		return swap.Token{}, errors.Wrap(apperrors.ErrTokenNotFound, address.Hex())
	}

	t, err := r.reader.Metadata(ctx, address)
	if err != nil {
		r.logger.WithError(err).WithField("token", address.Hex()).Warn("token metadata lookup failed")
		return swap.Token{}, errors.Wrapf(apperrors.ErrTokenNotFound, "%s: %v", address.Hex(), err)
	}
	t.Address = address

	r.cache.Add(address, t)
	return t, nil
}

// Listed returns the configured tokens, native first.
func (r *Registry) Listed() []swap.Token {
	out := make([]swap.Token, len(r.order))
	copy(out, r.order)
	return out
}
