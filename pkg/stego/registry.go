package stego

import (
	"fmt"
	"strings"
	"sync"

	"github.com/nahan-im/nahan/pkg/header"
)

// Registry maps algorithm identifiers to codec instances. It is built
// once, fully populated, and read-only afterwards, so lookups need no
// locking.
type Registry struct {
	providers map[header.Algorithm]Provider
	order     []header.Algorithm
}

// NewRegistry constructs a registry holding all seven codecs.
func NewRegistry() *Registry {
	r := &Registry{providers: make(map[header.Algorithm]Provider)}
	for _, p := range []Provider{
		NewTagCodec(),
		NewZeroWidthCodec(),
		NewEmojiCodec(),
		NewSpaceCodec(),
		NewScriptCodec(),
		NewHybridCodec(),
		NewBase122Codec(),
	} {
		r.providers[p.Algorithm()] = p
		r.order = append(r.order, p.Algorithm())
	}
	return r
}

// Provider returns the codec registered for id.
func (r *Registry) Provider(id header.Algorithm) (Provider, error) {
	p, ok := r.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnregistered, string(id))
	}
	return p, nil
}

// Providers returns every registered codec in identifier order.
func (r *Registry) Providers() []Provider {
	out := make([]Provider, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.providers[id])
	}
	return out
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry, built on first use.
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// DetectProvider sniffs text for the fingerprint of an auto-detectable
// codec: zero-width characters first (the cheapest and most common
// carrier), then Unicode tag characters, then the emoji alphabet. It
// returns nil when nothing matches.
func (r *Registry) DetectProvider(text string) Provider {
	for _, id := range []header.Algorithm{header.NH02, header.NH01, header.NH03} {
		p, ok := r.providers[id]
		if !ok || !p.Metadata().AutoDetect {
			continue
		}
		s, ok := p.(sniffer)
		if ok && s.Sniff(text) {
			return p
		}
	}
	return nil
}

// sniffer is implemented by codecs whose output can be recognized
// without decoding it.
type sniffer interface {
	Sniff(text string) bool
}

// ContainsZeroWidth reports whether text contains any of the zero-width
// characters used by the zero-width carrier.
func ContainsZeroWidth(text string) bool {
	return strings.ContainsAny(text, string([]rune{zwnj, zwj}))
}
