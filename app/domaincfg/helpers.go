package domaincfg

import (
	"time"

	"github.com/kbox38/cignite/app/post"
)

// GetStalenessThreshold returns the per-domain staleness override, or def
// when the domain does not set one.
func (s *DomainSettings) GetStalenessThreshold(def time.Duration) time.Duration {
	if s.StalenessThreshold <= 0 {
		return def
	}
	return time.Duration(s.StalenessThreshold) * time.Second
}

// ApplyAliases registers the domain's extra field aliases on the normalizer.
func (c *DomainConfig) ApplyAliases(n *post.Normalizer) {
	for _, alias := range c.FieldAliases {
		n.AddFieldAliases(alias.Field, alias.Names...)
	}
}
