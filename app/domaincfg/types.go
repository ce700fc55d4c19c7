package domaincfg

// DomainConfig represents a complete snapshot domain configuration
type DomainConfig struct {
	Domain       DomainInfo     `yaml:"domain"`
	Settings     DomainSettings `yaml:"settings"`
	FieldAliases []FieldAlias   `yaml:"field_aliases"`
}

// DomainInfo identifies the snapshot domain the configuration applies to
type DomainInfo struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// DomainSettings contains per-domain processing settings
type DomainSettings struct {
	Enabled            bool `yaml:"enabled"`
	StalenessThreshold int  `yaml:"staleness_threshold"` // seconds, 0 uses the service default
	MaxPosts           int  `yaml:"max_posts"`
}

// FieldAlias maps additional export field names onto a logical post field
type FieldAlias struct {
	Field string   `yaml:"field"`
	Names []string `yaml:"names"`
}
