package config

// SiteConfig holds per-site overrides for a single host.
// This allows tuning crawl behavior for sites that need different
// politeness settings without changing the command line each run.
type SiteConfig struct {
	// Depth overrides the global max depth for this site.
	// If zero, the global MaxDepth is used.
	Depth int `yaml:"depth,omitempty"`

	// MaxAttempts overrides the global attempt budget for this site.
	// If zero, the global MaxAttempts is used.
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// Delay overrides the politeness pause for this site, as a Go
	// duration string such as "500ms" or "2s". If empty, the global
	// CrawlDelay is used.
	Delay string `yaml:"delay,omitempty"`

	// UserAgent overrides the User-Agent header for this site.
	UserAgent string `yaml:"userAgent,omitempty"`
}

// File represents the structure of the .wordcrawl settings file.
type File struct {
	// Sites maps hosts to their overrides. Keys are the host exactly as
	// it appears in the seed URL, including a port if one is used
	// (e.g., "quotes.toscrape.com" or "localhost:8080").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains overrides applied to every site unless the
	// site-specific entry sets its own value.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the overrides for a host, merging the
// site-specific entry over the file's defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	// Start with defaults
	result := cf.Defaults

	// Override with site-specific configuration if present
	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Depth != 0 {
			result.Depth = siteConfig.Depth
		}
		if siteConfig.MaxAttempts != 0 {
			result.MaxAttempts = siteConfig.MaxAttempts
		}
		if siteConfig.Delay != "" {
			result.Delay = siteConfig.Delay
		}
		if siteConfig.UserAgent != "" {
			result.UserAgent = siteConfig.UserAgent
		}
	}

	return result
}
