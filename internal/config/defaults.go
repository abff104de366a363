package config

// DefaultCategories mirrors the site's content/questions layout.
func DefaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{Dir: "dogs1", Name: "Dogs"},
		{Dir: "dogs2", Name: "Dogs"},
		{Dir: "dogs1-25k", Name: "Dogs"},
		{Dir: "cat", Name: "Cats"},
		{Dir: "rabbit", Name: "Rabbits"},
		{Dir: "fish", Name: "Fish"},
	}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimit.RequestsPerSecond > 0 && cfg.Server.RateLimit.Burst <= 0 {
		cfg.Server.RateLimit.Burst = int(cfg.Server.RateLimit.RequestsPerSecond) + 1
	}
	if cfg.Corpus.ContentPath == "" {
		cfg.Corpus.ContentPath = "content/questions"
	}
	if cfg.Corpus.Extensions == nil {
		cfg.Corpus.Extensions = []string{".md"}
	}
	if cfg.Corpus.Categories == nil {
		cfg.Corpus.Categories = DefaultCategories()
	}
	if cfg.Snapshot.Backend == "" {
		cfg.Snapshot.Backend = BackendJSON
	}
	if cfg.Snapshot.Path == "" {
		switch cfg.Snapshot.Backend {
		case BackendSQLite:
			cfg.Snapshot.Path = "_data/search-index.db"
		default:
			cfg.Snapshot.Path = "_data/search-index.json"
		}
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 10
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.CacheSize == 0 {
		cfg.Search.CacheSize = 100
	}
	if cfg.Search.SuggestionLimit == 0 {
		cfg.Search.SuggestionLimit = 5
	}
	if cfg.Search.PopularLimit == 0 {
		cfg.Search.PopularLimit = 10
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
