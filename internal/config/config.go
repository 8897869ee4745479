package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"
	configPathEnv   = "NEWS_RECONCILER_CONFIG"
	stateDirEnv     = "NEWS_RECONCILER_STATE_DIR"
	wikibaseURLEnv  = "WIKIBASE_API_URL"
	wikibaseUserEnv = "WIKIBASE_USERNAME"
	wikibasePassEnv = "WIKIBASE_PASSWORD"
)

// Config holds high-level settings required across the application.
type Config struct {
	Wikibase   WikibaseConfig  `yaml:"wikibase"`
	Properties PropertyConfig  `yaml:"properties"`
	Items      ItemConfig      `yaml:"items"`
	Archive    ArchiveConfig   `yaml:"archive"`
	Storage    StorageConfig   `yaml:"storage"`
	Pipeline   PipelineConfig  `yaml:"pipeline"`
	Scheduler  SchedulerConfig `yaml:"scheduler"`
	Logging    LoggingConfig   `yaml:"logging"`
	Sites      []SiteConfig    `yaml:"sites"`
}

// WikibaseConfig describes the remote entity store endpoint and credentials.
type WikibaseConfig struct {
	APIURL   string `yaml:"apiUrl"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PropertyConfig maps the store's property ids onto the claims this tool
// writes. The ids are instance-specific, so they always come from config.
type PropertyConfig struct {
	InstanceOf    string `yaml:"instanceOf"`
	URL           string `yaml:"url"`
	DatePublished string `yaml:"datePublished"`
	ArchivedURL   string `yaml:"archivedUrl"`
	ArchivedDate  string `yaml:"archivedDate"`
	Title         string `yaml:"title"`
	DOI           string `yaml:"doi"`
	PMID          string `yaml:"pmid"`
	PMCID         string `yaml:"pmcid"`
	ReasonFor     string `yaml:"reasonForDeprecation"`
	SeriesOrdinal string `yaml:"seriesOrdinal"`
}

// ItemConfig holds the entity ids used as claim values.
type ItemConfig struct {
	NewsArticle string `yaml:"newsArticle"`
	RedirectURL string `yaml:"redirectUrl"`
}

// ArchiveConfig points at the snapshot availability API.
type ArchiveConfig struct {
	APIURL string `yaml:"apiUrl"`
}

// StorageConfig describes the on-disk shard families.
type StorageConfig struct {
	Dir           string `yaml:"dir"`
	MappingBase   string `yaml:"mappingBase"`
	ResolvedBase  string `yaml:"resolvedBase"`
	UnmatchedBase string `yaml:"unmatchedBase"`
	MaxShardBytes int64  `yaml:"maxShardBytes"`
}

// PipelineConfig tunes the sequential resolution loop.
type PipelineConfig struct {
	ResolveDelaySeconds  int `yaml:"resolveDelaySeconds"`
	MatchTimeoutSeconds  int `yaml:"matchTimeoutSeconds"`
	CreateTimeoutSeconds int `yaml:"createTimeoutSeconds"`
}

// ResolveDelay is the pause after each successfully resolved article.
func (p PipelineConfig) ResolveDelay() time.Duration {
	return time.Duration(p.ResolveDelaySeconds) * time.Second
}

// MatchTimeout bounds the per-candidate confirmation prompt.
func (p PipelineConfig) MatchTimeout() time.Duration {
	return time.Duration(p.MatchTimeoutSeconds) * time.Second
}

// CreateTimeout bounds the create-new-record prompt.
func (p PipelineConfig) CreateTimeout() time.Duration {
	return time.Duration(p.CreateTimeoutSeconds) * time.Second
}

// SchedulerConfig defines when the daily reconciliation run starts.
type SchedulerConfig struct {
	DailyAt  string         `yaml:"dailyAt"`
	Timezone string         `yaml:"timezone"`
	location *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// LoggingConfig carries the log level string.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// SiteConfig describes one RSS feed to reconcile.
type SiteConfig struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads YAML configuration (if present) and applies environment overrides.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(wikibaseURLEnv); v != "" {
		c.Wikibase.APIURL = v
	}
	if v := os.Getenv(wikibaseUserEnv); v != "" {
		c.Wikibase.Username = v
	}
	if v := os.Getenv(wikibasePassEnv); v != "" {
		c.Wikibase.Password = v
	}
	if v := os.Getenv(stateDirEnv); v != "" {
		c.Storage.Dir = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Wikibase.APIURL != "" {
		base.Wikibase.APIURL = override.Wikibase.APIURL
	}
	if override.Wikibase.Username != "" {
		base.Wikibase.Username = override.Wikibase.Username
	}
	if override.Wikibase.Password != "" {
		base.Wikibase.Password = override.Wikibase.Password
	}

	if override.Properties.InstanceOf != "" {
		base.Properties.InstanceOf = override.Properties.InstanceOf
	}
	if override.Properties.URL != "" {
		base.Properties.URL = override.Properties.URL
	}
	if override.Properties.DatePublished != "" {
		base.Properties.DatePublished = override.Properties.DatePublished
	}
	if override.Properties.ArchivedURL != "" {
		base.Properties.ArchivedURL = override.Properties.ArchivedURL
	}
	if override.Properties.ArchivedDate != "" {
		base.Properties.ArchivedDate = override.Properties.ArchivedDate
	}
	if override.Properties.Title != "" {
		base.Properties.Title = override.Properties.Title
	}
	if override.Properties.DOI != "" {
		base.Properties.DOI = override.Properties.DOI
	}
	if override.Properties.PMID != "" {
		base.Properties.PMID = override.Properties.PMID
	}
	if override.Properties.PMCID != "" {
		base.Properties.PMCID = override.Properties.PMCID
	}
	if override.Properties.ReasonFor != "" {
		base.Properties.ReasonFor = override.Properties.ReasonFor
	}
	if override.Properties.SeriesOrdinal != "" {
		base.Properties.SeriesOrdinal = override.Properties.SeriesOrdinal
	}

	if override.Items.NewsArticle != "" {
		base.Items.NewsArticle = override.Items.NewsArticle
	}
	if override.Items.RedirectURL != "" {
		base.Items.RedirectURL = override.Items.RedirectURL
	}

	if override.Archive.APIURL != "" {
		base.Archive.APIURL = override.Archive.APIURL
	}

	if override.Storage.Dir != "" {
		base.Storage.Dir = override.Storage.Dir
	}
	if override.Storage.MappingBase != "" {
		base.Storage.MappingBase = override.Storage.MappingBase
	}
	if override.Storage.ResolvedBase != "" {
		base.Storage.ResolvedBase = override.Storage.ResolvedBase
	}
	if override.Storage.UnmatchedBase != "" {
		base.Storage.UnmatchedBase = override.Storage.UnmatchedBase
	}
	if override.Storage.MaxShardBytes > 0 {
		base.Storage.MaxShardBytes = override.Storage.MaxShardBytes
	}

	if override.Pipeline.ResolveDelaySeconds > 0 {
		base.Pipeline.ResolveDelaySeconds = override.Pipeline.ResolveDelaySeconds
	}
	if override.Pipeline.MatchTimeoutSeconds > 0 {
		base.Pipeline.MatchTimeoutSeconds = override.Pipeline.MatchTimeoutSeconds
	}
	if override.Pipeline.CreateTimeoutSeconds > 0 {
		base.Pipeline.CreateTimeoutSeconds = override.Pipeline.CreateTimeoutSeconds
	}

	if override.Scheduler.DailyAt != "" {
		base.Scheduler.DailyAt = override.Scheduler.DailyAt
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}

	if len(override.Sites) > 0 {
		base.Sites = override.Sites
	}

	return base
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	return Config{
		Wikibase: WikibaseConfig{},
		Archive:  ArchiveConfig{APIURL: "http://archive.org/wayback/available"},
		Storage: StorageConfig{
			Dir:           ".",
			MappingBase:   "wikibase_mapping",
			ResolvedBase:  "news",
			UnmatchedBase: "unmatched_articles",
			MaxShardBytes: 50 * 1024 * 1024,
		},
		Pipeline: PipelineConfig{
			ResolveDelaySeconds:  20,
			MatchTimeoutSeconds:  120,
			CreateTimeoutSeconds: 20,
		},
		Scheduler: SchedulerConfig{DailyAt: "00:00", Timezone: defaultTimezone, location: tz},
		Logging:   LoggingConfig{Level: "info"},
	}
}
