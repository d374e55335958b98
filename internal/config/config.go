package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"OpinionScanner/internal/domain"
	"OpinionScanner/internal/locator"
)

const (
	configPathEnv     = "OPINION_SCANNER_CONFIG"
	usernameEnv       = "BROWSERSTACK_USERNAME"
	accessKeyEnv      = "BROWSERSTACK_ACCESS_KEY"
	legacyUsernameEnv = "USERNAME"
	legacyAccessEnv   = "ACCESS_KEY"
	backendEnv        = "OPINION_SCANNER_BACKEND"
	logLevelEnv       = "LOG_LEVEL"
	imageDirEnv       = "IMAGE_SAVE_DIR"

	BackendRemote = "remote"
	BackendStatic = "static"
)

// Config holds high-level settings required across the application.
type Config struct {
	Logging     LoggingConfig           `yaml:"logging"`
	Backend     string                  `yaml:"backend"`
	Grid        GridConfig              `yaml:"grid"`
	Site        SiteConfig              `yaml:"site"`
	Timeouts    TimeoutConfig           `yaml:"timeouts"`
	Translation TranslationConfig       `yaml:"translation"`
	Images      ImageConfig             `yaml:"images"`
	Report      ReportConfig            `yaml:"report"`
	Workers     int                     `yaml:"workers"`
	Profiles    []ProfileConfig         `yaml:"profiles"`
	Locators    map[string][]RuleConfig `yaml:"locators"`
}

// LoggingConfig selects the slog level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// GridConfig describes the remote WebDriver hub and the shared capability options.
type GridConfig struct {
	HubURL          string `yaml:"hubUrl"`
	Username        string `yaml:"username"`
	AccessKey       string `yaml:"accessKey"`
	BuildName       string `yaml:"buildName"`
	Debug           *bool  `yaml:"debug"`
	NetworkLogs     *bool  `yaml:"networkLogs"`
	ConsoleLogs     string `yaml:"consoleLogs"`
	SeleniumVersion string `yaml:"seleniumVersion"`
}

// DebugEnabled defaults to true when unset.
func (g GridConfig) DebugEnabled() bool {
	return g.Debug == nil || *g.Debug
}

// NetworkLogsEnabled defaults to true when unset.
func (g GridConfig) NetworkLogsEnabled() bool {
	return g.NetworkLogs == nil || *g.NetworkLogs
}

// SiteConfig points at the listing page to scan.
type SiteConfig struct {
	ListingURL   string `yaml:"listingUrl"`
	LinkPattern  string `yaml:"linkPattern"`
	ArticleLimit int    `yaml:"articleLimit"`
}

// TimeoutConfig covers waits that are not tied to a single locator rule.
type TimeoutConfig struct {
	ConsentDismiss time.Duration `yaml:"consentDismiss"`
	Translate      time.Duration `yaml:"translate"`
	Download       time.Duration `yaml:"download"`
	PageLoad       time.Duration `yaml:"pageLoad"`
	PollInterval   time.Duration `yaml:"pollInterval"`
}

// TranslationConfig defines how to reach the translation endpoint.
type TranslationConfig struct {
	Endpoint string `yaml:"endpoint"`
	Source   string `yaml:"source"`
	Target   string `yaml:"target"`
}

// ImageConfig sets where cover images land.
type ImageConfig struct {
	Dir string `yaml:"dir"`
}

// ReportConfig tunes the word-frequency report.
type ReportConfig struct {
	Threshold int `yaml:"threshold"`
}

// ProfileConfig is the YAML shape of an environment profile.
type ProfileConfig struct {
	SessionName    string `yaml:"sessionName"`
	OS             string `yaml:"os"`
	OSVersion      string `yaml:"osVersion"`
	Browser        string `yaml:"browserName"`
	BrowserVersion string `yaml:"browserVersion"`
	Device         string `yaml:"deviceName"`
	RealMobile     bool   `yaml:"realMobile"`
}

// RuleConfig is the YAML shape of a locator rule.
type RuleConfig struct {
	Name      string        `yaml:"name"`
	Selector  string        `yaml:"selector"`
	Attr      string        `yaml:"attr"`
	Timeout   time.Duration `yaml:"timeout"`
	Required  bool          `yaml:"required"`
	Contains  string        `yaml:"contains"`
	MinLength int           `yaml:"minLength"`
	Visible   bool          `yaml:"visible"`
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
	return cfg
}

// Validate reports settings the pipeline cannot run without.
func (c Config) Validate() error {
	var errs []error
	switch c.Backend {
	case BackendRemote:
		if c.Grid.Username == "" || c.Grid.AccessKey == "" {
			errs = append(errs, fmt.Errorf("remote backend requires %s and %s", usernameEnv, accessKeyEnv))
		}
		if c.Grid.HubURL == "" {
			errs = append(errs, errors.New("grid hub url is empty"))
		}
	case BackendStatic:
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if c.Site.ListingURL == "" {
		errs = append(errs, errors.New("site listing url is empty"))
	}
	if c.Site.ArticleLimit <= 0 {
		errs = append(errs, errors.New("site article limit must be positive"))
	}
	if len(c.Profiles) == 0 {
		errs = append(errs, errors.New("no environment profiles configured"))
	}
	if c.Images.Dir == "" {
		errs = append(errs, errors.New("image directory is empty"))
	}
	return errors.Join(errs...)
}

// EnvironmentProfiles converts the configured profiles into domain values.
func (c Config) EnvironmentProfiles() []domain.EnvironmentProfile {
	profiles := make([]domain.EnvironmentProfile, 0, len(c.Profiles))
	for _, p := range c.Profiles {
		profiles = append(profiles, domain.EnvironmentProfile{
			SessionName:    p.SessionName,
			OS:             p.OS,
			OSVersion:      p.OSVersion,
			Browser:        p.Browser,
			BrowserVersion: p.BrowserVersion,
			Device:         p.Device,
			RealMobile:     p.RealMobile,
		})
	}
	return profiles
}

// LocatorRegistry builds the default chains and applies any configured overrides.
func (c Config) LocatorRegistry() *locator.Registry {
	reg := locator.NewDefaultRegistry(c.Site.LinkPattern, c.Timeouts.PollInterval)
	for kind, rules := range c.Locators {
		converted := make([]locator.Rule, 0, len(rules))
		for _, r := range rules {
			converted = append(converted, locator.Rule{
				Name:      r.Name,
				Selector:  r.Selector,
				Attr:      r.Attr,
				Timeout:   r.Timeout,
				Required:  r.Required,
				Contains:  r.Contains,
				MinLength: r.MinLength,
				Visible:   r.Visible,
			})
		}
		reg.Register(locator.Kind(kind), converted)
	}
	return reg
}

// WorkerCount defaults to one worker per profile.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return len(c.Profiles)
}

func (c *Config) applyEnvOverrides() {
	if v := firstEnv(usernameEnv, legacyUsernameEnv); v != "" {
		c.Grid.Username = v
	}
	if v := firstEnv(accessKeyEnv, legacyAccessEnv); v != "" {
		c.Grid.AccessKey = v
	}
	if v := os.Getenv(backendEnv); v != "" {
		c.Backend = v
	}
	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(imageDirEnv); v != "" {
		c.Images.Dir = v
	}
}

func firstEnv(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Backend != "" {
		base.Backend = override.Backend
	}

	if override.Grid.HubURL != "" {
		base.Grid.HubURL = override.Grid.HubURL
	}
	if override.Grid.Username != "" {
		base.Grid.Username = override.Grid.Username
	}
	if override.Grid.AccessKey != "" {
		base.Grid.AccessKey = override.Grid.AccessKey
	}
	if override.Grid.BuildName != "" {
		base.Grid.BuildName = override.Grid.BuildName
	}
	if override.Grid.Debug != nil {
		base.Grid.Debug = override.Grid.Debug
	}
	if override.Grid.NetworkLogs != nil {
		base.Grid.NetworkLogs = override.Grid.NetworkLogs
	}
	if override.Grid.ConsoleLogs != "" {
		base.Grid.ConsoleLogs = override.Grid.ConsoleLogs
	}
	if override.Grid.SeleniumVersion != "" {
		base.Grid.SeleniumVersion = override.Grid.SeleniumVersion
	}

	if override.Site.ListingURL != "" {
		base.Site.ListingURL = override.Site.ListingURL
	}
	if override.Site.LinkPattern != "" {
		base.Site.LinkPattern = override.Site.LinkPattern
	}
	if override.Site.ArticleLimit > 0 {
		base.Site.ArticleLimit = override.Site.ArticleLimit
	}

	if override.Timeouts.ConsentDismiss > 0 {
		base.Timeouts.ConsentDismiss = override.Timeouts.ConsentDismiss
	}
	if override.Timeouts.Translate > 0 {
		base.Timeouts.Translate = override.Timeouts.Translate
	}
	if override.Timeouts.Download > 0 {
		base.Timeouts.Download = override.Timeouts.Download
	}
	if override.Timeouts.PageLoad > 0 {
		base.Timeouts.PageLoad = override.Timeouts.PageLoad
	}
	if override.Timeouts.PollInterval > 0 {
		base.Timeouts.PollInterval = override.Timeouts.PollInterval
	}

	if override.Translation.Endpoint != "" {
		base.Translation.Endpoint = override.Translation.Endpoint
	}
	if override.Translation.Source != "" {
		base.Translation.Source = override.Translation.Source
	}
	if override.Translation.Target != "" {
		base.Translation.Target = override.Translation.Target
	}

	if override.Images.Dir != "" {
		base.Images.Dir = override.Images.Dir
	}
	if override.Report.Threshold > 0 {
		base.Report.Threshold = override.Report.Threshold
	}
	if override.Workers > 0 {
		base.Workers = override.Workers
	}

	if len(override.Profiles) > 0 {
		base.Profiles = override.Profiles
	}
	if len(override.Locators) > 0 {
		base.Locators = override.Locators
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Backend: BackendRemote,
		Grid: GridConfig{
			HubURL:          "https://hub-cloud.browserstack.com/wd/hub",
			BuildName:       "El Pais Parallel Scrape",
			ConsoleLogs:     "debug",
			SeleniumVersion: "4.0.0",
		},
		Site: SiteConfig{
			ListingURL:   "https://elpais.com/opinion/",
			LinkPattern:  locator.DefaultLinkPattern,
			ArticleLimit: 5,
		},
		Timeouts: TimeoutConfig{
			ConsentDismiss: 10 * time.Second,
			Translate:      10 * time.Second,
			Download:       10 * time.Second,
			PageLoad:       30 * time.Second,
			PollInterval:   locator.DefaultInterval,
		},
		Translation: TranslationConfig{
			Endpoint: "https://translate.google.com/m",
			Source:   "auto",
			Target:   "en",
		},
		Images: ImageConfig{Dir: "downloaded_images"},
		Report: ReportConfig{Threshold: 2},
		Profiles: []ProfileConfig{
			{SessionName: "Win10 Chrome Test", OS: "Windows", OSVersion: "10", Browser: "Chrome", BrowserVersion: "latest"},
			{SessionName: "Mac Sonoma Safari Test", OS: "OS X", OSVersion: "Sonoma", Browser: "Safari", BrowserVersion: "latest"},
			{SessionName: "Win11 Edge Test", OS: "Windows", OSVersion: "11", Browser: "Edge", BrowserVersion: "latest"},
			{SessionName: "Android S23 Chrome Test", Device: "Samsung Galaxy S23", OSVersion: "13.0", Browser: "Chrome", RealMobile: true},
			{SessionName: "iPhone 14 Pro Safari Test", Device: "iPhone 14 Pro", OSVersion: "16", Browser: "Safari", RealMobile: true},
		},
	}
}
