package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Detail display modes for the optional location/description parts of an
// item's detail string.
const (
	ShowNever     = "never"
	ShowFirstLine = "first-line"
	ShowAlways    = "always"
)

// ICSConfig describes a single ICS subscription source.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for the calendar allow-list,
	// de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// Contact source modes.
const (
	ContactsLocal = "local"
	ContactsWeb   = "web"
)

// ContactsConfig describes the vCard anniversary source.
type ContactsConfig struct {
	// Mode selects between a local .vcf file and a WebDAV endpoint.
	Mode string `yaml:"mode" json:"mode"`
	// Path is the local .vcf path (mode "local").
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// URL is the WebDAV address book export (mode "web").
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Username string `yaml:"username,omitempty" json:"username,omitempty"`
	// Password may be left empty; the source then consults the OS keyring
	// under the "upnext" service for the configured username.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the items API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone used as the display zone. "Local"
	// uses the host zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Language selects the locale for anniversary type labels.
	Language string `yaml:"language" json:"language"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for the
	// periodic source re-poll. The computed wake-up timer handles display
	// boundary refreshes on its own; this only bounds feed staleness.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// LookaheadHours bounds how far into the future items are shown.
	LookaheadHours int `yaml:"lookahead_hours" json:"lookahead_hours"`

	// MaxItems caps the number of items held after an aggregation pass.
	MaxItems int `yaml:"max_items" json:"max_items"`

	// ShowRemindersOnly drops events without an attached reminder.
	ShowRemindersOnly bool `yaml:"show_reminders_only" json:"show_reminders_only"`

	// ShowAllDay toggles all-day events.
	ShowAllDay bool `yaml:"show_all_day" json:"show_all_day"`

	// ShowAnniversaries toggles the contact anniversary source.
	ShowAnniversaries bool `yaml:"show_anniversaries" json:"show_anniversaries"`

	// LocationMode / DescriptionMode control the optional parts of the
	// detail string: "never", "first-line" or "always".
	LocationMode    string `yaml:"location_mode" json:"location_mode"`
	DescriptionMode string `yaml:"description_mode" json:"description_mode"`

	// HighlightUpcoming enables special styling of items starting soon.
	HighlightUpcoming bool `yaml:"highlight_upcoming" json:"highlight_upcoming"`
	// UpcomingBold renders highlighted items bold.
	UpcomingBold bool `yaml:"upcoming_bold" json:"upcoming_bold"`
	// UpcomingFromHour is the hour of day from which today's items count
	// as upcoming.
	UpcomingFromHour int `yaml:"upcoming_from_hour" json:"upcoming_from_hour"`
	// Font colors are passed through to the rendering layer untouched.
	FontColor                string `yaml:"font_color" json:"font_color"`
	DetailsFontColor         string `yaml:"details_font_color" json:"details_font_color"`
	UpcomingFontColor        string `yaml:"upcoming_font_color" json:"upcoming_font_color"`
	UpcomingDetailsFontColor string `yaml:"upcoming_details_font_color" json:"upcoming_details_font_color"`

	// Calendars is an allow-list of source calendar IDs. Empty means all.
	Calendars []string `yaml:"calendars" json:"calendars"`

	// ICS is the list of subscribed event sources.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// Contacts, if non-nil, configures the anniversary source.
	Contacts *ContactsConfig `yaml:"contacts,omitempty" json:"contacts,omitempty"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:            "127.0.0.1:8080",
		Timezone:          "Local",
		Language:          "en",
		RefreshCron:       "*/15 * * * *",
		LookaheadHours:    168,
		MaxItems:          100,
		ShowAllDay:        true,
		ShowAnniversaries: true,
		LocationMode:      ShowNever,
		DescriptionMode:   ShowNever,
		HighlightUpcoming: true,
		UpcomingBold:      true,
		UpcomingFromHour:  20,
		Calendars:         []string{},
		ICS:               []ICSConfig{},
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.Language == "" {
		c.Language = "en"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.LookaheadHours <= 0 {
		c.LookaheadHours = 168
	}
	if c.MaxItems <= 0 {
		c.MaxItems = 100
	}
	switch c.LocationMode {
	case ShowNever, ShowFirstLine, ShowAlways:
	default:
		c.LocationMode = ShowNever
	}
	switch c.DescriptionMode {
	case ShowNever, ShowFirstLine, ShowAlways:
	default:
		c.DescriptionMode = ShowNever
	}
	if c.UpcomingFromHour < 0 || c.UpcomingFromHour > 23 {
		c.UpcomingFromHour = 20
	}
	if c.Calendars == nil {
		c.Calendars = []string{}
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Contacts != nil {
		switch c.Contacts.Mode {
		case ContactsLocal, ContactsWeb:
		case "":
			if c.Contacts.URL != "" {
				c.Contacts.Mode = ContactsWeb
			} else {
				c.Contacts.Mode = ContactsLocal
			}
		default:
			c.Contacts.Mode = ContactsLocal
		}
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Lookahead returns the look-ahead window as a duration.
func (c *Config) Lookahead() time.Duration {
	return time.Duration(c.LookaheadHours) * time.Hour
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written there with
//     0600 perms and returned.
//   - If the file exists, it is unmarshaled and normalized.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".upnext-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// Save delegates to the package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
