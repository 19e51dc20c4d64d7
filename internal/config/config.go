// Package config defines macmaint's runtime configuration: built-in defaults,
// an optional YAML overlay, and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// defaultOrphansSkip keeps system-owned folders out of orphan listings:
// anything in the com.apple namespace plus a fixed set of macOS-internal
// folder names.
const defaultOrphansSkip = `^com\.apple\.|^(AddressBook|CallHistoryDB|CallHistoryTransactions|CloudDocs|CrashReporter|FileProvider|Knowledge|SyncServices|networkserviceproxy|icdd|default\.store|Caches|Logs|MobileSync|NotificationCenter|System Preferences|Automator|Dock|ControlCenter|FaceTime|Mail|Music|iCloud|identityservicesd|locationaccessstored|contactsd|accountsd|appplaceholdersyncd|homeenergyd|privatecloudcomputed|syncdefaultsd|transparencyd|TrustedPersHelper|videosubscriptionsd|stickersd|tipsd|DifferentialPrivacy|Animoji)$`

// Duration is a time.Duration that unmarshals from a YAML string like "20s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration back to its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// ReportConfig controls the diagnostic report battery and its output files.
type ReportConfig struct {
	// OutDir is the directory the report files are written into.
	OutDir string `yaml:"out_dir" validate:"required"`

	// IncludeNetwork enables checks that reach the network
	// (brew update, softwareupdate).
	IncludeNetwork bool `yaml:"include_network"`

	// IncludeHeavy enables slow full-home directory scans.
	IncludeHeavy bool `yaml:"include_heavy"`

	// IncludeProfiler enables detailed system_profiler dumps.
	IncludeProfiler bool `yaml:"include_profiler"`

	// IncludeLogs enables unified-log queries, which need Full Disk Access
	// on recent macOS releases.
	IncludeLogs bool `yaml:"include_logs"`

	// Timeout is the per-check time limit. Slow checks raise it individually.
	Timeout Duration `yaml:"timeout"`

	// MaxChars caps captured stdout/stderr size per check.
	MaxChars int `yaml:"max_chars" validate:"min=1"`

	// MaxLines caps captured stdout/stderr line count per check.
	MaxLines int `yaml:"max_lines" validate:"min=1"`

	// JSON additionally writes a machine-readable .json sibling next to
	// the HTML report.
	JSON bool `yaml:"json"`
}

// BrewConfig controls the brew-maintenance task.
type BrewConfig struct {
	// Bin is the Homebrew binary. Must be an absolute path to an executable.
	Bin string `yaml:"bin" validate:"required"`

	// ListFile receives `brew list` output. Must resolve under home.
	ListFile string `yaml:"list_file" validate:"required"`

	// CaskFile receives `brew list --cask` output. Must resolve under home.
	CaskFile string `yaml:"cask_file" validate:"required"`

	// FixCaskApps are the app names the missing-cask reconciliation looks at:
	// a cask that is still installed but whose /Applications bundle is gone.
	FixCaskApps []string `yaml:"fix_cask_apps"`

	// CaskRenames maps an app name to the cask token to reinstall when the
	// two differ. Apps not listed here fall back to the lowercased app name.
	CaskRenames map[string]string `yaml:"cask_renames"`

	// UntapTaps are the taps removed by the untap action.
	UntapTaps []string `yaml:"untap_taps"`
}

// OrphansConfig controls orphaned support-folder detection.
type OrphansConfig struct {
	// AppSupportDir is the Application Support directory to scan.
	AppSupportDir string `yaml:"app_support_dir" validate:"required"`

	// ApplicationsDir is where installed .app bundles live.
	ApplicationsDir string `yaml:"applications_dir" validate:"required"`

	// Limit caps how many candidate folders are listed.
	Limit int `yaml:"limit" validate:"min=1"`

	// SkipPattern is a regular expression; folder names it matches are never
	// reported as orphans. Empty disables the filter.
	SkipPattern string `yaml:"skip_pattern" validate:"omitempty,regexp"`
}

// ArchiveConfig controls orphan archival and dated archive cleanup.
type ArchiveConfig struct {
	// Dir holds the dated zip archives. Must resolve under home.
	Dir string `yaml:"dir" validate:"required"`

	// Days is how far in the future archive deletion dates are set.
	Days int `yaml:"days" validate:"min=0"`

	// Folders are the Application Support folders archive-orphans zips up.
	Folders []string `yaml:"folders"`
}

// ChromeConfig controls browser cache cleanup.
type ChromeConfig struct {
	// Dir is the browser profile root to clean. Must resolve under home.
	Dir string `yaml:"dir" validate:"required"`

	// Process is the process name matched when closing the browser.
	Process string `yaml:"process" validate:"required"`

	// CleanDirs are the per-profile cache subdirectories that get purged.
	CleanDirs []string `yaml:"clean_dirs"`
}

// CopyConfig controls the copy-speed-test task. Both paths are empty by
// default; the task refuses to run until they are set.
type CopyConfig struct {
	// Src is the file or directory tree to copy.
	Src string `yaml:"src"`

	// Dst is the rsync destination.
	Dst string `yaml:"dst"`
}

// Config is the root macmaint configuration.
type Config struct {
	Report  ReportConfig  `yaml:"report"`
	Brew    BrewConfig    `yaml:"brew"`
	Orphans OrphansConfig `yaml:"orphans"`
	Archive ArchiveConfig `yaml:"archive"`
	Chrome  ChromeConfig  `yaml:"chrome"`
	Copy    CopyConfig    `yaml:"copy"`
}

// Default returns the built-in configuration. Paths derive from the current
// user's home directory and the brew binary honors $BREW.
func Default() Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}

	brewBin := os.Getenv("BREW")
	if brewBin == "" {
		brewBin = "/opt/homebrew/bin/brew"
	}

	return Config{
		Report: ReportConfig{
			OutDir:   ".",
			Timeout:  Duration{20 * time.Second},
			MaxChars: 20000,
			MaxLines: 500,
		},
		Brew: BrewConfig{
			Bin:         brewBin,
			ListFile:    filepath.Join(home, ".brew-list.txt"),
			CaskFile:    filepath.Join(home, ".brew-cask.txt"),
			FixCaskApps: []string{"Inkscape", "JupyterLab", "LosslessCut", "RsyncUI"},
			CaskRenames: map[string]string{
				"JupyterLab":  "jupyterlab-app",
				"LosslessCut": "losslesscut",
				"RsyncUI":     "rsyncui",
			},
			UntapTaps: []string{"Homebrew/homebrew-bundle", "Homebrew/homebrew-services"},
		},
		Orphans: OrphansConfig{
			AppSupportDir:   filepath.Join(home, "Library", "Application Support"),
			ApplicationsDir: "/Applications",
			Limit:           30,
			SkipPattern:     defaultOrphansSkip,
		},
		Archive: ArchiveConfig{
			Dir:  filepath.Join(home, "Desktop", "Orphaned_App_Support_Archives"),
			Days: 90,
			Folders: []string{
				"360Works",
				"Amazon Cloud Drive",
				"Alfred 2",
				"anythingllm-desktop",
				"AIR Music Technology",
				"Ableton",
				"Backup",
				"AIM",
				"Appfluence",
				"amazon-q",
			},
		},
		Chrome: ChromeConfig{
			Dir:     filepath.Join(home, "Library", "Application Support", "Google", "Chrome Beta"),
			Process: "Google Chrome Beta",
			CleanDirs: []string{
				"Service Worker",
				"IndexedDB",
				"File System",
				"Local Storage",
				"GPUCache",
				"WebStorage",
				"Application Cache",
				"Pepper Data",
				"Platform Notifications",
				"Session Storage",
			},
		},
	}
}

// Load returns the default configuration with the YAML file at path layered
// on top. Fields absent from the file keep their defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse YAML in %q: %w", path, err)
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Register custom validator for regular expression fields
	_ = v.RegisterValidation("regexp", func(fl validator.FieldLevel) bool {
		_, err := regexp.Compile(fl.Field().String())
		return err == nil
	})

	return v
}

// Validate runs schema validation (struct tags) plus the checks tags cannot
// express, returning a user-facing error.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	if c.Report.Timeout.Duration <= 0 {
		return fmt.Errorf("report timeout must be positive, got %s", c.Report.Timeout)
	}

	return nil
}

// SkipRegexp compiles the orphan skip pattern. An empty pattern returns nil,
// which the caller treats as "skip nothing".
func (o OrphansConfig) SkipRegexp() (*regexp.Regexp, error) {
	if o.SkipPattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(o.SkipPattern)
	if err != nil {
		return nil, fmt.Errorf("orphans skip pattern: %w", err)
	}
	return re, nil
}

// formatValidationErrors converts validator errors into user-friendly messages.
func formatValidationErrors(err error) error {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var messages []string
	for _, fe := range validationErrors {
		messages = append(messages, formatFieldError(fe))
	}

	return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
}

// formatFieldError converts a single field validation error to a human-readable message.
func formatFieldError(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "regexp":
		return fmt.Sprintf("%s must be a valid regular expression", field)
	default:
		return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
	}
}
