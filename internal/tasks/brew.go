package tasks

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
)

// applicationsDir is where cask apps are expected to land.
const applicationsDir = "/Applications"

// BrewActions selects which Homebrew operations a run performs. With none
// set, report and dry-run modes default to doctor plus both list writes.
type BrewActions struct {
	Update      bool
	Upgrade     bool
	UpgradeCask bool
	Autoremove  bool
	Cleanup     bool
	Doctor      bool
	Missing     bool
	List        bool
	CaskList    bool
	Untap       bool
	FixCasks    bool
}

func (a BrewActions) any() bool {
	return a.Update || a.Upgrade || a.UpgradeCask || a.Autoremove || a.Cleanup ||
		a.Doctor || a.Missing || a.List || a.CaskList || a.Untap || a.FixCasks
}

// runBrew invokes the brew binary with the given arguments, logging the
// command line first.
func runBrew(env *Env, bin string, args ...string) engine.ArgvResult {
	argv := append([]string{bin}, args...)
	quoted := make([]string, len(argv))
	for i, a := range argv {
		quoted[i] = engine.ShellQuote(a)
	}
	env.Log.Infof("→ %s", strings.Join(quoted, " "))
	return env.Runner.RunArgv(engine.Argv{Argv: argv})
}

// brewFailure extracts the loggable failure detail from a brew invocation.
func brewFailure(res engine.ArgvResult) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return strings.TrimSpace(res.Stderr)
}

// BrewMaintenance runs the selected Homebrew upkeep actions. Mutating
// actions are skipped in report mode; doctor and missing are diagnostic and
// run there too. List files are written in report and apply modes.
func BrewMaintenance(env *Env, cfg config.BrewConfig, acts BrewActions) error {
	if !strings.HasPrefix(cfg.Bin, "/") {
		return errors.New("brew bin must be an absolute path")
	}
	if st, err := os.Stat(cfg.Bin); err != nil || st.IsDir() || st.Mode()&0o111 == 0 {
		env.Log.Warnf("brew: brew bin not executable: %s", cfg.Bin)
		return nil
	}

	listFile, err := ValidateHomePath(env.Home, cfg.ListFile, "brew list file")
	if err != nil {
		return err
	}
	caskFile, err := ValidateHomePath(env.Home, cfg.CaskFile, "brew cask file")
	if err != nil {
		return err
	}

	maybeRun := func(desc string, args []string, allowInReport bool) {
		if env.Mode == ModeReport && !allowInReport {
			env.Log.Infof("brew: report mode skip %s", desc)
			return
		}
		if env.Mode == ModeDryRun {
			env.Log.Infof("brew: would run %s: %s", desc, strings.Join(args, " "))
			return
		}
		res := runBrew(env, cfg.Bin, args...)
		if res.Err != nil || res.ExitCode != 0 {
			env.Log.Infof("brew: %s failed: %s", desc, brewFailure(res))
		}
	}

	if env.Mode == ModeReport || env.Mode == ModeDryRun {
		if !acts.any() {
			acts.Doctor = true
			acts.List = true
			acts.CaskList = true
		}
	}

	if acts.Update {
		maybeRun("update", []string{"update"}, false)
	}
	if acts.Upgrade {
		maybeRun("upgrade", []string{"upgrade"}, false)
	}
	if acts.UpgradeCask {
		maybeRun("upgrade cask", []string{"upgrade", "--cask", "--greedy"}, false)
	}
	if acts.Autoremove {
		maybeRun("autoremove", []string{"autoremove"}, false)
	}
	if acts.Cleanup {
		maybeRun("cleanup", []string{"cleanup", "--prune=7", "--quiet"}, false)
	}
	if acts.Doctor {
		maybeRun("doctor", []string{"doctor"}, true)
	}
	if acts.Missing {
		maybeRun("missing", []string{"missing"}, true)
	}
	if acts.Untap {
		maybeRun("untap", append([]string{"untap", "--force"}, cfg.UntapTaps...), false)
	}

	if acts.List {
		writeBrewList(env, cfg.Bin, "list", listFile, []string{"list"})
	}
	if acts.CaskList {
		writeBrewList(env, cfg.Bin, "cask list", caskFile, []string{"list", "--cask"})
	}

	if acts.FixCasks {
		fixMissingCaskApps(env, cfg)
	}
	return nil
}

// writeBrewList captures a brew listing into a file, except in dry-run mode
// where only the intent is logged.
func writeBrewList(env *Env, bin, desc, file string, args []string) {
	if env.Mode == ModeDryRun {
		env.Log.Infof("brew: would write %s to %s", desc, file)
		return
	}
	res := runBrew(env, bin, args...)
	if res.Err != nil || res.ExitCode != 0 {
		env.Log.Infof("brew: %s failed: %s", desc, brewFailure(res))
		return
	}
	if err := os.WriteFile(file, []byte(res.Stdout), 0o644); err != nil {
		env.Log.Infof("brew: %s failed: %v", desc, err)
		return
	}
	env.Log.Infof("brew: wrote %s to %s", desc, file)
}

// fixMissingCaskApps reconciles installed casks against /Applications and
// reinstalls any whose app bundle disappeared, using the configured rename
// map for casks whose token differs from the app name.
func fixMissingCaskApps(env *Env, cfg config.BrewConfig) {
	res := runBrew(env, cfg.Bin, "list", "--cask")
	if res.Err != nil || res.ExitCode != 0 {
		env.Log.Infof("brew: could not list casks for fix")
		return
	}

	installed := map[string]bool{}
	for _, line := range strings.Split(res.Stdout, "\n") {
		if s := strings.TrimSpace(line); s != "" {
			installed[strings.ToLower(s)] = true
		}
	}

	var missing []string
	for _, app := range cfg.FixCaskApps {
		if !installed[strings.ToLower(app)] {
			continue
		}
		if _, err := os.Stat(filepath.Join(applicationsDir, app+".app")); err == nil {
			continue
		}
		token := strings.ToLower(app)
		if mapped, ok := cfg.CaskRenames[app]; ok {
			token = mapped
		}
		missing = append(missing, token)
	}

	if len(missing) == 0 {
		env.Log.Infof("brew: no missing cask apps detected")
		return
	}

	joined := strings.Join(missing, ", ")
	if env.Mode != ModeApply {
		env.Log.Infof("brew: would reinstall missing casks: %s", joined)
		return
	}

	env.Log.Infof("brew: reinstalling missing casks: %s", joined)
	runBrew(env, cfg.Bin, append([]string{"uninstall", "--cask"}, missing...)...)
	runBrew(env, cfg.Bin, append([]string{"install", "--cask"}, missing...)...)
}
