package tasks

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
)

func fakeBrew(t *testing.T, env *Env) string {
	t.Helper()
	bin := filepath.Join(env.Home, "brew")
	require.NoError(t, os.WriteFile(bin, []byte("#!/bin/sh\n"), 0o755))
	return bin
}

func brewConfig(env *Env, bin string) config.BrewConfig {
	return config.BrewConfig{
		Bin:       bin,
		ListFile:  filepath.Join(env.Home, ".brew-list.txt"),
		CaskFile:  filepath.Join(env.Home, ".brew-cask.txt"),
		UntapTaps: []string{"Homebrew/homebrew-bundle", "Homebrew/homebrew-services"},
	}
}

func TestBrewMaintenance_ReportDefaultsToDoctorAndLists(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeReport, stub)
	bin := fakeBrew(t, env)
	cfg := brewConfig(env, bin)

	stub.on(engine.ArgvResult{Stdout: "git\njq\n"}, bin, "list")
	stub.on(engine.ArgvResult{Stdout: "inkscape\n"}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{}))

	logs := buf.String()
	assert.Contains(t, logs, "→ "+bin+" doctor")
	assert.Contains(t, logs, "brew: wrote list to "+cfg.ListFile)
	assert.Contains(t, logs, "brew: wrote cask list to "+cfg.CaskFile)

	data, err := os.ReadFile(cfg.ListFile)
	require.NoError(t, err)
	assert.Equal(t, "git\njq\n", string(data))

	caskData, err := os.ReadFile(cfg.CaskFile)
	require.NoError(t, err)
	assert.Equal(t, "inkscape\n", string(caskData))

	assert.Equal(t, 1, stub.invoked(bin, "doctor"))
	assert.Equal(t, 0, stub.invoked(bin, "update"))
}

func TestBrewMaintenance_ReportSkipsMutatingActions(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeReport, stub)
	bin := fakeBrew(t, env)

	acts := BrewActions{Update: true, Upgrade: true}
	require.NoError(t, BrewMaintenance(env, brewConfig(env, bin), acts))

	logs := buf.String()
	assert.Contains(t, logs, "brew: report mode skip update")
	assert.Contains(t, logs, "brew: report mode skip upgrade")
	assert.NotContains(t, logs, "wrote list")
	assert.Empty(t, stub.calls)
}

func TestBrewMaintenance_DryRunLogsIntent(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeDryRun, stub)
	bin := fakeBrew(t, env)
	cfg := brewConfig(env, bin)

	acts := BrewActions{Update: true, Cleanup: true, Untap: true, List: true}
	require.NoError(t, BrewMaintenance(env, cfg, acts))

	logs := buf.String()
	assert.Contains(t, logs, "brew: would run update: update")
	assert.Contains(t, logs, "brew: would run cleanup: cleanup --prune=7 --quiet")
	assert.Contains(t, logs, "brew: would run untap: untap --force Homebrew/homebrew-bundle Homebrew/homebrew-services")
	assert.Contains(t, logs, "brew: would write list to "+cfg.ListFile)
	assert.NoFileExists(t, cfg.ListFile)
	assert.Empty(t, stub.calls)
}

func TestBrewMaintenance_ApplyLogsFailures(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeApply, stub)
	bin := fakeBrew(t, env)

	stub.on(engine.ArgvResult{ExitCode: 1, Stderr: "Error: network down\n"}, bin, "update")

	require.NoError(t, BrewMaintenance(env, brewConfig(env, bin), BrewActions{Update: true}))

	assert.Contains(t, buf.String(), "brew: update failed: Error: network down")
	assert.Equal(t, 1, stub.invoked(bin, "update"))
}

func TestBrewMaintenance_RelativeBinRejected(t *testing.T) {
	env, _ := testEnv(t, ModeReport, newScriptRunner())

	cfg := brewConfig(env, "brew")
	err := BrewMaintenance(env, cfg, BrewActions{})
	assert.ErrorContains(t, err, "brew bin must be an absolute path")
}

func TestBrewMaintenance_MissingBinWarnsAndReturns(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeReport, stub)

	cfg := brewConfig(env, filepath.Join(env.Home, "no-such-brew"))
	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{}))

	assert.Contains(t, buf.String(), "brew: brew bin not executable: "+cfg.Bin)
	assert.Empty(t, stub.calls)
}

func TestBrewMaintenance_ListFileOutsideHome(t *testing.T) {
	env, _ := testEnv(t, ModeReport, newScriptRunner())
	bin := fakeBrew(t, env)

	cfg := brewConfig(env, bin)
	cfg.ListFile = "/etc/brew-list.txt"
	err := BrewMaintenance(env, cfg, BrewActions{})
	assert.ErrorContains(t, err, "brew list file must be within")
}

func TestBrewMaintenance_ListFailureLogged(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeReport, stub)
	bin := fakeBrew(t, env)
	cfg := brewConfig(env, bin)

	stub.on(engine.ArgvResult{ExitCode: 1, Stderr: "Error: broken tap\n"}, bin, "list")
	stub.on(engine.ArgvResult{Stdout: ""}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{}))

	assert.Contains(t, buf.String(), "brew: list failed: Error: broken tap")
	assert.NoFileExists(t, cfg.ListFile)
}

func TestBrewMaintenance_FixCasksReinstallPlan(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeDryRun, stub)
	bin := fakeBrew(t, env)

	cfg := brewConfig(env, bin)
	cfg.FixCaskApps = []string{"Zz Missing App", "Zz Absent"}
	cfg.CaskRenames = map[string]string{"Zz Missing App": "zz-cask"}

	stub.on(engine.ArgvResult{Stdout: "zz missing app\nother\n"}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{FixCasks: true}))

	assert.Contains(t, buf.String(), "brew: would reinstall missing casks: zz-cask")
	assert.Equal(t, 0, stub.invoked(bin, "uninstall"))
	assert.Equal(t, 0, stub.invoked(bin, "install"))
}

func TestBrewMaintenance_FixCasksApplyReinstalls(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeApply, stub)
	bin := fakeBrew(t, env)

	cfg := brewConfig(env, bin)
	cfg.FixCaskApps = []string{"Zz Missing App"}
	cfg.CaskRenames = map[string]string{"Zz Missing App": "zz-cask"}

	stub.on(engine.ArgvResult{Stdout: "zz missing app\n"}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{FixCasks: true}))

	assert.Contains(t, buf.String(), "brew: reinstalling missing casks: zz-cask")
	assert.Equal(t, 1, stub.invoked(bin, "uninstall", "--cask", "zz-cask"))
	assert.Equal(t, 1, stub.invoked(bin, "install", "--cask", "zz-cask"))
}

func TestBrewMaintenance_FixCasksNothingMissing(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeDryRun, stub)
	bin := fakeBrew(t, env)

	cfg := brewConfig(env, bin)
	cfg.FixCaskApps = []string{"Zz Missing App"}

	stub.on(engine.ArgvResult{Stdout: "other\n"}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{FixCasks: true}))
	assert.Contains(t, buf.String(), "brew: no missing cask apps detected")
}

func TestBrewMaintenance_FixCasksListFailure(t *testing.T) {
	stub := newScriptRunner()
	env, buf := testEnv(t, ModeDryRun, stub)
	bin := fakeBrew(t, env)

	cfg := brewConfig(env, bin)
	cfg.FixCaskApps = []string{"Zz Missing App"}

	stub.on(engine.ArgvResult{ExitCode: 1}, bin, "list", "--cask")

	require.NoError(t, BrewMaintenance(env, cfg, BrewActions{FixCasks: true}))
	assert.Contains(t, buf.String(), "brew: could not list casks for fix")
}
