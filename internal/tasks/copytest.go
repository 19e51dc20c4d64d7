package tasks

import (
	"os"
	"path/filepath"

	"github.com/mhalverson/macmaint/internal/config"
	"github.com/mhalverson/macmaint/internal/engine"
)

// CopySpeedTest copies a source to a destination with rsync and reports the
// measured throughput. Progress streams to the terminal while the copy runs.
func CopySpeedTest(env *Env, cfg config.CopyConfig) error {
	if cfg.Src == "" || cfg.Dst == "" {
		env.Log.Infof("copy-speed-test: source and destination are not configured")
		return nil
	}

	src := absPath(env.Home, cfg.Src)
	dst := absPath(env.Home, cfg.Dst)

	if _, err := os.Stat(src); err != nil {
		env.Log.Infof("copy-speed-test: source not found: %s", src)
		return nil
	}
	if st, err := os.Stat(filepath.Dir(dst)); err != nil || !st.IsDir() {
		env.Log.Infof("copy-speed-test: destination parent missing: %s", filepath.Dir(dst))
		return nil
	}

	sizeKB, haveSize := duKB(env.Runner, src)
	if haveSize {
		env.Log.Infof("copy-speed-test: source size %s", humanSizeKB(sizeKB))
	}

	if env.Mode != ModeApply {
		env.Log.Infof("copy-speed-test: would copy %s -> %s", src, dst)
		return nil
	}

	env.Log.Infof("copy-speed-test: starting copy %s -> %s", src, dst)
	res := env.Runner.RunArgv(engine.Argv{
		Argv: []string{
			"/usr/bin/rsync",
			"-ah",
			"--progress",
			"--partial",
			"--inplace",
			"--compress-level=1",
			src,
			dst,
		},
		Stream: true,
	})

	seconds := int64(res.Duration.Seconds())
	if seconds < 1 {
		seconds = 1
	}

	if res.Err != nil {
		env.Log.Infof("copy-speed-test: rsync failed: %v", res.Err)
		return nil
	}
	if res.ExitCode != 0 {
		env.Log.Infof("copy-speed-test: rsync failed with %d", res.ExitCode)
		return nil
	}

	if haveSize {
		speed := (float64(sizeKB) / 1024) / float64(seconds)
		env.Log.Infof("copy-speed-test: avg speed %.2f MB/s", speed)
	}
	env.Log.Infof("copy-speed-test: completed in %ds", seconds)
	return nil
}
