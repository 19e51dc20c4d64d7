package probe

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mhalverson/macmaint/internal/engine"
	"github.com/mhalverson/macmaint/internal/types"
)

var (
	// modelRe pulls the model identifier out of an ioreg registry dump,
	// where it appears as "model" = <"Mac14,10">.
	modelRe = regexp.MustCompile(`"model"\s*=\s*<"([^"]+)"`)

	// modelNumberRe pulls the hex-encoded model number, "model-number" = <...>.
	modelNumberRe = regexp.MustCompile(`"model-number"\s*=\s*<([0-9A-Fa-f]+)>`)
)

// hardwareProfile is the slice of system_profiler -json output we consume.
// NumberProcessors is a string like "proc 12:8:4" on Apple silicon but a
// plain number on Intel, so it stays untyped here.
type hardwareProfile struct {
	SPHardwareDataType []struct {
		ChipType         string `json:"chip_type"`
		PhysicalMemory   string `json:"physical_memory"`
		BootROMVersion   string `json:"boot_rom_version"`
		OSLoaderVersion  string `json:"os_loader_version"`
		ModelNumber      string `json:"model_number"`
		NumberProcessors any    `json:"number_processors"`
	} `json:"SPHardwareDataType"`
}

// Hardware produces the "Hardware quick summary" check by combining an ioreg
// device-registry dump with the structured system_profiler hardware profile,
// condensed into one line per attribute.
func Hardware(r engine.Runner, timeout time.Duration, maxChars, maxLines int) types.CheckResult {
	const title = "Hardware quick summary"
	const command = "ioreg -rd1 -c IOPlatformExpertDevice; system_profiler SPHardwareDataType -json"

	var (
		stdoutParts []string
		stderrParts []string
		total       time.Duration
		rc          int
	)

	ioreg := r.RunArgv(engine.Argv{
		Argv:    []string{"ioreg", "-rd1", "-c", "IOPlatformExpertDevice"},
		Timeout: atLeast(timeout, 5*time.Second),
	})
	total += ioreg.Duration
	if ioreg.Err != nil {
		return failed(title, command, total, ioreg.Err)
	}
	if ioreg.ExitCode != 0 {
		rc = ioreg.ExitCode
	}
	if s := strings.TrimSpace(ioreg.Stderr); s != "" {
		stderrParts = append(stderrParts, "[ioreg stderr]\n"+s)
	}

	var model, hexModelNumber string
	if m := modelRe.FindStringSubmatch(ioreg.Stdout); m != nil {
		model = strings.TrimSpace(m[1])
	}
	if m := modelNumberRe.FindStringSubmatch(ioreg.Stdout); m != nil {
		if b, err := hex.DecodeString(m[1]); err == nil {
			decoded := strings.TrimSpace(strings.Trim(string(b), "\x00"))
			if decoded != "" {
				hexModelNumber = decoded
			}
		}
	}

	prof := r.RunArgv(engine.Argv{
		Argv:    []string{"system_profiler", "SPHardwareDataType", "-json"},
		Timeout: atLeast(timeout, 10*time.Second),
	})
	total += prof.Duration
	if prof.Err != nil {
		return failed(title, command, total, prof.Err)
	}
	if prof.ExitCode != 0 {
		rc = prof.ExitCode
	}
	if s := strings.TrimSpace(prof.Stderr); s != "" {
		stderrParts = append(stderrParts, "[system_profiler stderr]\n"+s)
	}

	var chip, memory, cores, firmware, osLoader, spModelNumber string
	if strings.TrimSpace(prof.Stdout) != "" {
		var data hardwareProfile
		if err := json.Unmarshal([]byte(prof.Stdout), &data); err != nil {
			stderrParts = append(stderrParts, fmt.Sprintf("[system_profiler parse]\n%T: %v", err, err))
		} else if len(data.SPHardwareDataType) > 0 {
			entry := data.SPHardwareDataType[0]
			chip = entry.ChipType
			memory = entry.PhysicalMemory
			firmware = entry.BootROMVersion
			osLoader = entry.OSLoaderVersion
			spModelNumber = entry.ModelNumber
			cores = coreSummary(entry.NumberProcessors)
		}
	}

	if model != "" {
		stdoutParts = append(stdoutParts, "Model Identifier: "+model)
	}
	switch {
	case spModelNumber != "":
		stdoutParts = append(stdoutParts, "Model Number: "+spModelNumber)
	case hexModelNumber != "":
		stdoutParts = append(stdoutParts, "Model Number: "+hexModelNumber)
	}
	if chip != "" {
		stdoutParts = append(stdoutParts, "Chip: "+chip)
	}
	if cores != "" {
		stdoutParts = append(stdoutParts, "Cores: "+cores)
	}
	if memory != "" {
		stdoutParts = append(stdoutParts, "Memory: "+memory)
	}
	if firmware != "" {
		stdoutParts = append(stdoutParts, "Firmware: "+firmware)
	}
	if osLoader != "" {
		stdoutParts = append(stdoutParts, "OS Loader: "+osLoader)
	}

	out := strings.TrimSpace(strings.Join(stdoutParts, "\n"))
	if out == "" {
		out = "(no output)"
		if len(stderrParts) == 0 {
			stderrParts = append(stderrParts, "No data returned from ioreg/system_profiler.")
		}
		if rc == 0 {
			rc = 1
		}
	}

	out, outCut := engine.Truncate(out, maxChars, maxLines)
	errOut, errCut := engine.Truncate(strings.TrimSpace(strings.Join(stderrParts, "\n\n")), maxChars, maxLines)
	if outCut {
		out += "\n\n[output truncated]"
	}
	if errCut {
		errOut += "\n\n[stderr truncated]"
	}

	return types.CheckResult{
		Title:      title,
		Command:    command,
		Duration:   total,
		DurationMS: total.Milliseconds(),
		ExitCode:   &rc,
		Stdout:     out,
		Stderr:     errOut,
	}
}

// coreSummary renders system_profiler's "proc 12:8:4" descriptor as
// "12 (8P+4E)". Anything else comes back empty and the line is omitted.
func coreSummary(v any) string {
	s, ok := v.(string)
	if !ok || !strings.HasPrefix(s, "proc ") {
		return ""
	}
	parts := strings.Split(strings.TrimPrefix(s, "proc "), ":")
	if len(parts) != 3 {
		return ""
	}
	for _, p := range parts {
		if p == "" {
			return ""
		}
		for _, ch := range p {
			if ch < '0' || ch > '9' {
				return ""
			}
		}
	}
	return fmt.Sprintf("%s (%sP+%sE)", parts[0], parts[1], parts[2])
}
