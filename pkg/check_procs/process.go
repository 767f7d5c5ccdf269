package check_procs

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/process"
)

// ProcInfo contains the attributes of a single process, memory sizes are in KB.
type ProcInfo struct {
	PID     int32
	PPID    int32
	UID     int32
	User    string
	VSZ     int64
	RSS     int64
	PCPU    float64
	State   string // ps state letters, ex.: "S" or "Z"
	Elapsed time.Duration
	Command string // program name without path
	Args    string // full command line
}

// ProcessLister returns all processes.
type ProcessLister func(ctx context.Context) ([]ProcInfo, error)

// listProcesses returns all processes from the process table.
func listProcesses(ctx context.Context) ([]ProcInfo, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching processes failed: %s", err.Error())
	}

	now := time.Now()
	list := make([]ProcInfo, 0, len(procs))
	for _, proc := range procs {
		name, err := proc.NameWithContext(ctx)
		if err != nil {
			// process has gone meanwhile
			log.Tracef("check_procs: name error for pid %d: %s", proc.Pid, err.Error())

			continue
		}

		info := ProcInfo{
			PID:     proc.Pid,
			Command: filepath.Base(name),
			UID:     -1,
		}

		info.Args, err = proc.CmdlineWithContext(ctx)
		if err != nil || info.Args == "" {
			info.Args = "[" + name + "]"
		}

		if info.PPID, err = proc.PpidWithContext(ctx); err != nil {
			log.Tracef("check_procs: ppid error: %s", err.Error())
		}

		if uids, err := proc.UidsWithContext(ctx); err == nil && len(uids) > 0 {
			info.UID = uids[0]
		}

		if info.User, err = proc.UsernameWithContext(ctx); err != nil {
			log.Tracef("check_procs: username error: %s", err.Error())
		}

		if mem, err := proc.MemoryInfoWithContext(ctx); err == nil {
			info.VSZ = int64(mem.VMS / 1024)
			info.RSS = int64(mem.RSS / 1024)
		}

		if info.PCPU, err = proc.CPUPercentWithContext(ctx); err != nil {
			log.Tracef("check_procs: cpu error: %s", err.Error())
		}

		if states, err := proc.StatusWithContext(ctx); err == nil {
			letters := make([]string, 0, len(states))
			for _, s := range states {
				letters = append(letters, convertStatusChar(s))
			}
			info.State = strings.Join(letters, "")
		}

		if ctime, err := proc.CreateTimeWithContext(ctx); err == nil {
			info.Elapsed = now.Sub(time.UnixMilli(ctime))
		}

		list = append(list, info)
	}

	return list, nil
}

// convertStatusChar converts process states into the letters used by ps.
func convertStatusChar(status string) string {
	switch strings.ToLower(status) {
	case "r", "running":
		return "R"
	case "s", "sleep":
		return "S"
	case "d", "w", "wait":
		return "D"
	case "t", "stop":
		return "T"
	case "z", "zombie":
		return "Z"
	case "i", "idle":
		return "I"
	case "l", "lock":
		return "L"
	default:
		return "?"
	}
}
