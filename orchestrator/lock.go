package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/use-agent/seoscope/models"
)

const lockFileName = ".orchestrator.lock"

// projectLock enforces single-writer-per-project: only one orchestrator
// process may run a given project directory at a time. It is advisory,
// backed by an exclusively created lock file holding the owning PID.
type projectLock struct {
	path string
}

// acquireLock creates dir/.orchestrator.lock exclusively. If the file
// already exists and its recorded PID is still alive, LOCK_HELD is
// returned; a lock file left behind by a dead process is reclaimed.
func acquireLock(dir string) (*projectLock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating project dir: %w", err)
	}
	path := filepath.Join(dir, lockFileName)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("creating lock file: %w", err)
		}
		if held, pid := lockHeldByLiveProcess(path); held {
			return nil, models.NewPipelineError(models.ErrKindLockHeld,
				fmt.Sprintf("project is locked by process %d", pid), nil)
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("reclaiming stale lock: %w", err)
		}
		f, err = os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("creating lock file after reclaim: %w", err)
		}
	}
	defer f.Close()

	if _, err := f.WriteString(strconv.Itoa(os.Getpid())); err != nil {
		return nil, fmt.Errorf("writing lock file: %w", err)
	}

	return &projectLock{path: path}, nil
}

func (l *projectLock) release() error {
	return os.Remove(l.path)
}

func lockHeldByLiveProcess(path string) (bool, int) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(string(data))
	if err != nil {
		return false, 0
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, pid
	}
	// On Unix, FindProcess always succeeds; signal 0 probes liveness
	// without actually delivering a signal.
	if err := proc.Signal(syscall.Signal(0)); err != nil {
		return false, pid
	}
	return true, pid
}
