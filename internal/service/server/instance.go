package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"
)

// commLength is the length Linux truncates process names to.
const commLength = 15

// ErrAlreadyRunning is returned when another daemon process owns the alarms.
var ErrAlreadyRunning = errors.New("another radio-alarm-server is already running")

// checkSingleInstance fails when another process runs the same executable.
func checkSingleInstance() error {
	executable, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}

	pid, found, err := findProcess(filepath.Base(executable), os.Getpid())
	if err != nil {
		return fmt.Errorf("list processes: %w", err)
	}

	if found {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	return nil
}

// findProcess looks for a process named processName other than self.
func findProcess(processName string, self int) (int, bool, error) {
	processList, err := ps.Processes()
	if err != nil {
		return 0, false, err
	}

	for _, process := range processList {
		if process.Pid() == self {
			continue
		}

		if sameExecutable(process.Executable(), processName) {
			return process.Pid(), true, nil
		}
	}

	return 0, false, nil
}

// sameExecutable compares a reported process name with ours, allowing for
// the kernel's truncation of long names.
func sameExecutable(reported, name string) bool {
	if reported == name {
		return true
	}

	return len(reported) == commLength && len(name) > commLength && name[:commLength] == reported
}
