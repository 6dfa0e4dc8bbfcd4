// Package clipboard copies one-time codes to the system clipboard and
// clears them again once their window has passed, so a stale code does not
// linger for other applications to read.
package clipboard

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Manager copies codes to the system clipboard with scheduled auto-clear.
type Manager struct {
	mu         sync.Mutex
	clearTimer *time.Timer
	lastCopy   string
}

// NewManager creates a clipboard manager.
func NewManager() *Manager {
	return &Manager{}
}

// CopyCode places a one-time code on the clipboard. When ttl is positive the
// clipboard is cleared after ttl, but only if it still holds this code;
// anything the user copied in the meantime is left alone.
func (m *Manager) CopyCode(code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.clearTimer != nil {
		m.clearTimer.Stop()
		m.clearTimer = nil
	}

	if err := writeSystem(code); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	m.lastCopy = code

	if ttl > 0 {
		m.clearTimer = time.AfterFunc(ttl, func() {
			if err := m.clearIfUnchanged(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to auto-clear clipboard: %v\n", err)
			}
		})
	}
	return nil
}

// Clear empties the clipboard and cancels any pending auto-clear.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.clearLocked()
}

func (m *Manager) clearLocked() error {
	if m.clearTimer != nil {
		m.clearTimer.Stop()
		m.clearTimer = nil
	}

	if err := writeSystem(""); err != nil {
		return fmt.Errorf("failed to clear clipboard: %w", err)
	}
	m.lastCopy = ""
	return nil
}

// clearIfUnchanged clears the clipboard only if it still holds the code we
// copied last.
func (m *Manager) clearIfUnchanged() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.lastCopy == "" {
		return nil
	}

	current, err := readSystem()
	if err != nil {
		// Cannot verify the content; leave the clipboard alone.
		return fmt.Errorf("cannot verify clipboard content: %w", err)
	}

	if strings.TrimRight(current, "\r\n") != m.lastCopy {
		// The user copied something else since; nothing of ours to clear.
		m.lastCopy = ""
		return nil
	}
	return m.clearLocked()
}

func writeSystem(text string) error {
	switch runtime.GOOS {
	case "darwin":
		return pipeTo(text, "pbcopy")
	case "linux":
		if err := pipeTo(text, "xclip", "-selection", "clipboard"); err != nil {
			return pipeTo(text, "xsel", "--clipboard", "--input")
		}
		return nil
	case "windows":
		return exec.Command("powershell", "-command", "Set-Clipboard", "-Value", text).Run()
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func readSystem() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		return runOutput("pbpaste")
	case "linux":
		if out, err := runOutput("xclip", "-selection", "clipboard", "-output"); err == nil {
			return out, nil
		}
		return runOutput("xsel", "--clipboard", "--output")
	case "windows":
		return runOutput("powershell", "-command", "Get-Clipboard")
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}

func pipeTo(text string, name string, args ...string) error {
	cmd := exec.Command(name, args...)
	cmd.Stdin = strings.NewReader(text)
	return cmd.Run()
}

func runOutput(name string, args ...string) (string, error) {
	output, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(output), nil
}

// IsSupported reports whether clipboard helpers are available on this
// platform.
func IsSupported() bool {
	switch runtime.GOOS {
	case "darwin":
		return commandAvailable("pbcopy") && commandAvailable("pbpaste")
	case "linux":
		return commandAvailable("xclip") || commandAvailable("xsel")
	case "windows":
		return commandAvailable("powershell")
	default:
		return false
	}
}

func commandAvailable(command string) bool {
	_, err := exec.LookPath(command)
	return err == nil
}
