// Package device manages the phone under test over ADB: port forwarding for
// the automation server, test resources on the SD card and the B2G process.
package device

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/gaiatest/pkg/logger"
)

// SDCard is where test resources are pushed.
const SDCard = "/sdcard"

// Runner executes a host command and returns its stdout.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// ExecRunner runs commands with os/exec.
func ExecRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg == "" {
			errMsg = strings.TrimSpace(stdout.String())
		}
		return "", fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, errMsg)
	}
	return stdout.String(), nil
}

// Device is one phone reachable through adb.
type Device struct {
	serial  string
	adbPath string
	run     Runner
}

// Info contains basic device information.
type Info struct {
	Serial     string
	Model      string
	Build      string
	IsEmulator bool
}

// Entry is one line of `adb devices`.
type Entry struct {
	Serial string
	State  string
}

// NoDevicesError is returned when no device is attached and none was named.
type NoDevicesError struct {
	Message     string
	Suggestions []string
}

func (e *NoDevicesError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if len(e.Suggestions) > 0 {
		b.WriteString("\n\nOptions:")
		for _, s := range e.Suggestions {
			b.WriteString("\n  - " + s)
		}
	}
	return b.String()
}

// New creates a Device for serial using the adb found on PATH.
// If serial is empty, the first attached device is used.
func New(ctx context.Context, serial string) (*Device, error) {
	adbPath, err := findADB()
	if err != nil {
		return nil, err
	}
	return NewWithRunner(ctx, serial, adbPath, ExecRunner)
}

// NewWithRunner is New with an explicit adb binary and command runner.
func NewWithRunner(ctx context.Context, serial, adbPath string, run Runner) (*Device, error) {
	d := &Device{serial: serial, adbPath: adbPath, run: run}

	if serial == "" {
		entries, err := d.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("no device specified and auto-detect failed: %w", err)
		}
		for _, e := range entries {
			if e.State == "device" {
				d.serial = e.Serial
				break
			}
		}
		if d.serial == "" {
			return nil, &NoDevicesError{
				Message: "No devices found",
				Suggestions: []string{
					"Connect a phone via USB and enable remote debugging",
					"Start an emulator and check `adb devices`",
					"Name the device with --device <serial>",
				},
			}
		}
	}

	if err := d.waitForDevice(ctx, 5*time.Second); err != nil {
		return nil, fmt.Errorf("device not found: %w", err)
	}
	logger.Info("Using device %s", d.serial)
	return d, nil
}

// List returns every device adb knows about.
func (d *Device) List(ctx context.Context) ([]Entry, error) {
	out, err := d.run(ctx, d.adbPath, "devices")
	if err != nil {
		return nil, err
	}
	return parseDevices(out), nil
}

func parseDevices(out string) []Entry {
	var entries []Entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "List of") || strings.HasPrefix(line, "*") {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) >= 2 {
			entries = append(entries, Entry{Serial: parts[0], State: parts[1]})
		}
	}
	return entries
}

// Serial returns the device serial number.
func (d *Device) Serial() string {
	return d.serial
}

// Shell executes a shell command on the device.
func (d *Device) Shell(ctx context.Context, cmd string) (string, error) {
	return d.adb(ctx, "shell", cmd)
}

// Forward creates a port forward from local to device.
func (d *Device) Forward(ctx context.Context, localPort, remotePort int) error {
	_, err := d.adb(ctx, "forward", fmt.Sprintf("tcp:%d", localPort), fmt.Sprintf("tcp:%d", remotePort))
	return err
}

// RemoveForward removes a port forward.
func (d *Device) RemoveForward(ctx context.Context, localPort int) error {
	_, err := d.adb(ctx, "forward", "--remove", fmt.Sprintf("tcp:%d", localPort))
	return err
}

// Push copies a host file to the device.
func (d *Device) Push(ctx context.Context, local, remote string) error {
	_, err := d.adb(ctx, "push", local, remote)
	return err
}

// MakeDir creates a directory (and parents) on the device.
func (d *Device) MakeDir(ctx context.Context, dir string) error {
	_, err := d.Shell(ctx, "mkdir -p "+dir)
	return err
}

// RemoveDir deletes a directory on the device.
func (d *Device) RemoveDir(ctx context.Context, dir string) error {
	_, err := d.Shell(ctx, "rm -r "+dir)
	return err
}

// PushResource copies local to destination under the SD card count times.
// Copies are numbered before the extension: VID_0001.3gp becomes
// VID_0001_1.3gp, VID_0001_2.3gp and so on.
func (d *Device) PushResource(ctx context.Context, local, destination string, count int) ([]string, error) {
	if count < 1 {
		count = 1
	}
	dir := path.Join(SDCard, destination)
	if err := d.MakeDir(ctx, dir); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	remotes := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		remote := path.Join(dir, NumberedName(filepath.Base(local), i))
		if err := d.Push(ctx, local, remote); err != nil {
			return remotes, fmt.Errorf("push %s: %w", remote, err)
		}
		remotes = append(remotes, remote)
	}
	logger.Debug("Pushed %s to %s x%d", local, dir, count)
	return remotes, nil
}

// NumberedName inserts _n before the first extension of name.
func NumberedName(name string, n int) string {
	if i := strings.Index(name, "."); i > 0 {
		return fmt.Sprintf("%s_%d%s", name[:i], n, name[i:])
	}
	return fmt.Sprintf("%s_%d", name, n)
}

// Logcat returns the device log lines written since the given time.
func (d *Device) Logcat(ctx context.Context, since time.Time) ([]string, error) {
	out, err := d.adb(ctx, "logcat", "-d", "-v", "time", "-T", since.Format("01-02 15:04:05.000"))
	if err != nil {
		return nil, err
	}
	var lines []string
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "--------- beginning of") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}

// RestartB2G stops and starts the B2G process, which reloads every app.
func (d *Device) RestartB2G(ctx context.Context) error {
	if _, err := d.Shell(ctx, "stop b2g"); err != nil {
		return err
	}
	_, err := d.Shell(ctx, "start b2g")
	return err
}

// Info returns device information.
func (d *Device) Info(ctx context.Context) (Info, error) {
	info := Info{Serial: d.serial}

	if model, err := d.Shell(ctx, "getprop ro.product.model"); err == nil {
		info.Model = strings.TrimSpace(model)
	}
	if build, err := d.Shell(ctx, "getprop ro.build.version.incremental"); err == nil {
		info.Build = strings.TrimSpace(build)
	}

	qemu, _ := d.Shell(ctx, "getprop ro.kernel.qemu")
	info.IsEmulator = strings.TrimSpace(qemu) == "1"

	return info, nil
}

// adb executes an ADB command against this device.
func (d *Device) adb(ctx context.Context, args ...string) (string, error) {
	cmdArgs := make([]string, 0, len(args)+2)
	if d.serial != "" {
		cmdArgs = append(cmdArgs, "-s", d.serial)
	}
	cmdArgs = append(cmdArgs, args...)
	return d.run(ctx, d.adbPath, cmdArgs...)
}

// waitForDevice waits for the device to be available.
func (d *Device) waitForDevice(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		if d.isConnected(ctx) {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timeout waiting for device %s", d.serial)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func (d *Device) isConnected(ctx context.Context) bool {
	out, err := d.adb(ctx, "get-state")
	if err != nil {
		return false
	}
	return strings.TrimSpace(out) == "device"
}

// findADB locates the ADB binary.
func findADB() (string, error) {
	if adbPath, err := exec.LookPath("adb"); err == nil {
		return adbPath, nil
	}
	return "", fmt.Errorf("adb not found in PATH; ensure Android SDK platform-tools are installed")
}
