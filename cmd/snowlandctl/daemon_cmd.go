package main

import (
	"fmt"
	"net"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/banksean/snowland/internal/ipc"
)

// DaemonCmd starts, stops, restarts, or reports on the snowland daemon
// process. There is no protocol-level shutdown message (§4.2's six
// message variants are query/mutate only), so stop/restart signal the
// process directly via the PID stamped into its instance lock file.
// Grounded on cmd/sand/daemon_cmd.go's start/stop/restart/status switch.
type DaemonCmd struct {
	Action string `arg:"" optional:"" default:"status" enum:"start,stop,restart,status" help:"start, stop, restart, or report status (default)"`
}

func (c *DaemonCmd) Run(cctx *Context) error {
	switch c.Action {
	case "start":
		return startDaemon(cctx)
	case "stop":
		return stopDaemon(cctx)
	case "restart":
		if err := stopDaemon(cctx); err != nil {
			fmt.Fprintf(os.Stderr, "daemon was not running: %v\n", err)
		}
		return startDaemon(cctx)
	case "status":
		fallthrough
	default:
		return daemonStatus(cctx)
	}
}

func daemonStatus(cctx *Context) error {
	instances := ipc.ListAliveInstances()
	if len(instances) == 0 {
		fmt.Println("Daemon is not running")
		return nil
	}
	fmt.Printf("Daemon is running (instances: %v)\n", instances)
	return nil
}

func stopDaemon(cctx *Context) error {
	instance := cctx.Instance
	if instance == 0 {
		instances := ipc.ListAliveInstances()
		if len(instances) == 0 {
			fmt.Println("Daemon is not running")
			return nil
		}
		instance = instances[0]
	}

	pid, err := ipc.ReadInstancePID(instance)
	if err != nil {
		return fmt.Errorf("snowlandctl: could not determine daemon pid: %w", err)
	}

	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil {
		return fmt.Errorf("snowlandctl: failed to stop daemon (pid %d): %w", pid, err)
	}

	fmt.Println("Daemon stopped")
	return nil
}

func startDaemon(cctx *Context) error {
	if len(ipc.ListAliveInstances()) > 0 {
		fmt.Println("Daemon is already running")
		return nil
	}

	binary, err := exec.LookPath("snowland")
	if err != nil {
		return fmt.Errorf("snowlandctl: could not find the snowland daemon binary on PATH: %w", err)
	}

	cmd := exec.Command(binary)
	cmd.Stdout = nil
	cmd.Stderr = nil
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("snowlandctl: failed to start daemon: %w", err)
	}

	for i := 0; i < 50; i++ {
		time.Sleep(100 * time.Millisecond)
		instances := ipc.ListAliveInstances()
		if len(instances) == 0 {
			continue
		}
		conn, err := net.DialTimeout("unix", ipc.SocketPath(instances[0]), 100*time.Millisecond)
		if err == nil {
			conn.Close()
			fmt.Println("Daemon started")
			return nil
		}
	}

	return fmt.Errorf("snowlandctl: daemon failed to start within the expected time")
}
