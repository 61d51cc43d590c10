package ipc

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

const socketSubdir = "snowland"

const (
	socketFilePrefix = "host-ipc-"
	socketFileSuffix = ".socket"
)

// socketDirOverride lets a daemon's file-based configuration (§6, NEW
// AMBIENT STACK) pin the socket directory explicitly instead of
// deriving it from the environment - set once at startup, before any
// socket is bound.
var socketDirOverride string

// SetSocketDirOverride pins the directory instance sockets live in,
// bypassing the $XDG_RUNTIME_DIR/$TMP/tmp fallback chain. Passing ""
// clears the override.
func SetSocketDirOverride(dir string) {
	socketDirOverride = dir
}

// SocketDir resolves the directory instance sockets live in: the
// override if one was set, else $XDG_RUNTIME_DIR, then $TMP, then
// /tmp, each with a "snowland" subdirectory appended (§4.1, §6).
func SocketDir() string {
	if socketDirOverride != "" {
		return socketDirOverride
	}
	base := os.Getenv("XDG_RUNTIME_DIR")
	if base == "" {
		base = os.Getenv("TMP")
	}
	if base == "" {
		base = "/tmp"
	}
	return filepath.Join(base, socketSubdir)
}

// SocketPath returns the per-instance socket file path for instance N.
func SocketPath(instance int) string {
	return filepath.Join(SocketDir(), fmt.Sprintf("%s%d%s", socketFilePrefix, instance, socketFileSuffix))
}

// ListAliveInstances enumerates the socket directory for existing files
// matching the host-ipc-<N>.socket pattern and returns their instance
// numbers, ascending.
func ListAliveInstances() []int {
	dir := SocketDir()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	var instances []int
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, socketFilePrefix) || !strings.HasSuffix(name, socketFileSuffix) {
			continue
		}
		numeric := strings.TrimSuffix(strings.TrimPrefix(name, socketFilePrefix), socketFileSuffix)
		n, err := strconv.Atoi(numeric)
		if err != nil {
			continue
		}
		instances = append(instances, n)
	}
	sort.Ints(instances)
	return instances
}

// LowestFreeInstance returns the smallest positive integer not present
// in instances.
func LowestFreeInstance(instances []int) int {
	taken := make(map[int]bool, len(instances))
	for _, i := range instances {
		taken[i] = true
	}
	for n := 1; ; n++ {
		if !taken[n] {
			return n
		}
	}
}
