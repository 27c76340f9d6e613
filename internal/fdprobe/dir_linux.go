//go:build linux

package fdprobe

const fdDir = "/proc/self/fd"
