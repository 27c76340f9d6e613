//go:build unix && !linux

package fdprobe

const fdDir = "/dev/fd"
