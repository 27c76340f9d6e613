//go:build unix

package fdprobe

import (
	"math"

	"golang.org/x/sys/unix"
)

// softLimit reads RLIMIT_NOFILE. RLIM_INFINITY is all ones on Linux and
// MaxInt64 on Darwin and the BSDs, so anything at or above MaxInt64 is
// treated as unlimited.
func softLimit() (uint64, bool, error) {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0, false, err
	}
	cur := uint64(rl.Cur)
	if cur >= math.MaxInt64 {
		return 0, false, nil
	}
	return cur, true, nil
}
