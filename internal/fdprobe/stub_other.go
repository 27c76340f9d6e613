//go:build !unix

package fdprobe

const fdDir = ""

var softLimit func() (uint64, bool, error)
