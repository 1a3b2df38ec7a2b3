package osutil

import (
	"os"
	"strconv"
	"strings"

	"github.com/pbnjay/memory"
)

// cgroup v1 reports this page aligned max int64 when no limit is set.
const unrestrictedCgroupV1Limit = 9223372036854771712

var cgroupLimitFiles = []string{
	"/sys/fs/cgroup/memory.max",                   // cgroup v2
	"/sys/fs/cgroup/memory/memory.limit_in_bytes", // cgroup v1
}

// GetTotalMemory returns the host's total memory, or the container's memory
// limit when one applies.
func GetTotalMemory() uint64 {
	for _, path := range cgroupLimitFiles {
		if limit, ok := readCgroupLimit(path); ok {
			return limit
		}
	}
	return memory.TotalMemory()
}

func readCgroupLimit(path string) (uint64, bool) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	return parseCgroupLimit(string(contents))
}

// parseCgroupLimit returns false for unset limits, which cgroup v2 reports
// as "max".
func parseCgroupLimit(contents string) (uint64, bool) {
	limit, err := strconv.ParseUint(strings.TrimSpace(contents), 10, 64)
	if err != nil || limit == 0 || limit == unrestrictedCgroupV1Limit {
		return 0, false
	}
	return limit, true
}
