package util

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Debug is the highest trace level that DPrintf emits. The CLI raises it
// with -v.
var Debug uint64 = 0

func DPrintf(level uint64, format string, a ...interface{}) {
	if level <= Debug {
		msg := strings.TrimSuffix(fmt.Sprintf(format, a...), "\n")
		slog.Default().Log(context.Background(), slog.LevelDebug, msg, "trace", level)
	}
}

func RoundUp(n uint64, sz uint64) uint64 {
	return (n + sz - 1) / sz
}

func Min(n uint64, m uint64) uint64 {
	if n < m {
		return n
	} else {
		return m
	}
}

func SumOverflows(n uint64, m uint64) bool {
	return n+m < n
}

// CStr trims a NUL-padded fixed-width field.
func CStr(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}
