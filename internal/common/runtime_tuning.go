package common

import (
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Runtime profiles. The engine holds the whole ledger in memory and works in short bursts
// around compound cycles, so the profiles bound memory rather than chase latency.
const (
	SmallServerGOGC     = 100
	SmallServerMemLimit = 512 * 1024 * 1024 // 512MB

	LargeServerGOGC     = 200
	LargeServerMemLimit = 2 * 1024 * 1024 * 1024 // 2GB
)

func detectServerProfile() (gogc int, memLimit int64) {
	if runtime.NumCPU() <= 2 {
		return SmallServerGOGC, SmallServerMemLimit
	}
	return LargeServerGOGC, LargeServerMemLimit
}

// InitRuntime applies the GC profile for the host. GOGC and GOMEMLIMIT in the environment win.
func InitRuntime() {
	defaultGOGC, defaultMemLimit := detectServerProfile()

	if os.Getenv("GOGC") == "" {
		debug.SetGCPercent(defaultGOGC)
		log.Info().Int("GOGC", defaultGOGC).Msg("[runtime] Set GOGC")
	}

	if os.Getenv("GOMEMLIMIT") == "" {
		debug.SetMemoryLimit(defaultMemLimit)
		log.Info().
			Int64("GOMEMLIMIT_bytes", defaultMemLimit).
			Msg("[runtime] Set memory limit")
	}

	logRuntimeSettings()
}

// InitLogger sets the global zerolog level. Unknown levels fall back to info.
func InitLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Info().Str("level", lvl.String()).Msg("[runtime] Set log level")
}

func logRuntimeSettings() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	log.Info().
		Int("num_cpu", runtime.NumCPU()).
		Int("gomaxprocs", runtime.GOMAXPROCS(0)).
		Uint64("heap_alloc_mb", memStats.HeapAlloc/1024/1024).
		Str("go_version", runtime.Version()).
		Msg("[runtime] Current runtime settings")
}
