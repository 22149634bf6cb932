// bench-build measures heap memory and wall time across repeated dry-run
// builds of a workspace, showing how much the analysis cache saves once warm.
//
// Usage:
//
//	go run ./scripts/bench-build --input ~/scripts/Workspace.sln --rounds 5 \
//	  --profile-dir docs/profiles/build
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"time"

	"github.com/Sumatoshi-tech/pbmerge/internal/config"
	"github.com/Sumatoshi-tech/pbmerge/pkg/build"
)

type heapSnapshot struct {
	label     string
	heapInUse uint64
	heapSys   uint64
	elapsed   time.Duration
}

func main() {
	input := flag.String("input", "", "Project, solution or directory to build")
	rounds := flag.Int("rounds", 5, "Number of dry-run builds")
	profileDir := flag.String("profile-dir", "", "Directory to write heap profiles")
	cacheEntries := flag.Int("cache-entries", 0, "Analysis cache size (0 = configured default)")

	flag.Parse()

	if *input == "" {
		log.Fatal("--input is required")
	}

	if *profileDir == "" {
		log.Fatal("--profile-dir is required")
	}

	if err := os.MkdirAll(*profileDir, 0o755); err != nil {
		log.Fatalf("mkdir profile-dir: %v", err)
	}

	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	settings := cfg.BuildSettings()
	if *cacheEntries > 0 {
		settings.CacheEntries = *cacheEntries
	}

	builder, err := build.New(settings)
	if err != nil {
		log.Fatalf("create builder: %v", err)
	}

	var snapshots []heapSnapshot

	takeSnapshot := func(label string, elapsed time.Duration) {
		runtime.GC()
		runtime.GC()

		var m runtime.MemStats
		runtime.ReadMemStats(&m)
		snapshots = append(snapshots, heapSnapshot{
			label:     label,
			heapInUse: m.HeapInuse,
			heapSys:   m.HeapSys,
			elapsed:   elapsed,
		})
	}

	writeHeapProfile := func(name string) {
		runtime.GC()

		path := filepath.Join(*profileDir, name)

		f, ferr := os.Create(path)
		if ferr != nil {
			log.Printf("warning: create heap profile %s: %v", path, ferr)

			return
		}
		defer f.Close()

		if perr := pprof.WriteHeapProfile(f); perr != nil {
			log.Printf("warning: write heap profile %s: %v", path, perr)
		}
	}

	takeSnapshot("before_build", 0)

	for i := range *rounds {
		start := time.Now()

		result, buildErr := builder.Build(context.Background(), *input, build.Options{DryRun: true})
		if result == nil {
			log.Fatalf("round %d: %v", i+1, buildErr)
		}

		if buildErr != nil {
			log.Printf("round %d: %v", i+1, buildErr)
		}

		label := fmt.Sprintf("round_%d (%d built)", i+1, len(result.Artifacts))
		takeSnapshot(label, time.Since(start))
		writeHeapProfile(fmt.Sprintf("heap_round_%d.prof", i+1))
	}

	fmt.Println()
	fmt.Println("=== Build Timeline ===")
	fmt.Printf("%-30s %10s %10s %12s\n", "Phase", "InUse(MB)", "Sys(MB)", "Elapsed")
	fmt.Println("------------------------------+----------+----------+------------")

	for _, s := range snapshots {
		fmt.Printf("%-30s %10.1f %10.1f %12s\n",
			s.label, float64(s.heapInUse)/1e6, float64(s.heapSys)/1e6, s.elapsed.Round(time.Microsecond))
	}
}
