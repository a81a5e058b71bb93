// Command codeart-gen generates one scene and prints it as JSON.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/codeart/internal/client"
	"github.com/talgya/codeart/internal/entropy"
	"github.com/talgya/codeart/internal/scene"
)

func main() {
	seed := flag.Int64("seed", 0, "PRNG seed (default: random)")
	rows := flag.Int("rows", 0, "grid rows")
	cols := flag.Int("cols", 0, "grid columns")
	algorithm := flag.String("algorithm", "", "height algorithm: random, perlin, sine, wave, simplex, fractal")
	paramsFile := flag.String("params", "", "JSON file with ArtParams; flags override its fields")
	summary := flag.Bool("summary", false, "print element counts instead of the scene JSON")
	remote := flag.String("remote", "", "codeartd base URL; generate there instead of locally")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	slog.SetDefault(logger)

	p, err := loadParams(*paramsFile)
	if err != nil {
		slog.Error("failed to load params", "file", *paramsFile, "error", err)
		os.Exit(1)
	}

	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	switch {
	case set["seed"]:
		p.Seed = *seed
	case *paramsFile == "":
		p.Seed = entropy.NewSeed()
	}
	if set["rows"] {
		p.Grid.Rows = *rows
	}
	if set["cols"] {
		p.Grid.Cols = *cols
	}
	if set["algorithm"] {
		p.Blocks.HeightAlgorithm = scene.HeightAlgorithm(*algorithm)
	}

	start := time.Now()
	elements, err := generate(p, *remote)
	if err != nil {
		slog.Error("generation failed", "error", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	if *summary {
		printSummary(os.Stdout, p, elements, elapsed)
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(elements); err != nil {
		slog.Error("failed to write scene", "error", err)
		os.Exit(1)
	}
}

// loadParams reads ArtParams from path, or returns the defaults when path is empty.
func loadParams(path string) (scene.ArtParams, error) {
	p := scene.DefaultParams(0)
	if path == "" {
		return p, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode %s: %w", path, err)
	}
	return p, nil
}

func generate(p scene.ArtParams, remote string) (scene.SceneElements, error) {
	if remote == "" {
		return scene.Generate(p), nil
	}
	c := client.New(remote, os.Getenv("CODEART_ADMIN_KEY"))
	if err := c.WaitReady(30 * time.Second); err != nil {
		return scene.SceneElements{}, err
	}
	return c.GenerateScene(p)
}

func printSummary(w io.Writer, p scene.ArtParams, e scene.SceneElements, elapsed time.Duration) {
	data, _ := json.Marshal(e)
	counts := e.BlockTypeCounts()

	fmt.Fprintf(w, "seed:       %d\n", p.Seed)
	fmt.Fprintf(w, "grid:       %dx%d (%s)\n", p.Grid.Rows, p.Grid.Cols, p.Blocks.HeightAlgorithm)
	fmt.Fprintf(w, "blocks:     %s (block %s, bar %s, cube %s)\n",
		humanize.Comma(int64(len(e.Blocks))),
		humanize.Comma(int64(counts[scene.BlockTypeBlock])),
		humanize.Comma(int64(counts[scene.BlockTypeBar])),
		humanize.Comma(int64(counts[scene.BlockTypeCube])),
	)
	fmt.Fprintf(w, "grid lines: %s\n", humanize.Comma(int64(len(e.GridLines))))
	fmt.Fprintf(w, "dots:       %s\n", humanize.Comma(int64(len(e.Dots))))
	fmt.Fprintf(w, "json:       %s\n", humanize.Bytes(uint64(len(data))))
	fmt.Fprintf(w, "elapsed:    %s\n", elapsed.Round(time.Microsecond))
}
