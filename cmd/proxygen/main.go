package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/enriquebris/goconcurrentqueue"
	"github.com/gregwebs/go-recovery"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/variantkit/proxygen/codegen"
	"github.com/variantkit/proxygen/diag"
	"github.com/variantkit/proxygen/internal/modinfo"
	"github.com/variantkit/proxygen/parse"
)

var (
	enginePkg  string
	outSuffix  string
	includes   []string
	excludes   []string
	workers    int
	diagFormat string
	prettyLogs bool
)

var rootCmd = &cobra.Command{
	Use:   "proxygen [directory]",
	Short: "Generate proxy accessors bridging exported properties to the engine's reflection system",
	Long: `proxygen scans Go source for //mproxy:export directives and emits, next to
each annotated file, the _mproxy_get_/_mproxy_set_ accessor functions the
engine's reflection system calls through its dynamic-value convention.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&enginePkg, "engine-pkg", codegen.DefaultEnginePkg, "Import path of the engine variant runtime")
	flags.StringVar(&outSuffix, "suffix", "_mproxy.gen.go", "Suffix of generated files")
	flags.StringSliceVar(&includes, "include", []string{"**/*.go"}, "Glob patterns of files to scan")
	flags.StringSliceVar(&excludes, "exclude", []string{"**/*_test.go"}, "Glob patterns of files to skip")
	flags.IntVar(&workers, "workers", runtime.NumCPU(), "Number of concurrent generation workers")
	flags.StringVar(&diagFormat, "format", string(diag.FormatText), "Diagnostic output format (text, json, yaml)")
	flags.BoolVar(&prettyLogs, "pretty", false, "Use pretty console logging instead of structured JSON")
}

func run(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := loadConfig(cmd, dir); err != nil {
		return err
	}

	format, err := diag.ParseFormat(diagFormat)
	if err != nil {
		return err
	}

	var output io.Writer = os.Stderr
	if prettyLogs {
		output = zerolog.ConsoleWriter{Out: os.Stderr}
	}
	logger := zerolog.New(output).With().Timestamp().Logger()

	files, err := collectFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		logger.Warn().Str("dir", dir).Msg("No files matched the include patterns")
		return nil
	}

	logger.Info().
		Int("files", len(files)).
		Int("workers", workers).
		Str("engine_pkg", enginePkg).
		Msg("Starting generation")

	reporter := diag.NewReporter()
	queue := goconcurrentqueue.NewFIFO()
	for _, f := range files {
		if err := queue.Enqueue(f); err != nil {
			return fmt.Errorf("queueing %s: %w", f, err)
		}
	}

	// Declarations share no state, so files can be generated in parallel.
	// Each worker is wrapped in a recovery handler: a panic on one file is
	// reported as a diagnostic instead of taking down the whole run.
	var wg sync.WaitGroup
	n := workers
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recovery.GoHandler(func(err error) {
				logger.Error().Err(err).Msg("Generation worker panicked")
				reporter.Errorf(diag.Pos{}, "internal error: %v", err)
			}, func() error {
				for {
					item, err := queue.Dequeue()
					if err != nil {
						return nil // queue drained
					}
					path := item.(string)
					if err := processFile(path, reporter, logger); err != nil {
						logger.Error().Err(err).Str("file", path).Msg("Generation failed")
						reporter.Errorf(diag.Pos{File: path, Line: 1, Column: 1}, "%v", err)
					}
				}
			})
		}()
	}
	wg.Wait()

	diags := reporter.Diagnostics()
	if len(diags) > 0 {
		if err := diag.Render(os.Stderr, diags, format); err != nil {
			return err
		}
	}
	if reporter.HasErrors() {
		return fmt.Errorf("generation failed, see diagnostics above")
	}
	return nil
}

// loadConfig layers viper sources under the flags: proxygen.yaml in the
// target directory, then PROXYGEN_* environment variables, then explicit
// flags.
func loadConfig(cmd *cobra.Command, dir string) error {
	v := viper.New()
	v.SetConfigName("proxygen")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix("PROXYGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	enginePkg = v.GetString("engine-pkg")
	outSuffix = v.GetString("suffix")
	includes = v.GetStringSlice("include")
	excludes = v.GetStringSlice("exclude")
	workers = v.GetInt("workers")
	diagFormat = v.GetString("format")
	prettyLogs = v.GetBool("pretty")
	return nil
}

func collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := entry.Name()
		if entry.IsDir() {
			if path != dir && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == "testdata") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, outSuffix) {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		if !matchesAny(includes, rel) || matchesAny(excludes, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	return files, err
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
	}
	return false
}

func processFile(path string, reporter *diag.Reporter, logger zerolog.Logger) error {
	result, err := parse.ParseFile(path, nil, parse.Options{EnginePkg: enginePkg})
	if err != nil {
		return err
	}
	for _, w := range result.Warnings {
		reporter.Report(w)
	}
	for _, genErr := range result.Errors {
		reporter.Report(genErr.Diagnostic())
	}

	accs := codegen.GenerateAll(result.Descs, codegen.Config{EnginePkg: enginePkg}, reporter)
	if len(accs) == 0 {
		return nil
	}

	pkgPath, err := modinfo.PackagePath(filepath.Dir(path))
	if err != nil {
		return err
	}

	f := codegen.MakeFile(pkgPath, result.Package)
	codegen.AddAccessors(f, accs)

	out := strings.TrimSuffix(path, ".go") + outSuffix
	if err := codegen.Commit(f, out); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}

	logger.Info().
		Str("source", path).
		Str("output", out).
		Int("properties", len(accs)).
		Msg("Generated proxy accessors")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalln(err)
	}
}
