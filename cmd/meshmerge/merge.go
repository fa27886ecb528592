package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/meshmerge/internal/assets"
	"github.com/Faultbox/meshmerge/internal/config"
	"github.com/Faultbox/meshmerge/internal/logger"
	"github.com/Faultbox/meshmerge/internal/pipeline"
	"github.com/Faultbox/meshmerge/internal/scene"
)

func cmdMerge(args []string) {
	fs := flag.NewFlagSet("merge", flag.ExitOnError)
	var flags config.Flags
	flags.Register(fs)
	watch := fs.Bool("watch", false, "Merge again whenever an input changes")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshmerge merge [options] <scene>")
		os.Exit(1)
	}

	cfg, err := config.Load(&flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Sugar.Debugf("Config: %+v", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	job := newMergeJob(cfg, fs.Arg(0))

	if *watch {
		w := &pipeline.Watcher{
			Paths:  job.inputs,
			Run:    job.run,
			Logger: logger.L(),
		}
		if err := w.Watch(ctx); err != nil {
			logger.Error("watch failed", zap.Error(err))
			os.Exit(1)
		}
		return
	}

	if err := job.run(ctx); err != nil {
		logger.Error("merge failed", zap.Error(err))
		logger.Close()
		os.Exit(1)
	}
}

// mergeJob runs one complete scene merge. In watch mode it runs repeatedly and
// remembers which files the last run read.
type mergeJob struct {
	cfg       *config.Config
	scenePath string
	assets    *assets.Manager
	lastInput []string
}

func newMergeJob(cfg *config.Config, scenePath string) *mergeJob {
	am := assets.NewManager()
	for _, root := range cfg.Sources.Roots {
		if err := am.AddRoot(root); err != nil {
			logger.Warn("skipping source root", zap.String("root", root), zap.Error(err))
		}
	}
	return &mergeJob{
		cfg:       cfg,
		scenePath: scenePath,
		assets:    am,
		lastInput: []string{scenePath},
	}
}

func (j *mergeJob) inputs() []string {
	return j.lastInput
}

func (j *mergeJob) run(ctx context.Context) error {
	// Every run starts from the files as they are now.
	j.assets.Cache().Clear()

	sc, err := scene.Load(j.scenePath)
	if err != nil {
		return err
	}

	src := pipeline.NewFileSource(j.assets, sc.Dir())
	j.lastInput = []string{j.scenePath}
	for _, ref := range sc.Sources() {
		if path, err := src.Path(ref); err == nil {
			j.lastInput = append(j.lastInput, path)
		}
	}

	merger := pipeline.NewMerger(src)
	merger.Transform.Order = j.cfg.RotationOrder()
	merger.Transform.Normals = j.cfg.NormalMode()
	merger.Precision = j.cfg.Merge.Precision
	merger.Workers = j.cfg.Merge.Workers
	merger.Logger = logger.L()
	for _, r := range j.cfg.Refine {
		merger.Refine = append(merger.Refine, pipeline.RefineRule{Match: r.Match, Passes: r.Passes})
	}

	logger.Info("merging scene",
		zap.String("scene", j.scenePath),
		zap.Int("objects", len(sc.Objects)),
		zap.Int("workers", merger.Workers))

	m, stats, err := merger.Merge(ctx, sc.Objects)
	if err != nil {
		return err
	}

	hits, misses := j.assets.Cache().Stats()
	logger.Debug("source cache", zap.Int("hits", hits), zap.Int("misses", misses))

	out := j.cfg.Output.Path
	if err := pipeline.Emit(out, m); err != nil {
		return err
	}

	fmt.Printf("Merged %d objects: %d vertices, %d faces (%d welded) -> %s\n",
		stats.Objects, stats.Vertices, stats.Faces, stats.Welded, out)
	return nil
}
