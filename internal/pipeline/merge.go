package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/meshmerge/internal/scene"
	"github.com/Faultbox/meshmerge/pkg/geom"
	"github.com/Faultbox/meshmerge/pkg/mesh"
)

// Stats summarizes a merge.
type Stats struct {
	Objects       int // placed objects
	Loads         int // distinct (source, refine) loads
	InputVertices int // vertices across all placed objects
	Vertices      int // vertices in the merged mesh
	Keys          int // distinct quantized positions
	Faces         int
	Welded        int // InputVertices - Vertices
	Duration      time.Duration
}

// Merger merges object lists. Create one with NewMerger; the zero value has a
// precision of 0 decimals.
type Merger struct {
	Source    Source
	Transform mesh.Transform
	Precision int
	Workers   int // concurrent loads; 1 or less loads sequentially
	Refine    RefinePolicy
	Logger    *zap.Logger
}

// NewMerger returns a merger with default precision, sequential loading and no
// refinement.
func NewMerger(src Source) *Merger {
	return &Merger{
		Source:    src,
		Precision: geom.DefaultPrecision,
		Workers:   1,
		Logger:    zap.NewNop(),
	}
}

// loadKey identifies one distinct load. Objects sharing a key share the
// loaded geometry, which is never modified.
type loadKey struct {
	ref    string
	passes int
}

// Merge places every object, welds coincident vertices and returns the merged
// mesh. Objects are welded strictly in list order, so the first object to reach
// a position owns its normal whatever the worker count. An empty list yields an
// empty mesh. On error no mesh is returned.
func (m *Merger) Merge(ctx context.Context, objects []scene.Object) (*mesh.Mesh, Stats, error) {
	start := time.Now()
	log := m.Logger
	if log == nil {
		log = zap.NewNop()
	}

	welder, err := mesh.NewWelder(m.Precision)
	if err != nil {
		return nil, Stats{}, err
	}

	keys := make([]loadKey, len(objects))
	var order []loadKey
	var firstUse []int
	seen := make(map[loadKey]bool)
	for i, o := range objects {
		k := loadKey{ref: o.Source, passes: m.Refine.Passes(o.Source)}
		if o.Refine != nil {
			k.passes = *o.Refine
		}
		keys[i] = k
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
			firstUse = append(firstUse, i)
		}
	}

	loaded, err := m.load(ctx, order, firstUse, log)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Objects: len(objects), Loads: len(order)}
	for i, o := range objects {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}

		local := loaded[keys[i]]
		positions, normals := m.Transform.Apply(local.Positions, local.Normals, o.Placement())

		remap, err := welder.Weld(positions, normals)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("object %d (%s): %w", i, o.Source, err)
		}
		faces, err := mesh.Remap(local.Faces, remap)
		if err != nil {
			return nil, Stats{}, fmt.Errorf("object %d (%s): %w", i, o.Source, err)
		}
		welder.AddFaces(faces)

		stats.InputVertices += len(positions)
		log.Debug("object welded",
			zap.Int("index", i),
			zap.String("source", o.Source),
			zap.Int("vertices", len(positions)),
			zap.Int("faces", len(faces)),
			zap.Int("total_vertices", welder.Len()))
	}

	out := welder.Mesh()
	stats.Vertices = len(out.Positions)
	stats.Keys = welder.Keys()
	stats.Faces = len(out.Faces)
	stats.Welded = stats.InputVertices - stats.Vertices
	stats.Duration = time.Since(start)

	log.Info("merge complete",
		zap.Int("objects", stats.Objects),
		zap.Int("vertices", stats.Vertices),
		zap.Int("faces", stats.Faces),
		zap.Int("welded", stats.Welded),
		zap.Duration("took", stats.Duration))
	return out, stats, nil
}

// load fetches each distinct source once. With more than one worker the loads
// run concurrently and the first failure cancels the rest. firstUse[i] is the
// first object placing order[i].
func (m *Merger) load(ctx context.Context, order []loadKey, firstUse []int, log *zap.Logger) (map[loadKey]*mesh.Mesh, error) {
	results := make([]*mesh.Mesh, len(order))

	loadOne := func(ctx context.Context, i int) error {
		k := order[i]
		lm, err := m.Source.Load(ctx, k.ref, k.passes)
		if err != nil {
			// Bad face indices caught by refinement read like those caught by Remap.
			var ie *mesh.IndexError
			if errors.As(err, &ie) {
				return fmt.Errorf("object %d (%s): %w", firstUse[i], k.ref, ie)
			}
			return &LoadError{Source: k.ref, Err: err}
		}
		results[i] = lm
		log.Debug("source loaded",
			zap.String("source", k.ref),
			zap.Int("passes", k.passes),
			zap.Int("vertices", lm.VertexCount()),
			zap.Int("faces", len(lm.Faces)))
		return nil
	}

	if m.Workers <= 1 {
		for i := range order {
			if err := loadOne(ctx, i); err != nil {
				return nil, err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(m.Workers)
		for i := range order {
			g.Go(func() error {
				return loadOne(gctx, i)
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	loaded := make(map[loadKey]*mesh.Mesh, len(order))
	for i, k := range order {
		loaded[k] = results[i]
	}
	return loaded, nil
}
