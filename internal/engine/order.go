package engine

import (
	"math"
	"sort"

	"github.com/piwi3910/slabcam/internal/geom"
	"github.com/piwi3910/slabcam/internal/model"
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultOrder sorts features by the Y, then X, coordinate of their start
// point. Equal start points keep their input order.
func DefaultOrder(fs []*model.Feature) []*model.Feature {
	out := append([]*model.Feature(nil), fs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].StartPoint(), out[j].StartPoint()
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.X < b.X
	})
	return out
}

// NearestNeighborOrder builds a greedy tour starting at the first feature,
// always moving to the unvisited feature whose start point is closest.
func NearestNeighborOrder(fs []*model.Feature) []*model.Feature {
	if len(fs) == 0 {
		return nil
	}
	visited := make([]bool, len(fs))
	out := make([]*model.Feature, 0, len(fs))
	cur := 0
	for {
		visited[cur] = true
		out = append(out, fs[cur])
		from := fs[cur].StartPoint()

		next, best := -1, math.Inf(1)
		for i, f := range fs {
			if visited[i] {
				continue
			}
			if d := r3.Norm(r3.Sub(f.StartPoint(), from)); d < best {
				next, best = i, d
			}
		}
		if next < 0 {
			return out
		}
		cur = next
	}
}

// AssignClusters groups every feature whose representative point lies
// strictly inside an outside cut with that cut. Outside cuts are visited in
// order and the first one to contain a feature claims it. Each cluster is
// emitted as its children followed by the outside cut; unclaimed features
// follow in their input order.
func AssignClusters(k geom.Kernel, fs []*model.Feature) []*model.Feature {
	claimed := make([]bool, len(fs))
	out := make([]*model.Feature, 0, len(fs))
	id := 0
	for i, o := range fs {
		if o.Role != model.RoleOutsideCut {
			continue
		}
		claimed[i] = true
		o.Cluster = id
		o.HasChildren = false
		if o.CutCurve != nil && o.CutCurve.Closed() {
			for j, f := range fs {
				if claimed[j] || f.Role == model.RoleOutsideCut {
					continue
				}
				if k.Contains(o.CutCurve, f.Representative) {
					claimed[j] = true
					f.Cluster = id
					o.HasChildren = true
					out = append(out, f)
				}
			}
		}
		out = append(out, o)
		id++
	}
	for j, f := range fs {
		if !claimed[j] {
			f.Cluster = -1
			out = append(out, f)
		}
	}
	return out
}
