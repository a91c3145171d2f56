package geom

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r2"
)

// offsetPolygon offsets a counter-clockwise polygon by d (positive grows the
// polygon, negative shrinks it). The raw offset is built edge by edge with
// round joins on the offset side and a detour through the vertex on the
// other, then split at its self-intersections. The result is the boundary
// of the region the raw offset winds around exactly once or more, which is
// the region at distance |d| from the source. Only counter-clockwise loops
// are returned.
func offsetPolygon(poly []r2.Vec, d, tol float64) [][]r2.Vec {
	poly = simplify(dedupe(poly))
	if len(poly) < 3 || d == 0 {
		return nil
	}
	raw := dedupe(rawOffset(poly, d, tol))
	if len(raw) < 3 {
		return nil
	}

	var loops [][]r2.Vec
	for _, loop := range positiveLoops(raw) {
		loop = simplify(dedupe(loop))
		if len(loop) < 3 || signedArea(loop) <= tol*tol {
			continue
		}
		loops = append(loops, loop)
	}
	return loops
}

func rawOffset(poly []r2.Vec, d, tol float64) []r2.Vec {
	n := len(poly)
	normals := make([]r2.Vec, n)
	for i := range poly {
		e := r2.Sub(poly[(i+1)%n], poly[i])
		normals[i] = r2.Unit(r2.Vec{X: e.Y, Y: -e.X})
	}

	out := make([]r2.Vec, 0, 3*n)
	for i := range poly {
		j := (i + 1) % n
		a := r2.Add(poly[i], r2.Scale(d, normals[i]))
		b := r2.Add(poly[j], r2.Scale(d, normals[i]))
		out = append(out, a, b)

		next := r2.Add(poly[j], r2.Scale(d, normals[j]))
		if r2.Norm(r2.Sub(next, b)) < tol {
			continue
		}
		turn := r2.Cross(r2.Sub(poly[j], poly[i]), r2.Sub(poly[(j+1)%n], poly[j]))
		if turn*d > 0 {
			out = append(out, roundJoin(poly[j], normals[i], normals[j], d, tol)...)
		} else {
			out = append(out, poly[j])
		}
	}
	return out
}

// roundJoin returns the interior points of the arc of radius |d| around
// center that bridges two adjacent offset edges.
func roundJoin(center, n0, n1 r2.Vec, d, tol float64) []r2.Vec {
	sign := math.Copysign(1, d)
	u0, u1 := r2.Scale(sign, n0), r2.Scale(sign, n1)
	a0 := math.Atan2(u0.Y, u0.X)
	sweep := math.Atan2(u1.Y, u1.X) - a0
	for sweep > math.Pi {
		sweep -= 2 * math.Pi
	}
	for sweep <= -math.Pi {
		sweep += 2 * math.Pi
	}
	r := math.Abs(d)
	steps := arcSteps(r, sweep, tol)
	pts := make([]r2.Vec, 0, steps)
	for i := 1; i < steps; i++ {
		a := a0 + sweep*float64(i)/float64(steps)
		pts = append(pts, r2.Vec{X: center.X + r*math.Cos(a), Y: center.Y + r*math.Sin(a)})
	}
	return pts
}

// nodeMerge is the distance below which two crossings are one node.
const nodeMerge = 1e-7

type crossing struct {
	t    float64
	node int
	p    r2.Vec
}

type event struct {
	p    r2.Vec
	node int
}

type piece struct {
	from, to int
	pts      []r2.Vec
}

// positiveLoops cuts raw at its self-intersections and returns the loops
// bounding the region raw winds around at least once, each with that
// region on its left.
func positiveLoops(raw []r2.Vec) [][]r2.Vec {
	m := len(raw)
	hits := make([][]crossing, m)
	boxes := make([]r2.Box, m)
	for i := range raw {
		boxes[i] = bounds([]r2.Vec{raw[i], raw[(i+1)%m]})
	}

	var nodes []r2.Vec
	nodeAt := func(p r2.Vec) int {
		for i, q := range nodes {
			if r2.Norm(r2.Sub(p, q)) < nodeMerge {
				return i
			}
		}
		nodes = append(nodes, p)
		return len(nodes) - 1
	}

	for i := 0; i < m; i++ {
		for j := i + 2; j < m; j++ {
			if i == 0 && j == m-1 {
				continue
			}
			if !overlaps(boxes[i], boxes[j]) {
				continue
			}
			t, u, ok := segmentIntersection(raw[i], raw[(i+1)%m], raw[j], raw[(j+1)%m])
			if !ok || t < 0 || t >= 1 || u < 0 || u >= 1 {
				continue
			}
			p := r2.Add(raw[i], r2.Scale(t, r2.Sub(raw[(i+1)%m], raw[i])))
			n := nodeAt(p)
			hits[i] = append(hits[i], crossing{t: t, node: n, p: p})
			hits[j] = append(hits[j], crossing{t: u, node: n, p: p})
		}
	}

	if len(nodes) == 0 {
		if signedArea(raw) <= 0 {
			return nil
		}
		return [][]r2.Vec{raw}
	}

	var seq []event
	for i := 0; i < m; i++ {
		seq = append(seq, event{p: raw[i], node: -1})
		sort.Slice(hits[i], func(a, b int) bool { return hits[i][a].t < hits[i][b].t })
		for _, h := range hits[i] {
			seq = append(seq, event{p: h.p, node: h.node})
		}
	}
	first := 0
	for i, e := range seq {
		if e.node >= 0 {
			first = i
			break
		}
	}
	seq = append(append([]event(nil), seq[first:]...), seq[:first]...)
	seq = append(seq, seq[0])

	var kept []piece
	cur := piece{from: seq[0].node, pts: []r2.Vec{seq[0].p}}
	for _, e := range seq[1:] {
		cur.pts = append(cur.pts, e.p)
		if e.node < 0 {
			continue
		}
		cur.to = e.node
		cur.pts = dropRepeats(cur.pts)
		if onBoundary(raw, cur.pts) {
			kept = append(kept, cur)
		}
		cur = piece{from: e.node, pts: []r2.Vec{e.p}}
	}

	return stitch(kept)
}

// onBoundary reports whether a piece of raw separates winding number 1 on
// its left from 0 on its right. The test point sits just left of the
// middle of the piece's longest edge.
func onBoundary(raw, pts []r2.Vec) bool {
	var a, b r2.Vec
	best := 0.0
	for i := 1; i < len(pts); i++ {
		if l := r2.Norm(r2.Sub(pts[i], pts[i-1])); l > best {
			best, a, b = l, pts[i-1], pts[i]
		}
	}
	if best < eps {
		return false
	}
	dir := r2.Scale(1/best, r2.Sub(b, a))
	off := math.Min(1e-6, best/4)
	mid := r2.Scale(0.5, r2.Add(a, b))
	left := r2.Add(mid, r2.Scale(off, r2.Vec{X: -dir.Y, Y: dir.X}))
	return windingNumber(raw, left) == 1
}

// stitch joins pieces end to start until each chain returns to the node it
// started from. Where several pieces leave a node the one turning furthest
// left is taken, which keeps loops that touch at a point apart. Chains
// that dead-end are discarded.
func stitch(pieces []piece) [][]r2.Vec {
	byFrom := make(map[int][]int)
	for i, p := range pieces {
		byFrom[p.from] = append(byFrom[p.from], i)
	}
	used := make([]bool, len(pieces))

	var loops [][]r2.Vec
	for i := range pieces {
		if used[i] {
			continue
		}
		used[i] = true
		start := pieces[i].from
		at := pieces[i]
		loop := append([]r2.Vec(nil), at.pts...)
		ok := true
		for at.to != start {
			in := exitDir(at.pts)
			next, bestTurn := -1, math.Inf(-1)
			for _, j := range byFrom[at.to] {
				if used[j] {
					continue
				}
				out := entryDir(pieces[j].pts)
				if turn := math.Atan2(r2.Cross(in, out), r2.Dot(in, out)); turn > bestTurn {
					next, bestTurn = j, turn
				}
			}
			if next < 0 {
				ok = false
				break
			}
			used[next] = true
			at = pieces[next]
			loop = append(loop, at.pts[1:]...)
		}
		if ok {
			loops = append(loops, loop[:len(loop)-1])
		}
	}
	return loops
}

// dropRepeats removes consecutive duplicate points. Unlike dedupe it keeps
// a last point equal to the first.
func dropRepeats(pts []r2.Vec) []r2.Vec {
	out := pts[:1]
	for _, p := range pts[1:] {
		if r2.Norm(r2.Sub(p, out[len(out)-1])) >= eps {
			out = append(out, p)
		}
	}
	return out
}

// entryDir is the direction of the first non-degenerate edge of pts.
func entryDir(pts []r2.Vec) r2.Vec {
	for i := 1; i < len(pts); i++ {
		if d := r2.Sub(pts[i], pts[i-1]); r2.Norm(d) > eps {
			return d
		}
	}
	return r2.Vec{X: 1}
}

// exitDir is the direction of the last non-degenerate edge of pts.
func exitDir(pts []r2.Vec) r2.Vec {
	for i := len(pts) - 1; i > 0; i-- {
		if d := r2.Sub(pts[i], pts[i-1]); r2.Norm(d) > eps {
			return d
		}
	}
	return r2.Vec{X: 1}
}

func overlaps(a, b r2.Box) bool {
	return a.Min.X <= b.Max.X+eps && b.Min.X <= a.Max.X+eps &&
		a.Min.Y <= b.Max.Y+eps && b.Min.Y <= a.Max.Y+eps
}

// rotateToNearest rotates a closed loop so that it starts at the vertex
// nearest to p.
func rotateToNearest(loop []r2.Vec, p r2.Vec) []r2.Vec {
	best, bestD := 0, math.Inf(1)
	for i, q := range loop {
		if d := r2.Norm(r2.Sub(q, p)); d < bestD {
			best, bestD = i, d
		}
	}
	return append(append([]r2.Vec(nil), loop[best:]...), loop[:best]...)
}
