package physics

import (
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// ResolveCollisions runs one Gauss-Seidel pass over every pair in index
// order, resolving approaching overlaps in place. A body may be corrected
// by several pairs in the same pass. It returns the number of resolved pairs.
func ResolveCollisions(bodies []dynamo.Body, p Params, onImpact func(dynamo.Impact)) int {
	resolved := 0
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			if ResolvePair(&bodies[i], &bodies[j], p, onImpact) {
				resolved++
			}
		}
	}
	return resolved
}

// ResolvePair applies the impulse, spin transfer and de-penetration for a
// single pair. Pairs that do not overlap, are separating, or whose centres
// coincide are left untouched.
func ResolvePair(a, b *dynamo.Body, p Params, onImpact func(dynamo.Impact)) bool {
	delta := a.Pos.Sub(b.Pos)
	reach := a.Radius + b.Radius
	dist := delta.Len()
	if dist >= reach || dist <= p.CoincidentEpsilon {
		return false
	}

	n := delta.Mul(1 / dist)
	rel := a.Vel.Sub(b.Vel).Dot(n)
	if rel > 0 {
		return false
	}

	ma, mb := a.Mass, b.Mass
	total := ma + mb
	massRatio := math.Min(ma, mb) / math.Max(ma, mb)

	e := Restitution(p, massRatio, a.Stable && b.Stable)
	j := -(1 + e) * rel * p.ImpulseScale * ma * mb / total

	a.Vel = a.Vel.Add(n.Mul(j / ma))
	b.Vel = b.Vel.Sub(n.Mul(j / mb))

	// cosmetic spin, strongest for glancing contacts at 45 degrees
	angle := math.Atan2(n[1], n[0])
	spin := rel * p.RotationTransfer * math.Abs(math.Sin(2*angle)) * massRatio
	a.RotationSpeed += spin * (mb / total) * 0.5
	b.RotationSpeed -= spin * (ma / total) * 0.5

	// lighter body moves further; slop leaves a little clearance
	push := reach - dist + p.SeparationSlop
	a.Pos = a.Pos.Add(n.Mul(push * mb / total))
	b.Pos = b.Pos.Sub(n.Mul(push * ma / total))

	if onImpact != nil {
		onImpact(dynamo.Impact{
			A:      a.ID,
			B:      b.ID,
			Speed:  -rel,
			Point:  b.Pos.Add(n.Mul(b.Radius)),
			Radius: math.Min(a.Radius, b.Radius),
		})
	}
	return true
}

// Restitution scales the base coefficient by the mass ratio in (0, 1] and
// damps it further when both bodies have already settled.
func Restitution(p Params, massRatio float64, bothStable bool) float64 {
	stability := 1.0
	if bothStable {
		stability = p.StableRestitutionScale
	}
	return p.BaseRestitution * (0.05 + 0.95*massRatio) * stability
}
