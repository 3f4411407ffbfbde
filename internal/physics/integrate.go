package physics

import (
	"math"

	"github.com/san-kum/dropsim/internal/dynamo"
)

// Integrate advances velocity, position and spin of every body by dt.
// Contacts must already hold this tick's counts.
func Integrate(bodies []dynamo.Body, gravity dynamo.Vec2, p Params, dt float64) {
	for i := range bodies {
		integrateBody(&bodies[i], gravity, p, dt)
	}
}

func integrateBody(b *dynamo.Body, gravity dynamo.Vec2, p Params, dt float64) {
	g := supportedGravity(gravity, b.Resting)

	massFactor := 1 + b.Mass*p.MassGravityFactor
	b.Vel = b.Vel.Add(g.Mul(p.GravityStrength * dt * massFactor))

	damping := p.AirResistance
	if b.Contacts > 0 {
		damping *= math.Pow(p.SurfaceFriction, float64(b.Contacts))
	}
	b.Vel = b.Vel.Mul(damping)

	// resting bodies also rub along the wall they lie on
	if b.Resting != 0 {
		b.Vel = b.Vel.Mul(p.SurfaceFriction)
	}

	if math.Abs(b.Vel[0]) < p.MinVelocity {
		b.Vel[0] = 0
	}
	if math.Abs(b.Vel[1]) < p.MinVelocity {
		b.Vel[1] = 0
	}
	b.Stable = math.Abs(b.Vel[0]) < p.StableEpsilon && math.Abs(b.Vel[1]) < p.StableEpsilon

	b.Pos = b.Pos.Add(b.Vel.Mul(dt))

	b.Rotation += b.RotationSpeed * dt
	b.RotationSpeed *= p.RotationFriction
	if math.Abs(b.RotationSpeed) < p.MinRotationSpeed {
		b.RotationSpeed = 0
	}
}

// supportedGravity removes the part of gravity that pushes into a wall the
// body is resting on.
func supportedGravity(g dynamo.Vec2, resting dynamo.Wall) dynamo.Vec2 {
	if resting == 0 {
		return g
	}
	for _, w := range dynamo.Walls {
		if !resting.Has(w) {
			continue
		}
		n := w.Normal()
		if into := g.Dot(n); into < 0 {
			g = g.Sub(n.Mul(into))
		}
	}
	return g
}
