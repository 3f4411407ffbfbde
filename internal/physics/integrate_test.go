package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

var _ = Describe("Integrate", func() {
	const dt = 1.0 / 60
	var p physics.Params

	BeforeEach(func() {
		p = physics.DefaultParams()
	})

	It("accelerates heavier bodies slightly faster", func() {
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{100, 100}, dynamo.Vec2{}, 1, 10),
			body(2, dynamo.Vec2{200, 100}, dynamo.Vec2{}, 10, 40),
		}
		physics.Integrate(bodies, dynamo.Down, p, dt)

		want := func(m float64) float64 {
			return p.GravityStrength * dt * (1 + m*p.MassGravityFactor) * p.AirResistance
		}
		Expect(bodies[0].Vel[1]).To(BeNumerically("~", want(1), 1e-9))
		Expect(bodies[1].Vel[1]).To(BeNumerically("~", want(10), 1e-9))
		Expect(bodies[0].Pos[1]).To(BeNumerically("~", 100+want(1)*dt, 1e-9))
		Expect(bodies[0].Vel[0]).To(BeZero())
	})

	It("applies surface friction once per contact", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{}, dynamo.Vec2{100, 0}, 1, 10)}
		bodies[0].Contacts = 2

		physics.Integrate(bodies, dynamo.Vec2{}, p, dt)
		Expect(bodies[0].Vel[0]).To(BeNumerically("~", 100*p.AirResistance*math.Pow(p.SurfaceFriction, 2), 1e-9))
	})

	It("snaps slow components to zero and marks the body stable", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{}, dynamo.Vec2{0.5, -0.9}, 1, 10)}

		physics.Integrate(bodies, dynamo.Vec2{}, p, dt)
		Expect(bodies[0].Vel).To(Equal(dynamo.Vec2{}))
		Expect(bodies[0].Stable).To(BeTrue())
	})

	It("clears stability once the body moves", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{}, dynamo.Vec2{}, 1, 10)}
		bodies[0].Stable = true

		physics.Integrate(bodies, dynamo.Down, p, dt)
		Expect(bodies[0].Stable).To(BeFalse())
	})

	It("advances and damps rotation", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{}, dynamo.Vec2{}, 1, 10)}
		bodies[0].RotationSpeed = 10

		physics.Integrate(bodies, dynamo.Vec2{}, p, 0.1)
		Expect(bodies[0].Rotation).To(BeNumerically("~", 1, 1e-12))
		Expect(bodies[0].RotationSpeed).To(BeNumerically("~", 9.5, 1e-12))
	})

	It("stops negligible spin", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{}, dynamo.Vec2{}, 1, 10)}
		bodies[0].RotationSpeed = 0.1

		physics.Integrate(bodies, dynamo.Vec2{}, p, dt)
		Expect(bodies[0].RotationSpeed).To(BeZero())
	})

	It("does not pull a resting body into its wall", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{100, 300}, dynamo.Vec2{30, 0}, 1, 10)}
		bodies[0].Resting = dynamo.WallBottom

		physics.Integrate(bodies, dynamo.Down, p, dt)
		Expect(bodies[0].Vel[1]).To(BeZero())
		Expect(bodies[0].Pos[1]).To(Equal(300.0))
		Expect(bodies[0].Vel[0]).To(BeNumerically("~", 30*p.AirResistance*p.SurfaceFriction, 1e-9))
	})

	It("lets a resting body fall away when gravity turns", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{100, 300}, dynamo.Vec2{}, 1, 10)}
		bodies[0].Resting = dynamo.WallBottom

		physics.Integrate(bodies, dynamo.Vec2{0, -1}, p, dt)
		Expect(bodies[0].Vel[1]).To(BeNumerically("<", 0))
	})
})
