package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

var _ = Describe("ResolvePair", func() {
	var p physics.Params

	BeforeEach(func() {
		p = physics.DefaultParams()
		p.BaseRestitution = 0.05
	})

	Context("with a light body closing on a heavy one", func() {
		var light, heavy dynamo.Body
		var impacts []dynamo.Impact

		BeforeEach(func() {
			light = body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{100, 0}, 1, 10)
			heavy = body(2, dynamo.Vec2{15, 0}, dynamo.Vec2{0, 0}, 4, 10)
			impacts = nil
		})

		resolve := func() bool {
			return physics.ResolvePair(&light, &heavy, p, func(im dynamo.Impact) {
				impacts = append(impacts, im)
			})
		}

		It("changes the heavy velocity by a quarter of the light change", func() {
			before := [2]dynamo.Vec2{light.Vel, heavy.Vel}
			Expect(resolve()).To(BeTrue())

			dLight := light.Vel.Sub(before[0]).Len()
			dHeavy := heavy.Vel.Sub(before[1]).Len()
			Expect(dLight).To(BeNumerically(">", 0))
			Expect(dHeavy / dLight).To(BeNumerically("~", 0.25, 1e-9))
		})

		It("separates the pair by at least the sum of radii", func() {
			resolve()
			Expect(light.Pos.Sub(heavy.Pos).Len()).To(BeNumerically(">=", 20))
		})

		It("moves the lighter body further", func() {
			resolve()
			Expect(math.Abs(light.Pos[0])).To(BeNumerically("~", 4.8, 1e-9))
			Expect(heavy.Pos[0] - 15).To(BeNumerically("~", 1.2, 1e-9))
		})

		It("conserves momentum and never adds closing speed", func() {
			p0 := momentum(light, heavy)
			resolve()
			Expect(momentum(light, heavy).Sub(p0).Len()).To(BeNumerically("<", 1e-9))

			n := light.Pos.Sub(heavy.Pos).Normalize()
			rel := light.Vel.Sub(heavy.Vel).Dot(n)
			Expect(rel).To(BeNumerically(">=", 0))
			Expect(rel).To(BeNumerically("<=", 100))
		})

		It("reports a single impact at the closing speed", func() {
			resolve()
			Expect(impacts).To(HaveLen(1))
			Expect(impacts[0].A).To(Equal(dynamo.BodyID(1)))
			Expect(impacts[0].B).To(Equal(dynamo.BodyID(2)))
			Expect(impacts[0].Speed).To(BeNumerically("~", 100, 1e-9))
			Expect(impacts[0].Radius).To(Equal(10.0))
		})

		It("reproduces the doubled impulse when ImpulseScale is 2", func() {
			p.ImpulseScale = 2
			resolve()
			e := physics.Restitution(p, 0.25, false)
			n := dynamo.Vec2{-1, 0}
			rel := light.Vel.Sub(heavy.Vel).Dot(n)
			Expect(rel).To(BeNumerically("~", 100*(1+2*e), 1e-9))
		})
	})

	It("leaves separating pairs untouched", func() {
		a := body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{-10, 0}, 1, 10)
		b := body(2, dynamo.Vec2{15, 0}, dynamo.Vec2{10, 0}, 1, 10)
		a0, b0 := a, b

		Expect(physics.ResolvePair(&a, &b, p, nil)).To(BeFalse())
		Expect(a).To(Equal(a0))
		Expect(b).To(Equal(b0))
	})

	It("skips coincident centres without producing NaN", func() {
		a := body(1, dynamo.Vec2{50, 50}, dynamo.Vec2{1, 0}, 1, 10)
		b := body(2, dynamo.Vec2{50, 50}, dynamo.Vec2{-1, 0}, 1, 10)

		Expect(physics.ResolvePair(&a, &b, p, nil)).To(BeFalse())
		Expect(a.IsValid()).To(BeTrue())
		Expect(b.IsValid()).To(BeTrue())
	})

	It("ignores pairs that only touch", func() {
		a := body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{10, 0}, 1, 10)
		b := body(2, dynamo.Vec2{20, 0}, dynamo.Vec2{}, 1, 10)
		Expect(physics.ResolvePair(&a, &b, p, nil)).To(BeFalse())
	})

	It("spins bodies on glancing contact only", func() {
		head := body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{10, 0}, 1, 10)
		other := body(2, dynamo.Vec2{15, 0}, dynamo.Vec2{}, 1, 10)
		physics.ResolvePair(&head, &other, p, nil)
		Expect(head.RotationSpeed).To(BeNumerically("~", 0, 1e-9))

		a := body(3, dynamo.Vec2{0, 0}, dynamo.Vec2{10, 10}, 1, 10)
		b := body(4, dynamo.Vec2{10, 10}, dynamo.Vec2{}, 1, 10)
		physics.ResolvePair(&a, &b, p, nil)
		Expect(a.RotationSpeed).NotTo(BeZero())
		Expect(a.RotationSpeed).To(BeNumerically("~", -b.RotationSpeed, 1e-9))
	})
})

var _ = Describe("Restitution", func() {
	p := physics.DefaultParams()

	It("scales with the mass ratio", func() {
		Expect(physics.Restitution(p, 1, false)).To(BeNumerically("~", p.BaseRestitution, 1e-12))
		Expect(physics.Restitution(p, 0, false)).To(BeNumerically("~", 0.05*p.BaseRestitution, 1e-12))
	})

	It("damps pairs of stable bodies", func() {
		Expect(physics.Restitution(p, 1, true)).To(BeNumerically("~", p.BaseRestitution*p.StableRestitutionScale, 1e-12))
	})
})

var _ = Describe("ResolveCollisions", func() {
	It("counts resolved pairs and leaves an isolated pair apart", func() {
		p := physics.DefaultParams()
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{100, 100}, dynamo.Vec2{50, 0}, 1, 10),
			body(2, dynamo.Vec2{112, 100}, dynamo.Vec2{-50, 0}, 2, 10),
			body(3, dynamo.Vec2{300, 300}, dynamo.Vec2{}, 1, 10),
		}

		n := physics.ResolveCollisions(bodies, p, nil)
		Expect(n).To(Equal(1))
		Expect(bodies[0].Pos.Sub(bodies[1].Pos).Len()).To(BeNumerically(">=", 20))
		Expect(bodies[2].Pos).To(Equal(dynamo.Vec2{300, 300}))
	})

	It("conserves momentum across a chain", func() {
		p := physics.DefaultParams()
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{80, 5}, 1, 10),
			body(2, dynamo.Vec2{18, 2}, dynamo.Vec2{0, 0}, 3, 10),
			body(3, dynamo.Vec2{36, 0}, dynamo.Vec2{-40, 0}, 2, 10),
		}
		p0 := momentum(bodies...)
		physics.ResolveCollisions(bodies, p, nil)
		Expect(momentum(bodies...).Sub(p0).Len()).To(BeNumerically("<", 1e-9))
	})
})
