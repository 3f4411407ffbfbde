package physics_test

import (
	"errors"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

var arena = physics.Arena{Width: 390, Height: 844, TopInset: 50, BottomInset: 100}

var _ = Describe("Arena", func() {
	var p physics.Params

	BeforeEach(func() {
		p = physics.DefaultParams()
	})

	DescribeTable("Validate",
		func(a physics.Arena, ok bool) {
			err := a.Validate()
			if ok {
				Expect(err).NotTo(HaveOccurred())
				return
			}
			Expect(errors.Is(err, dynamo.ErrInvalidArena)).To(BeTrue())
		},
		Entry("phone", arena, true),
		Entry("no insets", physics.Arena{Width: 10, Height: 10}, true),
		Entry("zero width", physics.Arena{Width: 0, Height: 10}, false),
		Entry("negative inset", physics.Arena{Width: 10, Height: 10, TopInset: -1}, false),
		Entry("insets fill height", physics.Arena{Width: 10, Height: 10, TopInset: 5, BottomInset: 5}, false),
	)

	It("reflects and damps a body driven through the floor", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{100, 800}, dynamo.Vec2{0, 300}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Pos[1]).To(Equal(734.0))
		Expect(bodies[0].Vel[1]).To(BeNumerically("~", -240, 1e-9))
		Expect(bodies[0].Resting).To(BeZero())
	})

	It("brings a slow bounce to rest on the wall", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{100, 740}, dynamo.Vec2{5, 40}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Vel).To(Equal(dynamo.Vec2{5, 0}))
		Expect(bodies[0].Resting.Has(dynamo.WallBottom)).To(BeTrue())
	})

	It("does not reflect a body already leaving the wall", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{5, 300}, dynamo.Vec2{120, 0}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Pos[0]).To(Equal(10.0))
		Expect(bodies[0].Vel[0]).To(Equal(120.0))
	})

	It("keeps a slow velocity pointing away from the wall", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{10, 300}, dynamo.Vec2{30, 0}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Vel[0]).To(Equal(30.0))
		Expect(bodies[0].Resting.Has(dynamo.WallLeft)).To(BeFalse())
	})

	It("keeps a body at rest on the wall resting", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{10, 300}, dynamo.Vec2{0, 0}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Vel[0]).To(Equal(0.0))
		Expect(bodies[0].Resting.Has(dynamo.WallLeft)).To(BeTrue())
	})

	It("handles corners", func() {
		bodies := []dynamo.Body{body(1, dynamo.Vec2{-50, 0}, dynamo.Vec2{-10, -10}, 1, 10)}
		arena.Contain(bodies, p)

		Expect(bodies[0].Pos).To(Equal(dynamo.Vec2{10, 60}))
		Expect(bodies[0].Resting.Has(dynamo.WallLeft | dynamo.WallTop)).To(BeTrue())
	})

	It("centres a body wider than the band", func() {
		narrow := physics.Arena{Width: 10, Height: 100}
		bodies := []dynamo.Body{body(1, dynamo.Vec2{0, 50}, dynamo.Vec2{-30, 0}, 1, 20)}
		narrow.Contain(bodies, p)

		Expect(bodies[0].Pos[0]).To(Equal(5.0))
		Expect(bodies[0].IsValid()).To(BeTrue())
	})

	It("clamps raw points into the playable band", func() {
		Expect(arena.ClampPoint(dynamo.Vec2{-5, 10}, 20)).To(Equal(dynamo.Vec2{20, 70}))
		Expect(arena.ClampPoint(dynamo.Vec2{200, 400}, 20)).To(Equal(dynamo.Vec2{200, 400}))
		Expect(arena.ClampPoint(dynamo.Vec2{1000, 1000}, 20)).To(Equal(dynamo.Vec2{370, 724}))
	})

	It("keeps every body inside after every tick", func() {
		rng := rand.New(rand.NewSource(7))
		var bodies []dynamo.Body
		for i := 0; i < 40; i++ {
			spec := dynamo.BodySpec{
				Pos:  dynamo.Vec2{rng.Float64() * arena.Width, rng.Float64() * arena.Height},
				Vel:  dynamo.Vec2{rng.Float64()*400 - 200, rng.Float64()*400 - 200},
				Size: 10 + rng.Float64()*70,
			}
			b, err := p.NewBody(dynamo.BodyID(i+1), spec)
			Expect(err).NotTo(HaveOccurred())
			bodies = append(bodies, b)
		}

		for tick := 0; tick < 300; tick++ {
			step(bodies, dynamo.Down, p)
			for _, b := range bodies {
				minX, maxX, minY, maxY := arena.Bounds(b.Radius)
				Expect(b.Pos[0]).To(BeNumerically(">=", minX))
				Expect(b.Pos[0]).To(BeNumerically("<=", maxX))
				Expect(b.Pos[1]).To(BeNumerically(">=", minY))
				Expect(b.Pos[1]).To(BeNumerically("<=", maxY))
				Expect(b.IsValid()).To(BeTrue())
			}
		}
	})
})

func step(bodies []dynamo.Body, g dynamo.Vec2, p physics.Params) {
	physics.CountContacts(bodies)
	physics.Integrate(bodies, g, p, 1.0/60)
	physics.ResolveCollisions(bodies, p, nil)
	arena.Contain(bodies, p)
}

var _ = Describe("single drop", func() {
	DescribeTable("settles within a bound proportional to the fall height",
		func(size, startY float64) {
			p := physics.DefaultParams()
			b, err := p.NewBody(1, dynamo.BodySpec{Pos: dynamo.Vec2{195, startY}, Size: size})
			Expect(err).NotTo(HaveOccurred())
			bodies := []dynamo.Body{b}

			floor := arena.Floor() - b.Radius
			limit := 120 + int((floor-startY)/2)
			settled := -1
			for tick := 1; tick <= limit; tick++ {
				step(bodies, dynamo.Down, p)
				Expect(bodies[0].Pos[1]).To(BeNumerically("<=", floor))
				if bodies[0].Stable && bodies[0].Resting.Has(dynamo.WallBottom) {
					settled = tick
					break
				}
			}

			Expect(settled).To(BeNumerically(">", 0), "did not settle within %d ticks", limit)
			Expect(bodies[0].Vel.Len()).To(BeNumerically("<", p.StableEpsilon))
			Expect(bodies[0].Pos[1]).To(Equal(floor))
		},
		Entry("small from high", 10.0, 100.0),
		Entry("medium from mid", 40.0, 300.0),
		Entry("large from low", 80.0, 600.0),
	)
})
