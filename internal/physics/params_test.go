package physics_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

var _ = Describe("Params", func() {
	It("validates the defaults", func() {
		Expect(physics.DefaultParams().Validate()).To(Succeed())
	})

	DescribeTable("rejects out-of-range values",
		func(mutate func(*physics.Params)) {
			p := physics.DefaultParams()
			mutate(&p)
			Expect(errors.Is(p.Validate(), dynamo.ErrParameterBounds)).To(BeTrue())
		},
		Entry("air resistance above one", func(p *physics.Params) { p.AirResistance = 1.1 }),
		Entry("negative gravity", func(p *physics.Params) { p.GravityStrength = -1 }),
		Entry("NaN friction", func(p *physics.Params) { p.SurfaceFriction = math.NaN() }),
		Entry("zero impulse scale", func(p *physics.Params) { p.ImpulseScale = 0 }),
		Entry("impulse scale above two", func(p *physics.Params) { p.ImpulseScale = 2.5 }),
		Entry("zero mass cap", func(p *physics.Params) { p.MassCap = 0 }),
	)

	It("sets known parameters and keeps the old value on error", func() {
		p := physics.DefaultParams()
		Expect(p.SetParam("gravity", 500)).To(Succeed())
		Expect(p.GravityStrength).To(Equal(500.0))

		Expect(p.SetParam("bounce_damping", 3)).NotTo(Succeed())
		Expect(p.BounceDamping).To(Equal(0.8))

		Expect(p.SetParam("nope", 1)).NotTo(Succeed())
		Expect(p.GetParams()).To(HaveKeyWithValue("gravity", 500.0))
	})

	It("exposes every parameter under its config name", func() {
		p := physics.DefaultParams()
		params := p.GetParams()
		Expect(params).To(HaveLen(18))
		Expect(params).To(HaveKeyWithValue("base_restitution", 0.002))
		Expect(params).NotTo(HaveKey("restitution"))

		for name, v := range params {
			next := p
			Expect(next.SetParam(name, v)).To(Succeed(), name)
			Expect(next).To(Equal(p), name)
		}

		Expect(p.SetParam("min_velocity", 2.5)).To(Succeed())
		Expect(p.MinVelocity).To(Equal(2.5))
		Expect(p.SetParam("base_restitution", 0.3)).To(Succeed())
		Expect(p.BaseRestitution).To(Equal(0.3))
		Expect(p.SetParam("mass_cap", 0)).NotTo(Succeed())
		Expect(p.MassCap).To(Equal(10.0))
	})

	It("derives mass from size with a cap", func() {
		p := physics.DefaultParams()
		small, err := p.NewBody(1, dynamo.BodySpec{Size: 10})
		Expect(err).NotTo(HaveOccurred())
		Expect(small.Mass).To(BeNumerically("~", 0.1, 1e-12))
		Expect(small.Radius).To(Equal(5.0))

		big, err := p.NewBody(2, dynamo.BodySpec{Size: 80})
		Expect(err).NotTo(HaveOccurred())
		Expect(big.Mass).To(Equal(10.0))

		_, err = p.NewBody(3, dynamo.BodySpec{Size: 0})
		Expect(errors.Is(err, dynamo.ErrInvalidBody)).To(BeTrue())
	})
})
