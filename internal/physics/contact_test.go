package physics_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dropsim/internal/dynamo"
	"github.com/san-kum/dropsim/internal/physics"
)

var _ = Describe("CountContacts", func() {
	It("counts each touching neighbour once per body", func() {
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{}, 1, 10),
			body(2, dynamo.Vec2{19, 0}, dynamo.Vec2{}, 1, 10),
			body(3, dynamo.Vec2{38, 0}, dynamo.Vec2{}, 1, 10),
		}
		bodies[0].Contacts = 7

		Expect(physics.CountContacts(bodies)).To(Equal(2))
		Expect([]int{bodies[0].Contacts, bodies[1].Contacts, bodies[2].Contacts}).To(Equal([]int{1, 2, 1}))
	})

	It("does not count bodies that exactly touch", func() {
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{0, 0}, dynamo.Vec2{}, 1, 10),
			body(2, dynamo.Vec2{20, 0}, dynamo.Vec2{}, 1, 10),
		}
		Expect(physics.CountContacts(bodies)).To(BeZero())
	})

	It("counts coincident centres", func() {
		bodies := []dynamo.Body{
			body(1, dynamo.Vec2{5, 5}, dynamo.Vec2{}, 1, 10),
			body(2, dynamo.Vec2{5, 5}, dynamo.Vec2{}, 1, 10),
		}
		Expect(physics.CountContacts(bodies)).To(Equal(1))
		Expect(bodies[1].Contacts).To(Equal(1))
	})

	It("handles an empty slice", func() {
		Expect(physics.CountContacts(nil)).To(BeZero())
	})
})
