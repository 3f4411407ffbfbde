package physics

import "github.com/san-kum/dropsim/internal/dynamo"

// CountContacts rewrites every body's Contacts with the number of other
// bodies it currently overlaps and returns the number of touching pairs.
// Coincident centres count as contact.
func CountContacts(bodies []dynamo.Body) int {
	for i := range bodies {
		bodies[i].Contacts = 0
	}

	pairs := 0
	for i := 0; i < len(bodies); i++ {
		pi, ri := bodies[i].Pos, bodies[i].Radius
		for j := i + 1; j < len(bodies); j++ {
			reach := ri + bodies[j].Radius
			d := pi.Sub(bodies[j].Pos)
			// squared compare avoids the sqrt for the common miss
			if d.Dot(d) < reach*reach {
				bodies[i].Contacts++
				bodies[j].Contacts++
				pairs++
			}
		}
	}
	return pairs
}
