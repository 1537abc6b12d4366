package system

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dosim/internal/config"
	"github.com/san-kum/dosim/internal/mc"
	"github.com/san-kum/dosim/internal/rng"
)

// recomputable is implemented by every system in this package; the
// incremental energy must always agree with a from-scratch recount.
type recomputable interface {
	totalEnergy() float64
}

// fill confirms add moves until the system holds want atoms.
func fill(sys mc.System, r *rng.Source, want int) {
	for sys.NumAtoms() < want {
		if _, ok := sys.PlanAdd(r); ok {
			sys.Confirm()
		}
	}
}

var _ = Describe("registered systems", func() {
	geom := config.GeomConfig{CellWidth: 5, Lambda: 1.3, LatticeSize: 6}

	It("lists both systems", func() {
		Expect(Names()).To(Equal([]string{"latticegas", "squarewell"}))
	})

	It("rejects unknown names", func() {
		_, err := New("idealgas", geom)
		Expect(err).To(HaveOccurred())
		_, ok := Blank("idealgas")
		Expect(ok).To(BeFalse())
	})

	for _, name := range Names() {
		name := name

		Describe(name, func() {
			var sys mc.System
			var r *rng.Source

			BeforeEach(func() {
				var err error
				sys, err = New(name, geom)
				Expect(err).NotTo(HaveOccurred())
				r = rng.New(1)
			})

			It("starts empty at zero energy", func() {
				Expect(sys.NumAtoms()).To(BeZero())
				Expect(sys.Energy()).To(BeZero())
			})

			It("suggests a positive bin width", func() {
				de, ok := sys.DeltaEnergy()
				Expect(ok).To(BeTrue())
				Expect(de).To(BeNumerically(">", 0))
			})

			It("refuses displacements with no atoms", func() {
				_, ok := sys.PlanMove(r, 0.1)
				Expect(ok).To(BeFalse())
			})

			It("changes nothing until Confirm", func() {
				if _, ok := sys.PlanAdd(r); !ok {
					Skip("first add proposal found no room")
				}
				Expect(sys.NumAtoms()).To(BeZero())
				Expect(sys.Energy()).To(BeZero())
				sys.Confirm()
				Expect(sys.NumAtoms()).To(Equal(1))
			})

			It("lands on the planned energy when confirming", func() {
				fill(sys, r, 6)
				for i := 0; i < 50; i++ {
					if e, ok := sys.PlanMove(r, 0.3); ok {
						sys.Confirm()
						Expect(sys.Energy()).To(Equal(e))
					}
				}
				e := sys.PlanRemove(r)
				sys.Confirm()
				Expect(sys.Energy()).To(Equal(e))
				Expect(sys.NumAtoms()).To(Equal(5))
			})

			It("keeps the incremental energy consistent", func() {
				fill(sys, r, 8)
				for i := 0; i < 200; i++ {
					switch i % 4 {
					case 0, 1:
						if _, ok := sys.PlanMove(r, 0.4); ok {
							sys.Confirm()
						}
					case 2:
						if _, ok := sys.PlanAdd(r); ok {
							sys.Confirm()
						}
					case 3:
						if sys.NumAtoms() > 0 {
							sys.PlanRemove(r)
							sys.Confirm()
						}
					}
					rc := sys.(recomputable)
					Expect(sys.Energy()).To(BeNumerically("~", rc.totalEnergy(), 1e-9))
				}
			})

			It("round-trips through its checkpoint form", func() {
				fill(sys, r, 5)
				data, err := json.Marshal(sys)
				Expect(err).NotTo(HaveOccurred())

				restored, ok := Blank(name)
				Expect(ok).To(BeTrue())
				Expect(json.Unmarshal(data, restored)).To(Succeed())
				Expect(restored.NumAtoms()).To(Equal(sys.NumAtoms()))
				Expect(restored.Energy()).To(Equal(sys.Energy()))
				Expect(restored.(recomputable).totalEnergy()).To(Equal(sys.(recomputable).totalEnergy()))
			})

			It("replays identically from the same seed", func() {
				run := func() []float64 {
					s, err := New(name, geom)
					Expect(err).NotTo(HaveOccurred())
					src := rng.New(7)
					var es []float64
					for i := 0; i < 100; i++ {
						if i%3 == 0 {
							if _, ok := s.PlanAdd(src); ok {
								s.Confirm()
							}
						} else if _, ok := s.PlanMove(src, 0.2); ok {
							s.Confirm()
						}
						es = append(es, s.Energy())
					}
					return es
				}
				Expect(run()).To(Equal(run()))
			})
		})
	}
})
