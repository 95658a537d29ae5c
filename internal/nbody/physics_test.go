package nbody_test

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/orbitsim/internal/nbody"
)

func momentum(bodies nbody.Bodies) nbody.Vector3 {
	var p nbody.Vector3
	for _, b := range bodies {
		p = p.Add(b.Velocity.Scale(b.Mass))
	}
	return p
}

var _ = Describe("Gravitational dynamics", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("two-body symmetry", func() {
		It("keeps m1*a1 equal and opposite to m2*a2 on every tick", func() {
			bodies := nbody.Bodies{
				{Name: "heavy", Mass: 8e12, Position: nbody.Vector3{X: -300, Y: 20, Z: 5}},
				{Name: "light", Mass: 3e11, Position: nbody.Vector3{X: 400, Y: -10, Z: 60}, Velocity: nbody.Vector3{Y: 0.5}},
			}
			cfg := nbody.Config{Dt: 1, Steps: 200, ReportFrequency: 1}

			ticks := 0
			err := nbody.New().RunWithCallback(ctx, bodies, cfg, func(live nbody.Bodies, _ int) bool {
				a1, err := nbody.Acceleration(live, 0)
				Expect(err).NotTo(HaveOccurred())
				a2, err := nbody.Acceleration(live, 1)
				Expect(err).NotTo(HaveOccurred())

				f1 := a1.Scale(live[0].Mass)
				f2 := a2.Scale(live[1].Mass)
				Expect(f1.Add(f2).Length()).To(BeNumerically("<=", 1e-12*f1.Length()))
				Expect(f1.Dot(f2)).To(BeNumerically("<", 0))
				ticks++
				return true
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(ticks).To(Equal(199))
		})
	})

	Describe("momentum conservation", func() {
		It("holds total momentum constant for an isolated system", func() {
			bodies := nbody.Bodies{
				{Name: "a", Mass: 5e10, Velocity: nbody.Vector3{X: 1e-3}},
				{Name: "b", Mass: 3e10, Position: nbody.Vector3{Y: 1e5}, Velocity: nbody.Vector3{Z: -2e-3}},
				{Name: "c", Mass: 1e10, Position: nbody.Vector3{X: 7e4, Z: 3e4}, Velocity: nbody.Vector3{Y: 1e-3}},
			}
			p0 := momentum(bodies)
			scale := 0.0
			for _, b := range bodies {
				scale += b.Mass * b.Velocity.Length()
			}

			err := nbody.New().RunWithCallback(ctx, bodies, nbody.Config{Dt: 1, Steps: 1000, ReportFrequency: 1}, func(live nbody.Bodies, _ int) bool {
				Expect(momentum(live).Sub(p0).Length()).To(BeNumerically("<=", 1e-9*scale))
				return true
			})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("zero-force idempotence", func() {
		It("moves a body at constant velocity when its only neighbour is massless", func() {
			bodies := nbody.Bodies{
				{Name: "drifter", Mass: 1e10, Velocity: nbody.Vector3{X: 1, Y: 2, Z: -3}},
				{Name: "ghost", Mass: 0, Position: nbody.Vector3{X: 1e3, Y: 1e3}},
			}

			res, err := nbody.Run(ctx, bodies, nbody.Config{Dt: 1, Steps: 21, ReportFrequency: 5})
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Final[0].Velocity).To(Equal(bodies[0].Velocity))
			tr, ok := res.History.ByName("drifter")
			Expect(ok).To(BeTrue())
			Expect(tr.Len()).To(Equal(4))
			for i := 0; i < tr.Len(); i++ {
				tick := float64((i + 1) * 5)
				Expect(tr.Point(i)).To(Equal(nbody.Vector3{X: tick, Y: 2 * tick, Z: -3 * tick}))
			}

			Expect(res.Final[1].Velocity).NotTo(Equal(nbody.Vector3{}))
		})
	})

	DescribeTable("trajectory length",
		func(steps, freq, expected int) {
			bodies := nbody.Bodies{
				{Name: "a", Mass: 1e9},
				{Name: "b", Mass: 1e9, Position: nbody.Vector3{X: 1e4}},
				{Name: "c", Mass: 1e9, Position: nbody.Vector3{Z: 1e4}},
			}
			res, err := nbody.Run(ctx, bodies, nbody.Config{Dt: 1, Steps: steps, ReportFrequency: freq})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.History).To(HaveLen(3))
			for _, tr := range res.History {
				Expect(tr.X).To(HaveLen(expected))
				Expect(tr.Y).To(HaveLen(expected))
				Expect(tr.Z).To(HaveLen(expected))
			}
		},
		Entry("every tick", 10, 1, 9),
		Entry("every tenth tick", 100, 10, 9),
		Entry("frequency not dividing", 23, 4, 5),
		Entry("single step", 1, 1, 0),
		Entry("frequency beyond run", 5, 10, 0),
		Entry("frequency equal to last tick", 11, 10, 1),
	)

	Describe("the reference binary", func() {
		It("pulls the two bodies together along y only", func() {
			bodies := nbody.Bodies{
				{Name: "Body1", Mass: 5e10},
				{Name: "Body2", Mass: 5e10, Position: nbody.Vector3{Y: 1e5}},
			}

			res, err := nbody.Run(ctx, bodies, nbody.Config{Dt: 1.0, Steps: 100, ReportFrequency: 10})
			Expect(err).NotTo(HaveOccurred())

			for _, tr := range res.History {
				Expect(tr.Len()).To(Equal(9))
				Expect(tr.X).To(HaveEach(0.0))
				Expect(tr.Z).To(HaveEach(0.0))
			}

			gap := res.Final[1].Position.Y - res.Final[0].Position.Y
			Expect(gap).To(BeNumerically("<", 1e5))
			Expect(res.Final[0].Position.Y).To(BeNumerically("~", -(res.Final[1].Position.Y - 1e5), 1e-8))
			Expect(math.Signbit(res.Final[0].Velocity.Y)).To(BeFalse())
			Expect(math.Signbit(res.Final[1].Velocity.Y)).To(BeTrue())
		})
	})

	Describe("invalid input", func() {
		It("rejects coincident bodies before recording anything", func() {
			bodies := nbody.Bodies{
				{Name: "a", Mass: 1e10, Position: nbody.Vector3{X: 2, Y: 2, Z: 2}},
				{Name: "b", Mass: 1e10, Position: nbody.Vector3{X: 2, Y: 2, Z: 2}},
			}
			res, err := nbody.Run(ctx, bodies, nbody.Config{Dt: 1, Steps: 10, ReportFrequency: 1})
			Expect(err).To(MatchError(nbody.ErrSingularConfiguration))
			Expect(res).To(BeNil())
		})

		It("rejects a single body before any tick", func() {
			res, err := nbody.Run(ctx, nbody.Bodies{{Name: "solo", Mass: 1}}, nbody.Config{Dt: 1, Steps: 10, ReportFrequency: 1})
			Expect(err).To(MatchError(nbody.ErrInvalidConfiguration))
			Expect(res).To(BeNil())
		})
	})
})
