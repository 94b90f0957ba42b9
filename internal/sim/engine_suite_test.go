package sim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/swarmsim/internal/compute"
	"github.com/san-kum/swarmsim/internal/density"
	"github.com/san-kum/swarmsim/internal/particle"
	"github.com/san-kum/swarmsim/internal/sim"
	"github.com/san-kum/swarmsim/internal/tuning"
)

var _ = Describe("Engine", func() {
	var (
		opts   sim.Options
		engine *sim.Engine
	)

	BeforeEach(func() {
		opts = sim.DefaultOptions()
		opts.Particles = 1024
		opts.Width, opts.Height = 64, 48
		opts.MaxWorkers = 8
		opts.Workers = 4
		opts.Seed = 7
	})

	JustBeforeEach(func() {
		var err error
		engine, err = sim.New(opts)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(engine.Close)
	})

	Context("with hard wrap", func() {
		BeforeEach(func() {
			opts.Wrap = compute.WrapToroidal
		})

		It("keeps every particle on the field", func() {
			in := sim.Input{AttractorX: 63, AttractorY: 0, Tuning: tuning.Tuning{Attraction: 1, Friction: 1}}
			for i := 0; i < 30; i++ {
				_, _, err := engine.Step(in)
				Expect(err).NotTo(HaveOccurred())
			}
			px, py, _, _ := engine.Particles().Snapshot()
			for i := range px {
				Expect(px[i]).To(And(BeNumerically(">=", 0), BeNumerically("<", 64)))
				Expect(py[i]).To(And(BeNumerically(">=", 0), BeNumerically("<", 48)))
			}
		})
	})

	Context("with clipping", func() {
		It("drops particles that leave the field from the frame", func() {
			in := sim.Input{AttractorX: -500, AttractorY: -500, Tuning: tuning.Tuning{Attraction: 2, Friction: 1}}
			var stats sim.FrameStats
			for i := 0; i < 40; i++ {
				var err error
				_, stats, err = engine.Step(in)
				Expect(err).NotTo(HaveOccurred())
			}
			inside, outside := engine.Particles().Bounds(64, 48)
			Expect(outside).To(BeNumerically(">", 0))
			Expect(stats.InRange).To(Equal(inside))
		})
	})

	Context("in counted mode", func() {
		BeforeEach(func() {
			opts.Mode = density.ModeCounted
			opts.Op = density.OpAdd
			opts.Groups = 5
			opts.MaxDensity = 4
		})

		It("conserves the in-range particle count", func() {
			in := sim.Input{AttractorX: 32, AttractorY: 24, Tuning: tuning.Default()}
			for i := 0; i < 10; i++ {
				_, stats, err := engine.Step(in)
				Expect(err).NotTo(HaveOccurred())
				inside, _ := engine.Particles().Bounds(64, 48)
				Expect(engine.Combiner().Total()).To(Equal(inside))
				Expect(stats.InRange).To(Equal(inside))
			}
		})

		It("renders opaque grayscale pixels", func() {
			frame, _, err := engine.Step(sim.Input{Tuning: tuning.Default()})
			Expect(err).NotTo(HaveOccurred())
			for _, p := range frame.Pixels {
				c := density.Unpack(p)
				Expect(c.A).To(Equal(uint8(255)))
				Expect(c.R).To(Equal(c.G))
				Expect(c.G).To(Equal(c.B))
			}
		})
	})

	Context("with a scanline start", func() {
		BeforeEach(func() {
			opts.Placement = particle.PlacementScanline
			opts.Velocity = particle.VelocityZero
		})

		It("starts from the same state regardless of seed", func() {
			px, py, _, _ := engine.Particles().Snapshot()
			Expect(px[65]).To(Equal(float32(1)))
			Expect(py[65]).To(Equal(float32(1)))
		})
	})

	Context("after Close", func() {
		It("refuses to step", func() {
			engine.Close()
			_, _, err := engine.Step(sim.Input{})
			Expect(err).To(MatchError(sim.ErrReleased))
		})
	})

	DescribeTable("every kernel and worker count produces a frame",
		func(kernel string, workers int) {
			o := opts
			o.Kernel = kernel
			o.Workers = workers
			e, err := sim.New(o)
			Expect(err).NotTo(HaveOccurred())
			defer e.Close()

			frame, stats, err := e.Step(sim.Input{AttractorX: 10, AttractorY: 10, Tuning: tuning.Default()})
			Expect(err).NotTo(HaveOccurred())
			Expect(frame.Pixels).To(HaveLen(64 * 48))
			Expect(stats.Failures).To(BeZero())
			Expect(e.Workers()).To(Equal(workers))
		},
		Entry("scalar, one worker", "scalar", 1),
		Entry("lanes, three workers", "lanes", 3),
		Entry("blas, eight workers", "blas", 8),
		Entry("auto, five workers", compute.Auto, 5),
	)
})
