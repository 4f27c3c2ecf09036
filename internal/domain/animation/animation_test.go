package animation_test

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/eblviz/internal/domain/animation"
	"github.com/okian/eblviz/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestSeverity(t *testing.T) {
	Convey("Given estimates around the saturation point", t, func() {
		So(animation.Severity(0, 1000), ShouldEqual, 0)
		So(animation.Severity(500, 1000), ShouldEqual, 0.5)
		So(animation.Severity(1000, 1000), ShouldEqual, 1)
		So(animation.Severity(1220, 1000), ShouldEqual, 1)
		So(animation.Severity(-50, 1000), ShouldEqual, 0)
		So(animation.Severity(math.NaN(), 1000), ShouldEqual, 0)
		So(animation.Severity(250, 0), ShouldEqual, 0.25)
	})
}

func TestPalette(t *testing.T) {
	Convey("Given the default palette", t, func() {
		p := animation.DefaultPalette()

		Convey("Then the ends of each ramp are the configured colors", func() {
			So(animation.Hex(p.Background(0)), ShouldEqual, "#ffdddd")
			So(animation.Hex(p.Background(1)), ShouldEqual, "#ff0000")
			So(animation.Hex(p.Particle(0)), ShouldEqual, "#ff0000")
			So(animation.Hex(p.Particle(1)), ShouldEqual, "#8b0000")
		})

		Convey("Then the midpoint blends each channel", func() {
			mid := p.Particle(0.5)
			So(mid.R, ShouldEqual, uint8(197))
			So(mid.G, ShouldEqual, uint8(0))
		})
	})

	Convey("Given t outside [0,1]", t, func() {
		a := drawing.Color{R: 0, A: 255}
		b := drawing.Color{R: 200, A: 255}
		So(animation.Lerp(a, b, -1).R, ShouldEqual, uint8(0))
		So(animation.Lerp(a, b, 2).R, ShouldEqual, uint8(200))
	})
}

func TestField(t *testing.T) {
	Convey("Given a seeded field of 100 particles on 800x400", t, func() {
		f := animation.NewField(100, 800, 400, seeded())

		Convey("Then every particle starts on the canvas with bounded attributes", func() {
			So(f.Particles, ShouldHaveLength, 100)
			for _, p := range f.Particles {
				So(p.X, ShouldBeBetweenOrEqual, 0, 800)
				So(p.Y, ShouldBeBetweenOrEqual, 0, 400)
				So(p.Size, ShouldBeBetweenOrEqual, 2, 7)
				So(p.Speed, ShouldBeBetweenOrEqual, 0.1, 0.6)
			}
		})

		Convey("When stepping at severity 0", func() {
			before := append([]animation.Particle(nil), f.Particles...)
			f.Step(0)

			Convey("Then nothing moves", func() {
				So(f.Particles, ShouldResemble, before)
			})
		})

		Convey("When stepping at full severity", func() {
			before := append([]animation.Particle(nil), f.Particles...)
			f.Step(1)

			Convey("Then each axis moves at most 0.75 modulo the canvas", func() {
				for i, p := range f.Particles {
					dx := math.Abs(p.X - before[i].X)
					dy := math.Abs(p.Y - before[i].Y)
					So(math.Min(dx, 800-dx), ShouldBeLessThanOrEqualTo, 0.75+1e-9)
					So(math.Min(dy, 400-dy), ShouldBeLessThanOrEqualTo, 0.75+1e-9)
				}
			})
		})

		Convey("When stepping many times", func() {
			for i := 0; i < 2000; i++ {
				f.Step(1)
			}

			Convey("Then particles stay on the torus", func() {
				for _, p := range f.Particles {
					So(p.X, ShouldBeGreaterThanOrEqualTo, 0)
					So(p.X, ShouldBeLessThan, 800)
					So(p.Y, ShouldBeGreaterThanOrEqualTo, 0)
					So(p.Y, ShouldBeLessThan, 400)
				}
			})
		})
	})

	Convey("Given a particle of size 4", t, func() {
		p := animation.Particle{Size: 4}
		So(p.Radius(0), ShouldEqual, 4)
		So(p.Radius(1), ShouldEqual, 8)
	})
}

func TestAnimator(t *testing.T) {
	Convey("Given an animator with a fast frame loop", t, func() {
		a := animation.New(
			animation.WithInterval(time.Millisecond),
			animation.WithCanvas(10, 100, 50),
			animation.WithRand(seeded()),
		)
		defer a.Stop()

		Convey("Then it is idle until the first update", func() {
			So(a.Running(), ShouldBeFalse)
			f := a.Snapshot()
			So(f.Particles, ShouldHaveLength, 10)
			So(f.Background, ShouldEqual, "#ffdddd")
		})

		Convey("When an estimate is applied", func() {
			gen := a.Update(context.Background(), 500)

			Convey("Then the loop runs and the frame reflects the severity", func() {
				So(a.Running(), ShouldBeTrue)
				So(func() bool {
					deadline := time.Now().Add(2 * time.Second)
					for time.Now().Before(deadline) {
						if a.Snapshot().Frame > 0 {
							return true
						}
						time.Sleep(time.Millisecond)
					}
					return false
				}(), ShouldBeTrue)

				f := a.Snapshot()
				So(f.Generation, ShouldEqual, gen)
				So(f.Severity, ShouldEqual, 0.5)
				So(f.Opacity, ShouldEqual, 0.6)
				So(f.Width, ShouldEqual, 100)
				So(f.Height, ShouldEqual, 50)
			})

			Convey("When a second estimate arrives", func() {
				next := a.Update(context.Background(), 2000)

				Convey("Then a new loop replaces the old one", func() {
					So(next, ShouldNotEqual, gen)
					So(a.Running(), ShouldBeTrue)
					f := a.Snapshot()
					So(f.Generation, ShouldEqual, next)
					So(f.Severity, ShouldEqual, 1)
					So(f.Fill, ShouldEqual, "#8b0000")
				})
			})

			Convey("When the update context is cancelled", func() {
				ctx, cancel := context.WithCancel(context.Background())
				a.Update(ctx, 100)
				cancel()

				Convey("Then the loop keeps running until Stop", func() {
					So(a.Running(), ShouldBeTrue)
					a.Stop()
					So(a.Running(), ShouldBeFalse)
				})
			})

			Convey("When stopped", func() {
				a.Stop()
				frames := a.Snapshot().Frame
				time.Sleep(10 * time.Millisecond)

				Convey("Then no more frames are produced", func() {
					So(a.Running(), ShouldBeFalse)
					So(a.Snapshot().Frame, ShouldEqual, frames)
				})
			})
		})
	})
}
