package service_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/eblviz/internal/adapters/dataset"
	"github.com/okian/eblviz/internal/adapters/render"
	service "github.com/okian/eblviz/internal/app"
	"github.com/okian/eblviz/internal/domain/dosage"
	"github.com/okian/eblviz/internal/domain/histogram"
	. "github.com/smartystreets/goconvey/convey"
)

const healthData = `[
	{"case": "a", "intraop_ebl": 50},
	{"case": "b", "intraop_ebl": 150},
	{"case": "c", "intraop_ebl": 250},
	{"case": "d", "intraop_ebl": 950}
]`

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service reading health data from a file", t, func() {
		path := filepath.Join(t.TempDir(), "health_data.json")
		So(os.WriteFile(path, []byte(healthData), 0o600), ShouldBeNil)

		svc := newService(dataset.NewFileSource(path))
		defer svc.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When the histogram is rendered end-to-end", func() {
			l, err := svc.Histogram(ctx)
			So(err, ShouldBeNil)

			var buf bytes.Buffer
			So(render.HistogramSVG(&buf, l), ShouldBeNil)

			Convey("Then the bins and marker match the sliders", func() {
				counts := make([]int, len(l.Bins))
				for i, b := range l.Bins {
					counts[i] = b.Count
				}
				So(counts, ShouldResemble, []int{1, 1, 1, 0, 0, 0, 0, 0, 0, 1})
				So(buf.String(), ShouldContainSubstring, "Predicted Blood Loss: 860.0 mL")
			})
		})

		Convey("When sliders are moved concurrently", func() {
			var wg sync.WaitGroup
			for i := 0; i <= 100; i += 10 {
				wg.Add(2)
				go func(dose int) {
					defer wg.Done()
					v, _ := dosage.Uniform(dose)
					_, _ = svc.SetPrediction(ctx, v)
				}(i)
				go func(dose int) {
					defer wg.Done()
					v, _ := dosage.Uniform(dose)
					_, _ = svc.SetAnimation(ctx, v)
				}(i)
			}
			wg.Wait()

			Convey("Then one loop is running and the estimate follows the stored doses", func() {
				f, err := svc.Frame(ctx)
				So(err, ShouldBeNil)
				So(f.Running, ShouldBeTrue)

				a, _ := svc.Animation(ctx)
				So(f.Generation, ShouldEqual, a.Generation)

				p, _ := svc.Prediction(ctx)
				So(p.Estimate, ShouldAlmostEqual, 300+11.2*float64(p.Doses.Propofol), 1e-9)
			})
		})
	})

	Convey("Given a service reading health data over HTTP", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(healthData))
		}))
		defer srv.Close()

		svc := newService(dataset.NewHTTPSource(srv.URL+"/health_data", time.Second))
		defer svc.Stop()
		So(svc.Start(context.Background()), ShouldBeNil)

		Convey("Then the records are served back unchanged", func() {
			recs, err := svc.Dataset(context.Background())
			So(err, ShouldBeNil)
			So(recs, ShouldHaveLength, 4)
			So(recs[0]["case"], ShouldEqual, "a")
		})
	})

	Convey("Given a service reading from sqlite", t, func() {
		ctx := context.Background()
		db, err := dataset.Open(ctx, dataset.DriverSQLite, "file:"+filepath.Join(t.TempDir(), "cases.db"))
		So(err, ShouldBeNil)
		defer db.Close()

		_, err = db.ExecContext(ctx, `CREATE TABLE cases (intraop_ebl REAL)`)
		So(err, ShouldBeNil)
		_, err = db.ExecContext(ctx, `INSERT INTO cases VALUES (120), (480), (1730)`)
		So(err, ShouldBeNil)

		opts := histogram.DefaultOptions()
		opts.Policy = histogram.PolicyFixed
		svc := newService(dataset.NewSQLSource(db, "SELECT intraop_ebl FROM cases", ""), service.WithHistogramOptions(opts))
		defer svc.Stop()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("Then values past the fixed domain still count", func() {
			l, err := svc.Histogram(ctx)
			So(err, ShouldBeNil)
			So(l.Bins, ShouldHaveLength, 18)
			So(histogram.Total(l.Bins), ShouldEqual, 3)
			So(l.XScale.D1, ShouldEqual, 1500)

			var buf bytes.Buffer
			So(render.HistogramSVG(&buf, l), ShouldBeNil)
			So(strings.HasPrefix(buf.String(), "<svg"), ShouldBeTrue)
		})
	})
}
