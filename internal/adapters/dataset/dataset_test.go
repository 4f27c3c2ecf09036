package dataset_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/eblviz/internal/adapters/dataset"
	. "github.com/smartystreets/goconvey/convey"
)

const payload = `[
	{"id": 1, "intraop_ebl": 50},
	{"id": 2, "intraop_ebl": 150.5},
	{"id": 3, "intraop_ebl": "250"},
	{"id": 4, "intraop_ebl": 950},
	{"id": 5, "intraop_ebl": null},
	{"id": 6}
]`

func TestStore(t *testing.T) {
	Convey("Given records with mixed field values", t, func() {
		var records []dataset.Record
		So(json.Unmarshal([]byte(payload), &records), ShouldBeNil)

		store, err := dataset.NewStore(records, "")
		So(err, ShouldBeNil)

		Convey("Then only finite numbers are kept", func() {
			So(store.Field(), ShouldEqual, dataset.DefaultField)
			So(store.Len(), ShouldEqual, 4)
			So(store.Dropped(), ShouldEqual, 2)
			So(store.Values(), ShouldResemble, []float64{50, 150.5, 250, 950})
			So(store.Max(), ShouldEqual, 950)
			So(store.Records(), ShouldHaveLength, 4)
		})

		Convey("Then returned slices are copies", func() {
			v := store.Values()
			v[0] = -1
			So(store.Values()[0], ShouldEqual, 50)
		})
	})

	Convey("Given records without a usable field", t, func() {
		_, err := dataset.NewStore([]dataset.Record{{"other": 1}}, "intraop_ebl")

		Convey("Then the store is empty", func() {
			So(errors.Is(err, dataset.ErrEmpty), ShouldBeTrue)
		})
	})

	Convey("Given no records at all", t, func() {
		_, err := dataset.NewStore(nil, "intraop_ebl")
		So(errors.Is(err, dataset.ErrEmpty), ShouldBeTrue)
	})

	Convey("Given all-negative values", t, func() {
		store, err := dataset.NewStore([]dataset.Record{{"v": -5.0}, {"v": -2.0}}, "v")
		So(err, ShouldBeNil)
		So(store.Max(), ShouldEqual, -2)
	})
}

func TestFileSource(t *testing.T) {
	Convey("Given a JSON file of records", t, func() {
		path := filepath.Join(t.TempDir(), "health_data.json")
		So(os.WriteFile(path, []byte(payload), 0o600), ShouldBeNil)

		records, err := dataset.NewFileSource(path).Load(context.Background())

		Convey("Then every record is decoded", func() {
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 6)
			v, ok := dataset.Value(records[1], "intraop_ebl")
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, 150.5)
		})
	})

	Convey("Given a missing file", t, func() {
		_, err := dataset.NewFileSource(filepath.Join(t.TempDir(), "nope.json")).Load(context.Background())
		So(errors.Is(err, dataset.ErrSource), ShouldBeTrue)
	})

	Convey("Given a file that is not a JSON array", t, func() {
		path := filepath.Join(t.TempDir(), "bad.json")
		So(os.WriteFile(path, []byte(`{"intraop_ebl": 1}`), 0o600), ShouldBeNil)
		_, err := dataset.NewFileSource(path).Load(context.Background())
		So(errors.Is(err, dataset.ErrSource), ShouldBeTrue)
	})
}

func TestHTTPSource(t *testing.T) {
	Convey("Given a server returning records", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health_data" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(payload))
		}))
		defer srv.Close()

		Convey("Then the records are fetched", func() {
			records, err := dataset.NewHTTPSource(srv.URL+"/health_data", 0).Load(context.Background())
			So(err, ShouldBeNil)
			So(records, ShouldHaveLength, 6)
		})

		Convey("Then a non-2xx status is a source failure", func() {
			_, err := dataset.NewHTTPSource(srv.URL+"/missing", 0).Load(context.Background())
			So(errors.Is(err, dataset.ErrSource), ShouldBeTrue)
		})

		Convey("Then a cancelled context fails the fetch", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := dataset.NewHTTPSource(srv.URL+"/health_data", 0).Load(ctx)
			So(errors.Is(err, dataset.ErrSource), ShouldBeTrue)
		})
	})
}

func TestSQLSource(t *testing.T) {
	Convey("Given a sqlite database with a cases table", t, func() {
		ctx := context.Background()
		dsn := "file:" + filepath.Join(t.TempDir(), "cases.db")
		db, err := dataset.Open(ctx, dataset.DriverSQLite, dsn)
		So(err, ShouldBeNil)
		defer db.Close()

		_, err = db.ExecContext(ctx, `CREATE TABLE cases (id INTEGER PRIMARY KEY, intraop_ebl REAL)`)
		So(err, ShouldBeNil)
		_, err = db.ExecContext(ctx, `INSERT INTO cases (intraop_ebl) VALUES (50), (150), (NULL), (950)`)
		So(err, ShouldBeNil)

		Convey("When the values are queried", func() {
			src := dataset.NewSQLSource(db, "SELECT intraop_ebl FROM cases ORDER BY id", "")
			records, err := src.Load(ctx)
			So(err, ShouldBeNil)

			Convey("Then each row becomes a record and NULLs are dropped by the store", func() {
				So(records, ShouldHaveLength, 4)
				store, err := dataset.NewStore(records, dataset.DefaultField)
				So(err, ShouldBeNil)
				So(store.Values(), ShouldResemble, []float64{50, 150, 950})
				So(store.Dropped(), ShouldEqual, 1)
			})
		})

		Convey("When the query is invalid", func() {
			_, err := dataset.NewSQLSource(db, "SELECT nope FROM missing", "").Load(ctx)
			So(errors.Is(err, dataset.ErrSource), ShouldBeTrue)
		})
	})

	Convey("Given an unknown driver", t, func() {
		_, err := dataset.Open(context.Background(), "oracle", "")
		So(errors.Is(err, dataset.ErrUnsupportedDriver), ShouldBeTrue)
	})
}
