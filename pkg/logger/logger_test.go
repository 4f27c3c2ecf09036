package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	Convey("Given the global logger", t, func() {
		Convey("When it is initialized with defaults", func() {
			err := Init()

			Convey("Then Get returns a usable logger", func() {
				So(err, ShouldBeNil)
				So(Get(), ShouldNotBeNil)
				So(Sync(), ShouldBeNil)
			})
		})

		Convey("When it is initialized with a nil writer", func() {
			err := InitWith(nil, FormatText)

			Convey("Then it should fail", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})
}

func TestLoggerOutput(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(InitWith(&buf, FormatJSON), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			Get().Info(ctx, "dataset loaded", Int("records", 42), String("kind", "file"))

			Convey("Then the entry carries message, fields and source location", func() {
				var entry map[string]any
				So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)
				So(entry["msg"], ShouldEqual, "dataset loaded")
				So(entry["records"], ShouldEqual, float64(42))
				So(entry["level"], ShouldEqual, "INFO")
			})
		})

		Convey("When the level is raised to error", func() {
			So(SetLevelString("error"), ShouldBeNil)
			Get().Warn(ctx, "suppressed")
			Get().Error(ctx, "kept")

			Convey("Then only the error entry is written", func() {
				out := buf.String()
				So(out, ShouldNotContainSubstring, "suppressed")
				So(out, ShouldContainSubstring, "kept")
			})
		})

		Convey("When using a named child logger with fields", func() {
			Named("animation").With(String("loop", "abc")).Info(ctx, "started")

			Convey("Then attributes are grouped under the name", func() {
				So(buf.String(), ShouldContainSubstring, `"animation"`)
				So(strings.Count(buf.String(), "\n"), ShouldEqual, 1)
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	Convey("Given level strings", t, func() {
		So(Init(), ShouldBeNil)

		Convey("Then known levels are accepted", func() {
			for _, lvl := range []string{"debug", "info", "", "warn", "warning", "error", " INFO "} {
				So(SetLevelString(lvl), ShouldBeNil)
			}
		})

		Convey("Then unknown levels are rejected", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}

func TestParseFormat(t *testing.T) {
	Convey("Given format strings", t, func() {
		So(ParseFormat("json"), ShouldEqual, FormatJSON)
		So(ParseFormat(" JSON "), ShouldEqual, FormatJSON)
		So(ParseFormat("text"), ShouldEqual, FormatText)
		So(ParseFormat(""), ShouldEqual, FormatText)
	})
}
