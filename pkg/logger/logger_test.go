package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	convey.Convey("Given logger initialisation", t, func() {
		convey.Convey("When using the defaults", func() {
			err := Init()
			convey.So(err, convey.ShouldBeNil)
			convey.So(Get(), convey.ShouldNotBeNil)
			convey.So(Sync(), convey.ShouldBeNil)
		})

		convey.Convey("When asking for console output", func() {
			var buf bytes.Buffer
			err := Init(WithWriter(&buf), WithFormat("console"))
			convey.So(err, convey.ShouldBeNil)
			Get().Info(context.Background(), "hello console")
			convey.So(buf.String(), convey.ShouldContainSubstring, "hello console")
		})

		convey.Convey("When the format is unknown", func() {
			convey.So(Init(WithFormat("xml")), convey.ShouldNotBeNil)
		})

		convey.Convey("When the level is unknown", func() {
			convey.So(Init(WithLevel("chatty")), convey.ShouldNotBeNil)
		})
	})
}

func TestLoggerJSON(t *testing.T) {
	convey.Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		convey.So(Init(WithWriter(&buf), WithFormat(FormatJSON)), convey.ShouldBeNil)
		ctx := context.Background()

		convey.Convey("When logging with fields", func() {
			Named("api").Named("submit").Info(ctx, "stored",
				String("applicationID", "a-1"),
				Int("attempt", 2),
				Error(errors.New("boom")),
			)

			var entry map[string]any
			convey.So(json.Unmarshal(buf.Bytes(), &entry), convey.ShouldBeNil)

			convey.Convey("Then the entry carries fields, name and source", func() {
				convey.So(entry["message"], convey.ShouldEqual, "stored")
				convey.So(entry["level"], convey.ShouldEqual, "info")
				convey.So(entry["logger"], convey.ShouldEqual, "api.submit")
				convey.So(entry["applicationID"], convey.ShouldEqual, "a-1")
				convey.So(entry["attempt"], convey.ShouldEqual, 2.0)
				convey.So(entry["error"], convey.ShouldEqual, "boom")
				convey.So(entry["source"], convey.ShouldContainSubstring, "logger_test.go")
			})
		})

		convey.Convey("When the level is raised above debug", func() {
			convey.So(SetLevelString("warn"), convey.ShouldBeNil)
			Get().Debug(ctx, "hidden")
			Get().Info(ctx, "hidden too")
			Get().Warn(ctx, "shown")
			convey.So(SetLevelString("info"), convey.ShouldBeNil)

			convey.Convey("Then only the warning is written", func() {
				lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
				convey.So(lines, convey.ShouldHaveLength, 1)
				convey.So(lines[0], convey.ShouldContainSubstring, "shown")
			})
		})
	})
}

func TestSetLevelString(t *testing.T) {
	convey.Convey("Given level names", t, func() {
		for _, lvl := range []string{"debug", "INFO", " warning ", "error", ""} {
			convey.So(SetLevelString(lvl), convey.ShouldBeNil)
		}
		convey.So(SetLevelString("verbose"), convey.ShouldNotBeNil)
		convey.So(SetLevelString("info"), convey.ShouldBeNil)
	})
}
