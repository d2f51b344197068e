package logger_test

import (
	"context"
	"testing"

	"github.com/fairtouch/fairtouch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized global logger", t, func() {
		So(logger.Init(), ShouldBeNil)

		Convey("When getting the global logger", func() {
			l := logger.Get()

			Convey("Then it is usable with structured fields", func() {
				So(l, ShouldNotBeNil)
				So(func() {
					l.Info(context.Background(), "test message",
						logger.String("key", "value"),
						logger.Int("count", 3),
						logger.Float64("share", 0.25),
					)
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			l := logger.Named("engine")

			Convey("Then logging through it does not panic", func() {
				So(func() { l.Debug(context.Background(), "named") }, ShouldNotPanic)
			})
		})

		Convey("When setting levels from strings", func() {
			Convey("Then known levels parse", func() {
				So(logger.SetLevelString("debug"), ShouldBeNil)
				So(logger.SetLevelString("WARN"), ShouldBeNil)
				So(logger.SetLevelString(""), ShouldBeNil)
			})

			Convey("Then unknown levels are rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
