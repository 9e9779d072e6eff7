package logger_test

import (
	"context"
	"testing"

	"github.com/arenascope/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given an initialized logger", t, func() {
		So(logger.Init(), ShouldBeNil)
		ctx := context.Background()

		Convey("When logging with fields", func() {
			l := logger.Get()

			Convey("Then it does not panic", func() {
				So(func() {
					l.Info(ctx, "hello",
						logger.String("key", "value"),
						logger.Int("count", 3),
						logger.Error(nil),
					)
				}, ShouldNotPanic)
			})
		})

		Convey("When deriving a named logger", func() {
			l := logger.Named("reconciler")
			So(l, ShouldNotBeNil)
			So(func() { l.Debug(ctx, "tick") }, ShouldNotPanic)
		})

		Convey("When setting the level from a string", func() {
			So(logger.SetLevelString("debug"), ShouldBeNil)
			So(logger.SetLevelString("WARN"), ShouldBeNil)
			So(logger.SetLevelString(""), ShouldBeNil)

			Convey("Then unknown names are rejected", func() {
				So(logger.SetLevelString("loud"), ShouldNotBeNil)
			})
		})
	})
}
