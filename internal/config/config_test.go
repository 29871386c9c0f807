package config_test

import (
	"context"
	"errors"
	"testing"

	"github.com/okian/transformdiag/internal/config"
	"github.com/okian/transformdiag/internal/domain/normalize"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with defaults", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.DefaultColumns, convey.ShouldEqual, 2)
			convey.So(cfg.DefaultProb, convey.ShouldEqual, 0.9)
			convey.So(cfg.TransformOrder, convey.ShouldHaveLength, 10)
			convey.So(cfg.Thresholds["bfmi"], convey.ShouldEqual, 0.3)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("Then the chart config mirrors it", func() {
			cc := cfg.ChartConfig()
			convey.So(cc.TransformOrder, convey.ShouldResemble, cfg.TransformOrder)
			convey.So(cc.AxisType("bfmi"), convey.ShouldEqual, "linear")
			convey.So(cc.AxisType("rmsre"), convey.ShouldEqual, "log")
			convey.So(cc.SubplotHeight, convey.ShouldEqual, 300)
		})
	})
}

func TestConfig_Polarity(t *testing.T) {
	convey.Convey("Given a config with polarity overrides", t, func() {
		cfg := config.New(context.Background())
		cfg.LowerIsBetter = []string{"ess_time"}
		cfg.HigherIsBetter = []string{"rmsre"}

		convey.Convey("Then the table is extended and overridden", func() {
			p, err := cfg.Polarity()
			convey.So(err, convey.ShouldBeNil)
			convey.So(p.Direction("ess_time"), convey.ShouldEqual, normalize.LowerIsBetter)
			convey.So(p.Direction("rmsre"), convey.ShouldEqual, normalize.HigherIsBetter)
			convey.So(p.Direction("max_rhat"), convey.ShouldEqual, normalize.LowerIsBetter)
		})

		convey.Convey("When a metric is listed in both directions", func() {
			cfg.HigherIsBetter = []string{"ess_time"}
			_, err := cfg.Polarity()

			convey.Convey("Then it is rejected", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config with several bad fields", t, func() {
		cfg := config.New(context.Background())
		cfg.Addr = ""
		cfg.LogFormat = "xml"
		cfg.DefaultProb = 1.5

		err := cfg.Validate()

		convey.Convey("Then every problem is reported", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
			convey.So(err.Error(), convey.ShouldContainSubstring, "log_format")
			convey.So(err.Error(), convey.ShouldContainSubstring, "default_prob")
		})
	})
}
