package synth

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/okian/transformdiag/internal/adapters/dataset"
	"github.com/okian/transformdiag/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func smallConfig() Config {
	return Config{
		Targets:       []string{"dirichlet"},
		TargetConfigs: []string{"N3", "N10"},
		Transforms:    []string{"ALR", "ILR"},
		LogScales:     []string{"true"},
		Estimates:     []string{"mean", "variance"},
		Chains:        3,
		Seed:          42,
		Workers:       2,
	}
}

func TestGenerate(t *testing.T) {
	Convey("Given a small grid", t, func() {
		ctx := context.Background()
		cfg := smallConfig()

		Convey("When generating", func() {
			records, err := Generate(ctx, cfg)
			So(err, ShouldBeNil)

			Convey("Then every combination yields one row", func() {
				So(records, ShouldHaveLength, cfg.Rows())
				So(cfg.Rows(), ShouldEqual, 24)
			})

			Convey("And blocks keep grid order", func() {
				So(records[0]["target_config"].String(), ShouldEqual, "N3")
				So(records[len(records)-1]["target_config"].String(), ShouldEqual, "N10")
				So(records[0]["transform"].String(), ShouldEqual, "ALR")
				So(records[0][FieldChain].String(), ShouldEqual, "1")
			})

			Convey("And metrics are numeric and in range", func() {
				for _, r := range records {
					bfmi, err := r.Float(MetricBFMI)
					So(err, ShouldBeNil)
					So(bfmi, ShouldBeBetweenOrEqual, 0.05, 2)
					rhat, err := r.Float(MetricMaxRhat)
					So(err, ShouldBeNil)
					So(rhat, ShouldBeGreaterThanOrEqualTo, 1)
					So(r[FieldRunID].String(), ShouldHaveLength, 36)
				}
			})

			Convey("And the same seed reproduces the output regardless of workers", func() {
				cfg.Workers = 1
				again, err := Generate(ctx, cfg)
				So(err, ShouldBeNil)
				So(again, ShouldResemble, records)
			})

			Convey("And a different seed changes it", func() {
				cfg.Seed = 7
				other, err := Generate(ctx, cfg)
				So(err, ShouldBeNil)
				So(other[0][MetricBFMI], ShouldNotResemble, records[0][MetricBFMI])
			})
		})

		Convey("When the grid is empty", func() {
			cfg.Transforms = nil
			_, err := Generate(ctx, cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When chains is zero", func() {
			cfg.Chains = 0
			_, err := Generate(ctx, cfg)
			So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
		})

		Convey("When the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			cfg.TargetConfigs = []string{"N1", "N2", "N3", "N4", "N5", "N6", "N7", "N8"}
			cfg.Workers = 1
			_, err := Generate(cctx, cfg)
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
		})
	})
}

func TestWrite(t *testing.T) {
	Convey("Given a generated CSV", t, func() {
		ctx := context.Background()
		var buf bytes.Buffer
		n, err := Write(ctx, &buf, smallConfig())
		So(err, ShouldBeNil)
		So(n, ShouldEqual, 24)

		Convey("Then the dataset loader reads it back", func() {
			ds, err := dataset.LoadCSV(ctx, &buf)
			So(err, ShouldBeNil)
			So(ds.Header, ShouldResemble, Header)
			So(ds.Records, ShouldHaveLength, 24)
		})
	})
}

func TestDimension(t *testing.T) {
	Convey("Given config names", t, func() {
		So(dimension("N10"), ShouldEqual, 10)
		So(dimension("N"), ShouldEqual, 1)
		So(dimension("wide"), ShouldEqual, 1)
		So(dimension("N0"), ShouldEqual, 1)
	})
}
