package chart_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/transformdiag/internal/domain/chart"
	"github.com/okian/transformdiag/internal/domain/record"
	. "github.com/smartystreets/goconvey/convey"
)

func diag(target, cfg, transform, chain, column, value string) record.Record {
	return record.Record{
		"target":        record.String(target),
		"target_config": record.String(cfg),
		"transform":     record.String(transform),
		"chain":         record.String(chain),
		"log_scale":     record.String("true"),
		"estimate":      record.String("mean"),
		column:          record.String(value),
	}
}

func testConfig() chart.Config {
	cfg := chart.DefaultConfig()
	cfg.TransformOrder = []string{"ALR", "ILR"}
	return cfg
}

func TestAssembler_Summary(t *testing.T) {
	Convey("Given records for three target configurations", t, func() {
		records := []record.Record{
			diag("dirichlet", "N3", "ALR", "1", "bfmi", "0.8"),
			diag("dirichlet", "N3", "ILR", "1", "bfmi", "0.9"),
			diag("dirichlet", "N10", "ALR", "1", "bfmi", "0.5"),
			diag("mlnormal", "N3", "ILR", "1", "bfmi", "0.4"),
			diag("mlnormal", "N3", "ILR", "2", "bfmi", ""),
		}
		a := chart.NewAssembler(testConfig())

		Convey("When building a two-column summary", func() {
			fig, err := a.Summary(records, chart.Options{Column: "bfmi", Columns: 2})
			So(err, ShouldBeNil)

			Convey("Then there is one trace per subplot and transform", func() {
				So(fig.Data, ShouldHaveLength, 3*2)
				So(fig.Data[0].Name, ShouldEqual, "ALR")
				So(fig.Data[0].Type, ShouldEqual, "box")
				So(fig.Data[0].XAxis, ShouldEqual, "x1")
				So(fig.Data[5].YAxis, ShouldEqual, "y3")
			})

			Convey("And empty cells are dropped", func() {
				last := fig.Data[5]
				So(last.Y, ShouldHaveLength, 1)
				So(last.Y[0], ShouldEqual, 0.4)
			})

			Convey("And the grid has ceil(3/2) rows", func() {
				So(fig.Layout.Grid.Rows, ShouldEqual, 2)
				So(fig.Layout.Height, ShouldEqual, 600)
				So(fig.Layout.Title, ShouldEqual, "bfmi vs transform")
			})

			Convey("And only the last row shows x tick labels", func() {
				So(*fig.Layout.Axes["xaxis1"].Visible, ShouldBeFalse)
				So(*fig.Layout.Axes["xaxis3"].Visible, ShouldBeTrue)
			})

			Convey("And bfmi uses a linear axis with a threshold line", func() {
				So(fig.Layout.Axes["yaxis1"].Type, ShouldEqual, "linear")
				So(fig.Layout.Shapes, ShouldHaveLength, 3)
				So(fig.Layout.Shapes[0].Y0, ShouldEqual, 0.3)
				So(fig.Layout.Shapes[0].YRef, ShouldEqual, "y1")
			})

			Convey("And subplots are titled by target and configuration", func() {
				So(fig.Layout.Annotations[1].Text, ShouldEqual, "<b>dirichlet N10</b>")
			})

			Convey("And the legend lists every transform once", func() {
				So(fig.Legend, ShouldHaveLength, 2)
				So(fig.Legend[0].Color, ShouldEqual, chart.Category10[0])
			})

			Convey("And the layout flattens axes on encoding", func() {
				b, err := json.Marshal(fig)
				So(err, ShouldBeNil)
				var raw map[string]json.RawMessage
				So(json.Unmarshal(b, &raw), ShouldBeNil)
				var layout map[string]any
				So(json.Unmarshal(raw["layout"], &layout), ShouldBeNil)
				So(layout, ShouldContainKey, "yaxis2")
				So(layout, ShouldContainKey, "grid")

				var back chart.Figure
				So(json.Unmarshal(b, &back), ShouldBeNil)
				So(back.Layout.Axes, ShouldHaveLength, 6)
			})
		})

		Convey("When plotting a log-axis scatter metric", func() {
			rows := []record.Record{
				diag("dirichlet", "N3", "ALR", "1", "max_rhat", "1.02"),
			}
			fig, err := a.Summary(rows, chart.Options{Column: "max_rhat", Columns: 1})
			So(err, ShouldBeNil)
			So(fig.Data[0].Type, ShouldEqual, "scatter")
			So(fig.Layout.Axes["yaxis1"].Type, ShouldEqual, "log")
			So(fig.Layout.Shapes[0].Y0, ShouldEqual, 1.01)
		})

		Convey("When plotting the normalized column", func() {
			fig, err := a.Summary(records, chart.Options{Column: "bfmi", Columns: 1, Normalized: true})
			So(err, ShouldBeNil)
			So(fig.Layout.Title, ShouldEqual, "bfmi_normalized vs transform")
			So(fig.Layout.Shapes, ShouldBeEmpty)
			So(fig.Data[0].Y[0], ShouldAlmostEqual, 0.8/0.9)
			So(fig.Data[1].Y[0], ShouldEqual, 1)
		})

		Convey("When options are invalid", func() {
			_, err := a.Summary(records, chart.Options{Column: "bfmi"})
			So(errors.Is(err, chart.ErrInvalidOptions), ShouldBeTrue)
			_, err = a.Summary(records, chart.Options{Columns: 2})
			So(errors.Is(err, chart.ErrInvalidOptions), ShouldBeTrue)
		})

		Convey("When the column does not exist", func() {
			_, err := a.Summary(records, chart.Options{Column: "rmsre", Columns: 2})
			So(errors.Is(err, record.ErrMissingField), ShouldBeTrue)
		})
	})
}

func TestAssembler_Bands(t *testing.T) {
	Convey("Given repeated runs per configuration", t, func() {
		var records []record.Record
		for _, v := range []string{"1", "2", "3"} {
			records = append(records,
				diag("dirichlet", "N3", "ALR", v, "rmsre", v),
				diag("dirichlet", "N10", "ALR", v, "rmsre", v+"0"),
			)
		}
		a := chart.NewAssembler(testConfig())

		Convey("When building a 50% band", func() {
			fig, err := a.Bands(records, chart.Options{Column: "rmsre", Prob: 0.5})
			So(err, ShouldBeNil)

			Convey("Then each transform has a line and a band", func() {
				So(fig.Data, ShouldHaveLength, 4)
				line, band := fig.Data[0], fig.Data[1]
				So(line.Mode, ShouldEqual, "lines")
				So(line.X, ShouldResemble, []any{"N3", "N10"})
				So(line.Y, ShouldResemble, []any{2.0, 20.0})
				So(band.Fill, ShouldEqual, "toself")
				So(*band.ShowLegend, ShouldBeFalse)
			})

			Convey("And the band runs forward along the lower level and back along the upper", func() {
				band := fig.Data[1]
				So(band.X, ShouldResemble, []any{"N3", "N10", "N10", "N3"})
				So(band.Y, ShouldResemble, []any{1.5, 15.0, 25.0, 2.5})
			})

			Convey("And transforms without data still get empty traces", func() {
				So(fig.Data[2].Name, ShouldEqual, "ILR")
				So(fig.Data[2].X, ShouldBeEmpty)
			})

			Convey("And rmsre is plotted on a log axis", func() {
				So(fig.Layout.Axes["yaxis"].Type, ShouldEqual, "log")
				So(fig.Layout.ShowLegend, ShouldBeTrue)
			})
		})

		Convey("When prob is out of range", func() {
			_, err := a.Bands(records, chart.Options{Column: "rmsre", Prob: 0})
			So(errors.Is(err, chart.ErrInvalidOptions), ShouldBeTrue)
		})
	})
}

func TestFigure_ToggleLegend(t *testing.T) {
	Convey("Given a band figure", t, func() {
		records := []record.Record{diag("d", "N3", "ALR", "1", "rmsre", "0.5")}
		a := chart.NewAssembler(testConfig())
		fig, err := a.Bands(records, chart.Options{Column: "rmsre", Prob: 0.9})
		So(err, ShouldBeNil)

		Convey("When toggling a transform", func() {
			idx, hidden := fig.ToggleLegend("ALR")

			Convey("Then its line and band are hidden together", func() {
				So(idx, ShouldResemble, []int{0, 1})
				So(hidden, ShouldBeTrue)
				So(fig.Data[0].Visible, ShouldEqual, chart.LegendOnly)
				So(fig.Data[2].Visible, ShouldBeNil)
			})

			Convey("And toggling again restores them", func() {
				_, hidden := fig.ToggleLegend("ALR")
				So(hidden, ShouldBeFalse)
				So(fig.Data[1].Visible, ShouldEqual, true)
			})
		})

		Convey("When toggling an unknown name", func() {
			idx, hidden := fig.ToggleLegend("nope")
			So(idx, ShouldBeNil)
			So(hidden, ShouldBeFalse)
		})
	})
}

func TestPalette(t *testing.T) {
	Convey("Given a palette over two names", t, func() {
		p := chart.NewPalette([]string{"a", "b"}, []string{"red", "green", "blue"})

		Convey("Then domain names map in order", func() {
			So(p.Color("a"), ShouldEqual, "red")
			So(p.Color("b"), ShouldEqual, "green")
		})

		Convey("And unknown names take the next slot, cycling", func() {
			So(p.Color("c"), ShouldEqual, "blue")
			So(p.Color("d"), ShouldEqual, "red")
			So(p.Color("c"), ShouldEqual, "blue")
		})
	})
}

func TestColumnsForWidth(t *testing.T) {
	Convey("Given viewport widths", t, func() {
		So(chart.ColumnsForWidth(400), ShouldEqual, 1)
		So(chart.ColumnsForWidth(1000), ShouldEqual, 2)
		So(chart.ColumnsForWidth(1600), ShouldEqual, 3)
	})
}
