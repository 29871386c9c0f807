package dataset

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

const filterCSV = "target,target_config,transform,chain,log_scale,estimate,bfmi\n" +
	"dirichlet,N3,ALR,1,true,mean,0.8\n" +
	"dirichlet,N3,ALR,1,false,variance,0.7\n" +
	"mlnormal,N10,ILR,1,true,mean,0.5\n"

func TestFilters(t *testing.T) {
	Convey("Given a loaded store", t, func() {
		ctx := context.Background()
		s := NewMemoryStore()
		So(s.Load(ctx, writeSample(t, filterCSV)), ShouldBeNil)

		Convey("Then empty filters keep every row", func() {
			rows, err := s.Records(ctx, WithTarget(""), WithLogScale(""), WithEstimate(""))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 3)
		})

		Convey("And each filter selects on its own column", func() {
			rows, err := s.Records(ctx, WithTarget("dirichlet"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			rows, err = s.Records(ctx, WithLogScale("true"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 2)

			rows, err = s.Records(ctx, WithEstimate("variance"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
		})

		Convey("And filters combine", func() {
			rows, err := s.Records(ctx, WithTarget("dirichlet"), WithEstimate("mean"))
			So(err, ShouldBeNil)
			So(rows, ShouldHaveLength, 1)
			So(rows[0]["bfmi"].String(), ShouldEqual, "0.8")
		})

		Convey("And an unknown target matches nothing", func() {
			rows, err := s.Records(ctx, WithTarget("gaussian"))
			So(err, ShouldBeNil)
			So(rows, ShouldBeEmpty)
		})
	})
}
