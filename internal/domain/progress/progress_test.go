package progress_test

import (
	"testing"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/domain/progress"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPercent(t *testing.T) {
	Convey("Given part and whole counts", t, func() {
		So(progress.Percent(0, 0), ShouldEqual, 0)
		So(progress.Percent(3, -1), ShouldEqual, 0)
		So(progress.Percent(1, 3), ShouldEqual, 33)
		So(progress.Percent(2, 3), ShouldEqual, 67)
		So(progress.Percent(1, 8), ShouldEqual, 13)
		So(progress.Percent(4, 4), ShouldEqual, 100)
	})
}

func TestCalculator_Summarize(t *testing.T) {
	Convey("Given a snapshot with two columns", t, func() {
		data := &model.MatrixData{
			Employees: []model.Employee{{ID: 1}, {ID: 2}},
			Columns: []model.TrainingColumn{
				{ID: "go", TargetLevel: 2},
				{ID: "sql", TargetLevel: 3},
			},
			Scores: []model.MatrixCell{
				{EmployeeID: 1, ColumnID: "go", Level: 2},
				{EmployeeID: 1, ColumnID: "sql", Level: 2},
				{EmployeeID: 1, ColumnID: "gone", Level: 5},
				{EmployeeID: 2, ColumnID: "go", Level: 1},
			},
		}
		calc := progress.New()

		Convey("When summarizing a well-trained employee", func() {
			s := calc.Summarize(data, 1)

			Convey("Then orphan scores are ignored and the band is good", func() {
				So(s.Total, ShouldEqual, 4)
				So(s.Max, ShouldEqual, 5)
				So(s.Percent, ShouldEqual, 80)
				So(s.Band, ShouldEqual, progress.BandGood)
				So(s.Band.Color(), ShouldEqual, "#10b981")
			})
		})

		Convey("When summarizing a new employee", func() {
			s := calc.Summarize(data, 2)

			Convey("Then the band is poor", func() {
				So(s.Percent, ShouldEqual, 20)
				So(s.Band, ShouldEqual, progress.BandPoor)
			})
		})

		Convey("When thresholds are lowered", func() {
			s := progress.New(progress.WithThresholds(90, 15)).Summarize(data, 2)

			Convey("Then the band follows them", func() {
				So(s.Band, ShouldEqual, progress.BandFair)
			})
		})

		Convey("When summarizing everyone", func() {
			all := calc.SummarizeAll(data)

			Convey("Then snapshot order is kept", func() {
				So(all, ShouldHaveLength, 2)
				So(all[0].EmployeeID, ShouldEqual, 1)
			})
		})

		Convey("When the snapshot is missing", func() {
			s := calc.Summarize(nil, 1)

			Convey("Then an empty poor summary is returned", func() {
				So(s.Max, ShouldEqual, 0)
				So(s.Band, ShouldEqual, progress.BandPoor)
			})
		})
	})
}
