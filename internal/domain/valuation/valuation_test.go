package valuation_test

import (
	"testing"
	"time"

	"github.com/fairtouch/fairtouch/internal/domain/model"
	"github.com/fairtouch/fairtouch/internal/domain/valuation"
	. "github.com/smartystreets/goconvey/convey"
)

func tp(id string, minute int) model.Touchpoint {
	return model.Touchpoint{
		ID:        id,
		Kind:      "media",
		Timestamp: time.Date(2025, 3, 1, 12, minute, 0, 0, time.UTC),
	}
}

func TestDiminishingReturnsModel(t *testing.T) {
	Convey("Given the default diminishing-returns model", t, func() {
		m := valuation.NewDiminishingReturnsModel()

		Convey("When evaluating the empty coalition", func() {
			v, err := m.Evaluate(nil)

			Convey("Then the value is zero", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 0)
			})
		})

		Convey("When evaluating growing coalitions", func() {
			one, _ := m.Evaluate([]model.Touchpoint{tp("a", 0)})
			two, _ := m.Evaluate([]model.Touchpoint{tp("a", 0), tp("b", 1)})
			three, _ := m.Evaluate([]model.Touchpoint{tp("a", 0), tp("b", 1), tp("c", 2)})

			Convey("Then returns diminish with the defaults 0.05 and 0.9", func() {
				So(one, ShouldAlmostEqual, 0.05, 1e-12)
				So(two, ShouldAlmostEqual, 0.095, 1e-12)
				So(three, ShouldAlmostEqual, 0.1355, 1e-12)
			})

			Convey("Then the model is monotone non-decreasing", func() {
				So(two, ShouldBeGreaterThan, one)
				So(three, ShouldBeGreaterThan, two)
			})
		})

		Convey("When member order in the slice varies", func() {
			forward, _ := m.Evaluate([]model.Touchpoint{tp("a", 0), tp("b", 1)})
			backward, _ := m.Evaluate([]model.Touchpoint{tp("b", 1), tp("a", 0)})

			Convey("Then the value depends only on the set", func() {
				So(forward, ShouldEqual, backward)
			})
		})

		Convey("When the coalition is large enough to hit the cap", func() {
			big := make([]model.Touchpoint, 60)
			for i := range big {
				big[i] = tp(string(rune('a'+i%26))+"-"+string(rune('0'+i/26)), i)
			}
			capped := valuation.NewDiminishingReturnsModel(
				valuation.WithBaseRate(0.5),
				valuation.WithDiminishingFactor(0.99),
			)
			v, err := capped.Evaluate(big)

			Convey("Then the value stays capped at 1.0", func() {
				So(err, ShouldBeNil)
				So(v, ShouldEqual, 1.0)
			})
		})
	})

	Convey("Given model parameter validation", t, func() {
		Convey("When parameters are in range", func() {
			m := valuation.NewDiminishingReturnsModel(
				valuation.WithBaseRate(0.1),
				valuation.WithDiminishingFactor(0.8),
			)

			Convey("Then validation passes", func() {
				So(m.Validate(), ShouldBeNil)
			})
		})

		Convey("When options carry out-of-range values", func() {
			m := valuation.NewDiminishingReturnsModel(
				valuation.WithBaseRate(-1),
				valuation.WithDiminishingFactor(0),
			)

			Convey("Then the defaults survive and validation passes", func() {
				So(m.Validate(), ShouldBeNil)
			})
		})
	})
}
