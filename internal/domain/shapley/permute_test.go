package shapley

import (
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestForEachPermutation(t *testing.T) {
	Convey("Given a four-element index set", t, func() {
		items := []int{0, 1, 2, 3}

		Convey("When enumerating all permutations", func() {
			seen := make(map[string]struct{})
			err := forEachPermutation(items, func(p []int) error {
				seen[fmt.Sprint(p)] = struct{}{}
				return nil
			})

			Convey("Then every one of the 4! orderings appears exactly once", func() {
				So(err, ShouldBeNil)
				So(len(seen), ShouldEqual, 24)
			})
		})

		Convey("When the callback aborts", func() {
			calls := 0
			err := forEachPermutation(items, func(_ []int) error {
				calls++
				if calls == 3 {
					return fmt.Errorf("stop")
				}
				return nil
			})

			Convey("Then enumeration halts with the error", func() {
				So(err, ShouldNotBeNil)
				So(calls, ShouldEqual, 3)
			})
		})
	})

	Convey("Given an empty index set", t, func() {
		Convey("When enumerating", func() {
			calls := 0
			err := forEachPermutation(nil, func(_ []int) error {
				calls++
				return nil
			})

			Convey("Then the single empty permutation is visited", func() {
				So(err, ShouldBeNil)
				So(calls, ShouldEqual, 1)
			})
		})
	})
}

func TestCoalition(t *testing.T) {
	Convey("Given an empty coalition", t, func() {
		var c Coalition

		Convey("When adding members", func() {
			c = c.With(0).With(5).With(62)

			Convey("Then membership and size reflect the bitmask", func() {
				So(c.Has(0), ShouldBeTrue)
				So(c.Has(5), ShouldBeTrue)
				So(c.Has(62), ShouldBeTrue)
				So(c.Has(1), ShouldBeFalse)
				So(c.Size(), ShouldEqual, 3)
			})
		})
	})
}
