package model_test

import (
	"testing"

	"github.com/arenascope/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSortEntries(t *testing.T) {
	Convey("Given a slice of leaderboard entries", t, func() {
		Convey("When scores differ", func() {
			entries := []model.LeaderboardEntry{
				{PlayerID: "a", Score: 10},
				{PlayerID: "b", Score: 30},
				{PlayerID: "c", Score: 20},
			}
			model.SortEntries(entries)

			Convey("Then they sort by score descending", func() {
				So(entries[0].PlayerID, ShouldEqual, "b")
				So(entries[1].PlayerID, ShouldEqual, "c")
				So(entries[2].PlayerID, ShouldEqual, "a")
			})
		})

		Convey("When scores tie", func() {
			entries := []model.LeaderboardEntry{
				{PlayerID: "zed", Score: 50},
				{PlayerID: "amy", Score: 50},
				{PlayerID: "mid", Score: 50},
			}
			model.SortEntries(entries)

			Convey("Then ties break by player ID ascending", func() {
				So(entries[0].PlayerID, ShouldEqual, "amy")
				So(entries[1].PlayerID, ShouldEqual, "mid")
				So(entries[2].PlayerID, ShouldEqual, "zed")
			})
		})

		Convey("When sorted twice", func() {
			entries := []model.LeaderboardEntry{
				{PlayerID: "b", Score: 5},
				{PlayerID: "a", Score: 5},
				{PlayerID: "c", Score: 9},
			}
			model.SortEntries(entries)
			first := make([]model.LeaderboardEntry, len(entries))
			copy(first, entries)
			model.SortEntries(entries)

			Convey("Then the order is identical", func() {
				So(entries, ShouldResemble, first)
			})
		})
	})
}

func TestTruncate(t *testing.T) {
	Convey("Given a sorted slice", t, func() {
		entries := []model.LeaderboardEntry{
			{PlayerID: "a", Score: 3},
			{PlayerID: "b", Score: 2},
			{PlayerID: "c", Score: 1},
		}

		Convey("When the limit is below the length", func() {
			So(model.Truncate(entries, 2), ShouldHaveLength, 2)
		})

		Convey("When the limit equals the length", func() {
			So(model.Truncate(entries, 3), ShouldHaveLength, 3)
		})

		Convey("When the limit exceeds the length", func() {
			So(model.Truncate(entries, 10), ShouldHaveLength, 3)
		})
	})
}
