package scorestore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/arenascope/podium/internal/adapters/scorestore"
	"github.com/arenascope/podium/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an empty memory store", t, func() {
		ctx := context.Background()
		store := scorestore.NewMemoryStore()

		Convey("When reading an unknown game", func() {
			entries, err := store.TopN(ctx, "nope", 10)

			Convey("Then it returns an empty slice, nil error", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When the limit is below one", func() {
			_, err := store.TopN(ctx, "g", 0)

			Convey("Then it returns ErrInvalidLimit", func() {
				So(errors.Is(err, scorestore.ErrInvalidLimit), ShouldBeTrue)
			})
		})

		Convey("When upserting a score twice for the same player", func() {
			So(store.Upsert(ctx, "g", "p1", 100), ShouldBeNil)
			So(store.Upsert(ctx, "g", "p1", 40), ShouldBeNil)

			entries, err := store.TopN(ctx, "g", 10)

			Convey("Then the last write wins, never accumulates", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Score, ShouldEqual, 40)
			})
		})

		Convey("When several players have scores", func() {
			So(store.Upsert(ctx, "g", "carol", 300), ShouldBeNil)
			So(store.Upsert(ctx, "g", "bob", 500), ShouldBeNil)
			So(store.Upsert(ctx, "g", "alice", 300), ShouldBeNil)

			Convey("Then TopN orders score desc, player asc on ties", func() {
				entries, err := store.TopN(ctx, "g", 10)
				So(err, ShouldBeNil)
				So(entries[0].PlayerID, ShouldEqual, "bob")
				So(entries[1].PlayerID, ShouldEqual, "alice")
				So(entries[2].PlayerID, ShouldEqual, "carol")
			})

			Convey("Then TopN respects the limit", func() {
				entries, err := store.TopN(ctx, "g", 2)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
			})

			Convey("Then All returns the complete ordered ranking", func() {
				entries, err := store.All(ctx, "g")
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].PlayerID, ShouldEqual, "bob")
			})

			Convey("Then Count reports the row count", func() {
				n, err := store.Count(ctx, "g")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 3)
			})
		})

		Convey("When upserting a batch", func() {
			batch := []model.LeaderboardEntry{
				{PlayerID: "p1", Score: 10},
				{PlayerID: "p2", Score: 20},
			}
			So(store.UpsertBatch(ctx, "g", batch), ShouldBeNil)

			Convey("Then every entry lands", func() {
				n, _ := store.Count(ctx, "g")
				So(n, ShouldEqual, 2)
			})

			Convey("And replaying the batch is idempotent", func() {
				So(store.UpsertBatch(ctx, "g", batch), ShouldBeNil)
				n, _ := store.Count(ctx, "g")
				So(n, ShouldEqual, 2)
			})
		})

		Convey("When writes are forced to fail", func() {
			store.FailWrites(true)

			Convey("Then Upsert and UpsertBatch error", func() {
				So(store.Upsert(ctx, "g", "p", 1), ShouldNotBeNil)
				So(store.UpsertBatch(ctx, "g", []model.LeaderboardEntry{{PlayerID: "p", Score: 1}}), ShouldNotBeNil)
			})

			Convey("And recover once re-enabled", func() {
				store.FailWrites(false)
				So(store.Upsert(ctx, "g", "p", 1), ShouldBeNil)
			})
		})
	})
}
