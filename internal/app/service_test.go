package service_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/arenascope/podium/internal/adapters/hotcache"
	"github.com/arenascope/podium/internal/adapters/rankcache"
	"github.com/arenascope/podium/internal/adapters/scorestore"
	service "github.com/arenascope/podium/internal/app"
	"github.com/arenascope/podium/internal/domain/model"
	"github.com/arenascope/podium/internal/domain/popularity"
	"github.com/arenascope/podium/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fixture wires an engine over a memory store, memory classifier, and a
// miniredis-backed rank cache with a low promotion threshold.
type fixture struct {
	redis      *miniredis.Miniredis
	store      *scorestore.MemoryStore
	classifier *popularity.MemoryClassifier
	cache      *rankcache.RedisCache
	svc        *service.Service
}

func newFixture(t *testing.T, threshold, maxHotGames int) *fixture {
	t.Helper()
	if err := logger.Init(); err != nil {
		t.Fatalf("logger: %v", err)
	}

	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	pool := rankcache.NewPool(s.Addr(), time.Second)
	t.Cleanup(func() { _ = pool.Close() })

	f := &fixture{
		redis:      s,
		store:      scorestore.NewMemoryStore(),
		classifier: popularity.NewMemoryClassifier(threshold),
		cache:      rankcache.NewRedisCache(pool),
	}

	hot, err := hotcache.New(maxHotGames)
	if err != nil {
		t.Fatalf("hotcache: %v", err)
	}

	f.svc = service.New(
		service.WithStore(f.store),
		service.WithRankCache(f.cache),
		service.WithClassifier(f.classifier),
		service.WithHotCache(hot),
		service.WithCacheTimeout(time.Second),
		service.WithStoreTimeout(time.Second),
	)
	if err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	t.Cleanup(f.svc.Stop)
	return f
}

func update(gameID, playerID string, score int64) model.ScoreUpdate {
	return model.ScoreUpdate{
		EventType: "scoreUpdate",
		GameID:    gameID,
		PlayerID:  playerID,
		Score:     score,
		TS:        time.Now(),
	}
}

func TestUpdateScoreValidation(t *testing.T) {
	Convey("Given a running engine", t, func() {
		f := newFixture(t, 100, 10)
		ctx := context.Background()

		Convey("When the game ID is blank", func() {
			err := f.svc.UpdateScore(ctx, update("", "p1", 10))
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the player ID is blank", func() {
			err := f.svc.UpdateScore(ctx, update("g", "", 10))
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the read limit is below one", func() {
			_, err := f.svc.GetLeaderboard(ctx, "g", 0)
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})

		Convey("When the read game ID is blank", func() {
			_, err := f.svc.GetLeaderboard(ctx, "", 10)
			So(errors.Is(err, service.ErrInvalidArgument), ShouldBeTrue)
		})
	})
}

func TestLastWriteWins(t *testing.T) {
	Convey("Given a running engine", t, func() {
		f := newFixture(t, 100, 10)
		ctx := context.Background()

		Convey("When a player's score is replaced by a lower one", func() {
			So(f.svc.UpdateScore(ctx, update("g", "p1", 100)), ShouldBeNil)
			So(f.svc.UpdateScore(ctx, update("g", "p1", 40)), ShouldBeNil)

			entries, err := f.svc.GetLeaderboard(ctx, "g", 10)

			Convey("Then the board shows the last write, never a sum", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Score, ShouldEqual, 40)
			})
		})

		Convey("When the same update is replayed", func() {
			So(f.svc.UpdateScore(ctx, update("g", "p1", 77)), ShouldBeNil)
			So(f.svc.UpdateScore(ctx, update("g", "p1", 77)), ShouldBeNil)

			entries, err := f.svc.GetLeaderboard(ctx, "g", 10)

			Convey("Then the state is identical to a single delivery", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(entries[0].Score, ShouldEqual, 77)
			})
		})
	})
}

func TestUnpopularGameStaysOutOfRedis(t *testing.T) {
	Convey("Given an engine with a high promotion threshold", t, func() {
		f := newFixture(t, 100, 10)
		ctx := context.Background()

		Convey("When a few players write scores", func() {
			So(f.svc.UpdateScore(ctx, update("g", "p1", 10)), ShouldBeNil)
			So(f.svc.UpdateScore(ctx, update("g", "p2", 20)), ShouldBeNil)

			Convey("Then no shared ranking is created", func() {
				exists, err := f.cache.Exists(ctx, "g")
				So(err, ShouldBeNil)
				So(exists, ShouldBeFalse)
			})

			Convey("Then reads are served from the store, ordered", func() {
				entries, err := f.svc.GetLeaderboard(ctx, "g", 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 2)
				So(entries[0].PlayerID, ShouldEqual, "p2")
			})
		})
	})
}

func TestPromotion(t *testing.T) {
	Convey("Given an engine with a promotion threshold of 2", t, func() {
		f := newFixture(t, 2, 10)
		ctx := context.Background()

		Convey("When distinct players push the game past the threshold", func() {
			So(f.svc.UpdateScore(ctx, update("g", "early1", 10)), ShouldBeNil)
			So(f.svc.UpdateScore(ctx, update("g", "early2", 20)), ShouldBeNil)
			// Third distinct player makes the count exceed the threshold.
			So(f.svc.UpdateScore(ctx, update("g", "late", 30)), ShouldBeNil)

			Convey("Then the shared ranking exists and is complete", func() {
				exists, err := f.cache.Exists(ctx, "g")
				So(err, ShouldBeNil)
				So(exists, ShouldBeTrue)

				entries, err := f.cache.ReadAll(ctx, "g")
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)

				// Pre-promotion writers are present in the seed.
				players := make(map[string]int64)
				for _, e := range entries {
					players[e.PlayerID] = e.Score
				}
				So(players["early1"], ShouldEqual, 10)
				So(players["early2"], ShouldEqual, 20)
				So(players["late"], ShouldEqual, 30)
			})

			Convey("Then later writes flow through to the shared ranking", func() {
				So(f.svc.UpdateScore(ctx, update("g", "late", 5)), ShouldBeNil)

				entries, err := f.cache.ReadAll(ctx, "g")
				So(err, ShouldBeNil)
				for _, e := range entries {
					if e.PlayerID == "late" {
						So(e.Score, ShouldEqual, 5)
					}
				}
			})

			Convey("Then reads reflect a write immediately", func() {
				// Populate the hot tier.
				_, err := f.svc.GetLeaderboard(ctx, "g", 10)
				So(err, ShouldBeNil)

				So(f.svc.UpdateScore(ctx, update("g", "early1", 999)), ShouldBeNil)

				entries, err := f.svc.GetLeaderboard(ctx, "g", 10)
				So(err, ShouldBeNil)
				So(entries[0].PlayerID, ShouldEqual, "early1")
				So(entries[0].Score, ShouldEqual, 999)
			})

			Convey("Then the stats report the promotion", func() {
				stats := f.svc.GetStats()
				So(stats["promotedGames"], ShouldEqual, 1)
			})
		})
	})
}

func TestCacheFailuresDegrade(t *testing.T) {
	Convey("Given an engine whose redis has gone away", t, func() {
		f := newFixture(t, 2, 10)
		ctx := context.Background()

		// Promote first so the write path actually touches redis.
		for i := 0; i < 3; i++ {
			So(f.svc.UpdateScore(ctx, update("g", "p"+strconv.Itoa(i), int64(i))), ShouldBeNil)
		}
		f.redis.Close()

		Convey("When a write lands after the outage", func() {
			err := f.svc.UpdateScore(ctx, update("g", "p0", 500))

			Convey("Then the write still succeeds", func() {
				So(err, ShouldBeNil)
			})

			Convey("And reads fall back to the store with the fresh score", func() {
				entries, err := f.svc.GetLeaderboard(ctx, "g", 10)
				So(err, ShouldBeNil)
				So(entries[0].PlayerID, ShouldEqual, "p0")
				So(entries[0].Score, ShouldEqual, 500)
			})
		})
	})
}

func TestDurableFailureIsFatal(t *testing.T) {
	Convey("Given an engine whose store rejects writes", t, func() {
		f := newFixture(t, 100, 10)
		ctx := context.Background()
		f.store.FailWrites(true)

		Convey("When a write lands", func() {
			err := f.svc.UpdateScore(ctx, update("g", "p1", 10))

			Convey("Then the call fails", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, scorestore.ErrUnavailable), ShouldBeTrue)
			})
		})
	})
}

func TestAllTiersDown(t *testing.T) {
	Convey("Given an engine with every tier unavailable", t, func() {
		f := newFixture(t, 100, 10)
		ctx := context.Background()

		So(f.svc.UpdateScore(ctx, update("g", "p1", 10)), ShouldBeNil)
		f.redis.Close()
		f.store.FailReads(true)

		Convey("When a read lands", func() {
			entries, err := f.svc.GetLeaderboard(ctx, "g", 10)

			Convey("Then it returns an empty board, not an error", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})
	})
}

func TestHotTierBound(t *testing.T) {
	Convey("Given an engine with a hot tier capacity of 2", t, func() {
		f := newFixture(t, 1, 2)
		ctx := context.Background()

		Convey("When three games are promoted and read", func() {
			for _, g := range []string{"g1", "g2", "g3"} {
				So(f.svc.UpdateScore(ctx, update(g, "p1", 1)), ShouldBeNil)
				So(f.svc.UpdateScore(ctx, update(g, "p2", 2)), ShouldBeNil)
				_, err := f.svc.GetLeaderboard(ctx, g, 10)
				So(err, ShouldBeNil)
			}

			Convey("Then the hot tier never exceeds its capacity", func() {
				stats := f.svc.GetStats()
				So(stats["hotTierSize"], ShouldEqual, 2)
			})
		})
	})
}

func TestClassifierFailureFailsClosed(t *testing.T) {
	Convey("Given an engine whose classifier is down", t, func() {
		f := newFixture(t, 1, 10)
		ctx := context.Background()
		f.classifier.Fail(true)

		Convey("When heavy traffic arrives", func() {
			for i := 0; i < 10; i++ {
				So(f.svc.UpdateScore(ctx, update("g", "p"+strconv.Itoa(i), int64(i))), ShouldBeNil)
			}

			Convey("Then the game is never promoted", func() {
				exists, err := f.cache.Exists(ctx, "g")
				So(err, ShouldBeNil)
				So(exists, ShouldBeFalse)
			})

			Convey("And reads still work from the store", func() {
				entries, err := f.svc.GetLeaderboard(ctx, "g", 5)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 5)
			})
		})
	})
}

func TestZeroConfigStart(t *testing.T) {
	Convey("Given an engine started with no wired components", t, func() {
		if err := logger.Init(); err != nil {
			t.Fatalf("logger: %v", err)
		}
		ctx := context.Background()

		svc := service.New(service.WithPopularityThreshold(1))
		So(svc.Start(ctx), ShouldBeNil)
		t.Cleanup(svc.Stop)

		Convey("When an unknown game is read", func() {
			entries, err := svc.GetLeaderboard(ctx, "g", 10)

			Convey("Then it yields an empty board, not a panic or error", func() {
				So(err, ShouldBeNil)
				So(entries, ShouldBeEmpty)
			})
		})

		Convey("When writes flow through the defaulted tiers", func() {
			So(svc.UpdateScore(ctx, update("g", "p1", 10)), ShouldBeNil)
			So(svc.UpdateScore(ctx, update("g", "p2", 30)), ShouldBeNil)
			So(svc.UpdateScore(ctx, update("g", "p3", 20)), ShouldBeNil)

			Convey("Then reads see them, ordered", func() {
				entries, err := svc.GetLeaderboard(ctx, "g", 10)
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 3)
				So(entries[0].PlayerID, ShouldEqual, "p2")
				So(entries[1].PlayerID, ShouldEqual, "p3")
				So(entries[2].PlayerID, ShouldEqual, "p1")
			})
		})
	})
}
