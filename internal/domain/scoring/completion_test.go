package scoring_test

import (
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/tourney/internal/adapters/repository"
	"github.com/okian/tourney/internal/domain/scoring"
)

func TestFirstWin(t *testing.T) {
	Convey("Given a player's first win", t, func() {
		l := newLedger(t)
		So(l.apply(win("ann", "HuFi", 1)), ShouldBeTrue)

		Convey("It pays the first global win, the god bonus and the first win bonus", func() {
			pts := l.points("ann", false, false)
			So(pts["nth_win:1"], ShouldEqual, 200)
			So(pts["win_god:none"], ShouldEqual, 20)
			So(pts["my_1st_win"], ShouldEqual, 100)
			So(l.detail("ann").ScoreBase, ShouldEqual, 320)
			So(l.streak("ann"), ShouldEqual, 1)
			So(l.banners("ann"), ShouldContainKey, "cartographer")
		})

		Convey("The next player to win is second globally", func() {
			l.apply(win("bob", "MiBe", 2))
			So(l.points("bob", false, false)["nth_win:2"], ShouldEqual, 100)
			l.apply(win("cat", "MiBe", 3))
			l.apply(win("dan", "MiBe", 4))
			So(l.points("cat", false, false)["nth_win:3"], ShouldEqual, 50)
			So(l.points("dan", false, false), ShouldNotContainKey, "nth_win:4")
		})
	})
}

func TestWinsInTheSameSecond(t *testing.T) {
	Convey("Given two wins by one player ending in the same second", t, func() {
		l := newLedger(t)
		So(l.apply(win("ann", "HuFi", 1)), ShouldBeTrue)
		So(l.apply(win("ann", "MiBe", 1)), ShouldBeTrue)

		Convey("The one recorded second is the second win", func() {
			trail, err := l.store.PlayerAudit(l.ctx, "ann", false)
			So(err, ShouldBeNil)
			seen := map[string]int{}
			for _, line := range trail.Lines {
				seen[line.Source]++
			}
			So(seen["nth_win:1"], ShouldEqual, 1)
			So(seen["nth_win:2"], ShouldEqual, 1)
			So(seen["my_1st_win"], ShouldEqual, 1)
			So(seen["my_2nd_win_norep"], ShouldEqual, 1)
			So(l.streak("ann"), ShouldEqual, 2)
		})
	})
}

func TestWinStreaks(t *testing.T) {
	Convey("Given win, win, loss, win for one player", t, func() {
		l := newLedger(t)
		var lengths []int

		l.apply(win("gina", "HuFi", 1))
		lengths = append(lengths, l.streak("gina"))
		l.apply(win("gina", "HuFi", 2))
		lengths = append(lengths, l.streak("gina"))
		afterStreak := l.detail("gina").ScoreBase
		l.apply(death("gina", "HuFi", 3))
		lengths = append(lengths, l.streak("gina"))
		l.apply(win("gina", "HuFi", 4))
		lengths = append(lengths, l.streak("gina"))

		Convey("The active streak goes 1, 2, 0, 1 and the best streak is 2", func() {
			So(lengths, ShouldResemble, []int{1, 2, 0, 1})
			best, err := l.store.BestStreak(l.ctx, "gina")
			So(err, ShouldBeNil)
			So(best, ShouldEqual, 2)
		})

		Convey("The repeated build streak pays 10 and the solo win is scored by win count only", func() {
			So(afterStreak, ShouldEqual, 320+100+10+10)
			pts := l.points("gina", false, false)
			So(pts["streak_win"], ShouldEqual, 10)
			So(pts["my_win"], ShouldEqual, 20)
			So(pts, ShouldNotContainKey, "my_nonstreak_norep")
			So(l.detail("gina").ScoreBase, ShouldEqual, afterStreak+50+10)
		})
	})

	Convey("A win recorded before the current streak end breaks the streak invariant", t, func() {
		l := newLedger(t)
		l.apply(win("hal", "HuFi", 5))
		before := l.detail("hal")

		err := l.store.InTx(l.ctx, func(tx *repository.Tx) error {
			_, err := l.engine.ApplyRun(l.ctx, tx, win("hal", "MiBe", 3))
			return err
		})
		So(errors.Is(err, scoring.ErrInvariant), ShouldBeTrue)
		So(l.detail("hal"), ShouldResemble, before)
		So(l.streak("hal"), ShouldEqual, 1)
	})
}

func TestSecondWinPrecedence(t *testing.T) {
	Convey("Given a player's second win", t, func() {
		l := newLedger(t)
		l.apply(win("ivy", "HuFi", 1))

		Convey("Right after the first with no repeat: second-win bonus plus the streak bonus", func() {
			l.apply(win("ivy", "MiBe", 2))
			pts := l.points("ivy", false, false)
			So(pts["my_2nd_win_norep"], ShouldEqual, 50)
			So(pts["streak_win"], ShouldEqual, 100)
			So(pts, ShouldNotContainKey, "my_nonstreak_norep")
			So(pts, ShouldNotContainKey, "my_win")
		})

		Convey("After a loss with no repeat: only the second-win bonus", func() {
			l.apply(death("ivy", "HuFi", 2))
			l.apply(win("ivy", "MiBe", 3))
			pts := l.points("ivy", false, false)
			So(pts["my_2nd_win_norep"], ShouldEqual, 50)
			So(pts, ShouldNotContainKey, "my_nonstreak_norep")
			So(pts, ShouldNotContainKey, "streak_win")
		})

		Convey("After a loss repeating the race: flat win plus the non-streak bonus", func() {
			l.apply(death("ivy", "HuFi", 2))
			l.apply(win("ivy", "HuBe", 3))
			pts := l.points("ivy", false, false)
			So(pts, ShouldNotContainKey, "my_2nd_win_norep")
			So(pts["my_win"], ShouldEqual, 10)
			So(pts["my_nonstreak_norep"], ShouldEqual, 10)
		})

		Convey("After a loss repeating the build: flat win only", func() {
			l.apply(death("ivy", "HuFi", 2))
			l.apply(win("ivy", "HuFi", 3))
			pts := l.points("ivy", false, false)
			So(pts["my_win"], ShouldEqual, 10)
			So(pts, ShouldNotContainKey, "my_nonstreak_norep")
		})

		Convey("A third isolated win with a fresh build pays the full non-streak bonus", func() {
			l.apply(death("ivy", "HuFi", 2))
			l.apply(win("ivy", "MiBe", 3))
			l.apply(death("ivy", "MiBe", 4))
			l.apply(win("ivy", "GrWz", 5))
			pts := l.points("ivy", false, false)
			So(pts["my_2nd_win_norep"], ShouldEqual, 50)
			So(pts["my_win"], ShouldEqual, 10)
			So(pts["my_nonstreak_norep"], ShouldEqual, 30)
		})
	})
}

func TestAllRuneWins(t *testing.T) {
	Convey("Given all-rune wins by two players", t, func() {
		l := newLedger(t)
		first := win("ann", "HuFi", 1)
		first.Runes = 15
		second := win("bob", "MiBe", 2)
		second.Runes = 15
		again := win("ann", "GrWz", 3)
		again.Runes = 15
		l.apply(first)
		l.apply(second)
		l.apply(again)

		ann := l.points("ann", false, false)
		bob := l.points("bob", false, false)
		So(ann["nth_all_rune_win:1"], ShouldEqual, 200)
		So(bob["nth_all_rune_win:2"], ShouldEqual, 100)
		So(ann["nth_all_rune_win:3"], ShouldEqual, 50)
		So(bob["my_1st_all_rune_win"], ShouldEqual, 50)
		So(ann["my_1st_all_rune_win"], ShouldEqual, 50)
	})
}

func TestGodBonus(t *testing.T) {
	Convey("Given wins under gods", t, func() {
		l := newLedger(t)

		Convey("Each god pays once per player", func() {
			r := win("ann", "HuFi", 1)
			r.God = "The Shining One"
			l.apply(r)
			r = win("ann", "MiBe", 2)
			r.God = "The Shining One"
			l.apply(r)
			So(l.points("ann", false, false)["win_god:the_shining_one"], ShouldEqual, 20)
		})

		Convey("Renouncing a god during the run forfeits the bonus", func() {
			r := win("bob", "HuFi", 1)
			r.God = "Trog"
			m := event("bob", "god.renounce", "abandoned Okawaru.", 10)
			m.Start = r.Start
			l.milestone(m)
			l.apply(r)
			So(l.points("bob", false, false), ShouldNotContainKey, "win_god:trog")

			r = win("bob", "MiBe", 2)
			r.God = "Trog"
			l.apply(r)
			So(l.points("bob", false, false)["win_god:trog"], ShouldEqual, 20)
		})
	})
}

func TestChoiceBonus(t *testing.T) {
	Convey("Given a choice window for MiBe", t, func() {
		l := newLedger(t, scoring.WithChoiceWindows(scoring.ChoiceWindow{
			Build: "MiBe",
			From:  epoch,
			Until: epoch.Add(48 * time.Hour),
		}))

		l.apply(win("ann", "MiBe", 1))
		l.apply(win("ann", "MiBe", 2))
		So(l.points("ann", false, false)["nemelex_choice:MiBe"], ShouldEqual, 100)
		So(l.banners("ann")["nemelex_choice:MiBe"].Prestige, ShouldEqual, 100)

		l.apply(win("bob", "MiBe", 50))
		So(l.points("bob", false, false), ShouldNotContainKey, "nemelex_choice:MiBe")
	})
}

func TestRunMisc(t *testing.T) {
	Convey("Given runs that did not win", t, func() {
		l := newLedger(t)

		Convey("A high level death to a player ghost pays the ghost's owner team points", func() {
			r := death("ann", "HuFi", 1)
			r.Killer = "bob's ghost"
			r.XL = 9
			l.apply(r)
			So(l.detail("bob").TeamScoreBase, ShouldEqual, 4)
			So(l.points("bob", true, false)["gkill"], ShouldEqual, 4)
		})

		Convey("A low level ghost death pays nothing", func() {
			r := death("ann", "HuFi", 1)
			r.Killer = "bob's ghost"
			r.XL = 5
			l.apply(r)
			_, err := l.store.PlayerDetail(l.ctx, "bob")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("Deaths to distinct uniques raise the cached count", func() {
			r := death("cat", "HuFi", 1)
			r.Killer = "Sigmund, the Scythe"
			l.apply(r)
			r = death("cat", "HuFi", 2)
			r.Killer = "Sigmund"
			l.apply(r)
			n, err := l.store.LookupDeathsToDistinctUniques(l.ctx, "cat")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 1)

			r = death("cat", "HuFi", 3)
			r.Killer = "Grinder"
			l.apply(r)
			n, err = l.store.LookupDeathsToDistinctUniques(l.ctx, "cat")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 2)
		})

		Convey("Malformed runs are rejected before anything is stored", func() {
			r := death("", "HuFi", 1)
			err := l.store.InTx(l.ctx, func(tx *repository.Tx) error {
				_, err := l.engine.ApplyRun(l.ctx, tx, r)
				return err
			})
			So(errors.Is(err, scoring.ErrMalformedFact), ShouldBeTrue)
		})
	})
}

func TestReplayIsIdempotent(t *testing.T) {
	Convey("Given a history of runs and milestones", t, func() {
		l := newLedger(t)
		runs := []func() bool{
			func() bool { return l.apply(win("ann", "HuFi", 1)) },
			func() bool { return l.apply(win("ann", "MiBe", 2)) },
			func() bool { return l.apply(death("ann", "GrWz", 3)) },
			func() bool { return l.milestone(runeFind("ann", "silver", 30)) },
			func() bool { return l.milestone(event("ann", "unique", "killed Boris.", 31)) },
			func() bool { return l.milestone(event("ann", "ghost", "killed the ghost of bob.", 32)) },
		}
		for _, apply := range runs {
			So(apply(), ShouldBeTrue)
		}
		detail := l.detail("ann")
		streak := l.streak("ann")

		Convey("Replaying every fact changes nothing", func() {
			for _, apply := range runs {
				So(apply(), ShouldBeFalse)
			}
			So(l.detail("ann"), ShouldResemble, detail)
			So(l.streak("ann"), ShouldEqual, streak)

			bad, err := l.store.ConservationViolations(l.ctx)
			So(err, ShouldBeNil)
			So(bad, ShouldBeEmpty)
		})
	})
}
