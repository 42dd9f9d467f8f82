package settings_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/okian/skillmatrix/internal/domain/model"
	"github.com/okian/skillmatrix/internal/store/settings"
	"github.com/okian/skillmatrix/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	_ = logger.Init()
}

type fakeGateway struct {
	settings model.AppSettings
	getErr   error
	putErr   error
	patches  []model.SettingsPatch
	levels   [][]model.LevelConfig
	themes   []model.Theme
}

func (f *fakeGateway) GetSettings(context.Context) (model.AppSettings, error) {
	return f.settings, f.getErr
}

func (f *fakeGateway) UpdateSettings(_ context.Context, p model.SettingsPatch) (model.AppSettings, error) {
	f.patches = append(f.patches, p)
	if f.putErr != nil {
		return model.AppSettings{}, f.putErr
	}
	return f.settings, nil
}

func (f *fakeGateway) UpdateLevels(_ context.Context, l []model.LevelConfig) error {
	f.levels = append(f.levels, l)
	return f.putErr
}

func (f *fakeGateway) UpdateTheme(_ context.Context, t model.Theme) error {
	f.themes = append(f.themes, t)
	return f.putErr
}

type getReply struct {
	settings model.AppSettings
	err      error
}

// gatedGateway answers the n-th GetSettings call from the n-th gate.
type gatedGateway struct {
	fakeGateway
	mu    sync.Mutex
	gates []chan getReply
	calls int
}

func (g *gatedGateway) GetSettings(ctx context.Context) (model.AppSettings, error) {
	g.mu.Lock()
	ch := g.gates[g.calls]
	g.calls++
	g.mu.Unlock()
	select {
	case r := <-ch:
		return r.settings, r.err
	case <-ctx.Done():
		return model.AppSettings{}, ctx.Err()
	}
}

func (g *gatedGateway) waitCalls(n int) {
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		g.mu.Lock()
		got := g.calls
		g.mu.Unlock()
		if got >= n {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func waitSettled(s *settings.Store, seq uint64) {
	deadline := time.Now().Add(time.Second)
	for s.State().Settled < seq && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
}

func TestOverlappingLoads(t *testing.T) {
	Convey("Given two settings loads in flight", t, func() {
		ctx := context.Background()
		first := make(chan getReply, 1)
		second := make(chan getReply, 1)
		gw := &gatedGateway{gates: []chan getReply{first, second}}
		store, _ := settings.New(gw)

		older := model.DefaultSettings()
		newer := model.DefaultSettings()
		newer.Theme = model.ThemeDark

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.LoadSettings(ctx)
		}()
		gw.waitCalls(1)
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.LoadSettings(ctx)
		}()
		gw.waitCalls(2)

		Convey("When the newer answers first and the older last", func() {
			second <- getReply{settings: newer}
			waitSettled(store, 2)
			first <- getReply{settings: older}
			wg.Wait()

			Convey("Then the newer settings stay in effect", func() {
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
				So(store.State().Loading, ShouldBeFalse)
			})
		})

		Convey("When the older fails after the newer applied", func() {
			second <- getReply{settings: newer}
			waitSettled(store, 2)
			first <- getReply{err: errors.New("timeout")}
			wg.Wait()

			Convey("Then no error is recorded", func() {
				So(store.State().Err, ShouldBeNil)
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
			})
		})

		Convey("When the older answers first", func() {
			first <- getReply{settings: older}
			waitSettled(store, 1)

			Convey("Then loading continues until the newer answers", func() {
				So(store.State().Loading, ShouldBeTrue)
				second <- getReply{settings: newer}
				wg.Wait()
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
				So(store.State().Loading, ShouldBeFalse)
			})
		})
	})
}

func TestSeededLookups(t *testing.T) {
	Convey("Given a store before any fetch", t, func() {
		store, err := settings.New(&fakeGateway{})
		So(err, ShouldBeNil)

		Convey("Then the default levels resolve", func() {
			So(store.LevelLabel(0), ShouldEqual, "Not Trained")
			So(store.LevelColor(1), ShouldEqual, "#f59e0b")
			So(store.LevelLabel(2), ShouldEqual, "Complete")
		})

		Convey("Then unknown levels fall back", func() {
			So(store.LevelLabel(5), ShouldEqual, "Level 5")
			So(store.LevelColor(5), ShouldEqual, "#6b7280")
			_, ok := store.LevelConfig(5)
			So(ok, ShouldBeFalse)
		})

		Convey("Then any integer yields a non-empty label and color", func() {
			for _, n := range []int{-1, -100, 3, 99, math.MaxInt32, math.MinInt32} {
				So(store.LevelLabel(n), ShouldNotBeEmpty)
				So(store.LevelColor(n), ShouldNotBeEmpty)
			}
		})
	})

	Convey("Given a nil gateway", t, func() {
		_, err := settings.New(nil)
		So(err, ShouldEqual, settings.ErrNoGateway)
	})
}

func TestLoadAndUpdate(t *testing.T) {
	Convey("Given a backend with four levels", t, func() {
		ctx := context.Background()
		server := model.DefaultSettings()
		server.Levels = append(server.Levels, model.LevelConfig{Level: 3, Label: "Expert", Color: "#3b82f6"})
		server.Theme = model.ThemeDark
		gw := &fakeGateway{settings: server}
		store, _ := settings.New(gw)

		Convey("When settings load", func() {
			So(store.LoadSettings(ctx), ShouldBeNil)

			Convey("Then the backend settings replace the seed", func() {
				So(store.LevelLabel(3), ShouldEqual, "Expert")
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
				So(store.State().Loading, ShouldBeFalse)
			})
		})

		Convey("When loading fails", func() {
			gw.getErr = errors.New("down")
			err := store.LoadSettings(ctx)

			Convey("Then the seed stays and the error is recorded", func() {
				So(err, ShouldNotBeNil)
				So(store.State().Err, ShouldNotBeNil)
				So(store.LevelLabel(0), ShouldEqual, "Not Trained")
			})
		})

		Convey("When a partial update is sent", func() {
			compact := true
			So(store.UpdateSettings(ctx, model.SettingsPatch{CompactView: &compact}), ShouldBeNil)

			Convey("Then the server response is installed wholesale", func() {
				So(len(gw.patches), ShouldEqual, 1)
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
				So(store.Settings().CompactView, ShouldBeFalse)
			})
		})

		Convey("When levels are updated", func() {
			levels := []model.LevelConfig{{Level: 0, Label: "None", Color: "#000000"}}
			So(store.UpdateLevels(ctx, levels), ShouldBeNil)

			Convey("Then only levels change locally", func() {
				So(store.LevelLabel(0), ShouldEqual, "None")
				So(store.LevelLabel(1), ShouldEqual, "Level 1")
				So(store.Settings().Theme, ShouldEqual, model.ThemeLight)
			})

			Convey("Then mutating the caller's slice does not leak", func() {
				levels[0].Label = "changed"
				So(store.LevelLabel(0), ShouldEqual, "None")
			})
		})

		Convey("When the theme is updated", func() {
			So(store.UpdateTheme(ctx, model.ThemeDark), ShouldBeNil)

			Convey("Then only the theme changes", func() {
				So(store.Settings().Theme, ShouldEqual, model.ThemeDark)
				So(store.LevelLabel(2), ShouldEqual, "Complete")
			})
		})

		Convey("When an update fails", func() {
			gw.putErr = errors.New("rejected")
			before := store.State()

			Convey("Then the error propagates and state is unchanged", func() {
				So(store.UpdateLevels(ctx, nil), ShouldEqual, gw.putErr)
				So(store.UpdateTheme(ctx, model.ThemeDark), ShouldEqual, gw.putErr)
				So(store.UpdateSettings(ctx, model.SettingsPatch{}), ShouldEqual, gw.putErr)
				So(store.State(), ShouldResemble, before)
			})
		})
	})
}

func TestReduce(t *testing.T) {
	Convey("Given the initial state", t, func() {
		s := settings.InitialState()

		Convey("Then unknown actions do not bump the version", func() {
			So(settings.Reduce(s, nil).Version, ShouldEqual, s.Version)
		})

		Convey("Then a replacement older than the applied one is discarded", func() {
			dark := model.DefaultSettings()
			dark.Theme = model.ThemeDark
			next := settings.Reduce(s, settings.LoadStarted{Seq: 1})
			next = settings.Reduce(next, settings.LoadStarted{Seq: 2})
			next = settings.Reduce(next, settings.Replaced{Seq: 2, Settings: dark})
			v := next.Version
			next = settings.Reduce(next, settings.Replaced{Seq: 1, Settings: model.DefaultSettings()})
			So(next.Settings.Theme, ShouldEqual, model.ThemeDark)
			So(next.Version, ShouldEqual, v)
			So(next.Loading, ShouldBeFalse)
		})

		Convey("Then a patch does not alias the previous settings", func() {
			next := settings.Reduce(s, settings.ThemePatched{Theme: model.ThemeDark})
			So(s.Settings.Theme, ShouldEqual, model.ThemeLight)
			So(next.Settings.Theme, ShouldEqual, model.ThemeDark)
		})
	})
}
