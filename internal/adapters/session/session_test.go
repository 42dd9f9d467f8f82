package session_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/okian/skillmatrix/internal/adapters/session"
	"github.com/okian/skillmatrix/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func signed(claims jwtlib.MapClaims) string {
	tok, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		panic(err)
	}
	return tok
}

func TestFileStore(t *testing.T) {
	Convey("Given a file store in a temp dir", t, func() {
		path := filepath.Join(t.TempDir(), "nested", "session.json")
		store, err := session.NewFileStore(path)
		So(err, ShouldBeNil)

		Convey("When nothing was saved", func() {
			_, err := store.Load()

			Convey("Then there is no session and no token", func() {
				So(errors.Is(err, session.ErrNoSession), ShouldBeTrue)
				So(store.Token(), ShouldEqual, "")
				So(store.Clear(), ShouldBeNil)
			})
		})

		Convey("When a session is saved", func() {
			So(store.Save(session.Session{Token: "t1", ID: 3, Username: "ada", Role: model.RoleManager}), ShouldBeNil)

			Convey("Then it is readable by a fresh store with 0600 permissions", func() {
				fresh, _ := session.NewFileStore(path)
				s, err := fresh.Load()
				So(err, ShouldBeNil)
				So(s.Username, ShouldEqual, "ada")
				So(fresh.Token(), ShouldEqual, "t1")
				info, err := os.Stat(path)
				So(err, ShouldBeNil)
				So(info.Mode().Perm(), ShouldEqual, os.FileMode(0o600))
			})

			Convey("Then Clear removes it", func() {
				So(store.Clear(), ShouldBeNil)
				_, err := store.Load()
				So(errors.Is(err, session.ErrNoSession), ShouldBeTrue)
			})
		})

		Convey("Then an empty path is rejected", func() {
			_, err := session.NewFileStore("")
			So(err, ShouldEqual, session.ErrNoPath)
		})
	})
}

func TestStoredProvider(t *testing.T) {
	Convey("Given a memory store", t, func() {
		ctx := context.Background()
		store := &session.MemoryStore{}
		p := session.NewStoredProvider(store)

		Convey("When nothing is stored", func() {
			r, err := p.Resolve(ctx)

			Convey("Then the session is anonymous, never an implicit admin", func() {
				So(err, ShouldBeNil)
				So(r.Anonymous(), ShouldBeTrue)
			})
		})

		Convey("When an opaque token with a stored user exists", func() {
			_ = store.Save(session.Session{Token: "opaque", ID: 1, Username: "bob", Role: "Employee"})
			r, err := p.Resolve(ctx)

			Convey("Then the stored identity is used with a normalized role", func() {
				So(err, ShouldBeNil)
				So(r.Anonymous(), ShouldBeFalse)
				So(r.User.Username, ShouldEqual, "bob")
				So(r.User.Role, ShouldEqual, model.RoleEmployee)
				So(r.Token, ShouldEqual, "opaque")
			})
		})

		Convey("When a JWT carries identity claims", func() {
			tok := signed(jwtlib.MapClaims{"username": "carol", "role": "admin", "user_id": "17", "exp": time.Now().Add(time.Hour).Unix()})
			_ = store.Save(session.Session{Token: tok})
			r, err := p.Resolve(ctx)

			Convey("Then the claims fill the identity", func() {
				So(err, ShouldBeNil)
				So(r.User.Username, ShouldEqual, "carol")
				So(r.User.Role, ShouldEqual, model.RoleAdmin)
				So(r.User.ID, ShouldEqual, int64(17))
			})
		})

		Convey("When the JWT is expired", func() {
			tok := signed(jwtlib.MapClaims{"username": "dave", "role": "manager", "exp": time.Now().Add(-time.Hour).Unix()})
			_ = store.Save(session.Session{Token: tok})
			r, err := p.Resolve(ctx)

			Convey("Then the session is dropped", func() {
				So(errors.Is(err, session.ErrTokenExpired), ShouldBeTrue)
				So(r.Anonymous(), ShouldBeTrue)
				So(store.Token(), ShouldEqual, "")
			})
		})

		Convey("When the stored role is unknown", func() {
			_ = store.Save(session.Session{Username: "eve", Role: "root"})
			_, err := p.Resolve(ctx)

			Convey("Then resolution fails", func() {
				So(errors.Is(err, model.ErrUnknownRole), ShouldBeTrue)
			})
		})
	})

	Convey("Given the fixed providers", t, func() {
		ctx := context.Background()
		r, _ := session.AnonymousProvider{}.Resolve(ctx)
		So(r.Anonymous(), ShouldBeTrue)

		r, _ = session.StaticProvider{User: model.User{Username: "dev", Role: model.RoleAdmin}}.Resolve(ctx)
		So(r.Anonymous(), ShouldBeFalse)
		So(r.User.Role, ShouldEqual, model.RoleAdmin)
	})
}
