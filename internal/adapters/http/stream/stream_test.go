package stream_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/sideline/internal/adapters/http/stream"
	service "github.com/okian/sideline/internal/app"
	"github.com/okian/sideline/internal/domain/types"
	"github.com/okian/sideline/pkg/logger"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func read(t *testing.T, conn *websocket.Conn) types.Snapshot {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var snap types.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("read: %v", err)
	}
	return snap
}

func TestStreamHandler(t *testing.T) {
	Convey("Given a started session behind a stream handler", t, func() {
		ctx := context.Background()
		svc := service.New(service.WithLogger(logger.Discard()))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()

		srv := httptest.NewServer(stream.NewHandler(svc, stream.WithLogger(logger.Discard())))
		defer srv.Close()

		conn := dial(t, srv)
		defer func() { _ = conn.Close() }()

		Convey("Then the current session is sent on connect", func() {
			snap := read(t, conn)
			So(len(snap.Players), ShouldEqual, 5)
			So(snap.Version, ShouldEqual, svc.Latest().Version)
		})

		Convey("When a command is applied", func() {
			first := read(t, conn)
			_, err := svc.SetClock(ctx, "01:30")
			So(err, ShouldBeNil)

			Convey("Then a newer snapshot follows", func() {
				snap := read(t, conn)
				So(snap.Version, ShouldBeGreaterThan, first.Version)
				So(snap.Clock.Display, ShouldEqual, "01:30")
			})
		})
	})

	Convey("Given a session that stops while observed", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))
		So(svc.Start(context.Background()), ShouldBeNil)

		srv := httptest.NewServer(stream.NewHandler(svc, stream.WithLogger(logger.Discard())))
		defer srv.Close()

		conn := dial(t, srv)
		defer func() { _ = conn.Close() }()
		read(t, conn)

		svc.Stop()

		Convey("Then the observer receives a close frame", func() {
			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err := conn.ReadMessage()
			So(websocket.IsCloseError(err, websocket.CloseGoingAway), ShouldBeTrue)
		})
	})

	Convey("Given a plain HTTP request", t, func() {
		srv := httptest.NewServer(stream.NewHandler(nil, stream.WithLogger(logger.Discard())))
		defer srv.Close()

		Convey("Then the upgrade is refused", func() {
			resp, err := srv.Client().Get(srv.URL)
			So(err, ShouldBeNil)
			defer func() { _ = resp.Body.Close() }()
			So(resp.StatusCode, ShouldEqual, 400)
		})
	})
}
