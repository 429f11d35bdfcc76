package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"

	"gobdc/protocol"
)

func newTestMonitor() (*Monitor, *fakeController) {
	cfg, _ := ParseConfig(nil)
	ctl := newFakeController()
	return New(ctl, cfg, testLogger(nil)), ctl
}

func request(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouter(t *testing.T) {
	Convey("the status API", t, func() {
		m, ctl := newTestMonitor()
		router := NewRouter(m, nil)

		Convey("has no status before the first report", func() {
			rec := request(router, http.MethodGet, "/api/status", "")
			So(rec.Code, ShouldEqual, http.StatusServiceUnavailable)
		})

		Convey("serves the latest report", func() {
			m.handle(Report{State: "run", Faults: "none", Ticks: 12})
			rec := request(router, http.MethodGet, "/api/status", "")
			So(rec.Code, ShouldEqual, http.StatusOK)
			var r Report
			So(json.Unmarshal(rec.Body.Bytes(), &r), ShouldBeNil)
			So(r.Ticks, ShouldEqual, uint32(12))
		})

		Convey("serves the link counters", func() {
			rec := request(router, http.MethodGet, "/api/stats", "")
			var s protocol.Stats
			So(json.Unmarshal(rec.Body.Bytes(), &s), ShouldBeNil)
			So(s.Received, ShouldEqual, uint32(3))
		})

		Convey("sets and reads the voltage target", func() {
			rec := request(router, http.MethodPut, "/api/voltage", `{"voltage": -2500}`)
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(m.Target(), ShouldEqual, int32(-2500))

			rec = request(router, http.MethodGet, "/api/voltage", "")
			So(rec.Body.String(), ShouldContainSubstring, `"voltage":-2500`)
		})

		Convey("refuses a bad voltage", func() {
			So(request(router, http.MethodPut, "/api/voltage", `{"voltage": 40000}`).Code,
				ShouldEqual, http.StatusUnprocessableEntity)
			So(request(router, http.MethodPut, "/api/voltage", `{volt`).Code,
				ShouldEqual, http.StatusBadRequest)
			So(m.Target(), ShouldEqual, int32(0))
		})

		Convey("forwards blink and clear", func() {
			So(request(router, http.MethodPost, "/api/blink", `{"count": 4}`).Code, ShouldEqual, http.StatusNoContent)
			So(request(router, http.MethodPost, "/api/clear", `{"counts": true}`).Code, ShouldEqual, http.StatusNoContent)
			So(ctl.Sent(), ShouldResemble, []string{"blink 4", "clear true"})
		})
	})
}

func TestHub(t *testing.T) {
	Convey("a websocket client", t, func() {
		hub := NewHub(testLogger(nil))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go hub.Run(ctx)

		m, _ := newTestMonitor()
		server := httptest.NewServer(NewRouter(m, hub))
		defer server.Close()

		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		So(err, ShouldBeNil)
		defer conn.Close()
		So(waitFor(func() bool { return hub.Clients() == 1 }), ShouldBeTrue)

		Convey("receives published reports", func() {
			hub.Publish(Report{State: "run", Ticks: 5})
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var r Report
			So(conn.ReadJSON(&r), ShouldBeNil)
			So(r.Ticks, ShouldEqual, uint32(5))
		})

		Convey("is dropped when it disconnects", func() {
			conn.Close()
			So(waitFor(func() bool { return hub.Clients() == 0 }), ShouldBeTrue)
		})

		Convey("late joiners get the last report", func() {
			hub.Publish(Report{Ticks: 8})
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var first Report
			So(conn.ReadJSON(&first), ShouldBeNil)

			late, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer late.Close()
			late.SetReadDeadline(time.Now().Add(2 * time.Second))
			var r Report
			So(late.ReadJSON(&r), ShouldBeNil)
			So(r.Ticks, ShouldEqual, uint32(8))
		})

		Convey("a late joiner that misses the last report is dropped", func() {
			hub.Publish(Report{Ticks: 9})
			conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var first Report
			So(conn.ReadJSON(&first), ShouldBeNil)

			hub.mu.Lock()
			hub.writeWait = -time.Second
			hub.mu.Unlock()

			late, _, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer late.Close()
			late.SetReadDeadline(time.Now().Add(2 * time.Second))
			_, _, err = late.ReadMessage()
			So(err, ShouldNotBeNil)
			So(hub.Clients(), ShouldEqual, 1)
		})
	})
}
