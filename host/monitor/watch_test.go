package monitor

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWatchConfig(t *testing.T) {
	Convey("a watched config file", t, func() {
		path := filepath.Join(t.TempDir(), "monitor.yaml")
		So(os.WriteFile(path, []byte("command:\n  voltage: 100\n"), 0o644), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		reloads := make(chan *Config, 8)
		done := make(chan error, 1)
		go func() {
			done <- WatchConfig(ctx, testLogger(nil), path, func(c *Config) { reloads <- c })
		}()
		// Let the watcher register before writing.
		time.Sleep(50 * time.Millisecond)

		// replace writes a new file beside path and renames it over path.
		replace := func(content string) {
			tmp := path + ".new"
			So(os.WriteFile(tmp, []byte(content), 0o644), ShouldBeNil)
			So(os.Rename(tmp, path), ShouldBeNil)
		}

		Convey("reloads when it is replaced", func() {
			replace("command:\n  voltage: 2000\n")
			select {
			case c := <-reloads:
				So(c.Command.Voltage, ShouldEqual, int32(2000))
			case <-time.After(2 * time.Second):
				t.Error("no reload")
			}
		})

		Convey("ignores other files and invalid contents", func() {
			So(os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1\n"), 0o644), ShouldBeNil)
			replace("command:\n  mode: drift\n")
			select {
			case c := <-reloads:
				t.Errorf("unexpected reload %+v", c.Command)
			case <-time.After(200 * time.Millisecond):
			}
		})

		cancel()
		So(<-done, ShouldBeNil)
	})
}
