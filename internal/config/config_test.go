package config_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/comprank/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.CompsPath, convey.ShouldEqual, filepath.Join("data", "latest", "comps.json"))
			convey.So(cfg.WatchPool, convey.ShouldBeTrue)
			convey.So(cfg.RefreshCommand, convey.ShouldEqual, "npm run fetch-meta && npm run build-comps")
			convey.So(cfg.DetectorScript, convey.ShouldEqual, filepath.Join("scripts", "detect_units.py"))
			convey.So(cfg.RefreshTimeout(), convey.ShouldEqual, 5*time.Minute)
			convey.So(cfg.DetectTimeout(), convey.ShouldEqual, 30*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
