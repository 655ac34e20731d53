package config_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/internal/domain/forest"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
			convey.So(cfg.ModelStore, convey.ShouldEqual, config.StoreFile)
			convey.So(cfg.Seed, convey.ShouldEqual, 42)
			convey.So(cfg.FitWorkers, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.Fetch.RPS, convey.ShouldEqual, 5)
			convey.So(cfg.Fetch.Timeout().Seconds(), convey.ShouldEqual, 20)
		})

		convey.Convey("Then the default profiles are used", func() {
			profiles, err := cfg.ModelProfiles()
			convey.So(err, convey.ShouldBeNil)
			convey.So(profiles[model.Midfielder].Trees, convey.ShouldEqual, 700)
			convey.So(profiles[model.Goalkeeper].MaxDepth, convey.ShouldEqual, 10)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting", t, func() {
		cases := map[string]func(*config.Config){
			"unknown store":      func(c *config.Config) { c.ModelStore = "ftp" },
			"s3 without bucket":  func(c *config.Config) { c.ModelStore = config.StoreS3 },
			"empty data dir":     func(c *config.Config) { c.DataDir = "" },
			"negative workers":   func(c *config.Config) { c.FitWorkers = -1 },
			"zero timeout":       func(c *config.Config) { c.Fetch.TimeoutSeconds = 0 },
			"bad log level":      func(c *config.Config) { c.LogLevel = "chatty" },
			"unknown category":   func(c *config.Config) { c.Profiles = map[string]forest.Params{"GK": {Trees: 5}} },
			"invalid min sample": func(c *config.Config) { c.Profiles = map[string]forest.Params{"def": {MinSamplesSplit: 1}} },
		}
		for name, mutate := range cases {
			cfg := config.New()
			mutate(cfg)
			convey.Convey("Then "+name+" is rejected", func() {
				convey.So(errors.Is(cfg.Validate(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		}
	})

	convey.Convey("Given a partial profile override", t, func() {
		cfg := config.New()
		cfg.Profiles = map[string]forest.Params{"fwd": {Trees: 25}}
		profiles, err := cfg.ModelProfiles()

		convey.Convey("Then unset fields keep the category default", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(profiles[model.Forward], convey.ShouldResemble,
				forest.Params{Trees: 25, MaxDepth: 12, MinSamplesSplit: 4, MinSamplesLeaf: 1})
		})
	})
}
