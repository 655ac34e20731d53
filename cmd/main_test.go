package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/xpts/internal/adapters/table"
	"github.com/smartystreets/goconvey/convey"
)

func TestRun(t *testing.T) {
	convey.Convey("Given a workspace configured through env vars", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		t.Setenv("XPTS_DATA_DIR", filepath.Join(dir, "raw"))
		t.Setenv("XPTS_MODEL_DIR", filepath.Join(dir, "models"))
		t.Setenv("XPTS_FEATURES_FILE", filepath.Join(dir, "features.csv"))
		t.Setenv("XPTS_PREDICTIONS_FILE", filepath.Join(dir, "predictions.csv"))
		t.Setenv("XPTS_EXPORT_FILE", filepath.Join(dir, "predictions.json"))
		t.Setenv("XPTS_METRICS_FILE", filepath.Join(dir, "xpts.prom"))
		for _, cat := range []string{"GKP", "DEF", "MID", "FWD"} {
			t.Setenv("XPTS_PROFILES_"+cat+"_TREES", "5")
		}
		var stdout, stderr bytes.Buffer

		convey.Convey("When no command is given", func() {
			code := run(ctx, nil, &stdout, &stderr)

			convey.Convey("Then usage is printed", func() {
				convey.So(code, convey.ShouldEqual, exitUsage)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "usage: xpts")
			})
		})

		convey.Convey("When the command is unknown", func() {
			code := run(ctx, []string{"serve"}, &stdout, &stderr)

			convey.Convey("Then it exits with a usage error", func() {
				convey.So(code, convey.ShouldEqual, exitUsage)
				convey.So(stderr.String(), convey.ShouldContainSubstring, `unknown command "serve"`)
			})
		})

		convey.Convey("When training before any features exist", func() {
			code := run(ctx, []string{"train"}, &stdout, &stderr)

			convey.Convey("Then the command fails", func() {
				convey.So(code, convey.ShouldEqual, exitFail)
				convey.So(stdout.String(), convey.ShouldContainSubstring, "command failed")
			})
		})

		convey.Convey("When a season is synthesised and the pipeline runs", func() {
			convey.So(run(ctx, []string{"synth", "-teams", "8", "-rounds", "10"}, &stdout, &stderr), convey.ShouldEqual, exitOK)
			code := run(ctx, []string{"run"}, &stdout, &stderr)

			convey.Convey("Then every artifact is written", func() {
				convey.So(code, convey.ShouldEqual, exitOK)
				for _, name := range []string{"features.csv", "predictions.csv", "predictions.json", "xpts.prom"} {
					_, err := os.Stat(filepath.Join(dir, name))
					convey.So(err, convey.ShouldBeNil)
				}
				entries, err := os.ReadDir(filepath.Join(dir, "models"))
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(entries), convey.ShouldEqual, 4)
			})

			convey.Convey("And predicting the next round", func() {
				convey.So(run(ctx, []string{"predict", "-round", "-1"}, &stdout, &stderr), convey.ShouldEqual, exitOK)

				convey.Convey("Then the predictions table holds round 11", func() {
					preds, err := table.LoadPredictions(filepath.Join(dir, "predictions.csv"))
					convey.So(err, convey.ShouldBeNil)
					convey.So(preds, convey.ShouldNotBeEmpty)
					for _, p := range preds {
						convey.So(p.Round, convey.ShouldEqual, 11)
					}
				})
			})
		})

		convey.Convey("When the config file is missing", func() {
			code := run(ctx, []string{"features", "-config", filepath.Join(dir, "absent.yaml")}, &stdout, &stderr)

			convey.Convey("Then loading fails", func() {
				convey.So(code, convey.ShouldEqual, exitFail)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to load config")
			})
		})
	})
}
