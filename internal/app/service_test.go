package service_test

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/okian/xpts/internal/adapters/repository"
	"github.com/okian/xpts/internal/adapters/table"
	service "github.com/okian/xpts/internal/app"
	"github.com/okian/xpts/internal/config"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestService_New(t *testing.T) {
	Convey("Given a new service with default options", t, func() {
		svc := service.New(service.WithLogger(logger.Discard()))

		Convey("Then it should have a run id and a file store", func() {
			So(svc.RunID(), ShouldNotBeEmpty)
			_, ok := svc.Store().(*repository.FileStore)
			So(ok, ShouldBeTrue)
			So(svc.Cache().Root(), ShouldEqual, config.New().DataDir)
		})
	})

	Convey("Given a new service with custom options", t, func() {
		store := repository.NewMemoryStore()
		svc := service.New(
			service.WithLogger(logger.Discard()),
			service.WithStore(store),
			service.WithRunID("run-1"),
			service.WithDataDir("/srv/raw"),
		)

		Convey("Then the options are applied", func() {
			So(svc.RunID(), ShouldEqual, "run-1")
			So(svc.Store(), ShouldEqual, store)
			So(svc.Cache().Root(), ShouldEqual, "/srv/raw")
		})
	})
}

func TestService_FromConfig(t *testing.T) {
	Convey("Given a valid config", t, func() {
		cfg := config.New()
		cfg.DataDir = t.TempDir()
		cfg.ModelDir = t.TempDir()

		opts, err := service.FromConfig(cfg, logger.Discard())

		Convey("Then the service uses its paths", func() {
			So(err, ShouldBeNil)
			svc := service.New(opts...)
			So(svc.Cache().Root(), ShouldEqual, cfg.DataDir)
			fs, ok := svc.Store().(*repository.FileStore)
			So(ok, ShouldBeTrue)
			So(fs.Path(model.Midfielder), ShouldEqual, filepath.Join(cfg.ModelDir, "ep_model_rf_MID.json"))
		})
	})

	Convey("Given the s3 store with a bucket", t, func() {
		cfg := config.New()
		cfg.ModelStore = config.StoreS3
		cfg.S3.Bucket = "models"
		cfg.S3.Endpoint = "http://localhost:9000"

		store, err := service.NewStore(cfg, logger.Discard())

		Convey("Then an S3 store is built", func() {
			So(err, ShouldBeNil)
			s3, ok := store.(*repository.S3Store)
			So(ok, ShouldBeTrue)
			So(s3.Key(model.Forward), ShouldEqual, "ep_model_rf_FWD.json")
		})
	})

	Convey("Given an invalid config", t, func() {
		cfg := config.New()
		cfg.ModelStore = "tape"

		_, err := service.FromConfig(cfg, logger.Discard())

		Convey("Then it is rejected", func() {
			So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}

func TestService_StageErrors(t *testing.T) {
	Convey("Given a service over an empty workspace", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		svc := service.New(
			service.WithLogger(logger.Discard()),
			service.WithStore(repository.NewMemoryStore()),
			service.WithDataDir(filepath.Join(dir, "raw")),
			service.WithArtifacts(
				filepath.Join(dir, "features.csv"),
				filepath.Join(dir, "predictions.csv"),
				filepath.Join(dir, "predictions.json"),
			),
		)

		Convey("When predicting a negative round", func() {
			_, err := svc.Predict(ctx, -2)

			Convey("Then the round is rejected", func() {
				So(errors.Is(err, service.ErrInvalidRound), ShouldBeTrue)
			})
		})

		Convey("When training without a feature table", func() {
			_, err := svc.Train(ctx)

			Convey("Then the stage fails", func() {
				So(err, ShouldNotBeNil)
			})
		})

		Convey("When exporting an empty predictions table", func() {
			err := table.WriteFile(filepath.Join(dir, "predictions.csv"), func(w io.Writer) error {
				return table.WritePredictions(w, nil)
			})
			So(err, ShouldBeNil)
			_, err = svc.Export(ctx)

			Convey("Then nothing is exported", func() {
				So(errors.Is(err, service.ErrNoPredictions), ShouldBeTrue)
			})
		})
	})
}
