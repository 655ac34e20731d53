package repository

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/okian/xpts/internal/domain/model"
	"github.com/okian/xpts/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headErr error
}

func newFakeS3() *fakeS3 { return &fakeS3{objects: make(map[string][]byte)} }

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = b
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeS3) HeadObject(_ context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.headErr != nil {
		return nil, f.headErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func TestS3Store(t *testing.T) {
	Convey("Given an S3 store with a key prefix", t, func() {
		ctx := context.Background()
		client := newFakeS3()
		s := NewS3StoreWithClient(client, "models", WithPrefix("xpts/2025/"), WithLogger(logger.Discard()))

		Convey("When nothing has been saved", func() {
			ok, err := s.Exists(ctx, model.Goalkeeper)

			Convey("Then the model does not exist and loading fails with ErrModelNotFound", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
				_, err := s.Load(ctx, model.Goalkeeper)
				So(errors.Is(err, ErrModelNotFound), ShouldBeTrue)
			})
		})

		Convey("When a model is saved", func() {
			So(s.Save(ctx, model.Goalkeeper, testModel(model.Goalkeeper, 2)), ShouldBeNil)

			Convey("Then it is stored under the prefixed key", func() {
				_, ok := client.objects["models/xpts/2025/ep_model_rf_GKP.json"]
				So(ok, ShouldBeTrue)
			})

			Convey("Then it loads back intact", func() {
				ok, err := s.Exists(ctx, model.Goalkeeper)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				got, err := s.Load(ctx, model.Goalkeeper)
				So(err, ShouldBeNil)
				So(got.Forest, ShouldResemble, testModel(model.Goalkeeper, 2).Forest)
			})
		})

		Convey("When the server answers with a generic NotFound code", func() {
			client.headErr = &smithy.GenericAPIError{Code: "NotFound", Message: "missing"}
			ok, err := s.Exists(ctx, model.Defender)

			Convey("Then it is treated as absent", func() {
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When the server fails for another reason", func() {
			client.headErr = &smithy.GenericAPIError{Code: "AccessDenied", Message: "nope"}
			_, err := s.Exists(ctx, model.Defender)

			Convey("Then the error is returned", func() {
				So(err, ShouldNotBeNil)
			})
		})
	})

	Convey("Given a config without a bucket", t, func() {
		_, err := NewS3Store(S3Config{Region: "eu-west-1"})

		Convey("Then construction fails", func() {
			So(errors.Is(err, ErrMissingBucket), ShouldBeTrue)
		})
	})
}
