package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"reelforge/internal/config"
	"reelforge/internal/logging"
	"reelforge/internal/services"
)

// OutputObject is the object name used for every rendered reel.
const OutputObject = "output.mp4"

const publicHost = "https://storage.googleapis.com"

// Uploader publishes a local file for a video and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, videoID, localPath string) (string, error)
}

// Disabled is the Uploader used when storage is turned off. It returns an
// empty URL and never fails.
type Disabled struct{}

// Upload implements Uploader.
func (Disabled) Upload(context.Context, string, string) (string, error) { return "", nil }

// ObjectName returns <prefix>/<videoID>/output.mp4 with empty segments removed.
func ObjectName(prefix, videoID string) string {
	parts := make([]string, 0, 3)
	if p := strings.Trim(prefix, "/"); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, strings.Trim(videoID, "/"), OutputObject)
	return path.Join(parts...)
}

// PublicURL returns the anonymous-read URL for an object.
func PublicURL(bucket, object string) string {
	segments := strings.Split(object, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return fmt.Sprintf("%s/%s/%s", publicHost, bucket, strings.Join(segments, "/"))
}

// objectStore is the subset of bucket operations the publisher needs.
type objectStore interface {
	Write(ctx context.Context, object, contentType string, r io.Reader) error
	MakePublic(ctx context.Context, object string) error
}

// Publisher uploads reels to one bucket.
type Publisher struct {
	bucket string
	prefix string
	store  objectStore
	logger *slog.Logger
	now    func() time.Time
}

// New builds a Publisher from storage configuration. When storage is
// disabled it returns Disabled.
func New(ctx context.Context, cfg config.Storage, logger *slog.Logger) (Uploader, io.Closer, error) {
	if !cfg.Enabled {
		return Disabled{}, nopCloser{}, nil
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, nil, services.Wrap(services.ErrConfiguration, "storage", "init", "storage.bucket is required when storage is enabled", nil)
	}
	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsFile); creds != "" {
		opts = append(opts, option.WithCredentialsFile(creds))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "storage", "init", "create GCS client", err)
	}
	return newPublisher(bucket, cfg.Prefix, &gcsStore{bucket: client.Bucket(bucket)}, logger), client, nil
}

func newPublisher(bucket, prefix string, store objectStore, logger *slog.Logger) *Publisher {
	return &Publisher{
		bucket: bucket,
		prefix: prefix,
		store:  store,
		logger: logging.NewComponentLogger(logger, "storage"),
		now:    time.Now,
	}
}

// Upload streams localPath to the bucket, grants public read, and returns
// the public URL.
func (p *Publisher) Upload(ctx context.Context, videoID, localPath string) (string, error) {
	object := ObjectName(p.prefix, videoID)
	file, err := os.Open(localPath)
	if err != nil {
		return "", &UploadError{Bucket: p.bucket, Object: object, Op: "open source", Err: err}
	}
	defer file.Close()

	start := p.now()
	p.logger.Info("uploading reel",
		logging.String(logging.FieldVideoID, videoID),
		logging.String("object", object),
		logging.String(logging.FieldEventType, "upload_start"),
	)
	if err := p.store.Write(ctx, object, "video/mp4", file); err != nil {
		return "", &UploadError{Bucket: p.bucket, Object: object, Op: "write", Err: err}
	}
	if err := p.store.MakePublic(ctx, object); err != nil {
		return "", &UploadError{Bucket: p.bucket, Object: object, Op: "set public ACL", Err: err}
	}

	publicURL := PublicURL(p.bucket, object)
	p.logger.Info("reel uploaded",
		logging.String(logging.FieldVideoID, videoID),
		logging.String("url", publicURL),
		logging.Duration("elapsed", p.now().Sub(start)),
		logging.String(logging.FieldEventType, "upload_complete"),
	)
	return publicURL, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type gcsStore struct {
	bucket *gcs.BucketHandle
}

func (s *gcsStore) Write(ctx context.Context, object, contentType string, r io.Reader) error {
	return streamObject(ctx, func(ctx context.Context) io.WriteCloser {
		w := s.bucket.Object(object).NewWriter(ctx)
		w.ContentType = contentType
		return w
	}, r)
}

// streamObject copies r into a writer bound to a cancellable context. Closing
// a GCS writer commits the object, so a failed copy cancels the context to
// abort the upload and Close is reached only after every byte was written.
func streamObject(ctx context.Context, open func(context.Context) io.WriteCloser, r io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := open(ctx)
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return err
	}
	return w.Close()
}

func (s *gcsStore) MakePublic(ctx context.Context, object string) error {
	return s.bucket.Object(object).ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader)
}
