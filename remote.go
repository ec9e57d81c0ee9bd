package plink

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/minio/minio-go/v7"
)

// ReaderAtCloser is the random-access handle the .bed reader is built on. An
// *os.File satisfies it, as do the Google Storage and S3 handles below.
type ReaderAtCloser interface {
	io.ReaderAt
	io.Closer
}

// fileOpener resolves a path to a random-access handle and its size. Paths
// prefixed with gs:// or s3:// are served by the corresponding client, which
// must have been configured; everything else is a local file.
type fileOpener struct {
	gcs *storage.Client
	s3  *minio.Client
}

func (o fileOpener) open(ctx context.Context, path string) (ReaderAtCloser, int64, error) {
	switch {
	case strings.HasPrefix(path, "gs://"):
		if o.gcs == nil {
			return nil, 0, &ConfigError{Rule: "storage", Message: fmt.Sprintf("%s requires a Google Storage client (WithGCS)", path)}
		}
		return openGoogleStorage(ctx, o.gcs, path)
	case strings.HasPrefix(path, "s3://"):
		if o.s3 == nil {
			return nil, 0, &ConfigError{Rule: "storage", Message: fmt.Sprintf("%s requires an S3 client (WithS3)", path)}
		}
		return openS3(ctx, o.s3, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	fstat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return f, fstat.Size(), nil
}

// openReader returns a sequential reader over the whole object at path.
func (o fileOpener) openReader(ctx context.Context, path string) (io.ReadCloser, error) {
	rac, size, err := o.open(ctx, path)
	if err != nil {
		return nil, err
	}
	if f, ok := rac.(*os.File); ok {
		return f, nil
	}
	return &sectionReadCloser{io.NewSectionReader(rac, 0, size), rac}, nil
}

type sectionReadCloser struct {
	*io.SectionReader
	io.Closer
}

// splitBucketPath turns scheme://bucket/object into its two parts.
func splitBucketPath(path, scheme string) (bucket, object string, err error) {
	pathParts := strings.SplitN(strings.TrimPrefix(path, scheme), "/", 2)
	if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
		return "", "", fmt.Errorf("Tried to split your storage path into 2 parts, but got %d: %v", len(pathParts), pathParts)
	}
	return pathParts[0], pathParts[1], nil
}

// gsReaderAt decorates a Google Storage object handle with ReadAt. Every
// call issues its own range request, so it is safe for concurrent use.
type gsReaderAt struct {
	handle *storage.ObjectHandle
	ctx    context.Context
}

func openGoogleStorage(ctx context.Context, client *storage.Client, path string) (ReaderAtCloser, int64, error) {
	bucketName, pathName, err := splitBucketPath(path, "gs://")
	if err != nil {
		return nil, 0, pfx.Err(err)
	}

	handle := client.Bucket(bucketName).Object(pathName)

	// Make a hard call to get the filesize
	attrs, err := handle.Attrs(ctx)
	if err != nil {
		return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return &gsReaderAt{handle: handle, ctx: ctx}, attrs.Size, nil
}

func (o *gsReaderAt) ReadAt(p []byte, offset int64) (int, error) {
	rdr, err := o.handle.NewRangeReader(o.ctx, offset, int64(len(p)))
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	n, err := io.ReadFull(rdr, p)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return n, err
}

// Close is a nop: range readers are closed after every read.
func (o *gsReaderAt) Close() error {
	return nil
}

// s3ReaderAt wraps a minio object, which already implements ReadAt.
type s3ReaderAt struct {
	*minio.Object
}

func openS3(ctx context.Context, client *minio.Client, path string) (ReaderAtCloser, int64, error) {
	bucketName, key, err := splitBucketPath(path, "s3://")
	if err != nil {
		return nil, 0, pfx.Err(err)
	}

	obj, err := client.GetObject(ctx, bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, 0, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return s3ReaderAt{obj}, info.Size, nil
}
