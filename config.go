package plink

import (
	"io"
	"log"

	"cloud.google.com/go/storage"
	"github.com/minio/minio-go/v7"
)

// DefaultCacheBytes bounds the decoded chunks kept by a dataset unless
// WithCacheBytes says otherwise.
const DefaultCacheBytes = 256 << 20

type options struct {
	famSep     Delimiter
	bimSep     Delimiter
	contigs    ContigEncoder
	countA1    bool
	chunks     Chunks
	lock       bool
	persist    bool
	executor   Executor
	cacheBytes int64
	logger     *log.Logger
	gcs        *storage.Client
	s3         *minio.Client
}

func defaultOptions() options {
	return options{
		famSep:     Tab,
		bimSep:     Space,
		contigs:    LabeledContigs{},
		countA1:    true,
		persist:    true,
		executor:   Synchronous{},
		cacheBytes: DefaultCacheBytes,
		logger:     log.New(io.Discard, "", 0),
	}
}

func newOptions(opts []Option) (options, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o, o.validate()
}

func (o options) validate() error {
	if err := o.famSep.validate(); err != nil {
		return err
	}
	if err := o.bimSep.validate(); err != nil {
		return err
	}
	if o.chunks.Variants < 0 || o.chunks.Samples < 0 {
		return &ConfigError{Rule: "chunks", Message: "chunk sizes must not be negative"}
	}
	if o.executor == nil {
		return &ConfigError{Rule: "executor", Message: "an executor is required"}
	}
	if o.contigs == nil {
		return &ConfigError{Rule: "contigs", Message: "a contig encoder is required"}
	}
	return nil
}

func (o options) opener() fileOpener {
	return fileOpener{gcs: o.gcs, s3: o.s3}
}

// Option configures Read, Open and OpenBed.
type Option func(*options)

// WithFamDelimiter sets the .fam column delimiter (default Tab).
func WithFamDelimiter(d Delimiter) Option {
	return func(o *options) {
		o.famSep = d
	}
}

// WithBimDelimiter sets the .bim column delimiter (default Space).
func WithBimDelimiter(d Delimiter) Option {
	return func(o *options) {
		o.bimSep = d
	}
}

// WithIntegerContigs treats .bim contigs as integers already, instead of
// indexing them by their lexically sorted names.
func WithIntegerContigs(enabled bool) Option {
	return func(o *options) {
		if enabled {
			o.contigs = IntegerContigs{}
		} else {
			o.contigs = LabeledContigs{}
		}
	}
}

// WithCountA1 chooses which allele is counted: allele 1 (.bim column 5, the
// default) or, when false, allele 2.
func WithCountA1(countA1 bool) Option {
	return func(o *options) {
		o.countA1 = countA1
	}
}

// WithChunks sets the chunk shape of call_genotype. Zero sizes are chosen
// automatically.
func WithChunks(c Chunks) Option {
	return func(o *options) {
		o.chunks = c
	}
}

// WithLock serialises every read of the .bed handle. Needed only for
// backends whose ReadAt is not safe for concurrent use.
func WithLock(enabled bool) Option {
	return func(o *options) {
		o.lock = enabled
	}
}

// WithPersist controls whether the sidecar tables are parsed while opening
// (true, the default) or on first access to a metadata variable.
func WithPersist(enabled bool) Option {
	return func(o *options) {
		o.persist = enabled
	}
}

// WithExecutor sets how chunks are decoded when values are materialised.
//
// If nil is passed, Synchronous is used.
func WithExecutor(e Executor) Option {
	return func(o *options) {
		if e == nil {
			e = Synchronous{}
		}
		o.executor = e
	}
}

// WithCacheBytes bounds the decoded chunk cache. Zero disables caching and a
// negative value removes the bound.
func WithCacheBytes(n int64) Option {
	return func(o *options) {
		o.cacheBytes = n
	}
}

// WithLogger sets the logger used to report open and chunking decisions.
func WithLogger(l *log.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		o.logger = l
	}
}

// WithGCS enables gs:// paths.
func WithGCS(client *storage.Client) Option {
	return func(o *options) {
		o.gcs = client
	}
}

// WithS3 enables s3:// paths.
func WithS3(client *minio.Client) Option {
	return func(o *options) {
		o.s3 = client
	}
}
