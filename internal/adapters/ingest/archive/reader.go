package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"context"
	"errors"
	"io"
	"os"
	"strings"

	perr "github.com/ferroh-aws/transcribe-comprehend/internal/platform/errors"
	"github.com/ferroh-aws/transcribe-comprehend/internal/platform/logger"
)

// DefaultMaxBytes caps the compressed object size unless WithMaxBytes says otherwise
const DefaultMaxBytes = 512 << 20

// DefaultMaxExpandedBytes caps decompressed bytes unless WithMaxExpandedBytes says otherwise
const DefaultMaxExpandedBytes = 2 << 30

// Fetcher downloads one object into w
type Fetcher interface {
	Download(ctx context.Context, bucket, key string, w io.Writer) (int64, error)
}

// Reader opens the single document inside an analysis output archive
type Reader struct {
	fetch       Fetcher
	dir         string
	maxBytes    int64
	maxExpanded int64
	log         *logger.Logger
}

// Option configures the reader
type Option func(*Reader)

// WithTempDir sets where archives are spooled; empty means os.TempDir
func WithTempDir(dir string) Option {
	return func(r *Reader) { r.dir = dir }
}

// WithMaxBytes caps the compressed object size; zero or less disables the cap
func WithMaxBytes(n int64) Option {
	return func(r *Reader) { r.maxBytes = n }
}

// WithMaxExpandedBytes caps the decompressed zip spool and the document body; zero or less disables the cap
func WithMaxExpandedBytes(n int64) Option {
	return func(r *Reader) { r.maxExpanded = n }
}

// NewReader builds a Reader over an object store fetcher
func NewReader(f Fetcher, opts ...Option) *Reader {
	r := &Reader{
		fetch:       f,
		maxBytes:    DefaultMaxBytes,
		maxExpanded: DefaultMaxExpandedBytes,
		log:         logger.Named("archive"),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Fetch downloads bucket/key and returns a Document positioned at its first regular entry
// The caller must Close the Document on every path
func (r *Reader) Fetch(ctx context.Context, bucket, key string) (*Document, error) {
	doc := &Document{}
	out, err := r.open(ctx, doc, bucket, key)
	if err != nil {
		_ = doc.Close()
		return nil, err
	}
	return out, nil
}

func (r *Reader) open(ctx context.Context, doc *Document, bucket, key string) (*Document, error) {
	spool, err := doc.tempFile(r.dir)
	if err != nil {
		return nil, err
	}

	var w io.Writer = spool
	if r.maxBytes > 0 {
		w = &capWriter{w: spool, left: r.maxBytes}
	}
	n, err := r.fetch.Download(ctx, bucket, key, w)
	if err != nil {
		var ce *capExceeded
		if errors.As(err, &ce) {
			return nil, perr.Newf(perr.ErrorCodeUnsupportedArchive, "archive: %s/%s exceeds %d bytes", bucket, key, r.maxBytes)
		}
		return nil, err
	}
	doc.Compressed = n

	if _, err := spool.Seek(0, io.SeekStart); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "archive: rewind spool")
	}

	outer := bufio.NewReader(spool)
	if doc.Codec, err = sniffCodec(outer); err != nil {
		return nil, err
	}
	plain, closeDec, err := decompress(doc.Codec, outer)
	if err != nil {
		return nil, err
	}
	doc.closers = append(doc.closers, closeDec)

	inner := bufio.NewReader(plain)
	if doc.Container, err = sniffContainer(inner); err != nil {
		return nil, err
	}

	switch doc.Container {
	case ContainerTar:
		err = doc.openTar(inner)
	case ContainerZip:
		err = doc.openZip(inner, r.dir, r.maxExpanded)
	}
	if err != nil {
		return nil, err
	}
	if r.maxExpanded > 0 {
		doc.body = &capReader{r: doc.body, left: r.maxExpanded, name: doc.Name}
	}

	r.log.Debug().
		Str("bucket", bucket).
		Str("key", key).
		Int64("compressed_bytes", n).
		Str("codec", string(doc.Codec)).
		Str("container", string(doc.Container)).
		Str("entry", doc.Name).
		Msg("archive opened")
	return doc, nil
}

// capWriter fails once more than left bytes are written
type capWriter struct {
	w    io.Writer
	left int64
}

type capExceeded struct{}

func (*capExceeded) Error() string { return "archive: size cap exceeded" }

func (c *capWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > c.left {
		return 0, &capExceeded{}
	}
	n, err := c.w.Write(p)
	c.left -= int64(n)
	return n, err
}

// capReader fails the read that would pass left bytes
type capReader struct {
	r    io.Reader
	left int64
	name string
}

func (c *capReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, c.exceeded()
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n - 1, c.exceeded()
	}
	return n, err
}

func (c *capReader) exceeded() error {
	return perr.Newf(perr.ErrorCodeUnsupportedArchive, "archive: entry %s expands past the size cap", c.name)
}

// Document is the first regular entry of an archive
type Document struct {
	Name       string
	Codec      Codec
	Container  Container
	Compressed int64

	body    io.Reader
	closers []func() error
	closed  bool
}

// Read reads the entry body
func (d *Document) Read(p []byte) (int, error) {
	if d.body == nil {
		return 0, io.EOF
	}
	return d.body.Read(p)
}

// Close releases decoders and removes temp files, last opened first
func (d *Document) Close() error {
	if d == nil || d.closed {
		return nil
	}
	d.closed = true
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// tempFile creates a spool file that Close removes
func (d *Document) tempFile(dir string) (*os.File, error) {
	f, err := os.CreateTemp(dir, "comprehend-*.spool")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnknown, "archive: create temp file")
	}
	d.closers = append(d.closers, func() error {
		cerr := f.Close()
		if rerr := os.Remove(f.Name()); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			return rerr
		}
		if errors.Is(cerr, os.ErrClosed) {
			return nil
		}
		return cerr
	})
	return f, nil
}

func (d *Document) openTar(r io.Reader) error {
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return perr.New(perr.ErrorCodeUnsupportedArchive, "archive: tar has no file entry")
		}
		if err != nil {
			return perr.Wrap(err, perr.ErrorCodeUnsupportedArchive, "archive: read tar header")
		}
		if hdr.Typeflag == tar.TypeReg {
			d.Name = hdr.Name
			d.body = tr
			return nil
		}
	}
}

// openZip spools the decompressed zip since its central directory sits at the end
func (d *Document) openZip(r io.Reader, dir string, limit int64) error {
	f, err := d.tempFile(dir)
	if err != nil {
		return err
	}
	var w io.Writer = f
	if limit > 0 {
		w = &capWriter{w: f, left: limit}
	}
	size, err := io.Copy(w, r)
	if err != nil {
		var ce *capExceeded
		if errors.As(err, &ce) {
			return perr.Newf(perr.ErrorCodeUnsupportedArchive, "archive: zip expands past %d bytes", limit)
		}
		return perr.Wrap(err, perr.ErrorCodeUnsupportedCompression, "archive: corrupt compressed stream")
	}
	zr, err := zip.NewReader(f, size)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnsupportedArchive, "archive: read zip directory")
	}
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || strings.HasSuffix(zf.Name, "/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return perr.Wrapf(err, perr.ErrorCodeUnsupportedArchive, "archive: open zip entry %s", zf.Name)
		}
		d.closers = append(d.closers, rc.Close)
		d.Name = zf.Name
		d.body = rc
		return nil
	}
	return perr.New(perr.ErrorCodeUnsupportedArchive, "archive: zip has no file entry")
}
