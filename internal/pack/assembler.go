// Package pack builds the zip archive for an order from product files in
// object storage and uploads it back under a fresh key.
package pack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ariefcatur/go-pack-store/internal/metrics"
	"github.com/ariefcatur/go-pack-store/internal/storage"
	"github.com/google/uuid"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
	"go.uber.org/zap"
)

var (
	ErrNoInput         = errors.New("pack: no files selected")
	ErrNoFilesIncluded = errors.New("pack: none of the selected files could be fetched")
	ErrUploadFailed    = errors.New("pack: archive upload failed")
)

// Result describes an uploaded archive.
type Result struct {
	ArchiveKey    string
	SizeBytes     int64 // compressed archive size
	SourceBytes   int64 // sum of included file sizes
	FilesIncluded int
	Entries       []string
	Missing       []string
	DownloadURL   string
}

type Assembler struct {
	Store  storage.ObjectStore
	Log    *zap.Logger
	URLTTL time.Duration // lifetime of the signed URL returned in Result
	Prefix string        // archive key prefix, "packs/" when empty
	Level  int           // flate level, BestCompression when zero
}

func New(store storage.ObjectStore, urlTTL time.Duration, log *zap.Logger) *Assembler {
	return &Assembler{Store: store, Log: log, URLTTL: urlTTL}
}

// Assemble fetches keys in order, zips the ones that exist and uploads the
// archive. Missing files are skipped with a warning; the call only fails when
// nothing survives or the upload is rejected.
func (a *Assembler) Assemble(ctx context.Context, keys []string, archiveName string) (*Result, error) {
	if len(keys) == 0 {
		return nil, ErrNoInput
	}
	log := a.logger().With(zap.String("archive", archiveName))

	var (
		buf   bytes.Buffer
		res   Result
		names = newEntryNamer()
	)
	zw := zip.NewWriter(&buf)
	level := a.Level
	if level == 0 {
		level = flate.BestCompression
	}
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, level)
	})

	for _, key := range keys {
		data, err := a.Store.Get(ctx, key)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("file skipped", zap.String("key", key), zap.Error(err))
			metrics.RecordSkippedFile()
			res.Missing = append(res.Missing, key)
			continue
		}

		name := names.next(key)
		fw, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: time.Now().UTC(),
		})
		if err != nil {
			return nil, fmt.Errorf("pack: add %s: %w", name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return nil, fmt.Errorf("pack: write %s: %w", name, err)
		}
		res.Entries = append(res.Entries, name)
		res.SourceBytes += int64(len(data))
		res.FilesIncluded++
	}

	if res.FilesIncluded == 0 {
		return nil, ErrNoFilesIncluded
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("pack: finalize: %w", err)
	}

	key := a.archiveKey(archiveName)
	if _, err := a.Store.Put(ctx, key, buf.Bytes(), "application/zip"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	res.ArchiveKey = key
	res.SizeBytes = int64(buf.Len())

	url, err := a.Store.SignedURL(ctx, key, a.URLTTL)
	if err != nil {
		return nil, fmt.Errorf("pack: sign %s: %w", key, err)
	}
	res.DownloadURL = url

	log.Info("pack uploaded",
		zap.String("key", key),
		zap.Int("files", res.FilesIncluded),
		zap.Int("missing", len(res.Missing)),
		zap.Int64("size_bytes", res.SizeBytes))
	return &res, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func (a *Assembler) archiveKey(name string) string {
	prefix := a.Prefix
	if prefix == "" {
		prefix = "packs/"
	}
	name = strings.Trim(unsafeName.ReplaceAllString(name, "-"), "-.")
	if name == "" {
		name = "pack"
	}
	return prefix + name + "-" + uuid.NewString() + ".zip"
}

func (a *Assembler) logger() *zap.Logger {
	if a.Log == nil {
		return zap.NewNop()
	}
	return a.Log
}

// entryNamer hands out archive entry names. The base name is used when free;
// otherwise the parent folder is prefixed, then a counter.
type entryNamer struct{ used map[string]bool }

func newEntryNamer() *entryNamer { return &entryNamer{used: map[string]bool{}} }

func (n *entryNamer) next(key string) string {
	base := path.Base(key)
	if n.take(base) {
		return base
	}
	if dir := path.Base(path.Dir(key)); dir != "." && dir != "/" {
		if name := dir + "_" + base; n.take(name) {
			return name
		}
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 2; ; i++ {
		if name := stem + " (" + strconv.Itoa(i) + ")" + ext; n.take(name) {
			return name
		}
	}
}

func (n *entryNamer) take(name string) bool {
	if n.used[name] {
		return false
	}
	n.used[name] = true
	return true
}
