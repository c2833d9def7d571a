package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/askdb/askdb/internal/history"
	"github.com/askdb/askdb/internal/storage"
)

const contentType = "application/vnd.apache.parquet"

// Source is the part of the history repository the exporter drains.
type Source interface {
	ListUnarchived(ctx context.Context, limit int) ([]history.Entry, error)
	MarkArchived(ctx context.Context, ids []int64, at time.Time) (int64, error)
}

type Config struct {
	Prefix     string
	BatchLimit int
}

type Result struct {
	Key      string             `json:"key,omitempty"`
	Entries  int                `json:"entries"`
	FirstID  int64              `json:"first_id,omitempty"`
	LastID   int64              `json:"last_id,omitempty"`
	Object   storage.ObjectInfo `json:"object"`
	Archived int64              `json:"archived"`
}

// Exporter moves unarchived history entries into Parquet objects. Export
// calls are serialized so the existence check and the upload of one batch
// cannot interleave with another export in the same process.
type Exporter struct {
	source Source
	store  storage.ObjectStore
	cfg    Config
	now    func() time.Time

	mu sync.Mutex
}

func NewExporter(source Source, store storage.ObjectStore, cfg Config) (*Exporter, error) {
	if source == nil {
		return nil, fmt.Errorf("history source is required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store is required")
	}
	if cfg.BatchLimit <= 0 {
		cfg.BatchLimit = 1000
	}
	return &Exporter{source: source, store: store, cfg: cfg, now: time.Now}, nil
}

// Export writes one batch. An empty batch is not an error; the result then
// has zero entries and no key.
func (e *Exporter) Export(ctx context.Context) (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries, err := e.source.ListUnarchived(ctx, e.cfg.BatchLimit)
	if err != nil {
		return Result{}, fmt.Errorf("list unarchived history: %w", err)
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	firstID, lastID := entries[0].ID, entries[len(entries)-1].ID
	now := e.now().UTC()
	key, err := storage.BuildArchivePath(e.cfg.Prefix, now, firstID, lastID)
	if err != nil {
		return Result{}, err
	}

	if _, err := e.store.Stat(ctx, key); err == nil {
		return Result{}, fmt.Errorf("archive object %q already exists", key)
	} else if !errors.Is(err, storage.ErrObjectNotFound) {
		return Result{}, fmt.Errorf("stat archive object: %w", err)
	}

	data, err := Encode(entries)
	if err != nil {
		return Result{}, err
	}
	info, err := e.store.Put(ctx, key, bytes.NewReader(data), int64(len(data)), storage.PutOptions{
		ContentType: contentType,
		Metadata: map[string]string{
			"first-id": strconv.FormatInt(firstID, 10),
			"last-id":  strconv.FormatInt(lastID, 10),
			"entries":  strconv.Itoa(len(entries)),
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("upload archive: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, entry := range entries {
		ids = append(ids, entry.ID)
	}
	archived, err := e.source.MarkArchived(ctx, ids, now)
	if err != nil {
		return Result{}, fmt.Errorf("mark %d entries archived: %w", len(ids), err)
	}
	return Result{
		Key:      key,
		Entries:  len(entries),
		FirstID:  firstID,
		LastID:   lastID,
		Object:   info,
		Archived: archived,
	}, nil
}

// List returns the archive objects written so far, oldest date first.
func (e *Exporter) List(ctx context.Context) ([]storage.ObjectInfo, error) {
	objects, err := e.store.List(ctx, e.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("list archive objects: %w", err)
	}
	out := make([]storage.ObjectInfo, 0, len(objects))
	for _, object := range objects {
		if strings.HasSuffix(object.Key, ".parquet") {
			out = append(out, object)
		}
	}
	return out, nil
}

// Load reads back an archived batch. Keys outside the archive prefix, or
// not ending in .parquet, are reported as missing.
func (e *Exporter) Load(ctx context.Context, key string) ([]history.Entry, error) {
	if !e.isArchiveKey(key) {
		return nil, fmt.Errorf("archive %q: %w", key, storage.ErrObjectNotFound)
	}
	reader, err := e.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read archive object: %w", err)
	}
	return Decode(data)
}

func (e *Exporter) isArchiveKey(key string) bool {
	if !strings.HasSuffix(key, ".parquet") || strings.Contains(key, "..") {
		return false
	}
	prefix := strings.Trim(e.cfg.Prefix, "/")
	return prefix == "" || strings.HasPrefix(key, prefix+"/")
}
