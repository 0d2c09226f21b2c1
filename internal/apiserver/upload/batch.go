package upload

import (
	"context"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// StoredFile is one file of a batch as written to disk
type StoredFile struct {
	Field        string
	OriginalName string
	Folder       string
	Name         string
	Ext          string
	Size         int64
	DeclaredMIME string
	SniffedMIME  string
}

// ContentType is the MIME type recorded for the file
func (f *StoredFile) ContentType() string {
	if f.SniffedMIME != "" && f.SniffedMIME != "application/octet-stream" {
		if _, ok := formatByMIME[baseMIME(f.SniffedMIME)]; ok {
			return baseMIME(f.SniffedMIME)
		}
	}
	if _, ok := formatByMIME[baseMIME(f.DeclaredMIME)]; ok {
		return baseMIME(f.DeclaredMIME)
	}
	return ContentType(f.Name)
}

// Batch is the set of files one request wrote. Unless committed it is
// removed from disk when the request finishes.
type Batch struct {
	Title  string
	Folder string
	Files  []*StoredFile

	store     *Store
	logger    *zap.Logger
	mu        sync.Mutex
	committed bool
	cleaned   bool
}

// File returns the file uploaded under the original name, or nil. Only the
// base name is compared since multipart readers drop the directory part.
func (b *Batch) File(originalName string) *StoredFile {
	base := filepath.Base(originalName)
	for _, f := range b.Files {
		if f.OriginalName == base {
			return f
		}
	}
	return nil
}

// Rename moves a file of the batch to folder/name
func (b *Batch) Rename(ctx context.Context, f *StoredFile, folder, name string) error {
	if err := b.store.Move(ctx, f.Folder, f.Name, folder, name); err != nil {
		return err
	}
	f.Folder = folder
	f.Name = name
	return nil
}

// Commit keeps the files on disk after the request
func (b *Batch) Commit() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.committed = true
}

// Committed reports whether Commit was called
func (b *Batch) Committed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// Cleanup removes every file of the batch and the folder the batch created.
// Errors are logged, never returned.
func (b *Batch) Cleanup(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.committed || b.cleaned {
		return
	}
	b.cleaned = true

	for _, f := range b.Files {
		if err := b.store.RemoveFile(ctx, f.Folder, f.Name); err != nil {
			b.logger.Warn("failed to remove uploaded file",
				zap.String("folder", f.Folder),
				zap.String("file", f.Name),
				zap.Error(err))
		}
	}
	if b.Folder == "" {
		return
	}
	if err := b.store.RemoveFolder(ctx, b.Folder); err != nil {
		b.logger.Warn("failed to remove upload folder",
			zap.String("folder", b.Folder),
			zap.Error(err))
		return
	}
	b.logger.Info("upload batch cleaned up",
		zap.String("folder", b.Folder),
		zap.Int("files", len(b.Files)))
}
