package upload

import (
	"context"
	"time"

	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/pkg/trace"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// FolderLister reports the folders song rows point to
type FolderLister interface {
	ReferencedFolders(ctx context.Context) ([]string, error)
}

// ReconcileOptions controls a reconcile run
type ReconcileOptions struct {
	Remove bool
	// MinAge skips folders modified more recently, so uploads in flight are left alone
	MinAge time.Duration
	Now    time.Time
}

// ReconcileResult lists orphan folders and the ones removed
type ReconcileResult struct {
	Orphans []string `json:"orphans"`
	Removed []string `json:"removed"`
	Failed  []string `json:"failed"`
}

// Reconcile finds folders on disk that no song row references. Those are
// left behind when the process dies between writing files and inserting
// rows. With opts.Remove set they are deleted.
func Reconcile(ctx context.Context, store *Store, db FolderLister, opts ReconcileOptions, logger *zap.Logger) (*ReconcileResult, error) {
	scope := trace.Tracer(cnst.TraceUpload).Start(ctx, cnst.SpanReconcile)
	defer scope.End()
	ctx = scope.Ctx

	onDisk, err := store.ListFolders(ctx)
	if err != nil {
		scope.Fail(err)
		return nil, err
	}
	referenced, err := db.ReferencedFolders(ctx)
	if err != nil {
		scope.Fail(err)
		return nil, err
	}
	known := make(map[string]struct{}, len(referenced))
	for _, f := range referenced {
		known[f] = struct{}{}
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	res := &ReconcileResult{Orphans: []string{}, Removed: []string{}, Failed: []string{}}
	for _, folder := range onDisk {
		if _, ok := known[folder]; ok {
			continue
		}
		if opts.MinAge > 0 {
			modified, err := store.ModTime(ctx, folder)
			if err != nil || now.Sub(modified) < opts.MinAge {
				continue
			}
		}
		res.Orphans = append(res.Orphans, folder)
		if !opts.Remove {
			continue
		}
		if err := store.RemoveFolder(ctx, folder); err != nil {
			logger.Warn("failed to remove orphan folder", zap.String("folder", folder), zap.Error(err))
			res.Failed = append(res.Failed, folder)
			continue
		}
		res.Removed = append(res.Removed, folder)
	}

	scope.WithAttrs(
		attribute.Int("reconcile.orphans", len(res.Orphans)),
		attribute.Int("reconcile.removed", len(res.Removed)),
	)
	if len(res.Orphans) > 0 {
		logger.Info("upload reconcile finished",
			zap.Int("orphans", len(res.Orphans)),
			zap.Int("removed", len(res.Removed)),
			zap.Bool("remove", opts.Remove))
	}
	return res, nil
}
