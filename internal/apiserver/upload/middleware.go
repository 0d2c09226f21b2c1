package upload

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/amoylab/choirhub/pkg/metrics"
	"github.com/amoylab/choirhub/pkg/trace"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const batchKey = "upload_batch"

// multipart overhead allowed on top of the file size limit
const formOverhead int64 = 1 << 20

// Mode selects the form layout an upload route accepts
type Mode struct {
	Field        string
	MaxFiles     int // 0 means the configured limit
	RequireTitle bool
}

var (
	// ModeSingle is one file in "audio" plus a title
	ModeSingle = Mode{Field: "audio", MaxFiles: 1, RequireTitle: true}
	// ModeMultiple is up to the configured number of files in "audios" plus a title
	ModeMultiple = Mode{Field: "audios", RequireTitle: true}
	// ModeVariant is one file in "audio"; the title comes from the parent song
	ModeVariant = Mode{Field: "audio", MaxFiles: 1}
)

// Uploader stages multipart audio uploads on disk for the song handlers
type Uploader struct {
	store   *Store
	cfg     config.UploadConfig
	errs    *errorx.ErrorHandler
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewUploader creates an Uploader. m may be nil.
func NewUploader(store *Store, cfg config.UploadConfig, errs *errorx.ErrorHandler, m *metrics.Metrics, logger *zap.Logger) *Uploader {
	return &Uploader{
		store:   store,
		cfg:     cfg,
		errs:    errs,
		metrics: m,
		logger:  logger.Named("upload"),
		now:     time.Now,
	}
}

// Store returns the backing file store
func (u *Uploader) Store() *Store {
	return u.store
}

// BatchFromContext returns the batch staged by the upload middleware
func BatchFromContext(c *gin.Context) *Batch {
	v, ok := c.Get(batchKey)
	if !ok {
		return nil
	}
	b, _ := v.(*Batch)
	return b
}

// Middleware validates the upload, writes the files to a fresh folder and
// hands the Batch to the next handler. Nothing is written unless every file
// passes validation. Files of a batch the handler did not commit are
// removed once the handler returns.
func (u *Uploader) Middleware(mode Mode) gin.HandlerFunc {
	maxFiles := mode.MaxFiles
	if maxFiles <= 0 {
		maxFiles = u.cfg.MaxFiles
	}
	limit := u.cfg.MaxFileSize*int64(maxFiles) + formOverhead

	return func(c *gin.Context) {
		scope := trace.Tracer(cnst.TraceUpload).Start(c.Request.Context(), cnst.SpanUploadStage)
		defer scope.End()

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			scope.Fail(err)
			u.errs.HandleError(c, formError(err))
			return
		}
		form := c.Request.MultipartForm

		files := form.File[mode.Field]
		if len(files) == 0 {
			u.errs.HandleError(c, errorx.ErrNoFiles.WithDetail("field", mode.Field))
			return
		}
		if len(files) > maxFiles {
			u.errs.HandleError(c, errorx.ErrTooManyFiles.WithDetail("max", maxFiles))
			return
		}

		title := strings.TrimSpace(formValue(form, "title"))
		if mode.RequireTitle && title == "" {
			u.errs.HandleError(c, errorx.MissingField("title"))
			return
		}

		staged, apiErr := u.inspect(files, mode.Field)
		if apiErr != nil {
			scope.Fail(apiErr)
			u.errs.HandleError(c, apiErr)
			return
		}

		ctx := context.WithoutCancel(c.Request.Context())
		batch, err := u.write(ctx, title, files, staged)
		if err != nil {
			scope.Fail(err)
			u.errs.HandleError(c, errorx.StorageError(err))
			return
		}
		scope.WithAttrs(
			attribute.String("upload.folder", batch.Folder),
			attribute.Int("upload.files", len(batch.Files)),
		)

		c.Set(batchKey, batch)
		c.Next()

		if !batch.Committed() {
			batch.Cleanup(ctx)
			for _, f := range batch.Files {
				u.metrics.UploadFile(metrics.ResultFailed, f.Size)
			}
			return
		}
		// variant files move into the parent folder and leave the staging folder empty
		u.store.RemoveIfEmpty(ctx, batch.Folder)
		for _, f := range batch.Files {
			u.metrics.UploadFile(metrics.ResultAccepted, f.Size)
		}
	}
}

// inspect checks size and type of every file before anything is written
func (u *Uploader) inspect(files []*multipart.FileHeader, field string) ([]*StoredFile, *errorx.APIError) {
	staged := make([]*StoredFile, 0, len(files))
	for _, fh := range files {
		if fh.Size > u.cfg.MaxFileSize {
			u.metrics.UploadFile(metrics.ResultRejected, 0)
			return nil, errorx.ErrPayloadTooLarge.
				WithDetail("file", fh.Filename).
				WithDetail("limit", u.cfg.MaxFileSize)
		}
		declared := fh.Header.Get("Content-Type")
		sniffed, err := sniff(fh)
		if err != nil {
			return nil, errorx.ErrInvalidFormat.WithDetail("file", fh.Filename)
		}
		if !Allowed(fh.Filename, declared, sniffed) {
			u.metrics.UploadFile(metrics.ResultRejected, 0)
			return nil, errorx.ErrUnsupportedFileType.
				WithDetail("file", fh.Filename).
				WithDetail("mime", sniffed)
		}
		staged = append(staged, &StoredFile{
			Field:        field,
			OriginalName: fh.Filename,
			Ext:          Extension(fh.Filename, declared, sniffed),
			Size:         fh.Size,
			DeclaredMIME: declared,
			SniffedMIME:  sniffed,
		})
	}
	return staged, nil
}

func (u *Uploader) write(ctx context.Context, title string, files []*multipart.FileHeader, staged []*StoredFile) (*Batch, error) {
	folder, err := u.createFolder(ctx, title)
	if err != nil {
		return nil, err
	}
	batch := &Batch{Title: title, Folder: folder, store: u.store, logger: u.logger}

	for i, fh := range files {
		f := staged[i]
		f.Folder = folder
		f.Name = fmt.Sprintf("upload_%d%s", i+1, f.Ext)

		src, err := fh.Open()
		if err != nil {
			batch.Cleanup(ctx)
			return nil, err
		}
		n, err := u.store.Save(ctx, folder, f.Name, src)
		_ = src.Close()
		if err != nil {
			batch.Cleanup(ctx)
			return nil, err
		}
		f.Size = n
		batch.Files = append(batch.Files, f)
	}

	u.logger.Debug("upload staged",
		zap.String("folder", folder),
		zap.Int("files", len(batch.Files)))
	return batch, nil
}

func (u *Uploader) createFolder(ctx context.Context, title string) (string, error) {
	now := u.now()
	for attempt := 0; attempt < 5; attempt++ {
		folder := FolderName(title, now.Add(time.Duration(attempt)*time.Millisecond))
		err := u.store.CreateFolder(ctx, folder)
		if err == nil {
			return folder, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return "", err
		}
	}
	return "", fmt.Errorf("folder for %q already exists", title)
}

func sniff(fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	m, err := mimetype.DetectReader(f)
	if err != nil {
		return "", err
	}
	return m.String(), nil
}

func formValue(form *multipart.Form, key string) string {
	if vs := form.Value[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func formError(err error) *errorx.APIError {
	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return errorx.ErrPayloadTooLarge
	}
	return errorx.ErrInvalidFormat.WithDetail("reason", err.Error())
}
