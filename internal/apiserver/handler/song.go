package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/amoylab/choirhub/internal/apiserver/cache"
	"github.com/amoylab/choirhub/internal/apiserver/database"
	"github.com/amoylab/choirhub/internal/apiserver/middleware"
	"github.com/amoylab/choirhub/internal/apiserver/upload"
	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/dto"
	"github.com/amoylab/choirhub/internal/common/errorx"
	"github.com/amoylab/choirhub/pkg/trace"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type Song struct {
	db     database.Database
	store  *upload.Store
	stats  *cache.StatsCache
	errs   *errorx.ErrorHandler
	logger *zap.Logger
	now    func() time.Time
}

func NewSong(db database.Database, store *upload.Store, stats *cache.StatsCache, errs *errorx.ErrorHandler, logger *zap.Logger) *Song {
	return &Song{
		db:     db,
		store:  store,
		stats:  stats,
		errs:   errs,
		logger: logger.Named("handler.song"),
		now:    time.Now,
	}
}

type songDetail struct {
	*database.Song
	LyricsCount int64 `json:"lyricsCount"`
}

// List returns active songs. Top-level rows carry their active variants.
func (h *Song) List(c *gin.Context) {
	parentID, err := queryUint(c, "parentId")
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	containers, err := queryBool(c, "containers")
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	voice, err := voiceType(c.Query("voiceType"))
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	filter := database.SongFilter{
		VoiceType:    voice,
		Genre:        strings.TrimSpace(c.Query("genre")),
		Category:     strings.TrimSpace(c.Query("category")),
		Artist:       strings.TrimSpace(c.Query("artist")),
		Search:       strings.TrimSpace(c.Query("search")),
		ParentID:     parentID,
		TopLevelOnly: containers != nil && *containers,
	}
	if mine, _ := queryBool(c, "mine"); mine != nil && *mine {
		id := middleware.CurrentUser(c).ID
		filter.UploadedByID = &id
	}

	songs, err := h.db.ListSongs(c.Request.Context(), filter)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, songs)
}

func (h *Song) Get(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	song, err := h.db.GetSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "song", id))
		return
	}
	count, err := h.db.CountLyrics(ctx, id)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, songDetail{Song: song, LyricsCount: count})
}

// metadata reads the non-file form fields of an upload
func (h *Song) metadata(c *gin.Context) (*dto.SongMetadata, bool) {
	var meta dto.SongMetadata
	if err := c.ShouldBindWith(&meta, binding.FormMultipart); err != nil {
		h.errs.HandleError(c, errorx.ErrInvalidFormat.WithDetail("reason", err.Error()))
		return nil, false
	}
	meta.Title = strings.TrimSpace(meta.Title)
	return &meta, true
}

func (h *Song) songFromUpload(meta *dto.SongMetadata, f *upload.StoredFile, voice string, uploader uint) *database.Song {
	return &database.Song{
		Title:        meta.Title,
		Artist:       strings.TrimSpace(meta.Artist),
		Album:        strings.TrimSpace(meta.Album),
		Genre:        strings.TrimSpace(meta.Genre),
		Category:     strings.TrimSpace(meta.Category),
		FileName:     f.Name,
		FilePath:     f.Folder + "/" + f.Name,
		Folder:       f.Folder,
		FileSize:     f.Size,
		MimeType:     f.ContentType(),
		VoiceType:    voice,
		UploadedByID: &uploader,
		IsActive:     true,
	}
}

// commit runs the database phase of an upload. The batch is kept on disk
// only when fn succeeds.
func (h *Song) commit(ctx context.Context, batch *upload.Batch, fn func(ctx context.Context) error) error {
	scope := trace.Tracer(cnst.TraceUpload).Start(ctx, cnst.SpanUploadCommit)
	defer scope.End()
	scope.WithAttrs(attribute.String("upload.folder", batch.Folder), attribute.Int("upload.files", len(batch.Files)))

	if err := h.db.Transaction(scope.Ctx, fn); err != nil {
		scope.Fail(err)
		return err
	}
	batch.Commit()
	h.stats.Invalidate(ctx)
	return nil
}

// Upload registers one audio file as a song
func (h *Song) Upload(c *gin.Context) {
	batch := upload.BatchFromContext(c)
	meta, ok := h.metadata(c)
	if !ok {
		return
	}
	voice, err := voiceType(meta.VoiceType)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	f := batch.Files[0]

	if err := batch.Rename(ctx, f, batch.Folder, upload.FileName(meta.Title, voice, f.Ext)); err != nil {
		h.errs.HandleError(c, errorx.StorageError(err))
		return
	}

	song := h.songFromUpload(meta, f, voice, middleware.CurrentUser(c).ID)
	if err := h.commit(ctx, batch, func(ctx context.Context) error {
		return h.db.CreateSong(ctx, song)
	}); err != nil {
		h.errs.HandleError(c, err)
		return
	}

	h.logger.Info("song uploaded",
		zap.Uint("song_id", song.ID),
		zap.String("folder", song.Folder),
		zap.String("file", song.FileName))
	c.JSON(http.StatusCreated, song)
}

// voiceAssignments maps every file of the batch to a distinct voice type
func voiceAssignments(raw string, batch *upload.Batch) (map[*upload.StoredFile]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, errorx.ErrMissingVoiceAssignment.WithDetail("field", "voiceAssignments")
	}
	var assignments map[string]string
	if err := json.Unmarshal([]byte(raw), &assignments); err != nil {
		return nil, errorx.ErrInvalidFormat.WithDetail("field", "voiceAssignments").WithDetail("reason", err.Error())
	}

	// clients may key by the path they picked the file from
	byFile := make(map[*upload.StoredFile]string, len(assignments))
	for name, voice := range assignments {
		f := batch.File(name)
		if f == nil {
			continue
		}
		if _, dup := byFile[f]; dup {
			return nil, errorx.ValidationError("voiceAssignments", "file "+f.OriginalName+" is assigned twice")
		}
		byFile[f] = voice
	}

	out := make(map[*upload.StoredFile]string, len(batch.Files))
	seen := make(map[string]string, len(batch.Files))
	for _, f := range batch.Files {
		raw, ok := byFile[f]
		if !ok || strings.TrimSpace(raw) == "" {
			return nil, errorx.ErrMissingVoiceAssignment.WithDetail("file", f.OriginalName)
		}
		v, ok := cnst.ParseVoiceType(raw)
		if !ok {
			return nil, errorx.ErrMissingVoiceAssignment.WithDetail("file", f.OriginalName).
				WithDetail("voiceType", raw)
		}
		if other, dup := seen[string(v)]; dup {
			return nil, errorx.ValidationError("voiceAssignments", "voice type "+string(v)+" is assigned twice").
				WithDetail("files", []string{other, f.OriginalName})
		}
		seen[string(v)] = f.OriginalName
		out[f] = string(v)
	}
	return out, nil
}

// UploadMultiple registers a container song with one variant per file
func (h *Song) UploadMultiple(c *gin.Context) {
	batch := upload.BatchFromContext(c)
	meta, ok := h.metadata(c)
	if !ok {
		return
	}
	voices, err := voiceAssignments(meta.VoiceAssignments, batch)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()

	for _, f := range batch.Files {
		if err := batch.Rename(ctx, f, batch.Folder, upload.FileName(meta.Title, voices[f], f.Ext)); err != nil {
			h.errs.HandleError(c, errorx.StorageError(err))
			return
		}
	}

	uploader := middleware.CurrentUser(c).ID
	container := &database.Song{
		Title:        meta.Title,
		Artist:       strings.TrimSpace(meta.Artist),
		Album:        strings.TrimSpace(meta.Album),
		Genre:        strings.TrimSpace(meta.Genre),
		Category:     strings.TrimSpace(meta.Category),
		Folder:       batch.Folder,
		UploadedByID: &uploader,
		IsActive:     true,
	}
	err = h.commit(ctx, batch, func(ctx context.Context) error {
		if err := h.db.CreateSong(ctx, container); err != nil {
			return err
		}
		for _, f := range batch.Files {
			child := h.songFromUpload(meta, f, voices[f], uploader)
			child.ParentSongID = &container.ID
			if err := h.db.CreateSong(ctx, child); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	created, err := h.db.GetSong(ctx, container.ID)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.logger.Info("song variants uploaded",
		zap.Uint("song_id", created.ID),
		zap.String("folder", created.Folder),
		zap.Int("variants", len(created.Variants)))
	c.JSON(http.StatusCreated, created)
}

// AddVariant stores one more voice variant in the folder of an existing song
func (h *Song) AddVariant(c *gin.Context) {
	batch := upload.BatchFromContext(c)
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	voice, err := voiceType(c.PostForm("voiceType"))
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if voice == "" {
		h.errs.HandleError(c, errorx.MissingField("voiceType"))
		return
	}

	parent, err := h.db.GetSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "song", id))
		return
	}
	if parent.ParentSongID != nil {
		h.errs.HandleError(c, errorx.ValidationError("id", "song is itself a variant"))
		return
	}
	if !parent.IsContainer() {
		h.errs.HandleError(c, errorx.ValidationError("id", "song has its own audio file").
			WithMessage("song %d has its own audio file and cannot take variants", parent.ID))
		return
	}
	user := middleware.CurrentUser(c)
	if !isManager(user) && !owns(user, parent) {
		h.errs.HandleError(c, errorx.ErrForbidden)
		return
	}
	exists, err := h.db.VariantExists(ctx, parent.ID, voice)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	if exists {
		h.errs.HandleError(c, errorx.ConflictError("song", "voiceType", voice))
		return
	}

	f := batch.Files[0]
	folder := parent.Folder
	if folder == "" {
		folder = batch.Folder
	}
	name := upload.FileName(parent.Title, voice, f.Ext)
	err = batch.Rename(ctx, f, folder, name)
	if errors.Is(err, os.ErrExist) {
		// an inactive variant with the same voice still owns the name
		name = strings.TrimSuffix(name, f.Ext) + "_" + strconv.FormatInt(h.now().UnixMilli(), 10) + f.Ext
		err = batch.Rename(ctx, f, folder, name)
	}
	if err != nil {
		h.errs.HandleError(c, errorx.StorageError(err))
		return
	}

	meta := &dto.SongMetadata{
		Title:    parent.Title,
		Artist:   parent.Artist,
		Album:    parent.Album,
		Genre:    parent.Genre,
		Category: parent.Category,
	}
	variant := h.songFromUpload(meta, f, voice, user.ID)
	variant.ParentSongID = &parent.ID
	err = h.commit(ctx, batch, func(ctx context.Context) error {
		if parent.Folder == "" {
			parent.Folder = folder
			if err := h.db.UpdateSong(ctx, parent); err != nil {
				return err
			}
		}
		return h.db.CreateSong(ctx, variant)
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func owns(u *database.User, s *database.Song) bool {
	return u != nil && s.UploadedByID != nil && *s.UploadedByID == u.ID
}

// parentFor checks that a song may hang below parentID
func (h *Song) parentFor(ctx context.Context, parentID uint, childID uint) error {
	if parentID == childID {
		return errorx.ValidationError("parentSongId", "a song cannot be its own parent")
	}
	parent, err := h.db.GetSong(ctx, parentID)
	if err != nil {
		return notFound(err, "song", parentID)
	}
	if parent.ParentSongID != nil {
		return errorx.ValidationError("parentSongId", "parent song is itself a variant")
	}
	return nil
}

// Create adds a song row without audio, typically a container
func (h *Song) Create(c *gin.Context) {
	var req dto.CreateSongRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	voice, err := voiceType(req.VoiceType)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	ctx := c.Request.Context()
	uploader := middleware.CurrentUser(c).ID
	song := &database.Song{
		Title:        strings.TrimSpace(req.Title),
		Artist:       strings.TrimSpace(req.Artist),
		Album:        strings.TrimSpace(req.Album),
		Genre:        strings.TrimSpace(req.Genre),
		Category:     strings.TrimSpace(req.Category),
		VoiceType:    voice,
		ParentSongID: req.ParentSongID,
		UploadedByID: &uploader,
		IsActive:     true,
	}
	err = h.db.Transaction(ctx, func(ctx context.Context) error {
		if song.ParentSongID != nil {
			if err := h.parentFor(ctx, *song.ParentSongID, 0); err != nil {
				return err
			}
		}
		return h.db.CreateSong(ctx, song)
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusCreated, song)
}

// Update changes metadata of a song owned by the caller, or of any song for
// admins and directors
func (h *Song) Update(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	var req dto.UpdateSongRequest
	if !bindJSON(c, h.errs, &req) {
		return
	}
	ctx := c.Request.Context()

	song, err := h.db.GetSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "song", id))
		return
	}
	user := middleware.CurrentUser(c)
	if !isManager(user) && !owns(user, song) {
		h.errs.HandleError(c, errorx.ErrForbidden)
		return
	}

	if v := trimPtr(req.Title); v != nil {
		song.Title = *v
	}
	if v := trimPtr(req.Artist); v != nil {
		song.Artist = *v
	}
	if v := trimPtr(req.Album); v != nil {
		song.Album = *v
	}
	if v := trimPtr(req.Genre); v != nil {
		song.Genre = *v
	}
	if v := trimPtr(req.Category); v != nil {
		song.Category = *v
	}
	if req.VoiceType != nil {
		voice, err := voiceType(*req.VoiceType)
		if err != nil {
			h.errs.HandleError(c, err)
			return
		}
		song.VoiceType = voice
	}

	err = h.db.Transaction(ctx, func(ctx context.Context) error {
		if req.ParentSongID != nil {
			if len(song.Variants) > 0 {
				return errorx.ValidationError("parentSongId", "a song with variants cannot become a variant")
			}
			if err := h.parentFor(ctx, *req.ParentSongID, song.ID); err != nil {
				return err
			}
			song.ParentSongID = req.ParentSongID
		}
		return h.db.UpdateSong(ctx, song)
	})
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}

	updated, err := h.db.GetSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, err)
		return
	}
	h.stats.Invalidate(ctx)
	c.JSON(http.StatusOK, updated)
}

// Delete deactivates a song and its variants. Files stay on disk.
func (h *Song) Delete(c *gin.Context) {
	id, ok := paramID(c, h.errs, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	song, err := h.db.GetSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "song", id))
		return
	}
	user := middleware.CurrentUser(c)
	if !isAdmin(user) && !owns(user, song) {
		h.errs.HandleError(c, errorx.ErrForbidden)
		return
	}

	affected, err := h.db.DeactivateSong(ctx, id)
	if err != nil {
		h.errs.HandleError(c, notFound(err, "song", id))
		return
	}
	h.stats.Invalidate(ctx)
	h.logger.Info("song deactivated", zap.Uint("song_id", id), zap.Int64("rows", affected))
	c.JSON(http.StatusOK, gin.H{"success": true, "deactivated": affected})
}

// File streams a stored file. Range requests are answered with 206.
func (h *Song) File(c *gin.Context) {
	folder, name := c.Param("folder"), c.Param("file")
	file, info, err := h.store.Open(c.Request.Context(), folder, name)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrInvalidPath):
			h.errs.HandleError(c, errorx.ValidationError("path", "invalid file path"))
		case errors.Is(err, os.ErrNotExist):
			h.errs.HandleError(c, errorx.NotFoundError("file", folder+"/"+name))
		default:
			h.errs.HandleError(c, errorx.StorageError(err))
		}
		return
	}
	defer file.Close()

	c.Header("Content-Type", upload.ContentType(name))
	c.Header("Accept-Ranges", "bytes")
	http.ServeContent(c.Writer, c.Request, name, info.ModTime(), file)
}
