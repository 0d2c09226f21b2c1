package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amoylab/choirhub/internal/common/cnst"
	"github.com/amoylab/choirhub/internal/common/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *GormDB {
	t.Helper()
	db, err := NewDatabase(&config.DatabaseConfig{Type: "sqlite", DBName: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.EnsureRoles(context.Background()))
	return db
}

func createUser(t *testing.T, db *GormDB, username string, roles ...cnst.RoleName) *User {
	t.Helper()
	ctx := context.Background()
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		names = append(names, string(r))
	}
	rs, err := db.GetRolesByNames(ctx, names)
	require.NoError(t, err)
	u := &User{Email: username + "@example.com", Username: username, Password: "x", IsActive: true, Roles: rs}
	require.NoError(t, db.CreateUser(ctx, u))
	return u
}

func TestEnsureRoles_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	require.NoError(t, db.EnsureRoles(ctx))
	roles, err := db.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(cnst.DefaultRoles))
}

func TestUsers_RolesAndFilters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	admin := createUser(t, db, "ana", cnst.RoleAdmin)
	singer := createUser(t, db, "bruno", cnst.RoleSinger, cnst.RoleMember)

	got, err := db.GetUserByLogin(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, admin.ID, got.ID)
	assert.Equal(t, []string{"admin"}, got.RoleNames())

	got, err = db.GetUserByLogin(ctx, "bruno")
	require.NoError(t, err)
	assert.True(t, got.HasAnyRole("singer"))
	assert.False(t, got.HasAnyRole("admin", "director"))

	exists, err := db.UserExists(ctx, "ana@example.com", "nobody", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = db.UserExists(ctx, "ana@example.com", "ana", admin.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	dup := &User{Email: "ana@example.com", Username: "other", Password: "x", IsActive: true}
	err = db.CreateUser(ctx, dup)
	assert.Error(t, err)

	users, err := db.ListUsers(ctx, UserFilter{Role: "singer"})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, singer.ID, users[0].ID)

	require.NoError(t, db.CreateVoiceProfile(ctx, &VoiceProfile{UserID: singer.ID, VoiceType: "tenor", IsPrimary: true}))
	require.NoError(t, db.CreateVoiceProfile(ctx, &VoiceProfile{UserID: singer.ID, VoiceType: "bass", IsPrimary: true}))
	err = db.CreateVoiceProfile(ctx, &VoiceProfile{UserID: singer.ID, VoiceType: "tenor"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	profiles, err := db.ListVoiceProfiles(ctx, singer.ID)
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.False(t, profiles[0].IsPrimary)
	assert.True(t, profiles[1].IsPrimary)

	users, err = db.ListUsers(ctx, UserFilter{VoiceType: "tenor"})
	require.NoError(t, err)
	assert.Len(t, users, 1)

	assert.NoError(t, db.DeleteVoiceProfile(ctx, singer.ID, "tenor"))
	assert.ErrorIs(t, db.DeleteVoiceProfile(ctx, singer.ID, "tenor"), gorm.ErrRecordNotFound)

	director, err := db.GetRolesByNames(ctx, []string{"director"})
	require.NoError(t, err)
	require.NoError(t, db.ReplaceUserRoles(ctx, singer.ID, director))
	got, err = db.GetUserByID(ctx, singer.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"director"}, got.RoleNames())

	require.NoError(t, db.SetUserActive(ctx, singer.ID, false))
	inactive := false
	users, err = db.ListUsers(ctx, UserFilter{Active: &inactive})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.ErrorIs(t, db.SetUserActive(ctx, 999, false), gorm.ErrRecordNotFound)
}

func TestSongs_VariantsAndSoftDelete(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	parent := &Song{Title: "Ave Maria", Folder: "ave_maria_1", IsActive: true}
	require.NoError(t, db.CreateSong(ctx, parent))
	for _, v := range []string{"tenor", "soprano"} {
		child := &Song{Title: "Ave Maria", Folder: "ave_maria_1", FileName: "ave_maria_" + v + ".mp3", VoiceType: v, ParentSongID: &parent.ID, IsActive: true}
		require.NoError(t, db.CreateSong(ctx, child))
	}
	other := &Song{Title: "Gloria", FileName: "gloria.mp3", Folder: "gloria_2", IsActive: true}
	require.NoError(t, db.CreateSong(ctx, other))

	got, err := db.GetSong(ctx, parent.ID)
	require.NoError(t, err)
	assert.True(t, got.IsContainer())
	require.Len(t, got.Variants, 2)
	assert.Equal(t, "soprano", got.Variants[0].VoiceType)

	exists, err := db.VariantExists(ctx, parent.ID, "tenor")
	require.NoError(t, err)
	assert.True(t, exists)

	top, err := db.ListSongs(ctx, SongFilter{TopLevelOnly: true})
	require.NoError(t, err)
	assert.Len(t, top, 2)

	byVoice, err := db.ListSongs(ctx, SongFilter{VoiceType: "tenor", TopLevelOnly: true})
	require.NoError(t, err)
	require.Len(t, byVoice, 1)
	assert.Equal(t, parent.ID, byVoice[0].ID)

	search, err := db.ListSongs(ctx, SongFilter{Search: "glo"})
	require.NoError(t, err)
	assert.Len(t, search, 1)

	affected, err := db.DeactivateSong(ctx, parent.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)

	_, err = db.GetSong(ctx, parent.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	_, err = db.DeactivateSong(ctx, parent.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	folders, err := db.ReferencedFolders(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"ave_maria_1", "gloria_2"}, folders)
}

func TestPlaylists_Order(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	owner := createUser(t, db, "carla", cnst.RoleMember)

	var songs []*Song
	for _, title := range []string{"a", "b", "c"} {
		s := &Song{Title: title, FileName: title + ".mp3", IsActive: true}
		require.NoError(t, db.CreateSong(ctx, s))
		songs = append(songs, s)
	}

	pl := &Playlist{Name: "Ensayo", OwnerID: owner.ID, IsActive: true}
	require.NoError(t, db.CreatePlaylist(ctx, pl))
	for _, s := range songs {
		item, err := db.AddPlaylistItem(ctx, pl.ID, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, item.Song.ID)
	}
	_, err := db.AddPlaylistItem(ctx, pl.ID, songs[0].ID)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, db.RemovePlaylistItem(ctx, pl.ID, songs[0].ID))
	got, err := db.GetPlaylist(ctx, pl.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, 1, got.Items[0].Position)
	assert.Equal(t, songs[1].ID, got.Items[0].SongID)
	assert.Equal(t, 2, got.Items[1].Position)

	require.NoError(t, db.ReorderPlaylist(ctx, pl.ID, []uint{songs[2].ID, songs[1].ID}))
	got, err = db.GetPlaylist(ctx, pl.ID)
	require.NoError(t, err)
	assert.Equal(t, songs[2].ID, got.Items[0].SongID)
	assert.Equal(t, songs[1].ID, got.Items[1].SongID)

	assert.ErrorIs(t, db.ReorderPlaylist(ctx, pl.ID, []uint{songs[2].ID}), ErrInvalidOrder)
	assert.ErrorIs(t, db.ReorderPlaylist(ctx, pl.ID, []uint{songs[2].ID, songs[2].ID}), ErrInvalidOrder)

	other := createUser(t, db, "dario", cnst.RoleMember)
	public := &Playlist{Name: "Pública", OwnerID: other.ID, IsPublic: true, IsActive: true}
	require.NoError(t, db.CreatePlaylist(ctx, public))

	mine, err := db.ListPlaylists(ctx, PlaylistFilter{OwnerID: owner.ID})
	require.NoError(t, err)
	assert.Len(t, mine, 1)
	visible, err := db.ListPlaylists(ctx, PlaylistFilter{OwnerID: owner.ID, IncludePublic: true})
	require.NoError(t, err)
	assert.Len(t, visible, 2)

	require.NoError(t, db.DeactivatePlaylist(ctx, pl.ID))
	_, err = db.GetPlaylist(ctx, pl.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestLyrics_VoiceScope(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	song := &Song{Title: "Kyrie", FileName: "kyrie.mp3", IsActive: true}
	require.NoError(t, db.CreateSong(ctx, song))

	lines := []*Lyric{
		{SongID: song.ID, Content: "Kyrie", LineOrder: 1, IsActive: true},
		{SongID: song.ID, Content: "eleison (tenor)", VoiceType: "tenor", LineOrder: 2, IsActive: true},
		{SongID: song.ID, Content: "eleison (alto)", VoiceType: "alto", LineOrder: 2, IsActive: true},
	}
	for _, l := range lines {
		require.NoError(t, db.CreateLyric(ctx, l))
	}

	tenor, err := db.ListLyrics(ctx, song.ID, "tenor")
	require.NoError(t, err)
	require.Len(t, tenor, 2)
	assert.Equal(t, "Kyrie", tenor[0].Content)
	assert.Equal(t, "eleison (tenor)", tenor[1].Content)

	all, err := db.ListLyrics(ctx, song.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, db.DeactivateLyric(ctx, lines[2].ID))
	count, err := db.CountLyrics(ctx, song.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestEvents_ProgramAndUpcoming(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	loc := &Location{Name: "Catedral", City: "Lima", IsActive: true}
	require.NoError(t, db.CreateLocation(ctx, loc))

	past := &Event{Title: "Pasado", Date: now.Add(-48 * time.Hour), LocationID: &loc.ID, IsActive: true}
	soon := &Event{Title: "Pronto", Date: now.Add(24 * time.Hour), IsActive: true}
	later := &Event{Title: "Luego", Date: now.Add(72 * time.Hour), IsActive: true}
	for _, e := range []*Event{past, soon, later} {
		require.NoError(t, db.CreateEvent(ctx, e))
	}

	upcoming, err := db.ListEvents(ctx, EventFilter{Upcoming: true, Now: now})
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "Pronto", upcoming[0].Title)
	assert.Equal(t, "Luego", upcoming[1].Title)

	byLoc, err := db.ListEvents(ctx, EventFilter{LocationID: &loc.ID})
	require.NoError(t, err)
	require.Len(t, byLoc, 1)
	assert.Equal(t, "Catedral", byLoc[0].Location.Name)

	s1 := &Song{Title: "uno", FileName: "uno.mp3", IsActive: true}
	s2 := &Song{Title: "dos", FileName: "dos.mp3", IsActive: true}
	require.NoError(t, db.CreateSong(ctx, s1))
	require.NoError(t, db.CreateSong(ctx, s2))
	_, err = db.AddEventSong(ctx, soon.ID, s1.ID, "")
	require.NoError(t, err)
	entry, err := db.AddEventSong(ctx, soon.ID, s2.ID, "final")
	require.NoError(t, err)
	assert.Equal(t, 2, entry.Position)

	singer := createUser(t, db, "elena", cnst.RoleSinger)
	solo := &Soloist{EventID: soon.ID, UserID: singer.ID, SongID: &s2.ID, VoiceType: "soprano"}
	require.NoError(t, db.AddSoloist(ctx, solo))
	assert.Equal(t, "elena", solo.User.Username)

	require.NoError(t, db.RemoveEventSong(ctx, soon.ID, s1.ID))
	got, err := db.GetEvent(ctx, soon.ID)
	require.NoError(t, err)
	require.Len(t, got.Songs, 1)
	assert.Equal(t, 1, got.Songs[0].Position)
	require.Len(t, got.Soloists, 1)

	assert.ErrorIs(t, db.RemoveSoloist(ctx, later.ID, solo.ID), gorm.ErrRecordNotFound)
	require.NoError(t, db.RemoveSoloist(ctx, soon.ID, solo.ID))

	stats, err := db.Stats(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Events)
	assert.Equal(t, int64(2), stats.UpcomingEvents)
	assert.Equal(t, int64(1), stats.Users)
	assert.Equal(t, int64(2), stats.Songs)
	assert.Equal(t, int64(1), stats.Locations)
}

func TestTransaction_RollbackAndNesting(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.Transaction(ctx, func(ctx context.Context) error {
		require.NoError(t, db.CreateLocation(ctx, &Location{Name: "A", IsActive: true}))
		return db.Transaction(ctx, func(ctx context.Context) error {
			require.NotNil(t, TransactionFromContext(ctx))
			require.NoError(t, db.CreateLocation(ctx, &Location{Name: "B", IsActive: true}))
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	locations, err := db.ListLocations(ctx, LocationFilter{})
	require.NoError(t, err)
	assert.Empty(t, locations)
}

func TestSeed(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	cfg := config.SuperAdminConfig{Username: "root", Password: "secret123"}

	created, err := InitSuperAdmin(ctx, db, cfg)
	require.NoError(t, err)
	assert.True(t, created)
	created, err = InitSuperAdmin(ctx, db, cfg)
	require.NoError(t, err)
	assert.False(t, created)

	admin, err := db.GetUserByLogin(ctx, "root")
	require.NoError(t, err)
	assert.True(t, admin.HasAnyRole(string(cnst.RoleAdmin)))
	assert.Equal(t, "root@choirhub.local", admin.Email)

	require.NoError(t, SeedDemo(ctx, db))
	require.NoError(t, SeedDemo(ctx, db))
	locations, err := db.ListLocations(ctx, LocationFilter{})
	require.NoError(t, err)
	assert.Len(t, locations, len(demoLocations))
}
