package migration

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/farmiq/farmiq/internal/database/testutil"
	"github.com/farmiq/farmiq/internal/models"
)

var seededAt = time.Date(2024, 1, 15, 8, 30, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func seedSource(t *testing.T, db *gorm.DB) {
	t.Helper()

	ts := models.NewTimestamp(seededAt)
	require.NoError(t, db.Create(&[]models.User{
		{ID: 1, Email: "asha@example.com", PasswordHash: "h1", Role: strPtr("farmer"), CreatedAt: ts, UpdatedAt: ts},
		{ID: 2, Email: "ravi@example.com", PasswordHash: "h2", Role: strPtr("vendor"), CreatedAt: ts, UpdatedAt: ts},
	}).Error)
	require.NoError(t, db.Create(&models.Profile{ID: 1, FullName: strPtr("Asha"), CreatedAt: ts, UpdatedAt: ts}).Error)
	require.NoError(t, db.Create(&models.NgoScheme{ID: 1, Name: "PM-KISAN", CreatedAt: ts, UpdatedAt: ts}).Error)
	require.NoError(t, db.Create(&models.IotStatus{UserID: 1, Status: "active", UpdatedAt: ts}).Error)
	require.NoError(t, db.Create(&[]models.ForumPost{
		{ID: 1, UserID: 1, Category: "pests", Question: "Aphids on mustard?", CreatedAt: ts},
		{ID: 2, UserID: 99, Category: "soil", Question: "Orphaned question", CreatedAt: ts},
	}).Error)
	require.NoError(t, db.Create(&[]models.ForumReply{
		{ID: 1, PostID: 1, ReplyText: "Try neem oil", RepliedBy: "expert", CreatedAt: ts},
		{ID: 2, PostID: 2, ReplyText: "Reply to orphan", RepliedBy: "farmer", CreatedAt: ts},
	}).Error)
}

func newStores(t *testing.T) (source, dest *gorm.DB) {
	t.Helper()
	source = testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	dest = testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	seedSource(t, source)
	return source, dest
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

func TestRunCopiesTablesAndSkipsOrphans(t *testing.T) {
	source, dest := newStores(t)
	var out bytes.Buffer

	p, err := New(source, dest, WithOutput(&out), WithBatchSize(1))
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Tables, len(Tables()))

	posts, ok := report.Table(TableForumPosts)
	require.True(t, ok)
	require.Equal(t, 2, posts.Found)
	require.Equal(t, 1, posts.Skipped)
	require.Equal(t, 1, posts.Written)

	replies, ok := report.Table(TableForumReplies)
	require.True(t, ok)
	require.Equal(t, 1, replies.Skipped)
	require.Equal(t, 1, replies.Written)
	require.Equal(t, 2, report.Skipped())

	require.EqualValues(t, 2, countRows(t, dest, &models.User{}))
	require.EqualValues(t, 1, countRows(t, dest, &models.IotStatus{}))

	var user models.User
	require.NoError(t, dest.First(&user, 1).Error)
	require.Equal(t, "asha@example.com", user.Email)
	require.Equal(t, "h1", user.PasswordHash)
	require.True(t, user.CreatedAt.Valid)
	require.True(t, user.CreatedAt.Time.Equal(seededAt), "created_at preserved")
	require.True(t, user.UpdatedAt.Time.Equal(seededAt), "updated_at preserved")

	require.Contains(t, out.String(), "skipped 1 rows in forum_posts")
	require.Contains(t, out.String(), "migration completed")
}

func TestStrictSecondRunFailsOnUsers(t *testing.T) {
	source, dest := newStores(t)

	p, err := New(source, dest, WithMode(ModeStrict))
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrAlreadyMigrated)
	require.Equal(t, TableUsers, report.Failed)
	require.Len(t, report.Tables, 1)
}

func TestUpsertSecondRunConverges(t *testing.T) {
	source, dest := newStores(t)

	p, err := New(source, dest)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, source.Model(&models.User{}).Where("id = ?", 2).Update("email", "ravi.k@example.com").Error)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Failed)

	require.EqualValues(t, 2, countRows(t, dest, &models.User{}))
	require.EqualValues(t, 1, countRows(t, dest, &models.ForumPost{}))

	var user models.User
	require.NoError(t, dest.First(&user, 2).Error)
	require.Equal(t, "ravi.k@example.com", user.Email)
}

func TestRunKeepsNullTimestamps(t *testing.T) {
	source := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	dest := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	require.NoError(t, source.Exec(
		"INSERT INTO users (id, email, password_hash, created_at, updated_at) VALUES (1, 'a@x', 'h', NULL, NULL)",
	).Error)
	require.NoError(t, source.Exec(
		"INSERT INTO forum_posts (id, user_id, category, question, created_at) VALUES (1, 1, 'soil', 'Which crop?', NULL)",
	).Error)

	p, err := New(source, dest)
	require.NoError(t, err)

	for run := 0; run < 2; run++ {
		_, err = p.Run(context.Background())
		require.NoError(t, err)

		var user models.User
		require.NoError(t, dest.First(&user, 1).Error)
		require.False(t, user.CreatedAt.Valid, "created_at stays NULL")
		require.False(t, user.UpdatedAt.Valid, "updated_at stays NULL")

		var post models.ForumPost
		require.NoError(t, dest.First(&post, 1).Error)
		require.False(t, post.CreatedAt.Valid)
	}
}

func TestResumeFromTable(t *testing.T) {
	source, dest := newStores(t)
	require.NoError(t, dest.Create(&models.User{ID: 1, Email: "asha@example.com", PasswordHash: "h1"}).Error)

	var out bytes.Buffer
	p, err := New(source, dest, WithResumeFrom("forum_posts"), WithOutput(&out))
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Tables, 2)
	require.Equal(t, TableForumPosts, report.Tables[0].Table)

	require.EqualValues(t, 1, countRows(t, dest, &models.User{}), "earlier steps skipped")
	require.EqualValues(t, 0, countRows(t, dest, &models.NgoScheme{}))
	require.EqualValues(t, 1, countRows(t, dest, &models.ForumPost{}))
	require.EqualValues(t, 1, countRows(t, dest, &models.ForumReply{}))
	require.Contains(t, out.String(), "skipping users")
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	source, dest := newStores(t)

	_, err := New(source, dest, WithResumeFrom("crops"))
	require.ErrorIs(t, err, ErrUnknownTable)

	_, err = New(source, dest, WithMode(Mode("merge")))
	require.Error(t, err)

	_, err = New(source, nil)
	require.Error(t, err)
}

func TestRunWithoutSource(t *testing.T) {
	dest := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	p, err := New(nil, dest)
	require.NoError(t, err)

	_, err = p.Run(context.Background())
	require.ErrorIs(t, err, ErrNoSource)
}

func TestValidationFailureAbortsPipeline(t *testing.T) {
	source := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	dest := testutil.MustOpenTestDB(t, testutil.WithFarmSchema())
	require.NoError(t, source.Create(&models.User{ID: 1, Email: "", PasswordHash: "h"}).Error)

	p, err := New(source, dest)
	require.NoError(t, err)

	report, err := p.Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "email failed on required")
	require.Equal(t, TableUsers, report.Failed)
	require.EqualValues(t, 0, countRows(t, dest, &models.User{}))
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	source, dest := newStores(t)
	p, err := New(source, dest)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := p.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, TableUsers, report.Failed)
}

func TestParseMode(t *testing.T) {
	mode, err := ParseMode("")
	require.NoError(t, err)
	require.Equal(t, ModeUpsert, mode)

	mode, err = ParseMode("STRICT")
	require.NoError(t, err)
	require.Equal(t, ModeStrict, mode)

	_, err = ParseMode("replace")
	require.Error(t, err)
}
