package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/civicpulse/backend/internal/db"
	"github.com/civicpulse/backend/internal/models"
	"github.com/civicpulse/backend/internal/repository"
	"github.com/jknair0/beforeeach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	sqlDB  *sql.DB
	mock   sqlmock.Sqlmock
	gormDB *gorm.DB
)

func setUp() {
	sqlDB, mock, _ = sqlmock.New()
	gormDB, _ = db.Open(postgres.New(postgres.Config{Conn: sqlDB}))
}

func tearDown() {
	sqlDB.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestCommentListByReport(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "report_comments" WHERE report_id = $1 ORDER BY created_at DESC`)).
			WithArgs("r-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "user_id", "user_name", "content", "created_at"}).
				AddRow("c-2", "r-1", "u-2", "Bo", "second", now).
				AddRow("c-1", "r-1", "u-1", "Al", "first", now.Add(-time.Minute)))

		comments, err := NewCommentRepo(gormDB).ListByReport(context.Background(), "r-1")
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "c-2", comments[0].ID)
		assert.Equal(t, "Bo", comments[0].UserName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportGetNotFound(t *testing.T) {
	it(func() {
		mock.ExpectQuery(`SELECT \* FROM "civic_reports" WHERE id = `).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := NewReportRepo(gormDB).Get(context.Background(), "missing")
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportAppendNoteMissingRow(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE "civic_reports" SET "public_notes"=array_append(`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		_, err := NewReportRepo(gormDB).AppendNote(context.Background(), "missing", "hello", true)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCountsFor(t *testing.T) {
	it(func() {
		now := time.Now()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT report_id, vote_type, COUNT(*) AS total FROM "report_votes" WHERE report_id IN ($1,$2) GROUP BY report_id, vote_type`)).
			WillReturnRows(sqlmock.NewRows([]string{"report_id", "vote_type", "total"}).
				AddRow("r-1", "upvote", 3).
				AddRow("r-1", "downvote", 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "report_votes" WHERE report_id IN ($1,$2) AND user_id = $3`)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "report_id", "user_id", "vote_type", "created_at", "updated_at"}).
				AddRow("v-1", "r-1", "u-1", "downvote", now, now))

		counts, err := NewVoteRepo(gormDB).CountsFor(context.Background(), []string{"r-1", "r-2"}, "u-1")
		require.NoError(t, err)

		assert.Equal(t, 3, counts["r-1"].Upvotes)
		assert.Equal(t, 1, counts["r-1"].Downvotes)
		require.NotNil(t, counts["r-1"].UserVote)
		assert.Equal(t, models.VoteDown, *counts["r-1"].UserVote)

		assert.Equal(t, models.VoteCounts{}, counts["r-2"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCountsAnonymousSkipsUserLookup(t *testing.T) {
	it(func() {
		mock.ExpectQuery(`SELECT report_id, vote_type, COUNT\(\*\) AS total FROM "report_votes"`).
			WillReturnRows(sqlmock.NewRows([]string{"report_id", "vote_type", "total"}).
				AddRow("r-1", "upvote", 2))

		counts, err := NewVoteRepo(gormDB).Counts(context.Background(), "r-1", "")
		require.NoError(t, err)
		assert.Equal(t, 2, counts.Net())
		assert.Nil(t, counts.UserVote)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

var voteColumns = []string{"id", "report_id", "user_id", "vote_type", "created_at", "updated_at"}

func expectLockedVote(rows *sqlmock.Rows) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "report_votes" WHERE report_id = $1 AND user_id = $2 LIMIT $3 FOR UPDATE`)).
		WithArgs("r-1", "u-1", 1).
		WillReturnRows(rows)
}

func TestVoteCastInsertsWithUpsert(t *testing.T) {
	it(func() {
		expectLockedVote(sqlmock.NewRows(voteColumns))
		mock.ExpectExec(`INSERT INTO "report_votes" .* ON CONFLICT \("report_id","user_id"\) DO UPDATE SET "vote_type"="excluded"."vote_type"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		action, err := NewVoteRepo(gormDB).Cast(context.Background(), "r-1", "u-1", models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteInserted, action)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCastSameTypeDeletes(t *testing.T) {
	it(func() {
		now := time.Now()
		expectLockedVote(sqlmock.NewRows(voteColumns).AddRow("v-1", "r-1", "u-1", "upvote", now, now))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "report_votes" WHERE id = $1`)).
			WithArgs("v-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		action, err := NewVoteRepo(gormDB).Cast(context.Background(), "r-1", "u-1", models.VoteUp)
		require.NoError(t, err)
		assert.Equal(t, models.VoteRemoved, action)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCastOppositeTypeUpdates(t *testing.T) {
	it(func() {
		now := time.Now()
		expectLockedVote(sqlmock.NewRows(voteColumns).AddRow("v-1", "r-1", "u-1", "upvote", now, now))
		mock.ExpectExec(`UPDATE "report_votes" SET "vote_type"=\$1,"updated_at"=\$2 WHERE .*"id" = \$3`).
			WithArgs("downvote", sqlmock.AnyArg(), "v-1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		action, err := NewVoteRepo(gormDB).Cast(context.Background(), "r-1", "u-1", models.VoteDown)
		require.NoError(t, err)
		assert.Equal(t, models.VoteChanged, action)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestVoteCastRollsBackOnLockFailure(t *testing.T) {
	it(func() {
		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "report_votes" .* FOR UPDATE`).
			WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		_, err := NewVoteRepo(gormDB).Cast(context.Background(), "r-1", "u-1", models.VoteUp)
		assert.ErrorContains(t, err, "lock timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportSave(t *testing.T) {
	it(func() {
		report := &models.Report{ID: "r-1", Title: "Pothole", Description: "Deep", Category: "Roads",
			Status: models.StatusAcknowledged, Priority: models.PriorityHigh}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "civic_reports" SET .*"status"=.* WHERE .*"id" = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, NewReportRepo(gormDB).Save(context.Background(), report))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestReportSaveMissingRow(t *testing.T) {
	it(func() {
		report := &models.Report{ID: "missing", Title: "Pothole", Category: "Roads"}

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "civic_reports" SET .* WHERE .*"id" = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		err := NewReportRepo(gormDB).Save(context.Background(), report)
		assert.ErrorIs(t, err, repository.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
