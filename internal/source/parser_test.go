package source

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func grade(v float64) *float64 { return &v }

func obj(name string) *RawObject { return &RawObject{Name: name, Type: "project"} }

func TestDecode_Transactions(t *testing.T) {
	snap := Snapshot{
		Transactions: []RawTransaction{
			{Amount: 1000, CreatedAt: "2024-01-05T10:00:00.123+00:00", Object: obj("go-reloaded")},
			{Amount: 500, CreatedAt: "2024-01-20", Object: obj("ascii-art")},
			{Amount: 200, CreatedAt: "2024-01-21", Object: nil},
			{Amount: 300, CreatedAt: "not-a-date", Object: obj("lem-in")},
			{Amount: -50, CreatedAt: "2024-02-01T00:00:00Z", Object: obj("penalty")},
		},
	}

	res := Decode(snap)

	require.Len(t, res.Transactions, 3)
	assert.Equal(t, int64(1000), res.Transactions[0].Amount)
	assert.Equal(t, "go-reloaded", res.Transactions[0].SubjectName)
	assert.Equal(t, "project", res.Transactions[0].SubjectType)
	assert.Equal(t, time.Date(2024, 1, 5, 10, 0, 0, 123000000, time.UTC), res.Transactions[0].OccurredAt)
	assert.Equal(t, int64(-50), res.Transactions[2].Amount)

	assert.Equal(t, 2, res.ParseErrors)
	assert.Equal(t, 1, res.Reasons[ErrMissingObject])
	assert.Equal(t, 1, res.Reasons[ErrBadTimestamp])
}

func TestDecode_Progress(t *testing.T) {
	snap := Snapshot{
		Progress: []RawProgress{
			{Grade: grade(1.2), UpdatedAt: "2024-03-01T12:00:00Z", Object: obj("lem-in")},
			{Grade: grade(0), UpdatedAt: "2024-03-01T12:00:00Z", Object: obj("forum")},
			{Grade: nil, UpdatedAt: "2024-03-01T12:00:00Z", Object: obj("forum")},
			{Grade: grade(1), UpdatedAt: "2024-03-01T12:00:00Z", Object: &RawObject{Name: "  "}},
			{Grade: grade(1), CreatedAt: "2024-02-01", Object: obj("push-swap")},
		},
	}

	res := Decode(snap)

	require.Len(t, res.Progress, 2)
	assert.Equal(t, "lem-in", res.Progress[0].SubjectName)
	assert.InDelta(t, 1.2, res.Progress[0].Grade, 1e-9)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), res.Progress[1].UpdatedAt)

	assert.Equal(t, 3, res.ParseErrors)
	assert.Equal(t, 2, res.Reasons[ErrBadGrade])
	assert.Equal(t, 1, res.Reasons[ErrMissingSubject])
}

func TestDecode_NilVersusEmpty(t *testing.T) {
	res := Decode(Snapshot{})
	assert.Nil(t, res.Transactions)
	assert.Nil(t, res.Progress)
	assert.Nil(t, res.Audits)

	res = Decode(Snapshot{
		Transactions: []RawTransaction{},
		Progress:     []RawProgress{},
		Results:      []RawResult{},
	})
	assert.NotNil(t, res.Transactions)
	assert.NotNil(t, res.Progress)
	assert.NotNil(t, res.Audits)
	assert.Empty(t, res.Transactions)
	assert.Zero(t, res.ParseErrors)
}

func TestDecode_AuditsAndProfile(t *testing.T) {
	lvl := 12
	res := Decode(Snapshot{
		Profile: RawProfile{ID: 7, Login: "jdoe", FirstName: "Jane", Level: &lvl},
		Results: []RawResult{{Grade: grade(1)}, {Grade: grade(0)}, {Grade: nil}},
	})

	assert.Equal(t, 7, res.Profile.ID)
	assert.Equal(t, 12, res.Profile.PlatformLevel)
	assert.Equal(t, "Jane", res.Profile.DisplayName())
	assert.Len(t, res.Audits, 2)
	assert.Equal(t, 1, res.ParseErrors)
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("2024-06-01T02:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseTimestamp("")
	assert.ErrorIs(t, err, ErrBadTimestamp)
	_, err = ParseTimestamp("yesterday")
	assert.ErrorIs(t, err, ErrBadTimestamp)
}

func TestSnapshotRoundTripOnDisk(t *testing.T) {
	total := int64(4200)
	snap := Snapshot{
		Profile:      RawProfile{ID: 1, Login: "jdoe"},
		TotalXP:      &total,
		Transactions: []RawTransaction{{Amount: 4200, CreatedAt: "2024-01-01", Object: obj("forum")}},
		Progress:     []RawProgress{},
		FetchedAt:    time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
	}
	path := filepath.Join(t.TempDir(), "nested", "snap.json")

	require.NoError(t, WriteSnapshot(path, snap))
	got, err := ReadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, snap.Profile, got.Profile)
	require.NotNil(t, got.TotalXP)
	assert.Equal(t, total, *got.TotalXP)
	assert.Len(t, got.Transactions, 1)
	assert.NotNil(t, got.Progress)
	assert.True(t, snap.FetchedAt.Equal(got.FetchedAt))
}
