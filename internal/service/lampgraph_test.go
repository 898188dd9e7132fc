package service

import (
	"context"
	"database/sql"
	"testing"

	"lampview/internal/domain"
	"lampview/internal/reconcile"
	"lampview/internal/repository"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildRecon(t *testing.T, songs []domain.TableSong) *reconcile.Map {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec("CREATE TABLE song (md5 TEXT, sha256 TEXT, title TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO song VALUES ('m1', 's1', 'Alpha'), ('m2', 's2', 'Beta')")
	require.NoError(t, err)

	songRepo := repository.NewSongDataRepository(db, zerolog.Nop())
	return reconcile.Build(context.Background(), songs, songRepo, zerolog.Nop())
}

func TestClassifyOwnershipTiers(t *testing.T) {
	songs := []domain.TableSong{
		{Md5: "m1", Title: "Alpha", Level: "1"},       // owned, played
		{Md5: "m2", Title: "Beta", Level: "1"},        // owned, never played
		{Sha256: "s3", Title: "Gamma", Level: "1"},     // carries a hash but not installed
		{Md5: "m-unknown", Title: "Delta", Level: "1"}, // unresolvable
	}
	recon := buildRecon(t, songs)

	owned := map[string]bool{"s1": true, "s2": true}
	scores := map[string]domain.ScoreRow{
		"s1": {Sha256: "s1", Clear: domain.LampHard, MinBP: 3, Epg: 100, Lpg: 50, Egr: 20, Lgr: 10, Egd: 5},
	}

	charts := Classify(songs, recon, owned, scores)
	require.Len(t, charts, 4)

	played := charts[0]
	assert.True(t, played.Owned)
	assert.Equal(t, domain.LampHard, played.Lamp)
	require.NotNil(t, played.MinBP)
	assert.Equal(t, 3, *played.MinBP)
	assert.Equal(t, 180, played.Points)

	unplayed := charts[1]
	assert.True(t, unplayed.Owned)
	assert.Equal(t, domain.LampNoPlay, unplayed.Lamp)
	assert.Nil(t, unplayed.MinBP)

	notInstalled := charts[2]
	assert.False(t, notInstalled.Owned)
	assert.Equal(t, domain.LampNoChart, notInstalled.Lamp)

	unresolved := charts[3]
	assert.False(t, unresolved.Owned)
	assert.Equal(t, "", unresolved.Sha256)
	assert.Equal(t, domain.LampNoChart, unresolved.Lamp)
}

func TestMergeModeScoresSelectedWins(t *testing.T) {
	defaults := map[string]domain.ScoreRow{
		"s1": {Sha256: "s1", Mode: domain.ModeDefault, Clear: domain.LampFullCombo, MinBP: 0},
		"s2": {Sha256: "s2", Mode: domain.ModeDefault, Clear: domain.LampEasy, MinBP: 9},
	}
	selected := map[string]domain.ScoreRow{
		"s1": {Sha256: "s1", Mode: domain.ModeCharge, Clear: domain.LampFailed, MinBP: 40},
		"s3": {Sha256: "s3", Mode: domain.ModeCharge, Clear: domain.LampHard, MinBP: 2},
	}

	merged := MergeModeScores(defaults, selected)

	// selected overrides s1 even though the lamp is worse
	assert.Equal(t, domain.LampFailed, merged["s1"].Clear)
	// s2 keeps the default row, s3 comes from the variant only
	assert.Equal(t, domain.LampEasy, merged["s2"].Clear)
	assert.Equal(t, domain.LampHard, merged["s3"].Clear)
}

func TestDistributeGroupsAndOrders(t *testing.T) {
	charts := []domain.Classification{
		{Title: "b", Level: "2", Lamp: domain.LampHard},
		{Title: "a", Level: "2", Lamp: domain.LampHard},
		{Title: "c", Level: "2", Lamp: domain.LampNoChart},
		{Title: "d", Level: "10", Lamp: domain.LampEasy},
		{Title: "e", Level: "1", Lamp: domain.LampNoPlay},
	}

	groups := Distribute(charts)
	require.Len(t, groups, 3)

	// numeric level ordering, not lexical
	assert.Equal(t, "1", groups[0].Level)
	assert.Equal(t, "2", groups[1].Level)
	assert.Equal(t, "10", groups[2].Level)

	level2 := groups[1]
	assert.Equal(t, 3, level2.Total)
	require.Len(t, level2.Tiers, 2)

	// tiers run from the best lamp down, empty tiers skipped
	assert.Equal(t, domain.LampHard, level2.Tiers[0].Lamp)
	assert.Equal(t, 2, level2.Tiers[0].Count)
	assert.Equal(t, "a", level2.Tiers[0].Songs[0].Title)
	assert.Equal(t, "b", level2.Tiers[0].Songs[1].Title)
	assert.Equal(t, domain.LampNoChart, level2.Tiers[1].Lamp)
}

func TestDistributeAccountsForEveryChart(t *testing.T) {
	charts := []domain.Classification{
		{Title: "a", Level: "1", Lamp: domain.LampNoPlay},
		{Title: "b", Level: "1", Lamp: domain.LampFailed},
		{Title: "c", Level: "1", Lamp: domain.LampMax},
		{Title: "d", Level: "1", Lamp: domain.LampMax},
	}

	groups := Distribute(charts)
	require.Len(t, groups, 1)

	counted := 0
	for _, tier := range groups[0].Tiers {
		counted += tier.Count
		assert.Len(t, tier.Songs, tier.Count)
	}
	assert.Equal(t, len(charts), counted)
	assert.Equal(t, len(charts), groups[0].Total)
}
