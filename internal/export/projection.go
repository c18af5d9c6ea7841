package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"botcheck/internal/store"
)

// TimeLayout renders timestamps the way the store's readers expect.
const TimeLayout = "2006-01-02 15:04:05"

// Columns lists every store column in schema order.
var Columns = []string{
	"id", "screen_name", "name", "description",
	"followers_count", "friends_count", "listed_count", "favourites_count",
	"created_at",
	"en_cap", "en_astroturf", "en_fake_follower", "en_financial",
	"en_other", "en_overall", "en_self_declared", "en_spammer",
	"un_cap", "un_astroturf", "un_fake_follower", "un_financial",
	"un_other", "un_overall", "un_self_declared", "un_spammer",
	"last_check_date", "last_check_status",
}

// Table is a flat, fully rendered view of the store.
type Table struct {
	Header []string
	Rows   [][]string
}

// Project renders one row per record with nulls as empty cells.
func Project(records []store.Follower) Table {
	t := Table{Header: Columns, Rows: make([][]string, 0, len(records))}
	for _, r := range records {
		row := make([]string, 0, len(Columns))
		row = append(row,
			strconv.FormatUint(uint64(r.ID), 10),
			r.ScreenName,
			r.Name,
			r.Description,
			strconv.Itoa(r.FollowersCount),
			strconv.Itoa(r.FriendsCount),
			strconv.Itoa(r.ListedCount),
			strconv.Itoa(r.FavouritesCount),
			formatTime(r.AccountCreatedAt),
		)
		row = appendScores(row, r.English)
		row = appendScores(row, r.Universal)
		row = append(row, formatTime(r.LastCheckDate), string(r.LastCheckStatus))
		t.Rows = append(t.Rows, row)
	}
	return t
}

func appendScores(row []string, s store.ScoreColumns) []string {
	return append(row,
		formatFloat(s.Cap),
		formatFloat(s.Astroturf),
		formatFloat(s.FakeFollower),
		formatFloat(s.Financial),
		formatFloat(s.Other),
		formatFloat(s.Overall),
		formatFloat(s.SelfDeclared),
		formatFloat(s.Spammer),
	)
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(TimeLayout)
}

// WriteCSV writes the table with a leading unnamed 0-based row index column.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)

	header := append([]string{""}, t.Header...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range t.Rows {
		if err := cw.Write(append([]string{strconv.Itoa(i)}, row...)); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
