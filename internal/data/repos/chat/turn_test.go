package chat

import (
	"testing"
	"time"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
)

func TestTurnRepoRecentOrder(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewTurnRepo(db, testutil.Logger(t))

	base := time.Now().Add(-time.Hour)
	for i, q := range []string{"q1", "q2", "q3"} {
		if _, err := repo.Create(dbc, &types.ChatTurn{
			VideoIdentifier: "vid",
			Question:        q,
			Answer:          "a",
			CreatedAt:       base.Add(time.Duration(i) * time.Minute),
		}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	if _, err := repo.Create(dbc, &types.ChatTurn{VideoIdentifier: "other", Question: "x", Answer: "y"}); err != nil {
		t.Fatalf("Create other: %v", err)
	}

	got, err := repo.Recent(dbc, "vid", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 || got[0].Question != "q2" || got[1].Question != "q3" {
		t.Fatalf("Recent: got=%v", questions(got))
	}

	if err := repo.DeleteByVideoIdentifier(dbc, "vid"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got, _ := repo.Recent(dbc, "vid", 6); len(got) != 0 {
		t.Fatalf("Recent after delete: got=%v", questions(got))
	}
}

func questions(turns []*types.ChatTurn) []string {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		out = append(out, t.Question)
	}
	return out
}
