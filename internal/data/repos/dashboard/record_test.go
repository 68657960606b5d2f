package dashboard

import (
	"testing"

	"gorm.io/datatypes"

	"github.com/simpliearn/simpliearn-backend/internal/data/repos/testutil"
	types "github.com/simpliearn/simpliearn-backend/internal/domain"
)

func TestRecordRepoUpsertKeepsIdentity(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewRecordRepo(db, testutil.Logger(t))

	first, err := repo.Upsert(dbc, &types.DashboardRecord{
		VideoIdentifier:    "dC9yOuhiNrk",
		TranscriptFilename: "aapl_dC9yOuhiNrk_20250101_120000_transcript.txt",
		Metadata:           datatypes.NewJSONType(types.DashboardMetadata{Title: "Apple Q1", Ticker: "AAPL"}),
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if first.HasSentiment() {
		t.Fatalf("HasSentiment: got=true want=false")
	}

	second, err := repo.Upsert(dbc, &types.DashboardRecord{
		VideoIdentifier:     "dC9yOuhiNrk",
		TranscriptFilename:  "aapl_dC9yOuhiNrk_20250202_120000_transcript.txt",
		RelevanceFilename:   "aapl_dC9yOuhiNrk_20250202_120000_relevance.csv",
		SpecificityFilename: "aapl_dC9yOuhiNrk_20250202_120000_specificity.csv",
		Metadata:            datatypes.NewJSONType(types.DashboardMetadata{Title: "Apple Q1", Ticker: "AAPL"}),
	})
	if err != nil {
		t.Fatalf("Upsert again: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed: got=%v want=%v", second.ID, first.ID)
	}
	if !second.HasSentiment() || second.Meta().Ticker != "AAPL" {
		t.Fatalf("second: %+v", second)
	}

	all, err := repo.List(dbc)
	if err != nil || len(all) != 1 {
		t.Fatalf("List: got=%d err=%v want=1", len(all), err)
	}
}

func TestRecordRepoDelete(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	dbc := testutil.DBC(tx)
	repo := NewRecordRepo(db, testutil.Logger(t))

	if _, err := repo.Upsert(dbc, &types.DashboardRecord{VideoIdentifier: "xyz12345678"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	ok, err := repo.DeleteByVideoIdentifier(dbc, "xyz12345678")
	if err != nil || !ok {
		t.Fatalf("Delete: ok=%v err=%v", ok, err)
	}
	ok, err = repo.DeleteByVideoIdentifier(dbc, "xyz12345678")
	if err != nil || ok {
		t.Fatalf("Delete missing: ok=%v err=%v want ok=false", ok, err)
	}
	got, err := repo.GetByVideoIdentifier(dbc, "xyz12345678")
	if err != nil || got != nil {
		t.Fatalf("Get after delete: got=%v err=%v", got, err)
	}
}
