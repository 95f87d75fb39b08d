package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func testRecord() scrape.JobRecord {
	return scrape.JobRecord{
		Title:           "Data Scientist",
		Company:         "Acme Corp",
		Location:        "Remote",
		Salary:          "$120k - $150k",
		EmploymentType:  "Full-time",
		DatePosted:      "2026-08-01",
		DescriptionText: "Build models.",
		DescriptionHTML: "<p>Build models.</p>",
		URL:             "https://www.simplyhired.com/job/k1",
		Source:          scrape.Source,
		ScrapedAt:       "2026-08-20T10:00:00Z",
	}
}

func TestPersistInsertsRow(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "job_listings")
	require.NoError(t, err)

	rec := testRecord()
	mock.ExpectExec("INSERT INTO job_listings").
		WithArgs(
			rec.URL,
			rec.Title,
			rec.Company,
			rec.Location,
			rec.Salary,
			rec.EmploymentType,
			rec.DatePosted,
			rec.DescriptionText,
			rec.DescriptionHTML,
			rec.Source,
			rec.ScrapedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Persist(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPersistRequiresURL(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewRecordStoreWithPool(mock, "job_listings")
	require.NoError(t, err)

	rec := testRecord()
	rec.URL = ""
	require.Error(t, store.Persist(context.Background(), rec))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRecordStoreWithPoolValidatesTable(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewRecordStoreWithPool(mock, "jobs; drop table jobs")
	require.Error(t, err)

	store, err := NewRecordStoreWithPool(mock, "")
	require.NoError(t, err)
	require.Equal(t, "job_listings", store.table)
}
