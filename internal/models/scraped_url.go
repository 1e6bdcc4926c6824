package models

import (
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	uuid "github.com/satori/go.uuid"
	squirrel "gopkg.in/Masterminds/squirrel.v1"
)

// ScrapedURLDB is a struct containing initialized the SQL connection as well as the APICollection.
type ScrapedURLDB struct {
	SQL        *sqlx.DB
	Collection *APICollection
}

func newScrapedURLDB(
	SQL *sqlx.DB,
	Collection *APICollection,
) *ScrapedURLDB {
	db := &ScrapedURLDB{
		SQL:        SQL,
		Collection: Collection,
	}
	return db
}

func (db *ScrapedURLDB) tableName() string {
	return "scraped_url"
}

// ScrapedURL is a page or playlist URL that gets scraped for acestream channels.
type ScrapedURL struct {
	ID            int        `db:"id"             json:"id"`
	GUID          string     `db:"guid"           json:"guid"`
	URL           string     `db:"url"            json:"url"`
	URLType       string     `db:"url_type"       json:"urlType"`
	Status        string     `db:"status"         json:"status"`
	Enabled       bool       `db:"enabled"        json:"enabled"`
	AddedAt       *time.Time `db:"added_at"       json:"addedAt"`
	LastProcessed *time.Time `db:"last_processed" json:"lastProcessed,omitempty"`
	ErrorCount    int        `db:"error_count"    json:"errorCount"`
	LastError     *string    `db:"last_error"     json:"lastError,omitempty"`
}

// ScrapedURLAPI contains all methods for the ScrapedURL struct.
type ScrapedURLAPI interface {
	InsertScrapedURL(url ScrapedURL) (*ScrapedURL, error)
	GetAllScrapedURLs() ([]ScrapedURL, error)
	GetEnabledScrapedURLs() ([]ScrapedURL, error)
	GetScrapedURLByID(id int) (*ScrapedURL, error)
	EnsureManualScrapedURL() (*ScrapedURL, error)
	UpdateScrapedURLStatus(id int, status string, lastError *string) error
	DeleteScrapedURL(id int) error
}

// InsertScrapedURL inserts a new ScrapedURL into the database.
func (db *ScrapedURLDB) InsertScrapedURL(url ScrapedURL) (*ScrapedURL, error) {
	if url.GUID == "" {
		url.GUID = uuid.NewV4().String()
	}
	if url.URLType == "" {
		url.URLType = "regular"
	}
	if url.Status == "" {
		url.Status = "pending"
	}
	if url.AddedAt == nil {
		now := time.Now().UTC()
		url.AddedAt = &now
	}

	res, err := db.SQL.NamedExec(`
    INSERT INTO scraped_url (guid, url, url_type, status, enabled, added_at)
    VALUES (:guid, :url, :url_type, :status, :enabled, :added_at)`, url)
	if err != nil {
		return nil, err
	}
	rowID, rowIDErr := res.LastInsertId()
	if rowIDErr != nil {
		return nil, rowIDErr
	}
	return db.GetScrapedURLByID(int(rowID))
}

// GetAllScrapedURLs returns every scraped URL.
func (db *ScrapedURLDB) GetAllScrapedURLs() ([]ScrapedURL, error) {
	urls := make([]ScrapedURL, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&urls, sql, args...)
	return urls, err
}

// GetEnabledScrapedURLs returns the URLs eligible for the scrape loop.
func (db *ScrapedURLDB) GetEnabledScrapedURLs() ([]ScrapedURL, error) {
	urls := make([]ScrapedURL, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"enabled": true}).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&urls, sql, args...)
	return urls, err
}

// GetScrapedURLByID returns a single ScrapedURL for the given ID.
func (db *ScrapedURLDB) GetScrapedURLByID(id int) (*ScrapedURL, error) {
	var url ScrapedURL
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"id": id}).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	if err := db.SQL.Get(&url, sql, args...); err != nil {
		return nil, err
	}
	return &url, nil
}

// EnsureManualScrapedURL returns the row owning hand-added channels, creating
// it on first use. Manual rows are never fetched by the scrape loop.
func (db *ScrapedURLDB) EnsureManualScrapedURL() (*ScrapedURL, error) {
	var url ScrapedURL
	sqlStr, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"url_type": "manual"}).OrderBy("id").Limit(1).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Get(&url, sqlStr, args...)
	if err == nil {
		return &url, nil
	}
	if err != sql.ErrNoRows {
		return nil, err
	}

	return db.InsertScrapedURL(ScrapedURL{
		URL:     "manual",
		URLType: "manual",
		Status:  "ok",
	})
}

// UpdateScrapedURLStatus moves a URL through the processing lifecycle,
// keeping the error bookkeeping in step.
func (db *ScrapedURLDB) UpdateScrapedURLStatus(id int, status string, lastError *string) error {
	if status == "ok" {
		_, err := db.SQL.Exec(`UPDATE scraped_url SET status = $1, last_processed = $2, error_count = 0, last_error = NULL WHERE id = $3`,
			status, time.Now().UTC(), id)
		return err
	}
	if status == "failed" {
		_, err := db.SQL.Exec(`UPDATE scraped_url SET status = $1, last_processed = $2, error_count = error_count + 1, last_error = $3 WHERE id = $4`,
			status, time.Now().UTC(), lastError, id)
		return err
	}
	_, err := db.SQL.Exec(`UPDATE scraped_url SET status = $1 WHERE id = $2`, status, id)
	return err
}

// DeleteScrapedURL removes a scraped URL and the channels imported from it.
func (db *ScrapedURLDB) DeleteScrapedURL(id int) error {
	if _, err := db.SQL.Exec(`DELETE FROM acestream_channel WHERE scraped_url_id = $1`, id); err != nil {
		return err
	}
	res, err := db.SQL.Exec(`DELETE FROM scraped_url WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
