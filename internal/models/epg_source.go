package models

import (
	"time"

	"github.com/jmoiron/sqlx"
	squirrel "gopkg.in/Masterminds/squirrel.v1"
)

// EPGSourceDB is a struct containing initialized the SQL connection as well as the APICollection.
type EPGSourceDB struct {
	SQL        *sqlx.DB
	Collection *APICollection
}

func newEPGSourceDB(
	SQL *sqlx.DB,
	Collection *APICollection,
) *EPGSourceDB {
	db := &EPGSourceDB{
		SQL:        SQL,
		Collection: Collection,
	}
	return db
}

func (db *EPGSourceDB) tableName() string {
	return "epg_source"
}

// EPGSource is a single XMLTV feed endpoint.
type EPGSource struct {
	ID          int        `db:"id"           json:"id"`
	Name        string     `db:"name"         json:"name"`
	URL         string     `db:"url"          json:"url"`
	Enabled     bool       `db:"enabled"      json:"enabled"`
	LastUpdated *time.Time `db:"last_updated" json:"lastUpdated,omitempty"`
	ErrorCount  int        `db:"error_count"  json:"errorCount"`
	LastError   *string    `db:"last_error"   json:"lastError,omitempty"`
}

// EPGSourceAPI contains all methods for the EPGSource struct.
type EPGSourceAPI interface {
	InsertEPGSource(source EPGSource) (*EPGSource, error)
	GetAllEPGSources() ([]EPGSource, error)
	GetEnabledEPGSources() ([]EPGSource, error)
	GetEPGSourceByID(id int) (*EPGSource, error)
	UpdateEPGSource(source EPGSource) error
	MarkEPGSourceRefreshed(id int) error
	MarkEPGSourceFailed(id int, lastError string) error
	ToggleEPGSource(id int) (*EPGSource, error)
	DeleteEPGSource(id int) error
}

// InsertEPGSource inserts a new EPGSource into the database.
func (db *EPGSourceDB) InsertEPGSource(source EPGSource) (*EPGSource, error) {
	res, err := db.SQL.NamedExec(`
    INSERT INTO epg_source (name, url, enabled)
    VALUES (:name, :url, :enabled)`, source)
	if err != nil {
		return nil, err
	}
	rowID, rowIDErr := res.LastInsertId()
	if rowIDErr != nil {
		return nil, rowIDErr
	}
	return db.GetEPGSourceByID(int(rowID))
}

// GetAllEPGSources returns every EPG source.
func (db *EPGSourceDB) GetAllEPGSources() ([]EPGSource, error) {
	sources := make([]EPGSource, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&sources, sql, args...)
	return sources, err
}

// GetEnabledEPGSources returns the EPG sources that should be refreshed.
func (db *EPGSourceDB) GetEnabledEPGSources() ([]EPGSource, error) {
	sources := make([]EPGSource, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"enabled": true}).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&sources, sql, args...)
	return sources, err
}

// GetEPGSourceByID returns a single EPGSource for the given ID.
func (db *EPGSourceDB) GetEPGSourceByID(id int) (*EPGSource, error) {
	var source EPGSource
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"id": id}).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	if err := db.SQL.Get(&source, sql, args...); err != nil {
		return nil, err
	}
	return &source, nil
}

// UpdateEPGSource updates the user editable fields of an EPG source.
func (db *EPGSourceDB) UpdateEPGSource(source EPGSource) error {
	res, err := db.SQL.NamedExec(`UPDATE epg_source SET name = :name, url = :url, enabled = :enabled WHERE id = :id`, source)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// MarkEPGSourceRefreshed records a successful refresh.
func (db *EPGSourceDB) MarkEPGSourceRefreshed(id int) error {
	_, err := db.SQL.Exec(`UPDATE epg_source SET last_updated = $1, error_count = 0, last_error = NULL WHERE id = $2`, time.Now().UTC(), id)
	return err
}

// MarkEPGSourceFailed records a failed refresh.
func (db *EPGSourceDB) MarkEPGSourceFailed(id int, lastError string) error {
	_, err := db.SQL.Exec(`UPDATE epg_source SET error_count = error_count + 1, last_error = $1 WHERE id = $2`, lastError, id)
	return err
}

// ToggleEPGSource flips the enabled flag and returns the updated source.
func (db *EPGSourceDB) ToggleEPGSource(id int) (*EPGSource, error) {
	if _, err := db.SQL.Exec(`UPDATE epg_source SET enabled = NOT enabled WHERE id = $1`, id); err != nil {
		return nil, err
	}
	return db.GetEPGSourceByID(id)
}

// DeleteEPGSource removes an EPG source and its imported channels.
func (db *EPGSourceDB) DeleteEPGSource(id int) error {
	if _, err := db.SQL.Exec(`DELETE FROM epg_channel WHERE epg_source_id = $1`, id); err != nil {
		return err
	}
	res, err := db.SQL.Exec(`DELETE FROM epg_source WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
