package models

import (
	"time"

	"github.com/jmoiron/sqlx"
	squirrel "gopkg.in/Masterminds/squirrel.v1"
)

// EPGChannelDB is a struct containing initialized the SQL connection as well as the APICollection.
type EPGChannelDB struct {
	SQL        *sqlx.DB
	Collection *APICollection
}

func newEPGChannelDB(
	SQL *sqlx.DB,
	Collection *APICollection,
) *EPGChannelDB {
	db := &EPGChannelDB{
		SQL:        SQL,
		Collection: Collection,
	}
	return db
}

func (db *EPGChannelDB) tableName() string {
	return "epg_channel"
}

// EPGChannel is a single channel imported from an XMLTV source. XMLTVID is
// the channel id attribute from the feed, Name the first display-name and
// Aliases any additional display-names.
type EPGChannel struct {
	ID          int        `db:"id"            json:"id"`
	EPGSourceID int        `db:"epg_source_id" json:"epgSourceId"`
	XMLTVID     string     `db:"xmltv_id"      json:"xmltvId"`
	Name        string     `db:"name"          json:"name"`
	Aliases     StringList `db:"aliases"       json:"aliases,omitempty"`
	IconURL     *string    `db:"icon_url"      json:"iconURL,omitempty"`
	Language    *string    `db:"language"      json:"language,omitempty"`
	ImportedAt  *time.Time `db:"imported_at"   json:"importedAt,omitempty"`
}

// EPGChannelAPI contains all methods for the EPGChannel struct.
type EPGChannelAPI interface {
	ReplaceEPGChannelsForSource(sourceID int, channels []EPGChannel) error
	GetAllEPGChannels() ([]EPGChannel, error)
	GetEPGChannelsForSource(sourceID int) ([]EPGChannel, error)
	GetEPGChannelByXMLTVID(xmltvID string) (*EPGChannel, error)
}

// ReplaceEPGChannelsForSource swaps the channel set of a source for a freshly
// parsed one inside a single transaction.
func (db *EPGChannelDB) ReplaceEPGChannelsForSource(sourceID int, channels []EPGChannel) error {
	tx, txErr := db.SQL.Beginx()
	if txErr != nil {
		return txErr
	}

	if _, err := tx.Exec(`DELETE FROM epg_channel WHERE epg_source_id = $1`, sourceID); err != nil {
		tx.Rollback()
		return err
	}

	now := time.Now().UTC()
	for i := range channels {
		channels[i].EPGSourceID = sourceID
		channels[i].ImportedAt = &now
		if _, err := tx.NamedExec(`
      INSERT INTO epg_channel (epg_source_id, xmltv_id, name, aliases, icon_url, language, imported_at)
      VALUES (:epg_source_id, :xmltv_id, :name, :aliases, :icon_url, :language, :imported_at)`, channels[i]); err != nil {
			tx.Rollback()
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return commitErr
	}

	log.Debugf("replaced EPG channel set of source %d with %d channels", sourceID, len(channels))

	return nil
}

// GetAllEPGChannels returns every imported EPG channel ordered by source then import order.
func (db *EPGChannelDB) GetAllEPGChannels() ([]EPGChannel, error) {
	channels := make([]EPGChannel, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).OrderBy("epg_source_id", "id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&channels, sql, args...)
	return channels, err
}

// GetEPGChannelsForSource returns the channels imported from the given source.
func (db *EPGChannelDB) GetEPGChannelsForSource(sourceID int) ([]EPGChannel, error) {
	channels := make([]EPGChannel, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"epg_source_id": sourceID}).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&channels, sql, args...)
	return channels, err
}

// GetEPGChannelByXMLTVID returns the first EPG channel with the given XMLTV id.
func (db *EPGChannelDB) GetEPGChannelByXMLTVID(xmltvID string) (*EPGChannel, error) {
	var channel EPGChannel
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"xmltv_id": xmltvID}).OrderBy("id").Limit(1).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	if err := db.SQL.Get(&channel, sql, args...); err != nil {
		return nil, err
	}
	return &channel, nil
}
