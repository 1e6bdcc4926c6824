package models

import (
	"time"

	"github.com/jmoiron/sqlx"
	squirrel "gopkg.in/Masterminds/squirrel.v1"
)

// ChannelDB is a struct containing initialized the SQL connection as well as the APICollection.
type ChannelDB struct {
	SQL        *sqlx.DB
	Collection *APICollection
}

func newChannelDB(
	SQL *sqlx.DB,
	Collection *APICollection,
) *ChannelDB {
	db := &ChannelDB{
		SQL:        SQL,
		Collection: Collection,
	}
	return db
}

func (db *ChannelDB) tableName() string {
	return "acestream_channel"
}

// Channel is a single acestream channel, keyed by its 40 character content id.
type Channel struct {
	ID                 string     `db:"id"                   json:"id"`
	Name               string     `db:"name"                 json:"name"`
	Status             string     `db:"status"               json:"status"`
	AddedAt            *time.Time `db:"added_at"             json:"addedAt"`
	LastChecked        *time.Time `db:"last_checked"         json:"lastChecked,omitempty"`
	IsOnline           bool       `db:"is_online"            json:"isOnline"`
	CheckError         *string    `db:"check_error"          json:"checkError,omitempty"`
	Logo               *string    `db:"logo"                 json:"logo,omitempty"`
	TVGName            *string    `db:"tvg_name"             json:"tvgName,omitempty"`
	GroupTitle         *string    `db:"group_title"          json:"groupTitle,omitempty"`
	SourceURL          *string    `db:"source_url"           json:"sourceURL,omitempty"`
	ScrapedURLID       *int       `db:"scraped_url_id"       json:"scrapedURLID,omitempty"`
	EPGID              *string    `db:"epg_id"               json:"epgId"`
	EPGUpdateProtected bool       `db:"epg_update_protected" json:"epgUpdateProtected"`
}

// ChannelAPI contains all methods for the Channel struct.
type ChannelAPI interface {
	UpsertChannel(channel Channel) (*Channel, error)
	GetAllChannels() ([]Channel, error)
	GetActiveChannels() ([]Channel, error)
	GetChannelByID(id string) (*Channel, error)
	GetChannelsForScrapedURL(scrapedURLID int) ([]Channel, error)
	SearchChannels(term string) ([]Channel, error)
	UpdateChannelEPGID(id string, epgID *string) error
	SetChannelProtected(id string, protected bool) error
	UpdateChannelStatus(id string, isOnline bool, checkError *string) error
	DeleteChannel(id string) error
	DeleteChannelsForScrapedURL(scrapedURLID int, keepIDs []string) error
}

// UpsertChannel inserts a channel or refreshes its scraped metadata if the id already exists.
func (db *ChannelDB) UpsertChannel(channel Channel) (*Channel, error) {
	if channel.AddedAt == nil {
		now := time.Now().UTC()
		channel.AddedAt = &now
	}
	if channel.Status == "" {
		channel.Status = "active"
	}

	_, err := db.SQL.NamedExec(`
    INSERT INTO acestream_channel (id, name, status, added_at, logo, tvg_name, group_title, source_url, scraped_url_id, epg_id, epg_update_protected)
    VALUES (:id, :name, :status, :added_at, :logo, :tvg_name, :group_title, :source_url, :scraped_url_id, :epg_id, :epg_update_protected)
    ON CONFLICT(id) DO UPDATE SET
      name = excluded.name,
      status = excluded.status,
      logo = COALESCE(excluded.logo, acestream_channel.logo),
      tvg_name = COALESCE(excluded.tvg_name, acestream_channel.tvg_name),
      group_title = COALESCE(excluded.group_title, acestream_channel.group_title),
      source_url = excluded.source_url,
      scraped_url_id = excluded.scraped_url_id`, channel)
	if err != nil {
		return nil, err
	}

	return db.GetChannelByID(channel.ID)
}

// GetAllChannels returns every known channel.
func (db *ChannelDB) GetAllChannels() ([]Channel, error) {
	channels := make([]Channel, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).OrderBy("added_at", "id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&channels, sql, args...)
	return channels, err
}

// GetActiveChannels returns channels eligible for playlists and EPG matching.
func (db *ChannelDB) GetActiveChannels() ([]Channel, error) {
	channels := make([]Channel, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"status": "active"}).OrderBy("added_at", "id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&channels, sql, args...)
	return channels, err
}

// GetChannelByID returns a single Channel for the given id.
func (db *ChannelDB) GetChannelByID(id string) (*Channel, error) {
	var channel Channel
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"id": id}).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	if err := db.SQL.Get(&channel, sql, args...); err != nil {
		return nil, err
	}
	return &channel, nil
}

// GetChannelsForScrapedURL returns the channels imported from the given scraped URL.
func (db *ChannelDB) GetChannelsForScrapedURL(scrapedURLID int) ([]Channel, error) {
	channels := make([]Channel, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"scraped_url_id": scrapedURLID}).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&channels, sql, args...)
	return channels, err
}

// SearchChannels returns active channels whose name contains the given term.
func (db *ChannelDB) SearchChannels(term string) ([]Channel, error) {
	channels := make([]Channel, 0)
	err := db.SQL.Select(&channels, `SELECT * FROM acestream_channel WHERE status = 'active' AND name LIKE '%' || $1 || '%' ORDER BY added_at, id`, term)
	return channels, err
}

// UpdateChannelEPGID assigns or clears the EPG linkage of a channel.
func (db *ChannelDB) UpdateChannelEPGID(id string, epgID *string) error {
	res, err := db.SQL.Exec(`UPDATE acestream_channel SET epg_id = $1 WHERE id = $2`, epgID, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// SetChannelProtected toggles the per channel EPG update lock.
func (db *ChannelDB) SetChannelProtected(id string, protected bool) error {
	res, err := db.SQL.Exec(`UPDATE acestream_channel SET epg_update_protected = $1 WHERE id = $2`, protected, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// UpdateChannelStatus records the result of an availability check.
func (db *ChannelDB) UpdateChannelStatus(id string, isOnline bool, checkError *string) error {
	_, err := db.SQL.Exec(`UPDATE acestream_channel SET is_online = $1, check_error = $2, last_checked = $3 WHERE id = $4`,
		isOnline, checkError, time.Now().UTC(), id)
	return err
}

// DeleteChannel removes a channel.
func (db *ChannelDB) DeleteChannel(id string) error {
	res, err := db.SQL.Exec(`DELETE FROM acestream_channel WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// DeleteChannelsForScrapedURL removes channels belonging to the scraped URL
// that are not in keepIDs. Used to drop streams that disappeared from the source.
func (db *ChannelDB) DeleteChannelsForScrapedURL(scrapedURLID int, keepIDs []string) error {
	existing, existingErr := db.GetChannelsForScrapedURL(scrapedURLID)
	if existingErr != nil {
		return existingErr
	}

	keep := make(map[string]bool, len(keepIDs))
	for _, id := range keepIDs {
		keep[id] = true
	}

	for _, channel := range existing {
		if keep[channel.ID] {
			continue
		}
		if _, err := db.SQL.Exec(`DELETE FROM acestream_channel WHERE id = $1`, channel.ID); err != nil {
			return err
		}
	}
	return nil
}
