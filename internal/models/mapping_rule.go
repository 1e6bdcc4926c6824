package models

import (
	"github.com/jmoiron/sqlx"
	squirrel "gopkg.in/Masterminds/squirrel.v1"
)

// MappingRuleDB is a struct containing initialized the SQL connection as well as the APICollection.
type MappingRuleDB struct {
	SQL        *sqlx.DB
	Collection *APICollection
}

func newMappingRuleDB(
	SQL *sqlx.DB,
	Collection *APICollection,
) *MappingRuleDB {
	db := &MappingRuleDB{
		SQL:        SQL,
		Collection: Collection,
	}
	return db
}

func (db *MappingRuleDB) tableName() string {
	return "epg_string_mapping"
}

// MappingRule maps a channel name pattern to either a direct EPG channel id
// or, when IsExclusion is set, marks matching channels as ineligible for
// auto-matching. Rules apply in insertion order.
type MappingRule struct {
	ID           int     `db:"id"             json:"id"`
	Pattern      string  `db:"search_pattern" json:"pattern"`
	IsExclusion  bool    `db:"is_exclusion"   json:"isExclusion"`
	EPGChannelID *string `db:"epg_channel_id" json:"epgChannelId"`
}

// MappingRuleAPI contains all methods for the MappingRule struct.
type MappingRuleAPI interface {
	InsertMappingRule(rule MappingRule) (*MappingRule, error)
	GetAllMappingRules() ([]MappingRule, error)
	GetMappingRuleByID(id int) (*MappingRule, error)
	UpdateMappingRule(rule MappingRule) error
	DeleteMappingRule(id int) error
}

// InsertMappingRule inserts a new MappingRule into the database.
func (db *MappingRuleDB) InsertMappingRule(rule MappingRule) (*MappingRule, error) {
	res, err := db.SQL.NamedExec(`
    INSERT INTO epg_string_mapping (search_pattern, is_exclusion, epg_channel_id)
    VALUES (:search_pattern, :is_exclusion, :epg_channel_id)`, rule)
	if err != nil {
		return nil, err
	}
	rowID, rowIDErr := res.LastInsertId()
	if rowIDErr != nil {
		return nil, rowIDErr
	}
	return db.GetMappingRuleByID(int(rowID))
}

// GetAllMappingRules returns every rule in insertion order.
func (db *MappingRuleDB) GetAllMappingRules() ([]MappingRule, error) {
	rules := make([]MappingRule, 0)
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).OrderBy("id").ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	err := db.SQL.Select(&rules, sql, args...)
	return rules, err
}

// GetMappingRuleByID returns a single MappingRule for the given ID.
func (db *MappingRuleDB) GetMappingRuleByID(id int) (*MappingRule, error) {
	var rule MappingRule
	sql, args, sqlGenErr := squirrel.Select("*").From(db.tableName()).Where(squirrel.Eq{"id": id}).ToSql()
	if sqlGenErr != nil {
		return nil, sqlGenErr
	}
	if err := db.SQL.Get(&rule, sql, args...); err != nil {
		return nil, err
	}
	return &rule, nil
}

// UpdateMappingRule updates a rule.
func (db *MappingRuleDB) UpdateMappingRule(rule MappingRule) error {
	res, err := db.SQL.NamedExec(`UPDATE epg_string_mapping SET search_pattern = :search_pattern, is_exclusion = :is_exclusion, epg_channel_id = :epg_channel_id WHERE id = :id`, rule)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// DeleteMappingRule removes a rule.
func (db *MappingRuleDB) DeleteMappingRule(id int) error {
	res, err := db.SQL.Exec(`DELETE FROM epg_string_mapping WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}
