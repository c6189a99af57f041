package browser

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx"
)

// ParameterDatabase resolves run/channel-scoped processing parameters,
// e.g. baselines or filter time constants calibrated per channel.
type ParameterDatabase interface {
	Lookup(channel int, name string) (Quantity, error)
}

// StaticParams is an in-memory parameter database, used for literal
// configuration overrides and in tests.
type StaticParams map[int]map[string]Quantity

func (p StaticParams) Lookup(channel int, name string) (Quantity, error) {
	if params, ok := p[channel]; ok {
		if q, ok := params[name]; ok {
			return q, nil
		}
	}
	return Quantity{}, &ErrParameterNotFound{Channel: channel, Name: name}
}

func ConnectToDatabase(user string, pass string, host string, dbname string) (*sqlx.DB, error) {
	port := "3306"
	dbURI := fmt.Sprintf("%s:%s@(%s:%s)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// SQLParams reads parameters from the run database. Rows are versioned
// by run range, with the narrowest applicable range taken first.
type SQLParams struct {
	db        *sqlx.DB
	runNumber int
}

func NewSQLParams(db *sqlx.DB, runNumber int) *SQLParams {
	return &SQLParams{db: db, runNumber: runNumber}
}

type parameterRow struct {
	Value float64 `db:"Value"`
	Units string  `db:"Units"`
}

func (p *SQLParams) Lookup(channel int, name string) (Quantity, error) {
	query := `SELECT Value, Units FROM ChannelParams
		WHERE ChannelID = ? AND Name = ? AND MinRun <= ? AND MaxRun >= ?
		ORDER BY MinRun DESC LIMIT 1`
	var row parameterRow
	err := p.db.Get(&row, query, channel, name, p.runNumber, p.runNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return Quantity{}, &ErrParameterNotFound{Channel: channel, Name: name}
	}
	if err != nil {
		return Quantity{}, fmt.Errorf("error querying parameter %q: %w", name, err)
	}
	return Quantity{Value: row.Value, Unit: Unit(row.Units)}, nil
}
