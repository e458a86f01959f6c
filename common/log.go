package common

import (
	"database/sql"

	"github.com/apex/log"
)

// LogResult logs the outcome of a write statement.
func LogResult(msgPrefix string, r sql.Result, e error) {
	if e != nil {
		log.WithError(e).Errorf("%s: query failed", msgPrefix)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.WithError(err).Errorf("%s: failed to get status of db op", msgPrefix)
		return
	}
	log.Debugf("%s: affected %d rows", msgPrefix, rows)
}
