// File: internal/storage/scan.go
package storage

import (
	"database/sql"
	"errors"

	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// errNoRow signals an empty single-row query result to callers that treat
// "not found" as nil rather than an error.
var errNoRow = errors.New("storage: no row")

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanSnapshot reads one snapshot row in snapshotColumns order.
func scanSnapshot(row rowScanner) (*models.Snapshot, error) {
	var snapshot models.Snapshot

	err := row.Scan(&snapshot.ID, &snapshot.Season, &snapshot.Timestamp, &snapshot.TotalCount,
		&snapshot.Status.New, &snapshot.Status.Approved, &snapshot.Status.PartiallyPaid,
		&snapshot.Status.Paid, &snapshot.Status.CheckedIn,
		&snapshot.Sponsor.Normal, &snapshot.Sponsor.Sponsor, &snapshot.Sponsor.SuperSponsor)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNoRow
		}
		return nil, utils.NewAppError(utils.ErrCodeDatabase, "Failed to scan snapshot", err.Error())
	}

	snapshot.Timestamp = snapshot.Timestamp.UTC()
	return &snapshot, nil
}
