// File: internal/ingest/parser.go
package ingest

import (
	"fmt"
	"time"

	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// Payment status names as they appear in the snapshot log.
var statusKeys = map[string]bool{
	"new":            true,
	"approved":       true,
	"partially paid": true,
	"paid":           true,
	"checked in":     true,
}

// Sponsor tier names as they appear in the snapshot log.
var sponsorKeys = map[string]bool{
	"normal":       true,
	"sponsor":      true,
	"supersponsor": true,
}

// Timestamp layouts seen across logger versions.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// parseStatusCounts converts a raw status map into StatusCounts. Missing
// statuses read as zero; an unknown status name means the row is malformed
// and the whole ingest must stop.
func parseStatusCounts(raw map[string]int) (models.StatusCounts, error) {
	for key := range raw {
		if !statusKeys[key] {
			return models.StatusCounts{}, utils.NewAppError(utils.ErrCodeValidation,
				"Malformed status map", fmt.Sprintf("unknown status %q", key))
		}
	}

	return models.StatusCounts{
		New:           raw["new"],
		Approved:      raw["approved"],
		PartiallyPaid: raw["partially paid"],
		Paid:          raw["paid"],
		CheckedIn:     raw["checked in"],
	}, nil
}

// parseSponsorCounts converts a raw sponsor map into SponsorCounts. Missing
// tiers read as zero; an unknown tier name aborts the ingest.
func parseSponsorCounts(raw map[string]int) (models.SponsorCounts, error) {
	for key := range raw {
		if !sponsorKeys[key] {
			return models.SponsorCounts{}, utils.NewAppError(utils.ErrCodeValidation,
				"Malformed sponsor map", fmt.Sprintf("unknown sponsor tier %q", key))
		}
	}

	return models.SponsorCounts{
		Normal:       raw["normal"],
		Sponsor:      raw["sponsor"],
		SuperSponsor: raw["supersponsor"],
	}, nil
}

// parseTimestamp parses the CurrentDateTimeUtc field. The logger wrote
// slightly different layouts over the years, so several are tried.
func parseTimestamp(value string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, utils.NewAppError(utils.ErrCodeValidation,
		"Unparseable timestamp", value)
}
