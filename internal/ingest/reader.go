// File: internal/ingest/reader.go
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/confstats/regboard/internal/metrics"
	"github.com/confstats/regboard/internal/models"
	"github.com/confstats/regboard/pkg/utils"
)

// rawSnapshot mirrors one line of the registration logger's JSON-Lines
// output. Fields the chart does not need are ignored on decode.
type rawSnapshot struct {
	CurrentDateTimeUtc string         `json:"CurrentDateTimeUtc"`
	TotalCount         int            `json:"TotalCount"`
	Status             map[string]int `json:"Status"`
	Sponsor            map[string]int `json:"Sponsor"`
}

// Summary describes what one ingest pass saw.
type Summary struct {
	Lines           int `json:"lines"`
	Snapshots       int `json:"snapshots"`
	TotalMismatches int `json:"total_mismatches"`
}

// Reader reads registration snapshot logs
type Reader struct {
	logger         *logrus.Logger
	metricsManager *metrics.Manager
}

// NewReader creates a new log reader
func NewReader(metricsManager *metrics.Manager) *Reader {
	return &Reader{
		logger:         utils.GetLogger(),
		metricsManager: metricsManager,
	}
}

// ReadFile reads and parses a snapshot log file. Any malformed line
// (unparseable JSON, unknown status or sponsor key, bad timestamp) fails the
// whole pass; there is no partial result.
func (r *Reader) ReadFile(path, season string) ([]*models.Snapshot, *Summary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, utils.NewAppError(utils.ErrCodeIngest,
			"Failed to open snapshot log", err.Error())
	}
	defer f.Close()

	snapshots, summary, err := r.Read(f, season)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}

	r.logger.WithFields(logrus.Fields{
		"path":             path,
		"season":           season,
		"snapshots":        summary.Snapshots,
		"total_mismatches": summary.TotalMismatches,
	}).Info("Snapshot log ingested")

	return snapshots, summary, nil
}

// Read parses JSON-Lines snapshot records from rd.
func (r *Reader) Read(rd io.Reader, season string) ([]*models.Snapshot, *Summary, error) {
	var snapshots []*models.Snapshot
	summary := &Summary{}

	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		summary.Lines++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		snapshot, err := r.parseLine(line, season)
		if err != nil {
			if r.metricsManager != nil {
				r.metricsManager.GetPrometheusMetrics().RecordParseFailure(season)
			}
			return nil, nil, fmt.Errorf("line %d: %w", summary.Lines, err)
		}

		// Sanity check: the cumulative total should equal the sum of its
		// status sub-counts. A mismatch is logged, not fatal.
		if snapshot.Status.Sum() != snapshot.TotalCount {
			summary.TotalMismatches++
			r.logger.WithFields(logrus.Fields{
				"line":       summary.Lines,
				"total":      snapshot.TotalCount,
				"status_sum": snapshot.Status.Sum(),
			}).Warn("TotalCount does not match status sum")
			if r.metricsManager != nil {
				r.metricsManager.GetPrometheusMetrics().RecordTotalMismatch(season)
			}
		}

		snapshots = append(snapshots, snapshot)
		summary.Snapshots++
	}

	if err := scanner.Err(); err != nil {
		return nil, nil, utils.NewAppError(utils.ErrCodeIngest,
			"Failed to read snapshot log", err.Error())
	}

	if r.metricsManager != nil {
		r.metricsManager.GetPrometheusMetrics().RecordSnapshotsIngested(season, summary.Snapshots)
	}

	return snapshots, summary, nil
}

// parseLine decodes one JSON-Lines record into a Snapshot.
func (r *Reader) parseLine(line, season string) (*models.Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return nil, utils.NewAppError(utils.ErrCodeValidation,
			"Unparseable JSON line", err.Error())
	}

	ts, err := parseTimestamp(raw.CurrentDateTimeUtc)
	if err != nil {
		return nil, err
	}

	status, err := parseStatusCounts(raw.Status)
	if err != nil {
		return nil, err
	}

	sponsor, err := parseSponsorCounts(raw.Sponsor)
	if err != nil {
		return nil, err
	}

	return &models.Snapshot{
		ID:         uuid.NewString(),
		Season:     season,
		Timestamp:  ts,
		TotalCount: raw.TotalCount,
		Status:     status,
		Sponsor:    sponsor,
	}, nil
}
