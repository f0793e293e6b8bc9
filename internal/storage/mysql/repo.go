package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"rent_estimator/internal/domain"
)

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// UpsertArtifact writes the bundle header. The active flag is only honoured
// on first insert; use Activate to switch versions.
func (r *Repo) UpsertArtifact(ctx context.Context, a domain.Artifact) error {
	_, err := r.db.ExecContext(ctx, upsertArtifactSQL,
		a.Version,
		a.GlobalMean,
		string(a.ModelJSON),
		a.Points,
		boolInt(a.Active),
	)
	return err
}

func (r *Repo) UpsertPointStats(ctx context.Context, version string, ps []domain.PointStat) error {
	if len(ps) == 0 {
		return nil
	}
	values := make([]string, 0, len(ps))
	args := make([]any, 0, len(ps)*5)
	for _, p := range ps {
		// (version, location_key, ward, unit_price, sample_count)
		values = append(values, "(?,?,?,?,?)")
		args = append(args, version, p.LocationKey, p.Ward, p.UnitPrice, p.SampleCount)
	}
	sqlStr := insertPointStatsPrefix + strings.Join(values, ",") + insertPointStatsOnDup
	_, err := r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

// Activate makes version the only active artifact.
func (r *Repo) Activate(ctx context.Context, version string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var one int
	if err := tx.QueryRowContext(ctx, artifactExistsSQL, version).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("artifact %s: %w", version, domain.ErrNotFound)
		}
		return err
	}
	if _, err := tx.ExecContext(ctx, deactivateAllSQL, version); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, activateSQL, version); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repo) GetActiveArtifact(ctx context.Context) (domain.Artifact, error) {
	var a domain.Artifact
	var model []byte
	var active int
	err := r.db.QueryRowContext(ctx, getActiveArtifactSQL).Scan(&a.Version, &a.GlobalMean, &model, &a.Points, &active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Artifact{}, domain.ErrNotFound
		}
		return domain.Artifact{}, err
	}
	a.ModelJSON = model
	a.Active = active == 1
	return a, nil
}

func (r *Repo) ListPointStats(ctx context.Context, version string) ([]domain.PointStat, error) {
	rows, err := r.db.QueryContext(ctx, listPointStatsSQL, version)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PointStat
	for rows.Next() {
		var p domain.PointStat
		if err := rows.Scan(&p.LocationKey, &p.Ward, &p.UnitPrice, &p.SampleCount); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
