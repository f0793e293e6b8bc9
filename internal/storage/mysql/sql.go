package mysql

const upsertArtifactSQL = `
INSERT INTO artifacts (version, global_mean, model, points, active)
VALUES (?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  global_mean = VALUES(global_mean),
  model       = VALUES(model),
  points      = VALUES(points)
`

// Multi-row insert; the VALUES list is built per batch.
const insertPointStatsPrefix = `
INSERT INTO point_stats (version, location_key, ward, unit_price, sample_count)
VALUES `

const insertPointStatsOnDup = `
ON DUPLICATE KEY UPDATE
  ward         = VALUES(ward),
  unit_price   = VALUES(unit_price),
  sample_count = VALUES(sample_count)
`

const deactivateAllSQL = `UPDATE artifacts SET active = 0 WHERE active = 1 AND version <> ?`

const activateSQL = `UPDATE artifacts SET active = 1 WHERE version = ?`

const artifactExistsSQL = `SELECT 1 FROM artifacts WHERE version = ?`

const getActiveArtifactSQL = `
SELECT version, global_mean, model, points, active
FROM artifacts
WHERE active = 1
ORDER BY updated_at DESC
LIMIT 1
`

const listPointStatsSQL = `
SELECT location_key, ward, unit_price, sample_count
FROM point_stats
WHERE version = ?
ORDER BY location_key
`
