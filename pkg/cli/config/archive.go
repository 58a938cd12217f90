package config

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/oprisk/pkg/service/archive"
	"github.com/secmon-lab/oprisk/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

// Archive holds CLI flags for export-and-clear archiving
type Archive struct {
	bucket string
	prefix string
}

func (a *Archive) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "archive-bucket",
			Usage:       "Cloud Storage bucket receiving CSV exports before the register is cleared",
			Category:    "Archive",
			Sources:     cli.EnvVars("OPRISK_ARCHIVE_BUCKET"),
			Destination: &a.bucket,
		},
		&cli.StringFlag{
			Name:        "archive-prefix",
			Usage:       "Object name prefix for archived exports",
			Value:       "exports",
			Category:    "Archive",
			Sources:     cli.EnvVars("OPRISK_ARCHIVE_PREFIX"),
			Destination: &a.prefix,
		},
	}
}

// IsConfigured reports whether a bucket was given
func (a *Archive) IsConfigured() bool {
	return a.bucket != ""
}

// Configure returns the archiver, or nil when no bucket is configured
func (a *Archive) Configure(ctx context.Context) (*archive.GCS, error) {
	if !a.IsConfigured() {
		logging.Default().Info("Archive bucket not configured, export-and-clear files are not archived")
		return nil, nil
	}

	gcs, err := archive.NewGCS(ctx, a.bucket, a.prefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize archive", goerr.V("bucket", a.bucket))
	}
	logging.Default().Info("Archiving exports to Cloud Storage", "bucket", a.bucket, "prefix", a.prefix)
	return gcs, nil
}
