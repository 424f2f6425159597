package deploy

import (
	"path"
	"time"

	"github.com/wpdeploy/target/types"
)

// TimestampLayout names backup folders, local time
const TimestampLayout = "20060102_150405"

// stagingSuffix is appended to the backup folder name while the theme is uploaded
const stagingSuffix = "_upload"

// Plan holds the paths of one deployment run
type Plan struct {
	LocalRoot string

	// LiveRoot is the remote theme directory served to visitors
	LiveRoot string

	// BackupBase is the remote directory holding every backup
	BackupBase string

	// BackupRoot receives the live theme when the upload is complete
	BackupRoot string

	// StagingRoot receives the upload and becomes LiveRoot afterwards
	StagingRoot string
}

// NewPlan computes the paths for a run started at now
func NewPlan(cfg types.Config, now time.Time) Plan {
	backupBase := cfg.BackupRoot()
	backupRoot := path.Join(backupBase, now.Format(TimestampLayout)+"_"+cfg.Theme)

	return Plan{
		LocalRoot:   cfg.ThemeLocal(),
		LiveRoot:    cfg.ThemeRemote(),
		BackupBase:  backupBase,
		BackupRoot:  backupRoot,
		StagingRoot: backupRoot + stagingSuffix,
	}
}

// StagingPath is the upload destination of e
func (p Plan) StagingPath(e types.Entry) string {
	return path.Join(p.StagingRoot, e.RelPath)
}
