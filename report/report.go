// Package report renders the progress events of a deployment
package report

import (
	"github.com/sirupsen/logrus"
	"github.com/wpdeploy/deploy"
)

// Multi sends every event to all reporters
type Multi []deploy.Reporter

// Report forwards e
func (m Multi) Report(e deploy.Event) {
	for _, r := range m {
		r.Report(e)
	}
}

// Log writes events to a logger
type Log struct {
	Logger logrus.FieldLogger
}

// Report logs e
func (l Log) Report(e deploy.Event) {
	log := l.Logger.WithField("state", e.State)

	switch e.Type {
	case deploy.EventStarted:
		log.Debug("state entered")
	case deploy.EventItem:
		log.WithFields(logrus.Fields{
			"path":  e.Entry.RelPath,
			"kind":  e.Entry.Kind,
			"done":  e.Done,
			"total": e.Total,
		}).Debug("transferred")
	case deploy.EventCompleted:
		log.WithFields(logrus.Fields{
			"live":   e.Plan.LiveRoot,
			"backup": e.Plan.BackupRoot,
		}).Info("upload complete")
	case deploy.EventFailed:
		log.WithError(e.Err).Error("deployment failed")
	}
}
