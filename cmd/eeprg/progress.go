package main

import (
	"github.com/schollz/progressbar/v3"
	"github.com/sirupsen/logrus"

	"github.com/tinyprog/go-eeprom/programmer"
)

// newProgressSink returns a progress callback rendering one progress bar
// per phase on stderr.
func newProgressSink() programmer.ProgressCallback {
	var bar *progressbar.ProgressBar
	var phase string

	return func(p programmer.Progress) {
		if p.Phase == programmer.PhaseComplete {
			if bar != nil {
				_ = bar.Finish()
				bar = nil
			}
			return
		}
		if p.TotalBytes == 0 {
			return
		}

		if p.Phase != phase || bar == nil {
			if bar != nil {
				_ = bar.Finish()
			}
			bar = progressbar.NewOptions(int(p.TotalBytes),
				progressbar.OptionSetWidth(40),
				progressbar.OptionSetDescription(phaseLabel(p.Phase)),
				progressbar.OptionShowBytes(true),
				progressbar.OptionClearOnFinish(),
			)
			phase = p.Phase
		}
		_ = bar.Set(int(p.BytesDone))
	}
}

func phaseLabel(phase string) string {
	switch phase {
	case programmer.PhaseErasing:
		return "Erasing"
	case programmer.PhaseWriting:
		return "Writing"
	case programmer.PhaseReading:
		return "Reading"
	case programmer.PhaseVerifying:
		return "Verifying"
	default:
		return phase
	}
}

// logrusAdapter feeds the engine's logger interface into logrus.
type logrusAdapter struct{}

func (logrusAdapter) Debug(msg string, kv ...interface{}) {
	logrus.WithFields(fields(kv)).Debug(msg)
}

func (logrusAdapter) Info(msg string, kv ...interface{}) {
	logrus.WithFields(fields(kv)).Info(msg)
}

func (logrusAdapter) Error(msg string, kv ...interface{}) {
	logrus.WithFields(fields(kv)).Error(msg)
}

func fields(kv []interface{}) logrus.Fields {
	f := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			f[key] = kv[i+1]
		}
	}
	return f
}
