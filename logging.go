package main

import (
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/writer"
)

var logFile *os.File

// setupLogging configures the level and copies every line to a per-run log
// file inside dataDir
func setupLogging(logDebug, logTrace bool, dataDir string) {

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:  true,
		DisableSorting: true,
	})

	switch {
	case logTrace:
		log.SetLevel(log.TraceLevel)
	case logDebug:
		log.SetLevel(log.DebugLevel)
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create data directory %s: %s", dataDir, err)
	}

	runID := time.Now().Format("whitelister-2006-01-02-15-04-05")
	logLocation := filepath.Join(dataDir, runID+".log")

	var err error
	logFile, err = os.OpenFile(logLocation, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		log.Fatalf("Failed to open log file %s for output: %s", logLocation, err)
	}

	// Write everything to log file too
	log.AddHook(&writer.Hook{
		Writer:    logFile,
		LogLevels: log.AllLevels,
	})

	log.WithField("File", logLocation).Debug("Logging to file")
}

func closeLogging() {
	if logFile == nil {
		return
	}
	if err := logFile.Close(); err != nil {
		log.WithError(err).Error("Unable to close log file")
	}
}
