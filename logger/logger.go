package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/okonma/citymood/config"
)

const (
	maxLogSize    = 5 * 1024 * 1024 // 5MB
	maxLogBackups = 5
)

var (
	// Logger falls back to stderr until InitLogger runs.
	Logger  = log.New(os.Stderr, "", log.LstdFlags)
	logFile *os.File
)

func InitLogger(cfg *config.Config) error {
	logDir := filepath.Join(cfg.Storage.SaveLocation, ".logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	path := filepath.Join(logDir, "citymood.log")
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	logFile = file
	Logger = log.New(io.MultiWriter(file, os.Stderr), "", log.Ldate|log.Ltime|log.Lshortfile)

	go rotateLogFile(path)

	return nil
}

func rotateLogFile(path string) {
	for {
		time.Sleep(1 * time.Hour)

		info, err := os.Stat(path)
		if err != nil {
			Logger.Printf("Error checking log file: %v", err)
			continue
		}

		if info.Size() < maxLogSize {
			continue
		}

		Logger.Printf("Rotating log file")

		for i := maxLogBackups - 1; i > 0; i-- {
			oldFile := fmt.Sprintf("%s.%d", path, i)
			newFile := fmt.Sprintf("%s.%d", path, i+1)
			os.Rename(oldFile, newFile)
		}

		os.Rename(path, path+".1")
		logFile.Close()

		newFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			Logger.Printf("Error creating new log file: %v", err)
			continue
		}

		logFile = newFile
		Logger.SetOutput(io.MultiWriter(newFile, os.Stderr))
	}
}
