package logger

import (
	"encoding/json"
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

var rotator *lumberjack.Logger

// DefaultPath is <UserCacheDir>/video-splitter/video-splitter.log.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "video-splitter.log"
	}
	return filepath.Join(dir, "video-splitter", "video-splitter.log")
}

func Setup(logFilePath string) {
	if logFilePath == "" {
		logFilePath = DefaultPath()
	}
	_ = os.MkdirAll(filepath.Dir(logFilePath), 0755)

	// Lumberjack logger for rotation
	rotator = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7,    // days
		Compress:   true, // gzip
	}

	mw := io.MultiWriter(os.Stdout, rotator)

	log.SetOutput(mw)
	log.SetFlags(log.LstdFlags | log.Lshortfile)
}

func MuteStdout() {
	if rotator != nil {
		log.SetOutput(rotator)
	}
}

// Record logs v as a single JSON line so the stats command can find it
// behind the log prefix.
func Record(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("record marshal: %v", err)
		return
	}
	log.Println(string(b))
}
