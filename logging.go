package fastslam

import (
	"log/slog"
	"os"
)

// defaultLogger mirrors the original's pervasive glog INFO/WARNING call
// sites with a structured, leveled logger. Callers that want quieter or
// differently-formatted output can inject their own via WithLogger.
func defaultLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}
