package errhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pipebase/pipebase/pkg/logger"
	"github.com/pipebase/pipebase/runtime/kernel"
)

// FileHandlerConfig configures a FileHandler.
type FileHandlerConfig struct {
	Path string `yaml:"path"`
}

// FileHandler appends one JSON line per PipeError to a file. A write
// failure is logged and swallowed: the handler must never become the
// reason the drain stalls.
type FileHandler struct {
	mu  sync.Mutex
	f   *os.File
	log *logger.Logger
}

func NewFileHandler(path string, log *logger.Logger) (*FileHandler, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open error log %q: %w", path, err)
	}
	return &FileHandler{f: f, log: log}, nil
}

func (h *FileHandler) Handle(_ context.Context, e kernel.PipeError) {
	line := struct {
		Time  time.Time `json:"time"`
		Pipe  string    `json:"pipe"`
		Error string    `json:"error"`
	}{Time: time.Now().UTC(), Pipe: e.PipeName, Error: e.Err.Error()}

	data, err := json.Marshal(line)
	if err != nil {
		h.log.Error(err, "encode pipe error")
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.f.Write(append(data, '\n')); err != nil {
		h.log.Error(err, "write pipe error")
	}
}

// Close releases the underlying file.
func (h *FileHandler) Close() error {
	return h.f.Close()
}

// FromConfig materializes the handler named by a manifest error entry:
// "Log" (or empty) selects the structured-log handler, "File" the JSON
// lines file handler.
func FromConfig(configType, path string, log *logger.Logger) (Handler, error) {
	switch configType {
	case "", "Log":
		return NewLogHandler(log), nil
	case "File":
		cfg := FileHandlerConfig{Path: "pipe_errors.jsonl"}
		if path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read error handler config %q: %w", path, err)
			}
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("decode error handler config %q: %w", path, err)
			}
		}
		return NewFileHandler(cfg.Path, log)
	default:
		return nil, fmt.Errorf("unknown error handler config type %q", configType)
	}
}
