package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"mines-client/internal/config"
)

var (
	sinkMu sync.RWMutex
	sink   io.Writer = os.Stdout
	file   *cappedFile
)

// Init configures the global zerolog logger. When cfg.File is set, records
// go to both stdout and a size-capped file.
func Init(cfg config.LogConfig) {
	level := zerolog.InfoLevel
	if v := strings.TrimSpace(cfg.Level); v != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(v)); err == nil {
			level = parsed
		}
	}

	var out io.Writer = os.Stdout
	if cfg.Pretty {
		out = zerolog.ConsoleWriter{Out: os.Stdout}
	}
	raw := io.Writer(os.Stdout)

	var fileErr error
	if path := strings.TrimSpace(cfg.File); path != "" {
		f, err := openCappedFile(path, cfg.MaxMB)
		if err != nil {
			fileErr = err
		} else {
			closeFile()
			file = f
			out = zerolog.MultiLevelWriter(out, f)
			raw = io.MultiWriter(raw, f)
		}
	}

	sinkMu.Lock()
	sink = raw
	sinkMu.Unlock()

	zerolog.SetGlobalLevel(level)
	ctx := zerolog.New(out).With().Timestamp()
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	logger := ctx.Logger()
	if cfg.SampleEvery > 1 {
		logger = logger.Sample(&zerolog.BasicSampler{N: uint32(cfg.SampleEvery)})
	}
	log.Logger = logger

	if fileErr != nil {
		log.Warn().Err(fileErr).Str("path", cfg.File).Msg("log file unavailable; logging to stdout only")
	}
}

// Writer returns the raw sink used by non-zerolog loggers (HTTP request logs).
func Writer() io.Writer {
	sinkMu.RLock()
	defer sinkMu.RUnlock()
	return sink
}

func Close() error {
	return closeFile()
}

func closeFile() error {
	if file == nil {
		return nil
	}
	err := file.Close()
	file = nil
	return err
}
