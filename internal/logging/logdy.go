package logging

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/logdyhq/logdy-core/logdy"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"stopline-worker-go/internal/config"
)

type logdyWriter struct {
	logger logdy.Logdy
}

func (w *logdyWriter) Write(p []byte) (n int, err error) {
	w.logger.LogString(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

// TeeLogdy starts the embedded Logdy web UI when enabled and returns out
// duplicated into it. With Logdy disabled out is returned unchanged.
func TeeLogdy(cfg *config.Config, out io.Writer) io.Writer {
	if !cfg.LogdyEnabled {
		return out
	}

	portStr := strconv.Itoa(cfg.LogdyPort)
	ld := logdy.InitializeLogdy(logdy.Config{
		ServerIp:   cfg.LogdyHost,
		ServerPort: portStr,
	}, nil)

	log.Info().Str("url", fmt.Sprintf("http://%s:%s", cfg.LogdyHost, portStr)).Msg("Logdy UI available")
	return zerolog.MultiLevelWriter(out, &logdyWriter{logger: ld})
}
