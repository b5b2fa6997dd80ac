package logging

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Keys the API middleware stores on the gin context
const (
	KeyRequestID = "request_id"
	KeyStartTime = "start_time"
)

// Request returns a logger carrying the request id, method and matched route
func Request(c *gin.Context) zerolog.Logger {
	if c == nil {
		return log.Logger
	}
	lc := log.With().Str("method", c.Request.Method)
	if route := c.FullPath(); route != "" {
		lc = lc.Str("route", route)
	} else {
		lc = lc.Str("path", c.Request.URL.Path)
	}
	if id := c.GetString(KeyRequestID); id != "" {
		lc = lc.Str("request_id", id)
	}
	return lc.Logger()
}

func event(c *gin.Context, level zerolog.Level) *zerolog.Event {
	l := Request(c)
	e := l.WithLevel(level)
	if c != nil {
		if t, ok := c.Get(KeyStartTime); ok {
			if start, ok := t.(time.Time); ok {
				e = e.Dur("duration", time.Since(start))
			}
		}
	}
	return e
}

func Info(c *gin.Context) *zerolog.Event  { return event(c, zerolog.InfoLevel) }
func Debug(c *gin.Context) *zerolog.Event { return event(c, zerolog.DebugLevel) }
func Warn(c *gin.Context) *zerolog.Event  { return event(c, zerolog.WarnLevel) }
func Error(c *gin.Context) *zerolog.Event { return event(c, zerolog.ErrorLevel) }
