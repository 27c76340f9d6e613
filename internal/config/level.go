package config

import "github.com/rs/zerolog"

// Level returns the zerolog level named by LogLevel, defaulting to info.
func (c AppConfig) Level() zerolog.Level {
	lvl, err := parseLevel(c.LogLevel)
	if err != nil {
		return zerolog.InfoLevel
	}
	return lvl
}

func parseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(s)
}
