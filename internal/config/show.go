package config

import (
	"fmt"
	"io"
	"strconv"
)

// Entry is one effective setting and where it came from.
type Entry struct {
	Key    string
	Value  string
	Source ConfigSource
}

// Entries lists every setting in configFields order.
func (cws *ConfigWithSources) Entries() []Entry {
	c := cws.Config
	values := map[string]string{
		"base_url":                strconv.Quote(c.BaseURL),
		"request_timeout_seconds": strconv.Itoa(c.RequestTimeoutSeconds),
		"strategy":                strconv.Quote(c.Strategy),
		"schema_file":             strconv.Quote(c.SchemaFile),
		"log_dir":                 strconv.Quote(c.LogDir),
		"log_level":               strconv.Quote(c.LogLevel),
		"log_format":              strconv.Quote(c.LogFormat),
		"log_timestamps":          strconv.FormatBool(c.LogTimestamps),
		"log_caller":              strconv.FormatBool(c.LogCaller),
	}
	fields := configFields()
	entries := make([]Entry, 0, len(fields))
	for _, key := range fields {
		entries = append(entries, Entry{Key: key, Value: values[key], Source: cws.Sources[key]})
	}
	return entries
}

// WriteEffective writes the effective settings as TOML with the source of
// each value in a trailing comment.
func (cws *ConfigWithSources) WriteEffective(w io.Writer) error {
	for _, f := range cws.Files {
		if _, err := fmt.Fprintf(w, "# read %s\n", f); err != nil {
			return err
		}
	}
	for _, e := range cws.Entries() {
		if _, err := fmt.Fprintf(w, "%s = %s  # %s\n", e.Key, e.Value, e.Source); err != nil {
			return err
		}
	}
	return nil
}
