// Package models holds the backend's document model.
package models

import (
	"strconv"
	"time"
)

// Collections served by the backend, in the order they are listed by /health.
var Collections = []string{
	"users",
	"assets",
	"loans",
	"maintenances",
	"procurements",
	"properties",
	"vendors",
	"activities",
	"notifications",
}

// ValidCollection reports whether name is one of Collections.
func ValidCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

// Document is a schemaless JSON record. Every stored document has a string
// "id" and a "created_date".
type Document map[string]any

func (d Document) ID() string {
	return d.String("id")
}

// String returns the field as a string; numbers and booleans are formatted,
// anything else yields "".
func (d Document) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Float returns the field as a number; numeric strings are parsed.
func (d Document) Float(key string) float64 {
	switch v := d[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

// Public returns a copy of d without secrets.
func (d Document) Public() Document {
	out := make(Document, len(d))
	for k, v := range d {
		if k == "password_hash" {
			continue
		}
		out[k] = v
	}
	return out
}

// Timestamp formats t the way documents store dates.
func Timestamp(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000000")
}
