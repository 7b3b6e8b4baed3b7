// Package config reads typed settings by dotted key ("app.server.http.port").
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer settings as durations of the named unit.
type TimeConfig interface {
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
	GetHour(key string) time.Duration
	GetDay(key string) time.Duration
}

// NumberConfig reads numeric settings. Missing or malformed values read as zero.
type NumberConfig interface {
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint(key string) uint
	GetUint16(key string) uint16
	GetUint32(key string) uint32
	GetUint64(key string) uint64
	GetFloat32(key string) float32
	GetFloat64(key string) float64
}

// Config is the read side of the settings tree.
type Config interface {
	io.Closer
	TimeConfig
	NumberConfig

	GetBool(key string) bool
	GetString(key string) string

	// GetBinary decodes a base64 value. Invalid input reads as nil.
	GetBinary(key string) []byte

	// GetArray splits "a,b,c". Blank elements are dropped.
	GetArray(key string) []string

	// GetMap parses "k1:v1,k2:v2".
	GetMap(key string) map[string]string
}
