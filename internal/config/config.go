// Package config loads engine-level bootstrap configuration: .env-based
// tunables via godotenv, and an optional JSONC relation-schema manifest
// an engine can feed into DefineRelation calls at startup.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EngineDefaults are the .env-tunable knobs engine.NewFromEnv reads.
type EngineDefaults struct {
	AutoRegister        bool
	FlushThreshold      int
	RelationsManifest   string
}

const (
	envAutoRegister      = "LFTJ_AUTO_REGISTER"
	envFlushThreshold    = "LFTJ_FLUSH_THRESHOLD"
	envRelationsManifest = "LFTJ_RELATIONS_MANIFEST"

	defaultFlushThreshold = 256
)

// LoadEnv loads path (".env" conventionally) into the process environment
// if present, then reads EngineDefaults from it. A missing .env file is not
// an error — godotenv.Load itself returns one, which is discarded here the
// same way the teacher's main.go discards it (`_ = godotenv.Load(".env")`):
// running without a .env file is a normal, supported configuration.
func LoadEnv(path string) EngineDefaults {
	_ = godotenv.Load(path)
	return EngineDefaults{
		AutoRegister:      boolEnv(envAutoRegister, false),
		FlushThreshold:    intEnv(envFlushThreshold, defaultFlushThreshold),
		RelationsManifest: os.Getenv(envRelationsManifest),
	}
}

func boolEnv(name string, def bool) bool {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func intEnv(name string, def int) int {
	v, ok := os.LookupEnv(name)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
