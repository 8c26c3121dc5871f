// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the storage core's JSON configuration, schema
// validated against an inline JSON Schema string compiled with
// santhosh-tekuri/jsonschema/v5, then decoded with encoding/json's
// DisallowUnknownFields.
package config

import (
	"bytes"
	"encoding/json"

	"github.com/ccstorage/tsdbwritecore/internal/corelog"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Keys holds the process-wide storage-core configuration, populated once
// by Init.
var Keys StoreConfig

type StoreConfig struct {
	Checkpoints struct {
		FileFormat string `json:"file-format"` // "avro" | "parquet"
		Interval   string `json:"interval"`
		RootDir    string `json:"directory"`
	} `json:"checkpoints"`

	// RetentionInMemory and MemoryCapMB are accepted and decoded but read
	// by nothing in this module: no chunk is rolled over, frozen or freed
	// on a timer or a memory threshold. Resident data is dropped only when
	// a caller invokes ImmutableChunk.FreeFromMemory. The same holds for
	// Checkpoints.Interval.
	RetentionInMemory string `json:"retention-in-memory"`

	MemoryCapMB int64 `json:"memory-cap-mb"`

	// NumWorkers bounds pkg/persist.WriteChunk's per-table fan-out. Zero
	// or a negative value leaves the fan-out unbounded.
	NumWorkers int `json:"num-workers"`

	// WriterID identifies this process in encoded envelopes.
	WriterID uint32 `json:"writer-id"`
}

const configSchema = `{
    "type": "object",
    "description": "Configuration for the write-path storage core.",
    "properties": {
        "checkpoints": {
            "type": "object",
            "properties": {
                "file-format": {
                    "description": "Persisted chunk encoding: 'avro' or 'parquet'.",
                    "type": "string"
                },
                "interval": {
                    "description": "Rollover interval; decoded but not acted on (rollover and freeze are caller-driven).",
                    "type": "string"
                },
                "directory": {
                    "description": "Root directory under which persisted chunk files are written.",
                    "type": "string"
                }
            }
        },
        "retention-in-memory": {
            "description": "In-memory retention for persisted chunks; decoded but not acted on.",
            "type": "string"
        },
        "memory-cap-mb": {
            "description": "Soft memory ceiling in megabytes; decoded but not acted on.",
            "type": "integer"
        },
        "num-workers": {
            "description": "Concurrency for per-table persisted-file writes; zero means unbounded.",
            "type": "integer"
        },
        "writer-id": {
            "description": "Identifies this process in encoded replicated-write envelopes.",
            "type": "integer"
        }
    }
}`

// Init validates rawConfig against configSchema and decodes it into Keys.
// A nil rawConfig leaves Keys at its zero value.
func Init(rawConfig json.RawMessage) {
	if rawConfig == nil {
		return
	}

	Validate(configSchema, rawConfig)

	dec := json.NewDecoder(bytes.NewReader(rawConfig))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		corelog.Abortf("[CONFIG]> could not decode config: %s", err.Error())
	}
}

// Validate compiles schema and checks instance against it, aborting the
// process on failure (config errors are not recoverable at startup).
func Validate(schema string, instance json.RawMessage) {
	sch, err := jsonschema.CompileString("schema.json", schema)
	if err != nil {
		corelog.Abortf("[CONFIG]> invalid schema: %s", err.Error())
	}

	var v any
	if err := json.Unmarshal(instance, &v); err != nil {
		corelog.Abortf("[CONFIG]> invalid instance JSON: %s", err.Error())
	}

	if err := sch.Validate(v); err != nil {
		corelog.Abortf("[CONFIG]> config validation failed: %s", err.Error())
	}
}
