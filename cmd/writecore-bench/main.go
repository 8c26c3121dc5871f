// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Command writecore-bench drives the write path end to end — router
// encoding, partition-registry chunk write/rollover/freeze, and an
// optional persisted-file write — against synthetic line data, driven
// by flags and an optional JSON config file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/ccstorage/tsdbwritecore/internal/config"
	"github.com/ccstorage/tsdbwritecore/internal/corelog"
	"github.com/ccstorage/tsdbwritecore/internal/memreg"
	"github.com/ccstorage/tsdbwritecore/internal/parsedline"
	"github.com/ccstorage/tsdbwritecore/internal/partition"
	"github.com/ccstorage/tsdbwritecore/internal/readiness"
	"github.com/ccstorage/tsdbwritecore/internal/router"
	"github.com/ccstorage/tsdbwritecore/pkg/persist"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	var (
		flagConfigFile   string
		flagPartitionKey string
		flagWriterID     uint
		flagNumLines     int
		flagOutDir       string
		flagVerbose      bool
	)
	flag.StringVar(&flagConfigFile, "config", "./config.json", "Overwrite the defaults with `config.json` if present")
	flag.StringVar(&flagPartitionKey, "partition", "bench", "Partition key to write synthetic lines into")
	flag.UintVar(&flagWriterID, "writer-id", 1, "Writer id to stamp into the replicated-write envelope")
	flag.IntVar(&flagNumLines, "lines", 10000, "Number of synthetic lines to generate and write")
	flag.StringVar(&flagOutDir, "out", "", "If set, persist the rolled-over chunk's tables here")
	flag.BoolVar(&flagVerbose, "verbose", false, "Enable debug logging")
	flag.Parse()

	if flagVerbose {
		corelog.SetLevel(corelog.LevelDebug)
	}

	if raw, err := os.ReadFile(flagConfigFile); err == nil {
		config.Init(json.RawMessage(raw))
	} else if !os.IsNotExist(err) {
		corelog.Fatalf("[BENCH]> reading %s: %s", flagConfigFile, err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		reg      *memreg.Registry
		registry *partition.Registry
		r        *router.Router
	)
	gate := readiness.New()
	if err := gate.Await(ctx, func(context.Context) error {
		reg = memreg.NewRegistry(prometheus.NewRegistry())
		registry = partition.NewRegistry(reg)
		r = router.New()
		return nil
	}); err != nil {
		corelog.Fatalf("[BENCH]> startup failed: %s", err.Error())
	}

	lines := syntheticLines(flagNumLines)
	partitioner := parsedline.PartitionerFunc(func(parsedline.ParsedLine, int64) string {
		return flagPartitionKey
	})

	// Encode once through the router to exercise the replicated-write
	// envelope, even though this single-process bench applies the same
	// lines locally rather than shipping the envelope to a replica.
	env, err := r.WriteLines(uint32(flagWriterID), 1, lines, partitioner)
	if err != nil {
		corelog.Fatalf("[BENCH]> encode failed: %s", err.Error())
	}
	corelog.Infof("[BENCH]> encoded envelope: writer=%d sequence=%d payload_bytes=%d checksum=%08x",
		env.Writer, env.Sequence, len(env.Payload), env.Checksum)

	c := registry.OpenChunk(flagPartitionKey)
	n, err := c.Write(lines, time.Now().UnixNano(), partitioner)
	if err != nil {
		corelog.Fatalf("[BENCH]> chunk write failed: %s", err.Error())
	}
	corelog.Infof("[BENCH]> wrote %d rows into chunk %d for partition %q", n, c.ChunkID(), flagPartitionKey)

	imm, err := registry.RolloverAndFreeze(flagPartitionKey)
	if err != nil {
		corelog.Fatalf("[BENCH]> rollover failed: %s", err.Error())
	}
	if imm == nil {
		corelog.Infof("[BENCH]> nothing to roll over for partition %q", flagPartitionKey)
		return
	}
	corelog.Infof("[BENCH]> froze chunk %d for partition %q (%d bytes)", imm.ID(), flagPartitionKey, imm.Size())

	if flagOutDir == "" {
		return
	}
	if err := os.MkdirAll(flagOutDir, 0o755); err != nil {
		corelog.Fatalf("[BENCH]> creating %s: %s", flagOutDir, err.Error())
	}

	format := config.Keys.Checkpoints.FileFormat
	paths, err := persist.WriteChunk(flagOutDir, format, imm)
	if err != nil {
		corelog.Fatalf("[BENCH]> persist failed: %s", err.Error())
	}
	reader, err := persist.ReaderFor(format)
	if err != nil {
		corelog.Fatalf("[BENCH]> persist reader: %s", err.Error())
	}
	imm.AttachPersisted(paths, reader)
	imm.FreeFromMemory()

	tables := make([]string, 0, len(paths))
	for name := range paths {
		tables = append(tables, name)
	}
	sort.Strings(tables)
	for _, name := range tables {
		fmt.Println(paths[name])
	}
}

func syntheticLines(n int) []parsedline.ParsedLine {
	hosts := []string{"node01", "node02", "node03"}
	lines := make([]parsedline.ParsedLine, 0, n)
	for i := 0; i < n; i++ {
		fv, err := lineprotocol.NewValue(rand.Float64() * 100)
		if err != nil {
			corelog.Fatalf("[BENCH]> building synthetic value: %s", err.Error())
		}
		lines = append(lines, parsedline.ParsedLine{
			Measurement: "cpu_load",
			Tags:        []parsedline.TagPair{{Key: "host", Value: hosts[i%len(hosts)]}},
			Fields:      []parsedline.FieldPair{{Key: "value", Value: fv}},
		})
	}
	return lines
}
