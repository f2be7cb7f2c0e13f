// Package dsrf parses DDEX sales-report flat files (DSRF) into streams of
// typed Block records.
//
// A DSRF report is one or more tab-delimited, optionally gzip-compressed
// files whose rows group into blocks: a leading HEAD block of metadata rows,
// numbered BODY blocks, and a trailing FOOT block. There is no end-of-block
// marker; the parser infers boundaries from row-type transitions and
// block-number continuity while it streams.
//
// # Quick Start
//
//	import (
//	    "github.com/godsrf/dsrf"
//	    "github.com/godsrf/dsrf/parser"
//	    "github.com/godsrf/dsrf/schema"
//	)
//
//	s, err := schema.Load(dsrf.V30, dsrf.ProfileAudioVisual)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	p := parser.New("DSR_..._1of1_20240101T120000.tsv.gz", 1, s)
//	blocks, err := p.Parse(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for block := range blocks {
//	    // blocks arrive lazily, in file order
//	}
//	if err := p.Err(); err != nil {
//	    log.Fatal(err)
//	}
//	for _, issue := range p.Result().Issues {
//	    fmt.Println(issue.Diagnostics)
//	}
//
// Malformed rows never abort a file: each one is reported as an Issue on the
// parser's Result, the row is skipped, and parsing continues. Only failures
// to open or read the underlying stream are fatal.
//
// # Cell validation
//
// What is legal inside a cell is delegated to CellValidator implementations,
// one per (row type, column), supplied through a RowSchema. The schema
// package provides validators driven by YAML schema documents (typed cells,
// regexp patterns, allowed-value sets, repeated values); the specs package
// embeds the documents for the standard version 3.0 profiles.
//
// # Multi-file reports
//
// The report package validates DSR file names, checks cross-file
// consistency, and parses the files of one report concurrently while
// emitting blocks in file order. The queue package serializes the resulting
// block stream for downstream consumers.
package dsrf
