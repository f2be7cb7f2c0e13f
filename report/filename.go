// Package report assembles individual sales report files into a complete
// multi-file report: it validates file names against the DDEX naming
// convention, checks that the file set is consistent and complete, and
// parses the files concurrently while delivering blocks in file order.
package report

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/godsrf/dsrf"
)

// NameFormat is the file naming convention every report file must follow.
// The x and y placeholders carry the file's position in the set ("3of7").
const NameFormat = "DSR_MessageRecipient_MessageSender_ServiceDescription_" +
	"MessageNotificationPeriod_TerritoryOfUseOrSale_xofy_MessageCreatedDateTime.ext"

// namePrefix opens every report file name.
const namePrefix = "DSR"

// SupportedExtensions lists the file extensions a report file may carry.
var SupportedExtensions = []string{"tsv", "tsv.gz"}

var (
	// A year, optionally narrowed to a month, a day range, a date span or
	// a quarter: 2015, 2015-02, 2015-02-01, 2015-02-01--2015-03-01, 2015-Q1.
	periodPattern = regexp.MustCompile(`^\d{4}((-\d{2,3})|(-\d{2}-\d{2}(--\d{4}-\d{2}-\d{2})?)|(-Q\d{1}))?$`)

	// An ISO country code, a TIS numeric code, or the multi-territory markers.
	territoryPattern = regexp.MustCompile(`(?i)^(\w{2}|\d{1,4}|Worldwide|multi)$`)

	createdPattern  = regexp.MustCompile(`^\d{8}T\d{6}$`)
	sequencePattern = regexp.MustCompile(`^(\d+)of(\d+)$`)
)

// FileName is the parsed form of a single report file's name.
type FileName struct {
	// Path is the name as given, before any validation.
	Path string

	Recipient          string
	Sender             string
	ServiceDescription string
	Period             string
	Territory          string

	// FileNumber and TotalFiles come from the xofy component: this file is
	// number FileNumber of TotalFiles in the report.
	FileNumber int
	TotalFiles int

	// Created is the MessageCreatedDateTime component, yyyymmddThhmmss.
	Created string

	// Extension is one of SupportedExtensions.
	Extension string
}

// Compressed reports whether the file is gzip compressed.
func (f *FileName) Compressed() bool {
	return strings.HasSuffix(f.Extension, ".gz")
}

// String reassembles the name in the convention's format.
func (f *FileName) String() string {
	return fmt.Sprintf("%s_%s_%s_%s_%s_%s_%dof%d_%s.%s",
		namePrefix, f.Recipient, f.Sender, f.ServiceDescription, f.Period,
		f.Territory, f.FileNumber, f.TotalFiles, f.Created, f.Extension)
}

// NameError reports a file name that does not follow the naming convention.
// It carries one issue per offending component.
type NameError struct {
	FileName string
	Issues   []dsrf.Issue
}

func (e *NameError) Error() string {
	if len(e.Issues) == 1 {
		return e.Issues[0].Diagnostics
	}
	return fmt.Sprintf("file name %q has %d invalid components", e.FileName, len(e.Issues))
}

// ParseFileName validates name against NameFormat and returns its parsed
// components. The directory part of name is ignored. On failure the returned
// error is a *NameError listing every offending component.
func ParseFileName(name string) (*FileName, error) {
	base := filepath.Base(name)

	stem, ext, ok := splitExtension(base)
	if !ok {
		return nil, &NameError{FileName: base, Issues: []dsrf.Issue{
			dsrf.Diagnostic(dsrf.DiagFileNameExtension, map[string]any{
				"file_name": base,
				"supported": strings.Join(SupportedExtensions, ", "),
			}).File(base).Build(),
		}}
	}

	parts := strings.Split(stem, "_")
	if len(parts) != 8 {
		return nil, &NameError{FileName: base, Issues: []dsrf.Issue{
			dsrf.Diagnostic(dsrf.DiagFileNameFormat, map[string]any{
				"file_name": base,
				"format":    NameFormat,
			}).File(base).Build(),
		}}
	}

	fn := &FileName{
		Path:               name,
		Recipient:          parts[1],
		Sender:             parts[2],
		ServiceDescription: parts[3],
		Period:             parts[4],
		Territory:          parts[5],
		Created:            parts[7],
		Extension:          ext,
	}

	var issues []dsrf.Issue
	bad := func(part, value string) {
		issues = append(issues, dsrf.Diagnostic(dsrf.DiagFileNamePart, map[string]any{
			"part":      part,
			"value":     value,
			"file_name": base,
		}).File(base).Build())
	}

	if parts[0] != namePrefix {
		bad("DSR", parts[0])
	}
	if fn.Recipient == "" {
		bad("MessageRecipient", fn.Recipient)
	}
	if fn.Sender == "" {
		bad("MessageSender", fn.Sender)
	}
	if fn.ServiceDescription == "" {
		bad("ServiceDescription", fn.ServiceDescription)
	}
	if !periodPattern.MatchString(fn.Period) {
		bad("MessageNotificationPeriod", fn.Period)
	}
	if !territoryPattern.MatchString(fn.Territory) {
		bad("TerritoryOfUseOrSale", fn.Territory)
	}
	if m := sequencePattern.FindStringSubmatch(parts[6]); m == nil {
		bad("xofy", parts[6])
	} else {
		x, errX := strconv.Atoi(m[1])
		y, errY := strconv.Atoi(m[2])
		switch {
		case errX != nil || x < 1 || (errY == nil && x > y):
			bad("x", m[1])
		case errY != nil || y < 1:
			bad("y", m[2])
		default:
			fn.FileNumber = x
			fn.TotalFiles = y
		}
	}
	if !createdPattern.MatchString(fn.Created) {
		bad("MessageCreatedDateTime", fn.Created)
	}

	if len(issues) > 0 {
		return nil, &NameError{FileName: base, Issues: issues}
	}
	return fn, nil
}

// splitExtension cuts the supported extension off base, longest match first
// so "a.tsv.gz" yields "tsv.gz" rather than a stem ending in ".tsv".
func splitExtension(base string) (stem, ext string, ok bool) {
	for _, e := range []string{"tsv.gz", "tsv"} {
		if s, found := strings.CutSuffix(base, "."+e); found {
			return s, e, true
		}
	}
	return "", "", false
}
