// Package configvalidator checks a candidate collector configuration
// document against the declarative rule schema of spec §6.3 before it
// is ever persisted or pushed to a Host. Validation never mutates the
// document: once accepted, it is carried as opaque bytes (only the
// SCPTAG comment is parsed out).
package configvalidator

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"

	srvErrors "github.com/sysmonctl/controlplane/pkg/errors"
)

// allowedOnMatch is the closed set of onmatch values a rule-group filter
// may carry.
var allowedOnMatch = map[string]bool{"include": true, "exclude": true}

// allowedGroupRelation is the closed set of groupRelation values a
// RuleGroup may carry.
var allowedGroupRelation = map[string]bool{"or": true, "and": true}

// allowedCondition is the closed set of Field condition attributes the
// schema recognizes.
var allowedCondition = map[string]bool{
	"is": true, "is not": true, "contains": true, "excludes": true,
	"begin with": true, "end with": true, "less than": true, "more than": true,
	"image": true,
}

// sysmonConfig mirrors just enough of <Sysmon> to validate structure;
// everything else is re-serialized as opaque bytes, never this struct.
type sysmonConfig struct {
	XMLName        xml.Name
	SchemaVersion  string `xml:"schemaversion,attr"`
	EventFiltering struct {
		RuleGroups []ruleGroup `xml:"RuleGroup"`
	} `xml:"EventFiltering"`
}

type ruleGroup struct {
	Name          string   `xml:"name,attr"`
	GroupRelation string   `xml:"groupRelation,attr"`
	Filters       []filter `xml:",any"`
}

// filter is one per-event-kind element (<ProcessCreate onmatch="...">,
// <NetworkConnection onmatch="...">, etc.) holding inner <Field> rules.
type filter struct {
	XMLName xml.Name
	OnMatch string  `xml:"onmatch,attr"`
	Fields  []field `xml:"Field"`
}

type field struct {
	Condition string `xml:"condition,attr"`
	Value     string `xml:",chardata"`
}

// Result is the outcome of validating one candidate document, shaped
// to drop directly into models.Config's is_valid/validation_message/tag
// fields (spec §4.8).
type Result struct {
	IsValid           bool
	ValidationMessage string
	Tag               string
}

// scpTagPattern matches a labeled comment near the top of the document,
// e.g. "<!-- SCPTAG:baseline-workstation -->".
var scpTagPattern = regexp.MustCompile(`SCPTAG:(\S+)`)

// Validate parses content as a collector configuration document and
// checks its root element, schema version attribute, and rule-group
// structure. A structurally invalid document returns a Result with
// IsValid false and a human-readable ValidationMessage rather than an
// error — the caller still persists the attempt (spec §4.8: is_valid is
// stored, not rejected outright). Validate returns a Go error only for
// inputs too malformed to even report on, such as empty content.
func Validate(content []byte) (Result, error) {
	if len(content) == 0 {
		return Result{}, srvErrors.NewValidationError("configuration document is empty")
	}

	tag := extractTag(content)

	var cfg sysmonConfig
	if err := xml.Unmarshal(content, &cfg); err != nil {
		return Result{Tag: tag, ValidationMessage: fmt.Sprintf("malformed XML: %v", err)}, nil
	}
	if cfg.XMLName.Local != "Sysmon" {
		return Result{Tag: tag, ValidationMessage: fmt.Sprintf("root element must be <Sysmon>, got <%s>", cfg.XMLName.Local)}, nil
	}
	if strings.TrimSpace(cfg.SchemaVersion) == "" {
		return Result{Tag: tag, ValidationMessage: "missing schemaversion attribute on <Sysmon>"}, nil
	}
	if len(cfg.EventFiltering.RuleGroups) == 0 {
		return Result{Tag: tag, ValidationMessage: "EventFiltering must contain at least one RuleGroup"}, nil
	}

	for _, rg := range cfg.EventFiltering.RuleGroups {
		if rg.GroupRelation != "" && !allowedGroupRelation[rg.GroupRelation] {
			return Result{Tag: tag, ValidationMessage: fmt.Sprintf("RuleGroup %q has invalid groupRelation %q", rg.Name, rg.GroupRelation)}, nil
		}
		for _, f := range rg.Filters {
			if !allowedOnMatch[f.OnMatch] {
				return Result{Tag: tag, ValidationMessage: fmt.Sprintf("%s in RuleGroup %q has invalid onmatch %q", f.XMLName.Local, rg.Name, f.OnMatch)}, nil
			}
			for _, fl := range f.Fields {
				if !allowedCondition[strings.ToLower(fl.Condition)] {
					return Result{Tag: tag, ValidationMessage: fmt.Sprintf("%s in RuleGroup %q has invalid Field condition %q", f.XMLName.Local, rg.Name, fl.Condition)}, nil
				}
			}
		}
	}

	return Result{IsValid: true, Tag: tag}, nil
}

func extractTag(content []byte) string {
	m := scpTagPattern.FindSubmatch(content)
	if m == nil {
		return ""
	}
	return string(m[1])
}
