// Package scenario runs scripted host sessions against the list engine.
//
// A scenario describes a list, a viewport and a timeline of host events
// (scrolls, measurements, data changes, animated jumps). Running it drives an
// adapter.Controller exactly as a UI binding would and records one Frame per
// step, which the vlist CLI prints, charts and compares against golden files.
package scenario

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/virtualizer/pkg/adapter"
	"github.com/Sumatoshi-tech/virtualizer/pkg/virtualizer"
)

// Op names a scenario step.
type Op string

// Step operations.
const (
	OpScroll            Op = "scroll"
	OpViewport          Op = "viewport"
	OpMeasure           Op = "measure"
	OpMeasureVisible    Op = "measure_visible"
	OpResize            Op = "resize"
	OpCount             Op = "count"
	OpAppend            Op = "append"
	OpPrepend           Op = "prepend"
	OpReorder           Op = "reorder"
	OpScrollTo          Op = "scroll_to"
	OpTweenTo           Op = "tween_to"
	OpTick              Op = "tick"
	OpEnable            Op = "enable"
	OpDisable           Op = "disable"
	OpResetMeasurements Op = "reset_measurements"
	OpExportCache       Op = "export_cache"
	OpImportCache       Op = "import_cache"
)

// Sentinel errors.
var (
	// ErrInvalidScenario wraps schema and timeline validation failures.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported scenario format")
)

// Scenario is a scripted host session.
type Scenario struct {
	Name     string `json:"name"     yaml:"name"`
	List     List   `json:"list"     yaml:"list"`
	Viewport uint32 `json:"viewport" yaml:"viewport"`
	Steps    []Step `json:"steps"    yaml:"steps"`
}

// List describes the simulated dataset and engine options. Nil options keep
// the configured engine defaults.
type List struct {
	Count         int      `json:"count"                    yaml:"count"`
	Estimate      uint32   `json:"estimate"                 yaml:"estimate"`
	Sizes         []uint32 `json:"sizes,omitempty"          yaml:"sizes,omitempty"`
	Pinned        []int    `json:"pinned,omitempty"         yaml:"pinned,omitempty"`
	InitialOffset uint64   `json:"initial_offset"           yaml:"initial_offset"`
	Disabled      bool     `json:"disabled"                 yaml:"disabled"`
	Overscan      *int     `json:"overscan,omitempty"       yaml:"overscan,omitempty"`
	Gap           *uint32  `json:"gap,omitempty"            yaml:"gap,omitempty"`
	PaddingStart  *uint32  `json:"padding_start,omitempty"  yaml:"padding_start,omitempty"`
	PaddingEnd    *uint32  `json:"padding_end,omitempty"    yaml:"padding_end,omitempty"`
	ScrollPadding *uint32  `json:"scroll_padding,omitempty" yaml:"scroll_padding,omitempty"`
	ScrollMargin  *uint32  `json:"scroll_margin,omitempty"  yaml:"scroll_margin,omitempty"`
	ResetDelayMS  *uint64  `json:"reset_delay_ms,omitempty" yaml:"reset_delay_ms,omitempty"`
}

// Step is one timed host event. Fields not used by Op are ignored.
type Step struct {
	Op         Op      `json:"op"                    yaml:"op"`
	At         *uint64 `json:"at,omitempty"          yaml:"at,omitempty"`
	Offset     uint64  `json:"offset,omitempty"      yaml:"offset,omitempty"`
	Size       uint32  `json:"size,omitempty"        yaml:"size,omitempty"`
	Index      int     `json:"index,omitempty"       yaml:"index,omitempty"`
	Count      int     `json:"count,omitempty"       yaml:"count,omitempty"`
	Align      string  `json:"align,omitempty"       yaml:"align,omitempty"`
	DurationMS uint64  `json:"duration_ms,omitempty" yaml:"duration_ms,omitempty"`
	Easing     string  `json:"easing,omitempty"      yaml:"easing,omitempty"`
}

// Load reads and validates a YAML (.yaml, .yml) or JSON (.json) scenario.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var format string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = "yaml"
	case ".json":
		format = "json"
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	return Parse(data, format)
}

// Parse decodes and validates a scenario in the given format ("yaml" or "json").
func Parse(data []byte, format string) (*Scenario, error) {
	var (
		doc any
		sc  Scenario
		err error
	)

	switch format {
	case "yaml":
		err = yaml.Unmarshal(data, &doc)
	case "json":
		err = json.Unmarshal(data, &doc)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	err = validateDocument(doc)
	if err != nil {
		return nil, err
	}

	if format == "yaml" {
		err = yaml.Unmarshal(data, &sc)
	} else {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&sc)
	}

	if err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}

	err = sc.Validate()
	if err != nil {
		return nil, err
	}

	return &sc, nil
}

// Validate checks the parts of a scenario the schema cannot express:
// non-decreasing timestamps and known alignment and easing names.
func (sc *Scenario) Validate() error {
	var now uint64

	for i, st := range sc.Steps {
		if st.At != nil {
			if *st.At < now {
				return fmt.Errorf("%w: step %d at %dms is before %dms", ErrInvalidScenario, i, *st.At, now)
			}

			now = *st.At
		}

		if st.Align != "" {
			if _, ok := virtualizer.ParseAlign(st.Align); !ok {
				return fmt.Errorf("%w: step %d: unknown align %q", ErrInvalidScenario, i, st.Align)
			}
		}

		if st.Easing != "" {
			if _, err := adapter.ParseEasing(st.Easing); err != nil {
				return fmt.Errorf("%w: step %d: %w", ErrInvalidScenario, i, err)
			}
		}
	}

	return nil
}

func (st Step) align() virtualizer.Align {
	a, _ := virtualizer.ParseAlign(st.Align)

	return a
}

func (st Step) easing() adapter.Easing {
	e, err := adapter.ParseEasing(st.Easing)
	if err != nil {
		return adapter.EasingSmoothStep
	}

	return e
}
