// Package schedule loads the rotation document from a YAML or JSON file
// and keeps an eye on it between sends.
package schedule

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	yaml "go.yaml.in/yaml/v3"

	"rotabot/internal/rotation"
	"rotabot/internal/week"
	logx "rotabot/pkg/logx"
)

// fileDocument is the on-disk shape of the schedule.
type fileDocument struct {
	Roster          []string            `json:"roster"`
	AnchorWeek      string              `json:"anchor_week"`
	Overrides       map[string]string   `json:"overrides,omitempty"`
	Vacations       map[string][]string `json:"vacations,omitempty"`
	SpecialMessages map[string]string   `json:"special_messages,omitempty"`
}

// Source reads the schedule document from a file.
//
// Load re-reads the file on every call, so out-of-band edits take effect
// on the next resolution without any cache invalidation protocol.
type Source struct {
	path string
	log  logx.Logger
}

func NewSource(path string, log logx.Logger) *Source {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Source{path: path, log: log}
}

func (s *Source) Path() string { return s.path }

// Load parses and validates the schedule file.
func (s *Source) Load() (*rotation.Document, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("schedule: %w", err)
	}
	doc, err := s.parse(b)
	if err != nil {
		return nil, fmt.Errorf("schedule %s: %w", s.path, err)
	}
	return doc, nil
}

func (s *Source) parse(b []byte) (*rotation.Document, error) {
	jb, _, err := coerceToJSONBytes(s.path, b)
	if err != nil {
		return nil, err
	}

	var fd fileDocument
	dec := json.NewDecoder(bytes.NewReader(jb))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fd); err != nil {
		return nil, err
	}
	// reject trailing tokens (e.g. concatenated JSON)
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return nil, fmt.Errorf("invalid schedule: trailing data")
		}
		return nil, err
	}

	return s.build(&fd)
}

func (s *Source) build(fd *fileDocument) (*rotation.Document, error) {
	if len(fd.Roster) == 0 {
		return nil, fmt.Errorf("validate: %w", rotation.ErrEmptyRoster)
	}
	seen := make(map[string]struct{}, len(fd.Roster))
	for _, name := range fd.Roster {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("validate: roster contains a blank name")
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("validate: duplicate roster member %q", name)
		}
		seen[name] = struct{}{}
	}

	anchor, err := week.Parse(fd.AnchorWeek)
	if err != nil {
		return nil, fmt.Errorf("validate anchor_week: %w", err)
	}

	doc := &rotation.Document{
		Roster:     append([]string(nil), fd.Roster...),
		AnchorWeek: anchor,
	}

	if len(fd.Overrides) > 0 {
		doc.Overrides = make(map[week.ID]string, len(fd.Overrides))
		for k, v := range fd.Overrides {
			w, err := week.Parse(k)
			if err != nil {
				return nil, fmt.Errorf("validate overrides: %w", err)
			}
			if strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("validate overrides[%s]: empty name", k)
			}
			doc.Overrides[w] = v
		}
	}

	if len(fd.Vacations) > 0 {
		doc.Vacations = make(map[string][]week.ID, len(fd.Vacations))
		// Sorted for stable warning order; resolution itself scans the
		// roster, never this map.
		names := make([]string, 0, len(fd.Vacations))
		for name := range fd.Vacations {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if _, inRoster := seen[name]; !inRoster {
				s.log.Warn("vacations entry for name not in roster",
					logx.String("name", name))
			}
			weeks := make([]week.ID, 0, len(fd.Vacations[name]))
			for _, raw := range fd.Vacations[name] {
				w, err := week.Parse(raw)
				if err != nil {
					return nil, fmt.Errorf("validate vacations[%s]: %w", name, err)
				}
				weeks = append(weeks, w)
			}
			doc.Vacations[name] = weeks
		}
	}

	if len(fd.SpecialMessages) > 0 {
		doc.SpecialMessages = make(map[week.ID]string, len(fd.SpecialMessages))
		for k, v := range fd.SpecialMessages {
			w, err := week.Parse(k)
			if err != nil {
				return nil, fmt.Errorf("validate special_messages: %w", err)
			}
			doc.SpecialMessages[w] = v
		}
	}

	return doc, nil
}

// coerceToJSONBytes converts YAML schedules to JSON bytes so the strict
// JSON decoder (DisallowUnknownFields) handles both formats.
//
// Returns (jsonBytes, format, err) where format is "json" or "yaml".
func coerceToJSONBytes(path string, data []byte) ([]byte, string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return data, "json", nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, "yaml", fmt.Errorf("yaml unmarshal: %w", err)
	}

	v = normalizeYAML(v)

	j, err := json.Marshal(v)
	if err != nil {
		return nil, "yaml", fmt.Errorf("yaml->json marshal: %w", err)
	}
	return j, "yaml", nil
}

// normalizeYAML ensures all map keys are strings so the result can be
// JSON-marshaled.
func normalizeYAML(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return m
	case map[string]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[k] = normalizeYAML(v)
		}
		return m
	case []any:
		for i := range x {
			x[i] = normalizeYAML(x[i])
		}
		return x
	default:
		return in
	}
}
