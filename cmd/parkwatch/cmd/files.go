package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/parkwatch/internal/types"
)

// conditionFile is the document form of a condition set. A bare YAML list
// of conditions is accepted too.
type conditionFile struct {
	ObjectID   types.ObjectID         `json:"objectId" yaml:"objectId"`
	Conditions []types.EventCondition `json:"conditions" yaml:"conditions"`
}

// profileFile is the document form of a field catalog. A bare YAML list of
// profiles is accepted too.
type profileFile struct {
	ObjectID types.ObjectID        `json:"objectId" yaml:"objectId"`
	Profiles []types.DeviceProfile `json:"profiles" yaml:"profiles"`
}

// readConditionFile parses path ("-" for stdin). The document objectId, when
// present, must agree with objectID.
func readConditionFile(path string, objectID types.ObjectID) ([]types.EventCondition, error) {
	root, err := readYAML(path)
	if err != nil {
		return nil, err
	}

	var doc conditionFile
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&doc.Conditions)
	} else {
		err = root.Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc.ObjectID != "" && doc.ObjectID != objectID {
		return nil, fmt.Errorf("%w: file is for %q, not %q", types.ErrObjectMismatch, doc.ObjectID, objectID)
	}
	for _, c := range doc.Conditions {
		if c.ObjectID != "" && c.ObjectID != objectID {
			return nil, fmt.Errorf("%w: condition for %q in set for %q", types.ErrObjectMismatch, c.ObjectID, objectID)
		}
	}
	if doc.Conditions == nil {
		doc.Conditions = []types.EventCondition{}
	}
	return doc.Conditions, nil
}

// readProfileFile parses path the same way as readConditionFile.
func readProfileFile(path string, objectID types.ObjectID) ([]types.DeviceProfile, error) {
	root, err := readYAML(path)
	if err != nil {
		return nil, err
	}

	var doc profileFile
	if root.Kind == yaml.SequenceNode {
		err = root.Decode(&doc.Profiles)
	} else {
		err = root.Decode(&doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc.ObjectID != "" && doc.ObjectID != objectID {
		return nil, fmt.Errorf("%w: file is for %q, not %q", types.ErrObjectMismatch, doc.ObjectID, objectID)
	}
	if doc.Profiles == nil {
		doc.Profiles = []types.DeviceProfile{}
	}
	return doc.Profiles, nil
}

// readYAML returns the top-level node of the single document in path.
// An empty file yields an empty mapping.
func readYAML(path string) (*yaml.Node, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc.Kind == 0 {
		return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}, nil
	}
	if doc.Kind == yaml.DocumentNode && len(doc.Content) == 1 {
		return doc.Content[0], nil
	}
	return &doc, nil
}

// Output formats for list commands.
const (
	outputYAML = "yaml"
	outputJSON = "json"
)

// writeOutput encodes v to w as YAML or indented JSON.
func writeOutput(w io.Writer, format string, v interface{}) error {
	switch format {
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unknown output format %q (want yaml or json)", format)
	}
}
