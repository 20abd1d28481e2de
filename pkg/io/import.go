package io

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/crosssection/pkg/errors"
	"github.com/matzehuels/crosssection/pkg/hierarchy"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// ParseFormat parses a format name. "yml" is accepted for YAML.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "invalid document format: %q (must be one of: json, yaml, toml)", s)
}

// FormatFromPath picks the format from the file extension, defaulting to
// JSON for unknown extensions.
func FormatFromPath(path string) Format {
	f, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return FormatJSON
	}
	return f
}

// envelope accepts all three document shapes at once. Charts is a pointer
// so that an empty list, which is an aggregation with no buckets, can be
// told apart from a missing key.
type envelope struct {
	Charts   *[]hierarchy.Chart `json:"charts" yaml:"charts" toml:"charts"`
	Label    string             `json:"label" yaml:"label" toml:"label"`
	Slices   *hierarchy.Node    `json:"slices" yaml:"slices" toml:"slices"`
	Name     string             `json:"name" yaml:"name" toml:"name"`
	Size     float64            `json:"size" yaml:"size" toml:"size"`
	Children []*hierarchy.Node  `json:"children" yaml:"children" toml:"children"`
}

func (e envelope) document() (hierarchy.Document, error) {
	switch {
	case e.Charts != nil:
		return hierarchy.Document{Charts: *e.Charts}, nil
	case e.Slices != nil:
		return hierarchy.Document{Charts: []hierarchy.Chart{{Label: e.Label, Slices: e.Slices}}}, nil
	case e.Name != "" || e.Children != nil:
		root := &hierarchy.Node{Name: e.Name, Size: e.Size, Children: e.Children}
		return hierarchy.Document{Charts: []hierarchy.Chart{{Label: e.Label, Slices: root}}}, nil
	}
	return hierarchy.Document{}, errors.New(errors.ErrCodeInvalidDocument, "document has no charts, slices or root node")
}

// Read decodes a chart document from r.
//
// Read returns an error carrying errors.ErrCodeInvalidDocument if the input
// cannot be decoded, matches none of the accepted shapes, or contains an
// invalid name or size. Read does not close r.
func Read(r io.Reader, format Format) (hierarchy.Document, error) {
	var env envelope
	var err error
	switch format {
	case FormatJSON, "":
		err = json.NewDecoder(r).Decode(&env)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&env)
	case FormatTOML:
		_, err = toml.NewDecoder(r).Decode(&env)
	default:
		return hierarchy.Document{}, errors.New(errors.ErrCodeInvalidFormat, "unsupported document format: %q", format)
	}
	if err != nil {
		if stderrors.Is(err, io.EOF) {
			return hierarchy.Document{}, errors.New(errors.ErrCodeInvalidDocument, "empty %s document", format)
		}
		return hierarchy.Document{}, errors.Wrap(errors.ErrCodeInvalidDocument, err, "decode %s", format)
	}

	doc, err := env.document()
	if err != nil {
		return hierarchy.Document{}, err
	}
	if err := doc.Validate(); err != nil {
		return hierarchy.Document{}, err
	}
	return doc, nil
}

// ReadBytes decodes a chart document held in memory.
func ReadBytes(data []byte, format Format) (hierarchy.Document, error) {
	return Read(bytes.NewReader(data), format)
}

// ReadFile reads the document at path, choosing the format from its
// extension. A missing file yields errors.ErrCodeFileNotFound.
func ReadFile(path string) (hierarchy.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hierarchy.Document{}, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return hierarchy.Document{}, errors.Wrap(errors.ErrCodeInvalidPath, err, "open %s", path)
	}
	defer f.Close()

	doc, err := Read(f, FormatFromPath(path))
	if err != nil {
		return hierarchy.Document{}, errors.Wrap(errors.GetCode(err), err, "%s", path)
	}
	return doc, nil
}
