package sink

import (
	"bytes"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/render/scene"
)

// RenderX3D writes the hemisphere scene as an X3D document.
func RenderX3D(s *chart.Scene) ([]byte, error) {
	doc, err := scene.Build(s)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := scene.Write(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
