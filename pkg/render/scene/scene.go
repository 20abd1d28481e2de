// Package scene builds the X3D hemisphere scene of a cross-section chart.
//
// Every chart becomes a cyan dish cut by three orthogonal planes. Each
// plane carries the chart's disk segments as flat annuli, so the same
// cross-section is visible from the top, the side and the front of the
// hemisphere. The whole group is tilted by π/8 about X and turned by -π/4
// about Y so that all three planes face the viewer.
//
// Radii in the scene are normalized to the outer bound, so a chart always
// fits the unit dish regardless of the pixel size it was laid out for.
package scene

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/render/styles"
)

const (
	// DishColor is the diffuse colour of the hemisphere.
	DishColor = "0.2 0.8 0.8"
	// ChartSpacing is the distance between neighbouring charts along X.
	ChartSpacing = 5.0

	schemaLocation = "http://www.web3d.org/specifications/x3d-3.3.xsd"
	xsdNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
)

// hemi is the pair of rotations that places one cutting plane.
type hemi struct {
	plane, dish [4]float64
}

var hemis = [3]hemi{
	{plane: [4]float64{0, 0, 1, 1.5708}, dish: [4]float64{1, 0, 0, -1.5708}},
	{plane: [4]float64{1, 0, 0, 1.5708}, dish: [4]float64{0, 0, 1, 1.5708}},
	{plane: [4]float64{1, 0, 0, 0}, dish: [4]float64{1, 0, 0, 3.1416}},
}

// X3D is the document root.
type X3D struct {
	XMLName        xml.Name `xml:"X3D"`
	Profile        string   `xml:"profile,attr"`
	Version        string   `xml:"version,attr"`
	XSD            string   `xml:"xmlns:xsd,attr"`
	SchemaLocation string   `xml:"xsd:noNamespaceSchemaLocation,attr"`
	Width          string   `xml:"width,attr,omitempty"`
	Height         string   `xml:"height,attr,omitempty"`
	Scene          Scene    `xml:"Scene"`
}

// Scene is the X3D scene node.
type Scene struct {
	Transforms []Transform `xml:"Transform"`
}

// Transform is an X3D grouping node.
type Transform struct {
	DEF         string      `xml:"DEF,attr,omitempty"`
	Class       string      `xml:"class,attr,omitempty"`
	Translation string      `xml:"translation,attr,omitempty"`
	Rotation    string      `xml:"rotation,attr,omitempty"`
	Scale       string      `xml:"scale,attr,omitempty"`
	Shapes      []Shape     `xml:"Shape"`
	Transforms  []Transform `xml:"Transform"`
}

// Shape is a drawable X3D node with its appearance.
type Shape struct {
	DEF        string     `xml:"DEF,attr,omitempty"`
	Class      string     `xml:"class,attr,omitempty"`
	Appearance Appearance `xml:"Appearance"`
	Dish       *Dish      `xml:"Dish,omitempty"`
	Disk       *Disk2D    `xml:"Disk2D,omitempty"`
}

// Appearance wraps the material of a shape.
type Appearance struct {
	Material Material `xml:"Material"`
}

// Material sets the colour of a shape.
type Material struct {
	DiffuseColor string `xml:"diffuseColor,attr"`
}

// Dish is the hemisphere geometry.
type Dish struct {
	Bottom bool `xml:"bottom,attr"`
}

// Disk2D is a flat annulus.
type Disk2D struct {
	Solid       bool    `xml:"solid,attr"`
	InnerRadius float64 `xml:"innerRadius,attr"`
	OuterRadius float64 `xml:"outerRadius,attr"`
}

// Build converts a rendered scene into an X3D document.
func Build(s *chart.Scene) (*X3D, error) {
	doc := &X3D{
		Profile:        "Interchange",
		Version:        "3.3",
		XSD:            xsdNamespace,
		SchemaLocation: schemaLocation,
		Width:          formatFloat(s.Width),
		Height:         formatFloat(s.Height),
	}

	for i, c := range s.Charts {
		t, err := buildChart(s, i, c)
		if err != nil {
			return nil, err
		}
		doc.Scene.Transforms = append(doc.Scene.Transforms, t)
	}
	return doc, nil
}

func buildChart(s *chart.Scene, index int, c chart.ChartScene) (Transform, error) {
	disks, err := buildDisks(s, index, c)
	if err != nil {
		return Transform{}, err
	}

	yaw := Transform{Rotation: "0 1 0 -0.7854"}
	for _, h := range hemis {
		yaw.Transforms = append(yaw.Transforms, Transform{
			Class:    "hemitransform",
			Rotation: formatVec(h.plane[:]),
			Transforms: []Transform{{
				Rotation: formatVec(h.dish[:]),
				Shapes: []Shape{{
					Appearance: Appearance{Material: Material{DiffuseColor: DishColor}},
					Dish:       &Dish{Bottom: false},
				}},
				Transforms: []Transform{{
					Class:    "disktransform",
					Rotation: "1 0 0 -1.5708",
					Shapes:   disks,
				}},
			}},
		})
	}

	return Transform{
		DEF:         chartDEF(index, c.Label),
		Translation: formatVec([]float64{float64(index) * ChartSpacing, 0, 0}),
		Transforms: []Transform{{
			Scale:      "2 2 2",
			Rotation:   "1 0 0 0.3927",
			Transforms: []Transform{yaw},
		}},
	}, nil
}

func buildDisks(s *chart.Scene, index int, c chart.ChartScene) ([]Shape, error) {
	shapes := make([]Shape, 0, len(c.Segments))
	for i, seg := range c.Segments {
		r, g, b, err := styles.RGB(seg.ColorKey)
		if err != nil {
			return nil, err
		}
		shapes = append(shapes, Shape{
			DEF:        fmt.Sprintf("c%d-s%d", index, i),
			Class:      "shape",
			Appearance: Appearance{Material: Material{DiffuseColor: formatVec([]float64{r, g, b})}},
			Disk: &Disk2D{
				Solid:       false,
				InnerRadius: normalize(seg.InnerRadius, s.Bound),
				OuterRadius: normalize(seg.OuterRadius, s.Bound),
			},
		})
	}
	return shapes, nil
}

// Write encodes doc as indented XML with a declaration.
func Write(w io.Writer, doc *X3D) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func normalize(r, bound float64) float64 {
	if bound == 0 {
		return 0
	}
	return r / bound
}

func chartDEF(index int, label string) string {
	if label == "" {
		return fmt.Sprintf("chart-%d", index)
	}
	return fmt.Sprintf("chart-%d-%s", index, strings.Join(strings.Fields(label), "_"))
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, f := range v {
		parts[i] = formatFloat(f)
	}
	return strings.Join(parts, " ")
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
