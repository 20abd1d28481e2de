package pipeline

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/matzehuels/crosssection/pkg/chart"
	"github.com/matzehuels/crosssection/pkg/core/geometry"
	"github.com/matzehuels/crosssection/pkg/core/percent"
)

// sceneRecord is the cached form of a chart.Scene. Segments carry the
// annotations of their slice so the tree behind them can be rebuilt.
type sceneRecord struct {
	ID     uuid.UUID     `json:"id"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Donut  bool          `json:"donut,omitempty"`
	Bound  float64       `json:"bound"`
	Hole   float64       `json:"hole,omitempty"`
	Charts []chartRecord `json:"charts"`
}

type chartRecord struct {
	Label    string          `json:"label,omitempty"`
	Levels   int             `json:"levels"`
	Segments []segmentRecord `json:"segments"`
}

type segmentRecord struct {
	geometry.DiskSegment

	SliceName       string  `json:"name"`
	Size            float64 `json:"size"`
	SumOfChildren   float64 `json:"sum_of_children"`
	PercentOfGroup  float64 `json:"percent_of_group"`
	PercentOfParent float64 `json:"percent_of_parent"`
	NormInner       float64 `json:"norm_inner"`
	NormOuter       float64 `json:"norm_outer"`
}

// MarshalScene encodes a scene for the layout cache.
func MarshalScene(s *chart.Scene) ([]byte, error) {
	rec := sceneRecord{
		ID:     s.ID,
		Width:  s.Width,
		Height: s.Height,
		Donut:  s.Donut,
		Bound:  s.Bound,
		Hole:   s.Hole,
		Charts: make([]chartRecord, 0, len(s.Charts)),
	}
	for _, c := range s.Charts {
		cr := chartRecord{Label: c.Label, Levels: c.Levels, Segments: make([]segmentRecord, 0, len(c.Segments))}
		for _, seg := range c.Segments {
			sr := segmentRecord{DiskSegment: seg}
			if d := seg.Datum; d != nil {
				sr.SliceName = d.Name
				sr.Size = d.Size
				sr.SumOfChildren = d.SumOfChildren
				sr.PercentOfGroup = d.PercentOfGroup
				sr.PercentOfParent = d.PercentOfParent
				sr.NormInner = d.InnerRadius
				sr.NormOuter = d.OuterRadius
			}
			cr.Segments = append(cr.Segments, sr)
		}
		rec.Charts = append(rec.Charts, cr)
	}
	return json.Marshal(rec)
}

// UnmarshalScene decodes a cached scene. The annotated tree of every chart
// is rebuilt from the segments' parent indices; it has no links back to
// the input document.
func UnmarshalScene(data []byte) (*chart.Scene, error) {
	var rec sceneRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode scene: %w", err)
	}

	s := &chart.Scene{
		ID:     rec.ID,
		Width:  rec.Width,
		Height: rec.Height,
		Donut:  rec.Donut,
		Bound:  rec.Bound,
		Hole:   rec.Hole,
	}
	for ci, cr := range rec.Charts {
		cs := chart.ChartScene{Label: cr.Label, Levels: cr.Levels, Segments: make([]geometry.DiskSegment, len(cr.Segments))}
		for i, sr := range cr.Segments {
			seg := sr.DiskSegment
			seg.Datum = &percent.LevelNode{
				Name:            sr.SliceName,
				Size:            sr.Size,
				Root:            seg.Root,
				SumOfChildren:   sr.SumOfChildren,
				PercentOfGroup:  sr.PercentOfGroup,
				PercentOfParent: sr.PercentOfParent,
				InnerRadius:     sr.NormInner,
				OuterRadius:     sr.NormOuter,
			}
			if seg.Parent >= 0 {
				if seg.Parent >= i {
					return nil, fmt.Errorf("decode scene: chart %d segment %d has forward parent %d", ci, i, seg.Parent)
				}
				parent := cs.Segments[seg.Parent].Datum
				parent.Children = append(parent.Children, seg.Datum)
			}
			cs.Segments[i] = seg
		}
		if len(cs.Segments) > 0 {
			cs.Root = cs.Segments[0].Datum
		}
		s.Charts = append(s.Charts, cs)
	}
	return s, nil
}
