package plate

import (
	"strings"

	"github.com/ironsheep/plate-analyzer/internal/imaging"
)

// ObjectRecord is one printable object after merging names with pixel data.
type ObjectRecord struct {
	Name string `json:"name"`

	// BBox is nil when the object has no opaque pixels in the pick image.
	BBox *imaging.BoundingBox `json:"bbox,omitempty"`
}

// State is what a Coordinator publishes after each analysis pass.
type State struct {
	ObjectCount int                     `json:"object_count"`
	Objects     map[string]ObjectRecord `json:"objects"`
	ImageWidth  int                     `json:"image_width"`
	ImageHeight int                     `json:"image_height"`
	BBoxData    string                  `json:"bbox_data"`
}

// emptyState is the published state for a plate with no objects.
func emptyState() State {
	return State{Objects: map[string]ObjectRecord{}}
}

// newState builds a State from merged records and image dimensions.
func newState(objects map[string]ObjectRecord, width, height int) State {
	return State{
		ObjectCount: len(objects),
		Objects:     objects,
		ImageWidth:  width,
		ImageHeight: height,
		BBoxData:    Serialize(objects),
	}
}

// Merge combines the object-name mapping with extracted bounding boxes.
//
// Every key of names produces a record; keys only present in bboxes are
// dropped. The result is a fresh map and shares nothing with its inputs.
func Merge(names map[string]string, bboxes map[string]imaging.BoundingBox) map[string]ObjectRecord {
	merged := make(map[string]ObjectRecord, len(names))
	for id, name := range names {
		rec := ObjectRecord{Name: name}
		if box, ok := bboxes[id]; ok {
			b := box
			rec.BBox = &b
		}
		merged[id] = rec
	}
	return merged
}

// Serialize renders merged records as "id:name:min_x,min_y,max_x,max_y"
// entries joined by "|", in ascending identifier order. Records without a
// bounding box render as "id:name:". An empty map yields "".
func Serialize(objects map[string]ObjectRecord) string {
	if len(objects) == 0 {
		return ""
	}

	ids := make([]string, 0, len(objects))
	for id := range objects {
		ids = append(ids, id)
	}
	imaging.SortIdentifyIDs(ids)

	var sb strings.Builder
	for i, id := range ids {
		if i > 0 {
			sb.WriteByte('|')
		}
		rec := objects[id]
		sb.WriteString(id)
		sb.WriteByte(':')
		sb.WriteString(rec.Name)
		sb.WriteByte(':')
		if rec.BBox != nil {
			sb.WriteString(rec.BBox.String())
		}
	}
	return sb.String()
}
