// Package plate coordinates plate analysis for one or more printers.
//
// For every printer serial a Session ties together three things:
//   - a Resolver that waits until both upstream dependencies (the printable
//     objects feed and the pick image) are known to the Registry,
//   - a Coordinator that turns an object-name mapping plus the current pick
//     image into published State and a JPEG rendition,
//   - a Slot holding the latest JPEG bytes and their timestamp for the image
//     endpoint.
//
// # Merge Policy
//
// The object-name mapping is authoritative. Identifiers found in the pick image
// but missing from the mapping are dropped; identifiers in the mapping with no
// pixels in the image are kept without a bounding box. An empty mapping is a
// valid "nothing on this plate" state and resets published state to zero
// without touching the pick image. A failed image fetch or decode leaves the
// previously published state untouched.
//
// # Compact Serialization
//
// State.BBoxData carries the merged objects as a single line for consumers
// that cannot parse structured attributes:
//
//	id:name:min_x,min_y,max_x,max_y|id:name:|...
//
// Objects without a bounding box end with an empty box field.
package plate
