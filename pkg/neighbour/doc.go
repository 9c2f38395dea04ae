// Package neighbour moves entities across the edges of linked tile-grid
// maps.
//
// An Atlas owns one Registry per map. Each Registry holds at most one link
// per side, pointing at an edge of another map (or of the same map, which
// makes a cylinder or torus). When the host reports that an entity finished
// a move that left it flush against a linked edge, the Teleporter computes
// where the entity lands on the target map and relocates it there, facing
// away from the arrival edge and already moving.
//
// Links refer to maps by MapID, never by pointer. Removing a map from the
// atlas unlinks it from its partners, and partners holding a stale id see a
// lookup miss instead of a dangling reference.
//
// Nothing in this package is safe for concurrent use. A host that mutates
// links from several goroutines must serialize access per atlas.
package neighbour
