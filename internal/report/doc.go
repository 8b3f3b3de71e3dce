// Package report renders markdown report bodies and converts them into the
// W&B report view spec. Rendering supports templating so tool callers can
// interpolate query results into a report skeleton; tables render in
// markdown so the same body previews cleanly outside W&B.
package report
