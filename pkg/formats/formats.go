// Package formats provides parsers for MagicaVoxel .vox files.
//
// A .vox file is decoded into a VOX document holding the raw chunk payloads
// (model sizes, voxel grids, palette, materials and scene graph nodes).
// Higher level views such as flattened placements and dense voxel volumes are
// derived from the document on demand.
package formats

import "go.uber.org/zap"

var log = zap.NewNop()

// SetLogger sets the logger used for non-fatal decode diagnostics.
// A nil logger disables logging.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}
