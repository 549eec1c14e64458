package formats

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/voxkit/pkg/math"
)

// Placement is one flattened scene record: an accumulated translation and
// rotation and the model drawn there. ModelID is -1 when no shape was
// reached.
type Placement struct {
	Position math.Vec3i
	Rotation math.Quat
	ModelID  int
}

// MaxPlacements bounds the flattened scene. Groups that share subtrees can
// otherwise multiply the record count with every level.
const MaxPlacements = 1 << 16

// placementList accumulates placements during the scene walk.
type placementList struct {
	items    []Placement
	warnings []Warning
	full     bool
}

func (l *placementList) last() *Placement {
	return &l.items[len(l.items)-1]
}

// push starts a new record. It reports false once MaxPlacements is reached.
func (l *placementList) push() bool {
	if len(l.items) >= MaxPlacements {
		if !l.full {
			l.full = true
			msg := fmt.Sprintf("scene flattens to more than %d placements, dropping the rest", MaxPlacements)
			l.warnings = append(l.warnings, Warning{Kind: WarnPlacementLimit, Message: msg})
			log.Warn(msg)
		}
		return false
	}
	l.items = append(l.items, Placement{Rotation: math.QuatIdentity(), ModelID: -1})
	return true
}

// Placements flattens the scene graph starting at node 0.
//
// The first record is the scene origin. Transform nodes add their
// translation to the current record and replace its rotation. Group nodes
// start a new record for every child. Shape nodes bind the current record to
// their first model; extra models produce a WarnShapeFanout warning.
//
// Nodes are looked up by arrival index. Missing nodes, empty shapes and
// cycles end the affected branch without failing. A cycle is a node that
// is already on the path from the root.
func (v *VOX) Placements() ([]Placement, []Warning) {
	l := &placementList{}
	l.push()
	if len(v.Nodes) > 0 {
		v.walk(l, 0, make([]bool, len(v.Nodes)))
	}
	return l.items, l.warnings
}

// walk visits node index. onPath marks the nodes between the root and the
// current node; a node already on the path is a cycle and is not entered.
func (v *VOX) walk(l *placementList, index int, onPath []bool) {
	if index < 0 || index >= len(v.Nodes) {
		log.Debug("scene references missing node", zap.Int("node", index))
		return
	}
	if onPath[index] {
		log.Debug("scene graph cycle, stopping branch", zap.Int("node", index))
		return
	}
	onPath[index] = true
	defer func() { onPath[index] = false }()

	switch n := v.Nodes[index].(type) {
	case *TransformNode:
		p := l.last()
		if n.Translation != nil {
			p.Position = p.Position.Add(*n.Translation)
		}
		if n.Rotation != nil {
			p.Rotation = n.Rotation.Quat()
		}
		v.walk(l, n.ChildID, onPath)

	case *GroupNode:
		for _, child := range n.ChildIDs {
			if !l.push() {
				return
			}
			v.walk(l, child, onPath)
		}

	case *ShapeNode:
		if len(n.Models) == 0 {
			log.Debug("shape node has no models", zap.Int("node", n.ID))
			return
		}
		if len(n.Models) > 1 {
			msg := fmt.Sprintf("shape node %d references %d models, using model %d",
				n.ID, len(n.Models), n.Models[0].ModelID)
			l.warnings = append(l.warnings, Warning{Kind: WarnShapeFanout, Message: msg})
			log.Warn(msg)
		}
		l.last().ModelID = n.Models[0].ModelID
	}
}
