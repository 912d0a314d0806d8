package tree

import (
	"github.com/agentic-research/axtree/internal/ax"
)

// orderedSetInfo caches the computed position and size for one node. A
// zero posInSet or negative setSize means the value is not available.
type orderedSetInfo struct {
	posInSet int
	setSize  int
}

var notInSet = orderedSetInfo{setSize: -1}

func isItemLike(r ax.Role) bool {
	switch r {
	case ax.RoleArticle, ax.RoleComment, ax.RoleListItem, ax.RoleMenuItem,
		ax.RoleMenuItemRadio, ax.RoleMenuItemCheckBox, ax.RoleTab, ax.RoleTreeItem,
		ax.RoleListBoxOption, ax.RoleMenuListOption, ax.RoleRadioButton, ax.RoleTerm:
		return true
	}
	return false
}

func isSetLike(r ax.Role) bool {
	switch r {
	case ax.RoleFeed, ax.RoleGroup, ax.RoleList, ax.RoleListBox, ax.RoleMenu,
		ax.RoleMenuBar, ax.RoleMenuListPopup, ax.RolePopUpButton, ax.RoleComboBoxSelect,
		ax.RoleRadioGroup, ax.RoleTabList, ax.RoleTree, ax.RoleDescriptionList:
		return true
	}
	return false
}

// setRoleMatchesItemRole reports whether items with role item are counted
// by a container with role set.
func setRoleMatchesItemRole(set, item ax.Role) bool {
	switch set {
	case ax.RoleFeed:
		return item == ax.RoleArticle
	case ax.RoleList:
		return item == ax.RoleListItem
	case ax.RoleGroup:
		switch item {
		case ax.RoleComment, ax.RoleListItem, ax.RoleMenuItem, ax.RoleMenuItemRadio,
			ax.RoleListBoxOption, ax.RoleTreeItem:
			return true
		}
	case ax.RoleListBox:
		return item == ax.RoleListBoxOption
	case ax.RoleMenu, ax.RoleMenuBar:
		switch item {
		case ax.RoleMenuItem, ax.RoleMenuItemRadio, ax.RoleMenuItemCheckBox:
			return true
		}
	case ax.RoleMenuListPopup, ax.RolePopUpButton, ax.RoleComboBoxSelect:
		return item == ax.RoleMenuListOption
	case ax.RoleRadioGroup:
		return item == ax.RoleRadioButton
	case ax.RoleTabList:
		return item == ax.RoleTab
	case ax.RoleTree:
		return item == ax.RoleTreeItem
	case ax.RoleDescriptionList:
		return item == ax.RoleTerm
	}
	return false
}

// HierarchicalLevel returns the level attribute of n, 0 when unset.
func (n *Node) HierarchicalLevel() int32 {
	level, _ := n.IntAttribute(ax.IntAttributeHierarchicalLevel)
	return level
}

func (n *Node) IsOrderedSetItem() bool { return isItemLike(n.Role()) }

func (n *Node) IsOrderedSet() bool { return isSetLike(n.Role()) }

// SetRoleMatchesItemRole reports whether set counts n as one of its items.
func (n *Node) SetRoleMatchesItemRole(set *Node) bool {
	return set != nil && setRoleMatchesItemRole(set.Role(), n.Role())
}

// OrderedSet returns the container whose items n is counted among, n
// itself when n is a set, or nil.
func (n *Node) OrderedSet() *Node { return n.tree.orderedSetFor(n) }

// IsEmbeddedGroup reports whether n is a group nested directly in a set.
func (n *Node) IsEmbeddedGroup() bool {
	if n.Role() != ax.RoleGroup {
		return false
	}
	p := n.UnignoredParent()
	return p != nil && p.IsOrderedSet()
}

// IsIgnoredContainerForOrderedSet reports whether items below n are
// counted by the set above n.
func (n *Node) IsIgnoredContainerForOrderedSet() bool {
	if n.IsIgnored() || n.IsEmbeddedGroup() {
		return true
	}
	switch n.Role() {
	case ax.RoleListItem, ax.RoleGenericContainer, ax.RoleUnknown:
		return true
	}
	return false
}

// PosInSet returns the 1-based position of an item within its ordered
// set. ok is false for nodes that are not items, are ignored, or when
// called during an update.
func (t *Tree) PosInSet(n *Node) (int, bool) {
	if t.updateInProgress || n == nil || n.IsIgnored() || !isItemLike(n.Role()) {
		return 0, false
	}
	info := t.orderedSetInfoFor(n)
	if info == nil || info.posInSet < 1 {
		return 0, false
	}
	return info.posInSet, true
}

// SetSize returns the number of items in the ordered set n belongs to,
// or, for a container, the number of items it holds.
func (t *Tree) SetSize(n *Node) (int, bool) {
	if t.updateInProgress || n == nil || n.IsIgnored() {
		return 0, false
	}
	if !isItemLike(n.Role()) && !isSetLike(n.Role()) {
		return 0, false
	}
	info := t.orderedSetInfoFor(n)
	if info == nil || info.setSize < 0 {
		return 0, false
	}
	return info.setSize, true
}

func (t *Tree) orderedSetInfoFor(n *Node) *orderedSetInfo {
	if info := t.setInfo[n.id]; info != nil {
		return info
	}

	// A popup button takes its size from the popup it opens.
	if r := n.Role(); r == ax.RolePopUpButton || r == ax.RoleComboBoxSelect {
		for _, c := range n.UnignoredChildren() {
			if c.Role() == ax.RoleMenuListPopup {
				popup := t.orderedSetInfoFor(c)
				info := &orderedSetInfo{setSize: popup.setSize}
				t.setInfo[n.id] = info
				return info
			}
		}
	}

	set := t.orderedSetFor(n)
	if set == nil {
		info := &orderedSetInfo{setSize: -1}
		if v, ok := n.IntAttribute(ax.IntAttributePosInSet); ok {
			info.posInSet = int(v)
		}
		if v, ok := n.IntAttribute(ax.IntAttributeSetSize); ok {
			info.setSize = int(v)
		}
		t.setInfo[n.id] = info
		return info
	}
	t.computeOrderedSet(n, set)
	return t.setInfo[n.id]
}

// orderedSetFor returns the container that counts n: n itself when it is
// a container, otherwise the nearest unignored ancestor container whose
// role accepts n.
func (t *Tree) orderedSetFor(n *Node) *Node {
	if isSetLike(n.Role()) {
		return n
	}
	for p := n.UnignoredParent(); p != nil; p = p.UnignoredParent() {
		if isSetLike(p.Role()) {
			if setRoleMatchesItemRole(p.Role(), n.Role()) {
				return p
			}
			return nil
		}
		// Nested items start their own set unless grouped by level.
		if isItemLike(p.Role()) && p.Role() != n.Role() {
			return nil
		}
	}
	return nil
}

// computeOrderedSet fills the cache for set and for every item of set at
// the hierarchical level of n.
func (t *Tree) computeOrderedSet(n, set *Node) {
	level := int32(0)
	if n != set {
		level, _ = n.IntAttribute(ax.IntAttributeHierarchicalLevel)
	}
	byLevel := map[int32][]*Node{}
	t.collectOrderedSetItems(set, set, byLevel)

	// A container reports the items at its first populated level.
	if n == set {
		lowest := int32(-1)
		for l := range byLevel {
			if lowest < 0 || l < lowest {
				lowest = l
			}
		}
		if lowest >= 0 {
			level = lowest
		}
	}
	items := byLevel[level]

	count, largestSize := 0, 0
	for _, item := range items {
		pos := count + 1
		if v, ok := item.IntAttribute(ax.IntAttributePosInSet); ok && int(v) > pos {
			pos = int(v)
		}
		count = pos
		if v, ok := item.IntAttribute(ax.IntAttributeSetSize); ok {
			largestSize = max(largestSize, int(v))
		}
		t.setInfo[item.id] = &orderedSetInfo{posInSet: pos}
	}

	size := max(count, largestSize)
	if v, ok := set.IntAttribute(ax.IntAttributeSetSize); ok {
		size = max(size, int(v))
	}
	for _, item := range items {
		t.setInfo[item.id].setSize = size
	}
	if info := t.setInfo[set.id]; info == nil || set == n {
		t.setInfo[set.id] = &orderedSetInfo{setSize: size}
	}
	if t.setInfo[n.id] == nil {
		// n is hidden from its set.
		info := notInSet
		t.setInfo[n.id] = &info
	}
}

// collectOrderedSetItems groups the items of set below parent by
// hierarchical level. Invisible items count only inside a collapsed
// container.
func (t *Tree) collectOrderedSetItems(set, parent *Node, byLevel map[int32][]*Node) {
	for _, c := range parent.UnignoredChildren() {
		if c.data.IsInvisible() && !hasCollapsedAncestor(c, set, 3) {
			continue
		}
		if c.SetRoleMatchesItemRole(set) {
			level := c.HierarchicalLevel()
			byLevel[level] = append(byLevel[level], c)
		}
		if c.IsIgnoredContainerForOrderedSet() {
			t.collectOrderedSetItems(set, c, byLevel)
		}
	}
}

// hasCollapsedAncestor looks at most limit ancestors above n, stopping at
// stop, for a collapsed node.
func hasCollapsedAncestor(n, stop *Node, limit int) bool {
	p := n.parent
	for i := 0; p != nil && i < limit; i++ {
		if p.HasState(ax.StateCollapsed) {
			return true
		}
		if p == stop {
			return false
		}
		p = p.parent
	}
	return false
}
