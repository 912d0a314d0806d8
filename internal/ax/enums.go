// Package ax defines the accessibility data model shared by the tree engine,
// the journal and the loaders: node ids, roles, states, typed attributes,
// per-node data records, tree-wide metadata and update requests.
package ax

import (
	"fmt"
)

// NodeID identifies a node within a single tree. Ids are stable for the
// lifetime of a node. Negative ids are reserved for nodes the tree
// synthesizes itself.
type NodeID int32

// InvalidNodeID is never assigned to a node.
const InvalidNodeID NodeID = 0

// Role is the semantic role of a node.
type Role int32

const (
	RoleUnknown Role = iota
	RoleNone
	RoleRootWebArea
	RoleDocument
	RoleGenericContainer
	RoleStaticText
	RoleInlineTextBox
	RoleParagraph
	RoleHeading
	RoleLink
	RoleButton
	RoleCheckBox
	RoleTextField
	RoleImage
	RoleIframe
	RoleLabelText
	RoleList
	RoleListItem
	RoleListBox
	RoleListBoxOption
	RoleTree
	RoleTreeItem
	RoleTreeGrid
	RoleGroup
	RoleMenu
	RoleMenuBar
	RoleMenuItem
	RoleMenuItemCheckBox
	RoleMenuItemRadio
	RoleMenuListPopup
	RoleMenuListOption
	RoleComboBoxSelect
	RolePopUpButton
	RoleRadioGroup
	RoleRadioButton
	RoleTabList
	RoleTab
	RoleTable
	RoleGrid
	RoleRowGroup
	RoleRow
	RoleCell
	RoleGridCell
	RoleColumnHeader
	RoleRowHeader
	RoleComment
	RoleDisclosureTriangle
	RoleDisclosureTriangleGrouped
	RoleFeed
	RoleArticle
	RoleDescriptionList
	RoleTerm

	roleCount
)

var roleNames = [roleCount]string{
	RoleUnknown:                   "unknown",
	RoleNone:                      "none",
	RoleRootWebArea:               "rootWebArea",
	RoleDocument:                  "document",
	RoleGenericContainer:          "genericContainer",
	RoleStaticText:                "staticText",
	RoleInlineTextBox:             "inlineTextBox",
	RoleParagraph:                 "paragraph",
	RoleHeading:                   "heading",
	RoleLink:                      "link",
	RoleButton:                    "button",
	RoleCheckBox:                  "checkBox",
	RoleTextField:                 "textField",
	RoleImage:                     "image",
	RoleIframe:                    "iframe",
	RoleLabelText:                 "labelText",
	RoleList:                      "list",
	RoleListItem:                  "listItem",
	RoleListBox:                   "listBox",
	RoleListBoxOption:             "listBoxOption",
	RoleTree:                      "tree",
	RoleTreeItem:                  "treeItem",
	RoleTreeGrid:                  "treeGrid",
	RoleGroup:                     "group",
	RoleMenu:                      "menu",
	RoleMenuBar:                   "menuBar",
	RoleMenuItem:                  "menuItem",
	RoleMenuItemCheckBox:          "menuItemCheckBox",
	RoleMenuItemRadio:             "menuItemRadio",
	RoleMenuListPopup:             "menuListPopup",
	RoleMenuListOption:            "menuListOption",
	RoleComboBoxSelect:            "comboBoxSelect",
	RolePopUpButton:               "popUpButton",
	RoleRadioGroup:                "radioGroup",
	RoleRadioButton:               "radioButton",
	RoleTabList:                   "tabList",
	RoleTab:                       "tab",
	RoleTable:                     "table",
	RoleGrid:                      "grid",
	RoleRowGroup:                  "rowGroup",
	RoleRow:                       "row",
	RoleCell:                      "cell",
	RoleGridCell:                  "gridCell",
	RoleColumnHeader:              "columnHeader",
	RoleRowHeader:                 "rowHeader",
	RoleComment:                   "comment",
	RoleDisclosureTriangle:        "disclosureTriangle",
	RoleDisclosureTriangleGrouped: "disclosureTriangleGrouped",
	RoleFeed:                      "feed",
	RoleArticle:                   "article",
	RoleDescriptionList:           "descriptionList",
	RoleTerm:                      "term",
}

func (r Role) String() string { return enumName(roleNames[:], int(r)) }

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	v, err := parseEnum("role", roleNames[:], string(b))
	if err != nil {
		return err
	}
	*r = Role(v)
	return nil
}

// ParseRole returns the role with the given name.
func ParseRole(name string) (Role, error) {
	var r Role
	err := r.UnmarshalText([]byte(name))
	return r, err
}

// State is a single boolean state bit. StateNone is never set.
type State uint8

const (
	StateNone State = iota
	StateIgnored
	StateInvisible
	StateFocusable
	StateCollapsed
	StateExpanded
	StateEditable
	StateHovered
	StateHorizontal
	StateVertical
	StateMultiselectable
	StateRequired
	StateLinked
	StateVisited
	StateProtected
	StateRichlyEditable
	StateMultiline

	stateCount
)

// MaxState is the highest defined state.
const MaxState = stateCount - 1

var stateNames = [stateCount]string{
	StateNone:            "none",
	StateIgnored:         "ignored",
	StateInvisible:       "invisible",
	StateFocusable:       "focusable",
	StateCollapsed:       "collapsed",
	StateExpanded:        "expanded",
	StateEditable:        "editable",
	StateHovered:         "hovered",
	StateHorizontal:      "horizontal",
	StateVertical:        "vertical",
	StateMultiselectable: "multiselectable",
	StateRequired:        "required",
	StateLinked:          "linked",
	StateVisited:         "visited",
	StateProtected:       "protected",
	StateRichlyEditable:  "richlyEditable",
	StateMultiline:       "multiline",
}

func (s State) String() string { return enumName(stateNames[:], int(s)) }

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	v, err := parseEnum("state", stateNames[:], string(b))
	if err != nil {
		return err
	}
	*s = State(v)
	return nil
}

// StringAttribute keys string-valued attributes.
type StringAttribute int32

const (
	StringAttributeNone StringAttribute = iota
	StringAttributeName
	StringAttributeDescription
	StringAttributeValue
	StringAttributePlaceholder
	StringAttributeContainerLiveStatus
	StringAttributeChildTreeID
	StringAttributeHTMLTag
	StringAttributeClassName
	StringAttributeURL
	StringAttributeRoleDescription

	stringAttributeCount
)

var stringAttributeNames = [stringAttributeCount]string{
	StringAttributeNone:                "none",
	StringAttributeName:                "name",
	StringAttributeDescription:         "description",
	StringAttributeValue:               "value",
	StringAttributePlaceholder:         "placeholder",
	StringAttributeContainerLiveStatus: "containerLiveStatus",
	StringAttributeChildTreeID:         "childTreeId",
	StringAttributeHTMLTag:             "htmlTag",
	StringAttributeClassName:           "className",
	StringAttributeURL:                 "url",
	StringAttributeRoleDescription:     "roleDescription",
}

func (a StringAttribute) String() string { return enumName(stringAttributeNames[:], int(a)) }

func (a StringAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *StringAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("string attribute", stringAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = StringAttribute(v)
	return nil
}

// IntAttribute keys int-valued attributes. Some of them hold node ids.
type IntAttribute int32

const (
	IntAttributeNone IntAttribute = iota
	IntAttributeActivedescendantID
	IntAttributeMemberOfID
	IntAttributePosInSet
	IntAttributeSetSize
	IntAttributeHierarchicalLevel
	IntAttributeScrollX
	IntAttributeScrollY
	IntAttributeScrollXMax
	IntAttributeScrollYMax
	IntAttributeTableRowCount
	IntAttributeTableColumnCount
	IntAttributeTableRowIndex
	IntAttributeTableColumnIndex
	IntAttributeTableCellRowIndex
	IntAttributeTableCellColumnIndex
	IntAttributeTableCellRowSpan
	IntAttributeTableCellColumnSpan
	IntAttributeColor
	IntAttributeTextSelStart
	IntAttributeTextSelEnd

	intAttributeCount
)

var intAttributeNames = [intAttributeCount]string{
	IntAttributeNone:                 "none",
	IntAttributeActivedescendantID:   "activedescendantId",
	IntAttributeMemberOfID:           "memberOfId",
	IntAttributePosInSet:             "posInSet",
	IntAttributeSetSize:              "setSize",
	IntAttributeHierarchicalLevel:    "hierarchicalLevel",
	IntAttributeScrollX:              "scrollX",
	IntAttributeScrollY:              "scrollY",
	IntAttributeScrollXMax:           "scrollXMax",
	IntAttributeScrollYMax:           "scrollYMax",
	IntAttributeTableRowCount:        "tableRowCount",
	IntAttributeTableColumnCount:     "tableColumnCount",
	IntAttributeTableRowIndex:        "tableRowIndex",
	IntAttributeTableColumnIndex:     "tableColumnIndex",
	IntAttributeTableCellRowIndex:    "tableCellRowIndex",
	IntAttributeTableCellColumnIndex: "tableCellColumnIndex",
	IntAttributeTableCellRowSpan:     "tableCellRowSpan",
	IntAttributeTableCellColumnSpan:  "tableCellColumnSpan",
	IntAttributeColor:                "color",
	IntAttributeTextSelStart:         "textSelStart",
	IntAttributeTextSelEnd:           "textSelEnd",
}

func (a IntAttribute) String() string { return enumName(intAttributeNames[:], int(a)) }

func (a IntAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *IntAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("int attribute", intAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = IntAttribute(v)
	return nil
}

// IsNodeIDAttribute reports whether values of a are node ids.
func (a IntAttribute) IsNodeIDAttribute() bool {
	switch a {
	case IntAttributeActivedescendantID, IntAttributeMemberOfID:
		return true
	}
	return false
}

// FloatAttribute keys float-valued attributes.
type FloatAttribute int32

const (
	FloatAttributeNone FloatAttribute = iota
	FloatAttributeValueForRange
	FloatAttributeMinValueForRange
	FloatAttributeMaxValueForRange
	FloatAttributeStepValueForRange
	FloatAttributeFontSize
	FloatAttributeFontWeight
	FloatAttributeTextIndent

	floatAttributeCount
)

var floatAttributeNames = [floatAttributeCount]string{
	FloatAttributeNone:              "none",
	FloatAttributeValueForRange:     "valueForRange",
	FloatAttributeMinValueForRange:  "minValueForRange",
	FloatAttributeMaxValueForRange:  "maxValueForRange",
	FloatAttributeStepValueForRange: "stepValueForRange",
	FloatAttributeFontSize:          "fontSize",
	FloatAttributeFontWeight:        "fontWeight",
	FloatAttributeTextIndent:        "textIndent",
}

func (a FloatAttribute) String() string { return enumName(floatAttributeNames[:], int(a)) }

func (a FloatAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *FloatAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("float attribute", floatAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = FloatAttribute(v)
	return nil
}

// BoolAttribute keys bool-valued attributes. Values are bit positions in
// BoolAttributes and must stay below 64.
type BoolAttribute int32

const (
	BoolAttributeNone BoolAttribute = iota
	BoolAttributeBusy
	BoolAttributeClipsChildren
	BoolAttributeIsPageBreakingObject
	BoolAttributeSelected
	BoolAttributeModal
	BoolAttributeLiveAtomic
	BoolAttributeContainerLiveAtomic
	BoolAttributeEditableRoot
	BoolAttributeScrollable
	BoolAttributeNotUserSelectableStyle

	boolAttributeCount
)

var boolAttributeNames = [boolAttributeCount]string{
	BoolAttributeNone:                   "none",
	BoolAttributeBusy:                   "busy",
	BoolAttributeClipsChildren:          "clipsChildren",
	BoolAttributeIsPageBreakingObject:   "isPageBreakingObject",
	BoolAttributeSelected:               "selected",
	BoolAttributeModal:                  "modal",
	BoolAttributeLiveAtomic:             "liveAtomic",
	BoolAttributeContainerLiveAtomic:    "containerLiveAtomic",
	BoolAttributeEditableRoot:           "editableRoot",
	BoolAttributeScrollable:             "scrollable",
	BoolAttributeNotUserSelectableStyle: "notUserSelectableStyle",
}

func (a BoolAttribute) String() string { return enumName(boolAttributeNames[:], int(a)) }

func (a BoolAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *BoolAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("bool attribute", boolAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = BoolAttribute(v)
	return nil
}

// IntListAttribute keys int-list attributes. Most of them hold node ids.
type IntListAttribute int32

const (
	IntListAttributeNone IntListAttribute = iota
	IntListAttributeControlsIDs
	IntListAttributeDetailsIDs
	IntListAttributeDescribedbyIDs
	IntListAttributeErrormessageIDs
	IntListAttributeFlowtoIDs
	IntListAttributeLabelledbyIDs
	IntListAttributeRadioGroupIDs
	IntListAttributeIndirectChildIDs
	IntListAttributeWordStarts
	IntListAttributeWordEnds

	intListAttributeCount
)

var intListAttributeNames = [intListAttributeCount]string{
	IntListAttributeNone:             "none",
	IntListAttributeControlsIDs:      "controlsIds",
	IntListAttributeDetailsIDs:       "detailsIds",
	IntListAttributeDescribedbyIDs:   "describedbyIds",
	IntListAttributeErrormessageIDs:  "errormessageIds",
	IntListAttributeFlowtoIDs:        "flowtoIds",
	IntListAttributeLabelledbyIDs:    "labelledbyIds",
	IntListAttributeRadioGroupIDs:    "radioGroupIds",
	IntListAttributeIndirectChildIDs: "indirectChildIds",
	IntListAttributeWordStarts:       "wordStarts",
	IntListAttributeWordEnds:         "wordEnds",
}

func (a IntListAttribute) String() string { return enumName(intListAttributeNames[:], int(a)) }

func (a IntListAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *IntListAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("int list attribute", intListAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = IntListAttribute(v)
	return nil
}

// IsNodeIDAttribute reports whether values of a are node ids.
func (a IntListAttribute) IsNodeIDAttribute() bool {
	switch a {
	case IntListAttributeWordStarts, IntListAttributeWordEnds, IntListAttributeNone:
		return false
	}
	return true
}

// StringListAttribute keys string-list attributes.
type StringListAttribute int32

const (
	StringListAttributeNone StringListAttribute = iota
	StringListAttributeCustomActionDescriptions
	StringListAttributeHTMLAttributeNames

	stringListAttributeCount
)

var stringListAttributeNames = [stringListAttributeCount]string{
	StringListAttributeNone:                     "none",
	StringListAttributeCustomActionDescriptions: "customActionDescriptions",
	StringListAttributeHTMLAttributeNames:       "htmlAttributeNames",
}

func (a StringListAttribute) String() string { return enumName(stringListAttributeNames[:], int(a)) }

func (a StringListAttribute) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *StringListAttribute) UnmarshalText(b []byte) error {
	v, err := parseEnum("string list attribute", stringListAttributeNames[:], string(b))
	if err != nil {
		return err
	}
	*a = StringListAttribute(v)
	return nil
}

func enumName(names []string, v int) string {
	if v >= 0 && v < len(names) && names[v] != "" {
		return names[v]
	}
	return fmt.Sprintf("%d", v)
}

func parseEnum(kind string, names []string, s string) (int, error) {
	for i, n := range names {
		if n == s {
			return i, nil
		}
	}
	var v int
	if _, err := fmt.Sscanf(s, "%d", &v); err == nil && v >= 0 && v < len(names) {
		return v, nil
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
