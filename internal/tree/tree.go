// Package tree models the container tree returned by get_tree and carried in
// window events.
package tree

import "encoding/json"

type Type string

const (
	TypeRoot            Type = "root"
	TypeOutput          Type = "output"
	TypeWorkspace       Type = "workspace"
	TypeContent         Type = "con"
	TypeFloatingContent Type = "floating_con"
	TypeDockArea        Type = "dockarea"
)

type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type WindowProperties struct {
	Class        string `json:"class"`
	Instance     string `json:"instance"`
	Machine      string `json:"machine,omitempty"`
	Title        string `json:"title"`
	WindowRole   string `json:"window_role,omitempty"`
	WindowType   string `json:"window_type,omitempty"`
	TransientFor *int64 `json:"transient_for,omitempty"`
}

// Node is one container. Only the fields the tooling reads are modelled.
type Node struct {
	ID                 int64             `json:"id"`
	Type               Type              `json:"type"`
	Name               string            `json:"name"`
	Focused            bool              `json:"focused"`
	Urgent             bool              `json:"urgent"`
	Sticky             bool              `json:"sticky"`
	Layout             string            `json:"layout"`
	Orientation        string            `json:"orientation"`
	Percent            *float64          `json:"percent"`
	Output             string            `json:"output,omitempty"`
	Marks              []string          `json:"marks,omitempty"`
	Border             string            `json:"border,omitempty"`
	CurrentBorderWidth int               `json:"current_border_width"`
	Rect               Rect              `json:"rect"`
	DecoRect           Rect              `json:"deco_rect"`
	WindowRect         Rect              `json:"window_rect"`
	Geometry           Rect              `json:"geometry"`
	Window             *int64            `json:"window,omitempty"`
	WindowProperties   *WindowProperties `json:"window_properties,omitempty"`
	FullscreenMode     int               `json:"fullscreen_mode"`
	Floating           string            `json:"floating,omitempty"`
	ScratchpadState    string            `json:"scratchpad_state,omitempty"`
	Focus              []int64           `json:"focus"`
	Nodes              []Node            `json:"nodes"`
	FloatingNodes      []Node            `json:"floating_nodes"`

	// sway only
	PID     int    `json:"pid,omitempty"`
	AppID   string `json:"app_id,omitempty"`
	Visible bool   `json:"visible,omitempty"`
	Shell   string `json:"shell,omitempty"`
}

// IsContent reports whether n holds an application window.
func (n *Node) IsContent() bool {
	return n.Type == TypeContent || n.Type == TypeFloatingContent
}

// Parse decodes a get_tree reply or a window event container.
func Parse(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	return &root, nil
}
