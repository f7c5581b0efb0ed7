package tree

import "fmt"

type OutputMode struct {
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	Refresh            int    `json:"refresh"`
	PictureAspectRatio string `json:"picture_aspect_ratio,omitempty"`
}

// Output is one entry of a get_outputs reply.
type Output struct {
	ID               int64        `json:"id"`
	Name             string       `json:"name"`
	Make             string       `json:"make"`
	Model            string       `json:"model"`
	Serial           string       `json:"serial"`
	Active           bool         `json:"active"`
	Primary          bool         `json:"primary"`
	Focused          bool         `json:"focused"`
	Power            bool         `json:"power"`
	Scale            float64      `json:"scale"`
	Transform        string       `json:"transform,omitempty"`
	CurrentWorkspace string       `json:"current_workspace"`
	Modes            []OutputMode `json:"modes,omitempty"`
	CurrentMode      *OutputMode  `json:"current_mode,omitempty"`
	Rect             Rect         `json:"rect"`
}

// Identity is the make/model/serial triple that survives reconnects.
func (o Output) Identity() string {
	return fmt.Sprintf("%s %s %s", o.Make, o.Model, o.Serial)
}

// Resolution formats the output size as WIDTHxHEIGHT, empty when unknown.
func (o Output) Resolution() string {
	if o.Rect.Width == 0 || o.Rect.Height == 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", o.Rect.Width, o.Rect.Height)
}

// Workspace is one entry of a get_workspaces reply.
type Workspace struct {
	ID      int64  `json:"id,omitempty"`
	Num     int    `json:"num"`
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
	Focused bool   `json:"focused"`
	Urgent  bool   `json:"urgent"`
	Output  string `json:"output"`
	Rect    Rect   `json:"rect"`
}
