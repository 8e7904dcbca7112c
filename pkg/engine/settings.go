package engine

// Dropdown render modes.
const (
	RenderModeModern  = "modern"
	RenderModePopup   = "popup"
	RenderModeDefault = "default"
)

// DropdownSettings tunes single-choice dropdown widgets.
type DropdownSettings struct {
	SearchEnabled            bool   `json:"searchEnabled"`
	CloseOnSelect            bool   `json:"closeOnSelect"`
	PreserveSelectedPosition bool   `json:"preserveSelectedPosition"`
	RenderMode               string `json:"renderMode"`
}

// Settings is the global rendering configuration applied before every
// survey construction.
type Settings struct {
	Dropdown DropdownSettings `json:"dropdown"`
}

// DefaultSettings enables dropdown search, closes on select, and keeps the
// selected entry in place using the modern render mode.
func DefaultSettings() Settings {
	return Settings{
		Dropdown: DropdownSettings{
			SearchEnabled:            true,
			CloseOnSelect:            true,
			PreserveSelectedPosition: true,
			RenderMode:               RenderModeModern,
		},
	}
}
