package models

// Theme tokens persisted for the presentation mode.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// User is the mock identity every report is attributed to.
type User struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}
