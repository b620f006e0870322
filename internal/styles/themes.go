package styles

import (
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// themeMu protects access to themeRegistry and currentTheme
var themeMu sync.RWMutex

// hexColorRegex validates hex color codes (#RRGGBB or #RRGGBBAA with alpha)
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ColorPalette holds all theme colors
type ColorPalette struct {
	Primary string `json:"primary"`
	Accent  string `json:"accent"`

	Success string `json:"success"`
	Warning string `json:"warning"`
	Error   string `json:"error"`
	Info    string `json:"info"`

	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	TextMuted     string `json:"textMuted"`
	TextSubtle    string `json:"textSubtle"`

	BgSecondary string `json:"bgSecondary"`
	BgTertiary  string `json:"bgTertiary"`

	BorderNormal string `json:"borderNormal"`
	BorderActive string `json:"borderActive"`

	SyntaxTheme string `json:"syntaxTheme"` // Chroma style name
}

// Theme represents a complete theme configuration
type Theme struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Colors      ColorPalette `json:"colors"`
}

// Built-in themes
var (
	DefaultTheme = Theme{
		Name:        "default",
		DisplayName: "Default Dark",
		Colors: ColorPalette{
			Primary:       "#7C3AED",
			Accent:        "#F59E0B",
			Success:       "#10B981",
			Warning:       "#F59E0B",
			Error:         "#EF4444",
			Info:          "#3B82F6",
			TextPrimary:   "#F9FAFB",
			TextSecondary: "#9CA3AF",
			TextMuted:     "#6B7280",
			TextSubtle:    "#4B5563",
			BgSecondary:   "#1F2937",
			BgTertiary:    "#374151",
			BorderNormal:  "#374151",
			BorderActive:  "#7C3AED",
			SyntaxTheme:   "monokai",
		},
	}

	DraculaTheme = Theme{
		Name:        "dracula",
		DisplayName: "Dracula",
		Colors: ColorPalette{
			Primary:       "#BD93F9",
			Accent:        "#FFB86C",
			Success:       "#50FA7B",
			Warning:       "#F1FA8C",
			Error:         "#FF5555",
			Info:          "#8BE9FD",
			TextPrimary:   "#F8F8F2",
			TextSecondary: "#BFBFBF",
			TextMuted:     "#6272A4",
			TextSubtle:    "#44475A",
			BgSecondary:   "#21222C",
			BgTertiary:    "#44475A",
			BorderNormal:  "#44475A",
			BorderActive:  "#BD93F9",
			SyntaxTheme:   "dracula",
		},
	}
)

var themeRegistry = map[string]Theme{
	"default": DefaultTheme,
	"dracula": DraculaTheme,
}

var currentTheme = "default"

// IsValidHexColor checks if a string is a valid hex color code (#RRGGBB or #RRGGBBAA)
func IsValidHexColor(hex string) bool {
	return hexColorRegex.MatchString(hex)
}

// IsValidTheme checks if a theme name exists in the registry
func IsValidTheme(name string) bool {
	themeMu.RLock()
	defer themeMu.RUnlock()
	_, ok := themeRegistry[name]
	return ok
}

// GetTheme returns a theme by name, or the default theme if not found
func GetTheme(name string) Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if theme, ok := themeRegistry[name]; ok {
		return theme
	}
	return DefaultTheme
}

// GetCurrentThemeName returns the name of the currently active theme
func GetCurrentThemeName() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// ListThemes returns the names of all available themes in sorted order
func ListThemes() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	names := make([]string, 0, len(themeRegistry))
	for name := range themeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyTheme applies a theme by name, updating all style variables.
// Unknown names fall back to the default theme.
func ApplyTheme(name string) {
	if !IsValidTheme(name) {
		name = DefaultTheme.Name
	}
	ApplyThemeColors(GetTheme(name))
	themeMu.Lock()
	currentTheme = name
	themeMu.Unlock()
}

// ApplyThemeColors updates all style package variables from a theme.
// It must only be called before the program starts.
func ApplyThemeColors(theme Theme) {
	c := theme.Colors

	Primary = color(c.Primary, Primary)
	Accent = color(c.Accent, Accent)
	Success = color(c.Success, Success)
	Warning = color(c.Warning, Warning)
	Error = color(c.Error, Error)
	Info = color(c.Info, Info)
	TextPrimary = color(c.TextPrimary, TextPrimary)
	TextSecondary = color(c.TextSecondary, TextSecondary)
	TextMuted = color(c.TextMuted, TextMuted)
	TextSubtle = color(c.TextSubtle, TextSubtle)
	BgSecondary = color(c.BgSecondary, BgSecondary)
	BgTertiary = color(c.BgTertiary, BgTertiary)
	BorderNormal = color(c.BorderNormal, BorderNormal)
	BorderActive = color(c.BorderActive, BorderActive)

	if c.SyntaxTheme != "" {
		CurrentSyntaxTheme = c.SyntaxTheme
	}

	rebuildStyles()
}

// color keeps fallback when hex is not a valid color.
func color(hex string, fallback lipgloss.Color) lipgloss.Color {
	if !IsValidHexColor(hex) {
		return fallback
	}
	return lipgloss.Color(hex)
}

// rebuildStyles recreates all lipgloss styles with current colors
func rebuildStyles() {
	PanelActive = PanelActive.BorderForeground(BorderActive)
	PanelInactive = PanelInactive.BorderForeground(BorderNormal)

	Title = Title.Foreground(TextPrimary)
	Body = Body.Foreground(TextPrimary)
	Muted = Muted.Foreground(TextMuted)
	Subtle = Subtle.Foreground(TextSubtle)
	KeyHint = KeyHint.Foreground(TextMuted).Background(BgTertiary)

	StatusStaged = StatusStaged.Foreground(Success)
	StatusModified = StatusModified.Foreground(Warning)
	StatusUntracked = StatusUntracked.Foreground(TextMuted)
	StatusDeleted = StatusDeleted.Foreground(Error)
	StatusConflict = StatusConflict.Foreground(Error)
	StatusInProgress = StatusInProgress.Foreground(Info)
	ToastError = ToastError.Background(Error)

	ListItemNormal = ListItemNormal.Foreground(TextPrimary)
	ListItemSelected = ListItemSelected.Foreground(TextPrimary).Background(BgTertiary)
	ListCursor = ListCursor.Foreground(Primary)

	DiffAdd = DiffAdd.Foreground(Success)
	DiffRemove = DiffRemove.Foreground(Error)
	DiffContext = DiffContext.Foreground(TextMuted)
	DiffHeader = DiffHeader.Foreground(Info)

	Footer = Footer.Foreground(TextMuted).Background(BgSecondary)
	Header = Header.Background(BgSecondary)

	ModalBox = ModalBox.BorderForeground(Primary).Background(BgSecondary)
	ModalTitle = ModalTitle.Foreground(TextPrimary)

	Button = Button.Foreground(TextSecondary).Background(BgTertiary)
	ButtonFocused = ButtonFocused.Foreground(TextPrimary).Background(Primary)
}
