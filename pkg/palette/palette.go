package palette

import (
	"fmt"
	"regexp"

	"github.com/jedib0t/go-pretty/v6/text"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Color struct {
	Hex  string
	Term text.Colors
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// DefaultColors is the task palette, light and soft tones with the closest
// terminal color for each entry
var DefaultColors = []Color{
	{Hex: "#8FA5D4", Term: text.Colors{text.FgHiBlue}},
	{Hex: "#E0A8C0", Term: text.Colors{text.FgHiMagenta}},
	{Hex: "#8FC5A3", Term: text.Colors{text.FgHiGreen}},
	{Hex: "#E0B38A", Term: text.Colors{text.FgHiYellow}},
	{Hex: "#7BB8D4", Term: text.Colors{text.FgHiCyan}},
	{Hex: "#D4A89A", Term: text.Colors{text.FgYellow}},
	{Hex: "#9BB8D4", Term: text.Colors{text.FgBlue}},
	{Hex: "#B89BC8", Term: text.Colors{text.FgMagenta}},
	{Hex: "#8FC5B0", Term: text.Colors{text.FgGreen}},
	{Hex: "#D4B38A", Term: text.Colors{text.FgHiYellow, text.Bold}},
	{Hex: "#8BB8D4", Term: text.Colors{text.FgCyan}},
	{Hex: "#B8D4A8", Term: text.Colors{text.FgHiGreen, text.Bold}},
	{Hex: "#D4A8C0", Term: text.Colors{text.FgHiMagenta, text.Bold}},
	{Hex: "#9BB8D4", Term: text.Colors{text.FgBlue}},
}

// Unassigned is used for task names that are not in the task list
var Unassigned = Color{Hex: "#CCCCCC", Term: text.Colors{text.FgHiBlack}}

type Palette struct {
	colors []Color
}

func New(colors []Color) *Palette {
	if len(colors) == 0 {
		colors = DefaultColors
	}
	return &Palette{colors: colors}
}

// NewFromConfig builds the palette from the 'palette' config key, a list of
// hex colors. Terminal colors follow the default palette order.
func NewFromConfig() *Palette {
	var hexes []string
	if err := viper.UnmarshalKey("palette", &hexes); err != nil {
		log.Errorf("bad palette configs, using defaults, err: %s", err)
		return New(nil)
	}
	colors, err := FromHex(hexes)
	if err != nil {
		log.Errorf("bad palette configs, using defaults, err: %s", err)
		return New(nil)
	}
	return New(colors)
}

func FromHex(hexes []string) ([]Color, error) {
	var colors []Color
	for i, h := range hexes {
		if !hexColor.MatchString(h) {
			return nil, fmt.Errorf("palette entry %d: %q is not a #RRGGBB color", i, h)
		}
		colors = append(colors, Color{Hex: h, Term: DefaultColors[i%len(DefaultColors)].Term})
	}
	return colors, nil
}

// Assign maps task names, in task creation order, onto the palette, cycling
// once it is exhausted. A repeated name keeps its first color.
func (p *Palette) Assign(taskNames []string) map[string]Color {
	colors := make(map[string]Color, len(taskNames))
	for i, name := range taskNames {
		if _, ok := colors[name]; ok {
			continue
		}
		colors[name] = p.colors[i%len(p.colors)]
	}
	return colors
}

func (p *Palette) Len() int {
	return len(p.colors)
}
