package editor

import (
	"math"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/emilianohg/timegrid/internal/models"
)

const goldenRatio = 1.61803

// PanelHue spreads issue ids around the color wheel. Subtasks take the hue
// of their parent.
func PanelHue(issue *models.Issue) float64 {
	id := issue.ID
	if issue.ParentID != nil {
		id = *issue.ParentID
	}
	return math.Mod(math.Round(float64(id)*360/goldenRatio), 360)
}

// PanelColor is the background of a panel. Panels without an issue are grey.
func PanelColor(issue *models.Issue) lipgloss.Color {
	if issue == nil {
		return lipgloss.Color(colorful.Hsl(0, 0, 0.35).Hex())
	}
	return lipgloss.Color(colorful.Hsl(PanelHue(issue), 0.5, 0.35).Hex())
}
