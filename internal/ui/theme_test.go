package ui

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"

	"github.com/bamsammich/fwt/internal/config"
)

func TestApplyTheme(t *testing.T) {
	green, red := ColorGreen, ColorRed
	t.Cleanup(func() { ColorGreen, ColorRed = green, red })

	custom := "#00ff00"
	ApplyTheme(config.ThemeConfig{Green: &custom})

	assert.Equal(t, lipgloss.Color("#00ff00"), ColorGreen)
	assert.Equal(t, red, ColorRed, "unset colors keep the palette")
}
