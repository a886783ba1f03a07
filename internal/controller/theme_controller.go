// FILE: internal/controller/theme_controller.go
package controller

import (
	"context"
	"fmt"

	"shabdsetu-client/internal/constant"
	"shabdsetu-client/internal/pkg/logger"
	"shabdsetu-client/internal/repository/contract"
	"shabdsetu-client/internal/view"
)

type IThemeController interface {
	Load(ctx context.Context) string
	Toggle(ctx context.Context) (string, error)
	Current() string
}

type themeController struct {
	prefs   contract.PreferenceRepository
	view    view.View
	logger  logger.ILogger
	current string
}

func NewThemeController(prefs contract.PreferenceRepository, v view.View, log logger.ILogger) IThemeController {
	return &themeController{prefs: prefs, view: v, logger: log}
}

// Load applies the persisted theme, falling back to light when storage is
// unreadable or holds an unknown value.
func (c *themeController) Load(ctx context.Context) string {
	theme := constant.ThemeLight

	stored, found, err := c.prefs.Get(ctx, constant.PrefKeyTheme)
	switch {
	case err != nil:
		c.logger.Warn("THEME", "Failed to read theme preference", map[string]interface{}{"error": err.Error()})
	case found && (stored == constant.ThemeLight || stored == constant.ThemeDark):
		theme = stored
	}

	c.current = theme
	c.view.ApplyTheme(theme)
	return theme
}

// Toggle flips the theme. The new theme is applied even when it could not
// be persisted.
func (c *themeController) Toggle(ctx context.Context) (string, error) {
	if c.current == "" {
		c.Load(ctx)
	}

	next := constant.ThemeDark
	if c.current == constant.ThemeDark {
		next = constant.ThemeLight
	}

	c.current = next
	c.view.ApplyTheme(next)

	if err := c.prefs.Set(ctx, constant.PrefKeyTheme, next); err != nil {
		c.logger.Error("THEME", "Failed to persist theme", map[string]interface{}{"error": err, "theme": next})
		return next, fmt.Errorf("failed to save theme: %w", err)
	}
	return next, nil
}

func (c *themeController) Current() string {
	return c.current
}
