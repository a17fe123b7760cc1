package cli

import (
	"github.com/critdev/crit/internal/core"
	"github.com/critdev/crit/internal/hooks"
	"github.com/critdev/crit/internal/observability"
	"github.com/critdev/crit/internal/syncbridge"
	"github.com/critdev/crit/pkg/models"
)

// Service instances, set during app initialization in app.go.
var (
	BasePath string
	Cfg      *models.Config
	Store    core.Store
	Router   *hooks.Router
	Bridge   *syncbridge.Bridge
	EventLog observability.EventLog
)
