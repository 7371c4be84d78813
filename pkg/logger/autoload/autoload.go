// Package autoload configures the global logger from the environment as a
// side effect of being imported.
package autoload

import (
	configx "github.com/vanhoang/sales-agent-pipeline/pkg/config"
	logx "github.com/vanhoang/sales-agent-pipeline/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
