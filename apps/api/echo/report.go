package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/achievement"
	"github.com/trezcool/ripoti/core/report"
)

type reportApi struct {
	engine *achievement.Engine
	svc    *report.Service
}

func registerReportAPI(g *echo.Group, engine *achievement.Engine, svc *report.Service) {
	api := reportApi{engine: engine, svc: svc}

	g.GET("/students/:id/terms/:termID/suggestions", api.suggestions)
	g.POST("/students/:id/terms/:termID/report", api.compile)
}

func (api *reportApi) suggestions(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}
	suggestions, err := api.engine.Suggest(ctx.Request().Context(), ac, ctx.Param("id"), ctx.Param("termID"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, suggestions)
}

func (api *reportApi) compile(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}

	var data report.CompileInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompileInput")
	}

	payload, err := api.svc.CompileAndNotify(ctx.Request().Context(), ac, ctx.Param("id"), ctx.Param("termID"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, payload)
}
