package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/ripoti/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, svc *school.Service) {
	api := schoolApi{svc: svc}

	g.GET("/students", api.listStudents)
	g.GET("/students/:id", api.retrieveStudent)
	g.GET("/students/:id/grades", api.gradeHistory)
	g.POST("/students/:id/grades", api.writeGrade)
	g.GET("/terms", api.listTerms)
	g.GET("/subjects", api.listSubjects)
}

func (api *schoolApi) listStudents(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}
	students, err := api.svc.ListStudents(ctx.Request().Context(), ac, ctx.QueryParam("class_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *schoolApi) retrieveStudent(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}
	stu, err := api.svc.GetStudent(ctx.Request().Context(), ac, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, stu)
}

func (api *schoolApi) gradeHistory(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.GetGradeHistory(ctx.Request().Context(), ac, ctx.Param("id"), ctx.QueryParam("subject_id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *schoolApi) writeGrade(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}

	var data school.NewGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGrade")
	}
	data.StudentID = ctx.Param("id")

	rec, err := api.svc.WriteGrade(ctx.Request().Context(), ac, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rec)
}

func (api *schoolApi) listTerms(ctx echo.Context) error {
	ac, err := getAccessContext(ctx)
	if err != nil {
		return err
	}
	terms, err := api.svc.ListTerms(ctx.Request().Context(), ac)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, terms)
}

func (api *schoolApi) listSubjects(ctx echo.Context) error {
	subjects, err := api.svc.ListSubjects(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, subjects)
}
