package web

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/models"
	"github.com/rotor-modal/client/internal/results"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasEmbeddedFiles(t *testing.T) {
	assert.True(t, HasEmbeddedFiles())
}

func render(t *testing.T, name string, data interface{}) string {
	t.Helper()
	r, err := NewRenderer()
	require.NoError(t, err)

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, data, c))
	return buf.String()
}

func TestRenderIntake_DisablesSubmitUntilReady(t *testing.T) {
	snap := intake.Snapshot{
		State: intake.StateIdle,
		Slots: []intake.SlotView{
			intake.NewSlot(intake.RoleDisplacement).View(),
			intake.NewSlot(intake.RolePosition).View(),
		},
		Notice: intake.NoticeBothFilesRequired,
	}
	html := render(t, IntakeTemplate, IntakePage{Title: "Modal", Snapshot: snap})

	assert.Contains(t, html, `accept=".dat"`)
	assert.Contains(t, html, `accept=".inp"`)
	assert.Contains(t, html, "disabled")
	assert.Contains(t, html, "Please upload both DAT and INP files")
}

func TestRenderIntake_ReadyEnablesSubmit(t *testing.T) {
	dat := intake.NewSlot(intake.RoleDisplacement)
	dat.Select(&models.FileInfo{ID: "1", Name: "rotor.dat"})
	inp := intake.NewSlot(intake.RolePosition)
	inp.Select(&models.FileInfo{ID: "2", Name: "rotor.inp"})

	snap := intake.Snapshot{
		State:     intake.StateReady,
		Ready:     true,
		CanSubmit: true,
		Slots:     []intake.SlotView{dat.View(), inp.View()},
	}
	html := render(t, IntakeTemplate, IntakePage{Title: "Modal", Snapshot: snap})

	assert.Contains(t, html, "rotor.dat")
	assert.Contains(t, html, "rotor.inp")
	assert.NotContains(t, html, "disabled")
}

func TestRenderResults_EmphasisAndSummary(t *testing.T) {
	target := "Met"
	result := &models.AnalysisResult{
		Results: []models.Row{
			models.NewRow("Mode", "1", results.LowerDiffColumn, 150.0, results.UpperDiffColumn, 400.0),
		},
		ModalTarget: &target,
	}
	view := results.BuildView("r1", result, results.NewInterpreter(results.DefaultRules()))
	html := render(t, ResultsTemplate, ResultsPage{Title: "Results", Report: view})

	assert.Contains(t, html, "<h1>Modal Identification Results</h1>")
	assert.Contains(t, html, "Modal Separation Target:")
	assert.Contains(t, html, `<span class="tag positive">Met</span>`)
	assert.Contains(t, html, `<td class="negative">150.00</td>`)
	assert.Contains(t, html, `<td class="positive">400.00</td>`)
	assert.Equal(t, 1, strings.Count(html, "<tbody>"))
}

func TestRenderResults_EmptyNotice(t *testing.T) {
	view := results.BuildView("r2", &models.AnalysisResult{}, results.NewInterpreter(results.DefaultRules()))
	html := render(t, ResultsTemplate, ResultsPage{Title: "Results", Report: view})

	assert.Contains(t, html, results.NoResultsNotice)
	assert.NotContains(t, html, "<table")
}

func TestRegisterStaticRoutes(t *testing.T) {
	e := echo.New()
	require.NoError(t, RegisterStaticRoutes(e))

	req := httptest.NewRequest(http.MethodGet, "/static/app.js", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/intake/events")
}
