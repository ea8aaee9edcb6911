// handlers_intake.go - Slot selection and submission handlers
// Controller errors are returned as-is and mapped by ErrorHandler.
package api

import (
	"mime/multipart"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/models"
	"github.com/rotor-modal/client/internal/storage"
)

// IntakeHandlerImpl implements the IntakeHandler interface
type IntakeHandlerImpl struct {
	store storage.Store
}

// NewIntakeHandler creates a new intake handler instance
func NewIntakeHandler(store storage.Store) IntakeHandler {
	return &IntakeHandlerImpl{store: store}
}

// HandleGetIntake returns the current controller snapshot
func (h *IntakeHandlerImpl) HandleGetIntake(c echo.Context) error {
	_, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

// HandleSelectSlot stores an uploaded file and selects it into the slot.
// A "file" part is a picker selection; otherwise the "files" parts are a
// drop, of which only the first is used. A drop without files changes
// nothing.
func (h *IntakeHandlerImpl) HandleSelectSlot(c echo.Context) error {
	_, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}
	role, err := intake.ParseRole(c.Param("role"))
	if err != nil {
		return err
	}

	if header, err := c.FormFile("file"); err == nil {
		info, err := h.save(header)
		if err != nil {
			return err
		}
		if err := ctrl.Select(role, info); err != nil {
			h.store.Delete(info.ID)
			return err
		}
		return c.JSON(http.StatusOK, ctrl.Snapshot())
	}

	var dropped []*models.FileInfo
	if form, err := c.MultipartForm(); err == nil {
		if headers := form.File["files"]; len(headers) > 0 {
			info, err := h.save(headers[0])
			if err != nil {
				return err
			}
			dropped = append(dropped, info)
		}
	}

	if err := ctrl.Drop(role, dropped); err != nil {
		for _, info := range dropped {
			h.store.Delete(info.ID)
		}
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

// HandleClearSlot empties a slot
func (h *IntakeHandlerImpl) HandleClearSlot(c echo.Context) error {
	_, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}
	role, err := intake.ParseRole(c.Param("role"))
	if err != nil {
		return err
	}
	if err := ctrl.Clear(role); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

// HandleSetDrag updates the drag-over indicator of a slot
func (h *IntakeHandlerImpl) HandleSetDrag(c echo.Context) error {
	_, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}
	role, err := intake.ParseRole(c.Param("role"))
	if err != nil {
		return err
	}

	var req dragRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if err := ctrl.SetDragActive(role, *req.Active); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, ctrl.Snapshot())
}

// HandleSubmit starts the analysis of the two selected files
func (h *IntakeHandlerImpl) HandleSubmit(c echo.Context) error {
	_, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}
	if err := ctrl.Submit(c.Request().Context()); err != nil {
		return err
	}
	return c.JSON(http.StatusAccepted, ctrl.Snapshot())
}

func (h *IntakeHandlerImpl) save(header *multipart.FileHeader) (*models.FileInfo, error) {
	src, err := header.Open()
	if err != nil {
		return nil, NewBadRequestError("failed to open uploaded file", err)
	}
	defer src.Close()

	info, err := h.store.Save(header.Filename, src)
	if err != nil {
		return nil, NewInternalError("failed to save file", err)
	}
	return info, nil
}

type dragRequest struct {
	Active *bool `json:"active"`
}

func (r dragRequest) validate() error {
	if r.Active == nil {
		return NewValidationError("active")
	}
	return nil
}
