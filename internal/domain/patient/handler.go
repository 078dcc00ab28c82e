package patient

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/medrec/medrec/internal/platform/filestore"
	"github.com/medrec/medrec/pkg/pagination"
)

// Handler provides HTTP handlers for the patient domain.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the patient routes on the supplied group. The
// static /search and /stats routes are registered alongside /:id; echo
// matches static segments before path parameters.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/patients")
	g.GET("", h.ListPatients)
	g.GET("/search", h.SearchPatients)
	g.GET("/stats", h.GetStats)
	g.GET("/:id", h.GetPatient)
	g.POST("", h.CreatePatient)
	g.PUT("/:id", h.UpdatePatient)
	g.DELETE("/:id", h.DeletePatient)
	g.PATCH("/:id/picture", h.UpdatePicture)
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// httpError maps domain errors onto HTTP status codes: validation, upload,
// and malformed-id failures are 400, a missing record is 404, anything else
// is surfaced as 500 with the underlying message.
func httpError(err error) error {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		return echo.NewHTTPError(http.StatusBadRequest, verr.Error())
	case errors.Is(err, ErrInvalidID):
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid patient ID format")
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	case errors.Is(err, filestore.ErrUnsupportedType),
		errors.Is(err, filestore.ErrFileTooLarge),
		errors.Is(err, filestore.ErrTooManyFiles),
		errors.Is(err, filestore.ErrUnexpectedField),
		errors.Is(err, filestore.ErrNoFile):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}

// formParams returns the request's form fields, from the multipart form when
// present, otherwise from an urlencoded body.
func formParams(c echo.Context) (url.Values, error) {
	form, err := c.MultipartForm()
	if err == nil {
		return url.Values(form.Value), nil
	}
	if errors.Is(err, http.ErrNotMultipart) {
		if err := c.Request().ParseForm(); err != nil {
			return nil, err
		}
		return c.Request().PostForm, nil
	}
	return nil, err
}

// pictureUpload extracts the single allowed file from the multipart form.
// Files under any field other than "picture", or more than one file, are
// upload errors. Returns a nil Upload when no file was sent.
func pictureUpload(c echo.Context) (*filestore.Upload, io.Closer, error) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var fh *multipart.FileHeader
	for field, headers := range form.File {
		if len(headers) == 0 {
			continue
		}
		if field != "picture" {
			return nil, nil, filestore.ErrUnexpectedField
		}
		if len(headers) > 1 || fh != nil {
			return nil, nil, filestore.ErrTooManyFiles
		}
		fh = headers[0]
	}
	if fh == nil {
		return nil, nil, nil
	}

	src, err := fh.Open()
	if err != nil {
		return nil, nil, err
	}
	up := &filestore.Upload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     src,
	}
	return up, src, nil
}

func (h *Handler) ListPatients(c echo.Context) error {
	params := ParseListParams(c.QueryParams())
	items, total, err := h.svc.List(c.Request().Context(), params)
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Page))
}

func (h *Handler) SearchPatients(c echo.Context) error {
	items, err := h.svc.Search(c.Request().Context(), c.QueryParam("q"))
	if err != nil {
		return httpError(err)
	}
	if items == nil {
		items = []*Patient{}
	}
	return c.JSON(http.StatusOK, items)
}

func (h *Handler) GetStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httpError(err)
	}
	p, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	values, err := formParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	up, closer, err := pictureUpload(c)
	if err != nil {
		return httpError(err)
	}
	if closer != nil {
		defer closer.Close()
	}

	in := CreateInput{
		Name:      values.Get("name"),
		Age:       values.Get("age"),
		Diagnosis: values.Get("diagnosis"),
		Operation: values.Get("operation"),
		Details:   values.Get("details"),
		Relatives: values["relatives"],
	}

	p, err := h.svc.Create(c.Request().Context(), in, up)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

// optional returns the first non-empty value for a form key, or nil when the
// key is absent or blank; blank submitted fields keep the stored value.
func optional(values url.Values, key string) *string {
	if vs, ok := values[key]; ok && len(vs) > 0 && vs[0] != "" {
		return &vs[0]
	}
	return nil
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httpError(err)
	}

	values, err := formParams(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	up, closer, err := pictureUpload(c)
	if err != nil {
		return httpError(err)
	}
	if closer != nil {
		defer closer.Close()
	}

	in := UpdateInput{
		Name:      optional(values, "name"),
		Age:       optional(values, "age"),
		Diagnosis: optional(values, "diagnosis"),
		Operation: optional(values, "operation"),
		Details:   optional(values, "details"),
	}
	if vs, ok := values["relatives"]; ok {
		in.Relatives = vs
		in.RelativesSet = true
	}

	p, err := h.svc.Update(c.Request().Context(), id, in, up)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httpError(err)
	}
	if err := h.svc.Delete(c.Request().Context(), id); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]string{"deletedId": id.String()})
}

func (h *Handler) UpdatePicture(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return httpError(err)
	}

	up, closer, err := pictureUpload(c)
	if err != nil {
		return httpError(err)
	}
	if closer != nil {
		defer closer.Close()
	}

	p, err := h.svc.UpdatePicture(c.Request().Context(), id, up)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, map[string]*string{"picture": p.Picture})
}
