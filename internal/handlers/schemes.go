package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/farmiq/farmiq/internal/schemes"
	appErrors "github.com/farmiq/farmiq/pkg/errors"
	"github.com/farmiq/farmiq/pkg/response"
)

// SchemesHandler serves NGO and government scheme lookups.
type SchemesHandler struct {
	svc *schemes.Service
}

// NewSchemesHandler constructs a SchemesHandler.
func NewSchemesHandler(svc *schemes.Service) *SchemesHandler {
	return &SchemesHandler{svc: svc}
}

// schemeFilterRequest accepts land and age as JSON numbers or numeric strings. Crop is accepted
// for client compatibility and does not narrow the result.
type schemeFilterRequest struct {
	State    string      `json:"state" validate:"max=100"`
	Land     interface{} `json:"land"`
	Category string      `json:"category" validate:"max=100"`
	Age      interface{} `json:"age"`
	Crop     interface{} `json:"crop"`
}

// List handles GET /api/ngo-schemes.
func (h *SchemesHandler) List(c *gin.Context) {
	items, err := h.svc.List(requestContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// Get handles GET /api/ngo-schemes/:id. Ids that are not integers resolve to no scheme.
func (h *SchemesHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil {
		response.Error(c, schemes.ErrSchemeNotFound)
		return
	}

	item, err := h.svc.Get(requestContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Filter handles POST /api/government-schemes/filter.
func (h *SchemesHandler) Filter(c *gin.Context) {
	var req schemeFilterRequest
	if !bindAndValidate(c, &req) {
		return
	}

	land, err := optionalNumber(req.Land)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("land must be a number"))
		return
	}
	age, err := optionalNumber(req.Age)
	if err != nil {
		response.Error(c, appErrors.NewBadRequest("age must be a number"))
		return
	}

	criteria := schemes.Criteria{
		State:    req.State,
		Category: req.Category,
		Land:     land,
	}
	if age != nil {
		years := int(math.Trunc(*age))
		criteria.Age = &years
	}

	items, err := h.svc.Eligible(requestContext(c), criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items)
}

// optionalNumber treats null and blank strings as absent.
func optionalNumber(value interface{}) (*float64, error) {
	if value == nil {
		return nil, nil
	}
	if s, ok := value.(string); ok {
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		value = strings.TrimSpace(s)
	}
	if _, ok := value.(bool); ok {
		return nil, appErrors.ErrBadRequest
	}

	n, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, appErrors.ErrBadRequest
	}
	return &n, nil
}
