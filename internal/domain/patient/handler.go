package patient

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hie/mpi/internal/mpi"
	"github.com/hie/mpi/internal/platform/auth"
	"github.com/hie/mpi/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group, fhirGroup *echo.Group) {
	role := auth.RequireRole("admin", "registrar", "matcher")

	crud := api.Group("", role)
	crud.POST("/patients", h.CreatePatient)
	crud.GET("/patients", h.ListPatients)
	crud.GET("/patients/:id", h.GetPatient)
	crud.PUT("/patients/:id", h.UpdatePatient)
	crud.DELETE("/patients/:id", h.DeletePatient)
	crud.POST("/match", h.MatchPatient)

	admin := api.Group("", auth.RequireRole("admin"))
	admin.POST("/rematch", h.RematchAll)

	fhirRead := fhirGroup.Group("", role)
	fhirRead.GET("/Patient/:id", h.GetPatientFHIR)
	fhirRead.POST("/Patient/$match", h.MatchPatientFHIR)
}

// -- REST Endpoints --

func (h *Handler) CreatePatient(c echo.Context) error {
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListPatients(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var p Patient
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p.ID = id
	if err := h.svc.UpdatePatient(c.Request().Context(), &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) MatchPatient(c echo.Context) error {
	var subject mpi.Record
	if err := c.Bind(&subject); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	result, err := h.svc.MatchPatient(c.Request().Context(), subject)
	if errors.Is(err, mpi.ErrInvalidSubject) {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (h *Handler) RematchAll(c echo.Context) error {
	report, err := h.svc.RematchAll(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}

// -- FHIR Endpoints --

func (h *Handler) GetPatientFHIR(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorOutcome("invalid id"))
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return c.JSON(http.StatusNotFound, errorOutcome("Patient "+c.Param("id")+" not found"))
	}
	return c.JSON(http.StatusOK, p.ToFHIR())
}

// MatchPatientFHIR implements Patient/$match: the body is a FHIR Patient
// resource, the response a searchset bundle of matching stored patients.
func (h *Handler) MatchPatientFHIR(c echo.Context) error {
	var resource map[string]interface{}
	if err := c.Bind(&resource); err != nil {
		return c.JSON(http.StatusBadRequest, errorOutcome(err.Error()))
	}
	subject := recordFromFHIR(resource)
	result, err := h.svc.MatchPatient(c.Request().Context(), subject)
	if errors.Is(err, mpi.ErrInvalidSubject) {
		return c.JSON(http.StatusUnprocessableEntity, errorOutcome(err.Error()))
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, errorOutcome(err.Error()))
	}

	var entries []map[string]interface{}
	if result.MatchedPatientID != nil {
		p, err := h.svc.GetPatient(c.Request().Context(), *result.MatchedPatientID)
		if err == nil {
			grade := "certain"
			if result.Ambiguous {
				grade = "possible"
			}
			entries = append(entries, map[string]interface{}{
				"resource": p.ToFHIR(),
				"search": map[string]interface{}{
					"mode":  "match",
					"score": matchScore(result),
					"extension": []map[string]interface{}{{
						"url":       "http://hl7.org/fhir/StructureDefinition/match-grade",
						"valueCode": grade,
					}},
				},
			})
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"resourceType": "Bundle",
		"type":         "searchset",
		"total":        len(entries),
		"entry":        entries,
	})
}

// matchScore scales the winning verdict's total into the 0..1 range FHIR
// expects.
func matchScore(r *MatchResult) float64 {
	var best float64
	for _, v := range r.Verdicts {
		if v.IsMatch && v.TotalScore > best {
			best = v.TotalScore
		}
	}
	const maxTotal = 30.0
	if best > maxTotal {
		best = maxTotal
	}
	return best / maxTotal
}

func errorOutcome(msg string) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "OperationOutcome",
		"issue": []map[string]interface{}{
			{"severity": "error", "code": "processing", "diagnostics": msg},
		},
	}
}

// recordFromFHIR extracts the matching demographics from a FHIR Patient
// resource. Unknown elements are ignored.
func recordFromFHIR(resource map[string]interface{}) mpi.Record {
	var rec mpi.Record
	if names, ok := resource["name"].([]interface{}); ok && len(names) > 0 {
		if name, ok := names[0].(map[string]interface{}); ok {
			if fam, ok := name["family"].(string); ok {
				rec.LastName = fam
			}
			if given, ok := name["given"].([]interface{}); ok && len(given) > 0 {
				if g, ok := given[0].(string); ok {
					rec.FirstName = g
				}
			}
		}
	}
	if bd, ok := resource["birthDate"].(string); ok {
		rec.DOB = bd
	}
	if g, ok := resource["gender"].(string); ok {
		switch g {
		case "female":
			rec.GenderAtBirth = mpi.GenderFemale
		case "male":
			rec.GenderAtBirth = mpi.GenderMale
		case "other":
			rec.GenderAtBirth = mpi.GenderOther
		case "unknown":
			rec.GenderAtBirth = mpi.GenderUnknown
		}
	}
	if addrs, ok := resource["address"].([]interface{}); ok {
		for _, raw := range addrs {
			a, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			var addr mpi.Address
			if lines, ok := a["line"].([]interface{}); ok {
				if len(lines) > 0 {
					addr.Line1, _ = lines[0].(string)
				}
				if len(lines) > 1 {
					addr.Line2, _ = lines[1].(string)
				}
			}
			addr.City, _ = a["city"].(string)
			addr.State, _ = a["state"].(string)
			addr.Zip, _ = a["postalCode"].(string)
			addr.Country, _ = a["country"].(string)
			rec.Addresses = append(rec.Addresses, addr)
		}
	}
	if telecom, ok := resource["telecom"].([]interface{}); ok {
		for _, raw := range telecom {
			t, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			value, _ := t["value"].(string)
			switch t["system"] {
			case "phone":
				rec.Contacts = append(rec.Contacts, mpi.Contact{Phone: value})
			case "email":
				rec.Contacts = append(rec.Contacts, mpi.Contact{Email: value})
			}
		}
	}
	if idents, ok := resource["identifier"].([]interface{}); ok {
		for _, raw := range idents {
			ident, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			value, _ := ident["value"].(string)
			if system, _ := ident["system"].(string); system == "http://hl7.org/fhir/sid/us-ssn" {
				rec.Identifiers = append(rec.Identifiers, mpi.Identifier{Type: mpi.IdentifierSSN, Value: value})
			}
		}
	}
	return rec
}
