package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
)

// pathUUID binds a uuid path parameter the way oapi-codegen's chi wrappers
// do, answering 422 itself when it is malformed.
func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	var id uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid "+name+": must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// tripAndItem binds the {id} and {itemId} path parameters.
func tripAndItem(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tripID, ok := pathUUID(w, r, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	itemID, ok := pathUUID(w, r, "itemId")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return tripID, itemID, true
}

// queryParam binds an optional form-style query parameter into dest.
func queryParam(w http.ResponseWriter, r *http.Request, name string, required bool, dest any) bool {
	if err := runtime.BindQueryParameter("form", true, required, name, r.URL.Query(), dest); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "validation_error", "invalid query parameter "+name)
		return false
	}
	return true
}
