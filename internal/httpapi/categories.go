package httpapi

import (
    "net/http"

    chi "github.com/go-chi/chi/v5"

    "github.com/tinoosan/pocketledger/internal/ledger"
)

func pathCategoryType(w http.ResponseWriter, r *http.Request) (ledger.CategoryType, bool) {
    t, ok := ledger.ParseCategoryType(chi.URLParam(r, "type"))
    if !ok { badRequest(w, "type must be income or expense") }
    return t, ok
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
    t, ok := pathCategoryType(w, r)
    if !ok { return }
    cats, err := s.book.Categories(r.Context(), t)
    if err != nil { s.serviceError(w, r, err); return }
    out := make([]categoryResponse, 0, len(cats))
    for _, c := range cats { out = append(out, toCategoryResponse(c)) }
    toJSON(w, http.StatusOK, out)
}

func (s *Server) addCategory(w http.ResponseWriter, r *http.Request) {
    t, ok := pathCategoryType(w, r)
    if !ok { return }
    var req categoryRequest
    if !decodeJSON(w, r, &req) { return }
    c, err := s.book.AddCategory(r.Context(), t, req.Name)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusCreated, toCategoryResponse(c))
}

func (s *Server) renameCategory(w http.ResponseWriter, r *http.Request) {
    t, ok := pathCategoryType(w, r)
    if !ok { return }
    id, ok := pathID(w, r, "id")
    if !ok { return }
    var req categoryRequest
    if !decodeJSON(w, r, &req) { return }
    change, err := s.book.RenameCategory(r.Context(), t, id, req.Name)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toCategoryChangeResponse(change))
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
    t, ok := pathCategoryType(w, r)
    if !ok { return }
    id, ok := pathID(w, r, "id")
    if !ok { return }
    change, err := s.book.DeleteCategory(r.Context(), t, id)
    if err != nil { s.serviceError(w, r, err); return }
    toJSON(w, http.StatusOK, toCategoryChangeResponse(change))
}
