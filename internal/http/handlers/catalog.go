package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"itemcatalog/internal/db"
	"itemcatalog/internal/models"
	"itemcatalog/internal/security"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

type CatalogHandler struct {
	db       *db.DB
	sessions *security.SessionStore
	logger   *log.Logger
}

func NewCatalogHandler(db *db.DB, sessions *security.SessionStore, logger *log.Logger) *CatalogHandler {
	return &CatalogHandler{
		db:       db,
		sessions: sessions,
		logger:   logger,
	}
}

// itemView is an item as shown on list and detail pages: the is_creator flag
// tells presentation whether to offer edit/delete actions.
type itemView struct {
	ID          int    `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CategoryID  int    `json:"cat_id"`
	IsCreator   bool   `json:"is_creator"`
}

type listPage struct {
	State         string            `json:"state"`
	Categories    []models.Category `json:"categories"`
	Items         []itemView        `json:"items"`
	Authenticated bool              `json:"authenticated"`
	ItemsHeading  string            `json:"items_heading"`
}

type itemFormPage struct {
	State         string            `json:"state"`
	Categories    []models.Category `json:"categories"`
	Authenticated bool              `json:"authenticated"`
	Result        string            `json:"result,omitempty"`
}

type itemDetailPage struct {
	State         string `json:"state"`
	ItemTitle     string `json:"item_title"`
	Description   string `json:"description"`
	Authenticated bool   `json:"authenticated"`
	IsCreator     bool   `json:"is_creator"`
	Result        string `json:"result,omitempty"`
}

type editFormPage struct {
	CurrentTitle  string            `json:"current_title"`
	CurrentID     int               `json:"current_id"`
	State         string            `json:"state"`
	Description   string            `json:"description"`
	Categories    []models.Category `json:"categories"`
	Authenticated bool              `json:"authenticated"`
}

type deleteFormPage struct {
	ItemTitle     string `json:"item_title"`
	ItemID        int    `json:"item_id"`
	State         string `json:"state"`
	Description   string `json:"description"`
	Authenticated bool   `json:"authenticated"`
}

func itemViews(items []models.Item, userID int, authenticated bool) []itemView {
	views := make([]itemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			CategoryID:  item.CategoryID,
			IsCreator:   authenticated && item.UserID == userID,
		})
	}
	return views
}

// Home lists all items newest-first alongside the category list.
func (h *CatalogHandler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	items, err := h.db.GetItems(ctx)
	if err != nil {
		serverError(w, h.logger, "listing items", err)
		return
	}
	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	userID, authenticated := h.sessions.UserID(sess)

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, listPage{
		State:         state,
		Categories:    categories,
		Items:         itemViews(items, userID, authenticated),
		Authenticated: authenticated,
		ItemsHeading:  "Latest Items",
	})
}

// NewItemForm returns the data for the create-item form. Auth required.
func (h *CatalogHandler) NewItemForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	if !h.sessions.IsAuthenticated(sess) {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, itemFormPage{
		State:         state,
		Categories:    categories,
		Authenticated: true,
	})
}

// CreateItem adds an item owned by the session user: state token check,
// authentication check, field validation, category existence, then insert.
func (h *CatalogHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	if err := r.ParseForm(); err != nil {
		respond(w, http.StatusBadRequest, "Malformed form data")
		return
	}

	if !h.stateMatches(sess, r.PostFormValue("state")) {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	userID, ok := h.sessions.UserID(sess)
	if !ok {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	name := r.PostFormValue("name")
	if name == "" {
		respond(w, http.StatusBadRequest, validationMessage("name"))
		return
	}
	catID, err := strconv.Atoi(r.PostFormValue("category"))
	if err != nil {
		respond(w, http.StatusBadRequest, validationMessage("category"))
		return
	}

	if _, err := h.db.GetCategoryByID(ctx, catID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidCategory)
			return
		}
		serverError(w, h.logger, "looking up category", err)
		return
	}

	item, err := h.db.CreateItem(ctx, name, r.PostFormValue("desc"), catID, userID)
	if err != nil {
		serverError(w, h.logger, "creating item", err)
		return
	}
	h.logger.Info("item created", "item_id", item.ID, "user_id", userID)

	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, itemFormPage{
		State:         state,
		Categories:    categories,
		Authenticated: true,
		Result:        "Item added successfully",
	})
}

// CategoryItems lists the items of one category, resolved by name with a
// read-through store query.
func (h *CatalogHandler) CategoryItems(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	category, err := h.db.GetCategoryByName(ctx, mux.Vars(r)["category"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidCategory)
			return
		}
		serverError(w, h.logger, "looking up category", err)
		return
	}

	items, err := h.db.GetItemsByCategory(ctx, category.ID)
	if err != nil {
		serverError(w, h.logger, "listing category items", err)
		return
	}
	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	userID, authenticated := h.sessions.UserID(sess)

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, listPage{
		State:         state,
		Categories:    categories,
		Items:         itemViews(items, userID, authenticated),
		Authenticated: authenticated,
		ItemsHeading:  category.Name + " Items",
	})
}

// ItemDetail shows one item, with is_creator set when the viewer owns it.
func (h *CatalogHandler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)
	vars := mux.Vars(r)

	category, err := h.db.GetCategoryByName(ctx, vars["category"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidCategory)
			return
		}
		serverError(w, h.logger, "looking up category", err)
		return
	}

	item, err := h.db.GetItemByTitleAndCategory(ctx, vars["item"], category.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidItem)
			return
		}
		serverError(w, h.logger, "looking up item", err)
		return
	}

	userID, authenticated := h.sessions.UserID(sess)

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, itemDetailPage{
		State:         state,
		ItemTitle:     item.Title,
		Description:   item.Description,
		Authenticated: authenticated,
		IsCreator:     authenticated && item.UserID == userID,
	})
}

// EditItemForm returns the data for the edit form. Existence is checked
// before ownership so a missing item is a 404 even for non-owners.
func (h *CatalogHandler) EditItemForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	userID, ok := h.sessions.UserID(sess)
	if !ok {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	item, err := h.db.GetItemByTitle(ctx, mux.Vars(r)["item"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidItem)
			return
		}
		serverError(w, h.logger, "looking up item", err)
		return
	}

	if item.UserID != userID {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, editFormPage{
		CurrentTitle:  item.Title,
		CurrentID:     item.ID,
		State:         state,
		Description:   item.Description,
		Categories:    categories,
		Authenticated: true,
	})
}

// EditItem applies an update to the item named by the form's currentId.
// Only the owner may update; the timestamp is bumped on success.
func (h *CatalogHandler) EditItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	if err := r.ParseForm(); err != nil {
		respond(w, http.StatusBadRequest, "Malformed form data")
		return
	}

	if !h.stateMatches(sess, r.PostFormValue("state")) {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	userID, ok := h.sessions.UserID(sess)
	if !ok {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	itemID, err := strconv.Atoi(r.PostFormValue("currentId"))
	if err != nil {
		respond(w, http.StatusBadRequest, validationMessage("currentId"))
		return
	}
	name := r.PostFormValue("name")
	if name == "" {
		respond(w, http.StatusBadRequest, validationMessage("name"))
		return
	}

	item, err := h.db.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidItem)
			return
		}
		serverError(w, h.logger, "looking up item", err)
		return
	}

	if item.UserID != userID {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	desc := r.PostFormValue("desc")
	if err := h.db.UpdateItem(ctx, item.ID, name, desc); err != nil {
		serverError(w, h.logger, "updating item", err)
		return
	}
	h.logger.Info("item updated", "item_id", item.ID, "user_id", userID)

	respond(w, http.StatusOK, itemDetailPage{
		State:         h.sessions.State(sess),
		ItemTitle:     name,
		Description:   desc,
		Authenticated: true,
		IsCreator:     true,
		Result:        "Item modified successfully",
	})
}

// DeleteItemForm returns the data for the delete confirmation page.
func (h *CatalogHandler) DeleteItemForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	userID, ok := h.sessions.UserID(sess)
	if !ok {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	item, err := h.db.GetItemByTitle(ctx, mux.Vars(r)["item"])
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidItem)
			return
		}
		serverError(w, h.logger, "looking up item", err)
		return
	}

	if item.UserID != userID {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	state, err := h.sessions.IssueState(sess)
	if err != nil {
		serverError(w, h.logger, "issuing state token", err)
		return
	}
	if err := h.sessions.Save(r, w, sess); err != nil {
		serverError(w, h.logger, "saving session", err)
		return
	}

	respond(w, http.StatusOK, deleteFormPage{
		ItemTitle:     item.Title,
		ItemID:        item.ID,
		State:         state,
		Description:   item.Description,
		Authenticated: true,
	})
}

// DeleteItem removes the item named by the JSON body's id. Owner only.
func (h *CatalogHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := h.sessions.Get(r)

	var req struct {
		State string `json:"state"`
		ID    int    `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	if !h.stateMatches(sess, req.State) {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	userID, ok := h.sessions.UserID(sess)
	if !ok {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	item, err := h.db.GetItemByID(ctx, req.ID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			respond(w, http.StatusNotFound, msgInvalidItem)
			return
		}
		serverError(w, h.logger, "looking up item", err)
		return
	}

	if item.UserID != userID {
		respond(w, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	if err := h.db.DeleteItem(ctx, item.ID); err != nil {
		serverError(w, h.logger, "deleting item", err)
		return
	}
	h.logger.Info("item deleted", "item_id", item.ID, "user_id", userID)

	respond(w, http.StatusOK, map[string]string{"message": "Item deleted successfully"})
}

// CatalogJSON exports every category with its items.
func (h *CatalogHandler) CatalogJSON(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.db.GetCategories(ctx)
	if err != nil {
		serverError(w, h.logger, "listing categories", err)
		return
	}

	export := models.CatalogExport{Category: make([]models.CategoryExport, 0, len(categories))}
	for _, category := range categories {
		items, err := h.db.GetItemsByCategory(ctx, category.ID)
		if err != nil {
			serverError(w, h.logger, "listing category items", err)
			return
		}

		catExport := models.CategoryExport{
			ID:    category.ID,
			Name:  category.Name,
			Items: make([]models.ItemExport, 0, len(items)),
		}
		for _, item := range items {
			catExport.Items = append(catExport.Items, models.ItemExport{
				ID:          item.ID,
				Title:       item.Title,
				Description: item.Description,
				CategoryID:  item.CategoryID,
			})
		}
		export.Category = append(export.Category, catExport)
	}

	respond(w, http.StatusOK, export)
}

// stateMatches reports whether the presented token equals the session's
// currently issued token. A session with no issued token matches nothing.
func (h *CatalogHandler) stateMatches(sess *sessions.Session, presented string) bool {
	state := h.sessions.State(sess)
	return state != "" && presented == state
}

func validationMessage(field string) string {
	return fmt.Sprintf("Missing or invalid form field: %s", field)
}
