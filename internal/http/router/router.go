package router

import (
	"itemcatalog/internal/db"
	"itemcatalog/internal/http/handlers"
	"itemcatalog/internal/oauth"
	"itemcatalog/internal/security"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

func Setup(db *db.DB, sessions *security.SessionStore, google *oauth.Client, clientID string, logger *log.Logger) *mux.Router {
	r := mux.NewRouter()

	authHandler := handlers.NewAuthHandler(db, sessions, google, clientID, logger)
	catalogHandler := handlers.NewCatalogHandler(db, sessions, logger)

	r.HandleFunc("/", catalogHandler.Home).Methods("GET")

	r.HandleFunc("/oauth/google", authHandler.GoogleConnect).Methods("POST")
	r.HandleFunc("/gdisconnect", authHandler.GoogleDisconnect).Methods("GET")

	r.HandleFunc("/item/new/", catalogHandler.NewItemForm).Methods("GET")
	r.HandleFunc("/item/new/", catalogHandler.CreateItem).Methods("POST")

	r.HandleFunc("/catalog.json", catalogHandler.CatalogJSON).Methods("GET")
	r.HandleFunc("/catalog/{category}/items", catalogHandler.CategoryItems).Methods("GET")
	r.HandleFunc("/catalog/{item}/edit", catalogHandler.EditItemForm).Methods("GET")
	r.HandleFunc("/catalog/{item}/edit", catalogHandler.EditItem).Methods("POST")
	r.HandleFunc("/catalog/{item}/delete", catalogHandler.DeleteItemForm).Methods("GET")
	r.HandleFunc("/catalog/{item}/delete", catalogHandler.DeleteItem).Methods("POST")
	// Registered after edit/delete so those literal suffixes win.
	r.HandleFunc("/catalog/{category}/{item}", catalogHandler.ItemDetail).Methods("GET")

	return r
}
