package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"itemcatalog/internal/models"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not found")

type DB struct {
	*sql.DB
}

func Init(driver, dsn string) (*DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &DB{db}, nil
}

// The schema and the ? placeholders throughout this package are sqlite
// dialect. A postgres deployment needs its own DDL and $n placeholders.
func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL,
			picture TEXT,
			email TEXT UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT UNIQUE NOT NULL,
			user_id INTEGER,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
		`CREATE TABLE IF NOT EXISTS items (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT,
			cat_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			last_updated TIMESTAMP NOT NULL,
			FOREIGN KEY (cat_id) REFERENCES categories(id),
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("failed to create table: %v", err)
		}
	}

	return nil
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	query := "SELECT id, username, picture, email FROM users WHERE email = ?"

	user := &models.User{}
	err := db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Username, &user.Picture, &user.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (db *DB) CreateUser(ctx context.Context, username, picture, email string) (*models.User, error) {
	query := "INSERT INTO users (username, picture, email) VALUES (?, ?, ?)"
	res, err := db.ExecContext(ctx, query, username, picture, email)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.User{ID: int(id), Username: username, Picture: picture, Email: email}, nil
}

func (db *DB) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&n)
	return n, err
}

func (db *DB) GetCategories(ctx context.Context) ([]models.Category, error) {
	query := "SELECT id, name, user_id FROM categories ORDER BY name"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		var userID sql.NullInt64
		if err := rows.Scan(&cat.ID, &cat.Name, &userID); err != nil {
			return nil, err
		}
		cat.UserID = int(userID.Int64)
		categories = append(categories, cat)
	}
	return categories, rows.Err()
}

func (db *DB) GetCategoryByName(ctx context.Context, name string) (*models.Category, error) {
	query := "SELECT id, name, user_id FROM categories WHERE name = ?"

	cat := &models.Category{}
	var userID sql.NullInt64
	err := db.QueryRowContext(ctx, query, name).Scan(&cat.ID, &cat.Name, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cat.UserID = int(userID.Int64)
	return cat, nil
}

func (db *DB) GetCategoryByID(ctx context.Context, id int) (*models.Category, error) {
	query := "SELECT id, name, user_id FROM categories WHERE id = ?"

	cat := &models.Category{}
	var userID sql.NullInt64
	err := db.QueryRowContext(ctx, query, id).Scan(&cat.ID, &cat.Name, &userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	cat.UserID = int(userID.Int64)
	return cat, nil
}

func (db *DB) CreateCategory(ctx context.Context, name string, userID int) (*models.Category, error) {
	query := "INSERT INTO categories (name, user_id) VALUES (?, ?)"
	res, err := db.ExecContext(ctx, query, name, userID)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Category{ID: int(id), Name: name, UserID: userID}, nil
}

// GetItems returns all items, most recently updated first.
func (db *DB) GetItems(ctx context.Context) ([]models.Item, error) {
	query := `SELECT id, title, description, cat_id, user_id, last_updated
		FROM items ORDER BY last_updated DESC`

	return db.queryItems(ctx, query)
}

func (db *DB) GetItemsByCategory(ctx context.Context, catID int) ([]models.Item, error) {
	query := `SELECT id, title, description, cat_id, user_id, last_updated
		FROM items WHERE cat_id = ? ORDER BY last_updated DESC`

	return db.queryItems(ctx, query, catID)
}

func (db *DB) queryItems(ctx context.Context, query string, args ...interface{}) ([]models.Item, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.CategoryID,
			&item.UserID, &item.LastUpdated); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (db *DB) GetItemByID(ctx context.Context, id int) (*models.Item, error) {
	query := `SELECT id, title, description, cat_id, user_id, last_updated
		FROM items WHERE id = ?`

	return db.queryItem(ctx, query, id)
}

// GetItemByTitle returns the first item with the given title. Titles are not
// unique across categories; edit and delete forms address items this way and
// the POST that follows carries the resolved id.
func (db *DB) GetItemByTitle(ctx context.Context, title string) (*models.Item, error) {
	query := `SELECT id, title, description, cat_id, user_id, last_updated
		FROM items WHERE title = ? LIMIT 1`

	return db.queryItem(ctx, query, title)
}

func (db *DB) GetItemByTitleAndCategory(ctx context.Context, title string, catID int) (*models.Item, error) {
	query := `SELECT id, title, description, cat_id, user_id, last_updated
		FROM items WHERE title = ? AND cat_id = ? LIMIT 1`

	return db.queryItem(ctx, query, title, catID)
}

func (db *DB) queryItem(ctx context.Context, query string, args ...interface{}) (*models.Item, error) {
	item := &models.Item{}
	err := db.QueryRowContext(ctx, query, args...).Scan(&item.ID, &item.Title, &item.Description,
		&item.CategoryID, &item.UserID, &item.LastUpdated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return item, nil
}

func (db *DB) CreateItem(ctx context.Context, title, description string, catID, userID int) (*models.Item, error) {
	now := time.Now().UTC()
	query := `INSERT INTO items (title, description, cat_id, user_id, last_updated)
		VALUES (?, ?, ?, ?, ?)`
	res, err := db.ExecContext(ctx, query, title, description, catID, userID, now)
	if err != nil {
		return nil, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}

	return &models.Item{
		ID:          int(id),
		Title:       title,
		Description: description,
		CategoryID:  catID,
		UserID:      userID,
		LastUpdated: now,
	}, nil
}

// UpdateItem rewrites title and description and bumps the last_updated
// timestamp. Last write wins; there is no optimistic concurrency token.
func (db *DB) UpdateItem(ctx context.Context, id int, title, description string) error {
	query := "UPDATE items SET title = ?, description = ?, last_updated = ? WHERE id = ?"
	res, err := db.ExecContext(ctx, query, title, description, time.Now().UTC(), id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *DB) DeleteItem(ctx context.Context, id int) error {
	query := "DELETE FROM items WHERE id = ?"
	res, err := db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
