package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/models"
)

type testEnv struct {
	T   *testing.T
	E   *echo.Echo
	DB  *gorm.DB
	Rec *events.Recorder
}

func newTestEnv(t *testing.T) *testEnv {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}

	return &testEnv{T: t, E: echo.New(), DB: db, Rec: &events.Recorder{}}
}

func (env *testEnv) doJSONRequest(method, path string, body interface{}, userID uint, role string) (*httptest.ResponseRecorder, echo.Context) {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := env.E.NewContext(req, rec)
	if userID != 0 {
		c.Set("userID", userID)
		c.Set("role", role)
	}
	return rec, c
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) models.Product {
	p := models.Product{
		Name:        name,
		Description: "d",
		Price:       price,
		Stock:       stock,
		Category:    "other",
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}
