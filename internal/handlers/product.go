package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/oakmart/storefront/internal/domain"
	"github.com/oakmart/storefront/internal/events"
	"github.com/oakmart/storefront/internal/models"
	"github.com/oakmart/storefront/internal/service/token"
	"github.com/oakmart/storefront/internal/util"
)

type ProductHandler struct {
	DB        *gorm.DB
	Publisher events.Publisher
}

type productRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Price       float64  `json:"price"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Images      []string `json:"images"`
}

func (r *productRequest) validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if r.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", domain.ErrValidation)
	}
	if r.Stock < 0 {
		return fmt.Errorf("%w: stock must be non-negative", domain.ErrValidation)
	}
	if !slices.Contains(models.ProductCategories, strings.ToLower(r.Category)) {
		return fmt.Errorf("%w: unknown category %q", domain.ErrValidation, r.Category)
	}
	return nil
}

func (h *ProductHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var product models.Product
	if err := h.DB.Preload("Images").Preload("Reviews").First(&product, id).Error; err != nil {
		return httpError(fmt.Errorf("%w: product %d", domain.ErrNotFound, id))
	}

	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandler) GetProducts(c echo.Context) error {
	page := parseIntDefault(c.QueryParam("page"), 1)
	size := parseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	q := h.DB.Model(&models.Product{})
	if category := c.QueryParam("category"); category != "" {
		q = q.Where("category = ?", strings.ToLower(category))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	var items []models.Product
	if err := q.Preload("Images").Order("id ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"data": items,
		"meta": map[string]any{
			"page":        page,
			"size":        limit,
			"total":       total,
			"total_pages": (total + int64(limit) - 1) / int64(limit),
			"has_prev":    page > 1,
			"has_next":    int64(offset+limit) < total,
		},
	})
}

func (h *ProductHandler) CreateProduct(c echo.Context) error {
	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Category = strings.ToLower(req.Category)
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	prod := models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
	}
	for i, url := range req.Images {
		prod.Images = append(prod.Images, models.ProductImage{URL: url, Position: i})
	}

	if err := h.DB.Create(&prod).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	publish(c, h.Publisher, events.TopicProductEvents, map[string]any{
		"type":      "product_created",
		"userID":    token.UserID(c),
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusCreated, prod)
}

func (h *ProductHandler) PatchProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var prod models.Product
	if err := h.DB.Preload("Images").First(&prod, id).Error; err != nil {
		return httpError(fmt.Errorf("%w: product %d", domain.ErrNotFound, id))
	}

	var req productRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.Category = strings.ToLower(req.Category)
	if err := req.validate(); err != nil {
		return httpError(err)
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		prod.Name = req.Name
		prod.Description = req.Description
		prod.Price = req.Price
		prod.Stock = req.Stock
		prod.Category = req.Category
		if err := tx.Save(&prod).Error; err != nil {
			return err
		}

		if req.Images != nil {
			if err := tx.Where("product_id = ?", prod.ID).Delete(&models.ProductImage{}).Error; err != nil {
				return err
			}
			prod.Images = nil
			for i, url := range req.Images {
				img := models.ProductImage{ProductID: prod.ID, URL: url, Position: i}
				if err := tx.Create(&img).Error; err != nil {
					return err
				}
				prod.Images = append(prod.Images, img)
			}
		}
		return nil
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	publish(c, h.Publisher, events.TopicProductEvents, map[string]any{
		"type":      "product_updated",
		"userID":    token.UserID(c),
		"productID": prod.ID,
		"name":      prod.Name,
	})

	return c.JSON(http.StatusOK, prod)
}

func (h *ProductHandler) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.ProductImage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("product_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Product{}, id).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	publish(c, h.Publisher, events.TopicProductEvents, map[string]any{
		"type":      "product_deleted",
		"userID":    token.UserID(c),
		"productID": id,
	})

	return c.NoContent(http.StatusNoContent)
}
