package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/feria-cr/feria-backend/api/responses"
	"github.com/feria-cr/feria-backend/api/validators"
	productsvc "github.com/feria-cr/feria-backend/internal/products"
	pkgerrors "github.com/feria-cr/feria-backend/pkg/errors"
	"github.com/feria-cr/feria-backend/pkg/logger"
)

// PublicListProducts serves the paginated public catalog.
func PublicListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		params, err := parsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseProductFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// PublicGetProduct serves one listing by id.
func PublicGetProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetByID(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type createProductRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description *string  `json:"description,omitempty"`
	Category    string   `json:"category" validate:"required"`
	PriceCents  int64    `json:"price_cents" validate:"required,min=1"`
	Stock       int      `json:"stock" validate:"min=0"`
	ImageURLs   []string `json:"image_urls,omitempty"`
}

type updateProductRequest struct {
	Name        *string   `json:"name,omitempty"`
	Description *string   `json:"description,omitempty"`
	Category    *string   `json:"category,omitempty"`
	PriceCents  *int64    `json:"price_cents,omitempty" validate:"omitempty,min=1"`
	Stock       *int      `json:"stock,omitempty" validate:"omitempty,min=0"`
	ImageURLs   *[]string `json:"image_urls,omitempty"`
	IsActive    *bool     `json:"is_active,omitempty"`
}

// SellerCreateProduct adds a listing to the authenticated seller's store.
func SellerCreateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		storeID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Create(r.Context(), storeID, productsvc.CreateProductInput{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			PriceCents:  body.PriceCents,
			Stock:       body.Stock,
			ImageURLs:   body.ImageURLs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// SellerUpdateProduct applies partial edits to one of the seller's listings.
func SellerUpdateProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		storeID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.Update(r.Context(), storeID, productID, productsvc.UpdateProductInput{
			Name:        body.Name,
			Description: body.Description,
			Category:    body.Category,
			PriceCents:  body.PriceCents,
			Stock:       body.Stock,
			ImageURLs:   body.ImageURLs,
			IsActive:    body.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// SellerDeleteProduct retires one of the seller's listings.
func SellerDeleteProduct(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		storeID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), storeID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SellerListProducts serves the seller's full catalog including inactive listings.
func SellerListProducts(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "product service unavailable"))
			return
		}

		storeID, err := actorStoreID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		products, err := svc.ListByStore(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, products)
	}
}

func parseProductFilters(r *http.Request) (productsvc.ListFilters, error) {
	var filters productsvc.ListFilters

	storeID, err := validators.ParseQueryUUID(r, "store_id")
	if err != nil {
		return filters, err
	}
	filters.StoreID = storeID

	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filters.Category = &category
	}
	if search := strings.TrimSpace(r.URL.Query().Get("q")); search != "" {
		filters.Search = &search
	}

	if minPrice, err := validators.ParseQueryInt64(r, "min_price_cents"); err != nil {
		return filters, err
	} else if minPrice > 0 {
		filters.MinPriceCents = &minPrice
	}
	if maxPrice, err := validators.ParseQueryInt64(r, "max_price_cents"); err != nil {
		return filters, err
	} else if maxPrice > 0 {
		filters.MaxPriceCents = &maxPrice
	}

	return filters, nil
}
