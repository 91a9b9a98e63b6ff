package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

const mutationPrefix = "/api/v1/mutations/"

// Mutation sources accepted under /api/v1/mutations/{source}.
const (
	mutationProductSave       = "product-save"
	mutationProductDelete     = "product-delete"
	mutationPrice             = "price"
	mutationTierPrice         = "tier-price"
	mutationTierPriceReplace  = "tier-price-replace"
	mutationTierPriceDelete   = "tier-price-delete"
	mutationStockItem         = "stock-item"
	mutationCategoryProducts  = "category-products"
	mutationConfigurableLinks = "configurable-links"
	mutationAttributeSave     = "attribute-save"
	mutationAttributeDelete   = "attribute-delete"
)

type productSaveRequest struct {
	Before *indexsync.ProductSnapshot `json:"before,omitempty"`
	After  indexsync.ProductSnapshot  `json:"after" validate:"required"`
}

// productDeleteRequest carries the parents the host read before deleting;
// the links are gone by the time the intake runs.
type productDeleteRequest struct {
	EntityID  int64   `json:"entityId" validate:"gt=0"`
	ParentIDs []int64 `json:"parentIds" validate:"required,dive,gt=0"`
}

type priceRequest struct {
	Rows []indexsync.PriceRow `json:"rows" validate:"required,min=1"`
}

type tierPriceRequest struct {
	Rows []indexsync.TierPriceRow `json:"rows" validate:"required,min=1"`
}

// stockItemRequest carries the flag persisted before the host's write.
type stockItemRequest struct {
	ProductID  int64 `json:"productId" validate:"gt=0"`
	IsInStock  bool  `json:"isInStock"`
	WasInStock *bool `json:"wasInStock" validate:"required"`
}

type mutationResponse struct {
	Accepted bool   `json:"accepted"`
	Mutation string `json:"mutation"`
}

// alreadyWritten is the write callback of the around hooks: the host has
// persisted the mutation before calling the intake, so before-state the
// detectors cannot read any more travels in the request.
func alreadyWritten(context.Context) error {
	return nil
}

// handleMutation handles POST /api/v1/mutations/{source}
func (s *Server) handleMutation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	source := strings.Trim(strings.TrimPrefix(r.URL.Path, mutationPrefix), "/")
	ctx := r.Context()

	var err error
	switch source {
	case mutationProductSave:
		var req productSaveRequest
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterProductSave(ctx, req.Before, req.After)
		}
	case mutationProductDelete:
		var req productDeleteRequest
		if err = decodeRequest(r, &req); err == nil {
			product := indexsync.ProductDeletion{EntityID: req.EntityID, ParentIDs: req.ParentIDs}
				err = s.observer.AroundProductDelete(ctx, product, alreadyWritten)
		}
	case mutationPrice:
		var req priceRequest
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterPriceSave(ctx, req.Rows)
		}
	case mutationTierPrice:
		var req tierPriceRequest
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterTierPriceSave(ctx, req.Rows)
		}
	case mutationTierPriceReplace:
		var req tierPriceRequest
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterTierPriceReplace(ctx, req.Rows)
		}
	case mutationTierPriceDelete:
		var req tierPriceRequest
		if err = decodeRequest(r, &req); err == nil {
			err = s.observer.AroundTierPriceDelete(ctx, req.Rows, alreadyWritten)
		}
	case mutationStockItem:
		var req stockItemRequest
		if err = decodeRequest(r, &req); err == nil {
			item := indexsync.StockItem{ProductID: req.ProductID, IsInStock: req.IsInStock, WasInStock: req.WasInStock}
			err = s.observer.AroundStockItemSave(ctx, item, alreadyWritten)
		}
	case mutationCategoryProducts:
		var req indexsync.CategoryRelationChange
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterCategoryRelationSave(ctx, req)
		}
	case mutationConfigurableLinks:
		var req indexsync.ConfigurableLinkChange
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterConfigurableLinkChange(ctx, req)
		}
	case mutationAttributeSave:
		var req indexsync.AttributeConfigChange
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterAttributeSave(ctx, req)
		}
	case mutationAttributeDelete:
		var req indexsync.AttributeDescriptor
		if err = decodeRequest(r, &req); err == nil {
			s.observer.AfterAttributeDelete(ctx, req)
		}
	default:
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown mutation %q", source))
		return
	}

	if err != nil {
		zap.S().Debugw("rejected mutation", "mutation", source, "err", err)
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid %s body: %v", source, err))
		return
	}
	writeSuccess(w, http.StatusAccepted, mutationResponse{Accepted: true, Mutation: source})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			zap.S().Warnw("health check failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
}
