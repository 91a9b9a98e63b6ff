package internal

import (
	"context"
	"slices"

	"github.com/lychee-technology/indexsync"
	"go.uber.org/zap"
)

// PriceDetector turns the rows written by a price persistence call into one
// record per store. The rows are trusted as the change set; nothing is re-read.
type PriceDetector struct {
	links       indexsync.LinkFieldMapper
	integration indexsync.IntegrationChecker
}

func NewPriceDetector(links indexsync.LinkFieldMapper, integration indexsync.IntegrationChecker) *PriceDetector {
	return &PriceDetector{links: links, integration: integration}
}

type storeGroup struct {
	linkIDs   []int64
	codes     []string
	groups    []int64
	allGroups bool
}

// DetectPrices handles price attribute rows.
func (d *PriceDetector) DetectPrices(ctx context.Context, rows []indexsync.PriceRow) ([]indexsync.ChangeRecord, error) {
	byStore := make(map[int64]*storeGroup)
	for _, row := range rows {
		group := groupFor(byStore, row.StoreID)
		group.linkIDs = append(group.linkIDs, row.RowLinkID)
		code := row.AttributeCode
		if code == "" {
			code = indexsync.AttributePrice
		}
		group.codes = append(group.codes, code)
	}
	return d.records(ctx, byStore)
}

// DetectTierPrices handles tier-price rows for saves, replaces and the
// pre-delete capture of deletes.
func (d *PriceDetector) DetectTierPrices(ctx context.Context, rows []indexsync.TierPriceRow) ([]indexsync.ChangeRecord, error) {
	byStore := make(map[int64]*storeGroup)
	for _, row := range rows {
		group := groupFor(byStore, row.StoreID)
		group.linkIDs = append(group.linkIDs, row.RowLinkID)
		group.codes = append(group.codes, indexsync.AttributePrice)
		if row.AllGroups {
			group.allGroups = true
		} else {
			group.groups = append(group.groups, row.CustomerGroupID)
		}
	}
	return d.records(ctx, byStore)
}

func groupFor(byStore map[int64]*storeGroup, storeID int64) *storeGroup {
	group, ok := byStore[storeID]
	if !ok {
		group = &storeGroup{}
		byStore[storeID] = group
	}
	return group
}

// records emits stores in ascending order, skipping stores that are not
// integrated or whose link ids map to no entity. A failed id mapping drops
// only its store; the error is returned when no store produced a record.
func (d *PriceDetector) records(ctx context.Context, byStore map[int64]*storeGroup) ([]indexsync.ChangeRecord, error) {
	stores := MapKeys(byStore)
	slices.Sort(stores)

	var mappingErr error
	records := make([]indexsync.ChangeRecord, 0, len(stores))
	for _, storeID := range stores {
		if !d.integration.IsIntegrated(storeID) {
			continue
		}
		group := byStore[storeID]

		entityIDs, err := d.links.EntityIDs(ctx, uniqueInOrder(group.linkIDs))
		if err != nil {
			mappingErr = indexsync.NewCollaboratorError("EntityIDs", err).
				WithDetail("storeId", storeID).
				WithDetail("linkIds", group.linkIDs)
			zap.S().Warnw("link id mapping failed, skipping store",
				"operation", "EntityIDs", "store_id", storeID, "link_ids", group.linkIDs, "err", err)
			continue
		}
		if len(entityIDs) == 0 {
			continue
		}

		customerGroups := []int64{}
		if !group.allGroups {
			customerGroups = sortedUnique(group.groups)
		}

		records = append(records, indexsync.ChangeRecord{
			EntityIDs:         entityIDs,
			StoreIDs:          storeScope(storeID),
			CustomerGroupIDs:  customerGroups,
			ChangedAttributes: sortedUnique(group.codes),
			EntitySubtypes:    []indexsync.Aspect{},
		})
	}
	if len(records) == 0 && mappingErr != nil {
		return nil, mappingErr
	}
	return records, nil
}
