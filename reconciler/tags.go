package reconciler

import (
	"context"
	"fmt"

	"github.com/vintari/cskeeper/gateway"
	"github.com/vintari/cskeeper/types"
)

// diffTags computes the removal and addition sets that reconcile existing
// tags to the desired list. Removals are existing tags whose key is not
// desired or whose value differs; additions are desired tags not already
// present with the same value. Applying both yields tag-list equality, and
// applying them to an already-reconciled resource yields empty sets.
func diffTags(existing, desired []types.Tag) (toRemove, toAdd []types.Tag) {
	desiredByKey := make(map[string]string, len(desired))
	for _, tag := range desired {
		desiredByKey[tag.Key] = tag.Value
	}
	for _, tag := range existing {
		value, ok := desiredByKey[tag.Key]
		if !ok || value != tag.Value {
			toRemove = append(toRemove, tag)
		}
	}

	existingByKey := make(map[string]string, len(existing))
	for _, tag := range existing {
		existingByKey[tag.Key] = tag.Value
	}
	for _, tag := range desired {
		value, ok := existingByKey[tag.Key]
		if !ok || value != tag.Value {
			toAdd = append(toAdd, tag)
		}
	}
	return toRemove, toAdd
}

// ensureTags reconciles the tags of one resource. A nil desired list means
// "leave tags alone". The removal call precedes the addition call. Returns
// the tags after reconciliation and whether anything changed.
func (c *core) ensureTags(ctx context.Context, resourceID, resourceType string, existing, desired []types.Tag) ([]types.Tag, bool, error) {
	if desired == nil {
		return existing, false, nil
	}

	toRemove, toAdd := diffTags(existing, desired)
	if len(toRemove) == 0 && len(toAdd) == 0 {
		return existing, false, nil
	}

	if c.opts.DryRun {
		return desired, true, nil
	}

	if len(toRemove) > 0 {
		if _, err := c.mutate(ctx, "deleteTags", tagParams(resourceID, resourceType, toRemove)); err != nil {
			return nil, false, fmt.Errorf("delete tags: %w", err)
		}
	}
	if len(toAdd) > 0 {
		if _, err := c.mutate(ctx, "createTags", tagParams(resourceID, resourceType, toAdd)); err != nil {
			return nil, false, fmt.Errorf("create tags: %w", err)
		}
	}

	refreshed, err := c.listTags(ctx, resourceID)
	if err != nil {
		return nil, false, err
	}
	return refreshed, true, nil
}

func tagParams(resourceID, resourceType string, tags []types.Tag) gateway.Params {
	params := gateway.NewParams().
		Set("resourceids", resourceID).
		Set("resourcetype", resourceType)
	for i, tag := range tags {
		params.Set(fmt.Sprintf("tags[%d].key", i), tag.Key)
		params.Set(fmt.Sprintf("tags[%d].value", i), tag.Value)
	}
	return params
}

func (c *core) listTags(ctx context.Context, resourceID string) ([]types.Tag, error) {
	resp, err := c.gw.Request(ctx, "listTags", gateway.NewParams().Set("resourceid", resourceID))
	if err != nil {
		return nil, err
	}
	var tags []types.Tag
	for _, item := range resp.List("tag") {
		var tag types.Tag
		if err := gateway.Decode(map[string]any(item), &tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, nil
}
