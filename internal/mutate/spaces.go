package mutate

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"momentum-cli/internal/model"
	"momentum-cli/internal/store"
)

func CreateSpace(ctx context.Context, st Stores, name string) (model.Space, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Space{}, invalidInput("space name is required")
	}
	sp := model.Space{ID: store.NewID("spc"), Name: name, CreatedAt: st.now()}
	if err := st.Spaces.Upsert(ctx, sp); err != nil {
		return model.Space{}, fmt.Errorf("save space: %w", err)
	}
	if err := st.appendEvent(ctx, "space.create", sp.ID, sp); err != nil {
		return model.Space{}, err
	}
	return sp, nil
}

// ResolveSpace finds a space by id, or by case-insensitive name when no id
// matches.
func ResolveSpace(ctx context.Context, st Stores, ref string) (model.Space, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return model.Space{}, invalidInput("no space selected")
	}
	if sp, ok, err := st.Spaces.Get(ctx, ref); err != nil {
		return model.Space{}, err
	} else if ok {
		return sp, nil
	}
	all, err := ListSpaces(ctx, st)
	if err != nil {
		return model.Space{}, err
	}
	for _, sp := range all {
		if strings.EqualFold(sp.Name, ref) {
			return sp, nil
		}
	}
	return model.Space{}, NotFoundError{Kind: "space", ID: ref}
}

func ListSpaces(ctx context.Context, st Stores) ([]model.Space, error) {
	// Spaces are not space-scoped; they sit under the empty space key.
	all, err := st.Spaces.BySpace(ctx, "")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

// DeleteSpace removes a space and, when a purger is wired, every action, log,
// entry, problem and to-do recorded in it.
func DeleteSpace(ctx context.Context, st Stores, id string) (model.Space, error) {
	sp, err := ResolveSpace(ctx, st, id)
	if err != nil {
		return model.Space{}, err
	}
	if st.Purger != nil {
		err = st.Purger.DeleteSpace(ctx, sp.ID)
	} else {
		err = st.Spaces.Delete(ctx, sp.ID)
	}
	if err != nil {
		return model.Space{}, fmt.Errorf("delete space %s: %w", sp.ID, err)
	}
	if err := st.appendEvent(ctx, "space.delete", sp.ID, sp); err != nil {
		return model.Space{}, err
	}
	return sp, nil
}
